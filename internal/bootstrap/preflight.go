package bootstrap

import (
	"github.com/gwcloudlab/owbootstrap/internal/platform/kubeadm"
	"github.com/gwcloudlab/owbootstrap/internal/platform/node"
)

// PreflightPhase prepares the host: swap off, storage relocation onto the
// extra volume, docker group membership. Runs for both roles, before any
// coordination.
type PreflightPhase struct{}

// Name implements Phase.
func (PreflightPhase) Name() string { return "preflight" }

// Run implements Phase.
func (PreflightPhase) Run(ctx *Context) error {
	return node.NewPreflight(ctx.Runner, ctx.Observer.Printf).Run(ctx)
}

// KubeletConfigPhase pins the local kubelet to this node's LAN address.
// Runs for both roles, but only when the control plane is being started.
type KubeletConfigPhase struct{}

// Name implements Phase.
func (KubeletConfigPhase) Name() string { return "kubelet-config" }

// Run implements Phase.
func (KubeletConfigPhase) Run(ctx *Context) error {
	k := &kubeadm.Kubeadm{
		Runner:           ctx.Runner,
		AdvertiseAddress: ctx.Config.NodeAddress,
		Logf:             ctx.Observer.Printf,
	}
	return k.PatchKubeletNodeIP(ctx)
}
