package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gwcloudlab/owbootstrap/internal/agent"
	"github.com/gwcloudlab/owbootstrap/internal/platform/kubeadm"
)

// ControlPlanePhase initializes the control plane on the primary, captures
// the join instruction from the init log, and opens the cluster client.
// Failure here is fatal: a half-initialized control plane cannot be retried
// into health, only wiped and re-run.
type ControlPlanePhase struct{}

// Name implements Phase.
func (ControlPlanePhase) Name() string { return "control-plane-init" }

// Run implements Phase.
func (ControlPlanePhase) Run(ctx *Context) error {
	cfg := ctx.Config

	k := &kubeadm.Kubeadm{
		Runner:           ctx.Runner,
		AdvertiseAddress: cfg.NodeAddress,
		PodNetworkCIDR:   cfg.Settings.PodNetworkCIDR,
		InitLogPath:      cfg.Settings.InitLogPath(),
		Logf:             ctx.Observer.Printf,
	}

	primary := &agent.Primary{
		Channel: ctx.Channel,
		Init:    k,
		Port:    cfg.Settings.ChannelPort,
		Logf:    ctx.Observer.Printf,
	}

	instr, err := primary.ProduceInstruction(ctx)
	if err != nil {
		return err
	}
	ctx.State.Instruction = instr
	ctx.Observer.Printf("captured join instruction from %s", cfg.Settings.InitLogPath())

	// Convenience for the operator; the bootstrap itself reads the admin
	// config directly.
	if home, homeErr := os.UserHomeDir(); homeErr == nil {
		if err := k.InstallUserKubeconfig(cfg.Settings.KubeconfigPath, filepath.Join(home, ".kube")); err != nil {
			ctx.Observer.Printf("user kubeconfig install skipped: %v", err)
		}
	}

	cluster, err := ctx.NewCluster(cfg.Settings.KubeconfigPath)
	if err != nil {
		return fmt.Errorf("failed to open cluster client: %w", err)
	}
	ctx.State.Cluster = cluster
	return nil
}
