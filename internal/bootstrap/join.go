package bootstrap

import (
	"github.com/gwcloudlab/owbootstrap/internal/agent"
	"github.com/gwcloudlab/owbootstrap/internal/netchan"
	"github.com/gwcloudlab/owbootstrap/internal/platform/kubeadm"
)

// JoinPhase runs the secondary role agent: listen on the command channel
// until a valid join instruction arrives, then execute it. Blocks without
// deadline; the primary may not exist yet when this node starts.
type JoinPhase struct{}

// Name implements Phase.
func (JoinPhase) Name() string { return "cluster-join" }

// Run implements Phase.
func (JoinPhase) Run(ctx *Context) error {
	cfg := ctx.Config

	secondary := &agent.Secondary{
		Channel:  ctx.Channel,
		BindAddr: netchan.Endpoint(cfg.NodeAddress, cfg.Settings.ChannelPort),
		Exec: &kubeadm.Kubeadm{
			Runner: ctx.Runner,
			Logf:   ctx.Observer.Printf,
		},
		Logf: ctx.Observer.Printf,
	}
	return secondary.Run(ctx)
}
