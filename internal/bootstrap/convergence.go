package bootstrap

import (
	"context"

	"github.com/gwcloudlab/owbootstrap/internal/agent"
	"github.com/gwcloudlab/owbootstrap/internal/poll"
)

// ConvergencePhase delivers the join instruction to every secondary and
// blocks until the cluster reaches the operator-supplied node count, first
// in membership and then in readiness.
//
// A secondary may have missed every send so far (it may not even have booted
// yet), so the membership poll re-broadcasts the instruction on every
// shortfall cycle. Duplicate deliveries are safe: secondaries consume the
// instruction idempotently.
type ConvergencePhase struct{}

// Name implements Phase.
func (ConvergencePhase) Name() string { return "node-convergence" }

// Run implements Phase.
func (ConvergencePhase) Run(ctx *Context) error {
	cfg := ctx.Config
	cluster := ctx.State.Cluster

	primary := &agent.Primary{
		Channel: ctx.Channel,
		Port:    cfg.Settings.ChannelPort,
		Logf:    ctx.Observer.Printf,
	}
	hosts := cfg.SecondaryHosts()
	instr := ctx.State.Instruction

	rebroadcast := func(c context.Context) {
		primary.Broadcast(c, hosts, instr)
	}

	// First delivery attempt before the first observation.
	primary.Broadcast(ctx, hosts, instr)

	if err := poll.Until(ctx, "membership", cluster.NodeCount, cfg.NodeCount, rebroadcast,
		poll.WithInterval(cfg.Settings.PollInterval()),
		poll.WithLogf(ctx.Observer.Printf)); err != nil {
		return err
	}

	return poll.Until(ctx, "readiness", cluster.ReadyNodeCount, cfg.NodeCount, nil,
		poll.WithInterval(cfg.Settings.PollInterval()),
		poll.WithLogf(ctx.Observer.Printf))
}
