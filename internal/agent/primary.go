package agent

import (
	"context"
	"fmt"

	"github.com/gwcloudlab/owbootstrap/internal/netchan"
)

// Initializer runs control-plane initialization and returns the captured
// output log. Failure is fatal to the whole bootstrap: a corrupted control
// plane cannot be retried into health.
type Initializer interface {
	Init(ctx context.Context) (initLog string, err error)
}

// Primary produces the join instruction and drives the command channel to
// deliver it to every secondary. Delivery is at-least-once: the instruction
// is resent on every membership shortfall, and secondaries consume it
// idempotently.
type Primary struct {
	Channel netchan.Channel
	Init    Initializer
	Port    int
	Logf    func(format string, v ...any)
}

// ProduceInstruction initializes the control plane and extracts the join
// instruction from its output.
func (p *Primary) ProduceInstruction(ctx context.Context) (Instruction, error) {
	initLog, err := p.Init.Init(ctx)
	if err != nil {
		return Instruction{}, fmt.Errorf("control-plane initialization failed: %w", err)
	}

	instr, err := ExtractInstruction(initLog)
	if err != nil {
		return Instruction{}, fmt.Errorf("failed to extract join instruction: %w", err)
	}
	if !instr.Valid() {
		return Instruction{}, fmt.Errorf("init log tail does not contain a join instruction: %q", instr.Payload())
	}
	return instr, nil
}

// Broadcast makes one delivery attempt to every secondary host. Individual
// send failures are expected (the peer's listener may not be up yet) and are
// only logged; the membership poll re-invokes Broadcast until every node has
// joined.
func (p *Primary) Broadcast(ctx context.Context, hosts []string, instr Instruction) {
	for _, host := range hosts {
		addr := netchan.Endpoint(host, p.Port)
		if err := p.Channel.Send(ctx, addr, instr.Payload()); err != nil {
			p.logf("join send to %s failed (listener may not be up yet): %v", addr, err)
			continue
		}
		p.logf("join instruction sent to %s", addr)
	}
}

func (p *Primary) logf(format string, v ...any) {
	if p.Logf != nil {
		p.Logf(format, v...)
	}
}
