package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/gwcloudlab/owbootstrap/internal/netchan"
)

// state is the secondary agent's position in the join protocol.
type state int

const (
	stateListening state = iota
	stateValidating
	stateExecuting
	stateJoined
)

func (s state) String() string {
	switch s {
	case stateListening:
		return "listening"
	case stateValidating:
		return "validating"
	case stateExecuting:
		return "executing"
	case stateJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// Executor runs the join command locally with elevated privilege. The
// underlying action is idempotent: re-running after a successful join is a
// benign no-op.
type Executor interface {
	ExecuteJoin(ctx context.Context, command string) error
}

// Secondary listens on the command channel for a valid join instruction and
// executes it. It has no deadline: the primary may not even exist yet when a
// secondary starts, so the agent waits until instructed or cancelled.
type Secondary struct {
	Channel  netchan.Channel
	BindAddr string
	Exec     Executor
	Logf     func(format string, v ...any)

	// RebindDelay throttles listener re-open attempts after a bind failure
	// or a terminated connection.
	RebindDelay time.Duration
}

// Run drives the agent to completion. It returns nil once the node has
// joined, or a fatal error if join execution fails. Only the first valid
// instruction triggers execution; once executing, further inbound lines are
// never read, so duplicate deliveries are harmless.
func (s *Secondary) Run(ctx context.Context) error {
	st := stateListening
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		recv, err := s.Channel.Listen(ctx, s.BindAddr)
		if err != nil {
			// Bind conflicts and the like are transient: the previous
			// one-shot listener may still be draining. Restart, don't die.
			s.logf("[%s] listener open failed (will retry): %v", st, err)
			if err := s.pause(ctx); err != nil {
				return err
			}
			continue
		}

		instr, ok, err := s.awaitInstruction(ctx, recv)
		_ = recv.Close()
		if err != nil {
			return err
		}
		if !ok {
			// Connection terminated without a valid instruction: back to
			// listening on a fresh listener.
			s.logf("[%s] connection closed without join instruction, reopening listener", st)
			if err := s.pause(ctx); err != nil {
				return err
			}
			continue
		}

		st = stateExecuting
		s.logf("[%s] executing join instruction", st)
		if err := s.Exec.ExecuteJoin(ctx, instr.Command()); err != nil {
			// No local fallback exists for a broken join instruction.
			return fmt.Errorf("join execution failed: %w", err)
		}

		st = stateJoined
		s.logf("[%s] node joined the cluster", st)
		return nil
	}
}

// awaitInstruction reads lines off one connection until a valid instruction
// arrives (ok=true), the connection ends (ok=false), or the context is
// cancelled (err != nil).
func (s *Secondary) awaitInstruction(ctx context.Context, recv netchan.Receiver) (Instruction, bool, error) {
	for {
		line, err := recv.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Instruction{}, false, ctxErr
			}
			return Instruction{}, false, nil
		}

		instr := NewInstruction(line)
		if !instr.Valid() {
			s.logf("[%s] ignoring line without join marker: %q", stateValidating, line)
			continue
		}
		return instr, true, nil
	}
}

func (s *Secondary) pause(ctx context.Context) error {
	delay := s.RebindDelay
	if delay == 0 {
		delay = time.Second
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (s *Secondary) logf(format string, v ...any) {
	if s.Logf != nil {
		s.Logf(format, v...)
	}
}
