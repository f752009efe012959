package agent

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/gwcloudlab/owbootstrap/internal/netchan"
)

// fakeReceiver replays a scripted connection: its lines in order, then EOF.
type fakeReceiver struct {
	lines []string
	pos   int
	block bool // never yields; simulates a silent open connection
	ctx   context.Context
}

func (r *fakeReceiver) Next() (string, error) {
	if r.block {
		<-r.ctx.Done()
		return "", r.ctx.Err()
	}
	if r.pos >= len(r.lines) {
		return "", io.EOF
	}
	line := r.lines[r.pos]
	r.pos++
	return line, nil
}

func (r *fakeReceiver) Close() error { return nil }

// fakeChannel scripts successive Listen calls and records Send attempts.
type fakeChannel struct {
	mu sync.Mutex

	// connections are handed out one per Listen call, in order. A nil entry
	// makes that Listen call fail (bind conflict).
	connections []*fakeReceiver
	listenCalls int

	sent      []string
	sentTo    []string
	dropSends int // fail this many leading Send attempts
}

func (c *fakeChannel) Listen(ctx context.Context, bindAddr string) (netchan.Receiver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listenCalls++
	if len(c.connections) == 0 {
		return &fakeReceiver{block: true, ctx: ctx}, nil
	}
	recv := c.connections[0]
	c.connections = c.connections[1:]
	if recv == nil {
		return nil, errors.New("bind: address already in use")
	}
	recv.ctx = ctx
	return recv, nil
}

func (c *fakeChannel) Send(ctx context.Context, addr, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dropSends > 0 {
		c.dropSends--
		return errors.New("dial: connection refused")
	}
	c.sent = append(c.sent, payload)
	c.sentTo = append(c.sentTo, addr)
	return nil
}

// countingExecutor records join executions.
type countingExecutor struct {
	mu       sync.Mutex
	commands []string
	err      error
}

func (e *countingExecutor) ExecuteJoin(_ context.Context, command string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commands = append(e.commands, command)
	return e.err
}

func (e *countingExecutor) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.commands)
}
