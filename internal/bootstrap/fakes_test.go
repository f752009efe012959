package bootstrap

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/gwcloudlab/owbootstrap/internal/netchan"
)

// memChannel is an in-memory command channel connecting agents that run in
// the same test process. Each delivered payload is its own one-shot
// connection, matching the production transport's semantics.
type memChannel struct {
	mu        sync.Mutex
	listeners map[string]chan string
}

func newMemChannel() *memChannel {
	return &memChannel{listeners: make(map[string]chan string)}
}

func (m *memChannel) Listen(ctx context.Context, bindAddr string) (netchan.Receiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan string, 1)
	m.listeners[bindAddr] = ch
	return &memReceiver{ctx: ctx, lines: ch}, nil
}

func (m *memChannel) Send(_ context.Context, addr, payload string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.listeners[addr]
	if !ok {
		return errors.New("connection refused")
	}
	select {
	case ch <- payload:
		return nil
	default:
		return errors.New("connection refused")
	}
}

type memReceiver struct {
	ctx       context.Context
	lines     chan string
	delivered bool
}

func (r *memReceiver) Next() (string, error) {
	if r.delivered {
		return "", io.EOF
	}
	select {
	case <-r.ctx.Done():
		return "", r.ctx.Err()
	case line := <-r.lines:
		r.delivered = true
		return line, nil
	}
}

func (r *memReceiver) Close() error { return nil }

// simCluster simulates the externally observed cluster: membership grows as
// simulated nodes join, readiness follows membership.
type simCluster struct {
	mu    sync.Mutex
	nodes int
	names []string
}

func newSimCluster(initial int) *simCluster {
	return &simCluster{nodes: initial}
}

func (c *simCluster) join() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes++
}

func (c *simCluster) NodeCount(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes, nil
}

func (c *simCluster) ReadyNodeCount(ctx context.Context) (int, error) {
	return c.NodeCount(ctx)
}

func (c *simCluster) AllPodsRunning(context.Context, string) (bool, error) {
	return true, nil
}

func (c *simCluster) NodeNames(context.Context) ([]string, error) {
	return c.names, nil
}

func (c *simCluster) LabelNode(context.Context, string, string, string) error {
	return nil
}

func (c *simCluster) EnsureNamespace(context.Context, string) error {
	return nil
}

func (c *simCluster) Apply(context.Context, string) error {
	return nil
}

// testObserver collects pipeline output.
type testObserver struct {
	mu    sync.Mutex
	lines []string
}

func (o *testObserver) Printf(format string, _ ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, format)
}
