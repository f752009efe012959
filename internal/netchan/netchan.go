// Package netchan implements the point-to-point command channel used to hand
// the join instruction from the primary to each secondary.
//
// The wire format is deliberately primitive: one newline-terminated text line
// per payload over a plain TCP connection, no framing, no handshake, no
// authentication. Reliability lives entirely in the primary's send-repeat
// loop; a failed send is an expected steady state while the peer's listener
// is not yet up.
package netchan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"
)

// Channel delivers single-line payloads between nodes.
type Channel interface {
	// Send makes one best-effort delivery attempt of payload to addr.
	// Connection refused is non-fatal and expected; callers retry.
	Send(ctx context.Context, addr, payload string) error

	// Listen binds a listener at bindAddr and returns a Receiver for the
	// next inbound connection. The listener serves exactly one connection;
	// callers re-open after the Receiver is exhausted.
	Listen(ctx context.Context, bindAddr string) (Receiver, error)
}

// Receiver yields the lines of a single inbound connection.
type Receiver interface {
	// Next blocks until a line arrives. It returns io.EOF once the peer
	// closes the connection, after which the Receiver is exhausted.
	Next() (string, error)

	// Close releases the underlying listener and connection.
	Close() error
}

// Endpoint joins a host and port into a dialable address.
func Endpoint(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// TCP is the production Channel over plain TCP.
type TCP struct {
	// DialTimeout bounds a single send attempt.
	DialTimeout time.Duration
}

// NewTCP returns a TCP channel with the default dial timeout.
func NewTCP() *TCP {
	return &TCP{DialTimeout: 2 * time.Second}
}

// Send implements Channel.
func (t *TCP) Send(ctx context.Context, addr, payload string) error {
	d := net.Dialer{Timeout: t.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := fmt.Fprintln(conn, payload); err != nil {
		return fmt.Errorf("write to %s: %w", addr, err)
	}
	return nil
}

// Listen implements Channel.
func (t *TCP) Listen(ctx context.Context, bindAddr string) (Receiver, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", bindAddr, err)
	}

	r := &tcpReceiver{ctx: ctx, ln: ln, done: make(chan struct{})}

	// Unblock Accept/Read when the caller cancels. The agent opens a fresh
	// listener per connection, so the watcher must also exit on Close or it
	// would pile up one goroutine per listener cycle.
	go func() {
		select {
		case <-ctx.Done():
			_ = r.Close()
		case <-r.done:
		}
	}()

	return r, nil
}

type tcpReceiver struct {
	ctx  context.Context
	ln   net.Listener
	done chan struct{}

	mu      sync.Mutex
	conn    net.Conn
	scanner *bufio.Scanner
	closed  bool
}

// Next implements Receiver. The first call accepts the connection.
func (r *tcpReceiver) Next() (string, error) {
	if err := r.ctx.Err(); err != nil {
		return "", err
	}

	if r.scanner == nil {
		conn, err := r.ln.Accept()
		if err != nil {
			if ctxErr := r.ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("accept: %w", err)
		}
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			_ = conn.Close()
			if err := r.ctx.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		r.conn = conn
		r.scanner = bufio.NewScanner(conn)
		r.mu.Unlock()
	}

	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		if ctxErr := r.ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}
	return "", io.EOF
}

// Close implements Receiver. Safe to call more than once.
func (r *tcpReceiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.done)
	if r.conn != nil {
		_ = r.conn.Close()
	}
	return r.ln.Close()
}
