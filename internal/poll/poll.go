// Package poll provides the convergence poller: an unbounded fixed-interval
// retry primitive for observing eventually-consistent cluster state.
//
// There is no event stream from the cluster during bootstrap, so convergence
// (membership, readiness, component health) can only be detected by repeated
// point-in-time observation. The poller never gives up on its own; the
// operator aborts externally, or the caller cancels the context.
package poll

import (
	"context"
	"fmt"
	"time"
)

// Observe returns a point-in-time count from an external query. The result
// is treated as a noisy, eventually-consistent signal and is never cached
// across cycles.
type Observe func(ctx context.Context) (int, error)

// Shortfall is invoked once per cycle, before sleeping, when the target has
// not been met. Membership convergence uses it to re-broadcast the join
// instruction; pure waits pass nil.
type Shortfall func(ctx context.Context)

// Config holds poller tunables.
type Config struct {
	Interval time.Duration
	Logf     func(format string, v ...any)
}

// Option is a functional option for poller configuration.
type Option func(*Config)

// WithInterval sets the sleep between observation cycles.
func WithInterval(d time.Duration) Option {
	return func(c *Config) { c.Interval = d }
}

// WithLogf sets the progress logger.
func WithLogf(logf func(format string, v ...any)) Option {
	return func(c *Config) { c.Logf = logf }
}

// Until blocks until observe reports a count >= target, running onShortfall
// once per unmet cycle. Observation errors are transient by definition here
// (the queried endpoint may not even exist yet) and only logged. The attempt
// counter exists for diagnostics only.
//
// The only exits are convergence and context cancellation.
func Until(ctx context.Context, what string, observe Observe, target int, onShortfall Shortfall, opts ...Option) error {
	cfg := &Config{
		Interval: 2 * time.Second,
		Logf:     func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: polling cancelled after %d attempts: %w", what, attempt, err)
		}

		count, err := observe(ctx)
		switch {
		case err != nil:
			cfg.Logf("[%s] attempt %d: observation failed (will retry): %v", what, attempt, err)
		case count >= target:
			cfg.Logf("[%s] converged: %d/%d", what, count, target)
			return nil
		default:
			cfg.Logf("[%s] attempt %d: %d/%d", what, attempt, count, target)
		}

		if onShortfall != nil {
			onShortfall(ctx)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: polling cancelled after %d attempts: %w", what, attempt+1, ctx.Err())
		case <-time.After(cfg.Interval):
		}
	}
}

// Condition adapts a boolean probe onto the count domain, for waits whose
// target is not a fixed number (e.g. "every pod currently in the namespace
// is running", where the total itself moves between cycles).
func Condition(probe func(ctx context.Context) (bool, error)) Observe {
	return func(ctx context.Context) (int, error) {
		ok, err := probe(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			return 1, nil
		}
		return 0, nil
	}
}
