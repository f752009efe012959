package bootstrap

import (
	"fmt"
	"time"
)

// Phase defines one step of the bootstrap sequence.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Run executes the phase. An error aborts the remaining sequence.
	Run(ctx *Context) error
}

// RunPhases executes all phases sequentially. The first failure aborts the
// pipeline; there is no partial-success reporting.
func RunPhases(ctx *Context, phases []Phase) error {
	start := time.Now()
	ctx.Observer.Printf("Starting %s bootstrap with %d phases...", ctx.Config.Role, len(phases))

	for i, phase := range phases {
		phaseStart := time.Now()
		name := fmt.Sprintf("%s (%d/%d)", phase.Name(), i+1, len(phases))

		ctx.Observer.Printf("[%s] starting", name)

		if err := phase.Run(ctx); err != nil {
			ctx.Observer.Printf("[%s] failed: %v", name, err)
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}

		ctx.Observer.Printf("[%s] completed in %v", name, time.Since(phaseStart).Round(time.Millisecond))
	}

	ctx.Observer.Printf("Bootstrap completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
