package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/gwcloudlab/owbootstrap/internal/poll"
)

// fabricNamespace is where the network fabric's components run.
const fabricNamespace = "kube-system"

// NetworkFabricPhase applies the pod-network manifest and waits for the
// fabric's components to run. Installation completes asynchronously; the
// only completion signal is component pod health.
type NetworkFabricPhase struct{}

// Name implements Phase.
func (NetworkFabricPhase) Name() string { return "network-fabric" }

// Run implements Phase.
func (NetworkFabricPhase) Run(ctx *Context) error {
	manifestPath := ctx.Config.Settings.FabricManifestPath

	// #nosec G304
	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read fabric manifest %s: %w", manifestPath, err)
	}

	if err := ctx.State.Cluster.Apply(ctx, string(manifest)); err != nil {
		return fmt.Errorf("failed to apply fabric manifest: %w", err)
	}

	healthy := poll.Condition(func(c context.Context) (bool, error) {
		return ctx.State.Cluster.AllPodsRunning(c, fabricNamespace)
	})
	return poll.Until(ctx, "fabric-health", healthy, 1, nil,
		poll.WithInterval(ctx.Config.Settings.PollInterval()),
		poll.WithLogf(ctx.Observer.Printf))
}
