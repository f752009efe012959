package bootstrap

import (
	"context"

	"github.com/gwcloudlab/owbootstrap/internal/platform/openwhisk"
	"github.com/gwcloudlab/owbootstrap/internal/poll"
)

// PlatformPhase provisions the workload platform onto the converged
// cluster and waits for its components to run.
type PlatformPhase struct{}

// Name implements Phase.
func (PlatformPhase) Name() string { return "platform-deploy" }

// Run implements Phase.
func (PlatformPhase) Run(ctx *Context) error {
	cfg := ctx.Config

	deployer := &openwhisk.Deployer{
		Cluster:          ctx.State.Cluster,
		Helm:             ctx.Helm,
		KubeconfigPath:   cfg.Settings.KubeconfigPath,
		Namespace:        cfg.Settings.PlatformNamespace,
		ReleaseName:      cfg.Settings.PlatformReleaseName,
		ChartRepo:        cfg.Settings.PlatformChartRepo,
		ChartName:        cfg.Settings.PlatformChartName,
		ChartVersion:     cfg.Settings.PlatformChartVer,
		ValuesFile:       cfg.Settings.PlatformValuesFile,
		InvokerCount:     cfg.InvokerCount,
		InvokerEngine:    cfg.InvokerEngine,
		SchedulerEnabled: cfg.SchedulerEnabled,
		Logf:             ctx.Observer.Printf,
	}

	if err := deployer.Deploy(ctx); err != nil {
		return err
	}

	healthy := poll.Condition(func(c context.Context) (bool, error) {
		return ctx.State.Cluster.AllPodsRunning(c, cfg.Settings.PlatformNamespace)
	})
	return poll.Until(ctx, "platform-health", healthy, 1, nil,
		poll.WithInterval(cfg.Settings.PollInterval()),
		poll.WithLogf(ctx.Observer.Printf))
}
