package bootstrap

import (
	"context"

	"github.com/gwcloudlab/owbootstrap/internal/agent"
	"github.com/gwcloudlab/owbootstrap/internal/config"
	"github.com/gwcloudlab/owbootstrap/internal/k8s"
	"github.com/gwcloudlab/owbootstrap/internal/netchan"
	"github.com/gwcloudlab/owbootstrap/internal/platform/host"
	"github.com/gwcloudlab/owbootstrap/internal/platform/openwhisk"
)

// Cluster is the externally observed cluster state the poller queries and
// the platform deployer mutates. Implemented by *k8s.Client; faked in tests.
type Cluster interface {
	NodeCount(ctx context.Context) (int, error)
	ReadyNodeCount(ctx context.Context) (int, error)
	AllPodsRunning(ctx context.Context, namespace string) (bool, error)
	NodeNames(ctx context.Context) ([]string, error)
	LabelNode(ctx context.Context, nodeName, key, value string) error
	EnsureNamespace(ctx context.Context, name string) error
	Apply(ctx context.Context, manifest string) error
}

// State holds the shared results of bootstrap phases. It is progressively
// populated as phases complete; nothing in it outlives the process.
type State struct {
	// Instruction is the captured join command (primary only).
	Instruction agent.Instruction

	// Cluster is the query client, available once the control plane is up.
	Cluster Cluster
}

// Context wraps all dependencies and state needed for a bootstrap phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Channel  netchan.Channel
	Runner   host.Runner
	Observer Observer

	// NewCluster builds the cluster client once a kubeconfig exists.
	NewCluster func(kubeconfigPath string) (Cluster, error)

	// Helm installs the workload-platform chart.
	Helm openwhisk.HelmInstaller
}

// NewContext creates a bootstrap context with production dependencies.
func NewContext(ctx context.Context, cfg *config.Config) *Context {
	observer := NewConsoleObserver()
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    &State{},
		Channel:  netchan.NewTCP(),
		Runner:   &host.ExecRunner{Logf: observer.Printf},
		Observer: observer,
		NewCluster: func(kubeconfigPath string) (Cluster, error) {
			return k8s.NewClient(kubeconfigPath)
		},
		Helm: k8s.NewHelmClient(),
	}
}
