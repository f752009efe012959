package commands

import (
	"github.com/spf13/cobra"

	"github.com/gwcloudlab/owbootstrap/cmd/owbootstrap/handlers"
)

// Primary returns the command that bootstraps the primary node.
//
// The primary initializes the control plane, installs the pod network,
// broadcasts the join instruction to every secondary, waits for the cluster
// to converge, and optionally deploys OpenWhisk.
//
// Positional parameters (all required, in order):
//
//	nodeAddress       this node's LAN address (e.g. 10.10.1.1)
//	nodeCount         total nodes in the experiment, primary included
//	startControlPlane whether to bring up Kubernetes at all
//	deployPlatform    whether to deploy OpenWhisk (requires startControlPlane)
//	invokerCount      number of nodes reserved for invokers
//	invokerEngine     invoker container factory: kubernetes or docker
//	schedulerEnabled  whether to enable the OpenWhisk scheduler
//
// Optional flags:
//
//	--settings, -s: Path to deployment settings YAML (defaults are baked in)
func Primary() *cobra.Command {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "primary <nodeAddress> <nodeCount> <startControlPlane> <deployPlatform> <invokerCount> <invokerEngine> <schedulerEnabled>",
		Short: "Bootstrap the primary node and coordinate the cluster",
		Long: `Bootstrap the primary node of the experiment.

The primary prepares the host, initializes the Kubernetes control plane,
applies the pod network manifest, and broadcasts the join instruction to
every secondary node until all of them have joined and report Ready. With
deployPlatform=true it then installs OpenWhisk via Helm and waits for the
deployment to come up.

Examples:
  # Three-node cluster with one invoker, no scheduler
  owbootstrap primary 10.10.1.1 3 true true 1 kubernetes false

  # Host preparation only, no Kubernetes
  owbootstrap primary 10.10.1.1 3 false false 0 kubernetes false`,
		Args: cobra.ExactArgs(7),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Primary(cmd.Context(), args, settingsPath)
		},
	}

	cmd.Flags().StringVarP(&settingsPath, "settings", "s", "", "Path to deployment settings YAML")

	return cmd
}
