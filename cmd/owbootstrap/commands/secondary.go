package commands

import (
	"github.com/spf13/cobra"

	"github.com/gwcloudlab/owbootstrap/cmd/owbootstrap/handlers"
)

// Secondary returns the command that bootstraps a secondary node.
//
// A secondary prepares the host, then listens on the command channel for
// the join instruction broadcast by the primary and executes it once.
//
// Positional parameters (all required, in order):
//
//	nodeAddress       this node's LAN address (e.g. 10.10.1.2)
//	startControlPlane whether to join Kubernetes at all
//
// Optional flags:
//
//	--settings, -s: Path to deployment settings YAML (defaults are baked in)
func Secondary() *cobra.Command {
	var settingsPath string

	cmd := &cobra.Command{
		Use:   "secondary <nodeAddress> <startControlPlane>",
		Short: "Bootstrap a secondary node and join the cluster",
		Long: `Bootstrap a secondary node of the experiment.

The secondary prepares the host, then waits for the primary to deliver the
kubeadm join instruction over the command channel and executes it. With
startControlPlane=false only host preparation runs.

Examples:
  # Wait for the join instruction and join the cluster
  owbootstrap secondary 10.10.1.2 true

  # Host preparation only
  owbootstrap secondary 10.10.1.2 false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Secondary(cmd.Context(), args, settingsPath)
		},
	}

	cmd.Flags().StringVarP(&settingsPath, "settings", "s", "", "Path to deployment settings YAML")

	return cmd
}
