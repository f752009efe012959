// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and arity checks. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the owbootstrap CLI.
//
// The first positional word selects the node's role; each role is a
// subcommand with its own positional parameter list. An unknown role is
// an unknown command and fails before any bootstrap work starts.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owbootstrap",
		Short: "Bootstrap a Kubernetes cluster and deploy OpenWhisk on testbed nodes",
	}

	cmd.AddCommand(Primary())
	cmd.AddCommand(Secondary())
	cmd.AddCommand(Version())

	return cmd
}
