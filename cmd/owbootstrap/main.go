// Package main is the entry point for the owbootstrap startup service.
//
// owbootstrap provisions a Kubernetes cluster across the nodes of a testbed
// experiment and deploys OpenWhisk onto it. The testbed launches it once per
// node with the node's role and address; the primary node coordinates the
// secondaries over a plain TCP command channel until the cluster converges.
//
// For usage information, run:
//
//	owbootstrap --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gwcloudlab/owbootstrap/cmd/owbootstrap/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
