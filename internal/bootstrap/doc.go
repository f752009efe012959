// Package bootstrap sequences the cluster bootstrap as an ordered pipeline
// of phases over a shared context.
//
// The pipeline is assembled per role by the CLI handlers: both roles run
// host preparation; the primary then initializes the control plane, installs
// the network fabric, drives node convergence, and provisions the workload
// platform, while a secondary waits on the command channel for its join
// instruction.
//
// Context carries configuration, state, the command channel, the host
// runner, the cluster client, and the observer.
package bootstrap
