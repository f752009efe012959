// Package host executes privileged commands on the local node.
//
// Every mutation of host state during bootstrap (swap, storage, kubeadm,
// kubelet) goes through the Runner seam so role-agent logic stays testable
// without a real host.
package host

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner runs a local command.
type Runner interface {
	// Run executes the command, discarding output.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes the command and returns its combined stdout+stderr.
	// On failure the captured output is still returned so callers can
	// persist it for diagnostics.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct {
	Logf func(format string, v ...any)
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	r.logf("running: %s %s", name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (output: %s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	r.logf("running: %s %s", name, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s failed: %w", name, err)
	}
	return string(out), nil
}

func (r *ExecRunner) logf(format string, v ...any) {
	if r.Logf != nil {
		r.Logf(format, v...)
	}
}
