// Package node performs the idempotent host preparation every role runs
// before any coordination starts.
package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gwcloudlab/owbootstrap/internal/platform/host"
)

// Preflight prepares the local host. Every step is safe to re-run; the
// whole bootstrap is designed to be invoked again after a failure.
type Preflight struct {
	Runner host.Runner

	// ExtraMount is the optional blockstore volume the testbed attaches.
	// When present, the container runtime's data dir is relocated onto it.
	ExtraMount string

	// UsersDir is the home base for testbed-created accounts; every account
	// under it is added to the docker group.
	UsersDir string

	// DockerDaemonPath is the docker daemon config file.
	DockerDaemonPath string

	// FstabPath is the filesystem table; swap entries are commented out so
	// swap stays off across reboots.
	FstabPath string

	Logf func(format string, v ...any)
}

// NewPreflight returns a Preflight with the reference deployment's paths.
func NewPreflight(runner host.Runner, logf func(string, ...any)) *Preflight {
	return &Preflight{
		Runner:           runner,
		ExtraMount:       "/mydata",
		UsersDir:         "/users",
		DockerDaemonPath: "/etc/docker/daemon.json",
		FstabPath:        "/etc/fstab",
		Logf:             logf,
	}
}

// Run executes all preparation steps in order.
func (p *Preflight) Run(ctx context.Context) error {
	if err := p.disableSwap(ctx); err != nil {
		return fmt.Errorf("disable swap: %w", err)
	}
	if err := p.relocateDockerStorage(ctx); err != nil {
		return fmt.Errorf("relocate docker storage: %w", err)
	}
	if err := p.grantDockerAccess(ctx); err != nil {
		return fmt.Errorf("grant docker access: %w", err)
	}
	return nil
}

// disableSwap turns swap off and comments out fstab swap entries; kubelet
// refuses to start with swap enabled.
func (p *Preflight) disableSwap(ctx context.Context) error {
	if err := p.Runner.Run(ctx, "swapoff", "-a"); err != nil {
		return err
	}
	return p.commentSwapEntries()
}

func (p *Preflight) commentSwapEntries() error {
	data, err := os.ReadFile(p.FstabPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", p.FstabPath, err)
	}

	lines := strings.Split(string(data), "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.Contains(line, "swap") {
			lines[i] = "# " + line
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := os.WriteFile(p.FstabPath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", p.FstabPath, err)
	}
	p.logf("commented out swap entries in %s", p.FstabPath)
	return nil
}

// relocateDockerStorage moves docker's data root onto the extra blockstore
// volume when one is mounted. Skipped when the volume is absent or the
// config is already in place.
func (p *Preflight) relocateDockerStorage(ctx context.Context) error {
	if _, err := os.Stat(p.ExtraMount); err != nil {
		p.logf("no extra volume at %s, keeping default docker storage", p.ExtraMount)
		return nil
	}

	dataRoot := filepath.Join(p.ExtraMount, "docker")
	if _, err := os.Stat(p.DockerDaemonPath); err == nil {
		p.logf("docker daemon config already present at %s, leaving it alone", p.DockerDaemonPath)
		return nil
	}

	if err := os.MkdirAll(dataRoot, 0711); err != nil {
		return fmt.Errorf("failed to create %s: %w", dataRoot, err)
	}
	if err := os.MkdirAll(filepath.Dir(p.DockerDaemonPath), 0755); err != nil {
		return fmt.Errorf("failed to create docker config dir: %w", err)
	}

	config := fmt.Sprintf("{\n  \"data-root\": %q\n}\n", dataRoot)
	if err := os.WriteFile(p.DockerDaemonPath, []byte(config), 0644); err != nil {
		return fmt.Errorf("failed to write docker daemon config: %w", err)
	}

	if err := p.Runner.Run(ctx, "systemctl", "restart", "docker"); err != nil {
		return fmt.Errorf("failed to restart docker: %w", err)
	}

	p.logf("docker storage relocated to %s", dataRoot)
	return nil
}

// grantDockerAccess adds every testbed account to the docker group so users
// can drive the container runtime without sudo. usermod -aG is idempotent.
func (p *Preflight) grantDockerAccess(ctx context.Context) error {
	entries, err := os.ReadDir(p.UsersDir)
	if err != nil {
		p.logf("no user directory at %s, skipping docker group setup", p.UsersDir)
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := p.Runner.Run(ctx, "usermod", "-aG", "docker", entry.Name()); err != nil {
			return fmt.Errorf("failed to add %s to docker group: %w", entry.Name(), err)
		}
	}
	return nil
}

func (p *Preflight) logf(format string, v ...any) {
	if p.Logf != nil {
		p.Logf(format, v...)
	}
}
