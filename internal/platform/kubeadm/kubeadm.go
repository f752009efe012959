// Package kubeadm wraps the external control-plane bootstrap tooling.
//
// The join instruction's wire format and the init log layout are contracts
// with the kubeadm CLI, not with this repo; extraction lives in
// internal/agent where the tail-lines assumption is pinned by a fixture.
package kubeadm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gwcloudlab/owbootstrap/internal/platform/host"
)

// Kubeadm drives kubeadm and kubelet on the local node.
type Kubeadm struct {
	Runner host.Runner

	// AdvertiseAddress is this node's LAN address.
	AdvertiseAddress string

	// PodNetworkCIDR must match the network fabric manifest.
	PodNetworkCIDR string

	// InitLogPath is where init output is captured for diagnostics and for
	// join-instruction extraction.
	InitLogPath string

	// KubeletDefaultsPath holds KUBELET_EXTRA_ARGS. Overridable for tests.
	KubeletDefaultsPath string

	Logf func(format string, v ...any)
}

// Init runs control-plane initialization and returns the captured output.
// The output is also persisted to InitLogPath (even on failure) so fatal
// diagnostics can point the operator at it.
func (k *Kubeadm) Init(ctx context.Context) (string, error) {
	out, err := k.Runner.Output(ctx, "kubeadm", "init",
		"--apiserver-advertise-address="+k.AdvertiseAddress,
		"--pod-network-cidr="+k.PodNetworkCIDR,
	)

	if k.InitLogPath != "" {
		if dirErr := os.MkdirAll(filepath.Dir(k.InitLogPath), 0755); dirErr == nil {
			_ = os.WriteFile(k.InitLogPath, []byte(out), 0644)
		}
	}

	if err != nil {
		return out, fmt.Errorf("kubeadm init failed (log: %s): %w", k.InitLogPath, err)
	}
	return out, nil
}

// ExecuteJoin runs a previously captured join command. Re-running after a
// successful join is benign: kubeadm refuses with "already exists" errors,
// which are swallowed here.
func (k *Kubeadm) ExecuteJoin(ctx context.Context, command string) error {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("empty join command")
	}

	out, err := k.Runner.Output(ctx, fields[0], fields[1:]...)
	if err != nil {
		if strings.Contains(out, "already exists") {
			k.logf("node appears to have joined already, treating as no-op")
			return nil
		}
		return fmt.Errorf("%w (output: %s)", err, strings.TrimSpace(out))
	}
	return nil
}

// InstallUserKubeconfig copies the admin kubeconfig into destDir/config so
// kubectl works for the login user without sudo.
func (k *Kubeadm) InstallUserKubeconfig(adminConfPath, destDir string) error {
	data, err := os.ReadFile(adminConfPath)
	if err != nil {
		return fmt.Errorf("failed to read admin kubeconfig: %w", err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", destDir, err)
	}

	dest := filepath.Join(destDir, "config")
	if err := os.WriteFile(dest, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	k.logf("admin kubeconfig installed at %s", dest)
	return nil
}

// PatchKubeletNodeIP pins the kubelet to this node's LAN address and
// restarts it. Overwriting the defaults file makes this safe to re-run.
func (k *Kubeadm) PatchKubeletNodeIP(ctx context.Context) error {
	path := k.KubeletDefaultsPath
	if path == "" {
		path = "/etc/default/kubelet"
	}

	content := fmt.Sprintf("KUBELET_EXTRA_ARGS=--node-ip=%s\n", k.AdvertiseAddress)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write kubelet defaults: %w", err)
	}

	if err := k.Runner.Run(ctx, "systemctl", "restart", "kubelet"); err != nil {
		return fmt.Errorf("failed to restart kubelet: %w", err)
	}
	return nil
}

func (k *Kubeadm) logf(format string, v ...any) {
	if k.Logf != nil {
		k.Logf(format, v...)
	}
}
