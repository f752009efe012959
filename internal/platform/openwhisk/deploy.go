// Package openwhisk provisions the workload platform onto a converged
// cluster: node role labels, the platform namespace, and the helm release.
//
// Everything here runs exactly once, after convergence, and only on the
// primary. Completion is observed by polling platform pod health, not by
// anything returned from the installer.
package openwhisk

import (
	"context"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// roleLabel marks a node as a core or invoker node for pod scheduling.
const roleLabel = "openwhisk-role"

// Cluster is the slice of the cluster client the deployer needs.
type Cluster interface {
	NodeNames(ctx context.Context) ([]string, error)
	LabelNode(ctx context.Context, nodeName, key, value string) error
	EnsureNamespace(ctx context.Context, name string) error
}

// HelmInstaller installs or upgrades the platform chart.
type HelmInstaller interface {
	InstallOrUpgrade(kubeconfig []byte, namespace, releaseName, repoURL, chartName, version string, values map[string]interface{}) error
}

// Deployer provisions OpenWhisk onto the cluster.
type Deployer struct {
	Cluster Cluster
	Helm    HelmInstaller

	KubeconfigPath string
	Namespace      string
	ReleaseName    string
	ChartRepo      string
	ChartName      string
	ChartVersion   string
	ValuesFile     string

	InvokerCount     int
	InvokerEngine    string
	SchedulerEnabled bool

	Logf func(format string, v ...any)
}

// Deploy runs the full platform provisioning sequence. A failure at any step
// is fatal to the bootstrap; there is no partial-success path.
func (d *Deployer) Deploy(ctx context.Context) error {
	if err := d.LabelNodes(ctx); err != nil {
		return fmt.Errorf("node labeling failed: %w", err)
	}

	if err := d.Cluster.EnsureNamespace(ctx, d.Namespace); err != nil {
		return fmt.Errorf("namespace creation failed: %w", err)
	}

	values, err := d.Values()
	if err != nil {
		return fmt.Errorf("chart values assembly failed: %w", err)
	}

	kubeconfig, err := os.ReadFile(d.KubeconfigPath)
	if err != nil {
		return fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	d.logf("installing %s chart (release %s, %d invokers, engine %s)",
		d.ChartName, d.ReleaseName, d.InvokerCount, d.InvokerEngine)
	if err := d.Helm.InstallOrUpgrade(kubeconfig, d.Namespace, d.ReleaseName,
		d.ChartRepo, d.ChartName, d.ChartVersion, values); err != nil {
		return fmt.Errorf("platform installation failed: %w", err)
	}
	return nil
}

// LabelNodes splits the converged node list into core and invoker nodes.
// The trailing InvokerCount nodes become invokers; everything before them
// (including the control-plane node) is a core node. Labeling is an
// overwrite, so re-runs settle on the same assignment.
func (d *Deployer) LabelNodes(ctx context.Context) error {
	names, err := d.Cluster.NodeNames(ctx)
	if err != nil {
		return err
	}
	if d.InvokerCount >= len(names) {
		return fmt.Errorf("invoker count %d leaves no core node among %d nodes", d.InvokerCount, len(names))
	}

	coreCount := len(names) - d.InvokerCount
	for i, name := range names {
		role := "core"
		if i >= coreCount {
			role = "invoker"
		}
		if err := d.Cluster.LabelNode(ctx, name, roleLabel, role); err != nil {
			return err
		}
		d.logf("labeled node %s as %s", name, role)
	}
	return nil
}

// Values assembles the chart values: the deployment's values file (if any)
// overlaid with the operator-supplied invoker and scheduler parameters.
func (d *Deployer) Values() (map[string]interface{}, error) {
	values := map[string]interface{}{}

	if d.ValuesFile != "" {
		data, err := os.ReadFile(d.ValuesFile)
		if err == nil {
			if err := yaml.Unmarshal(data, &values); err != nil {
				return nil, fmt.Errorf("failed to parse values file %s: %w", d.ValuesFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read values file %s: %w", d.ValuesFile, err)
		}
	}

	merge(values, map[string]interface{}{
		"invoker": map[string]interface{}{
			"count": d.InvokerCount,
			"containerFactory": map[string]interface{}{
				"impl": d.InvokerEngine,
			},
		},
		"scheduler": map[string]interface{}{
			"enabled": d.SchedulerEnabled,
		},
	})

	return values, nil
}

// merge overlays src onto dst, descending into nested maps.
func merge(dst, src map[string]interface{}) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := dst[k].(map[string]interface{}); ok {
				merge(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

func (d *Deployer) logf(format string, v ...any) {
	if d.Logf != nil {
		d.Logf(format, v...)
	}
}
