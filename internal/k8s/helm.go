package k8s

import (
	"fmt"
	"log"
	"os"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
)

// HelmClient handles the workload-platform chart installation.
type HelmClient struct {
	settings *cli.EnvSettings
}

// NewHelmClient creates a new HelmClient.
func NewHelmClient() *HelmClient {
	return &HelmClient{settings: cli.New()}
}

// InstallOrUpgrade installs the chart, or upgrades it if a release already
// exists. Re-running the bootstrap is safe: the second pass upgrades in
// place instead of failing on the existing release.
//
// The install does not wait for workloads: platform readiness is observed by
// the component-health poll, not by helm.
func (h *HelmClient) InstallOrUpgrade(kubeconfig []byte, namespace, releaseName, repoURL, chartName, version string, values map[string]interface{}) error {
	restConfig, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create rest config: %w", err)
	}

	actionConfig := new(action.Configuration)
	clientGetter := &restClientGetter{
		config:    restConfig,
		namespace: namespace,
	}

	if err := actionConfig.Init(clientGetter, namespace, os.Getenv("HELM_DRIVER"), log.Printf); err != nil {
		return fmt.Errorf("failed to init action config: %w", err)
	}

	cp := &action.ChartPathOptions{}
	cp.RepoURL = repoURL
	cp.Version = version

	chartPath, err := cp.LocateChart(chartName, h.settings)
	if err != nil {
		return fmt.Errorf("failed to locate chart: %w", err)
	}

	chart, err := loader.Load(chartPath)
	if err != nil {
		return fmt.Errorf("failed to load chart: %w", err)
	}

	histClient := action.NewHistory(actionConfig)
	histClient.Max = 1
	if _, err := histClient.Run(releaseName); err == nil {
		upgrade := action.NewUpgrade(actionConfig)
		upgrade.Namespace = namespace
		upgrade.Timeout = 10 * time.Minute
		if _, err := upgrade.Run(releaseName, chart, values); err != nil {
			return fmt.Errorf("helm upgrade failed: %w", err)
		}
		return nil
	}

	install := action.NewInstall(actionConfig)
	install.Namespace = namespace
	install.ReleaseName = releaseName
	install.CreateNamespace = true
	install.Timeout = 10 * time.Minute
	if _, err := install.Run(chart, values); err != nil {
		return fmt.Errorf("helm install failed: %w", err)
	}

	return nil
}

// restClientGetter implements a minimal RESTClientGetter for Helm.
type restClientGetter struct {
	config    *rest.Config
	namespace string
}

func (g *restClientGetter) ToRESTConfig() (*rest.Config, error) {
	return g.config, nil
}

func (g *restClientGetter) ToDiscoveryClient() (discovery.CachedDiscoveryInterface, error) {
	discoveryClient, err := discovery.NewDiscoveryClientForConfig(g.config)
	if err != nil {
		return nil, err
	}
	return memory.NewMemCacheClient(discoveryClient), nil
}

func (g *restClientGetter) ToRESTMapper() (meta.RESTMapper, error) {
	discoveryClient, err := g.ToDiscoveryClient()
	if err != nil {
		return nil, err
	}
	return restmapper.NewDeferredDiscoveryRESTMapper(discoveryClient), nil
}

func (g *restClientGetter) ToRawKubeConfigLoader() clientcmd.ClientConfig {
	return clientcmd.NewDefaultClientConfig(*clientcmdapi.NewConfig(), &clientcmd.ConfigOverrides{})
}
