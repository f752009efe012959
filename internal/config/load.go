package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the deployment tunables that are fixed for a given testbed
// image rather than supplied per invocation.
type Settings struct {
	// BaseAddressPrefix is the first three octets of the experiment LAN.
	// Node i binds at <prefix>.<i>.
	BaseAddressPrefix string `yaml:"baseAddressPrefix"`

	// ChannelPort is the TCP port secondaries listen on for the join
	// instruction.
	ChannelPort int `yaml:"channelPort"`

	// PodNetworkCIDR is passed to control-plane initialization. Must match
	// the network fabric manifest.
	PodNetworkCIDR string `yaml:"podNetworkCIDR"`

	// InstallDir is where captured logs are written.
	InstallDir string `yaml:"installDir"`

	// KubeconfigPath is the admin kubeconfig produced by control-plane init.
	KubeconfigPath string `yaml:"kubeconfigPath"`

	// FabricManifestPath is the network fabric (Calico) manifest baked into
	// the node image.
	FabricManifestPath string `yaml:"fabricManifestPath"`

	// PollIntervalSeconds is the fixed sleep between convergence
	// observations.
	PollIntervalSeconds int `yaml:"pollIntervalSeconds"`

	// Platform chart coordinates.
	PlatformNamespace   string `yaml:"platformNamespace"`
	PlatformReleaseName string `yaml:"platformReleaseName"`
	PlatformChartRepo   string `yaml:"platformChartRepo"`
	PlatformChartName   string `yaml:"platformChartName"`
	PlatformChartVer    string `yaml:"platformChartVersion"`
	PlatformValuesFile  string `yaml:"platformValuesFile"`
}

// DefaultSettings returns the tunables matching the reference deployment.
func DefaultSettings() Settings {
	return Settings{
		BaseAddressPrefix:   "10.10.1",
		ChannelPort:         4000,
		PodNetworkCIDR:      "192.168.0.0/16",
		InstallDir:          "/home/cloudlab-openwhisk",
		KubeconfigPath:      "/etc/kubernetes/admin.conf",
		FabricManifestPath:  "/local/repository/calico.yaml",
		PollIntervalSeconds: 2,
		PlatformNamespace:   "openwhisk",
		PlatformReleaseName: "owdev",
		PlatformChartRepo:   "https://openwhisk.apache.org/charts",
		PlatformChartName:   "openwhisk",
		PlatformValuesFile:  "/local/repository/mycluster.yaml",
	}
}

// LoadSettings returns the defaults, overlaid with the YAML file at path if
// it exists. A missing file is not an error; the image may not ship one.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to unmarshal settings yaml: %w", err)
	}
	return s, nil
}

// PollInterval returns the convergence poll interval as a duration.
func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// InitLogPath is where control-plane initialization output is captured.
func (s Settings) InitLogPath() string {
	return filepath.Join(s.InstallDir, "k8s_install.log")
}
