package config

import (
	"fmt"
)

// Role identifies which side of the bootstrap protocol this process runs.
// It is fixed for the lifetime of the invocation.
type Role string

const (
	// RolePrimary initializes the control plane and coordinates joining.
	RolePrimary Role = "primary"
	// RoleSecondary waits for a join instruction and executes it locally.
	RoleSecondary Role = "secondary"
)

// ParseRole converts the CLI role word into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePrimary, RoleSecondary:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q (expected %q or %q)", s, RolePrimary, RoleSecondary)
	}
}

// Config carries everything a single bootstrap invocation needs.
type Config struct {
	Role        Role
	NodeAddress string

	// Cluster-wide parameters. Only the primary receives these; a secondary
	// invocation leaves them at their zero values.
	NodeCount         int
	StartControlPlane bool
	DeployPlatform    bool
	InvokerCount      int
	InvokerEngine     string
	SchedulerEnabled  bool

	Settings Settings
}

// SecondaryHosts returns the addresses of every expected secondary, derived
// from the base address prefix and the node ordinal. Node 1 is the primary;
// secondaries occupy ordinals 2..NodeCount. There is no registry: addresses
// are recomputed on demand.
func (c *Config) SecondaryHosts() []string {
	hosts := make([]string, 0, c.NodeCount-1)
	for i := 2; i <= c.NodeCount; i++ {
		hosts = append(hosts, fmt.Sprintf("%s.%d", c.Settings.BaseAddressPrefix, i))
	}
	return hosts
}
