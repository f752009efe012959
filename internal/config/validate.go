package config

import (
	"fmt"
	"net"
)

// Validate checks the assembled configuration before any side effect runs.
// Violations here are usage errors: the process must exit without having
// touched the host.
func (c *Config) Validate() error {
	if c.Role != RolePrimary && c.Role != RoleSecondary {
		return fmt.Errorf("invalid role %q", c.Role)
	}

	if net.ParseIP(c.NodeAddress) == nil {
		return fmt.Errorf("node address %q is not a valid IP address", c.NodeAddress)
	}

	if c.Role == RoleSecondary {
		return nil
	}

	if c.NodeCount < 1 {
		return fmt.Errorf("node count must be at least 1, got %d", c.NodeCount)
	}
	if c.DeployPlatform && !c.StartControlPlane {
		return fmt.Errorf("deploying the platform requires starting the control plane")
	}
	if c.InvokerEngine != "kubernetes" && c.InvokerEngine != "docker" {
		return fmt.Errorf("invalid invoker engine %q (expected \"kubernetes\" or \"docker\")", c.InvokerEngine)
	}
	if c.InvokerCount < 0 || c.InvokerCount >= c.NodeCount {
		return fmt.Errorf("invoker count %d must be non-negative and leave at least one core node (node count %d)",
			c.InvokerCount, c.NodeCount)
	}

	return nil
}
