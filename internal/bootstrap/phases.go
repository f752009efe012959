package bootstrap

import "github.com/gwcloudlab/owbootstrap/internal/config"

// Phases returns the phase sequence for the given configuration. Both roles
// start with host preparation; the control-plane toggle stops either role
// right after it. The platform toggle trims the primary's sequence after
// convergence.
func Phases(cfg *config.Config) []Phase {
	phases := []Phase{PreflightPhase{}}

	if !cfg.StartControlPlane {
		return phases
	}

	phases = append(phases, KubeletConfigPhase{})

	if cfg.Role == config.RoleSecondary {
		return append(phases, JoinPhase{})
	}

	phases = append(phases,
		ControlPlanePhase{},
		NetworkFabricPhase{},
		ConvergencePhase{},
	)

	if cfg.DeployPlatform {
		phases = append(phases, PlatformPhase{})
	}
	return phases
}
