// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers parse and validate the
// positional parameters into a configuration before any bootstrap work
// starts, so a malformed invocation fails without side effects.
package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gwcloudlab/owbootstrap/internal/bootstrap"
	"github.com/gwcloudlab/owbootstrap/internal/config"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// runBootstrap executes the phase pipeline for a validated configuration.
	runBootstrap = func(ctx context.Context, cfg *config.Config) error {
		return bootstrap.RunPhases(bootstrap.NewContext(ctx, cfg), bootstrap.Phases(cfg))
	}

	// loadSettings loads deployment settings from file (for testing injection).
	loadSettings = config.LoadSettings
)

// Primary bootstraps the primary node.
//
// args holds the seven positional parameters in CLI order: nodeAddress,
// nodeCount, startControlPlane, deployPlatform, invokerCount, invokerEngine,
// schedulerEnabled. Arity is enforced by the command definition.
func Primary(ctx context.Context, args []string, settingsPath string) error {
	cfg := &config.Config{
		Role:          config.RolePrimary,
		NodeAddress:   args[0],
		InvokerEngine: args[5],
	}

	var err error
	if cfg.NodeCount, err = parseInt("nodeCount", args[1]); err != nil {
		return err
	}
	if cfg.StartControlPlane, err = parseBool("startControlPlane", args[2]); err != nil {
		return err
	}
	if cfg.DeployPlatform, err = parseBool("deployPlatform", args[3]); err != nil {
		return err
	}
	if cfg.InvokerCount, err = parseInt("invokerCount", args[4]); err != nil {
		return err
	}
	if cfg.SchedulerEnabled, err = parseBool("schedulerEnabled", args[6]); err != nil {
		return err
	}

	return run(ctx, cfg, settingsPath)
}

// Secondary bootstraps a secondary node.
//
// args holds the two positional parameters in CLI order: nodeAddress,
// startControlPlane.
func Secondary(ctx context.Context, args []string, settingsPath string) error {
	cfg := &config.Config{
		Role:        config.RoleSecondary,
		NodeAddress: args[0],
	}

	var err error
	if cfg.StartControlPlane, err = parseBool("startControlPlane", args[1]); err != nil {
		return err
	}

	return run(ctx, cfg, settingsPath)
}

// run finishes configuration and starts the pipeline. Settings and
// validation errors surface before any phase runs.
func run(ctx context.Context, cfg *config.Config, settingsPath string) error {
	settings, err := loadSettings(settingsPath)
	if err != nil {
		return err
	}
	cfg.Settings = settings

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid invocation: %w", err)
	}

	return runBootstrap(ctx, cfg)
}

func parseInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, value)
	}
	return n, nil
}

func parseBool(name, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, value)
	}
	return b, nil
}
