package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwcloudlab/owbootstrap/cmd/owbootstrap/commands"
)

// Exercises the same wiring main performs: version info, a signal-bound
// context, and command execution through the root.
func TestMainWiring(t *testing.T) {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.Root()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.ExecuteContext(ctx))
}

func TestMainWiring_UsageErrorSurfaces(t *testing.T) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.Root()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"primary", "10.10.1.1"})

	assert.Error(t, cmd.ExecuteContext(ctx))
}
