package node

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	r.commands = append(r.commands, name+" "+strings.Join(args, " "))
	return nil
}

func (r *fakeRunner) Output(_ context.Context, name string, args ...string) (string, error) {
	r.commands = append(r.commands, name+" "+strings.Join(args, " "))
	return "", nil
}

func testPreflight(t *testing.T, runner *fakeRunner) *Preflight {
	t.Helper()
	dir := t.TempDir()
	return &Preflight{
		Runner:           runner,
		ExtraMount:       filepath.Join(dir, "mydata"),
		UsersDir:         filepath.Join(dir, "users"),
		DockerDaemonPath: filepath.Join(dir, "etc", "docker", "daemon.json"),
		FstabPath:        filepath.Join(dir, "fstab"),
	}
}

func TestPreflight_AlwaysDisablesSwap(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := testPreflight(t, runner)

	require.NoError(t, p.Run(context.Background()))
	assert.Contains(t, runner.commands, "swapoff -a")
}

func TestPreflight_CommentsFstabSwapEntries(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := testPreflight(t, runner)

	fstab := "UUID=abcd / ext4 defaults 0 1\n/dev/sda2 none swap sw 0 0\n# /dev/sda3 none swap sw 0 0\n"
	require.NoError(t, os.WriteFile(p.FstabPath, []byte(fstab), 0644))

	require.NoError(t, p.Run(context.Background()))

	content, err := os.ReadFile(p.FstabPath)
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	assert.Equal(t, "UUID=abcd / ext4 defaults 0 1", lines[0])
	assert.Equal(t, "# /dev/sda2 none swap sw 0 0", lines[1])
	assert.Equal(t, "# /dev/sda3 none swap sw 0 0", lines[2], "already commented entries stay as they are")
}

func TestPreflight_RelocatesDockerStorageWhenVolumePresent(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := testPreflight(t, runner)
	require.NoError(t, os.MkdirAll(p.ExtraMount, 0755))

	require.NoError(t, p.Run(context.Background()))

	content, err := os.ReadFile(p.DockerDaemonPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), filepath.Join(p.ExtraMount, "docker"))
	assert.Contains(t, runner.commands, "systemctl restart docker")
}

func TestPreflight_SkipsStorageWithoutVolume(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := testPreflight(t, runner)

	require.NoError(t, p.Run(context.Background()))

	_, err := os.Stat(p.DockerDaemonPath)
	assert.True(t, os.IsNotExist(err))
	assert.NotContains(t, runner.commands, "systemctl restart docker")
}

func TestPreflight_StorageRelocationIsIdempotent(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := testPreflight(t, runner)
	require.NoError(t, os.MkdirAll(p.ExtraMount, 0755))

	require.NoError(t, p.Run(context.Background()))
	require.NoError(t, p.Run(context.Background()))

	// Docker restarted once, not twice.
	restarts := 0
	for _, cmd := range runner.commands {
		if cmd == "systemctl restart docker" {
			restarts++
		}
	}
	assert.Equal(t, 1, restarts)
}

func TestPreflight_GrantsDockerAccessToAllUsers(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	p := testPreflight(t, runner)
	require.NoError(t, os.MkdirAll(filepath.Join(p.UsersDir, "alice"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(p.UsersDir, "bob"), 0755))

	require.NoError(t, p.Run(context.Background()))

	assert.Contains(t, runner.commands, "usermod -aG docker alice")
	assert.Contains(t, runner.commands, "usermod -aG docker bob")
}
