package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points the config file into a fresh directory and clears the
// environment overrides.
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	t.Setenv("GOBLIN_CONFIG", path)
	for _, v := range []string{"GOBLIN_LOG_FILE", "GOBLIN_LOG_LEVEL", "GOBLIN_MAP", "GOBLIN_COLOR"} {
		t.Setenv(v, "")
	}
	return path
}

func runArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestHelpAndVersion(t *testing.T) {
	isolate(t)

	out, _, err := runArgs(t)
	require.NoError(t, err)
	for _, name := range []string{"bench", "config", "help", "init", "map", "run", "script", "version"} {
		require.Contains(t, out, "  "+name)
	}

	out, _, err = runArgs(t, "help", "bench")
	require.NoError(t, err)
	require.Contains(t, out, "-characters")
	require.Contains(t, out, "-inline")

	out, _, err = runArgs(t, "version")
	require.NoError(t, err)
	require.Equal(t, "goblin version "+version+"\n", out)

	_, stderr, err := runArgs(t, "dance")
	require.Error(t, err)
	require.Contains(t, stderr, "Unknown command: dance")
}

func TestConfigRoundTrip(t *testing.T) {
	path := isolate(t)

	out, _, err := runArgs(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, path)

	_, _, err = runArgs(t, "config", "sim.speed", "150")
	require.NoError(t, err)

	out, _, err = runArgs(t, "config", "sim.speed")
	require.NoError(t, err)
	require.Equal(t, "sim.speed: 150\n", out)

	out, _, err = runArgs(t, "config", "validate")
	require.NoError(t, err)
	require.Equal(t, "Configuration is valid.\n", out)

	_, _, err = runArgs(t, "config", "sim.speed", "fast")
	require.Error(t, err)
}

func TestScript(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	script := filepath.Join(dir, "walk.js")
	require.NoError(t, os.WriteFile(script, []byte("step_right();\nstep_right();\nstep_down();\n"), 0644))

	out, _, err := runArgs(t, "script", "-color", "never", "-log-level", "error", script)
	require.NoError(t, err)
	require.Contains(t, out, "cell=(3, 2) facing=south")

	_, stderr, err := runArgs(t, "script", "-color", "never", "-log-level", "error", "-e", "step_up(;")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(stderr, "<inline>:1:"), stderr)
}

func TestMapConvertAndRender(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	grid := filepath.Join(dir, "room.grid")
	require.NoError(t, os.WriteFile(grid, []byte("cell_size 32\n# # #\n. L1 2\n"), 0644))

	yml := filepath.Join(dir, "room.yaml")
	_, _, err := runArgs(t, "map", "convert", grid, yml)
	require.NoError(t, err)

	out, _, err := runArgs(t, "map", "validate", yml)
	require.NoError(t, err)
	require.Contains(t, out, "3x2 cell_size=32 walkable=3 steps=1 absent=0")

	out, _, err = runArgs(t, "map", "-color", "never", "render", yml)
	require.NoError(t, err)
	require.Contains(t, out, "│###│")
	require.Contains(t, out, "│./2│")
}
