package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(cfg *config.Config, path string) *Registry {
	r := NewRegistry()
	r.Register(NewHelpCommand(r))
	r.Register(NewVersionCommand("1.2.3"))
	r.Register(NewConfigCommand(cfg, path))
	r.Register(NewInitCommand(path))
	r.Register(NewBenchCommand(cfg))
	return r
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(config.NewConfig(), "")
	require.Equal(t, []string{"bench", "config", "help", "init", "version"}, r.List())

	cmd, err := r.Get("version")
	require.NoError(t, err)
	require.Equal(t, "version", cmd.Name())

	_, err = r.Get("nope")
	require.EqualError(t, err, "command not found: nope")
}

func TestHelpCommand(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(config.NewConfig(), "")
	help, err := r.Get("help")
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	require.NoError(t, help.Execute(nil, &stdout, &stderr))
	require.Contains(t, stdout.String(), "Usage: goblin <command>")
	require.Contains(t, stdout.String(), "  version  Display version information")

	stdout.Reset()
	require.NoError(t, help.Execute([]string{"bench"}, &stdout, &stderr))
	require.Contains(t, stdout.String(), "Usage: goblin bench [options]")
	require.Contains(t, stdout.String(), "-ticks")
	require.Contains(t, stdout.String(), "-log-level")

	stdout.Reset()
	require.NoError(t, help.Execute([]string{"version"}, &stdout, &stderr))
	require.NotContains(t, stdout.String(), "Flags:")

	require.Error(t, help.Execute([]string{"nope"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Unknown command: nope")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()
	var stdout, stderr bytes.Buffer
	cmd := NewVersionCommand("1.2.3")
	require.NoError(t, cmd.Execute(nil, &stdout, &stderr))
	require.Equal(t, "goblin version 1.2.3\n", stdout.String())
	require.Error(t, cmd.Execute([]string{"x"}, &stdout, &stderr))
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("GOBLIN_LOG_LEVEL", "warn")
	path := filepath.Join(t.TempDir(), "config")
	cfg := config.NewConfig()
	cmd := NewConfigCommand(cfg, path)

	exec := func(args ...string) (string, error) {
		var stdout, stderr bytes.Buffer
		err := cmd.Execute(args, &stdout, &stderr)
		return stdout.String(), err
	}

	out, err := exec()
	require.NoError(t, err)
	require.Contains(t, out, "config validate")

	out, err = exec("log.level")
	require.NoError(t, err)
	require.Equal(t, "log.level: warn\n", out)

	out, err = exec("sim.batch-size")
	require.NoError(t, err)
	require.Equal(t, "sim.batch-size: 32\n", out)

	out, err = exec("made.up")
	require.NoError(t, err)
	require.Equal(t, "Configuration key 'made.up' not found\n", out)

	out, err = exec("sim.workers", "4")
	require.NoError(t, err)
	require.Equal(t, "Set configuration: sim.workers = 4\n", out)
	require.Equal(t, "4", config.DefaultSchema().Resolve(cfg, "sim.workers"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "sim.workers 4\n", string(b))

	_, err = exec("sim.workers", "four")
	require.Error(t, err)
	require.Equal(t, "4", config.DefaultSchema().Resolve(cfg, "sim.workers"))

	out, err = exec("schema")
	require.NoError(t, err)
	require.Contains(t, out, "sim.tick-interval")

	cfg.SetGlobalOption("bogus", "1")
	out, err = exec("validate")
	require.Error(t, err)
	require.Contains(t, out, `unknown global option: "bogus"`)

	cmd.showAll = true
	out, err = exec()
	require.NoError(t, err)
	require.Contains(t, out, "sim.workers")
	require.Regexp(t, `(?m)^log\.level\s+warn$`, out)
}

func TestInitCommand(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dir", "config")
	cmd := NewInitCommand(path)

	var stdout, stderr bytes.Buffer
	require.NoError(t, cmd.Execute(nil, &stdout, &stderr))
	require.Contains(t, stdout.String(), "Initialized goblin configuration at: "+path)

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	require.Empty(t, cfg.Warnings)
	require.Empty(t, cfg.Global, "defaults are written commented out")
	require.Contains(t, cfg.Commands, "bench")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "# sim.speed 100\n")
	require.Contains(t, string(b), "# Overridden by $GOBLIN_MAP.\n# map.file\n")

	stdout.Reset()
	require.NoError(t, cmd.Execute(nil, &stdout, &stderr))
	require.True(t, strings.HasPrefix(stdout.String(), "Configuration already exists"))
	require.Error(t, cmd.Execute([]string{"extra"}, &stdout, &stderr))
}
