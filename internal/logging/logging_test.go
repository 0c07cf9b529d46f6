package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{" info ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	} {
		got, err := ParseLevel(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestLevelName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "TRACE", LevelName(LevelTrace))
	require.Equal(t, "DEBUG", LevelName(slog.LevelDebug))
	require.Equal(t, "INFO", LevelName(slog.LevelInfo+1))
	require.Equal(t, "WARN", LevelName(slog.LevelWarn))
	require.Equal(t, "ERROR", LevelName(slog.LevelError+4))
}

func TestConsoleHandler(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, &ConsoleOptions{Level: LevelTrace, TimeFormat: "-"}))

	logger.With("character", 7).WithGroup("move").Log(t.Context(), LevelTrace, "blocked",
		"from", "(1, 1)", "to", "(1, 0)")
	logger.Info("ready", "msg", "two words")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{
		`TRACE blocked character=7 move.from="(1, 1)" move.to="(1, 0)"`,
		`INFO  ready msg="two words"`,
	}, lines)
}

func TestConsoleHandler_Level(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, nil))
	logger.Debug("hidden")
	require.Zero(t, buf.Len())
	logger.Warn("shown")
	require.Contains(t, buf.String(), "WARN  shown")
}

func TestParseColorMode(t *testing.T) {
	t.Parallel()
	m, err := ParseColorMode("")
	require.NoError(t, err)
	require.Equal(t, ColorAuto, m)
	m, err = ParseColorMode("Always")
	require.NoError(t, err)
	require.Equal(t, ColorAlways, m)
	_, err = ParseColorMode("sometimes")
	require.Error(t, err)

	require.True(t, UseColor(ColorAlways, &bytes.Buffer{}))
	require.False(t, UseColor(ColorAuto, &bytes.Buffer{}))
	require.False(t, UseColor(ColorNever, os.Stderr))
}

func TestSetup_FileAndConsole(t *testing.T) {
	t.Parallel()
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "goblin.log")

	logger, closer, err := Setup(Options{
		Level:   LevelTrace,
		Console: &console,
		Color:   ColorNever,
		File:    path,
	})
	require.NoError(t, err)
	logger.Log(t.Context(), LevelTrace, "tick", "n", 3)
	require.NoError(t, closer.Close())

	require.Contains(t, console.String(), "TRACE tick n=3")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	require.Equal(t, "TRACE", rec["level"])
	require.Equal(t, "tick", rec["msg"])
	require.EqualValues(t, 3, rec["n"])
}

func TestSetup_Discard(t *testing.T) {
	t.Parallel()
	logger, closer, err := Setup(Options{})
	require.NoError(t, err)
	require.NotNil(t, closer)
	require.False(t, logger.Enabled(t.Context(), slog.LevelError))
	require.NoError(t, closer.Close())
}
