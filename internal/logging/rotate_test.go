package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// tinyWriter bypasses the megabyte granularity of NewRotatingFileWriter.
func tinyWriter(t *testing.T, limit int64, maxFiles int) (*RotatingFileWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.log")
	w := &RotatingFileWriter{path: path, limit: limit, maxFiles: maxFiles}
	require.NoError(t, w.open())
	t.Cleanup(func() { _ = w.Close() })
	return w, path
}

func TestRotatingFileWriter_Write(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "test.log")
	w, err := NewRotatingFileWriter(path, 0, -1)
	require.NoError(t, err)
	require.EqualValues(t, 1<<20, w.limit)
	require.Zero(t, w.maxFiles)

	n, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))

	_, err = w.Write([]byte("late"))
	require.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingFileWriter_Rotates(t *testing.T) {
	t.Parallel()
	w, path := tinyWriter(t, 50, 2)
	line := strings.Repeat("A", 39) + "\n"

	for i := range 4 {
		_, err := w.Write([]byte(line))
		require.NoError(t, err, i)
	}
	require.EqualValues(t, 40, w.size)
	require.Equal(t, []int{1, 2}, w.backups())

	for _, p := range []string{path, path + ".1", path + ".2"} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		require.Equal(t, line, string(data), p)
	}
	require.NoFileExists(t, path+".3")
}

func TestRotatingFileWriter_NoBackups(t *testing.T) {
	t.Parallel()
	w, path := tinyWriter(t, 10, 0)
	_, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "abc", string(data))
	require.Empty(t, w.backups())
}

func TestRotatingFileWriter_OversizedWrite(t *testing.T) {
	t.Parallel()
	w, path := tinyWriter(t, 4, 1)
	_, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))
}
