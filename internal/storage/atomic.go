// Package storage holds the file-writing primitives shared by the map and
// config writers.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RenameError is a failed final rename. The temporary file is left behind at
// TempPath.
type RenameError struct {
	Err      error
	tempPath string
}

func (e RenameError) Error() string    { return e.Err.Error() }
func (e RenameError) TempPath() string { return e.tempPath }
func (e RenameError) Unwrap() error    { return e.Err }

// AtomicWriteFile writes data to a temporary sibling of filename, syncs it,
// and renames it into place, creating parent directories as needed. Readers
// see either the old or the new content.
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("storage: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}

	var ok bool
	defer func() {
		if ok {
			return
		}
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "path", tmp.Name(), "error", err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("storage: chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		ok = true
		return RenameError{Err: err, tempPath: tmp.Name()}
	}
	ok = true
	return nil
}
