package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joeycumines/goblinscript/internal/storage"
)

// SetKeyInFile sets the global option key in the config file at path,
// keeping comments, sections and the order of other lines. An existing
// global line for key is rewritten in place; otherwise the line goes just
// before the first section header, or at the end. Keys unknown to the
// default schema, and values of the wrong type, are rejected.
func SetKeyInFile(path, key, value string) error {
	opt := DefaultSchema().Lookup("", key)
	if opt == nil {
		return fmt.Errorf("config: unknown option %q", key)
	}
	if err := validateType(opt.Type, value); err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	entry := strings.TrimSpace(key + " " + value)
	at := len(lines)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			at = i
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = entry
			at = -1
			break
		}
	}
	if at >= 0 {
		lines = slices.Insert(lines, at, entry)
	}

	return storage.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}
