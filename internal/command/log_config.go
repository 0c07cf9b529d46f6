package command

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/joeycumines/goblinscript/internal/logging"
)

// logFlags are the logging flags shared by the simulation commands. Unset
// flags fall back to the log.* options and then the schema defaults.
type logFlags struct {
	file  string
	level string
	color string
}

func (f *logFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "log-file", "", "Path to log file (JSON output)")
	fs.StringVar(&f.level, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&f.color, "color", "", "Console color mode (auto, always, never)")
}

// setup builds the command logger writing to console. The caller must Close
// the returned closer.
func (f *logFlags) setup(cfg *config.Config, console io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	schema := config.DefaultSchema()
	pick := func(flagValue, key string) string {
		if flagValue != "" {
			return flagValue
		}
		return schema.Resolve(cfg, key)
	}
	atoi := func(key string) int {
		n, err := strconv.Atoi(schema.Resolve(cfg, key))
		if err != nil {
			n, _ = strconv.Atoi(schema.Lookup("", key).Default)
		}
		return n
	}

	level, err := logging.ParseLevel(pick(f.level, "log.level"))
	if err != nil {
		return nil, nil, err
	}
	color, err := logging.ParseColorMode(pick(f.color, "color"))
	if err != nil {
		return nil, nil, err
	}
	logger, closer, err := logging.Setup(logging.Options{
		Level:     level,
		Console:   console,
		Color:     color,
		File:      pick(f.file, "log.file"),
		MaxSizeMB: atoi("log.max-size-mb"),
		MaxFiles:  atoi("log.max-files"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, closer, nil
}
