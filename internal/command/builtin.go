package command

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/joeycumines/goblinscript/internal/storage"
)

// HelpCommand lists commands or describes one.
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(
			"help",
			"Display help information for commands",
			"help [command]",
		),
		registry: registry,
	}
}

func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stdout, "goblin - grid-walking characters driven by behavior trees and scripts")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Usage: goblin <command> [options] [args...]")
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Commands:")
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, name := range c.registry.List() {
			if cmd, err := c.registry.Get(name); err == nil {
				_, _ = fmt.Fprintf(w, "  %s\t%s\n", name, cmd.Description())
			}
		}
		_ = w.Flush()
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Use 'goblin help <command>' for the flags of a command.")
		return nil
	}

	cmd, err := c.registry.Get(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Command: %s\n", cmd.Name())
	_, _ = fmt.Fprintf(stdout, "Description: %s\n", cmd.Description())
	_, _ = fmt.Fprintf(stdout, "Usage: goblin %s\n", cmd.Usage())

	// A scratch FlagSet renders the command's flags.
	var buf bytes.Buffer
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(&buf)
	cmd.SetupFlags(fs)
	fs.PrintDefaults()
	if buf.Len() > 0 {
		_, _ = fmt.Fprintln(stdout, "")
		_, _ = fmt.Fprintln(stdout, "Flags:")
		_, _ = fmt.Fprint(stdout, buf.String())
	}
	return nil
}

type VersionCommand struct {
	*BaseCommand
	version string
}

func NewVersionCommand(version string) *VersionCommand {
	return &VersionCommand{
		BaseCommand: NewBaseCommand("version", "Display version information", "version"),
		version:     version,
	}
}

func (c *VersionCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	_, _ = fmt.Fprintf(stdout, "goblin version %s\n", c.version)
	return nil
}

// ConfigCommand reads, writes and checks the configuration file.
type ConfigCommand struct {
	*BaseCommand
	config     *config.Config
	configPath string
	showAll    bool
}

// NewConfigCommand manages cfg. Writes go to configPath, or the resolved
// default location when it is empty.
func NewConfigCommand(cfg *config.Config, configPath string) *ConfigCommand {
	return &ConfigCommand{
		BaseCommand: NewBaseCommand(
			"config",
			"Manage configuration settings",
			"config [--all] [validate|schema|<key> [value]]",
		),
		config:     cfg,
		configPath: configPath,
	}
}

func (c *ConfigCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.showAll, "all", false, "Show every option with its effective value")
}

func (c *ConfigCommand) Execute(args []string, stdout, stderr io.Writer) error {
	schema := config.DefaultSchema()
	switch {
	case len(args) == 0 && c.showAll:
		w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)
		for _, opt := range schema.GlobalOptions() {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", opt.Key, schema.Resolve(c.config, opt.Key))
		}
		for _, section := range slices.Sorted(maps.Keys(c.config.Commands)) {
			opts := c.config.Commands[section]
			for _, key := range slices.Sorted(maps.Keys(opts)) {
				_, _ = fmt.Fprintf(w, "[%s] %s\t%s\n", section, key, opts[key])
			}
		}
		return w.Flush()

	case len(args) == 0:
		_, _ = fmt.Fprintln(stdout, "Configuration management:")
		_, _ = fmt.Fprintln(stdout, "  config <key>          - Get the effective value of an option")
		_, _ = fmt.Fprintln(stdout, "  config <key> <value>  - Set an option in the config file")
		_, _ = fmt.Fprintln(stdout, "  config --all          - Show every option")
		_, _ = fmt.Fprintln(stdout, "  config validate       - Check the config file against the schema")
		_, _ = fmt.Fprintln(stdout, "  config schema         - Describe every option")
		return nil

	case args[0] == "validate":
		issues := config.ValidateConfig(c.config, schema)
		if len(issues) == 0 {
			_, _ = fmt.Fprintln(stdout, "Configuration is valid.")
			return nil
		}
		_, _ = fmt.Fprintf(stdout, "Configuration has %d issue(s):\n", len(issues))
		for _, issue := range issues {
			_, _ = fmt.Fprintf(stdout, "  - %s\n", issue)
		}
		return fmt.Errorf("invalid configuration")

	case args[0] == "schema":
		_, _ = fmt.Fprint(stdout, schema.FormatHelp())
		return nil

	case len(args) == 1:
		key := args[0]
		if schema.Lookup("", key) == nil {
			if _, ok := c.config.GetGlobalOption(key); !ok {
				_, _ = fmt.Fprintf(stdout, "Configuration key '%s' not found\n", key)
				return nil
			}
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s\n", key, schema.Resolve(c.config, key))
		return nil

	case len(args) == 2:
		key, value := args[0], args[1]
		path := c.configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return fmt.Errorf("failed to get config path: %w", err)
			}
		}
		if err := config.SetKeyInFile(path, key, value); err != nil {
			return err
		}
		c.config.SetGlobalOption(key, value)
		_, _ = fmt.Fprintf(stdout, "Set configuration: %s = %s\n", key, value)
		return nil
	}

	_, _ = fmt.Fprintln(stderr, "Invalid number of arguments")
	return fmt.Errorf("invalid arguments")
}

// InitCommand writes a commented config file listing every option at its
// default.
type InitCommand struct {
	*BaseCommand
	configPath string
	force      bool
}

// NewInitCommand writes to configPath, or the resolved default location when
// it is empty.
func NewInitCommand(configPath string) *InitCommand {
	return &InitCommand{
		BaseCommand: NewBaseCommand("init", "Create a default configuration file", "init [--force]"),
		configPath:  configPath,
	}
}

func (c *InitCommand) SetupFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "Overwrite an existing configuration file")
}

func (c *InitCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	path := c.configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil && !c.force {
		_, _ = fmt.Fprintf(stdout, "Configuration already exists at: %s\n", path)
		_, _ = fmt.Fprintln(stdout, "Use --force to overwrite existing configuration")
		return nil
	}
	if err := storage.AtomicWriteFile(path, []byte(defaultConfigText(config.DefaultSchema())), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "Initialized goblin configuration at: %s\n", path)
	return nil
}

// defaultConfigText renders the schema as a config file with every option
// commented out at its default.
func defaultConfigText(s *config.ConfigSchema) string {
	var b strings.Builder
	b.WriteString("# goblin configuration\n")
	b.WriteString("# Format: optionName value, with [command] sections for command options.\n")
	write := func(opts []config.ConfigOption) {
		for _, o := range opts {
			fmt.Fprintf(&b, "\n# %s\n", o.Description)
			if o.EnvVar != "" {
				fmt.Fprintf(&b, "# Overridden by $%s.\n", o.EnvVar)
			}
			fmt.Fprintf(&b, "# %s\n", strings.TrimSpace(o.Key+" "+o.Default))
		}
	}
	write(s.GlobalOptions())
	for _, section := range s.Sections() {
		fmt.Fprintf(&b, "\n[%s]\n", section)
		write(s.SectionOptions(section))
	}
	return b.String()
}
