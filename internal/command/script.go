package command

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/scene"
	"github.com/joeycumines/goblinscript/internal/scripting"
)

// ScriptCommand drives one character on a map with a player script.
type ScriptCommand struct {
	*BaseCommand
	simFlags
	config   *config.Config
	code     string
	start    string
	facing   string
	maxSteps int
	trace    bool
}

func NewScriptCommand(cfg *config.Config) *ScriptCommand {
	return &ScriptCommand{
		BaseCommand: NewBaseCommand(
			"script",
			"Run a JavaScript player script against a character",
			"script [options] [script-file]",
		),
		config: cfg,
	}
}

func (c *ScriptCommand) SetupFlags(fs *flag.FlagSet) {
	c.simFlags.register(fs)
	fs.StringVar(&c.code, "e", "", "Script source to run instead of a file")
	fs.StringVar(&c.start, "start", "1,1", "Starting cell as x,y")
	fs.StringVar(&c.facing, "facing", "south", "Starting facing (north, south, east, west)")
	fs.IntVar(&c.maxSteps, "max-steps", 0, "Simulation steps before giving up (default [script] max-steps)")
	fs.BoolVar(&c.trace, "trace", false, "Print each script line as its command starts")
}

func (c *ScriptCommand) Execute(args []string, stdout, stderr io.Writer) error {
	name, source, err := c.source(args)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return err
	}
	start, err := parseCell(c.start)
	if err != nil {
		return err
	}
	facing, err := geom.ParseDirection(c.facing)
	if err != nil {
		return err
	}

	env, err := c.prepare(c.config, stderr)
	if err != nil {
		return err
	}
	defer env.Close()
	if !env.m.IsWalkable(start) {
		return fmt.Errorf("start cell %s is not walkable", start)
	}

	vm, err := scripting.New(env.ctx, source,
		scripting.WithName(name),
		scripting.WithBudget(env.sim.ScriptBudget),
		scripting.WithLogger(env.logger),
	)
	if err != nil {
		return err
	}
	defer vm.Close()

	cmds, err := vm.Run(env.ctx)
	if err != nil {
		return reportScriptError(stderr, name, err)
	}

	s := scene.New(env.m, scene.WithLogger(env.logger), scene.WithSpeed(env.sim.Speed))
	a := s.Spawn(start, facing)
	a.Executor.Enqueue(cmds...)

	maxSteps := sectionInt(c.config, "script", "max-steps", c.maxSteps)
	settled := false
	line := 0
	for step := 0; step < maxSteps && env.ctx.Err() == nil; step++ {
		s.Step(env.sim.Delta)
		if l := a.Executor.CurrentLine(); c.trace && l > 0 && l != line {
			_, _ = fmt.Fprintf(stdout, "line %d\n", l)
		}
		line = a.Executor.CurrentLine()
		if !s.Idle() {
			continue
		}
		more, err := vm.Tick(env.ctx)
		if err != nil {
			return reportScriptError(stderr, name, err)
		}
		if len(more) == 0 {
			settled = true
			break
		}
		a.Executor.Enqueue(more...)
	}

	ch := a.Character
	_, _ = fmt.Fprint(stdout, s.Render())
	_, _ = fmt.Fprintf(stdout, "cell=%s facing=%s ticks=%d\n", ch.CellPosition(), ch.Direction(), s.Ticks())
	if !settled {
		_, _ = fmt.Fprintf(stdout, "stopped with %d command(s) queued\n", a.Executor.Len())
	}
	return nil
}

// source returns the script name and text, from -e or the file argument.
func (c *ScriptCommand) source(args []string) (string, string, error) {
	switch {
	case c.code != "" && len(args) > 0:
		return "", "", errors.New("give either -e or a script file, not both")
	case c.code != "":
		return "<inline>", c.code, nil
	case len(args) == 1:
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read script: %w", err)
		}
		return filepath.Base(args[0]), string(b), nil
	}
	return "", "", errors.New("expected one script file or -e")
}

func reportScriptError(w io.Writer, name string, err error) error {
	var se *scripting.ScriptError
	if errors.As(err, &se) && se.Line > 0 {
		_, _ = fmt.Fprintf(w, "%s:%d:%d: %s\n", name, se.Line, se.Column, se.Message)
	} else {
		_, _ = fmt.Fprintf(w, "%s: %v\n", name, err)
	}
	return fmt.Errorf("script %s failed: %w", name, err)
}
