package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/character"
	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/scene"
)

// RunCommand runs patrolling characters on a map in real time.
type RunCommand struct {
	*BaseCommand
	simFlags
	config     *config.Config
	characters int
	route      string
	wait       float64
	hold       string
	duration   time.Duration
	report     time.Duration
}

func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Run patrolling characters on a map until interrupted",
			"run [options]",
		),
		config: cfg,
	}
}

func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.simFlags.register(fs)
	fs.IntVar(&c.characters, "characters", 0, "Patrolling characters to spawn (default [run] characters)")
	fs.StringVar(&c.route, "route", "", `Patrol waypoints as "x,y x,y ..." (required with a map file)`)
	fs.Float64Var(&c.wait, "wait", 0.5, "Seconds to pause at each waypoint")
	fs.StringVar(&c.hold, "hold", "", `Keep characters at their waypoint while this expression holds, e.g. "id % 2 == 0"`)
	fs.DurationVar(&c.duration, "duration", 0, "Stop after this long; 0 runs until interrupted")
	fs.DurationVar(&c.report, "report", 0, "Progress report interval (default [run] report)")
}

func (c *RunCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	env, err := c.prepare(c.config, stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	route := demoRoute
	if !env.demo || c.route != "" {
		if route, err = parseRoute(c.route, env.m); err != nil {
			return fmt.Errorf("route: %w", err)
		}
	}
	patrolOpts := []scene.PatrolOption{scene.WithPatrolLogger(env.logger)}
	if c.hold != "" {
		cond, err := behavior.NewCondition(c.hold, behavior.WithConditionLogger(env.logger))
		if err != nil {
			return fmt.Errorf("hold: %w", err)
		}
		patrolOpts = append(patrolOpts, scene.WithHold(cond))
	}
	tree, err := scene.PatrolTree(route, env.m.CellSize(), float32(c.wait), patrolOpts...)
	if err != nil {
		return err
	}

	d, err := env.dispatcher()
	if err != nil {
		return err
	}
	defer d.Stop()

	s := scene.New(env.m,
		scene.WithDispatcher(d),
		scene.WithLogger(env.logger),
		scene.WithSpeed(env.sim.Speed),
		scene.WithReport(sectionDuration(c.config, "run", "report", c.report)),
	)
	n := sectionInt(c.config, "run", "characters", c.characters)
	for i := range n {
		s.Spawn(route[i%len(route)], geom.South, character.WithTree(tree))
	}

	ctx := env.ctx
	if c.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.duration)
		defer cancel()
	}
	env.logger.Info("patrol started", "characters", n, "waypoints", len(route))
	if err := s.Run(ctx, env.sim.TickInterval, env.sim.Delta); err != nil {
		return err
	}

	_, _ = fmt.Fprint(stdout, s.Render())
	_, _ = fmt.Fprintf(stdout, "ticks=%d %s\n", s.Ticks(), d.Stats())
	return nil
}
