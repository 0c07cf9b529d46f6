package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/joeycumines/goblinscript/internal/dispatch"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/terrain"
)

// demoGrid is the map used when neither -map nor map.file names one.
const demoGrid = `# # # # # # # # # #
# . . . . . . . . #
# . . . . . . . . #
# . . # # # # . . #
# . . . . . . . . #
# . . . . . . . . #
# # # # # # # # # #
`

// demoRoute circles the wall in the middle of demoGrid.
var demoRoute = []geom.Vec2i{geom.VI(1, 1), geom.VI(8, 1), geom.VI(8, 5), geom.VI(1, 5)}

// simFlags are the flags shared by the simulation commands.
type simFlags struct {
	logFlags
	mapPath string
	workers int

	// ctxFactory replaces the signal-bound context in tests.
	ctxFactory func() (context.Context, context.CancelFunc)
}

func (f *simFlags) register(fs *flag.FlagSet) {
	f.logFlags.register(fs)
	fs.StringVar(&f.mapPath, "map", "", "Map file (.yaml, .toml, .json, .grid); defaults to map.file or a built-in demo map")
	fs.IntVar(&f.workers, "workers", -1, "Behavior tree workers, 0 for one per CPU (default sim.workers)")
}

// simEnv is everything a simulation command needs, resolved from flags and
// config. Close releases it.
type simEnv struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	closer io.Closer
	sim    config.Simulation
	m      *terrain.Map
	demo   bool
}

func (f *simFlags) prepare(cfg *config.Config, stderr io.Writer) (*simEnv, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	sim, err := config.ResolveSimulation(cfg, config.DefaultSchema())
	if err != nil {
		return nil, err
	}
	if f.workers >= 0 {
		sim.Workers = f.workers
	}
	if f.mapPath != "" {
		sim.MapFile = f.mapPath
	}

	logger, closer, err := f.setup(cfg, stderr)
	if err != nil {
		return nil, err
	}

	env := &simEnv{logger: logger, closer: closer, sim: sim}
	if sim.MapFile == "" {
		env.m, err = terrain.ParseGrid(fmt.Sprintf("cell_size %g\n%s", sim.CellSize, demoGrid))
		env.demo = true
	} else {
		env.m, err = terrain.Load(sim.MapFile)
	}
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	if f.ctxFactory != nil {
		env.ctx, env.cancel = f.ctxFactory()
	} else {
		env.ctx, env.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	}
	logger.Debug("simulation prepared",
		"map", sim.MapFile,
		"width", env.m.Width(),
		"height", env.m.Height(),
		"cell_size", env.m.CellSize())
	return env, nil
}

func (e *simEnv) Close() {
	e.cancel()
	_ = e.closer.Close()
}

// dispatcher returns a started dispatcher; the caller must Stop it.
func (e *simEnv) dispatcher() (*dispatch.Dispatcher, error) {
	d := dispatch.New(
		dispatch.WithWorkers(e.sim.Workers),
		dispatch.WithBatchSize(e.sim.BatchSize),
		dispatch.WithLogger(e.logger),
	)
	if err := d.Start(e.ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// parseCell parses "x,y".
func parseCell(s string) (geom.Vec2i, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return geom.Vec2i{}, fmt.Errorf("invalid cell %q, want x,y", s)
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(xs))
	y, err2 := strconv.Atoi(strings.TrimSpace(ys))
	if err1 != nil || err2 != nil {
		return geom.Vec2i{}, fmt.Errorf("invalid cell %q, want x,y", s)
	}
	return geom.VI(x, y), nil
}

// parseRoute parses space separated cells, each of which must be walkable.
func parseRoute(s string, m *terrain.Map) ([]geom.Vec2i, error) {
	var route []geom.Vec2i
	for _, field := range strings.Fields(s) {
		p, err := parseCell(field)
		if err != nil {
			return nil, err
		}
		if !m.IsWalkable(p) {
			return nil, fmt.Errorf("waypoint %s is not walkable", p)
		}
		route = append(route, p)
	}
	if len(route) == 0 {
		return nil, fmt.Errorf("empty route")
	}
	return route, nil
}

// sectionInt resolves an integer option of a command section: flag when
// positive, then the config file, then the schema default.
func sectionInt(cfg *config.Config, section, key string, flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if cfg != nil {
		if v, ok := cfg.GetCommandOption(section, key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	if opt := config.DefaultSchema().Lookup(section, key); opt != nil {
		n, _ := strconv.Atoi(opt.Default)
		return n
	}
	return 0
}

// sectionDuration is sectionInt for durations.
func sectionDuration(cfg *config.Config, section, key string, flagValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if cfg != nil {
		if v, ok := cfg.GetCommandOption(section, key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		}
	}
	if opt := config.DefaultSchema().Lookup(section, key); opt != nil {
		d, _ := time.ParseDuration(opt.Default)
		return d
	}
	return 0
}
