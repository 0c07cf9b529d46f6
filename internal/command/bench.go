package command

import (
	"flag"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/character"
	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/scene"
	"github.com/joeycumines/goblinscript/internal/terrain"
)

// BenchCommand steps many patrolling characters as fast as possible and
// reports timings.
type BenchCommand struct {
	*BaseCommand
	simFlags
	config     *config.Config
	characters int
	ticks      int
	inline     bool
}

func NewBenchCommand(cfg *config.Config) *BenchCommand {
	return &BenchCommand{
		BaseCommand: NewBaseCommand(
			"bench",
			"Stress test the tree dispatcher with many characters",
			"bench [options]",
		),
		config: cfg,
	}
}

func (c *BenchCommand) SetupFlags(fs *flag.FlagSet) {
	c.simFlags.register(fs)
	fs.IntVar(&c.characters, "characters", 0, "Characters to simulate (default [bench] characters)")
	fs.IntVar(&c.ticks, "ticks", 0, "Simulation steps (default [bench] ticks)")
	fs.BoolVar(&c.inline, "inline", false, "Tick trees on the stepping goroutine instead of the dispatcher")
}

// benchResult is what one bench run measured.
type benchResult struct {
	characters int
	ticks      int
	total      time.Duration
	slowest    time.Duration
	moving     int
}

func (r benchResult) String() string {
	perTick := time.Duration(0)
	rate := 0.0
	if r.ticks > 0 {
		perTick = r.total / time.Duration(r.ticks)
		rate = float64(r.ticks) / r.total.Seconds()
	}
	return fmt.Sprintf("characters=%d ticks=%d total=%s per_tick=%s slowest_tick=%s ticks_per_sec=%.1f moving=%d",
		r.characters, r.ticks, r.total.Round(time.Microsecond), perTick, r.slowest, rate, r.moving)
}

func (c *BenchCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %v\n", args)
		return fmt.Errorf("unexpected arguments")
	}
	env, err := c.prepare(c.config, stderr)
	if err != nil {
		return err
	}
	defer env.Close()

	n := sectionInt(c.config, "bench", "characters", c.characters)
	ticks := sectionInt(c.config, "bench", "ticks", c.ticks)
	m := env.m
	if env.demo {
		if m, err = benchField(n, env.sim.CellSize); err != nil {
			return err
		}
	}
	route := fieldRoute(m)
	tree, err := scene.PatrolTree(route, m.CellSize(), 0.25)
	if err != nil {
		return err
	}
	cells := walkableCells(m)
	if len(cells) == 0 {
		return fmt.Errorf("map has no walkable cells")
	}

	opts := []scene.Option{scene.WithLogger(env.logger), scene.WithSpeed(env.sim.Speed)}
	mode := "inline"
	if !c.inline {
		d, err := env.dispatcher()
		if err != nil {
			return err
		}
		defer func() {
			d.Stop()
			_, _ = fmt.Fprintf(stdout, "dispatcher: %s\n", d.Stats())
		}()
		opts = append(opts, scene.WithDispatcher(d))
		mode = fmt.Sprintf("dispatch workers=%d batch=%d", d.Workers(), d.BatchSize())
	}
	s := scene.New(m, opts...)

	var nodes []bt.Node
	for i := range n {
		a := s.Spawn(cells[i%len(cells)], geom.South, character.WithTree(tree))
		if c.inline {
			ch := a.Character
			nodes = append(nodes, tree.Node(ch.Snapshot, env.sim.Delta, func(in []behavior.Intent) { ch.Apply(in...) }))
		}
	}

	env.logger.Info("bench started", "mode", mode, "characters", n, "ticks", ticks)
	r := benchResult{characters: n}
	start := time.Now()
	for range ticks {
		if env.ctx.Err() != nil {
			break
		}
		t0 := time.Now()
		for _, node := range nodes {
			if _, err := node.Tick(); err != nil {
				return fmt.Errorf("tick tree: %w", err)
			}
		}
		s.Step(env.sim.Delta)
		r.slowest = max(r.slowest, time.Since(t0))
		r.ticks++
	}
	r.total = time.Since(start)
	for _, a := range s.Actors() {
		if !a.Character.IsIdle() {
			r.moving++
		}
	}

	_, _ = fmt.Fprintf(stdout, "mode: %s\n%s\n", mode, r)
	return nil
}

// benchField is an open walled square with room for n characters.
func benchField(n int, cellSize float32) (*terrain.Map, error) {
	side := max(4, int(math.Ceil(math.Sqrt(float64(n))))+2)
	m, err := terrain.New(side, side, cellSize)
	if err != nil {
		return nil, err
	}
	for y := range side {
		for x := range side {
			edge := x == 0 || y == 0 || x == side-1 || y == side-1
			m.SetCell(geom.VI(x, y), &terrain.Cell{Walkable: !edge})
		}
	}
	return m, nil
}

// fieldRoute is the loop through the corners of the walkable bounding box.
func fieldRoute(m *terrain.Map) []geom.Vec2i {
	cells := walkableCells(m)
	if len(cells) == 0 {
		return nil
	}
	lo, hi := cells[0], cells[0]
	for _, p := range cells {
		lo = geom.VI(min(lo.X, p.X), min(lo.Y, p.Y))
		hi = geom.VI(max(hi.X, p.X), max(hi.Y, p.Y))
	}
	var route []geom.Vec2i
	for _, p := range []geom.Vec2i{lo, geom.VI(hi.X, lo.Y), hi, geom.VI(lo.X, hi.Y)} {
		if m.IsWalkable(p) {
			route = append(route, p)
		}
	}
	route = slices.Compact(route)
	if len(route) > 1 && route[0] == route[len(route)-1] {
		route = route[:len(route)-1]
	}
	if len(route) == 0 {
		route = append(route, cells[0])
	}
	return route
}

func walkableCells(m *terrain.Map) []geom.Vec2i {
	var out []geom.Vec2i
	for y := range m.Height() {
		for x := range m.Width() {
			if p := geom.VI(x, y); m.IsWalkable(p) {
				out = append(out, p)
			}
		}
	}
	return out
}
