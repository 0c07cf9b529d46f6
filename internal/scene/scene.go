// Package scene wires characters, their executors and a terrain map into a
// headless simulation that can be stepped by hand or on a ticker.
package scene

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goblinscript/internal/character"
	"github.com/joeycumines/goblinscript/internal/dispatch"
	"github.com/joeycumines/goblinscript/internal/executor"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/terrain"
)

// Actor is one character in a scene plus its command queue.
type Actor struct {
	Character *character.Character
	Animator  *FrameAnimator
	Executor  *executor.Executor
}

// Option configures a Scene.
type Option func(*Scene)

// WithDispatcher routes every spawned character's tree through d.
func WithDispatcher(d *dispatch.Dispatcher) Option { return func(s *Scene) { s.dispatcher = d } }

// WithLogger sets the parent logger.
func WithLogger(l *slog.Logger) Option { return func(s *Scene) { s.logger = l } }

// WithSpeed sets the base speed of spawned characters.
func WithSpeed(speed float32) Option { return func(s *Scene) { s.speed = speed } }

// WithReport logs a progress line every interval while Run is active.
func WithReport(interval time.Duration) Option { return func(s *Scene) { s.report = interval } }

// Scene owns a map and the actors on it. Spawn and Step must be called from
// one goroutine at a time; Run does so on its own ticker goroutine.
type Scene struct {
	id         uuid.UUID
	m          *terrain.Map
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	speed      float32
	report     time.Duration

	mu     sync.Mutex
	actors []*Actor
	ticks  uint64
}

// New creates a scene on m.
func New(m *terrain.Map, opts ...Option) *Scene {
	s := &Scene{id: uuid.New(), m: m, speed: character.DefaultSpeed}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("scene", s.id.String())
	return s
}

func (s *Scene) ID() uuid.UUID        { return s.id }
func (s *Scene) Map() *terrain.Map    { return s.m }
func (s *Scene) Logger() *slog.Logger { return s.logger }

// Actors returns a copy of the actor list.
func (s *Scene) Actors() []*Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Actor(nil), s.actors...)
}

// Ticks is the number of completed Steps.
func (s *Scene) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Spawn places a new character at the center of cell, facing dir. Ids are
// assigned from 1 in spawn order.
func (s *Scene) Spawn(cell geom.Vec2i, dir geom.Direction, opts ...character.Option) *Actor {
	s.mu.Lock()
	id := uint64(len(s.actors) + 1)
	s.mu.Unlock()

	logger := s.logger.With("character", id)
	anim := NewFrameAnimator(nil, logger)
	base := []character.Option{character.WithLogger(s.logger), character.WithSpeed(s.speed)}
	if s.dispatcher != nil {
		base = append(base, character.WithDispatcher(s.dispatcher))
	}
	c := character.New(id, anim, s.m.CellSize(), append(base, opts...)...)
	c.SetCellPosition(cell)
	c.SetDirection(dir)

	a := &Actor{Character: c, Animator: anim, Executor: executor.New(logger)}
	s.mu.Lock()
	s.actors = append(s.actors, a)
	s.mu.Unlock()
	return a
}

// Step advances every character, then every executor, by delta seconds.
func (s *Scene) Step(delta float32) {
	actors := s.Actors()
	for _, a := range actors {
		a.Character.Process(delta, s.m)
	}
	for _, a := range actors {
		a.Executor.Tick(delta, a.Character, s.m)
	}
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
}

// Idle reports whether every actor is idle with an empty command queue.
func (s *Scene) Idle() bool {
	for _, a := range s.Actors() {
		if !a.Character.IsIdle() || !a.Executor.Done() {
			return false
		}
	}
	return true
}

// Run steps the scene by delta every interval until ctx ends. Cancellation
// is not an error.
func (s *Scene) Run(ctx context.Context, interval time.Duration, delta float32) error {
	if interval <= 0 {
		return fmt.Errorf("scene: invalid tick interval %s", interval)
	}
	manager := bt.NewManager()
	step := bt.New(func([]bt.Node) (bt.Status, error) {
		s.Step(delta)
		return bt.Success, nil
	})
	if err := manager.Add(bt.NewTicker(ctx, interval, step)); err != nil {
		return fmt.Errorf("scene: add step ticker: %w", err)
	}
	if s.report > 0 {
		report := bt.New(func([]bt.Node) (bt.Status, error) {
			s.logger.Info("scene progress", "ticks", s.Ticks(), "actors", len(s.Actors()))
			return bt.Success, nil
		})
		if err := manager.Add(bt.NewTicker(ctx, s.report, report)); err != nil {
			manager.Stop()
			return fmt.Errorf("scene: add report ticker: %w", err)
		}
	}

	s.logger.Debug("scene running", "interval", interval, "delta", delta)
	select {
	case <-ctx.Done():
	case <-manager.Done():
	}
	manager.Stop()
	<-manager.Done()
	s.logger.Debug("scene stopped", "ticks", s.Ticks())

	if err := manager.Err(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("scene: %w", err)
	}
	return nil
}

var facingGlyphs = [...]string{
	geom.North: "^",
	geom.South: "v",
	geom.East:  ">",
	geom.West:  "<",
}

// Render draws the map as text, one glyph per cell, with characters shown
// as arrows in their facing direction.
func (s *Scene) Render() string {
	rows := Glyphs(s.m)
	for _, a := range s.Actors() {
		p := a.Character.CellPosition()
		if s.m.InBounds(p) {
			rows[p.Y][p.X] = facingGlyphs[a.Character.Direction()]
		}
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	return b.String()
}

// Glyphs returns one glyph per cell: "#" blocked, "." ground, "/" and "\"
// stairs, digits for raised ground and a space for absent cells.
func Glyphs(m *terrain.Map) [][]string {
	rows := make([][]string, m.Height())
	for y := range rows {
		rows[y] = make([]string, m.Width())
		for x := range rows[y] {
			rows[y][x] = glyph(m.Cell(geom.VI(x, y)))
		}
	}
	return rows
}

func glyph(c *terrain.Cell) string {
	switch {
	case c == nil:
		return " "
	case !c.Walkable:
		return "#"
	case c.Step == terrain.StepLeft:
		return "/"
	case c.Step == terrain.StepRight:
		return "\\"
	case c.Height > 0 && c.Height < 10:
		return fmt.Sprint(c.Height)
	}
	return "."
}
