// Package executor feeds discrete player commands, typically produced by a
// script, to a character one at a time.
package executor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/character"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/terrain"
)

// PlayerCommand is a discrete instruction for a character.
type PlayerCommand uint8

const (
	MoveNorth PlayerCommand = iota + 1
	MoveSouth
	MoveEast
	MoveWest
	Wait
)

func (p PlayerCommand) String() string {
	switch p {
	case MoveNorth:
		return "move_north"
	case MoveSouth:
		return "move_south"
	case MoveEast:
		return "move_east"
	case MoveWest:
		return "move_west"
	case Wait:
		return "wait"
	}
	return fmt.Sprintf("PlayerCommand(%d)", uint8(p))
}

// Direction is the facing a move command needs.
func (p PlayerCommand) Direction() (geom.Direction, bool) {
	switch p {
	case MoveNorth:
		return geom.North, true
	case MoveSouth:
		return geom.South, true
	case MoveEast:
		return geom.East, true
	case MoveWest:
		return geom.West, true
	}
	return 0, false
}

// Move returns the move command for d.
func Move(d geom.Direction) PlayerCommand {
	switch d {
	case geom.North:
		return MoveNorth
	case geom.South:
		return MoveSouth
	case geom.East:
		return MoveEast
	default:
		return MoveWest
	}
}

// Command is a PlayerCommand tagged with the 1-based source line that
// produced it. Duration only applies to Wait.
type Command struct {
	Kind     PlayerCommand
	Line     int
	Duration time.Duration
}

func (c Command) String() string {
	if c.Kind == Wait {
		return fmt.Sprintf("%s(%s)@%d", c.Kind, c.Duration, c.Line)
	}
	return fmt.Sprintf("%s@%d", c.Kind, c.Line)
}

// Executor is a FIFO of commands for a single character. It is driven from
// the character's owning goroutine.
type Executor struct {
	queue   []Command
	waited  float32
	logger  *slog.Logger
	started bool
}

// New returns an empty executor. A nil logger means slog.Default().
func New(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger}
}

// Enqueue appends cmds.
func (e *Executor) Enqueue(cmds ...Command) { e.queue = append(e.queue, cmds...) }

// Len is the number of commands left, including the current one.
func (e *Executor) Len() int { return len(e.queue) }

// Done reports whether every command has been consumed.
func (e *Executor) Done() bool { return len(e.queue) == 0 }

// CurrentLine is the source line of the command being executed, or 0.
func (e *Executor) CurrentLine() int {
	if len(e.queue) == 0 {
		return 0
	}
	return e.queue[0].Line
}

// Clear drops every pending command.
func (e *Executor) Clear() {
	e.queue = nil
	e.waited = 0
	e.started = false
}

// Tick tries to start the head command on c. Commands only start while c is
// idle, so a command is consumed once per completed action. Moves facing
// the wrong way first turn c and stay queued. m may be nil.
func (e *Executor) Tick(delta float32, c *character.Character, m *terrain.Map) {
	if len(e.queue) == 0 || !c.IsIdle() {
		return
	}
	cmd := e.queue[0]
	if !e.started {
		e.started = true
		e.logger.Debug("executing command", "character", c.ID(), "command", cmd)
	}

	if cmd.Kind == Wait {
		e.waited += delta
		if time.Duration(float64(e.waited)*float64(time.Second)) >= cmd.Duration {
			e.pop()
		}
		return
	}

	dir, ok := cmd.Kind.Direction()
	if !ok {
		e.logger.Warn("dropping unknown command", "character", c.ID(), "command", cmd)
		e.pop()
		return
	}
	if c.Direction() != dir {
		if err := c.TryTransition(behavior.IdleRequest()); err != nil {
			e.logger.Debug("transition refused", "character", c.ID(), "error", err)
		}
		c.Request(behavior.TurnRequest(dir))
		return
	}

	cellSize := c.CellSize()
	if m != nil {
		cellSize = m.CellSize()
	}
	next := terrain.CellOf(c.Position(), cellSize).Add(dir.Offset())
	if err := c.TryTransition(behavior.WalkToRequest(terrain.CellCenter(next, cellSize))); err != nil {
		e.logger.Debug("command not started", "character", c.ID(), "command", cmd, "error", err)
		return
	}
	e.pop()
}

func (e *Executor) pop() {
	e.queue = e.queue[1:]
	e.waited = 0
	e.started = false
}
