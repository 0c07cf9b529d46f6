// Package character implements the per-character movement state machine and
// its per-tick integration against a terrain map.
//
// A Character is owned by one goroutine, which calls Process once per
// simulation tick. Other goroutines may only call Request, which stores a
// state request in a single-slot Mailbox for the owner to apply.
package character

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/dispatch"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/logging"
	"github.com/joeycumines/goblinscript/internal/terrain"
)

const (
	// DefaultSpeed is the base speed in world units per second.
	DefaultSpeed float32 = 100
	// DefaultDirection is the facing of a new character.
	DefaultDirection = geom.South
)

var (
	ErrStateLocked          = errors.New("character: current state cannot exit")
	ErrTransitionNotAllowed = errors.New("character: transition not allowed")
)

// Dispatcher is the part of dispatch.Dispatcher a character talks to.
type Dispatcher interface {
	Enqueue(job dispatch.Job) error
	Take(id uint64) ([]behavior.Intent, bool)
}

var _ Dispatcher = (*dispatch.Dispatcher)(nil)

// Option configures a Character.
type Option func(*Character)

// WithDispatcher routes the character's tree ticks through d.
func WithDispatcher(d Dispatcher) Option { return func(c *Character) { c.dispatcher = d } }

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option { return func(c *Character) { c.logger = l } }

// WithSpeed sets the base speed.
func WithSpeed(s float32) Option { return func(c *Character) { c.speed = s } }

// WithTree attaches a behavior tree, see SetTree.
func WithTree(t *behavior.Tree) Option { return func(c *Character) { c.tree = t } }

// WithCustomHandler receives the tag of every Custom intent applied.
func WithCustomHandler(fn func(c *Character, tag string)) Option {
	return func(c *Character) { c.onCustom = fn }
}

// Character is a grid-walking actor.
type Character struct {
	id           uint64
	direction    geom.Direction
	speed        float32
	currentSpeed float32
	cellSize     float32

	state      State
	mailbox    Mailbox
	animator   Animator
	tree       *behavior.Tree
	blackboard *behavior.Blackboard
	dispatcher Dispatcher

	prevCell geom.Vec2i

	logger   *slog.Logger
	onCustom func(c *Character, tag string)
	owner    ownerCheck
}

// New creates a character with no state; the first Process enters Idle.
func New(id uint64, animator Animator, cellSize float32, opts ...Option) *Character {
	if animator == nil {
		panic("character: nil animator")
	}
	if cellSize <= 0 {
		cellSize = terrain.DefaultCellSize
	}
	c := &Character{
		id:         id,
		direction:  DefaultDirection,
		speed:      DefaultSpeed,
		cellSize:   cellSize,
		animator:   animator,
		blackboard: behavior.NewBlackboard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("character", id)
	if c.tree != nil {
		c.blackboard.Rebind(c.tree)
	}
	c.prevCell = terrain.CellOf(animator.Position(), cellSize)
	c.mailbox.Put(behavior.IdleRequest())
	return c
}

func (c *Character) ID() uint64                       { return c.id }
func (c *Character) Direction() geom.Direction        { return c.direction }
func (c *Character) Speed() float32                   { return c.speed }
func (c *Character) CurrentSpeed() float32            { return c.currentSpeed }
func (c *Character) Position() geom.Vec2              { return c.animator.Position() }
func (c *Character) Animator() Animator               { return c.animator }
func (c *Character) Blackboard() *behavior.Blackboard { return c.blackboard }
func (c *Character) Tree() *behavior.Tree             { return c.tree }
func (c *Character) State() State                     { return c.state }
func (c *Character) CellSize() float32                { return c.cellSize }

// PreviousCell is the cell occupied before the latest movement step.
func (c *Character) PreviousCell() geom.Vec2i { return c.prevCell }

// SetDirection changes the facing without a turn.
func (c *Character) SetDirection(d geom.Direction) { c.direction = d }

// StateType reports the current state's type, StateIdle before the first
// Process.
func (c *Character) StateType() behavior.StateType {
	if c.state == nil {
		return behavior.StateIdle
	}
	return c.state.Type()
}

// IsIdle reports whether the character is standing in the Idle state.
func (c *Character) IsIdle() bool {
	_, ok := c.state.(*Idle)
	return ok
}

// SetTree swaps the behavior tree. The blackboard keeps its semantic keys but
// loses the progress of the previous tree.
func (c *Character) SetTree(t *behavior.Tree) {
	c.tree = t
	c.blackboard.Rebind(t)
}

// CellPosition is the grid cell under the character.
func (c *Character) CellPosition() geom.Vec2i {
	return terrain.CellOf(c.Position(), c.cellSize)
}

// SetCellPosition places the character at the center of cell p.
func (c *Character) SetCellPosition(p geom.Vec2i) {
	c.animator.SetPosition(terrain.CellCenter(p, c.cellSize))
	c.prevCell = p
}

// Snapshot copies the character's state for a tree tick.
func (c *Character) Snapshot() behavior.Snapshot {
	return behavior.Snapshot{
		ID:         c.id,
		Position:   c.Position(),
		Direction:  c.direction,
		Velocity:   c.direction.Vector().Scale(c.currentSpeed),
		Idle:       c.IsIdle(),
		Speed:      c.currentSpeed,
		Blackboard: c.blackboard,
	}
}

// Request leaves r for the owner to apply on its next Process, overwriting
// any earlier request still pending. Safe for concurrent use.
func (c *Character) Request(r behavior.StateRequest) { c.mailbox.Put(r) }

// Pending returns the request waiting in the mailbox, if any.
func (c *Character) Pending() (behavior.StateRequest, bool) { return c.mailbox.Peek() }

// TryTransition enters the state described by r if the current state can exit
// and allows it. A refused request is discarded.
func (c *Character) TryTransition(r behavior.StateRequest) error {
	c.owner.assert()
	if c.state != nil {
		if !c.state.CanExit() {
			return fmt.Errorf("%w: %s -> %s", ErrStateLocked, c.state.Type(), r)
		}
		if !c.state.CanTransitionTo(r.Type()) {
			return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, c.state.Type(), r)
		}
	}
	c.enter(newState(r))
	return nil
}

// ForceTransition enters the state described by r unconditionally.
func (c *Character) ForceTransition(r behavior.StateRequest) {
	c.owner.assert()
	c.enter(newState(r))
}

// enter empties the slot while the old state exits and the new one enters,
// keeping next only if its Enter did not chain to another state.
func (c *Character) enter(next State) {
	prev := c.state
	c.state = nil
	if prev != nil {
		prev.Exit(c)
	}
	c.trace("state enter", "state", next.Type())
	next.Enter(c)
	if c.state == nil {
		c.state = next
	}
}

// Process advances the character by delta seconds. m may be nil, in which
// case no terrain checks apply.
func (c *Character) Process(delta float32, m *terrain.Map) {
	c.owner.assert()

	c.exchange(delta)

	if r, ok := c.mailbox.Take(); ok {
		c.logTransitionErr(c.TryTransition(r))
	}

	if c.currentSpeed != 0 {
		c.integrate(delta, m)
	}

	if c.state != nil {
		c.state.Update(delta, c)
	}
	c.animator.Advance(delta)
}

// exchange enqueues this tick's snapshot and applies whatever result an
// earlier tick left behind.
func (c *Character) exchange(delta float32) {
	if c.dispatcher == nil || c.tree == nil {
		return
	}
	err := c.dispatcher.Enqueue(dispatch.Job{
		CharacterID: c.id,
		Snapshot:    c.Snapshot(),
		Tree:        c.tree,
		Delta:       delta,
	})
	if err != nil {
		c.trace("enqueue failed", "error", err)
	}
	if intents, ok := c.dispatcher.Take(c.id); ok {
		c.Apply(intents...)
	}
}

func (c *Character) integrate(delta float32, m *terrain.Map) {
	from := c.CellPosition()
	pos := c.Position().Add(c.EffectiveVelocity(m).Scale(delta))
	c.animator.SetPosition(pos)
	to := c.CellPosition()

	c.prevCell = from
	if m == nil || to == from || m.IsWalkableFrom(from, to) {
		return
	}
	c.logger.Debug("movement blocked", "from", from, "to", to)
	c.animator.SetPosition(terrain.CellCenter(from, c.cellSize))
	c.ForceTransition(behavior.IdleRequest())
}

// EffectiveVelocity is the velocity the character moves with this tick,
// accounting for the step cell it stands on.
func (c *Character) EffectiveVelocity(m *terrain.Map) geom.Vec2 {
	step := terrain.StepNone
	if m != nil {
		step = m.StepAt(c.CellPosition())
	}
	return Velocity(c.direction, c.currentSpeed, step)
}

// Velocity is the movement vector for facing d at speed s on a cell with the
// given step type. Horizontal movement over a step cell climbs diagonally.
func Velocity(d geom.Direction, s float32, step terrain.StepType) geom.Vec2 {
	if d.Horizontal() {
		sign := float32(1)
		if d == geom.West {
			sign = -1
		}
		switch step {
		case terrain.StepLeft:
			return geom.V(sign*s, -sign*s)
		case terrain.StepRight:
			return geom.V(sign*s, sign*s)
		}
	}
	return d.Vector().Scale(s)
}

// Apply executes tree intents in order.
func (c *Character) Apply(intents ...behavior.Intent) {
	c.owner.assert()
	for _, in := range intents {
		c.trace("apply intent", "intent", in)
		switch in.Kind {
		case behavior.IntentChangeState:
			c.Request(in.Request)
		case behavior.IntentSetDirection:
			c.direction = in.Direction
		case behavior.IntentSnapToCell:
			c.SetCellPosition(c.CellPosition())
		case behavior.IntentPlayAnimation:
			c.animator.Play(in.Name)
		case behavior.IntentMoveToward:
			c.Request(behavior.WalkToRequest(in.Point))
		case behavior.IntentCustom:
			c.logger.Debug("custom intent", "tag", in.Name)
			if c.onCustom != nil {
				c.onCustom(c, in.Name)
			}
		default:
			c.logger.Warn("unknown intent", "intent", in)
		}
	}
}

func (c *Character) logTransitionErr(err error) {
	if err != nil {
		c.logger.Debug("transition refused", "error", err)
	}
}

func (c *Character) trace(msg string, args ...any) {
	c.logger.Log(context.Background(), logging.LevelTrace, msg, args...)
}
