package character

import (
	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/geom"
)

// State is one node of the character's movement state machine.
//
// Enter and Exit run on the owning goroutine with the character's state slot
// empty, so Enter may itself call TryTransition to chain into another state.
type State interface {
	Type() behavior.StateType
	CanTransitionTo(next behavior.StateType) bool
	Enter(c *Character)
	Exit(c *Character)
	Update(delta float32, c *Character)
	CanExit() bool
}

func newState(r behavior.StateRequest) State {
	switch r.Kind {
	case behavior.RequestRun:
		return &Run{}
	case behavior.RequestTurn:
		return &Turn{Target: r.Direction}
	case behavior.RequestWalkTo:
		return &WalkTo{Target: r.Target}
	default:
		return &Idle{}
	}
}

// Idle stands still facing the current direction.
type Idle struct{}

func (*Idle) Type() behavior.StateType { return behavior.StateIdle }

func (*Idle) CanTransitionTo(next behavior.StateType) bool {
	return next == behavior.StateRun || next == behavior.StateTurn
}

func (*Idle) Enter(c *Character) {
	c.currentSpeed = 0
	c.animator.Play(standAnimation(c.direction))
}

func (*Idle) Exit(*Character)            {}
func (*Idle) Update(float32, *Character) {}
func (*Idle) CanExit() bool              { return true }

// Run moves at base speed in the facing direction until told otherwise.
type Run struct{}

func (*Run) Type() behavior.StateType { return behavior.StateRun }

func (*Run) CanTransitionTo(next behavior.StateType) bool { return next == behavior.StateIdle }

func (*Run) Enter(c *Character) {
	c.currentSpeed = c.speed
	c.animator.Play(runAnimation(c.direction))
}

func (*Run) Exit(*Character)            {}
func (*Run) Update(float32, *Character) {}
func (*Run) CanExit() bool              { return true }

// Turn rotates in place to Target. It is locked until the turn animation
// finishes, then asks for Idle.
type Turn struct {
	Target geom.Direction
	done   bool
}

func (*Turn) Type() behavior.StateType { return behavior.StateTurn }

func (*Turn) CanTransitionTo(next behavior.StateType) bool {
	switch next {
	case behavior.StateIdle, behavior.StateRun, behavior.StateTurn:
		return true
	}
	return false
}

func (s *Turn) Enter(c *Character) {
	c.currentSpeed = 0
	if s.Target == c.direction {
		s.done = true
		c.Request(behavior.IdleRequest())
		return
	}
	c.animator.Play(turnAnimation(c.direction, s.Target))
	c.direction = s.Target
}

func (*Turn) Exit(*Character) {}

func (s *Turn) Update(_ float32, c *Character) {
	if s.done || c.animator.IsPlaying() {
		return
	}
	s.done = true
	c.Request(behavior.IdleRequest())
}

func (s *Turn) CanExit() bool { return s.done }

// WalkTo runs toward Target and asks for Idle on arrival. Position itself is
// integrated by Character.Process; Update only detects arrival.
type WalkTo struct {
	Target  geom.Vec2
	arrived bool
}

func (*WalkTo) Type() behavior.StateType { return behavior.StateRun }

func (*WalkTo) CanTransitionTo(next behavior.StateType) bool { return next == behavior.StateIdle }

// Enter turns first when the target lies in another direction. The chained
// transitions replace the walk, so the caller must ask again once idle.
func (s *WalkTo) Enter(c *Character) {
	dir := c.Position().DirectionTo(s.Target)
	if dir != c.direction {
		c.logTransitionErr(c.TryTransition(behavior.IdleRequest()))
		c.logTransitionErr(c.TryTransition(behavior.TurnRequest(dir)))
		return
	}
	c.currentSpeed = c.speed
	c.animator.Play(runAnimation(c.direction))
}

func (*WalkTo) Exit(*Character) {}

func (s *WalkTo) Update(delta float32, c *Character) {
	if s.arrived {
		return
	}
	pos := c.Position()
	if !pos.MoveToward(s.Target, c.speed*delta).ApproxEqual(s.Target) {
		return
	}
	s.arrived = true
	c.animator.SetPosition(s.Target)
	c.currentSpeed = 0
	c.Request(behavior.IdleRequest())
}

func (s *WalkTo) CanExit() bool { return s.arrived }
