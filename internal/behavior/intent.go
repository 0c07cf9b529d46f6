package behavior

import (
	"fmt"

	"github.com/joeycumines/goblinscript/internal/geom"
)

// StateType is the coarse category of a character state, used for
// transition legality checks.
type StateType uint8

const (
	StateIdle StateType = iota
	StateRun
	StateTurn
)

func (t StateType) String() string {
	switch t {
	case StateIdle:
		return "idle"
	case StateRun:
		return "run"
	case StateTurn:
		return "turn"
	}
	return fmt.Sprintf("state(%d)", uint8(t))
}

// RequestKind enumerates the state requests a character accepts.
type RequestKind uint8

const (
	RequestIdle RequestKind = iota
	RequestRun
	RequestTurn
	RequestWalkTo
)

// StateRequest asks a character to enter a new state. Direction is used by
// Turn, Target by WalkTo.
type StateRequest struct {
	Kind      RequestKind
	Direction geom.Direction
	Target    geom.Vec2
}

func IdleRequest() StateRequest { return StateRequest{Kind: RequestIdle} }

func RunRequest() StateRequest { return StateRequest{Kind: RequestRun} }

func TurnRequest(d geom.Direction) StateRequest {
	return StateRequest{Kind: RequestTurn, Direction: d}
}

func WalkToRequest(p geom.Vec2) StateRequest {
	return StateRequest{Kind: RequestWalkTo, Target: p}
}

// Type maps the request onto the state category it produces. WalkTo is a Run.
func (r StateRequest) Type() StateType {
	switch r.Kind {
	case RequestRun, RequestWalkTo:
		return StateRun
	case RequestTurn:
		return StateTurn
	}
	return StateIdle
}

func (r StateRequest) String() string {
	switch r.Kind {
	case RequestIdle:
		return "Idle"
	case RequestRun:
		return "Run"
	case RequestTurn:
		return "Turn(" + r.Direction.String() + ")"
	case RequestWalkTo:
		return "WalkTo" + r.Target.String()
	}
	return fmt.Sprintf("request(%d)", uint8(r.Kind))
}

// IntentKind enumerates tree outputs.
type IntentKind uint8

const (
	IntentMoveToward IntentKind = iota + 1
	IntentSetDirection
	IntentPlayAnimation
	IntentChangeState
	IntentSnapToCell
	IntentCustom
)

// Intent is one command produced by a tree tick and applied later by the
// character that owns the snapshot.
type Intent struct {
	Kind      IntentKind
	Point     geom.Vec2
	Direction geom.Direction
	// Name is the animation name for PlayAnimation and the tag for Custom.
	Name    string
	Request StateRequest
}

func MoveToward(p geom.Vec2) Intent { return Intent{Kind: IntentMoveToward, Point: p} }

func SetDirection(d geom.Direction) Intent {
	return Intent{Kind: IntentSetDirection, Direction: d}
}

func PlayAnimation(name string) Intent { return Intent{Kind: IntentPlayAnimation, Name: name} }

func ChangeState(r StateRequest) Intent { return Intent{Kind: IntentChangeState, Request: r} }

func SnapToCell() Intent { return Intent{Kind: IntentSnapToCell} }

func Custom(tag string) Intent { return Intent{Kind: IntentCustom, Name: tag} }

func (i Intent) String() string {
	switch i.Kind {
	case IntentMoveToward:
		return "MoveToward" + i.Point.String()
	case IntentSetDirection:
		return "SetDirection(" + i.Direction.String() + ")"
	case IntentPlayAnimation:
		return "PlayAnimation(" + i.Name + ")"
	case IntentChangeState:
		return "ChangeState(" + i.Request.String() + ")"
	case IntentSnapToCell:
		return "SnapToCell"
	case IntentCustom:
		return "Custom(" + i.Name + ")"
	}
	return fmt.Sprintf("intent(%d)", uint8(i.Kind))
}
