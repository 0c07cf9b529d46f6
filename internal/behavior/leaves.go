package behavior

import (
	"github.com/joeycumines/goblinscript/internal/geom"
)

const (
	// DefaultArrivalThreshold is the IsAtTarget distance used by NewIsAtTarget.
	DefaultArrivalThreshold float32 = 16
	// SnapDistance is how close MoveToTarget must be before it snaps and idles.
	SnapDistance float32 = 6
	// walkTolerance is how close WalkToTarget must be to report Success.
	walkTolerance float32 = 1
)

// leaf supplies the no-op Reset for leaves that keep no blackboard state.
type leaf struct{ nodeID }

func (leaf) Reset(*Blackboard) {}

// NextWaypoint advances a per-character index over a patrol route and writes
// the next waypoint, converted to the world-space center of its cell, to Key.
// The first tick selects the second waypoint.
type NextWaypoint struct {
	nodeID
	Route    []geom.Vec2i
	Key      string
	CellSize float32
}

func NewNextWaypoint(route []geom.Vec2i, key string, cellSize float32) *NextWaypoint {
	return &NextWaypoint{Route: route, Key: key, CellSize: cellSize}
}

func (n *NextWaypoint) Reset(bb *Blackboard) { bb.Delete(n.key("nxw")) }

func (n *NextWaypoint) Tick(snap Snapshot, _ float32) (Status, []Intent) {
	if len(n.Route) == 0 {
		return Failure, nil
	}
	bb := snap.Blackboard
	key := n.key("nxw")
	idx, _ := bb.GetInt(key)
	idx = (idx + 1) % len(n.Route)
	if idx < 0 {
		idx = 0
	}
	half := n.CellSize / 2
	p := n.Route[idx]
	bb.Set(n.Key, Vector(geom.V(float32(p.X)*n.CellSize+half, float32(p.Y)*n.CellSize+half)))
	bb.Set(key, Int(idx))
	return Success, nil
}

// IsAtTarget succeeds while the character is within Threshold of the vector
// stored under Key. A missing or mismatched target fails.
type IsAtTarget struct {
	leaf
	Key       string
	Threshold float32
}

func NewIsAtTarget(key string) *IsAtTarget {
	return &IsAtTarget{Key: key, Threshold: DefaultArrivalThreshold}
}

func (n *IsAtTarget) Tick(snap Snapshot, _ float32) (Status, []Intent) {
	target, ok := snap.Blackboard.GetVector(n.Key)
	if !ok {
		return Failure, nil
	}
	if snap.Position.DistanceTo(target) <= n.Threshold {
		return Success, nil
	}
	return Failure, nil
}

// MoveToTarget steers toward the vector stored under Key one cardinal
// direction at a time: a Turn request when facing the wrong way, otherwise a
// Run request. Within SnapDistance it snaps to the cell and idles.
type MoveToTarget struct {
	leaf
	Key string
}

func NewMoveToTarget(key string) *MoveToTarget { return &MoveToTarget{Key: key} }

func (n *MoveToTarget) Tick(snap Snapshot, _ float32) (Status, []Intent) {
	target, ok := snap.Blackboard.GetVector(n.Key)
	if !ok {
		return Failure, nil
	}
	if snap.Position.DistanceTo(target) < SnapDistance {
		return Success, []Intent{SnapToCell(), ChangeState(IdleRequest())}
	}
	dir := snap.Position.DirectionTo(target)
	if dir != snap.Direction {
		return Running, []Intent{ChangeState(TurnRequest(dir))}
	}
	return Running, []Intent{ChangeState(RunRequest())}
}

// Wait runs until more than Delay seconds of tick delta have accumulated,
// then succeeds and rearms.
type Wait struct {
	nodeID
	Delay float32
}

func NewWait(delay float32) *Wait { return &Wait{Delay: delay} }

func (n *Wait) Reset(bb *Blackboard) { bb.Delete(n.key("timer")) }

func (n *Wait) Tick(snap Snapshot, delta float32) (Status, []Intent) {
	bb := snap.Blackboard
	key := n.key("timer")
	elapsed, _ := bb.GetFloat(key)
	elapsed += delta
	if elapsed > n.Delay {
		bb.Set(key, Float(0))
		return Success, nil
	}
	bb.Set(key, Float(elapsed))
	return Running, nil
}

// FindTarget writes a fixed point to Key and succeeds.
type FindTarget struct {
	leaf
	Key   string
	Point geom.Vec2
}

func NewFindTarget(key string, point geom.Vec2) *FindTarget {
	return &FindTarget{Key: key, Point: point}
}

func (n *FindTarget) Tick(snap Snapshot, _ float32) (Status, []Intent) {
	snap.Blackboard.Set(n.Key, Vector(n.Point))
	return Success, nil
}

// WalkToTarget hands the whole approach to the character's WalkTo state: an
// idle character away from the target gets a WalkTo request, an idle
// character on the target succeeds, a busy one keeps the node Running.
type WalkToTarget struct {
	leaf
	Key string
}

func NewWalkToTarget(key string) *WalkToTarget { return &WalkToTarget{Key: key} }

func (n *WalkToTarget) Tick(snap Snapshot, _ float32) (Status, []Intent) {
	target, ok := snap.Blackboard.GetVector(n.Key)
	if !ok {
		return Failure, nil
	}
	if !snap.Idle {
		return Running, nil
	}
	if snap.Position.DistanceTo(target) > walkTolerance {
		return Running, []Intent{ChangeState(WalkToRequest(target))}
	}
	return Success, nil
}

// Action emits a fixed list of intents and succeeds.
type Action struct {
	leaf
	Intents []Intent
}

func NewAction(intents ...Intent) *Action { return &Action{Intents: intents} }

func (n *Action) Tick(Snapshot, float32) (Status, []Intent) {
	return Success, append([]Intent(nil), n.Intents...)
}

// LeafFunc adapts a function into a stateless leaf.
type LeafFunc struct {
	leaf
	Fn func(snap Snapshot, delta float32) (Status, []Intent)
}

func NewLeafFunc(fn func(snap Snapshot, delta float32) (Status, []Intent)) *LeafFunc {
	return &LeafFunc{Fn: fn}
}

func (n *LeafFunc) Tick(snap Snapshot, delta float32) (Status, []Intent) {
	return n.Fn(snap, delta)
}
