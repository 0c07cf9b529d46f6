package behavior

import "github.com/joeycumines/goblinscript/internal/geom"

// Snapshot is the immutable per-tick view of a character handed to a tree.
// Only Blackboard is shared; everything else is copied.
type Snapshot struct {
	ID         uint64
	Position   geom.Vec2
	Direction  geom.Direction
	Velocity   geom.Vec2
	Idle       bool
	Speed      float32
	Blackboard *Blackboard
}
