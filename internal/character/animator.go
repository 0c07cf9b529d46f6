package character

import (
	"fmt"

	"github.com/joeycumines/goblinscript/internal/geom"
)

// Animator is the presentation sink a character drives. It also owns the
// character's authoritative position.
type Animator interface {
	Play(name string)
	IsPlaying() bool
	Advance(delta float32)
	SetPosition(p geom.Vec2)
	Position() geom.Vec2
	GlobalPosition() geom.Vec2
}

func standAnimation(d geom.Direction) string { return "stand_" + d.String() }

func runAnimation(d geom.Direction) string { return "run_" + d.String() }

func turnAnimation(from, to geom.Direction) string {
	return fmt.Sprintf("turn_%s_%s", from, to)
}
