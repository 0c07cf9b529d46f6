// Package geom holds the small vector and direction types shared by the
// terrain, behavior and character packages. Positions are in screen space:
// X grows to the east, Y grows to the south.
package geom

import (
	"fmt"
	"math"
)

// Epsilon is the per-axis tolerance used by ApproxEqual and Normalized.
const Epsilon = 1e-5

// Vec2 is a world-space position or displacement.
type Vec2 struct {
	X float32 `json:"x" yaml:"x" toml:"x"`
	Y float32 `json:"y" yaml:"y" toml:"y"`
}

// V is shorthand for Vec2{x, y}.
func V(x, y float32) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) LengthSquared() float32 { return v.X*v.X + v.Y*v.Y }

func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSquared())))
}

// Normalized returns the unit vector pointing the same way as v, or the zero
// vector if v is (nearly) zero.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l <= Epsilon {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

func (v Vec2) DistanceTo(o Vec2) float32 { return o.Sub(v).Length() }

// MoveToward returns v moved by at most delta toward to, never past it.
func (v Vec2) MoveToward(to Vec2, delta float32) Vec2 {
	d := to.Sub(v)
	l := d.Length()
	if l <= delta || l <= Epsilon {
		return to
	}
	return v.Add(d.Scale(delta / l))
}

// ApproxEqual compares both axes within Epsilon, scaled for large values.
func (v Vec2) ApproxEqual(o Vec2) bool {
	return approx(v.X, o.X) && approx(v.Y, o.Y)
}

// DirectionTo picks the cardinal direction along the dominant axis of
// (to - v). Equal magnitudes resolve to the horizontal axis.
func (v Vec2) DirectionTo(to Vec2) Direction {
	d := to.Sub(v)
	if abs(d.X) >= abs(d.Y) {
		if d.X > 0 {
			return East
		}
		if d.X < 0 {
			return West
		}
	}
	if d.Y > 0 {
		return South
	}
	return North
}

func (v Vec2) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }

// Vec2i is a grid coordinate.
type Vec2i struct {
	X int `json:"x" yaml:"x" toml:"x"`
	Y int `json:"y" yaml:"y" toml:"y"`
}

// VI is shorthand for Vec2i{x, y}.
func VI(x, y int) Vec2i { return Vec2i{X: x, Y: y} }

func (v Vec2i) Add(o Vec2i) Vec2i { return Vec2i{v.X + o.X, v.Y + o.Y} }

func (v Vec2i) Sub(o Vec2i) Vec2i { return Vec2i{v.X - o.X, v.Y - o.Y} }

func (v Vec2i) Scale(s int) Vec2i { return Vec2i{v.X * s, v.Y * s} }

func (v Vec2i) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y)))
}

func (v Vec2i) DistanceTo(o Vec2i) float32 { return o.Sub(v).Length() }

// Float converts a grid coordinate to a float vector without any cell scaling.
func (v Vec2i) Float() Vec2 { return Vec2{float32(v.X), float32(v.Y)} }

func (v Vec2i) String() string { return fmt.Sprintf("(%d, %d)", v.X, v.Y) }

func approx(a, b float32) bool {
	tol := float32(Epsilon)
	if m := max(abs(a), abs(b)); m > 1 {
		tol *= m
	}
	return abs(a-b) <= tol
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
