package geom

import (
	"fmt"
	"strings"
)

// Direction is one of the four cardinal facings.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists every Direction in declaration order.
var Directions = [...]Direction{North, South, East, West}

var directionNames = [...]string{
	North: "north",
	South: "south",
	East:  "east",
	West:  "west",
}

// String returns the lowercase name used to build animation names, e.g. "run_east".
func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Vector is the screen-space unit vector for d. North is (0, -1).
func (d Direction) Vector() Vec2 {
	switch d {
	case North:
		return Vec2{0, -1}
	case South:
		return Vec2{0, 1}
	case East:
		return Vec2{1, 0}
	case West:
		return Vec2{-1, 0}
	}
	return Vec2{}
}

// Offset is the grid step for d.
func (d Direction) Offset() Vec2i {
	switch d {
	case North:
		return Vec2i{0, -1}
	case South:
		return Vec2i{0, 1}
	case East:
		return Vec2i{1, 0}
	case West:
		return Vec2i{-1, 0}
	}
	return Vec2i{}
}

// Horizontal reports whether d is East or West.
func (d Direction) Horizontal() bool { return d == East || d == West }

// ParseDirection accepts the display names plus the n/s/e/w and
// up/down/right/left aliases, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, nil
	case "south", "s", "down":
		return South, nil
	case "east", "e", "right":
		return East, nil
	case "west", "w", "left":
		return West, nil
	}
	return 0, fmt.Errorf("geom: unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if int(d) >= len(directionNames) {
		return nil, fmt.Errorf("geom: invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
