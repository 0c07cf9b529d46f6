// Package terrain models the logic map: a row-major grid of optional cells
// carrying walkability, height and staircase attributes, plus the rules that
// decide whether a move between two adjacent cells is legal.
//
// A Map is built once (SetCell is construction-time only) and then shared
// read-only by every character for the rest of the session.
package terrain

import (
	"errors"
	"fmt"
	"math"

	"github.com/joeycumines/goblinscript/internal/geom"
)

// StepType marks a cell as part of a staircase.
type StepType uint8

const (
	StepNone StepType = iota
	// StepLeft stairs rise toward the east: moving east on them also moves north.
	StepLeft
	// StepRight stairs rise toward the west: moving east on them also moves south.
	StepRight
)

var stepNames = [...]string{
	StepNone:  "none",
	StepLeft:  "left",
	StepRight: "right",
}

func (s StepType) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", uint8(s))
}

func (s StepType) MarshalText() ([]byte, error) {
	if int(s) >= len(stepNames) {
		return nil, fmt.Errorf("terrain: invalid step type %d", uint8(s))
	}
	return []byte(stepNames[s]), nil
}

func (s *StepType) UnmarshalText(b []byte) error {
	for i, name := range stepNames {
		if name == string(b) {
			*s = StepType(i)
			return nil
		}
	}
	if len(b) == 0 {
		*s = StepNone
		return nil
	}
	return fmt.Errorf("terrain: unknown step type %q", b)
}

// Cell is one grid square of the logic map.
type Cell struct {
	Walkable bool     `json:"walkable" yaml:"walkable" toml:"walkable"`
	Height   int      `json:"height" yaml:"height" toml:"height"`
	Step     StepType `json:"step" yaml:"step" toml:"step"`
}

// IsStep reports whether the cell belongs to a staircase.
func (c *Cell) IsStep() bool { return c != nil && c.Step != StepNone }

var (
	// ErrInvalidSize is returned for non-positive dimensions or cell size.
	ErrInvalidSize = errors.New("terrain: invalid map size")
	// ErrCellCount is returned when the cell array does not match width*height.
	ErrCellCount = errors.New("terrain: cell count mismatch")
)

// MaxCells bounds width*height of any map.
const MaxCells = 1 << 22

// checkSize validates map dimensions without overflowing width*height.
func checkSize(width, height int, cellSize float32) error {
	if width <= 0 || height <= 0 || !(cellSize > 0) || math.IsInf(float64(cellSize), 0) {
		return fmt.Errorf("%w: %dx%d cell size %g", ErrInvalidSize, width, height, cellSize)
	}
	if width > MaxCells/height {
		return fmt.Errorf("%w: %dx%d exceeds %d cells", ErrInvalidSize, width, height, MaxCells)
	}
	return nil
}

// Map is the logic map. The zero value is not usable; see New.
type Map struct {
	width    int
	height   int
	cellSize float32
	cells    []*Cell
}

// New returns a width x height map with every cell absent.
func New(width, height int, cellSize float32) (*Map, error) {
	if err := checkSize(width, height, cellSize); err != nil {
		return nil, err
	}
	return &Map{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cells:    make([]*Cell, width*height),
	}, nil
}

func (m *Map) Width() int { return m.width }

func (m *Map) Height() int { return m.height }

func (m *Map) CellSize() float32 { return m.cellSize }

// InBounds reports whether p addresses a slot of the grid.
func (m *Map) InBounds(p geom.Vec2i) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.width && p.Y < m.height
}

// SetCell installs (or, with nil, removes) the cell at p. Out of bounds
// coordinates are ignored. Must not be called once the map is shared.
func (m *Map) SetCell(p geom.Vec2i, c *Cell) {
	if !m.InBounds(p) {
		return
	}
	if c != nil {
		v := *c
		c = &v
	}
	m.cells[p.Y*m.width+p.X] = c
}

// Cell returns the cell at p, or nil if p is out of bounds or absent. The
// returned value must be treated as read-only.
func (m *Map) Cell(p geom.Vec2i) *Cell {
	if !m.InBounds(p) {
		return nil
	}
	return m.cells[p.Y*m.width+p.X]
}

// IsWalkable is false for out of bounds, absent and non-walkable cells.
func (m *Map) IsWalkable(p geom.Vec2i) bool {
	c := m.Cell(p)
	return c != nil && c.Walkable
}

// LevelOf returns the height of the cell at p; absent cells are at level 0.
func (m *Map) LevelOf(p geom.Vec2i) int {
	if c := m.Cell(p); c != nil {
		return c.Height
	}
	return 0
}

// CmpLevels returns height(a) - height(b).
func (m *Map) CmpLevels(a, b geom.Vec2i) int {
	return m.LevelOf(a) - m.LevelOf(b)
}

// IsStep reports whether the cell at p is a Left or Right step.
func (m *Map) IsStep(p geom.Vec2i) bool { return m.Cell(p).IsStep() }

// StepAt returns the step type of the cell at p (StepNone if absent).
func (m *Map) StepAt(p geom.Vec2i) StepType {
	if c := m.Cell(p); c != nil {
		return c.Step
	}
	return StepNone
}

// IsWalkableFrom decides whether a character may move from one cell to
// another. The destination must be walkable; moves between two step cells
// ignore height, every other move requires equal height.
func (m *Map) IsWalkableFrom(from, to geom.Vec2i) bool {
	if !m.IsWalkable(to) {
		return false
	}
	if m.IsStep(from) && m.IsStep(to) {
		return true
	}
	return m.CmpLevels(from, to) == 0
}

// CellOf converts a world position to the grid coordinate containing it.
func (m *Map) CellOf(pos geom.Vec2) geom.Vec2i {
	return CellOf(pos, m.cellSize)
}

// CellCenter converts a grid coordinate to the world position of its center.
func (m *Map) CellCenter(p geom.Vec2i) geom.Vec2 {
	return CellCenter(p, m.cellSize)
}

// CellOf is floor(pos / cellSize) on both axes.
func CellOf(pos geom.Vec2, cellSize float32) geom.Vec2i {
	return geom.Vec2i{
		X: int(math.Floor(float64(pos.X / cellSize))),
		Y: int(math.Floor(float64(pos.Y / cellSize))),
	}
}

// CellCenter is p * cellSize + cellSize/2 on both axes.
func CellCenter(p geom.Vec2i, cellSize float32) geom.Vec2 {
	half := cellSize / 2
	return geom.Vec2{
		X: float32(p.X)*cellSize + half,
		Y: float32(p.Y)*cellSize + half,
	}
}

// Equal reports whether two maps have identical dimensions and cells.
func (m *Map) Equal(o *Map) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.width != o.width || m.height != o.height || m.cellSize != o.cellSize {
		return false
	}
	for i := range m.cells {
		a, b := m.cells[i], o.cells[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}
