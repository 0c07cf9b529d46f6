package terrain

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/joeycumines/goblinscript/internal/geom"
)

// DefaultCellSize is used by ParseGrid when the text has no cell_size header.
const DefaultCellSize float32 = 64

// ParseGrid builds a map from the grid authoring text:
//
//	cell_size 64
//	# # #
//	. 1 L1
//	. _ #2
//
// Each row is a line of whitespace separated tokens. "." is walkable ground at
// height 0, "_" is an absent cell, otherwise a token is an optional "#"
// (not walkable), an optional "L" or "R" step marker and an optional height.
// The first line may set the cell size; lines starting with "//" are ignored.
func ParseGrid(text string) (*Map, error) {
	cellSize := DefaultCellSize
	var rows [][]string

	sc := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "cell_size"); ok && len(rows) == 0 {
			v, err := strconv.ParseFloat(strings.TrimSpace(rest), 32)
			if err != nil {
				return nil, fmt.Errorf("terrain: grid line %d: invalid cell_size: %w", lineNo, err)
			}
			cellSize = float32(v)
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("terrain: read grid: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidSize)
	}

	width := len(rows[0])
	m, err := New(width, len(rows), cellSize)
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: grid row %d has %d cells, want %d", ErrCellCount, y, len(row), width)
		}
		for x, tok := range row {
			c, err := parseToken(tok)
			if err != nil {
				return nil, fmt.Errorf("terrain: grid cell (%d, %d): %w", x, y, err)
			}
			m.SetCell(geom.VI(x, y), c)
		}
	}
	return m, nil
}

func parseToken(tok string) (*Cell, error) {
	switch tok {
	case "_":
		return nil, nil
	case ".":
		return &Cell{Walkable: true}, nil
	}
	c := &Cell{Walkable: true}
	rest := tok
	if r, ok := strings.CutPrefix(rest, "#"); ok {
		c.Walkable = false
		rest = r
	}
	if rest != "" {
		switch rest[0] {
		case 'L':
			c.Step = StepLeft
			rest = rest[1:]
		case 'R':
			c.Step = StepRight
			rest = rest[1:]
		}
	}
	if rest != "" {
		h, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid token %q", tok)
		}
		c.Height = h
	}
	return c, nil
}

func formatToken(c *Cell) string {
	if c == nil {
		return "_"
	}
	if c.Walkable && c.Step == StepNone && c.Height == 0 {
		return "."
	}
	var b strings.Builder
	if !c.Walkable {
		b.WriteByte('#')
	}
	switch c.Step {
	case StepLeft:
		b.WriteByte('L')
	case StepRight:
		b.WriteByte('R')
	}
	if c.Height != 0 {
		b.WriteString(strconv.Itoa(c.Height))
	}
	return b.String()
}

// GridText renders m in the ParseGrid format. ParseGrid(m.GridText()) is
// equal to m.
func (m *Map) GridText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cell_size %s\n", strconv.FormatFloat(float64(m.cellSize), 'g', -1, 32))
	for y := range m.height {
		for x := range m.width {
			if x > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatToken(m.Cell(geom.VI(x, y))))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Rows returns the grid tokens row by row, for renderers.
func (m *Map) Rows() [][]string {
	out := make([][]string, m.height)
	for y := range m.height {
		out[y] = make([]string, m.width)
		for x := range m.width {
			out[y][x] = formatToken(m.Cell(geom.VI(x, y)))
		}
	}
	return out
}
