package command

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/joeycumines/goblinscript/internal/config"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/logging"
	"github.com/joeycumines/goblinscript/internal/scene"
	"github.com/joeycumines/goblinscript/internal/terrain"
)

// MapCommand checks, converts and draws map files.
type MapCommand struct {
	*BaseCommand
	config *config.Config
	color  string
}

func NewMapCommand(cfg *config.Config) *MapCommand {
	return &MapCommand{
		BaseCommand: NewBaseCommand(
			"map",
			"Validate, convert or render a map file",
			"map validate <file> | map convert <in> <out> | map render [file]",
		),
		config: cfg,
	}
}

func (c *MapCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.color, "color", "", "Color mode for render (auto, always, never)")
}

func (c *MapCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = fmt.Fprintf(stderr, "Usage: goblin %s\n", c.Usage())
		return fmt.Errorf("missing subcommand")
	}
	switch sub, rest := args[0], args[1:]; {
	case sub == "validate" && len(rest) == 1:
		m, err := terrain.Load(rest[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "%s: ok, %s\n", rest[0], summarize(m))
		return nil

	case sub == "convert" && len(rest) == 2:
		m, err := terrain.Load(rest[0])
		if err != nil {
			return err
		}
		if err := m.Save(rest[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "wrote %s\n", rest[1])
		return nil

	case sub == "render" && len(rest) <= 1:
		path := config.DefaultSchema().Resolve(c.cfg(), "map.file")
		if len(rest) == 1 {
			path = rest[0]
		}
		var (
			m   *terrain.Map
			err error
		)
		if path == "" {
			m, err = terrain.ParseGrid(demoGrid)
		} else {
			m, err = terrain.Load(path)
		}
		if err != nil {
			return err
		}
		mode, err := logging.ParseColorMode(c.color)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stdout, renderMap(m, logging.UseColor(mode, stdout)))
		return nil
	}
	_, _ = fmt.Fprintf(stderr, "Usage: goblin %s\n", c.Usage())
	return fmt.Errorf("invalid map arguments: %v", args)
}

func (c *MapCommand) cfg() *config.Config {
	if c.config == nil {
		return config.NewConfig()
	}
	return c.config
}

func summarize(m *terrain.Map) string {
	var walkable, steps, absent int
	for y := range m.Height() {
		for x := range m.Width() {
			cell := m.Cell(geom.VI(x, y))
			switch {
			case cell == nil:
				absent++
			case cell.Walkable:
				walkable++
			}
			if cell.IsStep() {
				steps++
			}
		}
	}
	return fmt.Sprintf("%dx%d cell_size=%g walkable=%d steps=%d absent=%d",
		m.Width(), m.Height(), m.CellSize(), walkable, steps, absent)
}

var glyphStyles = map[string]lipgloss.Style{
	"#":  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	".":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	"/":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	"\\": lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
}

var heightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

// renderMap frames the map glyphs in a rounded border, colouring them when
// color is set.
func renderMap(m *terrain.Map, color bool) string {
	rows := scene.Glyphs(m)
	lines := make([]string, len(rows))
	for y, row := range rows {
		var b strings.Builder
		for _, g := range row {
			if !color {
				b.WriteString(g)
				continue
			}
			style, ok := glyphStyles[g]
			if !ok && g != " " {
				style, ok = heightStyle, true
			}
			if ok {
				g = style.Render(g)
			}
			b.WriteString(g)
		}
		lines[y] = b.String()
	}
	frame := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	if color {
		frame = frame.BorderForeground(lipgloss.Color("8"))
	}
	return frame.Render(strings.Join(lines, "\n"))
}
