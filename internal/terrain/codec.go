package terrain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joeycumines/goblinscript/internal/storage"
	"gopkg.in/yaml.v3"
)

// Format selects the on-disk encoding of a map.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	// FormatGrid is the whitespace separated token grid produced by FormatGridText.
	FormatGrid Format = "grid"
)

// ErrUnknownFormat is returned when a format or file extension is not recognised.
var ErrUnknownFormat = errors.New("terrain: unknown map format")

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	case ".grid", ".txt":
		return FormatGrid, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// document is the persisted shape shared by the structured formats. TOML has
// no null, so absent cells are explicit records rather than nil entries.
type document struct {
	Width    int          `json:"width" yaml:"width" toml:"width"`
	Height   int          `json:"height" yaml:"height" toml:"height"`
	CellSize float32      `json:"cell_size" yaml:"cell_size" toml:"cell_size"`
	Cells    []cellRecord `json:"cells" yaml:"cells" toml:"cells"`
}

type cellRecord struct {
	Absent   bool     `json:"absent,omitempty" yaml:"absent,omitempty" toml:"absent,omitempty"`
	Walkable bool     `json:"walkable" yaml:"walkable" toml:"walkable"`
	Height   int      `json:"height" yaml:"height" toml:"height"`
	Step     StepType `json:"step" yaml:"step" toml:"step"`
}

func (m *Map) document() document {
	doc := document{
		Width:    m.width,
		Height:   m.height,
		CellSize: m.cellSize,
		Cells:    make([]cellRecord, len(m.cells)),
	}
	for i, c := range m.cells {
		if c == nil {
			doc.Cells[i] = cellRecord{Absent: true}
			continue
		}
		doc.Cells[i] = cellRecord{Walkable: c.Walkable, Height: c.Height, Step: c.Step}
	}
	return doc
}

func fromDocument(doc document) (*Map, error) {
	if err := checkSize(doc.Width, doc.Height, doc.CellSize); err != nil {
		return nil, err
	}
	if len(doc.Cells) != doc.Width*doc.Height {
		return nil, fmt.Errorf("%w: got %d cells for %dx%d", ErrCellCount, len(doc.Cells), doc.Width, doc.Height)
	}
	m, err := New(doc.Width, doc.Height, doc.CellSize)
	if err != nil {
		return nil, err
	}
	for i, rec := range doc.Cells {
		if rec.Absent {
			continue
		}
		if rec.Step > StepRight {
			return nil, fmt.Errorf("terrain: cell %d: invalid step type %d", i, rec.Step)
		}
		m.cells[i] = &Cell{Walkable: rec.Walkable, Height: rec.Height, Step: rec.Step}
	}
	return m, nil
}

// Encode writes m to w in the given format.
func (m *Map) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m.document()); err != nil {
			return fmt.Errorf("terrain: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(m.document()); err != nil {
			return fmt.Errorf("terrain: encode toml: %w", err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m.document()); err != nil {
			return fmt.Errorf("terrain: encode json: %w", err)
		}
		return nil
	case FormatGrid:
		_, err := io.WriteString(w, m.GridText())
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Decode reads a map from r. No map is returned unless it fully validates.
func Decode(r io.Reader, format Format) (*Map, error) {
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("terrain: decode yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("terrain: decode toml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("terrain: decode json: %w", err)
		}
	case FormatGrid:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("terrain: read grid: %w", err)
		}
		return ParseGrid(string(b))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return fromDocument(doc)
}

// Load reads the map file at path, picking the format from its extension.
func Load(path string) (*Map, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: read %s: %w", path, err)
	}
	m, err := Decode(bytes.NewReader(b), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes m to path, picking the format from its extension. The file is
// written to a temporary sibling first and renamed into place.
func (m *Map) Save(path string) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := m.Encode(&buf, format); err != nil {
		return err
	}
	if err := storage.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("terrain: save %s: %w", path, err)
	}
	return nil
}
