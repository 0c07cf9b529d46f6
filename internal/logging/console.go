package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
)

var levelStyles = map[string]lipgloss.Style{
	"TRACE": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
	"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

var keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// ConsoleOptions configures a ConsoleHandler.
type ConsoleOptions struct {
	Level slog.Leveler
	Color bool
	// TimeFormat defaults to "15:04:05.000"; "-" omits the time.
	TimeFormat string
}

// ConsoleHandler writes one human-readable line per record:
//
//	12:00:00.000 INFO  message key=value group.key=value
type ConsoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	opts   ConsoleOptions
	prefix string
	attrs  string
}

// NewConsoleHandler returns a handler writing to w.
func NewConsoleHandler(w io.Writer, opts *ConsoleOptions) *ConsoleHandler {
	h := &ConsoleHandler{mu: new(sync.Mutex), w: w}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	if h.opts.TimeFormat == "" {
		h.opts.TimeFormat = "15:04:05.000"
	}
	return h
}

func (h *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.opts.Level.Level()
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	if h.opts.TimeFormat != "-" && !r.Time.IsZero() {
		buf.WriteString(r.Time.Format(h.opts.TimeFormat))
		buf.WriteByte(' ')
	}
	name := LevelName(r.Level)
	label := fmt.Sprintf("%-5s", name)
	if h.opts.Color {
		label = levelStyles[name].Render(label)
	}
	buf.WriteString(label)
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	for _, a := range attrs {
		h.appendAttr(&buf, h.prefix, a)
	}
	h2 := *h
	h2.attrs = h.attrs + buf.String()
	return &h2
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func (h *ConsoleHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, p, ga)
		}
		return
	}
	key := prefix + a.Key + "="
	if h.opts.Color {
		key = keyStyle.Render(key)
	}
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteString(formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		s = v.Duration().String()
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
