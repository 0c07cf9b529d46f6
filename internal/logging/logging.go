// Package logging builds the process logger: a human-readable console
// handler, optionally coloured, plus an optional JSON log file with
// size-based rotation.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorMode selects console colouring.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always and never; empty means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("logging: invalid color mode: %q", s)
}

// Options configures Setup.
type Options struct {
	Level slog.Level
	// Console receives human-readable output; nil disables it.
	Console io.Writer
	Color   ColorMode
	// File, when set, also receives JSON records at Level.
	File      string
	MaxSizeMB int
	MaxFiles  int
}

// Setup builds a logger from opts. The returned closer releases the log file
// and is never nil.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	var handlers []slog.Handler
	if opts.Console != nil {
		handlers = append(handlers, NewConsoleHandler(opts.Console, &ConsoleOptions{
			Level: opts.Level,
			Color: UseColor(opts.Color, opts.Console),
		}))
	}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		w, err := NewRotatingFileWriter(opts.File, opts.MaxSizeMB, opts.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		closer = w
		handlers = append(handlers, slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: replaceLevel,
		}))
	}
	switch len(handlers) {
	case 0:
		return slog.New(slog.DiscardHandler), closer, nil
	case 1:
		return slog.New(handlers[0]), closer, nil
	}
	return slog.New(fanout(handlers)), closer, nil
}

// UseColor reports whether output to w should be styled under mode. Auto
// styles terminals unless NO_COLOR is set.
func UseColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
