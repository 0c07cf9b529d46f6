package scene

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/joeycumines/goblinscript/internal/character"
	"github.com/joeycumines/goblinscript/internal/geom"
)

// Animation describes a frame-stepped clip.
type Animation struct {
	Frames int
	Loop   bool
}

// DefaultAnimation resolves clips by prefix: stand_* is one looping frame,
// turn_* three frames played once and run_* four looping frames.
func DefaultAnimation(name string) (Animation, bool) {
	switch {
	case strings.HasPrefix(name, "stand_"):
		return Animation{Frames: 1, Loop: true}, true
	case strings.HasPrefix(name, "turn_"):
		return Animation{Frames: 3}, true
	case strings.HasPrefix(name, "run_"):
		return Animation{Frames: 4, Loop: true}, true
	}
	return Animation{}, false
}

// FrameAnimator is a headless character.Animator that advances one frame
// per Advance call regardless of delta.
type FrameAnimator struct {
	mu      sync.Mutex
	origin  geom.Vec2
	pos     geom.Vec2
	name    string
	clip    Animation
	frame   int
	playing bool
	lookup  func(string) (Animation, bool)
	logger  *slog.Logger
}

var _ character.Animator = (*FrameAnimator)(nil)

// NewFrameAnimator uses DefaultAnimation when lookup is nil. A nil logger
// disables play logging.
func NewFrameAnimator(lookup func(string) (Animation, bool), logger *slog.Logger) *FrameAnimator {
	if lookup == nil {
		lookup = DefaultAnimation
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FrameAnimator{lookup: lookup, logger: logger}
}

// Play starts name from its first frame. Unknown names stop playback.
func (a *FrameAnimator) Play(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	clip, ok := a.lookup(name)
	a.name, a.clip, a.frame, a.playing = name, clip, 0, ok && clip.Frames > 0
	if !ok {
		a.logger.Debug("unknown animation", "animation", name)
		return
	}
	a.logger.Debug("play animation", "animation", name)
}

func (a *FrameAnimator) IsPlaying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

func (a *FrameAnimator) Advance(float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.playing {
		return
	}
	a.frame++
	if a.frame < a.clip.Frames {
		return
	}
	if a.clip.Loop {
		a.frame = 0
		return
	}
	a.frame = a.clip.Frames - 1
	a.playing = false
}

// Current returns the clip name and frame index.
func (a *FrameAnimator) Current() (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name, a.frame
}

func (a *FrameAnimator) SetPosition(p geom.Vec2) {
	a.mu.Lock()
	a.pos = p
	a.mu.Unlock()
}

func (a *FrameAnimator) Position() geom.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

// SetOrigin offsets GlobalPosition, as a parent transform would.
func (a *FrameAnimator) SetOrigin(o geom.Vec2) {
	a.mu.Lock()
	a.origin = o
	a.mu.Unlock()
}

func (a *FrameAnimator) GlobalPosition() geom.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.origin.Add(a.pos)
}
