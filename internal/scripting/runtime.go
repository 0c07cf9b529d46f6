package scripting

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/goblinscript/internal/goroutineid"
)

// ErrRuntimeStopped is returned for work submitted to a closed Runtime.
var ErrRuntimeStopped = errors.New("scripting: runtime stopped")

// Runtime owns a goja event loop. goja.Runtime is not goroutine-safe, so
// every access to it goes through RunOnLoop or RunOnLoopSync.
type Runtime struct {
	loop     *eventloop.EventLoop
	registry *require.Registry

	// loopID is the event loop goroutine, captured once at start.
	loopID atomic.Int64

	mu      sync.RWMutex
	stopped bool

	done   chan struct{}
	closer sync.Once
}

// NewRuntime starts an event loop using registry, or a fresh registry when
// nil. Modules must be registered before the first require of them. The
// runtime closes itself when ctx ends.
func NewRuntime(ctx context.Context, registry *require.Registry) (*Runtime, error) {
	if registry == nil {
		registry = require.NewRegistry()
	}
	rt := &Runtime{
		loop:     eventloop.NewEventLoop(eventloop.WithRegistry(registry), eventloop.EnableConsole(false)),
		registry: registry,
		done:     make(chan struct{}),
	}
	rt.loop.Start()

	started := make(chan struct{})
	if !rt.loop.RunOnLoop(func(*goja.Runtime) {
		rt.loopID.Store(goroutineid.Get())
		close(started)
	}) {
		rt.loop.Stop()
		return nil, errors.New("scripting: event loop failed to start")
	}
	<-started

	context.AfterFunc(ctx, func() { _ = rt.Close() })
	return rt, nil
}

func (rt *Runtime) Registry() *require.Registry { return rt.registry }

// Done is closed once the runtime stops.
func (rt *Runtime) Done() <-chan struct{} { return rt.done }

func (rt *Runtime) IsRunning() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return !rt.stopped
}

// Close stops the loop after the job in progress. Safe to call repeatedly.
func (rt *Runtime) Close() error {
	rt.closer.Do(func() {
		rt.mu.Lock()
		rt.stopped = true
		rt.mu.Unlock()
		close(rt.done)
		rt.loop.Stop()
	})
	return nil
}

// RunOnLoop queues fn and reports whether it was accepted.
func (rt *Runtime) RunOnLoop(fn func(*goja.Runtime)) bool {
	if !rt.IsRunning() {
		return false
	}
	return rt.loop.RunOnLoop(fn)
}

// RunOnLoopSync runs fn on the loop and waits for its result, the runtime to
// stop, or ctx to end. When ctx ends first fn may still be running; callers
// that can block should interrupt the goja.Runtime themselves.
func (rt *Runtime) RunOnLoopSync(ctx context.Context, fn func(*goja.Runtime) error) error {
	errCh := make(chan error, 1)
	if !rt.RunOnLoop(func(vm *goja.Runtime) { errCh <- fn(vm) }) {
		return ErrRuntimeStopped
	}
	select {
	case err := <-errCh:
		return err
	case <-rt.done:
		return ErrRuntimeStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryRunOnLoopSync runs fn directly when already on the loop goroutine,
// where queueing would deadlock, and like RunOnLoopSync otherwise.
func (rt *Runtime) TryRunOnLoopSync(ctx context.Context, current *goja.Runtime, fn func(*goja.Runtime) error) error {
	if !rt.IsRunning() {
		return ErrRuntimeStopped
	}
	if id := rt.loopID.Load(); current != nil && id != 0 && id == goroutineid.Get() {
		return fn(current)
	}
	return rt.RunOnLoopSync(ctx, fn)
}
