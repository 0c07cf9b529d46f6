// Package scripting runs player scripts on an embedded JavaScript engine
// and turns their step_* and wait calls into executor commands, each tagged
// with the source line that issued it.
//
// Scripts see the globals step_up, step_down, step_left, step_right and
// wait(seconds), and the same functions through require("goblin"). An
// optional global update function is called by VM.Tick.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/joeycumines/goblinscript/internal/executor"
)

const (
	// DefaultBudget bounds a single Run or Tick.
	DefaultBudget = 2 * time.Second
	// ModuleName is the require() name of the command module.
	ModuleName = "goblin"
)

var bindings = map[string]executor.PlayerCommand{
	"step_up":    executor.MoveNorth,
	"step_down":  executor.MoveSouth,
	"step_left":  executor.MoveWest,
	"step_right": executor.MoveEast,
}

// event is either a line marker (cmd zero) or a command.
type event struct {
	line int
	cmd  executor.Command
}

// Option configures a VM.
type Option func(*VM)

// WithBudget bounds each Run and Tick; zero or less disables the bound.
func WithBudget(d time.Duration) Option { return func(v *VM) { v.budget = d } }

// WithLogger receives console output and diagnostics.
func WithLogger(l *slog.Logger) Option { return func(v *VM) { v.logger = l } }

// WithName sets the file name used in engine error messages.
func WithName(name string) Option { return func(v *VM) { v.name = name } }

// VM is one script and the engine it runs on.
type VM struct {
	rt     *Runtime
	source string
	prog   instrumented
	name   string
	budget time.Duration
	logger *slog.Logger

	// events is only touched on the loop goroutine.
	events []event
}

// New prepares source for running. The VM stops when ctx ends or on Close.
func New(ctx context.Context, source string, opts ...Option) (*VM, error) {
	v := &VM{
		source: source,
		prog:   instrument(source),
		name:   "script.js",
		budget: DefaultBudget,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	v.logger = v.logger.With("script", v.name)

	rt, err := NewRuntime(ctx, nil)
	if err != nil {
		return nil, err
	}
	rt.Registry().RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(consolePrinter{v.logger}))
	rt.Registry().RegisterNativeModule(ModuleName, v.requireModule)
	v.rt = rt

	err = rt.RunOnLoopSync(ctx, func(vm *goja.Runtime) error {
		console.Enable(vm)
		for name, cmd := range bindings {
			if err := vm.Set(name, v.command(cmd)); err != nil {
				return err
			}
		}
		if err := vm.Set("wait", v.wait); err != nil {
			return err
		}
		return vm.Set("__line", v.markLine)
	})
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("scripting: install globals: %w", err)
	}
	return v, nil
}

// Source is the script as given to New.
func (v *VM) Source() string { return v.source }

// Instrumented is the script as the engine runs it.
func (v *VM) Instrumented() string { return v.prog.code }

// Close stops the engine.
func (v *VM) Close() error { return v.rt.Close() }

// Run evaluates the script and returns the commands it issued, in order.
// Failures are *ScriptError; commands issued before a failure are lost.
func (v *VM) Run(ctx context.Context) ([]executor.Command, error) {
	return v.exec(ctx, func(vm *goja.Runtime) error {
		prg, err := goja.Compile(v.name, v.prog.code, false)
		if err != nil {
			return err
		}
		_, err = vm.RunProgram(prg)
		return err
	})
}

// Tick calls the script's global update function, if it defines one, and
// returns the commands it issued.
func (v *VM) Tick(ctx context.Context) ([]executor.Command, error) {
	return v.exec(ctx, func(vm *goja.Runtime) error {
		fn, ok := goja.AssertFunction(vm.Get("update"))
		if !ok {
			return nil
		}
		_, err := fn(goja.Undefined())
		return err
	})
}

func (v *VM) exec(ctx context.Context, run func(*goja.Runtime) error) ([]executor.Command, error) {
	var cmds []executor.Command
	err := v.rt.RunOnLoopSync(ctx, func(vm *goja.Runtime) error {
		v.events = v.events[:0]
		defer vm.ClearInterrupt()

		stopCtx := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
		defer stopCtx()
		if v.budget > 0 {
			timer := time.AfterFunc(v.budget, func() {
				vm.Interrupt(fmt.Errorf("%w after %s", ErrBudgetExceeded, v.budget))
			})
			defer timer.Stop()
		}

		if err := run(vm); err != nil {
			return newScriptError(err, v.prog)
		}
		cmds = collapse(v.events)
		return nil
	})
	if err != nil {
		var se *ScriptError
		if errors.As(err, &se) {
			v.logger.Debug("script failed", "line", se.Line, "col", se.Column, "error", se.Message)
		}
		return nil, err
	}
	v.logger.Debug("script produced commands", "count", len(cmds))
	return cmds, nil
}

// collapse tags each command with the most recent line marker.
func collapse(events []event) []executor.Command {
	var out []executor.Command
	line := 0
	for _, e := range events {
		if e.cmd.Kind == 0 {
			line = e.line
			continue
		}
		cmd := e.cmd
		cmd.Line = line
		out = append(out, cmd)
	}
	return out
}

// markLine backs __line(N, fn): it records line N and hands fn back to be
// called.
func (v *VM) markLine(call goja.FunctionCall) goja.Value {
	v.events = append(v.events, event{line: int(call.Argument(0).ToInteger())})
	return call.Argument(1)
}

func (v *VM) command(kind executor.PlayerCommand) func(goja.FunctionCall) goja.Value {
	return func(goja.FunctionCall) goja.Value {
		v.events = append(v.events, event{cmd: executor.Command{Kind: kind}})
		return goja.Undefined()
	}
}

func (v *VM) wait(call goja.FunctionCall) goja.Value {
	secs := call.Argument(0).ToFloat()
	if math.IsNaN(secs) || secs < 0 {
		secs = 0
	}
	d := time.Duration(min(secs, math.MaxInt64/float64(time.Second)) * float64(time.Second))
	v.events = append(v.events, event{cmd: executor.Command{Kind: executor.Wait, Duration: d}})
	return goja.Undefined()
}

// requireModule exposes the commands as require("goblin"). Member calls are
// not instrumented, so each one records its call site line itself.
func (v *VM) requireModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)
	located := func(fn func(goja.FunctionCall) goja.Value) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			if line := callerLine(vm); line > 0 {
				v.events = append(v.events, event{line: line})
			}
			return fn(call)
		}
	}
	for name, cmd := range bindings {
		_ = exports.Set(name, located(v.command(cmd)))
	}
	_ = exports.Set("wait", located(v.wait))
	_ = exports.Set("version", "1")
}

// callerLine is the line of the innermost script frame on the call stack.
func callerLine(vm *goja.Runtime) int {
	for _, f := range vm.CaptureCallStack(8, nil) {
		if line := f.Position().Line; line > 0 {
			return line
		}
	}
	return 0
}

// consolePrinter sends console.* output to the logger.
type consolePrinter struct{ logger *slog.Logger }

func (p consolePrinter) Log(s string)   { p.logger.Info(s, "source", "console") }
func (p consolePrinter) Warn(s string)  { p.logger.Warn(s, "source", "console") }
func (p consolePrinter) Error(s string) { p.logger.Error(s, "source", "console") }
