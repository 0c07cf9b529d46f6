package behavior

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionEnv is the environment a Condition expression is evaluated in.
//
//	idle && bb.alert == true
//	x > 320 || direction == "west"
type ConditionEnv struct {
	X         float64        `expr:"x"`
	Y         float64        `expr:"y"`
	Direction string         `expr:"direction"`
	Idle      bool           `expr:"idle"`
	Speed     float64        `expr:"speed"`
	ID        uint64         `expr:"id"`
	BB        map[string]any `expr:"bb"`
}

func newConditionEnv(snap Snapshot) ConditionEnv {
	env := ConditionEnv{
		X:         float64(snap.Position.X),
		Y:         float64(snap.Position.Y),
		Direction: snap.Direction.String(),
		Idle:      snap.Idle,
		Speed:     float64(snap.Speed),
		ID:        snap.ID,
		BB:        map[string]any{},
	}
	if snap.Blackboard != nil {
		for k, v := range snap.Blackboard.Snapshot() {
			env.BB[k] = v.Any()
		}
	}
	return env
}

// Condition is a leaf that succeeds when a boolean expr-lang expression holds
// for the snapshot. The program is compiled once and shared.
type Condition struct {
	leaf
	expression string
	program    *vm.Program
	logger     *slog.Logger
}

// ConditionOption configures NewCondition.
type ConditionOption func(*Condition)

// WithConditionLogger receives evaluation failures; the default is
// slog.Default().
func WithConditionLogger(l *slog.Logger) ConditionOption {
	return func(c *Condition) { c.logger = l }
}

// NewCondition compiles expression against ConditionEnv.
func NewCondition(expression string, opts ...ConditionOption) (*Condition, error) {
	program, err := expr.Compile(expression, expr.Env(ConditionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("behavior: compile condition %q: %w", expression, err)
	}
	c := &Condition{expression: expression, program: program}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// MustCondition is NewCondition for expressions known at compile time.
func MustCondition(expression string, opts ...ConditionOption) *Condition {
	c, err := NewCondition(expression, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Condition) Expression() string { return c.expression }

func (c *Condition) Tick(snap Snapshot, _ float32) (Status, []Intent) {
	result, err := expr.Run(c.program, newConditionEnv(snap))
	if err != nil {
		c.logger.Debug("condition evaluation failed", "expression", c.expression, "character", snap.ID, "error", err)
		return Failure, nil
	}
	if ok, _ := result.(bool); ok {
		return Success, nil
	}
	return Failure, nil
}
