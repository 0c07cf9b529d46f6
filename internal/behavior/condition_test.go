package behavior

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/stretchr/testify/require"
)

func TestCondition(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	bb.Set("alert", Bool(true))
	bb.Set("hp", Int(3))
	snap := Snapshot{ID: 7, Position: geom.V(320, 10), Direction: geom.West, Idle: true, Speed: 100, Blackboard: bb}

	for _, tc := range []struct {
		expression string
		want       Status
	}{
		{`idle && bb.alert == true`, Success},
		{`x >= 320 && direction == "west"`, Success},
		{`bb.hp > 5`, Failure},
		{`speed == 0`, Failure},
		{`id == 7`, Success},
	} {
		t.Run(tc.expression, func(t *testing.T) {
			t.Parallel()
			c, err := NewCondition(tc.expression)
			require.NoError(t, err)
			require.Equal(t, tc.expression, c.Expression())
			status, intents := c.Tick(snap, 0)
			require.Equal(t, tc.want, status)
			require.Empty(t, intents)
		})
	}
}

func TestCondition_CompileErrors(t *testing.T) {
	t.Parallel()

	_, err := NewCondition(`x +`)
	require.Error(t, err)

	_, err = NewCondition(`x + 1`)
	require.Error(t, err, "must be boolean")

	require.Panics(t, func() { MustCondition(`nope(`) })
}

func TestCondition_RuntimeErrorFails(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := MustCondition(`bb.hp > 1`, WithConditionLogger(logger))
	bb := new(Blackboard)
	bb.Set("hp", String("lots"))
	status, _ := c.Tick(Snapshot{ID: 4, Blackboard: bb}, 0)
	require.Equal(t, Failure, status)
	require.Contains(t, logs.String(), `msg="condition evaluation failed"`)
	require.Contains(t, logs.String(), "character=4")
}
