package scene

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/character"
	"github.com/joeycumines/goblinscript/internal/dispatch"
	"github.com/joeycumines/goblinscript/internal/executor"
	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/joeycumines/goblinscript/internal/terrain"
	"github.com/joeycumines/goblinscript/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestFrameAnimator(t *testing.T) {
	t.Parallel()
	a := NewFrameAnimator(nil, nil)
	require.False(t, a.IsPlaying())

	a.Play("turn_north_east")
	for i := range 3 {
		require.True(t, a.IsPlaying(), i)
		a.Advance(0.1)
	}
	require.False(t, a.IsPlaying())
	name, frame := a.Current()
	require.Equal(t, "turn_north_east", name)
	require.Equal(t, 2, frame)

	a.Play("stand_south")
	for range 5 {
		a.Advance(0.1)
		require.True(t, a.IsPlaying())
	}
	a.Play("run_west")
	for range 5 {
		a.Advance(0.1)
	}
	_, frame = a.Current()
	require.Equal(t, 1, frame)

	a.Play("dance")
	require.False(t, a.IsPlaying())
}

func TestFrameAnimator_Position(t *testing.T) {
	t.Parallel()
	a := NewFrameAnimator(nil, nil)
	a.SetPosition(geom.V(10, 20))
	a.SetOrigin(geom.V(100, 0))
	require.Equal(t, geom.V(10, 20), a.Position())
	require.Equal(t, geom.V(110, 20), a.GlobalPosition())
}

func TestPatrolTree(t *testing.T) {
	t.Parallel()
	tree, err := PatrolTree([]geom.Vec2i{{X: 1, Y: 1}, {X: 3, Y: 1}}, 64, 0.032)
	require.NoError(t, err)
	require.Equal(t, "patrol", tree.Name())
	require.Equal(t, 6, tree.Size())
}

func patrolSnapshot(id uint64) behavior.Snapshot {
	return behavior.Snapshot{
		ID:         id,
		Position:   geom.V(96, 96),
		Direction:  geom.South,
		Idle:       true,
		Blackboard: new(behavior.Blackboard),
	}
}

func TestPatrolTree_Hold(t *testing.T) {
	t.Parallel()
	hold := behavior.MustCondition(`id == 1`)
	tree, err := PatrolTree([]geom.Vec2i{{X: 1, Y: 1}, {X: 3, Y: 1}}, 64, 0.032, WithHold(hold))
	require.NoError(t, err)
	require.Equal(t, 8, tree.Size())

	held := patrolSnapshot(1)
	for range 8 {
		status, intents, err := tree.TickStatus(held, 0.02)
		require.NoError(t, err)
		require.Equal(t, behavior.Success, status)
		require.Empty(t, intents)
	}
	require.False(t, held.Blackboard.Has(TargetKey))

	moving := patrolSnapshot(2)
	var intents []behavior.Intent
	for range 8 {
		intents = append(intents, tree.Tick(moving, 0.02)...)
	}
	require.NotEmpty(t, intents)
	require.True(t, moving.Blackboard.Has(TargetKey))
}

func TestPatrolTree_Logger(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	route := []geom.Vec2i{{X: 1, Y: 1}}
	a, err := PatrolTree(route, 64, 0)
	require.NoError(t, err)
	b, err := PatrolTree(route, 64, 0, WithPatrolLogger(logger))
	require.NoError(t, err)

	snap := patrolSnapshot(5)
	a.Tick(snap, 0.016)
	require.Nil(t, b.Tick(snap, 0.016))
	require.Contains(t, logs.String(), "behavior tree tick rejected")
	require.Contains(t, logs.String(), "character=5")
}

func TestScene_SpawnAndRender(t *testing.T) {
	t.Parallel()
	m, err := terrain.ParseGrid("# # # #\n. L1 R2 _\n. . 3 .")
	require.NoError(t, err)
	s := New(m)
	a := s.Spawn(geom.VI(0, 1), geom.East)
	b := s.Spawn(geom.VI(3, 2), geom.North)
	require.Equal(t, uint64(1), a.Character.ID())
	require.Equal(t, uint64(2), b.Character.ID())
	require.Len(t, s.Actors(), 2)
	require.NotEqual(t, [16]byte{}, [16]byte(s.ID()))

	require.Equal(t, "####\n>/\\ \n..3^\n", s.Render())
}

func TestScene_StepCountsAndSettles(t *testing.T) {
	t.Parallel()
	m, err := terrain.ParseGrid(". . .")
	require.NoError(t, err)
	s := New(m)
	a := s.Spawn(geom.VI(0, 0), geom.East)
	a.Executor.Enqueue(executor.Command{Kind: executor.MoveEast, Line: 1})

	require.False(t, s.Idle())
	for range 20 {
		s.Step(0.1)
	}
	require.Equal(t, uint64(20), s.Ticks())
	require.True(t, s.Idle())
	require.Equal(t, geom.VI(1, 0), a.Character.CellPosition())
}

func TestScene_PatrolThroughDispatcher(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	d := dispatch.New(dispatch.WithWorkers(2))
	require.NoError(t, d.Start(ctx))
	defer d.Stop()

	m, err := terrain.ParseGrid(". . . . .\n. . . . .\n. . . . .")
	require.NoError(t, err)
	tree, err := PatrolTree([]geom.Vec2i{{X: 1, Y: 1}, {X: 3, Y: 1}}, m.CellSize(), 0.032)
	require.NoError(t, err)

	s := New(m, WithDispatcher(d))
	a := s.Spawn(geom.VI(1, 1), geom.East, character.WithTree(tree))

	err = testutil.Poll(ctx, func() bool {
		s.Step(0.05)
		return a.Character.CellPosition().X >= 2
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
}

func TestScene_Run(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))

	m, err := terrain.New(2, 2, 64)
	require.NoError(t, err)
	s := New(m, WithLogger(logger), WithReport(5*time.Millisecond))
	s.Spawn(geom.VI(0, 0), geom.South)

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Run(ctx, time.Millisecond, 0.016))
	require.Positive(t, s.Ticks())
	require.Contains(t, logs.String(), "scene="+s.ID().String())
	require.Contains(t, logs.String(), "scene progress")

	require.Error(t, s.Run(t.Context(), 0, 0.016))
}
