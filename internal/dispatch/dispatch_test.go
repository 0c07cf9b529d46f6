package dispatch

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/goblinscript/internal/behavior"
	"github.com/joeycumines/goblinscript/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	d := New(opts...)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)
	return d
}

func waitForResult(t *testing.T, d *Dispatcher, id uint64) []behavior.Intent {
	t.Helper()
	var (
		intents []behavior.Intent
		ok      bool
	)
	err := testutil.Poll(context.Background(), func() bool {
		intents, ok = d.Take(id)
		return ok
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
	return intents
}

func customTree(tag string) *behavior.Tree {
	return behavior.MustTree(behavior.NewAction(behavior.Custom(tag)))
}

func TestDispatcher_TakeOnce(t *testing.T) {
	t.Parallel()

	d := startDispatcher(t)
	tree := customTree("hello")

	require.NoError(t, d.Enqueue(Job{CharacterID: 7, Snapshot: behavior.Snapshot{ID: 7, Blackboard: new(behavior.Blackboard)}, Tree: tree, Delta: 0.016}))

	intents := waitForResult(t, d, 7)
	require.Equal(t, []behavior.Intent{behavior.Custom("hello")}, intents)

	_, ok := d.Take(7)
	require.False(t, ok, "a result is removed when taken")

	stats := d.Stats()
	require.Equal(t, uint64(1), stats.Enqueued)
	require.Equal(t, uint64(1), stats.Ticked)
	require.Equal(t, uint64(1), stats.Taken)
}

func TestDispatcher_EmptyResultIsStillAResult(t *testing.T) {
	t.Parallel()

	d := startDispatcher(t)
	tree := behavior.MustTree(behavior.NewWait(10))
	require.NoError(t, d.Enqueue(Job{CharacterID: 1, Snapshot: behavior.Snapshot{Blackboard: new(behavior.Blackboard)}, Tree: tree}))

	intents := waitForResult(t, d, 1)
	require.Empty(t, intents)
}

func TestDispatcher_Lifecycle(t *testing.T) {
	t.Parallel()

	d := New()
	tree := customTree("x")
	job := Job{CharacterID: 1, Snapshot: behavior.Snapshot{Blackboard: new(behavior.Blackboard)}, Tree: tree}

	require.ErrorIs(t, d.Enqueue(job), ErrNotStarted)

	require.NoError(t, d.Start(context.Background()))
	require.ErrorIs(t, d.Start(context.Background()), ErrAlreadyStarted)
	require.NoError(t, d.Enqueue(job))
	require.Error(t, d.Enqueue(Job{CharacterID: 2}), "no tree")

	d.Stop()
	d.Stop()
	<-d.Done()
	require.ErrorIs(t, d.Enqueue(job), ErrStopped)
	require.ErrorIs(t, d.Start(context.Background()), ErrStopped)
}

func TestDispatcher_StopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	d := New()
	require.NoError(t, d.Start(ctx))
	cancel()

	select {
	case <-d.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not exit")
	}

	job := Job{CharacterID: 1, Snapshot: behavior.Snapshot{Blackboard: new(behavior.Blackboard)}, Tree: customTree("x")}
	for range 10 {
		require.ErrorIs(t, d.Enqueue(job), ErrStopped)
	}
	require.Zero(t, d.Stats().Pending)
	require.ErrorIs(t, d.Start(context.Background()), ErrStopped)
	d.Stop()
}

func TestDispatcher_ConcurrentStartStop(t *testing.T) {
	t.Parallel()

	for range 50 {
		d := New(WithWorkers(1))
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = d.Start(context.Background())
		}()
		for range 2 {
			go func() {
				defer wg.Done()
				d.Stop()
			}()
		}
		wg.Wait()
		d.Stop()
		<-d.Done()
		require.ErrorIs(t, d.Enqueue(Job{Tree: customTree("x")}), ErrStopped)
	}
}

func TestDispatcher_PanicIsolation(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	d := startDispatcher(t, WithLogger(logger), WithBatchSize(64))

	boom := behavior.MustTree(behavior.NewLeafFunc(func(behavior.Snapshot, float32) (behavior.Status, []behavior.Intent) {
		panic("kaboom")
	}))
	fine := customTree("ok")

	require.NoError(t, d.Enqueue(Job{CharacterID: 1, Snapshot: behavior.Snapshot{Blackboard: new(behavior.Blackboard)}, Tree: boom}))
	require.NoError(t, d.Enqueue(Job{CharacterID: 2, Snapshot: behavior.Snapshot{Blackboard: new(behavior.Blackboard)}, Tree: fine}))

	require.Equal(t, []behavior.Intent{behavior.Custom("ok")}, waitForResult(t, d, 2))

	_, err := testutil.WaitForState(context.Background(), d.Stats, func(s Stats) bool { return s.Panics == 1 }, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
	_, ok := d.Take(1)
	require.False(t, ok, "a panicking tick deposits nothing")
	require.Contains(t, logs.String(), "kaboom")
}

func TestDispatcher_ManyCharacters(t *testing.T) {
	t.Parallel()

	const characters = 500
	d := startDispatcher(t, WithWorkers(4), WithBatchSize(8))
	require.Equal(t, 4, d.Workers())
	require.Equal(t, 8, d.BatchSize())

	tree := behavior.MustTree(behavior.NewSequence(
		behavior.NewWait(0),
		behavior.NewLeafFunc(func(snap behavior.Snapshot, _ float32) (behavior.Status, []behavior.Intent) {
			return behavior.Success, []behavior.Intent{behavior.MoveToward(snap.Position)}
		}),
	))

	var wg sync.WaitGroup
	for p := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := p; id < characters; id += 4 {
				snap := behavior.Snapshot{ID: uint64(id), Blackboard: new(behavior.Blackboard)}
				snap.Position.X = float32(id)
				assert.NoError(t, d.Enqueue(Job{CharacterID: uint64(id), Snapshot: snap, Tree: tree, Delta: 0.016}))
			}
		}()
	}
	wg.Wait()

	for id := range characters {
		intents := waitForResult(t, d, uint64(id))
		require.Len(t, intents, 1)
		require.Equal(t, float32(id), intents[0].Point.X)
	}

	stats := d.Stats()
	require.Equal(t, uint64(characters), stats.Ticked)
	require.GreaterOrEqual(t, stats.Batches, uint64(characters/8))
	require.Zero(t, stats.Pending)
}

func TestDispatcher_LatestResultWins(t *testing.T) {
	t.Parallel()

	d := startDispatcher(t)
	tree := behavior.MustTree(behavior.NewLeafFunc(func(snap behavior.Snapshot, _ float32) (behavior.Status, []behavior.Intent) {
		return behavior.Success, []behavior.Intent{behavior.MoveToward(snap.Position)}
	}))
	bb := new(behavior.Blackboard)
	for i := range 10 {
		snap := behavior.Snapshot{ID: 3, Blackboard: bb}
		snap.Position.X = float32(i)
		require.NoError(t, d.Enqueue(Job{CharacterID: 3, Snapshot: snap, Tree: tree}))
	}

	_, err := testutil.WaitForState(context.Background(), d.Stats, func(s Stats) bool { return s.Merged == 10 }, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
	intents, ok := d.Take(3)
	require.True(t, ok)
	require.Equal(t, float32(9), intents[0].Point.X)
}

func TestJobQueue_Drain(t *testing.T) {
	t.Parallel()

	q := newJobQueue()
	require.Empty(t, q.drain(nil, 32))

	for i := range 100 {
		q.push(Job{CharacterID: uint64(i)})
	}
	require.Equal(t, 100, q.len())

	batch := q.drain(nil, 32)
	require.Len(t, batch, 32)
	require.Equal(t, uint64(0), batch[0].CharacterID)
	require.Equal(t, uint64(31), batch[31].CharacterID)

	batch = q.drain(batch[:0], 100)
	require.Len(t, batch, 68)
	require.Equal(t, uint64(32), batch[0].CharacterID)
	require.Zero(t, q.len())

	select {
	case <-q.signal:
	default:
		t.Fatal("expected a pending wake-up")
	}
}
