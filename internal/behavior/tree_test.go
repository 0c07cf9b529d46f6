package behavior

import (
	"sync"
	"testing"

	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/stretchr/testify/require"
)

func patrol(cellSize float32) (*Tree, *Selector, *Sequence) {
	seq := NewSequence(
		NewNextWaypoint([]geom.Vec2i{{X: 1, Y: 1}, {X: 4, Y: 1}}, "target_pos", cellSize),
		NewWait(0.032),
		NewIsAtTarget("target_pos"),
	)
	sel := NewSelector(seq, NewMoveToTarget("target_pos"))
	return MustTree(sel, WithName("patrol")), sel, seq
}

func TestNewTree_AssignsPreOrderIDs(t *testing.T) {
	t.Parallel()

	tree, sel, seq := patrol(64)
	require.Equal(t, "patrol", tree.Name())
	require.Same(t, Node(sel), tree.Root())
	require.Equal(t, 6, tree.Size())

	require.Equal(t, 1, sel.ID())
	require.Equal(t, 2, seq.ID())
	for i, child := range seq.Children() {
		require.Equal(t, 3+i, child.ID())
	}
	require.Equal(t, 6, sel.Children()[1].ID())
}

func TestNewTree_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewTree(nil)
	require.Error(t, err)

	shared := NewWait(1)
	_, err = NewTree(NewSequence(shared, NewSelector(shared)))
	require.ErrorIs(t, err, ErrDuplicateNode)

	_, err = NewTree(NewSequence(nil))
	require.Error(t, err)

	require.Panics(t, func() { MustTree(nil) })
}

func TestTree_RejectsForeignBlackboard(t *testing.T) {
	t.Parallel()

	a, _, _ := patrol(64)
	b, _, _ := patrol(64)
	bb := new(Blackboard)

	_, _, err := a.TickStatus(Snapshot{Blackboard: bb}, 0.016)
	require.NoError(t, err)

	_, _, err = b.TickStatus(Snapshot{Blackboard: bb}, 0.016)
	require.ErrorIs(t, err, ErrForeignTree)
	require.Nil(t, b.Tick(Snapshot{Blackboard: bb}, 0.016))

	_, _, err = a.TickStatus(Snapshot{}, 0.016)
	require.ErrorIs(t, err, ErrNoBlackboard)
}

func TestTree_SharedAcrossCharacters(t *testing.T) {
	t.Parallel()

	tree, _, _ := patrol(64)
	const characters = 64

	boards := make([]*Blackboard, characters)
	for i := range boards {
		boards[i] = new(Blackboard)
	}

	var wg sync.WaitGroup
	for i, bb := range boards {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				tree.Tick(Snapshot{ID: uint64(i), Position: geom.V(96, 96), Direction: geom.East, Blackboard: bb}, 0.016)
			}
		}()
	}
	wg.Wait()

	for _, bb := range boards {
		require.Equal(t, boards[0].Snapshot(), bb.Snapshot(), "identical inputs give identical per-character state")
	}
}

func TestTree_PatrolProducesMovement(t *testing.T) {
	t.Parallel()

	tree, _, _ := patrol(64)
	bb := new(Blackboard)
	snap := Snapshot{Position: geom.V(96, 96), Direction: geom.South, Blackboard: bb}

	// NextWaypoint succeeds, Wait is running: nothing to do yet.
	require.Empty(t, tree.Tick(snap, 0.016))

	// Wait elapses, IsAtTarget fails (target is cell (4,1)), selector falls
	// through to MoveToTarget which turns east.
	intents := tree.Tick(snap, 0.02)
	require.Equal(t, []Intent{ChangeState(TurnRequest(geom.East))}, intents)
}
