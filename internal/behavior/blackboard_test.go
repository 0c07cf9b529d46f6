package behavior

import (
	"fmt"
	"sync"
	"testing"

	"github.com/joeycumines/goblinscript/internal/geom"
	"github.com/stretchr/testify/require"
)

func TestBlackboard_BasicOperations(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)

	_, ok := bb.Get("missing")
	require.False(t, ok)
	require.Zero(t, bb.Len())

	bb.Set("flag", Bool(true))
	bb.Set("count", Int(3))
	bb.Set("elapsed", Float(0.5))
	bb.Set("name", String("goblin"))
	bb.Set("target_pos", Vector(geom.V(1, 2)))
	bb.Set("1.state", NodeState(Running))

	b, ok := bb.GetBool("flag")
	require.True(t, ok)
	require.True(t, b)

	i, ok := bb.GetInt("count")
	require.True(t, ok)
	require.Equal(t, 3, i)

	f, ok := bb.GetFloat("elapsed")
	require.True(t, ok)
	require.Equal(t, float32(0.5), f)

	s, ok := bb.GetString("name")
	require.True(t, ok)
	require.Equal(t, "goblin", s)

	v, ok := bb.GetVector("target_pos")
	require.True(t, ok)
	require.Equal(t, geom.V(1, 2), v)

	raw, ok := bb.Get("1.state")
	require.True(t, ok)
	st, ok := raw.AsNodeState()
	require.True(t, ok)
	require.Equal(t, Running, st)

	require.True(t, bb.Has("count"))
	bb.Delete("count")
	require.False(t, bb.Has("count"))

	require.Equal(t, []string{"1.state", "elapsed", "flag", "name", "target_pos"}, bb.Keys())
	require.Len(t, bb.Snapshot(), 5)

	bb.Clear()
	require.Zero(t, bb.Len())
}

func TestBlackboard_KindMismatch(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	bb.Set("target_pos", String("not a vector"))

	_, ok := bb.GetVector("target_pos")
	require.False(t, ok)
	_, ok = bb.GetInt("target_pos")
	require.False(t, ok)
	_, ok = bb.GetInt("missing")
	require.False(t, ok)

	var zero Value
	require.False(t, zero.IsValid())
	require.Nil(t, zero.Any())
	require.Equal(t, "<invalid>", zero.String())
	require.Equal(t, "int(7)", Int(7).String())
}

func TestNodeKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "12.idx", NodeKey(12, "idx"))
	require.True(t, IsNodeKey("12.idx"))
	require.True(t, IsNodeKey("3.timer"))
	require.False(t, IsNodeKey("target_pos"))
	require.False(t, IsNodeKey(".idx"))
	require.False(t, IsNodeKey("a1.idx"))
	require.False(t, IsNodeKey("123"))
}

func TestBlackboard_Rebind(t *testing.T) {
	t.Parallel()

	tree := MustTree(NewWait(1))
	other := MustTree(NewWait(1))

	bb := new(Blackboard)
	bb.Set("target_pos", Vector(geom.V(5, 5)))
	_, _, err := tree.TickStatus(Snapshot{Blackboard: bb}, 0.1)
	require.NoError(t, err)
	require.True(t, bb.Has("1.timer"))
	require.Same(t, tree, bb.Tree())

	bb.Rebind(other)
	require.False(t, bb.Has("1.timer"))
	require.True(t, bb.Has("target_pos"))
	require.Same(t, other, bb.Tree())
}

func TestBlackboard_Concurrent(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				key := fmt.Sprintf("k%d", i%10)
				bb.Set(key, Int(g))
				_, _ = bb.Get(key)
				_ = bb.Keys()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 10, bb.Len())
}
