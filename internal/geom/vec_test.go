package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVec2_Arithmetic(t *testing.T) {
	t.Parallel()

	a := V(3, 4)
	b := V(1, -2)

	require.Equal(t, V(4, 2), a.Add(b))
	require.Equal(t, V(2, 6), a.Sub(b))
	require.Equal(t, V(6, 8), a.Scale(2))
	require.InDelta(t, 5, a.Length(), 1e-6)
	require.InDelta(t, 25, a.LengthSquared(), 1e-6)
	require.InDelta(t, 5, V(0, 0).DistanceTo(a), 1e-6)
}

func TestVec2_Normalized(t *testing.T) {
	t.Parallel()

	n := V(3, 4).Normalized()
	require.InDelta(t, 0.6, n.X, 1e-6)
	require.InDelta(t, 0.8, n.Y, 1e-6)

	require.Equal(t, Vec2{}, Vec2{}.Normalized())
}

func TestVec2_MoveToward(t *testing.T) {
	t.Parallel()

	from := V(0, 0)
	to := V(10, 0)

	require.Equal(t, V(4, 0), from.MoveToward(to, 4))
	require.Equal(t, to, from.MoveToward(to, 10))
	require.Equal(t, to, from.MoveToward(to, 25), "must not overshoot")
	require.Equal(t, to, to.MoveToward(to, 1))
}

func TestVec2_ApproxEqual(t *testing.T) {
	t.Parallel()

	require.True(t, V(1, 1).ApproxEqual(V(1, 1)))
	require.True(t, V(1000, 1000).ApproxEqual(V(1000.001, 1000)))
	require.False(t, V(1, 1).ApproxEqual(V(1.01, 1)))
}

func TestVec2_DirectionTo(t *testing.T) {
	t.Parallel()

	origin := V(0, 0)
	for _, tc := range []struct {
		name string
		to   Vec2
		want Direction
	}{
		{"east", V(10, 3), East},
		{"west", V(-10, 3), West},
		{"south", V(2, 10), South},
		{"north", V(2, -10), North},
		{"tie resolves horizontally", V(5, 5), East},
		{"tie resolves horizontally west", V(-5, -5), West},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, origin.DirectionTo(tc.to))
		})
	}
}

func TestVec2i_Arithmetic(t *testing.T) {
	t.Parallel()

	a := VI(3, 4)
	require.Equal(t, VI(4, 3), a.Add(VI(1, -1)))
	require.Equal(t, VI(2, 5), a.Sub(VI(1, -1)))
	require.Equal(t, VI(9, 12), a.Scale(3))
	require.InDelta(t, 5, a.Length(), 1e-6)
	require.InDelta(t, 5, VI(0, 0).DistanceTo(a), 1e-6)
	require.Equal(t, V(3, 4), a.Float())
}

func TestDirection(t *testing.T) {
	t.Parallel()

	require.Equal(t, "north", North.String())
	require.Equal(t, "south", South.String())
	require.Equal(t, "east", East.String())
	require.Equal(t, "west", West.String())

	require.Equal(t, V(0, -1), North.Vector())
	require.Equal(t, V(0, 1), South.Vector())
	require.Equal(t, V(1, 0), East.Vector())
	require.Equal(t, V(-1, 0), West.Vector())

	for _, d := range Directions {
		require.Equal(t, d.Vector(), d.Offset().Float())
		parsed, err := ParseDirection(d.String())
		require.NoError(t, err)
		require.Equal(t, d, parsed)
	}

	d, err := ParseDirection(" Up ")
	require.NoError(t, err)
	require.Equal(t, North, d)

	_, err = ParseDirection("sideways")
	require.Error(t, err)
}
