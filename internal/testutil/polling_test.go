package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoll(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Poll(t.Context(), func() bool {
		calls++
		return calls >= 3
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestPollTimeout(t *testing.T) {
	t.Parallel()
	err := Poll(t.Context(), func() bool { return false }, 20*time.Millisecond, time.Millisecond)
	require.ErrorContains(t, err, "timeout waiting for condition")
}

func TestPollCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(t.Context())
	err := Poll(ctx, func() bool {
		cancel()
		return false
	}, 5*time.Second, time.Millisecond)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitForState(t *testing.T) {
	t.Parallel()
	n := 0
	got, err := WaitForState(t.Context(), func() int { n++; return n }, func(v int) bool { return v == 4 }, 5*time.Second, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 4, got)

	_, err = WaitForState(t.Context(), func() string { return "idle" }, func(s string) bool { return s == "run" }, 10*time.Millisecond, time.Millisecond)
	require.ErrorContains(t, err, "type string")
}
