// Package testutil holds helpers for tests that wait on background work,
// such as dispatcher results landing or a scene ticker advancing.
package testutil

import (
	"context"
	"fmt"
	"time"
)

// Poll checks condition every interval until it holds, timeout elapses, or
// ctx ends.
func Poll(ctx context.Context, condition func() bool, timeout, interval time.Duration) error {
	_, err := WaitForState(ctx, condition, func(ok bool) bool { return ok }, timeout, interval)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("timeout waiting for condition (threshold: %v)", timeout)
	}
	return err
}

// WaitForState reads getter every interval until predicate accepts the value,
// which it returns, or until timeout elapses or ctx ends.
//
//	stats, err := WaitForState(ctx, d.Stats,
//		func(s dispatch.Stats) bool { return s.Merged > 0 },
//		5*time.Second, time.Millisecond)
func WaitForState[T any](ctx context.Context, getter func() T, predicate func(T) bool, timeout, interval time.Duration) (T, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		state := getter()
		if predicate(state) {
			return state, nil
		}
		if !time.Now().Before(deadline) {
			var zero T
			return zero, fmt.Errorf("timeout waiting for target state (type %T, threshold: %v)", state, timeout)
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}
