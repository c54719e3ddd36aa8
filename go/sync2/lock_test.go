/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sync2

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
	"github.com/StephenCleary/AsyncEx-sub001/go/test/utils"
)

func TestLockMutualExclusion(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	l := NewLock()

	g1, err := l.Lock(ctx)
	require.NoError(t, err)

	f2 := l.LockAsync(ctx)
	requirePending(t, f2)

	g1.Release()
	g2 := mustComplete(t, f2)
	g2.Release()
}

func TestLockFIFO(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	l := NewLock()
	g, err := l.Lock(ctx)
	require.NoError(t, err)

	var waiters []*future.Future[*Guard]
	for range 5 {
		waiters = append(waiters, l.LockAsync(ctx))
	}
	for i, f := range waiters {
		g.Release()
		g = mustComplete(t, f)
		for _, later := range waiters[i+1:] {
			assert.False(t, later.IsDone())
		}
	}
	g.Release()
}

func TestLockImmediateWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLock()
	g := mustComplete(t, l.LockAsync(ctx))

	_, err := await(t, l.LockAsync(ctx))
	require.ErrorIs(t, err, context.Canceled)
	g.Release()
}

func TestLockCancelledWaiterIsSkipped(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	l := NewLock()
	g, err := l.Lock(ctx)
	require.NoError(t, err)

	cancelCtx, cancel := context.WithCancel(ctx)
	cancelled := l.LockAsync(cancelCtx)
	next := l.LockAsync(ctx)
	cancel()

	_, err = await(t, cancelled)
	require.ErrorIs(t, err, context.Canceled)

	g.Release()
	mustComplete(t, next).Release()
}

func TestLockGrantIsNotRescinded(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	l := NewLock()
	g, err := l.Lock(ctx)
	require.NoError(t, err)

	waitCtx, cancel := context.WithCancel(ctx)
	f := l.LockAsync(waitCtx)
	g.Release()
	cancel()

	g2 := mustComplete(t, f)
	g2.Release()
	mustComplete(t, l.LockAsync(ctx)).Release()
}

func TestGuardIdempotentRelease(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	l := NewLock()
	g, err := l.Lock(ctx)
	require.NoError(t, err)
	assert.False(t, g.Released())

	g.Release()
	g.Release()
	assert.True(t, g.Released())

	g2, err := l.Lock(ctx)
	require.NoError(t, err)
	f3 := l.LockAsync(ctx)
	// A stale guard must not release the new owner.
	g.Release()
	requirePending(t, f3)
	g2.Release()
	mustComplete(t, f3).Release()
}

func TestLockStress(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	l := NewLock()
	var owner atomic.Int64
	var total int64

	var g errgroup.Group
	for worker := range 16 {
		g.Go(func() error {
			for range 200 {
				guard, err := l.Lock(ctx)
				if err != nil {
					return err
				}
				if !owner.CompareAndSwap(0, int64(worker+1)) {
					t.Errorf("lock held by %d while granted to %d", owner.Load(), worker+1)
				}
				total++
				owner.Store(0)
				guard.Release()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 16*200, total)
}

func TestIDs(t *testing.T) {
	a, b := NewLock(), NewLock()
	assert.NotZero(t, a.ID())
	assert.Equal(t, a.ID(), a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
