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
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/StephenCleary/AsyncEx-sub001/go/test/utils"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

func TestSemaphoreFIFO(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	sem := NewSemaphore(0)
	f1 := sem.WaitAsync(ctx)
	f2 := sem.WaitAsync(ctx)

	require.NoError(t, sem.Release(1))
	mustComplete(t, f1)
	requirePending(t, f2)

	require.NoError(t, sem.Release(1))
	mustComplete(t, f2)
}

func TestSemaphoreReleaseRemainder(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	sem := NewSemaphore(0)
	f1 := sem.WaitAsync(ctx)
	f2 := sem.WaitAsync(ctx)

	require.NoError(t, sem.Release(5))
	mustComplete(t, f1)
	mustComplete(t, f2)
	assert.EqualValues(t, 3, sem.CurrentCount())

	require.NoError(t, sem.Wait(ctx))
	assert.EqualValues(t, 2, sem.CurrentCount())
}

func TestSemaphoreReleaseErrors(t *testing.T) {
	sem := NewSemaphore(1)
	require.NoError(t, sem.Release(0))
	assert.EqualValues(t, 1, sem.CurrentCount())

	err := sem.Release(-1)
	assert.Equal(t, vterrors.InvalidArgument, vterrors.Code(err))

	err = sem.Release(math.MaxInt64)
	assert.Equal(t, vterrors.FailedPrecondition, vterrors.Code(err))
	assert.EqualValues(t, 1, sem.CurrentCount(), "a failed release must not change the count")
}

func TestNewSemaphoreNegative(t *testing.T) {
	assert.Panics(t, func() { NewSemaphore(-1) })
}

func TestSemaphoreCancel(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	sem := NewSemaphore(0)

	waitCtx, cancel := context.WithCancel(ctx)
	f := sem.WaitAsync(waitCtx)
	cancel()
	_, err := await(t, f)
	require.ErrorIs(t, err, context.Canceled)

	// The cancelled wait does not consume a release.
	require.NoError(t, sem.Release(1))
	assert.EqualValues(t, 1, sem.CurrentCount())
}

func TestSemaphoreGuard(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	sem := NewSemaphore(2)
	var inside, maxInside atomic.Int64

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			for range 50 {
				guard, err := sem.Lock(ctx)
				if err != nil {
					return err
				}
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				inside.Add(-1)
				guard.Release()
				guard.Release()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.LessOrEqual(t, maxInside.Load(), int64(2))
	assert.EqualValues(t, 2, sem.CurrentCount())
}
