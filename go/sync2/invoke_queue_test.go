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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
	"github.com/StephenCleary/AsyncEx-sub001/go/test/utils"
)

func TestInvokeQueueSerializes(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	gate := NewManualResetEvent(false)
	var calls, running atomic.Int64

	q := NewInvokeQueue(func(ctx context.Context) (int64, error) {
		if running.Add(1) != 1 {
			t.Errorf("invocations overlapped")
		}
		defer running.Add(-1)
		n := calls.Add(1)
		if n == 1 {
			if err := gate.Wait(ctx); err != nil {
				return 0, err
			}
		}
		return n, nil
	})

	first := async(func() (int64, error) { return q.Invoke(ctx) })
	requirePending(t, first)

	var later []*future.Future[int64]
	for range 3 {
		later = append(later, async(func() (int64, error) { return q.Invoke(ctx) }))
	}
	requirePending(t, later[0])
	assert.Eventually(t, func() bool { return q.Pending() == 4 }, time.Second, time.Millisecond)

	gate.Set()
	assert.EqualValues(t, 1, mustComplete(t, first))
	var results []int64
	for _, f := range later {
		results = append(results, mustComplete(t, f))
	}
	assert.ElementsMatch(t, []int64{2, 3, 4}, results)
	assert.EqualValues(t, 0, q.Pending())
}

func TestInvokeQueueCancelledBeforeRunning(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	gate := NewManualResetEvent(false)
	var calls atomic.Int64
	q := NewInvokeQueue(func(ctx context.Context) (struct{}, error) {
		calls.Add(1)
		return struct{}{}, gate.Wait(ctx)
	})

	first := async(func() (struct{}, error) { return q.Invoke(ctx) })
	requirePending(t, first)

	waitCtx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := q.Invoke(waitCtx)
	require.ErrorIs(t, err, context.Canceled)

	gate.Set()
	mustComplete(t, first)
	assert.EqualValues(t, 1, calls.Load(), "the cancelled invocation never ran")
}
