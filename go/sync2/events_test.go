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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephenCleary/AsyncEx-sub001/go/test/utils"
)

func TestManualResetEvent(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	e := NewManualResetEvent(false)
	assert.False(t, e.IsSet())

	f1 := e.WaitAsync()
	f2 := e.WaitAsync()
	requirePending(t, f1)

	e.Set()
	mustComplete(t, f1)
	mustComplete(t, f2)
	assert.True(t, e.IsSet())

	// Stays set for later waiters.
	require.NoError(t, e.Wait(ctx))

	e.Reset()
	e.Reset()
	assert.False(t, e.IsSet())
	requirePending(t, e.WaitAsync())
}

func TestManualResetEventInitiallySet(t *testing.T) {
	e := NewManualResetEvent(true)
	assert.True(t, e.IsSet())
	mustComplete(t, e.WaitAsync())
}

func TestManualResetEventWaitTimeout(t *testing.T) {
	e := NewManualResetEvent(false)
	start := time.Now()
	assert.False(t, e.WaitTimeout(settle))
	assert.GreaterOrEqual(t, time.Since(start), settle)

	go func() {
		time.Sleep(settle)
		e.Set()
	}()
	assert.True(t, e.WaitTimeout(time.Second))
}

func TestManualResetEventWaitCancelled(t *testing.T) {
	e := NewManualResetEvent(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Wait(ctx), context.Canceled)
	assert.False(t, e.IsSet())
}

func TestAutoResetEventSingleRelease(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	e := NewAutoResetEvent(false)
	e.Set()
	assert.True(t, e.IsSet())

	f1 := e.WaitAsync(ctx)
	f2 := e.WaitAsync(ctx)
	mustComplete(t, f1)
	requirePending(t, f2)
	assert.False(t, e.IsSet())

	e.Set()
	mustComplete(t, f2)
	assert.False(t, e.IsSet(), "a Set handed to a waiter leaves the event unset")
}

func TestAutoResetEventHandsOffInOrder(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	e := NewAutoResetEvent(false)
	f1 := e.WaitAsync(ctx)
	f2 := e.WaitAsync(ctx)

	e.Set()
	mustComplete(t, f1)
	requirePending(t, f2)
	e.Set()
	mustComplete(t, f2)
}

func TestAutoResetEventCancelledWaitDoesNotConsume(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	e := NewAutoResetEvent(false)

	waitCtx, cancel := context.WithCancel(ctx)
	f := e.WaitAsync(waitCtx)
	cancel()
	_, err := await(t, f)
	require.ErrorIs(t, err, context.Canceled)

	e.Set()
	assert.True(t, e.IsSet(), "the Set must not be consumed by a cancelled wait")
	assert.True(t, e.WaitTimeout(time.Second))
}

func TestAutoResetEventWaitTimeout(t *testing.T) {
	e := NewAutoResetEvent(false)
	assert.False(t, e.WaitTimeout(settle))
	e.Set()
	assert.True(t, e.WaitTimeout(settle))
	assert.False(t, e.IsSet())

	e.Set()
	e.Reset()
	assert.False(t, e.WaitTimeout(settle))
}

func TestAutoResetEventTimeoutRace(t *testing.T) {
	// Every Set is either observed by a timed wait or left on the event,
	// never both and never lost.
	e := NewAutoResetEvent(false)
	for range 50 {
		done := make(chan bool)
		go func() {
			done <- e.WaitTimeout(time.Millisecond)
		}()
		time.Sleep(time.Millisecond)
		e.Set()
		observed := <-done
		assert.NotEqual(t, observed, e.IsSet())
		e.Reset()
	}
}
