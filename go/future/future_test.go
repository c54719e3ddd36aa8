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

package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromiseFirstCompletionWins(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()
	require.False(t, f.IsDone())

	_, _, ok := f.TryResult()
	require.False(t, ok)

	require.True(t, p.TrySetResult(1))
	require.False(t, p.TrySetResult(2))
	require.False(t, p.TrySetError(errors.New("late")))

	v, err, ok := f.TryResult()
	require.True(t, ok)
	require.NoError(t, err)
	require.Equal(t, 1, v)
	require.True(t, f.IsDone())
}

func TestFailed(t *testing.T) {
	errBoom := errors.New("boom")
	f := Failed[string](errBoom)
	v, err := f.Wait()
	require.ErrorIs(t, err, errBoom)
	require.Empty(t, v)

	v, err = Completed("ok").Wait()
	require.NoError(t, err)
	require.Equal(t, "ok", v)
}

func TestWaitBlocksUntilComplete(t *testing.T) {
	p := NewPromise[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		p.TrySetResult(42)
	}()
	v, err := p.Future().Wait()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestAwaitAbandonsWait(t *testing.T) {
	p := NewPromise[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Future().Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// The operation itself is unaffected.
	require.True(t, p.TrySetResult(7))
	v, err := p.Future().Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestAwaitPrefersCompletedResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := Completed(3).Await(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestOnComplete(t *testing.T) {
	p := NewPromise[int]()
	var order []int
	p.Future().OnComplete(func() { order = append(order, 1) })
	p.Future().OnComplete(func() { order = append(order, 2) })
	assert.Empty(t, order)

	p.TrySetResult(0)
	assert.Equal(t, []int{1, 2}, order)

	// Registered after completion: runs inline.
	p.Future().OnComplete(func() { order = append(order, 3) })
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestOnCompleteRunsOutsideLock(t *testing.T) {
	p := NewPromise[int]()
	f := p.Future()
	f.OnComplete(func() {
		// Would deadlock if callbacks held the future's mutex.
		_, _, ok := f.TryResult()
		assert.True(t, ok)
	})
	p.TrySetResult(1)
}

func TestConcurrentCompletion(t *testing.T) {
	p := NewPromise[int]()
	var wg sync.WaitGroup
	wins := make(chan int, 10)
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p.TrySetResult(i) {
				wins <- i
			}
		}()
	}
	wg.Wait()
	close(wins)

	var winners []int
	for w := range wins {
		winners = append(winners, w)
	}
	require.Len(t, winners, 1)
	v, _ := p.Future().Wait()
	require.Equal(t, winners[0], v)
}

func TestWithContext(t *testing.T) {
	t.Run("ctx ends first", func(t *testing.T) {
		p := NewPromise[int]()
		ctx, cancel := context.WithCancel(context.Background())
		f := WithContext(ctx, p.Future())
		cancel()
		_, err := f.Wait()
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, p.Future().IsDone())
	})

	t.Run("future completes first", func(t *testing.T) {
		p := NewPromise[int]()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f := WithContext(ctx, p.Future())
		p.TrySetResult(5)
		v, err := f.Wait()
		require.NoError(t, err)
		require.Equal(t, 5, v)
	})

	t.Run("background ctx", func(t *testing.T) {
		p := NewPromise[int]()
		require.Same(t, p.Future(), WithContext(context.Background(), p.Future()))
	})
}

func TestMap(t *testing.T) {
	p := NewPromise[int]()
	f := Map(p.Future(), func(v int) string { return string(rune('a' + v)) })
	require.False(t, f.IsDone())
	p.TrySetResult(2)
	v, err := f.Wait()
	require.NoError(t, err)
	require.Equal(t, "c", v)

	errBoom := errors.New("boom")
	called := false
	_, err = Map(Failed[int](errBoom), func(int) int { called = true; return 0 }).Wait()
	require.ErrorIs(t, err, errBoom)
	require.False(t, called)
}
