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

// Package timer provides a timer whose wakeups can be rescheduled, forced
// or cancelled while a goroutine is waiting on it.
package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/StephenCleary/AsyncEx-sub001/go/sync2"
)

// Timer ticks every interval. An interval of zero means the timer only
// ticks when triggered. Changing the interval, triggering or closing the
// timer wakes a goroutine blocked in Next so it can recompute its deadline.
//
// Usage:
//
//	t := timer.NewTimer(interval)
//	t.Start(func() {
//		keephouse()
//	})
//	...
//	t.Stop()
type Timer struct {
	interval atomic.Int64
	closed   atomic.Bool
	wake     *sync2.AutoResetEvent
	svm      *sync2.ServiceManager

	mu        sync.Mutex
	triggerAt time.Time
}

// NewTimer creates a new Timer object.
func NewTimer(interval time.Duration) *Timer {
	t := &Timer{
		wake: sync2.NewAutoResetEvent(false),
		svm:  sync2.NewServiceManager(),
	}
	t.interval.Store(int64(interval))
	return t
}

// Next blocks until the next tick and returns true, or returns false once
// the timer is closed.
func (t *Timer) Next() bool {
	start := time.Now()
	for {
		if t.closed.Load() {
			return false
		}
		ctx, cancel := t.deadline(start)
		err := t.wake.Wait(ctx)
		cancel()
		if t.closed.Load() {
			return false
		}
		if err != nil {
			t.consumeTrigger()
			return true
		}
	}
}

// deadline returns a context ending at the next tick after start.
func (t *Timer) deadline(start time.Time) (context.Context, context.CancelFunc) {
	var at time.Time
	if interval := time.Duration(t.interval.Load()); interval > 0 {
		at = start.Add(interval)
	}
	t.mu.Lock()
	if !t.triggerAt.IsZero() && (at.IsZero() || t.triggerAt.Before(at)) {
		at = t.triggerAt
	}
	t.mu.Unlock()
	if at.IsZero() {
		return context.WithCancel(context.Background())
	}
	return context.WithDeadline(context.Background(), at)
}

func (t *Timer) consumeTrigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.triggerAt.IsZero() && !t.triggerAt.After(time.Now()) {
		t.triggerAt = time.Time{}
	}
}

// SetInterval changes the wait interval. The change applies to the wait in
// progress.
func (t *Timer) SetInterval(ns time.Duration) {
	t.interval.Store(int64(ns))
	t.wake.Set()
}

// Interval returns the current interval.
func (t *Timer) Interval() time.Duration {
	return time.Duration(t.interval.Load())
}

// Trigger forces an immediate tick.
func (t *Timer) Trigger() {
	t.TriggerAfter(0)
}

// TriggerAfter forces a tick after duration, unless a regular tick comes
// first.
func (t *Timer) TriggerAfter(duration time.Duration) {
	t.mu.Lock()
	t.triggerAt = time.Now().Add(duration)
	t.mu.Unlock()
	t.wake.Set()
}

// Close makes every current and future call to Next return false.
func (t *Timer) Close() {
	t.closed.Store(true)
	t.wake.Set()
}

// Start runs keephouse on every tick in a goroutine until Stop is called.
func (t *Timer) Start(keephouse func()) {
	t.svm.Go(func(svm *sync2.ServiceManager) {
		for t.Next() {
			if !svm.IsRunning() {
				return
			}
			keephouse()
		}
	})
}

// Stop closes the timer and waits for the goroutine started by Start to
// return.
func (t *Timer) Stop() {
	t.Close()
	t.svm.Stop()
}

// Running returns true if Start was called and the timer is not stopped.
func (t *Timer) Running() bool {
	return t.svm.IsRunning()
}
