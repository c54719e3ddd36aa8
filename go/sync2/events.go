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
	"sync"
	"time"

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
	"github.com/StephenCleary/AsyncEx-sub001/go/sync2/waitqueue"
)

// ManualResetEvent is a level-triggered signal. Once set, every current and
// future waiter is released until the event is reset.
type ManualResetEvent struct {
	mu sync.Mutex
	// signal completes when the event is set. Reset installs a new one.
	signal *future.Promise[struct{}]
	id     ids
}

// NewManualResetEvent returns an event, initially set if set is true.
func NewManualResetEvent(set bool) *ManualResetEvent {
	e := &ManualResetEvent{signal: future.NewPromise[struct{}]()}
	if set {
		e.signal.TrySetResult(struct{}{})
	}
	return e
}

// IsSet reports whether the event is set.
func (e *ManualResetEvent) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signal.Future().IsDone()
}

// Set sets the event and releases all waiters.
func (e *ManualResetEvent) Set() {
	e.mu.Lock()
	signal := e.signal
	e.mu.Unlock()
	signal.TrySetResult(struct{}{})
}

// Reset unsets the event. It does nothing if the event is not set.
func (e *ManualResetEvent) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.signal.Future().IsDone() {
		e.signal = future.NewPromise[struct{}]()
	}
}

// WaitAsync returns a future completing once the event is set. All waiters
// of one set period share the same future.
func (e *ManualResetEvent) WaitAsync() *future.Future[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signal.Future()
}

// Wait blocks until the event is set or ctx is done.
func (e *ManualResetEvent) Wait(ctx context.Context) error {
	_, err := e.WaitAsync().Await(ctx)
	return err
}

// WaitTimeout waits up to d for the event to be set and reports whether it
// was. An event set at the same time the timeout fires counts as set.
func (e *ManualResetEvent) WaitTimeout(d time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return e.Wait(ctx) == nil
}

// ID returns the diagnostic id of the event.
func (e *ManualResetEvent) ID() int64 {
	return e.id.get()
}

// AutoResetEvent is an edge-triggered signal. Each Set releases at most one
// waiter; if nobody is waiting, the event stays set until the next wait
// consumes it.
type AutoResetEvent struct {
	mu    sync.Mutex
	set   bool
	queue waitqueue.Queue[struct{}]
	id    ids
}

// NewAutoResetEvent returns an event, initially set if set is true.
func NewAutoResetEvent(set bool) *AutoResetEvent {
	return &AutoResetEvent{set: set, queue: waitqueue.New[struct{}]()}
}

// IsSet reports whether the event is set.
func (e *AutoResetEvent) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Set releases the oldest waiter, or sets the event if there is none.
func (e *AutoResetEvent) Set() {
	e.mu.Lock()
	if e.queue.IsEmpty() {
		e.set = true
		e.mu.Unlock()
		return
	}
	complete := e.queue.Dequeue(struct{}{})
	e.mu.Unlock()
	complete()
}

// Reset unsets the event.
func (e *AutoResetEvent) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set = false
}

// WaitAsync consumes the event. The returned future completes when a Set
// is handed to this waiter, or fails with ctx.Err() if ctx ends first. A
// waiter that failed was never handed a Set.
func (e *AutoResetEvent) WaitAsync(ctx context.Context) *future.Future[struct{}] {
	e.mu.Lock()
	if e.set {
		e.set = false
		e.mu.Unlock()
		return future.Completed(struct{}{})
	}
	f := enqueueWait(e.queue, &e.mu, ctx, primitiveAutoResetEvent)
	e.mu.Unlock()
	return f
}

// Wait blocks until the event is consumed or ctx is done.
func (e *AutoResetEvent) Wait(ctx context.Context) error {
	_, err := e.WaitAsync(ctx).Wait()
	return err
}

// WaitTimeout waits up to d to consume the event and reports whether it did.
func (e *AutoResetEvent) WaitTimeout(d time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return e.Wait(ctx) == nil
}

// ID returns the diagnostic id of the event.
func (e *AutoResetEvent) ID() int64 {
	return e.id.get()
}
