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
	"sync"

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// CountdownEvent is set while its count is zero. The count may go negative.
type CountdownEvent struct {
	mu    sync.Mutex
	count int64
	// signal completes once the count reaches zero. Leaving zero installs a
	// new one, so waiters of one zero period share a future.
	signal *future.Promise[struct{}]
	id     ids
}

// NewCountdownEvent returns an event with the given count.
func NewCountdownEvent(count int64) *CountdownEvent {
	ce := &CountdownEvent{count: count, signal: future.NewPromise[struct{}]()}
	if count == 0 {
		ce.signal.TrySetResult(struct{}{})
	}
	return ce
}

// CurrentCount returns the count.
func (ce *CountdownEvent) CurrentCount() int64 {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.count
}

// WaitAsync returns a future completing once the count reaches zero.
func (ce *CountdownEvent) WaitAsync() *future.Future[struct{}] {
	ce.mu.Lock()
	defer ce.mu.Unlock()
	return ce.signal.Future()
}

// Wait blocks until the count reaches zero or ctx is done.
func (ce *CountdownEvent) Wait(ctx context.Context) error {
	_, err := ce.WaitAsync().Await(ctx)
	return err
}

// Signal decrements the count.
func (ce *CountdownEvent) Signal() error {
	return ce.modify(-1)
}

// SignalN decrements the count by n.
func (ce *CountdownEvent) SignalN(n int64) error {
	if n == math.MinInt64 {
		return vterrors.Errorf(vterrors.FailedPrecondition, "countdown signal out of range: %d", n)
	}
	return ce.modify(-n)
}

// AddCount increments the count.
func (ce *CountdownEvent) AddCount() error {
	return ce.modify(1)
}

// AddCountN increments the count by n.
func (ce *CountdownEvent) AddCountN(n int64) error {
	return ce.modify(n)
}

// modify applies diff to the count. Reaching zero sets the event and
// leaving zero resets it. Jumping across zero in one step pulses the event,
// releasing whoever waits on the current future while later waiters block.
// The future is swapped under mu, in step with the count, and completed
// after mu is released.
func (ce *CountdownEvent) modify(diff int64) error {
	if diff == 0 {
		return nil
	}
	ce.mu.Lock()
	oldCount := ce.count
	newCount := oldCount + diff
	if (diff > 0 && newCount < oldCount) || (diff < 0 && newCount > oldCount) {
		ce.mu.Unlock()
		return vterrors.Errorf(vterrors.FailedPrecondition, "countdown count overflow: %d + %d", oldCount, diff)
	}
	ce.count = newCount

	var release *future.Promise[struct{}]
	switch {
	case oldCount == 0:
		ce.signal = future.NewPromise[struct{}]()
	case newCount == 0:
		release = ce.signal
	case (oldCount < 0) != (newCount < 0):
		release = ce.signal
		ce.signal = future.NewPromise[struct{}]()
	}
	ce.mu.Unlock()

	if release != nil {
		release.TrySetResult(struct{}{})
	}
	return nil
}

// ID returns the diagnostic id of the event.
func (ce *CountdownEvent) ID() int64 {
	return ce.id.get()
}
