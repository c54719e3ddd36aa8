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

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
	"github.com/StephenCleary/AsyncEx-sub001/go/sync2/waitqueue"
)

// ConditionVariable is a Mesa-style condition variable bound to a Lock.
// Every method must be called while holding that lock. A woken waiter
// re-acquires the lock before its wait completes, so the condition it waited
// for must be checked again.
type ConditionVariable struct {
	lock  *Lock
	mu    sync.Mutex
	queue waitqueue.Queue[struct{}]
	id    ids
}

// NewConditionVariable returns a condition variable bound to lock.
func NewConditionVariable(lock *Lock) *ConditionVariable {
	return &ConditionVariable{lock: lock, queue: waitqueue.New[struct{}]()}
}

// Notify wakes the oldest waiter, if any.
func (cv *ConditionVariable) Notify() {
	cv.mu.Lock()
	if cv.queue.IsEmpty() {
		cv.mu.Unlock()
		return
	}
	complete := cv.queue.Dequeue(struct{}{})
	cv.mu.Unlock()
	complete()
}

// NotifyAll wakes every waiter.
func (cv *ConditionVariable) NotifyAll() {
	cv.mu.Lock()
	complete := cv.queue.DequeueAll(struct{}{})
	cv.mu.Unlock()
	complete()
}

// WaitAsync releases the lock and waits for a notification. The returned
// future completes once the lock has been re-acquired, whether the wait was
// notified or ended by ctx; in the latter case it fails with ctx.Err(). The
// guard the caller acquired the lock with stays valid and still releases it.
func (cv *ConditionVariable) WaitAsync(ctx context.Context) *future.Future[struct{}] {
	cv.mu.Lock()
	woken := enqueueWait(cv.queue, &cv.mu, ctx, primitiveConditionVariable)
	cv.mu.Unlock()

	cv.lock.release()

	p := future.NewPromise[struct{}]()
	woken.OnComplete(func() {
		_, err, _ := woken.TryResult()
		relock := cv.lock.LockAsync(context.Background())
		relock.OnComplete(func() {
			p.TryComplete(struct{}{}, err)
		})
	})
	return p.Future()
}

// Wait blocks until notified or ctx is done. The lock is held again when it
// returns.
func (cv *ConditionVariable) Wait(ctx context.Context) error {
	_, err := cv.WaitAsync(ctx).Wait()
	return err
}

// ID returns the diagnostic id of the condition variable.
func (cv *ConditionVariable) ID() int64 {
	return cv.id.get()
}

// Monitor is a Lock with a bound ConditionVariable.
type Monitor struct {
	lock *Lock
	cv   *ConditionVariable
}

// NewMonitor returns an unlocked monitor.
func NewMonitor() *Monitor {
	lock := NewLock()
	return &Monitor{lock: lock, cv: NewConditionVariable(lock)}
}

// EnterAsync asks for the monitor's lock.
func (m *Monitor) EnterAsync(ctx context.Context) *future.Future[*Guard] {
	return m.lock.LockAsync(ctx)
}

// Enter blocks until the monitor's lock is held or ctx is done.
func (m *Monitor) Enter(ctx context.Context) (*Guard, error) {
	return m.lock.Lock(ctx)
}

// WaitAsync releases the monitor and waits for a notification. See
// ConditionVariable.WaitAsync.
func (m *Monitor) WaitAsync(ctx context.Context) *future.Future[struct{}] {
	return m.cv.WaitAsync(ctx)
}

// Wait blocks until notified or ctx is done, and re-enters the monitor.
func (m *Monitor) Wait(ctx context.Context) error {
	return m.cv.Wait(ctx)
}

// Notify wakes one waiter.
func (m *Monitor) Notify() {
	m.cv.Notify()
}

// NotifyAll wakes every waiter.
func (m *Monitor) NotifyAll() {
	m.cv.NotifyAll()
}

// ID returns the diagnostic id of the monitor's lock.
func (m *Monitor) ID() int64 {
	return m.lock.ID()
}
