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

// Lock is a mutual exclusion lock whose waiters are futures. It is fair:
// waiters acquire the lock in the order they asked for it. It is not
// reentrant.
type Lock struct {
	mu    sync.Mutex
	taken bool
	queue waitqueue.Queue[*Guard]
	id    ids
}

// NewLock returns an unlocked Lock.
func NewLock() *Lock {
	return &Lock{queue: waitqueue.New[*Guard]()}
}

// LockAsync asks for the lock. The returned future completes with a guard
// once the lock is held. If the lock is free it is granted immediately,
// even when ctx is already done; otherwise the request is queued and ends
// with ctx.Err() if ctx is done before the lock is handed over.
func (l *Lock) LockAsync(ctx context.Context) *future.Future[*Guard] {
	l.mu.Lock()
	if !l.taken {
		l.taken = true
		l.mu.Unlock()
		return future.Completed(newGuard(l.release))
	}
	f := enqueueWait(l.queue, &l.mu, ctx, primitiveLock)
	l.mu.Unlock()
	return f
}

// Lock blocks until the lock is held or ctx is done.
func (l *Lock) Lock(ctx context.Context) (*Guard, error) {
	return l.LockAsync(ctx).Wait()
}

// release hands the lock to the next waiter, or marks it free.
func (l *Lock) release() {
	l.mu.Lock()
	if l.queue.IsEmpty() {
		l.taken = false
		l.mu.Unlock()
		return
	}
	complete := l.queue.Dequeue(newGuard(l.release))
	l.mu.Unlock()
	complete()
}

// ID returns the diagnostic id of the lock.
func (l *Lock) ID() int64 {
	return l.id.get()
}
