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

// Package waitqueue holds the pending waiters of a synchronization primitive.
//
// A Queue is not safe for concurrent use: it is always mutated under the
// owning primitive's mutex. Operations that complete waiters never do so
// directly. They return a func that performs the completions, and the owner
// calls it after releasing its mutex so that continuations attached to the
// waiters' futures never run under the owner's lock.
package waitqueue

import (
	"context"
	"sync"

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
	"github.com/StephenCleary/AsyncEx-sub001/go/list"
)

// Queue is an ordered collection of pending waiters.
type Queue[T any] interface {
	// IsEmpty reports whether there are no waiters.
	IsEmpty() bool
	// Len returns the number of waiters.
	Len() int
	// Enqueue adds a new waiter at the tail and returns its future.
	Enqueue() *future.Future[T]
	// Dequeue removes the head waiter; calling the returned func completes
	// it with result. The queue must not be empty.
	Dequeue(result T) func()
	// DequeueAll removes every waiter; the returned func completes them all
	// with result, in queue order.
	DequeueAll(result T) func()
	// TryCancel removes the waiter owning f, if it is still queued. The
	// returned func fails it with err.
	TryCancel(f *future.Future[T], err error) (func(), bool)
	// CancelAll removes every waiter; the returned func fails them with err.
	CancelAll(err error) func()
}

// New returns an empty FIFO queue.
func New[T any]() Queue[T] {
	return &fifo[T]{}
}

type fifo[T any] struct {
	waiters list.List[*future.Promise[T]]
}

func (q *fifo[T]) IsEmpty() bool { return q.waiters.Len() == 0 }

func (q *fifo[T]) Len() int { return q.waiters.Len() }

func (q *fifo[T]) Enqueue() *future.Future[T] {
	p := future.NewPromise[T]()
	q.waiters.PushBack(p)
	return p.Future()
}

func (q *fifo[T]) Dequeue(result T) func() {
	front := q.waiters.Front()
	if front == nil {
		panic("waitqueue: Dequeue on empty queue")
	}
	p := q.waiters.Remove(front)
	return func() { p.TrySetResult(result) }
}

func (q *fifo[T]) DequeueAll(result T) func() {
	promises := q.drain()
	return func() {
		for _, p := range promises {
			p.TrySetResult(result)
		}
	}
}

func (q *fifo[T]) TryCancel(f *future.Future[T], err error) (func(), bool) {
	for e := q.waiters.Front(); e != nil; e = e.Next() {
		if e.Value.Future() == f {
			p := q.waiters.Remove(e)
			return func() { p.TrySetError(err) }, true
		}
	}
	return nil, false
}

func (q *fifo[T]) CancelAll(err error) func() {
	promises := q.drain()
	return func() {
		for _, p := range promises {
			p.TrySetError(err)
		}
	}
}

func (q *fifo[T]) drain() []*future.Promise[T] {
	promises := make([]*future.Promise[T], 0, q.waiters.Len())
	for e := q.waiters.Front(); e != nil; e = q.waiters.Front() {
		promises = append(promises, q.waiters.Remove(e))
	}
	return promises
}

// Enqueue adds a waiter to q, which must be guarded by mu, and hooks the
// cancellation of ctx to it. The caller must hold mu. When ctx ends while the
// waiter is still queued, it is removed under mu and failed with ctx.Err().
// A waiter that was already dequeued is unaffected.
func Enqueue[T any](q Queue[T], mu sync.Locker, ctx context.Context) *future.Future[T] {
	f := q.Enqueue()
	OnCancel(ctx, f, func() {
		mu.Lock()
		complete, ok := q.TryCancel(f, ctx.Err())
		mu.Unlock()
		if ok {
			complete()
		}
	})
	return f
}

// OnCancel runs fn on its own goroutine if ctx ends before f completes.
// The registration is dropped as soon as f completes.
func OnCancel[T any](ctx context.Context, f *future.Future[T], fn func()) {
	if ctx.Done() == nil {
		return
	}
	stop := context.AfterFunc(ctx, fn)
	f.OnComplete(func() { stop() })
}
