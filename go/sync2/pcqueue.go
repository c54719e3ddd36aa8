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
	"errors"

	"github.com/gammazero/deque"

	"github.com/StephenCleary/AsyncEx-sub001/go/vt/log"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// ErrQueueCompleted is returned when adding to a queue that was completed,
// or taking from one that was completed and drained.
var ErrQueueCompleted = vterrors.New(vterrors.FailedPrecondition, "producer/consumer queue has been completed")

// ProducerConsumerQueue is a bounded FIFO queue. Producers wait while it is
// full and consumers wait while it is empty.
type ProducerConsumerQueue[T any] struct {
	lock     *Lock
	notFull  *ConditionVariable
	notEmpty *ConditionVariable

	// Guarded by lock.
	items     deque.Deque[T]
	capacity  int
	completed bool
}

// NewProducerConsumerQueue returns a queue holding at most capacity items,
// seeded with items. It panics if capacity is not positive or smaller than
// the number of seed items.
func NewProducerConsumerQueue[T any](capacity int, items ...T) *ProducerConsumerQueue[T] {
	if capacity <= 0 {
		panic(vterrors.Errorf(vterrors.InvalidArgument, "queue capacity must be positive, got %d", capacity))
	}
	if len(items) > capacity {
		panic(vterrors.Errorf(vterrors.InvalidArgument, "queue capacity %d is smaller than the %d seed items", capacity, len(items)))
	}
	lock := NewLock()
	q := &ProducerConsumerQueue[T]{
		lock:     lock,
		notFull:  NewConditionVariable(lock),
		notEmpty: NewConditionVariable(lock),
		capacity: capacity,
	}
	for _, item := range items {
		q.items.PushBack(item)
	}
	return q
}

// errNotClaimed is returned when an operation was ready but its claim
// hook refused it.
var errNotClaimed = vterrors.New(vterrors.Aborted, "queue operation was not claimed")

// enqueue adds item, waiting for room. If claim is not nil, it is called
// under the queue lock once there is room, and the item is only added if it
// returns true.
func (q *ProducerConsumerQueue[T]) enqueue(ctx context.Context, item T, claim func() bool) error {
	g, err := q.lock.Lock(ctx)
	if err != nil {
		return err
	}
	defer g.Release()

	for q.items.Len() >= q.capacity && !q.completed {
		if err := q.notFull.Wait(ctx); err != nil {
			return err
		}
	}
	if q.completed {
		return ErrQueueCompleted
	}
	if claim != nil && !claim() {
		// Pass on the wakeup this operation may have consumed.
		q.notFull.Notify()
		return errNotClaimed
	}
	q.items.PushBack(item)
	q.notEmpty.Notify()
	return nil
}

// dequeue takes the oldest item, waiting for one. A non-nil claim is
// consulted like in enqueue before the item is taken.
func (q *ProducerConsumerQueue[T]) dequeue(ctx context.Context, claim func() bool) (T, error) {
	var zero T
	g, err := q.lock.Lock(ctx)
	if err != nil {
		return zero, err
	}
	defer g.Release()

	for q.items.Len() == 0 && !q.completed {
		if err := q.notEmpty.Wait(ctx); err != nil {
			return zero, err
		}
	}
	if q.items.Len() == 0 {
		return zero, ErrQueueCompleted
	}
	if claim != nil && !claim() {
		q.notEmpty.Notify()
		return zero, errNotClaimed
	}
	item := q.items.PopFront()
	q.notFull.Notify()
	return item, nil
}

// Enqueue adds item to the queue, waiting while it is full. It fails with
// ErrQueueCompleted once CompleteAdding was called.
func (q *ProducerConsumerQueue[T]) Enqueue(ctx context.Context, item T) error {
	return q.enqueue(ctx, item, nil)
}

// TryEnqueue is like Enqueue but reports a completed queue by returning
// false instead of an error.
func (q *ProducerConsumerQueue[T]) TryEnqueue(ctx context.Context, item T) (bool, error) {
	err := q.enqueue(ctx, item, nil)
	if errors.Is(err, ErrQueueCompleted) {
		return false, nil
	}
	return err == nil, err
}

// Dequeue takes the oldest item, waiting while the queue is empty. It fails
// with ErrQueueCompleted once the queue is completed and drained.
func (q *ProducerConsumerQueue[T]) Dequeue(ctx context.Context) (T, error) {
	return q.dequeue(ctx, nil)
}

// TryDequeue is like Dequeue but reports a completed and drained queue by
// returning false instead of an error.
func (q *ProducerConsumerQueue[T]) TryDequeue(ctx context.Context) (T, bool, error) {
	item, err := q.dequeue(ctx, nil)
	if errors.Is(err, ErrQueueCompleted) {
		return item, false, nil
	}
	return item, err == nil, err
}

// OutputAvailable waits until the queue has an item or is completed and
// drained, and reports which.
func (q *ProducerConsumerQueue[T]) OutputAvailable(ctx context.Context) (bool, error) {
	g, err := q.lock.Lock(ctx)
	if err != nil {
		return false, err
	}
	defer g.Release()

	for q.items.Len() == 0 && !q.completed {
		if err := q.notEmpty.Wait(ctx); err != nil {
			return false, err
		}
	}
	available := q.items.Len() > 0
	if available {
		// Leave the item, and the wakeup, to a consumer.
		q.notEmpty.Notify()
	}
	return available, nil
}

// CompleteAdding marks the queue as complete. Blocked producers fail,
// consumers drain the remaining items and then fail.
func (q *ProducerConsumerQueue[T]) CompleteAdding() {
	g, _ := q.lock.Lock(context.Background())
	defer g.Release()
	if q.completed {
		return
	}
	q.completed = true
	q.notFull.NotifyAll()
	q.notEmpty.NotifyAll()
	log.DebugS("producer/consumer queue completed for adding", "queue", q.lock.ID(), "items", q.items.Len())
}

// Len returns the number of queued items.
func (q *ProducerConsumerQueue[T]) Len() int {
	g, _ := q.lock.Lock(context.Background())
	defer g.Release()
	return q.items.Len()
}

// ID returns the diagnostic id of the queue.
func (q *ProducerConsumerQueue[T]) ID() int64 {
	return q.lock.ID()
}
