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
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// raceSignal is shared by the operations of one race across several
// queues. The first operation able to complete claims it, which aborts all
// the others.
type raceSignal struct {
	ctx    context.Context
	cancel context.CancelFunc
	won    atomic.Bool
}

func newRaceSignal(parent context.Context) *raceSignal {
	ctx, cancel := context.WithCancel(parent)
	return &raceSignal{ctx: ctx, cancel: cancel}
}

// claim reports whether the caller won the race. It is the claim hook of
// the queue operations taking part.
func (r *raceSignal) claim() bool {
	if !r.won.CompareAndSwap(false, true) {
		return false
	}
	r.cancel()
	return true
}

// raceQueues runs op against every queue concurrently. All operations share
// one race signal, so at most one of them takes effect. It returns the index
// of the winning queue, or -1 with the errors of every operation.
func raceQueues[T any](ctx context.Context, queues []*ProducerConsumerQueue[T], op func(i int, race *raceSignal) error) (int, []error) {
	race := newRaceSignal(ctx)
	defer race.cancel()

	winner := -1
	errs := make([]error, len(queues))
	var g errgroup.Group
	for i := range queues {
		g.Go(func() error {
			if err := op(i, race); err != nil {
				errs[i] = err
				return nil
			}
			// Only the operation that claimed the race gets here.
			winner = i
			return nil
		})
	}
	_ = g.Wait()
	return winner, errs
}

// raceResult turns the outcome of a lost race into an error. ok is false
// when every queue was completed.
func raceResult(ctx context.Context, errs []error) (ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return true, err
	}
	for _, err := range errs {
		if !errors.Is(err, ErrQueueCompleted) {
			return true, vterrors.Aggregate(errs)
		}
	}
	return false, vterrors.Aggregate(errs)
}

func checkQueues[T any](queues []*ProducerConsumerQueue[T]) error {
	if len(queues) == 0 {
		return vterrors.New(vterrors.InvalidArgument, "no queues to race")
	}
	return nil
}

// TryEnqueueToAny adds item to exactly one of queues, whichever has room
// first, and returns its index. It returns -1 if every queue was completed.
func TryEnqueueToAny[T any](ctx context.Context, queues []*ProducerConsumerQueue[T], item T) (int, error) {
	if err := checkQueues(queues); err != nil {
		return -1, err
	}
	winner, errs := raceQueues(ctx, queues, func(i int, race *raceSignal) error {
		return queues[i].enqueue(race.ctx, item, race.claim)
	})
	if winner >= 0 {
		return winner, nil
	}
	if ok, err := raceResult(ctx, errs); ok {
		return -1, err
	}
	return -1, nil
}

// EnqueueToAny is like TryEnqueueToAny but fails with ErrQueueCompleted if
// every queue was completed.
func EnqueueToAny[T any](ctx context.Context, queues []*ProducerConsumerQueue[T], item T) (int, error) {
	if err := checkQueues(queues); err != nil {
		return -1, err
	}
	winner, errs := raceQueues(ctx, queues, func(i int, race *raceSignal) error {
		return queues[i].enqueue(race.ctx, item, race.claim)
	})
	if winner >= 0 {
		return winner, nil
	}
	if ok, err := raceResult(ctx, errs); ok {
		return -1, err
	}
	return -1, ErrQueueCompleted
}

// TryDequeueFromAny takes one item from whichever of queues has one first
// and returns it with the queue's index. The index is -1 if every queue was
// completed and drained.
func TryDequeueFromAny[T any](ctx context.Context, queues []*ProducerConsumerQueue[T]) (T, int, error) {
	var zero T
	if err := checkQueues(queues); err != nil {
		return zero, -1, err
	}
	items := make([]T, len(queues))
	winner, errs := raceQueues(ctx, queues, func(i int, race *raceSignal) error {
		item, err := queues[i].dequeue(race.ctx, race.claim)
		items[i] = item
		return err
	})
	if winner >= 0 {
		return items[winner], winner, nil
	}
	if ok, err := raceResult(ctx, errs); ok {
		return zero, -1, err
	}
	return zero, -1, nil
}

// DequeueFromAny is like TryDequeueFromAny but fails with ErrQueueCompleted
// if every queue was completed and drained.
func DequeueFromAny[T any](ctx context.Context, queues []*ProducerConsumerQueue[T]) (T, int, error) {
	item, i, err := TryDequeueFromAny(ctx, queues)
	if err == nil && i < 0 {
		return item, -1, ErrQueueCompleted
	}
	return item, i, err
}
