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
	"github.com/StephenCleary/AsyncEx-sub001/go/sync2/waitqueue"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// Semaphore is a counting semaphore with FIFO waiters.
type Semaphore struct {
	mu    sync.Mutex
	count int64
	queue waitqueue.Queue[struct{}]
	id    ids
}

// NewSemaphore returns a semaphore holding initial slots. It panics if
// initial is negative.
func NewSemaphore(initial int64) *Semaphore {
	if initial < 0 {
		panic(vterrors.Errorf(vterrors.InvalidArgument, "semaphore count must be non-negative, got %d", initial))
	}
	return &Semaphore{count: initial, queue: waitqueue.New[struct{}]()}
}

// WaitAsync takes one slot. The returned future completes once the slot is
// taken, or fails with ctx.Err() if ctx is done first.
func (s *Semaphore) WaitAsync(ctx context.Context) *future.Future[struct{}] {
	s.mu.Lock()
	if s.count > 0 {
		s.count--
		s.mu.Unlock()
		return future.Completed(struct{}{})
	}
	f := enqueueWait(s.queue, &s.mu, ctx, primitiveSemaphore)
	s.mu.Unlock()
	return f
}

// Wait blocks until a slot is taken or ctx is done.
func (s *Semaphore) Wait(ctx context.Context) error {
	_, err := s.WaitAsync(ctx).Wait()
	return err
}

// LockAsync takes one slot and returns a guard giving it back.
func (s *Semaphore) LockAsync(ctx context.Context) *future.Future[*Guard] {
	return future.Map(s.WaitAsync(ctx), func(struct{}) *Guard {
		return newGuard(func() { _ = s.Release(1) })
	})
}

// Lock blocks until a slot is taken and returns a guard giving it back.
func (s *Semaphore) Lock(ctx context.Context) (*Guard, error) {
	return s.LockAsync(ctx).Wait()
}

// Release gives back n slots. Up to n waiters are woken in order and the
// rest is added to the count. Releasing past the representable count fails
// without changing anything.
func (s *Semaphore) Release(n int64) error {
	if n < 0 {
		return vterrors.Errorf(vterrors.InvalidArgument, "cannot release a negative number of slots: %d", n)
	}
	if n == 0 {
		return nil
	}

	s.mu.Lock()
	if s.count > math.MaxInt64-n {
		s.mu.Unlock()
		return vterrors.Errorf(vterrors.FailedPrecondition, "semaphore count overflow: %d + %d", s.count, n)
	}
	var completions []func()
	for ; n > 0 && !s.queue.IsEmpty(); n-- {
		completions = append(completions, s.queue.Dequeue(struct{}{}))
	}
	s.count += n
	s.mu.Unlock()

	for _, complete := range completions {
		complete()
	}
	return nil
}

// CurrentCount returns the number of free slots.
func (s *Semaphore) CurrentCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// ID returns the diagnostic id of the semaphore.
func (s *Semaphore) ID() int64 {
	return s.id.get()
}
