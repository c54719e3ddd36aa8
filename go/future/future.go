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

// Package future implements one-shot futures. A Promise is the writable side
// held by whoever will produce the result; the Future it hands out is the
// read-only side held by the waiter.
package future

import (
	"context"
	"sync"
)

// Future is the eventual result of an operation.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
	callbacks []func()
}

// Promise completes its Future exactly once.
type Promise[T any] struct {
	f *Future[T]
}

// NewPromise returns a promise with a pending future.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{f: &Future[T]{done: make(chan struct{})}}
}

// Future returns the read-only side of the promise.
func (p *Promise[T]) Future() *Future[T] {
	return p.f
}

// TrySetResult completes the future with v. It returns false if the future
// was already complete.
func (p *Promise[T]) TrySetResult(v T) bool {
	return p.f.complete(v, nil)
}

// TrySetError fails the future with err.
func (p *Promise[T]) TrySetError(err error) bool {
	var zero T
	return p.f.complete(zero, err)
}

// TryComplete completes the future with either v or err.
func (p *Promise[T]) TryComplete(v T, err error) bool {
	return p.f.complete(v, err)
}

func (f *Future[T]) complete(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.value = v
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return true
}

// Completed returns a future already completed with v.
func Completed[T any](v T) *Future[T] {
	p := NewPromise[T]()
	p.TrySetResult(v)
	return p.f
}

// Failed returns a future already failed with err.
func Failed[T any](err error) *Future[T] {
	p := NewPromise[T]()
	p.TrySetError(err)
	return p.f
}

// Done returns a channel that is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// TryResult returns the result if the future has completed. The last return
// value is false while the future is pending.
func (f *Future[T]) TryResult() (T, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.completed {
		var zero T
		return zero, nil, false
	}
	return f.value, f.err, true
}

// Wait blocks until the future completes.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Await blocks until the future completes or ctx is done. When ctx ends
// first, only the wait is abandoned: the underlying operation keeps running
// and may still complete the future.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers fn to run once the future completes. Callbacks run
// on the goroutine that completes the future, in registration order, and
// must not block. If the future is already complete, fn runs immediately on
// the calling goroutine.
func (f *Future[T]) OnComplete(fn func()) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fn()
}

// WithContext returns a future that follows f, but fails with ctx.Err() if
// ctx ends before f completes.
func WithContext[T any](ctx context.Context, f *Future[T]) *Future[T] {
	if ctx.Done() == nil || f.IsDone() {
		return f
	}
	p := NewPromise[T]()
	stop := context.AfterFunc(ctx, func() {
		p.TrySetError(ctx.Err())
	})
	f.OnComplete(func() {
		stop()
		p.TryComplete(f.value, f.err)
	})
	return p.f
}

// Map returns a future completed with fn applied to f's value once f
// succeeds, or with f's error. fn runs on the goroutine completing f.
func Map[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	p := NewPromise[U]()
	f.OnComplete(func() {
		if f.err != nil {
			p.TrySetError(f.err)
			return
		}
		p.TrySetResult(fn(f.value))
	})
	return p.f
}
