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
	"sync/atomic"
)

// InvokeQueue serializes calls to one operation. Invocations run one at a
// time in the order they were made, so their results are delivered in that
// order too.
type InvokeQueue[T any] struct {
	op      func(ctx context.Context) (T, error)
	lock    *Lock
	pending atomic.Int64
}

// NewInvokeQueue returns a queue invoking op.
func NewInvokeQueue[T any](op func(ctx context.Context) (T, error)) *InvokeQueue[T] {
	return &InvokeQueue[T]{op: op, lock: NewLock()}
}

// Invoke waits for the earlier invocations to finish, then runs the
// operation. If ctx ends while waiting, the operation is not run.
func (q *InvokeQueue[T]) Invoke(ctx context.Context) (T, error) {
	q.pending.Add(1)
	defer q.pending.Add(-1)

	g, err := q.lock.Lock(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer g.Release()
	return q.op(ctx)
}

// Pending returns the number of invocations running or waiting to run.
func (q *InvokeQueue[T]) Pending() int64 {
	return q.pending.Load()
}
