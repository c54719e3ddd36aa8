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
	"github.com/StephenCleary/AsyncEx-sub001/go/stats"
	"github.com/StephenCleary/AsyncEx-sub001/go/sync2/waitqueue"
)

const (
	primitiveLock                = "Lock"
	primitiveSemaphore           = "Semaphore"
	primitiveAutoResetEvent      = "AutoResetEvent"
	primitiveConditionVariable   = "ConditionVariable"
	primitiveReaderWriterLock    = "ReaderWriterLock"
	primitiveUpgradeableReader   = "UpgradeableReader"
	primitiveReaderWriterUpgrade = "ReaderWriterUpgrade"
)

var (
	waitsQueued    = stats.NewCountersWithSingleLabel("SyncWaitsQueued", "Number of waits that could not be satisfied immediately", "Primitive")
	waitsCancelled = stats.NewCountersWithSingleLabel("SyncWaitsCancelled", "Number of queued waits abandoned through their context", "Primitive")
	barrierPhases  = stats.NewCounter("SyncBarrierPhases", "Number of completed barrier phases")
)

// enqueueWait queues a waiter on q, which is guarded by mu, and counts it.
// The caller must hold mu.
func enqueueWait[T any](q waitqueue.Queue[T], mu sync.Locker, ctx context.Context, primitive string) *future.Future[T] {
	waitsQueued.Add(primitive, 1)
	f := waitqueue.Enqueue(q, mu, ctx)
	f.OnComplete(func() {
		// Queued waiters only ever fail through cancellation.
		if _, err, _ := f.TryResult(); err != nil {
			waitsCancelled.Add(primitive, 1)
		}
	})
	return f
}
