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
	"sync/atomic"

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
	"github.com/StephenCleary/AsyncEx-sub001/go/sync2/waitqueue"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/log"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// ReaderWriterLock allows many readers or one writer. Writers have
// priority: once a writer is queued, new readers queue behind it. When no
// writer is waiting, every queued reader is released at once.
//
// One reader at a time may hold an UpgradeableReaderKey, which can be
// promoted to a writer without giving up its read access.
type ReaderWriterLock struct {
	mu sync.Mutex
	// locksHeld is -1 while a writer holds the lock, otherwise the number
	// of readers, upgradeable key included.
	locksHeld int64

	writerQueue      waitqueue.Queue[*Guard]
	readerQueue      waitqueue.Queue[*Guard]
	upgradeableQueue waitqueue.Queue[*UpgradeableReaderKey]
	// upgradeQueue holds at most the one pending upgrade of upgradingKey.
	upgradeQueue waitqueue.Queue[*Guard]

	upgradeableHeld bool
	upgradingKey    *UpgradeableReaderKey

	id ids
}

// NewReaderWriterLock returns an unlocked ReaderWriterLock.
func NewReaderWriterLock() *ReaderWriterLock {
	return &ReaderWriterLock{
		writerQueue:      waitqueue.New[*Guard](),
		readerQueue:      waitqueue.New[*Guard](),
		upgradeableQueue: waitqueue.New[*UpgradeableReaderKey](),
		upgradeQueue:     waitqueue.New[*Guard](),
	}
}

// readersMayEnter reports whether a new reader can be granted right away.
// Must be called with mu held.
func (rw *ReaderWriterLock) readersMayEnter() bool {
	return rw.locksHeld >= 0 && rw.writerQueue.IsEmpty() && rw.upgradeQueue.IsEmpty()
}

// ReaderLockAsync asks for read access.
func (rw *ReaderWriterLock) ReaderLockAsync(ctx context.Context) *future.Future[*Guard] {
	rw.mu.Lock()
	if rw.readersMayEnter() {
		rw.locksHeld++
		rw.mu.Unlock()
		return future.Completed(newGuard(rw.releaseReader))
	}
	f := enqueueWait(rw.readerQueue, &rw.mu, ctx, primitiveReaderWriterLock)
	rw.mu.Unlock()
	return f
}

// ReaderLock blocks until read access is granted or ctx is done.
func (rw *ReaderWriterLock) ReaderLock(ctx context.Context) (*Guard, error) {
	return rw.ReaderLockAsync(ctx).Wait()
}

// WriterLockAsync asks for exclusive access. A queued writer that is
// cancelled lets through the readers it was holding back.
func (rw *ReaderWriterLock) WriterLockAsync(ctx context.Context) *future.Future[*Guard] {
	rw.mu.Lock()
	if rw.locksHeld == 0 {
		rw.locksHeld = -1
		rw.mu.Unlock()
		return future.Completed(newGuard(rw.releaseWriter))
	}
	waitsQueued.Add(primitiveReaderWriterLock, 1)
	f := rw.writerQueue.Enqueue()
	waitqueue.OnCancel(ctx, f, func() {
		rw.mu.Lock()
		complete, ok := rw.writerQueue.TryCancel(f, ctx.Err())
		var completions []func()
		if ok {
			completions = append(rw.releaseWaiters(), complete)
		}
		rw.mu.Unlock()
		if ok {
			waitsCancelled.Add(primitiveReaderWriterLock, 1)
		}
		runAll(completions)
	})
	rw.mu.Unlock()
	return f
}

// WriterLock blocks until exclusive access is granted or ctx is done.
func (rw *ReaderWriterLock) WriterLock(ctx context.Context) (*Guard, error) {
	return rw.WriterLockAsync(ctx).Wait()
}

// UpgradeableReaderLockAsync asks for read access that can later be
// upgraded to exclusive access. Only one key is outstanding at a time;
// further requests queue until it is released, without blocking plain
// readers.
func (rw *ReaderWriterLock) UpgradeableReaderLockAsync(ctx context.Context) *future.Future[*UpgradeableReaderKey] {
	rw.mu.Lock()
	if rw.readersMayEnter() && !rw.upgradeableHeld {
		rw.upgradeableHeld = true
		rw.locksHeld++
		rw.mu.Unlock()
		return future.Completed(&UpgradeableReaderKey{rw: rw})
	}
	f := enqueueWait(rw.upgradeableQueue, &rw.mu, ctx, primitiveUpgradeableReader)
	rw.mu.Unlock()
	return f
}

// UpgradeableReaderLock blocks until an upgradeable key is granted or ctx
// is done.
func (rw *ReaderWriterLock) UpgradeableReaderLock(ctx context.Context) (*UpgradeableReaderKey, error) {
	return rw.UpgradeableReaderLockAsync(ctx).Wait()
}

func (rw *ReaderWriterLock) releaseReader() {
	rw.mu.Lock()
	rw.locksHeld--
	completions := rw.releaseWaiters()
	rw.mu.Unlock()
	runAll(completions)
}

func (rw *ReaderWriterLock) releaseWriter() {
	rw.mu.Lock()
	rw.locksHeld = 0
	completions := rw.releaseWaiters()
	rw.mu.Unlock()
	runAll(completions)
}

// releaseWaiters grants the lock to whoever is next in line and returns the
// completions to run once mu is released. A pending upgrade goes first, then
// writers, then all readers at once. Must be called with mu held.
func (rw *ReaderWriterLock) releaseWaiters() []func() {
	if rw.locksHeld == -1 {
		return nil
	}

	if !rw.upgradeQueue.IsEmpty() {
		// The upgrading key holds the last remaining read.
		if rw.locksHeld != 1 {
			return nil
		}
		key := rw.upgradingKey
		key.state = upgradeHeld
		rw.locksHeld = -1
		return []func(){rw.upgradeQueue.Dequeue(newGuard(key.downgrade))}
	}

	if !rw.writerQueue.IsEmpty() {
		if rw.locksHeld != 0 {
			return nil
		}
		rw.locksHeld = -1
		return []func(){rw.writerQueue.Dequeue(newGuard(rw.releaseWriter))}
	}

	var completions []func()
	for !rw.readerQueue.IsEmpty() {
		rw.locksHeld++
		completions = append(completions, rw.readerQueue.Dequeue(newGuard(rw.releaseReader)))
	}
	if !rw.upgradeableHeld && !rw.upgradeableQueue.IsEmpty() {
		rw.upgradeableHeld = true
		rw.locksHeld++
		completions = append(completions, rw.upgradeableQueue.Dequeue(&UpgradeableReaderKey{rw: rw}))
	}
	return completions
}

// ID returns the diagnostic id of the lock.
func (rw *ReaderWriterLock) ID() int64 {
	return rw.id.get()
}

type upgradeState int

const (
	upgradeNone upgradeState = iota
	upgradePending
	upgradeHeld
)

// UpgradeableReaderKey is read access to a ReaderWriterLock that may be
// upgraded to exclusive access. Release gives up the key together with any
// upgrade it holds or is waiting for.
type UpgradeableReaderKey struct {
	rw       *ReaderWriterLock
	released atomic.Bool

	// Guarded by rw.mu.
	state   upgradeState
	pending *future.Future[*Guard]
}

// UpgradeAsync asks for exclusive access on top of the key's read access.
// The returned future completes with a guard whose release downgrades back
// to read access. It fails synchronously if the key was released or already
// has an upgrade pending or held.
func (k *UpgradeableReaderKey) UpgradeAsync(ctx context.Context) (*future.Future[*Guard], error) {
	rw := k.rw
	rw.mu.Lock()
	if k.released.Load() {
		rw.mu.Unlock()
		return nil, vterrors.New(vterrors.FailedPrecondition, "upgradeable reader key already released")
	}
	if k.state != upgradeNone {
		rw.mu.Unlock()
		return nil, vterrors.New(vterrors.FailedPrecondition, "upgradeable reader key is already upgrading or upgraded")
	}
	if rw.locksHeld == 1 {
		k.state = upgradeHeld
		rw.locksHeld = -1
		rw.mu.Unlock()
		return future.Completed(newGuard(k.downgrade)), nil
	}

	waitsQueued.Add(primitiveReaderWriterUpgrade, 1)
	k.state = upgradePending
	rw.upgradingKey = k
	f := rw.upgradeQueue.Enqueue()
	k.pending = f
	waitqueue.OnCancel(ctx, f, func() {
		rw.mu.Lock()
		complete, ok := rw.upgradeQueue.TryCancel(f, ctx.Err())
		var completions []func()
		if ok {
			k.state = upgradeNone
			k.pending = nil
			rw.upgradingKey = nil
			completions = append(rw.releaseWaiters(), complete)
		}
		rw.mu.Unlock()
		if ok {
			waitsCancelled.Add(primitiveReaderWriterUpgrade, 1)
			log.DebugS("reader-writer lock upgrade cancelled", "lock", rw.ID(), "err", ctx.Err())
		}
		runAll(completions)
	})
	rw.mu.Unlock()
	return f, nil
}

// Upgrade blocks until exclusive access is granted or ctx is done.
func (k *UpgradeableReaderKey) Upgrade(ctx context.Context) (*Guard, error) {
	f, err := k.UpgradeAsync(ctx)
	if err != nil {
		return nil, err
	}
	return f.Wait()
}

// downgrade gives up the upgrade and keeps the key's read access.
func (k *UpgradeableReaderKey) downgrade() {
	rw := k.rw
	rw.mu.Lock()
	if k.state != upgradeHeld {
		// The key was released with its upgrade.
		rw.mu.Unlock()
		return
	}
	k.state = upgradeNone
	k.pending = nil
	rw.upgradingKey = nil
	rw.locksHeld = 1
	completions := rw.releaseWaiters()
	rw.mu.Unlock()
	runAll(completions)
}

// Release gives up the key. A held upgrade is released with it and a
// pending one is cancelled.
func (k *UpgradeableReaderKey) Release() {
	if !k.released.CompareAndSwap(false, true) {
		return
	}
	rw := k.rw
	rw.mu.Lock()
	var completions []func()
	switch k.state {
	case upgradePending:
		if complete, ok := rw.upgradeQueue.TryCancel(k.pending, vterrors.New(vterrors.Canceled, "upgradeable reader key released")); ok {
			completions = append(completions, complete)
		}
		rw.locksHeld--
	case upgradeHeld:
		rw.locksHeld = 0
	default:
		rw.locksHeld--
	}
	k.state = upgradeNone
	k.pending = nil
	if rw.upgradingKey == k {
		rw.upgradingKey = nil
	}
	rw.upgradeableHeld = false
	completions = append(completions, rw.releaseWaiters()...)
	rw.mu.Unlock()
	runAll(completions)
}

func runAll(completions []func()) {
	for _, complete := range completions {
		complete()
	}
}
