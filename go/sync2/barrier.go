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
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/log"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// Barrier lets a fixed number of participants wait for each other, phase
// after phase. Every participant of a phase shares one future; it completes
// once all of them signalled and the optional post-phase action returned.
type Barrier struct {
	mu           sync.Mutex
	participants int64
	remaining    int64
	phase        int64
	phaseDone    *future.Promise[struct{}]
	postPhase    func(*Barrier) error
	id           ids
}

// NewBarrier returns a barrier for participants parties. postPhase, if not
// nil, runs at the end of each phase before its participants are released;
// its error is delivered to all of them. When it runs, CurrentPhaseNumber
// already reports the next phase. NewBarrier panics if participants is
// negative.
func NewBarrier(participants int64, postPhase func(*Barrier) error) *Barrier {
	if participants < 0 {
		panic(vterrors.Errorf(vterrors.InvalidArgument, "barrier participant count must be non-negative, got %d", participants))
	}
	return &Barrier{
		participants: participants,
		remaining:    participants,
		phaseDone:    future.NewPromise[struct{}](),
		postPhase:    postPhase,
	}
}

// CurrentPhaseNumber returns the number of the current phase, starting at 0.
func (b *Barrier) CurrentPhaseNumber() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// ParticipantCount returns the number of participants per phase.
func (b *Barrier) ParticipantCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.participants
}

// ParticipantsRemaining returns how many signals the current phase still
// needs.
func (b *Barrier) ParticipantsRemaining() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// SignalAndWaitAsync signals n times and returns the current phase's
// future.
func (b *Barrier) SignalAndWaitAsync(n int64) (*future.Future[struct{}], error) {
	if n <= 0 {
		return nil, vterrors.Errorf(vterrors.InvalidArgument, "barrier signal count must be positive, got %d", n)
	}
	b.mu.Lock()
	if n > b.remaining {
		b.mu.Unlock()
		return nil, vterrors.Errorf(vterrors.FailedPrecondition, "barrier signalled %d times with only %d participants remaining", n, b.remaining)
	}
	f := b.phaseDone.Future()
	b.remaining -= n
	if b.remaining == 0 {
		b.finishPhase()
		return f, nil
	}
	b.mu.Unlock()
	return f, nil
}

// SignalAndWait signals n times and blocks until the phase completes or
// ctx is done.
func (b *Barrier) SignalAndWait(ctx context.Context, n int64) error {
	f, err := b.SignalAndWaitAsync(n)
	if err != nil {
		return err
	}
	_, err = f.Await(ctx)
	return err
}

// AddParticipants adds n participants, counting for the current phase too,
// and returns the current phase number.
func (b *Barrier) AddParticipants(n int64) (int64, error) {
	if n <= 0 {
		return 0, vterrors.Errorf(vterrors.InvalidArgument, "barrier participant change must be positive, got %d", n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.participants > math.MaxInt64-n {
		return 0, vterrors.Errorf(vterrors.FailedPrecondition, "barrier participant count overflow: %d + %d", b.participants, n)
	}
	b.participants += n
	b.remaining += n
	return b.phase, nil
}

// RemoveParticipants removes n participants that have not signalled in the
// current phase. The phase completes if nobody else is left to signal.
func (b *Barrier) RemoveParticipants(n int64) error {
	if n <= 0 {
		return vterrors.Errorf(vterrors.InvalidArgument, "barrier participant change must be positive, got %d", n)
	}
	b.mu.Lock()
	if n > b.remaining {
		b.mu.Unlock()
		return vterrors.Errorf(vterrors.FailedPrecondition, "cannot remove %d participants with only %d remaining", n, b.remaining)
	}
	b.participants -= n
	b.remaining -= n
	if b.remaining == 0 && b.participants > 0 {
		b.finishPhase()
		return nil
	}
	b.mu.Unlock()
	return nil
}

// finishPhase starts the next phase, runs the post-phase action and
// releases the participants of the finished one. It is called with mu held
// and releases it. The action runs without mu, after the next phase has
// started, so participants may already signal it.
func (b *Barrier) finishPhase() {
	done := b.phaseDone
	phase := b.phase
	b.phase++
	b.remaining = b.participants
	b.phaseDone = future.NewPromise[struct{}]()
	b.mu.Unlock()

	var err error
	if b.postPhase != nil {
		if err = b.postPhase(b); err != nil {
			log.WarnS("barrier post-phase action failed", "barrier", b.ID(), "phase", phase, "err", err)
			err = vterrors.Wrapf(err, "post-phase action of phase %d", phase)
		}
	}

	barrierPhases.Add(1)
	done.TryComplete(struct{}{}, err)
}

// ID returns the diagnostic id of the barrier.
func (b *Barrier) ID() int64 {
	return b.id.get()
}
