/*
Copyright 2021 The Vitess Authors.

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

// Package stress runs concurrent workloads against the sync2 primitives and
// checks that their guarantees hold under contention.
package stress

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/StephenCleary/AsyncEx-sub001/go/stats"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/log"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// opTimeout bounds a single blocking operation. Operations that time out
// while the workload is still running are counted as failures.
const opTimeout = 50 * time.Millisecond

var (
	operations = stats.NewCountersWithSingleLabel("StressOperations", "Operations completed by the stress workloads", "Workload")
	failures   = stats.NewCountersWithSingleLabel("StressFailures", "Operations of the stress workloads that timed out", "Workload")
)

type (
	// workload runs until ctx is done. It returns an error only when one of
	// the checked guarantees was violated or an operation failed in a way
	// that a timeout cannot explain.
	workload func(ctx context.Context, cfg Config, t *tally) error

	tally struct {
		name             string
		success, failure atomic.Int64
	}

	// Stresser runs the configured workloads one after the other.
	Stresser struct {
		cfg   Config
		runID string
	}
)

var workloads = map[string]workload{
	WorkloadLock:      runLock,
	WorkloadSemaphore: runSemaphore,
	WorkloadRWLock:    runRWLock,
	WorkloadQueue:     runQueue,
	WorkloadRace:      runRace,
	WorkloadBarrier:   runBarrier,
}

func (t *tally) ok() {
	t.success.Add(1)
	operations.Add(t.name, 1)
}

func (t *tally) fail() {
	t.failure.Add(1)
	failures.Add(t.name, 1)
}

func (t *tally) counts() Counts {
	return Counts{Success: t.success.Load(), Failure: t.failure.Load()}
}

// violation reports a broken guarantee.
func violation(name string, format string, args ...any) error {
	return vterrors.Wrapf(vterrors.Errorf(vterrors.Internal, format, args...), "%s workload", name)
}

func isViolation(err error) bool {
	return vterrors.Code(err) == vterrors.Internal
}

// loop runs op with a fresh per-operation timeout until ctx is done.
func loop(ctx context.Context, t *tally, op func(ctx context.Context) error) error {
	for {
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		err := op(opCtx)
		cancel()
		switch {
		case isViolation(err):
			return err
		case ctx.Err() != nil:
			return nil
		case err != nil:
			t.fail()
			if log.Enabled(slog.LevelDebug) {
				log.DebugS("stress operation failed", "workload", t.name, "err", err)
			}
		default:
			t.ok()
		}
	}
}

// New validates cfg and returns a Stresser with a fresh run id.
func New(cfg Config) (*Stresser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Stresser{cfg: cfg, runID: uuid.NewString()}, nil
}

// RunID identifies this run in logs and results.
func (s *Stresser) RunID() string {
	return s.runID
}

// Run runs every configured workload for the configured duration. It
// stops at the first violated guarantee. The result holds the counts of the
// workloads that ran, even when an error is returned.
func (s *Stresser) Run(ctx context.Context) (Result, error) {
	res := Result{
		RunID:     s.runID,
		Duration:  s.cfg.Duration,
		Workloads: make(map[string]Counts, len(s.cfg.Workloads)),
	}
	log.InfoS("starting stress run", "run_id", s.runID, "workloads", s.cfg.Workloads, "workers", s.cfg.Workers, "duration", s.cfg.Duration)
	for _, name := range s.cfg.Workloads {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		t := &tally{name: name}
		wctx, cancel := context.WithTimeout(ctx, s.cfg.Duration)
		err := workloads[name](wctx, s.cfg, t)
		cancel()
		res.Workloads[name] = t.counts()
		if err != nil {
			log.ErrorS("stress workload failed", "run_id", s.runID, "workload", name, "error", err)
			return res, err
		}
		c := t.counts()
		log.InfoS("stress workload done", "run_id", s.runID, "workload", name, "success", c.Success, "failure", c.Failure)
	}
	return res, ctx.Err()
}

// Operations returns the operations completed so far by each workload,
// across every run of this process.
func Operations() map[string]int64 {
	return operations.Counts()
}
