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

package stress

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/StephenCleary/AsyncEx-sub001/go/sync2"
)

func runLock(ctx context.Context, cfg Config, t *tally) error {
	lock := sync2.NewLock()
	var holders atomic.Int32
	var g errgroup.Group
	for range cfg.Workers {
		g.Go(func() error {
			return loop(ctx, t, func(ctx context.Context) error {
				guard, err := lock.Lock(ctx)
				if err != nil {
					return err
				}
				defer guard.Release()
				if n := holders.Add(1); n != 1 {
					return violation(t.name, "%d goroutines hold the lock", n)
				}
				runtime.Gosched()
				holders.Add(-1)
				return nil
			})
		})
	}
	return g.Wait()
}

func runSemaphore(ctx context.Context, cfg Config, t *tally) error {
	sem := sync2.NewSemaphore(cfg.SemaphoreSlots)
	var holders atomic.Int64
	var g errgroup.Group
	for range cfg.Workers {
		g.Go(func() error {
			return loop(ctx, t, func(ctx context.Context) error {
				guard, err := sem.Lock(ctx)
				if err != nil {
					return err
				}
				defer guard.Release()
				defer holders.Add(-1)
				if n := holders.Add(1); n > cfg.SemaphoreSlots {
					return violation(t.name, "%d goroutines hold %d slots", n, cfg.SemaphoreSlots)
				}
				runtime.Gosched()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := sem.CurrentCount(); n != cfg.SemaphoreSlots {
		return violation(t.name, "%d slots left after the run, want %d", n, cfg.SemaphoreSlots)
	}
	return nil
}

// runRWLock runs one writer and one upgradeable reader for every four
// workers. The rest are plain readers.
func runRWLock(ctx context.Context, cfg Config, t *tally) error {
	rw := sync2.NewReaderWriterLock()
	var readers, writers atomic.Int32

	write := func() error {
		if n := writers.Add(1); n != 1 {
			return violation(t.name, "%d writers hold the lock", n)
		}
		defer writers.Add(-1)
		if n := readers.Load(); n != 0 {
			return violation(t.name, "writer holds the lock with %d readers", n)
		}
		runtime.Gosched()
		return nil
	}
	read := func() error {
		readers.Add(1)
		defer readers.Add(-1)
		if n := writers.Load(); n != 0 {
			return violation(t.name, "reader holds the lock with %d writers", n)
		}
		runtime.Gosched()
		return nil
	}

	ops := map[int]func(ctx context.Context) error{
		0: func(ctx context.Context) error {
			guard, err := rw.WriterLock(ctx)
			if err != nil {
				return err
			}
			defer guard.Release()
			return write()
		},
		1: func(ctx context.Context) error {
			key, err := rw.UpgradeableReaderLock(ctx)
			if err != nil {
				return err
			}
			defer key.Release()
			if err := read(); err != nil {
				return err
			}
			guard, err := key.Upgrade(ctx)
			if err != nil {
				return err
			}
			defer guard.Release()
			return write()
		},
	}
	reader := func(ctx context.Context) error {
		guard, err := rw.ReaderLock(ctx)
		if err != nil {
			return err
		}
		defer guard.Release()
		return read()
	}

	var g errgroup.Group
	for i := range cfg.Workers {
		op, ok := ops[i%4]
		if !ok {
			op = reader
		}
		g.Go(func() error {
			return loop(ctx, t, op)
		})
	}
	return g.Wait()
}

func newLimiter(cfg Config) *rate.Limiter {
	if cfg.ProducerRate == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(cfg.ProducerRate), 1)
}

// ledger sums the items that went through a set of queues.
type ledger struct {
	count, sum atomic.Int64
}

func (l *ledger) add(v int64) {
	l.count.Add(1)
	l.sum.Add(v)
}

func checkConservation(name string, produced, consumed *ledger) error {
	if pc, cc := produced.count.Load(), consumed.count.Load(); pc != cc {
		return violation(name, "%d items produced but %d consumed", pc, cc)
	}
	if ps, cs := produced.sum.Load(), consumed.sum.Load(); ps != cs {
		return violation(name, "produced items sum to %d but consumed items sum to %d", ps, cs)
	}
	return nil
}

// pipeline runs half the workers as producers and the rest as consumers.
// Producers stop when ctx is done, then complete is called and consumers
// drain what is left.
func pipeline(ctx context.Context, cfg Config, t *tally, produce func(ctx context.Context, v int64) error, consume func(ctx context.Context) (int64, error), complete func()) error {
	var produced, consumed ledger
	var producers, consumers errgroup.Group
	nProducers := cfg.Workers / 2
	for p := range nProducers {
		limiter := newLimiter(cfg)
		next := int64(p)
		producers.Go(func() error {
			return loop(ctx, t, func(opCtx context.Context) error {
				if err := limiter.Wait(ctx); err != nil {
					// The next token comes after the end of the run.
					<-ctx.Done()
					return ctx.Err()
				}
				if err := produce(opCtx, next); err != nil {
					return err
				}
				produced.add(next)
				next += int64(nProducers)
				return nil
			})
		})
	}
	for range cfg.Workers - nProducers {
		consumers.Go(func() error {
			for {
				opCtx, cancel := context.WithTimeout(context.Background(), opTimeout)
				v, err := consume(opCtx)
				cancel()
				switch {
				case errors.Is(err, sync2.ErrQueueCompleted):
					return nil
				case err != nil:
					t.fail()
				default:
					consumed.add(v)
					t.ok()
				}
			}
		})
	}
	err := producers.Wait()
	complete()
	if cerr := consumers.Wait(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return checkConservation(t.name, &produced, &consumed)
}

func runQueue(ctx context.Context, cfg Config, t *tally) error {
	q := sync2.NewProducerConsumerQueue[int64](cfg.QueueCapacity)
	return pipeline(ctx, cfg, t,
		func(ctx context.Context, v int64) error {
			return q.Enqueue(ctx, v)
		},
		q.Dequeue,
		q.CompleteAdding,
	)
}

func runRace(ctx context.Context, cfg Config, t *tally) error {
	queues := make([]*sync2.ProducerConsumerQueue[int64], cfg.Queues)
	for i := range queues {
		queues[i] = sync2.NewProducerConsumerQueue[int64](cfg.QueueCapacity)
	}
	return pipeline(ctx, cfg, t,
		func(ctx context.Context, v int64) error {
			_, err := sync2.EnqueueToAny(ctx, queues, v)
			return err
		},
		func(ctx context.Context) (int64, error) {
			v, _, err := sync2.DequeueFromAny(ctx, queues)
			return v, err
		},
		func() {
			for _, q := range queues {
				q.CompleteAdding()
			}
		},
	)
}

// runBarrier has every worker signal the same barrier in a loop. A worker
// abandoning its wait stays a participant, so barrier waits are only ended
// by the end of the run.
func runBarrier(ctx context.Context, cfg Config, t *tally) error {
	participants := int64(cfg.Workers)
	var arrived atomic.Int64
	b := sync2.NewBarrier(participants, func(b *sync2.Barrier) error {
		if n := arrived.Swap(0); n != participants {
			return violation(t.name, "phase %d finished with %d of %d participants", b.CurrentPhaseNumber()-1, n, participants)
		}
		return nil
	})
	var g errgroup.Group
	for range cfg.Workers {
		g.Go(func() error {
			for {
				phase := b.CurrentPhaseNumber()
				arrived.Add(1)
				err := b.SignalAndWait(ctx, 1)
				switch {
				case isViolation(err):
					return err
				case ctx.Err() != nil:
					return nil
				case err != nil:
					return err
				}
				if now := b.CurrentPhaseNumber(); now <= phase {
					return violation(t.name, "wait returned in phase %d after signalling phase %d", now, phase)
				}
				t.ok()
			}
		})
	}
	return g.Wait()
}
