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
	"slices"
	"time"

	"github.com/StephenCleary/AsyncEx-sub001/go/vt/vterrors"
)

// Names of the available workloads.
const (
	WorkloadLock      = "lock"
	WorkloadSemaphore = "semaphore"
	WorkloadRWLock    = "rwlock"
	WorkloadQueue     = "queue"
	WorkloadRace      = "race"
	WorkloadBarrier   = "barrier"
)

// AllWorkloads lists every workload in the order they run.
var AllWorkloads = []string{
	WorkloadLock,
	WorkloadSemaphore,
	WorkloadRWLock,
	WorkloadQueue,
	WorkloadRace,
	WorkloadBarrier,
}

// Config holds the parameters of a stress run.
type Config struct {
	// Workloads to run. Each one runs for Duration.
	Workloads []string `mapstructure:"workloads"`
	// Workers is the number of goroutines per workload.
	Workers int `mapstructure:"workers"`
	// Duration of each workload.
	Duration time.Duration `mapstructure:"duration"`
	// SemaphoreSlots is the initial count of the semaphore workload.
	SemaphoreSlots int64 `mapstructure:"semaphore-slots"`
	// QueueCapacity bounds the queues of the queue and race workloads.
	QueueCapacity int `mapstructure:"queue-capacity"`
	// Queues is the number of queues the race workload spreads items over.
	Queues int `mapstructure:"queues"`
	// ProducerRate limits each producer to this many items per second.
	// Zero means no limit.
	ProducerRate float64 `mapstructure:"producer-rate"`
}

// DefaultConfig returns the configuration used when no flag is set.
func DefaultConfig() Config {
	return Config{
		Workloads:      slices.Clone(AllWorkloads),
		Workers:        8,
		Duration:       5 * time.Second,
		SemaphoreSlots: 3,
		QueueCapacity:  16,
		Queues:         3,
	}
}

// Validate checks that the configuration can be run.
func (c Config) Validate() error {
	if len(c.Workloads) == 0 {
		return vterrors.New(vterrors.InvalidArgument, "no workload selected")
	}
	for _, w := range c.Workloads {
		if !slices.Contains(AllWorkloads, w) {
			return vterrors.Errorf(vterrors.InvalidArgument, "unknown workload %q, valid workloads are %v", w, AllWorkloads)
		}
	}
	switch {
	case c.Workers < 2:
		return vterrors.Errorf(vterrors.InvalidArgument, "workers must be at least 2, got %d", c.Workers)
	case c.Duration <= 0:
		return vterrors.Errorf(vterrors.InvalidArgument, "duration must be positive, got %v", c.Duration)
	case c.SemaphoreSlots <= 0:
		return vterrors.Errorf(vterrors.InvalidArgument, "semaphore-slots must be positive, got %d", c.SemaphoreSlots)
	case c.QueueCapacity <= 0:
		return vterrors.Errorf(vterrors.InvalidArgument, "queue-capacity must be positive, got %d", c.QueueCapacity)
	case c.Queues <= 0:
		return vterrors.Errorf(vterrors.InvalidArgument, "queues must be positive, got %d", c.Queues)
	case c.ProducerRate < 0:
		return vterrors.Errorf(vterrors.InvalidArgument, "producer-rate must not be negative, got %v", c.ProducerRate)
	}
	return nil
}
