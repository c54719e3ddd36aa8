/*
Copyright 2019 The Vitess Authors.

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

package prometheusbackend

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StephenCleary/AsyncEx-sub001/go/stats"
)

const namespace = "namespace"

func newTestBackend() (*PromBackend, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New(namespace, reg), reg
}

func TestPrometheusCounter(t *testing.T) {
	be, reg := newTestBackend()
	name := "blah"
	c := stats.NewCounter("", "help")
	be.Publish(name, c)
	c.Add(1)

	expected := `
# HELP namespace_blah help
# TYPE namespace_blah counter
namespace_blah 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "namespace_blah"))
}

func TestPrometheusGauge(t *testing.T) {
	be, reg := newTestBackend()
	g := stats.NewGauge("", "help")
	be.Publish("WaitingGauge", g)
	g.Set(7)

	expected := `
# HELP namespace_waiting_gauge help
# TYPE namespace_waiting_gauge gauge
namespace_waiting_gauge 7
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "namespace_waiting_gauge"))
}

func TestPrometheusGaugeFunc(t *testing.T) {
	be, reg := newTestBackend()
	be.Publish("QueueLength", stats.NewGaugeFunc("", "help", func() int64 { return 3 }))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "namespace_queue_length"))
}

func TestPrometheusCountersWithSingleLabel(t *testing.T) {
	be, reg := newTestBackend()
	c := stats.NewCountersWithSingleLabel("", "help", "Primitive")
	be.Publish("SyncWaitsQueued", c)
	c.Add("Lock", 2)
	c.Add("Semaphore", 1)

	expected := `
# HELP namespace_sync_waits_queued help
# TYPE namespace_sync_waits_queued counter
namespace_sync_waits_queued{primitive="Lock"} 2
namespace_sync_waits_queued{primitive="Semaphore"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "namespace_sync_waits_queued"))
}

func TestBuildPromName(t *testing.T) {
	be, _ := newTestBackend()
	assert.Equal(t, "namespace_sync_barrier_phases", be.buildPromName("SyncBarrierPhases"))
	assert.Equal(t, "namespace_phases", be.buildPromName("namespace_phases"))
}
