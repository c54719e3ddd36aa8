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

// Package prometheusbackend exports the variables of the stats package to
// Prometheus.
package prometheusbackend

import (
	"expvar"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/StephenCleary/AsyncEx-sub001/go/stats"
	"github.com/StephenCleary/AsyncEx-sub001/go/vt/log"
)

// PromBackend exports stats variables as Prometheus collectors.
type PromBackend struct {
	namespace  string
	registerer prometheus.Registerer
}

// Init initializes the Prometheus backend with the given namespace, using
// the default registry, and serves it on /metrics of mux.
func Init(namespace string, mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
	be := New(namespace, prometheus.DefaultRegisterer)
	stats.Register(be.publishPrometheusMetric)
}

// New returns a backend registering its collectors with registerer.
func New(namespace string, registerer prometheus.Registerer) *PromBackend {
	return &PromBackend{namespace: namespace, registerer: registerer}
}

// Publish exports a single stats variable. It is the hook passed to
// stats.Register.
func (be *PromBackend) Publish(name string, v expvar.Var) {
	be.publishPrometheusMetric(name, v)
}

func (be *PromBackend) publishPrometheusMetric(name string, v expvar.Var) {
	switch st := v.(type) {
	case *stats.Gauge:
		be.newMetric(st, name, prometheus.GaugeValue, func() float64 { return float64(st.Get()) })
	case *stats.Counter:
		be.newMetric(st, name, prometheus.CounterValue, func() float64 { return float64(st.Get()) })
	case *stats.GaugeFunc:
		be.newMetric(st, name, prometheus.GaugeValue, func() float64 { return float64(st.F()) })
	case *stats.GaugesWithSingleLabel:
		be.newCountersWithSingleLabel(&st.CountersWithSingleLabel, name, prometheus.GaugeValue)
	case *stats.CountersWithSingleLabel:
		be.newCountersWithSingleLabel(st, name, prometheus.CounterValue)
	default:
		log.Infof("Not exporting to Prometheus an unsupported metric type of %T: %s", st, name)
	}
}

func (be *PromBackend) newCountersWithSingleLabel(c *stats.CountersWithSingleLabel, name string, vt prometheus.ValueType) {
	collector := &countersWithSingleLabelCollector{
		counters: c,
		desc: prometheus.NewDesc(
			be.buildPromName(name),
			c.Help(),
			[]string{normalizeMetric(c.Label())},
			nil),
		vt: vt}

	be.registerer.MustRegister(collector)
}

func (be *PromBackend) newMetric(v stats.Variable, name string, vt prometheus.ValueType, f func() float64) {
	collector := &metricFuncCollector{
		f: f,
		desc: prometheus.NewDesc(
			be.buildPromName(name),
			v.Help(),
			nil,
			nil),
		vt: vt}

	be.registerer.MustRegister(collector)
}

// buildPromName specifies the namespace as a prefix to the metric name
func (be *PromBackend) buildPromName(name string) string {
	s := strings.TrimPrefix(normalizeMetric(name), be.namespace+"_")
	return prometheus.BuildFQName("", be.namespace, s)
}

// normalizeMetric produces a compliant name by applying a camel case to
// snake case converter.
func normalizeMetric(name string) string {
	return stats.GetSnakeName(name)
}
