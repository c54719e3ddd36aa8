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

package stats

import (
	"expvar"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	var gotname string
	var gotv *Counter
	clearHook()
	Register(func(name string, v expvar.Var) {
		gotname = name
		gotv = v.(*Counter)
	})
	v := NewCounter("Int", "help")
	assert.Equal(t, "Int", gotname)
	assert.Same(t, v, gotv)
	v.Add(1)
	assert.EqualValues(t, 1, v.Get())
	assert.Equal(t, "1", v.String())
	v.Reset()
	assert.EqualValues(t, 0, v.Get())
	assert.Equal(t, "help", v.Help())

	assert.Panics(t, func() { v.Add(-1) })
}

func TestGauge(t *testing.T) {
	clearHook()
	v := NewGauge("Gauge", "help")
	v.Set(5)
	v.Add(-2)
	assert.EqualValues(t, 3, v.Get())
	assert.Equal(t, "3", v.String())
}

func TestCountersWithSingleLabel(t *testing.T) {
	clearHook()
	c := NewCountersWithSingleLabel("counter1", "help", "Primitive", "Lock")
	c.Add("Semaphore", 2)
	c.Add("Lock", 1)
	assert.Equal(t, `{"Lock": 1, "Semaphore": 2}`, c.String())
	assert.Equal(t, map[string]int64{"Lock": 1, "Semaphore": 2}, c.Counts())
	assert.Equal(t, "Primitive", c.Label())

	c.Reset("Semaphore")
	assert.Equal(t, map[string]int64{"Lock": 1, "Semaphore": 0}, c.Counts())

	c.ResetAll()
	assert.Empty(t, c.Counts())
}

func TestGaugesWithSingleLabel(t *testing.T) {
	clearHook()
	g := NewGaugesWithSingleLabel("gauges1", "help", "Primitive")
	g.Set("Queue", 4)
	g.Add("Queue", -1)
	assert.Equal(t, map[string]int64{"Queue": 3}, g.Counts())
}

func TestCountersParallel(t *testing.T) {
	clearHook()
	c := NewCountersWithSingleLabel("", "help", "Primitive")
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Add("Lock", 1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1000, c.Counts()["Lock"])
}

func TestGaugeFunc(t *testing.T) {
	clearHook()
	v := NewGaugeFunc("GaugeFunc", "help", func() int64 { return 42 })
	assert.Equal(t, "42", v.String())
	assert.Equal(t, "help", v.Help())
}

func TestRegisterReplaysExistingVars(t *testing.T) {
	clearHook()
	NewCounter("ReplayedCounter", "help")
	var got []string
	Register(func(name string, v expvar.Var) {
		got = append(got, name)
	})
	assert.Contains(t, got, "ReplayedCounter")
}

// clearHook resets the publish hook so tests can register their own. Names
// still have to be unique per test binary because expvar panics on reuse.
func clearHook() {
	defaultVarGroup.Lock()
	defer defaultVarGroup.Unlock()
	defaultVarGroup.newVarHook = nil
	defaultVarGroup.vars = make(map[string]expvar.Var)
}
