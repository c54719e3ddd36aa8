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

package stress

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/olekukonko/tablewriter"
)

type (
	// Counts holds the operations of a workload.
	Counts struct {
		Success int64
		Failure int64
	}

	// Result is the outcome of a stress run.
	Result struct {
		RunID     string
		Duration  time.Duration
		Workloads map[string]Counts
	}
)

func (c Counts) successQPS(seconds float64) int64 {
	return int64(float64(c.Success) / seconds)
}

func (c Counts) failureQPS(seconds float64) int64 {
	return int64(float64(c.Failure) / seconds)
}

func (c Counts) totalQPS(seconds float64) int64 {
	return c.successQPS(seconds) + c.failureQPS(seconds)
}

func (c Counts) sum() int64 {
	return c.Success + c.Failure
}

func sumCounts(cs ...Counts) Counts {
	var c Counts
	for _, ci := range cs {
		c.Success += ci.Success
		c.Failure += ci.Failure
	}
	return c
}

// Total sums the counts of every workload.
func (r Result) Total() Counts {
	return sumCounts(slices.Collect(maps.Values(r.Workloads))...)
}

// Print writes a per-workload summary of r to w.
func (r Result) Print(w io.Writer) {
	seconds := r.Duration.Seconds()
	if seconds <= 0 {
		seconds = 1
	}
	fmt.Fprintf(w, "Run %s (%v per workload)\n\nQPS:\n", r.RunID, r.Duration)
	names := slices.Sorted(maps.Keys(r.Workloads))
	for _, name := range names {
		c := r.Workloads[name]
		fmt.Fprintf(w, "\t%s: %d, failed: %d, sum: %d\n", name, c.successQPS(seconds), c.failureQPS(seconds), c.totalQPS(seconds))
	}
	total := r.Total()
	fmt.Fprintf(w, "\t---------\n\ttotal: %d, failed: %d, sum: %d\n\nOperations:\n",
		total.successQPS(seconds), total.failureQPS(seconds), total.totalQPS(seconds))
	for _, name := range names {
		c := r.Workloads[name]
		fmt.Fprintf(w, "\t%s: %d, failed: %d, sum: %d\n", name, c.Success, c.Failure, c.sum())
	}
	fmt.Fprintf(w, "\t---------\n\ttotal: %d, failed: %d, sum: %d\n", total.Success, total.Failure, total.sum())
}

// Table writes r to w as a table with one row per workload and a total row.
func (r Result) Table(w io.Writer) error {
	seconds := r.Duration.Seconds()
	if seconds <= 0 {
		seconds = 1
	}
	table := tablewriter.NewWriter(w)
	table.Header("Workload", "Success", "Failed", "Sum", "QPS")
	row := func(name string, c Counts) error {
		return table.Append(name, c.Success, c.Failure, c.sum(), c.totalQPS(seconds))
	}
	for _, name := range slices.Sorted(maps.Keys(r.Workloads)) {
		if err := row(name, r.Workloads[name]); err != nil {
			return err
		}
	}
	if err := row("total", r.Total()); err != nil {
		return err
	}
	return table.Render()
}
