/*
Copyright 2023 The Vitess Authors.

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

package utils

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// ignoredGoroutines are long-lived goroutines started by dependencies.
var ignoredGoroutines = []goleak.Option{
	goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"),
	goleak.IgnoreTopFunction("github.com/golang/glog.(*loggingT).flushDaemon"),
	goleak.IgnoreTopFunction("testing.tRunner.func1"),
}

const (
	leakRetries  = 5
	leakInterval = 100 * time.Millisecond
)

// LeakCheckContext returns a Context that is cancelled when the test ends.
// Passing tests are then checked for leaked goroutines, which catches waits
// whose cancellation callbacks never ran.
func LeakCheckContext(t testing.TB) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	return leakChecked(t, ctx, cancel)
}

// LeakCheckContextTimeout is LeakCheckContext with a deadline of timeout.
func LeakCheckContextTimeout(t testing.TB, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return leakChecked(t, ctx, cancel)
}

func leakChecked(t testing.TB, ctx context.Context, cancel context.CancelFunc) context.Context {
	t.Cleanup(func() {
		cancel()
		EnsureNoLeaks(t)
	})
	return ctx
}

// EnsureNoLeaks fails t if goroutines are still running after a few retries.
// Failed tests are skipped so the original failure is the one reported.
func EnsureNoLeaks(t testing.TB) {
	if t.Failed() {
		return
	}
	var err error
	for range leakRetries {
		if err = goleak.Find(ignoredGoroutines...); err == nil {
			return
		}
		time.Sleep(leakInterval)
	}
	t.Fatal(err)
}
