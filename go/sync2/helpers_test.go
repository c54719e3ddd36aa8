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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/StephenCleary/AsyncEx-sub001/go/future"
)

const settle = 20 * time.Millisecond

// await waits for f, failing the test if it takes more than a second.
func await[T any](t testing.TB, f *future.Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := f.Await(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "future did not complete in time")
	return v, err
}

// mustComplete waits for f and requires it to succeed.
func mustComplete[T any](t testing.TB, f *future.Future[T]) T {
	t.Helper()
	v, err := await(t, f)
	require.NoError(t, err)
	return v
}

// requirePending requires f to still be pending after a short while.
func requirePending[T any](t testing.TB, f *future.Future[T]) {
	t.Helper()
	select {
	case <-f.Done():
		t.Fatalf("future completed unexpectedly")
	case <-time.After(settle):
	}
}
