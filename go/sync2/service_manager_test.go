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

package sync2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServiceManager(t *testing.T) {
	activated := NewAutoResetEvent(false)
	svm := NewServiceManager()
	assert.Equal(t, "Stopped", svm.StateName())

	service := func(svm *ServiceManager) {
		activated.Set()
		<-svm.ShuttingDown()
	}
	assert.True(t, svm.Go(service))
	assert.True(t, activated.WaitTimeout(time.Second))
	assert.Equal(t, "Running", svm.StateName())
	assert.True(t, svm.IsRunning())
	assert.False(t, svm.Go(service), "already running")

	assert.True(t, svm.Stop())
	assert.EqualValues(t, SERVICE_STOPPED, svm.State())
	assert.False(t, svm.Stop(), "already stopped")

	// The manager can be restarted.
	assert.True(t, svm.Go(service))
	assert.True(t, activated.WaitTimeout(time.Second))
	assert.True(t, svm.Stop())
}

func TestServiceManagerWait(t *testing.T) {
	svm := NewServiceManager()
	// Wait returns immediately when nothing runs.
	svm.Wait()

	release := NewManualResetEvent(false)
	assert.True(t, svm.Go(func(*ServiceManager) {
		release.WaitTimeout(time.Second)
	}))
	done := make(chan struct{})
	go func() {
		svm.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Wait returned while the service was running")
	case <-time.After(settle):
	}
	release.Set()
	<-done
	assert.False(t, svm.IsRunning())
}
