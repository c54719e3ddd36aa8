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
	"context"
	"sync/atomic"
)

// These are the three predefined states of a service.
const (
	SERVICE_STOPPED = iota
	SERVICE_RUNNING
	SERVICE_SHUTTING_DOWN
)

var stateNames = []string{
	"Stopped",
	"Running",
	"ShuttingDown",
}

// ServiceManager manages the state of a service through its lifecycle.
type ServiceManager struct {
	lock  *Lock
	state atomic.Int64
	// stopped is created when the service starts and is set when the
	// service func returns.
	stopped atomic.Pointer[ManualResetEvent]
	// shutdown is created when the service starts and is set when the
	// service enters the SERVICE_SHUTTING_DOWN state.
	shutdown atomic.Pointer[ManualResetEvent]
}

// NewServiceManager returns a manager in the SERVICE_STOPPED state.
func NewServiceManager() *ServiceManager {
	svm := &ServiceManager{lock: NewLock()}
	svm.stopped.Store(NewManualResetEvent(true))
	svm.shutdown.Store(NewManualResetEvent(false))
	return svm
}

// Go tries to change the state from SERVICE_STOPPED to SERVICE_RUNNING.
// If the current state is not SERVICE_STOPPED (already running),
// it returns false immediately.
// On successful transition, it launches the service as a goroutine and returns true.
// The service func is required to regularly check the state of the service manager.
// If the state is not SERVICE_RUNNING, it must treat it as end of service and return.
// When the service func returns, the state is reverted to SERVICE_STOPPED.
func (svm *ServiceManager) Go(service func(svm *ServiceManager)) bool {
	g, _ := svm.lock.Lock(context.Background())
	defer g.Release()
	if !svm.state.CompareAndSwap(SERVICE_STOPPED, SERVICE_RUNNING) {
		return false
	}
	stopped := NewManualResetEvent(false)
	svm.stopped.Store(stopped)
	svm.shutdown.Store(NewManualResetEvent(false))
	go func() {
		service(svm)
		svm.state.Store(SERVICE_STOPPED)
		stopped.Set()
	}()
	return true
}

// Stop tries to change the state from SERVICE_RUNNING to SERVICE_SHUTTING_DOWN.
// If the current state is not SERVICE_RUNNING, it returns false immediately.
// On successful transition, it waits for the service to finish, and returns true.
// You are allowed to 'Go' again after a Stop.
func (svm *ServiceManager) Stop() bool {
	g, _ := svm.lock.Lock(context.Background())
	defer g.Release()
	if !svm.state.CompareAndSwap(SERVICE_RUNNING, SERVICE_SHUTTING_DOWN) {
		return false
	}
	// Signal the service that we've transitioned to SERVICE_SHUTTING_DOWN.
	svm.shutdown.Load().Set()
	_ = svm.stopped.Load().Wait(context.Background())
	return true
}

// ShuttingDown returns a channel that the service can select on to be notified
// when it should shut down. The channel is closed when the state transitions
// from SERVICE_RUNNING to SERVICE_SHUTTING_DOWN.
func (svm *ServiceManager) ShuttingDown() <-chan struct{} {
	return svm.shutdown.Load().WaitAsync().Done()
}

// IsRunning returns true if the state is SERVICE_RUNNING.
func (svm *ServiceManager) IsRunning() bool {
	return svm.state.Load() == SERVICE_RUNNING
}

// Wait waits for the service to terminate if it's currently running.
func (svm *ServiceManager) Wait() {
	_ = svm.stopped.Load().Wait(context.Background())
}

// State returns the current state of the service.
// This should only be used to report the current state.
func (svm *ServiceManager) State() int64 {
	return svm.state.Load()
}

// StateName returns the name of the current state.
func (svm *ServiceManager) StateName() string {
	return stateNames[svm.State()]
}
