// Copyright 2012, Google Inc. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

const (
	one     = time.Duration(1e9)
	half    = time.Duration(500e6)
	quarter = time.Duration(250e6)
	tenth   = time.Duration(100e6)
)

func TestWait(t *testing.T) {
	start := time.Now()
	timer := NewTimer(quarter)
	result := timer.Next()
	if !result {
		t.Errorf("Want true, got false")
	}
	if start.Add(quarter).After(time.Now()) {
		t.Error("Next returned too soon")
	}
}

func TestReset(t *testing.T) {
	start := time.Now()
	timer := NewTimer(quarter)
	ch := next(timer)
	timer.SetInterval(tenth)
	result := <-ch
	if !result {
		t.Errorf("Want true, got false")
	}
	if start.Add(tenth).After(time.Now()) {
		t.Error("Next returned too soon")
	}
	if start.Add(quarter).Before(time.Now()) {
		t.Error("Next returned too late")
	}
}

func TestIndefinite(t *testing.T) {
	start := time.Now()
	timer := NewTimer(0)
	ch := next(timer)
	timer.TriggerAfter(quarter)
	result := <-ch
	if !result {
		t.Errorf("Want true, got false")
	}
	if start.Add(quarter).After(time.Now()) {
		t.Error("Next returned too soon")
	}
}

func TestClose(t *testing.T) {
	start := time.Now()
	timer := NewTimer(0)
	ch := next(timer)
	timer.Close()
	result := <-ch
	if result {
		t.Errorf("Want false, got true")
	}
	if start.Add(tenth).Before(time.Now()) {
		t.Error("Next returned too late")
	}
}

func next(timer *Timer) chan bool {
	ch := make(chan bool)
	go func() {
		ch <- timer.Next()
	}()
	return ch
}

func TestTrigger(t *testing.T) {
	start := time.Now()
	timer := NewTimer(one)
	ch := next(timer)
	timer.Trigger()
	result := <-ch
	if !result {
		t.Errorf("Want true, got false")
	}
	if start.Add(half).Before(time.Now()) {
		t.Error("Next returned too late")
	}
}

func TestStartStop(t *testing.T) {
	var ticks atomic.Int64
	timer := NewTimer(tenth / 10)
	timer.Start(func() {
		ticks.Add(1)
	})
	if !timer.Running() {
		t.Error("Want running timer")
	}
	time.Sleep(tenth)
	timer.Stop()
	if timer.Running() {
		t.Error("Want stopped timer")
	}
	if ticks.Load() == 0 {
		t.Error("Want at least one tick")
	}
	seen := ticks.Load()
	time.Sleep(tenth / 2)
	if ticks.Load() != seen {
		t.Error("Ticked after Stop")
	}
}
