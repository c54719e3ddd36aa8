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
	"sync/atomic"
)

// Guard is returned by every acquisition. Releasing it gives the acquired
// resource back. Release may be called any number of times from any
// goroutine; only the first call has an effect.
type Guard struct {
	released atomic.Bool
	release  func()
}

func newGuard(release func()) *Guard {
	return &Guard{release: release}
}

// Release gives back the resource held by the guard.
func (g *Guard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.release()
	}
}

// Released reports whether Release has been called.
func (g *Guard) Released() bool {
	return g.released.Load()
}
