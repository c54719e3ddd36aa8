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

// lastID is shared by every primitive in the process.
var lastID atomic.Int64

// ids lazily assigns a diagnostic id. The id has no effect on behavior; it
// only identifies a primitive in logs.
type ids struct {
	id atomic.Int64
}

func (i *ids) get() int64 {
	if id := i.id.Load(); id != 0 {
		return id
	}
	i.id.CompareAndSwap(0, lastID.Add(1))
	return i.id.Load()
}
