/*
Copyright 2018 The Vitess Authors.

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
	"regexp"
	"strings"
	"sync"
)

// GetSnakeName converts a CamelCase metric name such as SyncWaitsQueued to
// sync_waits_queued. Results are memoized.
func GetSnakeName(name string) string {
	return toSnakeCase(name)
}

func toSnakeCase(name string) string {
	if cached, ok := snakeNames.Load(name); ok {
		return cached.(string)
	}
	snake := name
	for _, c := range snakeConverters {
		snake = c.re.ReplaceAllString(snake, c.repl)
	}
	snake = strings.ToLower(snake)
	snakeNames.Store(name, snake)
	return snake
}

var snakeConverters = []struct {
	re   *regexp.Regexp
	repl string
}{
	// aB -> a_B
	{regexp.MustCompile("([a-z0-9])([A-Z])"), "${1}_${2}"},
	// ABc -> A_Bc
	{regexp.MustCompile("([A-Z])([A-Z][a-z])"), "${1}_${2}"},
	{regexp.MustCompile(`[.\-]`), "_"},
}

var snakeNames sync.Map
