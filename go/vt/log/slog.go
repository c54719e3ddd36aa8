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

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

var (
	logFormat string
	logLevel  string

	// structured is nil until Init or SetLogger installs a logger; until
	// then every call goes to glog.
	structured atomic.Pointer[slog.Logger]
)

var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// glogSinks routes records by level while structured logging is off.
// Debug records share the info sink.
var glogSinks = map[slog.Level]func(depth int, args ...any){
	slog.LevelDebug: glog.InfoDepth,
	slog.LevelInfo:  glog.InfoDepth,
	slog.LevelWarn:  glog.WarningDepth,
	slog.LevelError: glog.ErrorDepth,
}

// Init switches to structured logging when --log-fmt was given explicitly.
func Init(fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	if f := fs.Lookup("log-fmt"); f == nil || !f.Changed {
		return nil
	}

	level, err := slogLevel(logLevel)
	if err != nil {
		return err
	}
	handler, err := newHandler(os.Stderr, logFormat, level)
	if err != nil {
		return err
	}
	structured.Store(slog.New(handler))
	return nil
}

func slogLevel(name string) (slog.Level, error) {
	level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("invalid log-level %q: expected debug, info, warn, or error", name)
	}
	return level, nil
}

// newHandler builds the handler for format writing to w. The text format is
// colored only when w is a terminal.
func newHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: level}), nil
	case "logfmt":
		return slog.NewTextHandler(w, &slog.HandlerOptions{AddSource: true, Level: level}), nil
	case "text":
		return tint.NewHandler(w, &tint.Options{
			AddSource:  true,
			Level:      level,
			TimeFormat: time.StampMilli,
			NoColor:    !isTerminal(w),
		}), nil
	}
	return nil, fmt.Errorf("invalid log-fmt %q: expected json, logfmt or text", format)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// emit is called only from the exported wrappers; the skip count depends on it.
func emit(level slog.Level, msg string, args ...any) {
	const skip = 3 // runtime.Callers, emit, wrapper

	logger := structured.Load()
	if logger == nil {
		if Enabled(level) {
			glogSinks[level](skip-1, append([]any{msg}, args...)...)
		}
		return
	}

	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(skip, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}

// Enabled reports whether a record at level would be written. Without a
// structured logger, debug output follows glog's -v=1.
func Enabled(level slog.Level) bool {
	if logger := structured.Load(); logger != nil {
		return logger.Enabled(context.Background(), level)
	}
	if level < slog.LevelInfo {
		return bool(glog.V(1))
	}
	return true
}

func InfoS(msg string, args ...any)  { emit(slog.LevelInfo, msg, args...) }
func WarnS(msg string, args ...any)  { emit(slog.LevelWarn, msg, args...) }
func DebugS(msg string, args ...any) { emit(slog.LevelDebug, msg, args...) }
func ErrorS(msg string, args ...any) { emit(slog.LevelError, msg, args...) }

// SetLogger installs logger for structured output and returns a func that
// puts back whatever was installed before. A nil logger is a no-op.
func SetLogger(logger *slog.Logger) func() {
	if logger == nil {
		return func() {}
	}
	previous := structured.Swap(logger)
	return func() { structured.Store(previous) }
}
