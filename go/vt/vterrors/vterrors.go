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

// Package vterrors provides simple error handling primitives for the
// synchronization library.
//
// In all error handling code, errors carry an ErrorCode classifying them:
// InvalidArgument for bad arguments reported before any state is touched,
// FailedPrecondition for protocol violations such as using a queue that has
// completed adding, and Canceled / DeadlineExceeded for abandoned waits.
//
// Use vterrors.New or vterrors.Errorf to create a new error with a code,
// and vterrors.Wrap / vterrors.Wrapf to add context to an existing error;
// wrapping preserves the code of the wrapped error. Every error created
// here records a stack trace, which is printed by %+v, or by %v when
// LogErrStacks is set.
package vterrors

import (
	"context"
	"errors"
	"fmt"
	"io"

	pkgerrors "github.com/pkg/errors"
)

// LogErrStacks controls whether or not printing errors includes the
// embedded stack trace in the output.
var LogErrStacks bool

type vtError struct {
	code ErrorCode
	// err holds the message and the stack trace.
	err error
	// cause is the wrapped error, or nil for errors created by New/Errorf.
	cause error
}

// New returns an error with the supplied message.
// New also records the stack trace at the point it was called.
func New(code ErrorCode, message string) error {
	return &vtError{
		code: code,
		err:  pkgerrors.New(message),
	}
}

// Errorf formats according to a format specifier and returns the string
// as a value that satisfies error.
// Errorf also records the stack trace at the point it was called.
func Errorf(code ErrorCode, format string, args ...any) error {
	return &vtError{
		code: code,
		err:  pkgerrors.Errorf(format, args...),
	}
}

// Wrap returns an error annotating err with a stack trace
// at the point Wrap is called, and the supplied message.
// If err is nil, Wrap returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &vtError{
		code:  Code(err),
		err:   pkgerrors.Wrap(err, message),
		cause: err,
	}
}

// Wrapf returns an error annotating err with a stack trace
// at the point Wrapf is called, and the format specifier.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &vtError{
		code:  Code(err),
		err:   pkgerrors.Wrapf(err, format, args...),
		cause: err,
	}
}

func (e *vtError) Error() string { return e.err.Error() }

// ErrorCode returns the code of this error.
func (e *vtError) ErrorCode() ErrorCode { return e.code }

// Cause returns the wrapped error, if any.
func (e *vtError) Cause() error { return e.cause }

// Unwrap makes vtError compatible with errors.Is and errors.As.
func (e *vtError) Unwrap() error { return e.cause }

func (e *vtError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if LogErrStacks || s.Flag('+') {
			fmt.Fprintf(s, "%+v", e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// ErrorWithCode is implemented by errors that carry an ErrorCode.
type ErrorWithCode interface {
	ErrorCode() ErrorCode
}

// Code returns the error code if it's a vtError.
// If err is nil, it returns OK. Context errors map to Canceled and
// DeadlineExceeded.
func Code(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var withCode ErrorWithCode
	if errors.As(err, &withCode) {
		return withCode.ErrorCode()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return DeadlineExceeded
	}
	return Unknown
}

// Cause returns the immediate cause of err if it was wrapped by this
// package, or nil otherwise.
func Cause(err error) error {
	type causer interface {
		Cause() error
	}
	if c, ok := err.(causer); ok {
		return c.Cause()
	}
	return nil
}

// RootCause returns the innermost error of a chain of wrapped errors.
// An error that does not wrap anything is its own root cause.
func RootCause(err error) error {
	for {
		cause := Cause(err)
		if cause == nil {
			return err
		}
		err = cause
	}
}
