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

package vterrors

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
)

// Aggregate combines several errors into one. Nil errors are skipped; if
// no error remains Aggregate returns nil, and a single error is returned
// as is. The aggregated error keeps every input reachable through
// errors.Is / errors.As. Its code is the code shared by all the inputs, or
// Unknown if they disagree.
func Aggregate(errs []error) error {
	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if merr == nil {
		return nil
	}
	if len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	merr.ErrorFormat = func(errs []error) string {
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		return strings.Join(msgs, "; ")
	}
	return &vtError{
		code:  aggregateCode(merr.Errors),
		err:   pkgerrors.WithStack(merr),
		cause: merr,
	}
}

func aggregateCode(errs []error) ErrorCode {
	code := Code(errs[0])
	for _, err := range errs[1:] {
		if Code(err) != code {
			return Unknown
		}
	}
	return code
}
