// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blas

import (
	"fmt"

	"github.com/juju/errors"
)

// ErrKernel is the cause of every failure raised by a native kernel.
const ErrKernel = errors.ConstError("kernel failure")

// IsPrecondition reports whether err is a malformed argument error.
func IsPrecondition(err error) bool {
	return errors.Is(err, errors.NotValid)
}

// IsResourceExhausted reports whether err is an allocation failure.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, errors.QuotaLimitExceeded)
}

// IsKernel reports whether err was raised by a native kernel.
func IsKernel(err error) bool {
	return errors.Is(err, ErrKernel)
}

// IsNotSupported reports whether err rejects a combination the backend can't run.
func IsNotSupported(err error) bool {
	return errors.Is(err, errors.NotSupported)
}

// errorIf returns a precondition violation when cond holds.
func errorIf(cond bool, format string, args ...any) error {
	if cond {
		return errors.NotValidf(format, args...)
	}
	return nil
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// recoverKernel converts a panic raised inside a native kernel into ErrKernel.
func recoverKernel(routine string, err *error) {
	if r := recover(); r != nil {
		*err = errors.Annotatef(ErrKernel, "%s: %v", routine, fmt.Sprint(r))
	}
}
