/*
Copyright SUSE LLC.

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

package solver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidParameter is returned when a required input is missing or
	// malformed.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNotFound is returned when a query matched nothing, even ignoring case.
	ErrNotFound = errors.New("no matching packages")
	// ErrUnresolvable is the cause of every *UnresolvableError.
	ErrUnresolvable = errors.New("unresolvable")
	// ErrEmptyTransaction means the solve succeeded but there is nothing to do.
	ErrEmptyTransaction = errors.New("nothing to do")
	// ErrOutOfMemory is returned when the catalog would outgrow the solver's
	// variable space.
	ErrOutOfMemory = errors.New("out of memory")

	// errStopped is returned by a solve interrupted by the engine deadline.
	errStopped = errors.New("solve stopped")
)

// UnresolvableError is returned when the solve loop gives up, either because
// it ran out of attempts or time, or because no solution was accepted.
type UnresolvableError struct {
	Attempts int
	Reason   string
	Problems []*Problem
}

func (e *UnresolvableError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("unresolvable after %d attempt(s): %s", e.Attempts, e.Reason))
	for _, p := range e.Problems {
		sb.WriteString("\n")
		sb.WriteString(p.String())
	}
	return sb.String()
}

// Cause lets errors.Cause() reach ErrUnresolvable.
func (e *UnresolvableError) Cause() error { return ErrUnresolvable }

// Unwrap lets errors.Is() reach ErrUnresolvable.
func (e *UnresolvableError) Unwrap() error { return ErrUnresolvable }

// IsEmptyTransaction reports whether err means "nothing to do".
func IsEmptyTransaction(err error) bool {
	return errors.Cause(err) == ErrEmptyTransaction
}

// IsNotFound reports whether err means a query matched nothing.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// IsUnresolvable reports whether err comes from a solve that gave up.
func IsUnresolvable(err error) bool {
	return errors.Cause(err) == ErrUnresolvable
}
