// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package quality

import (
	"errors"
	"fmt"
)

// AssertionError reports an expected value that disagrees with the
// observed one. It marks the artifact as invalid.
type AssertionError struct {
	Check    string
	Column   string
	Expected any
	Observed any
	Message  string
}

func (e *AssertionError) Error() string {
	return e.Message
}

func failf(check, column string, expected, observed any, format string, args ...any) *AssertionError {
	return &AssertionError{
		Check:    check,
		Column:   column,
		Expected: expected,
		Observed: observed,
		Message:  fmt.Sprintf(format, args...),
	}
}

// EnvironmentError wraps a failure to reach the engine or the data, with
// the path that was being accessed.
type EnvironmentError struct {
	Op   string
	Path string
	Err  error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// IsAssertion reports whether err is, or wraps, an AssertionError.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}
