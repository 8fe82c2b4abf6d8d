// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package decode

import (
	"errors"
	"fmt"
)

// Code classifies why a decode failed.
type Code int

const (
	_ Code = iota
	// MalformedVarint is a varint with a 10th continuation byte, or a length
	// prefix whose 5th byte exceeds 7 (length capped at 2GiB).
	MalformedVarint
	// BoundsExceeded is a read that would run past limitPtr or the buffer end.
	BoundsExceeded
	// InvalidLimit is a sub-scope length that would exceed its enclosing limit.
	InvalidLimit
	// RecursionLimit is sub-message nesting exceeding the configured depth.
	RecursionLimit
	// UnterminatedGroup is a non-zero end_group sentinel after a sub-scope.
	UnterminatedGroup
	// AllocationFailed is an arena allocation that could not be satisfied.
	AllocationFailed
)

var messages = [...]string{
	MalformedVarint:   "malformed varint",
	BoundsExceeded:    "read past end of buffer",
	InvalidLimit:      "sub-message length exceeds enclosing limit",
	RecursionLimit:    "exceeded maximum nesting depth",
	UnterminatedGroup: "unterminated group",
	AllocationFailed:  "arena allocation failed",
}

// Error is the error type returned by a failed decode.
type Error struct {
	Code   Code
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("fastwire: decode error at offset %d: %s", e.Offset, messages[e.Code])
}

// Is allows errors.Is(err, &decode.Error{Code: decode.MalformedVarint}) style
// checks: a target *Error matches on its Code alone, ignoring Offset.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}
