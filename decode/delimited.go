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
	"unsafe"

	"github.com/lavi02/fastwire/internal/debug"
)

// delimFunc is a callback invoked with the byte cursor positioned just past
// a length prefix, and the scope's limit already narrowed to the delimited
// region. It returns the cursor after consuming the region, or nil on error.
type delimFunc func(s *State, ptr unsafe.Pointer) unsafe.Pointer

// delimited implements the length-delimited sub-scope framing shared by
// packed repeated fields and sub-messages: it reads a 1-or-more-byte length
// prefix, then either narrows the current limit in place (fast path, the
// region fits in the current buffer) or pushes a fresh limit through the
// slower general machinery (the region is >=128 bytes and/or exceeds the
// buffer). See the invariant on [State] that limitPtr == end + min(0, limit)
// must hold before and after either path.
func delimited(s *State, ptr unsafe.Pointer, fn delimFunc) unsafe.Pointer {
	raw := *(*byte)(s.shadow(ptr))
	ptr = unsafe.Add(ptr, 1)
	length := int(int8(raw))

	if boundsCheckStrict(ptr, length, s.limitPtr) {
		if raw&0x80 != 0 {
			var ok bool
			ptr, length, ok = longsize(s, ptr, int(raw))
			if !ok {
				return s.fail(MalformedVarint, ptr)
			}
		}
		if int(uintptr(ptr)-uintptr(s.end))+length > s.limit {
			return s.fail(InvalidLimit, ptr)
		}

		delta := s.pushLimit(ptr, length)
		ptr = fn(s, ptr)
		if ptr == nil {
			return nil
		}
		s.popLimit(delta)
		return ptr
	}

	savedLimitPtr, savedLimit := s.limitPtr, s.limit
	s.limitPtr = unsafe.Add(ptr, length)
	s.limit = int(uintptr(s.limitPtr) - uintptr(s.end))
	debugAssertLimitInvariant(s)

	ptr = fn(s, ptr)

	s.limitPtr, s.limit = savedLimitPtr, savedLimit
	debugAssertLimitInvariant(s)
	return ptr
}

// pushLimit narrows the active limit to cover exactly length bytes starting
// at ptr, returning the delta needed to restore the previous limit.
func (s *State) pushLimit(ptr unsafe.Pointer, length int) int {
	newLimit := int(uintptr(ptr)-uintptr(s.end)) + length
	delta := s.limit - newLimit
	s.limit = newLimit
	s.limitPtr = unsafe.Add(s.end, s.limit)
	return delta
}

// popLimit restores the limit that was active before the matching pushLimit,
// using the delta it returned. This works even if end moved in between (a
// buffer refill), because delta is a relative offset, not an absolute one.
func (s *State) popLimit(delta int) {
	s.limit += delta
	s.limitPtr = unsafe.Add(s.end, s.limit)
}

func debugAssertLimitInvariant(s *State) {
	m := s.limit
	if m > 0 {
		m = 0
	}
	debug.Assert(s.limitPtr == unsafe.Add(s.end, m), "limitPtr invariant violated: limitPtr=%v end=%v limit=%d", s.limitPtr, s.end, s.limit)
}
