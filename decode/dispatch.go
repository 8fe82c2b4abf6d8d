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

import "unsafe"

// Dispatch is the entry point every parser re-enters after consuming a
// field: it checks whether the current scope is exhausted and, if not,
// decodes the next tag and jumps straight to the specialised parser for it,
// never passing through a shared "decode one field" function in between.
func Dispatch(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits uint64) unsafe.Pointer {
	if uintptr(ptr) >= uintptr(s.limitPtr) {
		overrun := int(uintptr(ptr) - uintptr(s.end))
		if overrun == s.limit {
			// The current scope is finished: sync hasbits into the message and stop.
			flushHasbits(msg, hasbits)
			return ptr
		}
		return isDoneFallback(s, ptr, msg, table, hasbits, overrun)
	}

	tag := loadTag(s, ptr)
	return tagDispatch(s, ptr, msg, table, hasbits, tag)
}

// tagDispatch extracts 5 bits of field number from the tag's low byte and
// jumps to the fast table's specialised parser for that slot, without ever
// computing a full field number arithmetically.
func tagDispatch(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits uint64, tag uint16) unsafe.Pointer {
	idx := (tag & 0xf8) >> 3
	slot := &table.FastTable[idx]
	data := slot.Data ^ uint64(tag)
	return slot.Parser(s, ptr, msg, table, hasbits, data)
}

// isDoneFallback is invoked once ptr crosses the active limit without
// matching it exactly: it consults the bounds fallback, which either
// refills the buffer or pops an enclosing limit, then resumes dispatch.
func isDoneFallback(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits uint64, overrun int) unsafe.Pointer {
	flushHasbits(msg, hasbits)
	ptr = s.Fallback(s, ptr, overrun)
	if ptr == nil {
		return nil
	}
	tag := loadTag(s, ptr)
	return tagDispatch(s, ptr, msg, table, 0, tag)
}

// isDone reports whether the scope containing ptr has been exhausted,
// without dispatching a new field. Used by the repeated-run loop helper to
// decide whether a fused run should keep going.
func isDone(s *State, ptr unsafe.Pointer) bool {
	if uintptr(ptr) < uintptr(s.limitPtr) {
		return false
	}
	overrun := int(uintptr(ptr) - uintptr(s.end))
	return overrun == s.limit
}
