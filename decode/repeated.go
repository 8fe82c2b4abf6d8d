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

// resizeArr doubles the array's backing storage once dst has reached the
// end of its current capacity, and returns the (possibly moved) destination
// for the element about to be written.
func resizeArr(s *State, dst unsafe.Pointer, f *farr, valbytes int) unsafe.Pointer {
	if dst != f.end {
		return dst
	}

	oldCap := f.arr.Cap
	oldBytes := int(oldCap) * valbytes
	newCap := oldCap * 2
	newBytes := int(newCap) * valbytes

	newData := s.Arena.Realloc(f.arr.Data, oldBytes, newBytes)

	f.arr.Cap = newCap
	f.arr.Data = newData
	dst = f.arr.elemPtr(oldCap, valbytes)
	f.end = f.arr.elemPtr(newCap, valbytes)
	return dst
}

// commitArr sets the array's length from how far dst has advanced past the
// start of its element buffer; called only at run-end, never per-element.
func commitArr(dst unsafe.Pointer, f *farr, valbytes int) {
	f.arr.Len = uint32((uintptr(dst) - uintptr(f.arr.Data)) / uintptr(valbytes))
}

// next classifies what should happen after writing one element of a
// repeated run.
type next int

const (
	nextAtLimit next = iota
	nextSameField
	nextOtherField
)

type nextResult struct {
	dst  unsafe.Pointer
	next next
	tag  uint16
}

// nextRepeated is the repeated-run loop helper: after advancing past the
// element just written, it decides whether the run continues (the next tag
// matches), a different field follows, or the enclosing scope is done. This
// fusion is the decoder's main win: a run of N same-field elements pays one
// dispatch and one field-accessor call, then N branch-light iterations here.
func nextRepeated(s *State, dst unsafe.Pointer, ptr *unsafe.Pointer, f *farr, data uint64, tagbytes, valbytes int) nextResult {
	dst = unsafe.Add(dst, valbytes)

	if !isDone(s, *ptr) {
		tag := loadTag(s, *ptr)
		if tagMatchesRaw(tag, data, tagbytes) {
			return nextResult{dst: dst, next: nextSameField, tag: tag}
		}
		commitArr(dst, f, valbytes)
		return nextResult{dst: dst, next: nextOtherField, tag: tag}
	}

	commitArr(dst, f, valbytes)
	return nextResult{dst: dst, next: nextAtLimit}
}

// tagMatchesRaw compares a freshly-read tag against the low tagbytes bytes
// of data, which still holds the original expected-tag word.
func tagMatchesRaw(tag uint16, data uint64, tagbytes int) bool {
	if tagbytes == 1 {
		return byte(tag) == byte(data)
	}
	return tag == uint16(data)
}
