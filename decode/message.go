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

	"github.com/lavi02/fastwire/internal/arena"
)

// NewMessage allocates a zeroed message record of the given layout's size.
// The leading four bytes are the presence word; every other field lives at
// the byte offset packed into its field_data.
func NewMessage(s *State, l *Layout) unsafe.Pointer {
	return s.Arena.Alloc(int(l.Size))
}

// presence returns a pointer to the message's leading presence word.
func presence(msg unsafe.Pointer) *uint32 {
	return (*uint32)(msg)
}

// flushHasbits ORs the locally-accumulated hasbits into the message's
// presence word. Done before any repeated-field allocation or recursive
// sub-message entry, on scope exit, and before falling back to the generic
// decoder, per the ordering guarantee in the concurrency model.
func flushHasbits(msg unsafe.Pointer, hasbits uint64) {
	*presence(msg) |= uint32(hasbits)
}

// HasBit reports whether the presence bit at index i is set on msg.
func HasBit(msg unsafe.Pointer, i uint8) bool {
	return *presence(msg)&(1<<i) != 0
}

// fieldPtr returns the address of the field at the offset packed into data.
func fieldPtr(msg unsafe.Pointer, data uint64) unsafe.Pointer {
	return unsafe.Add(msg, dataFieldOffset(data))
}

// Array is a repeated-field's backing store: a length/capacity header plus a
// contiguous element buffer owned by the arena. Grows by doubling, like
// upb's upb_array.
type Array struct {
	Data     unsafe.Pointer
	Len, Cap uint32
	ElemLog2 uint8 // log2 of the element size, informational outside the fast path
}

// elemPtr returns the address of the ith element of a valbytes-wide array.
func (a *Array) elemPtr(i uint32, valbytes int) unsafe.Pointer {
	return unsafe.Add(a.Data, uintptr(i)*uintptr(valbytes))
}

// newArray allocates a fresh array of the given initial capacity.
func newArray(s *State, cap uint32, valbytes int) *Array {
	return &Array{
		Data:     s.Arena.Alloc(int(cap) * valbytes),
		Len:      0,
		Cap:      cap,
		ElemLog2: arena.Log2(valbytes),
	}
}

// StringView is a non-owning (data, size) pair. When alias mode is active it
// points directly into the input buffer; otherwise it points into the arena.
type StringView struct {
	Data unsafe.Pointer
	Size int
}

// Bytes reifies the view as a Go byte slice. The returned slice must not
// outlive the buffer (alias mode) or arena (copy mode) that backs it.
func (v StringView) Bytes() []byte {
	if v.Size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.Data), v.Size)
}

// String reifies the view as a Go string, copying its bytes.
func (v StringView) String() string {
	return string(v.Bytes())
}
