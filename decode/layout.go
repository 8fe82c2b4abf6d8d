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

// FieldParser is the signature every specialised field parser and the
// generic fallback share. tail-calling from one to the next is what lets the
// decoder avoid ever returning to a shared trampoline between fields.
type FieldParser func(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits uint64, data uint64) unsafe.Pointer

// FastSlot is one entry of a [Layout]'s fast table: a specialised parser
// together with the field_data word it expects to see once XORed against the
// tag actually read off the wire.
type FastSlot struct {
	Parser FieldParser
	Data   uint64
}

// fastTableSize is the number of slots in a dispatch table: 5 bits of field
// number extracted from the tag's low byte, skipping the 3 wire-type bits.
const fastTableSize = 32

// Layout is the per-message layout descriptor the fast path consumes. It is
// produced by a layout compiler (out of scope for this package; see
// [NewLayout] for a hand-assembled one used by tests and small embedders).
type Layout struct {
	// Size is the number of bytes to allocate for a message of this type,
	// including the leading presence word.
	Size uint32

	// Submsgs maps the 8-bit sub-message index packed into field_data to the
	// layout of the corresponding nested message type.
	Submsgs []*Layout

	// FastTable is indexed by (tag_byte_0>>3)&0x1F. An unused slot must route
	// to the generic fallback with a Data word that can never tag-match,
	// which NewLayout arranges for by construction.
	FastTable [fastTableSize]FastSlot

	// MapEntry, when set, is the layout for this message's [1]=key/[2]=value
	// synthetic map-entry submessage, used only by field types not covered
	// by the fast-path matrix in this package.
	MapEntry *Layout
}

// NewLayout allocates a Layout whose fast table is entirely routed to the
// generic fallback; callers install specialised slots with [Layout.Fast].
func NewLayout(size uint32) *Layout {
	l := &Layout{Size: size}
	for i := range l.FastTable {
		// Data with all 16 tag-comparison bits set can never satisfy
		// fastdecode_checktag, so a probe into an unused slot always falls
		// through to the generic decoder.
		l.FastTable[i] = FastSlot{Parser: genericFallback, Data: 0xFFFF}
	}
	return l
}

// Fast installs a specialised parser for the field whose tag's field number
// occupies fastSlot (0..31), i.e. (tag_byte_0>>3)&0x1F.
func (l *Layout) Fast(slot int, parser FieldParser, data uint64) {
	l.FastTable[slot] = FastSlot{Parser: parser, Data: data}
}

// Field data bit layout, per the fast-table contract:
//
//	bits  0..15  expected tag bytes (1 or 2 bytes, little-endian)
//	bits 16..23  sub-message layout index
//	bits 24..31  hasbit index (singular) or field number (oneof)
//	bits 32..47  oneof-case offset within the message
//	bits 48..63  field offset within the message

// FieldData packs the fast-table contract for a singular or repeated field.
func FieldData(tag uint16, hasbitOrFieldNum uint8, offset uint16) uint64 {
	return uint64(tag) | uint64(hasbitOrFieldNum)<<24 | uint64(offset)<<48
}

// OneofFieldData packs the fast-table contract for a oneof field, which also
// carries the offset of the oneof's case word.
func OneofFieldData(tag uint16, fieldNumber uint8, caseOffset uint16, offset uint16) uint64 {
	return FieldData(tag, fieldNumber, offset) | uint64(caseOffset)<<32
}

// SubmsgFieldData is like FieldData but also carries the sub-message layout
// index consumed by the sub-message parsers.
func SubmsgFieldData(tag uint16, hasbitOrFieldNum uint8, submsgIdx uint8, offset uint16) uint64 {
	return FieldData(tag, hasbitOrFieldNum, offset) | uint64(submsgIdx)<<16
}

func dataTagBytes(data uint64) uint16  { return uint16(data) }
func dataSubmsgIdx(data uint64) uint8  { return uint8(data >> 16) }
func dataHasbit(data uint64) uint8     { return uint8(data >> 24) }
func dataFieldNumber(data uint64) uint8 { return uint8(data >> 24) }
func dataCaseOffset(data uint64) uint16 { return uint16(data >> 32) }
func dataFieldOffset(data uint64) uint16 { return uint16(data >> 48) }

// FastSlotFor returns the fast-table index for a one-byte tag whose field
// number is field: (tag_byte_0>>3)&0x1F, i.e. field&0x1F for field <= 31.
func FastSlotFor(fieldNumber int) int {
	return fieldNumber & 0x1F
}
