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

const svSize = int(unsafe.Sizeof(StringView{}))

// stringHeader reads a length-delimited value's length prefix, positioned
// just past the tag, and bounds-checks it against the active limit. It does
// not decide how the bytes themselves get stored; that's the alias/copy
// split in [stringField].
func stringHeader(s *State, ptr unsafe.Pointer, tagbytes int) (afterLen unsafe.Pointer, size int, code Code) {
	p := unsafe.Add(ptr, tagbytes)
	size = int(*(*byte)(s.shadow(p)))
	p = unsafe.Add(p, 1)
	if size&0x80 != 0 {
		var lok bool
		p, size, lok = longsize(s, p, size)
		if !lok {
			return nil, 0, MalformedVarint
		}
	}
	if boundsCheckStrict(p, size, s.limitPtr) {
		return nil, 0, BoundsExceeded
	}
	return p, size, 0
}

// stringField is the {alias,copy} x {singular,oneof,repeated,packed-N/A}
// string/bytes parser. Cardinality is threaded through exactly like the
// varint and fixed families; the only new axis is s.Alias, read for each
// element, though it's fixed for the life of a decode.
func stringField(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits, data uint64, tagbytes int, card Card) unsafe.Pointer {
	if !tagMatch(data, tagbytes) {
		return genericFallback(s, ptr, msg, table, hasbits, 0)
	}

	var f farr
	dst := getField(s, ptr, msg, &data, &hasbits, &f, svSize, card)

	for {
		if card == CardRepeated {
			dst = resizeArr(s, dst, &f, svSize)
		}

		p, size, code := stringHeader(s, ptr, tagbytes)
		if code != 0 {
			return s.fail(code, ptr)
		}

		view := (*StringView)(dst)
		if s.Alias {
			view.Data = p
			view.Size = size
		} else if !cascadeCopy(s, p, size, view) {
			copyExact(s, p, size, view)
		}
		ptr = unsafe.Add(p, size)

		if card != CardRepeated {
			return Dispatch(s, ptr, msg, table, hasbits)
		}

		ret := nextRepeated(s, dst, &ptr, &f, data, tagbytes, svSize)
		switch ret.next {
		case nextSameField:
			dst = ret.dst
			continue
		case nextOtherField:
			return tagDispatch(s, ptr, msg, table, hasbits, ret.tag)
		default:
			return ptr
		}
	}
}

// cascadeCopy picks the smallest fixed width in {16,32,64,128} that covers
// size and for which both the arena and the input buffer have that much
// headroom, copies that many bytes from p into a fresh arena allocation, and
// points view at the copy. It reports false, leaving view untouched, when
// size doesn't fit any cascade width or the headroom isn't there; the caller
// falls back to [copyExact].
//
// The width may exceed size, so this can read past the string's declared end
// into whatever bytes follow it in the input. Only the first size bytes of
// the copy are ever read back, since view.Size still records the true
// length, and the read stays memory-safe because copy-mode input is padded
// by [inputPad] bytes in [State.Reset] and inputHas accounts for exactly
// that much slop.
func cascadeCopy(s *State, p unsafe.Pointer, size int, view *StringView) bool {
	arenaHas := s.Arena.Has()
	inputHas := int(uintptr(s.end)-uintptr(p)) + inputPad
	has := arenaHas
	if inputHas < has {
		has = inputHas
	}

	var width int
	switch {
	case size <= 16 && has >= 16:
		width = 16
	case size <= 32 && has >= 32:
		width = 32
	case size <= 64 && has >= 64:
		width = 64
	case size <= 128 && has >= 128:
		width = 128
	default:
		return false
	}

	buf := s.Arena.AllocRaw(width)
	copyFixedWidth(buf, p, width)
	view.Data = buf
	view.Size = size
	return true
}

func copyFixedWidth(dst, src unsafe.Pointer, width int) {
	switch width {
	case 16:
		*(*[16]byte)(dst) = *(*[16]byte)(src)
	case 32:
		*(*[32]byte)(dst) = *(*[32]byte)(src)
	case 64:
		*(*[64]byte)(dst) = *(*[64]byte)(src)
	case 128:
		*(*[128]byte)(dst) = *(*[128]byte)(src)
	}
}

// copyExact is the slow-path copy for strings too large for the cascade, or
// arriving when the arena is low on headroom: an allocation sized exactly to
// the string, with no overread.
func copyExact(s *State, p unsafe.Pointer, size int, view *StringView) {
	buf := s.Arena.AllocRaw(size)
	copy(unsafe.Slice((*byte)(buf), size), unsafe.Slice((*byte)(p), size))
	view.Data = buf
	view.Size = size
}

// SingularString builds the fast-table entry for a singular string/bytes
// field.
func SingularString(tagbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return stringField(s, ptr, msg, table, hasbits, data, tagbytes, CardSingular)
	}
}

// OneofString builds the fast-table entry for a oneof string/bytes field.
func OneofString(tagbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return stringField(s, ptr, msg, table, hasbits, data, tagbytes, CardOneof)
	}
}

// RepeatedString builds the fast-table entry for a repeated string/bytes
// field. Strings have no packed wire encoding, so unlike the varint and
// fixed families there is no sibling parser to wire in.
func RepeatedString(tagbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return stringField(s, ptr, msg, table, hasbits, data, tagbytes, CardRepeated)
	}
}
