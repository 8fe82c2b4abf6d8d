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

// unpackedFixed is the {singular,oneof,unpacked-repeated} fixed32/fixed64
// parser: a verbatim memcpy of valbytes in place of the varint decode.
func unpackedFixed(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits, data uint64, tagbytes, valbytes int, card Card, packed FieldParser) unsafe.Pointer {
	if !tagMatch(data, tagbytes) {
		if card == CardRepeated && flipPacked(&data, tagbytes) {
			return packed(s, ptr, msg, table, hasbits, data)
		}
		return genericFallback(s, ptr, msg, table, hasbits, 0)
	}

	var f farr
	dst := getField(s, ptr, msg, &data, &hasbits, &f, valbytes, card)

	for {
		if card == CardRepeated {
			dst = resizeArr(s, dst, &f, valbytes)
		}

		p := unsafe.Add(ptr, tagbytes)
		copyFixed(s, dst, p, valbytes)
		ptr = unsafe.Add(p, valbytes)

		if card != CardRepeated {
			return Dispatch(s, ptr, msg, table, hasbits)
		}

		ret := nextRepeated(s, dst, &ptr, &f, data, tagbytes, valbytes)
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

// packedFixed validates the length prefix is a multiple of valbytes, resizes
// the array to exactly size/valbytes elements, and does one bulk memcpy
// instead of looping element by element.
func packedFixed(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits, data uint64, tagbytes, valbytes int, unpacked FieldParser) unsafe.Pointer {
	if !tagMatch(data, tagbytes) {
		if flipPacked(&data, tagbytes) {
			return unpacked(s, ptr, msg, table, hasbits, data)
		}
		return genericFallback(s, ptr, msg, table, hasbits, 0)
	}

	ptr = unsafe.Add(ptr, tagbytes)
	size := int(*(*byte)(s.shadow(ptr)))
	ptr = unsafe.Add(ptr, 1)
	if size&0x80 != 0 {
		var ok bool
		ptr, size, ok = longsize(s, ptr, size)
		if !ok {
			return s.fail(MalformedVarint, ptr)
		}
	}

	if boundsCheckStrict(ptr, size, s.limitPtr) || size%valbytes != 0 {
		return s.fail(BoundsExceeded, ptr)
	}

	arrSlot := (**Array)(fieldPtr(msg, data))
	elems := uint32(size / valbytes)

	var arr *Array
	if *arrSlot == nil {
		arr = newArray(s, elems, valbytes)
		*arrSlot = arr
	} else {
		arr = *arrSlot
		if arr.Cap < elems {
			arr.Data = s.Arena.Realloc(arr.Data, int(arr.Cap)*valbytes, int(elems)*valbytes)
			arr.Cap = elems
		}
	}

	copy(unsafe.Slice((*byte)(arr.Data), size), unsafe.Slice((*byte)(ptr), size))
	arr.Len = elems

	return Dispatch(s, unsafe.Add(ptr, size), msg, table, hasbits)
}

// copyFixed writes a fixed32/fixed64 field's value into dst. The read is
// unconditional, with no bounds check of its own, so src goes through
// s.shadow to stay inside memory this package owns when alias mode leaves
// src near the end of the caller's buffer.
func copyFixed(s *State, dst, src unsafe.Pointer, valbytes int) {
	src = s.shadow(src)
	switch valbytes {
	case 4:
		*(*uint32)(dst) = fixed32(src)
	case 8:
		*(*uint64)(dst) = fixed64(src)
	}
}

// SingularFixed builds the fast-table entry for a singular fixed32/64 field.
func SingularFixed(tagbytes, valbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedFixed(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardSingular, nil)
	}
}

// OneofFixed builds the fast-table entry for a oneof fixed32/64 field.
func OneofFixed(tagbytes, valbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedFixed(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardOneof, nil)
	}
}

// RepeatedFixed builds the fast-table entry for an unpacked-repeated
// fixed32/64 field.
func RepeatedFixed(tagbytes, valbytes int) FieldParser {
	var unpacked, packedFn FieldParser
	unpacked = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedFixed(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardRepeated, packedFn)
	}
	packedFn = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return packedFixed(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, unpacked)
	}
	return unpacked
}

// PackedFixed builds the fast-table entry for a packed-repeated fixed32/64
// field.
func PackedFixed(tagbytes, valbytes int) FieldParser {
	var unpacked, packedFn FieldParser
	unpacked = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedFixed(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardRepeated, packedFn)
	}
	packedFn = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return packedFixed(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, unpacked)
	}
	return packedFn
}
