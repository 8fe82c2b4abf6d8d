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

// The upb source this package is ported from generates its ~90-entry
// parser matrix with C preprocessor macros ({s,o,r,p} x {b1,v4,v8,z4,z8} x
// {1bt,2bt}), producing one exported symbol per combination. Go has no
// equivalent macro-expansion step, so instead there is a single generic
// engine (unpackedVarint/packedVarint below) and a small set of factory
// functions (SingularVarint, RepeatedVarint, ...) that close over the axis
// parameters at layout-build time. Each factory call is the Go analogue of
// one macro instantiation; the closures it produces are what a compiled
// [Layout] installs into its fast table.

func storeVal(dst unsafe.Pointer, val uint64, valbytes int) {
	switch valbytes {
	case 1:
		*(*uint8)(dst) = uint8(val)
	case 4:
		*(*uint32)(dst) = uint32(val)
	case 8:
		*(*uint64)(dst) = val
	}
}

// unpackedVarint implements the singular/oneof/unpacked-repeated varint
// parser. On a tag mismatch for a repeated field, it tries flipping the
// wire-type bit to detect an incoming packed encoding before giving up to
// the generic decoder.
func unpackedVarint(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits, data uint64, tagbytes, valbytes int, card Card, zigzag bool, packed FieldParser) unsafe.Pointer {
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
		next, val, ok := varint64(s, p)
		if !ok {
			return s.fail(MalformedVarint, p)
		}
		ptr = next
		storeVal(dst, munge(val, valbytes, zigzag), valbytes)

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
		default: // nextAtLimit
			return ptr
		}
	}
}

// packedVarint implements the packed-repeated varint parser: a single
// length-delimited region holding consecutive varints with no per-element
// tag. A tag mismatch tries flipping back to the unpacked wire type.
func packedVarint(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits, data uint64, tagbytes, valbytes int, zigzag bool, unpacked FieldParser) unsafe.Pointer {
	if !tagMatch(data, tagbytes) {
		if flipPacked(&data, tagbytes) {
			return unpacked(s, ptr, msg, table, hasbits, data)
		}
		return genericFallback(s, ptr, msg, table, hasbits, 0)
	}

	var f farr
	dst := getField(s, ptr, msg, &data, &hasbits, &f, valbytes, CardPacked)

	ptr = unsafe.Add(ptr, tagbytes)
	ptr = delimited(s, ptr, func(s *State, ptr unsafe.Pointer) unsafe.Pointer {
		for !isDone(s, ptr) {
			dst = resizeArr(s, dst, &f, valbytes)
			next, val, ok := varint64(s, ptr)
			if !ok {
				return s.fail(MalformedVarint, ptr)
			}
			ptr = next
			storeVal(dst, munge(val, valbytes, zigzag), valbytes)
			dst = unsafe.Add(dst, valbytes)
		}
		commitArr(dst, &f, valbytes)
		return ptr
	})
	if ptr == nil {
		return nil
	}
	return Dispatch(s, ptr, msg, table, hasbits)
}

// SingularVarint builds the fast-table entry for a singular varint field.
func SingularVarint(tagbytes, valbytes int, zigzag bool) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedVarint(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardSingular, zigzag, nil)
	}
}

// OneofVarint builds the fast-table entry for a oneof varint field.
func OneofVarint(tagbytes, valbytes int, zigzag bool) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedVarint(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardOneof, zigzag, nil)
	}
}

// RepeatedVarint builds the fast-table entry for an unpacked-repeated
// varint field, wiring in a sibling packed parser for the flip-and-retry
// path.
func RepeatedVarint(tagbytes, valbytes int, zigzag bool) FieldParser {
	var unpacked, packedFn FieldParser
	unpacked = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedVarint(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardRepeated, zigzag, packedFn)
	}
	packedFn = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return packedVarint(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, zigzag, unpacked)
	}
	return unpacked
}

// PackedVarint builds the fast-table entry for a packed-repeated varint
// field, wiring in a sibling unpacked parser for the flip-and-retry path.
func PackedVarint(tagbytes, valbytes int, zigzag bool) FieldParser {
	var unpacked, packedFn FieldParser
	unpacked = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return unpackedVarint(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, CardRepeated, zigzag, packedFn)
	}
	packedFn = func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return packedVarint(s, ptr, msg, table, hasbits, data, tagbytes, valbytes, zigzag, unpacked)
	}
	return packedFn
}
