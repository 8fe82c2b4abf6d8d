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

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// ceilClasses are the message-allocation size classes newMessageCeil rounds
// up to. Rounding to one of a handful of sizes, rather than allocating each
// message's exact byte count, keeps the arena's bump cursor landing on the
// same handful of offsets across a decode instead of a different one per
// distinct message type, which is friendlier to the block-growth doubling in
// [arena.Arena.grow].
var ceilClasses = [...]uint32{64, 128, 192, 256}

// newMessageCeil allocates a message record sized to the smallest ceiling
// class that fits l.Size, or l.Size itself if it exceeds every class.
func newMessageCeil(s *State, l *Layout) unsafe.Pointer {
	for _, c := range ceilClasses {
		if l.Size <= c {
			return s.Arena.Alloc(int(c))
		}
	}
	return s.Arena.Alloc(int(l.Size))
}

// submsgField is the {singular,oneof,repeated} sub-message parser. It
// decrements the recursion budget, recurses into [Dispatch] against the
// child layout named by the field's sub-message index, and checks that the
// child didn't stop on a stray group-end tag before restoring the budget.
func submsgField(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits, data uint64, tagbytes int, card Card, group bool, groupFieldNumber uint8) unsafe.Pointer {
	if !tagMatch(data, tagbytes) {
		return genericFallback(s, ptr, msg, table, hasbits, 0)
	}

	child := table.Submsgs[dataSubmsgIdx(data)]

	var f farr
	dst := getField(s, ptr, msg, &data, &hasbits, &f, ptrSize, card)

	for {
		if card == CardRepeated {
			dst = resizeArr(s, dst, &f, ptrSize)
		}
		if card == CardSingular || card == CardOneof {
			flushHasbits(msg, hasbits)
			hasbits = 0
		}

		if s.Depth == 0 {
			return s.fail(RecursionLimit, ptr)
		}
		s.Depth--

		var next unsafe.Pointer
		if group {
			next = decodeGroup(s, ptr, tagbytes, dst, child, groupFieldNumber)
		} else {
			next = decodeLenSubmsg(s, ptr, tagbytes, dst, child)
		}

		s.Depth++
		if next == nil {
			return nil
		}
		ptr = next

		if card != CardRepeated {
			return Dispatch(s, ptr, msg, table, hasbits)
		}

		ret := nextRepeated(s, dst, &ptr, &f, data, tagbytes, ptrSize)
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

// decodeLenSubmsg parses a length-delimited (LEN wire type) sub-message
// starting at ptr, allocating the child record if this is the field's first
// occurrence and recursing through the standard delimited-scope framing.
func decodeLenSubmsg(s *State, ptr unsafe.Pointer, tagbytes int, dst unsafe.Pointer, child *Layout) unsafe.Pointer {
	msgSlot := (*unsafe.Pointer)(dst)
	if *msgSlot == nil {
		*msgSlot = newMessageCeil(s, child)
	}
	childMsg := *msgSlot

	ptr = unsafe.Add(ptr, tagbytes)
	ptr = delimited(s, ptr, func(s *State, ptr unsafe.Pointer) unsafe.Pointer {
		return Dispatch(s, ptr, childMsg, child, 0)
	})
	if ptr == nil {
		return nil
	}
	if s.EndGroup != 0 {
		return s.fail(UnterminatedGroup, ptr)
	}
	return ptr
}

// decodeGroup parses a group (START_GROUP/END_GROUP wire type pair) starting
// just past the START_GROUP tag, running the child dispatch loop against the
// enclosing message's own limit rather than a narrowed one, and checking on
// return that the group closed with the matching field number.
func decodeGroup(s *State, ptr unsafe.Pointer, tagbytes int, dst unsafe.Pointer, child *Layout, fieldNumber uint8) unsafe.Pointer {
	msgSlot := (*unsafe.Pointer)(dst)
	if *msgSlot == nil {
		*msgSlot = newMessageCeil(s, child)
	}
	childMsg := *msgSlot

	ptr = unsafe.Add(ptr, tagbytes)
	ptr = Dispatch(s, ptr, childMsg, child, 0)
	if ptr == nil {
		return nil
	}
	if s.EndGroup == 0 {
		return s.fail(UnterminatedGroup, ptr)
	}
	if uint8(s.EndGroup>>3) != fieldNumber {
		return s.fail(UnterminatedGroup, ptr)
	}
	s.EndGroup = 0
	return ptr
}

// SingularSubmsg builds the fast-table entry for a singular length-delimited
// sub-message field.
func SingularSubmsg(tagbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return submsgField(s, ptr, msg, table, hasbits, data, tagbytes, CardSingular, false, 0)
	}
}

// OneofSubmsg builds the fast-table entry for a oneof length-delimited
// sub-message field.
func OneofSubmsg(tagbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return submsgField(s, ptr, msg, table, hasbits, data, tagbytes, CardOneof, false, 0)
	}
}

// RepeatedSubmsg builds the fast-table entry for a repeated length-delimited
// sub-message field.
func RepeatedSubmsg(tagbytes int) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return submsgField(s, ptr, msg, table, hasbits, data, tagbytes, CardRepeated, false, 0)
	}
}

// SingularGroup builds the fast-table entry for a singular group field.
// fieldNumber is needed to check the matching END_GROUP tag on return from
// the child, since the fast-table data word doesn't carry it for singular
// fields (that slot holds the hasbit index instead).
func SingularGroup(tagbytes int, fieldNumber uint8) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return submsgField(s, ptr, msg, table, hasbits, data, tagbytes, CardSingular, true, fieldNumber)
	}
}

// OneofGroup builds the fast-table entry for a oneof group field.
func OneofGroup(tagbytes int, fieldNumber uint8) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return submsgField(s, ptr, msg, table, hasbits, data, tagbytes, CardOneof, true, fieldNumber)
	}
}

// RepeatedGroup builds the fast-table entry for a repeated group field.
func RepeatedGroup(tagbytes int, fieldNumber uint8) FieldParser {
	return func(s *State, ptr, msg unsafe.Pointer, table *Layout, hasbits, data uint64) unsafe.Pointer {
		return submsgField(s, ptr, msg, table, hasbits, data, tagbytes, CardRepeated, true, fieldNumber)
	}
}
