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

	"google.golang.org/protobuf/encoding/protowire"
)

// genericFallback handles every case the fast table isn't specialised for:
// an unknown field, a tag that didn't match the slot compiled for it, and a
// wire type the fast path doesn't have a dedicated parser for (END_GROUP
// tags, in particular). It reads one field generically with protowire
// and re-enters [Dispatch], so the fast path resumes as soon as the run of
// unrecognised fields ends.
//
// This is installed as the parser for every unused fast-table slot (see
// [NewLayout]) as well as reached by tag mismatches inside specialised
// parsers, so it never assumes data carries anything meaningful; the data
// argument is ignored.
func genericFallback(s *State, ptr unsafe.Pointer, msg unsafe.Pointer, table *Layout, hasbits uint64, _ uint64) unsafe.Pointer {
	flushHasbits(msg, hasbits)

	avail := int(uintptr(s.limitPtr) - uintptr(ptr))
	if avail <= 0 {
		return s.fail(BoundsExceeded, ptr)
	}
	buf := unsafe.Slice((*byte)(ptr), avail)

	fieldNum, wireType, tagLen := protowire.ConsumeTag(buf)
	if tagLen < 0 {
		return s.fail(MalformedVarint, ptr)
	}

	if wireType == protowire.EndGroupType {
		s.EndGroup = uint64(fieldNum)<<3 | uint64(wireType)
		return unsafe.Add(ptr, tagLen)
	}

	valLen := protowire.ConsumeFieldValue(fieldNum, wireType, buf[tagLen:])
	if valLen < 0 {
		return s.fail(MalformedVarint, ptr)
	}

	return Dispatch(s, unsafe.Add(ptr, tagLen+valLen), msg, table, 0)
}
