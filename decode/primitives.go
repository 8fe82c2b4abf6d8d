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

	zz "github.com/lavi02/fastwire/internal/zigzag"
)

// loadTag loads two bytes at ptr as a little-endian uint16. For a one-byte
// tag, the high byte is junk and callers mask it away with tagMatch. The
// read is speculative: it always reads two bytes even when only one remains
// before the limit, so it goes through s.shadow to stay inside memory this
// package owns when alias mode leaves ptr near the end of the caller's
// buffer.
func loadTag(s *State, ptr unsafe.Pointer) uint16 {
	return *(*uint16)(s.shadow(ptr))
}

// tagMatch reports whether data's low tagbytes bytes are all zero, meaning
// the tag actually read matches the one the fast slot was compiled for.
func tagMatch(data uint64, tagbytes int) bool {
	if tagbytes == 1 {
		return data&0xff == 0
	}
	return data&0xffff == 0
}

// varint64 reads up to 10 little-endian base-128 groups starting at ptr,
// biasing each continuation byte's contribution by -1 so that a terminator
// byte of 0x01 contributes zero: this is what lets the dispatch core treat
// "tag + continuation 0x01" as an ordinary single-byte-tag case without a
// branch. Returns the new ptr, or nil if the 10th byte exceeds 1.
//
// Each byte read is speculative in the sense that the caller hasn't checked
// there's a byte there before calling in: every dereference goes through
// s.shadow to stay inside memory this package owns when alias mode leaves
// ptr near the end of the caller's buffer.
func varint64(s *State, ptr unsafe.Pointer) (unsafe.Pointer, uint64, bool) {
	b := *(*byte)(s.shadow(ptr))
	ptr = unsafe.Add(ptr, 1)
	val := uint64(b)
	if val&0x80 == 0 {
		return ptr, val, true
	}
	for i := 0; i < 8; i++ {
		b = *(*byte)(s.shadow(ptr))
		ptr = unsafe.Add(ptr, 1)
		val += (uint64(b) - 1) << (7 + 7*i)
		if b&0x80 == 0 {
			return ptr, val, true
		}
	}
	b = *(*byte)(s.shadow(ptr))
	ptr = unsafe.Add(ptr, 1)
	if b > 1 {
		return nil, 0, false
	}
	val += (uint64(b) - 1) << 63
	return ptr, val, true
}

// longsize continues reading a length prefix whose first byte had its
// continuation bit set. size already holds the first (biased) byte's raw
// value with the high bit still set; up to four more groups are read, and
// the length is capped at 2GiB (not 4GiB): the 5th byte may not exceed 7.
// Reads go through s.shadow for the same reason as in [varint64].
func longsize(s *State, ptr unsafe.Pointer, size int) (unsafe.Pointer, int, bool) {
	size &= 0xff
	for i := 0; i < 3; i++ {
		b := *(*byte)(s.shadow(ptr))
		ptr = unsafe.Add(ptr, 1)
		size += (int(b) - 1) << (7 + 7*i)
		if b&0x80 == 0 {
			return ptr, size, true
		}
	}
	b := *(*byte)(s.shadow(ptr))
	ptr = unsafe.Add(ptr, 1)
	if b >= 8 {
		return nil, 0, false
	}
	size += (int(b) - 1) << 28
	return ptr, size, true
}

// boundsCheck reports whether reading len bytes at ptr would run past end,
// tolerating a pad-byte overread; it detects both wraparound and overrun in
// a single comparison, computed the way upb does to fold the add the caller
// is about to do into the check itself.
func boundsCheck(ptr unsafe.Pointer, length int, end unsafe.Pointer, pad uintptr) bool {
	uptr := uintptr(ptr)
	uend := uintptr(end) + pad
	res := uptr + uintptr(length)
	return res < uptr || res > uend
}

// boundsCheckLax tolerates a 16-byte overread, used where the arena or a
// short-string copy cascade guarantees slop past the logical end.
func boundsCheckLax(ptr unsafe.Pointer, length int, end unsafe.Pointer) bool {
	return boundsCheck(ptr, length, end, 16)
}

// boundsCheckStrict allows no slop; used against a nesting limit.
func boundsCheckStrict(ptr unsafe.Pointer, length int, end unsafe.Pointer) bool {
	return boundsCheck(ptr, length, end, 0)
}

func fixed32(ptr unsafe.Pointer) uint32 { return *(*uint32)(ptr) }
func fixed64(ptr unsafe.Pointer) uint64 { return *(*uint64)(ptr) }

// munge applies the post-read transformation to a raw varint value before it
// is stored: booleans collapse to 0/1, sint32/sint64 undergo the zigzag
// mapping, everything else passes through unchanged.
func munge(val uint64, valbytes int, zigzag bool) uint64 {
	switch {
	case valbytes == 1:
		if val != 0 {
			return 1
		}
		return 0
	case zigzag && valbytes == 4:
		return uint64(uint32(zz.Decode32(uint32(val))))
	case zigzag && valbytes == 8:
		return uint64(zz.Decode64(val))
	default:
		return val
	}
}
