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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noShadow is a State with no tail shadow installed, so varint64/longsize
// dereference ptr directly, matching copy mode's behaviour for these tests'
// always-padded fixture buffers.
var noShadow = &State{}

func TestVarint64SingleByte(t *testing.T) {
	buf := []byte{0x05, 0x00}
	next, val, ok := varint64(noShadow, unsafe.Pointer(&buf[0]))
	require.True(t, ok)
	assert.Equal(t, uint64(5), val)
	assert.Equal(t, unsafe.Add(unsafe.Pointer(&buf[0]), 1), next)
}

func TestVarint64MultiByte(t *testing.T) {
	// 300 = 0b1_00101100 -> low7=0101100|cont, high=0000010
	buf := []byte{0xAC, 0x02, 0x00}
	_, val, ok := varint64(noShadow, unsafe.Pointer(&buf[0]))
	require.True(t, ok)
	assert.Equal(t, uint64(300), val)
}

func TestVarint64TenthByteExceedsOneFails(t *testing.T) {
	buf := make([]byte, 11)
	for i := 0; i < 10; i++ {
		buf[i] = 0xff
	}
	_, _, ok := varint64(noShadow, unsafe.Pointer(&buf[0]))
	assert.False(t, ok)
}

func TestVarint64TenthByteOneSucceeds(t *testing.T) {
	buf := make([]byte, 11)
	for i := 0; i < 9; i++ {
		buf[i] = 0xff
	}
	buf[9] = 0x01
	_, _, ok := varint64(noShadow, unsafe.Pointer(&buf[0]))
	assert.True(t, ok)
}

func TestTagMatchOneByte(t *testing.T) {
	assert.True(t, tagMatch(0, 1))
	assert.True(t, tagMatch(0x1200, 1)) // high byte irrelevant for a 1-byte tag
	assert.False(t, tagMatch(0x01, 1))
}

func TestTagMatchTwoByte(t *testing.T) {
	assert.True(t, tagMatch(0, 2))
	assert.False(t, tagMatch(0x0100, 2))
	assert.False(t, tagMatch(0x0001, 2))
}

func TestBoundsCheckLaxTolerance(t *testing.T) {
	buf := make([]byte, 32)
	end := unsafe.Add(unsafe.Pointer(&buf[0]), 32)

	// Reading exactly to end+16 (the lax pad) is allowed.
	assert.False(t, boundsCheckLax(unsafe.Pointer(&buf[0]), 48, end))
	// One byte further is not.
	assert.True(t, boundsCheckLax(unsafe.Pointer(&buf[0]), 49, end))
}

func TestBoundsCheckStrictNoTolerance(t *testing.T) {
	buf := make([]byte, 32)
	end := unsafe.Add(unsafe.Pointer(&buf[0]), 32)

	assert.False(t, boundsCheckStrict(unsafe.Pointer(&buf[0]), 32, end))
	assert.True(t, boundsCheckStrict(unsafe.Pointer(&buf[0]), 33, end))
}

func TestMungeZigzag(t *testing.T) {
	// zigzag(1) == -1; munge widens the 32-bit result into a uint64 without
	// sign-extending, so only the low 32 bits are meaningful here. storeVal
	// truncates back down to the field's actual valbytes when writing it out.
	assert.Equal(t, uint32(0xFFFFFFFF), uint32(munge(1, 4, true)))
	assert.Equal(t, uint64(2), munge(4, 4, true)) // zigzag(4) == 2
}

func TestMungeBoolCollapse(t *testing.T) {
	assert.Equal(t, uint64(1), munge(0xFF, 1, false))
	assert.Equal(t, uint64(0), munge(0, 1, false))
}

func TestFastSlotForMasksToFiveBits(t *testing.T) {
	assert.Equal(t, 1, FastSlotFor(1))
	assert.Equal(t, 0, FastSlotFor(32))
	assert.Equal(t, 31, FastSlotFor(63))
}
