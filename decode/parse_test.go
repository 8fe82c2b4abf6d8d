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

package decode_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lavi02/fastwire/decode"
)

// Layout for these tests, all fields at fixed byte offsets:
//
//	0:  presence word (uint32)
//	8:  field 1, int64 varint                    (tag 1, fast slot 1)
//	16: field 2, StringView                      (tag 2, fast slot 2)
//	32: field 3, *child message                  (tag 3, fast slot 3)
//	40: field 4, *Array of int32 (repeated)      (tag 4, fast slot 4)
const (
	offField1 = 8
	offField2 = 16
	offField3 = 32
	offField4 = 40
	msgSize   = 48
)

func rootLayout(child *decode.Layout) *decode.Layout {
	l := decode.NewLayout(msgSize)
	l.Submsgs = []*decode.Layout{child}
	l.Fast(decode.FastSlotFor(1), decode.SingularVarint(1, 8, false), decode.FieldData(1<<3|0, 0, offField1))
	l.Fast(decode.FastSlotFor(2), decode.SingularString(1), decode.FieldData(2<<3|2, 1, offField2))
	l.Fast(decode.FastSlotFor(3), decode.SingularSubmsg(1), decode.SubmsgFieldData(3<<3|2, 2, 0, offField3))
	l.Fast(decode.FastSlotFor(4), decode.RepeatedVarint(1, 4, false), decode.FieldData(4<<3|0, 4, offField4))
	return l
}

func childLayout() *decode.Layout {
	l := decode.NewLayout(16)
	// field 1: int64 varint at offset 8
	l.Fast(decode.FastSlotFor(1), decode.SingularVarint(1, 8, false), decode.FieldData(1<<3|0, 0, 8))
	return l
}

func fieldPtr(msg unsafe.Pointer, off uintptr) unsafe.Pointer {
	return unsafe.Add(msg, off)
}

func TestSingularVarint(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 42)

	msg, _, err := decode.Parse(buf, rootLayout(childLayout()), false)
	require.NoError(t, err)

	got := *(*int64)(fieldPtr(msg, offField1))
	assert.Equal(t, int64(42), got)
	assert.True(t, decode.HasBit(msg, 0))
}

func TestUnknownFieldSkipped(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 99, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 7)
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 42)

	msg, _, err := decode.Parse(buf, rootLayout(childLayout()), false)
	require.NoError(t, err)
	assert.Equal(t, int64(42), *(*int64)(fieldPtr(msg, offField1)))
}

func TestStringCopyMode(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendString(buf, "hello, world")

	backing := make([]byte, len(buf))
	copy(backing, buf)

	msg, _, err := decode.Parse(backing, rootLayout(childLayout()), false)
	require.NoError(t, err)

	view := (*decode.StringView)(fieldPtr(msg, offField2))
	assert.Equal(t, "hello, world", view.String())

	// Mutating the input after decode must not affect a copy-mode result.
	for i := range backing {
		backing[i] = 0
	}
	assert.Equal(t, "hello, world", view.String())
}

func TestStringAliasMode(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendString(buf, "aliased view")

	msg, _, err := decode.Parse(buf, rootLayout(childLayout()), true)
	require.NoError(t, err)

	view := (*decode.StringView)(fieldPtr(msg, offField2))
	assert.Equal(t, "aliased view", view.String())
	// The view starts just past the 1-byte tag and 1-byte length prefix.
	assert.Same(t, &buf[2], (*byte)(view.Data))
}

func TestStringLongCascadeOverflow(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	var buf []byte
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendString(buf, string(long))

	msg, _, err := decode.Parse(buf, rootLayout(childLayout()), false)
	require.NoError(t, err)

	view := (*decode.StringView)(fieldPtr(msg, offField2))
	assert.Equal(t, string(long), view.String())
}

func TestSubmessageNesting(t *testing.T) {
	var child []byte
	child = protowire.AppendTag(child, 1, protowire.VarintType)
	child = protowire.AppendVarint(child, 99)

	var buf []byte
	buf = protowire.AppendTag(buf, 3, protowire.BytesType)
	buf = protowire.AppendBytes(buf, child)

	msg, _, err := decode.Parse(buf, rootLayout(childLayout()), false)
	require.NoError(t, err)

	childPtr := *(*unsafe.Pointer)(fieldPtr(msg, offField3))
	require.NotNil(t, childPtr)
	assert.Equal(t, int64(99), *(*int64)(fieldPtr(childPtr, 8)))
}

func TestRepeatedVarintUnpacked(t *testing.T) {
	var buf []byte
	for _, v := range []uint64{1, 2, 3, 4, 5} {
		buf = protowire.AppendTag(buf, 4, protowire.VarintType)
		buf = protowire.AppendVarint(buf, v)
	}

	msg, _, err := decode.Parse(buf, rootLayout(childLayout()), false)
	require.NoError(t, err)

	arr := *(**decode.Array)(fieldPtr(msg, offField4))
	require.NotNil(t, arr)
	require.EqualValues(t, 5, arr.Len)
	for i := 0; i < 5; i++ {
		val := *(*int32)(unsafe.Add(arr.Data, uintptr(i)*4))
		assert.Equal(t, int32(i+1), val)
	}
}

func TestRepeatedVarintPackedFlipsToUnpackedSlot(t *testing.T) {
	// The fast slot is compiled for the unpacked wire type; a packed-encoded
	// run of the same field must still decode correctly via flip-and-retry.
	var packed []byte
	for _, v := range []uint64{10, 20, 30} {
		packed = protowire.AppendVarint(packed, v)
	}
	var buf []byte
	buf = protowire.AppendTag(buf, 4, protowire.BytesType)
	buf = protowire.AppendBytes(buf, packed)

	msg, _, err := decode.Parse(buf, rootLayout(childLayout()), false)
	require.NoError(t, err)

	arr := *(**decode.Array)(fieldPtr(msg, offField4))
	require.NotNil(t, arr)
	require.EqualValues(t, 3, arr.Len)
	assert.Equal(t, int32(10), *(*int32)(unsafe.Add(arr.Data, 0)))
	assert.Equal(t, int32(20), *(*int32)(unsafe.Add(arr.Data, 4)))
	assert.Equal(t, int32(30), *(*int32)(unsafe.Add(arr.Data, 8)))
}

func TestMalformedVarintFails(t *testing.T) {
	buf := []byte{0x08, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	_, _, err := decode.Parse(buf, rootLayout(childLayout()), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, &decode.Error{Code: decode.MalformedVarint})
}

func TestRecursionLimitExceeded(t *testing.T) {
	self := decode.NewLayout(msgSize)
	self.Fast(decode.FastSlotFor(3), decode.SingularSubmsg(1), decode.SubmsgFieldData(3<<3|2, 2, 0, offField3))
	self.Submsgs = []*decode.Layout{self}

	var buf []byte
	inner := []byte{}
	depth := decode.DefaultDepth + 5
	for i := 0; i < depth; i++ {
		var next []byte
		next = protowire.AppendTag(next, 3, protowire.BytesType)
		next = protowire.AppendBytes(next, inner)
		inner = next
	}
	buf = inner

	_, _, err := decode.Parse(buf, self, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, &decode.Error{Code: decode.RecursionLimit})
}

func TestEmptyMessageIsNotAnError(t *testing.T) {
	msg, _, err := decode.Parse(nil, rootLayout(childLayout()), false)
	require.NoError(t, err)
	assert.NotNil(t, msg)
	assert.False(t, decode.HasBit(msg, 0))
}
