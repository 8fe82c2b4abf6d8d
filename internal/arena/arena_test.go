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

package arena_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavi02/fastwire/internal/arena"
)

func TestAllocZeroed(t *testing.T) {
	var a arena.Arena
	p := a.Alloc(64)
	require.NotNil(t, p)
	for _, b := range unsafe.Slice((*byte)(p), 64) {
		assert.Zero(t, b)
	}
}

func TestAllocDistinctRegions(t *testing.T) {
	var a arena.Arena
	p1 := a.Alloc(16)
	p2 := a.Alloc(16)
	assert.NotEqual(t, p1, p2)

	*(*byte)(p1) = 0xAA
	assert.Zero(t, *(*byte)(p2))
}

func TestAllocGrowsAcrossBlocks(t *testing.T) {
	var a arena.Arena
	// Force at least one grow past the initial 256-byte block.
	first := a.Alloc(200)
	second := a.Alloc(200)
	assert.NotNil(t, first)
	assert.NotNil(t, second)
	assert.NotEqual(t, first, second)
}

func TestReallocInPlaceExtendsLastAllocation(t *testing.T) {
	var a arena.Arena
	p := a.AllocRaw(8)
	before := a.Has()

	q := a.Realloc(p, 8, 16)
	assert.Equal(t, p, q, "growing the most recent allocation should stay in place")
	assert.Equal(t, before-8, a.Has())
}

func TestReallocMovesWhenNotLastAllocation(t *testing.T) {
	var a arena.Arena
	p := a.AllocRaw(8)
	_ = a.AllocRaw(8) // p is no longer the most recent allocation

	*(*byte)(p) = 0x42
	q := a.Realloc(p, 8, 16)
	assert.NotEqual(t, p, q)
	assert.Equal(t, byte(0x42), *(*byte)(q), "realloc must preserve the old contents on move")
}

func TestResetLeavesArenaUsable(t *testing.T) {
	var a arena.Arena
	p := a.Alloc(16)
	*(*byte)(p) = 0x7F

	a.Reset()
	q := a.Alloc(16)
	// A fresh block after Reset need not equal the same address, but the
	// arena must be usable immediately.
	assert.NotNil(t, q)
}

func TestLog2PowersOfTwo(t *testing.T) {
	cases := map[int]uint8{1: 0, 2: 1, 4: 2, 8: 3, 16: 4, 32: 5, 64: 6, 128: 7}
	for n, want := range cases {
		assert.Equal(t, want, arena.Log2(n))
	}
}
