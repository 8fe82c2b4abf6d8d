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

package zigzag_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lavi02/fastwire/internal/zigzag"
)

func TestZigzag(t *testing.T) {
	t.Parallel()

	tests32 := []int32{
		0, 1, 2, 3, 4, 5, 6, 7,
		0x7fffffff, -0x80000000,
		-1, -2, -3, -4,
	}
	tests64 := []int64{
		0, 1, 2, 3, 4, 5, 6, 7,
		0x7fffffffffffffff, -0x8000000000000000,
		-1, -2, -3, -4,
	}

	for _, tt := range tests32 {
		tt := tt
		t.Run(fmt.Sprintf("32/%#x", tt), func(t *testing.T) {
			t.Parallel()
			enc := zigzag.Encode32(tt)
			assert.Equal(t, int32(protowire.DecodeZigZag(uint64(enc))), zigzag.Decode32(enc))
			assert.Equal(t, tt, zigzag.Decode32(enc))
		})
	}

	for _, tt := range tests64 {
		tt := tt
		t.Run(fmt.Sprintf("64/%#x", tt), func(t *testing.T) {
			t.Parallel()
			enc := zigzag.Encode64(tt)
			assert.Equal(t, protowire.DecodeZigZag(enc), zigzag.Decode64(enc))
			assert.Equal(t, tt, zigzag.Decode64(enc))
		})
	}
}
