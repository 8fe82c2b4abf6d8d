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

// Package zigzag implements the sint32/sint64 munge step of the varint
// parsers: the signed-to-unsigned mapping that keeps small negative values
// compact on the wire.
package zigzag

import "google.golang.org/protobuf/encoding/protowire"

// Decode32 decodes a zigzag-encoded 32-bit value. raw is zero-extended to 64
// bits before delegating to protowire, so only the low 32 bits of the result
// are meaningful; callers truncate.
func Decode32(raw uint32) int32 {
	return int32(protowire.DecodeZigZag(uint64(raw)))
}

// Decode64 decodes a zigzag-encoded 64-bit value.
func Decode64(raw uint64) int64 {
	return protowire.DecodeZigZag(raw)
}

// Encode32 is the inverse of Decode32, used by tests to build wire fixtures.
func Encode32(n int32) uint32 {
	return uint32(protowire.EncodeZigZag(int64(n)))
}

// Encode64 is the inverse of Decode64, used by tests to build wire fixtures.
func Encode64(n int64) uint64 {
	return protowire.EncodeZigZag(n)
}
