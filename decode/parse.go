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

// Parse decodes buf as a message of layout l into a fresh [State], returning
// the decoded message record.
//
// alias controls whether string/bytes fields point directly into buf (true)
// or are copied into the returned State's arena (false); the caller must
// keep buf alive for the lifetime of the result in the former case.
//
// A zero-length buf is a well-formed empty message, not an error: Dispatch
// returns a nil ptr on that path too, so success is determined by s.Err(),
// never by comparing the returned pointer to nil.
func Parse(buf []byte, l *Layout, alias bool) (unsafe.Pointer, *State, error) {
	s := new(State)
	return ParseInto(s, buf, l, alias)
}

// ParseInto is [Parse] against a caller-supplied, possibly-reused [State].
// Reset drops the State's arena blocks, so a reused State's arena starts
// again from a fresh minimum-size block; grown blocks are not carried over
// from one decode to the next.
func ParseInto(s *State, buf []byte, l *Layout, alias bool) (unsafe.Pointer, *State, error) {
	s.Reset(buf, alias)

	msg := NewMessage(s, l)
	if len(buf) == 0 {
		return msg, s, nil
	}

	final := Dispatch(s, s.ptr, msg, l, 0)
	if s.EndGroup != 0 {
		s.fail(UnterminatedGroup, final)
	}
	if err := s.Err(); err != nil {
		return nil, s, err
	}
	return msg, s, nil
}
