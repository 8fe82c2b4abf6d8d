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

// options collects the settings [Option] values close over. It is never
// exposed directly; ParseWithOptions builds one from the defaults and
// whatever the caller passed in.
type options struct {
	alias    bool
	maxDepth int
}

// Option is a configuration setting for [ParseWithOptions]. Not an interface,
// mirroring the {Compile,Unmarshal}Option pattern this package's ambient
// style follows: an Option is on the hot path for every decode, and an
// interface value would force each With* call through an indirect dispatch.
type Option struct{ apply func(*options) }

// WithAlias sets whether decoded string/bytes fields may point directly into
// the input buffer instead of being copied into the arena. The caller must
// keep the buffer alive for the lifetime of the decoded message when this is
// set. Defaults to false.
func WithAlias(alias bool) Option {
	return Option{func(o *options) { o.alias = alias }}
}

// WithMaxDepth overrides the sub-message recursion budget. Defaults to
// [DefaultDepth].
func WithMaxDepth(depth int) Option {
	return Option{func(o *options) { o.maxDepth = depth }}
}

// ParseWithOptions is [Parse] with room for settings beyond the alias flag.
func ParseWithOptions(buf []byte, l *Layout, opts ...Option) (unsafe.Pointer, *State, error) {
	s := new(State)
	return ParseIntoWithOptions(s, buf, l, opts...)
}

// ParseIntoWithOptions is [ParseInto] with room for settings beyond the alias
// flag. Reset is what clears s.Depth back to [DefaultDepth], so the depth
// override is applied after it and before the first [Dispatch] call, the
// same place [State.Reset]'s caller would install it by hand.
func ParseIntoWithOptions(s *State, buf []byte, l *Layout, opts ...Option) (unsafe.Pointer, *State, error) {
	o := options{maxDepth: DefaultDepth}
	for _, opt := range opts {
		opt.apply(&o)
	}

	s.Reset(buf, o.alias)
	s.Depth = o.maxDepth

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
