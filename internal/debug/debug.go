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

// Package debug includes debugging helpers used by the decoder.
//
// Log is skipped when Enabled is false. Assert always evaluates its
// condition, whatever Enabled says; the decoder calls it on both paths of a
// delimited sub-scope to check the limit-pointer invariant.
package debug

import (
	"fmt"
	"os"
)

// Enabled turns on verbose field-by-field tracing of a decode. It is a
// variable, not a build tag, so tests can flip it on for a single decode
// without a separate build of the package.
var Enabled = false

// Log prints a trace line for a single decoder operation to stderr.
//
// op names the operation (e.g. "dispatch", "varint", "push-limit"); format
// and args describe it further.
func Log(op, format string, args ...any) {
	if !Enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "fastwire: %s: "+format+"\n", append([]any{op}, args...)...)
}

// Assert panics if cond is false. Used to check decoder invariants (limit_ptr
// bookkeeping, depth restoration) that must never fail on well-formed input
// and well-formed layouts; a failure here is a decoder bug, not a malformed
// message, so it is not routed through the ordinary error path.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("fastwire: internal assertion failed: "+format, args...))
	}
}
