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

package debug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lavi02/fastwire/internal/debug"
)

func TestAssertPassesSilently(t *testing.T) {
	assert.NotPanics(t, func() {
		debug.Assert(true, "unreachable")
	})
}

func TestAssertPanicsOnFalse(t *testing.T) {
	assert.PanicsWithValue(t, "fastwire: internal assertion failed: limit=5", func() {
		debug.Assert(false, "limit=%d", 5)
	})
}

func TestLogNoopWhenDisabled(t *testing.T) {
	debug.Enabled = false
	assert.NotPanics(t, func() {
		debug.Log("test", "value=%d", 1)
	})
}
