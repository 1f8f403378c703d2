// Copyright 2024 The socketmap Authors.
//
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

package socketmap

import "sync"

// resetGlobalForTest discards the process-wide singleton so a test can
// observe a fresh getOrNewGlobalRegistry construction. Tests using this must
// not run in parallel with each other, since the singleton it resets is
// process-wide by design.
func resetGlobalForTest() {
	defaultOptionsMu.Lock()
	defaultOptions = Options{}
	defaultOptionsMu.Unlock()

	if old := globalRegistry.Swap(nil); old != nil {
		_ = old.Close()
	}
	globalOnce = sync.Once{}
	globalInitErr = nil
}
