// Copyright (c) 2026 the cocol authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package channels

import "sync/atomic"

// tickCounter is the process-wide monotonic tick source. Ticks order successful reads
// and writes across all channels; they are not wall-clock timestamps.
var tickCounter atomic.Uint64

func nextTick() uint64 {
	return tickCounter.Add(1)
}

// CurrentTick returns the latest tick handed out by the process-wide tick source
func CurrentTick() uint64 {
	return tickCounter.Load()
}
