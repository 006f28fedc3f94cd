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

import "fmt"

// ChannelState is an enum representing the channel lifecycle state
type ChannelState int

// ChannelState enum values
// Normal channel life cycle : Active -> Retiring -> Retired.
// Retiring means the channel is draining its in-flight buffered writes; once they have
// been observed by readers the channel transitions to Retired.
// An immediate retire skips the drain and transitions straight to Retired.
// The ordering of the enum is defined such that if there is a state transition from A -> B then A < B.
const (
	// Active - the channel is operational
	Active ChannelState = iota
	// Retiring - the channel is draining in-flight buffered writes before dying
	Retiring
	// Retired - both queues are empty and no new entry is admitted
	Retired
)

// Active returns true if the state is Active
func (s ChannelState) Active() bool { return s == Active }

// Retiring returns true if the state is Retiring
func (s ChannelState) Retiring() bool { return s == Retiring }

// Retired returns true if the state is Retired
func (s ChannelState) Retired() bool { return s == Retired }

// ValidTransitions returns the permitted ChannelState(s) that the current state is able to transition to
func (s ChannelState) ValidTransitions() (states []ChannelState) {
	switch s {
	case Active:
		states = []ChannelState{Retiring, Retired}
	case Retiring:
		states = []ChannelState{Retired}
	case Retired:
	default:
		panic(fmt.Sprintf("Unknown ChannelState : %v", int(s)))
	}
	return
}

// ValidTransition returns true if the state transition is permitted
func (s ChannelState) ValidTransition(to ChannelState) bool {
	for _, validState := range s.ValidTransitions() {
		if validState == to {
			return true
		}
	}
	return false
}

func (s ChannelState) String() string {
	switch s {
	case Active:
		return "Active"
	case Retiring:
		return "Retiring"
	case Retired:
		return "Retired"
	default:
		return fmt.Sprintf("Unknown ChannelState : %v", int(s))
	}
}
