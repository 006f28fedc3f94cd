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

// ChannelID is the process-unique identity of a channel instance
type ChannelID string

// TwoPhaseOffer is the two-phase commit contract used to veto or commit tentative matches.
// The kernel never completes a match by simply popping the head of a queue : it first
// invokes Offer on both sides' handles, and only if both accept does it Commit.
//
// A nil TwoPhaseOffer accepts unconditionally and its commit / withdraw are no-ops.
//
// Offer / Withdraw / Commit are invoked inside the channel's lock. An implementation must
// never attempt to acquire a channel lock from these methods - the selector's shared
// handle touches only a lock-free atomic, which is what makes cross-channel selection safe.
//
// Contract :
//   - Offer tentatively reserves the operation; returning false is a veto.
//   - Withdraw releases a prior tentative reservation. A rejected offer must not leave
//     visible state behind.
//   - Commit finalizes the reservation and must be infallible.
type TwoPhaseOffer interface {
	Offer(id ChannelID) bool
	Withdraw(id ChannelID)
	Commit(id ChannelID)
}

func offerAccepted(o TwoPhaseOffer, id ChannelID) bool {
	if o == nil {
		return true
	}
	return o.Offer(id)
}

func withdrawOffer(o TwoPhaseOffer, id ChannelID) {
	if o != nil {
		o.Withdraw(id)
	}
}

func commitOffer(o TwoPhaseOffer, id ChannelID) {
	if o != nil {
		o.Commit(id)
	}
}

// CancelableOffer is a TwoPhaseOffer that accepts until cancelled by its owner.
// After Cancel, the next visit to the owning pending entry dequeues it with a
// CancelledError result.
type CancelableOffer struct {
	cancelled atomic.Bool
}

// NewCancelableOffer returns a new CancelableOffer in the accepting state
func NewCancelableOffer() *CancelableOffer {
	return &CancelableOffer{}
}

// Cancel makes all future offers return false
func (o *CancelableOffer) Cancel() {
	o.cancelled.Store(true)
}

// Cancelled returns true if Cancel was invoked
func (o *CancelableOffer) Cancelled() bool {
	return o.cancelled.Load()
}

// Offer implements TwoPhaseOffer
func (o *CancelableOffer) Offer(ChannelID) bool {
	return !o.cancelled.Load()
}

// Withdraw implements TwoPhaseOffer
func (o *CancelableOffer) Withdraw(ChannelID) {}

// Commit implements TwoPhaseOffer
func (o *CancelableOffer) Commit(ChannelID) {}
