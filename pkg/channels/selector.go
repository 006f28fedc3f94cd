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

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"time"
)

// Priority determines the order in which a multi-channel selection tries its candidates
type Priority int

// Priority enum values
const (
	// First - try channels in array order; the first that can proceed wins
	First Priority = iota
	// Random - shuffle the order before trying
	Random
	// Fair - rotate the starting index round-robin across calls
	Fair
	// Any - implementation defined; same as First
	Any
)

func (p Priority) String() string {
	switch p {
	case First:
		return "First"
	case Random:
		return "Random"
	case Fair:
		return "Fair"
	case Any:
		return "Any"
	default:
		return "Unknown"
	}
}

// fairCounter drives the Fair rotation across all selections in the process
var fairCounter atomic.Uint64

func selectOrder(n int, priority Priority) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	switch priority {
	case Random:
		rand.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	case Fair:
		start := int((fairCounter.Add(1) - 1) % uint64(n))
		rotated := make([]int, 0, n)
		rotated = append(rotated, order[start:]...)
		rotated = append(rotated, order[:start]...)
		order = rotated
	}
	return order
}

// selectorOffer is the shared TwoPhaseOffer of a multi-channel selection. All enrolled
// operations carry the same handle; the first channel whose offer wins the CAS owns the
// selection. The handle touches only the lock-free flag, never a channel lock, so it is
// safe to invoke from inside any channel's matching loop.
type selectorOffer struct {
	completed atomic.Bool
}

func (s *selectorOffer) Offer(ChannelID) bool {
	return s.completed.CompareAndSwap(false, true)
}

func (s *selectorOffer) Withdraw(ChannelID) {
	s.completed.Store(false)
}

func (s *selectorOffer) Commit(ChannelID) {}

// ReadAnyResult is the resolution of ReadFromAny : the winning channel and its value
type ReadAnyResult[T any] struct {
	Channel *Channel[T]
	Value   T
}

// ReadFromAny atomically performs exactly one read among the candidate channels.
//
// Exactly one channel completes; the pending entries enrolled in the losing channels are
// withdrawn, leaving their queues as they were before the selection. The promise carries
// the winning branch's error; if every branch is retired it carries a RetiredError.
func ReadFromAny[T any](channels []*Channel[T], priority Priority, timeout time.Duration) *Promise[ReadAnyResult[T]] {
	result := newPromise[ReadAnyResult[T]]()
	if len(channels) == 0 {
		result.resolve(ReadAnyResult[T]{}, &InvalidArgumentError{Message: "ReadFromAny requires at least one candidate channel"})
		return result
	}

	type enrolled struct {
		ch *Channel[T]
		p  *Promise[T]
	}
	var entries []enrolled
	cancelLosers := func(winner *Promise[T]) {
		for _, e := range entries {
			if e.p != winner {
				e.ch.cancelReader(e.p)
			}
		}
	}

	shared := &selectorOffer{}
	timedOut := false
	for _, i := range selectOrder(len(channels), priority) {
		ch := channels[i]
		p := ch.ReadAsync(shared, timeout)
		if value, err, resolved := p.peek(); resolved {
			switch {
			case err == nil:
				// fast path : completed synchronously
				result.resolve(ReadAnyResult[T]{Channel: ch, Value: value}, nil)
				cancelLosers(p)
				return result
			case errors.Is(err, ErrTimeout):
				timedOut = true
			case errors.Is(err, ErrRetired):
			case errors.Is(err, ErrCancelled):
				// the shared flag was claimed concurrently by an enrolled branch;
				// that branch's subscription delivers the winner
			}
			continue
		}
		entries = append(entries, enrolled{ch: ch, p: p})
	}

	if len(entries) == 0 {
		if timedOut {
			result.resolve(ReadAnyResult[T]{}, &TimeoutError{Channel: "select"})
		} else {
			result.resolve(ReadAnyResult[T]{}, &RetiredError{Channel: "select"})
		}
		return result
	}

	var deadBranches atomic.Int32
	var sawRetired atomic.Bool
	branches := int32(len(entries))
	for _, e := range entries {
		e := e
		e.p.subscribe(func(value T, err error) {
			switch {
			case err == nil:
				if result.resolve(ReadAnyResult[T]{Channel: e.ch, Value: value}, nil) {
					cancelLosers(e.p)
				}
			case errors.Is(err, ErrCancelled), errors.Is(err, ErrRetired):
				// a losing branch we withdrew, a branch another channel dequeued during a
				// transient reservation, or a branch whose channel retired. If the winner
				// already resolved the result, these are no-ops.
				if errors.Is(err, ErrRetired) {
					sawRetired.Store(true)
				}
				if deadBranches.Add(1) == branches {
					if sawRetired.Load() {
						result.resolve(ReadAnyResult[T]{}, &RetiredError{Channel: "select"})
					} else {
						result.resolve(ReadAnyResult[T]{}, &CancelledError{Channel: "select"})
					}
				}
			default:
				// timeout of the shared deadline, or a failed winning branch
				if result.resolve(ReadAnyResult[T]{}, err) {
					cancelLosers(e.p)
				}
			}
		})
	}
	return result
}

// WriteToAny atomically performs exactly one write among the candidate channels and
// resolves with the channel that accepted the value.
//
// Exactly one channel completes; the pending entries enrolled in the losing channels are
// withdrawn, leaving their queues as they were before the selection. The promise carries
// the winning branch's error; if every branch is retired it carries a RetiredError.
func WriteToAny[T any](channels []*Channel[T], value T, priority Priority, timeout time.Duration) *Promise[*Channel[T]] {
	result := newPromise[*Channel[T]]()
	if len(channels) == 0 {
		result.resolve(nil, &InvalidArgumentError{Message: "WriteToAny requires at least one candidate channel"})
		return result
	}

	type enrolled struct {
		ch *Channel[T]
		p  *Promise[Unit]
	}
	var entries []enrolled
	cancelLosers := func(winner *Promise[Unit]) {
		for _, e := range entries {
			if e.p != winner {
				e.ch.cancelWriter(e.p)
			}
		}
	}

	shared := &selectorOffer{}
	timedOut := false
	for _, i := range selectOrder(len(channels), priority) {
		ch := channels[i]
		p := ch.WriteAsync(value, shared, timeout)
		if _, err, resolved := p.peek(); resolved {
			switch {
			case err == nil:
				result.resolve(ch, nil)
				cancelLosers(p)
				return result
			case errors.Is(err, ErrTimeout):
				timedOut = true
			case errors.Is(err, ErrRetired):
			case errors.Is(err, ErrCancelled):
			}
			continue
		}
		entries = append(entries, enrolled{ch: ch, p: p})
	}

	if len(entries) == 0 {
		if timedOut {
			result.resolve(nil, &TimeoutError{Channel: "select"})
		} else {
			result.resolve(nil, &RetiredError{Channel: "select"})
		}
		return result
	}

	var deadBranches atomic.Int32
	var sawRetired atomic.Bool
	branches := int32(len(entries))
	for _, e := range entries {
		e := e
		e.p.subscribe(func(_ Unit, err error) {
			switch {
			case err == nil:
				if result.resolve(e.ch, nil) {
					cancelLosers(e.p)
				}
			case errors.Is(err, ErrCancelled), errors.Is(err, ErrRetired):
				if errors.Is(err, ErrRetired) {
					sawRetired.Store(true)
				}
				if deadBranches.Add(1) == branches {
					if sawRetired.Load() {
						result.resolve(nil, &RetiredError{Channel: "select"})
					} else {
						result.resolve(nil, &CancelledError{Channel: "select"})
					}
				}
			default:
				if result.resolve(nil, err) {
					cancelLosers(e.p)
				}
			}
		})
	}
	return result
}
