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
	"fmt"
	"time"
)

// Timeout sentinels for read / write operations.
// Immediate is a 0-duration probe : the operation either completes against an already
// available peer / buffer slot, or fails with a TimeoutError without enqueueing.
// Infinite (any negative duration) never expires.
const (
	Immediate time.Duration = 0
	Infinite  time.Duration = -1
)

// Unbounded disables a pending queue bound
const Unbounded = -1

// OverflowPolicy determines what happens when enqueueing a pending operation would
// exceed the queue's bound.
type OverflowPolicy int

// OverflowPolicy enum values
const (
	// Reject - fail the new operation with an OverflowError
	Reject OverflowPolicy = iota
	// DropOldest - evict the oldest waiting entry with a CancelledError, then enqueue
	DropOldest
	// DropNewest - do not enqueue; the new operation fails with a CancelledError
	DropNewest
	// DropRandom - evict a uniformly chosen waiting entry with a CancelledError, then enqueue
	DropRandom
	// Block - retained for symmetry with the wire-level policy set; treated as Reject
	Block
)

func (p OverflowPolicy) String() string {
	switch p {
	case Reject:
		return "Reject"
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	case DropRandom:
		return "DropRandom"
	case Block:
		return "Block"
	default:
		return fmt.Sprintf("Unknown OverflowPolicy : %v", int(p))
	}
}

func (p OverflowPolicy) valid() bool {
	switch p {
	case Reject, DropOldest, DropNewest, DropRandom, Block:
		return true
	default:
		return false
	}
}

// Settings configures a channel instance.
//
// The pending queue bounds cap the number of WAITING entries : buffered writer slots do
// not count against MaxPendingWriters, and the bound is applied to the queue behind the
// newest arrival - a bound of 0 still admits a single waiting entry, the operation the
// channel is currently parked on.
type Settings struct {
	// Name is the channel name; names are bound in scopes. Empty means anonymous.
	Name string

	// Buffer is the buffer capacity; 0 means rendezvous
	Buffer int

	// MaxPendingReaders bounds the waiting reader queue. Unbounded disables the bound.
	MaxPendingReaders int

	// MaxPendingWriters bounds the waiting writer queue. Unbounded disables the bound.
	MaxPendingWriters int

	// ReaderOverflow is applied when the reader queue bound is exceeded
	ReaderOverflow OverflowPolicy

	// WriterOverflow is applied when the writer queue bound is exceeded
	WriterOverflow OverflowPolicy
}

// NewSettings returns Settings for a channel with the given name and buffer capacity,
// unbounded pending queues, and Reject overflow policies.
func NewSettings(name string, buffer int) Settings {
	return Settings{
		Name:              name,
		Buffer:            buffer,
		MaxPendingReaders: Unbounded,
		MaxPendingWriters: Unbounded,
	}
}

func (s Settings) validate() error {
	if s.Buffer < 0 {
		return &InvalidArgumentError{Message: fmt.Sprintf("buffer capacity cannot be negative : %d", s.Buffer)}
	}
	if s.MaxPendingReaders < Unbounded {
		return &InvalidArgumentError{Message: fmt.Sprintf("max pending readers cannot be below %d : %d", Unbounded, s.MaxPendingReaders)}
	}
	if s.MaxPendingWriters < Unbounded {
		return &InvalidArgumentError{Message: fmt.Sprintf("max pending writers cannot be below %d : %d", Unbounded, s.MaxPendingWriters)}
	}
	if !s.ReaderOverflow.valid() {
		return &InvalidArgumentError{Message: fmt.Sprintf("unknown reader overflow policy : %d", int(s.ReaderOverflow))}
	}
	if !s.WriterOverflow.valid() {
		return &InvalidArgumentError{Message: fmt.Sprintf("unknown writer overflow policy : %d", int(s.WriterOverflow))}
	}
	return nil
}
