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
	"fmt"
)

// Sentinel errors for matching via errors.Is. The errors actually returned are the
// typed errors below, which carry the channel identity.
var (
	// ErrRetired - operation on a retired channel, or pending when the channel retired
	ErrRetired = errors.New("channel is retired")
	// ErrTimeout - deadline elapsed before a match
	ErrTimeout = errors.New("operation timed out")
	// ErrCancelled - withdrawn by the caller's own offer handle, or evicted as an overflow victim
	ErrCancelled = errors.New("operation cancelled")
	// ErrOverflow - pending queue bound exceeded under the Reject policy
	ErrOverflow = errors.New("pending queue overflow")
	// ErrInvalidArgument - contradictory or out-of-range settings, unknown name injection
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPending - the promise has not been resolved yet
	ErrPending = errors.New("promise is pending")
)

// RetiredError indicates an operation was attempted on a retired channel,
// or was still pending when the channel retired.
type RetiredError struct {
	Channel string
}

func (e *RetiredError) Error() string {
	return fmt.Sprintf("RetiredError: channel %q is retired", e.Channel)
}

// Is supports errors.Is(err, ErrRetired)
func (e *RetiredError) Is(target error) bool { return target == ErrRetired }

// TimeoutError indicates the operation's deadline elapsed before a match
type TimeoutError struct {
	Channel string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("TimeoutError: operation on channel %q timed out", e.Channel)
}

// Is supports errors.Is(err, ErrTimeout)
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// CancelledError indicates the operation was withdrawn by its own offer handle -
// typically the losing branch of a multi-channel selection - or was evicted as an
// overflow victim under DropOldest / DropNewest / DropRandom.
type CancelledError struct {
	Channel string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("CancelledError: operation on channel %q was cancelled", e.Channel)
}

// Is supports errors.Is(err, ErrCancelled)
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

// OverflowError indicates a pending queue bound was exceeded under the Reject policy
type OverflowError struct {
	Channel string
	Limit   int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("OverflowError: channel %q pending queue bound %d exceeded", e.Channel, e.Limit)
}

// Is supports errors.Is(err, ErrOverflow)
func (e *OverflowError) Is(target error) bool { return target == ErrOverflow }

// InvalidArgumentError indicates out-of-range or contradictory settings
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("InvalidArgumentError: %s", e.Message)
}

// Is supports errors.Is(err, ErrInvalidArgument)
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }
