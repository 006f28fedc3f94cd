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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Danstahr/cocol/pkg/logging"
	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"
)

// BroadcastSettings configures a broadcast channel
type BroadcastSettings struct {
	// Name is the channel name; empty means anonymous
	Name string

	// InitialBarrier is the minimum number of attached readers required before the
	// first write may proceed. Values below 1 mean 1.
	InitialBarrier int

	// Minimum is the minimum number of attached readers required for any write after
	// the first. Values below 1 mean 1.
	Minimum int
}

func (s BroadcastSettings) validate() error {
	if s.InitialBarrier < 0 {
		return &InvalidArgumentError{Message: fmt.Sprintf("initial barrier cannot be negative : %d", s.InitialBarrier)}
	}
	if s.Minimum < 0 {
		return &InvalidArgumentError{Message: fmt.Sprintf("minimum reader count cannot be negative : %d", s.Minimum)}
	}
	return nil
}

// BroadcastChannel delivers a single write to all currently attached readers, atomically.
// A write blocks until the reader count reaches the required threshold, then runs an
// all-or-nothing two-phase offer round : if any reader vetoes, the write is not
// delivered to anyone. On commit every reader's promise resolves to the same value.
// Broadcasts are not buffered.
type BroadcastChannel[T any] struct {
	id       ChannelID
	settings BroadcastSettings

	mu      sync.Mutex
	state   ChannelState
	first   bool
	readers []*readerEntry[T]
	writers []*writerEntry[T]

	lastReadTick  atomic.Uint64
	lastWriteTick atomic.Uint64

	logger  zerolog.Logger
	metrics *channelMetrics
}

// NewBroadcast creates a broadcast channel from the settings
func NewBroadcast[T any](settings BroadcastSettings) (*BroadcastChannel[T], error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	id := ChannelID(nuid.Next())
	c := &BroadcastChannel[T]{
		id:       id,
		settings: settings,
		first:    true,
		logger: logger.With().
			Str(logging.ID, string(id)).
			Str(logging.NAME, settings.Name).
			Logger(),
	}
	c.metrics = newChannelMetrics(c.label())
	LOG_EVENT_CREATED.Log(c.logger.Debug()).Msg("")
	return c, nil
}

// MustNewBroadcast creates a broadcast channel, panicking on invalid settings
func MustNewBroadcast[T any](settings BroadcastSettings) *BroadcastChannel[T] {
	c, err := NewBroadcast[T](settings)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the process-unique channel id
func (c *BroadcastChannel[T]) ID() ChannelID { return c.id }

// Name returns the channel name; empty for anonymous channels
func (c *BroadcastChannel[T]) Name() string { return c.settings.Name }

func (c *BroadcastChannel[T]) label() string {
	if c.settings.Name != "" {
		return c.settings.Name
	}
	return string(c.id)
}

// IsRetired returns true once the channel is retired
func (c *BroadcastChannel[T]) IsRetired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Retired()
}

// Readers returns the number of currently attached readers
func (c *BroadcastChannel[T]) Readers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.readers)
}

// LastReadTick returns the tick of the most recent delivery
func (c *BroadcastChannel[T]) LastReadTick() uint64 { return c.lastReadTick.Load() }

// LastWriteTick returns the tick of the most recent successful write
func (c *BroadcastChannel[T]) LastWriteTick() uint64 { return c.lastWriteTick.Load() }

// threshold returns the reader count required for the head writer to proceed
func (c *BroadcastChannel[T]) threshold() int {
	required := c.settings.Minimum
	if c.first {
		required = c.settings.InitialBarrier
	}
	return max(required, 1)
}

// ReadAsync attaches a reader. The promise resolves with the next broadcast value.
func (c *BroadcastChannel[T]) ReadAsync(offer TwoPhaseOffer, timeout time.Duration) *Promise[T] {
	p := newPromise[T]()
	c.mu.Lock()
	if c.state.Retired() {
		c.mu.Unlock()
		var zero T
		p.resolve(zero, &RetiredError{Channel: c.label()})
		return p
	}
	entry := &readerEntry[T]{offer: offer, promise: p}
	if timeout > 0 {
		entry.deadline = time.Now().Add(timeout)
	}
	c.readers = append(c.readers, entry)
	completions := c.deliverLocked(nil)
	deadline := time.Time{}
	if c.stillReading(p) {
		if timeout == Immediate {
			c.removeReaderLocked(p)
			completions = append(completions, func() {
				var zero T
				p.resolve(zero, &TimeoutError{Channel: c.label()})
			})
			c.metrics.timeouts.Inc()
		} else {
			deadline = entry.deadline
		}
	}
	c.updateQueueGauges()
	c.mu.Unlock()
	runCompletions(completions)
	if !deadline.IsZero() {
		expirations().register(c, deadline)
	}
	return p
}

// WriteAsync offers a value for broadcast. The promise resolves once the value has been
// delivered to every attached reader.
func (c *BroadcastChannel[T]) WriteAsync(value T, offer TwoPhaseOffer, timeout time.Duration) *Promise[Unit] {
	p := newPromise[Unit]()
	c.mu.Lock()
	if c.state.Retired() {
		c.mu.Unlock()
		p.resolve(Unit{}, &RetiredError{Channel: c.label()})
		return p
	}
	entry := &writerEntry[T]{offer: offer, promise: p, value: value}
	if timeout > 0 {
		entry.deadline = time.Now().Add(timeout)
	}
	c.writers = append(c.writers, entry)
	completions := c.deliverLocked(nil)
	deadline := time.Time{}
	if c.stillWriting(p) {
		if timeout == Immediate {
			c.removeWriterLocked(p)
			completions = append(completions, func() {
				p.resolve(Unit{}, &TimeoutError{Channel: c.label()})
			})
			c.metrics.timeouts.Inc()
		} else {
			deadline = entry.deadline
		}
	}
	c.updateQueueGauges()
	c.mu.Unlock()
	runCompletions(completions)
	if !deadline.IsZero() {
		expirations().register(c, deadline)
	}
	return p
}

// Read blocks until a broadcast value arrives or ctx is done
func (c *BroadcastChannel[T]) Read(ctx context.Context) (T, error) {
	p := c.ReadAsync(nil, Infinite)
	select {
	case <-p.Done():
	case <-ctx.Done():
		if c.cancelReader(p) {
			var zero T
			return zero, ctx.Err()
		}
		<-p.Done()
	}
	return p.Result()
}

// Write blocks until the value has been broadcast or ctx is done
func (c *BroadcastChannel[T]) Write(ctx context.Context, value T) error {
	p := c.WriteAsync(value, nil, Infinite)
	select {
	case <-p.Done():
	case <-ctx.Done():
		if c.cancelWriter(p) {
			return ctx.Err()
		}
		<-p.Done()
	}
	_, err := p.Result()
	return err
}

// deliverLocked repeatedly attempts the head writer's all-or-nothing offer round
func (c *BroadcastChannel[T]) deliverLocked(completions []completion) []completion {
	for len(c.writers) > 0 {
		w := c.writers[0]
		if len(c.readers) < c.threshold() {
			return completions
		}

		// offer round : every reader must accept
		accepted := make([]*readerEntry[T], 0, len(c.readers))
		var vetoed *readerEntry[T]
		vetoedIdx := -1
		for i, r := range c.readers {
			if !offerAccepted(r.offer, c.id) {
				vetoed = r
				vetoedIdx = i
				break
			}
			accepted = append(accepted, r)
		}
		if vetoed != nil {
			for _, r := range accepted {
				withdrawOffer(r.offer, c.id)
			}
			c.readers = append(c.readers[:vetoedIdx], c.readers[vetoedIdx+1:]...)
			c.metrics.cancellations.Inc()
			vetoedEntry := vetoed
			completions = append(completions, func() {
				var zero T
				vetoedEntry.promise.resolve(zero, &CancelledError{Channel: c.label()})
			})
			continue
		}
		if !offerAccepted(w.offer, c.id) {
			for _, r := range accepted {
				withdrawOffer(r.offer, c.id)
			}
			c.writers = c.writers[1:]
			c.metrics.cancellations.Inc()
			completions = append(completions, func() {
				w.promise.resolve(Unit{}, &CancelledError{Channel: c.label()})
			})
			continue
		}

		for _, r := range accepted {
			commitOffer(r.offer, c.id)
		}
		commitOffer(w.offer, c.id)

		readers := c.readers
		c.readers = nil
		c.writers = c.writers[1:]
		c.first = false
		c.lastWriteTick.Store(nextTick())
		c.lastReadTick.Store(nextTick())
		c.metrics.writes.Inc()
		c.metrics.reads.Add(float64(len(readers)))
		value := w.value
		completions = append(completions, func() {
			for _, r := range readers {
				r.promise.resolve(value, nil)
			}
			w.promise.resolve(Unit{}, nil)
		})
	}
	return completions
}

// Retire drains both queues; every pending entry's promise resolves with a RetiredError.
// Broadcast channels are unbuffered, so graceful and immediate retirement coincide.
func (c *BroadcastChannel[T]) Retire(immediate bool) {
	c.mu.Lock()
	if c.state.Retired() {
		c.mu.Unlock()
		return
	}
	readers := c.readers
	writers := c.writers
	c.readers = nil
	c.writers = nil
	c.state = Retired
	c.updateQueueGauges()
	LOG_EVENT_RETIRED.Log(c.logger.Debug()).Msg("")
	c.mu.Unlock()

	for _, r := range readers {
		var zero T
		r.promise.resolve(zero, &RetiredError{Channel: c.label()})
	}
	for _, w := range writers {
		w.promise.resolve(Unit{}, &RetiredError{Channel: c.label()})
	}
}

func (c *BroadcastChannel[T]) stillReading(p *Promise[T]) bool {
	for _, r := range c.readers {
		if r.promise == p {
			return true
		}
	}
	return false
}

func (c *BroadcastChannel[T]) stillWriting(p *Promise[Unit]) bool {
	for _, w := range c.writers {
		if w.promise == p {
			return true
		}
	}
	return false
}

func (c *BroadcastChannel[T]) removeReaderLocked(p *Promise[T]) bool {
	for i, r := range c.readers {
		if r.promise == p {
			c.readers = append(c.readers[:i], c.readers[i+1:]...)
			return true
		}
	}
	return false
}

func (c *BroadcastChannel[T]) removeWriterLocked(p *Promise[Unit]) bool {
	for i, w := range c.writers {
		if w.promise == p {
			c.writers = append(c.writers[:i], c.writers[i+1:]...)
			return true
		}
	}
	return false
}

// cancelReader withdraws an attached reader identified by its promise
func (c *BroadcastChannel[T]) cancelReader(p *Promise[T]) bool {
	c.mu.Lock()
	if !c.removeReaderLocked(p) {
		c.mu.Unlock()
		return false
	}
	c.metrics.cancellations.Inc()
	c.updateQueueGauges()
	c.mu.Unlock()
	var zero T
	p.resolve(zero, &CancelledError{Channel: c.label()})
	return true
}

// cancelWriter withdraws a pending broadcast write identified by its promise
func (c *BroadcastChannel[T]) cancelWriter(p *Promise[Unit]) bool {
	c.mu.Lock()
	if !c.removeWriterLocked(p) {
		c.mu.Unlock()
		return false
	}
	c.metrics.cancellations.Inc()
	c.updateQueueGauges()
	c.mu.Unlock()
	p.resolve(Unit{}, &CancelledError{Channel: c.label()})
	return true
}

// expire removes pending entries whose deadline elapsed; see Channel.expire
func (c *BroadcastChannel[T]) expire(now time.Time) time.Time {
	c.mu.Lock()
	var completions []completion
	var next time.Time

	keptReaders := c.readers[:0]
	for _, r := range c.readers {
		r := r
		if !r.deadline.IsZero() && !r.deadline.After(now) {
			c.metrics.timeouts.Inc()
			completions = append(completions, func() {
				var zero T
				r.promise.resolve(zero, &TimeoutError{Channel: c.label()})
			})
			continue
		}
		if !r.deadline.IsZero() && (next.IsZero() || r.deadline.Before(next)) {
			next = r.deadline
		}
		keptReaders = append(keptReaders, r)
	}
	c.readers = keptReaders

	keptWriters := c.writers[:0]
	for _, w := range c.writers {
		w := w
		if !w.deadline.IsZero() && !w.deadline.After(now) {
			c.metrics.timeouts.Inc()
			completions = append(completions, func() {
				w.promise.resolve(Unit{}, &TimeoutError{Channel: c.label()})
			})
			continue
		}
		if !w.deadline.IsZero() && (next.IsZero() || w.deadline.Before(next)) {
			next = w.deadline
		}
		keptWriters = append(keptWriters, w)
	}
	c.writers = keptWriters

	c.updateQueueGauges()
	c.mu.Unlock()
	runCompletions(completions)
	return next
}

func (c *BroadcastChannel[T]) updateQueueGauges() {
	c.metrics.pendingReaders.Set(float64(len(c.readers)))
	c.metrics.pendingWriters.Set(float64(len(c.writers)))
}
