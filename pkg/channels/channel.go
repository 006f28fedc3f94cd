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
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Danstahr/cocol/pkg/logging"
	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"
)

// completion is deferred work - promise resolutions collected under the channel lock
// and run after the lock is released. Promise subscribers may take other channels'
// locks, so they must never run inside ours.
type completion func()

func runCompletions(completions []completion) {
	for _, fn := range completions {
		fn()
	}
}

// readerEntry is a pending reader parked on the channel
type readerEntry[T any] struct {
	offer    TwoPhaseOffer
	promise  *Promise[T]
	deadline time.Time
}

// writerEntry is a pending writer parked on the channel.
// buffered entries hold values whose write already completed : their promise is resolved
// and their offer has been committed and cleared.
type writerEntry[T any] struct {
	offer    TwoPhaseOffer
	promise  *Promise[Unit]
	value    T
	deadline time.Time
	buffered bool
}

// Channel is a typed CSP channel.
//
// Queue invariants, all maintained under mu :
//   - a pending entry appears in exactly one queue
//   - the writer queue is a prefix of buffered entries followed by waiting entries
//   - while Active, a waiting writer exists only if the buffer is full
//   - once Retired both queues are empty and no new entry is admitted
type Channel[T any] struct {
	id       ChannelID
	settings Settings

	mu          sync.Mutex
	state       ChannelState
	retireCount int
	readers     []*readerEntry[T]
	writers     []*writerEntry[T]

	lastReadTick  atomic.Uint64
	lastWriteTick atomic.Uint64

	logger  zerolog.Logger
	metrics *channelMetrics
}

// New creates a channel from the settings.
// An InvalidArgumentError is returned for out-of-range settings.
func New[T any](settings Settings) (*Channel[T], error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	id := ChannelID(nuid.Next())
	c := &Channel[T]{
		id:       id,
		settings: settings,
		logger: logger.With().
			Str(logging.ID, string(id)).
			Str(logging.NAME, settings.Name).
			Logger(),
	}
	c.metrics = newChannelMetrics(c.label())
	LOG_EVENT_CREATED.Log(c.logger.Debug()).Int(LOG_FIELD_BUFFER, settings.Buffer).Msg("")
	return c, nil
}

// MustNew creates a channel from the settings, panicking on invalid settings
func MustNew[T any](settings Settings) *Channel[T] {
	c, err := New[T](settings)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the process-unique channel id
func (c *Channel[T]) ID() ChannelID { return c.id }

// Name returns the channel name; empty for anonymous channels
func (c *Channel[T]) Name() string { return c.settings.Name }

// Settings returns the settings the channel was created with
func (c *Channel[T]) Settings() Settings { return c.settings }

// label returns the name, falling back to the id for anonymous channels
func (c *Channel[T]) label() string {
	if c.settings.Name != "" {
		return c.settings.Name
	}
	return string(c.id)
}

// State returns the current lifecycle state
func (c *Channel[T]) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsRetired returns true once the channel is fully retired
func (c *Channel[T]) IsRetired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Retired()
}

// LastReadTick returns the tick of the most recent successful read
func (c *Channel[T]) LastReadTick() uint64 { return c.lastReadTick.Load() }

// LastWriteTick returns the tick of the most recent successful write
func (c *Channel[T]) LastWriteTick() uint64 { return c.lastWriteTick.Load() }

// ReadAsync requests a value from the channel.
//
// offer may be nil, which accepts unconditionally. timeout is Immediate (probe),
// Infinite, or a finite duration. The returned promise resolves with the value, or with
// a RetiredError / TimeoutError / CancelledError / OverflowError.
func (c *Channel[T]) ReadAsync(offer TwoPhaseOffer, timeout time.Duration) *Promise[T] {
	p := newPromise[T]()
	c.mu.Lock()
	completions, deadline := c.readLocked(offer, timeout, p)
	c.mu.Unlock()
	runCompletions(completions)
	if !deadline.IsZero() {
		expirations().register(c, deadline)
	}
	return p
}

// WriteAsync offers a value to the channel.
//
// offer may be nil, which accepts unconditionally. timeout is Immediate (probe),
// Infinite, or a finite duration. The returned promise resolves with Unit, or with
// a RetiredError / TimeoutError / CancelledError / OverflowError.
func (c *Channel[T]) WriteAsync(value T, offer TwoPhaseOffer, timeout time.Duration) *Promise[Unit] {
	p := newPromise[Unit]()
	c.mu.Lock()
	completions, deadline := c.writeLocked(value, offer, timeout, p)
	c.mu.Unlock()
	runCompletions(completions)
	if !deadline.IsZero() {
		expirations().register(c, deadline)
	}
	return p
}

// Read blocks until a value is available or ctx is done.
// On ctx expiration the pending read is withdrawn.
func (c *Channel[T]) Read(ctx context.Context) (T, error) {
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

// Write blocks until the value is accepted or ctx is done.
// On ctx expiration the pending write is withdrawn.
func (c *Channel[T]) Write(ctx context.Context, value T) error {
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

// writeLocked runs the write path under c.mu. It returns the completions to run after
// unlock and, if the caller was parked with a finite timeout, the deadline to register.
func (c *Channel[T]) writeLocked(value T, offer TwoPhaseOffer, timeout time.Duration, p *Promise[Unit]) (completions []completion, deadline time.Time) {
	if c.state.Retired() {
		return c.failWrite(completions, p, &RetiredError{Channel: c.label()}), deadline
	}

	// hand the value to a pending reader, head of the queue first
	for len(c.readers) > 0 {
		r := c.readers[0]
		if !offerAccepted(r.offer, c.id) {
			// the reader elected to complete elsewhere
			c.readers = c.readers[1:]
			c.metrics.cancellations.Inc()
			completions = append(completions, func() {
				var zero T
				r.promise.resolve(zero, &CancelledError{Channel: c.label()})
			})
			c.updateQueueGauges()
			continue
		}
		if !offerAccepted(offer, c.id) {
			// the caller elected to complete elsewhere; the reader stays parked
			withdrawOffer(r.offer, c.id)
			c.metrics.cancellations.Inc()
			completions = append(completions, func() {
				p.resolve(Unit{}, &CancelledError{Channel: c.label()})
			})
			return completions, deadline
		}
		commitOffer(r.offer, c.id)
		commitOffer(offer, c.id)
		c.readers = c.readers[1:]
		c.lastWriteTick.Store(nextTick())
		c.lastReadTick.Store(nextTick())
		c.metrics.writes.Inc()
		c.metrics.reads.Inc()
		completions = append(completions, func() {
			r.promise.resolve(value, nil)
			p.resolve(Unit{}, nil)
		})
		c.updateQueueGauges()
		return c.retireMatchLocked(completions), deadline
	}

	// no reader available : take a buffer slot if one is free
	if c.state.Active() && len(c.writers) < c.settings.Buffer {
		if !offerAccepted(offer, c.id) {
			c.metrics.cancellations.Inc()
			completions = append(completions, func() {
				p.resolve(Unit{}, &CancelledError{Channel: c.label()})
			})
			return completions, deadline
		}
		commitOffer(offer, c.id)
		c.writers = append(c.writers, &writerEntry[T]{promise: p, value: value, buffered: true})
		c.lastWriteTick.Store(nextTick())
		c.metrics.writes.Inc()
		completions = append(completions, func() {
			p.resolve(Unit{}, nil)
		})
		c.updateQueueGauges()
		return completions, deadline
	}

	if timeout == Immediate {
		return c.failWrite(completions, p, &TimeoutError{Channel: c.label()}), deadline
	}

	// park the writer
	entry := &writerEntry[T]{offer: offer, promise: p, value: value}
	if timeout > 0 {
		entry.deadline = time.Now().Add(timeout)
	}
	if c.enqueueWriterLocked(entry, &completions) {
		deadline = entry.deadline
	}
	return completions, deadline
}

// readLocked runs the read path under c.mu, mirroring writeLocked
func (c *Channel[T]) readLocked(offer TwoPhaseOffer, timeout time.Duration, p *Promise[T]) (completions []completion, deadline time.Time) {
	if c.state.Retired() {
		return c.failRead(completions, p, &RetiredError{Channel: c.label()}), deadline
	}

	for len(c.writers) > 0 {
		w := c.writers[0]
		if w.buffered {
			// the write already completed; only the caller's side needs to accept
			if !offerAccepted(offer, c.id) {
				c.metrics.cancellations.Inc()
				completions = append(completions, func() {
					var zero T
					p.resolve(zero, &CancelledError{Channel: c.label()})
				})
				return completions, deadline
			}
			commitOffer(offer, c.id)
			c.writers = c.writers[1:]
			c.lastReadTick.Store(nextTick())
			c.metrics.reads.Inc()
			completions = append(completions, func() {
				p.resolve(w.value, nil)
			})
			completions = c.promoteBlockedWriterLocked(completions)
			c.updateQueueGauges()
			return c.retireMatchLocked(completions), deadline
		}

		// waiting writer : rendezvous
		if !offerAccepted(w.offer, c.id) {
			// the writer elected to complete elsewhere
			c.writers = c.writers[1:]
			c.metrics.cancellations.Inc()
			completions = append(completions, func() {
				w.promise.resolve(Unit{}, &CancelledError{Channel: c.label()})
			})
			c.updateQueueGauges()
			completions = c.maybeFinalizeRetireLocked(completions)
			continue
		}
		if !offerAccepted(offer, c.id) {
			withdrawOffer(w.offer, c.id)
			c.metrics.cancellations.Inc()
			completions = append(completions, func() {
				var zero T
				p.resolve(zero, &CancelledError{Channel: c.label()})
			})
			return completions, deadline
		}
		commitOffer(w.offer, c.id)
		commitOffer(offer, c.id)
		c.writers = c.writers[1:]
		c.lastWriteTick.Store(nextTick())
		c.lastReadTick.Store(nextTick())
		c.metrics.writes.Inc()
		c.metrics.reads.Inc()
		completions = append(completions, func() {
			w.promise.resolve(Unit{}, nil)
			p.resolve(w.value, nil)
		})
		c.updateQueueGauges()
		return c.retireMatchLocked(completions), deadline
	}

	// the writer queue may have drained to empty while walking it
	if c.state.Retired() {
		return c.failRead(completions, p, &RetiredError{Channel: c.label()}), deadline
	}

	if timeout == Immediate {
		return c.failRead(completions, p, &TimeoutError{Channel: c.label()}), deadline
	}

	entry := &readerEntry[T]{offer: offer, promise: p}
	if timeout > 0 {
		entry.deadline = time.Now().Add(timeout)
	}
	if c.enqueueReaderLocked(entry, &completions) {
		deadline = entry.deadline
	}
	return completions, deadline
}

func (c *Channel[T]) failRead(completions []completion, p *Promise[T], err error) []completion {
	switch err.(type) {
	case *TimeoutError:
		c.metrics.timeouts.Inc()
	}
	return append(completions, func() {
		var zero T
		p.resolve(zero, err)
	})
}

func (c *Channel[T]) failWrite(completions []completion, p *Promise[Unit], err error) []completion {
	switch err.(type) {
	case *TimeoutError:
		c.metrics.timeouts.Inc()
	}
	return append(completions, func() {
		p.resolve(Unit{}, err)
	})
}

// promoteBlockedWriterLocked moves the first waiting writer into the buffer slot freed by
// a consumed buffered entry. Promotion only happens while Active : a retiring channel
// drains its tail through rendezvous so that only writes that already returned success
// are observable after retirement.
func (c *Channel[T]) promoteBlockedWriterLocked(completions []completion) []completion {
	if !c.state.Active() {
		return completions
	}
	for {
		idx := -1
		buffered := 0
		for i, w := range c.writers {
			if w.buffered {
				buffered++
				continue
			}
			idx = i
			break
		}
		if idx < 0 || buffered >= c.settings.Buffer {
			return completions
		}
		w := c.writers[idx]
		if !offerAccepted(w.offer, c.id) {
			c.writers = append(c.writers[:idx], c.writers[idx+1:]...)
			c.metrics.cancellations.Inc()
			completions = append(completions, func() {
				w.promise.resolve(Unit{}, &CancelledError{Channel: c.label()})
			})
			continue
		}
		commitOffer(w.offer, c.id)
		w.offer = nil
		w.buffered = true
		w.deadline = time.Time{}
		c.lastWriteTick.Store(nextTick())
		c.metrics.writes.Inc()
		completions = append(completions, func() {
			w.promise.resolve(Unit{}, nil)
		})
		return completions
	}
}

// enqueueWriterLocked parks the entry, applying the writer overflow policy.
// Returns true if the entry was enqueued.
func (c *Channel[T]) enqueueWriterLocked(entry *writerEntry[T], completions *[]completion) bool {
	limit := c.settings.MaxPendingWriters
	if limit >= 0 {
		waiting := c.waitingWriterIndexes()
		if len(waiting) > limit {
			if !c.applyWriterOverflowLocked(entry, waiting, completions) {
				return false
			}
		}
	}
	c.writers = append(c.writers, entry)
	c.updateQueueGauges()
	return true
}

func (c *Channel[T]) waitingWriterIndexes() []int {
	waiting := make([]int, 0, len(c.writers))
	for i, w := range c.writers {
		if !w.buffered {
			waiting = append(waiting, i)
		}
	}
	return waiting
}

// applyWriterOverflowLocked resolves the overflow per policy.
// Returns true if the new entry should still be enqueued.
func (c *Channel[T]) applyWriterOverflowLocked(entry *writerEntry[T], waiting []int, completions *[]completion) bool {
	switch c.settings.WriterOverflow {
	case DropOldest, DropRandom:
		idx := waiting[0]
		if c.settings.WriterOverflow == DropRandom {
			idx = waiting[rand.Intn(len(waiting))]
		}
		victim := c.writers[idx]
		c.writers = append(c.writers[:idx], c.writers[idx+1:]...)
		c.metrics.cancellations.Inc()
		*completions = append(*completions, func() {
			victim.promise.resolve(Unit{}, &CancelledError{Channel: c.label()})
		})
		return true
	case DropNewest:
		c.metrics.cancellations.Inc()
		*completions = append(*completions, func() {
			entry.promise.resolve(Unit{}, &CancelledError{Channel: c.label()})
		})
		return false
	default: // Reject, Block
		c.metrics.overflows.Inc()
		limit := c.settings.MaxPendingWriters
		*completions = append(*completions, func() {
			entry.promise.resolve(Unit{}, &OverflowError{Channel: c.label(), Limit: limit})
		})
		return false
	}
}

// enqueueReaderLocked parks the entry, applying the reader overflow policy.
// Returns true if the entry was enqueued.
func (c *Channel[T]) enqueueReaderLocked(entry *readerEntry[T], completions *[]completion) bool {
	limit := c.settings.MaxPendingReaders
	if limit >= 0 && len(c.readers) > limit {
		if !c.applyReaderOverflowLocked(entry, completions) {
			return false
		}
	}
	c.readers = append(c.readers, entry)
	c.updateQueueGauges()
	return true
}

func (c *Channel[T]) applyReaderOverflowLocked(entry *readerEntry[T], completions *[]completion) bool {
	switch c.settings.ReaderOverflow {
	case DropOldest, DropRandom:
		idx := 0
		if c.settings.ReaderOverflow == DropRandom {
			idx = rand.Intn(len(c.readers))
		}
		victim := c.readers[idx]
		c.readers = append(c.readers[:idx], c.readers[idx+1:]...)
		c.metrics.cancellations.Inc()
		*completions = append(*completions, func() {
			var zero T
			victim.promise.resolve(zero, &CancelledError{Channel: c.label()})
		})
		return true
	case DropNewest:
		c.metrics.cancellations.Inc()
		*completions = append(*completions, func() {
			var zero T
			entry.promise.resolve(zero, &CancelledError{Channel: c.label()})
		})
		return false
	default: // Reject, Block
		c.metrics.overflows.Inc()
		limit := c.settings.MaxPendingReaders
		*completions = append(*completions, func() {
			var zero T
			entry.promise.resolve(zero, &OverflowError{Channel: c.label(), Limit: limit})
		})
		return false
	}
}

// Retire initiates channel shutdown.
//
// A graceful retire (immediate = false) lets readers observe the writes that already
// returned success : the buffered values, plus one final rendezvous to drain the visible
// tail. An immediate retire drains both queues right away; every pending entry's promise
// resolves with a RetiredError.
func (c *Channel[T]) Retire(immediate bool) {
	c.mu.Lock()
	var completions []completion
	switch {
	case c.state.Retired():
	case c.state.Retiring():
		if immediate {
			completions = c.finalizeRetireLocked(completions)
		}
	default:
		c.state = Retiring
		c.retireCount = min(len(c.writers), c.settings.Buffer) + 1
		LOG_EVENT_RETIRING.Log(c.logger.Debug()).Int(LOG_FIELD_RETIRE_COUNT, c.retireCount).Msg("")
		if immediate || len(c.writers) == 0 {
			completions = c.finalizeRetireLocked(completions)
		}
	}
	c.mu.Unlock()
	runCompletions(completions)
}

// retireMatchLocked records a successful write-to-reader match against the retire count
func (c *Channel[T]) retireMatchLocked(completions []completion) []completion {
	if !c.state.Retiring() {
		return completions
	}
	c.retireCount--
	if c.retireCount <= 0 {
		return c.finalizeRetireLocked(completions)
	}
	return c.maybeFinalizeRetireLocked(completions)
}

// maybeFinalizeRetireLocked finalizes retirement once nothing is left to drain
func (c *Channel[T]) maybeFinalizeRetireLocked(completions []completion) []completion {
	if c.state.Retiring() && len(c.writers) == 0 {
		return c.finalizeRetireLocked(completions)
	}
	return completions
}

// finalizeRetireLocked transitions to Retired and drains both queues.
// Buffered entries' promises already resolved with success; everything else resolves
// with a RetiredError.
func (c *Channel[T]) finalizeRetireLocked(completions []completion) []completion {
	readers := c.readers
	writers := c.writers
	c.readers = nil
	c.writers = nil
	c.retireCount = 0
	c.state = Retired
	for _, r := range readers {
		r := r
		completions = append(completions, func() {
			var zero T
			r.promise.resolve(zero, &RetiredError{Channel: c.label()})
		})
	}
	for _, w := range writers {
		if w.buffered {
			continue
		}
		w := w
		completions = append(completions, func() {
			w.promise.resolve(Unit{}, &RetiredError{Channel: c.label()})
		})
	}
	c.updateQueueGauges()
	LOG_EVENT_RETIRED.Log(c.logger.Debug()).Msg("")
	return completions
}

// cancelReader withdraws a parked read identified by its promise.
// Returns true if the entry was found and removed; its promise resolves with a
// CancelledError. Used by the selector to discard losing branches.
func (c *Channel[T]) cancelReader(p *Promise[T]) bool {
	c.mu.Lock()
	for i, r := range c.readers {
		if r.promise == p {
			c.readers = append(c.readers[:i], c.readers[i+1:]...)
			c.metrics.cancellations.Inc()
			c.updateQueueGauges()
			c.mu.Unlock()
			var zero T
			p.resolve(zero, &CancelledError{Channel: c.label()})
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// cancelWriter withdraws a parked write identified by its promise.
// Buffered entries cannot be withdrawn : their write already completed.
func (c *Channel[T]) cancelWriter(p *Promise[Unit]) bool {
	c.mu.Lock()
	for i, w := range c.writers {
		if w.promise == p && !w.buffered {
			c.writers = append(c.writers[:i], c.writers[i+1:]...)
			c.metrics.cancellations.Inc()
			c.updateQueueGauges()
			completions := c.maybeFinalizeRetireLocked(nil)
			c.mu.Unlock()
			p.resolve(Unit{}, &CancelledError{Channel: c.label()})
			runCompletions(completions)
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// expire removes pending entries whose deadline elapsed, resolving them with a
// TimeoutError. It returns the next earliest deadline still registered on the channel,
// or the zero time if there is none. Invoked by the expiration manager worker.
func (c *Channel[T]) expire(now time.Time) time.Time {
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
		if !w.buffered && !w.deadline.IsZero() && !w.deadline.After(now) {
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

	completions = c.maybeFinalizeRetireLocked(completions)
	c.updateQueueGauges()
	c.mu.Unlock()
	runCompletions(completions)
	return next
}

func (c *Channel[T]) updateQueueGauges() {
	c.metrics.pendingReaders.Set(float64(len(c.readers)))
	c.metrics.pendingWriters.Set(float64(len(c.writers)))
}
