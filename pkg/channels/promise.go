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
	"sync"
)

// Unit is the result type of operations that carry no value, e.g. writes
type Unit struct{}

// Promise is the completion handle for an asynchronous channel operation.
// A promise is resolved exactly once - with a value, or with one of the channel errors.
type Promise[T any] struct {
	done chan struct{}

	mu       sync.Mutex
	resolved bool
	value    T
	err      error
	subs     []func(T, error)
}

func newPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// resolve settles the promise. The first resolution wins; later calls are no-ops and
// return false. Subscribers run synchronously on the resolving goroutine, after the
// promise state is published - the kernel only resolves promises after releasing the
// channel lock, so subscribers may safely take channel locks.
func (p *Promise[T]) resolve(value T, err error) bool {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return false
	}
	p.resolved = true
	p.value = value
	p.err = err
	subs := p.subs
	p.subs = nil
	close(p.done)
	p.mu.Unlock()

	for _, sub := range subs {
		sub(value, err)
	}
	return true
}

// subscribe registers a callback invoked once the promise resolves.
// If the promise is already resolved, the callback is invoked inline.
func (p *Promise[T]) subscribe(sub func(T, error)) {
	p.mu.Lock()
	if p.resolved {
		value, err := p.value, p.err
		p.mu.Unlock()
		sub(value, err)
		return
	}
	p.subs = append(p.subs, sub)
	p.mu.Unlock()
}

// peek returns the resolution if the promise has settled
func (p *Promise[T]) peek() (value T, err error, resolved bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err, p.resolved
}

// Done returns a channel that is closed when the promise resolves
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Resolved returns true once the promise has settled
func (p *Promise[T]) Resolved() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolved
}

// Result returns the resolution.
// If the promise has not resolved yet, the zero value and ErrPending are returned.
func (p *Promise[T]) Result() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.resolved {
		var zero T
		return zero, ErrPending
	}
	return p.value, p.err
}

// Await blocks until the promise resolves or ctx is done.
// On ctx expiration the pending operation is NOT withdrawn - use the channel's blocking
// Read / Write wrappers for context-aware cancellation.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
