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
	"container/heap"
	"sync"
	"time"

	"github.com/Danstahr/cocol/pkg/commons"
	"gopkg.in/tomb.v2"
)

// expirable is a channel variant whose pending entries carry deadlines.
// expire scans the queues, resolves expired entries with a TimeoutError, and returns
// the next earliest deadline still pending, or the zero time.
type expirable interface {
	expire(now time.Time) time.Time
}

// parkInterval bounds the worker's sleep when no deadline is registered
const parkInterval = time.Minute

type deadlineEntry struct {
	deadline time.Time
	target   expirable
}

type deadlineHeap []*deadlineEntry

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x interface{}) { *h = append(*h, x.(*deadlineEntry)) }
func (h *deadlineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// ExpirationManager fires deadline callbacks for all channels in the process.
// It owns a min-heap of (deadline, channel) pairs and a single background worker that
// sleeps until the earliest deadline. Registrations are coalesced per channel : only the
// earliest pending deadline per channel is tracked, so a channel with many pending
// operations costs one scan per firing, not one per entry.
type ExpirationManager struct {
	mu       sync.Mutex
	heap     deadlineHeap
	earliest map[expirable]time.Time
	wake     chan struct{}

	t tomb.Tomb
}

var (
	expirationMutex   sync.Mutex
	expirationManager *ExpirationManager
)

// Expirations returns the process-wide expiration manager, lazily starting its worker
func Expirations() *ExpirationManager {
	expirationMutex.Lock()
	defer expirationMutex.Unlock()
	if expirationManager == nil {
		m := &ExpirationManager{
			earliest: make(map[expirable]time.Time),
			wake:     make(chan struct{}, 1),
		}
		m.t.Go(m.run)
		LOG_EVENT_STARTED.Log(logger.Debug()).Msg("expiration manager")
		expirationManager = m
	}
	return expirationManager
}

func expirations() *ExpirationManager {
	return Expirations()
}

// ShutdownExpirations stops the process-wide expiration manager and waits for its worker
// to exit. Intended for test teardown; the next registration starts a fresh manager.
func ShutdownExpirations() error {
	expirationMutex.Lock()
	m := expirationManager
	expirationManager = nil
	expirationMutex.Unlock()
	if m == nil {
		return nil
	}
	LOG_EVENT_DYING.Log(logger.Debug()).Msg("expiration manager")
	m.t.Kill(nil)
	err := m.t.Wait()
	LOG_EVENT_DEAD.Log(logger.Debug()).Msg("expiration manager")
	return err
}

// register records a deadline for the target. Registrations later than an already
// pending deadline for the same target are dropped; the worker re-registers the
// target's next deadline after each firing.
func (m *ExpirationManager) register(target expirable, deadline time.Time) {
	if deadline.IsZero() {
		return
	}
	m.mu.Lock()
	if current, exists := m.earliest[target]; exists && !current.After(deadline) {
		m.mu.Unlock()
		return
	}
	m.earliest[target] = deadline
	heap.Push(&m.heap, &deadlineEntry{deadline: deadline, target: target})
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop : pop due targets, scan them outside the manager lock,
// re-register their next deadline, sleep until the earliest remaining one.
func (m *ExpirationManager) run() error {
	for {
		now := time.Now()
		due := m.collectDue(now)
		for _, target := range due {
			next := scan(target, now)
			if !next.IsZero() {
				m.register(target, next)
			}
		}

		timer := time.NewTimer(m.sleepFor(now))
		select {
		case <-timer.C:
		case <-m.wake:
			timer.Stop()
		case <-m.t.Dying():
			timer.Stop()
			return nil
		}
	}
}

// scan runs the target's expire under a panic guard : a misbehaving offer handle must
// not take the process-wide worker down with it.
func scan(target expirable, now time.Time) (next time.Time) {
	defer commons.IgnorePanic()
	return target.expire(now)
}

// collectDue pops every heap entry whose deadline has passed, skipping entries that
// were superseded by an earlier registration for the same target.
func (m *ExpirationManager) collectDue(now time.Time) []expirable {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []expirable
	for len(m.heap) > 0 && !m.heap[0].deadline.After(now) {
		entry := heap.Pop(&m.heap).(*deadlineEntry)
		registered, exists := m.earliest[entry.target]
		if !exists || !registered.Equal(entry.deadline) {
			// stale : the target re-registered an earlier deadline or already fired
			continue
		}
		delete(m.earliest, entry.target)
		due = append(due, entry.target)
	}
	return due
}

func (m *ExpirationManager) sleepFor(now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.heap) == 0 {
		return parkInterval
	}
	wait := m.heap[0].deadline.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}
