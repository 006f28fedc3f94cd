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

package channels_test

import (
	"errors"
	"testing"

	"github.com/Danstahr/cocol/pkg/channels"
)

func TestRetire_EmptyChannel(t *testing.T) {
	c := channels.MustNew[int](channels.NewSettings("retire-empty", 0))

	c.Retire(false)
	if !c.IsRetired() {
		t.Error("retiring an empty channel should complete immediately")
	}
	if _, err := c.ReadAsync(nil, channels.Infinite).Result(); !errors.Is(err, channels.ErrRetired) {
		t.Errorf("reading a retired channel should fail with a RetiredError : %v", err)
	}
	if _, err := c.WriteAsync(1, nil, channels.Infinite).Result(); !errors.Is(err, channels.ErrRetired) {
		t.Errorf("writing a retired channel should fail with a RetiredError : %v", err)
	}
}

// A channel with buffer 2 holds writes 1, 2 in the buffer and parks the writer of 3.
// Retiring must let a reader observe 1, 2, 3 in order - the parked write drains through
// one final rendezvous - and only then die.
func TestRetire_BufferedDrain(t *testing.T) {
	c := channels.MustNew[int](channels.NewSettings("retire-buffered", 2))

	w1 := c.WriteAsync(1, nil, channels.Infinite)
	w2 := c.WriteAsync(2, nil, channels.Infinite)
	w3 := c.WriteAsync(3, nil, channels.Infinite)
	if !w1.Resolved() || !w2.Resolved() {
		t.Fatal("the buffered writes should have completed")
	}
	if w3.Resolved() {
		t.Fatal("the third write should block on the full buffer")
	}

	c.Retire(false)
	if c.IsRetired() {
		t.Fatal("the channel should stay in Retiring until the buffered values drain")
	}

	for _, expected := range []int{1, 2, 3} {
		v, err := c.ReadAsync(nil, channels.Infinite).Result()
		if err != nil {
			t.Fatalf("the drain read of %d failed : %v", expected, err)
		}
		if v != expected {
			t.Fatalf("the drain should preserve write order : expected %d, got %d", expected, v)
		}
	}
	if _, err := w3.Result(); err != nil {
		t.Errorf("the parked write should have completed during the drain : %v", err)
	}

	if !c.IsRetired() {
		t.Error("the channel should be retired after the drain")
	}
	if _, err := c.ReadAsync(nil, channels.Infinite).Result(); !errors.Is(err, channels.ErrRetired) {
		t.Errorf("a read after the drain should fail with a RetiredError : %v", err)
	}
}

func TestRetire_ExactlyBufferedReadsSucceed(t *testing.T) {
	c := channels.MustNew[int](channels.NewSettings("retire-exact", 3))

	for i := 1; i <= 2; i++ {
		if _, err := c.WriteAsync(i, nil, channels.Infinite).Result(); err != nil {
			t.Fatalf("buffered write %d failed : %v", i, err)
		}
	}
	c.Retire(false)

	for i := 1; i <= 2; i++ {
		if v, err := c.ReadAsync(nil, channels.Infinite).Result(); err != nil || v != i {
			t.Fatalf("drain read %d = (%d, %v)", i, v, err)
		}
	}
	if _, err := c.ReadAsync(nil, channels.Infinite).Result(); !errors.Is(err, channels.ErrRetired) {
		t.Errorf("after k buffered reads every further read should fail retired : %v", err)
	}
}

func TestRetire_Immediate(t *testing.T) {
	c := channels.MustNew[int](channels.NewSettings("retire-immediate", 2))

	if _, err := c.WriteAsync(1, nil, channels.Infinite).Result(); err != nil {
		t.Fatalf("the buffered write failed : %v", err)
	}
	pending := c.ReadAsync(nil, channels.Infinite) // parks? no - consumes the buffer
	if v, err := pending.Result(); err != nil || v != 1 {
		t.Fatalf("the read should consume the buffered value : (%d, %v)", v, err)
	}

	parked := c.ReadAsync(nil, channels.Infinite)
	c.Retire(true)

	if !c.IsRetired() {
		t.Error("an immediate retire should complete at once")
	}
	if _, err := parked.Result(); !errors.Is(err, channels.ErrRetired) {
		t.Errorf("the parked read should have been drained with a RetiredError : %v", err)
	}
}

func TestRetire_PendingWritersDrainWithRetired(t *testing.T) {
	c := channels.MustNew[int](channels.NewSettings("retire-writers", 0))

	w := c.WriteAsync(1, nil, channels.Infinite)
	c.Retire(true)

	if _, err := w.Result(); !errors.Is(err, channels.ErrRetired) {
		t.Errorf("the parked write should have been drained with a RetiredError : %v", err)
	}
}

func TestRetire_IsIdempotent(t *testing.T) {
	c := channels.MustNew[int](channels.NewSettings("retire-idempotent", 0))
	c.Retire(false)
	c.Retire(false)
	c.Retire(true)
	if !c.IsRetired() {
		t.Error("the channel should be retired")
	}
}
