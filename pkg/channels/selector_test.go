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
	"context"
	"errors"
	"testing"

	"github.com/Danstahr/cocol/pkg/channels"
)

func TestReadFromAny_NoCandidates(t *testing.T) {
	p := channels.ReadFromAny[int](nil, channels.First, channels.Infinite)
	if _, err := p.Result(); !errors.Is(err, channels.ErrInvalidArgument) {
		t.Errorf("an empty candidate set should be rejected : %v", err)
	}
}

// c1 is an empty rendezvous channel, c2 holds a buffered value. With First priority the
// selection enrolls in c1, completes synchronously on c2, and withdraws from c1.
func TestReadFromAny_First(t *testing.T) {
	c1 := channels.MustNew[int](channels.NewSettings("select-first-1", 0))
	c2 := channels.MustNew[int](channels.NewSettings("select-first-2", 1))
	if _, err := c2.WriteAsync(42, nil, channels.Infinite).Result(); err != nil {
		t.Fatalf("preloading c2 failed : %v", err)
	}

	p := channels.ReadFromAny([]*channels.Channel[int]{c1, c2}, channels.First, channels.Infinite)
	result, err := p.Result()
	if err != nil {
		t.Fatalf("the selection should have completed : %v", err)
	}
	if result.Channel != c2 || result.Value != 42 {
		t.Errorf("expected (c2, 42), got (%v, %d)", result.Channel.Name(), result.Value)
	}

	// no pending reader may remain in c1
	if _, err := c1.WriteAsync(0, nil, channels.Immediate).Result(); !errors.Is(err, channels.ErrTimeout) {
		t.Errorf("the losing branch should have been withdrawn from c1 : %v", err)
	}
}

func TestReadFromAny_AwaitsLateWriter(t *testing.T) {
	c1 := channels.MustNew[int](channels.NewSettings("select-late-1", 0))
	c2 := channels.MustNew[int](channels.NewSettings("select-late-2", 0))

	p := channels.ReadFromAny([]*channels.Channel[int]{c1, c2}, channels.First, channels.Infinite)
	if p.Resolved() {
		t.Fatal("the selection should be pending; both channels are empty")
	}

	if _, err := c2.WriteAsync(7, nil, channels.Infinite).Result(); err != nil {
		t.Fatalf("the write should rendezvous with the enrolled reader : %v", err)
	}

	result, err := p.Await(context.Background())
	if err != nil {
		t.Fatalf("the selection should have completed : %v", err)
	}
	if result.Channel != c2 || result.Value != 7 {
		t.Errorf("expected (c2, 7), got (%v, %d)", result.Channel.Name(), result.Value)
	}

	// the losing branch must have been withdrawn from c1
	if _, err := c1.WriteAsync(0, nil, channels.Immediate).Result(); !errors.Is(err, channels.ErrTimeout) {
		t.Errorf("no reader should remain parked in c1 : %v", err)
	}
}

// Both channels hold a waiting writer. Repeated random selections must consume exactly
// one value per call and hit both channels over many runs.
func TestReadFromAny_RandomIsRoughlyUniform(t *testing.T) {
	const runs = 200
	counts := map[string]int{}

	for i := 0; i < runs; i++ {
		c1 := channels.MustNew[string](channels.NewSettings("fairness-1", 0))
		c2 := channels.MustNew[string](channels.NewSettings("fairness-2", 0))
		w1 := c1.WriteAsync("A", nil, channels.Infinite)
		w2 := c2.WriteAsync("B", nil, channels.Infinite)

		result, err := channels.ReadFromAny([]*channels.Channel[string]{c1, c2}, channels.Random, channels.Infinite).Result()
		if err != nil {
			t.Fatalf("run %d : the selection failed : %v", i, err)
		}
		counts[result.Value]++

		// exactly one writer completed
		winners := 0
		if w1.Resolved() {
			winners++
		}
		if w2.Resolved() {
			winners++
		}
		if winners != 1 {
			t.Fatalf("run %d : exactly one write should have completed, got %d", i, winners)
		}
	}

	if counts["A"]+counts["B"] != runs {
		t.Fatalf("every run should consume exactly one value : %v", counts)
	}
	if counts["A"] < runs/5 || counts["B"] < runs/5 {
		t.Errorf("the random priority should hit both channels roughly evenly : %v", counts)
	}
}

func TestReadFromAny_FairRotatesAcrossCalls(t *testing.T) {
	counts := map[string]int{}
	for i := 0; i < 4; i++ {
		c1 := channels.MustNew[string](channels.NewSettings("fair-1", 0))
		c2 := channels.MustNew[string](channels.NewSettings("fair-2", 0))
		c1.WriteAsync("A", nil, channels.Infinite)
		c2.WriteAsync("B", nil, channels.Infinite)

		result, err := channels.ReadFromAny([]*channels.Channel[string]{c1, c2}, channels.Fair, channels.Infinite).Result()
		if err != nil {
			t.Fatalf("the selection failed : %v", err)
		}
		counts[result.Value]++
	}
	if counts["A"] != 2 || counts["B"] != 2 {
		t.Errorf("the fair priority should alternate its starting channel : %v", counts)
	}
}

func TestReadFromAny_AllRetired(t *testing.T) {
	c1 := channels.MustNew[int](channels.NewSettings("retired-1", 0))
	c2 := channels.MustNew[int](channels.NewSettings("retired-2", 0))
	c1.Retire(true)
	c2.Retire(true)

	p := channels.ReadFromAny([]*channels.Channel[int]{c1, c2}, channels.First, channels.Infinite)
	if _, err := p.Result(); !errors.Is(err, channels.ErrRetired) {
		t.Errorf("a selection over retired channels should fail retired : %v", err)
	}
}

func TestReadFromAny_ImmediateProbe(t *testing.T) {
	c1 := channels.MustNew[int](channels.NewSettings("probe-1", 0))
	c2 := channels.MustNew[int](channels.NewSettings("probe-2", 0))

	p := channels.ReadFromAny([]*channels.Channel[int]{c1, c2}, channels.First, channels.Immediate)
	if _, err := p.Result(); !errors.Is(err, channels.ErrTimeout) {
		t.Errorf("an immediate selection over empty channels should time out : %v", err)
	}
}

func TestWriteToAny_PicksWaitingReader(t *testing.T) {
	c1 := channels.MustNew[int](channels.NewSettings("write-any-1", 0))
	c2 := channels.MustNew[int](channels.NewSettings("write-any-2", 0))
	read := c2.ReadAsync(nil, channels.Infinite)

	p := channels.WriteToAny([]*channels.Channel[int]{c1, c2}, 11, channels.First, channels.Infinite)
	winner, err := p.Result()
	if err != nil {
		t.Fatalf("the selection should have completed : %v", err)
	}
	if winner != c2 {
		t.Errorf("the channel with the waiting reader should win : %v", winner.Name())
	}
	if v, err := read.Result(); err != nil || v != 11 {
		t.Errorf("the reader should have received the value : (%d, %v)", v, err)
	}

	// no pending writer may remain in c1
	if _, err := c1.ReadAsync(nil, channels.Immediate).Result(); !errors.Is(err, channels.ErrTimeout) {
		t.Errorf("the losing branch should have been withdrawn from c1 : %v", err)
	}
}

func TestWriteToAny_PrefersBufferCapacity(t *testing.T) {
	c1 := channels.MustNew[int](channels.NewSettings("write-buf-1", 0))
	c2 := channels.MustNew[int](channels.NewSettings("write-buf-2", 1))

	winner, err := channels.WriteToAny([]*channels.Channel[int]{c1, c2}, 5, channels.First, channels.Infinite).Result()
	if err != nil {
		t.Fatalf("the selection should have completed : %v", err)
	}
	if winner != c2 {
		t.Errorf("the buffered channel should win : %v", winner.Name())
	}
	if v, err := c2.ReadAsync(nil, channels.Infinite).Result(); err != nil || v != 5 {
		t.Errorf("the buffered value should be readable : (%d, %v)", v, err)
	}
}
