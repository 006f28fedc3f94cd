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

package scope_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Danstahr/cocol/pkg/channels"
	"github.com/Danstahr/cocol/pkg/channels/scope"
)

func TestGetOrCreate_ReturnsTheSameInstance(t *testing.T) {
	s := scope.New(nil, false)
	defer s.Dispose()

	c1, err := scope.GetOrCreate[int](s, "workers", channels.NewSettings("", 2))
	if err != nil {
		t.Fatalf("GetOrCreate failed : %v", err)
	}
	c2, err := scope.GetOrCreate[int](s, "workers", channels.NewSettings("", 2))
	if err != nil {
		t.Fatalf("the second GetOrCreate failed : %v", err)
	}
	if c1 != c2 {
		t.Error("the same name should resolve to the same channel instance")
	}
	if c1.Name() != "workers" {
		t.Errorf("the channel should carry the bound name : %q", c1.Name())
	}
}

func TestGetOrCreate_TypeMismatch(t *testing.T) {
	s := scope.New(nil, false)
	defer s.Dispose()

	if _, err := scope.GetOrCreate[int](s, "typed", channels.NewSettings("", 0)); err != nil {
		t.Fatalf("GetOrCreate failed : %v", err)
	}
	if _, err := scope.GetOrCreate[string](s, "typed", channels.NewSettings("", 0)); !errors.Is(err, channels.ErrInvalidArgument) {
		t.Errorf("resolving a bound name with a different value type should fail : %v", err)
	}
}

func TestGetOrCreate_BlankName(t *testing.T) {
	s := scope.New(nil, false)
	defer s.Dispose()

	if _, err := scope.GetOrCreate[int](s, "", channels.NewSettings("", 0)); !errors.Is(err, channels.ErrInvalidArgument) {
		t.Errorf("a blank name should be rejected : %v", err)
	}
}

func TestGetOrCreate_WalksParentFrames(t *testing.T) {
	parent := scope.New(nil, false)
	defer parent.Dispose()
	child := scope.New(parent, false)
	defer child.Dispose()

	c1, err := scope.GetOrCreate[int](parent, "shared", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate in the parent failed : %v", err)
	}
	c2, err := scope.GetOrCreate[int](child, "shared", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate in the child failed : %v", err)
	}
	if c1 != c2 {
		t.Error("the child scope should resolve the parent's binding")
	}
}

func TestGetOrCreate_IsolatedScopeStopsTheWalk(t *testing.T) {
	parent := scope.New(nil, false)
	defer parent.Dispose()
	isolated := scope.New(parent, true)
	defer isolated.Dispose()

	c1, err := scope.GetOrCreate[int](parent, "private", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate in the parent failed : %v", err)
	}
	c2, err := scope.GetOrCreate[int](isolated, "private", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate in the isolated scope failed : %v", err)
	}
	if c1 == c2 {
		t.Error("an isolated scope should not see the parent's binding")
	}
}

func TestInjectFromParent_SharesASingleChannel(t *testing.T) {
	parent := scope.New(nil, false)
	defer parent.Dispose()
	isolated := scope.New(parent, true)
	defer isolated.Dispose()

	c1, err := scope.GetOrCreate[int](parent, "imported", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate in the parent failed : %v", err)
	}
	if err := isolated.InjectFromParent("imported"); err != nil {
		t.Fatalf("InjectFromParent failed : %v", err)
	}
	c2, err := scope.GetOrCreate[int](isolated, "imported", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate after the import failed : %v", err)
	}
	if c1 != c2 {
		t.Error("the imported name should resolve to the parent's channel")
	}
}

func TestInjectFromParent_UnknownName(t *testing.T) {
	s := scope.New(nil, false)
	defer s.Dispose()

	if err := s.InjectFromParent("no-such-channel-binding"); !errors.Is(err, channels.ErrInvalidArgument) {
		t.Errorf("importing an unknown name should fail : %v", err)
	}
}

func TestInject_ReplacesTheBinding(t *testing.T) {
	s := scope.New(nil, false)
	defer s.Dispose()

	original, err := scope.GetOrCreate[int](s, "slot", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate failed : %v", err)
	}
	replacement := channels.MustNew[int](channels.NewSettings("replacement", 0))
	if err := s.Inject("slot", replacement); err != nil {
		t.Fatalf("Inject failed : %v", err)
	}
	resolved, err := scope.GetOrCreate[int](s, "slot", channels.NewSettings("", 0))
	if err != nil {
		t.Fatalf("GetOrCreate failed : %v", err)
	}
	if resolved != replacement || resolved == original {
		t.Error("the injected channel should replace the existing binding")
	}

	if err := s.Inject("", replacement); !errors.Is(err, channels.ErrInvalidArgument) {
		t.Errorf("a blank name should be rejected : %v", err)
	}
	if err := s.Inject("slot", nil); !errors.Is(err, channels.ErrInvalidArgument) {
		t.Errorf("a nil channel should be rejected : %v", err)
	}
}

func TestCurrent_DefaultsToRoot(t *testing.T) {
	if scope.Current(context.Background()) != scope.Root() {
		t.Error("a context without a scope should resolve to the root")
	}
}

func TestCurrent_SkipsDisposedFrames(t *testing.T) {
	s1 := scope.New(nil, false)
	defer s1.Dispose()
	ctx1 := s1.Context(context.Background())
	s2 := scope.New(s1, false)
	ctx2 := s2.Context(ctx1)

	if scope.Current(ctx2) != s2 {
		t.Fatal("the inner scope should be current")
	}

	// out-of-order disposal : the inner frame goes away while its context is still in use
	s2.Dispose()
	if scope.Current(ctx2) != s1 {
		t.Error("a disposed frame should be skipped in favor of its parent")
	}
}

func TestDispose_RootIsANoOp(t *testing.T) {
	scope.Root().Dispose()
	if scope.Root().Disposed() {
		t.Error("the root scope can never be disposed")
	}
}

func TestGetOrCreate_DisposedScope(t *testing.T) {
	s := scope.New(nil, false)
	s.Dispose()
	if _, err := scope.GetOrCreate[int](s, "late", channels.NewSettings("", 0)); !errors.Is(err, channels.ErrInvalidArgument) {
		t.Errorf("resolving in a disposed scope should fail : %v", err)
	}
}
