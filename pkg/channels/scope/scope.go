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

// Package scope provides a nested, task-local namespace that maps channel names to
// channel instances.
//
// A Scope is a frame in a tree rooted at the static, never-disposable root scope.
// Name lookup starts at the current frame and walks parent frames - unless the current
// frame is isolated, in which case lookup stops there. Isolated scopes may still import
// selected names from their parent via InjectFromParent.
//
// The "current" frame is carried on a context.Context : s.Context(ctx) enters the
// scope, Current(ctx) reads it back. Disposing a scope out of order is tolerated -
// Current skips disposed frames and returns the nearest live ancestor.
package scope

import (
	"context"
	"fmt"
	stdreflect "reflect"
	"sync"

	"github.com/Danstahr/cocol/pkg/channels"
	"github.com/Danstahr/cocol/pkg/commons/reflect"
	"github.com/Danstahr/cocol/pkg/logging"
	"github.com/nats-io/nuid"
	"github.com/rs/zerolog"
)

// registryMutex is the single lock guarding every scope's name bindings.
// The registry is shared process-wide; a single lock keeps the cross-frame walk atomic.
var registryMutex sync.Mutex

// Scope is a naming frame. Use New to create child scopes; the root scope is Root().
type Scope struct {
	id       string
	parent   *Scope
	isolated bool

	// guarded by registryMutex
	names    map[string]namedChannel
	disposed bool

	logger zerolog.Logger
}

// namedChannel is a bound channel with the reflect type used for mismatch diagnostics
type namedChannel struct {
	channel interface{}
	typ     stdreflect.Type
}

var root = &Scope{
	id:     "root",
	names:  make(map[string]namedChannel),
	logger: logger.With().Str(logging.ID, "root").Logger(),
}

// Root returns the static root scope. The root scope cannot be disposed.
func Root() *Scope {
	return root
}

// New creates a child scope of parent. A nil parent means the root scope.
// An isolated scope stops name lookups from walking into its ancestors.
func New(parent *Scope, isolated bool) *Scope {
	if parent == nil {
		parent = root
	}
	id := nuid.Next()
	s := &Scope{
		id:       id,
		parent:   parent,
		isolated: isolated,
		names:    make(map[string]namedChannel),
		logger:   logger.With().Str(logging.ID, id).Bool(LOG_FIELD_ISOLATED, isolated).Logger(),
	}
	LOG_EVENT_SCOPE_CREATED.Log(s.logger.Debug()).Msg("")
	return s
}

// ID returns the scope's process-unique id
func (s *Scope) ID() string { return s.id }

// Parent returns the parent scope; nil for the root
func (s *Scope) Parent() *Scope { return s.parent }

// Isolated returns true if name lookups stop at this scope
func (s *Scope) Isolated() bool { return s.isolated }

// Disposed returns true once the scope has been disposed
func (s *Scope) Disposed() bool {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	return s.disposed
}

// Dispose retires the scope frame. Channels bound in the frame are not retired - they
// may still be referenced from other frames or directly. Disposing the root is a no-op.
// Out-of-order disposal is tolerated : Current skips disposed frames.
func (s *Scope) Dispose() {
	if s == root {
		LOG_EVENT_SCOPE_DISPOSE_ROOT.Log(s.logger.Warn()).Msg("the root scope cannot be disposed")
		return
	}
	registryMutex.Lock()
	s.disposed = true
	registryMutex.Unlock()
	LOG_EVENT_SCOPE_DISPOSED.Log(s.logger.Debug()).Msg("")
}

type contextKey struct{}

// Context returns a context carrying s as the current scope
func (s *Scope) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Current returns the current scope carried by ctx, skipping disposed frames.
// If ctx carries no scope, the root scope is returned.
func Current(ctx context.Context) *Scope {
	s, ok := ctx.Value(contextKey{}).(*Scope)
	if !ok {
		return root
	}
	registryMutex.Lock()
	defer registryMutex.Unlock()
	for s != root && s.disposed {
		s = s.parent
	}
	return s
}

// Inject binds the channel under the name in this scope, replacing any binding the
// scope already holds for the name. The channel must be a *channels.Channel or
// *channels.BroadcastChannel value.
func (s *Scope) Inject(name string, channel interface{}) error {
	if name == "" {
		return &channels.InvalidArgumentError{Message: "channel name cannot be blank"}
	}
	if channel == nil {
		return &channels.InvalidArgumentError{Message: fmt.Sprintf("cannot inject a nil channel under name %q", name)}
	}
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if s.disposed {
		return &channels.InvalidArgumentError{Message: fmt.Sprintf("cannot inject %q into a disposed scope", name)}
	}
	s.names[name] = namedChannel{channel: channel, typ: stdreflect.TypeOf(channel)}
	LOG_EVENT_INJECTED.Log(s.logger.Debug()).Str(logging.NAME, name).Msg("")
	return nil
}

// InjectFromParent imports the named channel from the parent chain into this scope.
// The lookup starts at the parent and follows the parent frames' own isolation rules.
// An unknown name is an InvalidArgumentError.
func (s *Scope) InjectFromParent(name string) error {
	if s.parent == nil {
		return &channels.InvalidArgumentError{Message: fmt.Sprintf("the root scope has no parent to import %q from", name)}
	}
	registryMutex.Lock()
	defer registryMutex.Unlock()
	bound, exists := s.parent.lookupLocked(name)
	if !exists {
		return &channels.InvalidArgumentError{Message: fmt.Sprintf("channel %q is not bound in any parent scope", name)}
	}
	s.names[name] = bound
	LOG_EVENT_INJECTED.Log(s.logger.Debug()).Str(logging.NAME, name).Msg("")
	return nil
}

// lookupLocked resolves the name starting at s, honoring isolation.
// Callers must hold registryMutex.
func (s *Scope) lookupLocked(name string) (namedChannel, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if !cur.disposed {
			if bound, exists := cur.names[name]; exists {
				return bound, true
			}
			if cur.isolated {
				break
			}
		}
	}
	return namedChannel{}, false
}

// GetOrCreate resolves the named channel in the scope, creating and binding a new
// channel in s on a miss. A bound channel of a different value type is an
// InvalidArgumentError. The settings' Name field is overridden with name.
func GetOrCreate[T any](s *Scope, name string, settings channels.Settings) (*channels.Channel[T], error) {
	if name == "" {
		return nil, &channels.InvalidArgumentError{Message: "channel name cannot be blank"}
	}
	registryMutex.Lock()
	if s.disposed {
		registryMutex.Unlock()
		return nil, &channels.InvalidArgumentError{Message: fmt.Sprintf("cannot resolve %q in a disposed scope", name)}
	}
	if bound, exists := s.lookupLocked(name); exists {
		registryMutex.Unlock()
		channel, ok := bound.channel.(*channels.Channel[T])
		if !ok {
			return nil, &channels.InvalidArgumentError{Message: fmt.Sprintf(
				"channel %q is bound with type %s", name, reflect.TypeString(bound.typ))}
		}
		return channel, nil
	}
	registryMutex.Unlock()

	settings.Name = name
	channel, err := channels.New[T](settings)
	if err != nil {
		return nil, err
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()
	// a concurrent GetOrCreate may have bound the name while we were constructing
	if bound, exists := s.lookupLocked(name); exists {
		existing, ok := bound.channel.(*channels.Channel[T])
		if !ok {
			return nil, &channels.InvalidArgumentError{Message: fmt.Sprintf(
				"channel %q is bound with type %s", name, reflect.TypeString(bound.typ))}
		}
		channel.Retire(true)
		return existing, nil
	}
	s.names[name] = namedChannel{channel: channel, typ: stdreflect.TypeOf(channel)}
	LOG_EVENT_BOUND.Log(s.logger.Debug()).Str(logging.NAME, name).Msg("")
	return channel, nil
}
