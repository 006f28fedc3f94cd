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

package logging

import (
	stdreflect "reflect"
	"time"

	"github.com/Danstahr/cocol/pkg/commons/reflect"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger fields
const (
	PACKAGE = "pkg"
	TYPE    = "type"
	FUNC    = "func"
	NAME    = "name"
	EVENT   = "event"
	ID      = "id"
	STATE   = "state"
)

// Event is a unique name for something that happened and is worth logging.
// Events make log records greppable across the codebase.
type Event string

// Log adds the event field to the zerolog event
func (e Event) Log(evt *zerolog.Event) *zerolog.Event {
	return evt.Str(EVENT, string(e))
}

// NewTypeLogger returns a new logger with pkg={pkg}, type={type}
// where {pkg} is o's package path and {type} is o's type name
// o must be a struct - the pattern is to use an empty struct
func NewTypeLogger(o interface{}) zerolog.Logger {
	t, err := reflect.Struct(stdreflect.TypeOf(o))
	if err != nil {
		panic("NewTypeLogger can only be created for a struct")
	}
	return log.With().
		Str(PACKAGE, string(reflect.TypePackage(t))).
		Str(TYPE, t.Name()).
		Logger()
}

// NewPackageLogger returns a new logger with pkg={pkg}
// where {pkg} is o's package path
// o must be a struct - the pattern is to use an empty struct
func NewPackageLogger(o interface{}) zerolog.Logger {
	t, err := reflect.Struct(stdreflect.TypeOf(o))
	if err != nil {
		panic("NewPackageLogger can only be created for a struct")
	}
	return log.With().Str(PACKAGE, string(reflect.TypePackage(t))).Logger()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
