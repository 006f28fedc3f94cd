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

package scope

import "github.com/Danstahr/cocol/pkg/logging"

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log fields
const (
	LOG_FIELD_ISOLATED = "isolated"
)

// log events
const (
	LOG_EVENT_SCOPE_CREATED      logging.Event = "SCOPE_CREATED"
	LOG_EVENT_SCOPE_DISPOSED     logging.Event = "SCOPE_DISPOSED"
	LOG_EVENT_SCOPE_DISPOSE_ROOT logging.Event = "SCOPE_DISPOSE_ROOT"
	LOG_EVENT_BOUND              logging.Event = "BOUND"
	LOG_EVENT_INJECTED           logging.Event = "INJECTED"
)
