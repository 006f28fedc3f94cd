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

import "github.com/Danstahr/cocol/pkg/logging"

type pkgobject struct{}

var logger = logging.NewPackageLogger(pkgobject{})

// log fields
const (
	LOG_FIELD_BUFFER       = "buffer"
	LOG_FIELD_RETIRE_COUNT = "retire_count"
	LOG_FIELD_DEADLINE     = "deadline"
)

// log events
const (
	LOG_EVENT_CREATED  logging.Event = "CREATED"
	LOG_EVENT_RETIRING logging.Event = "RETIRING"
	LOG_EVENT_RETIRED  logging.Event = "RETIRED"

	LOG_EVENT_STARTED logging.Event = "STARTED"
	LOG_EVENT_DYING   logging.Event = "DYING"
	LOG_EVENT_DEAD    logging.Event = "DEAD"
)
