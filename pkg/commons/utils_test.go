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

package commons_test

import (
	"testing"

	"github.com/Danstahr/cocol/pkg/commons"
)

func TestIgnorePanic(t *testing.T) {
	func() {
		defer commons.IgnorePanic()
		panic("ignore me")
	}()
}

func TestCloseQuietly(t *testing.T) {
	c := make(chan struct{})
	commons.CloseQuietly(c)
	// closing twice must not panic
	commons.CloseQuietly(c)
}
