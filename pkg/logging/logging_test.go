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

package logging_test

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/Danstahr/cocol/pkg/commons/reflect"
	"github.com/Danstahr/cocol/pkg/logging"
)

type A struct{}

func TestNewPackageLogger(t *testing.T) {
	logger := logging.NewPackageLogger(A{})

	var buf bytes.Buffer
	logger = logger.Output(io.Writer(&buf))
	const event = logging.Event("RUNNING")
	event.Log(logger.Info()).Msg("")
	t.Log(buf.String())

	record := map[string]interface{}{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("the log record should be JSON : %v", err)
	}
	if record[logging.PACKAGE] != string(reflect.ObjectPackage(A{})) {
		t.Errorf("Package was not logged correctly : %v", record[logging.PACKAGE])
	}
	if record[logging.EVENT] != string(event) {
		t.Errorf("Event was not logged correctly : %v", record[logging.EVENT])
	}
}

func TestNewTypeLogger(t *testing.T) {
	logger := logging.NewTypeLogger(&A{})

	var buf bytes.Buffer
	logger = logger.Output(io.Writer(&buf))
	logger.Info().Msg("")

	record := map[string]interface{}{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("the log record should be JSON : %v", err)
	}
	if record[logging.TYPE] != "A" {
		t.Errorf("Type was not logged correctly : %v", record[logging.TYPE])
	}
}

func TestNewPackageLogger_ForUnnamedType(t *testing.T) {
	func() {
		defer func() {
			if p := recover(); p == nil {
				t.Error("logging.NewPackageLogger(1) should have panicked because a struct is required")
			}
		}()
		logging.NewPackageLogger(1)
	}()
}
