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

package metrics

import (
	"strings"

	"github.com/Danstahr/cocol/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// CounterVecOpts represents the settings for a prometheus counter vector metric
type CounterVecOpts struct {
	*prometheus.CounterOpts

	Labels []string
}

// GaugeVecOpts represents the settings for a prometheus gauge vector metric
type GaugeVecOpts struct {
	*prometheus.GaugeOpts

	Labels []string
}

// CheckCounterOpts panics if checks fail :
// - name must not be blank
// - help must not be blank
// The returned opts has all string fields trimmed.
func CheckCounterOpts(opts *prometheus.CounterOpts) *prometheus.CounterOpts {
	const FUNC = "CheckCounterOpts"
	opts.Name = strings.TrimSpace(opts.Name)
	mustNotBeBlank(opts.Name, FUNC, "Name")

	opts.Help = strings.TrimSpace(opts.Help)
	mustNotBeBlank(opts.Help, FUNC, "Help")

	opts.Namespace = strings.TrimSpace(opts.Namespace)
	opts.Subsystem = strings.TrimSpace(opts.Subsystem)

	return opts
}

// CheckGaugeOpts panics if checks fail :
// - name must not be blank
// - help must not be blank
// The returned opts has all string fields trimmed.
func CheckGaugeOpts(opts *prometheus.GaugeOpts) *prometheus.GaugeOpts {
	const FUNC = "CheckGaugeOpts"
	opts.Name = strings.TrimSpace(opts.Name)
	mustNotBeBlank(opts.Name, FUNC, "Name")

	opts.Help = strings.TrimSpace(opts.Help)
	mustNotBeBlank(opts.Help, FUNC, "Help")

	opts.Namespace = strings.TrimSpace(opts.Namespace)
	opts.Subsystem = strings.TrimSpace(opts.Subsystem)

	return opts
}

// NewCounterVecOpts returns a new CounterVecOpts.
// If validation fails, then the func panics. The following checks are applied :
// - label names cannot be blank
// - opts.Name cannot be blank
// - opts.Help cannot be blank
//
// All string fields will be trimmed, i.e., opts and labels may be modified.
func NewCounterVecOpts(opts *prometheus.CounterOpts, label string, labels ...string) *CounterVecOpts {
	return &CounterVecOpts{CounterOpts: CheckCounterOpts(opts), Labels: labelNames(label, labels...)}
}

// NewGaugeVecOpts returns a new GaugeVecOpts.
// The same validations as NewCounterVecOpts are applied.
func NewGaugeVecOpts(opts *prometheus.GaugeOpts, label string, labels ...string) *GaugeVecOpts {
	return &GaugeVecOpts{GaugeOpts: CheckGaugeOpts(opts), Labels: labelNames(label, labels...)}
}

func labelNames(label string, labels ...string) []string {
	const FUNC = "labelNames"
	names := make([]string, 0, len(labels)+1)
	label = strings.TrimSpace(label)
	mustNotBeBlank(label, FUNC, "label")
	names = append(names, label)
	for _, l := range labels {
		l = strings.TrimSpace(l)
		mustNotBeBlank(l, FUNC, "label")
		names = append(names, l)
	}
	return names
}

func mustNotBeBlank(s string, fn string, field string) {
	if s == "" {
		logger.Panic().Str(logging.FUNC, fn).Str("field", field).Err(MetricNameCannotBeBlank).Msg("")
	}
}
