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
	"github.com/prometheus/client_golang/prometheus"
)

// MetricType identifies the kind of a registered metric
type MetricType int

// MetricType enum values
const (
	MetricType_UNKNOWN MetricType = iota

	MetricType_COUNTER
	MetricType_GAUGE

	MetricType_COUNTER_VEC
	MetricType_GAUGE_VEC
)

// Value returns the enum int value
func (a MetricType) Value() int {
	return int(a)
}

func (a MetricType) String() string {
	switch a {
	case MetricType_COUNTER:
		return "Counter"
	case MetricType_GAUGE:
		return "Gauge"
	case MetricType_COUNTER_VEC:
		return "CounterVec"
	case MetricType_GAUGE_VEC:
		return "GaugeVec"
	default:
		return "UNKNOWN"
	}
}

// Counter pairs the prometheus counter with the opts it was registered with
type Counter struct {
	prometheus.Counter
	*prometheus.CounterOpts
}

// CounterVec pairs the prometheus counter vector with the opts it was registered with
type CounterVec struct {
	*prometheus.CounterVec
	*CounterVecOpts
}

// Gauge pairs the prometheus gauge with the opts it was registered with
type Gauge struct {
	prometheus.Gauge
	*prometheus.GaugeOpts
}

// GaugeVec pairs the prometheus gauge vector with the opts it was registered with
type GaugeVec struct {
	*prometheus.GaugeVec
	*GaugeVecOpts
}
