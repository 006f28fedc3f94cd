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

import (
	"github.com/Danstahr/cocol/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// metric constants
const (
	METRICS_NAMESPACE = "cocol"
	METRICS_SUBSYSTEM = "channels"

	METRIC_LABEL_CHANNEL = "channel"
)

// channelMetrics holds the per-channel metric instances, curried with the channel label.
// The underlying vectors are registered once in the global metrics registry.
type channelMetrics struct {
	reads         prometheus.Counter
	writes        prometheus.Counter
	timeouts      prometheus.Counter
	cancellations prometheus.Counter
	overflows     prometheus.Counter

	pendingReaders prometheus.Gauge
	pendingWriters prometheus.Gauge
}

func newChannelMetrics(channel string) *channelMetrics {
	return &channelMetrics{
		reads:         channelCounter("reads_total", "Number of successful reads completed on the channel", channel),
		writes:        channelCounter("writes_total", "Number of successful writes completed on the channel", channel),
		timeouts:      channelCounter("timeouts_total", "Number of operations that expired before a match", channel),
		cancellations: channelCounter("cancellations_total", "Number of operations withdrawn by their offer handle or evicted on overflow", channel),
		overflows:     channelCounter("overflows_total", "Number of operations rejected because a pending queue bound was exceeded", channel),

		pendingReaders: channelGauge("pending_readers", "Number of entries in the channel's reader queue", channel),
		pendingWriters: channelGauge("pending_writers", "Number of entries in the channel's writer queue, buffered slots included", channel),
	}
}

func channelCounter(name, help, channel string) prometheus.Counter {
	vec := metrics.GetOrMustRegisterCounterVec(metrics.NewCounterVecOpts(&prometheus.CounterOpts{
		Namespace: METRICS_NAMESPACE,
		Subsystem: METRICS_SUBSYSTEM,
		Name:      name,
		Help:      help,
	}, METRIC_LABEL_CHANNEL))
	return vec.WithLabelValues(channel)
}

func channelGauge(name, help, channel string) prometheus.Gauge {
	vec := metrics.GetOrMustRegisterGaugeVec(metrics.NewGaugeVecOpts(&prometheus.GaugeOpts{
		Namespace: METRICS_NAMESPACE,
		Subsystem: METRICS_SUBSYSTEM,
		Name:      name,
		Help:      help,
	}, METRIC_LABEL_CHANNEL))
	return vec.WithLabelValues(channel)
}
