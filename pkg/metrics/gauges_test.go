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

package metrics_test

import (
	"testing"

	"github.com/Danstahr/cocol/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestGauges_GetOrMustRegisterGauge(t *testing.T) {
	defer metrics.ResetRegistry()

	opts := &prometheus.GaugeOpts{
		Name: "gauge1",
		Help: "Gauge #1",
	}

	gauge := metrics.GetOrMustRegisterGauge(opts)
	gauge.Set(10)
	metrics.GetOrMustRegisterGauge(opts).Add(5)

	c := make(chan prometheus.Metric, 1)
	gauge.Collect(c)
	collectedMetric := <-c
	metric := &dto.Metric{}
	collectedMetric.Write(metric)
	if *metric.Gauge.Value != 15 {
		t.Errorf("gauge value should be 15 : %v", *metric.Gauge.Value)
	}

	if len(metrics.GaugeNames()) != 1 || metrics.GaugeNames()[0] != metrics.GaugeFQName(opts) {
		t.Errorf("Gauge name %q was not returned : %v", metrics.GaugeFQName(opts), metrics.GaugeNames())
	}
}

func TestGauges_GetOrMustRegisterGaugeVec(t *testing.T) {
	defer metrics.ResetRegistry()

	opts := metrics.NewGaugeVecOpts(&prometheus.GaugeOpts{
		Name: "gaugevec1",
		Help: "GaugeVec #1",
	}, "channel")

	gaugeVec := metrics.GetOrMustRegisterGaugeVec(opts)
	gaugeVec.WithLabelValues("a").Set(3)
	metrics.GetOrMustRegisterGaugeVec(opts).WithLabelValues("a").Set(7)

	gathered, err := metrics.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed : %v", err)
	}
	family := metrics.FindMetricFamilyByName(gathered, metrics.GaugeFQName(opts.GaugeOpts))
	if family == nil {
		t.Fatal("the gauge vec was not gathered")
	}
	if *family.Metric[0].Gauge.Value != 7 {
		t.Errorf("gauge value should be 7 : %v", *family.Metric[0].Gauge.Value)
	}

	func() {
		defer func() {
			if p := recover(); p == nil {
				t.Errorf("Registering with different labels should have triggered a panic")
			}
		}()
		metrics.GetOrMustRegisterGaugeVec(metrics.NewGaugeVecOpts(&prometheus.GaugeOpts{
			Name: "gaugevec1",
			Help: "GaugeVec #1",
		}, "other"))
	}()
}
