/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	compbasemetrics "k8s.io/component-base/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

const component = "seda"

var (
	// registry distinguishes entries of the same name held by different registries, such as the local registries of two
	// runtime instances.
	queueLabels        = []string{"registry", "scope", "queue"}
	queueOutcomeLabels = []string{"registry", "scope", "queue", "outcome"}

	// latencyBuckets covers in-process hand-offs (sub-millisecond) up to long request-reply waits.
	latencyBuckets = []float64{
		0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
	}
)

var (
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: component,
			Name:      "queue_depth",
			Help:      HelpMsgWithStability("Number of deliveries currently pending in a queue entry.", compbasemetrics.ALPHA),
		},
		queueLabels,
	)
	queueRegistrations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: component,
			Name:      "queue_registrations",
			Help:      HelpMsgWithStability("Number of live producer and consumer handles registered on a queue entry.", compbasemetrics.ALPHA),
		},
		queueLabels,
	)
	consumerWorkers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: component,
			Name:      "consumer_workers",
			Help:      HelpMsgWithStability("Number of running consumer worker loops on a queue.", compbasemetrics.ALPHA),
		},
		queueLabels,
	)
	publishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: component,
			Name:      "publish_total",
			Help:      HelpMsgWithStability("Count of publish calls by final outcome.", compbasemetrics.ALPHA),
		},
		queueOutcomeLabels,
	)
	publishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: component,
			Name:      "publish_duration_seconds",
			Help:      HelpMsgWithStability("Time a publish call spent enqueuing and, if applicable, waiting for completion.", compbasemetrics.ALPHA),
			Buckets:   latencyBuckets,
		},
		queueOutcomeLabels,
	)
	processingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: component,
			Name:      "processing_duration_seconds",
			Help:      HelpMsgWithStability("Time a consumer processor spent on one exchange.", compbasemetrics.ALPHA),
			Buckets:   latencyBuckets,
		},
		queueLabels,
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register(customCollectors ...prometheus.Collector) {
	registerMetrics.Do(func() {
		metrics.Registry.MustRegister(queueDepth)
		metrics.Registry.MustRegister(queueRegistrations)
		metrics.Registry.MustRegister(consumerWorkers)
		metrics.Registry.MustRegister(publishTotal)
		metrics.Registry.MustRegister(publishDuration)
		metrics.Registry.MustRegister(processingDuration)
		for _, collector := range customCollectors {
			metrics.Registry.MustRegister(collector)
		}
	})
}

// Reset clears all collector values. Intended for tests.
func Reset() {
	queueDepth.Reset()
	queueRegistrations.Reset()
	consumerWorkers.Reset()
	publishTotal.Reset()
	publishDuration.Reset()
	processingDuration.Reset()
}

// HelpMsgWithStability prefixes a help message with its stability level, matching the Kubernetes metric convention.
func HelpMsgWithStability(msg string, stability compbasemetrics.StabilityLevel) string {
	return fmt.Sprintf("[%v] %v", stability, msg)
}

// SetQueueDepth records the current number of pending deliveries of a queue.
func SetQueueDepth(registry string, key types.QueueKey, depth int) {
	queueDepth.WithLabelValues(registry, key.Scope.String(), key.Name).Set(float64(depth))
}

// SetQueueRegistrations records the current registration count of a queue.
func SetQueueRegistrations(registry string, key types.QueueKey, count int) {
	queueRegistrations.WithLabelValues(registry, key.Scope.String(), key.Name).Set(float64(count))
}

// DeleteQueue drops all per-queue gauge series once the entry is torn down.
func DeleteQueue(registry string, key types.QueueKey) {
	queueDepth.DeleteLabelValues(registry, key.Scope.String(), key.Name)
	queueRegistrations.DeleteLabelValues(registry, key.Scope.String(), key.Name)
}

// AddConsumerWorkers adjusts the running worker gauge of a queue by delta.
func AddConsumerWorkers(registry string, key types.QueueKey, delta int) {
	consumerWorkers.WithLabelValues(registry, key.Scope.String(), key.Name).Add(float64(delta))
}

// RecordPublish records the outcome and latency of one publish call.
func RecordPublish(registry string, key types.QueueKey, outcome types.Outcome, duration time.Duration) {
	publishTotal.WithLabelValues(registry, key.Scope.String(), key.Name, outcome.String()).Inc()
	publishDuration.WithLabelValues(registry, key.Scope.String(), key.Name, outcome.String()).Observe(duration.Seconds())
}

// RecordProcessing records the time a processor spent on one exchange.
func RecordProcessing(registry string, key types.QueueKey, duration time.Duration) {
	processingDuration.WithLabelValues(registry, key.Scope.String(), key.Name).Observe(duration.Seconds())
}
