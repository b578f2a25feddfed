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

package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/controller/internal"
	"github.com/apache/camel-sub208/pkg/seda/metrics"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// ProcessFunc handles one exchange delivered to a Consumer. It may replace the exchange body; a returned error is
// surfaced to a waiting producer as a `*types.ProcessingError`.
//
// The context passed to a ProcessFunc is not cancelled when the Consumer stops: an exchange that has been dequeued
// always runs to completion.
type ProcessFunc func(ctx context.Context, exchange *types.Exchange) error

type consumerState int

const (
	consumerCreated consumerState = iota
	consumerRunning
	consumerStopped
)

// ConsumerStats is a read-only snapshot of a Consumer's activity.
type ConsumerStats struct {
	ID        string
	Key       types.QueueKey
	Workers   int
	Suspended bool
	Processed int64
	Failed    int64
	InFlight  int64
}

// Consumer drains one queue entry with a pool of worker loops.
//
// A Consumer holds one registration on its entry and one subscription in the entry's subscriber set between Start and
// Stop. In broadcast mode the subscription owns a private sub-queue, so every Consumer receives every exchange and
// its workers compete only among themselves.
type Consumer struct {
	// --- Immutable dependencies (set at construction) ---
	registry contracts.QueueRegistry
	key      types.QueueKey
	spec     contracts.QueueSpec
	config   ConsumerConfig
	id       string
	process  ProcessFunc
	clock    clock.PassiveClock
	tracer   trace.Tracer
	logger   logr.Logger

	gate  internal.Gate
	stats internal.Stats

	// mu guards the lifecycle fields below.
	mu     sync.Mutex
	state  consumerState
	ref    contracts.QueueReference
	cancel context.CancelFunc
	group  *errgroup.Group
}

// consumerOption is a function that applies a configuration change to a Consumer.
// test-only
type consumerOption func(*Consumer)

// withConsumerClock replaces the clock used to measure processing latency.
// test-only
func withConsumerClock(c clock.PassiveClock) consumerOption {
	return func(cs *Consumer) {
		cs.clock = c
	}
}

// withConsumerTracer replaces the tracer used for processing spans.
// test-only
func withConsumerTracer(t trace.Tracer) consumerOption {
	return func(cs *Consumer) {
		cs.tracer = t
	}
}

// NewConsumer creates a stopped consumer for key. It does not touch the registry until Start.
// A nil config applies the defaults of NewConsumerConfig.
func NewConsumer(
	registry contracts.QueueRegistry,
	key types.QueueKey,
	spec contracts.QueueSpec,
	config *ConsumerConfig,
	process ProcessFunc,
	logger logr.Logger,
	opts ...consumerOption,
) (*Consumer, error) {
	if process == nil {
		return nil, errors.New("consumer process function cannot be nil")
	}
	if config == nil {
		var err error
		if config, err = NewConsumerConfig(); err != nil {
			return nil, err
		}
	} else if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid consumer config: %w", err)
	}

	id := uuid.NewString()
	c := &Consumer{
		registry: registry,
		key:      key,
		spec:     spec,
		config:   *config,
		id:       id,
		process:  process,
		clock:    clock.RealClock{},
		tracer:   otel.Tracer(tracerName),
		logger:   logger.WithName("consumer").WithValues("queue", key.String(), "consumerID", id),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ID returns the identity this consumer subscribes under.
func (c *Consumer) ID() string { return c.id }

// Key returns the queue key this consumer drains.
func (c *Consumer) Key() types.QueueKey { return c.key }

// Start registers the consumer on its queue entry and spawns its worker loops. The workers run until Stop is called or
// ctx is cancelled; in the latter case the registration is kept until Stop.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != consumerCreated {
		return fmt.Errorf("%w: consumer %s on %s started twice", types.ErrLifecycleMisuse, c.id, c.key)
	}

	ref, err := c.registry.Acquire(c.key, c.spec)
	if err != nil {
		return fmt.Errorf("failed to register consumer on %s: %w", c.key, err)
	}
	if err := ref.Subscribe(c.id); err != nil {
		if rerr := c.registry.Release(c.key); rerr != nil {
			c.logger.Error(rerr, "Failed to release registration after a failed subscribe")
		}
		return fmt.Errorf("failed to subscribe consumer to %s: %w", c.key, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	workers := c.config.ConcurrentConsumers
	metrics.AddConsumerWorkers(c.registry.Name(), c.key, workers)
	for i := range workers {
		proc := internal.NewQueueProcessor(ref, internal.QueueProcessorConfig{
			ConsumerID:  c.id,
			Registry:    c.registry.Name(),
			PollTimeout: c.config.PollTimeout,
			Process:     internal.ProcessFunc(c.process),
			Gate:        &c.gate,
			Stats:       &c.stats,
			Clock:       c.clock,
			Tracer:      c.tracer,
		}, c.logger.WithValues("worker", i))
		group.Go(func() error {
			defer metrics.AddConsumerWorkers(c.registry.Name(), c.key, -1)
			return proc.Run(groupCtx)
		})
	}

	c.ref = ref
	c.cancel = cancel
	c.group = group
	c.state = consumerRunning
	c.logger.V(logging.DEFAULT).Info("Consumer started", "workers", workers,
		"multipleConsumers", ref.Spec().MultipleConsumers)
	return nil
}

// Stop interrupts every blocked worker, waits for in-flight exchanges to finish, and releases the consumer's
// registration. If this was the last registration on the entry, the entry is torn down. Stopping a consumer that is not
// running is a lifecycle violation.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if c.state != consumerRunning {
		c.mu.Unlock()
		return fmt.Errorf("%w: consumer %s on %s is not running", types.ErrLifecycleMisuse, c.id, c.key)
	}
	c.state = consumerStopped
	ref, cancel, group := c.ref, c.cancel, c.group
	c.mu.Unlock()

	cancel()
	runErr := group.Wait()
	if runErr != nil {
		c.logger.Error(runErr, "Consumer worker failed")
	}

	if !ref.IsActive() {
		// The entry was torn down underneath us and took our registration with it.
		c.logger.V(logging.DEFAULT).Info("Consumer stopped; queue entry already torn down")
		return runErr
	}
	if c.config.PurgeWhenStopping {
		if n := ref.Purge(c.id, types.ErrConsumerStopped); n > 0 {
			c.logger.V(logging.VERBOSE).Info("Purged pending exchanges on stop", "count", n)
		}
	}
	errs := []error{runErr}
	if err := ref.Unsubscribe(c.id); err != nil {
		errs = append(errs, err)
	}
	if err := c.registry.Release(c.key); err != nil {
		errs = append(errs, err)
	}
	c.logger.V(logging.DEFAULT).Info("Consumer stopped", "processed", c.stats.Processed(), "failed", c.stats.Failed())
	return errors.Join(errs...)
}

// Suspend stops the workers from taking new exchanges without deregistering. Pending exchanges stay queued. A worker
// already blocked in a dequeue may still take one exchange before it observes the suspension, bounded by PollTimeout.
func (c *Consumer) Suspend() {
	if c.gate.Suspend() {
		c.logger.V(logging.VERBOSE).Info("Consumer suspended")
	}
}

// Resume lets suspended workers take exchanges again.
func (c *Consumer) Resume() {
	if c.gate.Resume() {
		c.logger.V(logging.VERBOSE).Info("Consumer resumed")
	}
}

// Stats returns a snapshot of the consumer's activity.
func (c *Consumer) Stats() ConsumerStats {
	c.mu.Lock()
	workers := 0
	if c.state == consumerRunning {
		workers = c.config.ConcurrentConsumers
	}
	c.mu.Unlock()
	return ConsumerStats{
		ID:        c.id,
		Key:       c.key,
		Workers:   workers,
		Suspended: c.gate.Suspended(),
		Processed: c.stats.Processed(),
		Failed:    c.stats.Failed(),
		InFlight:  c.stats.InFlight(),
	}
}
