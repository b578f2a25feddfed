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
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/controller/internal"
	"github.com/apache/camel-sub208/pkg/seda/metrics"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// tracerName is the instrumentation scope of every span this package starts.
const tracerName = "github.com/apache/camel-sub208/pkg/seda/controller"

// Producer publishes exchanges into one queue entry.
//
// A Producer holds one registration on its entry from construction until Close, so the entry stays alive while the
// Producer exists. Publish is safe for concurrent use.
type Producer struct {
	// --- Immutable dependencies (set at construction) ---
	registry contracts.QueueRegistry
	key      types.QueueKey
	spec     contracts.QueueSpec
	config   ProducerConfig
	clock    clock.PassiveClock
	tracer   trace.Tracer
	logger   logr.Logger

	// mu guards ref and closed. ref only changes when a torn-down entry is replaced.
	mu     sync.RWMutex
	ref    contracts.QueueReference
	closed bool
}

// producerOption is a function that applies a configuration change to a Producer.
// test-only
type producerOption func(*Producer)

// withProducerClock replaces the clock used for enqueue timestamps and latency.
// test-only
func withProducerClock(c clock.PassiveClock) producerOption {
	return func(p *Producer) {
		p.clock = c
	}
}

// withProducerTracer replaces the tracer used for publish spans.
// test-only
func withProducerTracer(t trace.Tracer) producerOption {
	return func(p *Producer) {
		p.tracer = t
	}
}

// NewProducer registers a new producer on the entry for key, creating the entry from spec if it does not exist.
// A nil config applies the defaults of NewProducerConfig.
func NewProducer(
	registry contracts.QueueRegistry,
	key types.QueueKey,
	spec contracts.QueueSpec,
	config *ProducerConfig,
	logger logr.Logger,
	opts ...producerOption,
) (*Producer, error) {
	if config == nil {
		var err error
		if config, err = NewProducerConfig(); err != nil {
			return nil, err
		}
	} else if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid producer config: %w", err)
	}

	p := &Producer{
		registry: registry,
		key:      key,
		spec:     spec,
		config:   *config.deepCopy(),
		clock:    clock.RealClock{},
		tracer:   otel.Tracer(tracerName),
		logger:   logger.WithName("producer").WithValues("queue", key.String()),
	}
	for _, opt := range opts {
		opt(p)
	}

	ref, err := registry.Acquire(key, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to register producer on %s: %w", key, err)
	}
	p.ref = ref
	p.logger.V(logging.VERBOSE).Info("Producer registered", "blockWhenFull", p.config.BlockWhenFull,
		"waitForTaskToComplete", p.config.WaitForTaskToComplete.String())
	return p, nil
}

// Key returns the queue key this producer publishes to.
func (p *Producer) Key() types.QueueKey { return p.key }

// Publish creates an exchange carrying body and hands it to the queue, then waits for a consumer to complete it if the
// wait policy applies to pattern.
//
// When Publish does not wait, the consumer receives a copy of the exchange and the returned exchange is the caller's
// unmodified original. When it waits, the consumer works on the returned exchange itself, so a body it replaced is
// visible to the caller.
//
// Errors distinguish every failure class:
//   - `types.ErrRejected` wrapping `types.ErrQueueFull`, `types.ErrOfferTimeout`, `types.ErrNoConsumers`,
//     `types.ErrEndpointNotActive` or `types.ErrCancelled` when the exchange never entered the queue.
//   - A `*types.TimeoutError` (`types.ErrCompletionTimeout`) when the wait for completion exceeded the configured
//     timeout. The consumer is not interrupted.
//   - `types.ErrCancelled` when ctx ended during the wait for completion.
//   - A `*types.ProcessingError` (`types.ErrProcessingFailed`) carrying the processor's error.
//   - `types.ErrEvicted` when the exchange was dropped from the queue before a consumer took it.
func (p *Producer) Publish(ctx context.Context, body any, pattern types.Pattern) (*types.Exchange, error) {
	start := p.clock.Now()
	wait := p.config.WaitForTaskToComplete.ShouldWait(pattern)
	exchange := types.NewExchange(pattern, body)
	if wait && p.config.Timeout != nil {
		exchange = exchange.WithDeadline(start.Add(*p.config.Timeout))
	}

	ctx, span := p.tracer.Start(ctx, "seda.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("seda.queue", p.key.Name),
			attribute.String("seda.scope", p.key.Scope.String()),
			attribute.String("seda.exchange_id", exchange.ID()),
			attribute.String("seda.pattern", pattern.String()),
			attribute.Bool("seda.wait", wait),
		),
	)
	defer span.End()

	outcome, err := p.publish(ctx, exchange, wait, start)
	metrics.RecordPublish(p.registry.Name(), p.key, outcome, p.clock.Since(start))
	span.SetAttributes(attribute.String("seda.outcome", outcome.String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.V(logging.DEBUG).Info("Publish failed", "exchangeID", exchange.ID(), "outcome", outcome.String(),
			"error", err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	p.logger.V(logging.TRACE).Info("Published exchange", "exchangeID", exchange.ID(), "outcome", outcome.String())
	return exchange, nil
}

func (p *Producer) publish(
	ctx context.Context,
	exchange *types.Exchange,
	wait bool,
	enqueueTime time.Time,
) (types.Outcome, error) {
	if ctx.Err() != nil {
		return types.OutcomeCancelled, fmt.Errorf("%w: %w: %w", types.ErrRejected, types.ErrCancelled, context.Cause(ctx))
	}

	var item *internal.Item
	for retried := false; ; retried = true {
		ref, err := p.reference()
		if err != nil {
			return types.OutcomeRejectedOther, fmt.Errorf("%w: %w", types.ErrRejected, err)
		}

		if ref.ConsumerCount() == 0 {
			if p.config.FailIfNoConsumers {
				return types.OutcomeRejectedOther, fmt.Errorf("%w: %w: queue %s", types.ErrRejected, types.ErrNoConsumers, p.key)
			}
			if p.config.DiscardIfNoConsumers {
				return types.OutcomeDiscarded, nil
			}
		}

		envelope := exchange
		if !wait {
			envelope = exchange.Copy()
		}
		item = internal.NewItem(envelope, enqueueTime, wait)

		err = p.enqueue(ctx, ref, item)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, types.ErrEndpointNotActive) && !retried:
			if rerr := p.replaceReference(ref); rerr != nil {
				return types.OutcomeRejectedOther, fmt.Errorf("%w: %w", types.ErrRejected, rerr)
			}
			p.logger.V(logging.DEBUG).Info("Queue entry was torn down, retrying on a fresh entry",
				"exchangeID", exchange.ID())
			continue
		case errors.Is(err, types.ErrQueueFull):
			if p.config.DiscardWhenFull {
				return types.OutcomeDiscarded, nil
			}
			return types.OutcomeRejectedCapacity, fmt.Errorf("%w: %w", types.ErrRejected, err)
		case errors.Is(err, types.ErrOfferTimeout):
			return types.OutcomeRejectedCapacity, fmt.Errorf("%w: %w", types.ErrRejected, err)
		case errors.Is(err, types.ErrCancelled):
			return types.OutcomeCancelled, fmt.Errorf("%w: %w", types.ErrRejected, err)
		default:
			return types.OutcomeRejectedOther, fmt.Errorf("%w: %w", types.ErrRejected, err)
		}
	}

	if !wait {
		return types.OutcomeEnqueued, nil
	}
	return p.awaitCompletion(ctx, item)
}

// enqueue hands the item to ref, applying the backpressure policy.
func (p *Producer) enqueue(ctx context.Context, ref contracts.QueueReference, item *internal.Item) error {
	block := p.config.BlockWhenFull && !p.config.DiscardWhenFull
	if !block || p.config.OfferTimeout == nil {
		err := ref.Enqueue(ctx, item, block)
		if err != nil && ctx.Err() != nil {
			return fmt.Errorf("%w: %w", types.ErrCancelled, context.Cause(ctx))
		}
		return err
	}

	offerCtx, cancel := context.WithTimeoutCause(ctx, *p.config.OfferTimeout, types.ErrOfferTimeout)
	defer cancel()
	err := ref.Enqueue(offerCtx, item, true)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("%w: %w", types.ErrCancelled, context.Cause(ctx))
	case offerCtx.Err() != nil:
		return fmt.Errorf("%w after %v", types.ErrOfferTimeout, *p.config.OfferTimeout)
	default:
		return err
	}
}

// awaitCompletion blocks until the item is finalized, the exchange deadline passes, or ctx ends.
//
// The wait ends at the deadline the consumer sees on the exchange, so time spent blocked on a full buffer counts
// against the completion timeout.
func (p *Producer) awaitCompletion(ctx context.Context, item *internal.Item) (types.Outcome, error) {
	waitCtx := ctx
	if deadline, ok := item.Exchange().Deadline(); ok && p.config.Timeout != nil {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeoutCause(ctx, deadline.Sub(p.clock.Now()),
			&types.TimeoutError{Timeout: *p.config.Timeout})
		defer cancel()
	}

	err := item.Reply().Await(waitCtx)
	switch {
	case err == nil:
		return types.OutcomeCompleted, nil
	case errors.Is(err, internal.ErrAbandoned):
		if ctx.Err() != nil {
			return types.OutcomeCancelled, fmt.Errorf("%w: %w", types.ErrCancelled, context.Cause(ctx))
		}
		var timeoutErr *types.TimeoutError
		if errors.As(err, &timeoutErr) {
			return types.OutcomeTimedOut, timeoutErr
		}
		return types.OutcomeCancelled, fmt.Errorf("%w: %w", types.ErrCancelled, err)
	case errors.Is(err, types.ErrEvicted):
		return types.OutcomeEvicted, err
	default:
		return types.OutcomeFailed, err
	}
}

// reference returns the entry this producer currently publishes to.
func (p *Producer) reference() (contracts.QueueReference, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, fmt.Errorf("%w: producer for %s is closed", types.ErrEndpointNotActive, p.key)
	}
	return p.ref, nil
}

// replaceReference registers on a fresh entry after stale was torn down. The registration on stale died with it.
func (p *Producer) replaceReference(stale contracts.QueueReference) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("%w: producer for %s is closed", types.ErrEndpointNotActive, p.key)
	}
	if p.ref != stale {
		return nil
	}
	ref, err := p.registry.Acquire(p.key, p.spec)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrEndpointNotActive, err)
	}
	p.ref = ref
	return nil
}

// Close releases the producer's registration. Closing twice is a lifecycle violation.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("%w: producer for %s closed twice", types.ErrLifecycleMisuse, p.key)
	}
	p.closed = true
	if !p.ref.IsActive() {
		// The entry was torn down underneath us and took our registration with it.
		return nil
	}
	if err := p.registry.Release(p.key); err != nil {
		return err
	}
	p.logger.V(logging.VERBOSE).Info("Producer closed")
	return nil
}
