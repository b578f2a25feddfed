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

package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"k8s.io/utils/clock"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/framework"
	"github.com/apache/camel-sub208/pkg/seda/metrics"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// ProcessFunc handles one exchange. It may replace the exchange body; a non-nil error fails the exchange.
type ProcessFunc func(ctx context.Context, exchange *types.Exchange) error

// Gate is the suspend switch shared by every worker of one consumer. The zero value is open.
type Gate struct {
	mu        sync.Mutex
	suspended bool
	resumed   chan struct{}
}

// Suspend closes the gate. It reports whether the gate was open.
func (g *Gate) Suspend() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.suspended {
		return false
	}
	g.suspended = true
	g.resumed = make(chan struct{})
	return true
}

// Resume opens the gate and releases every waiting worker. It reports whether the gate was closed.
func (g *Gate) Resume() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.suspended {
		return false
	}
	g.suspended = false
	close(g.resumed)
	g.resumed = nil
	return true
}

// Suspended reports whether the gate is closed.
func (g *Gate) Suspended() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suspended
}

// Wait blocks while the gate is closed. It returns ctx.Err() if ctx ends first.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	if !g.suspended {
		g.mu.Unlock()
		return ctx.Err()
	}
	ch := g.resumed
	g.mu.Unlock()

	select {
	case <-ch:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats holds the counters shared by every worker of one consumer.
type Stats struct {
	processed atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
}

// Processed returns the number of exchanges the processor completed successfully.
func (s *Stats) Processed() int64 { return s.processed.Load() }

// Failed returns the number of exchanges the processor failed.
func (s *Stats) Failed() int64 { return s.failed.Load() }

// InFlight returns the number of exchanges currently inside the processor.
func (s *Stats) InFlight() int64 { return s.inFlight.Load() }

// QueueProcessorConfig holds the dependencies of a QueueProcessor.
type QueueProcessorConfig struct {
	// ConsumerID identifies the consumer in the queue's subscriber set.
	ConsumerID string
	// Registry names the registry holding the queue, for metric labels.
	Registry string
	// PollTimeout bounds each blocking dequeue so the worker re-checks its gate regularly.
	PollTimeout time.Duration
	Process     ProcessFunc
	Gate        *Gate
	Stats       *Stats
	Clock       clock.PassiveClock
	Tracer      trace.Tracer
}

// QueueProcessor is one worker loop of a consumer. It repeatedly dequeues from a `contracts.QueueReference`, hands
// each exchange to the consumer's ProcessFunc and finalizes the item with the result.
//
// # Shutdown
//
// Run returns when its context is cancelled, when the consumer is unsubscribed, or when the queue is torn down. An item
// that has been dequeued is always processed and finalized before Run returns: processing runs on a context detached
// from the worker's cancellation.
type QueueProcessor struct {
	ref    contracts.QueueReference
	config QueueProcessorConfig
	logger logr.Logger
}

// NewQueueProcessor creates a worker loop for ref. Unset optional fields fall back to private defaults.
func NewQueueProcessor(ref contracts.QueueReference, config QueueProcessorConfig, logger logr.Logger) *QueueProcessor {
	if config.PollTimeout <= 0 {
		config.PollTimeout = time.Second
	}
	if config.Gate == nil {
		config.Gate = &Gate{}
	}
	if config.Stats == nil {
		config.Stats = &Stats{}
	}
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.Tracer == nil {
		config.Tracer = noop.NewTracerProvider().Tracer("")
	}
	return &QueueProcessor{
		ref:    ref,
		config: config,
		logger: logger,
	}
}

// Run is the worker loop. It blocks until the worker stops and only returns an error for an unexpected dequeue failure.
func (p *QueueProcessor) Run(ctx context.Context) error {
	p.logger.V(logging.VERBOSE).Info("Consumer worker starting")
	defer p.logger.V(logging.VERBOSE).Info("Consumer worker stopped")

	for {
		if err := p.config.Gate.Wait(ctx); err != nil {
			return nil
		}

		pollCtx, cancel := context.WithTimeout(ctx, p.config.PollTimeout)
		item, err := p.ref.Dequeue(pollCtx, p.config.ConsumerID)
		cancel()
		if err == nil {
			p.process(context.WithoutCancel(ctx), item)
			continue
		}

		switch {
		case errors.Is(err, framework.ErrQueueEmpty):
			continue
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, types.ErrConsumerStopped), errors.Is(err, types.ErrEndpointNotActive):
			p.logger.V(logging.VERBOSE).Info("Queue no longer delivers to this consumer, worker exiting", "reason", err.Error())
			return nil
		default:
			return fmt.Errorf("dequeue from %s failed: %w", p.ref.Key(), err)
		}
	}
}

// process runs the ProcessFunc on one item and finalizes it. The span ends before the item is finalized, so a waiting
// producer never observes a completion whose span is still open.
func (p *QueueProcessor) process(ctx context.Context, item types.QueueItem) {
	ex := item.Exchange()
	key := p.ref.Key()
	ctx, span := p.config.Tracer.Start(ctx, "seda.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("seda.queue", key.Name),
			attribute.String("seda.scope", key.Scope.String()),
			attribute.String("seda.exchange_id", ex.ID()),
			attribute.String("seda.pattern", ex.Pattern().String()),
			attribute.String("seda.consumer_id", p.config.ConsumerID),
		),
	)

	p.config.Stats.inFlight.Add(1)
	start := p.config.Clock.Now()
	err := p.invoke(ctx, ex)
	metrics.RecordProcessing(p.config.Registry, key, p.config.Clock.Since(start))
	p.config.Stats.inFlight.Add(-1)

	if err != nil {
		p.config.Stats.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		p.logger.V(logging.DEBUG).Info("Processor failed exchange", "exchangeID", ex.ID(), "error", err.Error())
		item.Finalize(&types.ProcessingError{Err: err})
		return
	}
	p.config.Stats.processed.Add(1)
	span.SetStatus(codes.Ok, "")
	span.End()
	p.logger.V(logging.TRACE).Info("Processed exchange", "exchangeID", ex.ID())
	item.Finalize(nil)
}

// invoke calls the ProcessFunc. A panic fails the exchange instead of the worker.
func (p *QueueProcessor) invoke(ctx context.Context, ex *types.Exchange) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error(nil, "Processor panicked", "exchangeID", ex.ID(), "panic", r)
			err = fmt.Errorf("processor panicked: %v", r)
		}
	}()
	return p.config.Process(ctx, ex)
}
