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

package endpoint

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/controller"
	"github.com/apache/camel-sub208/pkg/seda/registry"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// Component is the queue endpoint factory of one runtime instance.
type Component struct {
	local  *registry.QueueRegistry
	shared *registry.QueueRegistry
	logger logr.Logger

	mu        sync.Mutex
	closed    bool
	consumers map[*ConsumerHandle]struct{}
	producers map[*controller.Producer]struct{}

	// beforeConsumerStart runs between tracking a new consumer and starting it.
	// test-only
	beforeConsumerStart func()
}

// NewComponent creates a Component with a fresh local registry configured by opts. shared is the process-wide
// registry used for `types.ScopeShared` endpoints; it may be nil, in which case shared endpoints are refused.
func NewComponent(shared *registry.QueueRegistry, logger logr.Logger, opts ...registry.ConfigOption) (*Component, error) {
	cfg, err := registry.NewConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid local registry config: %w", err)
	}
	local, err := registry.NewQueueRegistry(cfg, logger.WithName("local"))
	if err != nil {
		return nil, err
	}
	return &Component{
		local:     local,
		shared:    shared,
		logger:    logger.WithName("seda-component"),
		consumers: make(map[*ConsumerHandle]struct{}),
		producers: make(map[*controller.Producer]struct{}),
	}, nil
}

// Name returns the name of the component's local registry, which labels its metrics.
func (c *Component) Name() string { return c.local.Name() }

// Endpoint resolves a named queue in the given scope. It validates options eagerly but registers nothing: the entry is
// created by the first producer or consumer.
func (c *Component) Endpoint(name string, scope types.Scope, opts ...Option) (*Endpoint, error) {
	if scope == types.ScopeShared && c.shared == nil {
		return nil, fmt.Errorf("endpoint %q requests shared scope but the component has no shared registry", name)
	}
	if scope != types.ScopeLocal && scope != types.ScopeShared {
		return nil, fmt.Errorf("endpoint %q has unknown scope %v", name, scope)
	}
	r, err := resolveOptions(name, opts)
	if err != nil {
		return nil, err
	}
	return &Endpoint{
		component: c,
		key:       types.QueueKey{Scope: scope, Name: name},
		opts:      r,
	}, nil
}

// Snapshot returns diagnostic snapshots of every live entry visible to this component: its local entries followed by
// the shared ones.
func (c *Component) Snapshot() []contracts.QueueSnapshot {
	snaps := c.local.Snapshot()
	if c.shared != nil {
		snaps = append(snaps, c.shared.Snapshot()...)
	}
	return snaps
}

// Close stops every consumer and producer created through this component and closes the local registry. It is safe to
// call more than once.
func (c *Component) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	consumers := make([]*ConsumerHandle, 0, len(c.consumers))
	for h := range c.consumers {
		consumers = append(consumers, h)
	}
	producers := make([]*controller.Producer, 0, len(c.producers))
	for p := range c.producers {
		producers = append(producers, p)
	}
	c.consumers = nil
	c.producers = nil
	c.mu.Unlock()

	var errs []error
	for _, h := range consumers {
		if err := h.consumer.Stop(); err != nil && !errors.Is(err, types.ErrLifecycleMisuse) {
			errs = append(errs, err)
		}
	}
	for _, p := range producers {
		if err := p.Close(); err != nil && !errors.Is(err, types.ErrLifecycleMisuse) {
			errs = append(errs, err)
		}
	}
	c.local.Close()
	c.logger.V(logging.DEFAULT).Info("Component closed", "consumersStopped", len(consumers),
		"producersClosed", len(producers))
	return errors.Join(errs...)
}

func (c *Component) registryFor(scope types.Scope) *registry.QueueRegistry {
	if scope == types.ScopeShared {
		return c.shared
	}
	return c.local
}

func (c *Component) track(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: component is closed", types.ErrEndpointNotActive)
	}
	fn()
	return nil
}

// --- Endpoint operations ---

// NewProducer registers a producer on the endpoint's queue.
func (e *Endpoint) NewProducer() (*controller.Producer, error) {
	c := e.component
	p, err := controller.NewProducer(c.registryFor(e.key.Scope), e.key, e.opts.queue, e.opts.producer, c.logger)
	if err != nil {
		return nil, err
	}
	if err := c.track(func() { c.producers[p] = struct{}{} }); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// CloseProducer closes a producer created by NewProducer and forgets it.
func (e *Endpoint) CloseProducer(p *controller.Producer) error {
	c := e.component
	c.mu.Lock()
	delete(c.producers, p)
	c.mu.Unlock()
	return p.Close()
}

// Register starts a consumer on the endpoint's queue that hands every exchange to process.
func (e *Endpoint) Register(ctx context.Context, process controller.ProcessFunc) (*ConsumerHandle, error) {
	c := e.component
	consumer, err := controller.NewConsumer(c.registryFor(e.key.Scope), e.key, e.opts.queue, e.opts.consumer, process,
		c.logger)
	if err != nil {
		return nil, err
	}
	h := &ConsumerHandle{consumer: consumer, component: c}
	if err := c.track(func() { c.consumers[h] = struct{}{} }); err != nil {
		return nil, err
	}
	if c.beforeConsumerStart != nil {
		c.beforeConsumerStart()
	}
	if err := consumer.Start(ctx); err != nil {
		c.untrack(h)
		return nil, err
	}
	if c.isClosed() {
		// Close ran while the consumer was starting and could not stop it.
		if err := consumer.Stop(); err != nil && !errors.Is(err, types.ErrLifecycleMisuse) {
			c.logger.Error(err, "Failed to stop consumer started during close", "queue", e.key.String())
		}
		return nil, fmt.Errorf("%w: component is closed", types.ErrEndpointNotActive)
	}
	return h, nil
}

func (c *Component) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Component) untrack(h *ConsumerHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.consumers, h)
}

// ConsumerHandle is the registration returned by Register.
type ConsumerHandle struct {
	consumer  *controller.Consumer
	component *Component
}

// Stop deregisters the consumer, waiting for in-flight exchanges. Stopping twice is a lifecycle violation.
func (h *ConsumerHandle) Stop() error {
	h.component.untrack(h)
	return h.consumer.Stop()
}

// ID returns the consumer's subscription identity.
func (h *ConsumerHandle) ID() string { return h.consumer.ID() }

// Suspend pauses the consumer without deregistering it.
func (h *ConsumerHandle) Suspend() { h.consumer.Suspend() }

// Resume resumes a suspended consumer.
func (h *ConsumerHandle) Resume() { h.consumer.Resume() }

// Stats returns a snapshot of the consumer's activity.
func (h *ConsumerHandle) Stats() controller.ConsumerStats { return h.consumer.Stats() }

// ConsumerIDs returns the IDs of the consumers this component currently runs, sorted.
func (c *Component) ConsumerIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.consumers))
	for h := range c.consumers {
		ids = append(ids, h.ID())
	}
	slices.Sort(ids)
	return ids
}
