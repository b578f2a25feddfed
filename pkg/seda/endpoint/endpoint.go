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
	"errors"
	"fmt"
	"strings"

	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/controller"
	"github.com/apache/camel-sub208/pkg/seda/framework/plugins/queue"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// Options holds everything an Endpoint needs to build its producers and consumers.
type Options struct {
	// Queue describes the entry created by the first registration on the key.
	Queue contracts.QueueSpec
	// Producer configures producers created by the Endpoint.
	Producer []controller.ProducerOption
	// Consumer configures consumers registered on the Endpoint.
	Consumer []controller.ConsumerOption
}

// Option is a functional option for configuring an Endpoint.
type Option func(*Options)

// WithCapacity bounds the queue. Zero applies the registry default.
func WithCapacity(capacity int) Option {
	return func(o *Options) {
		o.Queue.Capacity = capacity
	}
}

// WithMultipleConsumers selects broadcast delivery.
func WithMultipleConsumers(multiple bool) Option {
	return func(o *Options) {
		o.Queue.MultipleConsumers = multiple
	}
}

// WithQueueFactory selects the buffer implementation by name.
func WithQueueFactory(name queue.RegisteredQueueName) Option {
	return func(o *Options) {
		o.Queue.QueueFactory = string(name)
	}
}

// WithProducerOptions appends producer options.
func WithProducerOptions(opts ...controller.ProducerOption) Option {
	return func(o *Options) {
		o.Producer = append(o.Producer, opts...)
	}
}

// WithConsumerOptions appends consumer options.
func WithConsumerOptions(opts ...controller.ConsumerOption) Option {
	return func(o *Options) {
		o.Consumer = append(o.Consumer, opts...)
	}
}

// resolved is the validated form of Options.
type resolved struct {
	queue    contracts.QueueSpec
	producer *controller.ProducerConfig
	consumer *controller.ConsumerConfig
}

func resolveOptions(name string, opts []Option) (*resolved, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("endpoint name must not be empty")
	}
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}

	var errs []error
	if o.Queue.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", o.Queue.Capacity))
	}
	if !queue.IsRegistered(queue.RegisteredQueueName(o.Queue.QueueFactory)) {
		errs = append(errs, fmt.Errorf("queue factory %q is not registered (known: %v)", o.Queue.QueueFactory, queue.Names()))
	}
	pc, err := controller.NewProducerConfig(o.Producer...)
	if err != nil {
		errs = append(errs, fmt.Errorf("producer options: %w", err))
	}
	cc, err := controller.NewConsumerConfig(o.Consumer...)
	if err != nil {
		errs = append(errs, fmt.Errorf("consumer options: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid options for endpoint %q: %w", name, err)
	}
	return &resolved{queue: o.Queue, producer: pc, consumer: cc}, nil
}

// Endpoint is one named queue in one scope, bound to the Component that created it.
type Endpoint struct {
	component *Component
	key       types.QueueKey
	opts      *resolved
}

// Key returns the queue key of the endpoint.
func (e *Endpoint) Key() types.QueueKey { return e.key }

// Name returns the queue name of the endpoint.
func (e *Endpoint) Name() string { return e.key.Name }

// Scope returns the scope of the endpoint.
func (e *Endpoint) Scope() types.Scope { return e.key.Scope }

// QueueSpec returns the queue settings this endpoint registers with. The live entry may carry different settings if
// another endpoint registered on the key first.
func (e *Endpoint) QueueSpec() contracts.QueueSpec { return e.opts.queue }

// Stats returns a diagnostic snapshot of the live entry behind the endpoint. It reports false if no producer or
// consumer is currently registered on the key.
func (e *Endpoint) Stats() (contracts.QueueSnapshot, bool) {
	return e.component.registryFor(e.key.Scope).Stats(e.key)
}

// QueueDepth returns the number of pending deliveries, or zero if the entry is not live.
func (e *Endpoint) QueueDepth() int {
	snap, _ := e.Stats()
	return snap.Depth
}

// Registrations returns the number of live producer and consumer registrations on the entry.
func (e *Endpoint) Registrations() int {
	snap, _ := e.Stats()
	return snap.Registrations
}
