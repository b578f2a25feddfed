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
	"errors"
	"fmt"
	"time"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

const (
	// defaultTimeout is the default bound on a producer's wait for completion.
	defaultTimeout = 30 * time.Second
	// defaultConcurrentConsumers is the default number of worker loops per consumer.
	defaultConcurrentConsumers = 1
	// defaultLimitConcurrentConsumers is the default upper bound on ConcurrentConsumers.
	defaultLimitConcurrentConsumers = 500
	// defaultPollTimeout is the default bound on a single blocking dequeue.
	defaultPollTimeout = 1 * time.Second
)

// --- Producer ---

// ProducerConfig holds the publishing behavior of a Producer.
type ProducerConfig struct {
	// BlockWhenFull makes a publish into a full buffer wait for space instead of failing with `types.ErrQueueFull`.
	BlockWhenFull bool

	// OfferTimeout bounds the wait for space when BlockWhenFull is set. Expiry fails with `types.ErrOfferTimeout`.
	// Optional: nil waits until space frees or the caller's context ends.
	OfferTimeout *time.Duration

	// DiscardWhenFull silently drops an exchange that finds the buffer full. It takes precedence over BlockWhenFull.
	DiscardWhenFull bool

	// FailIfNoConsumers rejects a publish with `types.ErrNoConsumers` when the queue has no subscribed consumer.
	FailIfNoConsumers bool

	// DiscardIfNoConsumers silently drops an exchange when the queue has no subscribed consumer.
	// Mutually exclusive with FailIfNoConsumers.
	DiscardIfNoConsumers bool

	// WaitForTaskToComplete selects when Publish blocks for the consumer to finish.
	// Optional: Defaults to `types.WaitIfReplyExpected`.
	WaitForTaskToComplete types.WaitForTaskToComplete

	// Timeout bounds the wait for completion.
	// Optional: Defaults to `defaultTimeout` (30 seconds). nil (see WithoutTimeout) waits until the caller's context ends.
	Timeout *time.Duration
}

// ProducerOption is a functional option for configuring a Producer.
type ProducerOption func(*ProducerConfig)

// NewProducerConfig creates a new ProducerConfig with the given options, applying defaults and validation.
func NewProducerConfig(opts ...ProducerOption) (*ProducerConfig, error) {
	timeout := defaultTimeout
	c := &ProducerConfig{
		WaitForTaskToComplete: types.WaitIfReplyExpected,
		Timeout:               &timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithBlockWhenFull sets whether a publish into a full buffer waits for space.
func WithBlockWhenFull(block bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.BlockWhenFull = block
	}
}

// WithOfferTimeout bounds the wait for space when blocking on a full buffer.
func WithOfferTimeout(d time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.OfferTimeout = &d
	}
}

// WithDiscardWhenFull sets whether an exchange that finds the buffer full is silently dropped.
func WithDiscardWhenFull(discard bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.DiscardWhenFull = discard
	}
}

// WithFailIfNoConsumers sets whether a publish fails when no consumer is subscribed.
func WithFailIfNoConsumers(fail bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.FailIfNoConsumers = fail
	}
}

// WithDiscardIfNoConsumers sets whether a publish is silently dropped when no consumer is subscribed.
func WithDiscardIfNoConsumers(discard bool) ProducerOption {
	return func(c *ProducerConfig) {
		c.DiscardIfNoConsumers = discard
	}
}

// WithWaitForTaskToComplete sets the wait policy.
func WithWaitForTaskToComplete(w types.WaitForTaskToComplete) ProducerOption {
	return func(c *ProducerConfig) {
		c.WaitForTaskToComplete = w
	}
}

// WithTimeout bounds the wait for completion.
func WithTimeout(d time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.Timeout = &d
	}
}

// WithoutTimeout removes the bound on the wait for completion; only the caller's context ends it.
func WithoutTimeout() ProducerOption {
	return func(c *ProducerConfig) {
		c.Timeout = nil
	}
}

// validate checks the configuration for validity.
func (c *ProducerConfig) validate() error {
	var errs []error
	if c.Timeout != nil && *c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("Timeout must be positive when set, but got %v", *c.Timeout))
	}
	if c.OfferTimeout != nil && *c.OfferTimeout <= 0 {
		errs = append(errs, fmt.Errorf("OfferTimeout must be positive when set, but got %v", *c.OfferTimeout))
	}
	if c.FailIfNoConsumers && c.DiscardIfNoConsumers {
		errs = append(errs, errors.New("FailIfNoConsumers and DiscardIfNoConsumers are mutually exclusive"))
	}
	switch c.WaitForTaskToComplete {
	case types.WaitNever, types.WaitIfReplyExpected, types.WaitAlways:
	default:
		errs = append(errs, fmt.Errorf("unknown WaitForTaskToComplete policy %v", c.WaitForTaskToComplete))
	}
	return errors.Join(errs...)
}

// deepCopy creates a deep copy of the ProducerConfig.
func (c *ProducerConfig) deepCopy() *ProducerConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.Timeout != nil {
		d := *c.Timeout
		out.Timeout = &d
	}
	if c.OfferTimeout != nil {
		d := *c.OfferTimeout
		out.OfferTimeout = &d
	}
	return &out
}

// --- Consumer ---

// ConsumerConfig holds the worker-pool behavior of a Consumer.
type ConsumerConfig struct {
	// ConcurrentConsumers is the number of worker loops draining the queue for this consumer.
	// Optional: Defaults to `defaultConcurrentConsumers` (1).
	ConcurrentConsumers int

	// LimitConcurrentConsumers caps ConcurrentConsumers.
	// Optional: Defaults to `defaultLimitConcurrentConsumers` (500).
	LimitConcurrentConsumers int

	// PollTimeout bounds each blocking dequeue so that workers re-check suspension regularly.
	// Optional: Defaults to `defaultPollTimeout` (1 second).
	PollTimeout time.Duration

	// PurgeWhenStopping evicts this consumer's pending exchanges on Stop, failing their waiters with
	// `types.ErrConsumerStopped`. In competing mode the pending exchanges are those of the shared buffer.
	PurgeWhenStopping bool
}

// ConsumerOption is a functional option for configuring a Consumer.
type ConsumerOption func(*ConsumerConfig)

// NewConsumerConfig creates a new ConsumerConfig with the given options, applying defaults and validation.
func NewConsumerConfig(opts ...ConsumerOption) (*ConsumerConfig, error) {
	c := &ConsumerConfig{
		ConcurrentConsumers:      defaultConcurrentConsumers,
		LimitConcurrentConsumers: defaultLimitConcurrentConsumers,
		PollTimeout:              defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithConcurrentConsumers sets the number of worker loops.
func WithConcurrentConsumers(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.ConcurrentConsumers = n
	}
}

// WithLimitConcurrentConsumers sets the cap on the number of worker loops.
func WithLimitConcurrentConsumers(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.LimitConcurrentConsumers = n
	}
}

// WithPollTimeout sets the bound on a single blocking dequeue.
func WithPollTimeout(d time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.PollTimeout = d
	}
}

// WithPurgeWhenStopping sets whether pending exchanges are evicted on Stop.
func WithPurgeWhenStopping(purge bool) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.PurgeWhenStopping = purge
	}
}

// validate checks the configuration for validity.
func (c *ConsumerConfig) validate() error {
	if c.LimitConcurrentConsumers <= 0 {
		return fmt.Errorf("LimitConcurrentConsumers must be positive, but got %d", c.LimitConcurrentConsumers)
	}
	if c.ConcurrentConsumers <= 0 {
		return fmt.Errorf("ConcurrentConsumers must be positive, but got %d", c.ConcurrentConsumers)
	}
	if c.ConcurrentConsumers > c.LimitConcurrentConsumers {
		return fmt.Errorf("ConcurrentConsumers (%d) cannot exceed LimitConcurrentConsumers (%d)",
			c.ConcurrentConsumers, c.LimitConcurrentConsumers)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("PollTimeout must be positive, but got %v", c.PollTimeout)
	}
	return nil
}
