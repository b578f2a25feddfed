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

package registry

import (
	"errors"
	"fmt"

	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/framework/plugins/queue"
)

// --- Defaults ---

const (
	// defaultCapacity is the default bound of each buffer when a spec does not set one.
	defaultCapacity int = 1000
	// defaultQueue is the default buffer implementation.
	defaultQueue queue.RegisteredQueueName = queue.ListQueueName
)

// Config holds the configuration for a QueueRegistry.
type Config struct {
	// Name identifies the registry in logs and metric labels. Registries whose entries share a key, such as the local
	// registries of two runtime instances, need distinct names.
	// Optional: Defaults to a process-unique "registry-<n>".
	Name string

	// DefaultCapacity is applied to specs that leave Capacity at zero.
	// Optional: Defaults to `defaultCapacity` (1000).
	DefaultCapacity int

	// DefaultQueue is applied to specs that leave QueueFactory empty.
	// Optional: Defaults to `defaultQueue` ("ListQueue").
	DefaultQueue queue.RegisteredQueueName
}

// ConfigOption is a functional option for configuring a QueueRegistry.
type ConfigOption func(*Config)

// NewConfig creates a new Config with the given options, applying defaults and validation.
func NewConfig(opts ...ConfigOption) (*Config, error) {
	c := &Config{
		DefaultCapacity: defaultCapacity,
		DefaultQueue:    defaultQueue,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithName sets the name the registry reports in logs and metric labels.
func WithName(name string) ConfigOption {
	return func(c *Config) {
		c.Name = name
	}
}

// WithDefaultCapacity sets the capacity applied to specs that do not set one.
func WithDefaultCapacity(capacity int) ConfigOption {
	return func(c *Config) {
		c.DefaultCapacity = capacity
	}
}

// WithDefaultQueue sets the buffer implementation applied to specs that do not name one.
func WithDefaultQueue(name queue.RegisteredQueueName) ConfigOption {
	return func(c *Config) {
		c.DefaultQueue = name
	}
}

// validate checks the configuration for validity.
func (c *Config) validate() error {
	if c.DefaultCapacity <= 0 {
		return fmt.Errorf("DefaultCapacity must be positive, got %d", c.DefaultCapacity)
	}
	if c.DefaultQueue == "" || !queue.IsRegistered(c.DefaultQueue) {
		return fmt.Errorf("DefaultQueue %q is not a registered queue implementation", c.DefaultQueue)
	}
	return nil
}

// resolveSpec fills defaults into spec and validates the result.
func (c *Config) resolveSpec(spec contracts.QueueSpec) (contracts.QueueSpec, error) {
	if spec.Capacity == 0 {
		spec.Capacity = c.DefaultCapacity
	}
	if spec.QueueFactory == "" {
		spec.QueueFactory = string(c.DefaultQueue)
	}
	var errs []error
	if spec.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", spec.Capacity))
	}
	if !queue.IsRegistered(queue.RegisteredQueueName(spec.QueueFactory)) {
		errs = append(errs, fmt.Errorf("queue factory %q is not registered (known: %v)", spec.QueueFactory, queue.Names()))
	}
	return spec, errors.Join(errs...)
}
