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

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
	"sigs.k8s.io/yaml"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/controller"
	"github.com/apache/camel-sub208/pkg/seda/endpoint"
	"github.com/apache/camel-sub208/pkg/seda/framework/plugins/queue"
	"github.com/apache/camel-sub208/pkg/seda/registry"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// LoadFile reads and loads the configuration file at path.
func LoadFile(path string, logger logr.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return Load(data, logger)
}

// Load parses configuration text, applies defaults and validates the result.
func Load(data []byte, logger logr.Logger) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("the configuration is invalid - %w", err)
	}
	logger.V(logging.VERBOSE).Info("Loaded configuration", "config", cfg)

	setDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	logger.V(logging.DEFAULT).Info("Configuration with defaults set", "endpoints", len(cfg.Endpoints))
	return cfg, nil
}

// setDefaults fills every endpoint field the file left unset from the file-wide defaults.
func setDefaults(cfg *Config) {
	for i := range cfg.Endpoints {
		ep := &cfg.Endpoints[i]
		if ep.Scope == "" {
			ep.Scope = types.ScopeLocal.String()
		}
		if ep.Capacity == 0 {
			ep.Capacity = cfg.Defaults.Capacity
		}
		if ep.QueueFactory == "" {
			ep.QueueFactory = cfg.Defaults.QueueFactory
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Defaults.Capacity < 0 {
		return fmt.Errorf("defaults.capacity must not be negative, got %d", cfg.Defaults.Capacity)
	}
	if !queue.IsRegistered(queue.RegisteredQueueName(cfg.Defaults.QueueFactory)) {
		return fmt.Errorf("defaults.queueFactory %q is not registered (known: %v)", cfg.Defaults.QueueFactory,
			queue.Names())
	}

	seen := sets.New[string]()
	for i, ep := range cfg.Endpoints {
		if strings.TrimSpace(ep.Name) == "" {
			return fmt.Errorf("endpoints[%d] is missing a name", i)
		}
		if err := validateEndpoint(ep); err != nil {
			return fmt.Errorf("endpoints[%d] (%s) is invalid: %w", i, ep.Name, err)
		}
		key := ep.Scope + ":" + ep.Name
		if seen.Has(key) {
			return fmt.Errorf("endpoints[%d] has duplicate name '%s' in scope %s", i, ep.Name, ep.Scope)
		}
		seen.Insert(key)
	}
	return nil
}

func validateEndpoint(ep EndpointSpec) error {
	var errs []error
	if _, err := types.ParseScope(ep.Scope); err != nil {
		errs = append(errs, err)
	}
	if ep.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative, got %d", ep.Capacity))
	}
	if !queue.IsRegistered(queue.RegisteredQueueName(ep.QueueFactory)) {
		errs = append(errs, fmt.Errorf("queueFactory %q is not registered (known: %v)", ep.QueueFactory, queue.Names()))
	}
	if ep.Producer != nil {
		opts, err := ep.Producer.options()
		if err == nil {
			_, err = controller.NewProducerConfig(opts...)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("producer: %w", err))
		}
	}
	if ep.Consumer != nil {
		if _, err := controller.NewConsumerConfig(ep.Consumer.options()...); err != nil {
			errs = append(errs, fmt.Errorf("consumer: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RegistryOptions converts the file-wide defaults into registry options.
func (c *Config) RegistryOptions() []registry.ConfigOption {
	var opts []registry.ConfigOption
	if c.Defaults.Capacity > 0 {
		opts = append(opts, registry.WithDefaultCapacity(c.Defaults.Capacity))
	}
	if c.Defaults.QueueFactory != "" {
		opts = append(opts, registry.WithDefaultQueue(queue.RegisteredQueueName(c.Defaults.QueueFactory)))
	}
	return opts
}

// QueueScope returns the parsed scope of the endpoint. Load has already validated it.
func (e EndpointSpec) QueueScope() types.Scope {
	scope, _ := types.ParseScope(e.Scope)
	return scope
}

// Options converts the endpoint definition into endpoint options.
func (e EndpointSpec) Options() ([]endpoint.Option, error) {
	opts := []endpoint.Option{
		endpoint.WithCapacity(e.Capacity),
		endpoint.WithMultipleConsumers(e.MultipleConsumers),
		endpoint.WithQueueFactory(queue.RegisteredQueueName(e.QueueFactory)),
	}
	if e.Producer != nil {
		popts, err := e.Producer.options()
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", e.Name, err)
		}
		opts = append(opts, endpoint.WithProducerOptions(popts...))
	}
	if e.Consumer != nil {
		opts = append(opts, endpoint.WithConsumerOptions(e.Consumer.options()...))
	}
	return opts, nil
}

func (p *ProducerSpec) options() ([]controller.ProducerOption, error) {
	wait, err := types.ParseWaitForTaskToComplete(p.WaitForTaskToComplete)
	if err != nil {
		return nil, err
	}
	opts := []controller.ProducerOption{
		controller.WithBlockWhenFull(p.BlockWhenFull),
		controller.WithDiscardWhenFull(p.DiscardWhenFull),
		controller.WithFailIfNoConsumers(p.FailIfNoConsumers),
		controller.WithDiscardIfNoConsumers(p.DiscardIfNoConsumers),
		controller.WithWaitForTaskToComplete(wait),
	}
	if p.OfferTimeout != nil {
		opts = append(opts, controller.WithOfferTimeout(p.OfferTimeout.Duration))
	}
	if p.Timeout != nil {
		if p.Timeout.Duration == 0 {
			opts = append(opts, controller.WithoutTimeout())
		} else {
			opts = append(opts, controller.WithTimeout(p.Timeout.Duration))
		}
	}
	return opts, nil
}

func (c *ConsumerSpec) options() []controller.ConsumerOption {
	opts := []controller.ConsumerOption{controller.WithPurgeWhenStopping(c.PurgeWhenStopping)}
	if c.ConcurrentConsumers != 0 {
		opts = append(opts, controller.WithConcurrentConsumers(c.ConcurrentConsumers))
	}
	if c.LimitConcurrentConsumers != 0 {
		opts = append(opts, controller.WithLimitConcurrentConsumers(c.LimitConcurrentConsumers))
	}
	if c.PollTimeout != nil {
		opts = append(opts, controller.WithPollTimeout(c.PollTimeout.Duration))
	}
	return opts
}
