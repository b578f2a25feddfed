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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Config is the top-level structure of an endpoint configuration file.
type Config struct {
	// Defaults apply to every endpoint that leaves the corresponding field unset.
	// +optional
	Defaults Defaults `json:"defaults,omitempty"`

	// Endpoints are the queues to wire, in file order.
	Endpoints []EndpointSpec `json:"endpoints"`
}

// Defaults holds file-wide queue defaults.
type Defaults struct {
	// Capacity bounds every queue that does not set its own capacity.
	// +optional
	Capacity int `json:"capacity,omitempty"`

	// QueueFactory names the buffer implementation used when an endpoint does not name one.
	// +optional
	QueueFactory string `json:"queueFactory,omitempty"`
}

// EndpointSpec describes one named queue.
type EndpointSpec struct {
	// Name is the logical queue name. It must be unique within its scope.
	Name string `json:"name"`

	// Scope is "local" or "shared".
	// +optional
	Scope string `json:"scope,omitempty"`

	// +optional
	Capacity int `json:"capacity,omitempty"`

	// MultipleConsumers selects broadcast delivery.
	// +optional
	MultipleConsumers bool `json:"multipleConsumers,omitempty"`

	// +optional
	QueueFactory string `json:"queueFactory,omitempty"`

	// Producer configures publishing. An endpoint without a producer section is not published to by the runner.
	// +optional
	Producer *ProducerSpec `json:"producer,omitempty"`

	// Consumer configures consumption. An endpoint without a consumer section gets no consumer from the runner.
	// +optional
	Consumer *ConsumerSpec `json:"consumer,omitempty"`
}

// ProducerSpec mirrors controller.ProducerConfig.
type ProducerSpec struct {
	BlockWhenFull bool `json:"blockWhenFull,omitempty"`

	// OfferTimeout bounds the wait for space when blockWhenFull is set.
	// +optional
	OfferTimeout *metav1.Duration `json:"offerTimeout,omitempty"`

	DiscardWhenFull      bool `json:"discardWhenFull,omitempty"`
	FailIfNoConsumers    bool `json:"failIfNoConsumers,omitempty"`
	DiscardIfNoConsumers bool `json:"discardIfNoConsumers,omitempty"`

	// WaitForTaskToComplete is one of Never, IfReplyExpected or Always.
	// +optional
	WaitForTaskToComplete string `json:"waitForTaskToComplete,omitempty"`

	// Timeout bounds the wait for completion. Zero disables the bound; unset keeps the producer default.
	// +optional
	Timeout *metav1.Duration `json:"timeout,omitempty"`
}

// ConsumerSpec mirrors controller.ConsumerConfig.
type ConsumerSpec struct {
	// +optional
	ConcurrentConsumers int `json:"concurrentConsumers,omitempty"`

	// +optional
	LimitConcurrentConsumers int `json:"limitConcurrentConsumers,omitempty"`

	// +optional
	PollTimeout *metav1.Duration `json:"pollTimeout,omitempty"`

	PurgeWhenStopping bool `json:"purgeWhenStopping,omitempty"`
}
