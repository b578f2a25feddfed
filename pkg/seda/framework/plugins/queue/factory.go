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

// Package queue provides the bounded FIFO buffers that back queue entries, selectable by name.
package queue

import (
	"fmt"
	"slices"
	"sync"

	"github.com/apache/camel-sub208/pkg/seda/framework"
)

type RegisteredQueueName string

// DefaultQueueName is used when an endpoint does not name a buffer implementation.
const DefaultQueueName = RegisteredQueueName(ListQueueName)

// QueueConstructor defines the function signature for creating a `framework.BlockingQueue` with the given capacity.
type QueueConstructor func(capacity int) (framework.BlockingQueue, error)

var (
	// mu guards the registration maps.
	mu sync.RWMutex
	// RegisteredQueues stores the constructors for all registered queues.
	RegisteredQueues = make(map[RegisteredQueueName]QueueConstructor)
)

// MustRegisterQueue registers a queue constructor, and panics if the name is
// already registered.
// This is intended to be called from init() functions.
func MustRegisterQueue(name RegisteredQueueName, constructor QueueConstructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := RegisteredQueues[name]; ok {
		panic(fmt.Sprintf("framework.BlockingQueue already registered with name %q", name))
	}
	RegisteredQueues[name] = constructor
}

// NewQueueFromName creates a new BlockingQueue given its registered name. An empty name selects DefaultQueueName.
// This is called by the `registry.QueueRegistry` when it creates an entry or a broadcast sub-queue.
func NewQueueFromName(name RegisteredQueueName, capacity int) (framework.BlockingQueue, error) {
	if name == "" {
		name = DefaultQueueName
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", framework.ErrInvalidCapacity, capacity)
	}
	mu.RLock()
	defer mu.RUnlock()
	constructor, ok := RegisteredQueues[name]
	if !ok {
		return nil, fmt.Errorf("no framework.BlockingQueue registered with name %q", name)
	}
	return constructor(capacity)
}

// IsRegistered reports whether a constructor exists for the given name. An empty name is always valid.
func IsRegistered(name RegisteredQueueName) bool {
	if name == "" {
		return true
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := RegisteredQueues[name]
	return ok
}

// Names returns the sorted names of all registered queues.
func Names() []RegisteredQueueName {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]RegisteredQueueName, 0, len(RegisteredQueues))
	for name := range RegisteredQueues {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
