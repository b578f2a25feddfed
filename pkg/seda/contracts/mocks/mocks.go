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

// Package mocks provides mocks for the interfaces defined in the `contracts` package.
//
// The mocks are "stub-style": every method delegates to an optional function field (e.g., `EnqueueFunc`). A test
// injects behavior by setting the field; a nil field returns a zero value. Tests that need realistic queueing should use
// a real `registry.QueueRegistry` instead, which is cheap to construct.
package mocks

import (
	"context"
	"sync"

	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// --- QueueRegistry Mocks ---

// MockQueueRegistry is a stub-style mock of `contracts.QueueRegistry` that also counts calls.
type MockQueueRegistry struct {
	NameV       string
	AcquireFunc func(key types.QueueKey, spec contracts.QueueSpec) (contracts.QueueReference, error)
	ReleaseFunc func(key types.QueueKey) error

	mu           sync.Mutex
	acquireCalls int
	releaseCalls int
}

func (m *MockQueueRegistry) Name() string { return m.NameV }

func (m *MockQueueRegistry) Acquire(key types.QueueKey, spec contracts.QueueSpec) (contracts.QueueReference, error) {
	m.mu.Lock()
	m.acquireCalls++
	m.mu.Unlock()
	if m.AcquireFunc != nil {
		return m.AcquireFunc(key, spec)
	}
	return nil, nil
}

func (m *MockQueueRegistry) Release(key types.QueueKey) error {
	m.mu.Lock()
	m.releaseCalls++
	m.mu.Unlock()
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(key)
	}
	return nil
}

// Calls returns how many times Acquire and Release were invoked.
func (m *MockQueueRegistry) Calls() (acquires, releases int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquireCalls, m.releaseCalls
}

var _ contracts.QueueRegistry = &MockQueueRegistry{}

// --- QueueReference Mocks ---

// MockQueueReference is a stub-style mock of `contracts.QueueReference`.
type MockQueueReference struct {
	KeyV  types.QueueKey
	SpecV contracts.QueueSpec

	IsActiveFunc      func() bool
	EnqueueFunc       func(ctx context.Context, item types.QueueItem, blockWhenFull bool) error
	DequeueFunc       func(ctx context.Context, consumerID string) (types.QueueItem, error)
	SubscribeFunc     func(consumerID string) error
	UnsubscribeFunc   func(consumerID string) error
	ConsumerCountFunc func() int
	PurgeFunc         func(consumerID string, cause error) int
	DepthFunc         func() int
	SnapshotFunc      func() contracts.QueueSnapshot
}

func (m *MockQueueReference) Key() types.QueueKey       { return m.KeyV }
func (m *MockQueueReference) Spec() contracts.QueueSpec { return m.SpecV }

func (m *MockQueueReference) IsActive() bool {
	if m.IsActiveFunc != nil {
		return m.IsActiveFunc()
	}
	return true
}

func (m *MockQueueReference) Enqueue(ctx context.Context, item types.QueueItem, blockWhenFull bool) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, item, blockWhenFull)
	}
	return nil
}

func (m *MockQueueReference) Dequeue(ctx context.Context, consumerID string) (types.QueueItem, error) {
	if m.DequeueFunc != nil {
		return m.DequeueFunc(ctx, consumerID)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (m *MockQueueReference) Subscribe(consumerID string) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(consumerID)
	}
	return nil
}

func (m *MockQueueReference) Unsubscribe(consumerID string) error {
	if m.UnsubscribeFunc != nil {
		return m.UnsubscribeFunc(consumerID)
	}
	return nil
}

func (m *MockQueueReference) ConsumerCount() int {
	if m.ConsumerCountFunc != nil {
		return m.ConsumerCountFunc()
	}
	return 0
}

func (m *MockQueueReference) Purge(consumerID string, cause error) int {
	if m.PurgeFunc != nil {
		return m.PurgeFunc(consumerID, cause)
	}
	return 0
}

func (m *MockQueueReference) Depth() int {
	if m.DepthFunc != nil {
		return m.DepthFunc()
	}
	return 0
}

func (m *MockQueueReference) Snapshot() contracts.QueueSnapshot {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc()
	}
	return contracts.QueueSnapshot{Key: m.KeyV}
}

var _ contracts.QueueReference = &MockQueueReference{}
