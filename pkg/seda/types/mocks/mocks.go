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

// Package mocks provides simple, configurable mock implementations of the core queueing types, intended for use in
// unit and integration tests.
package mocks

import (
	"sync"
	"time"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

// MockQueueItem provides a thread-safe mock implementation of the `types.QueueItem` interface.
// It records every call to Finalize so tests can assert both the terminal error and that finalization happened once.
type MockQueueItem struct {
	ExchangeV    *types.Exchange
	EnqueueTimeV time.Time
	AwaitedV     bool

	mu            sync.Mutex
	finalized     bool
	finalizeCalls int
	finalErr      error
	done          chan struct{}
	children      []*MockQueueItem
}

// NewMockQueueItem creates a MockQueueItem carrying a fresh exchange with the given payload.
func NewMockQueueItem(body any) *MockQueueItem {
	return &MockQueueItem{
		ExchangeV:    types.NewExchange(types.FireAndForget, body),
		EnqueueTimeV: time.Now(),
		done:         make(chan struct{}),
	}
}

func (m *MockQueueItem) Exchange() *types.Exchange { return m.ExchangeV }
func (m *MockQueueItem) EnqueueTime() time.Time    { return m.EnqueueTimeV }
func (m *MockQueueItem) Awaited() bool             { return m.AwaitedV }

// Finalize records the first terminal error and counts every call.
func (m *MockQueueItem) Finalize(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalizeCalls++
	if m.finalized {
		return
	}
	m.finalized = true
	m.finalErr = err
	if m.done != nil {
		close(m.done)
	}
}

// Fork returns n independent child mocks that carry copies of the exchange. Children are retained for inspection via
// Children; the parent is never finalized by its children.
func (m *MockQueueItem) Fork(n int) []types.QueueItem {
	if n == 1 {
		return []types.QueueItem{m}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.QueueItem, n)
	for i := range n {
		child := &MockQueueItem{
			ExchangeV:    m.ExchangeV.Copy(),
			EnqueueTimeV: m.EnqueueTimeV,
			AwaitedV:     m.AwaitedV,
			done:         make(chan struct{}),
		}
		m.children = append(m.children, child)
		out[i] = child
	}
	return out
}

// Children returns the items created by Fork.
func (m *MockQueueItem) Children() []*MockQueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockQueueItem(nil), m.children...)
}

// Done returns a channel closed on the first Finalize call.
func (m *MockQueueItem) Done() <-chan struct{} { return m.done }

// FinalState returns whether the item was finalized, how many times Finalize was called, and the first error.
func (m *MockQueueItem) FinalState() (finalized bool, calls int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalized, m.finalizeCalls, m.finalErr
}

var _ types.QueueItem = &MockQueueItem{}
