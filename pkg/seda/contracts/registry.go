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

package contracts

import (
	"context"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

// QueueSpec is the configuration a queue entry is created with.
// The first acquirer's spec wins for the lifetime of the entry; later acquirers receive the existing entry unchanged.
type QueueSpec struct {
	// Capacity bounds the number of pending items in each buffer of the entry.
	// Optional: a value of zero selects the registry's default capacity.
	Capacity int

	// MultipleConsumers enables broadcast mode: every subscribed consumer receives every item through its own private
	// sub-queue.
	MultipleConsumers bool

	// QueueFactory names the `framework.BlockingQueue` implementation backing each buffer.
	// Optional: an empty name selects the registry's default implementation.
	QueueFactory string
}

// QueueSnapshot is a read-only, point-in-time view of an entry, intended for diagnostics.
// It may already be stale when the caller reads it.
type QueueSnapshot struct {
	Key               types.QueueKey
	Capacity          int
	QueueFactory      string
	MultipleConsumers bool
	// Depth is the number of pending deliveries: the shared buffer length, or the sum over all sub-queues.
	Depth int
	// SubQueueDepths maps consumer ID to pending deliveries in broadcast mode. Nil otherwise.
	SubQueueDepths map[string]int
	// Registrations is the number of live producer and consumer handles holding the entry.
	Registrations int
	// Consumers lists the subscribed consumer IDs in subscription order.
	Consumers []string
	Active    bool
}

// QueueRegistry is the authoritative mapping from `types.QueueKey` to a live `QueueReference`.
//
// # Invariants
//
//  1. The registration count of an entry equals the number of successful Acquire calls for its key not yet matched by
//     Release.
//  2. An entry is present in the registry if and only if its registration count is positive.
//  3. Once an entry's count reaches zero it is torn down and never handed out again; the next Acquire creates a fresh,
//     empty entry.
type QueueRegistry interface {
	// Name identifies the registry in logs and metric labels.
	Name() string

	// Acquire returns the live entry for key, creating it from spec if none exists, and increments its registration
	// count.
	Acquire(key types.QueueKey, spec QueueSpec) (QueueReference, error)

	// Release decrements the registration count for key, tearing down the entry when the count reaches zero.
	// Releasing a key that has no live registration returns an error wrapping `types.ErrLifecycleMisuse`.
	Release(key types.QueueKey) error
}

// QueueReference is one live queue entry.
// All methods are goroutine-safe.
type QueueReference interface {
	// Key returns the key the entry is registered under.
	Key() types.QueueKey

	// Spec returns the effective spec the entry was created with, with defaults resolved.
	Spec() QueueSpec

	// IsActive reports whether the entry is still registered. An inactive entry rejects every operation with
	// `types.ErrEndpointNotActive`.
	IsActive() bool

	// Enqueue hands an item to the entry. In broadcast mode the item is forked to every currently subscribed consumer
	// in one atomic step: either every sub-queue receives its delivery or none does.
	//
	// If a buffer is full and blockWhenFull is false, it returns `types.ErrQueueFull` immediately. If blockWhenFull is
	// true it waits for space until ctx ends, returning ctx.Err(). Callers express deadlines through ctx.
	Enqueue(ctx context.Context, item types.QueueItem, blockWhenFull bool) error

	// Dequeue removes the next item for consumerID, blocking while none is available.
	// In competing mode consumerID is informational; in broadcast mode it selects the consumer's private sub-queue.
	// Returns `framework.ErrQueueEmpty` if ctx's deadline passes first, ctx.Err() if ctx is cancelled,
	// `types.ErrConsumerStopped` if the consumer is not subscribed, and `types.ErrEndpointNotActive` after teardown.
	Dequeue(ctx context.Context, consumerID string) (types.QueueItem, error)

	// Subscribe registers a consumer identity. In broadcast mode it also creates the consumer's private sub-queue; items
	// enqueued earlier are never delivered to it.
	Subscribe(consumerID string) error

	// Unsubscribe removes a consumer identity. In broadcast mode the private sub-queue is closed and its undelivered
	// items are finalized with an error wrapping `types.ErrEvicted` and `types.ErrConsumerStopped`.
	Unsubscribe(consumerID string) error

	// ConsumerCount returns the number of subscribed consumers.
	ConsumerCount() int

	// Purge removes pending items and finalizes each with an error wrapping `types.ErrEvicted` and cause. An empty
	// consumerID purges every buffer of the entry. It returns the number of items removed.
	Purge(consumerID string, cause error) int

	// Depth returns the number of pending deliveries.
	Depth() int

	// Snapshot returns a diagnostic view of the entry.
	Snapshot() QueueSnapshot
}
