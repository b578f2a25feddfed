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
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/framework"
	"github.com/apache/camel-sub208/pkg/seda/framework/plugins/queue"
	"github.com/apache/camel-sub208/pkg/seda/metrics"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// queueReference is the concrete implementation of `contracts.QueueReference`.
//
// In competing mode it owns one shared buffer. In broadcast mode it owns one private buffer per subscribed consumer and
// no shared buffer at all.
//
// # Concurrency
//
// `mu` guards the subscriber set. In broadcast mode every push into a sub-queue happens with `mu` held, and consumers only
// ever remove items, so a capacity check across all sub-queues followed by the pushes is atomic. In competing mode the
// shared buffer synchronizes itself and the hot path takes no lock here.
type queueReference struct {
	leasedState

	// --- Immutable state (set at construction) ---
	// registry is the owning registry's name, used as a metric label.
	registry string
	key      types.QueueKey
	spec     contracts.QueueSpec
	logger   logr.Logger
	// shared is the competing-mode buffer; nil in broadcast mode.
	shared framework.BlockingQueue

	active atomic.Bool

	mu        sync.RWMutex
	consumers []string
	// subs maps consumer ID to its private buffer in broadcast mode.
	subs map[string]framework.BlockingQueue
}

var _ contracts.QueueReference = &queueReference{}

func newQueueReference(
	registry string,
	key types.QueueKey,
	spec contracts.QueueSpec,
	logger logr.Logger,
) (*queueReference, error) {
	r := &queueReference{
		registry: registry,
		key:      key,
		spec:     spec,
		logger:   logger.WithValues("queue", key.String()),
		subs:     make(map[string]framework.BlockingQueue),
	}
	if !spec.MultipleConsumers {
		shared, err := r.newBuffer()
		if err != nil {
			return nil, err
		}
		r.shared = shared
	}
	r.active.Store(true)
	return r, nil
}

func (r *queueReference) newBuffer() (framework.BlockingQueue, error) {
	q, err := queue.NewQueueFromName(queue.RegisteredQueueName(r.spec.QueueFactory), r.spec.Capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer for queue %s: %w", r.key, err)
	}
	return q, nil
}

func (r *queueReference) Key() types.QueueKey {
	return r.key
}

func (r *queueReference) Spec() contracts.QueueSpec {
	return r.spec
}

func (r *queueReference) IsActive() bool {
	return r.active.Load()
}

// --- Data path ---

// Enqueue hands an item to the shared buffer, or forks it to every subscriber in broadcast mode.
func (r *queueReference) Enqueue(ctx context.Context, item types.QueueItem, blockWhenFull bool) error {
	if !r.active.Load() {
		return types.ErrEndpointNotActive
	}
	if r.spec.MultipleConsumers {
		return r.broadcast(ctx, item, blockWhenFull)
	}

	var err error
	if blockWhenFull {
		err = r.shared.Push(ctx, item)
	} else {
		err = r.shared.TryPush(item)
	}
	if err != nil {
		return translateBufferErr(err)
	}
	metrics.SetQueueDepth(r.registry, r.key, r.shared.Len())
	r.logger.V(logging.TRACE).Info("Enqueued exchange", "exchangeID", item.Exchange().ID())
	return nil
}

// broadcast delivers one fork of item to every current subscriber, or to none of them.
func (r *queueReference) broadcast(ctx context.Context, item types.QueueItem, blockWhenFull bool) error {
	for {
		r.mu.Lock()
		if !r.active.Load() {
			r.mu.Unlock()
			return types.ErrEndpointNotActive
		}

		if len(r.consumers) == 0 {
			r.mu.Unlock()
			if item.Awaited() {
				// No consumer exists to complete it, so a waiting producer is refused instead of told it succeeded.
				return types.ErrNoConsumers
			}
			// Nobody is subscribed: the item is delivered to an empty set and completes at once.
			r.logger.V(logging.DEBUG).Info("Broadcast with no subscribers", "exchangeID", item.Exchange().ID())
			item.Finalize(nil)
			return nil
		}

		var full framework.BlockingQueue
		for _, id := range r.consumers {
			if q := r.subs[id]; q.Len() >= q.Cap() {
				full = q
				break
			}
		}

		if full == nil {
			deliveries := item.Fork(len(r.consumers))
			for i, id := range r.consumers {
				if err := r.subs[id].TryPush(deliveries[i]); err != nil {
					// Sub-queues only shrink or close under mu, so this cannot happen.
					panic(fmt.Sprintf("invariant violation: push into checked sub-queue %q of %s failed: %v", id, r.key, err))
				}
			}
			depth := r.depthLocked()
			r.mu.Unlock()
			metrics.SetQueueDepth(r.registry, r.key, depth)
			r.logger.V(logging.TRACE).Info("Broadcast exchange", "exchangeID", item.Exchange().ID(),
				"subscribers", len(deliveries))
			return nil
		}

		if !blockWhenFull {
			r.mu.Unlock()
			return types.ErrQueueFull
		}
		wait := full.NotFull()
		r.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Dequeue removes the next item for the given consumer.
func (r *queueReference) Dequeue(ctx context.Context, consumerID string) (types.QueueItem, error) {
	q := r.shared
	if r.spec.MultipleConsumers {
		r.mu.RLock()
		q = r.subs[consumerID]
		r.mu.RUnlock()
		if q == nil {
			if !r.active.Load() {
				return nil, types.ErrEndpointNotActive
			}
			return nil, fmt.Errorf("%w: %q is not subscribed to %s", types.ErrConsumerStopped, consumerID, r.key)
		}
	}

	item, err := q.Pop(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, framework.ErrQueueEmpty
		case errors.Is(err, framework.ErrQueueClosed):
			if r.active.Load() {
				return nil, types.ErrConsumerStopped
			}
			return nil, types.ErrEndpointNotActive
		default:
			return nil, err
		}
	}
	metrics.SetQueueDepth(r.registry, r.key, r.Depth())
	return item, nil
}

// --- Subscription ---

func (r *queueReference) Subscribe(consumerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active.Load() {
		return types.ErrEndpointNotActive
	}
	if slices.Contains(r.consumers, consumerID) {
		return fmt.Errorf("%w: consumer %q already subscribed to %s", types.ErrLifecycleMisuse, consumerID, r.key)
	}
	if r.spec.MultipleConsumers {
		q, err := r.newBuffer()
		if err != nil {
			return err
		}
		r.subs[consumerID] = q
	}
	r.consumers = append(r.consumers, consumerID)
	r.logger.V(logging.VERBOSE).Info("Consumer subscribed", "consumerID", consumerID, "consumers", len(r.consumers))
	return nil
}

func (r *queueReference) Unsubscribe(consumerID string) error {
	r.mu.Lock()
	idx := slices.Index(r.consumers, consumerID)
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: consumer %q is not subscribed to %s", types.ErrLifecycleMisuse, consumerID, r.key)
	}
	r.consumers = slices.Delete(r.consumers, idx, idx+1)
	var orphans []types.QueueItem
	if q, ok := r.subs[consumerID]; ok {
		orphans = q.Close()
		delete(r.subs, consumerID)
	}
	remaining := len(r.consumers)
	r.mu.Unlock()

	evict(orphans, types.ErrConsumerStopped)
	r.logger.V(logging.VERBOSE).Info("Consumer unsubscribed", "consumerID", consumerID, "consumers", remaining,
		"evicted", len(orphans))
	return nil
}

func (r *queueReference) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.consumers)
}

// --- Maintenance ---

func (r *queueReference) Purge(consumerID string, cause error) int {
	var purged []types.QueueItem
	if r.shared != nil {
		purged = r.shared.Drain()
	} else {
		r.mu.RLock()
		for id, q := range r.subs {
			if consumerID == "" || id == consumerID {
				purged = append(purged, q.Drain()...)
			}
		}
		r.mu.RUnlock()
	}
	evict(purged, cause)
	metrics.SetQueueDepth(r.registry, r.key, r.Depth())
	if len(purged) > 0 {
		r.logger.V(logging.VERBOSE).Info("Purged pending exchanges", "count", len(purged), "consumerID", consumerID)
	}
	return len(purged)
}

// teardown deactivates the entry, wakes every blocked caller and evicts everything still pending.
// Only the first call has any effect.
func (r *queueReference) teardown() {
	if !r.active.CompareAndSwap(true, false) {
		return
	}

	r.mu.Lock()
	var pending []types.QueueItem
	if r.shared != nil {
		pending = r.shared.Close()
	}
	for _, id := range r.consumers {
		if q, ok := r.subs[id]; ok {
			pending = append(pending, q.Close()...)
		}
	}
	r.mu.Unlock()

	evict(pending, types.ErrEndpointNotActive)
	r.logger.V(logging.DEFAULT).Info("Queue entry torn down", "evicted", len(pending))
}

// --- Diagnostics ---

func (r *queueReference) Depth() int {
	if r.shared != nil {
		return r.shared.Len()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.depthLocked()
}

func (r *queueReference) depthLocked() int {
	depth := 0
	for _, q := range r.subs {
		depth += q.Len()
	}
	return depth
}

func (r *queueReference) Snapshot() contracts.QueueSnapshot {
	snap := contracts.QueueSnapshot{
		Key:               r.key,
		Capacity:          r.spec.Capacity,
		QueueFactory:      r.spec.QueueFactory,
		MultipleConsumers: r.spec.MultipleConsumers,
		Registrations:     r.leases(),
		Active:            r.active.Load(),
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap.Consumers = slices.Clone(r.consumers)
	if r.shared != nil {
		snap.Depth = r.shared.Len()
		return snap
	}
	snap.SubQueueDepths = make(map[string]int, len(r.subs))
	for id, q := range r.subs {
		n := q.Len()
		snap.SubQueueDepths[id] = n
		snap.Depth += n
	}
	return snap
}

// --- Helpers ---

func translateBufferErr(err error) error {
	switch {
	case errors.Is(err, framework.ErrQueueFull):
		return types.ErrQueueFull
	case errors.Is(err, framework.ErrQueueClosed):
		return types.ErrEndpointNotActive
	default:
		return err
	}
}

// evict finalizes items that will never be processed.
func evict(items []types.QueueItem, cause error) {
	if len(items) == 0 {
		return
	}
	err := fmt.Errorf("%w: %w", types.ErrEvicted, cause)
	for _, item := range items {
		item.Finalize(err)
	}
}
