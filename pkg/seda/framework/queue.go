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

package framework

import (
	"context"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

// QueueInspectionMethods defines BlockingQueue's read-only methods.
type QueueInspectionMethods interface {
	// Name returns a string identifier for the concrete queue implementation type (e.g., "ListQueue").
	Name() string

	// Cap returns the maximum number of items the queue holds.
	Cap() int

	// Len returns the current number of items in the queue.
	Len() int
}

// BlockingQueue defines the contract for a single bounded, goroutine-safe FIFO buffer.
//
// Items leave the queue in the order they entered it. Every blocking method wakes promptly when the condition it waits
// for becomes true, when its context ends, or when the queue is closed, whichever happens first.
type BlockingQueue interface {
	QueueInspectionMethods

	// TryPush appends an item without blocking.
	// Returns ErrQueueFull if the queue is at capacity and ErrQueueClosed if it has been closed.
	// Contract: The caller MUST NOT provide a nil item.
	TryPush(item types.QueueItem) error

	// Push appends an item, blocking while the queue is at capacity.
	// Returns ctx.Err() if the context ends first and ErrQueueClosed if the queue is closed while waiting.
	Push(ctx context.Context, item types.QueueItem) error

	// Pop removes and returns the oldest item, blocking while the queue is empty.
	// An item that is already available is returned even if ctx has ended.
	// Returns ctx.Err() if the context ends first and ErrQueueClosed once the queue is closed.
	Pop(ctx context.Context) (types.QueueItem, error)

	// NotFull returns a channel that is closed when the queue may have a free slot. The channel is already closed if the
	// queue has room, or if the queue is closed. Callers re-check with TryPush after it fires.
	NotFull() <-chan struct{}

	// Drain atomically removes all items from the queue and returns them in FIFO order.
	Drain() []types.QueueItem

	// Close closes the queue, wakes every blocked caller and returns the items that were still pending.
	// Subsequent calls return nil.
	Close() []types.QueueItem
}
