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

package queue

import (
	"context"
	"sync"

	"github.com/apache/camel-sub208/pkg/seda/framework"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// fifo is the storage layout behind a blockingQueue. It is never accessed concurrently; blockingQueue.mu guards it.
type fifo interface {
	pushBack(item types.QueueItem)
	popFront() types.QueueItem
	len() int
	drain() []types.QueueItem
}

// closedCh is returned by NotFull when no wait is needed.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// blockingQueue adds capacity enforcement and wake-ups on top of a fifo.
//
// Waiters park on a channel that is created lazily and closed (then discarded) by the next state change, so a queue that
// nobody waits on never allocates signalling channels.
type blockingQueue struct {
	name     string
	capacity int

	mu       sync.Mutex
	store    fifo
	closed   bool
	notEmpty chan struct{}
	notFull  chan struct{}
}

var _ framework.BlockingQueue = &blockingQueue{}

func newBlockingQueue(name string, capacity int, store fifo) *blockingQueue {
	return &blockingQueue{name: name, capacity: capacity, store: store}
}

// --- `framework.BlockingQueue` Interface Implementation ---

// Name returns the name of the queue implementation.
func (q *blockingQueue) Name() string {
	return q.name
}

// Cap returns the capacity the queue was created with.
func (q *blockingQueue) Cap() int {
	return q.capacity
}

// Len returns the number of items in the queue.
func (q *blockingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.len()
}

// TryPush appends an item if there is room.
func (q *blockingQueue) TryPush(item types.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return framework.ErrQueueClosed
	}
	if q.store.len() >= q.capacity {
		return framework.ErrQueueFull
	}
	q.store.pushBack(item)
	q.signalNotEmptyLocked()
	return nil
}

// Push appends an item, waiting for room.
func (q *blockingQueue) Push(ctx context.Context, item types.QueueItem) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return framework.ErrQueueClosed
		}
		if q.store.len() < q.capacity {
			q.store.pushBack(item)
			q.signalNotEmptyLocked()
			q.mu.Unlock()
			return nil
		}
		if q.notFull == nil {
			q.notFull = make(chan struct{})
		}
		ch := q.notFull
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pop removes the oldest item, waiting for one to arrive.
func (q *blockingQueue) Pop(ctx context.Context) (types.QueueItem, error) {
	for {
		q.mu.Lock()
		if q.store.len() > 0 {
			item := q.store.popFront()
			q.signalNotFullLocked()
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, framework.ErrQueueClosed
		}
		if q.notEmpty == nil {
			q.notEmpty = make(chan struct{})
		}
		ch := q.notEmpty
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// NotFull returns a channel that fires once the queue may accept an item.
func (q *blockingQueue) NotFull() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.store.len() < q.capacity {
		return closedCh
	}
	if q.notFull == nil {
		q.notFull = make(chan struct{})
	}
	return q.notFull
}

// Drain removes all items from the queue and returns them.
func (q *blockingQueue) Drain() []types.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.store.drain()
	if len(items) > 0 {
		q.signalNotFullLocked()
	}
	return items
}

// Close closes the queue and returns what was left in it.
func (q *blockingQueue) Close() []types.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	items := q.store.drain()
	q.signalNotEmptyLocked()
	q.signalNotFullLocked()
	return items
}

func (q *blockingQueue) signalNotEmptyLocked() {
	if q.notEmpty != nil {
		close(q.notEmpty)
		q.notEmpty = nil
	}
}

func (q *blockingQueue) signalNotFullLocked() {
	if q.notFull != nil {
		close(q.notFull)
		q.notFull = nil
	}
}
