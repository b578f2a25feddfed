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
	"github.com/apache/camel-sub208/pkg/seda/framework"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// RingQueueName is the name of the ring-buffer queue implementation.
//
// The ring is a fixed array sized to the queue capacity at construction and never grows or shrinks, so steady-state
// pushes and pops do not allocate. Prefer it for small, hot queues; prefer ListQueue when the capacity is large and
// mostly unused.
const RingQueueName = "RingQueue"

// maxRingCapacity bounds the up-front allocation of a ring.
const maxRingCapacity = 1 << 20

func init() {
	MustRegisterQueue(RegisteredQueueName(RingQueueName),
		func(capacity int) (framework.BlockingQueue, error) {
			if capacity > maxRingCapacity {
				return nil, framework.ErrInvalidCapacity
			}
			return newRingQueue(capacity), nil
		})
}

// ringQueue is the circular-array storage layout.
type ringQueue struct {
	buf   []types.QueueItem
	head  int
	count int
}

func newRingQueue(capacity int) *blockingQueue {
	return newBlockingQueue(RingQueueName, capacity, &ringQueue{buf: make([]types.QueueItem, capacity)})
}

func (rq *ringQueue) pushBack(item types.QueueItem) {
	if rq.count == len(rq.buf) {
		// blockingQueue checks capacity before every push.
		panic("invariant violation: push onto a full ring")
	}
	rq.buf[(rq.head+rq.count)%len(rq.buf)] = item
	rq.count++
}

func (rq *ringQueue) popFront() types.QueueItem {
	if rq.count == 0 {
		return nil
	}
	item := rq.buf[rq.head]
	rq.buf[rq.head] = nil
	rq.head = (rq.head + 1) % len(rq.buf)
	rq.count--
	return item
}

func (rq *ringQueue) len() int {
	return rq.count
}

func (rq *ringQueue) drain() []types.QueueItem {
	removedItems := make([]types.QueueItem, 0, rq.count)
	for rq.count > 0 {
		removedItems = append(removedItems, rq.popFront())
	}
	rq.head = 0
	return removedItems
}
