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
	"container/list"

	"github.com/apache/camel-sub208/pkg/seda/framework"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// ListQueueName is the name of the list-based queue implementation.
//
// This queue is backed by a standard `container/list` and only allocates memory for items that are actually pending, so
// a large capacity costs nothing until it is used. It is the default implementation.
//
// # Behavioral Guarantees
//
// Strict First-In, First-Out ordering: items are popped in the exact order their push completed.
const ListQueueName = "ListQueue"

func init() {
	MustRegisterQueue(RegisteredQueueName(ListQueueName),
		func(capacity int) (framework.BlockingQueue, error) {
			return newListQueue(capacity), nil
		})
}

// listQueue is the `container/list` storage layout.
type listQueue struct {
	requests *list.List
}

func newListQueue(capacity int) *blockingQueue {
	return newBlockingQueue(ListQueueName, capacity, &listQueue{requests: list.New()})
}

func (lq *listQueue) pushBack(item types.QueueItem) {
	lq.requests.PushBack(item)
}

func (lq *listQueue) popFront() types.QueueItem {
	element := lq.requests.Front()
	if element == nil {
		return nil
	}
	return lq.requests.Remove(element).(types.QueueItem)
}

func (lq *listQueue) len() int {
	return lq.requests.Len()
}

func (lq *listQueue) drain() []types.QueueItem {
	removedItems := make([]types.QueueItem, 0, lq.requests.Len())
	for e := lq.requests.Front(); e != nil; e = e.Next() {
		removedItems = append(removedItems, e.Value.(types.QueueItem))
	}
	lq.requests.Init()
	return removedItems
}
