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

package internal

import (
	"sync"
	"time"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

// Item is the internal representation of a published exchange while it is owned by a queue or a consumer. It implements
// `types.QueueItem`.
//
// # Concurrency
//
// All fields are set at creation time. Finalize is the only mutating method and is idempotent: a root item forwards to
// its `ReplyCoordinator`, whose first completion wins, and a fork child guards its report with `sync.Once`.
type Item struct {
	exchange    *types.Exchange
	enqueueTime time.Time
	awaited     bool
	// reply is set on root items only.
	reply *ReplyCoordinator
	// group is set on fork children only.
	group        *forkGroup
	onceFinalize sync.Once
}

var _ types.QueueItem = &Item{}

// NewItem creates a root item carrying exchange, with a fresh `ReplyCoordinator`. awaited marks an item whose producer
// blocks on the coordinator.
func NewItem(exchange *types.Exchange, enqueueTime time.Time, awaited bool) *Item {
	return &Item{
		exchange:    exchange,
		enqueueTime: enqueueTime,
		awaited:     awaited,
		reply:       NewReplyCoordinator(),
	}
}

// Exchange returns the envelope delivered to the consumer.
func (i *Item) Exchange() *types.Exchange { return i.exchange }

// EnqueueTime returns the time the producer created the item.
func (i *Item) EnqueueTime() time.Time { return i.enqueueTime }

// Awaited reports whether the producer waits for this item. Fork children inherit it from their root.
func (i *Item) Awaited() bool { return i.awaited }

// Reply returns the coordinator completed when this item is finalized. Fork children return their root's coordinator.
func (i *Item) Reply() *ReplyCoordinator {
	if i.group != nil {
		return i.group.parent.Reply()
	}
	return i.reply
}

// Finalize records the terminal result of the item. Only the first call has any effect.
func (i *Item) Finalize(err error) {
	if i.group == nil {
		i.reply.Complete(err)
		return
	}
	i.onceFinalize.Do(func() { i.group.report(err) })
}

// Fork splits the item into n deliveries for broadcast fan-out.
//
// The first delivery carries this item's own exchange; the others carry copies, so a body replaced by one subscriber is
// never seen by another. The item itself is finalized once every delivery has been, with the first non-nil error
// reported by any of them. Fork(1) returns the item itself.
func (i *Item) Fork(n int) []types.QueueItem {
	if n == 1 {
		return []types.QueueItem{i}
	}
	if n < 1 {
		return nil
	}
	g := &forkGroup{parent: i, remaining: n}
	children := make([]types.QueueItem, n)
	for k := range n {
		ex := i.exchange
		if k > 0 {
			ex = i.exchange.Copy()
		}
		children[k] = &Item{exchange: ex, enqueueTime: i.enqueueTime, awaited: i.awaited, group: g}
	}
	return children
}

// forkGroup collects the results of the deliveries of one broadcast item.
type forkGroup struct {
	parent *Item

	mu        sync.Mutex
	remaining int
	firstErr  error
}

func (g *forkGroup) report(err error) {
	g.mu.Lock()
	if err != nil && g.firstErr == nil {
		g.firstErr = err
	}
	g.remaining--
	last := g.remaining == 0
	firstErr := g.firstErr
	g.mu.Unlock()

	if last {
		g.parent.Finalize(firstErr)
	}
}
