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

package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QueueItem is an exchange while it sits in, or travels out of, a queue.
//
// Exactly one party finalizes an item: the consumer that processed it, or the queue that evicted it. Implementations
// must make `Finalize` idempotent; only the first call has any effect.
type QueueItem interface {
	// Exchange returns the envelope delivered to the consumer.
	Exchange() *Exchange

	// EnqueueTime is when the producer handed the item to the queue.
	EnqueueTime() time.Time

	// Awaited reports whether a producer is blocked on the item's completion. An awaited item must only ever be
	// finalized by a consumer or by an eviction, never by delivery to an empty set of subscribers.
	Awaited() bool

	// Finalize records the terminal result of the item. A nil error means a consumer processed it successfully.
	Finalize(err error)

	// Fork splits the item into n deliveries for broadcast fan-out. Each delivery is finalized independently; the
	// original item is finalized once all of them have been. Fork(1) returns the item itself.
	Fork(n int) []QueueItem
}

// WaitForTaskToComplete selects when a producer blocks for the consumer to finish.
type WaitForTaskToComplete int

const (
	// WaitIfReplyExpected blocks only for `RequestReply` exchanges.
	WaitIfReplyExpected WaitForTaskToComplete = iota
	// WaitNever never blocks after the exchange is enqueued.
	WaitNever
	// WaitAlways blocks after every enqueue, including `FireAndForget` exchanges.
	WaitAlways
)

func (w WaitForTaskToComplete) String() string {
	switch w {
	case WaitIfReplyExpected:
		return "IfReplyExpected"
	case WaitNever:
		return "Never"
	case WaitAlways:
		return "Always"
	default:
		return "UnknownWaitPolicy(" + strconv.Itoa(int(w)) + ")"
	}
}

// ShouldWait reports whether a producer applying this policy waits for an exchange with the given pattern.
func (w WaitForTaskToComplete) ShouldWait(p Pattern) bool {
	switch w {
	case WaitAlways:
		return true
	case WaitIfReplyExpected:
		return p == RequestReply
	default:
		return false
	}
}

// ParseWaitForTaskToComplete parses a policy name case-insensitively. An empty string selects `IfReplyExpected`.
func ParseWaitForTaskToComplete(s string) (WaitForTaskToComplete, error) {
	switch strings.ToLower(s) {
	case "", "ifreplyexpected":
		return WaitIfReplyExpected, nil
	case "never":
		return WaitNever, nil
	case "always":
		return WaitAlways, nil
	default:
		return WaitIfReplyExpected, fmt.Errorf("unknown waitForTaskToComplete policy %q: must be one of Never, IfReplyExpected, Always", s)
	}
}
