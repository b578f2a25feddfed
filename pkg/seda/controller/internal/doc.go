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

// Package internal provides the private building blocks of the `controller` package: the `ReplyCoordinator` that
// joins a waiting producer with the consumer that completes its exchange, the concrete `types.QueueItem` that carries
// an exchange through a queue, and the `QueueProcessor` worker loop that drains a queue on behalf of a consumer.
//
// # Completion Model
//
// Every published exchange travels inside an `Item`. Whoever finalizes the item first decides its outcome: the consumer
// that processed it, or the queue that evicted it. Finalization is forwarded to the item's `ReplyCoordinator`, a
// single-assignment cell. A producer that waits simply blocks on the coordinator; a producer that does not wait never
// looks at it, so completing it is always safe and never blocks the consumer.
//
// In broadcast mode an item is forked into one delivery per subscriber. The deliveries report into a shared fork group
// and the original item is finalized once all of them are, with the first failure (if any) as its outcome.
package internal
