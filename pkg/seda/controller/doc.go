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

// Package controller provides the two ends of a queue: the `Producer`, which publishes exchanges and applies the
// backpressure and wait policies, and the `Consumer`, which drains a queue with a pool of worker loops.
//
// # Publish Lifecycle
//
// Every Publish call follows one of two paths:
//
//	Created -> Enqueued                                           (no wait)
//	Created -> Enqueued -> AwaitingCompletion -> Completed | TimedOut | Failed
//
// Whether a call waits is decided by `types.WaitForTaskToComplete` and the exchange's `types.Pattern`. A timed-out wait
// abandons only the producer's side: the consumer still processes the exchange and its late completion is discarded.
//
// # Registration
//
// Producers and consumers each hold one registration on their queue entry. The entry lives as long as any registration
// does; when the last one is released the entry is torn down and a later registration starts from an empty queue.
package controller
