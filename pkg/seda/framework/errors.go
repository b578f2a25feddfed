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
	"errors"
)

// `BlockingQueue` Errors
//
// These errors are returned by `BlockingQueue` methods and are translated by the `registry.QueueReference` into the
// caller-facing errors of the `types` package.
var (
	// ErrQueueFull indicates a non-blocking push found the queue at capacity.
	ErrQueueFull = errors.New("blocking queue at capacity")

	// ErrQueueEmpty indicates a dequeue deadline elapsed before an item became available.
	ErrQueueEmpty = errors.New("blocking queue empty")

	// ErrQueueClosed indicates the queue has been closed and accepts no further operations.
	ErrQueueClosed = errors.New("blocking queue closed")

	// ErrInvalidCapacity indicates a queue was constructed with a non-positive capacity.
	ErrInvalidCapacity = errors.New("queue capacity must be positive")
)
