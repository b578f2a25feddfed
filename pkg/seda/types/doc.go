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

// Package types defines the shared vocabulary of the in-process queueing endpoint.
//
// It establishes the objects passed between producers, the queue registry, the bounded buffers and consumers: the
// `QueueKey` that names a queue, the `Exchange` envelope that carries a payload, the `QueueItem` that wraps an exchange
// while it is in flight, and the sentinel errors and outcomes reported back to a publishing caller.
package types
