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

// Package contracts defines the service interfaces between the producer/consumer engine and the queue registry.
//
// These interfaces decouple the `controller` package from the concrete `registry` implementation. They establish the
// required behaviors and system invariants that implementations must uphold.
//
// The primary contracts are:
//
//   - `QueueRegistry`: the reference-counted mapping from a `types.QueueKey` to its live entry.
//
//   - `QueueReference`: one live entry, owning either a single shared buffer (competing consumers) or one private
//     sub-queue per subscribed consumer (broadcast).
package contracts
