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

// Package registry provides the concrete implementation of `contracts.QueueRegistry` and `contracts.QueueReference`.
//
// The registry maps a `types.QueueKey` to a live queue entry. Entries are created lazily on the first Acquire and are
// reference counted: every producer and consumer handle holds exactly one lease, and the Release that drops the count
// to zero removes the entry and tears it down. A later Acquire for the same key creates a fresh, empty entry.
//
// # Leasing
//
// Get-or-create and release-to-zero race freely across goroutines. Each entry embeds a `leasedState`; once its count
// reaches zero the entry is marked defunct and can never be pinned again. An Acquire that loads a defunct entry removes
// it from the map and retries, so it never registers on a buffer nobody will drain.
//
// # Delivery modes
//
// In competing mode an entry owns one shared buffer and every subscribed consumer pops from it. In broadcast mode the
// entry owns one private buffer per subscribed consumer and Enqueue forks each item into all of them, or into none.
package registry
