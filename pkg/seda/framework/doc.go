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

// Package framework defines the pluggable buffer contract used by queue entries.
//
// A `BlockingQueue` is a bounded FIFO that owns its own synchronization. Concrete implementations live under
// `framework/plugins/queue` and are selected by name, so an endpoint can choose the buffer layout that suits its
// workload without any change to the registry or the producer/consumer engine.
package framework
