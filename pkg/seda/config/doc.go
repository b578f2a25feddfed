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

// Package config loads queue endpoint definitions from a YAML file.
//
// A file lists endpoints by name and scope together with their queue, producer and consumer settings:
//
//	defaults:
//	  capacity: 500
//	  queueFactory: RingQueue
//	endpoints:
//	- name: orders
//	  scope: shared
//	  producer:
//	    blockWhenFull: true
//	    offerTimeout: 250ms
//	    waitForTaskToComplete: Always
//	    timeout: 2s
//	  consumer:
//	    concurrentConsumers: 4
//
// Loading is strict: unknown fields are errors. After parsing, a defaults pass fills scope, capacity and queue
// factory, and validation reports the offending endpoint by index and name.
package config
