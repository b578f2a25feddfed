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

// Package endpoint is the boundary between the queue core and the runtime that hosts it.
//
// A `Component` belongs to one runtime instance. It owns that instance's local registry and borrows the process-wide
// shared registry, so a queue name resolves to the same entry for every producer and consumer in the same scope:
//
//	shared, _ := registry.NewQueueRegistry(nil, logger)   // once per process
//	comp, _ := endpoint.NewComponent(shared, logger)      // once per runtime instance
//	ep, _ := comp.Endpoint("orders", types.ScopeLocal, endpoint.WithCapacity(100))
//	handle, _ := ep.Register(ctx, process)
//	producer, _ := ep.NewProducer()
//	exchange, err := producer.Publish(ctx, payload, types.RequestReply)
//
// Closing a Component stops every consumer and producer it created and tears down its local registry; the shared
// registry outlives it.
package endpoint
