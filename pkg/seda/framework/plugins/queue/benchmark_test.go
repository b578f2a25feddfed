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

package queue

import (
	"context"
	"testing"

	"github.com/apache/camel-sub208/pkg/seda/framework"
	"github.com/apache/camel-sub208/pkg/seda/types/mocks"
)

// BenchmarkQueues runs a series of benchmarks against all registered queue implementations.
func BenchmarkQueues(b *testing.B) {
	for queueName, constructor := range RegisteredQueues {
		b.Run(string(queueName), func(b *testing.B) {
			b.Run("PushPop", func(b *testing.B) {
				q, err := constructor(1024)
				if err != nil {
					b.Fatalf("Failed to construct queue '%s': %v", queueName, err)
				}
				benchmarkPushPop(b, q)
			})

			b.Run("BulkPushThenDrain", func(b *testing.B) {
				q, err := constructor(100)
				if err != nil {
					b.Fatalf("Failed to construct queue '%s': %v", queueName, err)
				}
				benchmarkBulkPushThenDrain(b, q)
			})

			b.Run("HighContention", func(b *testing.B) {
				q, err := constructor(64)
				if err != nil {
					b.Fatalf("Failed to construct queue '%s': %v", queueName, err)
				}
				benchmarkHighContention(b, q)
			})
		})
	}
}

// benchmarkPushPop measures the base overhead of the data structure and its locking with tightly coupled push and pop
// pairs issued in parallel.
func benchmarkPushPop(b *testing.B, q framework.BlockingQueue) {
	item := mocks.NewMockQueueItem("item")
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := q.Push(ctx, item); err != nil {
				b.Errorf("Push failed: %v", err)
				return
			}
			if _, err := q.Pop(ctx); err != nil {
				b.Errorf("Pop failed: %v", err)
				return
			}
		}
	})
}

// benchmarkBulkPushThenDrain fills the queue to capacity and then drains it in one call.
func benchmarkBulkPushThenDrain(b *testing.B, q framework.BlockingQueue) {
	item := mocks.NewMockQueueItem("bulk")
	b.ReportAllocs()

	for b.Loop() {
		for range q.Cap() {
			if err := q.TryPush(item); err != nil {
				b.Fatalf("TryPush failed: %v", err)
			}
		}
		q.Drain()
	}
}

// benchmarkHighContention runs one blocking consumer against many parallel producers on a small buffer, so producers
// frequently park on a full queue.
func benchmarkHighContention(b *testing.B, q framework.BlockingQueue) {
	item := mocks.NewMockQueueItem("contended")
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			if _, err := q.Pop(ctx); err != nil {
				return
			}
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := q.Push(ctx, item); err != nil {
				b.Errorf("Push failed: %v", err)
				return
			}
		}
	})
	b.StopTimer()
	cancel()
	<-stopped
}
