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

package internal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apache/camel-sub208/pkg/seda/types"
)

func TestReplyCoordinator(t *testing.T) {
	t.Parallel()

	t.Run("should record only the first completion", func(t *testing.T) {
		t.Parallel()
		c := NewReplyCoordinator()
		assert.False(t, c.IsComplete(), "a new coordinator must not be complete")

		first := errors.New("first")
		assert.True(t, c.Complete(first), "the first Complete must win")
		assert.False(t, c.Complete(nil), "a second Complete must be a no-op")
		assert.True(t, c.IsComplete())
		assert.Same(t, first, c.Err())
		assert.Same(t, first, c.Await(context.Background()), "Await must return the first recorded result")
	})

	t.Run("should allow exactly one winner under concurrent completion", func(t *testing.T) {
		t.Parallel()
		c := NewReplyCoordinator()
		const numGoroutines = 32
		var winners atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numGoroutines)
		for range numGoroutines {
			go func() {
				defer wg.Done()
				if c.Complete(nil) {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), winners.Load())
	})

	t.Run("should release every waiter on completion", func(t *testing.T) {
		t.Parallel()
		c := NewReplyCoordinator()
		const numWaiters = 8
		results := make(chan error, numWaiters)
		for range numWaiters {
			go func() { results <- c.Await(context.Background()) }()
		}
		c.Complete(nil)
		for range numWaiters {
			select {
			case err := <-results:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("a waiter was not released by Complete")
			}
		}
	})

	t.Run("should abandon on cancellation", func(t *testing.T) {
		t.Parallel()
		c := NewReplyCoordinator()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := c.Await(ctx)
		assert.ErrorIs(t, err, ErrAbandoned)
		assert.ErrorIs(t, err, context.Canceled)
		assert.True(t, c.Abandoned())
		assert.True(t, c.Complete(errors.New("late")), "a late completion of an abandoned coordinator still succeeds")
	})

	t.Run("should surface the context cause", func(t *testing.T) {
		t.Parallel()
		c := NewReplyCoordinator()
		cause := &types.TimeoutError{Timeout: 20 * time.Millisecond}
		ctx, cancel := context.WithTimeoutCause(context.Background(), 20*time.Millisecond, cause)
		defer cancel()

		start := time.Now()
		err := c.Await(ctx)
		assert.Less(t, time.Since(start), time.Second, "Await must wake promptly once its deadline passes")
		var timeoutErr *types.TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, 20*time.Millisecond, timeoutErr.Timeout)
		assert.ErrorIs(t, err, types.ErrCompletionTimeout)
	})

	t.Run("should prefer a visible completion over cancellation", func(t *testing.T) {
		t.Parallel()
		c := NewReplyCoordinator()
		c.Complete(nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, c.Await(ctx))
		assert.False(t, c.Abandoned())
	})
}
