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
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrAbandoned is returned by `ReplyCoordinator.Await` when the waiter gave up before the exchange completed. It wraps
// the cause of the waiter's context ending.
var ErrAbandoned = errors.New("reply abandoned")

// ReplyCoordinator is a single-assignment completion cell for one in-flight exchange.
//
// At most one call to Complete records a result. Any number of goroutines may wait on it. Once a waiter times out the
// coordinator is abandoned; a later Complete still succeeds, it is simply never observed.
type ReplyCoordinator struct {
	done chan struct{}
	once sync.Once
	// err is written exactly once, inside once, before done is closed.
	err       error
	abandoned atomic.Bool
}

// NewReplyCoordinator creates an uncompleted coordinator.
func NewReplyCoordinator() *ReplyCoordinator {
	return &ReplyCoordinator{done: make(chan struct{})}
}

// Complete records the result of the exchange. A nil error means success. It reports whether this call was the one that
// completed the coordinator; every call after the first is a no-op.
func (c *ReplyCoordinator) Complete(err error) bool {
	completed := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		completed = true
	})
	return completed
}

// Done returns a channel that is closed once the coordinator has been completed.
func (c *ReplyCoordinator) Done() <-chan struct{} {
	return c.done
}

// IsComplete reports whether Complete has been called.
func (c *ReplyCoordinator) IsComplete() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Err returns the recorded result. It must only be called after Done is closed.
func (c *ReplyCoordinator) Err() error {
	return c.err
}

// Abandoned reports whether a waiter gave up on this coordinator.
func (c *ReplyCoordinator) Abandoned() bool {
	return c.abandoned.Load()
}

// Await blocks until the coordinator is completed or ctx ends, and returns the recorded result.
//
// If ctx ends first the coordinator is abandoned and Await returns an error wrapping both `ErrAbandoned` and
// `context.Cause(ctx)`. A completion that is already visible when ctx ends wins over the cancellation.
func (c *ReplyCoordinator) Await(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		select {
		case <-c.done:
			return c.err
		default:
		}
		c.abandoned.Store(true)
		return fmt.Errorf("%w: %w", ErrAbandoned, context.Cause(ctx))
	}
}
