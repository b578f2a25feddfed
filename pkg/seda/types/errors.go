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

package types

import (
	"errors"
	"fmt"
	"time"
)

// --- High-Level Outcome Errors ---

var (
	// ErrRejected is a sentinel error indicating an exchange was rejected *before* being placed in a queue. Errors
	// returned by `Producer.Publish()` that signify pre-queue rejection will wrap this error.
	//
	// Callers should use `errors.Is(err, ErrRejected)` to check for this general class of failure.
	ErrRejected = errors.New("exchange rejected pre-queue")

	// ErrEvicted is a sentinel error indicating an exchange was removed from a queue *after* being successfully
	// enqueued, but before any consumer processed it (e.g., queue teardown, purge, consumer stop).
	ErrEvicted = errors.New("exchange evicted from queue")
)

// --- Pre-Enqueue Rejection Errors ---

// The following errors occur before an exchange is added to a queue. When returned by `Producer.Publish()` they are
// wrapped by `ErrRejected`.
var (
	// ErrQueueFull indicates the bounded buffer had no free slot and the producer does not block when full.
	ErrQueueFull = errors.New("queue full")

	// ErrOfferTimeout indicates a producer blocked on a full buffer for longer than its configured offer timeout.
	ErrOfferTimeout = errors.New("offer timeout waiting for queue space")

	// ErrNoConsumers indicates the producer requires an active consumer and none was registered.
	ErrNoConsumers = errors.New("no consumers available")
)

// --- Completion Errors ---

var (
	// ErrCompletionTimeout indicates a waiting producer gave up because no consumer completed the exchange in time.
	// The concrete error is always a `*TimeoutError` that reports the configured timeout.
	ErrCompletionTimeout = errors.New("completion timeout")

	// ErrProcessingFailed indicates the consumer's processor returned an error. The concrete error is always a
	// `*ProcessingError` that unwraps to the processor's own error.
	ErrProcessingFailed = errors.New("processing failed")

	// ErrCancelled indicates the publishing caller's own context ended before the operation finished.
	ErrCancelled = errors.New("publish cancelled by caller")
)

// --- Lifecycle Errors ---

var (
	// ErrEndpointNotActive indicates the queue entry an operation targeted has been torn down, or the handle used for
	// the operation has already been closed.
	ErrEndpointNotActive = errors.New("endpoint not active")

	// ErrConsumerStopped indicates an exchange was pending for a consumer that stopped before dequeuing it.
	ErrConsumerStopped = errors.New("consumer stopped")

	// ErrRegistryClosed indicates the registry has been closed and accepts no new registrations.
	ErrRegistryClosed = errors.New("queue registry closed")

	// ErrLifecycleMisuse indicates a caller broke the registration contract, for example by releasing a key it never
	// acquired or by stopping a consumer twice. It signals a bug in the caller and is not recoverable.
	ErrLifecycleMisuse = errors.New("queue lifecycle misuse")
)

// TimeoutError reports that a producer stopped waiting for completion. Timeout is the configured value, not the
// measured wall-clock wait.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s after %dms", ErrCompletionTimeout, e.Timeout.Milliseconds())
}

// Is reports whether target is `ErrCompletionTimeout`.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrCompletionTimeout
}

// ProcessingError carries the error a consumer's processor returned, unmodified.
type ProcessingError struct {
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", ErrProcessingFailed, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// Is reports whether target is `ErrProcessingFailed`.
func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessingFailed
}
