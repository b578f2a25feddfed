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

import "strconv"

// Outcome is the final state of a single publish call.
//
// It is a low-cardinality value suitable for metric labels; the error returned next to it carries the details.
type Outcome int

const (
	// OutcomeEnqueued indicates the exchange was accepted and the producer did not wait for completion.
	OutcomeEnqueued Outcome = iota

	// OutcomeCompleted indicates a consumer processed the exchange successfully while the producer waited.
	OutcomeCompleted

	// OutcomeDiscarded indicates the exchange was dropped on purpose (discardWhenFull or discardIfNoConsumers) and the
	// publish reported success.
	OutcomeDiscarded

	// --- Pre-Enqueue Rejection Outcomes ---

	// OutcomeRejectedCapacity indicates rejection because the buffer was full. The error wraps `ErrQueueFull` or
	// `ErrOfferTimeout`.
	OutcomeRejectedCapacity

	// OutcomeRejectedOther indicates rejection for any other pre-queue reason (no consumers, inactive endpoint,
	// caller cancellation while blocked on a full buffer).
	OutcomeRejectedOther

	// --- Post-Enqueue Outcomes ---

	// OutcomeTimedOut indicates the producer's completion wait exceeded its configured timeout.
	OutcomeTimedOut

	// OutcomeFailed indicates the consumer's processor returned an error.
	OutcomeFailed

	// OutcomeCancelled indicates the caller's context ended while the producer was waiting for completion.
	OutcomeCancelled

	// OutcomeEvicted indicates the exchange was removed from the queue without being processed.
	OutcomeEvicted
)

// String returns a human-readable string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeEnqueued:
		return "Enqueued"
	case OutcomeCompleted:
		return "Completed"
	case OutcomeDiscarded:
		return "Discarded"
	case OutcomeRejectedCapacity:
		return "RejectedCapacity"
	case OutcomeRejectedOther:
		return "RejectedOther"
	case OutcomeTimedOut:
		return "TimedOut"
	case OutcomeFailed:
		return "Failed"
	case OutcomeCancelled:
		return "Cancelled"
	case OutcomeEvicted:
		return "Evicted"
	default:
		// Return the integer value for unknown outcomes to aid in debugging.
		return "UnknownOutcome(" + strconv.Itoa(int(o)) + ")"
	}
}
