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
	"maps"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pattern declares whether the publisher of an exchange expects a reply.
type Pattern int

const (
	// FireAndForget exchanges expect no reply.
	FireAndForget Pattern = iota
	// RequestReply exchanges expect the consumer's result to flow back to the publisher.
	RequestReply
)

func (p Pattern) String() string {
	switch p {
	case FireAndForget:
		return "FireAndForget"
	case RequestReply:
		return "RequestReply"
	default:
		return "UnknownPattern(" + strconv.Itoa(int(p)) + ")"
	}
}

// Exchange is the unit of work that flows from a producer to a consumer.
//
// The identity fields (ID, Pattern, Deadline) are fixed at construction. The body and headers are guarded by an
// internal lock because a consumer may replace the body while the publisher still holds a reference.
type Exchange struct {
	id       string
	pattern  Pattern
	deadline time.Time

	mu      sync.RWMutex
	body    any
	headers map[string]any
}

// NewExchange creates an exchange with a fresh correlation ID.
func NewExchange(pattern Pattern, body any) *Exchange {
	return &Exchange{
		id:      uuid.NewString(),
		pattern: pattern,
		body:    body,
		headers: make(map[string]any),
	}
}

// ID returns the correlation identifier of the exchange.
func (e *Exchange) ID() string { return e.id }

// Pattern returns the exchange pattern.
func (e *Exchange) Pattern() Pattern { return e.pattern }

// Deadline returns the completion deadline attached by the producer, if any.
func (e *Exchange) Deadline() (time.Time, bool) {
	return e.deadline, !e.deadline.IsZero()
}

// WithDeadline returns a copy of the exchange that carries the given completion deadline.
func (e *Exchange) WithDeadline(deadline time.Time) *Exchange {
	c := e.Copy()
	c.deadline = deadline
	return c
}

// Body returns the current payload.
func (e *Exchange) Body() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.body
}

// SetBody replaces the payload.
func (e *Exchange) SetBody(body any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.body = body
}

// Header returns the value of a header and whether it was present.
func (e *Exchange) Header(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.headers[name]
	return v, ok
}

// SetHeader sets a header value.
func (e *Exchange) SetHeader(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.headers == nil {
		e.headers = make(map[string]any)
	}
	e.headers[name] = value
}

// Headers returns a snapshot of all headers.
func (e *Exchange) Headers() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.headers)
}

// Copy returns a shallow copy of the exchange that shares its ID, pattern and deadline.
// The body value itself is not cloned; replacing it on the copy never affects the original.
func (e *Exchange) Copy() *Exchange {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Exchange{
		id:       e.id,
		pattern:  e.pattern,
		deadline: e.deadline,
		body:     e.body,
		headers:  maps.Clone(e.headers),
	}
}
