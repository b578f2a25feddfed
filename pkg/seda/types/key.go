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
	"fmt"
	"strconv"
)

// Scope determines which runtime instances can resolve a queue by name.
type Scope int

const (
	// ScopeLocal queues are visible only inside the runtime instance that created them.
	ScopeLocal Scope = iota

	// ScopeShared queues are visible to every runtime instance in the process.
	ScopeShared
)

// String returns the lower-case name of the scope, as used in logs and metric labels.
func (s Scope) String() string {
	switch s {
	case ScopeLocal:
		return "local"
	case ScopeShared:
		return "shared"
	default:
		return "UnknownScope(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseScope converts a scope name ("local" or "shared") back into a Scope.
// An empty string is treated as "local".
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "local":
		return ScopeLocal, nil
	case "shared":
		return ScopeShared, nil
	default:
		return ScopeLocal, fmt.Errorf("unknown queue scope %q: must be one of %q or %q", s, "local", "shared")
	}
}

// QueueKey is the unique identifier of a queue within a registry.
// Two handles carrying equal keys always resolve to the same live queue entry.
type QueueKey struct {
	// Scope is the visibility of the queue.
	Scope Scope
	// Name is the logical name of the queue.
	Name string
}

func (k QueueKey) String() string {
	return k.Scope.String() + ":" + k.Name
}
