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

package registry

import (
	"runtime"
	"sync"
)

// leasedState implements a reference-counted "Leasing" pattern.
//
// A resource is live while leaseCount > 0. The release that brings the count to zero marks it defunct; a defunct
// resource can never be pinned again, so whoever observes it must remove it from its map and create a replacement.
type leasedState struct {
	// mu protects the lifecycle fields.
	mu sync.Mutex

	// leaseCount tracks the number of active references to this resource.
	leaseCount int

	// defunct is set once the last lease is released or the owner tears the resource down.
	defunct bool
}

// tryPin acquires a lease if the resource is not defunct.
func (ls *leasedState) tryPin() bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.defunct {
		return false
	}
	ls.leaseCount++
	return true
}

// unpin releases a lease.
// It returns ok=false, without changing anything, if there is no lease to release. It returns last=true when this call
// released the final lease and made the resource defunct.
func (ls *leasedState) unpin() (last, ok bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.defunct || ls.leaseCount == 0 {
		return false, false
	}
	ls.leaseCount--
	if ls.leaseCount == 0 {
		ls.defunct = true
		return true, true
	}
	return false, true
}

// markDefunct forcibly retires the resource regardless of outstanding leases and returns the count it had.
func (ls *leasedState) markDefunct() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	n := ls.leaseCount
	ls.defunct = true
	ls.leaseCount = 0
	return n
}

// leases returns the current lease count.
func (ls *leasedState) leases() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.leaseCount
}

// leasable is an interface for resources that embed leasedState.
type leasable interface {
	tryPin() bool
	unpin() (last, ok bool)
	markDefunct() int
	leases() int
}

// pinLeasedResource is a generic helper to perform the CAS loop for pinning a leased resource.
//
// If the stored resource is defunct, its releaser is about to delete it; the loop yields and retries until it can either
// pin a live resource or install a fresh one. createFn is only invoked when no entry is stored.
func pinLeasedResource[K any, V interface {
	leasable
	comparable
}](
	m *sync.Map,
	key K,
	createFn func() (V, error),
) (resource V, isNew bool, err error) {
	for {
		val, ok := m.Load(key)
		if !ok {
			fresh, err := createFn()
			if err != nil {
				var zero V
				return zero, false, err
			}
			val, ok = m.LoadOrStore(key, fresh)
		}
		state := val.(V)
		isNew := !ok

		if state.tryPin() {
			// Was this object torn down and removed while we were acquiring it?
			currentVal, ok := m.Load(key)
			if !ok || currentVal.(V) != state {
				// We acquired a "stale" object. Back off and retry.
				state.unpin()
				continue
			}
			return state, isNew, nil
		}

		// The resource is defunct. Remove it if its releaser has not yet done so, then retry.
		m.CompareAndDelete(key, state)
		runtime.Gosched()
	}
}
