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
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/metrics"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

// QueueRegistry is the concrete implementation of the `contracts.QueueRegistry` interface.
//
// A registry is an explicitly constructed object with an explicit lifecycle: the process creates one shared registry,
// and every runtime instance creates its own local one. Independent registries never share state, so tests can build as
// many as they need in parallel.
//
// # Concurrency Model
//
// Acquire and Release are lock-free with respect to each other across keys: entries live in a `sync.Map`, and each
// entry guards its own registration count. `closeMu` is only taken exclusively by Close, which lets Close tear down
// every entry without racing a concurrent Acquire.
type QueueRegistry struct {
	// --- Immutable dependencies (set at construction) ---
	config *Config
	logger logr.Logger

	closeMu sync.RWMutex
	closed  bool

	// entries tracks all live queue entries.
	entries sync.Map // types.QueueKey -> *queueReference
}

var _ contracts.QueueRegistry = &QueueRegistry{}

// registrySeq numbers registries created without an explicit name.
var registrySeq atomic.Int64

// NewQueueRegistry creates a new, empty registry.
func NewQueueRegistry(config *Config, logger logr.Logger) (*QueueRegistry, error) {
	if config == nil {
		var err error
		if config, err = NewConfig(); err != nil {
			return nil, err
		}
	} else if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid registry config: %w", err)
	}
	cfg := *config
	if cfg.Name == "" {
		cfg.Name = "registry-" + strconv.FormatInt(registrySeq.Add(1), 10)
	}
	qr := &QueueRegistry{
		config: &cfg,
		logger: logger.WithName("queue-registry").WithValues("registry", cfg.Name),
	}
	qr.logger.V(logging.DEFAULT).Info("QueueRegistry initialized", "defaultCapacity", cfg.DefaultCapacity,
		"defaultQueue", cfg.DefaultQueue)
	return qr, nil
}

// Name returns the name the registry reports in logs and metric labels.
func (qr *QueueRegistry) Name() string {
	return qr.config.Name
}

// Acquire returns the live entry for key, creating it on first use, and registers one more handle on it.
func (qr *QueueRegistry) Acquire(key types.QueueKey, spec contracts.QueueSpec) (contracts.QueueReference, error) {
	if strings.TrimSpace(key.Name) == "" {
		return nil, errors.New("queue name must not be empty")
	}
	spec, err := qr.config.resolveSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid spec for queue %s: %w", key, err)
	}

	qr.closeMu.RLock()
	defer qr.closeMu.RUnlock()
	if qr.closed {
		return nil, types.ErrRegistryClosed
	}

	ref, isNew, err := pinLeasedResource(
		&qr.entries,
		key,
		func() (*queueReference, error) { return newQueueReference(qr.config.Name, key, spec, qr.logger) },
	)
	if err != nil {
		return nil, err
	}

	count := ref.leases()
	metrics.SetQueueRegistrations(qr.config.Name, key, count)
	if isNew {
		qr.logger.V(logging.DEFAULT).Info("Queue entry created", "queue", key.String(), "capacity", ref.spec.Capacity,
			"multipleConsumers", ref.spec.MultipleConsumers, "queueFactory", ref.spec.QueueFactory)
	} else {
		if ref.spec.Capacity != spec.Capacity || ref.spec.MultipleConsumers != spec.MultipleConsumers ||
			ref.spec.QueueFactory != spec.QueueFactory {
			qr.logger.V(logging.DEFAULT).Info("Ignoring mismatched spec for existing queue entry; first registration wins",
				"queue", key.String(), "effective", ref.spec, "requested", spec)
		}
		qr.logger.V(logging.TRACE).Info("Queue entry acquired", "queue", key.String(), "registrations", count)
	}
	return ref, nil
}

// Release unregisters one handle from the entry for key, tearing down the entry when it was the last one.
func (qr *QueueRegistry) Release(key types.QueueKey) error {
	val, ok := qr.entries.Load(key)
	if !ok {
		err := fmt.Errorf("%w: release of queue %s which has no live registration", types.ErrLifecycleMisuse, key)
		qr.logger.Error(err, "Rejected release", "queue", key.String())
		return err
	}
	ref := val.(*queueReference)

	last, ok := ref.unpin()
	if !ok {
		err := fmt.Errorf("%w: over-release of queue %s", types.ErrLifecycleMisuse, key)
		qr.logger.Error(err, "Rejected release", "queue", key.String())
		return err
	}
	if !last {
		count := ref.leases()
		metrics.SetQueueRegistrations(qr.config.Name, key, count)
		qr.logger.V(logging.TRACE).Info("Queue entry released", "queue", key.String(), "registrations", count)
		return nil
	}

	// This call made the entry defunct; it is responsible for removing and tearing it down. An Acquire racing with us
	// either pins the entry before we marked it (and we never get here) or replaces it with a fresh one.
	qr.entries.CompareAndDelete(key, ref)
	ref.teardown()
	qr.retireSeries(key)
	return nil
}

// retireSeries drops the gauge series of a torn-down entry for key. A successor entry installed by a racing Acquire
// reports under the same labels, so its values are published again after the delete.
func (qr *QueueRegistry) retireSeries(key types.QueueKey) {
	metrics.DeleteQueue(qr.config.Name, key)
	val, ok := qr.entries.Load(key)
	if !ok {
		return
	}
	successor := val.(*queueReference)
	if n := successor.leases(); n > 0 && successor.IsActive() {
		metrics.SetQueueRegistrations(qr.config.Name, key, n)
		metrics.SetQueueDepth(qr.config.Name, key, successor.Depth())
	}
}

// Lookup returns the live entry for key without registering a handle.
func (qr *QueueRegistry) Lookup(key types.QueueKey) (contracts.QueueReference, bool) {
	val, ok := qr.entries.Load(key)
	if !ok {
		return nil, false
	}
	ref := val.(*queueReference)
	if !ref.IsActive() {
		return nil, false
	}
	return ref, true
}

// Stats returns a diagnostic snapshot of the entry for key, if one is live.
func (qr *QueueRegistry) Stats(key types.QueueKey) (contracts.QueueSnapshot, bool) {
	ref, ok := qr.Lookup(key)
	if !ok {
		return contracts.QueueSnapshot{}, false
	}
	return ref.Snapshot(), true
}

// Snapshot returns diagnostic snapshots of every live entry, ordered by key.
func (qr *QueueRegistry) Snapshot() []contracts.QueueSnapshot {
	var snaps []contracts.QueueSnapshot
	qr.entries.Range(func(_, value any) bool {
		if ref := value.(*queueReference); ref.IsActive() {
			snaps = append(snaps, ref.Snapshot())
		}
		return true
	})
	slices.SortFunc(snaps, func(a, b contracts.QueueSnapshot) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	return snaps
}

// Keys returns the keys of every live entry, ordered by their string form.
func (qr *QueueRegistry) Keys() []types.QueueKey {
	snaps := qr.Snapshot()
	keys := make([]types.QueueKey, len(snaps))
	for i, s := range snaps {
		keys[i] = s.Key
	}
	return keys
}

// Close tears down every entry regardless of outstanding registrations. Pending items are evicted and every blocked
// caller wakes with `types.ErrEndpointNotActive`. Subsequent calls to Acquire fail with `types.ErrRegistryClosed`;
// Release calls from handles that outlive the registry report `types.ErrLifecycleMisuse`.
func (qr *QueueRegistry) Close() {
	qr.closeMu.Lock()
	defer qr.closeMu.Unlock()
	if qr.closed {
		return
	}
	qr.closed = true

	var torn int
	qr.entries.Range(func(key, value any) bool {
		ref := value.(*queueReference)
		if outstanding := ref.markDefunct(); outstanding > 0 {
			qr.logger.V(logging.VERBOSE).Info("Closing queue entry with live registrations", "queue", ref.key.String(),
				"registrations", outstanding)
		}
		metrics.DeleteQueue(qr.config.Name, ref.key)
		qr.entries.Delete(key)
		ref.teardown()
		torn++
		return true
	})
	qr.logger.V(logging.DEFAULT).Info("QueueRegistry closed", "entriesTornDown", torn)
}
