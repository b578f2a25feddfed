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

package endpoint

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	crmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/controller"
	"github.com/apache/camel-sub208/pkg/seda/framework/plugins/queue"
	"github.com/apache/camel-sub208/pkg/seda/metrics"
	"github.com/apache/camel-sub208/pkg/seda/registry"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

func newSharedRegistry(t *testing.T) *registry.QueueRegistry {
	t.Helper()
	qr, err := registry.NewQueueRegistry(nil, logr.Discard())
	require.NoError(t, err, "Setup: creating shared registry should not fail")
	t.Cleanup(qr.Close)
	return qr
}

func newTestComponent(t *testing.T, shared *registry.QueueRegistry) *Component {
	t.Helper()
	c, err := NewComponent(shared, logging.NewTestLogger())
	require.NoError(t, err, "Setup: creating component should not fail")
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func upperCase(_ context.Context, ex *types.Exchange) error {
	s, ok := ex.Body().(string)
	if !ok {
		return errors.New("body is not a string")
	}
	ex.SetBody(strings.ToUpper(s))
	return nil
}

var fastPoll = WithConsumerOptions(controller.WithPollTimeout(20 * time.Millisecond))

func TestNewComponent_InvalidRegistryConfig(t *testing.T) {
	t.Parallel()
	_, err := NewComponent(nil, logr.Discard(), registry.WithDefaultCapacity(0))
	assert.Error(t, err, "a non-positive default capacity must be rejected")
}

func TestComponent_Endpoint_Validation(t *testing.T) {
	t.Parallel()
	c := newTestComponent(t, nil)

	testCases := []struct {
		name     string
		endpoint string
		scope    types.Scope
		opts     []Option
		errText  string
	}{
		{name: "EmptyName", endpoint: " ", scope: types.ScopeLocal, errText: "name must not be empty"},
		{name: "NegativeCapacity", endpoint: "q", scope: types.ScopeLocal, opts: []Option{WithCapacity(-1)},
			errText: "capacity"},
		{name: "UnknownFactory", endpoint: "q", scope: types.ScopeLocal,
			opts: []Option{WithQueueFactory("NoSuchQueue")}, errText: "NoSuchQueue"},
		{name: "ConflictingProducerOptions", endpoint: "q", scope: types.ScopeLocal,
			opts: []Option{WithProducerOptions(controller.WithFailIfNoConsumers(true),
				controller.WithDiscardIfNoConsumers(true))}, errText: "producer options"},
		{name: "TooManyWorkers", endpoint: "q", scope: types.ScopeLocal,
			opts: []Option{WithConsumerOptions(controller.WithConcurrentConsumers(10),
				controller.WithLimitConcurrentConsumers(5))}, errText: "consumer options"},
		{name: "SharedWithoutRegistry", endpoint: "q", scope: types.ScopeShared, errText: "no shared registry"},
		{name: "UnknownScope", endpoint: "q", scope: types.Scope(9), errText: "unknown scope"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.Endpoint(tc.endpoint, tc.scope, tc.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}
}

func TestComponent_Endpoint_RegistersNothing(t *testing.T) {
	t.Parallel()
	c := newTestComponent(t, nil)
	e, err := c.Endpoint("q", types.ScopeLocal, WithCapacity(5), WithQueueFactory(queue.RingQueueName))
	require.NoError(t, err)

	assert.Equal(t, types.QueueKey{Scope: types.ScopeLocal, Name: "q"}, e.Key())
	assert.Equal(t, "q", e.Name())
	assert.Equal(t, types.ScopeLocal, e.Scope())
	assert.Equal(t, 5, e.QueueSpec().Capacity)
	_, live := e.Stats()
	assert.False(t, live, "resolving an endpoint must not create a queue entry")
	assert.Empty(t, c.Snapshot())
}

func TestComponent_LocalScopeIsIsolated(t *testing.T) {
	t.Parallel()
	shared := newSharedRegistry(t)
	a := newTestComponent(t, shared)
	b := newTestComponent(t, shared)

	ea, err := a.Endpoint("orders", types.ScopeLocal, fastPoll)
	require.NoError(t, err)
	_, err = ea.Register(context.Background(), upperCase)
	require.NoError(t, err)

	eb, err := b.Endpoint("orders", types.ScopeLocal,
		WithProducerOptions(controller.WithFailIfNoConsumers(true)))
	require.NoError(t, err)
	p, err := eb.NewProducer()
	require.NoError(t, err)

	_, err = p.Publish(context.Background(), "x", types.FireAndForget)
	assert.ErrorIs(t, err, types.ErrNoConsumers,
		"a local consumer in another component must not be visible")
	assert.Equal(t, 1, ea.Registrations())
	assert.Equal(t, 1, eb.Registrations())
}

func TestComponent_SharedScopeIsVisibleAcrossComponents(t *testing.T) {
	t.Parallel()
	shared := newSharedRegistry(t)
	a := newTestComponent(t, shared)
	b := newTestComponent(t, shared)

	ea, err := a.Endpoint("orders", types.ScopeShared, fastPoll)
	require.NoError(t, err)
	_, err = ea.Register(context.Background(), upperCase)
	require.NoError(t, err)

	eb, err := b.Endpoint("orders", types.ScopeShared,
		WithProducerOptions(controller.WithFailIfNoConsumers(true), controller.WithTimeout(2*time.Second)))
	require.NoError(t, err)
	p, err := eb.NewProducer()
	require.NoError(t, err)

	ex, err := p.Publish(context.Background(), "hello", types.RequestReply)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", ex.Body(), "the reply must carry the consumer's result")
	assert.Equal(t, 2, eb.Registrations(), "both components register on the same shared entry")
}

func TestEndpoint_Diagnostics(t *testing.T) {
	t.Parallel()
	c := newTestComponent(t, nil)
	e, err := c.Endpoint("audit", types.ScopeLocal, WithCapacity(4))
	require.NoError(t, err)

	p, err := e.NewProducer()
	require.NoError(t, err)
	for range 3 {
		_, err := p.Publish(context.Background(), "x", types.FireAndForget)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, e.QueueDepth())
	assert.Equal(t, 1, e.Registrations())
	snaps := c.Snapshot()
	require.Len(t, snaps, 1)
	assert.Equal(t, e.Key(), snaps[0].Key)
	assert.Equal(t, 4, snaps[0].Capacity)

	require.NoError(t, e.CloseProducer(p))
	_, live := e.Stats()
	assert.False(t, live, "closing the last producer must tear the entry down")
	assert.Zero(t, e.QueueDepth())
}

func TestConsumerHandle(t *testing.T) {
	t.Parallel()
	c := newTestComponent(t, nil)
	e, err := c.Endpoint("work", types.ScopeLocal, fastPoll)
	require.NoError(t, err)

	h, err := e.Register(context.Background(), upperCase)
	require.NoError(t, err)
	assert.Equal(t, []string{h.ID()}, c.ConsumerIDs())

	h.Suspend()
	assert.True(t, h.Stats().Suspended)
	h.Resume()
	assert.False(t, h.Stats().Suspended)

	require.NoError(t, h.Stop())
	assert.Empty(t, c.ConsumerIDs(), "a stopped consumer must no longer be tracked")
	assert.ErrorIs(t, h.Stop(), types.ErrLifecycleMisuse)
}

func TestEndpoint_Register_RejectsNilProcessor(t *testing.T) {
	t.Parallel()
	c := newTestComponent(t, nil)
	e, err := c.Endpoint("work", types.ScopeLocal)
	require.NoError(t, err)
	_, err = e.Register(context.Background(), nil)
	assert.Error(t, err)
	assert.Empty(t, c.ConsumerIDs())
}

func TestComponent_Close(t *testing.T) {
	t.Parallel()
	shared := newSharedRegistry(t)
	c, err := NewComponent(shared, logr.Discard())
	require.NoError(t, err)

	local, err := c.Endpoint("l", types.ScopeLocal, fastPoll)
	require.NoError(t, err)
	remote, err := c.Endpoint("s", types.ScopeShared, fastPoll)
	require.NoError(t, err)

	h, err := local.Register(context.Background(), upperCase)
	require.NoError(t, err)
	_, err = remote.Register(context.Background(), upperCase)
	require.NoError(t, err)
	p, err := remote.NewProducer()
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close must be idempotent")

	assert.Empty(t, shared.Keys(), "closing a component must release its shared registrations")
	assert.Empty(t, c.ConsumerIDs())
	assert.ErrorIs(t, h.Stop(), types.ErrLifecycleMisuse, "the component already stopped this consumer")
	assert.ErrorIs(t, p.Close(), types.ErrLifecycleMisuse, "the component already closed this producer")

	_, err = local.NewProducer()
	assert.ErrorIs(t, err, types.ErrRegistryClosed, "the local registry is closed with the component")
	_, err = remote.NewProducer()
	assert.ErrorIs(t, err, types.ErrEndpointNotActive, "a closed component must refuse new producers")
	assert.Empty(t, shared.Keys(), "a refused producer must not leak a registration")
}

// queueDepthSeries returns the seda_queue_depth value reported by the named registry for a queue.
func queueDepthSeries(t *testing.T, registryName, queueName string) (float64, bool) {
	t.Helper()
	families, err := crmetrics.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "seda_queue_depth" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["registry"] == registryName && labels["queue"] == queueName {
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}

func TestComponent_MetricsAreScopedPerInstance(t *testing.T) {
	t.Parallel()
	metrics.Register()
	a := newTestComponent(t, nil)
	b := newTestComponent(t, nil)
	require.NotEqual(t, a.Name(), b.Name(), "each component's local registry needs its own name")

	ea, err := a.Endpoint("orders", types.ScopeLocal)
	require.NoError(t, err)
	eb, err := b.Endpoint("orders", types.ScopeLocal)
	require.NoError(t, err)
	pa, err := ea.NewProducer()
	require.NoError(t, err)
	pb, err := eb.NewProducer()
	require.NoError(t, err)

	_, err = pa.Publish(context.Background(), "a1", types.FireAndForget)
	require.NoError(t, err)
	for _, body := range []string{"b1", "b2"} {
		_, err = pb.Publish(context.Background(), body, types.FireAndForget)
		require.NoError(t, err)
	}
	depth, ok := queueDepthSeries(t, a.Name(), "orders")
	require.True(t, ok)
	assert.Equal(t, 1.0, depth)
	depth, ok = queueDepthSeries(t, b.Name(), "orders")
	require.True(t, ok)
	assert.Equal(t, 2.0, depth)

	require.NoError(t, ea.CloseProducer(pa), "closing the only handle tears A's entry down")
	_, ok = queueDepthSeries(t, a.Name(), "orders")
	assert.False(t, ok, "A's series must go with its entry")
	depth, ok = queueDepthSeries(t, b.Name(), "orders")
	require.True(t, ok, "B's series must survive the teardown of A's entry of the same name")
	assert.Equal(t, 2.0, depth)
	assert.Equal(t, 2, eb.QueueDepth())
}

func TestEndpoint_Register_CloseDuringStart(t *testing.T) {
	t.Parallel()
	shared := newSharedRegistry(t)
	c, err := NewComponent(shared, logging.NewTestLogger())
	require.NoError(t, err)
	c.beforeConsumerStart = func() { require.NoError(t, c.Close()) }

	e, err := c.Endpoint("orders", types.ScopeShared, fastPoll)
	require.NoError(t, err)
	h, err := e.Register(context.Background(), upperCase)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, types.ErrEndpointNotActive)
	assert.Empty(t, shared.Keys(), "a consumer started while the component closed must not keep its registration")
	assert.Empty(t, c.ConsumerIDs())
}
