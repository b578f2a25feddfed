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

package controller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	testclock "k8s.io/utils/clock/testing"

	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/contracts/mocks"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

func TestNewConsumer_Validation(t *testing.T) {
	t.Parallel()
	qr := newTestRegistry(t)

	_, err := NewConsumer(qr, testKey(t), contracts.QueueSpec{}, nil, nil, logr.Discard())
	assert.Error(t, err, "a nil process function must be rejected")

	_, err = NewConsumer(qr, testKey(t), contracts.QueueSpec{}, &ConsumerConfig{}, upperCase, logr.Discard())
	assert.Error(t, err, "an invalid config must be rejected")

	c, err := NewConsumer(qr, testKey(t), contracts.QueueSpec{}, nil, upperCase, logr.Discard())
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, testKey(t), c.Key())
	_, ok := qr.Lookup(testKey(t))
	assert.False(t, ok, "a consumer must not register before Start")
}

func TestConsumer_Lifecycle(t *testing.T) {
	t.Parallel()
	qr := newTestRegistry(t)
	key := testKey(t)

	c, err := NewConsumer(qr, key, contracts.QueueSpec{}, nil, upperCase, logr.Discard())
	require.NoError(t, err)
	assert.ErrorIs(t, c.Stop(), types.ErrLifecycleMisuse, "stopping a consumer that never started is a misuse")

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), types.ErrLifecycleMisuse, "starting twice is a misuse")
	snap, ok := qr.Stats(key)
	require.True(t, ok)
	assert.Equal(t, 1, snap.Registrations)
	assert.Equal(t, []string{c.ID()}, snap.Consumers)
	assert.Equal(t, 1, c.Stats().Workers)

	require.NoError(t, c.Stop())
	_, ok = qr.Lookup(key)
	assert.False(t, ok, "stopping the only consumer must tear the entry down")
	assert.Zero(t, c.Stats().Workers)
	assert.ErrorIs(t, c.Stop(), types.ErrLifecycleMisuse, "stopping twice is a misuse")
}

func TestConsumer_ConcurrentWorkers(t *testing.T) {
	t.Parallel()
	qr := newTestRegistry(t)
	key := testKey(t)
	const workers = 4

	var active, peak atomic.Int32
	release := make(chan struct{})
	c := startTestConsumer(t, qr, key, contracts.QueueSpec{}, func(context.Context, *types.Exchange) error {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		<-release
		active.Add(-1)
		return nil
	}, WithConcurrentConsumers(workers))
	t.Cleanup(func() { close(release) })

	p := newTestProducer(t, qr, key, contracts.QueueSpec{})
	for range workers {
		_, err := p.Publish(context.Background(), "x", types.FireAndForget)
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return c.Stats().InFlight == workers }, testWait, 5*time.Millisecond,
		"every worker must take an exchange concurrently")
	assert.Equal(t, int32(workers), peak.Load())
	assert.Equal(t, workers, c.Stats().Workers)
}

func TestConsumer_SuspendResume(t *testing.T) {
	t.Parallel()
	qr := newTestRegistry(t)
	key := testKey(t)
	rec := &recorder{}
	c := startTestConsumer(t, qr, key, contracts.QueueSpec{}, rec.process)
	p := newTestProducer(t, qr, key, contracts.QueueSpec{})

	c.Suspend()
	c.Suspend() // idempotent
	assert.True(t, c.Stats().Suspended)
	time.Sleep(60 * time.Millisecond)

	_, err := p.Publish(context.Background(), "held", types.FireAndForget)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.seen(), "a suspended consumer must not take new exchanges")
	snap, _ := qr.Stats(key)
	assert.Equal(t, 1, snap.Depth, "pending exchanges stay queued while suspended")
	assert.Equal(t, 2, snap.Registrations, "suspension keeps the registration")

	c.Resume()
	assert.False(t, c.Stats().Suspended)
	require.Eventually(t, func() bool { return len(rec.seen()) == 1 }, testWait, 5*time.Millisecond)
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestConsumer_PurgeWhenStopping(t *testing.T) {
	t.Parallel()

	for _, purge := range []bool{true, false} {
		name := "Keep"
		if purge {
			name = "Purge"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			qr := newTestRegistry(t)
			key := testKey(t)
			c := startTestConsumer(t, qr, key, contracts.QueueSpec{}, upperCase, WithPurgeWhenStopping(purge))
			p := newTestProducer(t, qr, key, contracts.QueueSpec{}, WithTimeout(time.Second))
			c.Suspend()
			time.Sleep(60 * time.Millisecond)

			done := make(chan error, 1)
			go func() {
				_, err := p.Publish(context.Background(), "pending", types.RequestReply)
				done <- err
			}()
			require.Eventually(t, func() bool {
				snap, _ := qr.Stats(key)
				return snap.Depth == 1
			}, testWait, 5*time.Millisecond)

			require.NoError(t, c.Stop())
			err := <-done
			if purge {
				assert.ErrorIs(t, err, types.ErrEvicted)
				assert.ErrorIs(t, err, types.ErrConsumerStopped)
				snap, _ := qr.Stats(key)
				assert.Zero(t, snap.Depth)
				return
			}
			assert.ErrorIs(t, err, types.ErrCompletionTimeout, "without purge the exchange stays queued for a later consumer")
			snap, _ := qr.Stats(key)
			assert.Equal(t, 1, snap.Depth)
		})
	}
}

func TestConsumer_StopAfterRegistryClose(t *testing.T) {
	t.Parallel()
	qr := newTestRegistry(t)
	key := testKey(t)
	c := startTestConsumer(t, qr, key, contracts.QueueSpec{}, upperCase)
	qr.Close()
	assert.NoError(t, c.Stop(), "a consumer whose entry was torn down stops cleanly")
}

func TestConsumer_StartFailures(t *testing.T) {
	t.Parallel()

	t.Run("AcquireFails", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		qr := &mocks.MockQueueRegistry{
			AcquireFunc: func(types.QueueKey, contracts.QueueSpec) (contracts.QueueReference, error) { return nil, boom },
		}
		c, err := NewConsumer(qr, types.QueueKey{Name: "q"}, contracts.QueueSpec{}, nil, upperCase, logr.Discard())
		require.NoError(t, err)
		assert.ErrorIs(t, c.Start(context.Background()), boom)
	})

	t.Run("SubscribeFailsReleases", func(t *testing.T) {
		t.Parallel()
		ref := &mocks.MockQueueReference{
			SubscribeFunc: func(string) error { return types.ErrEndpointNotActive },
		}
		qr := &mocks.MockQueueRegistry{
			AcquireFunc: func(types.QueueKey, contracts.QueueSpec) (contracts.QueueReference, error) { return ref, nil },
		}
		c, err := NewConsumer(qr, types.QueueKey{Name: "q"}, contracts.QueueSpec{}, nil, upperCase, logr.Discard())
		require.NoError(t, err)
		assert.ErrorIs(t, c.Start(context.Background()), types.ErrEndpointNotActive)
		acquires, releases := qr.Calls()
		assert.Equal(t, 1, acquires)
		assert.Equal(t, 1, releases, "a failed subscribe must give back the registration")
	})
}

func TestConsumer_Tracing(t *testing.T) {
	t.Parallel()
	qr := newTestRegistry(t)
	key := testKey(t)
	spans := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")

	cfg, err := NewConsumerConfig(WithPollTimeout(20 * time.Millisecond))
	require.NoError(t, err)
	c, err := NewConsumer(qr, key, contracts.QueueSpec{}, cfg, upperCase, logr.Discard(),
		withConsumerTracer(tracer), withConsumerClock(testclock.NewFakeClock(time.Now())))
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Stop() })

	p := newTestProducer(t, qr, key, contracts.QueueSpec{})
	ex, err := p.Publish(context.Background(), "traced", types.RequestReply)
	require.NoError(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "seda.process", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("seda.exchange_id", ex.ID()))
	assert.Contains(t, ended[0].Attributes(), attribute.String("seda.consumer_id", c.ID()))
}
