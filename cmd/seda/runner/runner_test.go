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

package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	testclock "k8s.io/utils/clock/testing"

	"github.com/apache/camel-sub208/pkg/seda/config"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

func TestDemoProcessor(t *testing.T) {
	t.Parallel()
	p := newDemoProcessor(0, clock.RealClock{})

	ex := types.NewExchange(types.RequestReply, "hello")
	require.NoError(t, p.Process(context.Background(), ex))
	assert.Equal(t, "HELLO", ex.Body())

	assert.ErrorContains(t, p.Process(context.Background(), types.NewExchange(types.FireAndForget, 42)),
		"unsupported body type int")
}

func TestDemoProcessor_Latency(t *testing.T) {
	t.Parallel()
	fc := testclock.NewFakeClock(time.Now())
	p := newDemoProcessor(time.Second, fc)
	ex := types.NewExchange(types.RequestReply, "slow")

	done := make(chan error, 1)
	go func() { done <- p.Process(context.Background(), ex) }()

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond, "processor must wait on the clock")
	select {
	case <-done:
		t.Fatal("processor finished before the latency elapsed")
	default:
	}
	fc.Step(time.Second)
	require.NoError(t, <-done)
	assert.Equal(t, "SLOW", ex.Body())
}

func TestDemoProcessor_LatencyCancelled(t *testing.T) {
	t.Parallel()
	p := newDemoProcessor(time.Hour, testclock.NewFakeClock(time.Now()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Process(ctx, types.NewExchange(types.FireAndForget, "x")), context.Canceled)
}

const runnerConfigText = `
endpoints:
- name: orders
  scope: shared
  producer:
    failIfNoConsumers: true
    timeout: 2s
  consumer:
    concurrentConsumers: 2
    pollTimeout: 20ms
- name: audit
  consumer:
    pollTimeout: 20ms
`

func loadTestConfig(t *testing.T, text string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	cfg, err := config.LoadFile(path, logr.Discard())
	require.NoError(t, err, "Setup: loading config should not fail")
	return cfg
}

func TestRunner_SetupAndPublish(t *testing.T) {
	t.Parallel()
	cfg := loadTestConfig(t, runnerConfigText)
	opts := NewOptions()
	opts.PublishRate = 1000
	opts.PublishBurst = 10
	opts.Pattern = types.RequestReply.String()
	require.NoError(t, opts.Complete())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := NewRunner().setup(ctx, cfg, opts, logr.Discard())
	require.NoError(t, err)
	require.Len(t, a.consumers, 2, "both endpoints configure a consumer")
	require.Len(t, a.producers, 1, "only orders configures a producer")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, a.publishLoop(ctx, a.producers[0]))
	}()

	orders := a.consumers[0]
	require.Eventually(t, func() bool { return orders.Stats().Processed >= 5 }, 5*time.Second, 10*time.Millisecond,
		"the demo workload must flow through the orders consumer")
	assert.Zero(t, orders.Stats().Failed)
	assert.Zero(t, a.consumers[1].Stats().Processed, "nothing publishes to audit")

	cancel()
	wg.Wait()
	a.shutdown()
	assert.Empty(t, a.shared.Keys(), "shutdown must release every shared registration")
	assert.Empty(t, a.component.ConsumerIDs())
}

func TestRunner_ProducerWithoutConsumer(t *testing.T) {
	t.Parallel()
	cfg := loadTestConfig(t, `
endpoints:
- name: orders
  producer:
    failIfNoConsumers: true
`)
	opts := NewOptions()
	require.NoError(t, opts.Complete())

	a, err := NewRunner().setup(context.Background(), cfg, opts, logr.Discard())
	require.NoError(t, err, "a producer is not refused at construction, only at publish time")
	defer a.shutdown()

	_, err = a.producers[0].producer.Publish(context.Background(), "x", types.FireAndForget)
	assert.ErrorIs(t, err, types.ErrNoConsumers)
}
