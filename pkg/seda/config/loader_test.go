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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/apache/camel-sub208/pkg/seda/contracts"
	"github.com/apache/camel-sub208/pkg/seda/controller"
	"github.com/apache/camel-sub208/pkg/seda/endpoint"
	"github.com/apache/camel-sub208/pkg/seda/registry"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

const fullConfigText = `
defaults:
  capacity: 500
  queueFactory: RingQueue
endpoints:
- name: orders
  scope: shared
  producer:
    blockWhenFull: true
    offerTimeout: 250ms
    waitForTaskToComplete: Always
    timeout: 2s
  consumer:
    concurrentConsumers: 4
    pollTimeout: 100ms
    purgeWhenStopping: true
- name: audit
  capacity: 10
  multipleConsumers: true
  queueFactory: ListQueue
  producer:
    discardIfNoConsumers: true
    timeout: 0s
`

func TestLoad_FullConfiguration(t *testing.T) {
	t.Parallel()

	got, err := Load([]byte(fullConfigText), logr.Discard())
	require.NoError(t, err)

	want := &Config{
		Defaults: Defaults{Capacity: 500, QueueFactory: "RingQueue"},
		Endpoints: []EndpointSpec{
			{
				Name:         "orders",
				Scope:        "shared",
				Capacity:     500,
				QueueFactory: "RingQueue",
				Producer: &ProducerSpec{
					BlockWhenFull:         true,
					OfferTimeout:          ptr.To(metav1.Duration{Duration: 250 * time.Millisecond}),
					WaitForTaskToComplete: "Always",
					Timeout:               ptr.To(metav1.Duration{Duration: 2 * time.Second}),
				},
				Consumer: &ConsumerSpec{
					ConcurrentConsumers: 4,
					PollTimeout:         ptr.To(metav1.Duration{Duration: 100 * time.Millisecond}),
					PurgeWhenStopping:   true,
				},
			},
			{
				Name:              "audit",
				Scope:             "local",
				Capacity:          10,
				MultipleConsumers: true,
				QueueFactory:      "ListQueue",
				Producer: &ProducerSpec{
					DiscardIfNoConsumers: true,
					Timeout:              ptr.To(metav1.Duration{}),
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, types.ScopeShared, got.Endpoints[0].QueueScope())
	assert.Equal(t, types.ScopeLocal, got.Endpoints[1].QueueScope())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		configText string
		errText    string
	}{
		{
			name:       "NotYAML",
			configText: "endpoints: [",
			errText:    "the configuration is invalid",
		},
		{
			name:       "UnknownField",
			configText: "endpoints:\n- name: a\n  capacty: 3\n",
			errText:    "capacty",
		},
		{
			name:       "MissingName",
			configText: "endpoints:\n- scope: local\n",
			errText:    "endpoints[0] is missing a name",
		},
		{
			name:       "DuplicateName",
			configText: "endpoints:\n- name: a\n- name: a\n  scope: local\n",
			errText:    "duplicate name 'a'",
		},
		{
			name:       "BadScope",
			configText: "endpoints:\n- name: a\n  scope: global\n",
			errText:    "endpoints[0] (a) is invalid",
		},
		{
			name:       "NegativeCapacity",
			configText: "endpoints:\n- name: a\n  capacity: -2\n",
			errText:    "capacity must not be negative",
		},
		{
			name:       "UnknownFactory",
			configText: "endpoints:\n- name: a\n  queueFactory: Heap\n",
			errText:    `queueFactory "Heap" is not registered`,
		},
		{
			name:       "UnknownDefaultFactory",
			configText: "defaults:\n  queueFactory: Heap\nendpoints: []\n",
			errText:    "defaults.queueFactory",
		},
		{
			name:       "BadWaitPolicy",
			configText: "endpoints:\n- name: a\n  producer:\n    waitForTaskToComplete: Sometimes\n",
			errText:    "Sometimes",
		},
		{
			name:       "ConflictingNoConsumerPolicies",
			configText: "endpoints:\n- name: a\n  producer:\n    failIfNoConsumers: true\n    discardIfNoConsumers: true\n",
			errText:    "mutually exclusive",
		},
		{
			name:       "TooManyWorkers",
			configText: "endpoints:\n- name: a\n  consumer:\n    concurrentConsumers: 9\n    limitConcurrentConsumers: 3\n",
			errText:    "cannot exceed",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load([]byte(tc.configText), logr.Discard())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errText)
		})
	}
}

func TestLoad_SameNameInDifferentScopes(t *testing.T) {
	t.Parallel()
	cfg, err := Load([]byte("endpoints:\n- name: a\n- name: a\n  scope: shared\n"), logr.Discard())
	require.NoError(t, err, "local and shared queues have separate namespaces")
	assert.Len(t, cfg.Endpoints, 2)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "seda.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullConfigText), 0o600))

	cfg, err := LoadFile(path, logr.Discard())
	require.NoError(t, err)
	assert.Len(t, cfg.Endpoints, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), logr.Discard())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEndpointSpec_Options(t *testing.T) {
	t.Parallel()
	cfg, err := Load([]byte(fullConfigText), logr.Discard())
	require.NoError(t, err)

	opts, err := cfg.Endpoints[0].Options()
	require.NoError(t, err)
	o := &endpoint.Options{}
	for _, opt := range opts {
		opt(o)
	}

	assert.Equal(t, contracts.QueueSpec{Capacity: 500, QueueFactory: "RingQueue"}, o.Queue)

	gotProducer, err := controller.NewProducerConfig(o.Producer...)
	require.NoError(t, err)
	wantProducer, err := controller.NewProducerConfig(
		controller.WithBlockWhenFull(true),
		controller.WithOfferTimeout(250*time.Millisecond),
		controller.WithWaitForTaskToComplete(types.WaitAlways),
		controller.WithTimeout(2*time.Second),
	)
	require.NoError(t, err)
	if diff := cmp.Diff(wantProducer, gotProducer); diff != "" {
		t.Errorf("producer config mismatch (-want +got):\n%s", diff)
	}

	gotConsumer, err := controller.NewConsumerConfig(o.Consumer...)
	require.NoError(t, err)
	wantConsumer, err := controller.NewConsumerConfig(
		controller.WithConcurrentConsumers(4),
		controller.WithPollTimeout(100*time.Millisecond),
		controller.WithPurgeWhenStopping(true),
	)
	require.NoError(t, err)
	if diff := cmp.Diff(wantConsumer, gotConsumer); diff != "" {
		t.Errorf("consumer config mismatch (-want +got):\n%s", diff)
	}
}

func TestEndpointSpec_Options_ZeroTimeoutDisablesBound(t *testing.T) {
	t.Parallel()
	cfg, err := Load([]byte(fullConfigText), logr.Discard())
	require.NoError(t, err)

	opts, err := cfg.Endpoints[1].Options()
	require.NoError(t, err)
	o := &endpoint.Options{}
	for _, opt := range opts {
		opt(o)
	}
	pc, err := controller.NewProducerConfig(o.Producer...)
	require.NoError(t, err)
	assert.Nil(t, pc.Timeout, "a zero timeout must wait without a bound")
	assert.True(t, pc.DiscardIfNoConsumers)
	assert.Empty(t, o.Consumer, "an endpoint without a consumer section carries no consumer options")
}

func TestConfig_RegistryOptions(t *testing.T) {
	t.Parallel()
	cfg, err := Load([]byte(fullConfigText), logr.Discard())
	require.NoError(t, err)

	got, err := registry.NewConfig(cfg.RegistryOptions()...)
	require.NoError(t, err)
	want, err := registry.NewConfig(registry.WithDefaultCapacity(500), registry.WithDefaultQueue("RingQueue"))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("registry config mismatch (-want +got):\n%s", diff)
	}

	empty := &Config{}
	assert.Empty(t, empty.RegistryOptions())
}
