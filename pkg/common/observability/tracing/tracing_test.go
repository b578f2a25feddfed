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

package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewSampler(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		samplerType string
		arg         string
		wantDesc    string
		wantErr     bool
	}{
		{name: "Default", wantDesc: "ParentBased{root:TraceIDRatioBased{0.1}"},
		{name: "ExplicitRatio", samplerType: "parentbased_traceidratio", arg: "0.5",
			wantDesc: "ParentBased{root:TraceIDRatioBased{0.5}"},
		{name: "BadArg", arg: "half", wantDesc: "ParentBased{root:TraceIDRatioBased{0.1}", wantErr: true},
		{name: "UnsupportedType", samplerType: "always_on", wantDesc: "ParentBased{root:TraceIDRatioBased{0.1}",
			wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s, err := newSampler(tc.samplerType, tc.arg)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			require.NotNil(t, s, "a sampler must always be returned")
			assert.Contains(t, s.Description(), tc.wantDesc)
		})
	}
}

func TestNewExporter_Console(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	exp, err := newExporter(context.Background(), "", &buf, logr.Discard())
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	_, span := tp.Tracer("test").Start(context.Background(), "seda.publish")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name": "seda.publish"`, "the console exporter must write the finished span")
}

func TestNewExporter_Unsupported(t *testing.T) {
	t.Parallel()
	_, err := newExporter(context.Background(), "zipkin", &bytes.Buffer{}, logr.Discard())
	assert.ErrorContains(t, err, "zipkin")
}
