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

// Package tracing bootstraps the process-wide OpenTelemetry tracer provider.
//
// Exporter and sampler follow the standard OTEL_* environment variables:
//   - OTEL_TRACES_EXPORTER: "console" (default, pretty-printed to stdout) or "otlp" (gRPC).
//   - OTEL_TRACES_SAMPLER / OTEL_TRACES_SAMPLER_ARG: only "parentbased_traceidratio" is supported.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/version"
)

const (
	defaultSamplerType = "parentbased_traceidratio"
	defaultSamplerRate = 0.1
)

type errorHandler struct {
	logger logr.Logger
}

func (h *errorHandler) Handle(err error) {
	h.logger.V(logging.DEFAULT).Error(err, "trace error occurred")
}

// Init installs a batching tracer provider as the global provider and shuts it down when ctx ends.
func Init(ctx context.Context, logger logr.Logger) error {
	logger = logger.WithName("trace")
	handler := &errorHandler{logger: logger}

	if _, ok := os.LookupEnv("OTEL_SERVICE_NAME"); !ok {
		os.Setenv("OTEL_SERVICE_NAME", version.ServiceName)
	}
	if _, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_ENDPOINT"); !ok {
		os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")
	}

	exporter, err := newExporter(ctx, os.Getenv("OTEL_TRACES_EXPORTER"), os.Stdout, logger)
	if err != nil {
		handler.Handle(fmt.Errorf("init trace exporter failed: %w", err))
		return err
	}

	sampler, err := newSampler(os.Getenv("OTEL_TRACES_SAMPLER"), os.Getenv("OTEL_TRACES_SAMPLER_ARG"))
	if err != nil {
		handler.Handle(err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceVersionKey.String(version.BuildRef),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetErrorHandler(handler)

	go func() {
		<-ctx.Done()
		if err := tp.Shutdown(context.Background()); err != nil {
			handler.Handle(fmt.Errorf("failed to shutdown TracerProvider: %w", err))
		}
		logger.V(logging.DEFAULT).Info("trace provider shutting down")
	}()
	return nil
}

// newExporter creates a SpanExporter for the given exporter type. An empty type selects the console exporter, which
// writes to w.
func newExporter(ctx context.Context, exporterType string, w io.Writer, logger logr.Logger) (sdktrace.SpanExporter, error) {
	if exporterType == "" {
		exporterType = "console"
	}
	logger.Info("init OTel trace exporter", "type", exporterType)
	switch exporterType {
	case "console":
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdouttrace exporter: %w", err)
		}
		return exp, nil
	case "otlp":
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp-grpc exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter type %q", exporterType)
	}
}

// newSampler builds the sampler named by samplerType. The Go SDK has no automatic sampler configuration, so the
// environment is handled here. Unsupported input falls back to the default sampler and is reported as an error.
func newSampler(samplerType, arg string) (sdktrace.Sampler, error) {
	fallback := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(defaultSamplerRate))
	if samplerType == "" {
		samplerType = defaultSamplerType
	}
	if samplerType != defaultSamplerType {
		return fallback, fmt.Errorf("unsupported sampler type: %s, fallback to %s with %v ratio", samplerType,
			defaultSamplerType, defaultSamplerRate)
	}
	if arg == "" {
		return fallback, nil
	}
	fraction, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return fallback, fmt.Errorf("invalid sampler argument %q, fallback to %v ratio: %w", arg, defaultSamplerRate, err)
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(fraction)), nil
}
