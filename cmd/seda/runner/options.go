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
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	uberzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/seda/types"
)

const (
	DefaultMetricsPort  = 9090
	ZapLogLevelFlagName = "zap-log-level"
)

// Options contains the command-line configuration for the seda runner.
type Options struct {
	//
	// Endpoints.
	//
	ConfigFile string // Path of the endpoint YAML file.
	//
	// Demo workload.
	//
	PublishRate       float64       // Messages per second published to each producer endpoint.
	PublishBurst      int           // Token bucket burst of the publish limiter.
	Pattern           string        // Exchange pattern used by the demo producers.
	ProcessingLatency time.Duration // Simulated work per exchange in the demo processor.
	//
	// Diagnostics.
	//
	LogVerbosity int         // Number for the log level verbosity.
	ZapOptions   zap.Options // Zap logging options.
	MetricsPort  int         // The metrics port exposed by the runner.
	EnablePprof  bool        // Enables pprof handlers.
	Tracing      bool        // Enables OpenTelemetry tracing.

	// internal
	fs      *pflag.FlagSet
	pattern types.Pattern
}

// NewOptions returns a new Options struct initialized with default values.
func NewOptions() *Options {
	return &Options{
		PublishRate:  10,
		PublishBurst: 1,
		Pattern:      types.FireAndForget.String(),
		LogVerbosity: logging.DEFAULT,
		ZapOptions:   zap.Options{Development: true},
		MetricsPort:  DefaultMetricsPort,
		EnablePprof:  true,
	}
}

// AddFlags binds the Options fields to command-line flags on the given FlagSet.
func (opts *Options) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}
	opts.fs = fs

	fs.StringVar(&opts.ConfigFile, "config-file", opts.ConfigFile,
		"Path of the YAML file describing the queue endpoints.")
	fs.Float64Var(&opts.PublishRate, "publish-rate", opts.PublishRate,
		"Messages per second published to each endpoint that has a producer section.")
	fs.IntVar(&opts.PublishBurst, "publish-burst", opts.PublishBurst,
		"Burst size of the publish rate limiter.")
	fs.StringVar(&opts.Pattern, "pattern", opts.Pattern,
		"Exchange pattern of published messages: FireAndForget or RequestReply.")
	fs.DurationVar(&opts.ProcessingLatency, "processing-latency", opts.ProcessingLatency,
		"Simulated processing time per exchange in the demo consumer.")
	fs.IntVar(&opts.MetricsPort, "metrics-port", opts.MetricsPort,
		"The metrics port exposed by the runner.")
	fs.BoolVar(&opts.EnablePprof, "enable-pprof", opts.EnablePprof,
		"Enables pprof handlers. Defaults to true. Set to false to disable pprof handlers.")
	fs.BoolVar(&opts.Tracing, "tracing", opts.Tracing,
		"Enables OpenTelemetry tracing, configured through the OTEL_* environment variables.")
	fs.IntVarP(&opts.LogVerbosity, "v", "v", opts.LogVerbosity,
		"Number for the log level verbosity.")

	// Bind zap flags (zap expects a standard Go FlagSet; pflag.FlagSet is not compatible).
	gofs := flag.NewFlagSet("zap", flag.ExitOnError)
	opts.ZapOptions.BindFlags(gofs)
	fs.AddGoFlagSet(gofs)
}

// Complete performs post-processing of parsed command-line arguments.
func (opts *Options) Complete() error {
	// Derive the zap log level from the -v flag when --zap-log-level is not set explicitly.
	if opts.fs != nil {
		zapLogLevelFlag := opts.fs.Lookup(ZapLogLevelFlagName)
		if zapLogLevelFlag != nil && !zapLogLevelFlag.Changed {
			// See https://pkg.go.dev/sigs.k8s.io/controller-runtime/pkg/log/zap#Options.Level
			lvl := -1 * (opts.LogVerbosity)
			opts.ZapOptions.Level = uberzap.NewAtomicLevelAt(zapcore.Level(int8(lvl)))
			zapLogLevelFlag.Changed = true
		}
	}

	switch opts.Pattern {
	case types.FireAndForget.String():
		opts.pattern = types.FireAndForget
	case types.RequestReply.String():
		opts.pattern = types.RequestReply
	default:
		return fmt.Errorf("invalid value %q for flag %q: must be %s or %s", opts.Pattern, "pattern",
			types.FireAndForget, types.RequestReply)
	}
	return nil
}

// Validate checks the Options for invalid or conflicting values.
func (opts *Options) Validate() error {
	if opts.ConfigFile == "" {
		return errors.New("flag \"config-file\" is required")
	}
	if opts.MetricsPort < 1 || opts.MetricsPort > 65535 {
		return fmt.Errorf("invalid value %d for flag %q: must be between 1 and 65535", opts.MetricsPort, "metrics-port")
	}
	if opts.PublishRate <= 0 {
		return fmt.Errorf("invalid value %v for flag %q: must be positive", opts.PublishRate, "publish-rate")
	}
	if opts.PublishBurst < 1 {
		return fmt.Errorf("invalid value %d for flag %q: must be >= 1", opts.PublishBurst, "publish-burst")
	}
	if opts.ProcessingLatency < 0 {
		return fmt.Errorf("invalid value %v for flag %q: must be >= 0", opts.ProcessingLatency, "processing-latency")
	}
	if opts.LogVerbosity < 0 {
		return fmt.Errorf("invalid value %d for flag %q: must be >= 0", opts.LogVerbosity, "v")
	}
	return nil
}
