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
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	"github.com/apache/camel-sub208/pkg/common/observability/logging"
	"github.com/apache/camel-sub208/pkg/common/observability/profiling"
	"github.com/apache/camel-sub208/pkg/common/observability/tracing"
	"github.com/apache/camel-sub208/pkg/seda/config"
	"github.com/apache/camel-sub208/pkg/seda/controller"
	"github.com/apache/camel-sub208/pkg/seda/endpoint"
	"github.com/apache/camel-sub208/pkg/seda/metrics"
	"github.com/apache/camel-sub208/pkg/seda/registry"
	"github.com/apache/camel-sub208/pkg/seda/types"
	"github.com/apache/camel-sub208/version"
)

var setupLog = ctrl.Log.WithName("setup")

func NewRunner() *Runner {
	return &Runner{
		exeName: "seda",
		clock:   clock.RealClock{},
	}
}

// Runner wires the endpoints of a configuration file to demo producers and consumers.
type Runner struct {
	exeName string
	clock   clock.Clock
}

// WithExecutableName sets the name of the executable containing the runner.
// The name is used in the version log upon startup and is otherwise opaque.
func (r *Runner) WithExecutableName(exeName string) *Runner {
	r.exeName = exeName
	return r
}

// Run parses the process flags and runs until ctx ends.
func (r *Runner) Run(ctx context.Context) error {
	opts := NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()
	if err := opts.Complete(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		setupLog.Error(err, "Failed to validate flags")
		return err
	}
	logging.InitLogging(&opts.ZapOptions)
	return r.RunWithOptions(ctx, opts)
}

// RunWithOptions runs with already completed and validated options until ctx ends.
func (r *Runner) RunWithOptions(ctx context.Context, opts *Options) error {
	setupLog.Info(r.exeName+" build", "commit-sha", version.CommitSHA, "build-ref", version.BuildRef)
	if opts.fs != nil {
		flags := make(map[string]any)
		opts.fs.VisitAll(func(f *pflag.Flag) {
			flags[f.Name] = f.Value
		})
		setupLog.Info("Flags processed", "flags", flags)
	}

	if opts.Tracing {
		if err := tracing.Init(ctx, setupLog); err != nil {
			setupLog.Error(err, "Failed to init tracing")
			return err
		}
	}

	cfg, err := config.LoadFile(opts.ConfigFile, setupLog)
	if err != nil {
		setupLog.Error(err, "Failed to load endpoint configuration")
		return err
	}

	metrics.Register()
	a, err := r.setup(ctx, cfg, opts, ctrl.Log.WithName("seda"))
	if err != nil {
		setupLog.Error(err, "Failed to wire endpoints")
		return err
	}
	defer a.shutdown()

	serverOpts := metricsserver.Options{BindAddress: fmt.Sprintf(":%d", opts.MetricsPort)}
	if opts.EnablePprof {
		setupLog.Info("Setting pprof handlers")
		serverOpts.ExtraHandlers = profiling.Handlers()
	}
	metricsServer, err := metricsserver.NewServer(serverOpts, nil, http.DefaultClient)
	if err != nil {
		setupLog.Error(err, "Failed to create metrics server")
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return metricsServer.Start(gctx) })
	for _, p := range a.producers {
		g.Go(func() error { return a.publishLoop(gctx, p) })
	}

	setupLog.Info("Runner started", "consumers", len(a.consumers), "producers", len(a.producers))
	if err := g.Wait(); err != nil {
		setupLog.Error(err, "Runner failed")
		return err
	}
	setupLog.Info("Runner terminated")
	return nil
}

// app holds everything wired from one configuration.
type app struct {
	shared    *registry.QueueRegistry
	component *endpoint.Component
	consumers []*endpoint.ConsumerHandle
	producers []*demoProducer
	pattern   types.Pattern
	logger    logr.Logger
}

type demoProducer struct {
	endpoint *endpoint.Endpoint
	producer *controller.Producer
	limiter  *rate.Limiter
}

// setup builds the registries and starts a consumer and a producer for each endpoint that configures one. Consumers
// start before producers so that failIfNoConsumers endpoints are publishable from the first message.
func (r *Runner) setup(ctx context.Context, cfg *config.Config, opts *Options, logger logr.Logger) (*app, error) {
	regCfg, err := registry.NewConfig(append(cfg.RegistryOptions(), registry.WithName("shared"))...)
	if err != nil {
		return nil, err
	}
	shared, err := registry.NewQueueRegistry(regCfg, logger.WithName("shared"))
	if err != nil {
		return nil, err
	}
	component, err := endpoint.NewComponent(shared, logger, cfg.RegistryOptions()...)
	if err != nil {
		shared.Close()
		return nil, err
	}
	a := &app{shared: shared, component: component, pattern: opts.pattern, logger: logger}

	proc := newDemoProcessor(opts.ProcessingLatency, r.clock)
	endpoints := make([]*endpoint.Endpoint, len(cfg.Endpoints))
	for i, spec := range cfg.Endpoints {
		epOpts, err := spec.Options()
		if err == nil {
			endpoints[i], err = component.Endpoint(spec.Name, spec.QueueScope(), epOpts...)
		}
		if err == nil && spec.Consumer != nil {
			var h *endpoint.ConsumerHandle
			if h, err = endpoints[i].Register(ctx, proc.Process); err == nil {
				a.consumers = append(a.consumers, h)
			}
		}
		if err != nil {
			a.shutdown()
			return nil, fmt.Errorf("endpoint %s: %w", spec.Name, err)
		}
	}
	for i, spec := range cfg.Endpoints {
		if spec.Producer == nil {
			continue
		}
		p, err := endpoints[i].NewProducer()
		if err != nil {
			a.shutdown()
			return nil, fmt.Errorf("endpoint %s: %w", spec.Name, err)
		}
		a.producers = append(a.producers, &demoProducer{
			endpoint: endpoints[i],
			producer: p,
			limiter:  rate.NewLimiter(rate.Limit(opts.PublishRate), opts.PublishBurst),
		})
	}
	return a, nil
}

// publishLoop publishes numbered messages at the producer's rate until ctx ends.
func (a *app) publishLoop(ctx context.Context, p *demoProducer) error {
	key := p.endpoint.Key().String()
	for n := 0; ; n++ {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		ex, err := p.producer.Publish(ctx, fmt.Sprintf("%s-%d", p.endpoint.Name(), n), a.pattern)
		switch {
		case err == nil:
			if ex != nil {
				a.logger.V(logging.TRACE).Info("Published", "queue", key, "exchangeID", ex.ID(), "body", ex.Body())
			}
		case ctx.Err() != nil:
			return nil
		default:
			a.logger.V(logging.DEBUG).Info("Publish failed", "queue", key, "error", err.Error())
		}
	}
}

// shutdown stops consumers, closes producers and closes both registries.
func (a *app) shutdown() {
	if err := a.component.Close(); err != nil {
		a.logger.Error(err, "Component shutdown reported errors")
	}
	a.shared.Close()
	a.logger.V(logging.DEFAULT).Info("Endpoints shut down")
}
