package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"pubsub/internal/catalog"
	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/dispatcher"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/producer"
	"pubsub/internal/pubsub/registry"
	"pubsub/internal/pubsub/runtime"
	"pubsub/internal/pubsub/tracing"
	"pubsub/internal/temporal"
)

type Config struct {
	Temporal temporal.Settings
	Dispatch producer.WorkflowOptions
	Metrics  metrics.ServerConfig
	Tracing  tracing.Config

	WorkerTaskQueue          string   `env:"WORKER_TASK_QUEUE"`
	DiscoveryPackages        []string `env:"DISCOVERY_PACKAGES" envDefault:"consumers" envSeparator:","`
	RegisterSearchAttributes bool     `env:"REGISTER_SEARCH_ATTRIBUTES" envDefault:"true"`
	LogLevel                 string   `env:"LOG_LEVEL" envDefault:"info"`
}

// queue is the task queue this worker polls.
func (c Config) queue() string {
	if c.WorkerTaskQueue == "" {
		return c.Temporal.TaskQueue
	}
	return c.WorkerTaskQueue
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	config := zap.NewProductionConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger = logger.With(zap.String("task_queue", cfg.queue()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("worker failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	metricsRegistry := metrics.NewRegistry()
	metricsRegistry.SetSystemInfo(cfg.Tracing.ServiceVersion, time.Now().Format(time.RFC3339))

	tracer := tracing.Noop()
	if cfg.Tracing.Enabled {
		t, cleanup, err := tracing.NewTracer(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := cleanup(shutdownCtx); err != nil {
				logger.Error("failed to cleanup tracing", zap.Error(err))
			}
		}()
		tracer = t

		logger.Info("tracing initialized",
			zap.String("service", cfg.Tracing.ServiceName),
			zap.String("jaeger_endpoint", cfg.Tracing.JaegerEndpoint),
			zap.Float64("sample_rate", cfg.Tracing.SampleRate),
		)
	}

	holder := registry.NewHolder()
	serverConfig := cfg.Metrics
	serverConfig.Ready = func() bool { return holder.Load() != nil }
	metricsServer := metrics.NewServer(serverConfig, metricsRegistry, logger,
		metrics.Route{Pattern: "/registry", Handler: registry.SummaryHandler(holder, logger)},
	)

	c, err := temporal.ConnectWithRetry(ctx, cfg.Temporal, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if cfg.RegisterSearchAttributes {
		temporal.EnsureSearchAttribute(ctx, c, cfg.Temporal.Namespace, pubsub.AttributeSubscribedOn, logger)
	}

	reg := catalog.New(cfg.Temporal).Discover(logger, cfg.DiscoveryPackages...)
	holder.Publish(reg)
	metricsRegistry.SetRegistrySize(len(reg.AllHandlers()), len(reg.EventTypes()))

	baseRuntime, err := runtime.NewTemporal(c, cfg.Temporal.Namespace, cfg.Temporal.TaskQueue, logger)
	if err != nil {
		return fmt.Errorf("failed to create runtime: %w", err)
	}
	rt := runtime.Wrap(baseRuntime, metricsRegistry, tracer)

	bindings, err := dispatcher.NewBindings(rt, holder, metricsRegistry, logger)
	if err != nil {
		return fmt.Errorf("failed to create bindings: %w", err)
	}

	w := worker.New(c, cfg.queue(), worker.Options{})
	r := registrar{
		queue:        cfg.queue(),
		primaryQueue: cfg.Temporal.TaskQueue,
		holder:       holder,
		metrics:      metricsRegistry,
		tracer:       tracer,
		dispatch:     cfg.Dispatch,
		logger:       logger,
	}
	registered, err := r.register(w, reg, bindings)
	if err != nil {
		return err
	}
	registry.Report(logger, reg, registered.workflows, registered.activities)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return metricsServer.Start(gctx)
	})
	g.Go(func() error {
		if err := w.Start(); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
		logger.Info("worker started", zap.Strings("packages", cfg.DiscoveryPackages))

		<-gctx.Done()
		w.Stop()
		logger.Info("worker stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("worker exited: %w", err)
	}

	return nil
}
