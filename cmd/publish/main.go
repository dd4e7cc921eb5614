package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/dispatcher"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/producer"
	"pubsub/internal/pubsub/strategy"
	"pubsub/internal/pubsub/tracing"
	"pubsub/internal/temporal"
)

type Config struct {
	Temporal temporal.Settings

	EventType     string `env:"EVENT_TYPE" envDefault:"order.created"`
	EventID       string `env:"EVENT_ID"`
	EventData     string `env:"EVENT_DATA"`
	EventMetadata string `env:"EVENT_METADATA"`
	EventCount    int    `env:"EVENT_COUNT" envDefault:"1"`
	Concurrency   int    `env:"PUBLISH_CONCURRENCY" envDefault:"4"`
	Producer      string `env:"PRODUCER" envDefault:"spawn"`
	Wait          bool   `env:"WAIT" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("publish failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	workflowName, err := producerWorkflow(cfg.Producer)
	if err != nil {
		return err
	}

	events, err := buildEvents(cfg)
	if err != nil {
		return err
	}

	c, err := temporal.ConnectWithRetry(ctx, cfg.Temporal, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	base, err := producer.NewClient(c, workflowName, cfg.Temporal.TaskQueue, cfg.Wait, logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	p := producer.Wrap(base, workflowName, metrics.NewRegistry(), tracing.Noop())

	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Concurrency, 1))
	for _, e := range events {
		g.Go(func() error {
			if err := p.Publish(gctx, e); err != nil {
				return fmt.Errorf("failed to publish %s: %w", e.EventType, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("publish complete",
		zap.String("producer", workflowName),
		zap.Int("events", len(events)),
		zap.Duration("elapsed", time.Since(now)),
	)
	return nil
}

// producerWorkflow maps a binding name to its producer workflow.
func producerWorkflow(binding string) (string, error) {
	switch binding {
	case strategy.SpawnName:
		return dispatcher.SpawnProducer, nil
	case strategy.CoalesceName:
		return dispatcher.CoalesceProducer, nil
	case strategy.QueryName:
		return dispatcher.QueryProducer, nil
	default:
		return "", fmt.Errorf("%w: %q", pubsub.ErrUnknownProducer, binding)
	}
}

// buildEvents returns the configured event, or EVENT_COUNT generated order
// events when no EVENT_DATA is given.
func buildEvents(cfg Config) ([]pubsub.EventDispatchInput, error) {
	if cfg.EventData != "" || cfg.EventCount <= 1 {
		payload := &pubsub.EventPayload{}
		if err := decodeObject(cfg.EventData, &payload.Data); err != nil {
			return nil, fmt.Errorf("failed to decode EVENT_DATA: %w", err)
		}
		if err := decodeObject(cfg.EventMetadata, &payload.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode EVENT_METADATA: %w", err)
		}
		if payload.Data == nil {
			payload.Data = map[string]any{}
		}

		return []pubsub.EventDispatchInput{{ID: cfg.EventID, EventType: cfg.EventType, Payload: payload}}, nil
	}

	return orders(cfg.EventType, cfg.EventCount), nil
}

func decodeObject(raw string, into *map[string]any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), into)
}

func orders(eventType string, count int) []pubsub.EventDispatchInput {
	customers := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	products := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "10"}
	events := make([]pubsub.EventDispatchInput, 0, count)

	for i := 0; i < count; i++ {
		events = append(events, pubsub.EventDispatchInput{
			EventType: eventType,
			Payload: &pubsub.EventPayload{
				Data: map[string]any{
					"order_id":    fmt.Sprintf("ORD-%04d", i+1),
					"customer_id": customers[rand.Intn(len(customers))],
					"product_id":  products[rand.Intn(len(products))],
					"amount":      10.0 + rand.Float64()*990.0,
					"timestamp":   time.Now().Format(time.RFC3339),
				},
				Metadata: map[string]any{"source": "publish"},
			},
		})
	}

	return events
}
