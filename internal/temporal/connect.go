package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

var retryInterval = time.Second

// Dialer opens a client. client.DialContext in production.
type Dialer func(ctx context.Context, opts client.Options) (client.Client, error)

// ConnectWithRetry dials the cluster with exponential backoff, giving up
// after s.ConnectMaxElapsed. The returned client is meant to be shared for
// the life of the process.
func ConnectWithRetry(ctx context.Context, s Settings, logger *zap.Logger) (client.Client, error) {
	return connectWithRetry(ctx, s, logger, client.DialContext)
}

func connectWithRetry(ctx context.Context, s Settings, logger *zap.Logger, dial Dialer) (client.Client, error) {
	var c client.Client

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.MaxElapsedTime = s.ConnectMaxElapsed
	expBackoff.InitialInterval = retryInterval

	opts := client.Options{
		HostPort:  s.Address,
		Namespace: s.Namespace,
		Logger:    NewLogger(logger),
	}

	attempt := 0
	operation := func() error {
		attempt++

		var err error
		c, err = dial(ctx, opts)
		if err != nil {
			logger.Warn("failed to connect to temporal",
				zap.String("address", s.Address),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(expBackoff, ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to temporal at %s after retries: %w", s.Address, err)
	}

	logger.Info("connected to temporal",
		zap.String("address", s.Address),
		zap.String("namespace", s.Namespace),
		zap.Int("attempts", attempt),
	)

	return c, nil
}
