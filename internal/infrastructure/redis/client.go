package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options tunes the client beyond what the URL carries.
type Options struct {
	// ConnectTimeout bounds the time spent waiting for Redis at startup.
	// Zero tries once.
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

// NewClient creates a new Redis client and verifies the connection.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	return NewClientWithOptions(ctx, redisURL, Options{Logger: zerolog.Nop()})
}

// NewClientWithOptions creates a client, retrying the initial ping with
// exponential backoff while Redis starts up.
func NewClientWithOptions(ctx context.Context, redisURL string, opts Options) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(redisOpts)

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if opts.ConnectTimeout > 0 {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = opts.ConnectTimeout
		policy = b
	}

	ping := func() error {
		return client.Ping(ctx).Err()
	}
	notify := func(err error, wait time.Duration) {
		opts.Logger.Warn().Err(err).Dur("retry_in", wait).Msg("redis not ready")
	}

	if err := backoff.RetryNotify(ping, backoff.WithContext(policy, ctx), notify); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
