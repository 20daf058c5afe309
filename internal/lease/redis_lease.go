package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zapline/campaign-dispatch/internal/models"
)

// releaseScript deletes the lease only when the stored token still belongs
// to this holder, so an expired lease taken over by another run is never
// clobbered.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// redisLocker implements Locker using a Redis SET NX PX lease
type redisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

// RedisConfig holds Redis lease configuration
type RedisConfig struct {
	URL string
	Key string
	TTL time.Duration
}

// NewRedisLocker creates a Redis-backed run lease
func NewRedisLocker(cfg RedisConfig, logger *slog.Logger) (Locker, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = "dispatch:run:lock"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	logger.Info("connected to Redis",
		slog.String("addr", opts.Addr),
		slog.String("lease_key", key),
	)

	return &redisLocker{
		client: client,
		key:    key,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Acquire takes the run lease with a fresh token. The TTL bounds how long a
// crashed invocation can block later runs.
func (l *redisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lease: %w", err)
	}
	if !ok {
		return nil, models.ErrConflictWithMsg("a dispatch run is already in progress")
	}

	l.logger.Debug("run lease acquired", slog.String("token", token))

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.Error("failed to release run lease", slog.String("error", err.Error()))
		}
	}

	return release, nil
}

// Close closes the Redis connection
func (l *redisLocker) Close() error {
	l.logger.Info("closing Redis connection")
	return l.client.Close()
}

// Health checks if Redis is healthy
func (l *redisLocker) Health(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis health check failed: %w", err)
	}
	return nil
}
