package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// DefaultRate is used when no rate is configured (50 requests per second)
	DefaultRate = "50-S"

	limiterKeyPrefix = "memtodo_limiter"
)

// RedisClient wraps the Redis connection shared by the rate limiter and health checks
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient parses redisURL and verifies the connection with a ping
func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Ping checks if Redis is reachable
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewRateLimitStore returns a Redis-backed limiter store when redisClient is
// set, so limits are shared between replicas, and an in-process store otherwise.
func NewRateLimitStore(redisClient *RedisClient) (limiter.Store, error) {
	opts := limiter.StoreOptions{
		Prefix:          limiterKeyPrefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}
	if redisClient == nil {
		return memorystore.NewStoreWithOptions(opts), nil
	}
	store, err := redisstore.NewStoreWithOptions(redisClient.client, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis limiter store: %w", err)
	}
	return store, nil
}

// RateLimit returns per-client-IP rate limiting middleware. rateStr uses the
// limiter's formatted syntax, e.g. "50-S" or "1000-M".
func RateLimit(store limiter.Store, rateStr string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rateStr, err)
	}

	instance := limiter.New(store, rate)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(clientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limiter_error", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
		}),
	)
	return mw.Handler, nil
}
