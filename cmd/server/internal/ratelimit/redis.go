package ratelimit

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/mentorconnect/submissions-api/cmd/server/internal/response"
	"github.com/mentorconnect/submissions-api/internal/logger"
)

const (
	keyPrefix = "mentorapi-ratelimit-"
	window    = time.Minute
)

// Fixed one minute window counter per identifier, shared across replicas through redis
type RedisLimiterStore struct {
	db         *redis.Client
	limiterKey string
	perMinute  int64
	failOpen   bool
	timeout    time.Duration
}

// Ensure RedisLimiterStore implements middleware.RateLimiterStore interface.
var _ middleware.RateLimiterStore = (*RedisLimiterStore)(nil)

type RedisLimiterConfig struct {
	RedisClient *redis.Client
	LimiterKey  string
	PerMinute   int64
	FailOpen    bool
	// Upper bound on a single redis round trip. Defaults to one second.
	Timeout time.Duration
}

func NewRedisLimitStore(config RedisLimiterConfig) *RedisLimiterStore {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	return &RedisLimiterStore{
		db:         config.RedisClient,
		limiterKey: config.LimiterKey,
		perMinute:  config.PerMinute,
		failOpen:   config.FailOpen,
		timeout:    timeout,
	}
}

func (store *RedisLimiterStore) key(identifier string) string {
	return keyPrefix + store.limiterKey + "-" + identifier
}

func (store *RedisLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), store.timeout)
	defer cancel()

	key := store.key(identifier)

	var count *redis.IntCmd
	_, err := store.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		// only starts the window on the first hit
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		// echo only reports the error when the request is denied
		if store.failOpen {
			logger.Logger.Warn(
				"rate limiter store unavailable, allowing request",
				"limiter", store.limiterKey,
				"error", err,
			)
		}
		return store.failOpen, err
	}

	return count.Val() <= store.perMinute, nil
}

// Builds echo rate limiter middleware config for `perMinute` requests per client IP.
// A nil `onlyMethod` limits every method.
func NewRedisLimiter(
	rdb *redis.Client,
	limiterKey string,
	perMinute int64,
	failOpen bool,
	onlyMethod *string,
) middleware.RateLimiterConfig {
	store := NewRedisLimitStore(RedisLimiterConfig{
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		PerMinute:   perMinute,
		FailOpen:    failOpen,
	})

	skipper := middleware.DefaultSkipper
	if onlyMethod != nil {
		skipper = func(c echo.Context) bool {
			return c.Request().Method != *onlyMethod
		}
	}

	return middleware.RateLimiterConfig{
		Skipper: skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			logger.Logger.Error("failed to identify client for rate limiting", "error", err)
			return response.InternalServerError
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			if err != nil {
				logger.Logger.ErrorContext(
					c.Request().Context(),
					"rate limit store unavailable",
					"identifier", identifier,
					"error", err,
				)
			}
			return response.TooManyRequestsError
		},
	}
}
