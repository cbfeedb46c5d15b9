package ratelimit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/mentorconnect/submissions-api/internal/logger"
)

type RedisLimiterTestSuite struct {
	suite.Suite

	container *tcredis.RedisContainer
	rdb       *redis.Client
}

func (s *RedisLimiterTestSuite) SetupSuite() {
	container, err := tcredis.Run(s.T().Context(), "redis:7.4-alpine")
	s.Require().NoError(err, "failed to start redis container")
	s.container = container

	uri, err := container.ConnectionString(s.T().Context())
	s.Require().NoError(err, "failed to get connection string")

	opts, err := redis.ParseURL(uri)
	s.Require().NoError(err, "failed to parse redis url")
	s.rdb = redis.NewClient(opts)
}

func (s *RedisLimiterTestSuite) TearDownSuite() {
	s.Require().NoError(s.rdb.Close())
	s.Require().NoError(testcontainers.TerminateContainer(s.container))
}

func (s *RedisLimiterTestSuite) SetupTest() {
	s.Require().NoError(s.rdb.FlushAll(s.T().Context()).Err())
}

func (s *RedisLimiterTestSuite) TestAllowUpToLimit() {
	store := NewRedisLimitStore(RedisLimiterConfig{
		RedisClient: s.rdb,
		LimiterKey:  "create",
		PerMinute:   3,
	})

	for i := range 3 {
		allowed, err := store.Allow("10.0.0.1")
		s.Require().NoError(err)
		s.True(allowed, "request %d should be allowed", i+1)
	}

	allowed, err := store.Allow("10.0.0.1")
	s.Require().NoError(err)
	s.False(allowed, "fourth request should be denied")

	allowed, err = store.Allow("10.0.0.2")
	s.Require().NoError(err)
	s.True(allowed, "other clients have their own window")

	ttl, err := s.rdb.TTL(s.T().Context(), store.key("10.0.0.1")).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, window)
}

func (s *RedisLimiterTestSuite) TestFailOpen() {
	broken := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer broken.Close()

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer logger.SetOutput(os.Stderr)

	for _, failOpen := range []bool{true, false} {
		logs.Reset()

		store := NewRedisLimitStore(RedisLimiterConfig{
			RedisClient: broken,
			LimiterKey:  "create",
			PerMinute:   1,
			FailOpen:    failOpen,
			Timeout:     200 * time.Millisecond,
		})

		allowed, err := store.Allow("10.0.0.1")
		s.Require().Error(err)
		s.Equal(failOpen, allowed)

		// denied requests are reported by the deny handler instead
		if failOpen {
			s.Contains(logs.String(), "rate limiter store unavailable")
		} else {
			s.Empty(logs.String())
		}
	}
}

func (s *RedisLimiterTestSuite) TestMiddleware() {
	post := http.MethodPost

	e := echo.New()
	e.Use(middleware.RateLimiterWithConfig(NewRedisLimiter(s.rdb, "create", 1, true, &post)))
	e.POST("/", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	s.Equal(http.StatusCreated, do(http.MethodPost).Code)

	rec := do(http.MethodPost)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.JSONEq(`{"error":"Too many requests"}`, rec.Body.String())

	s.Equal(http.StatusOK, do(http.MethodGet).Code, "other methods are not limited")
}

func TestRedisLimiterTestSuite(t *testing.T) {
	suite.Run(t, new(RedisLimiterTestSuite))
}
