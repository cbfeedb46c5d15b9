package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	servermiddleware "github.com/mentorconnect/submissions-api/cmd/server/internal/middleware"
	"github.com/mentorconnect/submissions-api/cmd/server/internal/ratelimit"
	"github.com/mentorconnect/submissions-api/internal/logger"
	"github.com/mentorconnect/submissions-api/internal/store"
)

const name = "github.com/mentorconnect/submissions-api/cmd/server/internal/routes/api"

var tracer = otel.Tracer(name)

type RateLimit struct {
	Redis     *redis.Client
	PerMinute int64
	FailOpen  bool
}

type Handler struct {
	store    store.Store
	adminKey *servermiddleware.AdminKey
	// Limits creations per client IP when not nil
	rateLimit *RateLimit
}

func NewHandler(
	s store.Store,
	adminKey *servermiddleware.AdminKey,
	rateLimit *RateLimit,
) Handler {
	return Handler{
		store:     s,
		adminKey:  adminKey,
		rateLimit: rateLimit,
	}
}

func (h *Handler) AddRoutes(e *echo.Echo) {
	l := logger.Logger

	apiGroup := e.Group("/api")

	apiGroup.GET("/health/", h.Health)

	submissionsGroup := apiGroup.Group("/submissions")

	var createMiddleware []echo.MiddlewareFunc
	if h.rateLimit != nil && h.rateLimit.PerMinute > 0 {
		post := http.MethodPost
		createMiddleware = append(createMiddleware, middleware.RateLimiterWithConfig(
			ratelimit.NewRedisLimiter(
				h.rateLimit.Redis,
				"create",
				h.rateLimit.PerMinute,
				h.rateLimit.FailOpen,
				&post,
			),
		))
	} else {
		l.Warn("not configured to have a create rate limit")
	}

	submissionsGroup.POST("/", h.CreateSubmission, createMiddleware...)
	submissionsGroup.GET("/", h.ListSubmissions)
	submissionsGroup.DELETE("/", h.DeleteSubmissions, h.adminKey.Middleware())
	submissionsGroup.PATCH("/:id/feedback/", h.UpdateFeedback)
}
