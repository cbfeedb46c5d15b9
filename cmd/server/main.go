package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/mentorconnect/submissions-api/cmd/server/internal/middleware"
	"github.com/mentorconnect/submissions-api/cmd/server/internal/routes"
	"github.com/mentorconnect/submissions-api/cmd/server/internal/routes/api"
	"github.com/mentorconnect/submissions-api/internal/config"
	"github.com/mentorconnect/submissions-api/internal/database"
	"github.com/mentorconnect/submissions-api/internal/logger"
	"github.com/mentorconnect/submissions-api/internal/otel"
	"github.com/mentorconnect/submissions-api/internal/store"
)

const (
	name        string = "github.com/mentorconnect/submissions-api/cmd/server"
	serviceName string = "mentorapi"
)

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	store        store.Store
	redis        *redis.Client
	otelShutdown func(context.Context) error
}

func buildRouter(cfg *config.Config, s store.Store, rdb *redis.Client) (*echo.Echo, error) {
	e, err := routes.BuildEcho(logger.Logger, routes.Options{
		ServiceName:  serviceName,
		BodyLimit:    cfg.BodyLimit,
		AllowOrigins: cfg.CORS.AllowOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct router: %w", err)
	}

	adminKey, err := servermiddleware.NewAdminKey(cfg.AdminKey)
	if err != nil {
		return nil, err
	}

	var rateLimit *api.RateLimit
	if rdb != nil && cfg.RateLimitEnabled() {
		rateLimit = &api.RateLimit{
			Redis:     rdb,
			PerMinute: cfg.RateLimit.CreatePerMinute,
			FailOpen:  cfg.RateLimit.FailOpen,
		}
	}

	handler := api.NewHandler(s, adminKey, rateLimit)
	handler.AddRoutes(e)

	return e, nil
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	shutdownOTel, err := otel.SetupOTelSDK(ctx, otel.Options{
		Enabled:     cfg.Logging.OTelEnabled,
		UseOTLP:     cfg.Logging.UseOTLP,
		ServiceName: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	s, err := database.Open(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open store")
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	server.store = s

	span.AddEvent("opened store")

	if cfg.RateLimitEnabled() {
		redisAddr := cfg.RateLimit.RedisHost + ":6379"
		logger.Logger.Debug("Setting up rate limiter with Redis", "redis", redisAddr)
		server.redis = redis.NewClient(&redis.Options{Addr: redisAddr})
	}

	server.router, err = buildRouter(cfg, s, server.redis)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct router")
		return nil, errors.Join(err, s.Close(ctx))
	}

	span.AddEvent("initialized router")

	server.otelShutdown = shutdownOTel

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "initialized server")
	return server, nil
}

func (s *server) Start() error {
	logger.Logger.Info("Starting services...", "address", s.config.ListenAddress())

	err := s.router.Start(s.config.ListenAddress())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	// stop taking requests before the store goes away
	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if err := s.store.Close(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("failed to close store: %w", err))
	}

	if s.redis != nil {
		errs = errors.Join(errs, s.redis.Close())
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}
