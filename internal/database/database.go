// Package database opens the store backend selected by configuration.
package database

import (
	"context"
	"fmt"
	"log/slog"

	sloggorm "github.com/orandin/slog-gorm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mentorconnect/submissions-api/internal/config"
	"github.com/mentorconnect/submissions-api/internal/logger"
	"github.com/mentorconnect/submissions-api/internal/store"
	"github.com/mentorconnect/submissions-api/internal/store/mongostore"
	"github.com/mentorconnect/submissions-api/internal/store/sqlstore"
)

var tracer = otel.Tracer("github.com/mentorconnect/submissions-api/internal/database")

// Connects to the configured backend and verifies it is reachable. Does not retry.
//
//nolint:ireturn // callers only need the store contract
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	ctx, span := tracer.Start(ctx, "Open")
	defer span.End()

	span.SetAttributes(attribute.String("store.driver", cfg.Store.Driver))

	var (
		s   store.Store
		err error
	)
	switch cfg.Store.Driver {
	case config.DriverMongo:
		s, err = mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	case config.DriverPostgres:
		s, err = sqlstore.Open(ctx, sqlstore.Options{
			Logger:             gormLogger(cfg.Logging),
			DSN:                cfg.PostgresDSN(),
			MaxIdleConnections: cfg.Postgres.MaxIdleConnections,
			MaxOpenConnections: cfg.Postgres.MaxOpenConnections,
			ConnectionTTL:      cfg.Postgres.ConnectionTTL,
		})
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open store")
		return nil, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "opened store")
	return s, nil
}

//nolint:ireturn // gorm takes the logger interface
func gormLogger(cfg *config.LoggingConfig) gormlogger.Interface {
	gormLogger := slog.New(logger.Handler)

	opts := []sloggorm.Option{
		sloggorm.WithHandler(gormLogger.Handler()),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Gorm.Level)),
	}
	if cfg.Gorm.TraceQueries {
		opts = append(opts, sloggorm.WithTraceAll())
	}

	return sloggorm.New(opts...)
}
