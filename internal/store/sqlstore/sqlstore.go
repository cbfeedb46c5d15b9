package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	"github.com/mentorconnect/submissions-api/internal/store"
	"github.com/mentorconnect/submissions-api/internal/store/sqlstore/migrations"
)

var tracer = otel.Tracer("github.com/mentorconnect/submissions-api/internal/store/sqlstore")

// Ensure Store implements store.Store interface.
var _ store.Store = (*Store)(nil)

type Options struct {
	Logger             gormlogger.Interface
	DSN                string
	MaxIdleConnections int
	MaxOpenConnections int
	ConnectionTTL      time.Duration
}

// Submissions stored as rows of a single postgres table
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Opens the database, configures the pool and migrates the schema to the latest version.
func Open(ctx context.Context, opts Options) (*Store, error) {
	ctx, span := tracer.Start(ctx, "Open")
	defer span.End()

	cfg := &gorm.Config{TranslateError: true}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize database")
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire underlying database connection")
		return nil, fmt.Errorf("failed to acquire underlying database connection: %w", err)
	}

	// Configure db connection pool
	if opts.MaxIdleConnections > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	}
	if opts.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
	}
	if opts.ConnectionTTL > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnectionTTL)
	}

	span.AddEvent("initialized database connection")

	err = db.Use(gormtracing.NewPlugin())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add otel plugin to gorm")
		return nil, errors.Join(
			fmt.Errorf("failed to add otel plugin to gorm: %w", err),
			sqlDB.Close(),
		)
	}

	err = migrations.Up(ctx, db)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to perform database migrations")
		return nil, errors.Join(
			fmt.Errorf("failed to perform database migrations: %w", err),
			sqlDB.Close(),
		)
	}

	span.AddEvent("migrated database to latest version")

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "opened database")
	return New(db), nil
}

func (s *Store) Create(ctx context.Context, n store.NewSubmission) (string, error) {
	ctx, span := tracer.Start(ctx, "Create")
	defer span.End()

	span.AddEvent("validating submission")
	if err := n.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "invalid submission")
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate id")
		return "", fmt.Errorf("failed to generate submission id: %w", err)
	}
	span.SetAttributes(attribute.String("submission.id", id.String()))

	row := fromStore(n.Build("", s.now()), id)

	span.AddEvent("inserting row")
	if err = s.db.WithContext(ctx).Create(&row).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert")
		return "", fmt.Errorf("failed to insert submission: %w", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return id.String(), nil
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "DeleteAll")
	defer span.End()

	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&submission{})
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to delete")
		return 0, fmt.Errorf("failed to delete submissions: %w", result.Error)
	}

	span.SetAttributes(attribute.Int64("deleted", result.RowsAffected))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted all submissions")
	return result.RowsAffected, nil
}

func (s *Store) UpdateFeedback(
	ctx context.Context,
	id string,
	feedback string,
) (*store.Submission, error) {
	ctx, span := tracer.Start(ctx, "UpdateFeedback")
	defer span.End()

	span.SetAttributes(attribute.String("submission.id", id))

	if err := store.ValidateFeedback(feedback); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "invalid feedback")
		return nil, err
	}

	// a malformed id can never match a row
	parsed, err := uuid.Parse(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "id is not a uuid")
		return nil, store.ErrNotFound
	}

	span.AddEvent("updating row")
	var row submission
	result := s.db.WithContext(ctx).
		Model(&row).
		Clauses(clause.Returning{}).
		Where("id = ?", parsed).
		Update("student_feedback", feedback)
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, "failed to update")
		return nil, fmt.Errorf("failed to update submission feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "submission not found")
		return nil, store.ErrNotFound
	}

	updated := row.toStore()

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated feedback")
	return &updated, nil
}

func (s *Store) Find(ctx context.Context, filter store.Filter) ([]store.Submission, error) {
	ctx, span := tracer.Start(ctx, "Find")
	defer span.End()

	query := s.db.WithContext(ctx).Model(&submission{})

	switch f := filter.(type) {
	case nil:
	case store.SearchFilter:
		query = query.Where("student_name ~* ? OR batch_no ~* ?", f.Term, f.Term)
	case store.ExactFilter:
		if f.Branch != nil {
			query = query.Where("branch = ?", *f.Branch)
		}
		if f.Semester != nil {
			query = query.Where("semester = ?", *f.Semester)
		}
	default:
		err := fmt.Errorf("unsupported filter %T", filter)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build query")
		return nil, err
	}

	span.AddEvent("querying rows")
	rows := []submission{}
	err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query")
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}

	submissions := make([]store.Submission, 0, len(rows))
	for _, row := range rows {
		submissions = append(submissions, row.toStore())
	}

	span.SetAttributes(attribute.Int("results", len(submissions)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found submissions")
	return submissions, nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
