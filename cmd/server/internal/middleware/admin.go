package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/mentorconnect/submissions-api/cmd/server/internal/response"
)

const (
	name string = "github.com/mentorconnect/submissions-api/cmd/server/internal/middleware"

	AdminKeyHeader string = "x-admin-key"
)

var tracer = otel.Tracer(name)

var errEmptyAdminKey = errors.New("admin key must not be empty")

// Guards routes with the shared admin secret sent in the x-admin-key header
type AdminKey struct {
	hash string
}

// Hashes the configured secret once so requests only ever compare against the hash
func NewAdminKey(secret string) (*AdminKey, error) {
	if secret == "" {
		return nil, errEmptyAdminKey
	}

	hash, err := argon2id.CreateHash(secret, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin key: %w", err)
	}

	return &AdminKey{hash: hash}, nil
}

// Compares a presented key against the configured secret
func (a *AdminKey) Validator(key string, c echo.Context) (bool, error) {
	_, span := tracer.Start(c.Request().Context(), "AdminKeyValidator")
	defer span.End()

	span.AddEvent("checking hash")
	match, err := argon2id.ComparePasswordAndHash(key, a.hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check admin key")
		return false, response.InternalServerError
	}

	if match {
		span.AddEvent("successful admin key attempt")
	} else {
		span.AddEvent("failed admin key attempt")
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "checked admin key")
	return match, nil
}

// Burns roughly the time of a real compare so a missing header is not distinguishable by latency
func (a *AdminKey) fakeCompare(ctx context.Context) {
	_, span := tracer.Start(ctx, "fakeCompare")
	defer span.End()

	_, err := argon2id.ComparePasswordAndHash("i am a very real admin key", a.hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compare fake admin key")
		return
	}

	span.AddEvent("compared fake admin key")
}

func (a *AdminKey) Middleware() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + AdminKeyHeader,
		Validator: a.Validator,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, response.InternalServerError) {
				return err
			}

			var missing *middleware.ErrKeyAuthMissing
			if errors.As(err, &missing) {
				a.fakeCompare(c.Request().Context())
			}

			return response.UnauthorizedError
		},
	})
}
