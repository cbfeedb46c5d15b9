package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorconnect/submissions-api/cmd/server/internal/response"
)

func TestNewAdminKey(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := NewAdminKey("")
		require.ErrorIs(t, err, errEmptyAdminKey)
	})

	t.Run("StoresHashNotSecret", func(t *testing.T) {
		a, err := NewAdminKey("admin_secret")
		require.NoError(t, err)
		assert.NotContains(t, a.hash, "admin_secret")
	})
}

func TestAdminKeyMiddleware(t *testing.T) {
	a, err := NewAdminKey("admin_secret")
	require.NoError(t, err)

	called := false
	handler := a.Middleware()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	tests := map[string]struct {
		header  *string
		allowed bool
	}{
		"Correct":       {header: ptr("admin_secret"), allowed: true},
		"Missing":       {header: nil},
		"Empty":         {header: ptr("")},
		"Wrong":         {header: ptr("nope")},
		"WrongCase":     {header: ptr("ADMIN_SECRET")},
		"Prefix":        {header: ptr("admin_secre")},
		"TrailingSpace": {header: ptr("admin_secret ")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			called = false

			e := echo.New()
			req := httptest.NewRequest(http.MethodDelete, "/api/submissions/", nil)
			if tt.header != nil {
				req.Header.Set(AdminKeyHeader, *tt.header)
			}
			rec := httptest.NewRecorder()

			err := handler(e.NewContext(req, rec))
			if tt.allowed {
				require.NoError(t, err)
				assert.True(t, called, "handler should run")
				return
			}

			require.ErrorIs(t, err, response.UnauthorizedError)
			assert.False(t, called, "handler must not run")
		})
	}
}

func TestTime(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())

	before := time.Now().UTC()

	var seen time.Time
	err := Time(TimeKey)(func(c echo.Context) error {
		seen = RequestTime(c, TimeKey)
		return nil
	})(c)
	require.NoError(t, err)

	assert.False(t, seen.Before(before))
	assert.Equal(t, time.UTC, seen.Location())
	assert.Equal(t, seen, RequestTime(c, TimeKey), "time is fixed for the request")
}

func TestRequestTimeUnset(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())

	assert.WithinDuration(t, time.Now(), RequestTime(c, TimeKey), time.Second)
}

func ptr[T any](v T) *T {
	return &v
}
