package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	servermiddleware "github.com/mentorconnect/submissions-api/cmd/server/internal/middleware"
	"github.com/mentorconnect/submissions-api/cmd/server/internal/response"
	"github.com/mentorconnect/submissions-api/internal/types"
	"github.com/mentorconnect/submissions-api/internal/validator"
)

type Options struct {
	ServiceName  string
	BodyLimit    string
	AllowOrigins []string
}

func BuildEcho(logger *slog.Logger, opts Options) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	validate := validator.Create()
	e.Validator = &validate
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Pre(middleware.AddTrailingSlash())

	e.Use(
		otelecho.Middleware(opts.ServiceName),
		slogecho.NewWithConfig(logger, slogecho.Config{}),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
				servermiddleware.AdminKeyHeader,
			},
		}),
		middleware.BodyLimit(opts.BodyLimit),
		servermiddleware.Time(servermiddleware.TimeKey),
	)

	return e, nil
}

// Renders every error as {"error": "..."}. Errors that are not [echo.HTTPError] are
// logged and reported as a generic server error.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			logger.ErrorContext(c.Request().Context(), "unhandled error", "error", err)
			he = response.InternalServerError
		}

		// echo wraps errors it raises itself, unwrap to the innermost
		if inner, ok := he.Internal.(*echo.HTTPError); ok {
			he = inner
		}

		var body types.Error
		switch m := he.Message.(type) {
		case types.Error:
			body = m
		case string:
			body = types.StringError(m)
		case error:
			body = types.StringError(m.Error())
		default:
			body = types.StringError(http.StatusText(he.Code))
		}

		var rerr error
		if c.Request().Method == http.MethodHead {
			rerr = c.NoContent(he.Code)
		} else {
			rerr = c.JSON(he.Code, body)
		}
		if rerr != nil {
			logger.ErrorContext(c.Request().Context(), "failed to write error response", "error", rerr)
		}
	}
}
