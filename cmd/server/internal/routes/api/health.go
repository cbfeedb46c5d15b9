package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"

	"github.com/mentorconnect/submissions-api/internal/types"
)

// Liveness only, does not touch the store
func (h *Handler) Health(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "Health")
	defer span.End()

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return c.JSON(http.StatusOK, types.HealthResponse{OK: true})
}
