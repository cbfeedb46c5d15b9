package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mentorconnect/submissions-api/internal/types"
)

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		types.StringError("Server error"),
	)
	NotFoundError     = echo.NewHTTPError(http.StatusNotFound, types.StringError("Record not found"))
	UnauthorizedError = echo.NewHTTPError(http.StatusUnauthorized, types.StringError("Unauthorized"))
	BadRequestError   = echo.NewHTTPError(
		http.StatusBadRequest,
		types.StringError("failed to parse request data"),
	)
	MissingFieldsError = echo.NewHTTPError(
		http.StatusBadRequest,
		types.StringError("mentorName, studentName, branch and semester are required."),
	)
	MissingFeedbackError = echo.NewHTTPError(
		http.StatusBadRequest,
		types.StringError("studentFeedback required"),
	)
	TooManyRequestsError = echo.NewHTTPError(
		http.StatusTooManyRequests,
		types.StringError("Too many requests"),
	)
)
