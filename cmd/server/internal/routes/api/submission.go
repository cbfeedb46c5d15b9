package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/mentorconnect/submissions-api/cmd/server/internal/middleware"
	"github.com/mentorconnect/submissions-api/cmd/server/internal/response"
	"github.com/mentorconnect/submissions-api/internal/logger"
	"github.com/mentorconnect/submissions-api/internal/store"
	"github.com/mentorconnect/submissions-api/internal/types"
)

func (h *Handler) CreateSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateSubmission")
	defer span.End()

	var rdata types.SubmissionCreate
	span.AddEvent("parsing request")
	if err := c.Bind(&rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse request data")
		return response.BadRequestError
	}

	span.AddEvent("validating request")
	if err := c.Validate(&rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request missing required fields")
		return response.MissingFieldsError
	}

	n := rdata.NewSubmission(servermiddleware.RequestTime(c, servermiddleware.TimeKey))

	span.AddEvent("creating submission")
	id, err := h.store.Create(ctx, n)
	if err != nil {
		var validationErr *store.ValidationError
		if errors.As(err, &validationErr) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "store rejected submission")
			return response.MissingFieldsError
		}

		logger.Logger.ErrorContext(ctx, "failed to create submission", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create submission")
		return response.InternalServerError
	}

	span.SetAttributes(attribute.String("submission.id", id))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created submission")
	return c.JSON(http.StatusCreated, types.SubmissionCreateResponse{Message: "Saved", ID: id})
}

func (h *Handler) DeleteSubmissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteSubmissions")
	defer span.End()

	span.AddEvent("deleting all submissions")
	deleted, err := h.store.DeleteAll(ctx)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to delete submissions", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete submissions")
		return response.InternalServerError
	}

	span.SetAttributes(attribute.Int64("deleted", deleted))
	logger.Logger.InfoContext(ctx, "deleted all submissions", "deleted", deleted)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted all submissions")
	return c.JSON(http.StatusOK, types.Message{Message: "All records deleted"})
}

func (h *Handler) UpdateFeedback(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "UpdateFeedback")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("submission.id", id))

	var rdata types.FeedbackUpdate
	span.AddEvent("parsing request")
	if err := c.Bind(&rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse request data")
		return response.BadRequestError
	}

	span.AddEvent("validating request")
	if err := c.Validate(&rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request missing studentFeedback")
		return response.MissingFeedbackError
	}

	span.AddEvent("updating feedback")
	updated, err := h.store.UpdateFeedback(ctx, id, string(rdata.StudentFeedback))
	if err != nil {
		var validationErr *store.ValidationError
		switch {
		case errors.Is(err, store.ErrNotFound):
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "submission not found")
			return response.NotFoundError
		case errors.As(err, &validationErr):
			span.RecordError(err)
			span.SetStatus(codes.Error, "store rejected feedback")
			return response.MissingFeedbackError
		default:
			logger.Logger.ErrorContext(ctx, "failed to update feedback", "error", err, "id", id)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to update feedback")
			return response.InternalServerError
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated feedback")
	return c.JSON(http.StatusOK, types.SubmissionFromStore(updated))
}

func (h *Handler) ListSubmissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListSubmissions")
	defer span.End()

	var rdata types.SubmissionQuery
	span.AddEvent("parsing query")
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse query")
		return response.BadRequestError
	}

	filter := store.FilterFromQuery(rdata.Branch, rdata.Semester, rdata.Search)
	span.SetAttributes(
		attribute.String("query.branch", rdata.Branch),
		attribute.String("query.semester", rdata.Semester),
		attribute.String("query.search", rdata.Search),
	)

	span.AddEvent("finding submissions")
	found, err := h.store.Find(ctx, filter)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to list submissions", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list submissions")
		return response.InternalServerError
	}

	submissions := make([]types.Submission, 0, len(found))
	for i := range found {
		submissions = append(submissions, types.SubmissionFromStore(&found[i]))
	}

	span.SetAttributes(attribute.Int("results", len(submissions)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed submissions")
	return c.JSON(http.StatusOK, submissions)
}
