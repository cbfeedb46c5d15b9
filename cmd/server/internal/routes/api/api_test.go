package api_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	servermiddleware "github.com/mentorconnect/submissions-api/cmd/server/internal/middleware"
	"github.com/mentorconnect/submissions-api/cmd/server/internal/routes"
	"github.com/mentorconnect/submissions-api/cmd/server/internal/routes/api"
	"github.com/mentorconnect/submissions-api/internal/store"
	"github.com/mentorconnect/submissions-api/internal/store/mock"
)

const adminKey = "admin_secret"

var errStore = errors.New("connection reset")

func ptr[T any](v T) *T {
	return &v
}

func newServer(t *testing.T) (*echo.Echo, *mock.MockStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	s := mock.NewMockStore(ctrl)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	e, err := routes.BuildEcho(logger, routes.Options{
		ServiceName:  "mentorapi-test",
		BodyLimit:    "100K",
		AllowOrigins: []string{"*"},
	})
	require.NoError(t, err)

	admin, err := servermiddleware.NewAdminKey(adminKey)
	require.NoError(t, err)

	h := api.NewHandler(s, admin, nil)
	h.AddRoutes(e)

	return e, s
}

func doRequest(
	e *echo.Echo,
	method string,
	target string,
	body string,
	headers map[string]string,
) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newServer(t)

	for _, target := range []string{"/api/health", "/api/health/"} {
		rec := doRequest(e, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}
}

func TestCreateSubmission(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		e, s := newServer(t)

		before := time.Now().UTC()
		s.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, n store.NewSubmission) (string, error) {
				assert.Equal(t, "M1", n.MentorName)
				assert.Equal(t, "S1", n.StudentName)
				assert.Equal(t, "CSE", n.Branch)
				assert.Equal(t, "5", n.Semester)
				assert.Equal(t, ptr("B12"), n.BatchNo)
				assert.Nil(t, n.StudentFeedback)
				assert.False(t, n.CreatedAt.Before(before), "defaults to request time")
				return "abc123", nil
			},
		)

		rec := doRequest(e, http.MethodPost, "/api/submissions",
			`{"mentorName":"M1","studentName":"S1","branch":"CSE","semester":5,"batchNo":"B12"}`, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"message":"Saved","id":"abc123"}`, rec.Body.String())
	})

	t.Run("KeepsSuppliedCreatedAt", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, n store.NewSubmission) (string, error) {
				assert.True(t, n.CreatedAt.Equal(time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)))
				return "abc123", nil
			},
		)

		rec := doRequest(e, http.MethodPost, "/api/submissions/",
			`{"mentorName":"M1","studentName":"S1","branch":"CSE","semester":"5","createdAt":"2020-05-01T00:00:00Z"}`, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	missing := map[string]string{
		"MissingMentorName":  `{"studentName":"S1","branch":"CSE","semester":"5"}`,
		"MissingStudentName": `{"mentorName":"M1","branch":"CSE","semester":"5"}`,
		"MissingBranch":      `{"mentorName":"M1","studentName":"S1","semester":"5"}`,
		"MissingSemester":    `{"mentorName":"M1","studentName":"S1","branch":"CSE"}`,
		"EmptyMentorName":    `{"mentorName":"","studentName":"S1","branch":"CSE","semester":"5"}`,
		"NullBranch":         `{"mentorName":"M1","studentName":"S1","branch":null,"semester":"5"}`,
		"EmptyObject":        `{}`,
		"ZeroMentorName":     `{"mentorName":0,"studentName":"S1","branch":"CSE","semester":"5"}`,
		"FalseSemester":      `{"mentorName":"M1","studentName":"S1","branch":"CSE","semester":false}`,
		"ZeroFloatBranch":    `{"mentorName":"M1","studentName":"S1","branch":0.0,"semester":"5"}`,
	}
	for name, body := range missing {
		t.Run(name, func(t *testing.T) {
			// the mock fails the test on any store call
			e, _ := newServer(t)

			rec := doRequest(e, http.MethodPost, "/api/submissions", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t,
				`{"error":"mentorName, studentName, branch and semester are required."}`,
				rec.Body.String(),
			)
		})
	}

	t.Run("MalformedJSON", func(t *testing.T) {
		e, _ := newServer(t)

		rec := doRequest(e, http.MethodPost, "/api/submissions", `{"mentorName":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"failed to parse request data"}`, rec.Body.String())
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		e, _ := newServer(t)

		body := `{"mentorName":"` + strings.Repeat("m", 101*1024) + `"}`
		rec := doRequest(e, http.MethodPost, "/api/submissions", body, nil)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error"`)
	})

	t.Run("StoreValidationError", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return("", &store.ValidationError{Fields: []string{"semester"}})

		rec := doRequest(e, http.MethodPost, "/api/submissions",
			`{"mentorName":"M1","studentName":"S1","branch":"CSE","semester":"5"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("StoreError", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().Create(gomock.Any(), gomock.Any()).Return("", errStore)

		rec := doRequest(e, http.MethodPost, "/api/submissions",
			`{"mentorName":"M1","studentName":"S1","branch":"CSE","semester":"5"}`, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())
	})
}

func TestDeleteSubmissions(t *testing.T) {
	t.Run("Authorized", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().DeleteAll(gomock.Any()).Return(int64(3), nil)

		rec := doRequest(e, http.MethodDelete, "/api/submissions", "",
			map[string]string{servermiddleware.AdminKeyHeader: adminKey})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"All records deleted"}`, rec.Body.String())
	})

	unauthorized := map[string]map[string]string{
		"MissingHeader": nil,
		"EmptyHeader":   {servermiddleware.AdminKeyHeader: ""},
		"WrongKey":      {servermiddleware.AdminKeyHeader: "guess"},
	}
	for name, headers := range unauthorized {
		t.Run(name, func(t *testing.T) {
			e, _ := newServer(t)

			rec := doRequest(e, http.MethodDelete, "/api/submissions", "", headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		})
	}

	t.Run("StoreError", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().DeleteAll(gomock.Any()).Return(int64(0), errStore)

		rec := doRequest(e, http.MethodDelete, "/api/submissions", "",
			map[string]string{servermiddleware.AdminKeyHeader: adminKey})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())
	})
}

func TestUpdateFeedback(t *testing.T) {
	createdAt := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Updated", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().UpdateFeedback(gomock.Any(), "abc123", "Good").Return(&store.Submission{
			ID:              "abc123",
			MentorName:      "M1",
			StudentName:     "S1",
			Branch:          "CSE",
			Semester:        "5",
			StudentFeedback: ptr("Good"),
			CreatedAt:       createdAt,
		}, nil)

		rec := doRequest(e, http.MethodPatch, "/api/submissions/abc123/feedback",
			`{"studentFeedback":"Good"}`, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"_id": "abc123",
			"mentorName": "M1",
			"studentName": "S1",
			"branch": "CSE",
			"semester": "5",
			"studentFeedback": "Good",
			"createdAt": "2025-01-02T03:04:05Z"
		}`, rec.Body.String())
	})

	for name, body := range map[string]string{
		"Missing":   `{}`,
		"Empty":     `{"studentFeedback":""}`,
		"NoBody":    "",
		"Zero":      `{"studentFeedback":0}`,
		"ZeroFloat": `{"studentFeedback":0.0}`,
		"False":     `{"studentFeedback":false}`,
	} {
		t.Run(name, func(t *testing.T) {
			e, _ := newServer(t)

			rec := doRequest(e, http.MethodPatch, "/api/submissions/abc123/feedback", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"studentFeedback required"}`, rec.Body.String())
		})
	}

	t.Run("NotFound", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().UpdateFeedback(gomock.Any(), "missing", "Good").Return(nil, store.ErrNotFound)

		rec := doRequest(e, http.MethodPatch, "/api/submissions/missing/feedback",
			`{"studentFeedback":"Good"}`, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Record not found"}`, rec.Body.String())
	})

	t.Run("StoreError", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().UpdateFeedback(gomock.Any(), "abc123", "Good").Return(nil, errStore)

		rec := doRequest(e, http.MethodPatch, "/api/submissions/abc123/feedback",
			`{"studentFeedback":"Good"}`, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())
	})
}

func TestListSubmissions(t *testing.T) {
	tests := map[string]struct {
		query  string
		filter store.Filter
	}{
		"NoFilter":           {query: "", filter: store.ExactFilter{}},
		"Branch":             {query: "?branch=CSE", filter: store.ExactFilter{Branch: ptr("CSE")}},
		"BranchAndSemester":  {query: "?branch=CIVIL&semester=7", filter: store.ExactFilter{Branch: ptr("CIVIL"), Semester: ptr("7")}},
		"EmptyValuesIgnored": {query: "?branch=&semester=", filter: store.ExactFilter{}},
		"SearchOverrides":    {query: "?branch=CSE&search=asha", filter: store.SearchFilter{Term: "asha"}},
		"EncodedSearch":      {query: "?search=a%20b", filter: store.SearchFilter{Term: "a b"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e, s := newServer(t)

			s.EXPECT().Find(gomock.Any(), tt.filter).Return(nil, nil)

			rec := doRequest(e, http.MethodGet, "/api/submissions"+tt.query, "", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `[]`, rec.Body.String(), "empty result is an empty array")
		})
	}

	t.Run("PreservesOrder", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().Find(gomock.Any(), store.ExactFilter{}).Return([]store.Submission{
			{ID: "2", MentorName: "M", StudentName: "newer", Branch: "CSE", Semester: "5"},
			{ID: "1", MentorName: "M", StudentName: "older", Branch: "CSE", Semester: "5"},
		}, nil)

		rec := doRequest(e, http.MethodGet, "/api/submissions", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Less(t, strings.Index(body, `"newer"`), strings.Index(body, `"older"`))
	})

	t.Run("StoreError", func(t *testing.T) {
		e, s := newServer(t)

		s.EXPECT().Find(gomock.Any(), gomock.Any()).Return(nil, errStore)

		rec := doRequest(e, http.MethodGet, "/api/submissions?search=(", "", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Server error"}`, rec.Body.String())
	})
}

func TestUnknownRoute(t *testing.T) {
	e, _ := newServer(t)

	rec := doRequest(e, http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	e, _ := newServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/submissions", nil)
	req.Header.Set(echo.HeaderOrigin, "https://mentor.example.com")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodDelete)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t,
		strings.ToLower(rec.Header().Get(echo.HeaderAccessControlAllowHeaders)),
		servermiddleware.AdminKeyHeader,
	)
}
