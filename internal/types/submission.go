package types

import (
	"time"

	"github.com/mentorconnect/submissions-api/internal/store"
)

type (
	// Body of POST /api/submissions
	SubmissionCreate struct {
		// Set to the time the request was received when omitted
		CreatedAt      *time.Time `json:"createdAt"`
		BatchNo        *Text      `json:"batchNo"`
		Section        *Text      `json:"section"`
		Cytest         *Text      `json:"cytest"`
		MentorComments *Text      `json:"mentorComments"`
		Counselling    *Text      `json:"counselling"`
		// Students usually fill this in later through the feedback endpoint
		StudentFeedback *Text        `json:"studentFeedback"`
		MentorName      RequiredText `json:"mentorName"      validate:"required"`
		StudentName     RequiredText `json:"studentName"     validate:"required"`
		Branch          RequiredText `json:"branch"          validate:"required"`
		// Free text, not necessarily numeric
		Semester RequiredText `json:"semester" validate:"required"`
	}

	SubmissionCreateResponse struct {
		Message string `json:"message" validate:"required"`
		ID      string `json:"id"      validate:"required"`
	}

	// Body of PATCH /api/submissions/:id/feedback
	FeedbackUpdate struct {
		StudentFeedback RequiredText `json:"studentFeedback" validate:"required"`
	}

	// Query of GET /api/submissions. A non-empty search overrides branch and semester.
	SubmissionQuery struct {
		Branch   string `query:"branch"`
		Semester string `query:"semester"`
		Search   string `query:"search"`
	}

	// A stored submission as returned by the API
	Submission struct {
		CreatedAt       time.Time `json:"createdAt"`
		BatchNo         *string   `json:"batchNo,omitempty"`
		Section         *string   `json:"section,omitempty"`
		Cytest          *string   `json:"cytest,omitempty"`
		MentorComments  *string   `json:"mentorComments,omitempty"`
		Counselling     *string   `json:"counselling,omitempty"`
		StudentFeedback *string   `json:"studentFeedback,omitempty"`
		ID              string    `json:"_id"`
		MentorName      string    `json:"mentorName"`
		StudentName     string    `json:"studentName"`
		Branch          string    `json:"branch"`
		Semester        string    `json:"semester"`
	}

	HealthResponse struct {
		OK bool `json:"ok"`
	}
)

func textPtr(t *Text) *string {
	return (*string)(t)
}

// Converts a request body into store input. `receivedAt` is used when the body has no createdAt.
func (s *SubmissionCreate) NewSubmission(receivedAt time.Time) store.NewSubmission {
	n := store.NewSubmission{
		MentorName:      string(s.MentorName),
		StudentName:     string(s.StudentName),
		Branch:          string(s.Branch),
		Semester:        string(s.Semester),
		BatchNo:         textPtr(s.BatchNo),
		Section:         textPtr(s.Section),
		Cytest:          textPtr(s.Cytest),
		MentorComments:  textPtr(s.MentorComments),
		Counselling:     textPtr(s.Counselling),
		StudentFeedback: textPtr(s.StudentFeedback),
		CreatedAt:       receivedAt,
	}
	if s.CreatedAt != nil {
		n.CreatedAt = *s.CreatedAt
	}

	return n
}

func SubmissionFromStore(s *store.Submission) Submission {
	return Submission{
		ID:              s.ID,
		MentorName:      s.MentorName,
		StudentName:     s.StudentName,
		Branch:          s.Branch,
		Semester:        s.Semester,
		BatchNo:         s.BatchNo,
		Section:         s.Section,
		Cytest:          s.Cytest,
		MentorComments:  s.MentorComments,
		Counselling:     s.Counselling,
		StudentFeedback: s.StudentFeedback,
		CreatedAt:       s.CreatedAt,
	}
}
