package store

import (
	"context"
	"time"
)

//go:generate mockgen -destination ./mock/mock.go -package mock . Store

// Persistence for submissions. Implementations must be safe for concurrent use;
// every method is a single operation against the backing database.
type Store interface {
	// Inserts a submission and returns its identifier. CreatedAt is set to now when zero.
	Create(ctx context.Context, s NewSubmission) (string, error)
	// Removes every submission and returns how many were removed
	DeleteAll(ctx context.Context) (int64, error)
	// Sets studentFeedback on one submission and returns the updated record
	UpdateFeedback(ctx context.Context, id string, feedback string) (*Submission, error)
	// All submissions matching `filter`, most recently created first
	Find(ctx context.Context, filter Filter) ([]Submission, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Submission struct {
	CreatedAt       time.Time
	BatchNo         *string
	Section         *string
	Cytest          *string
	MentorComments  *string
	Counselling     *string
	StudentFeedback *string
	ID              string
	MentorName      string
	StudentName     string
	Branch          string
	Semester        string
}

// Fields accepted when creating a submission
type NewSubmission struct {
	CreatedAt       time.Time
	BatchNo         *string
	Section         *string
	Cytest          *string
	MentorComments  *string
	Counselling     *string
	StudentFeedback *string
	MentorName      string `json:"mentorName"  validate:"required"`
	StudentName     string `json:"studentName" validate:"required"`
	Branch          string `json:"branch"      validate:"required"`
	Semester        string `json:"semester"    validate:"required"`
}

// Submission with the identifier and creation time filled in
func (n *NewSubmission) Build(id string, now time.Time) Submission {
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	return Submission{
		ID:              id,
		MentorName:      n.MentorName,
		StudentName:     n.StudentName,
		Branch:          n.Branch,
		Semester:        n.Semester,
		BatchNo:         n.BatchNo,
		Section:         n.Section,
		Cytest:          n.Cytest,
		MentorComments:  n.MentorComments,
		Counselling:     n.Counselling,
		StudentFeedback: n.StudentFeedback,
		CreatedAt:       createdAt.UTC(),
	}
}
