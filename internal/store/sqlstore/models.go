package sqlstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mentorconnect/submissions-api/internal/store"
)

type submission struct {
	CreatedAt       time.Time
	BatchNo         datatypes.Null[string]
	Section         datatypes.Null[string]
	Cytest          datatypes.Null[string]
	MentorComments  datatypes.Null[string]
	Counselling     datatypes.Null[string]
	StudentFeedback datatypes.Null[string]
	MentorName      string
	StudentName     string
	Branch          string
	Semester        string
	ID              uuid.UUID `gorm:"primaryKey"`
}

func (submission) TableName() string {
	return "submissions"
}

func fromStore(s store.Submission, id uuid.UUID) submission {
	return submission{
		ID:              id,
		MentorName:      s.MentorName,
		StudentName:     s.StudentName,
		Branch:          s.Branch,
		Semester:        s.Semester,
		BatchNo:         newNull(s.BatchNo),
		Section:         newNull(s.Section),
		Cytest:          newNull(s.Cytest),
		MentorComments:  newNull(s.MentorComments),
		Counselling:     newNull(s.Counselling),
		StudentFeedback: newNull(s.StudentFeedback),
		CreatedAt:       s.CreatedAt,
	}
}

func (s *submission) toStore() store.Submission {
	return store.Submission{
		ID:              s.ID.String(),
		MentorName:      s.MentorName,
		StudentName:     s.StudentName,
		Branch:          s.Branch,
		Semester:        s.Semester,
		BatchNo:         ptrFromNull(s.BatchNo),
		Section:         ptrFromNull(s.Section),
		Cytest:          ptrFromNull(s.Cytest),
		MentorComments:  ptrFromNull(s.MentorComments),
		Counselling:     ptrFromNull(s.Counselling),
		StudentFeedback: ptrFromNull(s.StudentFeedback),
		CreatedAt:       s.CreatedAt.UTC(),
	}
}

// Transmutes a pointer into a [datatypes.Null]
func newNull[T any](d *T) datatypes.Null[T] {
	if d != nil {
		return datatypes.NewNull(*d)
	}

	return datatypes.Null[T]{}
}

// Maps a [datatypes.Null] back into a pointer
func ptrFromNull[T any](d datatypes.Null[T]) *T {
	if !d.Valid {
		return nil
	}

	return &d.V
}
