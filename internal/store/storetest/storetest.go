// Package storetest holds the behavior every store.Store backend must share.
// Backend test suites embed [Suite] and set Store and MissingID in SetupSuite.
package storetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mentorconnect/submissions-api/internal/store"
)

type Suite struct {
	suite.Suite

	Store store.Store
	// Well formed identifier that is never assigned by the backend
	MissingID string
}

func ptr[T any](v T) *T {
	return &v
}

func newSubmission(studentName string, createdAt time.Time) store.NewSubmission {
	return store.NewSubmission{
		MentorName:  "M1",
		StudentName: studentName,
		Branch:      "CSE",
		Semester:    "5",
		CreatedAt:   createdAt,
	}
}

func (s *Suite) ctx() context.Context {
	return s.T().Context()
}

func (s *Suite) all() []store.Submission {
	found, err := s.Store.Find(s.ctx(), store.ExactFilter{})
	s.Require().NoError(err, "failed to list submissions")
	return found
}

func (s *Suite) create(n store.NewSubmission) string {
	id, err := s.Store.Create(s.ctx(), n)
	s.Require().NoError(err, "failed to create submission")
	s.Require().NotEmpty(id)
	return id
}

func (s *Suite) byID(id string) store.Submission {
	for _, sub := range s.all() {
		if sub.ID == id {
			return sub
		}
	}

	s.FailNow("submission not found", id)
	return store.Submission{}
}

func (s *Suite) SetupTest() {
	_, err := s.Store.DeleteAll(s.ctx())
	s.Require().NoError(err, "failed to clear store")
}

func (s *Suite) TestCreate() {
	createdAt := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	n := newSubmission("S1", createdAt)
	n.BatchNo = ptr("B12")
	n.Section = ptr("A")
	n.Cytest = ptr("passed")
	n.MentorComments = ptr("attentive")
	n.Counselling = ptr("none")

	id := s.create(n)
	got := s.byID(id)

	s.Equal("M1", got.MentorName)
	s.Equal("S1", got.StudentName)
	s.Equal("CSE", got.Branch)
	s.Equal("5", got.Semester)
	s.Equal(ptr("B12"), got.BatchNo)
	s.Equal(ptr("A"), got.Section)
	s.Equal(ptr("passed"), got.Cytest)
	s.Equal(ptr("attentive"), got.MentorComments)
	s.Equal(ptr("none"), got.Counselling)
	s.Nil(got.StudentFeedback)
	s.True(createdAt.Equal(got.CreatedAt), "createdAt %s != %s", createdAt, got.CreatedAt)
}

func (s *Suite) TestCreateDefaultsCreatedAt() {
	before := time.Now().Add(-time.Second)
	id := s.create(newSubmission("S1", time.Time{}))
	after := time.Now().Add(time.Second)

	got := s.byID(id)
	s.True(got.CreatedAt.After(before), "createdAt too early: %s", got.CreatedAt)
	s.True(got.CreatedAt.Before(after), "createdAt too late: %s", got.CreatedAt)
}

func (s *Suite) TestCreateRejectsMissingRequired() {
	tests := map[string]func(n *store.NewSubmission){
		"MentorName":  func(n *store.NewSubmission) { n.MentorName = "" },
		"StudentName": func(n *store.NewSubmission) { n.StudentName = "" },
		"Branch":      func(n *store.NewSubmission) { n.Branch = "" },
		"Semester":    func(n *store.NewSubmission) { n.Semester = "" },
	}

	for name, mutate := range tests {
		s.Run(name, func() {
			n := newSubmission("S1", time.Time{})
			mutate(&n)

			_, err := s.Store.Create(s.ctx(), n)
			var validationErr *store.ValidationError
			s.Require().ErrorAs(err, &validationErr)
			s.Empty(s.all(), "nothing should be written")
		})
	}
}

func (s *Suite) TestFindNewestFirst() {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	oldest := s.create(newSubmission("oldest", base))
	newest := s.create(newSubmission("newest", base.Add(2*time.Hour)))
	middle := s.create(newSubmission("middle", base.Add(time.Hour)))

	found := s.all()
	s.Require().Len(found, 3)
	s.Equal(newest, found[0].ID)
	s.Equal(middle, found[1].ID)
	s.Equal(oldest, found[2].ID)
}

func (s *Suite) TestFindExact() {
	at := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	cse5 := newSubmission("a", at)
	cse7 := newSubmission("b", at.Add(time.Minute))
	cse7.Semester = "7"
	civil7 := newSubmission("c", at.Add(2*time.Minute))
	civil7.Branch = "CIVIL"
	civil7.Semester = "7"

	cse5ID := s.create(cse5)
	cse7ID := s.create(cse7)
	civil7ID := s.create(civil7)

	tests := map[string]struct {
		filter   store.Filter
		expected []string
	}{
		"Nothing":           {filter: store.ExactFilter{}, expected: []string{civil7ID, cse7ID, cse5ID}},
		"Branch":            {filter: store.ExactFilter{Branch: ptr("CSE")}, expected: []string{cse7ID, cse5ID}},
		"Semester":          {filter: store.ExactFilter{Semester: ptr("7")}, expected: []string{civil7ID, cse7ID}},
		"BranchAndSemester": {filter: store.ExactFilter{Branch: ptr("CIVIL"), Semester: ptr("7")}, expected: []string{civil7ID}},
		"NoMatch":           {filter: store.ExactFilter{Branch: ptr("cse")}, expected: []string{}},
		"NilFilter":         {filter: nil, expected: []string{civil7ID, cse7ID, cse5ID}},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			found, err := s.Store.Find(s.ctx(), tt.filter)
			s.Require().NoError(err)

			ids := make([]string, 0, len(found))
			for _, sub := range found {
				ids = append(ids, sub.ID)
			}
			s.Equal(tt.expected, ids)
		})
	}
}

func (s *Suite) TestFindSearch() {
	at := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	asha := newSubmission("Asha", at)
	asha.Branch = "ECE"
	batch := newSubmission("Ravi", at.Add(time.Minute))
	batch.BatchNo = ptr("B12")
	other := newSubmission("Kiran", at.Add(2*time.Minute))
	other.BatchNo = ptr("B7")

	ashaID := s.create(asha)
	batchID := s.create(batch)
	s.create(other)

	tests := map[string]struct {
		branch   string
		search   string
		expected []string
	}{
		"StudentNameLower":    {search: "asha", expected: []string{ashaID}},
		"StudentNameUpper":    {search: "ASHA", expected: []string{ashaID}},
		"StudentNameSubstr":   {search: "sh", expected: []string{ashaID}},
		"BatchNo":             {search: "b12", expected: []string{batchID}},
		"IgnoresBranch":       {branch: "CSE", search: "asha", expected: []string{ashaID}},
		"Pattern":             {search: "^(asha|ravi)$", expected: []string{batchID, ashaID}},
		"NoMatch":             {search: "zzz", expected: []string{}},
		"DoesNotSearchBranch": {search: "ECE", expected: []string{}},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			found, err := s.Store.Find(s.ctx(), store.FilterFromQuery(tt.branch, "", tt.search))
			s.Require().NoError(err)

			ids := make([]string, 0, len(found))
			for _, sub := range found {
				ids = append(ids, sub.ID)
			}
			s.Equal(tt.expected, ids)
		})
	}
}

func (s *Suite) TestUpdateFeedback() {
	n := newSubmission("S1", time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	n.BatchNo = ptr("B1")
	id := s.create(n)
	other := s.create(newSubmission("S2", time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC)))

	before := s.byID(id)
	otherBefore := s.byID(other)

	updated, err := s.Store.UpdateFeedback(s.ctx(), id, "Good")
	s.Require().NoError(err)
	s.Equal(ptr("Good"), updated.StudentFeedback)

	after := s.byID(id)
	expected := before
	expected.StudentFeedback = ptr("Good")
	s.Equal(expected, after, "only studentFeedback should change")
	s.Equal(after, *updated, "returned record matches stored record")
	s.Equal(otherBefore, s.byID(other), "other records untouched")

	_, err = s.Store.UpdateFeedback(s.ctx(), id, "Better")
	s.Require().NoError(err)
	s.Equal(ptr("Better"), s.byID(id).StudentFeedback)
}

func (s *Suite) TestUpdateFeedbackNotFound() {
	id := s.create(newSubmission("S1", time.Time{}))
	before := s.all()

	for _, missing := range []string{s.MissingID, "not-an-id", ""} {
		_, err := s.Store.UpdateFeedback(s.ctx(), missing, "Good")
		s.Require().ErrorIs(err, store.ErrNotFound, "id %q", missing)
	}

	s.Equal(before, s.all())
	s.Nil(s.byID(id).StudentFeedback)
}

func (s *Suite) TestUpdateFeedbackEmpty() {
	id := s.create(newSubmission("S1", time.Time{}))

	_, err := s.Store.UpdateFeedback(s.ctx(), id, "")
	var validationErr *store.ValidationError
	s.Require().ErrorAs(err, &validationErr)
	s.Nil(s.byID(id).StudentFeedback)
}

func (s *Suite) TestDeleteAll() {
	for i := range 5 {
		s.create(newSubmission("S", time.Date(2025, time.January, i+1, 0, 0, 0, 0, time.UTC)))
	}
	s.Require().Len(s.all(), 5)

	deleted, err := s.Store.DeleteAll(s.ctx())
	s.Require().NoError(err)
	s.Equal(int64(5), deleted)
	s.Empty(s.all())

	deleted, err = s.Store.DeleteAll(s.ctx())
	s.Require().NoError(err)
	s.Equal(int64(0), deleted)
	s.Empty(s.all())
}

func (s *Suite) TestPing() {
	s.Require().NoError(s.Store.Ping(s.ctx()))
}
