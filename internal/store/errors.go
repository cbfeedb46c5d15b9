package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mentorconnect/submissions-api/internal/validator"
)

var ErrNotFound = errors.New("submission not found")

// Required input was missing or empty. Nothing was written.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

var valid = validator.Create()

func (n *NewSubmission) Validate() error {
	err := valid.Validate(n)
	if err == nil {
		return nil
	}

	fields := validator.FailedFields(err)
	if len(fields) == 0 {
		return err
	}

	return &ValidationError{Fields: fields}
}

func ValidateFeedback(feedback string) error {
	if feedback == "" {
		return &ValidationError{Fields: []string{"studentFeedback"}}
	}

	return nil
}
