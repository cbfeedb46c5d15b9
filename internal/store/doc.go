// Package store defines the persistence contract for mentoring submissions.
//
// Backends live in subpackages ([mongostore] for the document store, [sqlstore] for
// postgres). Every backend validates input with [NewSubmission.Validate] before
// writing and reports a missing record as [ErrNotFound].
package store
