package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(Up0001, Down0001)
}

func Up0001(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
CREATE TABLE submissions (
    id UUID PRIMARY KEY,
    mentor_name TEXT NOT NULL CHECK (mentor_name <> ''),
    student_name TEXT NOT NULL CHECK (student_name <> ''),
    branch TEXT NOT NULL CHECK (branch <> ''),
    semester TEXT NOT NULL CHECK (semester <> ''),
    batch_no TEXT,
    section TEXT,
    cytest TEXT,
    mentor_comments TEXT,
    counselling TEXT,
    student_feedback TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT current_timestamp
);

CREATE INDEX submissions_created_at_idx ON submissions (created_at DESC, id DESC);
CREATE INDEX submissions_branch_semester_idx ON submissions (branch, semester);
`)
	return err
}

func Down0001(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DROP TABLE submissions;`)
	return err
}
