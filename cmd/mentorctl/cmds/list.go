package cmds

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mentorconnect/submissions-api/internal/store"
	"github.com/mentorconnect/submissions-api/internal/types"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type listOptions struct {
	branch   string
	semester string
	search   string
	output   string
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := tracer.Start(cmd.Context(), "listCmd")
			defer span.End()

			span.SetAttributes(
				attribute.String("branch", opts.branch),
				attribute.String("semester", opts.semester),
				attribute.String("search", opts.search),
			)

			if opts.output != outputTable && opts.output != outputJSON {
				err := fmt.Errorf("unknown output format %q", opts.output)
				span.RecordError(err)
				span.SetStatus(codes.Error, "unknown output format")
				return err
			}

			found, err := a.store.Find(
				ctx,
				store.FilterFromQuery(opts.branch, opts.semester, opts.search),
			)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to find submissions")
				return err
			}

			span.SetAttributes(attribute.Int("found", len(found)))

			submissions := make([]types.Submission, 0, len(found))
			for i := range found {
				submissions = append(submissions, types.SubmissionFromStore(&found[i]))
			}

			if opts.output == outputJSON {
				err = writeJSON(cmd.OutOrStdout(), submissions)
			} else {
				err = writeTable(cmd.OutOrStdout(), submissions)
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to write output")
				return err
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "listed submissions")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.branch, "branch", "", "only submissions for this branch")
	flags.StringVar(&opts.semester, "semester", "", "only submissions for this semester")
	flags.StringVar(
		&opts.search,
		"search",
		"",
		"case insensitive pattern matched against student name and batch number; overrides --branch and --semester",
	)
	flags.StringVarP(&opts.output, "output", "o", outputTable, `"table" or "json"`)

	return cmd
}

func writeJSON(w io.Writer, submissions []types.Submission) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(submissions)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func writeTable(w io.Writer, submissions []types.Submission) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tCREATED\tMENTOR\tSTUDENT\tBRANCH\tSEMESTER\tBATCH\tFEEDBACK")
	for _, s := range submissions {
		fmt.Fprintf(
			tw,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			s.CreatedAt.Format(time.RFC3339),
			s.MentorName,
			s.StudentName,
			s.Branch,
			s.Semester,
			orDash(s.BatchNo),
			orDash(s.StudentFeedback),
		)
	}

	return tw.Flush()
}
