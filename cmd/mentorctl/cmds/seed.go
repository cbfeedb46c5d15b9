package cmds

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mentorconnect/submissions-api/cmd/mentorctl/internal/seed"
	"github.com/mentorconnect/submissions-api/internal/logger"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		file        string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert submissions from a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := tracer.Start(cmd.Context(), "seedCmd")
			defer span.End()

			span.SetAttributes(attribute.String("file", file))

			data, err := os.ReadFile(file)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to read seed file")
				return err
			}

			submissions, err := seed.Parse(ctx, data)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to parse seed file")
				return err
			}

			ids, err := seed.Insert(ctx, a.store, submissions, concurrency, time.Now().UTC())
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to insert submissions")
				return err
			}

			logger.Logger.InfoContext(ctx, "seeded submissions", "count", len(ids), "file", file)

			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "seeded submissions")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the seed file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum concurrent inserts")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic("Internal error contact a contributor [seed-file-flag-required]")
	}

	return cmd
}
