package cmds

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mentorconnect/submissions-api/internal/exiterr"
	"github.com/mentorconnect/submissions-api/internal/logger"
)

var errNotConfirmed = errors.New("refusing to delete every submission without --yes")

func newPurgeCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every submission",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, span := tracer.Start(cmd.Context(), "purgeCmd")
			defer span.End()

			if !yes {
				span.RecordError(errNotConfirmed)
				span.SetStatus(codes.Error, "purge not confirmed")
				return exiterr.Wrap(exitNotConfirmed, errNotConfirmed)
			}

			deleted, err := a.store.DeleteAll(ctx)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to delete submissions")
				return err
			}

			span.SetAttributes(attribute.Int64("deleted", deleted))
			logger.Logger.InfoContext(ctx, "deleted all submissions", "deleted", deleted)

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d submissions\n", deleted)

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "purged submissions")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every submission")

	return cmd
}
