package cmds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mentorconnect/submissions-api/internal/config"
	"github.com/mentorconnect/submissions-api/internal/database"
	"github.com/mentorconnect/submissions-api/internal/logger"
	otelmentorapi "github.com/mentorconnect/submissions-api/internal/otel"
	"github.com/mentorconnect/submissions-api/internal/store"
)

const serviceName = "mentorctl"

// Exit code when a destructive command is run without confirmation
const exitNotConfirmed = 2

const defaultShutdownTimeout = 30 * time.Second

var tracer = otel.Tracer("github.com/mentorconnect/submissions-api/cmd/mentorctl/cmds")

type openFunc func(ctx context.Context, cfg *config.Config) (store.Store, error)

// State shared by every subcommand for one invocation
type app struct {
	open         openFunc
	store        store.Store
	config       *config.Config
	otelShutdown func(context.Context) error
	span         trace.Span
	configFile   string
}

func newRootCmd(open openFunc) (*cobra.Command, *app) {
	a := &app{open: open}

	root := &cobra.Command{
		Use:               "mentorctl",
		Short:             "Administer the mentoring submissions store",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().
		StringVar(&a.configFile, "config", "", "path to a mentorapi.yaml config file")

	root.AddCommand(newListCmd(a), newPurgeCmd(a), newSeedCmd(a))

	return root, a
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())

	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.config = cfg

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	a.otelShutdown, err = otelmentorapi.SetupOTelSDK(cmd.Context(), otelmentorapi.Options{
		Writer:      cmd.ErrOrStderr(),
		ServiceName: serviceName,
		Enabled:     cfg.Logging.OTelEnabled,
		UseOTLP:     cfg.Logging.UseOTLP,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}

	// continue a trace handed down by whatever launched us, e.g. a scheduled job
	extracted := otelmentorapi.ContextFromEnv(cmd.Context())
	ctx, span := tracer.Start(
		cmd.Context(),
		serviceName,
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(extracted)),
	)
	a.span = span
	cmd.SetContext(ctx)

	a.store, err = a.open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	return nil
}

// Runs after the command whether or not it succeeded
func (a *app) teardown() error {
	var errs error

	timeout := defaultShutdownTimeout
	if a.config != nil {
		timeout = time.Second * time.Duration(a.config.GracefulShutdownSecs)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close store: %w", err))
		}
	}

	if a.span != nil {
		a.span.End()
	}

	if a.otelShutdown != nil {
		errs = errors.Join(errs, a.otelShutdown(ctx))
	}

	return errs
}

func run(
	ctx context.Context,
	open openFunc,
	args []string,
	stdout, stderr io.Writer,
) error {
	root, a := newRootCmd(open)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.teardown())
}

func Execute(ctx context.Context) error {
	return run(ctx, database.Open, nil, nil, nil)
}
