package logger

import (
	"io"
	"log/slog"
	"os"

	slogotel "github.com/remychantenay/slog-otel"
)

var LogLevel = new(slog.LevelVar)

var sloghandler = slogotel.NewOtelHandler(slogotel.WithNoTraceEvents(true))

var Handler = newHandler(os.Stderr)
var Logger = slog.New(Handler)

// JSON to the given writer with trace and span ids attached from the request context
func newHandler(w io.Writer) slog.Handler {
	return sloghandler(slog.NewJSONHandler(
		w,
		&slog.HandlerOptions{AddSource: true, Level: LogLevel},
	))
}

func InitSlog() {
	slog.SetDefault(Logger)
	LogLevel.Set(slog.LevelDebug)
}

// Redirects all package level logging to `w`. Used by the CLI to keep stdout clean for output.
func SetOutput(w io.Writer) {
	Handler = newHandler(w)
	Logger = slog.New(Handler)
	slog.SetDefault(Logger)
}
