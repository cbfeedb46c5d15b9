package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mentorconnect/submissions-api/cmd/mentorctl/cmds"
	"github.com/mentorconnect/submissions-api/internal/exiterr"
	"github.com/mentorconnect/submissions-api/internal/logger"
)

const exitErrored = 1

func runApp(ctx context.Context) int {
	err := cmds.Execute(ctx)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "error executing subcommand", "error", err)
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
	}

	return exiterr.Code(err, exitErrored)
}

func main() {
	logger.InitSlog()

	os.Exit(runApp(context.Background()))
}
