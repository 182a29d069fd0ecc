// Package main provides the bookrec command line: the offline pipeline stages, recommendations and the
// HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd()
	err := root.ExecuteContext(ctx)
	if serr := a.shutdown(); err == nil {
		err = serr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps error codes to process exit statuses: 2 for usage and configuration problems, 3 for
// input that failed a precondition, 4 for upstream failures, 1 otherwise.
func exitCode(err error) int {
	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeConfiguration, domainerrors.CodeValidation:
		return 2
	case domainerrors.CodePrecondition:
		return 3
	case domainerrors.CodeUpstream:
		return 4
	default:
		return 1
	}
}
