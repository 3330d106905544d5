// Package main provides the entry point for the flycheck-deploy CLI.
package main

import (
	"context"
	"os"

	"github.com/atilaneves/flycheck/internal/cli"
	"github.com/atilaneves/flycheck/internal/signal"
)

// Set via ldflags at build time.
//
//nolint:gochecknoglobals // build metadata
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	h := signal.NewHandler(context.Background())
	defer h.Stop()
	defer cli.CloseLogFile()

	err := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	return cli.ExitCodeForError(err)
}
