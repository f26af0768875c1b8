package main

import (
	"context"
	"os"

	"github.com/gi8lino/jiraas/internal/app"
	"github.com/gi8lino/jiraas/internal/jiraerr"
)

var (
	Version string = "dev"
	Commit  string = "none"
)

func main() {
	ctx := context.Background()

	if err := app.Run(ctx, Version, Commit, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		jiraerr.Print(os.Stderr, err)
		os.Exit(jiraerr.ExitCode(err))
	}
}
