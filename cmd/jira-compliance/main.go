package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gi8lino/jiraas/internal/compliance"
	"github.com/gi8lino/jiraas/internal/format"
	"github.com/gi8lino/jiraas/internal/logging"

	"github.com/containeroo/tinyflags"
)

var (
	Version string = "dev"
	Commit  string = "none"
)

const downloadTimeout = 60 * time.Second

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

// run reviews the client source and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getEnv func(string) string) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		output       string
		clientPath   string
		specDir      string
		skipDownload bool
		debug        bool
	)

	tf := tinyflags.NewFlagSet("jira-compliance", tinyflags.ContinueOnError)
	tf.Version(Version)
	tf.SetGetEnvFn(getEnv)
	tf.EnvPrefix("JIRA_COMPLIANCE")
	tf.SetOutput(stdout)

	tf.StringVar(&output, "output", "reports/api_compliance_report.md", "Markdown report destination").
		Short("o").
		Placeholder("PATH").
		Value()
	tf.StringVar(&clientPath, "client", "internal/jira", "Go file or package directory of the client").
		Short("c").
		Placeholder("PATH").
		Value()
	tf.StringVar(&specDir, "spec-dir", ".cache/openapi", "Directory caching the OpenAPI descriptions").
		Placeholder("DIR").
		Value()
	tf.BoolVar(&skipDownload, "skip-download", false, "Use cached OpenAPI descriptions only").Value()

	tf.BoolVar(&debug, "debug", false, "Enable debug logging").Value()
	logFormat := tf.String("log-format", "text", "Log format").Choices("text", "json").Short("l").Value()

	if err := tf.Parse(args); err != nil {
		if tinyflags.IsHelpRequested(err) || tinyflags.IsVersionRequested(err) {
			fmt.Fprint(stdout, err.Error()) // nolint:errcheck
			return 0
		}
		fmt.Fprintf(stderr, "parsing error: %v\n", err) // nolint:errcheck
		return 2
	}

	logger := logging.SetupLogger(logging.LogFormat(*logFormat), debug, stderr)
	logger.Debug("starting jira-compliance", "version", Version, "commit", Commit)

	loader := compliance.NewLoader(specDir, downloadTimeout, logger)
	report, err := compliance.Review(ctx, loader, compliance.Options{
		ClientPath: clientPath,
		OutputPath: output,
		Offline:    skipDownload,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("compliance review failed", "error", err)
		return 1
	}

	printSummary(stdout, report, output)
	return 0
}

// printSummary writes the per API summary table to w.
func printSummary(w io.Writer, r compliance.Report, path string) {
	headers := []string{"API", "Spec", "Categories", "Methods", "Matched", "Compliant", "Issues"}
	rows := make([][]string, 0, len(r.Summary)+1)
	for _, s := range r.Summary {
		spec := "missing"
		if s.Loaded {
			spec = "loaded"
		}
		rows = append(rows, summaryRow(s.Name, spec, s))
	}
	rows = append(rows, summaryRow("Total", "", r.Totals()))

	_, _ = fmt.Fprintln(w, format.Table(headers, rows))
	_, _ = fmt.Fprintf(w, "Critical issues: %d\n", len(r.Critical))
	_, _ = fmt.Fprintf(w, "Report written to %s\n", path)
}

func summaryRow(name, spec string, s compliance.APISummary) []string {
	return []string{
		name,
		spec,
		strconv.Itoa(s.Categories),
		strconv.Itoa(s.Methods),
		strconv.Itoa(s.Matched),
		strconv.Itoa(s.Compliant),
		strconv.Itoa(s.Issues),
	}
}
