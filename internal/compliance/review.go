package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// SpecSource yields the OpenAPI documents keyed by API.
type SpecSource interface {
	LoadAll(ctx context.Context, offline bool) map[string]*Spec
}

// Options configure a review run.
type Options struct {
	ClientPath string // Go file or package directory of the client
	OutputPath string // markdown report destination
	Offline    bool   // use cached documents only
	Now        func() time.Time
	Logger     *slog.Logger
}

// Review extracts the client methods, matches them against specs and
// writes the report to OutputPath.
func Review(ctx context.Context, src SpecSource, opts Options) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	if _, err := os.Stat(opts.ClientPath); err != nil {
		return Report{}, fmt.Errorf("client source not found: %s", opts.ClientPath)
	}

	specs := src.LoadAll(ctx, opts.Offline)
	loaded := map[string]bool{}
	for key, s := range specs {
		loaded[key] = s != nil
	}

	methods, err := ExtractMethods(opts.ClientPath)
	if err != nil {
		return Report{}, err
	}
	logger.Info("parsed client methods", "path", opts.ClientPath, "methods", len(methods))

	cats := Analyze(methods, specs)
	report := BuildReport(cats, Missing(cats, specs), loaded, now())

	text, err := report.Render()
	if err != nil {
		return report, err
	}
	if dir := filepath.Dir(opts.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report, fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(opts.OutputPath, []byte(text), 0o644); err != nil {
		return report, fmt.Errorf("write report: %w", err)
	}
	logger.Info("compliance report written", "path", opts.OutputPath)
	return report, nil
}
