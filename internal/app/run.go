package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gi8lino/jiraas/internal/cache"
	"github.com/gi8lino/jiraas/internal/config"
	"github.com/gi8lino/jiraas/internal/credentials"
	"github.com/gi8lino/jiraas/internal/flag"
	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/logging"
	"github.com/gi8lino/jiraas/internal/mock"

	"github.com/containeroo/tinyflags"
)

// Run executes one jira-as command. Results go to stdout, logs to stderr.
func Run(ctx context.Context, version, commit string, args []string, stdout, stderr io.Writer, getEnv func(string) string) error {
	// Create a new context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse command-line flags
	flags, err := flag.ParseArgs(version, args, stdout, getEnv)
	if err != nil {
		if tinyflags.IsHelpRequested(err) || tinyflags.IsVersionRequested(err) {
			fmt.Fprint(stdout, err.Error()) // nolint:errcheck
			return nil
		}
		return fmt.Errorf("parsing error: %w", err)
	}

	// Setup logger
	logger := logging.SetupLogger(flags.LogFormat, flags.Debug, stderr)
	logger.Debug("starting jira-as",
		"version", version,
		"commit", commit,
		"command", flags.Command,
	)

	cmd, ok := commands[flags.Command]
	if !ok {
		if flags.Command == "" {
			return fmt.Errorf("missing command: expected one of %s", commandNames())
		}
		return fmt.Errorf("unknown command %q: expected one of %s", flags.Command, commandNames())
	}
	if len(flags.Args) < len(cmd.args) {
		return fmt.Errorf("usage: jira-as %s %s", flags.Command, cmd.usage())
	}

	// Layer the .env file under the process environment
	env, err := config.EnvWithDotenv(getEnv, flags.EnvFile)
	if err != nil {
		return fmt.Errorf("loading env file error: %w", err)
	}

	// Load config
	cfg, err := config.LoadConfig(flags.ConfigPath, env)
	if err != nil {
		return fmt.Errorf("loading config error: %w", err)
	}

	r := &runner{
		flags:  flags,
		cfg:    cfg,
		getEnv: env,
		logger: logger,
		out:    stdout,
		fields: cache.NewAutocompleteCache(0, 0),
	}

	if cmd.needsService {
		svc, closeFn, err := newService(ctx, flags, cfg, env, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		r.svc = svc
	}

	return cmd.run(ctx, r)
}

// newService returns the mock client in mock mode and the HTTP client
// otherwise. Credentials missing from the config are taken from the
// credential manager.
func newService(ctx context.Context, flags flag.Config, cfg config.Config, getEnv func(string) string, logger *slog.Logger) (jira.Service, func(), error) {
	if flags.Mock || cfg.MockMode || mock.IsMockMode(getEnv) {
		logger.Debug("using mock client")
		svc := mock.New(mock.Options{
			BaseURL:      cfg.SiteURL,
			Email:        cfg.Email,
			APIToken:     cfg.APIToken,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		})
		return svc, func() { _ = svc.Close() }, nil
	}

	creds, err := resolveCredentials(cfg, getEnv, logger)
	if err != nil {
		return nil, nil, err
	}

	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		respCache, err = cache.New(ctx, cache.Options{
			Size:   cfg.Cache.Size,
			MaxTTL: cfg.Cache.TTL,
			Dir:    cfg.Cache.Dir,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening cache error: %w", err)
		}
	}

	c, err := jira.New(jira.Options{
		BaseURL:      creds.SiteURL,
		Email:        creds.Email,
		APIToken:     creds.APIToken,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		RateLimit:    cfg.RateLimit,
		Logger:       logger,
		Cache:        respCache,
	})
	if err != nil {
		if respCache != nil {
			respCache.Close() // nolint:errcheck
		}
		return nil, nil, err
	}

	closeFn := func() {
		c.Close() // nolint:errcheck
		if respCache != nil {
			if err := respCache.Close(); err != nil {
				logger.Warn("closing cache failed", "error", err)
			}
		}
	}
	return c, closeFn, nil
}

// resolveCredentials prefers a complete credential set from the config and
// falls back to the environment and keychain.
func resolveCredentials(cfg config.Config, getEnv func(string) string, logger *slog.Logger) (credentials.Credentials, error) {
	if cfg.HasCredentials() {
		return credentials.Credentials{SiteURL: cfg.SiteURL, Email: cfg.Email, APIToken: cfg.APIToken}, nil
	}
	mgr := credentials.NewManager(credentials.WithGetEnv(getEnv))
	creds, backend, err := mgr.Get()
	if err != nil {
		return credentials.Credentials{}, err
	}
	logger.Debug("credentials resolved", "backend", backend)
	return creds, nil
}
