package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gi8lino/jiraas/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads valid YAML file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		testutils.MustWriteFile(t, path, `
site_url: https://example.atlassian.net/
email: user@example.com
api_token: secret
default_project: demo
timeout: 10s
max_retries: 5
cache:
  enabled: true
  ttl: 5m
agile_fields:
  story_points: customfield_10028
projects:
  DEMO:
    issue_type: Bug
    priority: High
    labels: [triage]
`)

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)

		assert.Equal(t, "https://example.atlassian.net", cfg.SiteURL)
		assert.Equal(t, "DEMO", cfg.DefaultProject)
		assert.Equal(t, 10*time.Second, cfg.Timeout)
		assert.Equal(t, 5, cfg.MaxRetries)
		assert.Equal(t, DefaultRetryBackoff, cfg.RetryBackoff)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "customfield_10028", cfg.AgileFields.StoryPoints)
		assert.Equal(t, DefaultAgileFields.EpicLink, cfg.AgileFields.EpicLink)
		assert.True(t, cfg.HasCredentials())

		d, ok := cfg.ProjectDefaults("demo")
		require.True(t, ok)
		assert.Equal(t, "Bug", d.IssueType)
		assert.Equal(t, []string{"triage"}, d.Labels)
	})

	t.Run("empty path yields defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultTimeout, cfg.Timeout)
		assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
		assert.Equal(t, DefaultPageSize, cfg.PageSize)
		assert.False(t, cfg.HasCredentials())
	})

	t.Run("env overrides file values", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		testutils.MustWriteFile(t, path, "site_url: https://file.atlassian.net\nemail: file@example.com\n")

		cfg, err := LoadConfig(path, envMap(map[string]string{
			EnvSiteURL:       "https://env.atlassian.net",
			EnvAPIToken:      "tok",
			EnvMockMode:      "TRUE",
			EnvEpicLinkField: "customfield_20000",
		}))
		require.NoError(t, err)
		assert.Equal(t, "https://env.atlassian.net", cfg.SiteURL)
		assert.Equal(t, "file@example.com", cfg.Email)
		assert.Equal(t, "tok", cfg.APIToken)
		assert.True(t, cfg.MockMode)
		assert.Equal(t, "customfield_20000", cfg.AgileFields.EpicLink)
	})

	t.Run("resolves file secret references", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		tokenPath := filepath.Join(dir, "token")
		testutils.MustWriteFile(t, tokenPath, "from-file")

		path := filepath.Join(dir, "config.yaml")
		testutils.MustWriteFile(t, path, "api_token: file:"+tokenPath+"\n")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "from-file", strings.TrimSpace(cfg.APIToken))
	})

	t.Run("fails if file missing", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfig("does-not-exist.yaml", nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		testutils.MustWriteFile(t, path, "site_uri: https://x.atlassian.net\n")

		_, err := LoadConfig(path, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "site_uri")
	})
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	t.Run("accepts defaults", func(t *testing.T) {
		t.Parallel()
		cfg := Config{}
		setDefaults(&cfg)
		assert.NoError(t, ValidateConfig(&cfg))
	})

	t.Run("reports every violation", func(t *testing.T) {
		t.Parallel()

		cfg := Config{
			SiteURL:    "http://example.atlassian.net",
			Email:      "not-an-email",
			MaxRetries: 20,
			AgileFields: AgileFields{
				Sprint: "sprint",
			},
			Projects: map[string]ProjectDefaults{"DEMO": {Priority: "Urgent"}},
			Cache:    CacheConfig{Enabled: true},
		}

		err := ValidateConfig(&cfg)
		require.Error(t, err)

		msg := err.Error()
		assert.True(t, strings.HasPrefix(msg, "config validation failed:\n  - "))
		assert.Contains(t, msg, "email must be a valid email address")
		assert.Contains(t, msg, "max_retries must be <= 10")
		assert.Contains(t, msg, `agile_fields.sprint must start with "customfield_"`)
		assert.Contains(t, msg, "projects[DEMO].priority must be one of [Highest High Medium Low Lowest]")
		assert.Contains(t, msg, "site_url must use https")
		assert.Contains(t, msg, "cache.ttl must be > 0 when cache is enabled")
	})
}

func TestAgileField(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	setDefaults(&cfg)

	got, err := cfg.AgileField("story_points")
	require.NoError(t, err)
	assert.Equal(t, "customfield_10016", got)

	got, err = cfg.AgileField("epic-link")
	require.NoError(t, err)
	assert.Equal(t, "customfield_10014", got)

	_, err = cfg.AgileField("rank")
	assert.Error(t, err)
}

func TestEnvWithDotenv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	testutils.MustWriteFile(t, envFile, "JIRA_EMAIL=dot@example.com\nJIRA_SITE_URL=https://dot.atlassian.net\n")

	getEnv, err := EnvWithDotenv(envMap(map[string]string{EnvSiteURL: "https://proc.atlassian.net"}), envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "https://proc.atlassian.net", getEnv(EnvSiteURL))
	assert.Equal(t, "dot@example.com", getEnv(EnvEmail))
	assert.Equal(t, "", getEnv(EnvAPIToken))
}
