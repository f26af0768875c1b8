package app_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gi8lino/jiraas/internal/app"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyEnv(string) string { return "" }

// run executes app.Run with a short deadline and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	var out, logs bytes.Buffer
	err := app.Run(ctx, "v1", "deadbeef", args, &out, &logs, dummyEnv)
	return out.String(), err
}

// jiraServer serves /myself for the given user JSON.
func jiraServer(t *testing.T, user string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/myself" {
			http.NotFound(w, r)
			return
		}
		if u, p, ok := r.BasicAuth(); !ok || u != "me@example.com" || p != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(user))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	testutils.MustWriteFile(t, path, body)
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("Help requested prints usage and returns nil", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "--help")
		require.NoError(t, err)
		assert.Contains(t, out, "Usage")
	})

	t.Run("Version requested prints version and returns nil", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()

		var out, logs bytes.Buffer
		err := app.Run(ctx, "v9.8.7", "cafebabe", []string{"--version"}, &out, &logs, dummyEnv)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "v9.8.7")
	})

	t.Run("Unknown flag surfaces parsing error", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "--totally-unknown")
		require.Error(t, err)
		assert.EqualError(t, err, "parsing error: unknown flag: --totally-unknown")
	})

	t.Run("Missing command", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "--mock")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing command: expected one of comments, context, credentials")
	})

	t.Run("Unknown command", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "frobnicate", "--mock")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown command "frobnicate"`)
	})

	t.Run("Missing argument prints usage", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "issue", "--mock")
		require.Error(t, err)
		assert.EqualError(t, err, "usage: jira-as issue KEY")
	})

	t.Run("Missing config file surfaces load error", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "whoami", "--config=/nope/does-not-exist.yaml")
		require.Error(t, err)
		assert.EqualError(t, err, "loading config error: failed to read config file: open /nope/does-not-exist.yaml: no such file or directory")
	})
}

func TestRunMock(t *testing.T) {
	t.Parallel()

	t.Run("whoami as json", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "whoami", "--mock", "-o", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"displayName": "Jason Krueger"`)
	})

	t.Run("whoami as table", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "whoami", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "Account ID")
		assert.Contains(t, out, "abc123")
	})

	t.Run("issue detail", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "issue", "demo-86", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "DEMO-86")
		assert.Contains(t, out, "Login fails on Safari")
		assert.Contains(t, out, "Labels")
	})

	t.Run("issue invalid key", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "issue", "nope", "--mock")
		require.Error(t, err)
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindValidation))
	})

	t.Run("issue not found", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "issue", "DEMO-999", "--mock")
		require.Error(t, err)
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})

	t.Run("search as csv", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "search", "project = DEMO", "-o", "csv", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "Key,Type,Status,Priority,Assignee,Summary")
		assert.Contains(t, out, "DEMO-84")
		assert.Contains(t, out, "DEMO-87")
		assert.NotContains(t, out, "DEMOSD-1")
	})

	t.Run("search as table", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "search", "project", "=", "DEMOSD", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "DEMOSD-2")
		assert.Contains(t, strings.ToLower(out), "2 of 2")
	})

	t.Run("export as csv", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "export", "project = DEMOSD", "-o", "csv", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "key,summary,status,priority,issuetype,assignee,reporter,created,updated")
		assert.Contains(t, out, "DEMOSD-1,Cannot connect to VPN,Waiting for support,High,IT help,,Jason Krueger,")
		assert.NotContains(t, out, "DEMO-84")
	})

	t.Run("transitions", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "transitions", "DEMO-85", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "In Progress")
		assert.Contains(t, out, "31")
	})

	t.Run("comments empty", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "comments", "DEMO-85", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "No comments.")
	})

	t.Run("sla", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "sla", "DEMOSD-1", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "Time to first response")
		assert.Contains(t, strings.ToLower(out), "breached")
	})

	t.Run("fields by prefix", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "fields", "s", "-o", "csv", "--mock")
		require.NoError(t, err)
		assert.Contains(t, out, "customfield_10020,Sprint")
		assert.Contains(t, out, "Story Points")
		assert.Contains(t, out, "Summary")
		assert.NotContains(t, out, "Assignee")
	})

	t.Run("mock mode from config", func(t *testing.T) {
		t.Parallel()

		cfg := writeConfig(t, "mock_mode: true\n")
		out, err := run(t, "whoami", "--config="+cfg)
		require.NoError(t, err)
		assert.Contains(t, out, "Jason Krueger")
	})
}

func TestRunContext(t *testing.T) {
	t.Parallel()

	t.Run("settings from config", func(t *testing.T) {
		t.Parallel()

		cfg := writeConfig(t, `
projects:
  DEMO:
    priority: High
    labels: [team-a]
`)
		out, err := run(t, "context", "demo", "--config="+cfg, "--skill-dir="+t.TempDir())
		require.NoError(t, err)
		assert.Contains(t, out, "Project: DEMO")
		assert.Contains(t, out, "Source: settings")
	})

	t.Run("no context", func(t *testing.T) {
		t.Parallel()

		out, err := run(t, "context", "NONE", "--skill-dir="+t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "Project: NONE\nSource: none\n", out)
	})
}

func TestRunRealClient(t *testing.T) {
	t.Parallel()

	user := `{"accountId":"u-1","displayName":"Test User","emailAddress":"me@example.com"}`

	t.Run("whoami over http", func(t *testing.T) {
		t.Parallel()

		srv := jiraServer(t, user)
		cfg := writeConfig(t, "site_url: "+srv.URL+"\nemail: me@example.com\napi_token: secret\nmax_retries: 1\n")

		out, err := run(t, "whoami", "--config="+cfg, "-o", "csv")
		require.NoError(t, err)
		assert.Contains(t, out, "Display Name,Test User")
	})

	t.Run("credentials check", func(t *testing.T) {
		t.Parallel()

		srv := jiraServer(t, user)
		cfg := writeConfig(t, "site_url: "+srv.URL+"\nemail: me@example.com\napi_token: secret\n")

		out, err := run(t, "credentials", "check", "--config="+cfg)
		require.NoError(t, err)
		assert.Equal(t, "Authenticated as Test User (me@example.com) on "+srv.URL+"\n", out)
	})

	t.Run("credentials check rejected", func(t *testing.T) {
		t.Parallel()

		srv := jiraServer(t, user)
		cfg := writeConfig(t, "site_url: "+srv.URL+"\nemail: me@example.com\napi_token: wrong\n")

		_, err := run(t, "credentials", "check", "--config="+cfg)
		require.Error(t, err)
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindAuthentication))
	})

	t.Run("unknown credentials action", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, "credentials", "store")
		require.Error(t, err)
		assert.EqualError(t, err, `unknown credentials action "store": expected check`)
	})
}
