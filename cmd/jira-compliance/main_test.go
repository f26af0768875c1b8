package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gi8lino/jiraas/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const client = `package sample

import "context"

const apiPath = "/rest/api/3"

type Client struct{}

func (c *Client) GetCurrentUser(ctx context.Context) (map[string]any, error) {
	return c.Get(ctx, apiPath+"/myself", nil)
}

func (c *Client) GetServerInfo(ctx context.Context) (map[string]any, error) {
	return c.Get(ctx, apiPath+"/serverInfo", nil)
}
`

const platform = `{"paths": {
  "/rest/api/3/myself": {"get": {"summary": "Get current user"}},
  "/rest/api/3/project": {"get": {"summary": "Get all projects"}}
}}`

func noEnv(string) string { return "" }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("offline review", func(t *testing.T) {
		t.Parallel()

		tmp := t.TempDir()
		clientPath := filepath.Join(tmp, "client.go")
		specDir := filepath.Join(tmp, "specs")
		out := filepath.Join(tmp, "reports", "report.md")
		testutils.MustWriteFile(t, clientPath, client)
		testutils.MustWriteFile(t, filepath.Join(specDir, "platform.json"), platform)

		var stdout, stderr bytes.Buffer
		code := run(t.Context(), []string{
			"--client", clientPath,
			"--spec-dir", specDir,
			"-o", out,
			"--skip-download",
		}, &stdout, &stderr, noEnv)
		require.Equal(t, 0, code, stderr.String())

		assert.Contains(t, stdout.String(), "Report written to "+out)
		assert.Contains(t, stdout.String(), "Critical issues: 0")
		assert.Contains(t, strings.ToLower(stdout.String()), "platform v3")

		assert.Contains(t, testutils.MustReadFile(t, out), "GET /rest/api/3/project - Get all projects")
	})

	t.Run("missing client source", func(t *testing.T) {
		t.Parallel()

		tmp := t.TempDir()
		var stdout, stderr bytes.Buffer
		code := run(t.Context(), []string{
			"--client", filepath.Join(tmp, "nope"),
			"-o", filepath.Join(tmp, "report.md"),
			"--skip-download",
		}, &stdout, &stderr, noEnv)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr.String(), "client source not found")
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		code := run(t.Context(), []string{"--help"}, &stdout, &stderr, noEnv)
		assert.Equal(t, 0, code)
		assert.Contains(t, stdout.String(), "Usage")
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		code := run(t.Context(), []string{"--nope"}, &stdout, &stderr, noEnv)
		assert.Equal(t, 2, code)
		assert.Contains(t, stderr.String(), "parsing error: unknown flag: --nope")
	})
}
