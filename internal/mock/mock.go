// Package mock provides an in-memory Jira client with the same surface as
// the HTTP client. It serves fixed seed data and is meant for tests and
// offline runs.
package mock

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/timeutil"
)

// EnvMockMode switches callers to the mock client when set to "true".
const EnvMockMode = "JIRA_MOCK_MODE"

const defaultBaseURL = "https://mock.atlassian.net"

var _ jira.Service = (*Client)(nil)

// Options mirror jira.Options so both clients are built the same way. The
// mock only records them.
type Options struct {
	BaseURL      string
	Email        string
	APIToken     string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// Client is an in-memory jira.Service. It is not safe for concurrent use;
// each test should build its own.
type Client struct {
	BaseURL      string
	Email        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	st *state
}

// New returns a client loaded with a fresh copy of the seed data.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = jira.DefaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = jira.DefaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = jira.DefaultRetryBackoff
	}
	return &Client{
		BaseURL:      base,
		Email:        opts.Email,
		Timeout:      opts.Timeout,
		MaxRetries:   opts.MaxRetries,
		RetryBackoff: opts.RetryBackoff,
		st:           newState(base),
	}
}

// IsMockMode reports whether JIRA_MOCK_MODE is "true", ignoring case.
func IsMockMode(getenv func(string) string) bool {
	return strings.EqualFold(strings.TrimSpace(getenv(EnvMockMode)), "true")
}

// Get accepts any path and returns an empty object.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	return map[string]any{}, nil
}

// Post accepts any path and returns an empty object.
func (c *Client) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	return map[string]any{}, nil
}

// Put accepts any path and returns an empty object.
func (c *Client) Put(ctx context.Context, path string, body any) (map[string]any, error) {
	return map[string]any{}, nil
}

// Delete accepts any path and returns an empty object.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	return map[string]any{}, nil
}

// Close is a no-op.
func (c *Client) Close() error { return nil }

// issue returns the stored issue or a NotFound error.
func (c *Client) issue(key string) (map[string]any, error) {
	is, ok := c.st.issues[key]
	if !ok {
		return nil, jiraerr.NotFound("issue %s not found", key)
	}
	return is, nil
}

// project returns the stored project or a NotFound error.
func (c *Client) project(key string) (map[string]any, error) {
	for _, p := range c.st.projects {
		if p["key"] == key {
			return p, nil
		}
	}
	return nil, jiraerr.NotFound("project %s not found", key)
}

// user returns a known user, or a placeholder for unknown ids.
func (c *Client) user(accountID string) map[string]any {
	if u, ok := c.st.users[accountID]; ok {
		return deepCopy(u)
	}
	return map[string]any{"accountId": accountID, "displayName": "Unknown User"}
}

func (c *Client) now() string {
	return timeutil.FormatDatetimeForJira(c.st.now().UTC())
}

func fieldsOf(issue map[string]any) map[string]any {
	f, _ := issue["fields"].(map[string]any)
	if f == nil {
		f = map[string]any{}
		issue["fields"] = f
	}
	return f
}

func textDoc(s string) map[string]any {
	return adf.FromText(s).Map()
}
