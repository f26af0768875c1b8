package jira

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// maxBranchSlug bounds the summary part of a branch name.
const maxBranchSlug = 50

// CommitKinds are the accepted conventional commit types.
var CommitKinds = []string{"feat", "fix", "docs", "style", "refactor", "perf", "test", "build", "ci", "chore", "revert"}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// GetDevelopmentStatus returns the linked branches, commits and pull
// requests summary of an issue.
func (c *Client) GetDevelopmentStatus(ctx context.Context, key string) (map[string]any, error) {
	is, err := c.GetIssue(ctx, key, GetIssueOptions{Fields: []string{"summary"}})
	if err != nil {
		return nil, err
	}
	id, _ := is["id"].(string)
	if id == "" {
		return nil, jiraerr.NotFound("issue %s has no id", key)
	}
	var out map[string]any
	err = c.call(ctx, http.MethodGet, devPath+"/issue/summary", url.Values{"issueId": {id}}, nil, label("get development status %s", key), &out)
	return out, err
}

// BranchName builds "<prefix>/<KEY>-<summary-slug>". The prefix defaults to
// "feature".
func BranchName(key, summary, prefix string) string {
	if prefix = strings.Trim(strings.TrimSpace(prefix), "/"); prefix == "" {
		prefix = "feature"
	}
	key = strings.ToUpper(strings.TrimSpace(key))

	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(summary), "-"), "-")
	if len(slug) > maxBranchSlug {
		slug = slug[:maxBranchSlug]
		if i := strings.LastIndexByte(slug, '-'); i > 0 {
			slug = slug[:i]
		}
	}
	if slug == "" {
		return prefix + "/" + key
	}
	return prefix + "/" + key + "-" + slug
}

// CommitMessage formats "kind(KEY): message", or "KEY: message" without a
// kind.
func CommitMessage(key, message, kind string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	message = strings.TrimSpace(message)
	if message == "" {
		return "", jiraerr.Validation("commit message cannot be empty")
	}
	if kind == "" {
		return key + ": " + message, nil
	}
	kind = strings.ToLower(kind)
	if !slices.Contains(CommitKinds, kind) {
		return "", jiraerr.Validation("invalid commit type %q, must be one of %s", kind, strings.Join(CommitKinds, ", "))
	}
	return kind + "(" + key + "): " + message, nil
}
