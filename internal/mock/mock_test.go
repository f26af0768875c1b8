package mock

import (
	"context"
	"testing"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	return New(Options{Email: "jason@example.com"})
}

func keysOf(t *testing.T, page map[string]any, field string) []string {
	t.Helper()
	items, ok := page[field].([]any)
	require.True(t, ok, "page has no %q list", field)
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.(map[string]any)["key"].(string))
	}
	return keys
}

func TestIsMockMode(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{" True ", true},
		{"1", false},
		{"", false},
		{"false", false},
	} {
		t.Run(tc.value, func(t *testing.T) {
			t.Parallel()
			getenv := func(k string) string {
				if k == EnvMockMode {
					return tc.value
				}
				return ""
			}
			assert.Equal(t, tc.want, IsMockMode(getenv))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		c := New(Options{})
		assert.Equal(t, defaultBaseURL, c.BaseURL)
		assert.Equal(t, jira.DefaultTimeout, c.Timeout)
		assert.Equal(t, jira.DefaultMaxRetries, c.MaxRetries)
		assert.Equal(t, jira.DefaultRetryBackoff, c.RetryBackoff)
		assert.NoError(t, c.Close())
	})

	t.Run("trims base url", func(t *testing.T) {
		t.Parallel()
		c := New(Options{BaseURL: "https://example.atlassian.net/"})
		assert.Equal(t, "https://example.atlassian.net", c.BaseURL)
	})

	t.Run("clients do not share state", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		a, b := newClient(t), newClient(t)
		require.NoError(t, a.DeleteIssue(ctx, "DEMO-85", false))

		_, err := a.GetIssue(ctx, "DEMO-85", jira.GetIssueOptions{})
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
		_, err = b.GetIssue(ctx, "DEMO-85", jira.GetIssueOptions{})
		assert.NoError(t, err)
	})

	t.Run("returned issues are copies", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		c := newClient(t)
		is, err := c.GetIssue(ctx, "DEMO-84", jira.GetIssueOptions{})
		require.NoError(t, err)
		is["fields"].(map[string]any)["summary"] = "changed"

		again, err := c.GetIssue(ctx, "DEMO-84", jira.GetIssueOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Product Launch", again["fields"].(map[string]any)["summary"])
	})

	t.Run("raw requests return empty objects", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		out, err := c.Get(context.Background(), "/rest/api/3/anything", nil)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestIssues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create applies defaults", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		res, err := c.CreateIssue(ctx, map[string]any{
			"project":     map[string]any{"key": "DEMO"},
			"summary":     "New thing",
			"description": "plain text",
		})
		require.NoError(t, err)
		assert.Equal(t, "DEMO-101", res["key"])
		assert.Equal(t, "10101", res["id"])

		is, err := c.GetIssue(ctx, "DEMO-101", jira.GetIssueOptions{})
		require.NoError(t, err)
		f := is["fields"].(map[string]any)
		assert.Equal(t, "Task", f["issuetype"].(map[string]any)["name"])
		assert.Equal(t, "Medium", f["priority"].(map[string]any)["name"])
		assert.Equal(t, "To Do", f["status"].(map[string]any)["name"])
		assert.Equal(t, "abc123", f["reporter"].(map[string]any)["accountId"])
		assert.Nil(t, f["assignee"])
		assert.Equal(t, "doc", f["description"].(map[string]any)["type"])
		assert.Equal(t, []any{}, f["labels"])
	})

	t.Run("create requires an existing project", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		_, err := c.CreateIssue(ctx, map[string]any{"summary": "x"})
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindValidation))

		_, err = c.CreateIssue(ctx, map[string]any{"project": map[string]any{"key": "NOPE"}, "summary": "x"})
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})

	t.Run("bulk create collects errors", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		res, err := c.CreateIssuesBulk(ctx, []map[string]any{
			{"fields": map[string]any{"project": map[string]any{"key": "DEMO"}, "summary": "one"}},
			{"fields": map[string]any{"project": map[string]any{"key": "NOPE"}, "summary": "two"}},
		})
		require.NoError(t, err)
		assert.Len(t, res["issues"], 1)
		failed := res["errors"].([]any)
		require.Len(t, failed, 1)
		assert.Equal(t, 1, failed[0].(map[string]any)["failedElementNumber"])
		assert.Equal(t, 404, failed[0].(map[string]any)["status"])
	})

	t.Run("update merges fields", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		require.NoError(t, c.UpdateIssue(ctx, "DEMO-85", map[string]any{"summary": "Renamed"}))
		is, err := c.GetIssue(ctx, "DEMO-85", jira.GetIssueOptions{})
		require.NoError(t, err)
		f := is["fields"].(map[string]any)
		assert.Equal(t, "Renamed", f["summary"])
		assert.Equal(t, "Story", f["issuetype"].(map[string]any)["name"])

		err = c.UpdateIssue(ctx, "DEMO-999", map[string]any{})
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})

	t.Run("transition changes status and comments", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		require.NoError(t, c.TransitionIssue(ctx, "DEMO-85", "31", jira.TransitionOptions{
			Comment: "closing",
			Update:  map[string]any{"labels": []any{map[string]any{"add": "done"}}},
		}))
		is, err := c.GetIssue(ctx, "DEMO-85", jira.GetIssueOptions{})
		require.NoError(t, err)
		f := is["fields"].(map[string]any)
		assert.Equal(t, "Done", f["status"].(map[string]any)["name"])
		assert.Contains(t, f["labels"], "done")

		comments, err := c.GetComments(ctx, "DEMO-85", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, comments["total"])
	})

	t.Run("unknown transition leaves status", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		require.NoError(t, c.TransitionIssue(ctx, "DEMO-85", "999", jira.TransitionOptions{}))
		is, err := c.GetIssue(ctx, "DEMO-85", jira.GetIssueOptions{})
		require.NoError(t, err)
		assert.Equal(t, "To Do", is["fields"].(map[string]any)["status"].(map[string]any)["name"])
	})

	t.Run("desk issues use desk transitions", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		trs, err := c.GetTransitions(ctx, "DEMOSD-1")
		require.NoError(t, err)
		require.Len(t, trs, 4)
		assert.Equal(t, "Resolved", trs[3]["name"])
	})

	t.Run("assign and unassign", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		require.NoError(t, c.AssignIssue(ctx, "DEMO-87", "def456"))
		is, err := c.GetIssue(ctx, "DEMO-87", jira.GetIssueOptions{})
		require.NoError(t, err)
		assert.Equal(t, "Jane Manager", is["fields"].(map[string]any)["assignee"].(map[string]any)["displayName"])

		require.NoError(t, c.AssignIssue(ctx, "DEMO-87", ""))
		is, err = c.GetIssue(ctx, "DEMO-87", jira.GetIssueOptions{})
		require.NoError(t, err)
		assert.Nil(t, is["fields"].(map[string]any)["assignee"])
	})

	t.Run("delete removes related data", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		_, err := c.AddComment(ctx, "DEMO-86", "note")
		require.NoError(t, err)
		require.NoError(t, c.DeleteIssue(ctx, "DEMO-86", false))

		_, err = c.GetComments(ctx, "DEMO-86", 0, 0)
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
		assert.NotContains(t, c.st.sprintIssues[1], "DEMO-86")
	})

	t.Run("delete missing issue", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		err := c.DeleteIssue(ctx, "DEMO-999", false)
		require.Error(t, err)
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})

	t.Run("create metadata", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		types, err := c.GetCreateIssueMetaIssueTypes(ctx, "DEMO", 0, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, types["values"])

		_, err = c.GetCreateIssueMetaIssueTypes(ctx, "NOPE", 0, 0)
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})
}

func TestSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name string
		jql  string
		want []string
	}{
		{"project only", "project = DEMO", []string{"DEMO-84", "DEMO-85", "DEMO-86", "DEMO-87"}},
		{"project without spaces", "project=DEMO", []string{"DEMO-84", "DEMO-85", "DEMO-86", "DEMO-87"}},
		{"desk project", "project = DEMOSD", []string{"DEMOSD-1", "DEMOSD-2"}},
		{"issue type", "project = DEMO AND issuetype = Bug", []string{"DEMO-86"}},
		{"status not equal", "project = DEMO AND status != \"To Do\"", []string{"DEMO-84"}},
		{"reporter name", "project = DEMO AND reporter = \"Jane\"", []string{"DEMO-85", "DEMO-87"}},
		{"current user", "project = DEMO AND assignee = currentUser()", []string{"DEMO-84", "DEMO-85"}},
		{"unassigned", "assignee IS EMPTY", []string{"DEMO-87", "DEMOSD-1"}},
		{"text search", "text ~ Login", []string{"DEMO-86"}},
		{"labels in", "labels IN (auth, launch)", []string{"DEMO-84", "DEMO-85"}},
		{"key order desc", "project = DEMO ORDER BY key DESC", []string{"DEMO-87", "DEMO-86", "DEMO-85", "DEMO-84"}},
		{"priority order", "project = DEMO ORDER BY priority DESC", []string{"DEMO-84", "DEMO-86", "DEMO-85", "DEMO-87"}},
		{"unsupported clause ignored", "project = DEMO AND sprint in openSprints() AND issuetype = Task", []string{"DEMO-87"}},
		{"or clause ignored", "project = DEMOSD AND (status = Done OR status = Open)", []string{"DEMOSD-1", "DEMOSD-2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newClient(t)
			page, err := c.SearchIssues(ctx, tc.jql, jira.SearchOptions{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, keysOf(t, page, "issues"))
			assert.Equal(t, len(tc.want), page["total"])
		})
	}

	t.Run("paging", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		page, err := c.SearchIssues(ctx, "project = DEMO", jira.SearchOptions{StartAt: 2, MaxResults: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"DEMO-86"}, keysOf(t, page, "issues"))
		assert.Equal(t, false, page["isLast"])
	})

	t.Run("advanced search echoes options", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		page, err := c.AdvancedSearch(ctx, "project = DEMO", jira.SearchOptions{
			Fields: []string{"summary"},
			Expand: []string{"changelog"},
		})
		require.NoError(t, err)
		assert.Equal(t, "changelog", page["expand"])
		assert.Equal(t, []any{"summary"}, page["fields"])
	})

	t.Run("project follows issue key", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		require.NoError(t, c.UpdateIssue(ctx, "DEMO-84", map[string]any{"project": map[string]any{"key": "DEMOSD"}}))

		page, err := c.SearchIssues(ctx, "project = DEMOSD", jira.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"DEMOSD-1", "DEMOSD-2"}, keysOf(t, page, "issues"))
	})

	t.Run("quoted keywords stay in the value", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		created, err := c.CreateIssue(ctx, map[string]any{
			"project": map[string]any{"key": "DEMO"},
			"summary": "Login AND logout loop",
		})
		require.NoError(t, err)

		page, err := c.SearchIssues(ctx, `project = DEMO AND summary ~ "login AND logout"`, jira.SearchOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{created["key"].(string)}, keysOf(t, page, "issues"))

		page, err = c.SearchIssues(ctx, `project = DEMO AND summary ~ "login OR logout"`, jira.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, keysOf(t, page, "issues"))
	})

	t.Run("count", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		n, err := c.CountIssues(ctx, "project = DEMOSD")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("by keys skips missing", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		issues, err := c.SearchIssuesByKeys(ctx, []string{"DEMO-85", "DEMO-999", "DEMOSD-2"})
		require.NoError(t, err)
		require.Len(t, issues, 2)
		assert.Equal(t, "DEMOSD-2", issues[1]["key"])
	})

	t.Run("validate", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		res, err := c.ValidateJQL(ctx, "project = DEMO")
		require.NoError(t, err)
		queries := res["queries"].([]any)
		require.Len(t, queries, 1)
		assert.Equal(t, "project = DEMO", queries[0].(map[string]any)["query"])
	})
}

func TestFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create, update and delete", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		f, err := c.CreateFilter(ctx, "Mine", "project = DEMO", jira.FilterOptions{Description: "d"})
		require.NoError(t, err)
		assert.Equal(t, "10002", f["id"])
		assert.Equal(t, "abc123", f["owner"].(map[string]any)["accountId"])

		name := "Renamed"
		upd, err := c.UpdateFilter(ctx, "10002", jira.FilterUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", upd["name"])
		assert.Equal(t, "project = DEMO", upd["jql"])

		require.NoError(t, c.DeleteFilter(ctx, "10002"))
		_, err = c.GetFilter(ctx, "10002")
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		_, err := c.CreateFilter(ctx, " ", "project = DEMO", jira.FilterOptions{})
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindValidation))
	})

	t.Run("favourites", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		favs, err := c.GetFavouriteFilters(ctx)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		assert.Equal(t, "10000", favs[0]["id"])

		_, err = c.SetFilterFavourite(ctx, "10001", true)
		require.NoError(t, err)
		favs, err = c.GetFavouriteFilters(ctx)
		require.NoError(t, err)
		assert.Len(t, favs, 2)
	})

	t.Run("search by name", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		page, err := c.SearchFilters(ctx, "Bugs", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page["total"])

		mine, err := c.GetMyFilters(ctx)
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	})
}
