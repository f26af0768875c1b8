package mock

import (
	"context"
	"testing"
	"time"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorklogReports(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ids modified since", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		wl, err := c.AddWorklog(ctx, "DEMO-84", jira.WorklogOptions{TimeSpent: "1h"})
		require.NoError(t, err)

		res, err := c.GetWorklogIDsModifiedSince(ctx, time.UnixMilli(0))
		require.NoError(t, err)
		values := res["values"].([]any)
		require.Len(t, values, 1)
		assert.Equal(t, "10000", wl["id"])
		assert.Equal(t, 10000, values[0].(map[string]any)["worklogId"])
		assert.Equal(t, true, res["lastPage"])

		res, err = c.GetWorklogIDsModifiedSince(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, res["values"])
	})

	t.Run("user worklogs", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		_, err := c.AddWorklog(ctx, "DEMO-84", jira.WorklogOptions{TimeSpent: "1h"})
		require.NoError(t, err)
		_, err = c.AddWorklog(ctx, "DEMOSD-1", jira.WorklogOptions{TimeSpent: "30m"})
		require.NoError(t, err)

		res, err := c.GetUserWorklogs(ctx, "abc123", jira.WorklogRange{})
		require.NoError(t, err)
		logs := res["worklogs"].([]any)
		require.Len(t, logs, 2)
		assert.Equal(t, "DEMO-84", logs[0].(map[string]any)["issueKey"])
		assert.Equal(t, 5400, res["timeSpentSeconds"])

		res, err = c.GetUserWorklogs(ctx, "def456", jira.WorklogRange{})
		require.NoError(t, err)
		assert.Empty(t, res["worklogs"])

		res, err = c.GetUserWorklogs(ctx, "abc123", jira.WorklogRange{Until: "2000-01-01"})
		require.NoError(t, err)
		assert.Empty(t, res["worklogs"])
	})

	t.Run("project worklogs", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		_, err := c.AddWorklog(ctx, "DEMO-86", jira.WorklogOptions{TimeSpent: "2h"})
		require.NoError(t, err)
		_, err = c.AddWorklog(ctx, "DEMOSD-2", jira.WorklogOptions{TimeSpent: "1h"})
		require.NoError(t, err)

		res, err := c.GetProjectWorklogs(ctx, "demo", jira.WorklogRange{})
		require.NoError(t, err)
		logs := res["worklogs"].([]any)
		require.Len(t, logs, 1)
		assert.Equal(t, "DEMO-86", logs[0].(map[string]any)["issueKey"])
		assert.Equal(t, "DEMO", res["projectKey"])

		_, err = c.GetProjectWorklogs(ctx, "NOPE", jira.WorklogRange{})
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})

	t.Run("time report", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		_, err := c.AddWorklog(ctx, "DEMO-84", jira.WorklogOptions{TimeSpent: "1d", AdjustEstimate: "leave"})
		require.NoError(t, err)

		rep, err := c.GetTimeReport(ctx, "DEMO-84")
		require.NoError(t, err)
		assert.Equal(t, "2w", rep["originalEstimate"])
		assert.Equal(t, 28800, rep["timeSpentSeconds"])
		assert.Equal(t, 144000, rep["remainingEstimateSeconds"])
		assert.Equal(t, 16, rep["progress"])
		assert.Equal(t, map[string]any{"Jason Krueger": 28800}, rep["byAuthor"])

		_, err = c.GetTimeReport(ctx, "DEMO-999")
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})

	t.Run("estimates", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		require.NoError(t, c.SetEstimate(ctx, "DEMO-85", "2h"))
		require.NoError(t, c.AdjustRemainingEstimate(ctx, "DEMO-85", "1h 30m"))

		tt, err := c.GetTimeTracking(ctx, "DEMO-85")
		require.NoError(t, err)
		assert.Equal(t, "2h", tt["originalEstimate"])
		assert.Equal(t, "1h 30m", tt["remainingEstimate"])
		assert.Equal(t, 5400, tt["remainingEstimateSeconds"])

		err = c.SetEstimate(ctx, "DEMO-85", "later")
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindValidation))
		err = c.SetEstimate(ctx, "DEMO-999", "1h")
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})
}

func TestExportSearchResults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newClient(t)

	res, err := c.ExportSearchResults(ctx, "project = DEMO ORDER BY key ASC", jira.ExportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, res["total"])
	rows := res["data"].([]any)
	require.Len(t, rows, 4)
	first := rows[0].(map[string]any)
	assert.Equal(t, "DEMO-84", first["key"])
	assert.Equal(t, "Jason Krueger", first["assignee"])
	assert.Len(t, res["fields"], len(jira.DefaultExportFields)+1)

	res, err = c.ExportSearchResults(ctx, "project = DEMO", jira.ExportOptions{Fields: []string{"summary"}, MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res["total"])
	assert.Equal(t, map[string]any{"key": "DEMO-85", "summary": "User Authentication"}, res["data"].([]any)[1])

	_, err = c.ExportSearchResults(ctx, "", jira.ExportOptions{})
	assert.True(t, jiraerr.IsKind(err, jiraerr.KindValidation))
}

func TestUserDirectory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("all users", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		users, err := c.GetAllUsers(ctx, 0, 0)
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("users bulk", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		res, err := c.GetUsersBulk(ctx, []string{"abc123", "def456", "nobody"})
		require.NoError(t, err)
		assert.Len(t, res["values"], 2)
	})

	t.Run("user by name", func(t *testing.T) {
		t.Parallel()
		c := newClient(t)
		u, err := c.GetUserByName(ctx, "Jason")
		require.NoError(t, err)
		assert.Equal(t, "Jason Krueger", u["displayName"])

		_, err = c.GetUserByName(ctx, "Nobody")
		assert.True(t, jiraerr.IsKind(err, jiraerr.KindNotFound))
	})
}
