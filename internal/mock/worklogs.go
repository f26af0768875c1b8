package mock

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/timeutil"
	"github.com/gi8lino/jiraas/internal/validators"
)

// spentSeconds resolves the logged time of a worklog request.
func spentSeconds(opts jira.WorklogOptions) (string, int, error) {
	if opts.TimeSpent != "" {
		secs, err := timeutil.ParseDuration(opts.TimeSpent)
		if err != nil {
			return "", 0, jiraerr.Validation("invalid time format %q, use e.g. \"2h 30m\"", opts.TimeSpent)
		}
		return opts.TimeSpent, secs, nil
	}
	if opts.TimeSpentSeconds > 0 {
		return timeutil.FormatSeconds(opts.TimeSpentSeconds), opts.TimeSpentSeconds, nil
	}
	return "", 0, jiraerr.Validation("time spent is required")
}

// AddWorklog logs work and adjusts the remaining estimate.
func (c *Client) AddWorklog(ctx context.Context, key string, opts jira.WorklogOptions) (map[string]any, error) {
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	spent, secs, err := spentSeconds(opts)
	if err != nil {
		return nil, err
	}

	id := strconv.Itoa(c.st.nextLogID)
	c.st.nextLogID++
	now := c.now()
	started := opts.Started
	if started == "" {
		started = now
	}
	wl := map[string]any{
		"id":               id,
		"issueId":          is["id"],
		"self":             c.BaseURL + "/rest/api/3/issue/" + key + "/worklog/" + id,
		"author":           c.user(currentUserID),
		"timeSpent":        spent,
		"timeSpentSeconds": secs,
		"started":          started,
		"created":          now,
		"updated":          now,
	}
	if opts.Comment != "" {
		wl["comment"] = textDoc(opts.Comment)
	}
	if opts.VisibilityType != "" && opts.VisibilityValue != "" {
		wl["visibility"] = map[string]any{"type": opts.VisibilityType, "value": opts.VisibilityValue}
	}
	if err := adjustEstimate(fieldsOf(is), opts, secs); err != nil {
		return nil, err
	}
	c.st.worklogs[key] = append(c.st.worklogs[key], wl)
	return deepCopy(wl), nil
}

// adjustEstimate records logged time on the issue's time tracking and
// moves the remaining estimate the way Jira's adjustEstimate does.
func adjustEstimate(f map[string]any, opts jira.WorklogOptions, secs int) error {
	tt, _ := f["timetracking"].(map[string]any)
	remaining, hasRemaining := tt["remainingEstimateSeconds"]
	left, update := asInt(remaining), true
	switch opts.AdjustEstimate {
	case "leave":
		update = false
	case "new":
		n, err := timeutil.ParseDuration(opts.NewEstimate)
		if err != nil {
			return jiraerr.Validation("invalid new estimate %q", opts.NewEstimate)
		}
		left = n
	case "manual":
		n, err := timeutil.ParseDuration(opts.ReduceBy)
		if err != nil {
			return jiraerr.Validation("invalid reduce by %q", opts.ReduceBy)
		}
		left -= n
	default:
		update = hasRemaining
		left -= secs
	}

	if tt == nil {
		tt = map[string]any{}
		f["timetracking"] = tt
	}
	spent := asInt(tt["timeSpentSeconds"]) + secs
	tt["timeSpentSeconds"] = spent
	tt["timeSpent"] = timeutil.FormatSeconds(spent)
	if update {
		left = max(left, 0)
		tt["remainingEstimateSeconds"] = left
		tt["remainingEstimate"] = timeutil.FormatSeconds(left)
	}
	return nil
}

// GetWorklogs lists the worklogs of an issue.
func (c *Client) GetWorklogs(ctx context.Context, key string, startAt, maxResults int) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	return platformPage(c.st.worklogs[key], "worklogs", startAt, maxResults), nil
}

func (c *Client) worklog(key, id string) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	for _, wl := range c.st.worklogs[key] {
		if wl["id"] == id {
			return wl, nil
		}
	}
	return nil, jiraerr.NotFound("worklog %s not found on %s", id, key)
}

// GetWorklog returns one worklog.
func (c *Client) GetWorklog(ctx context.Context, key, worklogID string) (map[string]any, error) {
	wl, err := c.worklog(key, worklogID)
	if err != nil {
		return nil, err
	}
	return deepCopy(wl), nil
}

// UpdateWorklog changes the time, start, comment or visibility of a
// worklog.
func (c *Client) UpdateWorklog(ctx context.Context, key, worklogID string, opts jira.WorklogOptions) (map[string]any, error) {
	wl, err := c.worklog(key, worklogID)
	if err != nil {
		return nil, err
	}
	if opts.TimeSpent != "" || opts.TimeSpentSeconds > 0 {
		spent, secs, err := spentSeconds(opts)
		if err != nil {
			return nil, err
		}
		wl["timeSpent"] = spent
		wl["timeSpentSeconds"] = secs
	}
	if opts.Started != "" {
		wl["started"] = opts.Started
	}
	if opts.Comment != "" {
		wl["comment"] = textDoc(opts.Comment)
	}
	if opts.VisibilityType != "" && opts.VisibilityValue != "" {
		wl["visibility"] = map[string]any{"type": opts.VisibilityType, "value": opts.VisibilityValue}
	}
	wl["updated"] = c.now()
	return deepCopy(wl), nil
}

// DeleteWorklog removes a worklog.
func (c *Client) DeleteWorklog(ctx context.Context, key, worklogID string) error {
	if _, err := c.worklog(key, worklogID); err != nil {
		return err
	}
	c.st.worklogs[key] = slices.DeleteFunc(c.st.worklogs[key], func(wl map[string]any) bool {
		return wl["id"] == worklogID
	})
	return nil
}

// GetTimeTracking returns the issue's time tracking field.
func (c *Client) GetTimeTracking(ctx context.Context, key string) (map[string]any, error) {
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	tt, _ := fieldsOf(is)["timetracking"].(map[string]any)
	if tt == nil {
		return map[string]any{}, nil
	}
	return deepCopy(tt), nil
}

// SetTimeTracking sets the original and remaining estimates. Empty values
// are left unchanged.
func (c *Client) SetTimeTracking(ctx context.Context, key, originalEstimate, remainingEstimate string) error {
	is, err := c.issue(key)
	if err != nil {
		return err
	}
	if originalEstimate == "" && remainingEstimate == "" {
		return jiraerr.Validation("an original or remaining estimate is required")
	}
	f := fieldsOf(is)
	tt, _ := f["timetracking"].(map[string]any)
	if tt == nil {
		tt = map[string]any{}
		f["timetracking"] = tt
	}
	set := func(name, value string) error {
		if value == "" {
			return nil
		}
		secs, err := timeutil.ParseDuration(value)
		if err != nil {
			return jiraerr.Validation("invalid %s %q", name, value)
		}
		tt[name] = value
		tt[name+"Seconds"] = secs
		return nil
	}
	if err := set("originalEstimate", originalEstimate); err != nil {
		return err
	}
	return set("remainingEstimate", remainingEstimate)
}

// SetEstimate sets the original estimate of an issue.
func (c *Client) SetEstimate(ctx context.Context, key, estimate string) error {
	if !timeutil.ValidateTimeFormat(estimate) {
		return jiraerr.Validation("invalid estimate %q, use e.g. \"2h 30m\"", estimate)
	}
	return c.SetTimeTracking(ctx, key, estimate, "")
}

// AdjustRemainingEstimate sets the remaining estimate of an issue.
func (c *Client) AdjustRemainingEstimate(ctx context.Context, key, remaining string) error {
	if !timeutil.ValidateTimeFormat(remaining) {
		return jiraerr.Validation("invalid remaining estimate %q, use e.g. \"2h 30m\"", remaining)
	}
	return c.SetTimeTracking(ctx, key, "", remaining)
}

// GetWorklogIDsModifiedSince lists the worklogs updated at or after since,
// oldest first, in a single last page.
func (c *Client) GetWorklogIDsModifiedSince(ctx context.Context, since time.Time) (map[string]any, error) {
	type change struct {
		id      int
		updated time.Time
	}
	var changes []change
	for _, key := range c.st.order {
		for _, wl := range c.st.worklogs[key] {
			s, _ := wl["updated"].(string)
			t, err := timeutil.ParseJiraTime(s)
			if err != nil || t.Before(since) {
				continue
			}
			id, _ := strconv.Atoi(wl["id"].(string))
			changes = append(changes, change{id: id, updated: t})
		}
	}
	slices.SortStableFunc(changes, func(a, b change) int { return a.updated.Compare(b.updated) })

	values := make([]any, 0, len(changes))
	until := since.UnixMilli()
	for _, ch := range changes {
		values = append(values, map[string]any{
			"worklogId":   ch.id,
			"updatedTime": ch.updated.UnixMilli(),
			"properties":  []any{},
		})
		until = max(until, ch.updated.UnixMilli())
	}
	return map[string]any{
		"self":     c.BaseURL + "/rest/api/3/worklog/updated?since=" + strconv.FormatInt(since.UnixMilli(), 10),
		"values":   values,
		"since":    since.UnixMilli(),
		"until":    until,
		"lastPage": true,
	}, nil
}

// GetUserWorklogs lists the worklogs an account logged within r.
func (c *Client) GetUserWorklogs(ctx context.Context, accountID string, r jira.WorklogRange) (map[string]any, error) {
	return jira.UserWorklogs(ctx, c, accountID, r)
}

// GetProjectWorklogs lists the worklogs of a project within r.
func (c *Client) GetProjectWorklogs(ctx context.Context, projectKey string, r jira.WorklogRange) (map[string]any, error) {
	key, err := validators.ProjectKey(projectKey)
	if err != nil {
		return nil, err
	}
	if _, err := c.project(key); err != nil {
		return nil, err
	}
	return jira.ProjectWorklogs(ctx, c, key, r)
}

// GetTimeReport summarizes estimates and logged time of an issue.
func (c *Client) GetTimeReport(ctx context.Context, key string) (map[string]any, error) {
	return jira.TimeReport(ctx, c, key)
}

// GetTimeTrackingConfiguration returns the site settings.
func (c *Client) GetTimeTrackingConfiguration(ctx context.Context) (map[string]any, error) {
	return deepCopy(c.st.timeTracking), nil
}

// SetTimeTrackingConfiguration replaces the site settings.
func (c *Client) SetTimeTrackingConfiguration(ctx context.Context, cfg jira.TimeTrackingConfig) (map[string]any, error) {
	c.st.timeTracking = map[string]any{
		"workingHoursPerDay": cfg.WorkingHoursPerDay,
		"workingDaysPerWeek": cfg.WorkingDaysPerWeek,
		"timeFormat":         cfg.TimeFormat,
		"defaultUnit":        cfg.DefaultUnit,
	}
	return deepCopy(c.st.timeTracking), nil
}

// asInt converts the numeric shapes stored in the mock to int.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
