package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/timeutil"
)

func worklogPath(key string) string {
	return apiPath + "/issue/" + escape(key) + "/worklog"
}

// worklogBody builds the request body and estimate query of a worklog.
func worklogBody(opts WorklogOptions, now time.Time) (map[string]any, url.Values, error) {
	body := map[string]any{}
	switch {
	case opts.TimeSpent != "":
		if !timeutil.ValidateTimeFormat(opts.TimeSpent) {
			return nil, nil, jiraerr.Validation("invalid time format %q, use e.g. \"2h 30m\"", opts.TimeSpent)
		}
		body["timeSpent"] = opts.TimeSpent
	case opts.TimeSpentSeconds > 0:
		body["timeSpentSeconds"] = opts.TimeSpentSeconds
	}

	started := opts.Started
	if started == "" {
		started = timeutil.FormatDatetimeForJira(now)
	}
	body["started"] = started

	if opts.Comment != "" {
		body["comment"] = adf.FromText(opts.Comment).Map()
	}
	if opts.VisibilityType != "" && opts.VisibilityValue != "" {
		body["visibility"] = map[string]any{"type": opts.VisibilityType, "value": opts.VisibilityValue}
	}

	q := url.Values{}
	if opts.AdjustEstimate != "" {
		q.Set("adjustEstimate", opts.AdjustEstimate)
		switch opts.AdjustEstimate {
		case "new":
			q.Set("newEstimate", opts.NewEstimate)
		case "manual":
			q.Set("reduceBy", opts.ReduceBy)
		}
	}
	return body, q, nil
}

// AddWorklog logs work on an issue.
func (c *Client) AddWorklog(ctx context.Context, key string, opts WorklogOptions) (map[string]any, error) {
	if opts.TimeSpent == "" && opts.TimeSpentSeconds <= 0 {
		return nil, jiraerr.Validation("time spent is required")
	}
	body, q, err := worklogBody(opts, time.Now())
	if err != nil {
		return nil, err
	}
	var out map[string]any
	err = c.call(ctx, http.MethodPost, worklogPath(key), q, body, label("add worklog %s", key), &out)
	return out, err
}

// GetWorklogs returns a page of worklogs.
func (c *Client) GetWorklogs(ctx context.Context, key string, startAt, maxResults int) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, worklogPath(key), page(startAt, maxResults), nil, label("get worklogs %s", key), &out)
	return out, err
}

// GetWorklog returns one worklog.
func (c *Client) GetWorklog(ctx context.Context, key, worklogID string) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, worklogPath(key)+"/"+escape(worklogID), nil, nil, label("get worklog %s/%s", key, worklogID), &out)
	return out, err
}

// UpdateWorklog changes a worklog.
func (c *Client) UpdateWorklog(ctx context.Context, key, worklogID string, opts WorklogOptions) (map[string]any, error) {
	body, q, err := worklogBody(opts, time.Now())
	if err != nil {
		return nil, err
	}
	if opts.Started == "" {
		delete(body, "started")
	}
	var out map[string]any
	err = c.call(ctx, http.MethodPut, worklogPath(key)+"/"+escape(worklogID), q, body, label("update worklog %s/%s", key, worklogID), &out)
	return out, err
}

// DeleteWorklog removes a worklog.
func (c *Client) DeleteWorklog(ctx context.Context, key, worklogID string) error {
	return c.call(ctx, http.MethodDelete, worklogPath(key)+"/"+escape(worklogID), nil, nil, label("delete worklog %s/%s", key, worklogID), nil)
}

// GetTimeTracking returns the timetracking field of an issue.
func (c *Client) GetTimeTracking(ctx context.Context, key string) (map[string]any, error) {
	is, err := c.GetIssue(ctx, key, GetIssueOptions{Fields: []string{"timetracking"}})
	if err != nil {
		return nil, err
	}
	tt, _ := nested(is, "fields", "timetracking").(map[string]any)
	if tt == nil {
		tt = map[string]any{}
	}
	return tt, nil
}

// SetTimeTracking sets the original and remaining estimates. Empty values
// are left unchanged.
func (c *Client) SetTimeTracking(ctx context.Context, key, originalEstimate, remainingEstimate string) error {
	tt := map[string]any{}
	if originalEstimate != "" {
		tt["originalEstimate"] = originalEstimate
	}
	if remainingEstimate != "" {
		tt["remainingEstimate"] = remainingEstimate
	}
	if len(tt) == 0 {
		return jiraerr.Validation("an original or remaining estimate is required")
	}
	body := map[string]any{"fields": map[string]any{"timetracking": tt}}
	return c.call(ctx, http.MethodPut, apiPath+"/issue/"+escape(key), nil, body, label("set time tracking %s", key), nil)
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

// GetWorklogIDsModifiedSince lists the ids of worklogs updated after since.
// Jira returns at most 1000 ids per call; follow "until" for more.
func (c *Client) GetWorklogIDsModifiedSince(ctx context.Context, since time.Time) (map[string]any, error) {
	q := url.Values{"since": {strconv.FormatInt(since.UnixMilli(), 10)}}
	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/worklog/updated", q, nil, "get updated worklogs", &out)
	return out, err
}

// GetUserWorklogs lists the worklogs an account logged within r.
func (c *Client) GetUserWorklogs(ctx context.Context, accountID string, r WorklogRange) (map[string]any, error) {
	return UserWorklogs(ctx, c, accountID, r)
}

// GetProjectWorklogs lists the worklogs of a project within r.
func (c *Client) GetProjectWorklogs(ctx context.Context, projectKey string, r WorklogRange) (map[string]any, error) {
	return ProjectWorklogs(ctx, c, projectKey, r)
}

// GetTimeReport summarizes estimates and logged time of an issue.
func (c *Client) GetTimeReport(ctx context.Context, key string) (map[string]any, error) {
	return TimeReport(ctx, c, key)
}

// GetTimeTrackingConfiguration returns the site time tracking settings.
func (c *Client) GetTimeTrackingConfiguration(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/configuration/timetracking/options", nil, nil, "get time tracking configuration", &out)
	return out, err
}

// SetTimeTrackingConfiguration updates the site time tracking settings.
func (c *Client) SetTimeTrackingConfiguration(ctx context.Context, cfg TimeTrackingConfig) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodPut, apiPath+"/configuration/timetracking/options", nil, cfg, "set time tracking configuration", &out)
	return out, err
}

// nested walks map keys and returns the value or nil.
func nested(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}
