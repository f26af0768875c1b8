package jira

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/timeutil"
	"github.com/gi8lino/jiraas/internal/validators"
)

// Report helpers are built from Service calls only, so the HTTP client and
// the mock produce the same shapes.

const (
	reportPageSize  = 100
	worklogPageSize = 1000
)

// DefaultExportFields are the columns of an export without explicit fields.
var DefaultExportFields = []string{"summary", "status", "priority", "issuetype", "assignee", "reporter", "created", "updated"}

// SearchAll follows a JQL search until limit issues or the last page. A
// limit of 0 collects every match.
func SearchAll(ctx context.Context, svc Service, jql string, fields []string, limit int) ([]map[string]any, error) {
	var out []map[string]any
	opts := SearchOptions{Fields: fields, MaxResults: reportPageSize}
	for {
		res, err := svc.SearchIssues(ctx, jql, opts)
		if err != nil {
			return nil, err
		}
		issues := toMaps(res["issues"])
		out = append(out, issues...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}

		if last, _ := res["isLast"].(bool); last || len(issues) == 0 {
			return out, nil
		}
		token, _ := res["nextPageToken"].(string)
		if token == "" {
			// offset paging needs a total to know where to stop
			total, ok := res["total"]
			if !ok || len(out) >= asInt(total) {
				return out, nil
			}
		}
		opts.NextPageToken = token
		opts.StartAt = len(out)
	}
}

// IssueWorklogs returns every worklog of an issue.
func IssueWorklogs(ctx context.Context, svc Service, key string) ([]map[string]any, error) {
	var out []map[string]any
	for {
		res, err := svc.GetWorklogs(ctx, key, len(out), worklogPageSize)
		if err != nil {
			return nil, err
		}
		batch := toMaps(res["worklogs"])
		out = append(out, batch...)
		if len(batch) == 0 || len(out) >= asInt(res["total"]) {
			return out, nil
		}
	}
}

// inRange reports whether the worklog started within r.
func (r WorklogRange) inRange(wl map[string]any) bool {
	started, _ := wl["started"].(string)
	day := started[:min(len(started), len("2006-01-02"))]
	if r.Since != "" && day < r.Since {
		return false
	}
	if r.Until != "" && day > r.Until {
		return false
	}
	return true
}

func (r WorklogRange) validate() error {
	for _, d := range []string{r.Since, r.Until} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return jiraerr.Validation("invalid date %q, use YYYY-MM-DD", d)
		}
	}
	if r.Since != "" && r.Until != "" && r.Since > r.Until {
		return jiraerr.Validation("since %s is after until %s", r.Since, r.Until)
	}
	return nil
}

// jql appends the worklogDate bounds of r to base.
func (r WorklogRange) jql(base string) string {
	if r.Since != "" {
		base += fmt.Sprintf(` AND worklogDate >= "%s"`, r.Since)
	}
	if r.Until != "" {
		base += fmt.Sprintf(` AND worklogDate <= "%s"`, r.Until)
	}
	return base
}

// collectWorklogs gathers the worklogs of the issues matching jql that pass
// keep. Each worklog gets the key of its issue.
func collectWorklogs(ctx context.Context, svc Service, jql string, keep func(map[string]any) bool) (map[string]any, error) {
	issues, err := SearchAll(ctx, svc, jql, []string{"summary"}, 0)
	if err != nil {
		return nil, err
	}
	logs := []any{}
	total := 0
	for _, is := range issues {
		key, _ := is["key"].(string)
		wls, err := IssueWorklogs(ctx, svc, key)
		if err != nil {
			return nil, err
		}
		for _, wl := range wls {
			if !keep(wl) {
				continue
			}
			wl["issueKey"] = key
			total += asInt(wl["timeSpentSeconds"])
			logs = append(logs, wl)
		}
	}
	return map[string]any{
		"worklogs":         logs,
		"total":            len(logs),
		"timeSpentSeconds": total,
		"timeSpent":        timeutil.FormatSeconds(total),
	}, nil
}

// UserWorklogs lists the worklogs an account logged within r.
func UserWorklogs(ctx context.Context, svc Service, accountID string, r WorklogRange) (map[string]any, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, jiraerr.Validation("account id is required")
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	jql := r.jql(fmt.Sprintf(`worklogAuthor = "%s"`, accountID))
	res, err := collectWorklogs(ctx, svc, jql, func(wl map[string]any) bool {
		return validators.NestedString(wl, "author.accountId", "") == accountID && r.inRange(wl)
	})
	if err != nil {
		return nil, err
	}
	res["accountId"] = accountID
	return res, nil
}

// ProjectWorklogs lists the worklogs of a project within r.
func ProjectWorklogs(ctx context.Context, svc Service, projectKey string, r WorklogRange) (map[string]any, error) {
	projectKey, err := validators.ProjectKey(projectKey)
	if err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	jql := r.jql(fmt.Sprintf("project = %s AND timespent > 0", projectKey))
	res, err := collectWorklogs(ctx, svc, jql, r.inRange)
	if err != nil {
		return nil, err
	}
	res["projectKey"] = projectKey
	return res, nil
}

// TimeReport summarizes the estimates and logged time of an issue.
func TimeReport(ctx context.Context, svc Service, key string) (map[string]any, error) {
	tt, err := svc.GetTimeTracking(ctx, key)
	if err != nil {
		return nil, err
	}
	logs, err := IssueWorklogs(ctx, svc, key)
	if err != nil {
		return nil, err
	}

	spent := 0
	byAuthor := map[string]any{}
	for _, wl := range logs {
		secs := asInt(wl["timeSpentSeconds"])
		spent += secs
		name := validators.NestedString(wl, "author.displayName", "Unknown")
		byAuthor[name] = asInt(byAuthor[name]) + secs
	}
	remaining := asInt(tt["remainingEstimateSeconds"])

	return map[string]any{
		"issueKey":                 key,
		"originalEstimate":         tt["originalEstimate"],
		"originalEstimateSeconds":  asInt(tt["originalEstimateSeconds"]),
		"remainingEstimate":        timeutil.FormatSeconds(remaining),
		"remainingEstimateSeconds": remaining,
		"timeSpent":                timeutil.FormatSeconds(spent),
		"timeSpentSeconds":         spent,
		"worklogCount":             len(logs),
		"byAuthor":                 byAuthor,
		"progress":                 timeutil.CalculateProgress(spent, remaining),
	}, nil
}

// ExportSearch flattens the issues matching jql into rows of strings keyed
// by field, ready for CSV or JSON output.
func ExportSearch(ctx context.Context, svc Service, jql string, opts ExportOptions) (map[string]any, error) {
	jql, err := validators.JQL(jql)
	if err != nil {
		return nil, err
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultExportFields
	}
	issues, err := SearchAll(ctx, svc, jql, fields, opts.MaxResults)
	if err != nil {
		return nil, err
	}

	rows := make([]any, 0, len(issues))
	for _, is := range issues {
		f, _ := is["fields"].(map[string]any)
		row := map[string]any{"key": is["key"]}
		for _, name := range fields {
			row[name] = exportValue(f[name])
		}
		rows = append(rows, row)
	}
	cols := make([]any, 0, len(fields)+1)
	cols = append(cols, "key")
	for _, name := range fields {
		cols = append(cols, name)
	}
	return map[string]any{
		"jql":    jql,
		"fields": cols,
		"total":  len(rows),
		"data":   rows,
	}, nil
}

// exportValue renders a field value as one cell.
func exportValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if s := exportValue(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if t["type"] == "doc" {
			return adf.ToText(t)
		}
		for _, k := range []string{"displayName", "name", "value", "key"} {
			if s, ok := t[k].(string); ok {
				return s
			}
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// FindUserByName resolves a display name or email to a user. An exact match
// wins over a display name prefix.
func FindUserByName(ctx context.Context, svc Service, name string) (map[string]any, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, jiraerr.Validation("user name is required")
	}
	users, err := svc.SearchUsers(ctx, name, 0, reportPageSize)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if strings.EqualFold(validators.NestedString(u, "displayName", ""), name) ||
			strings.EqualFold(validators.NestedString(u, "emailAddress", ""), name) {
			return u, nil
		}
	}
	lower := strings.ToLower(name)
	for _, u := range users {
		if strings.HasPrefix(strings.ToLower(validators.NestedString(u, "displayName", "")), lower) {
			return u, nil
		}
	}
	return nil, jiraerr.NotFound("user %q not found", name)
}
