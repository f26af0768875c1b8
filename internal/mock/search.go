package mock

import (
	"context"
	"strings"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/validators"
)

// find runs the filter and sort pipeline over the stored issues.
func (c *Client) find(jql string) []map[string]any {
	q := parseJQL(jql)
	var out []map[string]any
	for _, is := range c.st.ordered() {
		if q.match(is) {
			out = append(out, is)
		}
	}
	q.sort(out)
	return out
}

// SearchIssues filters issues with the emulated JQL subset.
func (c *Client) SearchIssues(ctx context.Context, jql string, opts jira.SearchOptions) (map[string]any, error) {
	return platformPage(c.find(jql), "issues", opts.StartAt, opts.MaxResults), nil
}

// AdvancedSearch is SearchIssues that also echoes the requested fields and
// expansions.
func (c *Client) AdvancedSearch(ctx context.Context, jql string, opts jira.SearchOptions) (map[string]any, error) {
	res := platformPage(c.find(jql), "issues", opts.StartAt, opts.MaxResults)
	res["expand"] = strings.Join(opts.Expand, ",")
	res["fields"] = copyValue(append([]string{}, opts.Fields...))
	return res, nil
}

// CountIssues returns the number of matching issues.
func (c *Client) CountIssues(ctx context.Context, jql string) (int, error) {
	return len(c.find(jql)), nil
}

// SearchIssuesByKeys returns the issues that exist among keys.
func (c *Client) SearchIssuesByKeys(ctx context.Context, keys []string) ([]map[string]any, error) {
	out := []map[string]any{}
	for _, k := range keys {
		if is, ok := c.st.issues[k]; ok {
			out = append(out, deepCopy(is))
		}
	}
	return out, nil
}

// ExportSearchResults returns the matching issues as flat rows.
func (c *Client) ExportSearchResults(ctx context.Context, jql string, opts jira.ExportOptions) (map[string]any, error) {
	return jira.ExportSearch(ctx, c, jql, opts)
}

// ValidateJQL reports the query's clauses and any rule violations.
func (c *Client) ValidateJQL(ctx context.Context, jql string) (map[string]any, error) {
	errs := []any{}
	if _, err := validators.JQL(jql); err != nil {
		errs = append(errs, err.Error())
	}
	q := parseJQL(jql)
	clauses := make([]any, 0, len(q.clauses))
	for i, cl := range q.clauses {
		if q.known[i] {
			clauses = append(clauses, map[string]any{"field": map[string]any{"name": cl.field}})
		}
	}
	structure := map[string]any{"where": map[string]any{"clauses": clauses}}
	if q.orderBy != "" {
		dir := "asc"
		if q.desc {
			dir = "desc"
		}
		structure["orderBy"] = map[string]any{"fields": []any{map[string]any{"field": map[string]any{"name": q.orderBy}, "direction": dir}}}
	}
	return map[string]any{
		"queries": []any{map[string]any{"query": jql, "structure": structure, "errors": errs}},
	}, nil
}
