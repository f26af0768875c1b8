package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// SearchIssues runs a JQL search through the enhanced search endpoint.
func (c *Client) SearchIssues(ctx context.Context, jql string, opts SearchOptions) (map[string]any, error) {
	if jql == "" {
		return nil, jiraerr.Validation("JQL query is required")
	}
	q := url.Values{"jql": {jql}}
	setList(q, "fields", opts.Fields)
	setList(q, "expand", opts.Expand)
	if opts.StartAt > 0 {
		q.Set("startAt", strconv.Itoa(opts.StartAt))
	}
	if opts.MaxResults > 0 {
		q.Set("maxResults", strconv.Itoa(opts.MaxResults))
	}
	if opts.NextPageToken != "" {
		q.Set("nextPageToken", opts.NextPageToken)
	}

	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/search/jql", q, nil, "search issues", &out)
	return out, err
}

// AdvancedSearch posts the search so long JQL and field lists fit.
func (c *Client) AdvancedSearch(ctx context.Context, jql string, opts SearchOptions) (map[string]any, error) {
	if jql == "" {
		return nil, jiraerr.Validation("JQL query is required")
	}
	body := map[string]any{"jql": jql}
	if len(opts.Fields) > 0 {
		body["fields"] = opts.Fields
	}
	if len(opts.Expand) > 0 {
		body["expand"] = strings.Join(opts.Expand, ",")
	}
	if opts.MaxResults > 0 {
		body["maxResults"] = opts.MaxResults
	}
	if opts.NextPageToken != "" {
		body["nextPageToken"] = opts.NextPageToken
	}

	var out map[string]any
	err := c.call(ctx, http.MethodPost, apiPath+"/search/jql", nil, body, "advanced search", &out)
	return out, err
}

// CountIssues returns the approximate number of issues matching jql.
func (c *Client) CountIssues(ctx context.Context, jql string) (int, error) {
	var out map[string]any
	if err := c.call(ctx, http.MethodPost, apiPath+"/search/approximate-count", nil, map[string]any{"jql": jql}, "count issues", &out); err != nil {
		return 0, err
	}
	return asInt(out["count"]), nil
}

// SearchIssuesByKeys fetches issues by key. Keys that do not exist are
// skipped.
func (c *Client) SearchIssuesByKeys(ctx context.Context, keys []string) ([]map[string]any, error) {
	if len(keys) == 0 {
		return []map[string]any{}, nil
	}
	jql := "key in (" + strings.Join(keys, ",") + ")"
	res, err := c.AdvancedSearch(ctx, jql, SearchOptions{MaxResults: len(keys), Fields: []string{"*all"}})
	if err != nil {
		// Jira rejects the whole query when a key does not exist
		if jiraerr.IsKind(err, jiraerr.KindValidation) {
			return c.issuesOneByOne(ctx, keys)
		}
		return nil, err
	}
	return toMaps(res["issues"]), nil
}

func (c *Client) issuesOneByOne(ctx context.Context, keys []string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		is, err := c.GetIssue(ctx, k, GetIssueOptions{})
		if err != nil {
			if jiraerr.IsKind(err, jiraerr.KindNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, is)
	}
	return out, nil
}

// ValidateJQL parses a query and returns the parser's structure and errors.
func (c *Client) ValidateJQL(ctx context.Context, jql string) (map[string]any, error) {
	var out map[string]any
	q := url.Values{"validation": {"strict"}}
	err := c.call(ctx, http.MethodPost, apiPath+"/jql/parse", q, map[string]any{"queries": []string{jql}}, "validate jql", &out)
	return out, err
}

// ExportSearchResults returns the matching issues as flat rows.
func (c *Client) ExportSearchResults(ctx context.Context, jql string, opts ExportOptions) (map[string]any, error) {
	return ExportSearch(ctx, c, jql, opts)
}

// toMaps converts a decoded JSON array to maps, skipping other values.
func toMaps(v any) []map[string]any {
	arr, _ := v.([]any)
	out := make([]map[string]any, 0, len(arr))
	for _, it := range arr {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
