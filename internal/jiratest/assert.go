package jiratest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gi8lino/jiraas/internal/jira"
)

// AssertSearchReturnsResults polls jql until at least minCount issues match
// or timeout passes. It returns the last page of issues.
func AssertSearchReturnsResults(t assert.TestingT, ctx context.Context, svc jira.Service, jql string, minCount int, timeout time.Duration) []map[string]any {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	var issues []map[string]any
	err := poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		page, err := svc.SearchIssues(ctx, jql, jira.SearchOptions{MaxResults: max(minCount, 50)})
		if err != nil {
			return false, err
		}
		issues = issueList(page["issues"])
		return len(issues) >= minCount, nil
	})
	if err != nil {
		assert.Fail(t, fmt.Sprintf("Expected at least %d results for %q, got %d", minCount, jql, len(issues)))
	}
	return issues
}

// AssertSearchReturnsEmpty polls jql until nothing matches or timeout
// passes.
func AssertSearchReturnsEmpty(t assert.TestingT, ctx context.Context, svc jira.Service, jql string, timeout time.Duration) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	var total int
	err := poll(ctx, timeout, func(ctx context.Context) (bool, error) {
		n, err := svc.CountIssues(ctx, jql)
		if err != nil {
			return false, err
		}
		total = n
		return n == 0, nil
	})
	if err != nil {
		return assert.Fail(t, fmt.Sprintf("Expected no results for %q, got %d", jql, total))
	}
	return true
}

// AssertIssueHasField checks that issue carries field. With want given the
// value must match; object values are compared by their "name",
// "displayName" or "value".
func AssertIssueHasField(t assert.TestingT, issue map[string]any, field string, want ...any) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	fields, _ := issue["fields"].(map[string]any)
	got, ok := fields[field]
	if !ok {
		return assert.Fail(t, fmt.Sprintf("Issue %v missing field '%s'", issue["key"], field))
	}
	if len(want) == 0 {
		return true
	}
	got = fieldValue(got)
	if !assert.ObjectsAreEqual(want[0], got) {
		return assert.Fail(t, fmt.Sprintf("Field '%s': expected '%v', got '%v'", field, want[0], got))
	}
	return true
}

func fieldValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for _, k := range []string{"name", "displayName", "value"} {
		if s, ok := m[k]; ok {
			return s
		}
	}
	return v
}

func issueList(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}
