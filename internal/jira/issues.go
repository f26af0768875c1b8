package jira

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// GetIssue returns one issue.
func (c *Client) GetIssue(ctx context.Context, key string, opts GetIssueOptions) (map[string]any, error) {
	q := url.Values{}
	setList(q, "fields", opts.Fields)
	setList(q, "expand", opts.Expand)

	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/issue/"+escape(key), q, nil, label("get issue %s", key), &out)
	return out, err
}

// CreateIssue creates an issue from a fields map and returns {id, key, self}.
// Plain string descriptions are converted to ADF.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (map[string]any, error) {
	var out map[string]any
	body := map[string]any{"fields": prepareFields(fields)}
	err := c.call(ctx, http.MethodPost, apiPath+"/issue", nil, body, "create issue", &out)
	return out, err
}

// CreateIssuesBulk creates up to 50 issues at once. Each entry may be a
// bare fields map or a {"fields": ...} update.
func (c *Client) CreateIssuesBulk(ctx context.Context, issues []map[string]any) (map[string]any, error) {
	if len(issues) == 0 {
		return nil, jiraerr.Validation("no issues to create")
	}
	updates := make([]map[string]any, 0, len(issues))
	for _, is := range issues {
		fields, ok := is["fields"].(map[string]any)
		if !ok {
			fields = is
		}
		u := map[string]any{"fields": prepareFields(fields)}
		if upd, ok := is["update"]; ok {
			u["update"] = upd
		}
		updates = append(updates, u)
	}

	var out map[string]any
	err := c.call(ctx, http.MethodPost, apiPath+"/issue/bulk", nil, map[string]any{"issueUpdates": updates}, "bulk create issues", &out)
	return out, err
}

// UpdateIssue sets fields on an issue. An empty map is a no-op.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	body := map[string]any{"fields": prepareFields(fields)}
	return c.call(ctx, http.MethodPut, apiPath+"/issue/"+escape(key), nil, body, label("update issue %s", key), nil)
}

// DeleteIssue removes an issue, optionally with its subtasks.
func (c *Client) DeleteIssue(ctx context.Context, key string, deleteSubtasks bool) error {
	q := url.Values{}
	if deleteSubtasks {
		q.Set("deleteSubtasks", "true")
	}
	return c.call(ctx, http.MethodDelete, apiPath+"/issue/"+escape(key), q, nil, label("delete issue %s", key), nil)
}

// GetTransitions lists the transitions available on an issue.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]map[string]any, error) {
	var out struct {
		Transitions []map[string]any `json:"transitions"`
	}
	if err := c.call(ctx, http.MethodGet, apiPath+"/issue/"+escape(key)+"/transitions", nil, nil, label("get transitions %s", key), &out); err != nil {
		return nil, err
	}
	return out.Transitions, nil
}

// TransitionIssue moves an issue through a workflow transition.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string, opts TransitionOptions) error {
	body := map[string]any{"transition": map[string]any{"id": transitionID}}
	if len(opts.Fields) > 0 {
		body["fields"] = opts.Fields
	}
	update := map[string]any{}
	for k, v := range opts.Update {
		update[k] = v
	}
	if opts.Comment != "" {
		update["comment"] = []any{map[string]any{"add": map[string]any{"body": adf.FromText(opts.Comment).Map()}}}
	}
	if len(update) > 0 {
		body["update"] = update
	}
	return c.call(ctx, http.MethodPost, apiPath+"/issue/"+escape(key)+"/transitions", nil, body, label("transition issue %s", key), nil)
}

// AssignIssue assigns an issue. An empty account id unassigns it.
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	var body any = map[string]any{"accountId": nil}
	if accountID != "" {
		body = map[string]any{"accountId": accountID}
	}
	return c.call(ctx, http.MethodPut, apiPath+"/issue/"+escape(key)+"/assignee", nil, body, label("assign issue %s", key), nil)
}

// GetCreateIssueMetaIssueTypes lists the issue types creatable in a project.
func (c *Client) GetCreateIssueMetaIssueTypes(ctx context.Context, projectKey string, startAt, maxResults int) (map[string]any, error) {
	var out map[string]any
	path := apiPath + "/issue/createmeta/" + escape(projectKey) + "/issuetypes"
	err := c.call(ctx, http.MethodGet, path, page(startAt, maxResults), nil, label("get create metadata %s", projectKey), &out)
	return out, err
}

// GetCreateIssueMetaFields lists the fields of an issue type's create screen.
func (c *Client) GetCreateIssueMetaFields(ctx context.Context, projectKey, issueTypeID string, startAt, maxResults int) (map[string]any, error) {
	var out map[string]any
	path := apiPath + "/issue/createmeta/" + escape(projectKey) + "/issuetypes/" + escape(issueTypeID)
	err := c.call(ctx, http.MethodGet, path, page(startAt, maxResults), nil, label("get create fields %s/%s", projectKey, issueTypeID), &out)
	return out, err
}

// prepareFields converts string descriptions and environments to ADF.
func prepareFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case "description", "environment":
			out[k] = adf.Ensure(v)
		default:
			out[k] = v
		}
	}
	return out
}
