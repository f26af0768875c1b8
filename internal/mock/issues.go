package mock

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/validators"
)

// GetIssue returns a copy of the issue. Fields and expansions are accepted
// but the full record is always returned.
func (c *Client) GetIssue(ctx context.Context, key string, opts jira.GetIssueOptions) (map[string]any, error) {
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	return deepCopy(is), nil
}

// CreateIssue stores a new issue keyed "<PROJECT>-<n>" where n comes from
// the counter shared with service desk requests.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (map[string]any, error) {
	projectKey := validators.NestedString(fields, "project.key", "")
	if projectKey == "" {
		return nil, jiraerr.Validation("project key is required")
	}
	project, err := c.project(projectKey)
	if err != nil {
		return nil, err
	}

	c.st.counter++
	n := c.st.counter
	key := projectKey + "-" + strconv.Itoa(n)
	id := strconv.Itoa(10000 + n)
	now := c.now()

	f := normalizeFields(fields)
	if _, ok := f["issuetype"].(map[string]any); !ok {
		f["issuetype"] = map[string]any{"name": "Task"}
	}
	if _, ok := f["priority"].(map[string]any); !ok {
		f["priority"] = map[string]any{"name": "Medium", "id": "3"}
	}
	if _, ok := f["labels"].([]any); !ok {
		f["labels"] = []any{}
	}
	f["assignee"] = c.userRef(f["assignee"])
	if _, ok := f["reporter"].(map[string]any); !ok {
		f["reporter"] = c.user(currentUserID)
	}
	f["status"] = deepCopy(statusToDo)
	f["project"] = map[string]any{"key": projectKey, "id": project["id"], "name": project["name"]}
	f["created"] = now
	f["updated"] = now
	f["issuelinks"] = []any{}

	self := c.BaseURL + "/rest/api/3/issue/" + id
	c.st.put(map[string]any{"id": id, "key": key, "self": self, "fields": f})
	return map[string]any{"id": id, "key": key, "self": self}, nil
}

// CreateIssuesBulk creates each issue in turn. Failures are reported in
// "errors" without stopping the batch.
func (c *Client) CreateIssuesBulk(ctx context.Context, issues []map[string]any) (map[string]any, error) {
	if len(issues) == 0 {
		return nil, jiraerr.Validation("no issues to create")
	}
	created := []any{}
	failed := []any{}
	for i, is := range issues {
		fields, ok := is["fields"].(map[string]any)
		if !ok {
			fields = is
		}
		res, err := c.CreateIssue(ctx, fields)
		if err != nil {
			failed = append(failed, map[string]any{
				"failedElementNumber": i,
				"status":              statusOf(err),
				"elementErrors":       map[string]any{"errorMessages": []any{err.Error()}},
			})
			continue
		}
		created = append(created, res)
	}
	return map[string]any{"issues": created, "errors": failed}, nil
}

// UpdateIssue merges fields into the issue. An empty map changes nothing.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	is, err := c.issue(key)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	f := fieldsOf(is)
	for k, v := range normalizeFields(fields) {
		if k == "assignee" {
			v = c.userRef(v)
		}
		f[k] = v
	}
	f["updated"] = c.now()
	return nil
}

// DeleteIssue removes an issue. Subtasks are not modelled so the flag has
// no effect.
func (c *Client) DeleteIssue(ctx context.Context, key string, deleteSubtasks bool) error {
	if _, err := c.issue(key); err != nil {
		return err
	}
	c.st.remove(key)
	return nil
}

// transitionsFor returns the workflow table of an issue.
func (c *Client) transitionsFor(key string) []map[string]any {
	if isDeskKey(key) {
		return c.st.deskTransitions
	}
	return seedTransitions()
}

// GetTransitions lists the transitions of the issue's workflow.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	return copyList(c.transitionsFor(key)), nil
}

// TransitionIssue moves an issue to the transition's status and applies
// fields, label updates and a comment.
func (c *Client) TransitionIssue(ctx context.Context, key, transitionID string, opts jira.TransitionOptions) error {
	is, err := c.issue(key)
	if err != nil {
		return err
	}
	var target map[string]any
	for _, t := range c.transitionsFor(key) {
		if t["id"] == transitionID {
			target = t
			break
		}
	}
	// unknown transition ids are ignored and leave the issue untouched
	if target == nil {
		return nil
	}

	f := fieldsOf(is)
	if to, ok := target["to"].(map[string]any); ok {
		f["status"] = deepCopy(to)
	} else {
		f["status"] = map[string]any{"name": target["name"], "id": target["id"]}
	}
	for k, v := range normalizeFields(opts.Fields) {
		f[k] = v
	}
	applyLabelUpdates(f, opts.Update["labels"])
	f["updated"] = c.now()

	if opts.Comment != "" {
		if _, err := c.AddComment(ctx, key, opts.Comment); err != nil {
			return err
		}
	}
	return nil
}

// AssignIssue sets the assignee. Unknown account ids get a placeholder
// user; an empty id unassigns.
func (c *Client) AssignIssue(ctx context.Context, key, accountID string) error {
	is, err := c.issue(key)
	if err != nil {
		return err
	}
	f := fieldsOf(is)
	if accountID == "" {
		f["assignee"] = nil
		return nil
	}
	f["assignee"] = c.user(accountID)
	return nil
}

// GetCreateIssueMetaIssueTypes lists the issue types of a project.
func (c *Client) GetCreateIssueMetaIssueTypes(ctx context.Context, projectKey string, startAt, maxResults int) (map[string]any, error) {
	if _, err := c.project(projectKey); err != nil {
		return nil, err
	}
	return platformPage(seedIssueTypes(), "values", startAt, maxResults), nil
}

// GetCreateIssueMetaFields lists the create screen fields of an issue type.
func (c *Client) GetCreateIssueMetaFields(ctx context.Context, projectKey, issueTypeID string, startAt, maxResults int) (map[string]any, error) {
	if _, err := c.project(projectKey); err != nil {
		return nil, err
	}
	meta := func(id, name string, required bool, schema string) map[string]any {
		return map[string]any{"fieldId": id, "key": id, "name": name, "required": required, "schema": map[string]any{"type": schema}}
	}
	fields := []map[string]any{
		meta("summary", "Summary", true, "string"),
		meta("issuetype", "Issue Type", true, "issuetype"),
		meta("description", "Description", false, "string"),
		meta("priority", "Priority", false, "priority"),
		meta("labels", "Labels", false, "array"),
		meta("assignee", "Assignee", false, "user"),
	}
	return platformPage(fields, "values", startAt, maxResults), nil
}

// userRef resolves an {"accountId": ...} reference to a user record.
func (c *Client) userRef(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	id, _ := m["accountId"].(string)
	if id == "" {
		return nil
	}
	return c.user(id)
}

// normalizeFields copies fields and converts text descriptions to ADF.
func normalizeFields(fields map[string]any) map[string]any {
	f := deepCopy(fields)
	if f == nil {
		return map[string]any{}
	}
	for _, k := range []string{"description", "environment"} {
		if s, ok := f[k].(string); ok {
			f[k] = adf.FromText(s).Map()
		}
	}
	return f
}

// applyLabelUpdates applies [{"add": l}, {"remove": l}, {"set": [...]}]
// operations to the labels field.
func applyLabelUpdates(f map[string]any, ops any) {
	list, ok := ops.([]any)
	if !ok {
		return
	}
	labels, _ := f["labels"].([]any)
	for _, op := range list {
		m, ok := op.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := m["add"].(string); ok && !containsAny(labels, v) {
			labels = append(labels, v)
		}
		if v, ok := m["remove"].(string); ok {
			labels = removeAny(labels, v)
		}
		if v, ok := m["set"]; ok {
			labels, _ = copyValue(v).([]any)
		}
	}
	if labels == nil {
		labels = []any{}
	}
	f["labels"] = labels
}

func containsAny(list []any, v string) bool {
	for _, it := range list {
		if it == v {
			return true
		}
	}
	return false
}

func removeAny(list []any, v string) []any {
	out := list[:0]
	for _, it := range list {
		if it != v {
			out = append(out, it)
		}
	}
	return out
}

func isDeskKey(key string) bool {
	return strings.HasPrefix(key, "DEMOSD-")
}

// statusOf returns the HTTP status matching an error's kind.
func statusOf(err error) int {
	switch jiraerr.KindOf(err) {
	case jiraerr.KindNotFound:
		return http.StatusNotFound
	case jiraerr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
