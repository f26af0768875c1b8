package jira

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/validators"
)

// GetProject returns a project by key or id.
func (c *Client) GetProject(ctx context.Context, key string) (map[string]any, error) {
	var out map[string]any
	q := url.Values{"expand": {"description,lead,issueTypes"}}
	err := c.call(ctx, http.MethodGet, apiPath+"/project/"+escape(key), q, nil, label("get project %s", key), &out)
	return out, err
}

// GetAllProjects walks the paginated project search.
func (c *Client) GetAllProjects(ctx context.Context) ([]map[string]any, error) {
	return c.CollectPages(ctx, apiPath+"/project/search", url.Values{"maxResults": {"50"}}, PlatformPages)
}

// CreateProject creates a project. The current user leads it unless a lead
// is given; template shortcuts such as "scrum" are expanded.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (map[string]any, error) {
	key, err := validators.ProjectKey(in.Key)
	if err != nil {
		return nil, err
	}
	name, err := validators.ProjectName(in.Name)
	if err != nil {
		return nil, err
	}
	ptype := in.ProjectTypeKey
	if ptype == "" {
		ptype = "software"
	}
	if ptype, err = validators.ProjectType(ptype); err != nil {
		return nil, err
	}

	lead := in.LeadAccountID
	if lead == "" {
		if lead, err = c.GetCurrentUserID(ctx); err != nil {
			return nil, err
		}
	}

	body := map[string]any{
		"key":            key,
		"name":           name,
		"projectTypeKey": ptype,
		"leadAccountId":  lead,
	}
	if in.TemplateKey != "" {
		tpl, err := validators.ProjectTemplate(in.TemplateKey)
		if err != nil {
			return nil, err
		}
		body["projectTemplateKey"] = tpl
	}
	if in.Description != "" {
		body["description"] = in.Description
	}
	if in.AssigneeType != "" {
		at, err := validators.AssigneeType(in.AssigneeType)
		if err != nil {
			return nil, err
		}
		body["assigneeType"] = at
	}
	if in.CategoryID > 0 {
		body["categoryId"] = in.CategoryID
	}

	var out map[string]any
	err = c.call(ctx, http.MethodPost, apiPath+"/project", nil, body, label("create project %s", key), &out)
	return out, err
}

// DeleteProject deletes a project, to the trash when enableUndo is set.
func (c *Client) DeleteProject(ctx context.Context, key string, enableUndo bool) error {
	q := url.Values{}
	if enableUndo {
		q.Set("enableUndo", "true")
	}
	return c.call(ctx, http.MethodDelete, apiPath+"/project/"+escape(key), q, nil, label("delete project %s", key), nil)
}

// GetProjectComponents lists the components of a project.
func (c *Client) GetProjectComponents(ctx context.Context, key string) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/project/"+escape(key)+"/components", nil, nil, label("get components %s", key), &out)
	return out, err
}

// GetProjectVersions lists the versions of a project.
func (c *Client) GetProjectVersions(ctx context.Context, key string) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/project/"+escape(key)+"/versions", nil, nil, label("get versions %s", key), &out)
	return out, err
}

// GetProjectStatuses lists statuses per issue type of a project.
func (c *Client) GetProjectStatuses(ctx context.Context, key string) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/project/"+escape(key)+"/statuses", nil, nil, label("get statuses %s", key), &out)
	return out, err
}

// GetIssueTypes lists all issue types visible to the user.
func (c *Client) GetIssueTypes(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/issuetype", nil, nil, "get issue types", &out)
	return out, err
}

// GetPriorities lists the issue priorities.
func (c *Client) GetPriorities(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/priority", nil, nil, "get priorities", &out)
	return out, err
}

// GetFields lists system and custom fields.
func (c *Client) GetFields(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/field", nil, nil, "get fields", &out)
	return out, err
}

// GetField returns one field by id, matched case-insensitively.
func (c *Client) GetField(ctx context.Context, id string) (map[string]any, error) {
	fields, err := c.GetFields(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if fid, _ := f["id"].(string); strings.EqualFold(fid, id) {
			return f, nil
		}
	}
	return nil, jiraerr.NotFound("field %s not found", id)
}
