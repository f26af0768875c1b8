package mock

import (
	"context"
	"strconv"
	"strings"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/validators"
)

// projectView is a project without the nested component and version lists.
func (c *Client) projectView(p map[string]any) map[string]any {
	out := deepCopy(p)
	delete(out, "components")
	delete(out, "versions")
	delete(out, "leadAccountId")
	if lead, _ := p["leadAccountId"].(string); lead != "" {
		out["lead"] = c.user(lead)
	}
	return out
}

// GetProject returns a project.
func (c *Client) GetProject(ctx context.Context, key string) (map[string]any, error) {
	p, err := c.project(key)
	if err != nil {
		return nil, err
	}
	return c.projectView(p), nil
}

// GetAllProjects lists every project.
func (c *Client) GetAllProjects(ctx context.Context) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(c.st.projects))
	for _, p := range c.st.projects {
		out = append(out, c.projectView(p))
	}
	return out, nil
}

// CreateProject validates the input the way the site does and stores an
// empty project.
func (c *Client) CreateProject(ctx context.Context, in jira.ProjectInput) (map[string]any, error) {
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
	if in.TemplateKey != "" {
		if _, err := validators.ProjectTemplate(in.TemplateKey); err != nil {
			return nil, err
		}
	}
	if _, err := c.project(key); err == nil {
		return nil, jiraerr.New(jiraerr.KindConflict, "project %s already exists", key)
	}
	lead := in.LeadAccountID
	if lead == "" {
		lead = currentUserID
	}

	id := strconv.Itoa(10000 + len(c.st.projects))
	self := c.BaseURL + "/rest/api/3/project/" + id
	c.st.projects = append(c.st.projects, map[string]any{
		"id":             id,
		"key":            key,
		"name":           name,
		"description":    in.Description,
		"projectTypeKey": ptype,
		"style":          "next-gen",
		"self":           self,
		"leadAccountId":  lead,
		"components":     []any{},
		"versions":       []any{},
	})
	return map[string]any{"id": id, "key": key, "self": self}, nil
}

// DeleteProject removes a project and its issues.
func (c *Client) DeleteProject(ctx context.Context, key string, enableUndo bool) error {
	if _, err := c.project(key); err != nil {
		return err
	}
	for i, p := range c.st.projects {
		if p["key"] == key {
			c.st.projects = append(c.st.projects[:i], c.st.projects[i+1:]...)
			break
		}
	}
	for _, k := range append([]string(nil), c.st.order...) {
		if strings.HasPrefix(k, key+"-") {
			c.st.remove(k)
		}
	}
	return nil
}

// projectList returns a copied list attribute of a project.
func (c *Client) projectList(key, attr string) ([]map[string]any, error) {
	p, err := c.project(key)
	if err != nil {
		return nil, err
	}
	items, _ := p[attr].([]any)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, deepCopy(m))
		}
	}
	return out, nil
}

// GetProjectComponents lists a project's components.
func (c *Client) GetProjectComponents(ctx context.Context, key string) ([]map[string]any, error) {
	return c.projectList(key, "components")
}

// GetProjectVersions lists a project's versions.
func (c *Client) GetProjectVersions(ctx context.Context, key string) ([]map[string]any, error) {
	return c.projectList(key, "versions")
}

// GetProjectStatuses lists the statuses of each issue type in a project.
func (c *Client) GetProjectStatuses(ctx context.Context, key string) ([]map[string]any, error) {
	if _, err := c.project(key); err != nil {
		return nil, err
	}
	var statuses []any
	if key == "DEMOSD" {
		for _, t := range c.st.deskTransitions {
			statuses = append(statuses, map[string]any{"id": t["id"], "name": t["name"]})
		}
	} else {
		for _, t := range seedTransitions() {
			statuses = append(statuses, copyValue(t["to"]))
		}
	}
	out := []map[string]any{}
	for _, it := range seedIssueTypes() {
		out = append(out, map[string]any{
			"id":       it["id"],
			"name":     it["name"],
			"subtask":  it["subtask"],
			"statuses": copyValue(statuses),
		})
	}
	return out, nil
}

// GetIssueTypes lists the issue types.
func (c *Client) GetIssueTypes(ctx context.Context) ([]map[string]any, error) {
	return seedIssueTypes(), nil
}

// GetPriorities lists the priorities.
func (c *Client) GetPriorities(ctx context.Context) ([]map[string]any, error) {
	return seedPriorities(), nil
}

// GetFields lists system and custom fields.
func (c *Client) GetFields(ctx context.Context) ([]map[string]any, error) {
	return seedFields(), nil
}

// GetField returns one field by id, matched case-insensitively.
func (c *Client) GetField(ctx context.Context, id string) (map[string]any, error) {
	for _, f := range seedFields() {
		if fid, _ := f["id"].(string); strings.EqualFold(fid, id) {
			return f, nil
		}
	}
	return nil, jiraerr.NotFound("field %s not found", id)
}
