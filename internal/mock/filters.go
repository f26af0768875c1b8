package mock

import (
	"context"
	"strconv"
	"strings"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
)

func (c *Client) filter(id string) (map[string]any, error) {
	for _, f := range c.st.filters {
		if f["id"] == id {
			return f, nil
		}
	}
	return nil, jiraerr.NotFound("filter %s not found", id)
}

// CreateFilter stores a filter owned by the current user.
func (c *Client) CreateFilter(ctx context.Context, name, jql string, opts jira.FilterOptions) (map[string]any, error) {
	if strings.TrimSpace(name) == "" {
		return nil, jiraerr.Validation("filter name is required")
	}
	id := strconv.Itoa(c.st.nextFilterID)
	c.st.nextFilterID++
	f := map[string]any{
		"id":               id,
		"name":             name,
		"jql":              jql,
		"description":      opts.Description,
		"owner":            c.user(currentUserID),
		"favourite":        opts.Favourite,
		"self":             c.BaseURL + "/rest/api/3/filter/" + id,
		"viewUrl":          c.BaseURL + "/issues/?filter=" + id,
		"sharePermissions": copyValue(opts.SharePermissions),
	}
	c.st.filters = append(c.st.filters, f)
	return deepCopy(f), nil
}

// GetFilter returns a filter by id.
func (c *Client) GetFilter(ctx context.Context, id string) (map[string]any, error) {
	f, err := c.filter(id)
	if err != nil {
		return nil, err
	}
	return deepCopy(f), nil
}

// UpdateFilter applies the non-nil fields of upd.
func (c *Client) UpdateFilter(ctx context.Context, id string, upd jira.FilterUpdate) (map[string]any, error) {
	f, err := c.filter(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		f["name"] = *upd.Name
	}
	if upd.JQL != nil {
		f["jql"] = *upd.JQL
	}
	if upd.Description != nil {
		f["description"] = *upd.Description
	}
	if upd.Favourite != nil {
		f["favourite"] = *upd.Favourite
	}
	return deepCopy(f), nil
}

// DeleteFilter removes a filter.
func (c *Client) DeleteFilter(ctx context.Context, id string) error {
	for i, f := range c.st.filters {
		if f["id"] == id {
			c.st.filters = append(c.st.filters[:i], c.st.filters[i+1:]...)
			return nil
		}
	}
	return jiraerr.NotFound("filter %s not found", id)
}

// SearchFilters matches filter names by case-sensitive substring.
func (c *Client) SearchFilters(ctx context.Context, name string, startAt, maxResults int) (map[string]any, error) {
	var out []map[string]any
	for _, f := range c.st.filters {
		if n, _ := f["name"].(string); strings.Contains(n, name) {
			out = append(out, f)
		}
	}
	return platformPage(out, "values", startAt, maxResults), nil
}

// SetFilterFavourite marks or unmarks a filter as favourite.
func (c *Client) SetFilterFavourite(ctx context.Context, id string, favourite bool) (map[string]any, error) {
	return c.UpdateFilter(ctx, id, jira.FilterUpdate{Favourite: &favourite})
}

// GetMyFilters lists the filters owned by the current user.
func (c *Client) GetMyFilters(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	for _, f := range c.st.filters {
		if owner, _ := f["owner"].(map[string]any); owner["accountId"] == currentUserID {
			out = append(out, f)
		}
	}
	return copyList(out), nil
}

// GetFavouriteFilters lists the favourite filters.
func (c *Client) GetFavouriteFilters(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	for _, f := range c.st.filters {
		if fav, _ := f["favourite"].(bool); fav {
			out = append(out, f)
		}
	}
	return copyList(out), nil
}
