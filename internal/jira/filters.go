package jira

import (
	"context"
	"net/http"
	"net/url"
)

// CreateFilter saves a JQL filter.
func (c *Client) CreateFilter(ctx context.Context, name, jql string, opts FilterOptions) (map[string]any, error) {
	body := map[string]any{"name": name, "jql": jql, "favourite": opts.Favourite}
	if opts.Description != "" {
		body["description"] = opts.Description
	}
	if len(opts.SharePermissions) > 0 {
		body["sharePermissions"] = opts.SharePermissions
	}
	var out map[string]any
	err := c.call(ctx, http.MethodPost, apiPath+"/filter", nil, body, label("create filter %q", name), &out)
	return out, err
}

// GetFilter returns a filter by id.
func (c *Client) GetFilter(ctx context.Context, id string) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/filter/"+escape(id), nil, nil, label("get filter %s", id), &out)
	return out, err
}

// UpdateFilter changes the fields set in upd.
func (c *Client) UpdateFilter(ctx context.Context, id string, upd FilterUpdate) (map[string]any, error) {
	body := map[string]any{}
	if upd.Name != nil {
		body["name"] = *upd.Name
	}
	if upd.JQL != nil {
		body["jql"] = *upd.JQL
	}
	if upd.Description != nil {
		body["description"] = *upd.Description
	}
	if upd.Favourite != nil {
		body["favourite"] = *upd.Favourite
	}
	var out map[string]any
	err := c.call(ctx, http.MethodPut, apiPath+"/filter/"+escape(id), nil, body, label("update filter %s", id), &out)
	return out, err
}

// DeleteFilter removes a filter.
func (c *Client) DeleteFilter(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, apiPath+"/filter/"+escape(id), nil, nil, label("delete filter %s", id), nil)
}

// SearchFilters finds filters whose name contains name.
func (c *Client) SearchFilters(ctx context.Context, name string, startAt, maxResults int) (map[string]any, error) {
	q := page(startAt, maxResults)
	if name != "" {
		q.Set("filterName", name)
	}
	q.Set("expand", "jql,favourite,owner")
	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/filter/search", q, nil, "search filters", &out)
	return out, err
}

// SetFilterFavourite stars or unstars a filter for the current user.
func (c *Client) SetFilterFavourite(ctx context.Context, id string, favourite bool) (map[string]any, error) {
	method := http.MethodPut
	if !favourite {
		method = http.MethodDelete
	}
	var out map[string]any
	err := c.call(ctx, method, apiPath+"/filter/"+escape(id)+"/favourite", nil, nil, label("set favourite filter %s", id), &out)
	return out, err
}

// GetMyFilters lists filters owned by the current user.
func (c *Client) GetMyFilters(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	q := url.Values{"expand": {"jql,favourite"}, "includeFavourites": {"true"}}
	err := c.call(ctx, http.MethodGet, apiPath+"/filter/my", q, nil, "get my filters", &out)
	return out, err
}

// GetFavouriteFilters lists the current user's favourite filters.
func (c *Client) GetFavouriteFilters(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/filter/favourite", url.Values{"expand": {"jql"}}, nil, "get favourite filters", &out)
	return out, err
}
