package jira

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// GetCurrentUser returns the authenticated user.
func (c *Client) GetCurrentUser(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/myself", nil, nil, "get current user", &out)
	return out, err
}

// GetCurrentUserID returns the account id of the authenticated user.
func (c *Client) GetCurrentUserID(ctx context.Context) (string, error) {
	me, err := c.GetCurrentUser(ctx)
	if err != nil {
		return "", err
	}
	id, _ := me["accountId"].(string)
	if id == "" {
		return "", jiraerr.New(jiraerr.KindUnknown, "current user has no account id")
	}
	return id, nil
}

// GetUser returns a user by account id.
func (c *Client) GetUser(ctx context.Context, accountID string) (map[string]any, error) {
	var out map[string]any
	q := url.Values{"accountId": {accountID}, "expand": {"groups"}}
	err := c.call(ctx, http.MethodGet, apiPath+"/user", q, nil, label("get user %s", accountID), &out)
	return out, err
}

// SearchUsers finds users by name or email.
func (c *Client) SearchUsers(ctx context.Context, query string, startAt, maxResults int) ([]map[string]any, error) {
	q := page(startAt, maxResults)
	q.Set("query", query)
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/user/search", q, nil, "search users", &out)
	return out, err
}

// FindAssignableUsers lists users that can be assigned in a project.
func (c *Client) FindAssignableUsers(ctx context.Context, query, projectKey string, startAt, maxResults int) ([]map[string]any, error) {
	q := page(startAt, maxResults)
	q.Set("query", query)
	q.Set("project", projectKey)
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/user/assignable/search", q, nil, label("find assignable users %s", projectKey), &out)
	return out, err
}

// GetUserByName resolves a display name or email to a user.
func (c *Client) GetUserByName(ctx context.Context, name string) (map[string]any, error) {
	return FindUserByName(ctx, c, name)
}

// GetAllUsers lists the users of the site, including app and inactive
// accounts.
func (c *Client) GetAllUsers(ctx context.Context, startAt, maxResults int) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/users/search", page(startAt, maxResults), nil, "get all users", &out)
	return out, err
}

// GetUsersBulk returns a page of users by account id.
func (c *Client) GetUsersBulk(ctx context.Context, accountIDs []string) (map[string]any, error) {
	if len(accountIDs) == 0 {
		return nil, jiraerr.Validation("at least one account id is required")
	}
	q := url.Values{"accountId": accountIDs}
	q.Set("maxResults", strconv.Itoa(len(accountIDs)))
	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/user/bulk", q, nil, "get users bulk", &out)
	return out, err
}

// GetUserGroups lists the groups of a user.
func (c *Client) GetUserGroups(ctx context.Context, accountID string) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/user/groups", url.Values{"accountId": {accountID}}, nil, label("get user groups %s", accountID), &out)
	return out, err
}
