package mock

import (
	"context"
	"strings"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// GetCurrentUser returns the user the mock is logged in as.
func (c *Client) GetCurrentUser(ctx context.Context) (map[string]any, error) {
	return c.user(currentUserID), nil
}

// GetCurrentUserID returns the current user's account id.
func (c *Client) GetCurrentUserID(ctx context.Context) (string, error) {
	return currentUserID, nil
}

// GetUser returns a known user.
func (c *Client) GetUser(ctx context.Context, accountID string) (map[string]any, error) {
	if _, ok := c.st.users[accountID]; !ok {
		return nil, jiraerr.NotFound("user %s not found", accountID)
	}
	return c.user(accountID), nil
}

// matchUsers returns users whose id equals query or whose name or email
// contains it. An empty query matches everyone.
func (c *Client) matchUsers(query string) []map[string]any {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []map[string]any
	for _, id := range userOrder {
		u := c.st.users[id]
		name, _ := u["displayName"].(string)
		email, _ := u["emailAddress"].(string)
		if q == "" || id == query ||
			strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(email), q) {
			out = append(out, u)
		}
	}
	return out
}

// SearchUsers finds users by name, email or account id.
func (c *Client) SearchUsers(ctx context.Context, query string, startAt, maxResults int) ([]map[string]any, error) {
	return copyList(window(c.matchUsers(query), startAt, maxResults)), nil
}

// FindAssignableUsers finds users that can be assigned in a project.
func (c *Client) FindAssignableUsers(ctx context.Context, query, projectKey string, startAt, maxResults int) ([]map[string]any, error) {
	if _, err := c.project(projectKey); err != nil {
		return nil, err
	}
	return copyList(window(c.matchUsers(query), startAt, maxResults)), nil
}

// GetUserByName resolves a display name or email to a user.
func (c *Client) GetUserByName(ctx context.Context, name string) (map[string]any, error) {
	return jira.FindUserByName(ctx, c, name)
}

// GetAllUsers lists every known user.
func (c *Client) GetAllUsers(ctx context.Context, startAt, maxResults int) ([]map[string]any, error) {
	return copyList(window(c.matchUsers(""), startAt, maxResults)), nil
}

// GetUsersBulk returns the known users among accountIDs; unknown ids are
// skipped.
func (c *Client) GetUsersBulk(ctx context.Context, accountIDs []string) (map[string]any, error) {
	if len(accountIDs) == 0 {
		return nil, jiraerr.Validation("at least one account id is required")
	}
	var found []map[string]any
	for _, id := range accountIDs {
		if _, ok := c.st.users[id]; ok {
			found = append(found, c.user(id))
		}
	}
	return platformPage(found, "values", 0, len(accountIDs)), nil
}

// GetUserGroups lists a user's groups; unknown users have none.
func (c *Client) GetUserGroups(ctx context.Context, accountID string) ([]map[string]any, error) {
	groups := c.st.groups[accountID]
	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		out = append(out, deepCopy(g.(map[string]any)))
	}
	return out, nil
}
