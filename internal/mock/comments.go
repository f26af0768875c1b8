package mock

import (
	"context"
	"slices"
	"strconv"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// GetComments lists the comments of an issue.
func (c *Client) GetComments(ctx context.Context, key string, startAt, maxResults int) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	return platformPage(c.st.comments[key], "comments", startAt, maxResults), nil
}

func (c *Client) comment(key, id string) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	for _, cm := range c.st.comments[key] {
		if cm["id"] == id {
			return cm, nil
		}
	}
	return nil, jiraerr.NotFound("comment %s not found on %s", id, key)
}

// GetComment returns one comment.
func (c *Client) GetComment(ctx context.Context, key, commentID string) (map[string]any, error) {
	cm, err := c.comment(key, commentID)
	if err != nil {
		return nil, err
	}
	return deepCopy(cm), nil
}

// AddComment appends a comment. Ids count up per issue.
func (c *Client) AddComment(ctx context.Context, key string, body any) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	now := c.now()
	cm := map[string]any{
		"id":      strconv.Itoa(len(c.st.comments[key]) + 1),
		"body":    copyValue(adf.Ensure(body)),
		"author":  c.user(currentUserID),
		"created": now,
		"updated": now,
	}
	c.st.comments[key] = append(c.st.comments[key], cm)
	return deepCopy(cm), nil
}

// UpdateComment replaces a comment body.
func (c *Client) UpdateComment(ctx context.Context, key, commentID string, body any) (map[string]any, error) {
	cm, err := c.comment(key, commentID)
	if err != nil {
		return nil, err
	}
	cm["body"] = copyValue(adf.Ensure(body))
	cm["updated"] = c.now()
	return deepCopy(cm), nil
}

// DeleteComment removes a comment. Deleting a missing comment is a no-op.
func (c *Client) DeleteComment(ctx context.Context, key, commentID string) error {
	if _, err := c.issue(key); err != nil {
		return err
	}
	c.st.comments[key] = slices.DeleteFunc(c.st.comments[key], func(cm map[string]any) bool {
		return cm["id"] == commentID
	})
	return nil
}

// GetWatchers lists the watchers of an issue.
func (c *Client) GetWatchers(ctx context.Context, key string) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	ids := c.st.watchers[key]
	watchers := make([]any, 0, len(ids))
	for _, id := range ids {
		watchers = append(watchers, c.user(id))
	}
	return map[string]any{
		"self":       c.BaseURL + "/rest/api/3/issue/" + key + "/watchers",
		"isWatching": slices.Contains(ids, currentUserID),
		"watchCount": len(ids),
		"watchers":   watchers,
	}, nil
}

// AddWatcher adds a watcher once.
func (c *Client) AddWatcher(ctx context.Context, key, accountID string) error {
	if _, err := c.issue(key); err != nil {
		return err
	}
	if !slices.Contains(c.st.watchers[key], accountID) {
		c.st.watchers[key] = append(c.st.watchers[key], accountID)
	}
	return nil
}

// RemoveWatcher removes a watcher.
func (c *Client) RemoveWatcher(ctx context.Context, key, accountID string) error {
	if _, err := c.issue(key); err != nil {
		return err
	}
	c.st.watchers[key] = slices.DeleteFunc(c.st.watchers[key], func(id string) bool { return id == accountID })
	return nil
}
