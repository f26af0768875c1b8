package jira

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gi8lino/jiraas/internal/adf"
)

func commentPath(key string) string {
	return apiPath + "/issue/" + escape(key) + "/comment"
}

// GetComments returns a page of comments on an issue.
func (c *Client) GetComments(ctx context.Context, key string, startAt, maxResults int) (map[string]any, error) {
	q := page(startAt, maxResults)
	q.Set("orderBy", "-created")
	var out map[string]any
	err := c.call(ctx, http.MethodGet, commentPath(key), q, nil, label("get comments %s", key), &out)
	return out, err
}

// GetComment returns one comment.
func (c *Client) GetComment(ctx context.Context, key, commentID string) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, commentPath(key)+"/"+escape(commentID), nil, nil, label("get comment %s/%s", key, commentID), &out)
	return out, err
}

// AddComment adds a comment. body may be plain text or an ADF document.
func (c *Client) AddComment(ctx context.Context, key string, body any) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodPost, commentPath(key), nil, map[string]any{"body": adf.Ensure(body)}, label("add comment %s", key), &out)
	return out, err
}

// UpdateComment replaces a comment body.
func (c *Client) UpdateComment(ctx context.Context, key, commentID string, body any) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodPut, commentPath(key)+"/"+escape(commentID), nil, map[string]any{"body": adf.Ensure(body)}, label("update comment %s/%s", key, commentID), &out)
	return out, err
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, key, commentID string) error {
	return c.call(ctx, http.MethodDelete, commentPath(key)+"/"+escape(commentID), nil, nil, label("delete comment %s/%s", key, commentID), nil)
}

// GetWatchers returns the watchers of an issue.
func (c *Client) GetWatchers(ctx context.Context, key string) (map[string]any, error) {
	var out map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/issue/"+escape(key)+"/watchers", nil, nil, label("get watchers %s", key), &out)
	return out, err
}

// AddWatcher adds a user to the watchers. The body is the bare account id.
func (c *Client) AddWatcher(ctx context.Context, key, accountID string) error {
	return c.call(ctx, http.MethodPost, apiPath+"/issue/"+escape(key)+"/watchers", nil, accountID, label("add watcher %s", key), nil)
}

// RemoveWatcher removes a user from the watchers.
func (c *Client) RemoveWatcher(ctx context.Context, key, accountID string) error {
	return c.call(ctx, http.MethodDelete, apiPath+"/issue/"+escape(key)+"/watchers", url.Values{"accountId": {accountID}}, nil, label("remove watcher %s", key), nil)
}
