package jira

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// GetLinkTypes lists the issue link types.
func (c *Client) GetLinkTypes(ctx context.Context) ([]map[string]any, error) {
	var out struct {
		IssueLinkTypes []map[string]any `json:"issueLinkTypes"`
	}
	if err := c.call(ctx, http.MethodGet, apiPath+"/issueLinkType", nil, nil, "get link types", &out); err != nil {
		return nil, err
	}
	return out.IssueLinkTypes, nil
}

// CreateLink links two issues with a named link type.
func (c *Client) CreateLink(ctx context.Context, linkType, inwardKey, outwardKey string) error {
	body := map[string]any{
		"type":         map[string]any{"name": linkType},
		"inwardIssue":  map[string]any{"key": inwardKey},
		"outwardIssue": map[string]any{"key": outwardKey},
	}
	return c.call(ctx, http.MethodPost, apiPath+"/issueLink", nil, body, label("link %s to %s", inwardKey, outwardKey), nil)
}

// DeleteLink removes an issue link.
func (c *Client) DeleteLink(ctx context.Context, linkID string) error {
	return c.call(ctx, http.MethodDelete, apiPath+"/issueLink/"+escape(linkID), nil, nil, label("delete link %s", linkID), nil)
}

// GetRemoteLinks lists web links of an issue.
func (c *Client) GetRemoteLinks(ctx context.Context, key string) ([]map[string]any, error) {
	var out []map[string]any
	err := c.call(ctx, http.MethodGet, apiPath+"/issue/"+escape(key)+"/remotelink", nil, nil, label("get remote links %s", key), &out)
	return out, err
}

// CreateRemoteLink adds a web link to an issue. Each link gets a fresh
// global id so repeated calls do not overwrite each other.
func (c *Client) CreateRemoteLink(ctx context.Context, key, linkURL, title string) (map[string]any, error) {
	body := map[string]any{
		"globalId": "jiraas:" + uuid.NewString(),
		"object":   map[string]any{"url": linkURL, "title": title},
	}
	var out map[string]any
	err := c.call(ctx, http.MethodPost, apiPath+"/issue/"+escape(key)+"/remotelink", nil, body, label("create remote link %s", key), &out)
	return out, err
}
