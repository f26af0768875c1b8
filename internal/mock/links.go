package mock

import (
	"context"
	"strconv"
	"strings"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// GetLinkTypes lists the issue link types.
func (c *Client) GetLinkTypes(ctx context.Context) ([]map[string]any, error) {
	return copyList(c.st.linkTypes), nil
}

// CreateLink links two issues. The link shows up in the issuelinks field
// of both.
func (c *Client) CreateLink(ctx context.Context, linkType, inwardKey, outwardKey string) error {
	var lt map[string]any
	for _, t := range c.st.linkTypes {
		if name, _ := t["name"].(string); strings.EqualFold(name, linkType) {
			lt = t
			break
		}
	}
	if lt == nil {
		return jiraerr.Validation("unknown link type %q", linkType)
	}
	inward, err := c.issue(inwardKey)
	if err != nil {
		return err
	}
	outward, err := c.issue(outwardKey)
	if err != nil {
		return err
	}

	id := strconv.Itoa(c.st.nextLinkID)
	c.st.nextLinkID++
	ref := func(is map[string]any) map[string]any {
		return map[string]any{
			"id":  is["id"],
			"key": is["key"],
			"fields": map[string]any{
				"summary": fieldsOf(is)["summary"],
				"status":  copyValue(fieldsOf(is)["status"]),
			},
		}
	}
	appendLink(inward, map[string]any{"id": id, "type": deepCopy(lt), "outwardIssue": ref(outward)})
	appendLink(outward, map[string]any{"id": id, "type": deepCopy(lt), "inwardIssue": ref(inward)})
	return nil
}

func appendLink(is, link map[string]any) {
	f := fieldsOf(is)
	links, _ := f["issuelinks"].([]any)
	f["issuelinks"] = append(links, link)
}

// DeleteLink removes a link from every issue holding it.
func (c *Client) DeleteLink(ctx context.Context, linkID string) error {
	found := false
	for _, is := range c.st.issues {
		f := fieldsOf(is)
		links, _ := f["issuelinks"].([]any)
		kept := make([]any, 0, len(links))
		for _, l := range links {
			if m, ok := l.(map[string]any); ok && m["id"] == linkID {
				found = true
				continue
			}
			kept = append(kept, l)
		}
		f["issuelinks"] = kept
	}
	if !found {
		return jiraerr.NotFound("issue link %s not found", linkID)
	}
	return nil
}

// GetRemoteLinks lists the web links of an issue.
func (c *Client) GetRemoteLinks(ctx context.Context, key string) ([]map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	return copyList(c.st.remoteLinks[key]), nil
}

// CreateRemoteLink adds a web link to an issue.
func (c *Client) CreateRemoteLink(ctx context.Context, key, linkURL, title string) (map[string]any, error) {
	if _, err := c.issue(key); err != nil {
		return nil, err
	}
	id := c.st.nextLinkID
	c.st.nextLinkID++
	self := c.BaseURL + "/rest/api/3/issue/" + key + "/remotelink/" + strconv.Itoa(id)
	c.st.remoteLinks[key] = append(c.st.remoteLinks[key], map[string]any{
		"id":     id,
		"self":   self,
		"object": map[string]any{"url": linkURL, "title": title},
	})
	return map[string]any{"id": id, "self": self}, nil
}
