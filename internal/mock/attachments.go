package mock

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/validators"
)

// UploadFile reads a local file and attaches it to an issue.
func (c *Client) UploadFile(ctx context.Context, key, path string) ([]map[string]any, error) {
	path, err := validators.FilePath(path, true)
	if err != nil {
		return nil, err
	}
	is, err := c.issue(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindValidation, err, "read %s", path)
	}

	id := strconv.Itoa(c.st.nextUploadID)
	c.st.nextUploadID++
	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	content := c.BaseURL + "/rest/api/3/attachment/content/" + id
	att := map[string]any{
		"id":       id,
		"self":     c.BaseURL + "/rest/api/3/attachment/" + id,
		"filename": name,
		"size":     len(data),
		"mimeType": mimeType,
		"content":  content,
		"author":   c.user(currentUserID),
		"created":  c.now(),
	}
	c.st.attachments[content] = data

	f := fieldsOf(is)
	list, _ := f["attachment"].([]any)
	f["attachment"] = append(list, att)
	return []map[string]any{deepCopy(att)}, nil
}

// DownloadFile writes the content of an uploaded attachment to dest.
// contentURL may be absolute or relative to the site.
func (c *Client) DownloadFile(ctx context.Context, contentURL, dest string) error {
	data, ok := c.st.attachments[contentURL]
	if !ok {
		data, ok = c.st.attachments[c.BaseURL+contentURL]
	}
	if !ok {
		return jiraerr.NotFound("attachment %s not found", contentURL)
	}
	if dir := filepath.Dir(dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return jiraerr.Wrap(jiraerr.KindValidation, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return jiraerr.Wrap(jiraerr.KindValidation, err, "write %s", dest)
	}
	return nil
}
