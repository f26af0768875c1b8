package jira

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gi8lino/jiraas/internal/fetcher"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/validators"
)

// UploadFile attaches a local file to an issue.
func (c *Client) UploadFile(ctx context.Context, key, path string) ([]map[string]any, error) {
	path, err := validators.FilePath(path, true)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindValidation, err, "open %s", path)
	}
	defer f.Close() // nolint:errcheck

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindValidation, err, "build upload")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindValidation, err, "read %s", path)
	}
	if err := mw.Close(); err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindValidation, err, "build upload")
	}

	spec := fetcher.RequestSpec{
		Method: http.MethodPost,
		Path:   apiPath + "/issue/" + escape(key) + "/attachments",
		Header: http.Header{
			"Content-Type":      {mw.FormDataContentType()},
			"X-Atlassian-Token": {"no-check"},
		},
		Body: buf.Bytes(),
	}
	var out []map[string]any
	err = c.do(ctx, spec, label("upload %s to %s", filepath.Base(path), key), &out)
	return out, err
}

// DownloadFile saves attachment content to dest. contentURL may be absolute
// or relative to the site.
func (c *Client) DownloadFile(ctx context.Context, contentURL, dest string) error {
	spec := fetcher.RequestSpec{Path: contentURL, Header: http.Header{"Accept": {"*/*"}}}
	u, _, err := spec.Normalize(c.BaseURL)
	if err != nil {
		return jiraerr.Wrap(jiraerr.KindValidation, err, "invalid attachment URL")
	}
	data, err := c.execute(ctx, spec, u, label("download %s", filepath.Base(u.Path)))
	if err != nil {
		return err
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
