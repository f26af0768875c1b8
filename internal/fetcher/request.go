package fetcher

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gi8lino/jiraas/internal/hash"
)

// RequestSpec describes one REST call before it is sent.
type RequestSpec struct {
	Path   string      // relative to the site URL, e.g. "/rest/api/3/issue/DEMO-1"
	Method string      // defaults to GET
	Query  url.Values  // merged into Path's own query
	Header http.Header // extra request headers, not part of the cache key
	Body   []byte
}

// Normalize resolves the path against base, merges the query in sorted order
// and returns the absolute URL together with a stable cache key.
func (r *RequestSpec) Normalize(base *url.URL) (u *url.URL, key string, err error) {
	method := canonicalMethod(r.Method)

	u, err = resolveURL(base, r.Path)
	if err != nil {
		return nil, "", err
	}
	mergeQuery(u, r.Query)

	return u, hash.Key(method, u.String(), string(r.Body)), nil
}

// Cacheable reports whether responses to this request may be cached.
func (r *RequestSpec) Cacheable() bool {
	return canonicalMethod(r.Method) == http.MethodGet
}

type contextKey string

const noCacheKey contextKey = "nocache"

// WithNoCache returns a context that bypasses the response cache.
func WithNoCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey, true)
}

// IsNoCache reports whether cache should be bypassed.
func IsNoCache(ctx context.Context) bool {
	v, _ := ctx.Value(noCacheKey).(bool)
	return v
}

// canonicalMethod returns an upper-cased HTTP method or GET if empty.
func canonicalMethod(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return http.MethodGet
	}
	return strings.ToUpper(m)
}

// resolveURL appends the path to base. Absolute URLs (attachment content
// links) are returned unchanged.
func resolveURL(base *url.URL, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.IsAbs() || base == nil {
		return u, nil
	}
	out := *base
	out.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimLeft(u.Path, "/")
	out.RawPath = ""
	out.RawQuery = u.RawQuery
	return &out, nil
}

// mergeQuery adds q to u in sorted key order. Empty keys and values are
// skipped to avoid "?k=" entries.
func mergeQuery(u *url.URL, q url.Values) {
	if u == nil || len(q) == 0 {
		return
	}
	merged := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		if k != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		for _, v := range q[k] {
			if v != "" {
				merged.Add(k, v)
			}
		}
	}
	u.RawQuery = merged.Encode()
}
