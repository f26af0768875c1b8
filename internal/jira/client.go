package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gi8lino/jiraas/internal/cache"
	"github.com/gi8lino/jiraas/internal/fetcher"
	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/logging"
	"github.com/gi8lino/jiraas/internal/utils"
	"golang.org/x/time/rate"
)

// Defaults applied by New.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 2 * time.Second

	maxRetryAfter = time.Minute
)

// API path prefixes.
const (
	apiPath   = "/rest/api/3"
	agilePath = "/rest/agile/1.0"
	deskPath  = "/rest/servicedeskapi"
	devPath   = "/rest/dev-status/latest"
	userAgent = "jiraas"

	maxResponseBody = 64 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Email         string
	APIToken      string
	BearerToken   string        // used instead of Email/APIToken when set
	Timeout       time.Duration // per request, default 30s
	MaxRetries    int           // default 3, negative disables retries
	RetryBackoff  time.Duration // initial backoff, doubled per attempt, default 2s
	RateLimit     float64       // requests per second, 0 is unlimited
	SkipTLSVerify bool
	Logger        *slog.Logger
	Cache         *cache.Cache // optional GET cache for reference data
	HTTPClient    *http.Client // overrides the pooled default
}

// Client talks to the Jira Cloud REST APIs.
type Client struct {
	BaseURL      *url.URL
	Email        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	http    *http.Client
	auth    AuthFunc
	limiter *rate.Limiter
	cache   *cache.Cache
	logger  *slog.Logger
}

var _ Service = (*Client)(nil)

// New validates opts and returns a ready client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, jiraerr.Validation("site URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Host == "" {
		return nil, jiraerr.Validation("invalid site URL %q", raw)
	}

	auth, method, err := ResolveAuth(opts.BearerToken, opts.Email, opts.APIToken)
	if err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindAuthentication, err, "no credentials configured")
	}

	c := &Client{
		BaseURL:      base,
		Email:        opts.Email,
		Timeout:      opts.Timeout,
		MaxRetries:   opts.MaxRetries,
		RetryBackoff: opts.RetryBackoff,
		http:         opts.HTTPClient,
		auth:         auth,
		cache:        opts.Cache,
		logger:       opts.Logger,
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.http == nil {
		c.http = newHTTPClient(c.Timeout, opts.SkipTLSVerify)
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}

	c.logger.Debug("jira client configured",
		"site", base.String(),
		"auth", method,
		"authorization", utils.ObfuscateHeader(utils.GetAuthorizationHeader(auth)),
		"max_retries", c.MaxRetries,
	)
	return c, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Get performs a GET request. Array responses are returned under "values".
func (c *Client) Get(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	var out any
	if err := c.do(ctx, fetcher.RequestSpec{Path: path, Query: query}, "GET "+path, &out); err != nil {
		return nil, err
	}
	return asMap(out), nil
}

// Post sends body as JSON. Empty responses yield an empty map.
func (c *Client) Post(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.send(ctx, http.MethodPost, path, body)
}

// Put sends body as JSON. Empty responses yield an empty map.
func (c *Client) Put(ctx context.Context, path string, body any) (map[string]any, error) {
	return c.send(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	var out any
	spec := fetcher.RequestSpec{Method: http.MethodDelete, Path: path, Query: query}
	if err := c.do(ctx, spec, "DELETE "+path, &out); err != nil {
		return nil, err
	}
	return asMap(out), nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var out any
	if err := c.call(ctx, method, path, nil, body, method+" "+path, &out); err != nil {
		return nil, err
	}
	return asMap(out), nil
}

// call marshals body and runs the request, decoding the response into out.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any, op string, out any) error {
	spec, err := jsonSpec(method, path, query, body)
	if err != nil {
		return err
	}
	return c.do(ctx, spec, op, out)
}

// jsonSpec builds a request with a JSON encoded body.
func jsonSpec(method, path string, query url.Values, body any) (fetcher.RequestSpec, error) {
	spec := fetcher.RequestSpec{Method: method, Path: path, Query: query}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return spec, jiraerr.Wrap(jiraerr.KindValidation, err, "encode request body")
		}
		spec.Body = data
	}
	return spec, nil
}

// do executes spec with caching, rate limiting and retries.
func (c *Client) do(ctx context.Context, spec fetcher.RequestSpec, op string, out any) error {
	u, key, err := spec.Normalize(c.BaseURL)
	if err != nil {
		return jiraerr.Wrap(jiraerr.KindValidation, err, "invalid request path %q", spec.Path)
	}

	category, cacheable := cacheCategory(spec.Path)
	useCache := c.cache != nil && cacheable && spec.Cacheable() && !fetcher.IsNoCache(ctx)
	if useCache {
		if data, ok := c.cache.Get(ctx, key); ok {
			c.logger.Debug("cache hit", "path", spec.Path)
			return decode(data, out)
		}
	}

	data, err := c.execute(ctx, spec, u, op)
	if err != nil {
		return err
	}

	switch {
	case useCache:
		if err := c.cache.Set(ctx, key, category, data, 0); err != nil {
			c.logger.Warn("cache write failed", "path", spec.Path, "error", err)
		}
	case c.cache != nil && cacheable && !spec.Cacheable():
		// writes make cached reference data stale
		if err := c.cache.InvalidateCategory(ctx, category); err != nil {
			c.logger.Warn("cache invalidation failed", "category", category, "error", err)
		}
	}
	return decode(data, out)
}

// execute sends the request, retrying transient failures with exponential
// backoff bounded by MaxRetries.
func (c *Client) execute(ctx context.Context, spec fetcher.RequestSpec, u *url.URL, op string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.RetryBackoff
	bo.Multiplier = 2
	bo.MaxInterval = 30 * c.RetryBackoff
	bo.MaxElapsedTime = 0

	var (
		data    []byte
		attempt int
	)
	operation := func() error {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(jiraerr.Wrap(jiraerr.KindConnection, err, "rate limiter: %v", err))
			}
		}

		body, err := c.roundTrip(ctx, spec, u, op)
		if err == nil {
			data = body
			return nil
		}
		if !jiraerr.Retryable(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		waitRetryAfter(ctx, err)
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("retrying jira request",
			"operation", op,
			"attempt", attempt,
			"wait", wait,
			"error", jiraerr.Sanitize(err.Error()),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.MaxRetries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		var je *jiraerr.Error
		if !errors.As(err, &je) {
			err = jiraerr.Wrap(jiraerr.KindConnection, err, "%s: %v", op, err)
		}
		c.logger.Debug("jira request failed", "operation", op, "error", jiraerr.Sanitize(err.Error()))
		return nil, err
	}
	return data, nil
}

// roundTrip performs a single HTTP exchange.
func (c *Client) roundTrip(ctx context.Context, spec fetcher.RequestSpec, u *url.URL, op string) ([]byte, error) {
	method := strings.ToUpper(spec.Method)
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(spec.Body))
	if err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindValidation, err, "create request")
	}
	c.auth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range spec.Header {
		req.Header[k] = v
	}

	c.logger.Debug("jira request", "method", method, "path", u.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err, u, op)
	}
	defer resp.Body.Close() // nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, jiraerr.Wrap(jiraerr.KindConnection, err, "read response from %s", u.Host)
	}

	if resp.StatusCode >= 400 {
		e := jiraerr.FromResponse(resp.StatusCode, body, op)
		if strings.HasPrefix(u.Path, c.BaseURL.Path+deskPath) {
			e.Domain = jiraerr.DomainServiceManagement
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			e.RetryAfter, _ = strconv.Atoi(resp.Header.Get("Retry-After"))
		}
		return nil, e
	}
	return body, nil
}

// transportError classifies a failed exchange.
func transportError(err error, u *url.URL, op string) error {
	var e *jiraerr.Error
	var ne interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.Canceled):
		e = jiraerr.Wrap(jiraerr.KindConnection, err, "request canceled")
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		e = jiraerr.Wrap(jiraerr.KindConnection, err, "request to %s timed out", u.Host)
	default:
		e = jiraerr.Wrap(jiraerr.KindConnection, err, "cannot connect to %s", u.Host)
	}
	e.Operation = op
	return e
}

// waitRetryAfter honors a Retry-After hint before the backoff wait.
func waitRetryAfter(ctx context.Context, err error) {
	var e *jiraerr.Error
	if !errors.As(err, &e) || e.RetryAfter <= 0 {
		return
	}
	t := time.NewTimer(min(time.Duration(e.RetryAfter)*time.Second, maxRetryAfter))
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// decode unmarshals data into out. Empty bodies leave out untouched.
func decode(data []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return jiraerr.Wrap(jiraerr.KindServer, err, "decode response: %v", err)
	}
	return nil
}

// asMap turns a decoded response into a map.
func asMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		return map[string]any{"values": t}
	default:
		return map[string]any{}
	}
}

// cacheCategories maps reference data endpoints to cache categories.
var cacheCategories = []struct {
	prefix   string
	category cache.Category
}{
	{apiPath + "/field", cache.CategoryFields},
	{apiPath + "/priority", cache.CategoryPriorities},
	{apiPath + "/issuetype", cache.CategoryIssueTypes},
	{apiPath + "/status", cache.CategoryStatuses},
	{apiPath + "/issueLinkType", cache.CategoryLinkTypes},
	{apiPath + "/project", cache.CategoryProjects},
}

func cacheCategory(path string) (cache.Category, bool) {
	p, _, _ := strings.Cut(path, "?")
	for _, cc := range cacheCategories {
		if p == cc.prefix || strings.HasPrefix(p, cc.prefix+"/") {
			return cc.category, true
		}
	}
	return "", false
}

// escape escapes a single path segment.
func escape(s string) string {
	return url.PathEscape(s)
}

// label formats an operation label for errors.
func label(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
