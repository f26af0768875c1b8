package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// API names one published OpenAPI description.
type API struct {
	Key    string
	Name   string
	URL    string
	Prefix string
}

// APIs are the descriptions the client is reviewed against.
var APIs = []API{
	{Key: APIPlatform, Name: "Platform v3", URL: "https://developer.atlassian.com/cloud/jira/platform/swagger-v3.v3.json", Prefix: "/rest/api/3/"},
	{Key: APIAgile, Name: "Agile", URL: "https://developer.atlassian.com/cloud/jira/software/swagger.v3.json", Prefix: "/rest/agile/1.0/"},
	{Key: APIJSM, Name: "Service Management", URL: "https://developer.atlassian.com/cloud/jira/service-desk/swagger.v3.json", Prefix: "/rest/servicedeskapi/"},
}

// APIName returns the display name of an API key.
func APIName(key string) string {
	for _, a := range APIs {
		if a.Key == key {
			return a.Name
		}
	}
	if key == APIAssets {
		return "Assets/Insight"
	}
	return key
}

// operationVerbs are the path item keys treated as operations.
var operationVerbs = []string{"get", "post", "put", "delete", "patch"}

// Spec is the part of an OpenAPI document the review needs.
type Spec struct {
	Paths map[string]PathItem `json:"paths"`
}

// PathItem maps lower-case verbs to operations.
type PathItem map[string]Operation

// UnmarshalJSON keeps operation entries and drops shared keys such as
// "parameters" and "summary".
func (p *PathItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := PathItem{}
	for _, verb := range operationVerbs {
		msg, ok := raw[verb]
		if !ok {
			continue
		}
		var op Operation
		if err := json.Unmarshal(msg, &op); err != nil {
			return fmt.Errorf("%s operation: %w", verb, err)
		}
		out[verb] = op
	}
	*p = out
	return nil
}

// Operation is one verb on one path.
type Operation struct {
	Summary     string       `json:"summary"`
	Deprecated  bool         `json:"deprecated"`
	Parameters  []Parameter  `json:"parameters"`
	RequestBody *RequestBody `json:"requestBody"`
}

// Parameter is a declared operation parameter. Referenced parameters have
// no name and are ignored.
type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
}

// RequestBody tells whether an operation needs a body.
type RequestBody struct {
	Required bool `json:"required"`
}

// ParseSpec decodes an OpenAPI JSON document.
func ParseSpec(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode openapi: %w", err)
	}
	if s.Paths == nil {
		s.Paths = map[string]PathItem{}
	}
	return &s, nil
}

// Loader fetches OpenAPI documents and keeps a copy in Dir.
type Loader struct {
	Client     *http.Client
	Dir        string // cache directory, empty disables caching
	MaxRetries uint64
	RetryWait  time.Duration
	Logger     *slog.Logger
}

// NewLoader returns a loader caching documents under dir.
func NewLoader(dir string, timeout time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		Client:     &http.Client{Timeout: timeout},
		Dir:        dir,
		MaxRetries: 3,
		RetryWait:  500 * time.Millisecond,
		Logger:     logger,
	}
}

// LoadAll loads every API. A document that cannot be loaded is logged and
// left out of the result.
func (l *Loader) LoadAll(ctx context.Context, offline bool) map[string]*Spec {
	specs := map[string]*Spec{}
	for _, api := range APIs {
		s, err := l.Load(ctx, api, offline)
		if err != nil {
			l.Logger.Warn("openapi description unavailable", "api", api.Name, "error", err)
			continue
		}
		specs[api.Key] = s
	}
	return specs
}

// Load returns the document of api. Offline it only reads the cached copy.
func (l *Loader) Load(ctx context.Context, api API, offline bool) (*Spec, error) {
	if offline {
		data, err := os.ReadFile(l.cachePath(api))
		if err != nil {
			return nil, fmt.Errorf("read cached %s: %w", api.Name, err)
		}
		return ParseSpec(data)
	}

	data, err := l.download(ctx, api.URL)
	if err != nil {
		return nil, err
	}
	spec, err := ParseSpec(data)
	if err != nil {
		return nil, err
	}
	if l.Dir != "" {
		if err := l.store(api, data); err != nil {
			l.Logger.Warn("caching openapi description failed", "api", api.Name, "error", err)
		}
	}
	return spec, nil
}

func (l *Loader) cachePath(api API) string {
	return filepath.Join(l.Dir, api.Key+".json")
}

func (l *Loader) store(api API, data []byte) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(l.cachePath(api), data, 0o644)
}

// download fetches url, retrying transport errors and 5xx responses.
func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	l.Logger.Info("downloading openapi description", "url", url)

	var data []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := l.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close() // nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("GET %s: %s", url, resp.Status)
		case resp.StatusCode >= http.StatusBadRequest:
			return backoff.Permanent(fmt.Errorf("GET %s: %s: %s", url, resp.Status, strings.TrimSpace(string(body))))
		}
		data = body
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = l.RetryWait
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, l.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return nil, perm.Err
		}
		return nil, err
	}
	return data, nil
}
