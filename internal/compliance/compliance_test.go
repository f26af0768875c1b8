package compliance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gi8lino/jiraas/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleClient = `package sample

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const (
	apiPath   = "/rest/api/3"
	deskPath  = "/rest/servicedeskapi"
	boardPath = agilePath + "/board"
	agilePath = "/rest/agile/1.0"
)

type Client struct{}

type SearchOptions struct {
	Fields []string
	Expand []string
}

func escape(s string) string { return url.PathEscape(s) }

func commentPath(key string) string { return apiPath + "/issue/" + escape(key) + "/comment" }

// GetIssue returns an issue.
func (c *Client) GetIssue(ctx context.Context, key string) (map[string]any, error) {
	return c.Get(ctx, apiPath+"/issue/"+escape(key), nil)
}

func (c *Client) Search(ctx context.Context, jql string, opts SearchOptions) error {
	q := url.Values{"jql": {jql}}
	q.Set("maxResults", "50")
	return c.call(ctx, http.MethodGet, apiPath+"/search/jql", q, nil, "search", nil)
}

func (c *Client) AddComment(ctx context.Context, key string, body any) error {
	return c.call(ctx, http.MethodPost, commentPath(key), nil, body, "add comment", nil)
}

func (c *Client) GetQueue(ctx context.Context, deskID, queueID string) error {
	path := "/servicedesk/" + escape(deskID) + "/queue/" + escape(queueID)
	return c.jsm(ctx, http.MethodGet, path, nil, nil, "get queue", nil)
}

func (c *Client) GetSprint(ctx context.Context, id int) error {
	return c.call(ctx, "get", fmt.Sprintf("%s/sprint/%d", agilePath, id), nil, nil, "get sprint", nil)
}

func (c *Client) GetBoards(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, boardPath, nil, nil, "get boards", nil)
}

func (c *Client) Touch(ctx context.Context, key string) error {
	return c.call(ctx, http.MethodPut, apiPath+"/issue/"+escape(key), nil, nil, "touch", nil)
}

func (c *Client) helper() {}

func (c *Client) Get(ctx context.Context, path string, q url.Values) (map[string]any, error) {
	return nil, nil
}

func (c *Client) call(ctx context.Context, method, path string, q url.Values, body any, op string, out any) error {
	return nil
}

func (c *Client) jsm(ctx context.Context, method, path string, q url.Values, body any, op string, out any) error {
	return c.call(ctx, method, deskPath+path, q, body, op, out)
}
`

const platformSpec = `{
  "paths": {
    "/rest/api/3/issue/{issueIdOrKey}": {
      "parameters": [{"name": "issueIdOrKey", "in": "path", "required": true}],
      "get": {"summary": "Get issue"},
      "put": {"summary": "Edit issue", "requestBody": {"required": true}}
    },
    "/rest/api/3/issue/bulk": {"post": {"summary": "Bulk create issue"}},
    "/rest/api/3/issue/{issueIdOrKey}/comment": {"post": {"summary": "Add comment", "requestBody": {"required": true}}},
    "/rest/api/3/search/jql": {
      "get": {
        "summary": "Search for issues using JQL enhanced search (GET)",
        "parameters": [
          {"name": "jql", "in": "query", "required": true},
          {"name": "nextPageToken", "in": "query"},
          {"name": "reconcileIssues", "in": "query", "required": true},
          {"$ref": "#/components/parameters/Expand"}
        ]
      }
    },
    "/rest/api/3/myself": {"get": {"summary": "Get current user"}}
  }
}`

const agileSpec = `{"paths": {"/rest/agile/1.0/sprint/{sprintId}": {"get": {"summary": "Get sprint", "deprecated": true}}}}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.go")
	testutils.MustWriteFile(t, path, sampleClient)
	return path
}

func mustSpec(t *testing.T, data string) *Spec {
	t.Helper()
	s, err := ParseSpec([]byte(data))
	require.NoError(t, err)
	return s
}

func byName(methods []Method) map[string]Method {
	out := map[string]Method{}
	for _, m := range methods {
		out[m.Name] = m
	}
	return out
}

func TestExtractMethods(t *testing.T) {
	t.Parallel()

	t.Run("sample client", func(t *testing.T) {
		t.Parallel()
		methods, err := ExtractMethods(writeSample(t))
		require.NoError(t, err)
		require.Len(t, methods, 7)
		m := byName(methods)

		assert.Equal(t, "GET", m["GetIssue"].HTTPMethod)
		assert.Equal(t, "/rest/api/3/issue/{key}", m["GetIssue"].Endpoint)
		assert.Equal(t, []string{"key"}, m["GetIssue"].Params)
		assert.Equal(t, "GetIssue returns an issue.", m["GetIssue"].Doc)
		assert.Equal(t, "client.go", m["GetIssue"].File)
		assert.Equal(t, "Issue Management", m["GetIssue"].Category)

		assert.Equal(t, "/rest/api/3/search/jql", m["Search"].Endpoint)
		assert.Equal(t, []string{"Fields", "Expand"}, m["Search"].OptionalParams)
		assert.Equal(t, []string{"jql", "maxResults"}, m["Search"].QueryParams)
		assert.Equal(t, "Search", m["Search"].Category)

		assert.Equal(t, "POST", m["AddComment"].HTTPMethod)
		assert.Equal(t, "/rest/api/3/issue/{key}/comment", m["AddComment"].Endpoint)
		assert.True(t, m["AddComment"].HasBody)
		assert.Equal(t, "Issue Comments", m["AddComment"].Category)

		assert.Equal(t, "/rest/servicedeskapi/servicedesk/{deskID}/queue/{queueID}", m["GetQueue"].Endpoint)
		assert.Equal(t, "JSM Queues", m["GetQueue"].Category)

		assert.Equal(t, "GET", m["GetSprint"].HTTPMethod)
		assert.Equal(t, "/rest/agile/1.0/sprint/{id}", m["GetSprint"].Endpoint)
		assert.Equal(t, "/rest/agile/1.0/board", m["GetBoards"].Endpoint)

		assert.Equal(t, "PUT", m["Touch"].HTTPMethod)
		assert.False(t, m["Touch"].HasBody)

		assert.NotContains(t, m, "Get")
		assert.NotContains(t, m, "helper")
		assert.Equal(t, "GetIssue() -> GET /rest/api/3/issue/{key}", m["GetIssue"].String())
	})

	t.Run("jira package", func(t *testing.T) {
		t.Parallel()
		methods, err := ExtractMethods(filepath.Join("..", "jira"))
		require.NoError(t, err)
		m := byName(methods)

		assert.Equal(t, "/rest/api/3/issue/{key}", m["GetIssue"].Endpoint)
		assert.Contains(t, m["GetIssue"].QueryParams, "fields")
		assert.Equal(t, "/rest/api/3/issue/{key}/comment", m["GetComments"].Endpoint)
		assert.Equal(t, "/rest/servicedeskapi/servicedesk/{serviceDeskID}/queue/{queueID}/issue", m["GetQueueIssues"].Endpoint)
		assert.Equal(t, "/rest/servicedeskapi/servicedesk", m["LookupServiceDeskByProjectKey"].Endpoint)
		assert.Equal(t, "POST", m["UploadFile"].HTTPMethod)
		assert.Equal(t, "/rest/api/3/issue/{key}/attachments", m["UploadFile"].Endpoint)
		assert.True(t, m["UploadFile"].HasBody)
		assert.NotContains(t, m, "Get")
		assert.NotContains(t, m, "CollectPages")
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()
		_, err := ExtractMethods(filepath.Join(t.TempDir(), "nope.go"))
		assert.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.go")
		testutils.MustWriteFile(t, path, "package bad\nfunc (")
		_, err := ExtractMethods(path)
		assert.Error(t, err)
	})
}

func TestCategorize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, endpoint, want string
	}{
		{"GetCustomers", "/rest/servicedeskapi/servicedesk/{id}/customer", "JSM Customers"},
		{"GetRequestComments", "/rest/servicedeskapi/request/{key}/comment", "JSM Comments"},
		{"CreateRequest", "/rest/servicedeskapi/request", "JSM Requests"},
		{"GetServiceDesks", "/rest/servicedeskapi/servicedesk", "JSM Service Desks"},
		{"GetAssets", "/rest/insight/1.0/object", "Assets/Insight"},
		{"GetBoardBacklog", "/rest/agile/1.0/board/{id}/backlog", "Agile Boards"},
		{"RankIssues", "/rest/agile/1.0/issue/rank", "Agile Ranking"},
		{"AddWorklog", "/rest/api/3/issue/{key}/worklog", "Time Tracking"},
		{"GetTransitions", "/rest/api/3/issue/{key}/transitions", "Issue Transitions"},
		{"CreateIssue", "/rest/api/3/issue", "Issue Management"},
		{"CreateFilter", "/rest/api/3/filter", "Filters"},
		{"ParseJQL", "/rest/api/3/jql/parse", "JQL"},
		{"GetProjectVersions", "/rest/api/3/project/{key}/versions", "Versions"},
		{"GetProject", "/rest/api/3/project/{key}", "Projects"},
		{"GetUserGroups", "/rest/api/3/user/groups", "User Groups"},
		{"GetIssueTypes", "/rest/api/3/issuetype", "Issue Types"},
		{"GetPriorities", "/rest/api/3/priority", "Priorities"},
		{"GetServerInfo", "/rest/api/3/serverInfo", "Server Info"},
		{"Ping", "", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Categorize(Method{Name: tt.name, Endpoint: tt.endpoint}))
		})
	}

	assert.Equal(t, APIJSM, APIOf("JSM Queues"))
	assert.Equal(t, APIAgile, APIOf("Agile Sprints"))
	assert.Equal(t, APIAssets, APIOf("Assets/Insight"))
	assert.Equal(t, APIPlatform, APIOf("Issue Management"))
}

func TestMatchPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		impl, spec string
		want       bool
	}{
		{"/rest/api/3/issue/{key}", "/rest/api/3/issue/{issueIdOrKey}", true},
		{"/rest/api/3/issue/DEMO-1", "/rest/api/3/issue/{issueIdOrKey}", true},
		{"/rest/api/3/issue/{key}/comment", "/rest/api/3/issue/{issueIdOrKey}", false},
		{"/rest/api/3/issue/bulk", "/rest/api/3/issue/{issueIdOrKey}", true},
		{"/rest/api/3/issue/{key}", "/rest/api/3/issue/bulk", false},
		{"/rest/api/3/search?jql=x", "/rest/api/3/search", true},
		{"/rest/api/3/search.json", "/rest/api/3/search", false},
		{"", "/rest/api/3/search", false},
	}
	for _, tt := range tests {
		t.Run(tt.impl+" "+tt.spec, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchPath(tt.impl, tt.spec))
		})
	}
}

func TestFindMatch(t *testing.T) {
	t.Parallel()

	spec := mustSpec(t, `{"paths": {
		"/rest/api/3/issue/{issueIdOrKey}": {"post": {"summary": "generic"}},
		"/rest/api/3/issue/bulk": {"post": {"summary": "bulk"}}
	}}`)

	path, op, ok := FindMatch(Method{Endpoint: "/rest/api/3/issue/bulk", HTTPMethod: "POST"}, spec)
	require.True(t, ok)
	assert.Equal(t, "/rest/api/3/issue/bulk", path)
	assert.Equal(t, "bulk", op.Summary)

	_, _, ok = FindMatch(Method{Endpoint: "/rest/api/3/issue/bulk", HTTPMethod: "GET"}, spec)
	assert.False(t, ok)
	_, _, ok = FindMatch(Method{HTTPMethod: "GET"}, spec)
	assert.False(t, ok)
	_, _, ok = FindMatch(Method{Endpoint: "/x", HTTPMethod: "GET"}, nil)
	assert.False(t, ok)
}

func TestParseSpec(t *testing.T) {
	t.Parallel()

	s := mustSpec(t, platformSpec)
	item := s.Paths["/rest/api/3/issue/{issueIdOrKey}"]
	assert.Len(t, item, 2)
	assert.NotContains(t, item, "parameters")
	assert.True(t, item["put"].RequestBody.Required)

	empty := mustSpec(t, `{}`)
	assert.NotNil(t, empty.Paths)

	_, err := ParseSpec([]byte(`{"paths": {"/x": {"get": "nope"}}}`))
	assert.Error(t, err)
}

func analyzeSample(t *testing.T) ([]*Category, map[string]*Spec) {
	t.Helper()
	methods, err := ExtractMethods(writeSample(t))
	require.NoError(t, err)
	specs := map[string]*Spec{
		APIPlatform: mustSpec(t, platformSpec),
		APIAgile:    mustSpec(t, agileSpec),
	}
	return Analyze(methods, specs), specs
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	cats, specs := analyzeSample(t)

	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Agile Boards", "Agile Sprints", "JSM Queues", "Issue Comments", "Issue Management", "Search"}, names)

	cat := func(name string) *Category {
		for _, c := range cats {
			if c.Name == name {
				return c
			}
		}
		t.Fatalf("category %s not found", name)
		return nil
	}

	t.Run("unmatched without spec path", func(t *testing.T) {
		t.Parallel()
		c := cat("Agile Boards")
		assert.Empty(t, c.Matched)
		require.Len(t, c.Unmatched, 1)
		assert.Equal(t, "GetBoards", c.Unmatched[0].Name)
	})

	t.Run("deprecated operation", func(t *testing.T) {
		t.Parallel()
		c := cat("Agile Sprints")
		require.Len(t, c.Matched, 1)
		require.Len(t, c.Findings, 1)
		assert.Equal(t, SeverityWarning, c.Findings[0].Severity)
		assert.Equal(t, "deprecated_endpoint", c.Findings[0].Type)
	})

	t.Run("no spec loaded", func(t *testing.T) {
		t.Parallel()
		c := cat("JSM Queues")
		assert.Equal(t, APIJSM, c.API)
		assert.Empty(t, c.Matched)
		assert.Empty(t, c.Unmatched)
	})

	t.Run("missing request body", func(t *testing.T) {
		t.Parallel()
		c := cat("Issue Management")
		require.Len(t, c.Matched, 2)
		assert.Equal(t, 1, c.CompliantCount())
		assert.InDelta(t, 50.0, c.CompliancePercentage(), 0.001)
		require.Len(t, c.Findings, 1)
		assert.Equal(t, "Touch", c.Findings[0].Method)
		assert.Equal(t, "missing_request_body", c.Findings[0].Type)
	})

	t.Run("missing required parameter", func(t *testing.T) {
		t.Parallel()
		c := cat("Search")
		require.Len(t, c.Findings, 1)
		f := c.Findings[0]
		assert.Equal(t, SeverityCritical, f.Severity)
		assert.Equal(t, "reconcileIssues", f.Expected)
		assert.Equal(t, "[CRITICAL] Search: Missing required parameter: reconcileIssues", f.String())
	})

	t.Run("compliant", func(t *testing.T) {
		t.Parallel()
		c := cat("Issue Comments")
		assert.Equal(t, 1, c.CompliantCount())
		assert.Empty(t, c.Findings)
	})

	t.Run("missing endpoints", func(t *testing.T) {
		t.Parallel()
		missing := Missing(cats, specs)
		assert.Equal(t, []string{
			"POST /rest/api/3/issue/bulk - Bulk create issue",
			"GET /rest/api/3/myself - Get current user",
		}, missing[APIPlatform])
		assert.NotContains(t, missing, APIAgile)
	})
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	cats, specs := analyzeSample(t)
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	r := BuildReport(cats, Missing(cats, specs), map[string]bool{APIPlatform: true, APIAgile: true}, now)

	require.Len(t, r.Summary, 3)
	assert.Equal(t, APISummary{Key: APIPlatform, Name: "Platform v3", Loaded: true, Categories: 3, Methods: 4, Matched: 4, Compliant: 2, Issues: 2}, r.Summary[0])
	assert.Equal(t, APISummary{Key: APIJSM, Name: "Service Management", Categories: 1, Methods: 1}, r.Summary[2])
	assert.Equal(t, 7, r.Totals().Methods)
	require.Len(t, r.Critical, 2)
	assert.Equal(t, "Touch", r.Critical[0].Method)

	text, err := r.Render()
	require.NoError(t, err)
	for _, want := range []string{
		"# JIRA REST API Compliance Report",
		"Generated: 2025-01-15 10:00:00",
		"| Platform v3 | ✅ Loaded | 3 | 4 | 4 | 2 | 2 |",
		"| Agile | ✅ Loaded | 2 | 2 | 1 | 0 | 1 |",
		"| Service Management | ❌ Not Available | 1 | 1 | 0 | 0 | 0 |",
		"## Critical Issues (Priority Fix)",
		"1. **Touch**: Spec requires request body but method doesn't send one",
		"### Agile Boards ❓",
		"### Issue Comments ✅",
		"### Issue Management ⚠️",
		"- `GetBoards()` - GET /rest/agile/1.0/board",
		"| `AddComment` | `/rest/api/3/issue/{key}/comment` | POST | ✅ | - |",
		"- 🔴 **missing_required_param**: Missing required parameter: reconcileIssues",
		"- 🟡 **deprecated_endpoint**: Endpoint is deprecated",
		"### Platform v3",
		"- `POST /rest/api/3/issue/bulk - Bulk create issue`",
		"1. Fix 2 critical issues (missing required parameters)",
	} {
		assert.Contains(t, text, want)
	}
}

func TestBuildReportLimits(t *testing.T) {
	t.Parallel()

	c := &Category{Name: "Issue Management", API: APIPlatform}
	for range 25 {
		c.Findings = append(c.Findings, Finding{Method: "M", Severity: SeverityCritical, Type: "t", Description: "d"})
	}
	c.Methods = []Method{{Name: "M"}}
	var eps []string
	for i := range 35 {
		eps = append(eps, "GET /p"+string(rune('a'+i%26)))
	}

	r := BuildReport([]*Category{c}, map[string][]string{APIPlatform: eps}, nil, time.Now())
	assert.Len(t, r.CriticalShown, 20)

	text, err := r.Render()
	require.NoError(t, err)
	assert.Contains(t, text, "... and 5 more critical issues")
	assert.Contains(t, text, "- ... and 15 more issues")
	assert.Contains(t, text, "... and 5 more endpoints")
}

func TestLoader(t *testing.T) {
	t.Parallel()

	t.Run("downloads and caches", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Write([]byte(agileSpec)) // nolint:errcheck
		}))
		t.Cleanup(srv.Close)

		dir := t.TempDir()
		l := NewLoader(dir, time.Second, nil)
		api := API{Key: APIAgile, Name: "Agile", URL: srv.URL}

		s, err := l.Load(t.Context(), api, false)
		require.NoError(t, err)
		assert.Contains(t, s.Paths, "/rest/agile/1.0/sprint/{sprintId}")

		data, err := os.ReadFile(filepath.Join(dir, "agile.json"))
		require.NoError(t, err)
		assert.JSONEq(t, agileSpec, string(data))

		cached, err := l.Load(t.Context(), API{Key: APIAgile, Name: "Agile"}, true)
		require.NoError(t, err)
		assert.Equal(t, s, cached)
	})

	t.Run("retries server errors", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"paths": {}}`)) // nolint:errcheck
		}))
		t.Cleanup(srv.Close)

		l := NewLoader("", time.Second, nil)
		l.RetryWait = time.Millisecond
		_, err := l.Load(t.Context(), API{Key: APIJSM, URL: srv.URL}, false)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "gone", http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		l := NewLoader("", time.Second, nil)
		l.RetryWait = time.Millisecond
		_, err := l.Load(t.Context(), API{Key: APIJSM, URL: srv.URL}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("offline without cache", func(t *testing.T) {
		t.Parallel()
		l := NewLoader(t.TempDir(), time.Second, nil)
		assert.Empty(t, l.LoadAll(t.Context(), true))
	})
}

type staticSpecs map[string]*Spec

func (s staticSpecs) LoadAll(context.Context, bool) map[string]*Spec { return s }

func TestReview(t *testing.T) {
	t.Parallel()

	src := staticSpecs{APIPlatform: mustSpec(t, platformSpec)}
	now := func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }

	t.Run("writes report", func(t *testing.T) {
		t.Parallel()
		out := filepath.Join(t.TempDir(), "reports", "api_compliance_report.md")
		r, err := Review(t.Context(), src, Options{ClientPath: writeSample(t), OutputPath: out, Now: now})
		require.NoError(t, err)
		assert.Equal(t, 7, r.Totals().Methods)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "| Agile | ❌ Not Available | 2 | 2 | 0 | 0 | 0 |")
	})

	t.Run("missing client source", func(t *testing.T) {
		t.Parallel()
		_, err := Review(t.Context(), src, Options{
			ClientPath: filepath.Join(t.TempDir(), "missing.go"),
			OutputPath: filepath.Join(t.TempDir(), "out.md"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "client source not found")
	})
}
