package jiratest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gi8lino/jiraas/internal/jira"
	"github.com/gi8lino/jiraas/internal/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortWait = 50 * time.Millisecond

// recorder collects assertion failures instead of failing the test.
type recorder struct{ msgs []string }

func (r *recorder) Errorf(format string, args ...any) {
	r.msgs = append(r.msgs, fmt.Sprintf(format, args...))
}

func (r *recorder) String() string { return strings.Join(r.msgs, "\n") }

// infoService answers serverInfo requests and delegates everything else.
type infoService struct {
	jira.Service
	responses map[string]map[string]any
}

func (s infoService) Get(ctx context.Context, path string, _ url.Values) (map[string]any, error) {
	if r, ok := s.responses[path]; ok {
		return r, nil
	}
	return nil, errors.New("not available")
}

func TestIssueBuilder(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		f := NewIssueBuilder(nil, "TEST").Fields()
		assert.Equal(t, map[string]any{"key": "TEST"}, f["project"])
		assert.Equal(t, map[string]any{"name": "Task"}, f["issuetype"])
		assert.Equal(t, []string{"test", "automated"}, f["labels"])
		assert.Contains(t, f["summary"], "[Test] Task issue_")
	})

	t.Run("labels replace and add", func(t *testing.T) {
		t.Parallel()
		f := NewIssueBuilder(nil, "TEST").WithLabels("custom", "labels").Fields()
		assert.Equal(t, []string{"custom", "labels"}, f["labels"])

		f = NewIssueBuilder(nil, "TEST").AddLabels("extra", "test").Fields()
		assert.Equal(t, []string{"test", "automated", "extra"}, f["labels"])
	})

	t.Run("build against mock", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := mock.New(mock.Options{})
		created, err := NewIssueBuilder(svc, "DEMO").
			WithSummary("Built issue").
			WithType("Bug").
			WithPriority("High").
			WithDescription("steps to reproduce").
			WithAssignee("def456").
			WithField("customfield_10016", 3).
			LinkTo("DEMO-84", "Relates").
			Build(ctx)
		require.NoError(t, err)

		is, err := svc.GetIssue(ctx, created["key"].(string), jira.GetIssueOptions{})
		require.NoError(t, err)
		AssertIssueHasField(t, is, "summary", "Built issue")
		AssertIssueHasField(t, is, "issuetype", "Bug")
		AssertIssueHasField(t, is, "priority", "High")
		AssertIssueHasField(t, is, "assignee", "Jane Manager")
		AssertIssueHasField(t, is, "customfield_10016", 3)
		assert.Equal(t, "doc", is["fields"].(map[string]any)["description"].(map[string]any)["type"])
		assert.Len(t, is["fields"].(map[string]any)["issuelinks"], 1)
	})

	t.Run("build reports create errors", func(t *testing.T) {
		t.Parallel()
		_, err := NewIssueBuilder(mock.New(mock.Options{}), "NOPE").Build(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "create test issue")
	})
}

func TestAssertions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("search returns results", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		issues := AssertSearchReturnsResults(rec, ctx, mock.New(mock.Options{}), "project = DEMOSD", 2, shortWait)
		assert.Empty(t, rec.msgs)
		assert.Len(t, issues, 2)
	})

	t.Run("search results timeout", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		AssertSearchReturnsResults(rec, ctx, mock.New(mock.Options{}), "project = NOPE", 1, shortWait)
		assert.Contains(t, rec.String(), "Expected at least 1 results")
	})

	t.Run("search returns empty", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		assert.True(t, AssertSearchReturnsEmpty(rec, ctx, mock.New(mock.Options{}), "project = NOPE", shortWait))

		assert.False(t, AssertSearchReturnsEmpty(rec, ctx, mock.New(mock.Options{}), "project = DEMO", shortWait))
		assert.Contains(t, rec.String(), "Expected no results")
		assert.Contains(t, rec.String(), "got 4")
	})

	t.Run("issue fields", func(t *testing.T) {
		t.Parallel()
		issue := map[string]any{"key": "TEST-1", "fields": map[string]any{
			"summary": "Test",
			"status":  map[string]any{"name": "Open", "id": "1"},
		}}
		rec := &recorder{}
		assert.True(t, AssertIssueHasField(rec, issue, "summary"))
		assert.True(t, AssertIssueHasField(rec, issue, "status", "Open"))
		assert.Empty(t, rec.msgs)

		assert.False(t, AssertIssueHasField(rec, issue, "description"))
		assert.Contains(t, rec.String(), "missing field 'description'")

		assert.False(t, AssertIssueHasField(rec, issue, "summary", "Different"))
		assert.Contains(t, rec.String(), "expected 'Different', got 'Test'")
	})
}

func TestWaits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("transition reached", func(t *testing.T) {
		t.Parallel()
		svc := mock.New(mock.Options{})
		assert.True(t, WaitForTransition(ctx, svc, "DEMO-85", "To Do", shortWait))
	})

	t.Run("transition timeout", func(t *testing.T) {
		t.Parallel()
		svc := mock.New(mock.Options{})
		assert.False(t, WaitForTransition(ctx, svc, "DEMO-85", "Done", shortWait))
	})

	t.Run("assignment", func(t *testing.T) {
		t.Parallel()
		svc := mock.New(mock.Options{})
		assert.True(t, WaitForAssignment(ctx, svc, "DEMO-85", "abc123", shortWait))
		assert.True(t, WaitForAssignment(ctx, svc, "DEMO-87", "", shortWait))
		assert.False(t, WaitForAssignment(ctx, svc, "DEMO-999", "", shortWait))
	})
}

func TestUniqueName(t *testing.T) {
	t.Parallel()

	name := UniqueName("custom")
	parts := strings.Split(name, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "custom", parts[0])
	assert.Len(t, parts[2], 6)

	assert.True(t, strings.HasPrefix(UniqueName(""), "test_"))

	seen := map[string]struct{}{}
	for range 10 {
		seen[UniqueName("")] = struct{}{}
	}
	assert.Len(t, seen, 10)
}

func TestVersionDetection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, tc := range []struct {
		name      string
		responses map[string]map[string]any
		want      [3]int
		wantErr   bool
		cloud     bool
	}{
		{
			name:      "v3",
			responses: map[string]map[string]any{"/rest/api/3/serverInfo": {"version": "9.4.5", "deploymentType": "Server"}},
			want:      [3]int{9, 4, 5},
		},
		{
			name:      "suffix",
			responses: map[string]map[string]any{"/rest/api/3/serverInfo": {"version": "1001.0.0-SNAPSHOT", "deploymentType": "Cloud"}},
			want:      [3]int{1001, 0, 0},
			cloud:     true,
		},
		{
			name:      "v2 fallback",
			responses: map[string]map[string]any{"/rest/api/2/serverInfo": {"version": "8.20.0"}},
			want:      [3]int{8, 20, 0},
		},
		{
			name:    "unavailable",
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := infoService{responses: tc.responses}
			v, err := JiraVersion(ctx, svc)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.want, v)
			}
			assert.Equal(t, tc.cloud, IsCloudInstance(ctx, svc))
		})
	}
}
