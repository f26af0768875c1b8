package validators_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gi8lino/jiraas/internal/jiraerr"
	"github.com/gi8lino/jiraas/internal/testutils"
	"github.com/gi8lino/jiraas/internal/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGetNested(t *testing.T) {
	t.Parallel()

	obj := map[string]any{"fields": map[string]any{"status": map[string]any{"name": "Open"}, "assignee": nil}}

	t.Run("simple path", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Open", validators.SafeGetNested(obj, "fields.status.name", nil))
	})

	t.Run("missing path returns default", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Unassigned", validators.SafeGetNested(obj, "fields.assignee.displayName", "Unassigned"))
		assert.Equal(t, "d", validators.SafeGetNested(map[string]any{}, "a.b.c", "d"))
	})

	t.Run("non map inputs return default", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "d", validators.SafeGetNested(nil, "a.b", "d"))
		assert.Equal(t, "d", validators.SafeGetNested("not a map", "a.b", "d"))
		assert.Equal(t, "d", validators.SafeGetNested(123, "a.b", "d"))
		assert.Equal(t, "d", validators.SafeGetNested(map[string]any{"fields": "x"}, "fields.status.name", "d"))
	})

	t.Run("single key and nil default", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "value", validators.SafeGetNested(map[string]any{"key": "value"}, "key", nil))
		assert.Nil(t, validators.SafeGetNested(map[string]any{"a": 1}, "missing", nil))
	})

	t.Run("nested string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Open", validators.NestedString(obj, "fields.status.name", ""))
		assert.Equal(t, "-", validators.NestedString(obj, "fields.status", "-"))
	})
}

func TestIssueKey(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"PROJ-123":    "PROJ-123",
		"proj-123":    "PROJ-123",
		"PrOj-123":    "PROJ-123",
		"ABC123-456":  "ABC123-456",
		"A-1":         "A-1",
		"PROJ-999999": "PROJ-999999",
	}
	for in, want := range valid {
		t.Run("valid "+in, func(t *testing.T) {
			t.Parallel()
			got, err := validators.IssueKey(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			again, err := validators.IssueKey(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}

	for _, in := range []string{"", "   ", "PROJ123", "PROJ-", "-123", "123-456", "PROJ_123", "PR@J-123"} {
		t.Run("invalid "+in, func(t *testing.T) {
			t.Parallel()
			_, err := validators.IssueKey(in)
			require.Error(t, err)
			assert.True(t, jiraerr.IsKind(err, jiraerr.KindValidation))
		})
	}
}

func TestProjectKey(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{"PROJ": "PROJ", "proj": "PROJ", "PROJ2": "PROJ2", "AB": "AB", "ABCDEFGHIJ": "ABCDEFGHIJ"} {
		t.Run("valid "+in, func(t *testing.T) {
			t.Parallel()
			got, err := validators.ProjectKey(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	for _, in := range []string{"", "A", "ABCDEFGHIJK", "1PROJ", "PROJ-1", "PROJ_X"} {
		t.Run("invalid "+in, func(t *testing.T) {
			t.Parallel()
			_, err := validators.ProjectKey(in)
			assert.Error(t, err)
		})
	}
}

func TestJQL(t *testing.T) {
	t.Parallel()

	t.Run("valid queries", func(t *testing.T) {
		t.Parallel()
		got, err := validators.JQL("  project = PROJ  ")
		require.NoError(t, err)
		assert.Equal(t, "project = PROJ", got)

		complexJQL := "project = PROJ AND status = Open ORDER BY created DESC"
		got, err = validators.JQL(complexJQL)
		require.NoError(t, err)
		assert.Equal(t, complexJQL, got)
	})

	dangerous := []string{
		"",
		"project = PROJ; DROP TABLE issues",
		"project = PROJ; DELETE FROM issues",
		"project = PROJ; INSERT INTO issues",
		"project = PROJ; UPDATE issues SET",
		"project = PROJ <script>alert('xss')</script>",
		"project = PROJ javascript:alert(1)",
		"project = " + strings.Repeat("A", 10000),
	}
	for i, in := range dangerous {
		t.Run("rejects case "+string(rune('a'+i)), func(t *testing.T) {
			t.Parallel()
			_, err := validators.JQL(in)
			assert.Error(t, err)
		})
	}
}

func TestTransitionID(t *testing.T) {
	t.Parallel()

	got, err := validators.TransitionID("123")
	require.NoError(t, err)
	assert.Equal(t, "123", got)

	got, err = validators.TransitionID("0")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	got, err = validators.TransitionID(456)
	require.NoError(t, err)
	assert.Equal(t, "456", got)

	for _, in := range []string{"-1", "abc", ""} {
		_, err := validators.TransitionID(in)
		assert.Error(t, err, in)
	}
}

func TestProjectTypeAndAssigneeType(t *testing.T) {
	t.Parallel()

	t.Run("project type", func(t *testing.T) {
		t.Parallel()
		for _, pt := range validators.ValidProjectTypes {
			got, err := validators.ProjectType(pt)
			require.NoError(t, err)
			assert.Equal(t, pt, got)
		}
		got, err := validators.ProjectType("Business")
		require.NoError(t, err)
		assert.Equal(t, "business", got)

		_, err = validators.ProjectType("unknown")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "software")
		assert.Contains(t, err.Error(), "business")

		_, err = validators.ProjectType("")
		assert.Error(t, err)
	})

	t.Run("assignee type", func(t *testing.T) {
		t.Parallel()
		for _, at := range validators.ValidAssigneeTypes {
			got, err := validators.AssigneeType(at)
			require.NoError(t, err)
			assert.Equal(t, at, got)
		}
		got, err := validators.AssigneeType("project_lead")
		require.NoError(t, err)
		assert.Equal(t, "PROJECT_LEAD", got)

		_, err = validators.AssigneeType("unknown")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PROJECT_LEAD")
	})
}

func TestProjectTemplate(t *testing.T) {
	t.Parallel()

	for short, full := range validators.ProjectTemplates {
		got, err := validators.ProjectTemplate(short)
		require.NoError(t, err)
		assert.Equal(t, full, got)
	}

	got, err := validators.ProjectTemplate("SCRUM")
	require.NoError(t, err)
	assert.Contains(t, got, "scrum")

	got, err = validators.ProjectTemplate("com.example:custom-template")
	require.NoError(t, err)
	assert.Equal(t, "com.example:custom-template", got)

	got, err = validators.ProjectTemplate("com.example.template")
	require.NoError(t, err)
	assert.Equal(t, "com.example.template", got)

	_, err = validators.ProjectTemplate("unknowntemplate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrum")
	assert.Contains(t, err.Error(), "kanban")
}

func TestNames(t *testing.T) {
	t.Parallel()

	t.Run("project name", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"My Project", "AB", strings.Repeat("A", 80)} {
			got, err := validators.ProjectName(in)
			require.NoError(t, err)
			assert.Equal(t, in, got)
		}
		_, err := validators.ProjectName("A")
		assert.Error(t, err)
		_, err = validators.ProjectName(strings.Repeat("A", 81))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "80")
	})

	t.Run("category name", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"Development", "A", strings.Repeat("A", 255)} {
			_, err := validators.CategoryName(in)
			require.NoError(t, err)
		}
		_, err := validators.CategoryName("")
		assert.Error(t, err)
		_, err = validators.CategoryName(strings.Repeat("A", 256))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "255")
	})
}

func TestURLAndEmail(t *testing.T) {
	t.Parallel()

	t.Run("url", func(t *testing.T) {
		t.Parallel()
		got, err := validators.URL("https://example.atlassian.net/")
		require.NoError(t, err)
		assert.Equal(t, "https://example.atlassian.net", got)

		got, err = validators.URL("example.atlassian.net")
		require.NoError(t, err)
		assert.Equal(t, "https://example.atlassian.net", got)

		_, err = validators.URL("http://example.atlassian.net")
		assert.Error(t, err)
		_, err = validators.URL("")
		assert.Error(t, err)
	})

	t.Run("email", func(t *testing.T) {
		t.Parallel()
		got, err := validators.Email("User@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", got)

		for _, in := range []string{"", "userexample.com", "user@"} {
			_, err := validators.Email(in)
			assert.Error(t, err, in)
		}
	})
}

func TestFilePathAndAvatar(t *testing.T) {
	t.Parallel()

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "a.txt")
		testutils.MustWriteFile(t, path, "test content")

		got, err := validators.FilePath(path, true)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("no existence check", func(t *testing.T) {
		t.Parallel()
		got, err := validators.FilePath("/nonexistent/path/file.txt", false)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))

		_, err = validators.FilePath("/definitely/does/not/exist.txt", true)
		assert.Error(t, err)
	})

	t.Run("file too large", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "big.bin")
		require.NoError(t, os.WriteFile(path, make([]byte, validators.MaxAttachmentSize+1), 0o600))

		_, err := validators.FilePath(path, true)
		require.Error(t, err)
		assert.Contains(t, strings.ToLower(err.Error()), "too large")
	})

	t.Run("avatar extensions", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif"} {
			path := filepath.Join(dir, "avatar"+ext)
			testutils.MustWriteFile(t, path, "fake image")
			got, err := validators.AvatarFile(path)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(got, ext))
		}

		txt := filepath.Join(dir, "avatar.txt")
		testutils.MustWriteFile(t, txt, "text")
		_, err := validators.AvatarFile(txt)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".png")
	})

	t.Run("avatar too large", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "big.png")
		require.NoError(t, os.WriteFile(path, make([]byte, validators.MaxAvatarSize+1), 0o600))

		_, err := validators.AvatarFile(path)
		require.Error(t, err)
		assert.Contains(t, strings.ToLower(err.Error()), "too large")
	})
}
