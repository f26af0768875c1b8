package projectctx

import (
	"path/filepath"
	"testing"

	"github.com/gi8lino/jiraas/internal/config"
	"github.com/gi8lino/jiraas/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "ok.json")
		testutils.MustWriteFile(t, path, `{"key": "value"}`)
		m, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"key": "value"}, m)
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "ok.yaml")
		testutils.MustWriteFile(t, path, "global:\n  priority: High\n")
		m, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"global": map[string]any{"priority": "High"}}, m)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := LoadFile(filepath.Join(dir, "nonexistent.json"))
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(dir, "invalid.json")
		testutils.MustWriteFile(t, path, "not valid json")
		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestLoader(t *testing.T) {
	t.Parallel()

	t.Run("nothing found", func(t *testing.T) {
		t.Parallel()
		l := NewLoader(t.TempDir(), nil, nil)
		c := l.Get("proj")
		assert.Equal(t, "PROJ", c.ProjectKey)
		assert.Equal(t, SourceNone, c.Source)
		assert.False(t, l.Has("PROJ"))
	})

	t.Run("skill directory", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		l := NewLoader(root, nil, nil)
		skill := l.SkillPath("PROJ")
		testutils.MustWriteJSON(t, filepath.Join(skill, "context", "metadata.json"), map[string]any{
			"issue_types":   []any{map[string]any{"name": "Bug"}},
			"discovered_at": "2025-01-15T10:00:00Z",
		})
		testutils.MustWriteFile(t, filepath.Join(skill, "defaults.yaml"), "global:\n  priority: Low\n")
		testutils.MustWriteFile(t, filepath.Join(skill, "context", "patterns.json"), "{broken")

		assert.True(t, l.Has("proj"))
		c := l.Get("PROJ")
		assert.Equal(t, SourceSkill, c.Source)
		assert.Equal(t, "Bug", c.IssueTypes()[0]["name"])
		assert.Equal(t, "Low", DefaultsForIssueType(c, "Bug")["priority"])
		assert.Empty(t, c.Patterns)
		assert.Equal(t, "2025-01-15T10:00:00Z", c.DiscoveredAt)
	})

	t.Run("merged with config", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		cfg := &config.Config{Projects: map[string]config.ProjectDefaults{
			"PROJ": {Priority: "High", Labels: []string{"team-a"}},
		}}
		l := NewLoader(root, SettingsFromConfig(cfg), nil)
		testutils.MustWriteFile(t, filepath.Join(l.SkillPath("PROJ"), "defaults.json"),
			`{"global": {"priority": "Low", "components": ["Backend"]}}`)

		c := l.Get("PROJ")
		assert.Equal(t, SourceMerged, c.Source)
		d := DefaultsForIssueType(c, "Task")
		assert.Equal(t, "High", d["priority"])
		assert.Equal(t, []string{"team-a"}, d["labels"])
		assert.Equal(t, []string{"Backend"}, d["components"])

		other := l.Get("OTHER")
		assert.Equal(t, SourceNone, other.Source)
	})

	t.Run("cache and clear", func(t *testing.T) {
		t.Parallel()
		l := NewLoader(t.TempDir(), nil, nil)
		first := l.Get("PROJ1")
		l.Get("PROJ2")
		assert.Equal(t, 2, l.Cached())
		assert.Same(t, first, l.Get("proj1"))

		l.Clear("PROJ1")
		assert.Equal(t, 1, l.Cached())
		assert.NotSame(t, first, l.Get("PROJ1"))

		l.Clear()
		assert.Equal(t, 0, l.Cached())
	})
}
