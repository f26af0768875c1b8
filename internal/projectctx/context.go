// Package projectctx loads per-project context: metadata discovered from the
// site, workflow maps, usage patterns and creation defaults. Context comes
// from a skill directory on disk, from the config file, or both merged.
package projectctx

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Source tells where a context was loaded from.
type Source string

const (
	SourceNone     Source = "none"
	SourceSkill    Source = "skill"
	SourceSettings Source = "settings"
	SourceMerged   Source = "merged"
)

// Context is the known context of one project.
type Context struct {
	ProjectKey   string
	Metadata     map[string]any
	Workflows    map[string]any
	Patterns     map[string]any
	Defaults     map[string]any
	Source       Source
	DiscoveredAt string
}

// New returns an empty context for key.
func New(key string) *Context {
	return &Context{
		ProjectKey: key,
		Metadata:   map[string]any{},
		Workflows:  map[string]any{},
		Patterns:   map[string]any{},
		Defaults:   map[string]any{},
		Source:     SourceNone,
	}
}

// fromMap builds a context from merged data.
func fromMap(key string, data map[string]any, src Source) *Context {
	c := New(key)
	c.Source = src
	for name, dst := range map[string]*map[string]any{
		"metadata":  &c.Metadata,
		"workflows": &c.Workflows,
		"patterns":  &c.Patterns,
		"defaults":  &c.Defaults,
	} {
		if m, ok := data[name].(map[string]any); ok {
			*dst = m
		}
	}
	c.DiscoveredAt, _ = c.Metadata["discovered_at"].(string)
	return c
}

// HasContext reports whether any context data is present.
func (c *Context) HasContext() bool {
	return len(c.Metadata) > 0 || len(c.Workflows) > 0 || len(c.Patterns) > 0 || len(c.Defaults) > 0
}

func (c *Context) IssueTypes() []map[string]any      { return mapList(c.Metadata["issue_types"]) }
func (c *Context) Components() []map[string]any      { return mapList(c.Metadata["components"]) }
func (c *Context) Versions() []map[string]any        { return mapList(c.Metadata["versions"]) }
func (c *Context) Priorities() []map[string]any      { return mapList(c.Metadata["priorities"]) }
func (c *Context) AssignableUsers() []map[string]any { return mapList(c.Metadata["assignable_users"]) }

// issueTypeEntry returns section.by_issue_type.<issueType>.
func issueTypeEntry(section map[string]any, issueType string) map[string]any {
	byType, _ := section["by_issue_type"].(map[string]any)
	m, _ := byType[issueType].(map[string]any)
	return m
}

// DefaultsForIssueType merges the global defaults with those of issueType.
// Labels and components are unioned; other keys are overridden.
func DefaultsForIssueType(c *Context, issueType string) map[string]any {
	global, _ := c.Defaults["global"].(map[string]any)
	typed := issueTypeEntry(c.Defaults, issueType)

	out := DeepMerge(global, typed)
	for _, k := range []string{"labels", "components"} {
		union := stringList(global[k])
		for _, v := range stringList(typed[k]) {
			if !slices.Contains(union, v) {
				union = append(union, v)
			}
		}
		if len(union) > 0 {
			out[k] = union
		}
	}
	return out
}

// ValidTransitions lists the transitions of issueType leaving status.
func ValidTransitions(c *Context, issueType, status string) []map[string]any {
	transitions, _ := issueTypeEntry(c.Workflows, issueType)["transitions"].(map[string]any)
	return mapList(transitions[status])
}

// StatusesForIssueType lists the workflow statuses of issueType.
func StatusesForIssueType(c *Context, issueType string) []map[string]any {
	return mapList(issueTypeEntry(c.Workflows, issueType)["statuses"])
}

// ValidateTransition reports whether issueType can move from one status to
// another in one step.
func ValidateTransition(c *Context, issueType, from, to string) bool {
	return slices.ContainsFunc(ValidTransitions(c, issueType, from), func(t map[string]any) bool {
		s, _ := t["to_status"].(string)
		return strings.EqualFold(s, to)
	})
}

// SuggestAssignee returns the most frequent assignee of issueType, or the
// project's top assignee. It returns "" without patterns.
func SuggestAssignee(c *Context, issueType string) string {
	if issueType != "" {
		assignees, _ := issueTypeEntry(c.Patterns, issueType)["assignees"].(map[string]any)
		if ranked := rankByCount(assignees); len(ranked) > 0 {
			return ranked[0]
		}
	}
	top := mapList(c.Patterns["top_assignees"])
	if len(top) == 0 {
		return ""
	}
	id, _ := top[0]["account_id"].(string)
	return id
}

// CommonLabels returns up to limit labels ordered by use. Without an issue
// type the counts of all issue types are summed.
func CommonLabels(c *Context, issueType string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	counts := map[string]any{}
	if issueType != "" {
		counts, _ = issueTypeEntry(c.Patterns, issueType)["labels"].(map[string]any)
	} else {
		byType, _ := c.Patterns["by_issue_type"].(map[string]any)
		for _, entry := range byType {
			m, _ := entry.(map[string]any)
			labels, _ := m["labels"].(map[string]any)
			for l, n := range labels {
				counts[l] = count(counts[l]) + count(n)
			}
		}
	}
	ranked := rankByCount(counts)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// FormatSummary renders a short human readable overview.
func FormatSummary(c *Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", c.ProjectKey)
	fmt.Fprintf(&b, "Source: %s\n", c.Source)
	if c.DiscoveredAt != "" {
		date, _, _ := strings.Cut(c.DiscoveredAt, "T")
		fmt.Fprintf(&b, "Discovered: %s\n", date)
	}
	for _, sec := range []struct {
		label string
		items []map[string]any
	}{
		{"Issue Types", c.IssueTypes()},
		{"Components", c.Components()},
		{"Versions", c.Versions()},
	} {
		if names := names(sec.items); len(names) > 0 {
			fmt.Fprintf(&b, "%s: %s\n", sec.label, strings.Join(names, ", "))
		}
	}
	if users := c.AssignableUsers(); len(users) > 0 {
		fmt.Fprintf(&b, "Assignable Users: %d\n", len(users))
	}
	return strings.TrimRight(b.String(), "\n")
}

// DeepMerge returns base with override merged in. Nested maps merge
// recursively; neither input is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				out[k] = DeepMerge(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// MergeContexts merges skill and settings data, settings winning.
func MergeContexts(skill, settings map[string]any) (map[string]any, Source) {
	switch {
	case skill == nil && settings == nil:
		return map[string]any{}, SourceNone
	case settings == nil:
		return skill, SourceSkill
	case skill == nil:
		return settings, SourceSettings
	default:
		return DeepMerge(skill, settings), SourceMerged
	}
}

// rankByCount returns the keys ordered by descending count, then name.
func rankByCount(counts map[string]any) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if r := cmp.Compare(count(counts[b]), count(counts[a])); r != 0 {
			return r
		}
		return cmp.Compare(a, b)
	})
	return keys
}

// count reads an int count or a {"count": n} object.
func count(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	case map[string]any:
		return count(t["count"])
	}
	return 0
}

func names(items []map[string]any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if n, _ := it["name"].(string); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func mapList(v any) []map[string]any {
	switch t := v.(type) {
	case []map[string]any:
		return t
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return []map[string]any{}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
