package templates

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gi8lino/jiraas/internal/timeutil"
)

// templateDig returns the string value of m[key] if it exists and is a string.
// If m is itself a string, it is returned directly.
func templateDig(m any, key string) string {
	switch v := m.(type) {
	case map[string]any:
		if val, ok := v[key]; ok {
			if s, ok := val.(string); ok {
				return s
			}
		}
	case string:
		return v
	}
	return ""
}

// formatJiraDate parses a Jira timestamp and returns it formatted using the provided layout.
// If parsing fails, the original string is returned.
func formatJiraDate(input, layout string) string {
	parsed, err := timeutil.ParseJiraTime(input)
	if err != nil {
		return input
	}
	return parsed.Format(layout)
}

// mdCell escapes a value for use inside a markdown table cell.
func mdCell(v any) string {
	s := strings.ReplaceAll(fmt.Sprint(v), "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// sortedKeys returns the keys of a map in lexical order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// orDefault returns s, or def when s is blank.
func orDefault(def, s string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
