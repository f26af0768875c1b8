package jira

import (
	"strings"

	"github.com/gi8lino/jiraas/internal/jiraerr"
)

// transitionNames returns the name of each transition.
func transitionNames(transitions []map[string]any) []string {
	names := make([]string, 0, len(transitions))
	for _, t := range transitions {
		if n, _ := t["name"].(string); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// FindTransitionByName picks a transition by exact, case-insensitive name or
// target status. A unique partial match is accepted; several partial
// matches are an error.
func FindTransitionByName(transitions []map[string]any, name string) (map[string]any, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil, jiraerr.Validation("transition name is required")
	}

	for _, t := range transitions {
		n, _ := t["name"].(string)
		to, _ := nested(t, "to", "name").(string)
		if strings.ToLower(n) == want || strings.ToLower(to) == want {
			return t, nil
		}
	}

	var partial []map[string]any
	for _, t := range transitions {
		if n, _ := t["name"].(string); strings.Contains(strings.ToLower(n), want) {
			partial = append(partial, t)
		}
	}
	switch len(partial) {
	case 1:
		return partial[0], nil
	case 0:
		return nil, jiraerr.Validation("transition %q not found, available: %s", name, strings.Join(transitionNames(transitions), ", "))
	default:
		return nil, jiraerr.Validation("transition %q is ambiguous, matches: %s", name, strings.Join(transitionNames(partial), ", "))
	}
}

// FindTransitionByKeywords returns the first transition whose name contains
// any keyword. A transition named exactly prefer wins over other matches.
func FindTransitionByKeywords(transitions []map[string]any, keywords []string, prefer string) (map[string]any, bool) {
	var matches []map[string]any
	for _, t := range transitions {
		n, _ := t["name"].(string)
		lower := strings.ToLower(n)
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				matches = append(matches, t)
				break
			}
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	if prefer != "" {
		for _, t := range matches {
			if n, _ := t["name"].(string); strings.EqualFold(n, prefer) {
				return t, true
			}
		}
	}
	return matches[0], true
}
