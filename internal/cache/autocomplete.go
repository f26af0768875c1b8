package cache

import (
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// AutocompleteCache keeps JQL autocomplete data: the field reference list
// and value suggestions per field and prefix.
type AutocompleteCache struct {
	fields      *expirable.LRU[string, []map[string]any]
	suggestions *expirable.LRU[string, []string]
}

// NewAutocompleteCache creates a cache whose entries live for ttl.
func NewAutocompleteCache(size int, ttl time.Duration) *AutocompleteCache {
	if size <= 0 {
		size = 256
	}
	if ttl <= 0 {
		ttl = TTLFor(CategoryFields)
	}
	return &AutocompleteCache{
		fields:      expirable.NewLRU[string, []map[string]any](1, nil, ttl),
		suggestions: expirable.NewLRU[string, []string](size, nil, ttl),
	}
}

// SetFields stores the visible field references.
func (a *AutocompleteCache) SetFields(fields []map[string]any) {
	a.fields.Add("fields", slices.Clone(fields))
}

// Fields returns the stored field references.
func (a *AutocompleteCache) Fields() ([]map[string]any, bool) {
	f, ok := a.fields.Get("fields")
	return slices.Clone(f), ok
}

// SetSuggestions stores value suggestions for a field and typed prefix.
func (a *AutocompleteCache) SetSuggestions(field, prefix string, values []string) {
	a.suggestions.Add(suggestionKey(field, prefix), slices.Clone(values))
}

// Suggestions returns cached suggestions. A miss for a prefix falls back to
// the longest cached shorter prefix, filtered locally.
func (a *AutocompleteCache) Suggestions(field, prefix string) ([]string, bool) {
	if v, ok := a.suggestions.Get(suggestionKey(field, prefix)); ok {
		return slices.Clone(v), true
	}
	lower := strings.ToLower(prefix)
	for i := len(lower) - 1; i >= 0; i-- {
		v, ok := a.suggestions.Get(suggestionKey(field, lower[:i]))
		if !ok {
			continue
		}
		out := make([]string, 0, len(v))
		for _, s := range v {
			if strings.HasPrefix(strings.ToLower(s), lower) {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

// Clear drops everything.
func (a *AutocompleteCache) Clear() {
	a.fields.Purge()
	a.suggestions.Purge()
}

func suggestionKey(field, prefix string) string {
	return strings.ToLower(field) + "\x00" + strings.ToLower(prefix)
}
