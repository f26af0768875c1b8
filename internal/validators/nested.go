package validators

import "strings"

// SafeGetNested walks a dot separated path through nested maps and returns
// def when any step is missing, nil or not a map.
func SafeGetNested(obj any, path string, def any) any {
	cur := obj
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		v, ok := m[part]
		if !ok || v == nil {
			return def
		}
		cur = v
	}
	return cur
}

// NestedString is SafeGetNested for string leaves.
func NestedString(obj any, path, def string) string {
	if s, ok := SafeGetNested(obj, path, nil).(string); ok {
		return s
	}
	return def
}
