package mock

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/timeutil"
	"github.com/gi8lino/jiraas/internal/validators"
)

type operator int

const (
	opEquals operator = iota
	opNotEquals
	opContains
	opEmpty
	opNotEmpty
	opIn
	opNotIn
)

var (
	orderByRe = regexp.MustCompile(`(?i)(?:^|\s+)ORDER\s+BY\s+([\w.]+)(?:\s+(ASC|DESC))?\s*$`)
	andRe     = regexp.MustCompile(`(?i)\s+AND\s+`)
	orRe      = regexp.MustCompile(`(?i)\s+OR\s+`)
	emptyRe   = regexp.MustCompile(`(?i)^([\w.]+)\s+IS\s+(NOT\s+)?(EMPTY|NULL)$`)
	inRe      = regexp.MustCompile(`(?i)^([\w.]+)\s+(NOT\s+)?IN\s*\((.*)\)$`)
	compareRe = regexp.MustCompile(`^([\w.]+)\s*(!=|=|~)\s*(.+)$`)
)

// clause is one "field OP value" condition.
type clause struct {
	field  string
	op     operator
	value  string
	values []string
}

// query is a parsed JQL string: clauses joined by AND plus an optional sort.
type query struct {
	clauses []clause
	known   []bool // false for clauses that could not be parsed
	orderBy string
	desc    bool
}

// parseJQL parses the subset of JQL the mock understands. It never fails;
// anything it cannot read becomes an always-true clause.
func parseJQL(jql string) query {
	var q query
	jql = strings.TrimSpace(jql)
	if m := orderByRe.FindStringSubmatch(jql); m != nil {
		q.orderBy = strings.ToLower(m[1])
		q.desc = strings.EqualFold(m[2], "DESC")
		jql = strings.TrimSpace(jql[:len(jql)-len(m[0])])
	}
	if jql == "" {
		return q
	}
	for _, part := range splitOutsideQuotes(jql, andRe) {
		cl, ok := parseClause(part)
		q.clauses = append(q.clauses, cl)
		q.known = append(q.known, ok)
	}
	return q
}

func parseClause(s string) (clause, bool) {
	s = strings.TrimSpace(s)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && !inRe.MatchString(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if orRe.MatchString(maskQuoted(s)) {
		return clause{}, false
	}
	if m := emptyRe.FindStringSubmatch(s); m != nil {
		op := opEmpty
		if m[2] != "" {
			op = opNotEmpty
		}
		return clause{field: strings.ToLower(m[1]), op: op}, true
	}
	if m := inRe.FindStringSubmatch(s); m != nil {
		op := opIn
		if m[2] != "" {
			op = opNotIn
		}
		var values []string
		for v := range strings.SplitSeq(m[3], ",") {
			if v = unquote(v); v != "" {
				values = append(values, v)
			}
		}
		return clause{field: strings.ToLower(m[1]), op: op, values: values}, true
	}
	if m := compareRe.FindStringSubmatch(s); m != nil {
		op := opEquals
		switch m[2] {
		case "!=":
			op = opNotEquals
		case "~":
			op = opContains
		}
		return clause{field: strings.ToLower(m[1]), op: op, value: unquote(m[3])}, true
	}
	return clause{}, false
}

// maskQuoted blanks the content of quoted spans so keyword matches only hit
// the unquoted parts of s. Byte offsets are preserved.
func maskQuoted(s string) string {
	b := []byte(s)
	var quote byte
	for i, ch := range b {
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote != 0 && ch == quote:
			quote = 0
		case quote != 0:
			b[i] = '_'
		}
	}
	return string(b)
}

// splitOutsideQuotes splits s at every match of sep that is not inside a
// quoted span.
func splitOutsideQuotes(s string, sep *regexp.Regexp) []string {
	var parts []string
	last := 0
	for _, m := range sep.FindAllStringIndex(maskQuoted(s), -1) {
		parts = append(parts, s[last:m[0]])
		last = m[1]
	}
	return append(parts, s[last:])
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// match reports whether an issue satisfies every clause.
func (q query) match(issue map[string]any) bool {
	for i, cl := range q.clauses {
		// Unparsed clauses and unsupported fields count as true. Callers pass
		// JQL written for a real site and expect the rest of it to filter.
		if !q.known[i] {
			continue
		}
		if !cl.match(issue) {
			return false
		}
	}
	return true
}

func (cl clause) match(issue map[string]any) bool {
	f, _ := issue["fields"].(map[string]any)
	var vals []string
	switch cl.field {
	case "project":
		vals = present(projectKeyOf(issue))
	case "status":
		vals = present(validators.NestedString(f, "status.name", ""))
	case "issuetype", "type":
		vals = present(validators.NestedString(f, "issuetype.name", ""))
	case "priority":
		vals = present(validators.NestedString(f, "priority.name", ""))
	case "key", "issuekey", "id":
		key, _ := issue["key"].(string)
		vals = present(key)
	case "labels":
		labels, _ := f["labels"].([]any)
		for _, l := range labels {
			if s, ok := l.(string); ok {
				vals = append(vals, s)
			}
		}
	case "summary":
		vals = present(validators.NestedString(f, "summary", ""))
	case "description":
		vals = present(adf.ToText(f["description"]))
	case "text":
		vals = present(validators.NestedString(f, "summary", ""), adf.ToText(f["description"]))
	case "assignee", "reporter":
		return cl.matchUser(f[cl.field])
	default:
		return true
	}
	return cl.test(vals)
}

func (cl clause) test(vals []string) bool {
	switch cl.op {
	case opEmpty:
		return len(vals) == 0
	case opNotEmpty:
		return len(vals) > 0
	case opContains:
		needle := strings.ToLower(cl.value)
		return slices.ContainsFunc(vals, func(v string) bool { return strings.Contains(strings.ToLower(v), needle) })
	case opEquals:
		return containsFold(vals, cl.value)
	case opNotEquals:
		return len(vals) > 0 && !containsFold(vals, cl.value)
	case opIn:
		return slices.ContainsFunc(cl.values, func(want string) bool { return containsFold(vals, want) })
	case opNotIn:
		return len(vals) > 0 && !slices.ContainsFunc(cl.values, func(want string) bool { return containsFold(vals, want) })
	}
	return true
}

// matchUser compares a user field against currentUser(), an account id or
// a display name fragment.
func (cl clause) matchUser(v any) bool {
	u, _ := v.(map[string]any)
	switch cl.op {
	case opEmpty:
		return u == nil
	case opNotEmpty:
		return u != nil
	}
	if u == nil {
		return false
	}
	is := func(want string) bool {
		id, _ := u["accountId"].(string)
		if strings.EqualFold(want, "currentUser()") {
			return id == currentUserID
		}
		name, _ := u["displayName"].(string)
		email, _ := u["emailAddress"].(string)
		return id == want ||
			strings.EqualFold(email, want) ||
			strings.Contains(strings.ToLower(name), strings.ToLower(want))
	}
	switch cl.op {
	case opNotEquals:
		return !is(cl.value)
	case opIn:
		return slices.ContainsFunc(cl.values, is)
	case opNotIn:
		return !slices.ContainsFunc(cl.values, is)
	default:
		return is(cl.value)
	}
}

// sort orders issues by the query's ORDER BY field. The sort is stable so
// ties keep creation order.
func (q query) sort(issues []map[string]any) {
	if q.orderBy == "" {
		return
	}
	slices.SortStableFunc(issues, func(a, b map[string]any) int {
		r := compareBy(q.orderBy, a, b)
		if q.desc {
			return -r
		}
		return r
	})
}

var priorityRank = map[string]int{"highest": 5, "high": 4, "medium": 3, "low": 2, "lowest": 1}

func compareBy(field string, a, b map[string]any) int {
	fa, _ := a["fields"].(map[string]any)
	fb, _ := b["fields"].(map[string]any)
	switch field {
	case "created", "updated":
		ta, errA := timeutil.ParseJiraTime(validators.NestedString(fa, field, ""))
		tb, errB := timeutil.ParseJiraTime(validators.NestedString(fb, field, ""))
		if errA != nil || errB != nil {
			return cmp.Compare(validators.NestedString(fa, field, ""), validators.NestedString(fb, field, ""))
		}
		return ta.Compare(tb)
	case "priority":
		return cmp.Compare(
			priorityRank[strings.ToLower(validators.NestedString(fa, "priority.name", ""))],
			priorityRank[strings.ToLower(validators.NestedString(fb, "priority.name", ""))],
		)
	case "key", "issuekey":
		ka, _ := a["key"].(string)
		kb, _ := b["key"].(string)
		return compareKeys(ka, kb)
	}
	return cmp.Compare(sortText(fa[field]), sortText(fb[field]))
}

// compareKeys orders by project then numerically by issue number.
func compareKeys(a, b string) int {
	pa, na, _ := strings.Cut(a, "-")
	pb, nb, _ := strings.Cut(b, "-")
	if r := cmp.Compare(pa, pb); r != 0 {
		return r
	}
	ia, _ := strconv.Atoi(na)
	ib, _ := strconv.Atoi(nb)
	return cmp.Compare(ia, ib)
}

// sortText reduces a field value to a comparable string.
func sortText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.ToLower(t)
	case map[string]any:
		for _, k := range []string{"name", "displayName", "value", "key"} {
			if s, ok := t[k].(string); ok {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}

// projectKeyOf derives the project from the issue key, which stays fixed
// even when the stored project field is overwritten.
func projectKeyOf(issue map[string]any) string {
	key, _ := issue["key"].(string)
	p, _, _ := strings.Cut(key, "-")
	return p
}

// present returns the non-empty values.
func present(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(vals []string, want string) bool {
	return slices.ContainsFunc(vals, func(v string) bool { return strings.EqualFold(v, want) })
}
