package compliance

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Severities of findings.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"
)

// Finding is one deviation between a method and its OpenAPI operation.
type Finding struct {
	Method      string
	Endpoint    string
	Type        string
	Severity    string
	Description string
	Expected    string
	Actual      string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(f.Severity), f.Method, f.Description)
}

// Match pairs a method with the OpenAPI operation it calls.
type Match struct {
	Method    Method
	SpecPath  string
	Operation Operation
	Findings  []Finding
}

// Compliant reports whether the match has no findings.
func (m Match) Compliant() bool { return len(m.Findings) == 0 }

// Category groups the methods of one report category.
type Category struct {
	Name      string
	API       string
	Methods   []Method
	Matched   []Match
	Unmatched []Method
	Findings  []Finding
}

// CompliantCount returns the number of matches without findings.
func (c *Category) CompliantCount() int {
	n := 0
	for _, m := range c.Matched {
		if m.Compliant() {
			n++
		}
	}
	return n
}

// CompliancePercentage returns the share of compliant matches.
func (c *Category) CompliancePercentage() float64 {
	if len(c.Matched) == 0 {
		return 0
	}
	return float64(c.CompliantCount()) / float64(len(c.Matched)) * 100
}

// Analyze groups methods by category and matches them against specs,
// keyed by API. Categories are ordered by API, then name.
func Analyze(methods []Method, specs map[string]*Spec) []*Category {
	byName := map[string]*Category{}
	var cats []*Category
	for _, m := range methods {
		name := m.Category
		if name == "" {
			name = Categorize(m)
		}
		c, ok := byName[name]
		if !ok {
			c = &Category{Name: name, API: APIOf(name)}
			byName[name] = c
			cats = append(cats, c)
		}
		c.Methods = append(c.Methods, m)
	}

	for _, c := range cats {
		spec := specs[c.API]
		if spec == nil {
			continue
		}
		for _, m := range c.Methods {
			path, op, ok := FindMatch(m, spec)
			if !ok {
				c.Unmatched = append(c.Unmatched, m)
				continue
			}
			match := Match{Method: m, SpecPath: path, Operation: op}
			match.Findings = append(match.Findings, checkParameters(m, op)...)
			match.Findings = append(match.Findings, checkRequestBody(m, op)...)
			if op.Deprecated {
				match.Findings = append(match.Findings, Finding{
					Method:      m.Name,
					Endpoint:    m.Endpoint,
					Type:        "deprecated_endpoint",
					Severity:    SeverityWarning,
					Description: "Endpoint is deprecated",
					Expected:    "non-deprecated operation",
					Actual:      strings.ToUpper(m.HTTPMethod) + " " + path,
				})
			}
			c.Findings = append(c.Findings, match.Findings...)
			c.Matched = append(c.Matched, match)
		}
	}

	slices.SortFunc(cats, func(a, b *Category) int {
		return cmp.Or(cmp.Compare(a.API, b.API), cmp.Compare(a.Name, b.Name))
	})
	return cats
}

var placeholderRe = regexp.MustCompile(`\{[^}]+\}`)

// MatchPath reports whether an implementation endpoint fits a spec path.
// Placeholders on either side match one path segment.
func MatchPath(impl, specPath string) bool {
	if impl == "" || specPath == "" {
		return false
	}
	impl, _, _ = strings.Cut(impl, "?")
	impl = placeholderRe.ReplaceAllString(impl, "{}")

	parts := placeholderRe.Split(specPath, -1)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	pattern := "^" + strings.Join(parts, `[^/]+`) + "$"
	ok, _ := regexp.MatchString(pattern, impl)
	return ok
}

// FindMatch returns the spec path and operation a method calls. Among
// several fitting paths the one with the fewest placeholders wins.
func FindMatch(m Method, spec *Spec) (string, Operation, bool) {
	if m.Endpoint == "" || m.HTTPMethod == "" || spec == nil {
		return "", Operation{}, false
	}
	verb := strings.ToLower(m.HTTPMethod)

	var (
		best     string
		bestOp   Operation
		bestVars = -1
	)
	for path, item := range spec.Paths {
		op, ok := item[verb]
		if !ok || !MatchPath(m.Endpoint, path) {
			continue
		}
		vars := len(placeholderRe.FindAllString(path, -1))
		if bestVars < 0 || vars < bestVars || (vars == bestVars && path < best) {
			best, bestOp, bestVars = path, op, vars
		}
	}
	return best, bestOp, bestVars >= 0
}

// checkParameters reports required query and header parameters the method
// never sends.
func checkParameters(m Method, op Operation) []Finding {
	known := slices.Concat(m.Params, m.OptionalParams, m.QueryParams)
	var out []Finding
	for _, p := range op.Parameters {
		if !p.Required || p.In == "path" || p.Name == "" {
			continue
		}
		if slices.ContainsFunc(known, func(k string) bool {
			return strings.EqualFold(k, p.Name) || strings.Contains(strings.ToLower(k), strings.ToLower(p.Name))
		}) {
			continue
		}
		out = append(out, Finding{
			Method:      m.Name,
			Endpoint:    m.Endpoint,
			Type:        "missing_required_param",
			Severity:    SeverityCritical,
			Description: "Missing required parameter: " + p.Name,
			Expected:    p.Name,
			Actual:      "[" + strings.Join(known, ", ") + "]",
		})
	}
	return out
}

// checkRequestBody reports operations requiring a body the method does not
// send.
func checkRequestBody(m Method, op Operation) []Finding {
	if op.RequestBody == nil || !op.RequestBody.Required || m.HasBody {
		return nil
	}
	return []Finding{{
		Method:      m.Name,
		Endpoint:    m.Endpoint,
		Type:        "missing_request_body",
		Severity:    SeverityCritical,
		Description: "Spec requires request body but method doesn't send one",
		Expected:    "required: true",
		Actual:      "No body argument found",
	}}
}

// Missing lists, per API, the spec paths no method matched as
// "VERBS path - summary".
func Missing(cats []*Category, specs map[string]*Spec) map[string][]string {
	out := map[string][]string{}
	for api, spec := range specs {
		if spec == nil {
			continue
		}
		implemented := map[string]bool{}
		for _, c := range cats {
			if c.API != api {
				continue
			}
			for _, m := range c.Matched {
				implemented[m.SpecPath] = true
			}
		}

		paths := make([]string, 0, len(spec.Paths))
		for p := range spec.Paths {
			paths = append(paths, p)
		}
		slices.Sort(paths)

		var missing []string
		for _, p := range paths {
			if implemented[p] {
				continue
			}
			item := spec.Paths[p]
			var verbs []string
			summary := ""
			for _, v := range operationVerbs {
				op, ok := item[v]
				if !ok {
					continue
				}
				verbs = append(verbs, strings.ToUpper(v))
				if summary == "" {
					summary = truncate(op.Summary, 50)
				}
			}
			if len(verbs) == 0 {
				continue
			}
			missing = append(missing, fmt.Sprintf("%s %s - %s", strings.Join(verbs, ", "), p, summary))
		}
		if len(missing) > 0 {
			out[api] = missing
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
