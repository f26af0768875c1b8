package compliance

import (
	"embed"
	"slices"
	"text/template"
	"time"

	"github.com/gi8lino/jiraas/internal/templates"
)

//go:embed templates/*.md.tmpl
var reportFS embed.FS

// Report limits.
const (
	maxCriticalShown = 20
	maxMissingShown  = 30
)

var reportTmpl = templates.MustParse("compliance", template.FuncMap{
	"statusIcon":   statusIcon,
	"severityIcon": severityIcon,
}, reportFS, "templates/*.md.tmpl")

// APISummary is one row of the summary table.
type APISummary struct {
	Key        string
	Name       string
	Loaded     bool
	Categories int
	Methods    int
	Matched    int
	Compliant  int
	Issues     int
}

// MissingAPI lists unimplemented endpoints of one API.
type MissingAPI struct {
	Name      string
	Endpoints []string
}

// Report is the data behind the markdown report.
type Report struct {
	Generated     time.Time
	Summary       []APISummary
	Critical      []Finding
	CriticalShown []Finding
	Categories    []*Category
	Missing       []MissingAPI
}

// Totals sums the summary rows.
func (r Report) Totals() APISummary {
	var t APISummary
	for _, s := range r.Summary {
		t.Categories += s.Categories
		t.Methods += s.Methods
		t.Matched += s.Matched
		t.Compliant += s.Compliant
		t.Issues += s.Issues
	}
	return t
}

// summaryOrder fixes the row order of the summary table.
var summaryOrder = []string{APIPlatform, APIAgile, APIJSM, APIAssets}

// BuildReport assembles report data. loaded tells which APIs had a spec.
func BuildReport(cats []*Category, missing map[string][]string, loaded map[string]bool, now time.Time) Report {
	r := Report{Generated: now, Categories: cats}

	stats := map[string]*APISummary{}
	for _, key := range summaryOrder {
		stats[key] = &APISummary{Key: key, Name: APIName(key), Loaded: loaded[key]}
	}
	for _, c := range cats {
		s, ok := stats[c.API]
		if !ok {
			continue
		}
		s.Categories++
		s.Methods += len(c.Methods)
		s.Matched += len(c.Matched)
		s.Compliant += c.CompliantCount()
		s.Issues += len(c.Findings)
		for _, f := range c.Findings {
			if f.Severity == SeverityCritical {
				r.Critical = append(r.Critical, f)
			}
		}
	}
	for _, key := range summaryOrder {
		if stats[key].Methods > 0 {
			r.Summary = append(r.Summary, *stats[key])
		}
	}
	r.CriticalShown = r.Critical[:min(len(r.Critical), maxCriticalShown)]

	for _, api := range APIs {
		if eps := missing[api.Key]; len(eps) > 0 {
			r.Missing = append(r.Missing, MissingAPI{Name: api.Name, Endpoints: slices.Clone(eps)})
		}
	}
	return r
}

// Render renders the markdown report.
func (r Report) Render() (string, error) {
	return templates.Render(reportTmpl, "report", r)
}

// statusIcon marks a category fully compliant, partially compliant or
// unmatched.
func statusIcon(c *Category) string {
	matched := len(c.Matched)
	switch {
	case matched > 0 && c.CompliantCount() == matched:
		return "✅"
	case matched > 0:
		return "⚠️"
	default:
		return "❓"
	}
}

func severityIcon(s string) string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityWarning:
		return "🟡"
	case SeverityInfo:
		return "🔵"
	default:
		return "⚪"
	}
}
