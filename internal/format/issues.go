package format

import (
	"fmt"
	"strings"

	"github.com/gi8lino/jiraas/internal/timeutil"
	"github.com/jedib0t/go-pretty/v6/table"
)

// IssueHeaders are the columns produced by IssueRows.
var IssueHeaders = []string{"Key", "Type", "Status", "Priority", "Assignee", "Summary"}

// Issue renders one issue as a two column detail table. With detailed set
// the description, labels, components and time tracking are included.
func Issue(issue map[string]any, detailed bool) string {
	tw := newWriter(nil)
	add := func(k, v string) {
		if v != "" {
			tw.AppendRow(table.Row{k, v})
		}
	}

	add("Key", field(issue, "key"))
	add("Summary", field(issue, "fields.summary"))
	add("Type", field(issue, "fields.issuetype.name"))
	add("Status", field(issue, "fields.status.name"))
	add("Priority", field(issue, "fields.priority.name"))
	add("Assignee", orDash(field(issue, "fields.assignee.displayName")))
	add("Reporter", field(issue, "fields.reporter.displayName"))
	add("Created", field(issue, "fields.created"))
	add("Updated", field(issue, "fields.updated"))

	if detailed {
		fields, _ := issue["fields"].(map[string]any)
		add("Labels", joinNames(fields["labels"]))
		add("Components", joinNames(fields["components"]))
		add("Fix Versions", joinNames(fields["fixVersions"]))
		if tt, ok := fields["timetracking"].(map[string]any); ok {
			add("Time Tracking", TimeTracking(tt))
		}
		if d := Description(fields["description"]); d != "" {
			add("Description", Wrap(d, 80))
		}
	}
	return tw.Render()
}

// IssueRows converts issues into rows matching IssueHeaders.
func IssueRows(issues []map[string]any) [][]string {
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{
			field(is, "key"),
			field(is, "fields.issuetype.name"),
			field(is, "fields.status.name"),
			field(is, "fields.priority.name"),
			orDash(field(is, "fields.assignee.displayName")),
			Truncate(field(is, "fields.summary"), summaryWidth),
		})
	}
	return rows
}

// SearchResults renders a search response envelope as a table with a
// "showing x of y" footer.
func SearchResults(result map[string]any) string {
	issues := Maps(result["issues"])
	tw := newWriter(IssueHeaders)
	for _, r := range IssueRows(issues) {
		tw.AppendRow(toRow(r))
	}
	total := len(issues)
	if n, ok := asInt(result["total"]); ok {
		total = n
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d of %d", len(issues), total)})
	return tw.Render()
}

// TimeTracking summarizes an issue's timetracking block.
func TimeTracking(tt map[string]any) string {
	spent, _ := asInt(tt["timeSpentSeconds"])
	remaining, _ := asInt(tt["remainingEstimateSeconds"])
	parts := []string{}
	if s, ok := tt["originalEstimate"].(string); ok {
		parts = append(parts, "estimate "+s)
	}
	if spent > 0 {
		parts = append(parts, "spent "+timeutil.FormatSeconds(spent))
	}
	if remaining > 0 {
		parts = append(parts, "remaining "+timeutil.FormatSeconds(remaining))
	}
	if spent > 0 || remaining > 0 {
		parts = append(parts, timeutil.FormatProgressBar(timeutil.CalculateProgress(spent, remaining), 10))
	}
	return strings.Join(parts, ", ")
}

// Maps converts a decoded JSON list into a slice of maps, skipping other
// element types.
func Maps(v any) []map[string]any {
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
	default:
		return nil
	}
}

// asInt accepts the numeric shapes JSON decoding and map literals produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
