package format

import (
	"fmt"
	"strings"
)

// Comments renders comments as "author (created):" headed blocks.
func Comments(comments []map[string]any) string {
	if len(comments) == 0 {
		return "No comments."
	}
	var b strings.Builder
	for i, c := range comments {
		if i > 0 {
			b.WriteString("\n")
		}
		author := orDash(field(c, "author.displayName"))
		fmt.Fprintf(&b, "%s (%s)", author, field(c, "created"))
		if pub, ok := c["public"].(bool); ok && !pub {
			b.WriteString(" [internal]")
		}
		b.WriteString(":\n")
		for line := range strings.SplitSeq(Description(c["body"]), "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// TransitionHeaders are the columns produced by TransitionRows.
var TransitionHeaders = []string{"ID", "Name", "To"}

// TransitionRows converts transitions into rows matching TransitionHeaders.
func TransitionRows(transitions []map[string]any) [][]string {
	rows := make([][]string, 0, len(transitions))
	for _, t := range transitions {
		rows = append(rows, []string{
			field(t, "id"),
			field(t, "name"),
			orDash(field(t, "to.name")),
		})
	}
	return rows
}

// Transitions renders transitions as a table.
func Transitions(transitions []map[string]any) string {
	if len(transitions) == 0 {
		return "No transitions available."
	}
	return Table(TransitionHeaders, TransitionRows(transitions))
}

// SLAHeaders are the columns produced by SLARows.
var SLAHeaders = []string{"ID", "Name", "Remaining", "Breach", "Breached"}

// SLARows converts JSM SLA metrics into rows matching SLAHeaders.
func SLARows(slas []map[string]any) [][]string {
	rows := make([][]string, 0, len(slas))
	for _, s := range slas {
		breached := "no"
		if b, ok := nestedAny(s, "ongoingCycle.breached").(bool); ok && b {
			breached = "yes"
		}
		rows = append(rows, []string{
			field(s, "id"),
			field(s, "name"),
			orDash(field(s, "ongoingCycle.remainingTime.friendly")),
			orDash(field(s, "ongoingCycle.breachTime.friendly")),
			breached,
		})
	}
	return rows
}

// SLA renders JSM SLA metrics with their ongoing cycle state.
func SLA(slas []map[string]any) string {
	return Table(SLAHeaders, SLARows(slas))
}
