package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gi8lino/jiraas/internal/adf"
	"github.com/gi8lino/jiraas/internal/validators"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Output names a rendering style accepted by Render.
type Output string

const (
	OutputTable Output = "table"
	OutputJSON  Output = "json"
	OutputCSV   Output = "csv"
)

// summaryWidth bounds the summary column in issue tables.
const summaryWidth = 60

// newWriter returns a table writer with the style used for all tables.
func newWriter(headers []string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false
	if len(headers) > 0 {
		tw.AppendHeader(toRow(headers))
	}
	return tw
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

// Table renders headers and rows as a box drawn table.
func Table(headers []string, rows [][]string) string {
	tw := newWriter(headers)
	for _, r := range rows {
		tw.AppendRow(toRow(r))
	}
	return tw.Render()
}

// CSV renders headers and rows as CSV.
func CSV(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	if len(headers) > 0 {
		tw.AppendHeader(toRow(headers))
	}
	for _, r := range rows {
		tw.AppendRow(toRow(r))
	}
	return tw.RenderCSV()
}

// WriteCSV writes CSV output followed by a newline to w.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	_, err := fmt.Fprintln(w, CSV(headers, rows))
	return err
}

// JSON renders v as indented JSON.
func JSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}

// Render writes tabular data in the requested output style. JSON output
// encodes raw instead of the rows.
func Render(w io.Writer, out Output, headers []string, rows [][]string, raw any) error {
	switch out {
	case OutputJSON:
		s, err := JSON(raw)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, s)
		return err
	case OutputCSV:
		return WriteCSV(w, headers, rows)
	default:
		_, err := fmt.Fprintln(w, Table(headers, rows))
		return err
	}
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Wrap wraps s at width columns.
func Wrap(s string, width int) string {
	return text.WrapSoft(s, width)
}

// field returns a nested string or "" for issue maps.
func field(obj map[string]any, path string) string {
	return validators.NestedString(obj, path, "")
}

func nestedAny(obj map[string]any, path string) any {
	return validators.SafeGetNested(obj, path, nil)
}

// orDash replaces empty values with "-".
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Description renders a description value (ADF or plain text) as text.
func Description(v any) string {
	return adf.ToText(v)
}

// joinNames joins the "name" of every map in list.
func joinNames(list any) string {
	items, ok := list.([]any)
	if !ok {
		return ""
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			names = append(names, v)
		case map[string]any:
			if n, ok := v["name"].(string); ok {
				names = append(names, n)
			}
		}
	}
	return strings.Join(names, ", ")
}
