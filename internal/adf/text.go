package adf

import (
	"strings"
)

// ToText flattens an ADF value into plain text. It accepts plain strings,
// *Doc and the map[string]any shape returned by the API. Block nodes are
// separated by newlines and list items are prefixed with "- ".
func ToText(v any) string {
	var b strings.Builder
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *Doc:
		if t == nil {
			return ""
		}
		writeMap(&b, t.Map(), "")
	case Doc:
		writeMap(&b, t.Map(), "")
	case map[string]any:
		writeMap(&b, t, "")
	default:
		return ""
	}
	return strings.TrimSpace(b.String())
}

func writeMap(b *strings.Builder, n map[string]any, prefix string) {
	typ, _ := n["type"].(string)
	children, _ := n["content"].([]any)

	switch typ {
	case TypeText:
		s, _ := n["text"].(string)
		b.WriteString(s)
		return
	case TypeHardBreak:
		b.WriteString("\n")
		return
	case TypeMention:
		if attrs, ok := n["attrs"].(map[string]any); ok {
			if s, ok := attrs["text"].(string); ok {
				b.WriteString(s)
			}
		}
		return
	case TypeListItem:
		b.WriteString(prefix)
	}

	childPrefix := prefix
	if typ == TypeBulletList || typ == TypeOrderedList {
		childPrefix = "- "
	}
	for _, c := range children {
		if m, ok := c.(map[string]any); ok {
			writeMap(b, m, childPrefix)
		}
	}

	switch typ {
	case TypeParagraph, TypeHeading, TypeCodeBlock, TypeRule:
		b.WriteString("\n")
	}
}
