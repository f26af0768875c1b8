package adf

import (
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	orderedRe = regexp.MustCompile(`^\d+[.)]\s+(.*)$`)
	bulletRe  = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	// order matters: code spans first so their content is not re-parsed
	inlineRe = regexp.MustCompile("`([^`]+)`" + `|\*\*([^*]+)\*\*|__([^_]+)__|\*([^*]+)\*|_([^_]+)_|~~([^~]+)~~|\[([^\]]+)\]\(([^)\s]+)\)`)
)

// FromMarkdown converts a subset of Markdown into a document: ATX headings,
// fenced code blocks, bullet and ordered lists, blockquotes, rules, and the
// inline marks bold, italic, code, strike and links.
func FromMarkdown(md string) *Doc {
	doc := New()
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")

	var para []string
	flush := func() {
		if len(para) == 0 {
			return
		}
		var inline []Node
		for i, l := range para {
			if i > 0 {
				inline = append(inline, Node{Type: TypeHardBreak})
			}
			inline = append(inline, parseInline(l)...)
		}
		doc.Append(Paragraph(inline...))
		para = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()

		case strings.HasPrefix(trimmed, "```"):
			flush()
			lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			var code []string
			for i++; i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```"); i++ {
				code = append(code, lines[i])
			}
			doc.Append(CodeBlock(strings.Join(code, "\n"), lang))

		case headingRe.MatchString(trimmed):
			flush()
			m := headingRe.FindStringSubmatch(trimmed)
			h := Heading(len(m[1]), "")
			h.Content = parseInline(m[2])
			doc.Append(h)

		case trimmed == "---" || trimmed == "***" || trimmed == "___":
			flush()
			doc.Append(Node{Type: TypeRule})

		case strings.HasPrefix(trimmed, ">"):
			flush()
			var quote []Node
			for ; i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), ">"); i++ {
				text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), ">"))
				quote = append(quote, Paragraph(parseInline(text)...))
			}
			i--
			doc.Append(Node{Type: TypeBlockquote, Content: quote})

		case bulletRe.MatchString(trimmed), orderedRe.MatchString(trimmed):
			flush()
			ordered := orderedRe.MatchString(trimmed)
			re := bulletRe
			if ordered {
				re = orderedRe
			}
			var items [][]Node
			for ; i < len(lines); i++ {
				m := re.FindStringSubmatch(strings.TrimSpace(lines[i]))
				if m == nil {
					break
				}
				items = append(items, parseInline(m[1]))
			}
			i--
			doc.Append(List(ordered, items...))

		default:
			para = append(para, trimmed)
		}
	}
	flush()

	if len(doc.Content) == 0 {
		doc.Append(Paragraph())
	}
	return doc
}

// parseInline splits text into text nodes carrying marks.
func parseInline(s string) []Node {
	var out []Node
	last := 0
	for _, m := range inlineRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, Text(s[last:m[0]]))
		}
		group := func(n int) string {
			if m[2*n] < 0 {
				return ""
			}
			return s[m[2*n]:m[2*n+1]]
		}
		switch {
		case m[2] >= 0:
			out = append(out, Text(group(1), Mark{Type: MarkCode}))
		case m[4] >= 0:
			out = append(out, Text(group(2), Mark{Type: MarkStrong}))
		case m[6] >= 0:
			out = append(out, Text(group(3), Mark{Type: MarkStrong}))
		case m[8] >= 0:
			out = append(out, Text(group(4), Mark{Type: MarkEm}))
		case m[10] >= 0:
			out = append(out, Text(group(5), Mark{Type: MarkEm}))
		case m[12] >= 0:
			out = append(out, Text(group(6), Mark{Type: MarkStrike}))
		case m[14] >= 0:
			out = append(out, Link(group(7), group(8)))
		}
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Text(s[last:]))
	}
	return out
}
