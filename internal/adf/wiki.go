package adf

import (
	"regexp"
	"strings"
)

var (
	wikiHeadingRe = regexp.MustCompile(`^h([1-6])\.\s+(.*)$`)
	wikiCodeRe    = regexp.MustCompile(`^\{(code|noformat)(?::([^}]*))?\}(.*)$`)
	wikiBulletRe  = regexp.MustCompile(`^[*-]\s+(.*)$`)
	wikiNumberRe  = regexp.MustCompile(`^#\s+(.*)$`)
	wikiInlineRe  = regexp.MustCompile(`\{\{([^}]+)\}\}|\*([^*\s][^*]*)\*|_([^_\s][^_]*)_|\[([^|\]]+)\|([^\]]+)\]`)
)

// FromWikiMarkup converts Jira wiki markup into a document. Supported:
// h1. to h6. headings, {code}/{noformat} blocks, * and # lists, ----,
// *bold*, _italic_, {{monospace}} and [text|url] links.
func FromWikiMarkup(wiki string) *Doc {
	doc := New()
	lines := strings.Split(strings.ReplaceAll(wiki, "\r\n", "\n"), "\n")

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
			inline = append(inline, parseWikiInline(l)...)
		}
		doc.Append(Paragraph(inline...))
		para = nil
	}

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case trimmed == "":
			flush()

		case wikiCodeRe.MatchString(trimmed):
			flush()
			m := wikiCodeRe.FindStringSubmatch(trimmed)
			closing := "{" + m[1] + "}"
			var code []string
			if rest := m[3]; rest != "" {
				if before, ok := strings.CutSuffix(rest, closing); ok {
					doc.Append(CodeBlock(before, m[2]))
					continue
				}
				code = append(code, rest)
			}
			for i++; i < len(lines) && strings.TrimSpace(lines[i]) != closing; i++ {
				code = append(code, lines[i])
			}
			doc.Append(CodeBlock(strings.Join(code, "\n"), m[2]))

		case wikiHeadingRe.MatchString(trimmed):
			flush()
			m := wikiHeadingRe.FindStringSubmatch(trimmed)
			h := Heading(int(m[1][0]-'0'), "")
			h.Content = parseWikiInline(m[2])
			doc.Append(h)

		case trimmed == "----":
			flush()
			doc.Append(Node{Type: TypeRule})

		case wikiBulletRe.MatchString(trimmed), wikiNumberRe.MatchString(trimmed):
			flush()
			ordered := wikiNumberRe.MatchString(trimmed)
			re := wikiBulletRe
			if ordered {
				re = wikiNumberRe
			}
			var items [][]Node
			for ; i < len(lines); i++ {
				m := re.FindStringSubmatch(strings.TrimSpace(lines[i]))
				if m == nil {
					break
				}
				items = append(items, parseWikiInline(m[1]))
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

// parseWikiInline splits a wiki line into text nodes carrying marks.
func parseWikiInline(s string) []Node {
	var out []Node
	last := 0
	for _, m := range wikiInlineRe.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			out = append(out, Text(s[last:m[0]]))
		}
		sub := func(n int) string { return s[m[2*n]:m[2*n+1]] }
		switch {
		case m[2] >= 0:
			out = append(out, Text(sub(1), Mark{Type: MarkCode}))
		case m[4] >= 0:
			out = append(out, Text(sub(2), Mark{Type: MarkStrong}))
		case m[6] >= 0:
			out = append(out, Text(sub(3), Mark{Type: MarkEm}))
		case m[8] >= 0:
			out = append(out, Link(sub(4), sub(5)))
		}
		last = m[1]
	}
	if last < len(s) {
		out = append(out, Text(s[last:]))
	}
	return out
}
