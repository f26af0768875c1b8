package adf

import (
	"encoding/json"
	"strings"
)

// Node types used by the converters.
const (
	TypeDoc         = "doc"
	TypeParagraph   = "paragraph"
	TypeText        = "text"
	TypeHardBreak   = "hardBreak"
	TypeHeading     = "heading"
	TypeBulletList  = "bulletList"
	TypeOrderedList = "orderedList"
	TypeListItem    = "listItem"
	TypeCodeBlock   = "codeBlock"
	TypeBlockquote  = "blockquote"
	TypeRule        = "rule"
	TypeMention     = "mention"
)

// Mark types.
const (
	MarkStrong = "strong"
	MarkEm     = "em"
	MarkCode   = "code"
	MarkStrike = "strike"
	MarkLink   = "link"
)

// Doc is an Atlassian Document Format document as used by rich text fields
// of the v3 API.
type Doc struct {
	Version int    `json:"version"`
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// Node is a block or inline element.
type Node struct {
	Type    string         `json:"type"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Mark is inline formatting applied to a text node.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// New returns an empty document.
func New() *Doc {
	return &Doc{Version: 1, Type: TypeDoc, Content: []Node{}}
}

// Text returns a plain text node.
func Text(s string, marks ...Mark) Node {
	return Node{Type: TypeText, Text: s, Marks: marks}
}

// Paragraph returns a paragraph of the given inline nodes.
func Paragraph(inline ...Node) Node {
	return Node{Type: TypeParagraph, Content: inline}
}

// Heading returns a heading node, clamping level to 1..6.
func Heading(level int, text string) Node {
	level = min(max(level, 1), 6)
	return Node{
		Type:    TypeHeading,
		Attrs:   map[string]any{"level": level},
		Content: []Node{Text(text)},
	}
}

// CodeBlock returns a code block with an optional language.
func CodeBlock(code, language string) Node {
	n := Node{Type: TypeCodeBlock, Content: []Node{Text(code)}}
	if language != "" {
		n.Attrs = map[string]any{"language": language}
	}
	return n
}

// List returns a bullet or ordered list whose items hold one paragraph each.
func List(ordered bool, items ...[]Node) Node {
	n := Node{Type: TypeBulletList}
	if ordered {
		n.Type = TypeOrderedList
	}
	for _, inline := range items {
		n.Content = append(n.Content, Node{Type: TypeListItem, Content: []Node{Paragraph(inline...)}})
	}
	return n
}

// Link returns a linked text node.
func Link(text, href string) Node {
	return Text(text, Mark{Type: MarkLink, Attrs: map[string]any{"href": href}})
}

// Append adds block nodes to the document and returns it.
func (d *Doc) Append(nodes ...Node) *Doc {
	d.Content = append(d.Content, nodes...)
	return d
}

// Map returns the document as a JSON-shaped map, ready to embed in request
// bodies built from map[string]any.
func (d *Doc) Map() map[string]any {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// FromText builds a document from plain text. Blank lines separate
// paragraphs; single newlines become hard breaks.
func FromText(text string) *Doc {
	doc := New()
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for block := range strings.SplitSeq(text, "\n\n") {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		var inline []Node
		for i, line := range strings.Split(block, "\n") {
			if i > 0 {
				inline = append(inline, Node{Type: TypeHardBreak})
			}
			if line != "" {
				inline = append(inline, Text(line))
			}
		}
		doc.Append(Paragraph(inline...))
	}
	if len(doc.Content) == 0 {
		doc.Append(Paragraph(Text(text)))
	}
	return doc
}

// Ensure converts v into an ADF map: strings are wrapped with FromText,
// documents are converted, and maps are passed through.
func Ensure(v any) any {
	switch t := v.(type) {
	case string:
		return FromText(t).Map()
	case *Doc:
		return t.Map()
	case Doc:
		return t.Map()
	default:
		return v
	}
}
