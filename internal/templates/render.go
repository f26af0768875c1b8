package templates

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderError describes a failed template execution.
type RenderError struct {
	Type    string
	Message string
	Detail  string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
}

// NewRenderError returns a RenderError.
func NewRenderError(typ, msg, detail string) *RenderError {
	return &RenderError{Type: typ, Message: msg, Detail: detail}
}

// Render executes the named template with data.
func Render(tmpl *template.Template, name string, data any) (string, error) {
	if tmpl.Lookup(name) == nil {
		return "", NewRenderError("template", "template not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError("template", "execution failed", err.Error())
	}
	return buf.String(), nil
}
