// Package templates parses and executes the text templates used for
// generated reports.
package templates

import (
	"io/fs"
	"text/template"
)

// Parse parses the templates matching patterns in fsys with FuncMap and
// the optional extra functions.
func Parse(name string, extra template.FuncMap, fsys fs.FS, patterns ...string) (*template.Template, error) {
	return template.New(name).Funcs(FuncMap()).Funcs(extra).ParseFS(fsys, patterns...)
}

// MustParse is like Parse but panics on error.
func MustParse(name string, extra template.FuncMap, fsys fs.FS, patterns ...string) *template.Template {
	return template.Must(Parse(name, extra, fsys, patterns...))
}
