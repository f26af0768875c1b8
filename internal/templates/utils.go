package templates

import (
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// FuncMap returns the sprig text functions plus the jiraas helpers.
func FuncMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["formatJiraDate"] = formatJiraDate
	fm["dig"] = templateDig
	fm["mdCell"] = mdCell
	fm["sortedKeys"] = sortedKeys
	fm["orDefault"] = orDefault
	return fm
}
