// Package compliance compares the REST client against the published
// OpenAPI descriptions of the Jira platform, Agile and Service Management
// APIs and renders the result as a markdown report.
package compliance

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// clientType is the receiver whose exported methods are reviewed.
const clientType = "Client"

// Method describes one exported client method and the request it sends.
type Method struct {
	Name           string
	Endpoint       string
	HTTPMethod     string
	Params         []string // function parameters, context excluded
	OptionalParams []string // fields of option struct parameters
	QueryParams    []string // query keys set in the body
	HasBody        bool
	Doc            string
	File           string
	Line           int
	Category       string
}

func (m Method) String() string {
	return fmt.Sprintf("%s() -> %s %s", m.Name, m.HTTPMethod, m.Endpoint)
}

// callShape locates method, path and body among the arguments of a request
// helper. Indexes are -1 when absent.
type callShape struct {
	method    string // fixed verb, empty when read from methodArg
	methodArg int
	pathArg   int
	bodyArg   int
	prefix    string // constant prepended to the path
}

// requestHelpers are the client methods that send a request.
var requestHelpers = map[string]callShape{
	"Get":             {method: "GET", methodArg: -1, pathArg: 1, bodyArg: -1},
	"Post":            {method: "POST", methodArg: -1, pathArg: 1, bodyArg: 2},
	"Put":             {method: "PUT", methodArg: -1, pathArg: 1, bodyArg: 2},
	"Delete":          {method: "DELETE", methodArg: -1, pathArg: 1, bodyArg: -1},
	"CollectPages":    {method: "GET", methodArg: -1, pathArg: 1, bodyArg: -1},
	"send":            {methodArg: 1, pathArg: 2, bodyArg: 3},
	"call":            {methodArg: 1, pathArg: 2, bodyArg: 4},
	"jsm":             {methodArg: 1, pathArg: 2, bodyArg: 4, prefix: "deskPath"},
	"jsmExperimental": {methodArg: 1, pathArg: 2, bodyArg: 4, prefix: "deskPath"},
}

// specBuilders are package functions returning a request description.
var specBuilders = map[string]callShape{
	"jsonSpec": {methodArg: 0, pathArg: 1, bodyArg: 3},
}

// transportMethods are exported plumbing, not REST operations.
var transportMethods = []string{"Get", "Post", "Put", "Delete", "CollectPages", "Close"}

// pkgInfo holds package level declarations needed to evaluate paths.
type pkgInfo struct {
	consts  map[string]string
	structs map[string][]string
	funcs   map[string]ast.Expr // helpers returning a single expression
	locals  map[string]ast.Expr // assignments of the method being read
}

// maxPathDepth bounds helper and local substitution.
const maxPathDepth = 8

// ExtractMethods parses the Go file or package directory at path and
// returns the exported methods of Client in source order.
func ExtractMethods(path string) ([]Method, error) {
	files, err := goFiles(path)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	parsed := make([]*ast.File, 0, len(files))
	for _, f := range files {
		af, err := parser.ParseFile(fset, f, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f, err)
		}
		parsed = append(parsed, af)
	}

	info := collectDecls(parsed)
	var methods []Method
	for _, af := range parsed {
		for _, decl := range af.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || !isClientMethod(fn) || !fn.Name.IsExported() || slices.Contains(transportMethods, fn.Name.Name) {
				continue
			}
			m := info.method(fn)
			pos := fset.Position(fn.Pos())
			m.File = filepath.Base(pos.Filename)
			m.Line = pos.Line
			m.Category = Categorize(m)
			methods = append(methods, m)
		}
	}
	return methods, nil
}

// goFiles lists the non-test Go files at path.
func goFiles(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		out = append(out, filepath.Join(path, name))
	}
	slices.Sort(out)
	return out, nil
}

func isClientMethod(fn *ast.FuncDecl) bool {
	if fn.Recv == nil || len(fn.Recv.List) != 1 {
		return false
	}
	t := fn.Recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	id, ok := t.(*ast.Ident)
	return ok && id.Name == clientType
}

// collectDecls gathers string constants and struct field names.
func collectDecls(files []*ast.File) pkgInfo {
	info := pkgInfo{consts: map[string]string{}, structs: map[string][]string{}, funcs: map[string]ast.Expr{}}
	var pending []*ast.ValueSpec
	for _, af := range files {
		for _, decl := range af.Decls {
			if fn, ok := decl.(*ast.FuncDecl); ok {
				if fn.Recv == nil {
					if e := singleReturn(fn); e != nil {
						info.funcs[fn.Name.Name] = e
					}
				}
				continue
			}
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gd.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					if gd.Tok == token.CONST {
						pending = append(pending, s)
					}
				case *ast.TypeSpec:
					st, ok := s.Type.(*ast.StructType)
					if !ok {
						continue
					}
					var fields []string
					for _, f := range st.Fields.List {
						for _, n := range f.Names {
							fields = append(fields, n.Name)
						}
					}
					info.structs[s.Name.Name] = fields
				}
			}
		}
	}
	// constants may refer to each other; resolve until nothing changes
	for changed := true; changed; {
		changed = false
		for _, s := range pending {
			for i, n := range s.Names {
				if _, done := info.consts[n.Name]; done || i >= len(s.Values) {
					continue
				}
				if v, ok := info.constString(s.Values[i]); ok {
					info.consts[n.Name] = v
					changed = true
				}
			}
		}
	}
	return info
}

// constString evaluates a constant string expression.
func (p pkgInfo) constString(e ast.Expr) (string, bool) {
	switch x := e.(type) {
	case *ast.BasicLit:
		if x.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(x.Value)
		return s, err == nil
	case *ast.Ident:
		v, ok := p.consts[x.Name]
		return v, ok
	case *ast.BinaryExpr:
		if x.Op != token.ADD {
			return "", false
		}
		l, ok := p.constString(x.X)
		if !ok {
			return "", false
		}
		r, ok := p.constString(x.Y)
		return l + r, ok
	case *ast.ParenExpr:
		return p.constString(x.X)
	}
	return "", false
}

// method builds the description of one client method.
func (p pkgInfo) method(fn *ast.FuncDecl) Method {
	m := Method{Name: fn.Name.Name}
	if fn.Doc != nil {
		m.Doc = strings.TrimSpace(fn.Doc.Text())
	}
	for _, f := range fn.Type.Params.List {
		typeName := baseTypeName(f.Type)
		for _, n := range f.Names {
			if typeName == "Context" {
				continue
			}
			m.Params = append(m.Params, n.Name)
		}
		if fields, ok := p.structs[typeName]; ok {
			m.OptionalParams = append(m.OptionalParams, fields...)
		}
	}
	if fn.Body == nil {
		return m
	}
	p.locals = collectLocals(fn.Body)

	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.CallExpr:
			p.request(&m, x)
			m.QueryParams = appendQueryKey(m.QueryParams, x)
		case *ast.CompositeLit:
			p.specLiteral(&m, x)
			m.QueryParams = appendValuesKeys(m.QueryParams, x)
		}
		return true
	})
	return m
}

// request records the endpoint of a request helper call. Later calls win.
func (p pkgInfo) request(m *Method, call *ast.CallExpr) {
	var (
		shape callShape
		found bool
	)
	switch f := call.Fun.(type) {
	case *ast.SelectorExpr:
		if _, isRecv := f.X.(*ast.Ident); isRecv {
			shape, found = requestHelpers[f.Sel.Name]
		}
	case *ast.Ident:
		shape, found = specBuilders[f.Name]
	}
	if !found || shape.pathArg >= len(call.Args) {
		return
	}

	verb := shape.method
	if shape.methodArg >= 0 && shape.methodArg < len(call.Args) {
		verb = httpVerb(call.Args[shape.methodArg])
	}
	path := p.pathOf(call.Args[shape.pathArg])
	if shape.prefix != "" {
		path = p.consts[shape.prefix] + path
	}
	m.Endpoint = path
	m.HTTPMethod = verb
	m.HasBody = shape.bodyArg >= 0 && shape.bodyArg < len(call.Args) && !isNil(call.Args[shape.bodyArg])
}

// specLiteral records a request built as a RequestSpec literal.
func (p pkgInfo) specLiteral(m *Method, lit *ast.CompositeLit) {
	if baseTypeName(lit.Type) != "RequestSpec" {
		return
	}
	verb, path, body := "GET", "", false
	for _, el := range lit.Elts {
		kv, ok := el.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key, _ := kv.Key.(*ast.Ident)
		if key == nil {
			continue
		}
		switch key.Name {
		case "Method":
			verb = httpVerb(kv.Value)
		case "Path":
			path = p.pathOf(kv.Value)
		case "Body":
			body = !isNil(kv.Value)
		}
	}
	if path == "" {
		return
	}
	m.Endpoint, m.HTTPMethod, m.HasBody = path, verb, body
}

// pathOf renders a path expression with {placeholders} for variables.
func (p pkgInfo) pathOf(e ast.Expr) string {
	return p.path(e, 0)
}

func (p pkgInfo) path(e ast.Expr, depth int) string {
	if s, ok := p.constString(e); ok {
		return s
	}
	switch x := e.(type) {
	case *ast.Ident:
		if local, ok := p.locals[x.Name]; ok && depth < maxPathDepth {
			if s := p.path(local, depth+1); strings.HasPrefix(s, "/") {
				return s
			}
		}
		return "{" + x.Name + "}"
	case *ast.SelectorExpr:
		return "{" + x.Sel.Name + "}"
	case *ast.BinaryExpr:
		if x.Op == token.ADD {
			return p.path(x.X, depth) + p.path(x.Y, depth)
		}
	case *ast.ParenExpr:
		return p.path(x.X, depth)
	case *ast.CallExpr:
		if isSprintf(x) && len(x.Args) > 0 {
			if format, ok := p.constString(x.Args[0]); ok {
				return p.expandFormat(format, x.Args[1:], depth)
			}
		}
		if id, ok := x.Fun.(*ast.Ident); ok && depth < maxPathDepth {
			if body, ok := p.funcs[id.Name]; ok {
				if s := p.path(body, depth+1); strings.HasPrefix(s, "/") {
					return s
				}
			}
		}
		// escape(key), itoa(id) and friends keep their argument's name
		if len(x.Args) == 1 {
			return p.path(x.Args[0], depth)
		}
	}
	return "{param}"
}

// expandFormat substitutes the verbs of a Sprintf format with the
// rendered arguments.
func (p pkgInfo) expandFormat(format string, args []ast.Expr, depth int) string {
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		if format[i] == '%' {
			b.WriteByte('%')
			continue
		}
		// skip flags and width up to the verb letter
		for i < len(format) && !isVerb(format[i]) {
			i++
		}
		if next < len(args) {
			b.WriteString(p.path(args[next], depth))
		} else {
			b.WriteString("{param}")
		}
		next++
	}
	return b.String()
}

// singleReturn returns the expression of a function whose body is a single
// return statement.
func singleReturn(fn *ast.FuncDecl) ast.Expr {
	if fn.Body == nil || len(fn.Body.List) != 1 {
		return nil
	}
	ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return nil
	}
	return ret.Results[0]
}

// collectLocals maps variables to the expression last assigned to them.
func collectLocals(body *ast.BlockStmt) map[string]ast.Expr {
	locals := map[string]ast.Expr{}
	ast.Inspect(body, func(n ast.Node) bool {
		as, ok := n.(*ast.AssignStmt)
		if !ok || len(as.Lhs) != len(as.Rhs) {
			return true
		}
		for i, l := range as.Lhs {
			if id, ok := l.(*ast.Ident); ok && id.Name != "_" {
				locals[id.Name] = as.Rhs[i]
			}
		}
		return true
	})
	return locals
}

func isVerb(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSprintf(call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "fmt" && sel.Sel.Name == "Sprintf"
}

// httpVerb reads http.MethodX selectors and string literals.
func httpVerb(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.SelectorExpr:
		if strings.HasPrefix(x.Sel.Name, "Method") {
			return strings.ToUpper(strings.TrimPrefix(x.Sel.Name, "Method"))
		}
	case *ast.BasicLit:
		if s, err := strconv.Unquote(x.Value); err == nil {
			return strings.ToUpper(s)
		}
	}
	return ""
}

func isNil(e ast.Expr) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == "nil"
}

// baseTypeName strips pointers, slices and package qualifiers.
func baseTypeName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.StarExpr:
		return baseTypeName(x.X)
	case *ast.ArrayType:
		return baseTypeName(x.Elt)
	case *ast.SelectorExpr:
		return x.Sel.Name
	}
	return ""
}

// appendQueryKey records keys passed to q.Set, q.Add and list helpers.
func appendQueryKey(keys []string, call *ast.CallExpr) []string {
	var arg ast.Expr
	switch f := call.Fun.(type) {
	case *ast.SelectorExpr:
		if (f.Sel.Name == "Set" || f.Sel.Name == "Add") && len(call.Args) == 2 {
			arg = call.Args[0]
		}
	case *ast.Ident:
		if strings.HasPrefix(f.Name, "set") && len(call.Args) >= 2 {
			arg = call.Args[1]
		}
	}
	return appendLiteral(keys, arg)
}

// appendValuesKeys records the keys of url.Values literals.
func appendValuesKeys(keys []string, lit *ast.CompositeLit) []string {
	if baseTypeName(lit.Type) != "Values" {
		return keys
	}
	for _, el := range lit.Elts {
		if kv, ok := el.(*ast.KeyValueExpr); ok {
			keys = appendLiteral(keys, kv.Key)
		}
	}
	return keys
}

func appendLiteral(keys []string, e ast.Expr) []string {
	lit, ok := e.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return keys
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil || slices.Contains(keys, s) {
		return keys
	}
	return append(keys, s)
}
