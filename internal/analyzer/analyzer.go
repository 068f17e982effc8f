// Package analyzer inspects one TypeScript route file at a time. It discovers
// the exported HTTP-verb handlers, infers each handler's input and output
// shape through a layered heuristic chain over the parsed syntax tree, and
// extracts a rewritten, self-contained body fragment for replay outside the
// framework. It is not a type checker; every capability of the framework and
// of the schema-validation library is recognized by call shape only.
package analyzer

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/routesmith/routesmith/internal/model"
)

// Verbs is the ordered set of recognized HTTP-verb handler names.
var Verbs = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

func isVerb(name string) bool {
	for _, v := range Verbs {
		if v == name {
			return true
		}
	}
	return false
}

// FileResult is the analysis outcome for one route file.
type FileResult struct {
	Handlers []*model.Handler
	Imports  []*model.ImportSpec
}

// Analyzer turns route-file source text into handler descriptors.
type Analyzer struct{}

// New creates an Analyzer. Analyzers are safe for concurrent use; each
// analysis run owns its own parser.
func New() *Analyzer {
	return &Analyzer{}
}

// AnalyzeFile parses and analyzes the route file at path.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*FileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route file: %w", err)
	}
	return a.AnalyzeSource(ctx, src)
}

// AnalyzeSource parses and analyzes route-file source text.
func (a *Analyzer) AnalyzeSource(ctx context.Context, src []byte) (*FileResult, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse route file: %w", err)
	}

	f := newFileScope(src, tree.RootNode())
	f.collectTopLevel()

	result := &FileResult{Imports: f.imports}
	for _, verb := range Verbs {
		decl, ok := f.handlers[verb]
		if !ok {
			continue
		}
		result.Handlers = append(result.Handlers, f.analyzeHandler(verb, decl))
	}
	return result, nil
}

// handlerDecl is one discovered verb declaration before analysis.
type handlerDecl struct {
	params     *sitter.Node // formal_parameters, may be nil
	body       *sitter.Node // statement_block, or a bare expression for arrow bodies
	returnType *sitter.Node // type_annotation, may be nil
}

// topDecl is one non-handler top-level declaration, kept for hoisting and for
// schema/helper resolution.
type topDecl struct {
	name string
	text string       // full statement text
	node *sitter.Node // the declaration node itself
	// value is the declarator initializer for const declarations, nil otherwise.
	value *sitter.Node
	order int
}

// fileScope carries the per-file analysis state.
type fileScope struct {
	src      []byte
	root     *sitter.Node
	handlers map[string]*handlerDecl
	decls    map[string]*topDecl
	declList []*topDecl
	imports  []*model.ImportSpec
	imported map[string]bool // local identifiers bound by imports
}

func newFileScope(src []byte, root *sitter.Node) *fileScope {
	return &fileScope{
		src:      src,
		root:     root,
		handlers: make(map[string]*handlerDecl),
		decls:    make(map[string]*topDecl),
		imported: make(map[string]bool),
	}
}

func (f *fileScope) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(f.src)
}

// collectTopLevel scans the program's direct children once, registering
// imports, verb handlers, and every other named declaration.
func (f *fileScope) collectTopLevel() {
	for i := 0; i < int(f.root.NamedChildCount()); i++ {
		stmt := f.root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement":
			if spec := f.parseImport(stmt); spec != nil {
				f.imports = append(f.imports, spec)
				for _, id := range spec.Identifiers() {
					f.imported[id] = true
				}
			}
		case "export_statement":
			decl := stmt.ChildByFieldName("declaration")
			if decl == nil {
				continue
			}
			f.collectDeclaration(decl, true)
		case "function_declaration", "lexical_declaration", "variable_declaration",
			"class_declaration", "type_alias_declaration", "interface_declaration",
			"enum_declaration":
			f.collectDeclaration(stmt, false)
		}
	}
}

// collectDeclaration registers one top-level declaration, exported or not.
// Only exported declarations can be verb handlers.
func (f *fileScope) collectDeclaration(decl *sitter.Node, exported bool) {
	switch decl.Type() {
	case "function_declaration":
		name := f.text(decl.ChildByFieldName("name"))
		if exported && isVerb(name) {
			f.registerHandler(name, &handlerDecl{
				params:     decl.ChildByFieldName("parameters"),
				body:       decl.ChildByFieldName("body"),
				returnType: decl.ChildByFieldName("return_type"),
			})
			return
		}
		f.registerDecl(name, decl, nil)
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			dtor := decl.NamedChild(i)
			if dtor.Type() != "variable_declarator" {
				continue
			}
			name := f.text(dtor.ChildByFieldName("name"))
			value := dtor.ChildByFieldName("value")
			if exported && isVerb(name) && value != nil && value.Type() == "arrow_function" {
				f.registerHandler(name, &handlerDecl{
					params:     arrowParameters(value),
					body:       value.ChildByFieldName("body"),
					returnType: value.ChildByFieldName("return_type"),
				})
				continue
			}
			f.registerDecl(name, decl, value)
		}
	case "class_declaration", "type_alias_declaration", "interface_declaration", "enum_declaration":
		f.registerDecl(f.text(decl.ChildByFieldName("name")), decl, nil)
	}
}

// registerHandler keeps the first declaration per verb; a later duplicate
// only backfills a missing declared return type.
func (f *fileScope) registerHandler(verb string, decl *handlerDecl) {
	if existing, ok := f.handlers[verb]; ok {
		if existing.returnType == nil && decl.returnType != nil {
			existing.returnType = decl.returnType
		}
		return
	}
	f.handlers[verb] = decl
}

func (f *fileScope) registerDecl(name string, node *sitter.Node, value *sitter.Node) {
	if name == "" {
		return
	}
	d := &topDecl{name: name, text: f.text(node), node: node, value: value, order: len(f.declList)}
	if _, ok := f.decls[name]; !ok {
		f.decls[name] = d
		f.declList = append(f.declList, d)
	}
}

// arrowParameters handles both (a, b) => and a => parameter forms.
func arrowParameters(arrow *sitter.Node) *sitter.Node {
	if p := arrow.ChildByFieldName("parameters"); p != nil {
		return p
	}
	return arrow.ChildByFieldName("parameter")
}

// analyzeHandler produces the full descriptor for one verb declaration,
// running payload detection, the inference chain, and the body rewrite.
func (f *fileScope) analyzeHandler(verb string, decl *handlerDecl) *model.Handler {
	h := &model.Handler{Verb: verb, Input: model.Unknown(), Output: model.Unknown()}
	h.ParamName = f.firstParamName(decl.params)

	pay := f.detectPayload(decl, h.ParamName)
	h.BodyVar = pay.bindingVar
	h.BodyParams = pay.destructured

	f.inferInput(h, decl, pay)
	f.rewriteBody(h, decl, pay)
	f.inferOutput(h, decl, pay)
	return h
}

// firstParamName extracts the request parameter's name, if any.
func (f *fileScope) firstParamName(params *sitter.Node) string {
	if params == nil {
		return ""
	}
	if params.Type() == "identifier" {
		return f.text(params)
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "required_parameter", "optional_parameter":
			pattern := p.ChildByFieldName("pattern")
			if pattern != nil && pattern.Type() == "identifier" {
				return f.text(pattern)
			}
			return ""
		case "identifier":
			return f.text(p)
		}
	}
	return ""
}
