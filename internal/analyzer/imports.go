package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/routesmith/routesmith/internal/model"
)

// parseImport converts one import_statement into an ImportSpec. Side-effect
// imports (no clause) are dropped; they bind nothing an artifact could need.
func (f *fileScope) parseImport(stmt *sitter.Node) *model.ImportSpec {
	source := stmt.ChildByFieldName("source")
	module, ok := f.stringLiteral(source)
	if !ok {
		return nil
	}
	spec := &model.ImportSpec{Module: module}
	spec.TypeOnly = strings.HasPrefix(f.text(stmt), "import type")

	var clause *sitter.Node
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		if c := stmt.NamedChild(i); c.Type() == "import_clause" {
			clause = c
			break
		}
	}
	if clause == nil {
		return nil
	}

	for i := 0; i < int(clause.NamedChildCount()); i++ {
		part := clause.NamedChild(i)
		switch part.Type() {
		case "identifier":
			spec.Default = f.text(part)
		case "namespace_import":
			// * as name
			for j := 0; j < int(part.NamedChildCount()); j++ {
				if id := part.NamedChild(j); id.Type() == "identifier" {
					spec.Namespace = f.text(id)
				}
			}
		case "named_imports":
			for j := 0; j < int(part.NamedChildCount()); j++ {
				is := part.NamedChild(j)
				if is.Type() != "import_specifier" {
					continue
				}
				ni := model.NamedImport{Name: f.text(is.ChildByFieldName("name"))}
				if alias := is.ChildByFieldName("alias"); alias != nil {
					ni.Alias = f.text(alias)
				}
				spec.Named = append(spec.Named, ni)
			}
		}
	}
	if spec.Default == "" && spec.Namespace == "" && len(spec.Named) == 0 {
		return nil
	}
	return spec
}
