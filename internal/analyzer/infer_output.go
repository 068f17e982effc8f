package analyzer

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/routesmith/routesmith/internal/model"
)

// responseWrappers are the recognized response-wrapper constructor names.
var responseWrappers = map[string]bool{
	"NextResponse": true,
	"Response":     true,
}

// inferOutput resolves the handler's response payload type. The declared
// return type is unwrapped one async layer; a recognized response wrapper
// defers to the return statements, anything else is used verbatim.
func (f *fileScope) inferOutput(h *model.Handler, decl *handlerDecl, pay *payload) {
	if h.Marker == model.MarkerRedirect {
		h.Output = model.Void()
		return
	}

	typeNode := f.declaredReturnType(decl)
	wrapper, genericArg := f.wrapperShape(typeNode)

	if typeNode != nil && !wrapper {
		h.Output = model.Named(f.text(typeNode))
		return
	}

	// Wrapper type or no annotation at all: inspect the return statements.
	if t := f.inferFromReturns(decl.body, h, pay); t != nil {
		h.Output = t
		return
	}

	// No return matched; fall back to the resolved type's own text.
	if genericArg != nil {
		h.Output = model.Named(f.text(genericArg))
		return
	}
	if typeNode != nil {
		h.Output = model.Named(f.text(typeNode))
		return
	}
	h.Output = model.Unknown()
}

// declaredReturnType returns the annotated return type with one Promise layer
// unwrapped, or nil.
func (f *fileScope) declaredReturnType(decl *handlerDecl) *sitter.Node {
	if decl.returnType == nil {
		return nil
	}
	typeNode := decl.returnType.NamedChild(0)
	if typeNode == nil {
		return nil
	}
	if typeNode.Type() == "generic_type" && f.text(typeNode.ChildByFieldName("name")) == "Promise" {
		if args := typeNode.ChildByFieldName("type_arguments"); args != nil && args.NamedChildCount() > 0 {
			return args.NamedChild(0)
		}
	}
	return typeNode
}

// wrapperShape reports whether the type node is a recognized response wrapper
// and returns its generic payload argument when present.
func (f *fileScope) wrapperShape(typeNode *sitter.Node) (bool, *sitter.Node) {
	if typeNode == nil {
		return false, nil
	}
	switch typeNode.Type() {
	case "type_identifier":
		return responseWrappers[f.text(typeNode)], nil
	case "generic_type":
		name := f.text(typeNode.ChildByFieldName("name"))
		if !responseWrappers[name] {
			return false, nil
		}
		if args := typeNode.ChildByFieldName("type_arguments"); args != nil && args.NamedChildCount() > 0 {
			return true, args.NamedChild(0)
		}
		return true, nil
	}
	return false, nil
}

// inferFromReturns scans the handler's own return statements, skipping nested
// function literals, and resolves the payload type of the first recognized
// response construction.
func (f *fileScope) inferFromReturns(body *sitter.Node, h *model.Handler, pay *payload) *model.TypeExpr {
	if body == nil {
		return nil
	}
	var result *model.TypeExpr

	consider := func(expr *sitter.Node) bool {
		// Error responses become throws and never shape the success payload.
		payloadNode, status, ok := f.responseConstruction(expr)
		if !ok || payloadNode == nil || status >= 400 {
			return false
		}
		if t := f.typeOfExpr(payloadNode, h, pay, 0); !t.IsUnknown() {
			result = t
			return true
		}
		return false
	}

	if body.Type() != "statement_block" {
		// Expression-bodied arrow: the expression is the return value.
		consider(unwrapExpr(body))
		return result
	}
	walk(body, func(n *sitter.Node) bool {
		if result != nil {
			return false
		}
		switch n.Type() {
		case "arrow_function", "function_expression", "function_declaration", "method_definition":
			return false
		case "return_statement":
			if expr := n.NamedChild(0); expr != nil {
				consider(unwrapExpr(expr))
			}
		}
		return true
	})
	return result
}

// typeOfExpr is the shared expression-shape heuristic used by output
// inference. It is shallow on purpose: literals, local declarations, the
// validated payload variable, and annotated helper calls.
func (f *fileScope) typeOfExpr(n *sitter.Node, h *model.Handler, pay *payload, depth int) *model.TypeExpr {
	n = unwrapExpr(n)
	if n == nil || depth > 6 {
		return model.Unknown()
	}
	switch n.Type() {
	case "string", "template_string":
		return model.Primitive("string")
	case "number":
		return model.Primitive("number")
	case "true", "false":
		return model.Primitive("boolean")
	case "array":
		if n.NamedChildCount() > 0 {
			return model.Array(f.typeOfExpr(n.NamedChild(0), h, pay, depth+1))
		}
		return model.Array(model.Unknown())
	case "object":
		var fields []model.Field
		for i := 0; i < int(n.NamedChildCount()); i++ {
			pair := n.NamedChild(i)
			switch pair.Type() {
			case "pair":
				key := pair.ChildByFieldName("key")
				keyText := f.text(key)
				if v, ok := f.stringLiteral(key); ok {
					keyText = v
				}
				fields = append(fields, model.Field{
					Name: keyText,
					Type: f.typeOfExpr(pair.ChildByFieldName("value"), h, pay, depth+1),
				})
			case "shorthand_property_identifier":
				fields = append(fields, model.Field{
					Name: f.text(pair),
					Type: f.typeOfLocal(f.text(pair), n, h, pay, depth+1),
				})
			}
		}
		return model.Record(fields)
	case "identifier":
		return f.typeOfLocal(f.text(n), n, h, pay, depth)
	case "as_expression", "satisfies_expression":
		if n.NamedChildCount() > 1 {
			return model.Named(f.text(n.NamedChild(1)))
		}
		return model.Unknown()
	case "call_expression":
		recv, method, args, ok := f.callShape(n)
		if !ok {
			return model.Unknown()
		}
		if validatorMethods[method] && recv != "" {
			return h.Input
		}
		if recv == "JSON" && method == "stringify" && len(args) > 0 {
			return f.typeOfExpr(args[0], h, pay, depth+1)
		}
		if recv == "" {
			if d, ok := f.decls[method]; ok && d.node.Type() == "function_declaration" {
				if rt := d.node.ChildByFieldName("return_type"); rt != nil {
					text := f.text(rt.NamedChild(0))
					text = strings.TrimSuffix(strings.TrimPrefix(text, "Promise<"), ">")
					return model.Named(text)
				}
			}
		}
		return model.Unknown()
	case "binary_expression":
		op := f.text(n.ChildByFieldName("operator"))
		if op == "+" {
			left := f.typeOfExpr(n.ChildByFieldName("left"), h, pay, depth+1)
			right := f.typeOfExpr(n.ChildByFieldName("right"), h, pay, depth+1)
			if left.String() == "string" || right.String() == "string" {
				return model.Primitive("string")
			}
			return model.Primitive("number")
		}
		if arithmeticOps[op] {
			return model.Primitive("number")
		}
		if booleanOps[op] {
			return model.Primitive("boolean")
		}
		return model.Unknown()
	default:
		return model.Unknown()
	}
}

// typeOfLocal resolves an identifier against the validated payload variable,
// a local declaration inside the handler, or a top-level declaration.
func (f *fileScope) typeOfLocal(name string, at *sitter.Node, h *model.Handler, pay *payload, depth int) *model.TypeExpr {
	if pay.validatedVar != "" && name == pay.validatedVar {
		return h.Input
	}
	if pay.bindingVar != "" && name == pay.bindingVar {
		return h.Input
	}
	// Walk outward to the handler body, then search it for the declarator.
	scope := at
	for scope.Parent() != nil {
		scope = scope.Parent()
		if scope.Type() == "statement_block" || scope.Type() == "program" {
			break
		}
	}
	var result *model.TypeExpr
	walk(scope, func(n *sitter.Node) bool {
		if result != nil {
			return false
		}
		if n.Type() != "variable_declarator" {
			return true
		}
		id := n.ChildByFieldName("name")
		if id == nil || id.Type() != "identifier" || f.text(id) != name {
			return true
		}
		if ann := n.ChildByFieldName("type"); ann != nil {
			result = model.Named(f.text(ann.NamedChild(0)))
			return false
		}
		if value := n.ChildByFieldName("value"); value != nil {
			result = f.typeOfExpr(value, h, pay, depth+1)
			return false
		}
		return true
	})
	if result != nil {
		return result
	}
	if d, ok := f.decls[name]; ok && d.value != nil {
		return f.typeOfExpr(d.value, h, pay, depth+1)
	}
	return model.Unknown()
}
