package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// payload records how one handler binds and consumes the parsed request body.
type payload struct {
	// bindingVar is the variable bound to the payload read, e.g. the "body"
	// in `const body = await request.json()`.
	bindingVar string
	// destructured holds property names pulled straight off the payload read,
	// e.g. `const { name, email } = await request.json()`.
	destructured []string
	// bindingStmt is the declaration statement performing the read; the
	// rewrite pass removes it because generated code supplies the binding.
	bindingStmt *sitter.Node
	// used is true whenever the payload is read at all, bound or inline.
	used bool
	// validatedVar is the variable bound to a recognized validator call over
	// the payload, e.g. the "data" in `const data = schema.parse(body)`.
	validatedVar string
	// paramName is the request parameter the reads were detected against.
	paramName string
}

// detectPayload scans the handler body for the payload-binding declaration
// or, failing that, any inline payload read.
func (f *fileScope) detectPayload(decl *handlerDecl, paramName string) *payload {
	pay := &payload{paramName: paramName}
	if decl.body == nil {
		return pay
	}
	walk(decl.body, func(n *sitter.Node) bool {
		if n.Type() == "variable_declarator" {
			value := n.ChildByFieldName("value")
			if f.isPayloadRead(value, paramName) {
				pay.used = true
				name := n.ChildByFieldName("name")
				switch name.Type() {
				case "identifier":
					if pay.bindingVar == "" {
						pay.bindingVar = f.text(name)
						pay.bindingStmt = enclosingStatement(n)
					}
				case "object_pattern":
					if len(pay.destructured) == 0 {
						pay.destructured = f.patternNames(name)
						pay.bindingStmt = enclosingStatement(n)
					}
				}
				return false
			}
			return true
		}
		if f.isPayloadRead(n, paramName) {
			pay.used = true
		}
		return true
	})
	return pay
}

// patternNames lists the property names bound by an object pattern.
func (f *fileScope) patternNames(pattern *sitter.Node) []string {
	var names []string
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		p := pattern.NamedChild(i)
		switch p.Type() {
		case "shorthand_property_identifier_pattern":
			names = append(names, f.text(p))
		case "pair_pattern":
			names = append(names, f.text(p.ChildByFieldName("key")))
		case "object_assignment_pattern":
			// { name = "anon" } — the left side carries the property name.
			left := p.ChildByFieldName("left")
			if left != nil {
				names = append(names, f.text(left))
			}
		}
	}
	return names
}
