package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/routesmith/routesmith/internal/model"
)

// stringMethods are string-prototype-shaped method names. Names shared with
// the array prototype (slice, includes, indexOf, concat, at...) are deliberately
// in neither set; they carry no evidence on their own.
var stringMethods = map[string]bool{
	"toLowerCase": true, "toUpperCase": true, "trim": true, "trimStart": true,
	"trimEnd": true, "charAt": true, "charCodeAt": true, "startsWith": true,
	"endsWith": true, "padStart": true, "padEnd": true, "repeat": true,
	"replace": true, "replaceAll": true, "split": true, "substring": true,
	"localeCompare": true, "normalize": true, "match": true,
}

// arrayMethods are array-prototype-shaped method names.
var arrayMethods = map[string]bool{
	"map": true, "filter": true, "forEach": true, "reduce": true,
	"reduceRight": true, "push": true, "pop": true, "shift": true,
	"unshift": true, "find": true, "findIndex": true, "findLast": true,
	"some": true, "every": true, "join": true, "flat": true, "flatMap": true,
	"fill": true, "sort": true, "reverse": true, "splice": true,
}

var arithmeticOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"<": true, ">": true, "<=": true, ">=": true,
}

var booleanOps = map[string]bool{
	"==": true, "===": true, "!=": true, "!==": true, "&&": true, "||": true,
}

// evidence accumulates the classifiable operations observed on one property.
type evidence struct {
	num, str, boolean, arr, rec bool
	fields                      map[string]*evidence
	order                       []string
}

func newEvidence() *evidence {
	return &evidence{fields: make(map[string]*evidence)}
}

func (e *evidence) field(name string) *evidence {
	if sub, ok := e.fields[name]; ok {
		return sub
	}
	sub := newEvidence()
	e.fields[name] = sub
	e.order = append(e.order, name)
	return sub
}

// resolve narrows accumulated evidence to a type. Array evidence dominates:
// combined with number or string it narrows the element type, combined with
// anything else (boolean included) it stays an unknown-array.
func (e *evidence) resolve() *model.TypeExpr {
	switch {
	case e.arr && e.num:
		return model.Array(model.Primitive("number"))
	case e.arr && e.str:
		return model.Array(model.Primitive("string"))
	case e.arr:
		return model.Array(model.Unknown())
	case e.rec:
		var fields []model.Field
		for _, name := range e.order {
			fields = append(fields, model.Field{Name: name, Type: e.fields[name].resolve()})
		}
		return model.Record(fields)
	case e.num:
		return model.Primitive("number")
	case e.str:
		return model.Primitive("string")
	case e.boolean:
		return model.Primitive("boolean")
	default:
		return model.Unknown()
	}
}

// inferStructural classifies every property read off the payload binding by
// the operations performed on it, producing a record type. With a destructured
// binding the destructured identifiers themselves are the properties.
func (f *fileScope) inferStructural(body *sitter.Node, pay *payload) *model.TypeExpr {
	if pay.bindingVar != "" {
		root := newEvidence()
		f.collectMemberEvidence(body, pay.bindingVar, root)
		if len(root.order) == 0 {
			return nil
		}
		return root.resolve()
	}
	if len(pay.destructured) > 0 {
		root := newEvidence()
		for _, name := range pay.destructured {
			ev := root.field(name)
			f.collectIdentifierEvidence(body, name, ev)
		}
		root.rec = true
		return root.resolve()
	}
	return nil
}

// collectMemberEvidence gathers evidence for every `<varName>.prop` access in
// the body.
func (f *fileScope) collectMemberEvidence(body *sitter.Node, varName string, root *evidence) {
	walk(body, func(n *sitter.Node) bool {
		switch n.Type() {
		case "member_expression":
			obj := n.ChildByFieldName("object")
			if obj == nil || obj.Type() != "identifier" || f.text(obj) != varName {
				return true
			}
			root.rec = true
			prop := f.text(n.ChildByFieldName("property"))
			f.classifyUse(n, root.field(prop))
			return false
		case "subscript_expression":
			obj := n.ChildByFieldName("object")
			if obj == nil || obj.Type() != "identifier" || f.text(obj) != varName {
				return true
			}
			// Non-numeric element access on the binding itself behaves like a
			// property read.
			index := n.ChildByFieldName("index")
			if name, ok := f.stringLiteral(index); ok {
				root.rec = true
				f.classifyUse(n, root.field(name))
				return false
			}
			return true
		}
		return true
	})
}

// collectIdentifierEvidence gathers evidence for a bare identifier, used when
// the payload was destructured.
func (f *fileScope) collectIdentifierEvidence(body *sitter.Node, name string, ev *evidence) {
	walk(body, func(n *sitter.Node) bool {
		if n.Type() != "identifier" || f.text(n) != name {
			return true
		}
		// Skip the declaration site itself.
		if p := n.Parent(); p != nil && (p.Type() == "object_pattern" || p.Type() == "pair_pattern") {
			return true
		}
		f.classifyUse(n, ev)
		return true
	})
}

// classifyUse inspects the syntactic context of one property access and files
// the operation under the matching evidence class.
func (f *fileScope) classifyUse(access *sitter.Node, ev *evidence) {
	parent := access.Parent()
	if parent == nil {
		return
	}
	switch parent.Type() {
	case "member_expression":
		// access.prop or access.method(...): method calls classify by
		// prototype shape, plain accesses imply a nested record.
		if parent.ChildByFieldName("object") != access {
			return
		}
		prop := f.text(parent.ChildByFieldName("property"))
		gp := parent.Parent()
		if gp != nil && gp.Type() == "call_expression" && gp.ChildByFieldName("function") == parent {
			switch {
			case stringMethods[prop]:
				ev.str = true
			case arrayMethods[prop]:
				ev.arr = true
			}
			return
		}
		ev.rec = true
		f.classifyUse(parent, ev.field(prop))
	case "subscript_expression":
		if parent.ChildByFieldName("object") != access {
			return
		}
		index := parent.ChildByFieldName("index")
		if index != nil && index.Type() == "number" {
			ev.arr = true
			return
		}
		if name, ok := f.stringLiteral(index); ok {
			ev.rec = true
			f.classifyUse(parent, ev.field(name))
			return
		}
		ev.rec = true
	case "binary_expression":
		op := f.text(parent.ChildByFieldName("operator"))
		switch {
		case arithmeticOps[op]:
			ev.num = true
		case booleanOps[op]:
			ev.boolean = true
		}
	case "augmented_assignment_expression":
		if parent.ChildByFieldName("left") == access {
			ev.num = true
		}
	case "unary_expression":
		switch f.text(parent.ChildByFieldName("operator")) {
		case "!":
			ev.boolean = true
		case "-", "+":
			ev.num = true
		}
	case "update_expression":
		ev.num = true
	}
}
