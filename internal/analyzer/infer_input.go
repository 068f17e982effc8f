package analyzer

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/routesmith/routesmith/internal/model"
)

// validatorMethods are the recognized schema-validation call names.
var validatorMethods = map[string]bool{
	"parse":      true,
	"safeParse":  true,
	"parseAsync": true,
}

// inferInput runs the layered input-type chain: validator call, helper
// signature, structural usage, then the unknown/void fallback. First success
// wins; every stage degrades silently to the next.
func (f *fileScope) inferInput(h *model.Handler, decl *handlerDecl, pay *payload) {
	if decl.body != nil {
		if t := f.inferFromValidator(decl.body, pay, h.ParamName); t != nil {
			h.Input = t
			return
		}
		if t := f.inferFromHelperSignature(decl.body, pay); t != nil {
			h.Input = t
			return
		}
		if t := f.inferStructural(decl.body, pay); t != nil {
			h.Input = t
			return
		}
	}
	if !pay.used && h.Verb == "GET" {
		h.Input = model.Void()
		return
	}
	h.Input = model.Unknown()
}

// inferFromValidator looks for a recognized validator method applied to the
// payload and resolves the validated type: a locally declared object schema
// maps to a record type, anything else to the schema's inferred named type.
func (f *fileScope) inferFromValidator(body *sitter.Node, pay *payload, paramName string) *model.TypeExpr {
	var result *model.TypeExpr
	walk(body, func(n *sitter.Node) bool {
		if result != nil {
			return false
		}
		recv, method, args, ok := f.callShape(n)
		if !ok || recv == "" || !validatorMethods[method] || len(args) == 0 {
			return true
		}
		if !f.referencesPayload(args[0], pay, paramName) {
			return true
		}
		if d, ok := f.decls[recv]; ok && d.value != nil {
			if t := f.zodType(d.value); t != nil {
				result = t
				pay.validatedVar = f.bindingName(n)
				return false
			}
		}
		result = model.Named("z.infer<typeof " + recv + ">")
		pay.validatedVar = f.bindingName(n)
		return false
	})
	return result
}

// inferFromHelperSignature looks for a call of a locally declared function
// whose first parameter carries an explicit type annotation, invoked with the
// payload-bound variable, and uses that annotation.
func (f *fileScope) inferFromHelperSignature(body *sitter.Node, pay *payload) *model.TypeExpr {
	if pay.bindingVar == "" {
		return nil
	}
	var result *model.TypeExpr
	walk(body, func(n *sitter.Node) bool {
		if result != nil {
			return false
		}
		recv, name, args, ok := f.callShape(n)
		if !ok || recv != "" || len(args) == 0 {
			return true
		}
		arg := unwrapExpr(args[0])
		if arg == nil || arg.Type() != "identifier" || f.text(arg) != pay.bindingVar {
			return true
		}
		d, ok := f.decls[name]
		if !ok || d.node.Type() != "function_declaration" {
			return true
		}
		if ann := f.firstParamAnnotation(d.node); ann != "" {
			result = model.Named(ann)
			return false
		}
		return true
	})
	return result
}

// firstParamAnnotation returns the annotated type text of a function's first
// parameter, or "".
func (f *fileScope) firstParamAnnotation(fn *sitter.Node) string {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return ""
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if p.Type() != "required_parameter" && p.Type() != "optional_parameter" {
			continue
		}
		if ann := p.ChildByFieldName("type"); ann != nil {
			return f.text(ann.NamedChild(0))
		}
		return ""
	}
	return ""
}

// bindingName finds the variable a call's result is bound to, if the call sits
// directly in a declarator initializer.
func (f *fileScope) bindingName(call *sitter.Node) string {
	for cur := call.Parent(); cur != nil; cur = cur.Parent() {
		switch cur.Type() {
		case "await_expression", "parenthesized_expression":
			continue
		case "variable_declarator":
			name := cur.ChildByFieldName("name")
			if name != nil && name.Type() == "identifier" {
				return f.text(name)
			}
			return ""
		default:
			return ""
		}
	}
	return ""
}

// zodType maps a zod-shaped schema expression to a semantic type. Chain
// modifiers such as .optional(), .nullable(), .min(n) or .default(v) are
// transparent. Returns nil when the expression is not zod-shaped.
func (f *fileScope) zodType(n *sitter.Node) *model.TypeExpr {
	n = unwrapExpr(n)
	if n == nil {
		return nil
	}
	if n.Type() == "identifier" {
		// A schema referencing another local schema constant.
		if d, ok := f.decls[f.text(n)]; ok && d.value != nil {
			return f.zodType(d.value)
		}
		return nil
	}
	if n.Type() != "call_expression" {
		return nil
	}
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return nil
	}
	method := f.text(fn.ChildByFieldName("property"))
	var args []*sitter.Node
	if argList := n.ChildByFieldName("arguments"); argList != nil {
		for i := 0; i < int(argList.NamedChildCount()); i++ {
			args = append(args, argList.NamedChild(i))
		}
	}

	switch method {
	case "string":
		return model.Primitive("string")
	case "number":
		return model.Primitive("number")
	case "boolean":
		return model.Primitive("boolean")
	case "enum":
		return model.Primitive("string")
	case "literal":
		if len(args) == 1 {
			switch args[0].Type() {
			case "string", "template_string":
				return model.Primitive("string")
			case "number":
				return model.Primitive("number")
			case "true", "false":
				return model.Primitive("boolean")
			}
		}
		return model.Unknown()
	case "array":
		elem := model.Unknown()
		if len(args) == 1 {
			if t := f.zodType(args[0]); t != nil {
				elem = t
			}
		}
		return model.Array(elem)
	case "object":
		if len(args) != 1 || args[0].Type() != "object" {
			return model.Record(nil)
		}
		var fields []model.Field
		shape := args[0]
		for i := 0; i < int(shape.NamedChildCount()); i++ {
			pair := shape.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}
			key := pair.ChildByFieldName("key")
			keyText := f.text(key)
			if v, ok := f.stringLiteral(key); ok {
				keyText = v
			}
			ft := f.zodType(pair.ChildByFieldName("value"))
			if ft == nil {
				ft = model.Unknown()
			}
			fields = append(fields, model.Field{Name: keyText, Type: ft})
		}
		return model.Record(fields)
	default:
		// Chain modifier: recurse into the receiver when it is itself a call,
		// e.g. z.string().optional().
		obj := fn.ChildByFieldName("object")
		if obj != nil && obj.Type() == "call_expression" {
			return f.zodType(obj)
		}
		return nil
	}
}
