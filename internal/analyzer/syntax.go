package analyzer

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// walk visits n and every descendant in preorder. Returning false from fn
// prunes the subtree.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}

// unwrapExpr strips await and parenthesization layers.
func unwrapExpr(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "await_expression", "parenthesized_expression":
			n = n.NamedChild(0)
		default:
			return n
		}
	}
	return nil
}

// stringLiteral returns the unquoted value of a string literal node.
func (f *fileScope) stringLiteral(n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
		text := f.text(n)
		if len(text) >= 2 {
			return text[1 : len(text)-1], true
		}
	case "template_string":
		text := f.text(n)
		if len(text) >= 2 && !strings.Contains(text, "${") {
			return text[1 : len(text)-1], true
		}
	}
	return "", false
}

// intLiteral resolves a numeric literal to an int.
func (f *fileScope) intLiteral(n *sitter.Node) (int, bool) {
	if n == nil || n.Type() != "number" {
		return 0, false
	}
	v, err := strconv.Atoi(f.text(n))
	if err != nil {
		return 0, false
	}
	return v, true
}

// callShape decomposes a call expression into receiver text, method name and
// arguments. For a plain function call the receiver is empty and the method
// is the callee text.
func (f *fileScope) callShape(n *sitter.Node) (receiver, method string, args []*sitter.Node, ok bool) {
	if n == nil || n.Type() != "call_expression" {
		return "", "", nil, false
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return "", "", nil, false
	}
	switch fn.Type() {
	case "member_expression":
		receiver = f.text(fn.ChildByFieldName("object"))
		method = f.text(fn.ChildByFieldName("property"))
	case "identifier":
		method = f.text(fn)
	default:
		return "", "", nil, false
	}
	if argList := n.ChildByFieldName("arguments"); argList != nil {
		for i := 0; i < int(argList.NamedChildCount()); i++ {
			args = append(args, argList.NamedChild(i))
		}
	}
	return receiver, method, args, true
}

// isPayloadRead reports whether n reads the request payload: a call of
// <param>.json() or an access of <param>.body.
func (f *fileScope) isPayloadRead(n *sitter.Node, paramName string) bool {
	n = unwrapExpr(n)
	if n == nil || paramName == "" {
		return false
	}
	switch n.Type() {
	case "call_expression":
		recv, method, _, ok := f.callShape(n)
		return ok && recv == paramName && method == "json"
	case "member_expression":
		return f.text(n.ChildByFieldName("object")) == paramName &&
			f.text(n.ChildByFieldName("property")) == "body"
	}
	return false
}

// referencesPayload reports whether n is the payload-bound variable, a direct
// payload read, or (when the payload was destructured) one of its properties.
func (f *fileScope) referencesPayload(n *sitter.Node, pay *payload, paramName string) bool {
	n = unwrapExpr(n)
	if n == nil {
		return false
	}
	if n.Type() == "identifier" && pay.bindingVar != "" && f.text(n) == pay.bindingVar {
		return true
	}
	return f.isPayloadRead(n, paramName)
}

// objectProperty finds the value of a named property in an object literal.
func (f *fileScope) objectProperty(obj *sitter.Node, name string) *sitter.Node {
	if obj == nil || obj.Type() != "object" {
		return nil
	}
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		key := pair.ChildByFieldName("key")
		keyText := f.text(key)
		if v, ok := f.stringLiteral(key); ok {
			keyText = v
		}
		if keyText == name {
			return pair.ChildByFieldName("value")
		}
	}
	return nil
}

// enclosingStatement walks up to the statement directly under a statement
// block or the program root.
func enclosingStatement(n *sitter.Node) *sitter.Node {
	for cur := n; cur != nil; cur = cur.Parent() {
		parent := cur.Parent()
		if parent != nil && (parent.Type() == "statement_block" || parent.Type() == "program") {
			return cur
		}
	}
	return nil
}
