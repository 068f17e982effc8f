package analyzer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/dedent"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/routesmith/routesmith/internal/model"
)

// markerStrings maps a leading bare string-literal statement to its mode.
var markerStrings = map[string]model.Marker{
	"streaming": model.MarkerStreaming,
	"paginated": model.MarkerPaginated,
	"mutation":  model.MarkerMutation,
}

// pageReads match the initializer of a query-derived page-number binding.
var pageReads = []string{`searchParams.get("page")`, `searchParams.get('page')`}

// edit replaces one byte span of the original source with new text. Edits
// never overlap: a rule that replaces a node claims its whole span and
// recursion happens inside the replacement text instead.
type edit struct {
	start, end uint32
	text       string
}

// rewriter applies the body rewrite rules over one handler body.
type rewriter struct {
	f   *fileScope
	pay *payload
	// syntheticPayload is set when an inline payload read (never bound to a
	// variable) was replaced by the synthetic "payload" binding.
	syntheticPayload bool
}

// rewriteBody extracts the handler body, applies the rewrite rules in order,
// detects the mode markers, and hoists referenced top-level declarations.
func (f *fileScope) rewriteBody(h *model.Handler, decl *handlerDecl, pay *payload) {
	if decl.body == nil {
		return
	}
	rw := &rewriter{f: f, pay: pay}

	var body string
	var retained []*sitter.Node
	if decl.body.Type() == "statement_block" {
		body, retained = rw.rewriteBlock(h, decl.body)
	} else {
		// Expression-bodied arrow: a single implicit return.
		expr := decl.body
		retained = []*sitter.Node{expr}
		if text, ok := rw.redirectCall(expr); ok {
			h.Marker = model.MarkerRedirect
			h.RedirectURL = text
			return
		}
		body = rw.implicitReturn(expr)
	}

	// A body reduced to a single redirect call is the redirect variant; it
	// carries no replayable logic.
	if len(retained) == 1 {
		expr := retained[0]
		if expr.Type() == "expression_statement" || expr.Type() == "return_statement" {
			expr = expr.NamedChild(0)
		}
		if url, ok := rw.redirectCall(expr); ok {
			h.Marker = model.MarkerRedirect
			h.RedirectURL = url
			h.Body = ""
			return
		}
	}

	if rw.syntheticPayload {
		h.BodyVar = "payload"
	}

	body = tidy(body)
	if hoisted := f.hoistDeclarations(body); hoisted != "" {
		body = hoisted + "\n\n" + body
	}
	h.Body = body

	if h.ParamName != "" {
		h.UsesSearch = strings.Contains(body, h.ParamName+".nextUrl")
		h.UsesHeaders = strings.Contains(body, h.ParamName+".headers")
		h.UsesCookies = strings.Contains(body, h.ParamName+".cookies")
	}
}

// rewriteBlock applies statement-level rules (marker strip, binding and
// page-read removal) as deletion edits and expression-level rules as
// replacement edits, then splices the block's inner span.
func (rw *rewriter) rewriteBlock(h *model.Handler, block *sitter.Node) (string, []*sitter.Node) {
	var edits []edit
	var retained []*sitter.Node

	innerStart := block.StartByte() + 1
	innerEnd := block.EndByte() - 1

	first := true
	for i := 0; i < int(block.NamedChildCount()); i++ {
		stmt := block.NamedChild(i)

		if first {
			first = false
			if marker, ok := rw.markerStatement(stmt); ok {
				h.Marker = marker
				edits = append(edits, edit{stmt.StartByte(), stmt.EndByte(), ""})
				continue
			}
		}
		if rw.pay.bindingStmt != nil && stmt.StartByte() == rw.pay.bindingStmt.StartByte() {
			edits = append(edits, edit{stmt.StartByte(), stmt.EndByte(), ""})
			continue
		}
		if h.Marker == model.MarkerPaginated {
			if name, ok := rw.pageBinding(stmt); ok && h.PageVar == "" {
				h.PageVar = name
				edits = append(edits, edit{stmt.StartByte(), stmt.EndByte(), ""})
				continue
			}
		}
		retained = append(retained, stmt)
		rw.collect(stmt, &edits)
	}

	return rw.f.splice(innerStart, innerEnd, edits), retained
}

// markerStatement recognizes a bare marker string literal statement.
func (rw *rewriter) markerStatement(stmt *sitter.Node) (model.Marker, bool) {
	if stmt.Type() != "expression_statement" {
		return model.MarkerNone, false
	}
	lit, ok := rw.f.stringLiteral(stmt.NamedChild(0))
	if !ok {
		return model.MarkerNone, false
	}
	marker, ok := markerStrings[lit]
	return marker, ok
}

// pageBinding recognizes the declaration binding the query-derived page
// number, in any numeric wrapping.
func (rw *rewriter) pageBinding(stmt *sitter.Node) (string, bool) {
	if stmt.Type() != "lexical_declaration" && stmt.Type() != "variable_declaration" {
		return "", false
	}
	text := rw.f.text(stmt)
	matched := false
	for _, read := range pageReads {
		if strings.Contains(text, read) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		dtor := stmt.NamedChild(i)
		if dtor.Type() != "variable_declarator" {
			continue
		}
		if name := dtor.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			return rw.f.text(name), true
		}
	}
	return "", false
}

// redirectCall recognizes redirect("literal-url") and returns the target.
func (rw *rewriter) redirectCall(expr *sitter.Node) (string, bool) {
	expr = unwrapExpr(expr)
	recv, method, args, ok := rw.f.callShape(expr)
	if !ok || recv != "" || method != "redirect" || len(args) == 0 {
		return "", false
	}
	return rw.f.stringLiteral(args[0])
}

// collect walks a subtree gathering replacement edits. A matched node is
// claimed whole; its replacement text is produced by recursing separately so
// edits never overlap.
func (rw *rewriter) collect(n *sitter.Node, edits *[]edit) {
	if repl, ok := rw.replacement(n); ok {
		*edits = append(*edits, edit{n.StartByte(), n.EndByte(), repl})
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		rw.collect(n.Child(i), edits)
	}
}

// rewriteNode returns the fully rewritten text of one node.
func (rw *rewriter) rewriteNode(n *sitter.Node) string {
	var edits []edit
	for i := 0; i < int(n.ChildCount()); i++ {
		rw.collect(n.Child(i), &edits)
	}
	return rw.f.splice(n.StartByte(), n.EndByte(), edits)
}

// rewriteExpr rewrites one expression, applying the rules to the node itself
// before recursing.
func (rw *rewriter) rewriteExpr(n *sitter.Node) string {
	if repl, ok := rw.replacement(n); ok {
		return repl
	}
	return rw.rewriteNode(n)
}

// implicitReturn renders the body of an expression-bodied arrow as an
// explicit return, applying the same response rules as a return statement.
func (rw *rewriter) implicitReturn(expr *sitter.Node) string {
	payloadNode, status, ok := rw.f.responseConstruction(expr)
	switch {
	case ok && status >= 400:
		return "throw new Error(" + rw.errorMessage(payloadNode, status) + ");"
	case ok && payloadNode == nil:
		return ""
	case ok:
		return "return " + rw.rewriteExpr(payloadNode) + ";"
	default:
		return "return " + rw.rewriteExpr(expr) + ";"
	}
}

// replacement produces the rewritten text for nodes matched by a rule.
func (rw *rewriter) replacement(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "return_statement":
		expr := unwrapExpr(n.NamedChild(0))
		if expr == nil {
			return "", false
		}
		// A comma-sequenced return keeps only the first sub-expression.
		if expr.Type() == "sequence_expression" {
			if first := expr.NamedChild(0); first != nil {
				return "return " + rw.rewriteExpr(first) + ";", true
			}
		}
		payloadNode, status, ok := rw.f.responseConstruction(expr)
		if !ok {
			return "", false
		}
		if status >= 400 {
			return "throw new Error(" + rw.errorMessage(payloadNode, status) + ");", true
		}
		if payloadNode == nil {
			return "return;", true
		}
		return "return " + rw.rewriteExpr(payloadNode) + ";", true

	case "call_expression":
		if recv, method, args, ok := rw.f.callShape(n); ok {
			// Unwrap literal serialization, keeping only the argument.
			if recv == "JSON" && method == "stringify" && len(args) == 1 {
				return rw.rewriteExpr(args[0]), true
			}
		}
		if payloadNode, _, ok := rw.f.responseConstruction(n); ok && payloadNode != nil {
			return rw.rewriteExpr(payloadNode), true
		}
		return rw.payloadReadReplacement(n)

	case "new_expression":
		if payloadNode, _, ok := rw.f.responseConstruction(n); ok && payloadNode != nil {
			return rw.rewriteExpr(payloadNode), true
		}
		return "", false

	case "await_expression":
		// An awaited inline payload read collapses with its await.
		if inner := n.NamedChild(0); inner != nil {
			if repl, ok := rw.payloadReadReplacement(inner); ok {
				return repl, true
			}
		}
		return "", false

	case "member_expression":
		return rw.payloadReadReplacement(n)
	}
	return "", false
}

// payloadReadReplacement substitutes a synthetic "payload" binding for inline
// payload reads that were never bound to a variable.
func (rw *rewriter) payloadReadReplacement(n *sitter.Node) (string, bool) {
	if rw.pay.bindingVar != "" || len(rw.pay.destructured) > 0 {
		return "", false
	}
	// The handler's request parameter name is needed to recognize the read;
	// resolve it lazily from the payload detection.
	if !rw.pay.used {
		return "", false
	}
	if rw.f.isPayloadRead(n, rw.payParam()) {
		rw.syntheticPayload = true
		return "payload", true
	}
	return "", false
}

// payParam returns the request parameter name recorded during detection.
func (rw *rewriter) payParam() string {
	return rw.pay.paramName
}

// errorMessage renders the thrown-error message for a non-success response.
func (rw *rewriter) errorMessage(payloadNode *sitter.Node, status int) string {
	if payloadNode == nil {
		return `"request failed with status ` + strconv.Itoa(status) + `"`
	}
	if payloadNode.Type() == "string" || payloadNode.Type() == "template_string" {
		return rw.f.text(payloadNode)
	}
	return "JSON.stringify(" + rw.rewriteNode(payloadNode) + ")"
}

// responseConstruction recognizes a response-wrapper construction: either the
// named JSON-response helper (NextResponse.json(x, opts)) or a direct
// constructor (new NextResponse(x, opts), possibly serializing its payload).
// It returns the payload expression with one serialization layer unwrapped
// and the numeric status carried by the options argument, when present.
func (f *fileScope) responseConstruction(expr *sitter.Node) (*sitter.Node, int, bool) {
	expr = unwrapExpr(expr)
	if expr == nil {
		return nil, 0, false
	}

	var payloadNode, opts *sitter.Node
	switch expr.Type() {
	case "call_expression":
		recv, method, args, ok := f.callShape(expr)
		if !ok || method != "json" || !responseWrappers[recv] {
			return nil, 0, false
		}
		if len(args) > 0 {
			payloadNode = args[0]
		}
		if len(args) > 1 {
			opts = args[1]
		}
	case "new_expression":
		ctor := expr.ChildByFieldName("constructor")
		if ctor == nil || !responseWrappers[f.text(ctor)] {
			return nil, 0, false
		}
		if argList := expr.ChildByFieldName("arguments"); argList != nil {
			if argList.NamedChildCount() > 0 {
				payloadNode = argList.NamedChild(0)
			}
			if argList.NamedChildCount() > 1 {
				opts = argList.NamedChild(1)
			}
		}
	default:
		return nil, 0, false
	}

	// A serialized constructor payload unwraps to the inner value.
	if payloadNode != nil {
		if recv, method, args, ok := f.callShape(unwrapExpr(payloadNode)); ok &&
			recv == "JSON" && method == "stringify" && len(args) == 1 {
			payloadNode = args[0]
		}
		if payloadNode.Type() == "null" {
			payloadNode = nil
		}
	}

	status := 0
	if opts != nil {
		if v, ok := f.intLiteral(f.objectProperty(opts, "status")); ok {
			status = v
		}
	}
	return payloadNode, status, true
}

// splice rebuilds the [start, end) span of the source with edits applied.
func (f *fileScope) splice(start, end uint32, edits []edit) string {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var b strings.Builder
	cur := start
	for _, e := range edits {
		if e.start < cur {
			continue
		}
		b.Write(f.src[cur:e.start])
		b.WriteString(e.text)
		cur = e.end
	}
	if cur < end {
		b.Write(f.src[cur:end])
	}
	return b.String()
}

var blankRuns = regexp.MustCompile(`\n[ \t]*\n([ \t]*\n)+`)

// tidy normalizes a rewritten fragment: common indentation removed, deletion
// gaps collapsed, edges trimmed.
func tidy(body string) string {
	body = dedent.Dedent(body)
	body = blankRuns.ReplaceAllString(body, "\n\n")
	return strings.Trim(body, "\n \t")
}

// hoistDeclarations returns the source text of every top-level declaration the
// body textually references, transitively, in source order.
func (f *fileScope) hoistDeclarations(body string) string {
	needed := make(map[string]bool)
	text := body
	for {
		grew := false
		for name, d := range f.decls {
			if needed[name] {
				continue
			}
			if referencesIdent(text, name) {
				needed[name] = true
				text += "\n" + d.text
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	if len(needed) == 0 {
		return ""
	}
	var parts []string
	for _, d := range f.declList {
		if needed[d.name] {
			parts = append(parts, tidy(d.text))
		}
	}
	return strings.Join(parts, "\n\n")
}

// referencesIdent reports a word-boundary occurrence of name in text.
func referencesIdent(text, name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return re.MatchString(text)
}
