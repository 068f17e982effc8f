// Package emit produces the two generated artifacts from a route tree: the
// client accessor (reactive data-fetching hooks over fetch) and the server
// accessor (direct invocations replaying each handler's rewritten body).
// Both walk the same tree and share the path-template logic.
package emit

import (
	"sort"
	"strings"

	"github.com/routesmith/routesmith/internal/model"
)

// step is one retained path segment on the way from the tree root to a node.
// Route groups and collectors were flattened away during construction and
// never appear here.
type step struct {
	kind model.SegmentKind
	name string // static segment name, or parameter name for dynamic kinds
}

// pathTemplate renders the call-time path expression as a template literal.
// Dynamic segments interpolate their parameter; catch-all segments join the
// parameter slice with "/".
func pathTemplate(steps []step) string {
	var b strings.Builder
	b.WriteString("`")
	if len(steps) == 0 {
		b.WriteString("/")
	}
	for _, s := range steps {
		b.WriteString("/")
		switch s.kind {
		case model.SegmentDynamic:
			b.WriteString("${" + s.name + "}")
		case model.SegmentCatchAll:
			b.WriteString("${" + s.name + `.join("/")}`)
		default:
			b.WriteString(s.name)
		}
	}
	b.WriteString("`")
	return b.String()
}

// memberFunc renders the accessor members for one handler at one tree
// position.
type memberFunc func(b *strings.Builder, h *model.Handler, steps []step, indent string)

// writeNode renders one nested accessor level: handler members first, then
// child keys in sorted order — static children as upper-cased object
// properties, dynamic and catch-all children as parameter-taking functions
// returning the child object.
func writeNode(b *strings.Builder, node *model.RouteNode, steps []step, indent string, member memberFunc) {
	for _, h := range node.Methods {
		member(b, h, steps, indent)
	}
	for _, key := range sortedKeys(node.Children) {
		child := node.Children[key]
		childSteps := extend(steps, child)
		switch child.Kind {
		case model.SegmentDynamic:
			b.WriteString(indent + strings.ToUpper(child.Param) + ": (" + child.Param + ": string) => ({\n")
			writeNode(b, child, childSteps, indent+"  ", member)
			b.WriteString(indent + "}),\n")
		case model.SegmentCatchAll:
			b.WriteString(indent + strings.ToUpper(child.Param) + ": (" + child.Param + ": string[]) => ({\n")
			writeNode(b, child, childSteps, indent+"  ", member)
			b.WriteString(indent + "}),\n")
		default:
			b.WriteString(indent + strings.ToUpper(key) + ": {\n")
			writeNode(b, child, childSteps, indent+"  ", member)
			b.WriteString(indent + "},\n")
		}
	}
}

func extend(steps []step, child *model.RouteNode) []step {
	out := make([]step, len(steps), len(steps)+1)
	copy(out, steps)
	switch child.Kind {
	case model.SegmentDynamic, model.SegmentCatchAll:
		return append(out, step{kind: child.Kind, name: child.Param})
	default:
		return append(out, step{kind: model.SegmentStatic, name: child.Segment})
	}
}

func sortedKeys(children map[string]*model.RouteNode) []string {
	keys := make([]string, 0, len(children))
	for key := range children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// optionsType renders the accessor options type. The body field exists only
// when the handler consumes a payload; searchParams is always optional.
func optionsType(h *model.Handler) (text string, required bool) {
	if h.HasPayload() {
		return "{ body: " + h.Input.String() + "; searchParams?: Record<string, string> }", true
	}
	return "{ searchParams?: Record<string, string> }", false
}

// optionsParam renders the options parameter declaration.
func optionsParam(h *model.Handler) string {
	text, required := optionsType(h)
	if required {
		return "options: " + text
	}
	return "options?: " + text
}

// indentLines prefixes every non-empty line of text with indent.
func indentLines(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
