package emit

import (
	"regexp"
	"strings"

	"github.com/routesmith/routesmith/internal/model"
)

// Server emits the server-side accessor artifact: the same nested structure
// as the client, but every member replays the handler's rewritten body
// directly inside a result-or-error capturing helper instead of fetching.
type Server struct {
	// AccessorName is the exported accessor object name.
	AccessorName string
	// HelperImport is the module specifier of the error-capturing helper.
	HelperImport string
}

// Emit renders the full server artifact text for the given tree.
func (e *Server) Emit(root *model.RouteNode) string {
	var body strings.Builder
	body.WriteString("export const " + e.AccessorName + " = {\n")
	writeNode(&body, root, nil, "  ", e.member)
	body.WriteString("};\n")
	text := body.String()

	specs := WithExtras(Aggregate(root),
		&model.ImportSpec{Module: "next/headers", Named: []model.NamedImport{{Name: "cookies"}, {Name: "headers"}}},
	)
	specs = Filter(specs, text)
	Dealias(specs)

	var out strings.Builder
	out.WriteString("// Code generated by routesmith. DO NOT EDIT.\n\n")
	out.WriteString(`import { tryCatch } from "` + e.HelperImport + `";` + "\n")
	out.WriteString(Render(specs))
	out.WriteString("\n")
	out.WriteString(text)
	return out.String()
}

func (e *Server) member(b *strings.Builder, h *model.Handler, steps []step, indent string) {
	opt := optionsParam(h)

	if h.Marker == model.MarkerRedirect {
		b.WriteString(indent + h.Verb + ": async (" + opt + "): Promise<void> => {\n")
		b.WriteString(indent + "  redirect(`" + h.RedirectURL + "`);\n")
		b.WriteString(indent + "},\n")
		return
	}

	params := opt
	if h.Marker == model.MarkerPaginated {
		params += ", page = 1"
	}

	b.WriteString(indent + h.Verb + ": async (" + params + ") =>\n")
	b.WriteString(indent + "  tryCatch(async () => {\n")
	inner := indent + "    "
	for _, line := range e.preamble(h) {
		b.WriteString(inner + line + "\n")
	}
	if body := e.replayBody(h); body != "" {
		b.WriteString(indentLines(body, inner))
		b.WriteString("\n")
	}
	b.WriteString(indent + "  }),\n")
}

// preamble renders the synthetic bindings replacing the removed framework
// lines: the payload binding aliased from the options, and a request-shaped
// object carrying the caller's search parameters.
func (e *Server) preamble(h *model.Handler) []string {
	var lines []string
	chain := "options?."
	if h.HasPayload() {
		chain = "options."
	}
	if h.BodyVar != "" && referencesIdent(h.Body, h.BodyVar) {
		lines = append(lines, "const "+h.BodyVar+" = "+chain+"body;")
	} else if len(h.BodyParams) > 0 {
		lines = append(lines, "const { "+strings.Join(h.BodyParams, ", ")+" } = "+chain+"body;")
	}
	if h.UsesSearch && h.ParamName != "" {
		lines = append(lines, "const "+h.ParamName+" = { nextUrl: { searchParams: new URLSearchParams("+chain+"searchParams) } };")
	}
	return lines
}

// replayBody applies the call-time substitutions to the retained body text:
// the page-number argument for paginated handlers, and asynchronously fetched
// header and cookie accessors where request sub-object access appeared.
func (e *Server) replayBody(h *model.Handler) string {
	body := h.Body
	if body == "" {
		return ""
	}
	if h.Marker == model.MarkerPaginated && h.PageVar != "" && h.PageVar != "page" {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(h.PageVar) + `\b`)
		body = re.ReplaceAllString(body, "page")
	}
	if h.ParamName != "" {
		body = strings.ReplaceAll(body, h.ParamName+".headers", "(await headers())")
		body = strings.ReplaceAll(body, h.ParamName+".cookies", "(await cookies())")
	}
	return body
}
