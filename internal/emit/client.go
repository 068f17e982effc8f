package emit

import (
	"strings"

	"github.com/lithammer/dedent"

	"github.com/routesmith/routesmith/internal/model"
)

// Client emits the browser-side accessor artifact: one nested object whose
// GET members are reactive read hooks and whose other members are reactive
// write hooks, all backed by fetch against the resolved path.
type Client struct {
	// AccessorName is the exported accessor object name.
	AccessorName string
	// HelperImport is the module specifier of the error-capturing helper.
	HelperImport string
}

var clientPreamble = strings.TrimPrefix(dedent.Dedent(`
	const withSearch = (path: string, searchParams?: Record<string, string>) =>
	  searchParams ? `+"`${path}?${new URLSearchParams(searchParams)}`"+` : path;
`), "\n")

// Emit renders the full client artifact text for the given tree.
func (e *Client) Emit(root *model.RouteNode) string {
	var body strings.Builder
	body.WriteString("export const " + e.AccessorName + " = {\n")
	writeNode(&body, root, nil, "  ", e.member)
	body.WriteString("};\n")
	text := body.String()

	specs := WithExtras(Aggregate(root),
		&model.ImportSpec{Module: "swr", Default: "useSWR"},
		&model.ImportSpec{Module: "swr/mutation", Default: "useSWRMutation"},
	)
	specs = Filter(specs, text)
	Dealias(specs)

	var out strings.Builder
	out.WriteString("// Code generated by routesmith. DO NOT EDIT.\n\n")
	out.WriteString(`import { tryCatch } from "` + e.HelperImport + `";` + "\n")
	out.WriteString(Render(specs))
	out.WriteString("\n")
	if strings.Contains(text, "withSearch(") {
		out.WriteString(clientPreamble)
		out.WriteString("\n")
	}
	out.WriteString(text)
	return out.String()
}

func (e *Client) member(b *strings.Builder, h *model.Handler, steps []step, indent string) {
	path := pathTemplate(steps)
	opt := optionsParam(h)
	chain := "options?."
	if h.HasPayload() {
		chain = "options."
	}

	switch h.Marker {
	case model.MarkerRedirect:
		b.WriteString(indent + h.Verb + ": (" + opt + "): void => {\n")
		b.WriteString(indent + "  window.location.assign(withSearch(`" + h.RedirectURL + "`, " + chain + "searchParams));\n")
		b.WriteString(indent + "},\n")

	case model.MarkerStreaming:
		b.WriteString(indent + h.Verb + ": (" + opt + ") =>\n")
		b.WriteString(indent + "  tryCatch(\n")
		b.WriteString(indent + "    fetch(withSearch(" + path + ", " + chain + "searchParams)" + e.fetchInit(h, chain) + ").then((res) =>\n")
		b.WriteString(indent + "      res.body!.pipeThrough(new TextDecoderStream()).getReader(),\n")
		b.WriteString(indent + "    ),\n")
		b.WriteString(indent + "  ),\n")

	default:
		if h.Verb == "GET" {
			b.WriteString(indent + h.Verb + ": (" + opt + ") =>\n")
			b.WriteString(indent + `  useSWR(["GET", ` + path + ", " + chain + "searchParams], () =>\n")
			b.WriteString(indent + "    fetch(withSearch(" + path + ", " + chain + "searchParams)).then((res) => res.json()" + jsonCast(h) + "),\n")
			b.WriteString(indent + "  ),\n")
			return
		}
		b.WriteString(indent + h.Verb + ": (" + opt + ") =>\n")
		b.WriteString(indent + `  useSWRMutation(["` + h.Verb + `", ` + path + "], () =>\n")
		b.WriteString(indent + "    tryCatch(\n")
		b.WriteString(indent + "      fetch(withSearch(" + path + ", " + chain + "searchParams)" + e.fetchInit(h, chain) + ").then((res) => res.json()" + jsonCast(h) + "),\n")
		b.WriteString(indent + "    ),\n")
		b.WriteString(indent + "  ),\n")
	}
}

// fetchInit renders the fetch init argument: the verb for every non-GET call,
// plus a JSON content type and serialized payload when one is consumed.
func (e *Client) fetchInit(h *model.Handler, chain string) string {
	if h.Verb == "GET" {
		return ""
	}
	if !h.HasPayload() {
		return `, { method: "` + h.Verb + `" }`
	}
	return `, { method: "` + h.Verb + `", headers: { "Content-Type": "application/json" }, body: JSON.stringify(` + chain + `body) }`
}

// jsonCast annotates the decoded response with the inferred output type.
func jsonCast(h *model.Handler) string {
	if h.Output.IsUnknown() || h.Output.IsVoid() {
		return ""
	}
	return " as Promise<" + h.Output.String() + ">"
}
