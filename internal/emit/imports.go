package emit

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/routesmith/routesmith/internal/model"
)

// Aggregate collects the import requirements of every node in the tree and
// merges them by module specifier: named imports are unioned by local name,
// and a module is type-only only when every contributor was.
func Aggregate(root *model.RouteNode) []*model.ImportSpec {
	byModule := make(map[string]*model.ImportSpec)
	var order []string
	var visit func(n *model.RouteNode)
	visit = func(n *model.RouteNode) {
		for _, spec := range n.Imports {
			existing, ok := byModule[spec.Module]
			if !ok {
				clone := *spec
				clone.Named = append([]model.NamedImport(nil), spec.Named...)
				byModule[spec.Module] = &clone
				order = append(order, spec.Module)
				continue
			}
			mergeSpec(existing, spec)
		}
		for _, key := range sortedKeys(n.Children) {
			visit(n.Children[key])
		}
	}
	visit(root)

	sort.Strings(order)
	specs := make([]*model.ImportSpec, 0, len(order))
	for _, module := range order {
		specs = append(specs, byModule[module])
	}
	return specs
}

func mergeSpec(into, from *model.ImportSpec) {
	if into.Default == "" {
		into.Default = from.Default
	}
	if into.Namespace == "" {
		into.Namespace = from.Namespace
	}
	for _, ni := range from.Named {
		found := false
		for _, have := range into.Named {
			if have.Local() == ni.Local() {
				found = true
				break
			}
		}
		if !found {
			into.Named = append(into.Named, ni)
		}
	}
	if !from.TypeOnly {
		into.TypeOnly = false
	}
}

// WithExtras merges synthesized import requirements into an aggregated set,
// preserving the one-spec-per-module invariant and module ordering.
func WithExtras(specs []*model.ImportSpec, extras ...*model.ImportSpec) []*model.ImportSpec {
	byModule := make(map[string]*model.ImportSpec)
	var modules []string
	for _, spec := range append(append([]*model.ImportSpec(nil), specs...), extras...) {
		existing, ok := byModule[spec.Module]
		if !ok {
			clone := *spec
			clone.Named = append([]model.NamedImport(nil), spec.Named...)
			byModule[spec.Module] = &clone
			modules = append(modules, spec.Module)
			continue
		}
		mergeSpec(existing, spec)
	}
	sort.Strings(modules)
	out := make([]*model.ImportSpec, 0, len(modules))
	for _, module := range modules {
		out = append(out, byModule[module])
	}
	return out
}

// Filter drops every imported identifier that does not appear textually in
// the emitted artifact, and every spec left with no identifiers at all.
func Filter(specs []*model.ImportSpec, emitted string) []*model.ImportSpec {
	var kept []*model.ImportSpec
	for _, spec := range specs {
		out := &model.ImportSpec{Module: spec.Module, TypeOnly: spec.TypeOnly}
		if spec.Default != "" && referencesIdent(emitted, spec.Default) {
			out.Default = spec.Default
		}
		if spec.Namespace != "" && referencesIdent(emitted, spec.Namespace) {
			out.Namespace = spec.Namespace
		}
		for _, ni := range spec.Named {
			if referencesIdent(emitted, ni.Local()) {
				out.Named = append(out.Named, ni)
			}
		}
		if out.Default != "" || out.Namespace != "" || len(out.Named) > 0 {
			kept = append(kept, out)
		}
	}
	return kept
}

// Dealias renames identifiers imported under the same name from different
// modules: every occurrence after the first gets a numeric suffix, applied
// the same way to default, namespace and named imports.
func Dealias(specs []*model.ImportSpec) {
	counts := make(map[string]int)
	next := func(name string) string {
		counts[name]++
		if counts[name] == 1 {
			return name
		}
		return name + strconv.Itoa(counts[name])
	}
	for _, spec := range specs {
		if spec.Default != "" {
			spec.Default = next(spec.Default)
		}
		if spec.Namespace != "" {
			spec.Namespace = next(spec.Namespace)
		}
		for i, ni := range spec.Named {
			renamed := next(ni.Local())
			if renamed != ni.Local() {
				spec.Named[i].Alias = renamed
			}
		}
	}
}

// Render emits import statements, one per module, in module order.
func Render(specs []*model.ImportSpec) string {
	var b strings.Builder
	for _, spec := range specs {
		b.WriteString("import ")
		if spec.TypeOnly {
			b.WriteString("type ")
		}
		var clauses []string
		if spec.Default != "" {
			clauses = append(clauses, spec.Default)
		}
		if spec.Namespace != "" {
			clauses = append(clauses, "* as "+spec.Namespace)
		}
		if len(spec.Named) > 0 {
			var names []string
			for _, ni := range spec.Named {
				if ni.Alias != "" && ni.Alias != ni.Name {
					names = append(names, ni.Name+" as "+ni.Alias)
				} else {
					names = append(names, ni.Name)
				}
			}
			clauses = append(clauses, "{ "+strings.Join(names, ", ")+" }")
		}
		b.WriteString(strings.Join(clauses, ", "))
		b.WriteString(` from "`)
		b.WriteString(spec.Module)
		b.WriteString("\";\n")
	}
	return b.String()
}

// referencesIdent reports a word-boundary occurrence of name in text.
func referencesIdent(text, name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return re.MatchString(text)
}
