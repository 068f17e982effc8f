package model

import "strings"

// SegmentKind classifies one directory name along a route path.
type SegmentKind int

const (
	// SegmentStatic is a literal path segment, e.g. "users".
	SegmentStatic SegmentKind = iota
	// SegmentDynamic is a single dynamic parameter, e.g. "[postId]".
	SegmentDynamic
	// SegmentCatchAll matches the remainder of the path, e.g. "[...slug]".
	SegmentCatchAll
	// SegmentGroup is a parenthesized route group, transparent to path and key.
	SegmentGroup
	// SegmentCollector is the reserved "api" method collector, transparent to path and key.
	SegmentCollector
)

// TypeKind enumerates the closed semantic type language used for inferred
// handler input and output shapes.
type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeVoid
	TypePrimitive
	TypeArray
	TypeRecord
	TypeNamed
)

// Field is one property of an inferred record type. Order is the order of
// first observation in the handler source.
type Field struct {
	Name string
	Type *TypeExpr
}

// TypeExpr is a semantic type expression: unknown, void, a primitive, an
// array of a type, a record of fields, or a named external type.
type TypeExpr struct {
	Kind   TypeKind
	Name   string // primitive name or named type text
	Elem   *TypeExpr
	Fields []Field
}

func Unknown() *TypeExpr              { return &TypeExpr{Kind: TypeUnknown} }
func Void() *TypeExpr                 { return &TypeExpr{Kind: TypeVoid} }
func Primitive(name string) *TypeExpr { return &TypeExpr{Kind: TypePrimitive, Name: name} }
func Array(elem *TypeExpr) *TypeExpr  { return &TypeExpr{Kind: TypeArray, Elem: elem} }
func Record(fields []Field) *TypeExpr { return &TypeExpr{Kind: TypeRecord, Fields: fields} }
func Named(text string) *TypeExpr     { return &TypeExpr{Kind: TypeNamed, Name: text} }

// String renders the type expression as TypeScript source text.
func (t *TypeExpr) String() string {
	if t == nil {
		return "unknown"
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypePrimitive, TypeNamed:
		return t.Name
	case TypeArray:
		elem := t.Elem.String()
		// Composite element types need grouping before the [] suffix.
		if strings.ContainsAny(elem, " |&") {
			return "(" + elem + ")[]"
		}
		return elem + "[]"
	case TypeRecord:
		if len(t.Fields) == 0 {
			return "Record<string, unknown>"
		}
		var b strings.Builder
		b.WriteString("{ ")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(f.Type.String())
		}
		b.WriteString(" }")
		return b.String()
	default:
		return "unknown"
	}
}

// IsUnknown reports whether the expression is the unknown type.
func (t *TypeExpr) IsUnknown() bool { return t == nil || t.Kind == TypeUnknown }

// IsVoid reports whether the expression is the void type.
func (t *TypeExpr) IsVoid() bool { return t != nil && t.Kind == TypeVoid }

// Marker selects a non-default generation mode for one handler. It is decided
// once during analysis and carried on the descriptor; emitters never re-detect it.
type Marker int

const (
	MarkerNone Marker = iota
	MarkerRedirect
	MarkerStreaming
	MarkerPaginated
	MarkerMutation
)

// Handler describes one HTTP verb implemented by a route file.
type Handler struct {
	// Verb is the HTTP method name: GET, POST, PUT, PATCH, DELETE or OPTIONS.
	Verb string
	// Input is the inferred request payload type.
	Input *TypeExpr
	// Output is the inferred response payload type.
	Output *TypeExpr
	// Body is the rewritten, self-contained source fragment implementing the
	// handler's logic, including any hoisted top-level declarations it needs.
	Body string
	// ParamName is the name the original handler used for its request parameter.
	ParamName string
	// BodyVar is the local variable bound to the parsed request payload, if any.
	BodyVar string
	// BodyParams holds destructured payload property names when no single
	// binding variable exists.
	BodyParams []string
	// Marker is the generation mode selected during analysis.
	Marker Marker
	// RedirectURL is the literal navigation target for redirect handlers.
	RedirectURL string
	// PageVar is the variable the original body bound to the query-derived
	// page number, for paginated handlers.
	PageVar string
	// UsesSearch, UsesHeaders and UsesCookies record which request sub-objects
	// the retained body still references after rewriting.
	UsesSearch  bool
	UsesHeaders bool
	UsesCookies bool
}

// HasPayload reports whether the handler consumes a request payload.
func (h *Handler) HasPayload() bool {
	return h.BodyVar != "" || len(h.BodyParams) > 0
}

// NamedImport is one imported identifier, optionally aliased.
type NamedImport struct {
	Name  string
	Alias string
}

// Local is the identifier the import binds in the importing file.
func (n NamedImport) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// ImportSpec describes the import requirements against one external module.
type ImportSpec struct {
	Module    string
	Default   string
	Namespace string
	Named     []NamedImport
	TypeOnly  bool
}

// Identifiers returns every local identifier the spec binds.
func (s *ImportSpec) Identifiers() []string {
	var ids []string
	if s.Default != "" {
		ids = append(ids, s.Default)
	}
	if s.Namespace != "" {
		ids = append(ids, s.Namespace)
	}
	for _, n := range s.Named {
		ids = append(ids, n.Local())
	}
	return ids
}

// RouteNode is one retained directory segment of the route tree. Route-group
// and method-collector directories never appear as nodes; their methods and
// children are merged into the parent during construction.
type RouteNode struct {
	// Segment is the raw directory name.
	Segment string
	// Kind is the segment classification. Group and collector kinds never
	// survive into a built tree.
	Kind SegmentKind
	// Param is the parameter name for dynamic and catch-all segments.
	Param string
	// Methods holds the handler descriptors in source order, verb-unique.
	Methods []*Handler
	// Children maps the decoration-stripped child key to the child node.
	Children map[string]*RouteNode
	// Imports holds the import requirements of this directory's route file.
	Imports []*ImportSpec
}

// NewRouteNode returns an empty node for the given raw segment name.
func NewRouteNode(segment string) *RouteNode {
	return &RouteNode{
		Segment:  segment,
		Children: make(map[string]*RouteNode),
	}
}

// Method returns the handler for the given verb, or nil.
func (n *RouteNode) Method(verb string) *Handler {
	for _, h := range n.Methods {
		if h.Verb == verb {
			return h
		}
	}
	return nil
}

// Absorb merges a transparent child (route group or method collector) into n.
// Methods keep verb uniqueness with n's own handlers winning; colliding child
// keys merge recursively.
func (n *RouteNode) Absorb(child *RouteNode) {
	for _, h := range child.Methods {
		if n.Method(h.Verb) == nil {
			n.Methods = append(n.Methods, h)
		}
	}
	for key, sub := range child.Children {
		if existing, ok := n.Children[key]; ok {
			existing.Absorb(sub)
			continue
		}
		n.Children[key] = sub
	}
	n.Imports = append(n.Imports, child.Imports...)
}
