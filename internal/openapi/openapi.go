// Package openapi assembles an OpenAPI v3 document from the analyzed route
// tree, mapping each handler's inferred input and output shapes to schemas.
package openapi

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/routesmith/routesmith/internal/model"
)

// BuildSpec constructs the final openapi3.T document from the route tree.
func BuildSpec(root *model.RouteNode, title, version string) (*openapi3.T, error) {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   &openapi3.Paths{},
	}
	addRoutes(spec, root, "", nil)
	return spec, nil
}

// addRoutes recursively traverses the route tree and adds every handler to
// the specification's Paths object.
func addRoutes(spec *openapi3.T, node *model.RouteNode, prefix string, params []string) {
	path := prefix
	if path == "" {
		path = "/"
	}
	for _, h := range node.Methods {
		pathItem := spec.Paths.Find(path)
		if pathItem == nil {
			pathItem = &openapi3.PathItem{}
			spec.Paths.Set(path, pathItem)
		}
		pathItem.SetOperation(h.Verb, operationFor(h, params))
	}

	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		child := node.Children[key]
		childParams := params
		var part string
		switch child.Kind {
		case model.SegmentDynamic, model.SegmentCatchAll:
			part = "{" + child.Param + "}"
			childParams = append(append([]string(nil), params...), child.Param)
		default:
			part = child.Segment
		}
		addRoutes(spec, child, prefix+"/"+part, childParams)
	}
}

func operationFor(h *model.Handler, params []string) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.Responses = openapi3.NewResponses()

	for _, name := range params {
		param := openapi3.NewPathParameter(name).WithSchema(openapi3.NewStringSchema())
		op.AddParameter(param)
	}

	if h.HasPayload() && !h.Input.IsUnknown() && !h.Input.IsVoid() {
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithContent(
				openapi3.NewContentWithJSONSchemaRef(SchemaRef(h.Input)),
			),
		}
	}

	response := openapi3.NewResponse().WithDescription("Success")
	if !h.Output.IsUnknown() && !h.Output.IsVoid() {
		response = response.WithContent(openapi3.NewContentWithJSONSchemaRef(SchemaRef(h.Output)))
	}
	op.Responses.Set("200", &openapi3.ResponseRef{Value: response})
	return op
}

// SchemaRef maps a semantic type expression to an OpenAPI schema.
func SchemaRef(t *model.TypeExpr) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", schemaFor(t))
}

func schemaFor(t *model.TypeExpr) *openapi3.Schema {
	if t == nil {
		return openapi3.NewSchema()
	}
	switch t.Kind {
	case model.TypePrimitive:
		switch t.Name {
		case "string":
			return openapi3.NewStringSchema()
		case "number":
			return openapi3.NewFloat64Schema()
		case "boolean":
			return openapi3.NewBoolSchema()
		}
		return openapi3.NewSchema()
	case model.TypeArray:
		s := openapi3.NewArraySchema()
		s.Items = SchemaRef(t.Elem)
		return s
	case model.TypeRecord:
		s := openapi3.NewObjectSchema()
		s.Properties = make(openapi3.Schemas, len(t.Fields))
		for _, f := range t.Fields {
			s.Properties[f.Name] = SchemaRef(f.Type)
		}
		return s
	case model.TypeNamed:
		s := openapi3.NewSchema()
		s.Description = t.Name
		return s
	default:
		return openapi3.NewSchema()
	}
}
