package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routesmith/routesmith/internal/model"
)

func TestBuildSpec(t *testing.T) {
	root := model.NewRouteNode("app")

	users := model.NewRouteNode("users")
	users.Kind = model.SegmentStatic
	users.Methods = []*model.Handler{
		{Verb: "GET", Input: model.Void(), Output: model.Array(model.Primitive("string"))},
		{
			Verb:    "POST",
			Input:   model.Record([]model.Field{{Name: "name", Type: model.Primitive("string")}}),
			Output:  model.Record([]model.Field{{Name: "ok", Type: model.Primitive("boolean")}}),
			BodyVar: "body",
		},
	}
	userID := model.NewRouteNode("[userId]")
	userID.Kind = model.SegmentDynamic
	userID.Param = "userId"
	userID.Methods = []*model.Handler{
		{Verb: "GET", Input: model.Void(), Output: model.Unknown()},
	}
	users.Children["userId"] = userID
	root.Children["users"] = users

	spec, err := BuildSpec(root, "Test API", "2.0.0")
	require.NoError(t, err)

	assert.Equal(t, "Test API", spec.Info.Title)
	assert.Equal(t, "2.0.0", spec.Info.Version)

	usersItem := spec.Paths.Find("/users")
	require.NotNil(t, usersItem)
	require.NotNil(t, usersItem.Get)
	require.NotNil(t, usersItem.Post)

	// Payload-consuming handlers carry a request body schema.
	require.NotNil(t, usersItem.Post.RequestBody)
	body := usersItem.Post.RequestBody.Value.Content.Get("application/json")
	require.NotNil(t, body)
	assert.Contains(t, body.Schema.Value.Properties, "name")

	// Void handlers do not.
	assert.Nil(t, usersItem.Get.RequestBody)

	// Dynamic segments become templated paths with string path parameters.
	idItem := spec.Paths.Find("/users/{userId}")
	require.NotNil(t, idItem)
	require.NotNil(t, idItem.Get)
	require.Len(t, idItem.Get.Parameters, 1)
	assert.Equal(t, "userId", idItem.Get.Parameters[0].Value.Name)
	assert.Equal(t, "path", idItem.Get.Parameters[0].Value.In)
}

func TestSchemaForTypes(t *testing.T) {
	arr := schemaFor(model.Array(model.Primitive("number")))
	require.NotNil(t, arr.Items)
	assert.True(t, arr.Type.Is("array"))
	assert.True(t, arr.Items.Value.Type.Is("number"))

	rec := schemaFor(model.Record([]model.Field{
		{Name: "id", Type: model.Primitive("number")},
		{Name: "tags", Type: model.Array(model.Primitive("string"))},
	}))
	assert.True(t, rec.Type.Is("object"))
	assert.Contains(t, rec.Properties, "id")
	assert.Contains(t, rec.Properties, "tags")

	assert.True(t, schemaFor(model.Primitive("boolean")).Type.Is("boolean"))
	assert.Empty(t, schemaFor(model.Unknown()).Type.Slice())
}
