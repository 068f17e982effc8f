package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeExprString(t *testing.T) {
	assert.Equal(t, "unknown", Unknown().String())
	assert.Equal(t, "void", Void().String())
	assert.Equal(t, "string[]", Array(Primitive("string")).String())
	assert.Equal(t, "unknown[]", Array(Unknown()).String())
	assert.Equal(t, "(string | number)[]", Array(Named("string | number")).String())
	assert.Equal(t, "Record<string, unknown>", Record(nil).String())
	assert.Equal(t, "{ name: string; tags: string[] }", Record([]Field{
		{Name: "name", Type: Primitive("string")},
		{Name: "tags", Type: Array(Primitive("string"))},
	}).String())
}

func TestAbsorbMergesTransparentChild(t *testing.T) {
	parent := NewRouteNode("app")
	parent.Methods = []*Handler{{Verb: "GET"}}

	group := NewRouteNode("(marketing)")
	group.Methods = []*Handler{{Verb: "GET"}, {Verb: "POST"}}
	contact := NewRouteNode("contact")
	group.Children["contact"] = contact

	parent.Absorb(group)

	// The parent's own handler wins a verb collision.
	assert.Len(t, parent.Methods, 2)
	assert.Same(t, contact, parent.Children["contact"])
}

func TestHasPayload(t *testing.T) {
	assert.False(t, (&Handler{}).HasPayload())
	assert.True(t, (&Handler{BodyVar: "body"}).HasPayload())
	assert.True(t, (&Handler{BodyParams: []string{"name"}}).HasPayload())
}
