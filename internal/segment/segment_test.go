package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/routesmith/routesmith/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		kind  model.SegmentKind
		param string
	}{
		{"users", model.SegmentStatic, ""},
		{"[postId]", model.SegmentDynamic, "postId"},
		{"[...slug]", model.SegmentCatchAll, "slug"},
		{"(marketing)", model.SegmentGroup, ""},
		{"api", model.SegmentCollector, ""},
		{"API", model.SegmentCollector, ""},
		// Unrecognized decoration falls back to static.
		{"[]", model.SegmentStatic, ""},
		{"[...]", model.SegmentStatic, ""},
		{"[not valid]", model.SegmentStatic, ""},
		{"()", model.SegmentStatic, ""},
		{"v2", model.SegmentStatic, ""},
	}
	for _, tt := range tests {
		kind, param := Classify(tt.name)
		assert.Equal(t, tt.kind, kind, "kind of %q", tt.name)
		assert.Equal(t, tt.param, param, "param of %q", tt.name)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "users", Key("users"))
	assert.Equal(t, "postId", Key("[postId]"))
	assert.Equal(t, "slug", Key("[...slug]"))
}
