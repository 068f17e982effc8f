package tree

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routesmith/routesmith/internal/model"
)

func writeRoute(t *testing.T, dir, src string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, RouteFileName), []byte(src), 0o644))
}

const usersRoute = `
import { NextResponse } from "next/server";

export async function GET() {
  return NextResponse.json([]);
}

export async function POST(request: Request) {
  const body = await request.json();
  return NextResponse.json(body);
}
`

const postRoute = `
import { NextResponse } from "next/server";

export async function GET() {
  return NextResponse.json({ title: "hello" });
}
`

const slugRoute = `
import { NextResponse } from "next/server";

export async function GET() {
  return NextResponse.json(["a"]);
}
`

const contactRoute = `
import { NextResponse } from "next/server";

export async function POST(request: Request) {
  const body = await request.json();
  return NextResponse.json({ received: true });
}
`

func buildFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeRoute(t, filepath.Join(root, "users"), usersRoute)
	writeRoute(t, filepath.Join(root, "posts", "[postId]"), postRoute)
	writeRoute(t, filepath.Join(root, "blog", "[...slug]"), slugRoute)
	writeRoute(t, filepath.Join(root, "(marketing)", "contact"), contactRoute)
	writeRoute(t, filepath.Join(root, "api", "health"), postRoute)
	return root
}

func TestBuildTree(t *testing.T) {
	root, err := NewBuilder().Build(context.Background(), buildFixture(t))
	require.NoError(t, err)

	// Groups and collectors are flattened; their children surface at the parent.
	assert.ElementsMatch(t,
		[]string{"users", "posts", "blog", "contact", "health"},
		keys(root.Children))

	users := root.Children["users"]
	require.NotNil(t, users)
	assert.Equal(t, model.SegmentStatic, users.Kind)
	assert.NotNil(t, users.Method("GET"))
	assert.NotNil(t, users.Method("POST"))

	postID := root.Children["posts"].Children["postId"]
	require.NotNil(t, postID)
	assert.Equal(t, model.SegmentDynamic, postID.Kind)
	assert.Equal(t, "postId", postID.Param)

	slug := root.Children["blog"].Children["slug"]
	require.NotNil(t, slug)
	assert.Equal(t, model.SegmentCatchAll, slug.Kind)
	assert.Equal(t, "slug", slug.Param)

	contact := root.Children["contact"]
	require.NotNil(t, contact)
	assert.NotNil(t, contact.Method("POST"))
}

func TestBuildDirectoryWithoutRouteFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty", "nested"), 0o755))
	writeRoute(t, filepath.Join(dir, "empty", "nested"), postRoute)

	root, err := NewBuilder().Build(context.Background(), dir)
	require.NoError(t, err)

	empty := root.Children["empty"]
	require.NotNil(t, empty)
	assert.Empty(t, empty.Methods)
	assert.NotNil(t, empty.Children["nested"].Method("GET"))
}

func TestGroupCollisionMergesChildren(t *testing.T) {
	dir := t.TempDir()
	writeRoute(t, filepath.Join(dir, "(a)", "shared"), usersRoute)
	writeRoute(t, filepath.Join(dir, "(b)", "shared", "deep"), postRoute)

	root, err := NewBuilder().Build(context.Background(), dir)
	require.NoError(t, err)

	shared := root.Children["shared"]
	require.NotNil(t, shared)
	assert.NotNil(t, shared.Method("GET"))
	assert.NotNil(t, shared.Children["deep"])
}

func keys(children map[string]*model.RouteNode) []string {
	out := make([]string, 0, len(children))
	for k := range children {
		out = append(out, k)
	}
	return out
}
