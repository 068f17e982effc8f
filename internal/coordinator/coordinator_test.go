package coordinator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routesmith/routesmith/internal/config"
	"github.com/routesmith/routesmith/internal/tree"
)

const getRoute = `
import { NextResponse } from "next/server";

export async function GET() {
  return NextResponse.json([]);
}
`

const getPutRoute = `
import { NextResponse } from "next/server";

export async function GET() {
  return NextResponse.json([]);
}

export async function PUT(request: Request) {
  const body = await request.json();
  return NextResponse.json(body);
}
`

func testConfig() *config.Config {
	return &config.Config{
		RoutesDir:    "app",
		ClientOut:    filepath.Join("gen", "api.client.ts"),
		ServerOut:    filepath.Join("gen", "api.server.ts"),
		AccessorName: "api",
		HelperImport: "./try-catch",
	}
}

func writeRoute(t *testing.T, dir, src string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tree.RouteFileName), []byte(src), 0o644))
}

func setup(t *testing.T) (string, *Coordinator) {
	t.Helper()
	project := t.TempDir()
	writeRoute(t, filepath.Join(project, "app", "users"), getRoute)
	writeRoute(t, filepath.Join(project, "app", "posts", "[postId]"), getRoute)

	c := New(testConfig(), project)
	require.NoError(t, c.Generate(context.Background()))
	return project, c
}

func readArtifact(t *testing.T, project, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(project, rel))
	require.NoError(t, err)
	return string(data)
}

func TestGenerateWritesBothArtifacts(t *testing.T) {
	project, c := setup(t)

	client := readArtifact(t, project, filepath.Join("gen", "api.client.ts"))
	server := readArtifact(t, project, filepath.Join("gen", "api.server.ts"))
	assert.Contains(t, client, "USERS: {")
	assert.Contains(t, server, "USERS: {")
	assert.NotNil(t, c.Tree().Children["users"])
}

func TestApplyReplacesSubtree(t *testing.T) {
	project, c := setup(t)
	ctx := context.Background()

	usersDir := filepath.Join(project, "app", "users")
	writeRoute(t, usersDir, getPutRoute)
	require.NoError(t, c.Apply(ctx, Event{Path: filepath.Join(usersDir, tree.RouteFileName), Op: OpChange}))

	users := c.Tree().Children["users"]
	require.NotNil(t, users)
	assert.NotNil(t, users.Method("PUT"))

	client := readArtifact(t, project, filepath.Join("gen", "api.client.ts"))
	assert.Contains(t, client, "PUT:")
}

func TestApplyRemovesDeletedDirectory(t *testing.T) {
	project, c := setup(t)
	ctx := context.Background()

	usersDir := filepath.Join(project, "app", "users")
	require.NoError(t, os.RemoveAll(usersDir))
	require.NoError(t, c.Apply(ctx, Event{Path: filepath.Join(usersDir, tree.RouteFileName), Op: OpRemove}))

	assert.Nil(t, c.Tree().Children["users"])
	client := readArtifact(t, project, filepath.Join("gen", "api.client.ts"))
	assert.NotContains(t, client, "USERS:")
}

func TestApplySkipsStaleAncestor(t *testing.T) {
	project, c := setup(t)
	ctx := context.Background()

	ghost := filepath.Join(project, "app", "ghost", "deep", tree.RouteFileName)
	err := c.Apply(ctx, Event{Path: ghost, Op: OpChange})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale event")
}

func TestApplyRejectsOutsidePath(t *testing.T) {
	project, c := setup(t)
	ctx := context.Background()

	outside := filepath.Join(project, "elsewhere", tree.RouteFileName)
	err := c.Apply(ctx, Event{Path: outside, Op: OpChange})
	require.Error(t, err)
}

func TestApplyAddsNewTopLevelRoute(t *testing.T) {
	project, c := setup(t)
	ctx := context.Background()

	teamsDir := filepath.Join(project, "app", "teams")
	writeRoute(t, teamsDir, getRoute)
	require.NoError(t, c.Apply(ctx, Event{Path: filepath.Join(teamsDir, tree.RouteFileName), Op: OpAdd}))

	assert.NotNil(t, c.Tree().Children["teams"])
}

func TestApplyUnderGroupRebuildsFully(t *testing.T) {
	project, c := setup(t)
	ctx := context.Background()

	contactDir := filepath.Join(project, "app", "(marketing)", "contact")
	writeRoute(t, contactDir, getRoute)
	require.NoError(t, c.Apply(ctx, Event{Path: filepath.Join(contactDir, tree.RouteFileName), Op: OpAdd}))

	// The flattened group surfaces its child at the root.
	assert.NotNil(t, c.Tree().Children["contact"])
}
