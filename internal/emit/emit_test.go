package emit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routesmith/routesmith/internal/model"
)

func fixtureTree() *model.RouteNode {
	root := model.NewRouteNode("app")

	users := model.NewRouteNode("users")
	users.Kind = model.SegmentStatic
	users.Methods = []*model.Handler{
		{
			Verb:   "GET",
			Input:  model.Void(),
			Output: model.Named("User[]"),
			Body:   "return listUsers();",
		},
		{
			Verb:    "POST",
			Input:   model.Record([]model.Field{{Name: "name", Type: model.Primitive("string")}}),
			Output:  model.Record([]model.Field{{Name: "ok", Type: model.Primitive("boolean")}}),
			Body:    "return save(body);",
			BodyVar: "body",
		},
	}
	users.Imports = []*model.ImportSpec{
		{Module: "@/lib/users", Named: []model.NamedImport{{Name: "listUsers"}, {Name: "save"}}},
	}
	root.Children["users"] = users

	posts := model.NewRouteNode("posts")
	posts.Kind = model.SegmentStatic
	postID := model.NewRouteNode("[postId]")
	postID.Kind = model.SegmentDynamic
	postID.Param = "postId"
	postID.Methods = []*model.Handler{
		{
			Verb:   "GET",
			Input:  model.Void(),
			Output: model.Record([]model.Field{{Name: "title", Type: model.Primitive("string")}}),
			Body:   `return { title: "hello" };`,
		},
	}
	posts.Children["postId"] = postID
	root.Children["posts"] = posts

	return root
}

func TestClientEmitIsDeterministic(t *testing.T) {
	e := &Client{AccessorName: "api", HelperImport: "./try-catch"}
	first := e.Emit(fixtureTree())
	second := e.Emit(fixtureTree())
	assert.Equal(t, first, second)
}

func TestClientEmitShape(t *testing.T) {
	e := &Client{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(fixtureTree())

	assert.True(t, strings.HasPrefix(out, "// Code generated by routesmith. DO NOT EDIT.\n"))
	assert.Contains(t, out, `import { tryCatch } from "./try-catch";`)
	assert.Contains(t, out, `import useSWR from "swr";`)
	assert.Contains(t, out, `import useSWRMutation from "swr/mutation";`)
	assert.Contains(t, out, "const withSearch = (path: string, searchParams?: Record<string, string>)")
	assert.Contains(t, out, "export const api = {")

	// GET members are read hooks keyed by verb, path and search parameters.
	assert.Contains(t, out, "USERS: {")
	assert.Contains(t, out, `useSWR(["GET", `+"`/users`"+`, options?.searchParams]`)
	assert.Contains(t, out, "as Promise<User[]>")

	// Payload-consuming members require a typed body option.
	assert.Contains(t, out, "options: { body: { name: string }; searchParams?: Record<string, string> }")
	assert.Contains(t, out, `useSWRMutation(["POST", `+"`/users`"+`]`)
	assert.Contains(t, out, `method: "POST"`)
	assert.Contains(t, out, "body: JSON.stringify(options.body)")

	// Dynamic segments become parameter-taking functions.
	assert.Contains(t, out, "POSTID: (postId: string) => ({")
	assert.Contains(t, out, "`/posts/${postId}`")

	// Handler bodies never leak into the client artifact.
	assert.NotContains(t, out, "listUsers")
	assert.NotContains(t, out, "@/lib/users")
}

func TestClientRedirectMemberDoesNotFetch(t *testing.T) {
	root := model.NewRouteNode("app")
	login := model.NewRouteNode("login")
	login.Kind = model.SegmentStatic
	login.Methods = []*model.Handler{{
		Verb:        "GET",
		Input:       model.Void(),
		Output:      model.Void(),
		Marker:      model.MarkerRedirect,
		RedirectURL: "/dashboard",
	}}
	root.Children["login"] = login

	e := &Client{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(root)

	assert.Contains(t, out, "window.location.assign(withSearch(`/dashboard`, options?.searchParams))")
	assert.NotContains(t, out, "fetch(")
	assert.NotContains(t, out, "useSWR(")
}

func TestClientStreamingMember(t *testing.T) {
	root := model.NewRouteNode("app")
	feed := model.NewRouteNode("feed")
	feed.Kind = model.SegmentStatic
	feed.Methods = []*model.Handler{{
		Verb:   "GET",
		Input:  model.Void(),
		Output: model.Unknown(),
		Marker: model.MarkerStreaming,
		Body:   "return stream();",
	}}
	root.Children["feed"] = feed

	e := &Client{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(root)

	assert.Contains(t, out, "res.body!.pipeThrough(new TextDecoderStream()).getReader()")
	assert.NotContains(t, out, "useSWR(")
}

func TestServerEmitShape(t *testing.T) {
	e := &Server{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(fixtureTree())

	assert.True(t, strings.HasPrefix(out, "// Code generated by routesmith. DO NOT EDIT.\n"))
	assert.Contains(t, out, `import { tryCatch } from "./try-catch";`)
	// Route-file imports survive into the server artifact when referenced.
	assert.Contains(t, out, `import { listUsers, save } from "@/lib/users";`)

	// Bodies replay inside the error-capturing helper.
	assert.Contains(t, out, "tryCatch(async () => {")
	assert.Contains(t, out, "return listUsers();")
	// The payload binding is re-synthesized from the options.
	assert.Contains(t, out, "const body = options.body;")
	assert.Contains(t, out, "return save(body);")

	// Server members never fetch.
	assert.NotContains(t, out, "fetch(")
	assert.NotContains(t, out, "useSWR")
}

func TestServerRedirectMember(t *testing.T) {
	root := model.NewRouteNode("app")
	login := model.NewRouteNode("login")
	login.Kind = model.SegmentStatic
	login.Methods = []*model.Handler{{
		Verb:        "GET",
		Input:       model.Void(),
		Output:      model.Void(),
		Marker:      model.MarkerRedirect,
		RedirectURL: "/dashboard",
	}}
	login.Imports = []*model.ImportSpec{
		{Module: "next/navigation", Named: []model.NamedImport{{Name: "redirect"}}},
	}
	root.Children["login"] = login

	e := &Server{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(root)

	assert.Contains(t, out, `import { redirect } from "next/navigation";`)
	assert.Contains(t, out, "GET: async (options?: { searchParams?: Record<string, string> }): Promise<void> => {")
	assert.Contains(t, out, "redirect(`/dashboard`);")
	assert.NotContains(t, out, "tryCatch(async")
}

func TestServerPaginatedMember(t *testing.T) {
	root := model.NewRouteNode("app")
	items := model.NewRouteNode("items")
	items.Kind = model.SegmentStatic
	items.Methods = []*model.Handler{{
		Verb:    "GET",
		Input:   model.Void(),
		Output:  model.Unknown(),
		Marker:  model.MarkerPaginated,
		PageVar: "pageNum",
		Body:    "return loadPage(pageNum);",
	}}
	root.Children["items"] = items

	e := &Server{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(root)

	// The caller's page argument replaces the original binding, defaulting to 1.
	assert.Contains(t, out, ", page = 1)")
	assert.Contains(t, out, "return loadPage(page);")
	assert.NotContains(t, out, "pageNum")
}

func TestServerRequestSubObjects(t *testing.T) {
	root := model.NewRouteNode("app")
	me := model.NewRouteNode("me")
	me.Kind = model.SegmentStatic
	me.Methods = []*model.Handler{{
		Verb:        "GET",
		Input:       model.Void(),
		Output:      model.Unknown(),
		ParamName:   "request",
		UsesSearch:  true,
		UsesHeaders: true,
		Body: "const q = request.nextUrl.searchParams.get(\"q\");\n" +
			"const auth = request.headers.get(\"authorization\");\n" +
			"return { q, auth };",
	}}
	root.Children["me"] = me

	e := &Server{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(root)

	// A request-shaped object carries the caller's search parameters.
	assert.Contains(t, out, "const request = { nextUrl: { searchParams: new URLSearchParams(options?.searchParams) } };")
	// Header access replays through the framework's async accessor.
	assert.Contains(t, out, `(await headers()).get("authorization")`)
	assert.Contains(t, out, `import { headers } from "next/headers";`)
	assert.NotContains(t, out, "request.headers")
}

func TestPathTemplates(t *testing.T) {
	assert.Equal(t, "`/`", pathTemplate(nil))
	assert.Equal(t, "`/users`", pathTemplate([]step{{kind: model.SegmentStatic, name: "users"}}))
	assert.Equal(t, "`/posts/${postId}`", pathTemplate([]step{
		{kind: model.SegmentStatic, name: "posts"},
		{kind: model.SegmentDynamic, name: "postId"},
	}))
	assert.Equal(t, "`/blog/${slug.join(\"/\")}`", pathTemplate([]step{
		{kind: model.SegmentStatic, name: "blog"},
		{kind: model.SegmentCatchAll, name: "slug"},
	}))
}

func TestCatchAllMemberSignature(t *testing.T) {
	root := model.NewRouteNode("app")
	blog := model.NewRouteNode("blog")
	blog.Kind = model.SegmentStatic
	slug := model.NewRouteNode("[...slug]")
	slug.Kind = model.SegmentCatchAll
	slug.Param = "slug"
	slug.Methods = []*model.Handler{{
		Verb:   "GET",
		Input:  model.Void(),
		Output: model.Unknown(),
		Body:   "return null;",
	}}
	blog.Children["slug"] = slug
	root.Children["blog"] = blog

	e := &Client{AccessorName: "api", HelperImport: "./try-catch"}
	out := e.Emit(root)
	assert.Contains(t, out, "SLUG: (slug: string[]) => ({")
	assert.Contains(t, out, "`/blog/${slug.join(\"/\")}`")
	require.Contains(t, out, "BLOG: {")
}
