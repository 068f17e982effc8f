// Package coordinator owns the live route tree. It performs the initial
// build, applies file-change events one at a time, recomputes only the
// affected subtree, and regenerates both artifacts after every change.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/routesmith/routesmith/internal/config"
	"github.com/routesmith/routesmith/internal/emit"
	"github.com/routesmith/routesmith/internal/model"
	"github.com/routesmith/routesmith/internal/segment"
	"github.com/routesmith/routesmith/internal/tree"
)

// Op is the kind of file-system change an event reports.
type Op int

const (
	OpAdd Op = iota
	OpChange
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one observed change to a route file.
type Event struct {
	Path string
	Op   Op
}

// Coordinator serializes tree updates and artifact regeneration. Events are
// applied strictly one at a time; an event arriving mid-update waits.
type Coordinator struct {
	mu      sync.Mutex
	builder *tree.Builder
	client  *emit.Client
	server  *emit.Server

	routesDir string
	clientOut string
	serverOut string
	verbose   bool

	root *model.RouteNode
}

// New wires a coordinator for the given project.
func New(cfg *config.Config, projectPath string) *Coordinator {
	return &Coordinator{
		builder:   tree.NewBuilder(),
		client:    &emit.Client{AccessorName: cfg.AccessorName, HelperImport: cfg.HelperImport},
		server:    &emit.Server{AccessorName: cfg.AccessorName, HelperImport: cfg.HelperImport},
		routesDir: cfg.RoutesPath(projectPath),
		clientOut: filepath.Join(projectPath, cfg.ClientOut),
		serverOut: filepath.Join(projectPath, cfg.ServerOut),
	}
}

// SetVerbose enables per-update progress output.
func (c *Coordinator) SetVerbose(v bool) { c.verbose = v }

// RoutesDir returns the absolute route directory the coordinator watches.
func (c *Coordinator) RoutesDir() string { return c.routesDir }

// Tree returns the current route tree. Valid after Generate.
func (c *Coordinator) Tree() *model.RouteNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.root
}

// Generate performs a full build of the route tree and writes both
// artifacts.
func (c *Coordinator) Generate(ctx context.Context) error {
	root, err := c.builder.Build(ctx, c.routesDir)
	if err != nil {
		return err
	}
	if c.verbose {
		printRoutes(root, "")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.root = root
	return c.regenerateLocked(ctx)
}

// printRoutes prints one line per route with its implemented verbs.
func printRoutes(node *model.RouteNode, prefix string) {
	if len(node.Methods) > 0 {
		path := prefix
		if path == "" {
			path = "/"
		}
		verbs := make([]string, 0, len(node.Methods))
		for _, h := range node.Methods {
			verbs = append(verbs, h.Verb)
		}
		fmt.Printf("  %s [%s]\n", path, strings.Join(verbs, " "))
	}
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		child := node.Children[key]
		part := child.Segment
		switch child.Kind {
		case model.SegmentDynamic:
			part = "[" + child.Param + "]"
		case model.SegmentCatchAll:
			part = "[..." + child.Param + "]"
		}
		printRoutes(child, prefix+"/"+part)
	}
}

// Apply incorporates one file event into the tree and regenerates both
// artifacts. Only the subtree rooted at the event's directory is re-analyzed;
// everything above and beside it is reused. Events whose ancestor path no
// longer matches the tree are reported and skipped.
func (c *Coordinator) Apply(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.root == nil {
		return fmt.Errorf("apply before initial build")
	}

	dir := ev.Path
	if filepath.Base(dir) == tree.RouteFileName {
		dir = filepath.Dir(dir)
	}
	rel, err := filepath.Rel(c.routesDir, dir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("event outside route directory: %s", ev.Path)
	}

	if c.verbose {
		fmt.Printf("  [%s] %s\n", ev.Op, ev.Path)
	}

	if rel == "." || c.pathCrossesFlattened(rel) {
		// Changes at the root, or under a flattened group or collector
		// segment, cannot be swapped in as a single child; rebuild fully.
		root, err := c.builder.Build(ctx, c.routesDir)
		if err != nil {
			return err
		}
		c.root = root
		return c.regenerateLocked(ctx)
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	parent := c.root
	for _, part := range parts[:len(parts)-1] {
		child, ok := parent.Children[segment.Key(part)]
		if !ok {
			return fmt.Errorf("stale event, no route for %s: %s", part, ev.Path)
		}
		parent = child
	}

	last := parts[len(parts)-1]
	key := segment.Key(last)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		delete(parent.Children, key)
		return c.regenerateLocked(ctx)
	}

	subtree, err := c.builder.Build(ctx, dir)
	if err != nil {
		return err
	}
	kind, param := segment.Classify(last)
	subtree.Kind = kind
	subtree.Param = param
	parent.Children[key] = subtree
	return c.regenerateLocked(ctx)
}

// pathCrossesFlattened reports whether any segment of the relative path is a
// route group or method collector. Those segments are flattened into their
// parents during construction, so the tree has no node to replace for them.
func (c *Coordinator) pathCrossesFlattened(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		kind, _ := segment.Classify(part)
		if kind == model.SegmentGroup || kind == model.SegmentCollector {
			return true
		}
	}
	return false
}

// regenerateLocked emits both artifacts concurrently and writes each as a
// whole file. Callers hold the mutex; the tree is not mutated while emitting.
func (c *Coordinator) regenerateLocked(ctx context.Context) error {
	root := c.root

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeArtifact(c.clientOut, c.client.Emit(root))
	})
	g.Go(func() error {
		return writeArtifact(c.serverOut, c.server.Emit(root))
	})
	return g.Wait()
}

func writeArtifact(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
