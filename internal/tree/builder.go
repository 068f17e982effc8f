// Package tree builds the route tree by walking the route directory,
// analyzing each directory's route file, and flattening route-group and
// method-collector segments into their parents.
package tree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/routesmith/routesmith/internal/analyzer"
	"github.com/routesmith/routesmith/internal/model"
	"github.com/routesmith/routesmith/internal/segment"
)

// RouteFileName is the per-directory route file the builder recognizes.
const RouteFileName = "route.ts"

// Builder constructs route trees. Safe for concurrent use.
type Builder struct {
	analyzer *analyzer.Analyzer
}

// NewBuilder returns a Builder backed by a fresh analyzer.
func NewBuilder() *Builder {
	return &Builder{analyzer: analyzer.New()}
}

// Build walks dir recursively and returns its route tree. Sibling
// subdirectories are visited concurrently; the parent awaits all children
// before merging, so each node is assembled by exactly one goroutine. A
// directory without a route file yields a node with zero methods.
func (b *Builder) Build(ctx context.Context, dir string) (*model.RouteNode, error) {
	node := model.NewRouteNode(filepath.Base(dir))

	routePath := filepath.Join(dir, RouteFileName)
	if _, err := os.Stat(routePath); err == nil {
		res, err := b.analyzer.AnalyzeFile(ctx, routePath)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", routePath, err)
		}
		node.Methods = res.Handlers
		node.Imports = res.Imports
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read route directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}

	children := make([]*model.RouteNode, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			child, err := b.Build(gctx, filepath.Join(dir, name))
			if err != nil {
				return err
			}
			children[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge in directory order; the map shape makes sibling order irrelevant.
	for i, name := range names {
		child := children[i]
		kind, param := segment.Classify(name)
		switch kind {
		case model.SegmentGroup, model.SegmentCollector:
			node.Absorb(child)
		default:
			child.Kind = kind
			child.Param = param
			key := segment.Key(name)
			if existing, ok := node.Children[key]; ok {
				existing.Absorb(child)
				continue
			}
			node.Children[key] = child
		}
	}
	return node, nil
}
