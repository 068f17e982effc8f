// Package routesmith generates typed TypeScript client and server accessors
// from a file-system route directory, where each directory maps to a path
// segment and each route file exports one handler per HTTP verb.
package routesmith

import (
	"context"
	"fmt"
	"os"

	"github.com/routesmith/routesmith/internal/config"
	"github.com/routesmith/routesmith/internal/coordinator"
	"github.com/routesmith/routesmith/internal/model"
	"github.com/routesmith/routesmith/internal/tree"
)

// Options override loaded configuration values for one invocation.
type Options struct {
	Verbose   bool
	ClientOut string
	ServerOut string
}

func loadConfig(projectPath string, opts Options) (*config.Config, error) {
	cfg, err := config.Load(projectPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if opts.ClientOut != "" {
		cfg.ClientOut = opts.ClientOut
	}
	if opts.ServerOut != "" {
		cfg.ServerOut = opts.ServerOut
	}
	return cfg, nil
}

// Generate runs one full build of the project's route tree and writes both
// artifacts.
func Generate(ctx context.Context, projectPath string, opts Options) error {
	cfg, err := loadConfig(projectPath, opts)
	if err != nil {
		return err
	}
	c := coordinator.New(cfg, projectPath)
	c.SetVerbose(opts.Verbose)
	return c.Generate(ctx)
}

// Watch performs an initial build, then regenerates incrementally on every
// route-file change until ctx is cancelled. Failures while watching are
// reported and do not stop the watch.
func Watch(ctx context.Context, projectPath string, opts Options) error {
	cfg, err := loadConfig(projectPath, opts)
	if err != nil {
		return err
	}
	c := coordinator.New(cfg, projectPath)
	c.SetVerbose(opts.Verbose)
	if err := c.Generate(ctx); err != nil {
		return err
	}

	w := coordinator.NewWatcher(c.RoutesDir(), cfg.WatchInterval(), func(ev coordinator.Event) {
		if err := c.Apply(ctx, ev); err != nil {
			fmt.Fprintf(os.Stderr, "Update failed for %s: %v\n", ev.Path, err)
		}
	})
	if err := w.Start(); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	<-ctx.Done()
	return nil
}

// BuildTree builds and returns the project's route tree along with the
// loaded configuration, without writing any artifacts.
func BuildTree(ctx context.Context, projectPath string) (*model.RouteNode, *config.Config, error) {
	cfg, err := config.Load(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	root, err := tree.NewBuilder().Build(ctx, cfg.RoutesPath(projectPath))
	if err != nil {
		return nil, nil, err
	}
	return root, cfg, nil
}
