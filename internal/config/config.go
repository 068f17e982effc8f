// Package config loads project configuration: code defaults overlaid by an
// optional .routesmith.yaml at the project root.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every user-tunable knob.
type Config struct {
	// RoutesDir is the handler directory, relative to the project root.
	RoutesDir string `yaml:"routesDir"`
	// ClientOut and ServerOut are the artifact paths, relative to the
	// project root.
	ClientOut string `yaml:"clientOut"`
	ServerOut string `yaml:"serverOut"`
	// AccessorName is the exported accessor object name in both artifacts.
	AccessorName string `yaml:"accessorName"`
	// HelperImport is the module specifier the generated files import the
	// tryCatch helper from.
	HelperImport string `yaml:"helperImport"`
	// WatchIntervalMS is the watch-mode polling interval in milliseconds.
	WatchIntervalMS int `yaml:"watchIntervalMs"`
	// Title and Version feed the OpenAPI export.
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Load returns the defaults overlaid by .routesmith.yaml when one exists.
func Load(projectPath string) (*Config, error) {
	cfg := &Config{
		RoutesDir:       "app",
		ClientOut:       filepath.Join("generated", "api.client.ts"),
		ServerOut:       filepath.Join("generated", "api.server.ts"),
		AccessorName:    "api",
		HelperImport:    "./try-catch",
		WatchIntervalMS: 500,
		Title:           "API Documentation",
		Version:         "1.0.0",
	}

	configPath := filepath.Join(projectPath, ".routesmith.yaml")
	data, err := os.ReadFile(configPath)
	if err == nil {
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, unmarshalErr
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if cfg.WatchIntervalMS <= 0 {
		cfg.WatchIntervalMS = 500
	}
	return cfg, nil
}

// WatchInterval returns the polling interval as a duration.
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.WatchIntervalMS) * time.Millisecond
}

// RoutesPath resolves the route directory against the project root.
func (c *Config) RoutesPath(projectPath string) string {
	return filepath.Join(projectPath, c.RoutesDir)
}
