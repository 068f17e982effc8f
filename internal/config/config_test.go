package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.RoutesDir)
	assert.Equal(t, filepath.Join("generated", "api.client.ts"), cfg.ClientOut)
	assert.Equal(t, filepath.Join("generated", "api.server.ts"), cfg.ServerOut)
	assert.Equal(t, "api", cfg.AccessorName)
	assert.Equal(t, "./try-catch", cfg.HelperImport)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchInterval())
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
routesDir: src/routes
accessorName: backend
watchIntervalMs: 100
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".routesmith.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "src/routes", cfg.RoutesDir)
	assert.Equal(t, "backend", cfg.AccessorName)
	assert.Equal(t, 100*time.Millisecond, cfg.WatchInterval())
	// Untouched keys keep their defaults.
	assert.Equal(t, "./try-catch", cfg.HelperImport)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".routesmith.yaml"), []byte("routesDir: [oops"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestRoutesPath(t *testing.T) {
	cfg := &Config{RoutesDir: "app"}
	assert.Equal(t, filepath.Join("/proj", "app"), cfg.RoutesPath("/proj"))
}
