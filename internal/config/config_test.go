package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Render.DefaultDepth)
	assert.False(t, cfg.Watch)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5, cfg.Render.DefaultDepth)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codetree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("working_dir: /srv/analysis\nlog_level: debug\nwatch: true\nrender:\n  default_depth: 3\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/analysis", cfg.WorkingDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 3, cfg.Render.DefaultDepth)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CODETREE_WORKING_DIR", "/env/dir")
	t.Setenv("CODETREE_LOG_LEVEL", "warn")
	t.Setenv("CODETREE_RENDER_DEPTH", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/dir", cfg.WorkingDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Render.DefaultDepth)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codetree.yaml")
	require.NoError(t, WriteDefault(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// A second write must not clobber the file.
	assert.Error(t, WriteDefault(path))
}

func TestTreeDir(t *testing.T) {
	cfg := &Config{WorkingDir: "/srv/analysis"}
	dir, err := cfg.TreeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/analysis", "knowledge-tree"), dir)
}
