package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binding-graph/envlsp/internal/config"
)

func TestDefaultMatchesDotEnv(t *testing.T) {
	cfg := config.Default()
	assert.True(t, cfg.IsEnvFile(".env"))
	assert.True(t, cfg.IsEnvFile(".env.local"))
	assert.False(t, cfg.IsEnvFile("index.ts"))
}

func TestLoadFromWorkspaceMissingFileReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.LoadFromWorkspace(root)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFromWorkspaceMergesOverrides(t *testing.T) {
	root := t.TempDir()
	content := "workspace:\n  envFiles:\n    - \".env\"\n    - \"*.envrc\"\nstrict:\n  hover: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".envlsp.yaml"), []byte(content), 0o644))

	cfg, err := config.LoadFromWorkspace(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{".env", "*.envrc"}, cfg.Workspace.EnvFiles)
	assert.False(t, cfg.Strict.Hover)
	assert.True(t, cfg.Features.Hover)
}
