package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binding-graph/envlsp/internal/ignore"
)

func TestIgnoresSimplePattern(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("node_modules\n*.log\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))

	m := ignore.New(root)
	assert.True(t, m.IsIgnored(filepath.Join(root, "node_modules"), true))
	assert.True(t, m.IsIgnored(filepath.Join(root, "debug.log"), false))
	assert.False(t, m.IsIgnored(filepath.Join(root, "index.ts"), false))
}

func TestNegationOverridesEarlierMatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.env\n!.env.example\n"), 0o644))

	m := ignore.New(root)
	assert.True(t, m.IsIgnored(filepath.Join(root, "secrets.env"), false))
	assert.False(t, m.IsIgnored(filepath.Join(root, ".env.example"), false))
}

func TestDirOnlyPatternIgnoresOnlyDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\n"), 0o644))

	m := ignore.New(root)
	assert.True(t, m.IsIgnored(filepath.Join(root, "build"), true))
	assert.False(t, m.IsIgnored(filepath.Join(root, "build"), false))
}

func TestNoGitignoreIgnoresNothing(t *testing.T) {
	root := t.TempDir()
	m := ignore.New(root)
	assert.False(t, m.IsIgnored(filepath.Join(root, "anything.ts"), false))
}
