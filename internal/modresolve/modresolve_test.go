package modresolve_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/modresolve"
)

func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "utils"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "config.ts"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "utils", "env.ts"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "config", "index.ts"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "utils", "helpers.js"), nil, 0o644))
	return root
}

func tsAdapter(t *testing.T) lang.Adapter {
	t.Helper()
	reg := lang.NewRegistry()
	a, ok := reg.ByID("typescript")
	require.True(t, ok)
	return a
}

func TestResolveRelativeImport(t *testing.T) {
	root := setupWorkspace(t)
	r := modresolve.New(root)
	adapter := tsAdapter(t)
	from := modresolve.PathToURI(filepath.Join(root, "src", "index.ts"))

	got, ok := r.Resolve("./config", from, adapter)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "config.ts"), got)

	got, ok = r.Resolve("./utils/env", from, adapter)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "utils", "env.ts"), got)
}

func TestResolveParentDirectory(t *testing.T) {
	root := setupWorkspace(t)
	r := modresolve.New(root)
	adapter := tsAdapter(t)
	from := modresolve.PathToURI(filepath.Join(root, "src", "utils", "helpers.js"))

	got, ok := r.Resolve("../config", from, adapter)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "config.ts"), got)
}

func TestResolveIndexFile(t *testing.T) {
	root := setupWorkspace(t)
	r := modresolve.New(root)
	adapter := tsAdapter(t)
	from := modresolve.PathToURI(filepath.Join(root, "src", "index.ts"))
	// Without a sibling config.ts, "./config" falls through to config/index.ts.
	require.NoError(t, os.Remove(filepath.Join(root, "src", "config.ts")))

	got, ok := r.Resolve("./config", from, adapter)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "src", "config", "index.ts"), got)
}

func TestNoResolvePackageImport(t *testing.T) {
	root := setupWorkspace(t)
	r := modresolve.New(root)
	adapter := tsAdapter(t)
	from := modresolve.PathToURI(filepath.Join(root, "src", "index.ts"))

	_, ok := r.Resolve("lodash", from, adapter)
	assert.False(t, ok)
	_, ok = r.Resolve("@scope/pkg", from, adapter)
	assert.False(t, ok)
}

func TestNoResolveAbsoluteImport(t *testing.T) {
	root := setupWorkspace(t)
	r := modresolve.New(root)
	adapter := tsAdapter(t)
	from := modresolve.PathToURI(filepath.Join(root, "src", "index.ts"))

	_, ok := r.Resolve("/absolute/path", from, adapter)
	assert.False(t, ok)
}

func TestNoResolveOutsideWorkspace(t *testing.T) {
	root := setupWorkspace(t)
	r := modresolve.New(root)
	adapter := tsAdapter(t)
	from := modresolve.PathToURI(filepath.Join(root, "src", "index.ts"))

	_, ok := r.Resolve("../../../outside/workspace", from, adapter)
	assert.False(t, ok)
}

func TestIsRelativeImport(t *testing.T) {
	assert.True(t, modresolve.IsRelativeImport("./config"))
	assert.True(t, modresolve.IsRelativeImport("../utils"))
	assert.False(t, modresolve.IsRelativeImport("lodash"))
	assert.False(t, modresolve.IsRelativeImport("@scope/pkg"))
	assert.False(t, modresolve.IsRelativeImport("/absolute"))
}

func TestIsPackageImport(t *testing.T) {
	assert.True(t, modresolve.IsPackageImport("lodash"))
	assert.True(t, modresolve.IsPackageImport("@scope/pkg"))
	assert.False(t, modresolve.IsPackageImport("./config"))
	assert.False(t, modresolve.IsPackageImport("../utils"))
	assert.False(t, modresolve.IsPackageImport("/absolute"))
}

func TestResolveToURI(t *testing.T) {
	root := setupWorkspace(t)
	r := modresolve.New(root)
	adapter := tsAdapter(t)
	from := modresolve.PathToURI(filepath.Join(root, "src", "index.ts"))

	uri, ok := r.ResolveToURI("./config", from, adapter)
	require.True(t, ok)
	assert.Contains(t, string(uri), "config.ts")
}
