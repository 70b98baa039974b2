package indexer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binding-graph/envlsp/internal/config"
	"github.com/binding-graph/envlsp/internal/indexer"
	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/modresolve"
	"github.com/binding-graph/envlsp/internal/workspace"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndexWorkspaceFindsEnvVarsInCodeAndEnvFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "config.ts"), `export const dbUrl = process.env.DATABASE_URL;`)
	writeFile(t, filepath.Join(root, ".env"), "DATABASE_URL=postgres://localhost\nPORT=8080\n")

	idx := workspace.New()
	registry := lang.NewRegistry()
	ix := indexer.New(idx, registry, root, config.Default(), nil)

	require.NoError(t, ix.IndexWorkspace(context.Background()))

	stats := idx.Stats()
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, 1, stats.EnvFiles)
	assert.Contains(t, idx.AllEnvVars(), "DATABASE_URL")
	assert.Contains(t, idx.AllEnvVars(), "PORT")

	configURI := modresolve.PathToURI(filepath.Join(root, "src", "config.ts"))
	entry, ok := idx.GetExports(configURI)
	require.True(t, ok)
	export, ok := entry.GetExport("dbUrl")
	require.True(t, ok)
	assert.Equal(t, workspace.ExportEnvVar, export.Resolution.Kind)
	assert.Equal(t, "DATABASE_URL", export.Resolution.Name)
}

func TestIndexWorkspaceSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), `const x = process.env.SHOULD_NOT_APPEAR;`)
	writeFile(t, filepath.Join(root, "src", "index.js"), `const y = process.env.SHOULD_APPEAR;`)

	idx := workspace.New()
	registry := lang.NewRegistry()
	ix := indexer.New(idx, registry, root, config.Default(), nil)
	require.NoError(t, ix.IndexWorkspace(context.Background()))

	vars := idx.AllEnvVars()
	assert.Contains(t, vars, "SHOULD_APPEAR")
	assert.NotContains(t, vars, "SHOULD_NOT_APPEAR")
}

func TestIndexWorkspaceBuildsDependencyGraph(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "config.ts"), `export const dbUrl = process.env.DATABASE_URL;`)
	writeFile(t, filepath.Join(root, "src", "api.ts"), `import { dbUrl } from './config';
console.log(dbUrl);`)

	idx := workspace.New()
	registry := lang.NewRegistry()
	ix := indexer.New(idx, registry, root, config.Default(), nil)
	require.NoError(t, ix.IndexWorkspace(context.Background()))

	apiURI := modresolve.PathToURI(filepath.Join(root, "src", "api.ts"))
	configURI := modresolve.PathToURI(filepath.Join(root, "src", "config.ts"))

	assert.ElementsMatch(t, []modresolve.DocumentURI{configURI}, idx.Dependencies(apiURI))
	assert.ElementsMatch(t, []modresolve.DocumentURI{apiURI}, idx.Dependents(configURI))
}

func TestIndexFileUpdatesSingleEntry(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.js")
	writeFile(t, path, `const x = process.env.A;`)

	idx := workspace.New()
	registry := lang.NewRegistry()
	ix := indexer.New(idx, registry, root, config.Default(), nil)

	require.NoError(t, ix.IndexFile(context.Background(), path))
	assert.Contains(t, idx.AllEnvVars(), "A")

	writeFile(t, path, `const x = process.env.B;`)
	require.NoError(t, ix.IndexFile(context.Background(), path))

	vars := idx.AllEnvVars()
	assert.Contains(t, vars, "B")
	assert.NotContains(t, vars, "A")
}
