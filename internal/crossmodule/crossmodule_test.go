package crossmodule_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binding-graph/envlsp/internal/crossmodule"
	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/modresolve"
	"github.com/binding-graph/envlsp/internal/workspace"
)

func setup(t *testing.T) (*crossmodule.Resolver, *workspace.Index, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.ts"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "api.ts"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.ts"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.ts"), nil, 0o644))

	idx := workspace.New()
	modules := modresolve.New(root)
	registry := lang.NewRegistry()
	return crossmodule.New(idx, modules, registry), idx, root
}

func TestResolveImportDirectEnvVar(t *testing.T) {
	r, idx, root := setup(t)
	configURI := modresolve.PathToURI(filepath.Join(root, "config.ts"))
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))

	exports := workspace.NewFileExportEntry()
	exports.NamedExports["dbUrl"] = workspace.ModuleExport{
		ExportedName: "dbUrl",
		Resolution:   workspace.EnvVarExport("DATABASE_URL"),
	}
	idx.UpdateExports(configURI, exports)

	result := r.ResolveImport(apiURI, "./config", "dbUrl", false)
	require.Equal(t, crossmodule.ResolutionEnvVar, result.Kind)
	assert.Equal(t, "DATABASE_URL", result.Name)
	assert.Equal(t, configURI, result.DefiningFile)
}

func TestResolveImportEnvObject(t *testing.T) {
	r, idx, root := setup(t)
	configURI := modresolve.PathToURI(filepath.Join(root, "config.ts"))
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))

	exports := workspace.NewFileExportEntry()
	exports.DefaultExport = &workspace.ModuleExport{
		ExportedName: "default",
		Resolution:   workspace.EnvObjectExport("process.env"),
		IsDefault:    true,
	}
	idx.UpdateExports(configURI, exports)

	result := r.ResolveImport(apiURI, "./config", "", true)
	require.Equal(t, crossmodule.ResolutionEnvObject, result.Kind)
	assert.Equal(t, "process.env", result.CanonicalName)
}

func TestResolveImportFollowsReExportChain(t *testing.T) {
	r, idx, root := setup(t)
	aURI := modresolve.PathToURI(filepath.Join(root, "a.ts"))
	bURI := modresolve.PathToURI(filepath.Join(root, "b.ts"))
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))

	aExports := workspace.NewFileExportEntry()
	aExports.NamedExports["foo"] = workspace.ModuleExport{
		ExportedName: "foo",
		Resolution:   workspace.ReExportOf("./b", "bar"),
	}
	idx.UpdateExports(aURI, aExports)

	bExports := workspace.NewFileExportEntry()
	bExports.NamedExports["bar"] = workspace.ModuleExport{
		ExportedName: "bar",
		Resolution:   workspace.EnvVarExport("API_KEY"),
	}
	idx.UpdateExports(bURI, bExports)

	result := r.ResolveImport(apiURI, "./a", "foo", false)
	require.Equal(t, crossmodule.ResolutionEnvVar, result.Kind)
	assert.Equal(t, "API_KEY", result.Name)
	assert.Equal(t, bURI, result.DefiningFile)
}

func TestResolveImportCycleStaysUnresolved(t *testing.T) {
	r, idx, root := setup(t)
	aURI := modresolve.PathToURI(filepath.Join(root, "a.ts"))
	bURI := modresolve.PathToURI(filepath.Join(root, "b.ts"))

	aExports := workspace.NewFileExportEntry()
	aExports.NamedExports["foo"] = workspace.ModuleExport{
		ExportedName: "foo",
		Resolution:   workspace.ReExportOf("./b", "foo"),
	}
	bExports := workspace.NewFileExportEntry()
	bExports.NamedExports["foo"] = workspace.ModuleExport{
		ExportedName: "foo",
		Resolution:   workspace.ReExportOf("./a", "foo"),
	}
	idx.UpdateExports(aURI, aExports)
	idx.UpdateExports(bURI, bExports)

	result := r.ResolveImport(aURI, "./b", "foo", false)
	assert.Equal(t, crossmodule.ResolutionUnresolved, result.Kind)
}

func TestResolveImportUnknownModuleIsUnresolved(t *testing.T) {
	r, _, root := setup(t)
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))

	result := r.ResolveImport(apiURI, "./missing", "dbUrl", false)
	assert.Equal(t, crossmodule.ResolutionUnresolved, result.Kind)
}

func TestResolveImportFollowsWildcardReexport(t *testing.T) {
	r, idx, root := setup(t)
	configURI := modresolve.PathToURI(filepath.Join(root, "config.ts"))
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))
	aURI := modresolve.PathToURI(filepath.Join(root, "a.ts"))

	configExports := workspace.NewFileExportEntry()
	configExports.NamedExports["dbUrl"] = workspace.ModuleExport{
		ExportedName: "dbUrl",
		Resolution:   workspace.EnvVarExport("DATABASE_URL"),
	}
	idx.UpdateExports(configURI, configExports)

	barrelExports := workspace.NewFileExportEntry()
	barrelExports.WildcardReexports = []string{"./config"}
	idx.UpdateExports(aURI, barrelExports)

	result := r.ResolveImport(apiURI, "./a", "dbUrl", false)
	require.Equal(t, crossmodule.ResolutionEnvVar, result.Kind)
	assert.Equal(t, "DATABASE_URL", result.Name)
}

func TestResolveNamespaceImport(t *testing.T) {
	r, idx, root := setup(t)
	configURI := modresolve.PathToURI(filepath.Join(root, "config.ts"))
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))

	exports := workspace.NewFileExportEntry()
	exports.NamedExports["dbUrl"] = workspace.ModuleExport{
		ExportedName: "dbUrl",
		Resolution:   workspace.EnvVarExport("DATABASE_URL"),
	}
	exports.NamedExports["port"] = workspace.ModuleExport{
		ExportedName: "port",
		Resolution:   workspace.EnvVarExport("PORT"),
	}
	idx.UpdateExports(configURI, exports)

	results := r.ResolveNamespaceImport(apiURI, "./config")
	assert.Len(t, results, 2)
}

func TestCanResolve(t *testing.T) {
	r, _, root := setup(t)
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))

	assert.True(t, r.CanResolve(apiURI, "./config"))
	assert.False(t, r.CanResolve(apiURI, "./missing"))
	assert.False(t, r.CanResolve(apiURI, "lodash"))
}

func TestResolveModuleSpecifierCachesResult(t *testing.T) {
	r, idx, root := setup(t)
	apiURI := modresolve.PathToURI(filepath.Join(root, "api.ts"))

	assert.True(t, r.CanResolve(apiURI, "./config"))
	_, ok, cached := idx.CachedModuleResolution(apiURI, "./config")
	require.True(t, cached)
	assert.True(t, ok)
}
