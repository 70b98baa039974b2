// Package crossmodule follows an import across file boundaries: given the
// file an import appears in and the specifier and name it imports, it
// resolves the specifier to a file, looks up what that file exports, and —
// for re-exports — keeps following the chain until it bottoms out at a
// concrete env var or env-object alias, a wildcard re-export, or gives up.
package crossmodule

import (
	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/modresolve"
	"github.com/binding-graph/envlsp/internal/rng"
	"github.com/binding-graph/envlsp/internal/workspace"
)

// maxResolutionDepth bounds re-export chains so a cycle the visited-set
// somehow misses still terminates.
const maxResolutionDepth = 10

// ResolutionKind tags what an import ultimately resolved to.
type ResolutionKind int

const (
	ResolutionEnvVar ResolutionKind = iota
	ResolutionEnvObject
	ResolutionUnresolved
)

// Resolution is the outcome of following one import across modules.
type Resolution struct {
	Kind ResolutionKind

	// ResolutionEnvVar
	Name             string
	DeclarationRange rng.Range

	// ResolutionEnvObject
	CanonicalName string

	// ResolutionEnvVar / ResolutionEnvObject
	DefiningFile modresolve.DocumentURI
}

// Resolver follows imports across the workspace's module graph.
type Resolver struct {
	index    *workspace.Index
	modules  *modresolve.Resolver
	registry *lang.Registry
}

// New returns a Resolver that looks up exports in index and resolves
// specifiers to files via modules, picking the language adapter for each
// file from registry.
func New(index *workspace.Index, modules *modresolve.Resolver, registry *lang.Registry) *Resolver {
	return &Resolver{index: index, modules: modules, registry: registry}
}

// ResolveImport follows one import statement: `import { importedName } from
// moduleSpecifier`, written in the file at importerURI. isDefault selects
// the module's default export instead of a named one.
func (r *Resolver) ResolveImport(importerURI modresolve.DocumentURI, moduleSpecifier, importedName string, isDefault bool) Resolution {
	sourceURI, ok := r.resolveModuleSpecifier(importerURI, moduleSpecifier)
	if !ok {
		return Resolution{Kind: ResolutionUnresolved}
	}

	visited := make(map[visitedKey]struct{})
	return r.resolveRecursive(sourceURI, importedName, isDefault, visited, 0)
}

type visitedKey struct {
	uri  modresolve.DocumentURI
	name string
}

func (r *Resolver) resolveModuleSpecifier(fromURI modresolve.DocumentURI, specifier string) (modresolve.DocumentURI, bool) {
	if cached, resolvedOK, cacheHit := r.index.CachedModuleResolution(fromURI, specifier); cacheHit {
		return cached, resolvedOK
	}

	fromPath, ok := modresolve.URIToPath(fromURI)
	if !ok {
		r.index.CacheModuleResolution(fromURI, specifier, "", false)
		return "", false
	}
	adapter, ok := r.registry.ForPath(fromPath)
	if !ok {
		r.index.CacheModuleResolution(fromURI, specifier, "", false)
		return "", false
	}

	resolved, ok := r.modules.ResolveToURI(specifier, fromURI, adapter)
	r.index.CacheModuleResolution(fromURI, specifier, resolved, ok)
	return resolved, ok
}

func (r *Resolver) resolveRecursive(sourceURI modresolve.DocumentURI, name string, isDefault bool, visited map[visitedKey]struct{}, depth int) Resolution {
	if depth >= maxResolutionDepth {
		return Resolution{Kind: ResolutionUnresolved}
	}

	key := visitedKey{uri: sourceURI, name: name}
	if _, seen := visited[key]; seen {
		return Resolution{Kind: ResolutionUnresolved}
	}
	visited[key] = struct{}{}

	exports, ok := r.index.GetExports(sourceURI)
	if !ok {
		return Resolution{Kind: ResolutionUnresolved}
	}

	var export *workspace.ModuleExport
	if isDefault {
		export = exports.DefaultExport
	} else if found, ok := exports.GetExport(name); ok {
		export = &found
	}

	if export != nil {
		return r.resolveExport(*export, sourceURI, visited, depth)
	}

	for _, wildcardSource := range exports.WildcardReexports {
		wildcardURI, ok := r.resolveModuleSpecifier(sourceURI, wildcardSource)
		if !ok {
			continue
		}
		result := r.resolveRecursive(wildcardURI, name, false, visited, depth+1)
		if result.Kind != ResolutionUnresolved {
			return result
		}
	}

	return Resolution{Kind: ResolutionUnresolved}
}

func (r *Resolver) resolveExport(export workspace.ModuleExport, sourceURI modresolve.DocumentURI, visited map[visitedKey]struct{}, depth int) Resolution {
	switch export.Resolution.Kind {
	case workspace.ExportEnvVar:
		return Resolution{
			Kind:             ResolutionEnvVar,
			Name:             export.Resolution.Name,
			DefiningFile:     sourceURI,
			DeclarationRange: export.DeclarationRange,
		}

	case workspace.ExportEnvObject:
		return Resolution{
			Kind:          ResolutionEnvObject,
			CanonicalName: export.Resolution.CanonicalName,
			DefiningFile:  sourceURI,
		}

	case workspace.ExportReExport:
		reexportURI, ok := r.resolveModuleSpecifier(sourceURI, export.Resolution.SourceModule)
		if !ok {
			return Resolution{Kind: ResolutionUnresolved}
		}
		return r.resolveRecursive(reexportURI, export.Resolution.OriginalName, false, visited, depth+1)

	default: // ExportLocalChain, ExportUnknown: not chased upstream either.
		return Resolution{Kind: ResolutionUnresolved}
	}
}

// FilesExportingEnvVar returns every file whose exports resolve envVarName
// directly.
func (r *Resolver) FilesExportingEnvVar(envVarName string) []modresolve.DocumentURI {
	return r.index.FilesExportingEnvVar(envVarName)
}

// NamedEnvExport pairs a module's local export name with the env var it
// resolves to, the shape a namespace-import (`import * as cfg`) completion
// needs.
type NamedEnvExport struct {
	ExportedName string
	EnvVarName   string
}

// ResolveNamespaceImport resolves every named export of the module at
// moduleSpecifier (as imported from importerURI) that bottoms out at a
// concrete env var.
func (r *Resolver) ResolveNamespaceImport(importerURI modresolve.DocumentURI, moduleSpecifier string) []NamedEnvExport {
	sourceURI, ok := r.resolveModuleSpecifier(importerURI, moduleSpecifier)
	if !ok {
		return nil
	}

	exports, ok := r.index.GetExports(sourceURI)
	if !ok {
		return nil
	}

	var results []NamedEnvExport
	for name, export := range exports.NamedExports {
		visited := make(map[visitedKey]struct{})
		resolution := r.resolveExport(export, sourceURI, visited, 0)
		if resolution.Kind == ResolutionEnvVar {
			results = append(results, NamedEnvExport{ExportedName: name, EnvVarName: resolution.Name})
		}
	}
	return results
}

// CanResolve reports whether specifier, written in the document at
// fromURI, resolves to a known file.
func (r *Resolver) CanResolve(fromURI modresolve.DocumentURI, specifier string) bool {
	_, ok := r.resolveModuleSpecifier(fromURI, specifier)
	return ok
}

// Index returns the underlying workspace index.
func (r *Resolver) Index() *workspace.Index { return r.index }

// ModuleResolver returns the underlying module-specifier resolver.
func (r *Resolver) ModuleResolver() *modresolve.Resolver { return r.modules }
