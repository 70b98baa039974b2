// Package modresolve turns a relative import specifier plus the document it
// appears in into an absolute path inside the workspace, trying the
// language's known extensions and index-file convention the way a bundler's
// resolver would. It is deliberately ignorant of package-manager resolution
// (node_modules, site-packages, GOPATH, Go module paths): cross-module
// resolution is limited to relative specifiers, per spec's explicit
// non-goal that package-style imports are intentionally ignored.
package modresolve

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/binding-graph/envlsp/internal/lang"
)

// DocumentURI is a file:// URI identifying an open or indexed document,
// the same lightweight string-alias shape the editor-protocol layer uses.
type DocumentURI string

// PathToURI builds a file:// URI for an absolute filesystem path.
func PathToURI(absPath string) DocumentURI {
	return DocumentURI("file://" + filepath.ToSlash(absPath))
}

// URIToPath extracts the filesystem path from a file:// URI.
func URIToPath(uri DocumentURI) (string, bool) {
	parsed, err := url.Parse(string(uri))
	if err != nil {
		return "", false
	}
	return filepath.FromSlash(parsed.Path), true
}

// Resolver resolves relative import specifiers against one workspace root.
// File-existence probing uses os.Stat rather than the workspace indexer's
// afs.Service: afs is already wired for directory walking and content
// download elsewhere (internal/indexer), but no file in the retrieved
// example pack demonstrates its existence-check call shape, so this package
// sticks to the standard library for that one narrow operation rather than
// guess at an unverified method signature.
type Resolver struct {
	workspaceRoot string
}

// New returns a Resolver rooted at workspaceRoot, an absolute path.
func New(workspaceRoot string) *Resolver {
	return &Resolver{workspaceRoot: filepath.Clean(workspaceRoot)}
}

// WorkspaceRoot returns the root this resolver was constructed with.
func (r *Resolver) WorkspaceRoot() string { return r.workspaceRoot }

// Resolve turns specifier, written in the document at fromURI, into an
// absolute path inside the workspace. Returns false for anything that is not
// a relative specifier, or that would resolve outside the workspace root.
func (r *Resolver) Resolve(specifier string, fromURI DocumentURI, adapter lang.Adapter) (string, bool) {
	if !IsRelativeImport(specifier) {
		return "", false
	}

	fromPath, ok := URIToPath(fromURI)
	if !ok {
		return "", false
	}
	fromDir := filepath.Dir(fromPath)
	basePath := filepath.Join(fromDir, filepath.FromSlash(specifier))
	normalized := normalizePath(basePath)

	if !withinRoot(normalized, r.workspaceRoot) {
		return "", false
	}

	return resolveWithExtensions(normalized, adapter)
}

// ResolveToURI is Resolve, converting the result to a file:// URI.
func (r *Resolver) ResolveToURI(specifier string, fromURI DocumentURI, adapter lang.Adapter) (DocumentURI, bool) {
	resolved, ok := r.Resolve(specifier, fromURI, adapter)
	if !ok {
		return "", false
	}
	return PathToURI(resolved), true
}

func resolveWithExtensions(basePath string, adapter lang.Adapter) (string, bool) {
	if info, err := os.Stat(basePath); err == nil && !info.IsDir() {
		return basePath, true
	}

	for _, ext := range adapter.Extensions() {
		withExt := basePath + "." + ext
		if info, err := os.Stat(withExt); err == nil && !info.IsDir() {
			return withExt, true
		}
	}

	for _, ext := range adapter.Extensions() {
		indexPath := filepath.Join(basePath, "index."+ext)
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return indexPath, true
		}
	}

	return "", false
}

// IsRelativeImport reports whether specifier is written as a relative path.
func IsRelativeImport(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// IsPackageImport reports whether specifier names a package-manager module
// rather than a relative or absolute filesystem path.
func IsPackageImport(specifier string) bool {
	return !strings.HasPrefix(specifier, "./") &&
		!strings.HasPrefix(specifier, "../") &&
		!strings.HasPrefix(specifier, "/")
}

func withinRoot(candidate, root string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// normalizePath lexically collapses "." and ".." components without
// touching the filesystem, matching path.Clean's algorithm but operating on
// OS-native separators via the slash-form path package after ToSlash.
func normalizePath(p string) string {
	return filepath.FromSlash(path.Clean(filepath.ToSlash(p)))
}
