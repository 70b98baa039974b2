package lang

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Registry dispatches by file extension or editor language id, the same way
// the teacher's inspector.Factory dispatches InspectFile by extension to a
// per-language Inspector. It is built once at process start and shared
// read-only afterwards; registration itself is not safe for concurrent use,
// lookups are.
type Registry struct {
	mu          sync.RWMutex
	byID        map[string]Adapter
	byExtension map[string]Adapter
	byLangID    map[string]Adapter
	failures    []QueryCompileFailure
}

// QueryCompileFailure records that a language's query failed to compile at
// registration time. The language is not excluded from the registry; its
// broken query is replaced by one matching nothing so analysis of that
// language degrades instead of crashing the process.
type QueryCompileFailure struct {
	Language string
	Query    string
}

// NewRegistry builds the registry with every adapter this binary ships.
// Bash, C/C++, C#, Elixir, Lua, PHP, Ruby, Rust and Zig exist in the
// original implementation's language set but have no corresponding grammar
// wired here; only these five adapters are registered.
func NewRegistry() *Registry {
	r := &Registry{
		byID:        make(map[string]Adapter),
		byExtension: make(map[string]Adapter),
		byLangID:    make(map[string]Adapter),
	}
	for _, a := range []Adapter{
		newGoAdapter(r),
		newJavaScriptAdapter(r),
		newTypeScriptAdapter(r),
		newPythonAdapter(r),
		newJavaAdapter(r),
	} {
		r.register(a)
	}
	return r
}

func (r *Registry) register(a Adapter) {
	r.byID[a.ID()] = a
	for _, ext := range a.Extensions() {
		r.byExtension[ext] = a
	}
	for _, id := range a.LanguageIDs() {
		r.byLangID[id] = a
	}
}

// noteFailure records a per-language query compile failure. Called by the
// concrete adapter constructors while the registry is still being built.
func (r *Registry) noteFailure(language, query string) {
	r.failures = append(r.failures, QueryCompileFailure{Language: language, Query: query})
}

// Failures returns every query compile failure observed while building the
// registry, for startup logging.
func (r *Registry) Failures() []QueryCompileFailure {
	return r.failures
}

// ByExtension looks up an adapter by the file extension, without the dot.
func (r *Registry) ByExtension(ext string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byExtension[strings.TrimPrefix(ext, ".")]
	return a, ok
}

// ByLanguageID looks up an adapter by editor language id, e.g. "javascriptreact".
func (r *Registry) ByLanguageID(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byLangID[id]
	return a, ok
}

// ByID looks up an adapter by its stable short id, e.g. "go".
func (r *Registry) ByID(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// ForPath detects the adapter for a file path by extension.
func (r *Registry) ForPath(path string) (Adapter, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return r.ByExtension(ext)
}

// Len reports how many adapters are registered, mostly for diagnostics.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *Registry) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return fmt.Sprintf("lang.Registry{%s}", strings.Join(ids, ", "))
}
