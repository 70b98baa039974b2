// Package workspace maintains the cross-file reverse index a multi-file
// workspace needs on top of bindgraph's per-document graphs: which files
// reference a given env var, which files export one, a cache of
// specifier-to-URI module resolutions so repeated cross-module lookups don't
// re-walk the filesystem, and the file-dependency graph (plus its reverse)
// that lets a changed file mark its dependents dirty for incremental
// re-analysis. It mirrors the per-document bindgraph.Graph's
// sync.RWMutex-guarded-map index style rather than reaching for a
// concurrent-map library the retrieved example pack never imports.
package workspace

import (
	"sort"
	"sync"
	"time"

	"github.com/binding-graph/envlsp/internal/modresolve"
)

// Index is the workspace-wide forward and reverse index: every indexed
// file's env vars and exports, plus the reverse lookups built from them.
// Safe for concurrent use.
type Index struct {
	mu sync.RWMutex

	fileEntries map[modresolve.DocumentURI]FileIndexEntry
	envToFiles  map[string]map[modresolve.DocumentURI]struct{}

	exportIndex      map[modresolve.DocumentURI]FileExportEntry
	envExportToFiles map[string]map[modresolve.DocumentURI]struct{}

	moduleResolutionCache map[moduleResolutionKey]resolutionCacheEntry

	dependencies map[modresolve.DocumentURI]map[modresolve.DocumentURI]struct{}
	dependents   map[modresolve.DocumentURI]map[modresolve.DocumentURI]struct{}
	dirty        map[modresolve.DocumentURI]struct{}

	state IndexState
}

type resolutionCacheEntry struct {
	uri      modresolve.DocumentURI
	resolved bool
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		fileEntries:           make(map[modresolve.DocumentURI]FileIndexEntry),
		envToFiles:            make(map[string]map[modresolve.DocumentURI]struct{}),
		exportIndex:           make(map[modresolve.DocumentURI]FileExportEntry),
		envExportToFiles:      make(map[string]map[modresolve.DocumentURI]struct{}),
		moduleResolutionCache: make(map[moduleResolutionKey]resolutionCacheEntry),
		dependencies:          make(map[modresolve.DocumentURI]map[modresolve.DocumentURI]struct{}),
		dependents:            make(map[modresolve.DocumentURI]map[modresolve.DocumentURI]struct{}),
		dirty:                 make(map[modresolve.DocumentURI]struct{}),
	}
}

// UpdateFile (re)registers a file's env var references, atomically removing
// its prior reverse-index associations first so a re-analyzed file never
// leaves stale entries behind for vars it no longer references.
func (idx *Index) UpdateFile(uri modresolve.DocumentURI, entry FileIndexEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeFromEnvIndexLocked(uri)
	idx.fileEntries[uri] = entry
	for name := range entry.EnvVars {
		idx.addToEnvIndexLocked(name, uri)
	}
}

// RemoveFile drops a file from every index, including exports, and
// invalidates any cached module resolution that named it either as the
// importer or as the resolution target.
func (idx *Index) RemoveFile(uri modresolve.DocumentURI) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeFromEnvIndexLocked(uri)
	delete(idx.fileEntries, uri)
	idx.removeFromExportIndexLocked(uri)
	delete(idx.exportIndex, uri)
	idx.invalidateResolutionCacheLocked(uri)
	idx.removeFromDependencyIndexLocked(uri)
	idx.markDependentsDirtyLocked(uri)
	delete(idx.dependents, uri)
	delete(idx.dirty, uri)
}

func (idx *Index) removeFromEnvIndexLocked(uri modresolve.DocumentURI) {
	prior, ok := idx.fileEntries[uri]
	if !ok {
		return
	}
	for name := range prior.EnvVars {
		files, ok := idx.envToFiles[name]
		if !ok {
			continue
		}
		delete(files, uri)
		if len(files) == 0 {
			delete(idx.envToFiles, name)
		}
	}
}

func (idx *Index) addToEnvIndexLocked(name string, uri modresolve.DocumentURI) {
	files, ok := idx.envToFiles[name]
	if !ok {
		files = make(map[modresolve.DocumentURI]struct{})
		idx.envToFiles[name] = files
	}
	files[uri] = struct{}{}
}

// UpdateExports (re)registers a file's export entry, mirroring UpdateFile's
// remove-then-add pattern for the export reverse index.
func (idx *Index) UpdateExports(uri modresolve.DocumentURI, entry FileExportEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeFromExportIndexLocked(uri)
	idx.exportIndex[uri] = entry
	for _, name := range entry.ExportedEnvVars() {
		files, ok := idx.envExportToFiles[name]
		if !ok {
			files = make(map[modresolve.DocumentURI]struct{})
			idx.envExportToFiles[name] = files
		}
		files[uri] = struct{}{}
	}
}

func (idx *Index) removeFromExportIndexLocked(uri modresolve.DocumentURI) {
	prior, ok := idx.exportIndex[uri]
	if !ok {
		return
	}
	for _, name := range prior.ExportedEnvVars() {
		files, ok := idx.envExportToFiles[name]
		if !ok {
			continue
		}
		delete(files, uri)
		if len(files) == 0 {
			delete(idx.envExportToFiles, name)
		}
	}
}

// Clear resets the index to empty, including the module-resolution cache.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.fileEntries = make(map[modresolve.DocumentURI]FileIndexEntry)
	idx.envToFiles = make(map[string]map[modresolve.DocumentURI]struct{})
	idx.exportIndex = make(map[modresolve.DocumentURI]FileExportEntry)
	idx.envExportToFiles = make(map[string]map[modresolve.DocumentURI]struct{})
	idx.moduleResolutionCache = make(map[moduleResolutionKey]resolutionCacheEntry)
	idx.dependencies = make(map[modresolve.DocumentURI]map[modresolve.DocumentURI]struct{})
	idx.dependents = make(map[modresolve.DocumentURI]map[modresolve.DocumentURI]struct{})
	idx.dirty = make(map[modresolve.DocumentURI]struct{})
	idx.state = IndexState{}
}

// FilesForEnvVar returns every indexed file that references envVar.
func (idx *Index) FilesForEnvVar(envVar string) []modresolve.DocumentURI {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.envToFiles[envVar])
}

// FilesExportingEnvVar returns every indexed file whose exports resolve
// envVar directly.
func (idx *Index) FilesExportingEnvVar(envVar string) []modresolve.DocumentURI {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.envExportToFiles[envVar])
}

func sortedKeys(set map[modresolve.DocumentURI]struct{}) []modresolve.DocumentURI {
	out := make([]modresolve.DocumentURI, 0, len(set))
	for uri := range set {
		out = append(out, uri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsFileIndexed reports whether uri has a forward-index entry.
func (idx *Index) IsFileIndexed(uri modresolve.DocumentURI) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.fileEntries[uri]
	return ok
}

// EnvVarsInFile returns the env vars the given file's forward-index entry
// records, or false if the file isn't indexed.
func (idx *Index) EnvVarsInFile(uri modresolve.DocumentURI) ([]string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entry, ok := idx.fileEntries[uri]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(entry.EnvVars))
	for name := range entry.EnvVars {
		out = append(out, name)
	}
	return out, true
}

// IsFileStale reports whether uri is unindexed, or indexed with an mtime
// strictly older than mtime.
func (idx *Index) IsFileStale(uri modresolve.DocumentURI, mtime time.Time) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entry, ok := idx.fileEntries[uri]
	if !ok {
		return true
	}
	return entry.MTime.Before(mtime)
}

// HasContentChanged reports whether uri is unindexed, or indexed with a
// content hash different from hash. A newer mtime with an unchanged hash
// (an editor re-saving identical content) is not a content change.
func (idx *Index) HasContentChanged(uri modresolve.DocumentURI, hash uint64) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entry, ok := idx.fileEntries[uri]
	if !ok {
		return true
	}
	return entry.ContentHash != hash
}

// AllEnvVars returns every env var name referenced by any indexed file.
func (idx *Index) AllEnvVars() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.envToFiles))
	for name := range idx.envToFiles {
		out = append(out, name)
	}
	return out
}

// Stats summarizes the index's current contents.
func (idx *Index) Stats() IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	stats := IndexStats{
		TotalFiles:   len(idx.fileEntries),
		TotalEnvVars: len(idx.envToFiles),
	}
	for _, entry := range idx.fileEntries {
		if entry.IsEnvFile {
			stats.EnvFiles++
		}
	}
	return stats
}

// GetExports returns the export entry for uri, if indexed.
func (idx *Index) GetExports(uri modresolve.DocumentURI) (FileExportEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entry, ok := idx.exportIndex[uri]
	return entry, ok
}

// HasExports reports whether uri has a non-empty export entry.
func (idx *Index) HasExports(uri modresolve.DocumentURI) bool {
	entry, ok := idx.GetExports(uri)
	return ok && !entry.IsEmpty()
}

// CachedModuleResolution returns a previously cached resolution of
// specifier as written in the document at importer. The second bool
// distinguishes "not cached" from "cached as unresolved".
func (idx *Index) CachedModuleResolution(importer modresolve.DocumentURI, specifier string) (modresolve.DocumentURI, bool, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entry, ok := idx.moduleResolutionCache[moduleResolutionKey{importer: importer, specifier: specifier}]
	if !ok {
		return "", false, false
	}
	return entry.uri, entry.resolved, true
}

// CacheModuleResolution records the outcome of resolving specifier from
// importer, whether or not it resolved to something.
func (idx *Index) CacheModuleResolution(importer modresolve.DocumentURI, specifier string, resolved modresolve.DocumentURI, ok bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.moduleResolutionCache[moduleResolutionKey{importer: importer, specifier: specifier}] = resolutionCacheEntry{uri: resolved, resolved: ok}
}

// InvalidateResolutionCache drops every cached resolution naming uri either
// as the importer or as the resolved target, used when uri is removed or
// reanalyzed so stale cross-module links don't linger.
func (idx *Index) InvalidateResolutionCache(uri modresolve.DocumentURI) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.invalidateResolutionCacheLocked(uri)
}

func (idx *Index) invalidateResolutionCacheLocked(uri modresolve.DocumentURI) {
	for key, entry := range idx.moduleResolutionCache {
		if key.importer == uri || entry.uri == uri {
			delete(idx.moduleResolutionCache, key)
		}
	}
}

// ClearResolutionCache empties the module-resolution cache without
// touching any other index.
func (idx *Index) ClearResolutionCache() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.moduleResolutionCache = make(map[moduleResolutionKey]resolutionCacheEntry)
}

// SetDependencies replaces uri's set of file dependencies (every file its
// imports resolved to), atomically updating the reverse dependents index
// the same remove-then-add way UpdateFile maintains the env-var reverse
// index.
func (idx *Index) SetDependencies(uri modresolve.DocumentURI, deps []modresolve.DocumentURI) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeFromDependencyIndexLocked(uri)
	set := make(map[modresolve.DocumentURI]struct{}, len(deps))
	for _, dep := range deps {
		set[dep] = struct{}{}
		idx.addDependentLocked(dep, uri)
	}
	idx.dependencies[uri] = set
}

func (idx *Index) removeFromDependencyIndexLocked(uri modresolve.DocumentURI) {
	prior, ok := idx.dependencies[uri]
	if !ok {
		return
	}
	for dep := range prior {
		dependents, ok := idx.dependents[dep]
		if !ok {
			continue
		}
		delete(dependents, uri)
		if len(dependents) == 0 {
			delete(idx.dependents, dep)
		}
	}
	delete(idx.dependencies, uri)
}

func (idx *Index) addDependentLocked(dep, uri modresolve.DocumentURI) {
	dependents, ok := idx.dependents[dep]
	if !ok {
		dependents = make(map[modresolve.DocumentURI]struct{})
		idx.dependents[dep] = dependents
	}
	dependents[uri] = struct{}{}
}

// Dependencies returns every file uri currently imports, per its last
// SetDependencies call.
func (idx *Index) Dependencies(uri modresolve.DocumentURI) []modresolve.DocumentURI {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.dependencies[uri])
}

// Dependents returns every file that currently depends on (imports) uri.
func (idx *Index) Dependents(uri modresolve.DocumentURI) []modresolve.DocumentURI {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.dependents[uri])
}

// InvalidateForFileChange drops cached module resolutions that resolved to
// changedURI, then marks every file depending on changedURI as dirty, per
// spec's invalidate_for_file_change: a changed file may have moved, been
// deleted, or changed what it exports, so every importer that resolved
// through it needs re-analysis, not just changedURI itself.
func (idx *Index) InvalidateForFileChange(changedURI modresolve.DocumentURI) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.invalidateResolutionCacheTargetLocked(changedURI)
	idx.markDependentsDirtyLocked(changedURI)
}

func (idx *Index) invalidateResolutionCacheTargetLocked(uri modresolve.DocumentURI) {
	for key, entry := range idx.moduleResolutionCache {
		if entry.uri == uri {
			delete(idx.moduleResolutionCache, key)
		}
	}
}

func (idx *Index) markDependentsDirtyLocked(uri modresolve.DocumentURI) {
	for dependent := range idx.dependents[uri] {
		idx.dirty[dependent] = struct{}{}
	}
}

// GetDirtyFiles returns every file currently marked dirty, awaiting
// re-analysis by the incremental scheduler.
func (idx *Index) GetDirtyFiles() []modresolve.DocumentURI {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedKeys(idx.dirty)
}

// ClearDirty drops uri from the dirty set, called once its re-analysis
// completes.
func (idx *Index) ClearDirty(uri modresolve.DocumentURI) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.dirty, uri)
}

// SetTotalFiles records how many files a fresh indexing pass plans to
// visit, resetting the indexed-files counter and marking indexing active.
func (idx *Index) SetTotalFiles(total int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.state.TotalFiles = total
	idx.state.IndexedFiles = 0
	idx.state.IndexingInProgress = true
}

// IncrementIndexed advances the indexed-files counter by one.
func (idx *Index) IncrementIndexed() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.state.IndexedFiles++
}

// FinishIndexing marks the current pass complete and stamps the completion
// time as the new last-full-index timestamp.
func (idx *Index) FinishIndexing(completedAt time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.state.IndexingInProgress = false
	idx.state.LastFullIndex = completedAt
	idx.state.HasLastFullIndex = true
}

// IsIndexing reports whether an indexing pass is currently in progress.
func (idx *Index) IsIndexing() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.state.IndexingInProgress
}

// State returns a point-in-time snapshot of the indexing progress.
func (idx *Index) State() IndexStateSnapshot {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return IndexStateSnapshot{
		TotalFiles:         idx.state.TotalFiles,
		IndexedFiles:       idx.state.IndexedFiles,
		IndexingInProgress: idx.state.IndexingInProgress,
		LastFullIndex:      idx.state.LastFullIndex,
		HasLastFullIndex:   idx.state.HasLastFullIndex,
	}
}

// ProgressPercent returns the current indexing pass's completion, 0-100.
func (idx *Index) ProgressPercent() uint8 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.state.ProgressPercent()
}
