// Package indexer discovers workspace files, analyzes each one, and
// populates a workspace.Index: the background indexing half of
// envlsp-index, grounded on indexer.rs. Directory traversal and file
// reading use afs.Service, the same collaborator analyzer.Analyzer itself
// is built on (fs afs.Service, constructed via afs.New(); AnalyzeDir's
// analyzePackages walks with fs.Walk and reads each file back with
// fs.DownloadWithURL — discoverFiles/IndexFile mirror that shape exactly).
// fsnotify still watches real local directories in watch.go, since a
// filesystem watch has no afs equivalent. Bounded parallel indexing uses
// golang.org/x/sync/errgroup with SetLimit, the same shape the pack's own
// env-var-configuration pipeline (codebase-memory-mcp's passConfigures)
// uses for its per-file fan-out.
package indexer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/viant/afs"
	afsurl "github.com/viant/afs/url"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/binding-graph/envlsp/internal/bindgraph"
	"github.com/binding-graph/envlsp/internal/config"
	"github.com/binding-graph/envlsp/internal/envfile"
	"github.com/binding-graph/envlsp/internal/filehash"
	"github.com/binding-graph/envlsp/internal/ignore"
	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/modresolve"
	"github.com/binding-graph/envlsp/internal/pipeline"
	"github.com/binding-graph/envlsp/internal/query"
	"github.com/binding-graph/envlsp/internal/resolver"
	"github.com/binding-graph/envlsp/internal/workspace"
)

// Indexer scans a workspace, analyzes every file it finds, and keeps a
// workspace.Index up to date.
type Indexer struct {
	index         *workspace.Index
	engine        *query.Engine
	registry      *lang.Registry
	workspaceRoot string
	cfg           config.Config
	logger        *slog.Logger
	fs            afs.Service
	modules       *modresolve.Resolver
}

// New returns an Indexer rooted at workspaceRoot.
func New(index *workspace.Index, registry *lang.Registry, workspaceRoot string, cfg config.Config, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		index:         index,
		engine:        query.NewEngine(),
		registry:      registry,
		workspaceRoot: filepath.Clean(workspaceRoot),
		cfg:           cfg,
		logger:        logger,
		fs:            afs.New(),
		modules:       modresolve.New(workspaceRoot),
	}
}

// IndexWorkspace discovers every relevant file under the workspace root and
// indexes them with bounded parallelism, reporting progress through the
// underlying workspace.Index as it goes.
func (ix *Indexer) IndexWorkspace(ctx context.Context) error {
	ix.logger.Info("indexing.start", "root", ix.workspaceRoot)

	files := ix.discoverFiles(ctx)
	ix.index.SetTotalFiles(len(files))
	if len(files) == 0 {
		ix.index.FinishIndexing(time.Now())
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	// Each worker writes only to its own slot, the same per-index-result
	// shape passConfigures uses for its file fan-out, so no counter needs a
	// mutex or atomic.
	fileErrs := make([]error, len(files))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			fileErrs[i] = ix.IndexFile(gctx, path)
			if fileErrs[i] != nil {
				ix.logger.Debug("indexing.file_failed", "path", path, "error", fileErrs[i])
			}
			ix.index.IncrementIndexed()
			return nil
		})
	}
	_ = g.Wait()

	var successCount, errorCount int
	for _, err := range fileErrs {
		if err != nil {
			errorCount++
		} else {
			successCount++
		}
	}

	ix.index.FinishIndexing(time.Now())
	ix.logger.Info("indexing.done", "succeeded", successCount, "failed", errorCount)
	return nil
}

// discoverFiles walks the workspace root with afs.Service, the same
// collaborator analyzer.Analyzer.AnalyzeDir walks a project tree with, and
// collects every file whose extension a registered language adapter
// knows, plus every file matching a configured env-file pattern. Exclusion
// (gitignore, configured exclude dirs) is applied per discovered file
// rather than by pruning the walk, mirroring analyzePackages' own visitor
// (which never prunes directories either — it always returns (true, nil)
// for them and filters files with a separate predicate).
func (ix *Indexer) discoverFiles(ctx context.Context) []string {
	matcher := ignoreMatcherFor(ix)
	excludeDirs := excludeDirSet(ix)

	var files []string
	visit := func(_ context.Context, baseURL, parent string, info os.FileInfo, _ io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		dir := afsurl.Join(baseURL, parent)
		path := afsurl.Join(dir, info.Name())
		if ix.pathExcluded(matcher, excludeDirs, path) {
			return true, nil
		}
		if ix.cfg.IsEnvFile(info.Name()) {
			files = append(files, path)
			return true, nil
		}
		if _, ok := ix.registry.ForPath(path); ok {
			files = append(files, path)
		}
		return true, nil
	}
	_ = ix.fs.Walk(ctx, ix.workspaceRoot, visit)
	return files
}

// pathExcluded reports whether path, or any of its ancestor directories up
// to the workspace root, is a configured exclude directory or gitignored.
// Checked per-file rather than by pruning the walk (see discoverFiles).
func (ix *Indexer) pathExcluded(matcher *ignore.Matcher, excludeDirs map[string]struct{}, path string) bool {
	rel, err := filepath.Rel(ix.workspaceRoot, path)
	if err != nil {
		return false
	}
	for dir := filepath.Dir(rel); dir != "." && dir != string(filepath.Separator) && dir != ""; dir = filepath.Dir(dir) {
		if _, excluded := excludeDirs[filepath.Base(dir)]; excluded {
			return true
		}
		if ix.cfg.Workspace.RespectGitignore && matcher.IsIgnored(filepath.Join(ix.workspaceRoot, dir), true) {
			return true
		}
	}
	return ix.cfg.Workspace.RespectGitignore && matcher.IsIgnored(path, false)
}

// IndexFile analyzes one file and records its findings into the workspace
// index: env vars referenced (for any file) and, for code files, the
// exports it resolves to. Content is read through afs.Service, matching
// analyzePackage's own fs.DownloadWithURL(ctx, URL) call.
func (ix *Indexer) IndexFile(ctx context.Context, path string) error {
	content, err := ix.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	uri := modresolve.PathToURI(path)
	isEnvFile := ix.cfg.IsEnvFile(filepath.Base(path))
	hash := filehash.Sum(content)

	if ix.index.IsFileIndexed(uri) && !ix.index.HasContentChanged(uri, hash) {
		// Same bytes as last time, just a newer mtime (an editor re-save or
		// a watcher Write event with no real edit) — nothing to re-analyze.
		return nil
	}

	if isEnvFile {
		envVars := envVarSet(envfile.Keys(envfile.Parse(string(content))))
		ix.index.UpdateFile(uri, workspace.FileIndexEntry{
			MTime:       info.ModTime(),
			ContentHash: hash,
			EnvVars:     envVars,
			IsEnvFile:   true,
			Path:        path,
		})
		return nil
	}

	adapter, ok := ix.registry.ForPath(path)
	if !ok {
		return nil
	}

	tree := ix.engine.Parse(adapter, content, nil)
	graph := pipeline.Analyze(ix.engine, adapter, tree, content, query.NewImportContext())
	res := resolver.New(graph)

	ix.index.UpdateFile(uri, workspace.FileIndexEntry{
		MTime:       info.ModTime(),
		ContentHash: hash,
		EnvVars:     envVarSet(res.AllEnvVars()),
		IsEnvFile:   false,
		Path:        path,
	})

	exports := ix.extractExports(adapter, tree, content, graph)
	ix.index.UpdateExports(uri, exports)
	ix.index.SetDependencies(uri, ix.resolveDependencies(adapter, tree, content, uri))
	return nil
}

// resolveDependencies resolves every import statement in the file to the
// workspace file it points at, building the edge set
// internal/workspace.Index needs for its dependency graph (spec §4.4).
// Imports that don't resolve inside the workspace (package-manager modules,
// stdlib, anything outside the workspace root) are simply omitted.
func (ix *Indexer) resolveDependencies(adapter lang.Adapter, tree *sitter.Tree, content []byte, uri modresolve.DocumentURI) []modresolve.DocumentURI {
	imports := ix.engine.ExtractImports(adapter, tree, content)
	deps := make([]modresolve.DocumentURI, 0, len(imports))
	seen := make(map[modresolve.DocumentURI]struct{}, len(imports))
	for _, imp := range imports {
		resolved, ok := ix.modules.ResolveToURI(imp.ModulePath, uri, adapter)
		if !ok {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		deps = append(deps, resolved)
	}
	return deps
}

func ignoreMatcherFor(ix *Indexer) *ignore.Matcher {
	return ignore.New(ix.workspaceRoot)
}

func excludeDirSet(ix *Indexer) map[string]struct{} {
	excludeDirs := make(map[string]struct{}, len(ix.cfg.Workspace.ExcludeDirs))
	for _, d := range ix.cfg.Workspace.ExcludeDirs {
		excludeDirs[d] = struct{}{}
	}
	return excludeDirs
}

func envVarSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// maxExportChainDepth bounds following a Symbol origin chain, matching
// indexer.rs's resolve_symbol_chain MAX_DEPTH.
const maxExportChainDepth = 20

// extractExports runs the language's export query and resolves each
// exported name against the document's binding graph, porting
// resolve_export_resolutions from indexer.rs: an exported local name that
// is itself an env var or env-object alias resolves directly; one bound to
// another symbol follows that symbol's origin chain (bounded depth, same
// as the original) to its root.
func (ix *Indexer) extractExports(adapter lang.Adapter, tree *sitter.Tree, content []byte, graph *bindgraph.Graph) workspace.FileExportEntry {
	decls := ix.engine.ExtractExports(adapter, tree, content)
	entry := workspace.NewFileExportEntry()

	for _, decl := range decls {
		if !decl.HasLocalName {
			// Default export with no bare local name to resolve against —
			// nothing in the graph to chase.
			continue
		}
		resolution, ok := resolveExportedSymbol(graph, decl.LocalName)
		if !ok {
			continue
		}
		export := workspace.ModuleExport{
			ExportedName:     decl.ExportedName,
			LocalName:        decl.LocalName,
			HasLocalName:     true,
			Resolution:       resolution,
			DeclarationRange: decl.Range,
			IsDefault:        decl.IsDefault,
		}
		if decl.IsDefault {
			e := export
			entry.DefaultExport = &e
		} else {
			entry.NamedExports[decl.ExportedName] = export
		}
	}
	return entry
}

// resolveExportedSymbol finds the first valid symbol named localName and
// resolves it to an ExportResolution, following a plain Symbol-alias chain
// or a destructured-property-of-an-env-object chain to its root.
func resolveExportedSymbol(graph *bindgraph.Graph, localName string) (workspace.ExportResolution, bool) {
	for _, symbol := range graph.Symbols() {
		if symbol.Name != localName || !symbol.IsValid {
			continue
		}
		switch symbol.Origin.Kind {
		case bindgraph.OriginEnvVar:
			return workspace.EnvVarExport(symbol.Origin.Name), true
		case bindgraph.OriginEnvObject:
			return workspace.EnvObjectExport(symbol.Origin.CanonicalName), true
		case bindgraph.OriginSymbol:
			if name, canonical, ok := resolveSymbolChain(graph, symbol.Origin.Target, 0); ok {
				if name != "" {
					return workspace.EnvVarExport(name), true
				}
				return workspace.EnvObjectExport(canonical), true
			}
		case bindgraph.OriginDestructuredProperty:
			if _, canonical, ok := resolveSymbolChain(graph, symbol.Origin.Target, 0); ok && canonical != "" {
				return workspace.EnvVarExport(symbol.Origin.Key), true
			}
		}
		return workspace.ExportResolution{}, false
	}
	return workspace.ExportResolution{}, false
}

// resolveSymbolChain follows a chain of OriginSymbol aliases to its root,
// returning either a concrete env var name or an env-object canonical name.
func resolveSymbolChain(graph *bindgraph.Graph, id bindgraph.SymbolId, depth int) (string, string, bool) {
	if depth >= maxExportChainDepth {
		return "", "", false
	}
	symbol, ok := graph.GetSymbol(id)
	if !ok {
		return "", "", false
	}
	switch symbol.Origin.Kind {
	case bindgraph.OriginEnvVar:
		return symbol.Origin.Name, "", true
	case bindgraph.OriginEnvObject:
		return "", symbol.Origin.CanonicalName, true
	case bindgraph.OriginSymbol:
		return resolveSymbolChain(graph, symbol.Origin.Target, depth+1)
	case bindgraph.OriginDestructuredProperty:
		if _, canonical, ok := resolveSymbolChain(graph, symbol.Origin.Target, depth+1); ok && canonical != "" {
			return symbol.Origin.Key, "", true
		}
		return "", "", false
	default:
		return "", "", false
	}
}
