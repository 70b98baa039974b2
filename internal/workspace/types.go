package workspace

import (
	"time"

	"github.com/binding-graph/envlsp/internal/bindgraph"
	"github.com/binding-graph/envlsp/internal/modresolve"
	"github.com/binding-graph/envlsp/internal/rng"
)

// LocationKind classifies one syntactic location in the workspace-wide
// reverse index. It mirrors bindgraph.EnvVarLocationKind plus the two kinds
// that only make sense at workspace scope: a destructured property (which
// the per-document index folds into BindingDeclaration) and a .env file
// definition.
type LocationKind int

const (
	LocationDirectReference LocationKind = iota
	LocationBindingDeclaration
	LocationBindingUsage
	LocationPropertyAccess
	LocationDestructuredProperty
	LocationEnvFileDefinition
)

// EnvVarLocation is one workspace-wide reference to an env var.
type EnvVarLocation struct {
	Range          rng.Range
	Kind           LocationKind
	BindingName    string
	HasBindingName bool
}

// FileIndexEntry is the forward-index record for one indexed file.
type FileIndexEntry struct {
	MTime       time.Time
	ContentHash uint64
	EnvVars     map[string]struct{}
	IsEnvFile   bool
	Path        string
}

// IndexState tracks the progress of a workspace-wide (re)indexing pass.
type IndexState struct {
	TotalFiles         int
	IndexedFiles       int
	IndexingInProgress bool
	LastFullIndex      time.Time
	HasLastFullIndex   bool
}

// ProgressPercent returns indexing progress, 0-100, with an empty workspace
// reported as fully indexed.
func (s IndexState) ProgressPercent() uint8 {
	if s.TotalFiles == 0 {
		return 100
	}
	pct := (s.IndexedFiles * 100) / s.TotalFiles
	if pct > 100 {
		pct = 100
	}
	return uint8(pct)
}

// IndexStats summarizes the contents of the workspace index.
type IndexStats struct {
	TotalFiles   int
	TotalEnvVars int
	EnvFiles     int
}

// IndexStateSnapshot is a point-in-time copy of IndexState for reporting.
type IndexStateSnapshot struct {
	TotalFiles         int
	IndexedFiles       int
	IndexingInProgress bool
	LastFullIndex      time.Time
	HasLastFullIndex   bool
}

// ExportResolutionKind is a tagged union over how one module export's value
// traces back to an environment variable, mirroring bindgraph.SymbolOrigin
// one level up: at the symbol chain's root inside the exporting file, or
// through a re-export naming another module.
type ExportResolutionKind int

const (
	ExportEnvVar ExportResolutionKind = iota
	ExportEnvObject
	ExportReExport
	ExportLocalChain
	ExportUnknown
)

// ExportResolution is one module export's resolved (or re-export-pointing)
// shape. Exactly one group of fields is meaningful per Kind.
type ExportResolution struct {
	Kind ExportResolutionKind

	// ExportEnvVar
	Name string
	// ExportEnvObject
	CanonicalName string
	// ExportReExport
	SourceModule string
	OriginalName string
	// ExportLocalChain
	SymbolID bindgraph.SymbolId
}

func EnvVarExport(name string) ExportResolution {
	return ExportResolution{Kind: ExportEnvVar, Name: name}
}

func EnvObjectExport(canonicalName string) ExportResolution {
	return ExportResolution{Kind: ExportEnvObject, CanonicalName: canonicalName}
}

func ReExportOf(sourceModule, originalName string) ExportResolution {
	return ExportResolution{Kind: ExportReExport, SourceModule: sourceModule, OriginalName: originalName}
}

func LocalChainExport(symbolID bindgraph.SymbolId) ExportResolution {
	return ExportResolution{Kind: ExportLocalChain, SymbolID: symbolID}
}

// ModuleExport is one named or default export statement in a file.
type ModuleExport struct {
	ExportedName     string
	LocalName        string
	HasLocalName     bool
	Resolution       ExportResolution
	DeclarationRange rng.Range
	IsDefault        bool
}

// FileExportEntry is everything one file exports, keyed for cross-module
// resolution: named exports by name, at most one default export, and the
// list of modules this file re-exports everything from (`export * from`).
type FileExportEntry struct {
	NamedExports      map[string]ModuleExport
	DefaultExport     *ModuleExport
	WildcardReexports []string
}

// NewFileExportEntry returns an empty, ready-to-use entry.
func NewFileExportEntry() FileExportEntry {
	return FileExportEntry{NamedExports: make(map[string]ModuleExport)}
}

// IsEmpty reports whether the file has no exports of any kind.
func (e FileExportEntry) IsEmpty() bool {
	return len(e.NamedExports) == 0 && e.DefaultExport == nil && len(e.WildcardReexports) == 0
}

// GetExport looks up a named export.
func (e FileExportEntry) GetExport(name string) (ModuleExport, bool) {
	export, ok := e.NamedExports[name]
	return export, ok
}

// ExportedEnvVars returns the set of concrete env var names this file's
// exports resolve to directly (ExportEnvVar only; re-exports and chains are
// not followed here — that is crossmodule.Resolver's job).
func (e FileExportEntry) ExportedEnvVars() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(r ExportResolution) {
		if r.Kind != ExportEnvVar {
			return
		}
		if _, dup := seen[r.Name]; dup {
			return
		}
		seen[r.Name] = struct{}{}
		out = append(out, r.Name)
	}
	for _, export := range e.NamedExports {
		add(export.Resolution)
	}
	if e.DefaultExport != nil {
		add(e.DefaultExport.Resolution)
	}
	return out
}

type moduleResolutionKey struct {
	importer  modresolve.DocumentURI
	specifier string
}
