// Package query runs tree-sitter queries for the analysis pipeline. It owns
// the parser pool and the query-cursor pool and turns raw tree-sitter
// matches into the small set of intermediate shapes (EnvReference,
// EnvBinding, ImportAlias, ...) that the pipeline consumes; it knows nothing
// about the binding graph itself.
package query

import "github.com/binding-graph/envlsp/internal/rng"

// AccessType classifies how an EnvReference accesses its variable.
type AccessType int

const (
	AccessProperty AccessType = iota
	AccessSubscript
	AccessVariable
	AccessDictionary
	AccessFunctionCall
	AccessMacro
)

// BindingKind distinguishes a value binding from an object binding.
type BindingKind int

const (
	BindingValue BindingKind = iota
	BindingObject
)

// EnvReference is a syntactic, literal access to an env var by name.
type EnvReference struct {
	Name         string
	FullRange    rng.Range
	NameRange    rng.Range
	AccessType   AccessType
	HasDefault   bool
	DefaultValue string
}

// EnvBinding is a local name bound, directly or via destructuring, to an env
// var's value or to the env object itself.
type EnvBinding struct {
	BindingName          string
	EnvVarName           string
	BindingRange         rng.Range
	DeclarationRange     rng.Range
	ScopeRange           rng.Range
	Kind                 BindingKind
	DestructuredKeyRange *rng.Range
}

// ImportAlias is one import/require/from-import statement that may alias a
// env-related module.
type ImportAlias struct {
	ModulePath   string
	OriginalName string
	Alias        string
	HasAlias     bool
	Range        rng.Range
}

// ImportContext is the per-document import table the pipeline is given.
// Indexer-driven analysis (no live document context) passes an empty one.
type ImportContext struct {
	// Aliases maps a local alias to the (module, original name) it refers
	// to, e.g. "env" -> ("os", "environ").
	Aliases map[string]AliasTarget
	// ImportedModules is the set of directly imported module paths.
	ImportedModules map[string]struct{}
}

type AliasTarget struct {
	Module       string
	OriginalName string
}

// NewImportContext returns an empty, ready-to-use context.
func NewImportContext() *ImportContext {
	return &ImportContext{
		Aliases:         make(map[string]AliasTarget),
		ImportedModules: make(map[string]struct{}),
	}
}

// IdentifierOccurrence is one identifier-token occurrence from the
// identifier query.
type IdentifierOccurrence struct {
	Name  string
	Range rng.Range
}

// Assignment is a `target = source` pair where source is a bare identifier.
type Assignment struct {
	TargetName  string
	TargetRange rng.Range
	SourceName  string
}

// Destructure is a `{ Key: target } = source` or `{ target } = source`
// pattern.
type Destructure struct {
	TargetName  string
	TargetRange rng.Range
	KeyName     string
	KeyRange    rng.Range
	SourceName  string
}

// Reassignment is a `name = ...` occurrence from the reassignment query,
// used only to know where invalidation must happen, not what the new value
// is.
type Reassignment struct {
	Name  string
	Range rng.Range
}

// PropertyAccessCandidate is collected during the scope/property walk
// (pipeline phase 2), not via a compiled query.
type PropertyAccessCandidate struct {
	ObjectName        string
	PropertyName       string
	FullRange          rng.Range
	PropertyNameRange  rng.Range
	ObjectStart        rng.Position
}

// ExportDecl is one `export` statement a code file's export query found:
// a named re-export/declaration, or a default export.
type ExportDecl struct {
	ExportedName string
	LocalName    string
	HasLocalName bool
	IsDefault    bool
	Range        rng.Range
}
