package bindgraph

import (
	"github.com/binding-graph/envlsp/internal/query"
	"github.com/binding-graph/envlsp/internal/rng"
)

// SymbolKind classifies what a Symbol stands for, independent of how its
// origin was derived.
type SymbolKind int

const (
	SymbolValue SymbolKind = iota
	SymbolDestructuredProperty
	SymbolEnvObject
	SymbolVariable
)

// SymbolOrigin is a tagged union over how a symbol's value traces back to an
// environment variable, if at all. Exactly one field is meaningful per Kind.
type SymbolOriginKind int

const (
	OriginEnvVar SymbolOriginKind = iota
	OriginEnvObject
	OriginSymbol
	OriginDestructuredProperty
	OriginUnresolvedSymbol
	OriginUnresolvedDestructure
	OriginUnknown
	OriginUnresolvable
)

type SymbolOrigin struct {
	Kind SymbolOriginKind

	// OriginEnvVar, OriginUnresolvedSymbol, OriginUnresolvedDestructure
	Name string
	// OriginEnvObject
	CanonicalName string
	// OriginSymbol, OriginDestructuredProperty
	Target SymbolId
	// OriginDestructuredProperty, OriginUnresolvedDestructure
	Key string
}

func EnvVarOrigin(name string) SymbolOrigin { return SymbolOrigin{Kind: OriginEnvVar, Name: name} }

func EnvObjectOrigin(canonicalName string) SymbolOrigin {
	return SymbolOrigin{Kind: OriginEnvObject, CanonicalName: canonicalName}
}

func SymbolAliasOrigin(target SymbolId) SymbolOrigin {
	return SymbolOrigin{Kind: OriginSymbol, Target: target}
}

func DestructuredPropertyOrigin(source SymbolId, key string) SymbolOrigin {
	return SymbolOrigin{Kind: OriginDestructuredProperty, Target: source, Key: key}
}

func UnresolvedSymbolOrigin(sourceName string) SymbolOrigin {
	return SymbolOrigin{Kind: OriginUnresolvedSymbol, Name: sourceName}
}

func UnresolvedDestructureOrigin(sourceName, key string) SymbolOrigin {
	return SymbolOrigin{Kind: OriginUnresolvedDestructure, Name: sourceName, Key: key}
}

// Symbol is exclusively owned by a Graph's arena.
type Symbol struct {
	ID                   SymbolId
	Name                 string
	NameRange            rng.Range
	DeclarationRange     rng.Range
	Scope                ScopeId
	Kind                 SymbolKind
	Origin               SymbolOrigin
	IsValid              bool
	DestructuredKeyRange *rng.Range
}

// ScopeKind mirrors lang.ScopeKind; kept distinct so bindgraph does not need
// to import the lang package just to classify a scope.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeClass
	ScopeBlock
	ScopeLoop
	ScopeConditional
)

// Scope nests strictly by range inclusion. Parent is nil only for the root.
type Scope struct {
	ID     ScopeId
	Parent *ScopeId
	Range  rng.Range
	Kind   ScopeKind
}

// SymbolUsage is a read of a symbol after its declaration.
type SymbolUsage struct {
	SymbolID            SymbolId
	Range               rng.Range
	Scope               ScopeId
	PropertyAccess       string
	HasPropertyAccess    bool
	PropertyAccessRange  *rng.Range
}

// ResolvedEnvKind distinguishes the two terminal shapes chain resolution can
// produce.
type ResolvedEnvKind int

const (
	ResolvedVariable ResolvedEnvKind = iota
	ResolvedObject
)

// ResolvedEnv is the result of walking a symbol's origin chain to its root.
type ResolvedEnv struct {
	Kind ResolvedEnvKind
	Name string
}

func ResolvedVariableEnv(name string) ResolvedEnv { return ResolvedEnv{Kind: ResolvedVariable, Name: name} }
func ResolvedObjectEnv(name string) ResolvedEnv   { return ResolvedEnv{Kind: ResolvedObject, Name: name} }

// EnvVarLocationKind classifies one syntactic location in the env-var
// reverse index.
type EnvVarLocationKind int

const (
	LocationDirectReference EnvVarLocationKind = iota
	LocationBindingDeclaration
	LocationBindingUsage
	LocationPropertyAccess
)

// EnvVarLocation is one entry returned by GetEnvVarLocations.
type EnvVarLocation struct {
	Range       rng.Range
	Kind        EnvVarLocationKind
	BindingName string
	HasBindingName bool
}

// Re-exported so pipeline code that already works with query.EnvReference
// values can pass them straight into AddDirectReference.
type EnvReference = query.EnvReference

// pendingRangeEntry is an intermediate (range, value) pair queued between a
// mutation and the next RebuildRangeIndex call.
type pendingRangeEntry[T any] struct {
	Range rng.Range
	Value T
}

// scopeEntryValue is the payload carried by pending/sorted scope entries:
// the scope id plus its precomputed size, used to break "smallest enclosing"
// ties without recomputing Size() on every query.
type scopeEntryValue struct {
	ID   ScopeId
	Size uint64
}

// Stats summarizes the contents of a Graph.
type Stats struct {
	SymbolCount         int
	ScopeCount          int
	UsageCount          int
	DirectReferenceCount int
}
