// Package bindgraph implements the binding graph: the per-document arena of
// symbols and scopes, name indices, position range indices, the env-var
// chain resolver, and the env-var reverse index. It holds the analyzed facts
// for one document and knows nothing about tree-sitter or any particular
// language; the analysis pipeline is the only writer.
package bindgraph

import (
	"sync"

	"github.com/binding-graph/envlsp/internal/rng"
)

// maxChainDepth bounds Symbol/DestructuredProperty chain resolution so a
// malformed or merged graph can never recurse unboundedly.
const maxChainDepth = 10

// Graph is the binding graph for a single document. The zero value is not
// usable; construct with New.
type Graph struct {
	symbols []Symbol
	scopes  []Scope

	nameIndex     map[nameScopeKey][]SymbolId
	nameOnlyIndex map[string][]SymbolId

	directReferences []EnvReference
	usages           []SymbolUsage

	pendingDestructureEntries []pendingRangeEntry[SymbolId]
	pendingSymbolEntries      []pendingRangeEntry[SymbolId]
	pendingUsageEntries       []pendingRangeEntry[int]
	pendingScopeEntries       []pendingRangeEntry[scopeEntryValue]

	destructureIndex rangeIndex[SymbolId]
	symbolIndex      rangeIndex[SymbolId]
	usageIndex       rangeIndex[int]
	scopeIndex       rangeIndex[scopeEntryValue]

	envVarIndex map[string][]EnvVarLocation

	resolutionCache map[SymbolId]*ResolvedEnv

	scopeCacheMu sync.RWMutex
	scopeCache   map[positionKey]ScopeId

	nextSymbolID uint32
	nextScopeID  uint32
}

type nameScopeKey struct {
	name  string
	scope ScopeId
}

type positionKey struct {
	line, column uint32
}

// New returns an empty graph with only the synthetic root scope (ScopeId 1).
func New() *Graph {
	g := &Graph{
		nameIndex:       make(map[nameScopeKey][]SymbolId),
		nameOnlyIndex:   make(map[string][]SymbolId),
		envVarIndex:     make(map[string][]EnvVarLocation),
		resolutionCache: make(map[SymbolId]*ResolvedEnv),
		scopeCache:      make(map[positionKey]ScopeId),
		nextSymbolID:    0,
		nextScopeID:     1,
	}
	g.scopes = append(g.scopes, Scope{ID: RootScopeID, Parent: nil, Kind: ScopeModule})
	g.nextScopeID = 2
	return g
}

// SetRootRange sets the root scope's range to the parse tree's extent. Call
// this once per analysis, before any scope queries.
func (g *Graph) SetRootRange(r rng.Range) {
	if len(g.scopes) > 0 {
		g.scopes[0].Range = r
	}
}

// AddSymbol assigns symbol a fresh id, indexes it by (name, scope) and by
// name alone, and enqueues its name range (and destructure-key range, if
// set) for the next RebuildRangeIndex. Interval-like indices are not updated
// here.
func (g *Graph) AddSymbol(symbol Symbol) SymbolId {
	g.nextSymbolID++
	id := SymbolId(g.nextSymbolID)
	symbol.ID = id

	key := nameScopeKey{name: symbol.Name, scope: symbol.Scope}
	g.nameIndex[key] = append(g.nameIndex[key], id)
	g.nameOnlyIndex[symbol.Name] = append(g.nameOnlyIndex[symbol.Name], id)

	if symbol.DestructuredKeyRange != nil {
		g.pendingDestructureEntries = append(g.pendingDestructureEntries, pendingRangeEntry[SymbolId]{
			Range: *symbol.DestructuredKeyRange,
			Value: id,
		})
	}
	g.pendingSymbolEntries = append(g.pendingSymbolEntries, pendingRangeEntry[SymbolId]{
		Range: symbol.NameRange,
		Value: id,
	})

	g.symbols = append(g.symbols, symbol)
	return id
}

// GetSymbol returns the symbol for id, if any.
func (g *Graph) GetSymbol(id SymbolId) (*Symbol, bool) {
	i := id.Index()
	if i < 0 || i >= len(g.symbols) {
		return nil, false
	}
	return &g.symbols[i], true
}

// UpdateSymbolOrigin mutates a symbol's origin in place; the pipeline uses
// this to replace Unresolved* origins once name resolution completes.
func (g *Graph) UpdateSymbolOrigin(id SymbolId, origin SymbolOrigin) {
	i := id.Index()
	if i < 0 || i >= len(g.symbols) {
		return
	}
	g.symbols[i].Origin = origin
}

// InvalidateSymbol flips is_valid for id but leaves every index intact.
func (g *Graph) InvalidateSymbol(id SymbolId) {
	i := id.Index()
	if i < 0 || i >= len(g.symbols) {
		return
	}
	g.symbols[i].IsValid = false
}

// InvalidateAllSymbols flips is_valid for every symbol in the arena.
func (g *Graph) InvalidateAllSymbols() {
	for i := range g.symbols {
		g.symbols[i].IsValid = false
	}
}

// Symbols returns every symbol in the arena, valid or not.
func (g *Graph) Symbols() []Symbol { return g.symbols }

// LookupSymbol walks scope ancestors starting at scope; for each scope it
// scans that scope's (name, scope) bucket in reverse insertion order and
// returns the first is_valid match. Returns (nil, false) if the root is
// reached with no match.
func (g *Graph) LookupSymbol(name string, scope ScopeId) (*Symbol, bool) {
	current := scope
	for {
		key := nameScopeKey{name: name, scope: current}
		ids := g.nameIndex[key]
		for i := len(ids) - 1; i >= 0; i-- {
			if sym, ok := g.GetSymbol(ids[i]); ok && sym.IsValid {
				return sym, true
			}
		}

		s, ok := g.GetScope(current)
		if !ok || s.Parent == nil {
			return nil, false
		}
		current = *s.Parent
	}
}

// LookupSymbolID is LookupSymbol but returns only the id.
func (g *Graph) LookupSymbolID(name string, scope ScopeId) (SymbolId, bool) {
	sym, ok := g.LookupSymbol(name, scope)
	if !ok {
		return 0, false
	}
	return sym.ID, true
}

// LookupSymbolsByName returns every symbol id ever assigned that name,
// across every scope, unfiltered by validity. O(1).
func (g *Graph) LookupSymbolsByName(name string) []SymbolId {
	return g.nameOnlyIndex[name]
}

// AddScope assigns scope a fresh id, enqueues it for the next
// RebuildRangeIndex (or RebuildScopeRangeIndex), and invalidates the
// scope-at-position cache since a newly inserted scope can change the
// answer at positions it covers.
func (g *Graph) AddScope(scope Scope) ScopeId {
	id := ScopeId(g.nextScopeID)
	g.nextScopeID++
	scope.ID = id

	size := scope.Range.Size()
	g.pendingScopeEntries = append(g.pendingScopeEntries, pendingRangeEntry[scopeEntryValue]{
		Range: scope.Range,
		Value: scopeEntryValue{ID: id, Size: size},
	})

	g.scopeCacheMu.Lock()
	clear(g.scopeCache)
	g.scopeCacheMu.Unlock()

	g.scopes = append(g.scopes, scope)
	return id
}

// GetScope returns the scope for id, if any.
func (g *Graph) GetScope(id ScopeId) (*Scope, bool) {
	i := id.Index()
	if i < 0 || i >= len(g.scopes) {
		return nil, false
	}
	return &g.scopes[i], true
}

// Scopes returns every scope in the arena, in insertion order.
func (g *Graph) Scopes() []Scope { return g.scopes }

// AddDirectReference appends a syntactic, literal env-var access.
func (g *Graph) AddDirectReference(reference EnvReference) {
	g.directReferences = append(g.directReferences, reference)
}

// DirectReferences returns every direct reference recorded so far.
func (g *Graph) DirectReferences() []EnvReference { return g.directReferences }

// AddUsage appends a read of a symbol and enqueues it for the next
// RebuildRangeIndex.
func (g *Graph) AddUsage(usage SymbolUsage) {
	idx := len(g.usages)
	g.pendingUsageEntries = append(g.pendingUsageEntries, pendingRangeEntry[int]{
		Range: usage.Range,
		Value: idx,
	})
	g.usages = append(g.usages, usage)
}

// Usages returns every usage recorded so far.
func (g *Graph) Usages() []SymbolUsage { return g.usages }
