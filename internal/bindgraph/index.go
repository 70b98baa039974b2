package bindgraph

import (
	"math"
	"sort"

	"github.com/binding-graph/envlsp/internal/rng"
)

// sortedEntry is one (range, value) pair inside a rangeIndex, sorted by the
// range's start position.
type sortedEntry[T any] struct {
	Range rng.Range
	Value T
}

// rangeIndex is a sorted-slice position index: entries are ordered by
// Range.Start.Key() and queried with sort.Search, the way
// internal/rng.Position.Key is built for. It trades the logarithmic interval
// tree the original used for a logarithmic binary search plus a small
// constant-size neighbourhood scan, which is exact for the
// non-overlapping, token-sized ranges every caller here queries (symbol
// name ranges, usage ranges, destructure-key ranges never overlap a sibling
// of the same kind).
type rangeIndex[T any] struct {
	entries []sortedEntry[T]
}

func buildRangeIndex[T any](pending []pendingRangeEntry[T]) rangeIndex[T] {
	entries := make([]sortedEntry[T], len(pending))
	for i, p := range pending {
		entries[i] = sortedEntry[T]{Range: p.Range, Value: p.Value}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Range.Start.Key() < entries[j].Range.Start.Key()
	})
	return rangeIndex[T]{entries: entries}
}

// neighbourhoodWidth is how far back from the binary-search insertion point
// queryPoint scans for a containing entry, mirroring the original's
// offset-0..3 nearby check.
const neighbourhoodWidth = 4

func (idx rangeIndex[T]) queryPoint(p rng.Position) (T, bool) {
	var zero T
	if len(idx.entries) == 0 {
		return zero, false
	}
	key := p.Key()
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Range.Start.Key() > key
	})
	for j := i - 1; j >= 0 && j > i-1-neighbourhoodWidth; j-- {
		if idx.entries[j].Range.Contains(p) {
			return idx.entries[j].Value, true
		}
	}
	return zero, false
}

// RebuildRangeIndex finalizes the graph after a batch of mutations: it turns
// every pending (range, value) entry into a queryable sorted index, rebuilds
// the env-var reverse index, and clears the scope-at-position and
// resolution caches since both may now be stale.
func (g *Graph) RebuildRangeIndex() {
	if len(g.pendingDestructureEntries) > 0 {
		g.destructureIndex = buildRangeIndex(g.pendingDestructureEntries)
	}
	if len(g.pendingSymbolEntries) > 0 {
		g.symbolIndex = buildRangeIndex(g.pendingSymbolEntries)
	}
	if len(g.pendingUsageEntries) > 0 {
		g.usageIndex = buildRangeIndex(g.pendingUsageEntries)
	}
	if len(g.pendingScopeEntries) > 0 {
		g.scopeIndex = buildRangeIndex(g.pendingScopeEntries)
	}

	g.scopeCacheMu.Lock()
	clear(g.scopeCache)
	g.scopeCacheMu.Unlock()

	g.buildEnvVarIndex()
}

// RebuildScopeRangeIndex builds only the scope index, for callers (pipeline
// phase 2) that need scope_at_position to work before the rest of the graph
// is populated.
func (g *Graph) RebuildScopeRangeIndex() {
	if len(g.pendingScopeEntries) > 0 {
		g.scopeIndex = buildRangeIndex(g.pendingScopeEntries)
	}
	g.scopeCacheMu.Lock()
	clear(g.scopeCache)
	g.scopeCacheMu.Unlock()
}

// SymbolAtPosition is an O(log n) point query over symbol name ranges.
func (g *Graph) SymbolAtPosition(p rng.Position) (*Symbol, bool) {
	id, ok := g.symbolIndex.queryPoint(p)
	if !ok {
		return nil, false
	}
	return g.GetSymbol(id)
}

// SymbolAtDestructureKey is an O(log n) point query over destructure-key
// ranges, returning the symbol id declared at that key.
func (g *Graph) SymbolAtDestructureKey(p rng.Position) (SymbolId, bool) {
	return g.destructureIndex.queryPoint(p)
}

// UsageAtPosition is an O(log n) point query over usage ranges.
func (g *Graph) UsageAtPosition(p rng.Position) (*SymbolUsage, bool) {
	idx, ok := g.usageIndex.queryPoint(p)
	if !ok {
		return nil, false
	}
	if idx < 0 || idx >= len(g.usages) {
		return nil, false
	}
	return &g.usages[idx], true
}

// ScopeAtPosition returns the id of the smallest scope containing p, ties
// broken by insertion order. Scopes nest, so unlike the other indices this
// scans every candidate rather than trusting a single binary-search hit;
// results are cached per position since lookups repeat heavily during a
// single analysis pass.
func (g *Graph) ScopeAtPosition(p rng.Position) ScopeId {
	key := positionKey{line: p.Line, column: p.Column}

	g.scopeCacheMu.RLock()
	if cached, ok := g.scopeCache[key]; ok {
		g.scopeCacheMu.RUnlock()
		return cached
	}
	g.scopeCacheMu.RUnlock()

	result := g.scopeAtPositionUncached(p)

	g.scopeCacheMu.Lock()
	g.scopeCache[key] = result
	g.scopeCacheMu.Unlock()

	return result
}

func (g *Graph) scopeAtPositionUncached(p rng.Position) ScopeId {
	best := RootScopeID
	bestSize := uint64(math.MaxUint64)

	for _, entry := range g.scopeIndex.entries {
		if !entry.Range.Contains(p) {
			continue
		}
		if entry.Value.Size < bestSize {
			bestSize = entry.Value.Size
			best = entry.Value.ID
		}
	}

	if len(g.scopes) > 0 {
		root := g.scopes[0]
		if root.Range.Contains(p) {
			if size := root.Range.Size(); size < bestSize {
				best = root.ID
			}
		}
	}

	return best
}
