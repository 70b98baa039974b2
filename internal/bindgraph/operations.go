package bindgraph

import "github.com/binding-graph/envlsp/internal/rng"

// Clear resets the graph to its just-constructed state: every symbol,
// scope, index and cache is dropped and the root scope is re-added.
func (g *Graph) Clear() {
	g.symbols = nil
	g.scopes = nil
	g.nameIndex = make(map[nameScopeKey][]SymbolId)
	g.nameOnlyIndex = make(map[string][]SymbolId)
	g.directReferences = nil
	g.usages = nil
	g.pendingDestructureEntries = nil
	g.pendingSymbolEntries = nil
	g.pendingUsageEntries = nil
	g.pendingScopeEntries = nil
	g.destructureIndex = rangeIndex[SymbolId]{}
	g.symbolIndex = rangeIndex[SymbolId]{}
	g.usageIndex = rangeIndex[int]{}
	g.scopeIndex = rangeIndex[scopeEntryValue]{}
	g.envVarIndex = make(map[string][]EnvVarLocation)
	g.resolutionCache = make(map[SymbolId]*ResolvedEnv)

	g.scopeCacheMu.Lock()
	g.scopeCache = make(map[positionKey]ScopeId)
	g.scopeCacheMu.Unlock()

	g.nextSymbolID = 0
	g.nextScopeID = 1
	g.scopes = append(g.scopes, Scope{ID: RootScopeID, Parent: nil, Kind: ScopeModule})
	g.nextScopeID = 2
}

// Stats summarizes the graph's contents.
func (g *Graph) Stats() Stats {
	return Stats{
		SymbolCount:          len(g.symbols),
		ScopeCount:           len(g.scopes),
		UsageCount:           len(g.usages),
		DirectReferenceCount: len(g.directReferences),
	}
}

func rangesOverlap(a, b rng.Range) bool { return a.Overlaps(b) }

// ScopesOverlapping returns every scope id whose range overlaps r.
func (g *Graph) ScopesOverlapping(r rng.Range) []ScopeId {
	var out []ScopeId
	for _, s := range g.scopes {
		if rangesOverlap(s.Range, r) {
			out = append(out, s.ID)
		}
	}
	return out
}

// SymbolsInRange returns every symbol whose declaration range overlaps r.
func (g *Graph) SymbolsInRange(r rng.Range) []Symbol {
	var out []Symbol
	for _, s := range g.symbols {
		if rangesOverlap(s.DeclarationRange, r) {
			out = append(out, s)
		}
	}
	return out
}

// UsagesInRange returns every usage whose range overlaps r.
func (g *Graph) UsagesInRange(r rng.Range) []SymbolUsage {
	var out []SymbolUsage
	for _, u := range g.usages {
		if rangesOverlap(u.Range, r) {
			out = append(out, u)
		}
	}
	return out
}

// ReferencesInRange returns every direct reference whose full range overlaps r.
func (g *Graph) ReferencesInRange(r rng.Range) []EnvReference {
	var out []EnvReference
	for _, ref := range g.directReferences {
		if rangesOverlap(ref.FullRange, r) {
			out = append(out, ref)
		}
	}
	return out
}

// DocumentSize estimates (line count, approximate char count) from the root
// scope's range.
func (g *Graph) DocumentSize() (uint32, uint64) {
	if len(g.scopes) == 0 {
		return 0, 0
	}
	root := g.scopes[0]
	lines := root.Range.End.Line - root.Range.Start.Line + 1
	return lines, root.Range.Size()
}

// IsLargeEdit reports whether editRange covers more than half the document,
// the threshold past which a full re-analysis is cheaper than an
// incremental merge.
func (g *Graph) IsLargeEdit(editRange rng.Range) bool {
	docLines, _ := g.DocumentSize()
	if docLines == 0 {
		return true
	}
	editLines := editRange.End.Line - editRange.Start.Line + 1
	return editLines > docLines/2
}

// RemoveInRange drops every symbol, usage, direct reference, and pending
// index entry overlapping r — the first half of incremental re-analysis.
// Scopes are left untouched since they may still bound items outside r;
// they are only ever replaced wholesale by a full re-analysis. Returns the
// number of items removed.
func (g *Graph) RemoveInRange(r rng.Range) int {
	removed := 0

	removedIDs := make(map[SymbolId]struct{})
	keptSymbols := g.symbols[:0:0]
	for _, s := range g.symbols {
		if rangesOverlap(s.DeclarationRange, r) {
			removedIDs[s.ID] = struct{}{}
			continue
		}
		keptSymbols = append(keptSymbols, s)
	}
	removed += len(g.symbols) - len(keptSymbols)
	g.symbols = keptSymbols

	for key, ids := range g.nameIndex {
		filtered := ids[:0:0]
		for _, id := range ids {
			if _, gone := removedIDs[id]; !gone {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == 0 {
			delete(g.nameIndex, key)
		} else {
			g.nameIndex[key] = filtered
		}
	}
	for name, ids := range g.nameOnlyIndex {
		filtered := ids[:0:0]
		for _, id := range ids {
			if _, gone := removedIDs[id]; !gone {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) == 0 {
			delete(g.nameOnlyIndex, name)
		} else {
			g.nameOnlyIndex[name] = filtered
		}
	}

	keptUsages := g.usages[:0:0]
	for _, u := range g.usages {
		_, symbolGone := removedIDs[u.SymbolID]
		if rangesOverlap(u.Range, r) || symbolGone {
			continue
		}
		keptUsages = append(keptUsages, u)
	}
	removed += len(g.usages) - len(keptUsages)
	g.usages = keptUsages

	keptRefs := g.directReferences[:0:0]
	for _, ref := range g.directReferences {
		if rangesOverlap(ref.FullRange, r) {
			continue
		}
		keptRefs = append(keptRefs, ref)
	}
	removed += len(g.directReferences) - len(keptRefs)
	g.directReferences = keptRefs

	g.pendingSymbolEntries = filterPending(g.pendingSymbolEntries, r)
	g.pendingUsageEntries = filterPending(g.pendingUsageEntries, r)
	g.pendingDestructureEntries = filterPending(g.pendingDestructureEntries, r)

	g.resolutionCache = make(map[SymbolId]*ResolvedEnv)
	g.scopeCacheMu.Lock()
	g.scopeCache = make(map[positionKey]ScopeId)
	g.scopeCacheMu.Unlock()

	g.destructureIndex = rangeIndex[SymbolId]{}
	g.symbolIndex = rangeIndex[SymbolId]{}
	g.usageIndex = rangeIndex[int]{}

	return removed
}

func filterPending[T any](entries []pendingRangeEntry[T], r rng.Range) []pendingRangeEntry[T] {
	kept := entries[:0:0]
	for _, e := range entries {
		if rangesOverlap(e.Range, r) {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// expandRange widens r by lines on each side, used to build the merge
// window around an edit.
func expandRange(r rng.Range, lines uint32) rng.Range {
	start := r.Start
	if start.Line >= lines {
		start.Line -= lines
	} else {
		start.Line = 0
	}
	end := r.End
	end.Line += lines
	return rng.Range{Start: start, End: end}
}

// MergeStats summarizes a MergeFrom call.
type MergeStats struct {
	SymbolsMerged    int
	UsagesMerged     int
	ReferencesMerged int
}

func (s MergeStats) Total() int { return s.SymbolsMerged + s.UsagesMerged + s.ReferencesMerged }

// MergeFrom copies items from other that fall within an expanded window
// around editRange into g, reassigning ids and remapping symbol-origin
// back-references when the target is also being merged. This is the second
// half of incremental re-analysis (see RemoveInRange); callers must follow
// it with RebuildRangeIndex.
func (g *Graph) MergeFrom(other *Graph, editRange rng.Range) MergeStats {
	expanded := expandRange(editRange, 5)
	var stats MergeStats

	idMap := make(map[SymbolId]SymbolId)

	for _, symbol := range other.SymbolsInRange(expanded) {
		oldID := symbol.ID
		newID := g.allocateSymbolID()
		idMap[oldID] = newID

		newSymbol := symbol
		newSymbol.ID = newID

		switch symbol.Origin.Kind {
		case OriginSymbol:
			if target, ok := idMap[symbol.Origin.Target]; ok {
				newSymbol.Origin = SymbolAliasOrigin(target)
			}
		case OriginDestructuredProperty:
			if source, ok := idMap[symbol.Origin.Target]; ok {
				newSymbol.Origin = DestructuredPropertyOrigin(source, symbol.Origin.Key)
			}
		}

		g.addSymbolWithID(newSymbol)
		stats.SymbolsMerged++
	}

	for _, usage := range other.UsagesInRange(expanded) {
		newUsage := usage
		if newID, ok := idMap[usage.SymbolID]; ok {
			newUsage.SymbolID = newID
		}
		g.AddUsage(newUsage)
		stats.UsagesMerged++
	}

	for _, reference := range other.ReferencesInRange(expanded) {
		g.AddDirectReference(reference)
		stats.ReferencesMerged++
	}

	return stats
}

// allocateSymbolID reserves the next id without adding a symbol yet, so
// MergeFrom can remap an id before building the final Symbol value.
func (g *Graph) allocateSymbolID() SymbolId {
	g.nextSymbolID++
	return SymbolId(g.nextSymbolID)
}

// addSymbolWithID inserts symbol (whose ID is already assigned) into the
// arena and indices, for merge. Unlike AddSymbol it does not allocate a new
// id.
func (g *Graph) addSymbolWithID(symbol Symbol) {
	key := nameScopeKey{name: symbol.Name, scope: symbol.Scope}
	g.nameIndex[key] = append(g.nameIndex[key], symbol.ID)
	g.nameOnlyIndex[symbol.Name] = append(g.nameOnlyIndex[symbol.Name], symbol.ID)

	if symbol.DestructuredKeyRange != nil {
		g.pendingDestructureEntries = append(g.pendingDestructureEntries, pendingRangeEntry[SymbolId]{
			Range: *symbol.DestructuredKeyRange,
			Value: symbol.ID,
		})
	}
	g.pendingSymbolEntries = append(g.pendingSymbolEntries, pendingRangeEntry[SymbolId]{
		Range: symbol.NameRange,
		Value: symbol.ID,
	})

	g.symbols = append(g.symbols, symbol)
}
