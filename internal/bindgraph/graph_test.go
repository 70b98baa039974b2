package bindgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binding-graph/envlsp/internal/rng"
)

func makeRange(startLine, startCol, endLine, endCol uint32) rng.Range {
	return rng.Range{
		Start: rng.Position{Line: startLine, Column: startCol},
		End:   rng.Position{Line: endLine, Column: endCol},
	}
}

func TestNewGraphHasRootScope(t *testing.T) {
	g := New()
	assert.Len(t, g.Scopes(), 1)
	assert.Equal(t, RootScopeID, g.Scopes()[0].ID)
	assert.Nil(t, g.Scopes()[0].Parent)
}

func TestAddAndLookupSymbol(t *testing.T) {
	g := New()
	symbol := Symbol{
		Name:             "dbUrl",
		DeclarationRange: makeRange(0, 0, 0, 30),
		NameRange:        makeRange(0, 6, 0, 11),
		Scope:            RootScopeID,
		Origin:           EnvVarOrigin("DATABASE_URL"),
		Kind:             SymbolValue,
		IsValid:          true,
	}
	id := g.AddSymbol(symbol)

	found, ok := g.GetSymbol(id)
	assert.True(t, ok)
	assert.Equal(t, "dbUrl", found.Name)

	found, ok = g.LookupSymbol("dbUrl", RootScopeID)
	assert.True(t, ok)
	assert.Equal(t, id, found.ID)
}

func TestScopeChainLookup(t *testing.T) {
	g := New()
	funcScope := g.AddScope(Scope{Parent: ptr(RootScopeID), Range: makeRange(5, 0, 10, 1), Kind: ScopeFunction})

	rootSymbol := g.AddSymbol(Symbol{
		Name:             "globalEnv",
		DeclarationRange: makeRange(0, 0, 0, 20),
		NameRange:        makeRange(0, 6, 0, 15),
		Scope:            RootScopeID,
		Origin:           EnvObjectOrigin("process.env"),
		Kind:             SymbolEnvObject,
		IsValid:          true,
	})

	found, ok := g.LookupSymbol("globalEnv", funcScope)
	assert.True(t, ok)
	assert.Equal(t, rootSymbol, found.ID)
}

func TestResolveEnvChain(t *testing.T) {
	g := New()

	envID := g.AddSymbol(Symbol{Name: "env", Scope: RootScopeID, Origin: EnvObjectOrigin("process.env"), IsValid: true})
	configID := g.AddSymbol(Symbol{Name: "config", Scope: RootScopeID, Origin: SymbolAliasOrigin(envID), IsValid: true})
	dbURLID := g.AddSymbol(Symbol{
		Name:    "DB_URL",
		Scope:   RootScopeID,
		Origin:  DestructuredPropertyOrigin(configID, "DB_URL"),
		IsValid: true,
	})

	resolved, ok := g.ResolveToEnv(envID)
	assert.True(t, ok)
	assert.Equal(t, ResolvedObjectEnv("process.env"), resolved)

	resolved, ok = g.ResolveToEnv(configID)
	assert.True(t, ok)
	assert.Equal(t, ResolvedObjectEnv("process.env"), resolved)

	resolved, ok = g.ResolveToEnv(dbURLID)
	assert.True(t, ok)
	assert.Equal(t, ResolvedVariableEnv("DB_URL"), resolved)
}

func TestScopeAtPosition(t *testing.T) {
	g := New()
	g.SetRootRange(makeRange(0, 0, 20, 0))
	funcScope := g.AddScope(Scope{Parent: ptr(RootScopeID), Range: makeRange(5, 0, 10, 1), Kind: ScopeFunction})
	g.RebuildScopeRangeIndex()

	assert.Equal(t, RootScopeID, g.ScopeAtPosition(rng.Position{Line: 2, Column: 5}))
	assert.Equal(t, funcScope, g.ScopeAtPosition(rng.Position{Line: 7, Column: 5}))
}

func TestContainsPosition(t *testing.T) {
	r := makeRange(5, 10, 5, 20)
	assert.True(t, r.Contains(rng.Position{Line: 5, Column: 10}))
	assert.True(t, r.Contains(rng.Position{Line: 5, Column: 15}))
	assert.True(t, r.Contains(rng.Position{Line: 5, Column: 19}))
	assert.False(t, r.Contains(rng.Position{Line: 5, Column: 20}))
	assert.False(t, r.Contains(rng.Position{Line: 5, Column: 9}))
	assert.False(t, r.Contains(rng.Position{Line: 4, Column: 15}))
	assert.False(t, r.Contains(rng.Position{Line: 6, Column: 15}))
}

func TestSetRootRange(t *testing.T) {
	g := New()
	r := makeRange(0, 0, 100, 0)
	g.SetRootRange(r)

	root, ok := g.GetScope(RootScopeID)
	assert.True(t, ok)
	assert.True(t, root.Range.Equal(r))
}

func TestSymbolAtPosition(t *testing.T) {
	g := New()
	g.AddSymbol(Symbol{
		Name:             "test",
		DeclarationRange: makeRange(0, 0, 0, 20),
		NameRange:        makeRange(0, 6, 0, 10),
		Scope:            RootScopeID,
		Origin:           EnvVarOrigin("TEST"),
		IsValid:          true,
	})
	g.RebuildRangeIndex()

	found, ok := g.SymbolAtPosition(rng.Position{Line: 0, Column: 8})
	assert.True(t, ok)
	assert.Equal(t, "test", found.Name)

	_, ok = g.SymbolAtPosition(rng.Position{Line: 0, Column: 0})
	assert.False(t, ok)
}

func TestSymbolAtDestructureKey(t *testing.T) {
	g := New()
	keyRange := makeRange(0, 8, 0, 20)
	id := g.AddSymbol(Symbol{
		Name:                 "dbUrl",
		DeclarationRange:     makeRange(0, 0, 0, 40),
		NameRange:            makeRange(0, 24, 0, 29),
		Scope:                RootScopeID,
		Origin:               EnvVarOrigin("DATABASE_URL"),
		IsValid:              true,
		DestructuredKeyRange: &keyRange,
	})
	g.RebuildRangeIndex()

	found, ok := g.SymbolAtDestructureKey(rng.Position{Line: 0, Column: 10})
	assert.True(t, ok)
	assert.Equal(t, id, found)

	_, ok = g.SymbolAtDestructureKey(rng.Position{Line: 0, Column: 30})
	assert.False(t, ok)
}

func TestDirectReferences(t *testing.T) {
	g := New()
	g.AddDirectReference(EnvReference{
		Name:      "DATABASE_URL",
		FullRange: makeRange(0, 0, 0, 22),
		NameRange: makeRange(0, 10, 0, 22),
	})

	assert.Len(t, g.DirectReferences(), 1)
	assert.Equal(t, "DATABASE_URL", g.DirectReferences()[0].Name)
}

func TestUsages(t *testing.T) {
	g := New()
	symbolID := g.AddSymbol(Symbol{Name: "env", Scope: RootScopeID, Origin: EnvObjectOrigin("process.env"), IsValid: true})
	propRange := makeRange(1, 14, 1, 26)

	g.AddUsage(SymbolUsage{
		SymbolID:            symbolID,
		Range:               makeRange(1, 10, 1, 23),
		Scope:               RootScopeID,
		PropertyAccess:       "DATABASE_URL",
		HasPropertyAccess:    true,
		PropertyAccessRange:  &propRange,
	})

	assert.Len(t, g.Usages(), 1)
	assert.Equal(t, "DATABASE_URL", g.Usages()[0].PropertyAccess)
}

func TestUsageAtPosition(t *testing.T) {
	g := New()
	symbolID := g.AddSymbol(Symbol{Name: "env", Scope: RootScopeID, Origin: EnvObjectOrigin("process.env"), IsValid: true})
	g.AddUsage(SymbolUsage{SymbolID: symbolID, Range: makeRange(1, 10, 1, 23), Scope: RootScopeID})
	g.RebuildRangeIndex()

	_, ok := g.UsageAtPosition(rng.Position{Line: 1, Column: 15})
	assert.True(t, ok)

	_, ok = g.UsageAtPosition(rng.Position{Line: 2, Column: 0})
	assert.False(t, ok)
}

func TestResolveWithMaxDepth(t *testing.T) {
	g := New()
	a := g.AddSymbol(Symbol{Name: "a", Scope: RootScopeID, Origin: EnvObjectOrigin("process.env"), IsValid: true})
	b := g.AddSymbol(Symbol{Name: "b", Scope: RootScopeID, Origin: SymbolAliasOrigin(a), IsValid: true})
	c := g.AddSymbol(Symbol{Name: "c", Scope: RootScopeID, Origin: SymbolAliasOrigin(b), IsValid: true})
	d := g.AddSymbol(Symbol{Name: "d", Scope: RootScopeID, Origin: SymbolAliasOrigin(c), IsValid: true})

	_, ok := g.ResolveToEnv(d)
	assert.True(t, ok)

	_, ok = g.ResolveToEnvWithMax(d, 2)
	assert.False(t, ok)

	_, ok = g.ResolveToEnvWithMax(d, 5)
	assert.True(t, ok)
}

func TestInvalidSymbolNotFoundInLookup(t *testing.T) {
	g := New()
	id := g.AddSymbol(Symbol{Name: "test", Scope: RootScopeID, Origin: EnvVarOrigin("TEST"), IsValid: false})

	_, ok := g.LookupSymbol("test", RootScopeID)
	assert.False(t, ok)

	_, ok = g.GetSymbol(id)
	assert.True(t, ok)
}

func TestMultipleSymbolsSameNameDifferentScopes(t *testing.T) {
	g := New()
	g.SetRootRange(makeRange(0, 0, 20, 0))
	funcScope := g.AddScope(Scope{Parent: ptr(RootScopeID), Range: makeRange(5, 0, 15, 0), Kind: ScopeFunction})

	rootID := g.AddSymbol(Symbol{Name: "db", Scope: RootScopeID, Origin: EnvVarOrigin("ROOT_DB"), IsValid: true})
	funcID := g.AddSymbol(Symbol{Name: "db", Scope: funcScope, Origin: EnvVarOrigin("FUNC_DB"), IsValid: true})

	found, ok := g.LookupSymbol("db", funcScope)
	assert.True(t, ok)
	assert.Equal(t, funcID, found.ID)

	found, ok = g.LookupSymbol("db", RootScopeID)
	assert.True(t, ok)
	assert.Equal(t, rootID, found.ID)
}

func TestInvalidateSymbol(t *testing.T) {
	g := New()
	id := g.AddSymbol(Symbol{Name: "db", Scope: RootScopeID, Origin: EnvVarOrigin("DB"), IsValid: true})

	_, ok := g.LookupSymbol("db", RootScopeID)
	assert.True(t, ok)

	g.InvalidateSymbol(id)

	_, ok = g.LookupSymbol("db", RootScopeID)
	assert.False(t, ok)

	sym, ok := g.GetSymbol(id)
	assert.True(t, ok)
	assert.False(t, sym.IsValid)
}

func TestReassignmentInvalidatesOnlyAncestorScope(t *testing.T) {
	g := New()
	g.SetRootRange(makeRange(0, 0, 20, 0))
	sibling := g.AddScope(Scope{Parent: ptr(RootScopeID), Range: makeRange(10, 0, 15, 0), Kind: ScopeBlock})

	rootID := g.AddSymbol(Symbol{Name: "x", Scope: RootScopeID, Origin: EnvVarOrigin("X"), IsValid: true})
	siblingID := g.AddSymbol(Symbol{Name: "x", Scope: sibling, Origin: EnvVarOrigin("Y"), IsValid: true})

	for _, id := range g.LookupSymbolsByName("x") {
		if id == rootID {
			g.InvalidateSymbol(id)
		}
	}

	_, rootOK := g.GetSymbol(rootID)
	assert.True(t, rootOK)
	sym, _ := g.GetSymbol(rootID)
	assert.False(t, sym.IsValid)

	siblingSym, _ := g.GetSymbol(siblingID)
	assert.True(t, siblingSym.IsValid)
}

func TestResolveUnresolvableOrigins(t *testing.T) {
	g := New()
	unknownID := g.AddSymbol(Symbol{Name: "unknown", Scope: RootScopeID, Origin: SymbolOrigin{Kind: OriginUnknown}, IsValid: true})
	unresolvableID := g.AddSymbol(Symbol{Name: "unresolvable", Scope: RootScopeID, Origin: SymbolOrigin{Kind: OriginUnresolvable}, IsValid: true})

	_, ok := g.ResolveToEnv(unknownID)
	assert.False(t, ok)
	_, ok = g.ResolveToEnv(unresolvableID)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	g := New()
	g.AddSymbol(Symbol{Name: "test", Scope: RootScopeID, Origin: EnvVarOrigin("TEST"), IsValid: true})
	g.AddScope(Scope{Parent: ptr(RootScopeID), Range: makeRange(5, 0, 10, 0), Kind: ScopeFunction})
	g.AddDirectReference(EnvReference{Name: "TEST", FullRange: makeRange(0, 0, 0, 10), NameRange: makeRange(0, 0, 0, 4)})

	g.Clear()

	assert.Empty(t, g.Symbols())
	assert.Len(t, g.Scopes(), 1)
	assert.Empty(t, g.DirectReferences())
	assert.Empty(t, g.Usages())
}

func TestStats(t *testing.T) {
	g := New()
	g.AddSymbol(Symbol{Name: "test", Scope: RootScopeID, Origin: EnvVarOrigin("TEST"), IsValid: true})
	g.AddDirectReference(EnvReference{Name: "TEST", FullRange: makeRange(0, 0, 0, 10), NameRange: makeRange(0, 0, 0, 4)})

	stats := g.Stats()
	assert.Equal(t, 1, stats.SymbolCount)
	assert.Equal(t, 1, stats.ScopeCount)
	assert.Equal(t, 0, stats.UsageCount)
	assert.Equal(t, 1, stats.DirectReferenceCount)
}

func TestGetEnvVarLocations(t *testing.T) {
	g := New()
	g.AddDirectReference(EnvReference{Name: "DATABASE_URL", FullRange: makeRange(0, 0, 0, 22), NameRange: makeRange(0, 10, 0, 22)})

	dbID := g.AddSymbol(Symbol{
		Name:      "DATABASE_URL",
		NameRange: makeRange(1, 6, 1, 18),
		Scope:     RootScopeID,
		Origin:    EnvVarOrigin("DATABASE_URL"),
		IsValid:   true,
	})
	g.AddUsage(SymbolUsage{SymbolID: dbID, Range: makeRange(2, 0, 2, 12), Scope: RootScopeID})

	g.RebuildRangeIndex()

	locations, ok := g.GetEnvVarLocations("DATABASE_URL")
	assert.True(t, ok)
	assert.Len(t, locations, 3)

	kinds := map[EnvVarLocationKind]int{}
	for _, loc := range locations {
		kinds[loc.Kind]++
	}
	assert.Equal(t, 1, kinds[LocationDirectReference])
	assert.Equal(t, 1, kinds[LocationBindingDeclaration])
	assert.Equal(t, 1, kinds[LocationBindingUsage])
}

func TestGetEnvVarLocationsDeduplicatesByRange(t *testing.T) {
	g := New()
	sameRange := makeRange(0, 10, 0, 22)
	g.AddDirectReference(EnvReference{Name: "FOO", FullRange: makeRange(0, 0, 0, 22), NameRange: sameRange})
	g.AddDirectReference(EnvReference{Name: "FOO", FullRange: makeRange(0, 0, 0, 22), NameRange: sameRange})

	g.RebuildRangeIndex()

	locations, ok := g.GetEnvVarLocations("FOO")
	assert.True(t, ok)
	assert.Len(t, locations, 1)
}

func TestRemoveInRange(t *testing.T) {
	g := New()
	g.AddSymbol(Symbol{Name: "a", DeclarationRange: makeRange(0, 0, 0, 10), NameRange: makeRange(0, 0, 0, 1), Scope: RootScopeID, Origin: EnvVarOrigin("A"), IsValid: true})
	g.AddSymbol(Symbol{Name: "b", DeclarationRange: makeRange(5, 0, 5, 10), NameRange: makeRange(5, 0, 5, 1), Scope: RootScopeID, Origin: EnvVarOrigin("B"), IsValid: true})

	removed := g.RemoveInRange(makeRange(0, 0, 1, 0))
	assert.Equal(t, 1, removed)
	assert.Len(t, g.Symbols(), 1)
	assert.Equal(t, "b", g.Symbols()[0].Name)
}

func ptr(id ScopeId) *ScopeId { return &id }
