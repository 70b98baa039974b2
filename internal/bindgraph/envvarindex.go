package bindgraph

import "github.com/binding-graph/envlsp/internal/rng"

// rangeTuple is the dedup key for the env-var reverse index: two entries
// naming the same env var at the exact same range are the same syntactic
// location and must only appear once.
type rangeTuple struct {
	startLine, startColumn, endLine, endColumn uint32
}

func tupleOf(r rng.Range) rangeTuple {
	return rangeTuple{r.Start.Line, r.Start.Column, r.End.Line, r.End.Column}
}

// GetEnvVarLocations returns every location referencing the given env var,
// built by the last RebuildRangeIndex. O(1).
func (g *Graph) GetEnvVarLocations(envVarName string) ([]EnvVarLocation, bool) {
	locations, ok := g.envVarIndex[envVarName]
	return locations, ok
}

// buildEnvVarIndex rebuilds the env-var reverse index and, as a side
// effect, populates the resolution cache for every symbol touched along the
// way. Locations are added in a fixed order — direct references, then
// symbol declarations, then usages — and deduplicated by exact range tuple,
// matching the order the index is specified to build in.
func (g *Graph) buildEnvVarIndex() {
	g.envVarIndex = make(map[string][]EnvVarLocation)
	g.resolutionCache = make(map[SymbolId]*ResolvedEnv)

	seen := make(map[rangeTuple]struct{})

	for _, reference := range g.directReferences {
		key := tupleOf(reference.NameRange)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		g.envVarIndex[reference.Name] = append(g.envVarIndex[reference.Name], EnvVarLocation{
			Range: reference.NameRange,
			Kind:  LocationDirectReference,
		})
	}

	for _, symbol := range g.symbols {
		resolved, ok := g.getOrComputeResolution(symbol.ID)
		if !ok || resolved.Kind != ResolvedVariable {
			continue
		}
		name := resolved.Name

		var indexRange rng.Range
		haveRange := false
		switch {
		case symbol.DestructuredKeyRange != nil:
			indexRange = *symbol.DestructuredKeyRange
			haveRange = true
		case symbol.Name == name:
			indexRange = symbol.NameRange
			haveRange = true
		}
		if !haveRange {
			continue
		}

		key := tupleOf(indexRange)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		g.envVarIndex[name] = append(g.envVarIndex[name], EnvVarLocation{
			Range:          indexRange,
			Kind:           LocationBindingDeclaration,
			BindingName:    symbol.Name,
			HasBindingName: true,
		})
	}

	for _, usage := range g.usages {
		resolved, ok := g.getOrComputeResolution(usage.SymbolID)
		if !ok {
			continue
		}

		switch resolved.Kind {
		case ResolvedVariable:
			key := tupleOf(usage.Range)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			bindingName, hasBindingName := "", false
			if sym, ok := g.GetSymbol(usage.SymbolID); ok {
				bindingName, hasBindingName = sym.Name, true
			}
			g.envVarIndex[resolved.Name] = append(g.envVarIndex[resolved.Name], EnvVarLocation{
				Range:          usage.Range,
				Kind:           LocationBindingUsage,
				BindingName:    bindingName,
				HasBindingName: hasBindingName,
			})

		case ResolvedObject:
			if !usage.HasPropertyAccess {
				continue
			}
			locRange := usage.Range
			if usage.PropertyAccessRange != nil {
				locRange = *usage.PropertyAccessRange
			}
			key := tupleOf(locRange)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			bindingName, hasBindingName := "", false
			if sym, ok := g.GetSymbol(usage.SymbolID); ok {
				bindingName, hasBindingName = sym.Name, true
			}
			g.envVarIndex[usage.PropertyAccess] = append(g.envVarIndex[usage.PropertyAccess], EnvVarLocation{
				Range:          locRange,
				Kind:           LocationPropertyAccess,
				BindingName:    bindingName,
				HasBindingName: hasBindingName,
			})
		}
	}
}
