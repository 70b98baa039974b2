package bindgraph

// ResolveToEnv walks a symbol's origin chain to its terminal shape: a
// concrete env variable, an env-object alias, or no resolution at all. A
// cached result (populated by the last RebuildRangeIndex) is preferred;
// otherwise the chain is walked on demand, bounded by maxChainDepth.
func (g *Graph) ResolveToEnv(id SymbolId) (ResolvedEnv, bool) {
	if cached, ok := g.resolutionCache[id]; ok {
		if cached == nil {
			return ResolvedEnv{}, false
		}
		return *cached, true
	}
	return g.resolveToEnvWithDepth(id, maxChainDepth, 0)
}

// ResolveToEnvWithMax is ResolveToEnv with a caller-supplied depth bound,
// used by tests to exercise the depth guard without constructing a
// maxChainDepth-long chain.
func (g *Graph) ResolveToEnvWithMax(id SymbolId, maxDepth int) (ResolvedEnv, bool) {
	return g.resolveToEnvWithDepth(id, maxDepth, 0)
}

func (g *Graph) resolveToEnvWithDepth(id SymbolId, maxDepth, depth int) (ResolvedEnv, bool) {
	if depth >= maxDepth {
		return ResolvedEnv{}, false
	}
	symbol, ok := g.GetSymbol(id)
	if !ok {
		return ResolvedEnv{}, false
	}

	switch symbol.Origin.Kind {
	case OriginEnvVar:
		return ResolvedVariableEnv(symbol.Origin.Name), true

	case OriginEnvObject:
		return ResolvedObjectEnv(symbol.Origin.CanonicalName), true

	case OriginSymbol:
		return g.resolveToEnvWithDepth(symbol.Origin.Target, maxDepth, depth+1)

	case OriginDestructuredProperty:
		source, ok := g.resolveToEnvWithDepth(symbol.Origin.Target, maxDepth, depth+1)
		if !ok {
			return ResolvedEnv{}, false
		}
		if source.Kind == ResolvedObject {
			return ResolvedVariableEnv(symbol.Origin.Key), true
		}
		// A destructured property of a bare Variable is structurally
		// meaningless: there is nothing to destructure a key from.
		return ResolvedEnv{}, false

	default: // OriginUnknown, OriginUnresolvable, OriginUnresolvedSymbol, OriginUnresolvedDestructure
		return ResolvedEnv{}, false
	}
}

// ResolvesToEnvObject reports whether id ultimately resolves to an
// env-object alias rather than a concrete variable.
func (g *Graph) ResolvesToEnvObject(id SymbolId) bool {
	resolved, ok := g.ResolveToEnv(id)
	return ok && resolved.Kind == ResolvedObject
}

// GetEnvVarName returns the env-var name id resolves to, or ("", false) if
// id resolves to an env object or not at all.
func (g *Graph) GetEnvVarName(id SymbolId) (string, bool) {
	resolved, ok := g.ResolveToEnv(id)
	if !ok || resolved.Kind != ResolvedVariable {
		return "", false
	}
	return resolved.Name, true
}

// getOrComputeResolution resolves id and memoizes the result, used only
// while building the env-var index so repeated lookups across usages and
// symbols sharing a chain don't re-walk it.
func (g *Graph) getOrComputeResolution(id SymbolId) (ResolvedEnv, bool) {
	if cached, ok := g.resolutionCache[id]; ok {
		if cached == nil {
			return ResolvedEnv{}, false
		}
		return *cached, true
	}
	resolved, ok := g.resolveToEnvWithDepth(id, maxChainDepth, 0)
	if ok {
		r := resolved
		g.resolutionCache[id] = &r
	} else {
		g.resolutionCache[id] = nil
	}
	return resolved, ok
}
