// Package resolver answers position-based questions against an already
// analyzed binding graph: what env var (if any) sits under a cursor, where
// every reference to a given env var lives, and what kind of binding a name
// resolves to. It never mutates the graph it is given.
package resolver

import (
	"github.com/binding-graph/envlsp/internal/bindgraph"
	"github.com/binding-graph/envlsp/internal/query"
	"github.com/binding-graph/envlsp/internal/rng"
)

// HitKind distinguishes the three ways a position can land on an env var.
type HitKind int

const (
	HitDirectReference HitKind = iota
	HitViaSymbol
	HitViaUsage
)

// EnvHit is what EnvAtPosition found, tagged by how it found it. Exactly one
// of Reference/(Symbol,Usage) is populated per Kind.
type EnvHit struct {
	Kind      HitKind
	Reference *query.EnvReference
	Symbol    *bindgraph.Symbol
	Usage     *bindgraph.SymbolUsage
	Resolved  bindgraph.ResolvedEnv
}

// EnvVarName returns the concrete variable name the hit names, if it names
// one rather than an env-object alias.
func (h EnvHit) EnvVarName() (string, bool) {
	switch h.Kind {
	case HitDirectReference:
		return h.Reference.Name, true
	default:
		if h.Resolved.Kind == bindgraph.ResolvedVariable {
			return h.Resolved.Name, true
		}
		return "", false
	}
}

// CanonicalName returns the variable or object name the hit resolves to,
// whichever shape it is.
func (h EnvHit) CanonicalName() string {
	if h.Kind == HitDirectReference {
		return h.Reference.Name
	}
	return h.Resolved.Name
}

// Range returns the span the hit occupies.
func (h EnvHit) Range() rng.Range {
	switch h.Kind {
	case HitDirectReference:
		return h.Reference.NameRange
	case HitViaSymbol:
		return h.Symbol.NameRange
	default:
		return h.Usage.Range
	}
}

// IsEnvObject reports whether the hit names an env-object alias rather than
// a concrete variable.
func (h EnvHit) IsEnvObject() bool {
	return h.Kind != HitDirectReference && h.Resolved.Kind == bindgraph.ResolvedObject
}

// BindingName returns the local name the hit is bound to, if any.
func (h EnvHit) BindingName() (string, bool) {
	if h.Kind == HitDirectReference {
		return "", false
	}
	return h.Symbol.Name, true
}

// Binding is a resolved binding, the shape hover/definition/rename need:
// either a declaration site or (IsUsage true) a usage site of one.
type Binding struct {
	BindingName          string
	EnvVarName           string
	BindingRange         rng.Range
	DeclarationRange     rng.Range
	ScopeRange           rng.Range
	IsValid              bool
	Kind                 query.BindingKind
	DestructuredKeyRange *rng.Range
	IsUsage              bool
}

// BindingUsage is the subset of Binding a rename/usage query needs.
type BindingUsage struct {
	Name             string
	EnvVarName       string
	Range            rng.Range
	DeclarationRange rng.Range
}

func (b Binding) toUsage() BindingUsage {
	return BindingUsage{
		Name:             b.BindingName,
		EnvVarName:       b.EnvVarName,
		Range:            b.BindingRange,
		DeclarationRange: b.DeclarationRange,
	}
}

// Resolver answers queries against one already-analyzed graph.
type Resolver struct {
	graph *bindgraph.Graph
}

// New wraps graph for read-only querying.
func New(graph *bindgraph.Graph) *Resolver {
	return &Resolver{graph: graph}
}

func kindAndName(resolved bindgraph.ResolvedEnv) (query.BindingKind, string) {
	if resolved.Kind == bindgraph.ResolvedObject {
		return query.BindingObject, resolved.Name
	}
	return query.BindingValue, resolved.Name
}

func containsPosition(r rng.Range, p rng.Position) bool { return r.Contains(p) }

// EnvAtPosition finds whatever env-var-shaped thing sits at position,
// checking direct references, then a declaration, then a destructure key,
// then a usage — the first of those that matches wins.
func (r *Resolver) EnvAtPosition(position rng.Position) (EnvHit, bool) {
	for i := range r.graph.DirectReferences() {
		ref := r.graph.DirectReferences()[i]
		if containsPosition(ref.NameRange, position) {
			return EnvHit{Kind: HitDirectReference, Reference: &ref}, true
		}
	}

	if symbol, ok := r.graph.SymbolAtPosition(position); ok {
		if resolved, ok := r.graph.ResolveToEnv(symbol.ID); ok {
			return EnvHit{Kind: HitViaSymbol, Symbol: symbol, Resolved: resolved}, true
		}
	}

	if symbolID, ok := r.graph.SymbolAtDestructureKey(position); ok {
		if symbol, ok := r.graph.GetSymbol(symbolID); ok {
			if resolved, ok := r.graph.ResolveToEnv(symbolID); ok {
				return EnvHit{Kind: HitViaSymbol, Symbol: symbol, Resolved: resolved}, true
			}
		}
	}

	if usage, ok := r.graph.UsageAtPosition(position); ok {
		symbol, ok := r.graph.GetSymbol(usage.SymbolID)
		if !ok {
			return EnvHit{}, false
		}
		if usage.HasPropertyAccess {
			if resolved, ok := r.graph.ResolveToEnv(usage.SymbolID); ok && resolved.Kind == bindgraph.ResolvedObject {
				return EnvHit{
					Kind:     HitViaUsage,
					Usage:    usage,
					Symbol:   symbol,
					Resolved: bindgraph.ResolvedVariableEnv(usage.PropertyAccess),
				}, true
			}
		} else if resolved, ok := r.graph.ResolveToEnv(usage.SymbolID); ok {
			return EnvHit{Kind: HitViaUsage, Usage: usage, Symbol: symbol, Resolved: resolved}, true
		}
	}

	return EnvHit{}, false
}

// BindingAtPosition is EnvAtPosition narrowed to hits that name an actual
// local binding — a direct reference has no binding to report.
func (r *Resolver) BindingAtPosition(position rng.Position) (Binding, bool) {
	hit, ok := r.EnvAtPosition(position)
	if !ok || hit.Kind == HitDirectReference {
		return Binding{}, false
	}

	kind, envVarName := kindAndName(hit.Resolved)

	if hit.Kind == HitViaUsage {
		return Binding{
			BindingName:      hit.Symbol.Name,
			EnvVarName:       envVarName,
			BindingRange:     hit.Usage.Range,
			DeclarationRange: hit.Symbol.DeclarationRange,
			Kind:             kind,
			IsUsage:          true,
		}, true
	}

	return Binding{
		BindingName:      hit.Symbol.Name,
		EnvVarName:       envVarName,
		BindingRange:     hit.Symbol.NameRange,
		DeclarationRange: hit.Symbol.DeclarationRange,
		Kind:             kind,
		IsUsage:          false,
	}, true
}

// DirectReferenceAtPosition returns the direct reference at position, if any.
func (r *Resolver) DirectReferenceAtPosition(position rng.Position) (query.EnvReference, bool) {
	for _, ref := range r.graph.DirectReferences() {
		if containsPosition(ref.NameRange, position) {
			return ref, true
		}
	}
	return query.EnvReference{}, false
}

// FindEnvVarUsages returns every location referencing envVarName, delegating
// to the graph's prebuilt reverse index rather than rescanning.
func (r *Resolver) FindEnvVarUsages(envVarName string) []bindgraph.EnvVarLocation {
	locations, _ := r.graph.GetEnvVarLocations(envVarName)
	return locations
}

// AllEnvVars returns the set of every env var name referenced anywhere in
// the document, directly or through a resolved binding.
func (r *Resolver) AllEnvVars() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}

	for _, ref := range r.graph.DirectReferences() {
		add(ref.Name)
	}
	for _, symbol := range r.graph.Symbols() {
		if resolved, ok := r.graph.ResolveToEnv(symbol.ID); ok && resolved.Kind == bindgraph.ResolvedVariable {
			add(resolved.Name)
		}
	}
	return out
}

// GetSymbol delegates to the underlying graph.
func (r *Resolver) GetSymbol(id bindgraph.SymbolId) (*bindgraph.Symbol, bool) {
	return r.graph.GetSymbol(id)
}

// LookupSymbol delegates to the underlying graph.
func (r *Resolver) LookupSymbol(name string, scope bindgraph.ScopeId) (*bindgraph.Symbol, bool) {
	return r.graph.LookupSymbol(name, scope)
}

// ScopeAtPosition delegates to the underlying graph.
func (r *Resolver) ScopeAtPosition(position rng.Position) bindgraph.ScopeId {
	return r.graph.ScopeAtPosition(position)
}

// IsEnvObject reports whether id resolves to an env-object alias.
func (r *Resolver) IsEnvObject(id bindgraph.SymbolId) bool {
	return r.graph.ResolvesToEnvObject(id)
}

// GetEnvReferenceCloned returns a synthesized EnvReference for position,
// whether it is a literal direct reference or a property access on a
// resolved env-object usage.
func (r *Resolver) GetEnvReferenceCloned(position rng.Position) (query.EnvReference, bool) {
	if ref, ok := r.DirectReferenceAtPosition(position); ok {
		return ref, true
	}

	if usage, ok := r.graph.UsageAtPosition(position); ok && usage.HasPropertyAccess {
		if resolved, ok := r.graph.ResolveToEnv(usage.SymbolID); ok && resolved.Kind == bindgraph.ResolvedObject {
			return query.EnvReference{
				Name:       usage.PropertyAccess,
				FullRange:  usage.Range,
				NameRange:  usage.Range,
				AccessType: query.AccessProperty,
			}, true
		}
	}

	return query.EnvReference{}, false
}

// GetEnvBindingCloned returns the full declaration-site binding at position,
// including its enclosing scope range — false for a usage site or a direct
// reference, which have no declaration of their own to report.
func (r *Resolver) GetEnvBindingCloned(position rng.Position) (query.EnvBinding, bool) {
	hit, ok := r.EnvAtPosition(position)
	if !ok || hit.Kind != HitViaSymbol {
		return query.EnvBinding{}, false
	}

	kind, envVarName := kindAndName(hit.Resolved)

	scope, ok := r.graph.GetScope(hit.Symbol.Scope)
	if !ok {
		return query.EnvBinding{}, false
	}

	return query.EnvBinding{
		BindingName:          hit.Symbol.Name,
		EnvVarName:           envVarName,
		BindingRange:         hit.Symbol.NameRange,
		DeclarationRange:     hit.Symbol.DeclarationRange,
		ScopeRange:           scope.Range,
		Kind:                 kind,
		DestructuredKeyRange: hit.Symbol.DestructuredKeyRange,
	}, true
}

// GetBindingUsageCloned returns the binding usage at position, or false if
// position is not a usage site.
func (r *Resolver) GetBindingUsageCloned(position rng.Position) (BindingUsage, bool) {
	binding, ok := r.BindingAtPosition(position)
	if !ok || !binding.IsUsage {
		return BindingUsage{}, false
	}
	return binding.toUsage(), true
}

// GetBindingKind returns the kind of the first valid symbol named name that
// resolves to an env var, if any.
func (r *Resolver) GetBindingKind(name string) (query.BindingKind, bool) {
	for _, symbol := range r.graph.Symbols() {
		if symbol.Name != name || !symbol.IsValid {
			continue
		}
		if resolved, ok := r.graph.ResolveToEnv(symbol.ID); ok {
			kind, _ := kindAndName(resolved)
			return kind, true
		}
	}
	return query.BindingValue, false
}
