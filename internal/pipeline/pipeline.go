// Package pipeline runs the fixed, deterministic analysis pass that turns a
// parsed tree into a populated binding graph: scope/property walk, direct
// references, bindings, origin resolution, usages, property-access
// attachment, and reassignment invalidation, in that order. It is the only
// writer of a bindgraph.Graph; every other package only reads one.
package pipeline

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/binding-graph/envlsp/internal/bindgraph"
	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/query"
	"github.com/binding-graph/envlsp/internal/rng"
)

// propertyAccessCandidate is a member/subscript expression on a bare
// identifier, collected during the scope walk and resolved against the graph
// only once every binding in the document is known.
type propertyAccessCandidate struct {
	objectName    string
	propertyName  string
	usageRange    rng.Range
	propertyRange rng.Range
	objectStart   rng.Position
}

// Analyze runs the full pipeline against one parsed document and returns a
// freshly populated graph. Deterministic given its inputs.
func Analyze(engine *query.Engine, adapter lang.Adapter, tree *sitter.Tree, source []byte, importCtx *query.ImportContext) *bindgraph.Graph {
	graph := bindgraph.New()
	graph.SetRootRange(treeRange(tree.RootNode()))

	candidates := walkScopesAndCollectPropertyAccesses(adapter, tree.RootNode(), source, graph, bindgraph.RootScopeID)
	graph.RebuildScopeRangeIndex()

	extractDirectReferences(engine, adapter, tree, source, importCtx, graph)
	extractBindings(engine, adapter, tree, source, graph)
	resolveOrigins(graph)
	extractUsages(engine, adapter, tree, source, graph)
	processPropertyAccessCandidates(candidates, graph)
	processReassignments(engine, adapter, tree, source, graph)

	graph.RebuildRangeIndex()
	return graph
}

func treeRange(node *sitter.Node) rng.Range {
	start, end := node.StartPoint(), node.EndPoint()
	return rng.Range{
		Start: rng.Position{Line: start.Row, Column: start.Column},
		End:   rng.Position{Line: end.Row, Column: end.Column},
	}
}

func nodeRange(node *sitter.Node) rng.Range { return treeRange(node) }

// walkScopesAndCollectPropertyAccesses recurses the whole tree once, adding a
// scope for every scope-introducing node (other than the root, which the
// graph already owns) and collecting every member/subscript-expression
// candidate along the way, so both jobs share the single recursive walk the
// original groups them into.
func walkScopesAndCollectPropertyAccesses(
	adapter lang.Adapter,
	node *sitter.Node,
	source []byte,
	graph *bindgraph.Graph,
	parentScope bindgraph.ScopeId,
) []propertyAccessCandidate {
	var candidates []propertyAccessCandidate
	walkCombined(adapter, node, source, graph, parentScope, &candidates)
	return candidates
}

func walkCombined(
	adapter lang.Adapter,
	node *sitter.Node,
	source []byte,
	graph *bindgraph.Graph,
	parentScope bindgraph.ScopeId,
	candidates *[]propertyAccessCandidate,
) {
	currentScope := parentScope
	if adapter.IsScopeNode(node) && !adapter.IsRootNode(node) {
		scope := bindgraph.Scope{
			Parent: scopeIDPtr(parentScope),
			Range:  nodeRange(node),
			Kind:   bindgraph.ScopeKind(adapter.NodeToScopeKind(node.Type())),
		}
		currentScope = graph.AddScope(scope)
	}

	switch node.Type() {
	case "member_expression":
		if c, ok := memberExpressionCandidate(node, source); ok {
			*candidates = append(*candidates, c)
		}
	case "subscript_expression":
		if c, ok := subscriptExpressionCandidate(node, source, adapter); ok {
			*candidates = append(*candidates, c)
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		walkCombined(adapter, child, source, graph, currentScope, candidates)
	}
}

func scopeIDPtr(id bindgraph.ScopeId) *bindgraph.ScopeId { return &id }

func memberExpressionCandidate(node *sitter.Node, source []byte) (propertyAccessCandidate, bool) {
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	if object == nil || property == nil || object.Type() != "identifier" {
		return propertyAccessCandidate{}, false
	}
	return propertyAccessCandidate{
		objectName:    object.Content(source),
		propertyName:  property.Content(source),
		usageRange:    nodeRange(node),
		propertyRange: nodeRange(property),
		objectStart:   rng.Position{Line: object.StartPoint().Row, Column: object.StartPoint().Column},
	}, true
}

// subscriptExpressionCandidate handles dict-style access such as
// env["KEY"]: the object must be a bare identifier, the index must be a bare
// string literal, and the reported property range excludes the surrounding
// quote characters.
func subscriptExpressionCandidate(node *sitter.Node, source []byte, adapter lang.Adapter) (propertyAccessCandidate, bool) {
	object := node.ChildByFieldName("object")
	index := node.ChildByFieldName("index")
	if object == nil || index == nil || object.Type() != "identifier" || index.Type() != "string" {
		return propertyAccessCandidate{}, false
	}
	propName := adapter.StripQuotes(index.Content(source))

	start, end := index.StartPoint(), index.EndPoint()
	propRange := rng.Range{
		Start: rng.Position{Line: start.Row, Column: start.Column + 1},
		End:   rng.Position{Line: end.Row, Column: end.Column - 1},
	}

	return propertyAccessCandidate{
		objectName:    object.Content(source),
		propertyName:  propName,
		usageRange:    nodeRange(node),
		propertyRange: propRange,
		objectStart:   rng.Position{Line: object.StartPoint().Row, Column: object.StartPoint().Column},
	}, true
}

// processPropertyAccessCandidates resolves each candidate's object against
// the now-complete symbol table and, for every candidate whose object
// resolves to the env object, records a usage with a property access
// attached. Must run after extractBindings/resolveOrigins so
// ResolvesToEnvObject has something to walk.
func processPropertyAccessCandidates(candidates []propertyAccessCandidate, graph *bindgraph.Graph) {
	for _, c := range candidates {
		scope := graph.ScopeAtPosition(c.objectStart)
		symbol, ok := graph.LookupSymbol(c.objectName, scope)
		if !ok || !graph.ResolvesToEnvObject(symbol.ID) {
			continue
		}
		propertyName := c.propertyName
		propertyRange := c.propertyRange
		graph.AddUsage(bindgraph.SymbolUsage{
			SymbolID:            symbol.ID,
			Range:               c.usageRange,
			Scope:               scope,
			PropertyAccess:       propertyName,
			HasPropertyAccess:    true,
			PropertyAccessRange:  &propertyRange,
		})
	}
}

func extractDirectReferences(engine *query.Engine, adapter lang.Adapter, tree *sitter.Tree, source []byte, importCtx *query.ImportContext, graph *bindgraph.Graph) {
	for _, reference := range engine.ExtractReferences(adapter, tree, source, importCtx) {
		graph.AddDirectReference(reference)
	}
}

// extractBindings adds one symbol per direct binding, plain assignment, and
// destructure found in the document, in that order, matching the origin
// each kind of binding is given before origin resolution runs.
func extractBindings(engine *query.Engine, adapter lang.Adapter, tree *sitter.Tree, source []byte, graph *bindgraph.Graph) {
	for _, binding := range engine.ExtractBindings(adapter, tree, source) {
		scope := graph.ScopeAtPosition(binding.BindingRange.Start)

		var origin bindgraph.SymbolOrigin
		var kind bindgraph.SymbolKind
		switch binding.Kind {
		case query.BindingObject:
			if name, ok := adapter.DefaultEnvObjectName(); ok && binding.EnvVarName == name {
				origin = bindgraph.EnvObjectOrigin(binding.EnvVarName)
				kind = bindgraph.SymbolEnvObject
			} else {
				origin = bindgraph.EnvVarOrigin(binding.EnvVarName)
				kind = bindgraph.SymbolDestructuredProperty
			}
		default: // query.BindingValue
			origin = bindgraph.EnvVarOrigin(binding.EnvVarName)
			kind = bindgraph.SymbolValue
		}

		graph.AddSymbol(bindgraph.Symbol{
			Name:                 binding.BindingName,
			DeclarationRange:     binding.DeclarationRange,
			NameRange:            binding.BindingRange,
			Scope:                scope,
			Origin:               origin,
			Kind:                 kind,
			IsValid:              true,
			DestructuredKeyRange: binding.DestructuredKeyRange,
		})
	}

	for _, assignment := range engine.ExtractAssignments(adapter, tree, source) {
		scope := graph.ScopeAtPosition(assignment.TargetRange.Start)

		id := graph.AddSymbol(bindgraph.Symbol{
			Name:             assignment.TargetName,
			DeclarationRange: assignment.TargetRange,
			NameRange:        assignment.TargetRange,
			Scope:            scope,
			Origin:           bindgraph.SymbolOrigin{Kind: bindgraph.OriginUnknown},
			Kind:             bindgraph.SymbolVariable,
			IsValid:          true,
		})

		if targetID, ok := graph.LookupSymbolID(assignment.SourceName, scope); ok {
			graph.UpdateSymbolOrigin(id, bindgraph.SymbolAliasOrigin(targetID))
		} else {
			graph.UpdateSymbolOrigin(id, bindgraph.UnresolvedSymbolOrigin(assignment.SourceName))
		}
	}

	for _, destructure := range engine.ExtractDestructures(adapter, tree, source) {
		scope := graph.ScopeAtPosition(destructure.TargetRange.Start)

		var origin bindgraph.SymbolOrigin
		if sourceID, ok := graph.LookupSymbolID(destructure.SourceName, scope); ok {
			origin = bindgraph.DestructuredPropertyOrigin(sourceID, destructure.KeyName)
		} else {
			origin = bindgraph.UnresolvedDestructureOrigin(destructure.SourceName, destructure.KeyName)
		}

		keyRange := destructure.KeyRange
		graph.AddSymbol(bindgraph.Symbol{
			Name:                 destructure.TargetName,
			DeclarationRange:     destructure.TargetRange,
			NameRange:            destructure.TargetRange,
			Scope:                scope,
			Origin:               origin,
			Kind:                 bindgraph.SymbolDestructuredProperty,
			IsValid:              true,
			DestructuredKeyRange: &keyRange,
		})
	}
}

// resolveOrigins re-resolves every symbol left with an Unresolved* origin
// after extractBindings, now that every symbol in the document (regardless
// of declaration order) exists to look up. A name still unresolved becomes
// permanently Unresolvable rather than retried on the next pass.
func resolveOrigins(graph *bindgraph.Graph) {
	type pending struct {
		id     bindgraph.SymbolId
		scope  bindgraph.ScopeId
		origin bindgraph.SymbolOrigin
	}
	var toResolve []pending
	for _, symbol := range graph.Symbols() {
		if symbol.Origin.Kind == bindgraph.OriginUnresolvedSymbol || symbol.Origin.Kind == bindgraph.OriginUnresolvedDestructure {
			toResolve = append(toResolve, pending{id: symbol.ID, scope: symbol.Scope, origin: symbol.Origin})
		}
	}

	for _, p := range toResolve {
		var newOrigin bindgraph.SymbolOrigin
		switch p.origin.Kind {
		case bindgraph.OriginUnresolvedSymbol:
			if target, ok := graph.LookupSymbolID(p.origin.Name, p.scope); ok {
				newOrigin = bindgraph.SymbolAliasOrigin(target)
			} else {
				newOrigin = bindgraph.SymbolOrigin{Kind: bindgraph.OriginUnresolvable}
			}
		case bindgraph.OriginUnresolvedDestructure:
			if source, ok := graph.LookupSymbolID(p.origin.Name, p.scope); ok {
				newOrigin = bindgraph.DestructuredPropertyOrigin(source, p.origin.Key)
			} else {
				newOrigin = bindgraph.SymbolOrigin{Kind: bindgraph.OriginUnresolvable}
			}
		default:
			continue
		}
		graph.UpdateSymbolOrigin(p.id, newOrigin)
	}
}

// extractUsages records a usage for every identifier occurrence that
// resolves to a known symbol strictly after that symbol's declaration ends
// and is not itself the declaration's own name range.
func extractUsages(engine *query.Engine, adapter lang.Adapter, tree *sitter.Tree, source []byte, graph *bindgraph.Graph) {
	for _, occ := range engine.ExtractIdentifiers(adapter, tree, source) {
		scope := graph.ScopeAtPosition(occ.Range.Start)
		symbol, ok := graph.LookupSymbol(occ.Name, scope)
		if !ok {
			continue
		}
		if !symbol.DeclarationRange.End.Before(occ.Range.Start) {
			continue
		}
		if occ.Range == symbol.NameRange {
			continue
		}
		graph.AddUsage(bindgraph.SymbolUsage{
			SymbolID: symbol.ID,
			Range:    occ.Range,
			Scope:    scope,
		})
	}
}

// processReassignments invalidates every symbol whose declaring scope is
// visible from a reassignment of the same name, i.e. the reassignment
// happens in the declaring scope or a descendant of it. Uses the name-only
// index so this is O(reassignments × symbols sharing that name) rather than
// a scan of every symbol in the document.
func processReassignments(engine *query.Engine, adapter lang.Adapter, tree *sitter.Tree, source []byte, graph *bindgraph.Graph) {
	var toInvalidate []bindgraph.SymbolId
	for _, r := range engine.ExtractReassignments(adapter, tree, source) {
		reassignmentScope := graph.ScopeAtPosition(r.Range.Start)
		for _, symbolID := range graph.LookupSymbolsByName(r.Name) {
			symbol, ok := graph.GetSymbol(symbolID)
			if !ok {
				continue
			}
			if isScopeVisible(graph, reassignmentScope, symbol.Scope) {
				toInvalidate = append(toInvalidate, symbolID)
			}
		}
	}
	for _, id := range toInvalidate {
		graph.InvalidateSymbol(id)
	}
}

// isScopeVisible reports whether target lies on from's ancestor chain
// (inclusive), i.e. a reassignment in fromScope can see a symbol declared in
// targetScope.
func isScopeVisible(graph *bindgraph.Graph, fromScope, targetScope bindgraph.ScopeId) bool {
	current := fromScope
	for {
		if current == targetScope {
			return true
		}
		scope, ok := graph.GetScope(current)
		if !ok || scope.Parent == nil {
			return false
		}
		current = *scope.Parent
	}
}
