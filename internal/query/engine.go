package query

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/rng"
)

// parserPool reuses *sitter.Parser instances per language id, the same way
// the teacher's inspectors build a fresh parser per call but here amortized
// across many files of the same language during workspace indexing.
type parserPool struct {
	mu      sync.Mutex
	parsers map[string][]*sitter.Parser
}

func newParserPool() *parserPool {
	return &parserPool{parsers: make(map[string][]*sitter.Parser)}
}

func (p *parserPool) acquire(a lang.Adapter) *sitter.Parser {
	p.mu.Lock()
	if stack := p.parsers[a.ID()]; len(stack) > 0 {
		parser := stack[len(stack)-1]
		p.parsers[a.ID()] = stack[:len(stack)-1]
		p.mu.Unlock()
		return parser
	}
	p.mu.Unlock()

	parser := sitter.NewParser()
	parser.SetLanguage(a.Grammar())
	return parser
}

func (p *parserPool) release(languageID string, parser *sitter.Parser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parsers[languageID] = append(p.parsers[languageID], parser)
}

// cursorPool reuses *sitter.QueryCursor instances across every language: a
// cursor carries no language-specific state of its own.
type cursorPool struct {
	mu      sync.Mutex
	cursors []*sitter.QueryCursor
}

func newCursorPool() *cursorPool {
	return &cursorPool{}
}

func (c *cursorPool) acquire() *sitter.QueryCursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.cursors); n > 0 {
		cur := c.cursors[n-1]
		c.cursors = c.cursors[:n-1]
		return cur
	}
	return sitter.NewQueryCursor()
}

func (c *cursorPool) release(cur *sitter.QueryCursor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursors = append(c.cursors, cur)
}

// Engine executes every compiled query against a parsed tree. It is safe
// for concurrent use: the pools are the only shared mutable state and each
// is protected by its own mutex, held only around acquire/release, never
// while a cursor iterates matches.
type Engine struct {
	parsers *parserPool
	cursors *cursorPool
}

// NewEngine returns a ready-to-use, empty Engine.
func NewEngine() *Engine {
	return &Engine{parsers: newParserPool(), cursors: newCursorPool()}
}

// Parse parses content for the given language, reusing a pooled parser.
// oldTree enables tree-sitter's incremental reparse when not nil.
func (e *Engine) Parse(a lang.Adapter, content []byte, oldTree *sitter.Tree) *sitter.Tree {
	parser := e.parsers.acquire(a)
	defer e.parsers.release(a.ID(), parser)
	return parser.Parse(oldTree, content)
}

// matches runs query against tree/source, reusing a pooled cursor, and
// returns every match. The cursor is returned to the pool before the caller
// processes results, never held across extraction.
func (e *Engine) matches(query *sitter.Query, tree *sitter.Tree, source []byte) []*sitter.QueryMatch {
	if query == nil {
		return nil
	}
	cursor := e.cursors.acquire()
	cursor.Exec(query, tree.RootNode())
	var out []*sitter.QueryMatch
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		// Apply #eq?/#match? predicates; a match failing one has no captures.
		m = cursor.FilterPredicates(m, source)
		if len(m.Captures) == 0 {
			continue
		}
		out = append(out, m)
	}
	e.cursors.release(cursor)
	return out
}

func nodeRange(node *sitter.Node) rng.Range {
	start, end := node.StartPoint(), node.EndPoint()
	return rng.Range{
		Start: rng.Position{Line: start.Row, Column: start.Column},
		End:   rng.Position{Line: end.Row, Column: end.Column},
	}
}

// ExtractReferences runs the language's reference query and yields every
// EnvReference whose object is either a standard env object or a known
// aliased import, per spec phase 3. Reference queries of the `<object>.env.X`
// shape capture only the identifier in front of `.env`, so the object is
// also checked with that suffix ("process" as "process.env").
func (e *Engine) ExtractReferences(a lang.Adapter, tree *sitter.Tree, source []byte, ctx *ImportContext) []EnvReference {
	q := a.ReferenceQuery()
	if q == nil {
		return nil
	}
	var out []EnvReference
	for _, m := range e.matches(q, tree, source) {
		var fullRange, nameRange *rng.Range
		var varName, defaultValue, objectName string
		var hasDefault bool
		for _, cap := range m.Captures {
			name := q.CaptureNameForId(cap.Index)
			switch name {
			case lang.CaptureEnvAccess:
				r := nodeRange(cap.Node)
				fullRange = &r
			case lang.CaptureEnvVarName:
				r := nodeRange(cap.Node)
				nameRange = &r
				if v, ok := a.ExtractVarName(cap.Node, source); ok {
					varName = v
				}
			case lang.CaptureEnvDefaultValue:
				defaultValue = a.StripQuotes(cap.Node.Content(source))
				hasDefault = true
			case lang.CaptureObject, lang.CaptureModule:
				objectName = cap.Node.Content(source)
			}
		}
		if fullRange == nil || nameRange == nil || varName == "" {
			continue
		}
		if objectName != "" {
			if !a.IsStandardEnvObject(objectName) && !a.IsStandardEnvObject(objectName+".env") {
				target, ok := ctx.Aliases[objectName]
				if !ok || !containsString(a.KnownEnvModules(), target.Module) {
					continue
				}
			}
		}
		out = append(out, EnvReference{
			Name:         varName,
			FullRange:    *fullRange,
			NameRange:    *nameRange,
			AccessType:   AccessProperty,
			HasDefault:   hasDefault,
			DefaultValue: defaultValue,
		})
	}
	return out
}

// ExtractBindings runs the language's binding query and yields every
// EnvBinding, per spec phase 4. A binding whose object-env-var capture is
// empty and whose declaration was the object-binding alternative falls back
// to the language's default env-object canonical name.
func (e *Engine) ExtractBindings(a lang.Adapter, tree *sitter.Tree, source []byte) []EnvBinding {
	q := a.BindingQuery()
	if q == nil {
		return nil
	}
	var out []EnvBinding
	for _, m := range e.matches(q, tree, source) {
		var bindingName, envVarName string
		var bindingRange, declarationRange, keyRange *rng.Range
		var isObjectBinding bool
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case lang.CaptureBindingName:
				r := nodeRange(cap.Node)
				bindingRange = &r
				if v, ok := a.ExtractIdentifier(cap.Node, source); ok {
					bindingName = v
				}
			case lang.CaptureBoundEnvVar:
				r := nodeRange(cap.Node)
				keyRange = &r
				if v, ok := a.ExtractVarName(cap.Node, source); ok {
					envVarName = v
				}
			case lang.CaptureEnvBinding:
				r := nodeRange(cap.Node)
				declarationRange = &r
			case lang.CaptureEnvObjectBind:
				r := nodeRange(cap.Node)
				declarationRange = &r
				isObjectBinding = true
			}
		}
		if isObjectBinding && envVarName == "" {
			if name, ok := a.DefaultEnvObjectName(); ok {
				envVarName = name
			}
		}
		if bindingName == "" || envVarName == "" || bindingRange == nil || declarationRange == nil {
			continue
		}
		scopeRange := enclosingScopeRange(a, tree, source, *bindingRange)
		kind := BindingValue
		if isObjectBinding {
			kind = BindingObject
		}
		out = append(out, EnvBinding{
			BindingName:          bindingName,
			EnvVarName:           envVarName,
			BindingRange:         *bindingRange,
			DeclarationRange:     *declarationRange,
			ScopeRange:           scopeRange,
			Kind:                 kind,
			DestructuredKeyRange: keyRange,
		})
	}
	return out
}

// enclosingScopeRange walks from the smallest node covering target up to the
// first ancestor the adapter recognises as a scope node, falling back to the
// whole tree's root range.
func enclosingScopeRange(a lang.Adapter, tree *sitter.Tree, source []byte, target rng.Range) rng.Range {
	node := descendantForByte(tree.RootNode(), byteOffsetOf(tree.RootNode(), target.Start))
	for node != nil {
		parent := node.Parent()
		if parent == nil {
			break
		}
		if a.IsScopeNode(parent) {
			return nodeRange(parent)
		}
		node = parent
	}
	return nodeRange(tree.RootNode())
}

// byteOffsetOf approximates a byte offset for a position by taking the
// smallest named descendant spanning pos and reading its StartByte, so a pos
// in mid-token yields the start of that token; it falls back to the root's
// start when no descendant is found.
func byteOffsetOf(root *sitter.Node, pos rng.Position) uint32 {
	point := sitter.Point{Row: pos.Line, Column: pos.Column}
	node := root.NamedDescendantForPointRange(point, point)
	if node == nil {
		return root.StartByte()
	}
	return node.StartByte()
}

func descendantForByte(node *sitter.Node, offset uint32) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if offset >= child.StartByte() && offset < child.EndByte() {
			return descendantForByte(child, offset)
		}
	}
	return node
}

// ExtractImports runs the language's import query and yields every
// ImportAlias, per spec §6.
func (e *Engine) ExtractImports(a lang.Adapter, tree *sitter.Tree, source []byte) []ImportAlias {
	q := a.ImportQuery()
	if q == nil {
		return nil
	}
	var out []ImportAlias
	for _, m := range e.matches(q, tree, source) {
		var modulePath, originalName, alias string
		var hasAlias bool
		var stmtRange *rng.Range
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case lang.CaptureImportPath:
				modulePath = a.StripQuotes(cap.Node.Content(source))
			case lang.CaptureOriginalName:
				originalName = cap.Node.Content(source)
			case lang.CaptureAliasName:
				alias = cap.Node.Content(source)
				hasAlias = true
			case lang.CaptureImportStmt:
				r := nodeRange(cap.Node)
				stmtRange = &r
			}
		}
		if originalName == "" {
			originalName = modulePath
		}
		if modulePath == "" || stmtRange == nil {
			continue
		}
		out = append(out, ImportAlias{
			ModulePath:   modulePath,
			OriginalName: originalName,
			Alias:        alias,
			HasAlias:     hasAlias,
			Range:        *stmtRange,
		})
	}
	return out
}

// ExtractExports runs the language's export query (nil for languages with
// no module-export syntax, e.g. Go or Python) and yields one ExportDecl per
// matched export statement: a named declaration/re-export (original_name,
// optionally renamed via alias_name) or a default export (the bare `value`
// field pattern, with no name captured).
func (e *Engine) ExtractExports(a lang.Adapter, tree *sitter.Tree, source []byte) []ExportDecl {
	q := a.ExportQuery()
	if q == nil {
		return nil
	}
	var out []ExportDecl
	for _, m := range e.matches(q, tree, source) {
		var originalName, aliasName string
		var hasAlias bool
		var stmtRange *rng.Range
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case lang.CaptureOriginalName:
				originalName = cap.Node.Content(source)
			case lang.CaptureAliasName:
				aliasName = cap.Node.Content(source)
				hasAlias = true
			case lang.CaptureImportStmt:
				r := nodeRange(cap.Node)
				stmtRange = &r
			}
		}
		if stmtRange == nil {
			continue
		}
		if originalName == "" {
			out = append(out, ExportDecl{IsDefault: true, Range: *stmtRange})
			continue
		}
		exportedName := originalName
		if hasAlias {
			exportedName = aliasName
		}
		out = append(out, ExportDecl{
			ExportedName: exportedName,
			LocalName:    originalName,
			HasLocalName: true,
			Range:        *stmtRange,
		})
	}
	return out
}

// ExtractReassignments runs the reassignment query and returns every
// (name, range) pair, per spec phase 10.
func (e *Engine) ExtractReassignments(a lang.Adapter, tree *sitter.Tree, source []byte) []Reassignment {
	q := a.ReassignmentQuery()
	if q == nil {
		return nil
	}
	var out []Reassignment
	for _, m := range e.matches(q, tree, source) {
		for _, cap := range m.Captures {
			if q.CaptureNameForId(cap.Index) == lang.CaptureAssignmentTarget {
				out = append(out, Reassignment{Name: cap.Node.Content(source), Range: nodeRange(cap.Node)})
			}
		}
	}
	return out
}

// ExtractIdentifiers runs the identifier query, per spec phase 8.
func (e *Engine) ExtractIdentifiers(a lang.Adapter, tree *sitter.Tree, source []byte) []IdentifierOccurrence {
	q := a.IdentifierQuery()
	if q == nil {
		return nil
	}
	var out []IdentifierOccurrence
	for _, m := range e.matches(q, tree, source) {
		for _, cap := range m.Captures {
			name, ok := a.ExtractIdentifier(cap.Node, source)
			if !ok {
				continue
			}
			out = append(out, IdentifierOccurrence{Name: name, Range: nodeRange(cap.Node)})
		}
	}
	return out
}

// ExtractAssignments runs the assignment query (`target = source` where
// source is a bare identifier), per spec phase 5.
func (e *Engine) ExtractAssignments(a lang.Adapter, tree *sitter.Tree, source []byte) []Assignment {
	q := a.AssignmentQuery()
	if q == nil {
		return nil
	}
	var out []Assignment
	for _, m := range e.matches(q, tree, source) {
		var targetName, sourceName string
		var targetRange *rng.Range
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case lang.CaptureAssignmentTarget:
				if v, ok := a.ExtractIdentifier(cap.Node, source); ok {
					targetName = v
					r := nodeRange(cap.Node)
					targetRange = &r
				}
			case lang.CaptureAssignmentSource:
				if v, ok := a.ExtractIdentifier(cap.Node, source); ok {
					sourceName = v
				}
			}
		}
		if targetName == "" || sourceName == "" || targetRange == nil {
			continue
		}
		out = append(out, Assignment{TargetName: targetName, TargetRange: *targetRange, SourceName: sourceName})
	}
	return out
}

// ExtractDestructures runs the destructure query (`{K: alias} = src` or
// `{K} = src`), per spec phase 6.
func (e *Engine) ExtractDestructures(a lang.Adapter, tree *sitter.Tree, source []byte) []Destructure {
	q := a.DestructureQuery()
	if q == nil {
		return nil
	}
	var out []Destructure
	for _, m := range e.matches(q, tree, source) {
		var targetName, keyName, sourceName string
		var targetRange, keyRange *rng.Range
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case lang.CaptureDestructureTarget:
				if v, ok := a.ExtractIdentifier(cap.Node, source); ok {
					targetName = v
					r := nodeRange(cap.Node)
					targetRange = &r
				}
			case lang.CaptureDestructureKey:
				if v, ok := a.ExtractDestructureKey(cap.Node, source); ok {
					keyName = v
					r := nodeRange(cap.Node)
					keyRange = &r
				}
			case lang.CaptureDestructureSource:
				if v, ok := a.ExtractIdentifier(cap.Node, source); ok {
					sourceName = v
				}
			}
		}
		if targetName == "" || sourceName == "" || keyName == "" || targetRange == nil || keyRange == nil {
			continue
		}
		out = append(out, Destructure{
			TargetName: targetName, TargetRange: *targetRange,
			KeyName: keyName, KeyRange: *keyRange,
			SourceName: sourceName,
		})
	}
	return out
}

// CheckCompletionContext returns the object name a completion position is
// triggered on, if the position falls within (or one character past, to
// tolerate the just-typed trigger character) a completion-target capture.
func (e *Engine) CheckCompletionContext(a lang.Adapter, tree *sitter.Tree, source []byte, pos rng.Position) (string, bool) {
	q := a.CompletionQuery()
	if q == nil {
		return "", false
	}
	for _, m := range e.matches(q, tree, source) {
		var isTarget bool
		var objectName string
		for _, cap := range m.Captures {
			switch q.CaptureNameForId(cap.Index) {
			case lang.CaptureCompletionTarget:
				start := rng.Position{Line: cap.Node.StartPoint().Row, Column: cap.Node.StartPoint().Column}
				end := rng.Position{Line: cap.Node.EndPoint().Row, Column: cap.Node.EndPoint().Column}
				// Tolerate the cursor landing one column past end: a just-typed
				// trigger character ('.', '"') is often excluded from the node
				// tree-sitter produces for an otherwise-incomplete expression.
				validEnd := pos.Line == end.Line && pos.Column <= end.Column+1
				if pos.Line != end.Line {
					validEnd = pos.Before(end)
				}
				if !pos.Before(start) && validEnd {
					isTarget = true
				}
			case lang.CaptureObject:
				objectName = cap.Node.Content(source)
			}
		}
		if isTarget && objectName != "" {
			return objectName, true
		}
	}
	return "", false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
