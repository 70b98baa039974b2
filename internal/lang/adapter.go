// Package lang defines the per-language contract consumed by the analysis
// pipeline and the workspace indexer, and registers the concrete adapters.
//
// Each adapter exposes a tree-sitter grammar, a fixed set of compiled
// queries, and a handful of predicates/extractors that let the pipeline stay
// language-agnostic. Adapters embed BaseAdapter and only override what makes
// them different, the way the original LanguageSupport trait leans on
// default method bodies.
package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ScopeKind classifies a Scope for downstream presentation only; resolution
// never branches on it.
type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeClass
	ScopeBlock
	ScopeLoop
	ScopeConditional
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeClass:
		return "class"
	case ScopeLoop:
		return "loop"
	case ScopeConditional:
		return "conditional"
	default:
		return "block"
	}
}

// EnvSourceKind is the result of probing a node for being an environment
// source expression. Today the only producer is an object-style access such
// as process.env or os.environ; the type stays a struct rather than a bare
// string so additional kinds can be added without breaking callers.
type EnvSourceKind struct {
	CanonicalName string
}

// Query capture names. Every adapter's compiled queries must use these names
// for the pipeline to find what it needs in a match.
const (
	CaptureEnvAccess       = "env_access"
	CaptureEnvVarName      = "env_var_name"
	CaptureEnvDefaultValue = "env_default_value"
	CaptureObject          = "object"
	CaptureModule          = "module"

	CaptureBindingName     = "binding_name"
	CaptureEnvBinding      = "env_binding"
	CaptureEnvObjectBind   = "env_object_binding"
	CaptureBoundEnvVar     = "bound_env_var"

	CaptureCompletionTarget = "completion_target"

	CaptureImportPath    = "import_path"
	CaptureOriginalName  = "original_name"
	CaptureAliasName     = "alias_name"
	CaptureImportStmt    = "import_stmt"

	CaptureAssignmentTarget = "assignment_target"
	CaptureAssignmentSource = "assignment_source"

	CaptureDestructureTarget = "destructure_target"
	CaptureDestructureKey    = "destructure_key"
	CaptureDestructureSource = "destructure_source"
)

// Adapter is the per-language contract. The zero-value-friendly default
// methods live on BaseAdapter; concrete languages embed it.
type Adapter interface {
	ID() string
	Extensions() []string
	LanguageIDs() []string
	Grammar() *sitter.Language

	ReferenceQuery() *sitter.Query
	BindingQuery() *sitter.Query
	CompletionQuery() *sitter.Query
	ReassignmentQuery() *sitter.Query
	ImportQuery() *sitter.Query
	IdentifierQuery() *sitter.Query
	AssignmentQuery() *sitter.Query
	DestructureQuery() *sitter.Query
	ScopeQuery() *sitter.Query
	ExportQuery() *sitter.Query

	IsScopeNode(node *sitter.Node) bool
	IsRootNode(node *sitter.Node) bool
	IsStandardEnvObject(name string) bool
	IsEnvSourceNode(node *sitter.Node, source []byte) (EnvSourceKind, bool)

	ExtractVarName(node *sitter.Node, source []byte) (string, bool)
	ExtractIdentifier(node *sitter.Node, source []byte) (string, bool)
	ExtractDestructureKey(node *sitter.Node, source []byte) (string, bool)
	ExtractPropertyAccess(tree *sitter.Tree, content []byte, byteOffset uint32) (object, property string, ok bool)
	StripQuotes(text string) string

	KnownEnvModules() []string
	DefaultEnvObjectName() (string, bool)
	CompletionTriggerCharacters() []string
	CommentNodeKinds() []string
	NodeToScopeKind(kindName string) ScopeKind
}

// compiledQueries holds every query an adapter may expose, pre-compiled once
// against the adapter's own grammar at construction time. A nil entry means
// the language has no such query; callers treat that the same as "no
// matches" rather than an error.
type compiledQueries struct {
	reference    *sitter.Query
	binding      *sitter.Query
	completion   *sitter.Query
	reassignment *sitter.Query
	imprt        *sitter.Query
	identifier   *sitter.Query
	assignment   *sitter.Query
	destructure  *sitter.Query
	scope        *sitter.Query
	export       *sitter.Query
}

// BaseAdapter supplies every Adapter method with a reasonable default,
// mirroring the upstream trait's defaulted methods. Concrete languages
// embed it and override only the predicates/extractors where they differ.
type BaseAdapter struct {
	id          string
	extensions  []string
	languageIDs []string
	grammar     *sitter.Language
	queries     compiledQueries
}

func (b *BaseAdapter) ID() string            { return b.id }
func (b *BaseAdapter) Extensions() []string  { return b.extensions }
func (b *BaseAdapter) LanguageIDs() []string { return b.languageIDs }
func (b *BaseAdapter) Grammar() *sitter.Language { return b.grammar }

func (b *BaseAdapter) ReferenceQuery() *sitter.Query    { return b.queries.reference }
func (b *BaseAdapter) BindingQuery() *sitter.Query      { return b.queries.binding }
func (b *BaseAdapter) CompletionQuery() *sitter.Query   { return b.queries.completion }
func (b *BaseAdapter) ReassignmentQuery() *sitter.Query { return b.queries.reassignment }
func (b *BaseAdapter) ImportQuery() *sitter.Query       { return b.queries.imprt }
func (b *BaseAdapter) IdentifierQuery() *sitter.Query   { return b.queries.identifier }
func (b *BaseAdapter) AssignmentQuery() *sitter.Query   { return b.queries.assignment }
func (b *BaseAdapter) DestructureQuery() *sitter.Query  { return b.queries.destructure }
func (b *BaseAdapter) ScopeQuery() *sitter.Query        { return b.queries.scope }
func (b *BaseAdapter) ExportQuery() *sitter.Query       { return b.queries.export }

// IsRootNode treats the grammar's top-level container as the root. Every
// adapter in this package parses a whole file, so program/source_file/module
// covers go (source_file), python (module), and javascript/typescript and
// java (program).
func (b *BaseAdapter) IsRootNode(node *sitter.Node) bool {
	switch node.Type() {
	case "program", "source_file", "module":
		return true
	default:
		return false
	}
}

// IsScopeNode's default never fires: the root node is handled by the pipeline
// as a special case rather than through this predicate, and the base grammar
// kinds recognised as scope-introducing are language-specific, so every
// concrete adapter overrides this.
func (b *BaseAdapter) IsScopeNode(*sitter.Node) bool {
	return false
}

func (b *BaseAdapter) IsStandardEnvObject(string) bool { return false }

func (b *BaseAdapter) IsEnvSourceNode(*sitter.Node, []byte) (EnvSourceKind, bool) {
	return EnvSourceKind{}, false
}

func (b *BaseAdapter) ExtractVarName(node *sitter.Node, source []byte) (string, bool) {
	return trimmedContent(node, source)
}

func (b *BaseAdapter) ExtractIdentifier(node *sitter.Node, source []byte) (string, bool) {
	return trimmedContent(node, source)
}

func (b *BaseAdapter) ExtractDestructureKey(node *sitter.Node, source []byte) (string, bool) {
	return trimmedContent(node, source)
}

func (b *BaseAdapter) ExtractPropertyAccess(*sitter.Tree, []byte, uint32) (string, string, bool) {
	return "", "", false
}

func (b *BaseAdapter) StripQuotes(text string) string {
	return stripRunes(text, '"', '\'')
}

func (b *BaseAdapter) KnownEnvModules() []string { return nil }

func (b *BaseAdapter) DefaultEnvObjectName() (string, bool) { return "", false }

func (b *BaseAdapter) CompletionTriggerCharacters() []string { return nil }

func (b *BaseAdapter) CommentNodeKinds() []string { return []string{"comment"} }

func (b *BaseAdapter) NodeToScopeKind(kindName string) ScopeKind {
	switch kindName {
	case "function_declaration", "arrow_function", "function", "method_definition",
		"function_definition", "function_item", "func_literal", "closure_expression",
		"generator_function", "generator_function_declaration", "lambda_expression":
		return ScopeFunction
	case "class_declaration", "class_definition", "class_body", "impl_item",
		"trait_item", "class", "interface_declaration":
		return ScopeClass
	case "for_statement", "for_expression", "while_statement", "while_expression",
		"loop_expression", "do_statement", "for_in_statement", "for_of_statement",
		"enhanced_for_statement":
		return ScopeLoop
	case "if_statement", "if_expression", "else_clause", "try_statement", "catch_clause",
		"match_expression", "switch_statement", "switch_case", "switch_expression":
		return ScopeConditional
	default:
		return ScopeBlock
	}
}

func trimmedContent(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	return stripRunes(node.Content(source), ' ', '\t', '\n'), true
}

func stripRunes(s string, cut ...rune) string {
	isCut := make(map[rune]bool, len(cut))
	for _, r := range cut {
		isCut[r] = true
	}
	start, end := 0, len(s)
	for start < end && isCut[rune(s[start])] {
		start++
	}
	for end > start && isCut[rune(s[end-1])] {
		end--
	}
	return s[start:end]
}

// compileOrEmpty compiles source against grammar. A compile failure (an
// error returned by NewQuery) is recorded on r and substituted with an empty
// query, so one bad query degrades that language's single feature instead of
// crashing the process, mirroring the per-language query compile-failure
// handling in the error taxonomy.
func compileOrEmpty(r *Registry, grammar *sitter.Language, language, queryName, source string) (q *sitter.Query) {
	q, err := sitter.NewQuery([]byte(source), grammar)
	if err != nil {
		r.noteFailure(language, queryName)
		q, _ = sitter.NewQuery([]byte(""), grammar)
	}
	return q
}
