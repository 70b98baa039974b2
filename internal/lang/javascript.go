package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsjs "github.com/smacker/go-tree-sitter/javascript"
)

const jsReferenceQuery = `
(member_expression
  object: (member_expression
    object: (identifier) @object
    property: (property_identifier) @_env)
  property: (property_identifier) @env_var_name
  (#eq? @_env "env")) @env_access

(subscript_expression
  object: (member_expression
    object: (identifier) @object
    property: (property_identifier) @_env)
  index: (string (string_fragment) @env_var_name)
  (#eq? @_env "env")) @env_access

(call_expression
  function: (identifier) @_fn
  arguments: (arguments (string (string_fragment) @env_var_name))
  (#eq? @_fn "dotenv")) @env_access
`

const jsBindingQuery = `
(variable_declarator
  name: (identifier) @binding_name
  value: (member_expression
    object: (identifier) @object
    property: (property_identifier) @_env)
  (#eq? @_env "env")) @env_object_binding

(variable_declarator
  name: (object_pattern
    (shorthand_property_identifier_pattern) @binding_name)
  value: (member_expression
    object: (identifier) @object
    property: (property_identifier) @_env)
  (#eq? @_env "env")) @env_binding

(variable_declarator
  name: (identifier) @binding_name
  value: (member_expression
    object: (member_expression
      object: (identifier) @object
      property: (property_identifier) @_env)
    property: (property_identifier) @bound_env_var)
  (#eq? @_env "env")) @env_binding

(variable_declarator
  name: (identifier) @binding_name
  value: (subscript_expression
    object: (member_expression
      object: (identifier) @object
      property: (property_identifier) @_env)
    index: (string (string_fragment) @bound_env_var))
  (#eq? @_env "env")) @env_binding
`

const jsImportQuery = `
(import_statement
  (import_clause
    (identifier)? @alias_name
    (named_imports
      (import_specifier
        name: (identifier) @original_name
        alias: (identifier)? @alias_name)*)?)
  source: (string (string_fragment) @import_path)) @import_stmt
`

const jsCompletionQuery = `
(member_expression
  object: (identifier) @object
  property: (property_identifier) @completion_target) @env_access
`

const jsReassignmentQuery = `
(assignment_expression
  left: (identifier) @assignment_target
  right: (_) @assignment_source)
`

const jsIdentifierQuery = `
(identifier) @identifier
`

const jsAssignmentQuery = `
(assignment_expression
  left: (identifier) @assignment_target
  right: (identifier) @assignment_source)
`

const jsDestructureQuery = `
(variable_declarator
  name: (object_pattern
    (pair_pattern
      key: (property_identifier) @destructure_key
      value: (identifier) @destructure_target))
  value: (identifier) @destructure_source)

(variable_declarator
  name: (object_pattern
    (shorthand_property_identifier_pattern) @destructure_target)
  value: (identifier) @destructure_source)
`

const jsScopeQuery = `
[
  (function_declaration)
  (arrow_function)
  (function_expression)
  (method_definition)
  (class_body)
  (statement_block)
  (for_statement)
  (if_statement)
  (else_clause)
  (try_statement)
  (catch_clause)
] @scope
`

const jsExportQuery = `
(export_statement
  declaration: [
    (lexical_declaration
      (variable_declarator
        name: (identifier) @original_name))
    (variable_declaration
      (variable_declarator
        name: (identifier) @original_name))
  ]) @import_stmt

(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @original_name
      alias: (identifier)? @alias_name))) @import_stmt

(export_statement
  value: (_)) @import_stmt
`

// jsAdapter recognises process.env and import.meta.env as object-style env
// sources (IsStandardEnvObject, IsEnvSourceNode). Its reference and binding
// queries match only `<identifier>.env` shapes such as process.env, so
// accesses and destructuring off import.meta.env are not extracted.
type jsAdapter struct {
	BaseAdapter
}

func newJavaScriptAdapter(r *Registry) Adapter {
	return buildJSFamily(r, "javascript", []string{"js", "jsx", "mjs", "cjs"}, []string{"javascript", "javascriptreact"})
}

func buildJSFamily(r *Registry, id string, extensions, languageIDs []string) Adapter {
	grammar := tsjs.GetLanguage()
	a := &jsAdapter{
		BaseAdapter: BaseAdapter{
			id:          id,
			extensions:  extensions,
			languageIDs: languageIDs,
			grammar:     grammar,
		},
	}
	a.queries = compiledQueries{
		reference:    compileOrEmpty(r, grammar, id, "references", jsReferenceQuery),
		binding:      compileOrEmpty(r, grammar, id, "bindings", jsBindingQuery),
		completion:   compileOrEmpty(r, grammar, id, "completion", jsCompletionQuery),
		imprt:        compileOrEmpty(r, grammar, id, "imports", jsImportQuery),
		reassignment: compileOrEmpty(r, grammar, id, "reassignments", jsReassignmentQuery),
		identifier:   compileOrEmpty(r, grammar, id, "identifiers", jsIdentifierQuery),
		assignment:   compileOrEmpty(r, grammar, id, "assignments", jsAssignmentQuery),
		destructure:  compileOrEmpty(r, grammar, id, "destructures", jsDestructureQuery),
		scope:        compileOrEmpty(r, grammar, id, "scopes", jsScopeQuery),
		export:       compileOrEmpty(r, grammar, id, "exports", jsExportQuery),
	}
	return a
}

func (a *jsAdapter) IsStandardEnvObject(name string) bool {
	return name == "process.env" || name == "import.meta.env"
}

func (a *jsAdapter) DefaultEnvObjectName() (string, bool) { return "process.env", true }

func (a *jsAdapter) KnownEnvModules() []string { return []string{"process"} }

func (a *jsAdapter) CompletionTriggerCharacters() []string { return []string{".", "\"", "'"} }

func (a *jsAdapter) IsScopeNode(node *sitter.Node) bool {
	switch node.Type() {
	case "function_declaration", "arrow_function", "function_expression", "method_definition",
		"class_body", "statement_block", "for_statement", "if_statement", "else_clause",
		"try_statement", "catch_clause":
		return true
	default:
		return false
	}
}

func (a *jsAdapter) StripQuotes(text string) string {
	return stripRunes(text, '"', '\'', '`')
}

func (a *jsAdapter) ExtractDestructureKey(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	if node.Type() == "pair_pattern" {
		if key := node.ChildByFieldName("key"); key != nil {
			return key.Content(source), true
		}
	}
	return node.Content(source), true
}

func (a *jsAdapter) IsEnvSourceNode(node *sitter.Node, source []byte) (EnvSourceKind, bool) {
	if node.Type() != "member_expression" {
		return EnvSourceKind{}, false
	}
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	if object == nil || property == nil {
		return EnvSourceKind{}, false
	}
	objectText, propertyText := object.Content(source), property.Content(source)
	if objectText == "process" && propertyText == "env" {
		return EnvSourceKind{CanonicalName: "process.env"}, true
	}
	if object.Type() == "member_expression" {
		innerObject := object.ChildByFieldName("object")
		innerProperty := object.ChildByFieldName("property")
		if innerObject != nil && innerProperty != nil {
			innerObjectText, innerPropertyText := innerObject.Content(source), innerProperty.Content(source)
			if innerObjectText == "import" && innerPropertyText == "meta" && propertyText == "env" {
				return EnvSourceKind{CanonicalName: "import.meta.env"}, true
			}
		}
	}
	return EnvSourceKind{}, false
}

func (a *jsAdapter) ExtractPropertyAccess(tree *sitter.Tree, content []byte, byteOffset uint32) (string, string, bool) {
	return extractPropertyAccessByOffset(tree, content, byteOffset)
}

// extractPropertyAccessByOffset walks down to the smallest node covering
// byteOffset using the tree's byte-range descendant lookup, then checks
// whether it is a property_identifier inside a member_expression whose
// object is a bare identifier (`env.DATABASE_URL`, not `a.b.DATABASE_URL`).
func extractPropertyAccessByOffset(tree *sitter.Tree, content []byte, byteOffset uint32) (string, string, bool) {
	node := descendantForByte(tree.RootNode(), byteOffset)
	if node == nil || node.Type() != "property_identifier" {
		return "", "", false
	}
	parent := node.Parent()
	if parent == nil || parent.Type() != "member_expression" {
		return "", "", false
	}
	object := parent.ChildByFieldName("object")
	if object == nil || object.Type() != "identifier" {
		return "", "", false
	}
	return object.Content(content), node.Content(content), true
}

// descendantForByte finds the smallest named descendant whose byte range
// contains offset, walking down by child inspection since this grammar
// binding exposes StartByte/EndByte rather than a direct byte-range query.
func descendantForByte(node *sitter.Node, offset uint32) *sitter.Node {
	if offset < node.StartByte() || offset >= node.EndByte() {
		if node.StartByte() == node.EndByte() && offset == node.StartByte() {
			// zero-width node at exactly offset, fall through
		} else {
			return nil
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if offset >= child.StartByte() && offset < child.EndByte() {
			if found := descendantForByte(child, offset); found != nil {
				return found
			}
			return child
		}
	}
	return node
}
