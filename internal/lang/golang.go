package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	tsgo "github.com/smacker/go-tree-sitter/golang"
)

const goReferenceQuery = `
(call_expression
  function: (selector_expression
    operand: (identifier) @object
    field: (field_identifier) @_method)
  arguments: (argument_list . (interpreted_string_literal) @env_var_name)
  (#match? @_method "^(Getenv|LookupEnv)$")) @env_access
`

const goBindingQuery = `
(short_var_declaration
  left: (expression_list (identifier) @binding_name)
  right: (expression_list
    (call_expression
      function: (selector_expression
        operand: (identifier) @object
        field: (field_identifier) @_method)
      (#match? @_method "^(Getenv|LookupEnv)$")) @env_binding))

(var_declaration
  (var_spec
    name: (identifier) @binding_name
    value: (expression_list
      (call_expression
        function: (selector_expression
          operand: (identifier) @object
          field: (field_identifier) @_method)
        (#match? @_method "^(Getenv|LookupEnv)$")) @env_binding)))
`

const goImportQuery = `
(import_spec
  name: (package_identifier)? @alias_name
  path: (interpreted_string_literal) @import_path) @import_stmt
`

const goReassignmentQuery = `
(assignment_statement
  left: (expression_list (identifier) @assignment_target)
  right: (expression_list (_) @assignment_source))
`

const goIdentifierQuery = `
(identifier) @identifier
`

// goAdapter supports Go's os.Getenv / os.LookupEnv access pattern. There is
// no object-alias form (no `env := os`), so destructuring/assignment/export
// queries stay on BaseAdapter's nil default; package-level var/const
// declarations are handled by the binding query alone.
type goAdapter struct {
	BaseAdapter
}

func newGoAdapter(r *Registry) Adapter {
	grammar := tsgo.GetLanguage()
	a := &goAdapter{
		BaseAdapter: BaseAdapter{
			id:          "go",
			extensions:  []string{"go"},
			languageIDs: []string{"go"},
			grammar:     grammar,
		},
	}
	a.queries = compiledQueries{
		reference:    compileOrEmpty(r, grammar, "go", "references", goReferenceQuery),
		binding:      compileOrEmpty(r, grammar, "go", "bindings", goBindingQuery),
		imprt:        compileOrEmpty(r, grammar, "go", "imports", goImportQuery),
		reassignment: compileOrEmpty(r, grammar, "go", "reassignments", goReassignmentQuery),
		identifier:   compileOrEmpty(r, grammar, "go", "identifiers", goIdentifierQuery),
	}
	return a
}

func (a *goAdapter) IsStandardEnvObject(name string) bool { return name == "os" }

func (a *goAdapter) KnownEnvModules() []string { return []string{"os"} }

func (a *goAdapter) IsScopeNode(node *sitter.Node) bool {
	switch node.Type() {
	case "function_declaration", "method_declaration", "func_literal",
		"block", "for_statement", "if_statement", "switch_statement", "select_statement":
		return true
	default:
		return false
	}
}

func (a *goAdapter) ExtractVarName(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	return a.StripQuotes(node.Content(source)), true
}
