package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	tspy "github.com/smacker/go-tree-sitter/python"
)

const pyReferenceQuery = `
(call
  function: (attribute
    object: (identifier) @object
    attribute: (identifier) @_fn)
  arguments: (argument_list . (string (string_content) @env_var_name))
  (#match? @_fn "^(getenv|get)$")) @env_access

(subscript
  value: (attribute
    object: (identifier) @object
    attribute: (identifier) @_environ)
  subscript: (string (string_content) @env_var_name)
  (#eq? @_environ "environ")) @env_access
`

const pyBindingQuery = `
(assignment
  left: (identifier) @binding_name
  right: (attribute
    object: (identifier) @object
    attribute: (identifier) @_environ)
  (#eq? @_environ "environ")) @env_object_binding

(assignment
  left: (identifier) @binding_name
  right: (call
    function: (attribute
      object: (identifier) @object
      attribute: (identifier) @_fn)
    arguments: (argument_list . (string (string_content) @bound_env_var)))
  (#match? @_fn "^(getenv|get)$")) @env_binding

(assignment
  left: (identifier) @binding_name
  right: (subscript
    value: (attribute
      object: (identifier) @object
      attribute: (identifier) @_environ)
    subscript: (string (string_content) @bound_env_var))
  (#eq? @_environ "environ")) @env_binding
`

const pyImportQuery = `
(import_statement
  name: (dotted_name) @import_path) @import_stmt

(import_from_statement
  module_name: (dotted_name) @import_path
  name: (dotted_name) @original_name) @import_stmt
`

const pyReassignmentQuery = `
(assignment
  left: (identifier) @assignment_target
  right: (_) @assignment_source)
`

const pyIdentifierQuery = `
(identifier) @identifier
`

const pyAssignmentQuery = `
(assignment
  left: (identifier) @assignment_target
  right: (identifier) @assignment_source)
`

// pyAdapter supports os.getenv(...) and os.environ[...]. Its call patterns
// need a bare identifier in front of getenv/get, so os.environ.get(...) is
// not matched. Python has no
// object-destructuring binding form comparable to JS, so destructure/scope/
// export queries are left unset.
type pyAdapter struct {
	BaseAdapter
}

func newPythonAdapter(r *Registry) Adapter {
	grammar := tspy.GetLanguage()
	a := &pyAdapter{
		BaseAdapter: BaseAdapter{
			id:          "python",
			extensions:  []string{"py"},
			languageIDs: []string{"python"},
			grammar:     grammar,
		},
	}
	a.queries = compiledQueries{
		reference:    compileOrEmpty(r, grammar, "python", "references", pyReferenceQuery),
		binding:      compileOrEmpty(r, grammar, "python", "bindings", pyBindingQuery),
		imprt:        compileOrEmpty(r, grammar, "python", "imports", pyImportQuery),
		reassignment: compileOrEmpty(r, grammar, "python", "reassignments", pyReassignmentQuery),
		identifier:   compileOrEmpty(r, grammar, "python", "identifiers", pyIdentifierQuery),
		assignment:   compileOrEmpty(r, grammar, "python", "assignments", pyAssignmentQuery),
	}
	return a
}

func (a *pyAdapter) IsStandardEnvObject(name string) bool {
	return name == "os" || name == "os.environ"
}

func (a *pyAdapter) DefaultEnvObjectName() (string, bool) { return "os.environ", true }

func (a *pyAdapter) KnownEnvModules() []string { return []string{"os"} }

func (a *pyAdapter) IsScopeNode(node *sitter.Node) bool {
	switch node.Type() {
	case "function_definition", "class_definition", "for_statement", "if_statement",
		"try_statement", "with_statement", "while_statement":
		return true
	default:
		return false
	}
}
