package lang

import (
	tstsx "github.com/smacker/go-tree-sitter/typescript/tsx"
)

// tsAdapter reuses every JavaScript query and predicate: TypeScript's env
// access surface (process.env, import.meta.env) is identical, only the
// grammar and registered extensions differ. The tsx grammar is a superset
// that also parses plain .ts/.tsx, so one grammar covers both extensions.
type tsAdapter struct {
	jsAdapter
}

func newTypeScriptAdapter(r *Registry) Adapter {
	grammar := tstsx.GetLanguage()
	base := &tsAdapter{}
	base.id = "typescript"
	base.extensions = []string{"ts", "tsx", "mts", "cts"}
	base.languageIDs = []string{"typescript", "typescriptreact"}
	base.grammar = grammar
	base.queries = compiledQueries{
		reference:    compileOrEmpty(r, grammar, "typescript", "references", jsReferenceQuery),
		binding:      compileOrEmpty(r, grammar, "typescript", "bindings", jsBindingQuery),
		completion:   compileOrEmpty(r, grammar, "typescript", "completion", jsCompletionQuery),
		imprt:        compileOrEmpty(r, grammar, "typescript", "imports", jsImportQuery),
		reassignment: compileOrEmpty(r, grammar, "typescript", "reassignments", jsReassignmentQuery),
		identifier:   compileOrEmpty(r, grammar, "typescript", "identifiers", jsIdentifierQuery),
		assignment:   compileOrEmpty(r, grammar, "typescript", "assignments", jsAssignmentQuery),
		destructure:  compileOrEmpty(r, grammar, "typescript", "destructures", jsDestructureQuery),
		scope:        compileOrEmpty(r, grammar, "typescript", "scopes", jsScopeQuery),
		export:       compileOrEmpty(r, grammar, "typescript", "exports", jsExportQuery),
	}
	return base
}

func (a *tsAdapter) KnownEnvModules() []string { return []string{"process", "node:process"} }
