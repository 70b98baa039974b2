package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binding-graph/envlsp/internal/bindgraph"
	"github.com/binding-graph/envlsp/internal/lang"
	"github.com/binding-graph/envlsp/internal/pipeline"
	"github.com/binding-graph/envlsp/internal/query"
	"github.com/binding-graph/envlsp/internal/resolver"
	"github.com/binding-graph/envlsp/internal/rng"
)

func analyzeJS(t *testing.T, code string) *bindgraph.Graph {
	t.Helper()
	reg := lang.NewRegistry()
	js, ok := reg.ByID("javascript")
	require.True(t, ok)
	engine := query.NewEngine()
	tree := engine.Parse(js, []byte(code), nil)
	return pipeline.Analyze(engine, js, tree, []byte(code), query.NewImportContext())
}

func pos(line, col uint32) rng.Position { return rng.Position{Line: line, Column: col} }

func TestEnvAtPositionDirectReference(t *testing.T) {
	g := analyzeJS(t, `const db = process.env.DATABASE_URL;`)
	r := resolver.New(g)

	// "DATABASE_URL" starts right after "process.env." (column 23).
	hit, ok := r.EnvAtPosition(pos(0, 25))
	require.True(t, ok)
	assert.Equal(t, resolver.HitDirectReference, hit.Kind)
	name, ok := hit.EnvVarName()
	require.True(t, ok)
	assert.Equal(t, "DATABASE_URL", name)
}

func TestEnvAtPositionViaSymbolEnvObject(t *testing.T) {
	g := analyzeJS(t, `const env = process.env;`)
	r := resolver.New(g)

	hit, ok := r.EnvAtPosition(pos(0, 7))
	require.True(t, ok)
	assert.Equal(t, resolver.HitViaSymbol, hit.Kind)
	assert.True(t, hit.IsEnvObject())
}

func TestEnvAtPositionViaUsagePropertyAccess(t *testing.T) {
	g := analyzeJS(t, `const env = process.env;
console.log(env.DATABASE_URL);`)
	r := resolver.New(g)

	hit, ok := r.EnvAtPosition(pos(1, 17))
	require.True(t, ok)
	assert.Equal(t, resolver.HitViaUsage, hit.Kind)
	name, ok := hit.EnvVarName()
	require.True(t, ok)
	assert.Equal(t, "DATABASE_URL", name)
}

func TestEnvAtPositionOutsideAnyEnvReturnsFalse(t *testing.T) {
	g := analyzeJS(t, `const x = 5;`)
	r := resolver.New(g)

	_, ok := r.EnvAtPosition(pos(0, 7))
	assert.False(t, ok)
}

func TestBindingAtPositionDirectReferenceReturnsFalse(t *testing.T) {
	g := analyzeJS(t, `const db = process.env.DATABASE_URL;`)
	r := resolver.New(g)

	_, ok := r.BindingAtPosition(pos(0, 25))
	assert.False(t, ok)
}

func TestBindingAtPositionUsage(t *testing.T) {
	g := analyzeJS(t, `const db = process.env.DATABASE_URL;
console.log(db);`)
	r := resolver.New(g)

	binding, ok := r.BindingAtPosition(pos(1, 13))
	require.True(t, ok)
	assert.True(t, binding.IsUsage)
	assert.Equal(t, "db", binding.BindingName)
	assert.Equal(t, "DATABASE_URL", binding.EnvVarName)
}

func TestDirectReferenceAtPosition(t *testing.T) {
	g := analyzeJS(t, `const db = process.env.DATABASE_URL;`)
	r := resolver.New(g)

	ref, ok := r.DirectReferenceAtPosition(pos(0, 25))
	require.True(t, ok)
	assert.Equal(t, "DATABASE_URL", ref.Name)
}

func TestFindEnvVarUsages(t *testing.T) {
	g := analyzeJS(t, `const db = process.env.DATABASE_URL;
console.log(db);`)
	r := resolver.New(g)

	locations := r.FindEnvVarUsages("DATABASE_URL")
	assert.GreaterOrEqual(t, len(locations), 2)
}

func TestFindEnvVarUsagesDestructured(t *testing.T) {
	g := analyzeJS(t, `const { DATABASE_URL } = process.env;`)
	r := resolver.New(g)

	locations := r.FindEnvVarUsages("DATABASE_URL")
	require.Len(t, locations, 1)
	assert.Equal(t, bindgraph.LocationBindingDeclaration, locations[0].Kind)
}

func TestAllEnvVars(t *testing.T) {
	g := analyzeJS(t, `const a = process.env.A;
const b = process.env.B;`)
	r := resolver.New(g)

	vars := r.AllEnvVars()
	assert.ElementsMatch(t, []string{"A", "B"}, vars)
}

func TestGetBindingKind(t *testing.T) {
	g := analyzeJS(t, `const db = process.env.DATABASE_URL;
const env = process.env;`)
	r := resolver.New(g)

	kind, ok := r.GetBindingKind("db")
	require.True(t, ok)
	assert.Equal(t, query.BindingValue, kind)

	kind, ok = r.GetBindingKind("env")
	require.True(t, ok)
	assert.Equal(t, query.BindingObject, kind)
}
