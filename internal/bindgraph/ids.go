package bindgraph

// SymbolId and ScopeId are small, nonzero integer handles assigned
// monotonically by the owning graph. Zero is never assigned; ScopeId(1) is
// reserved for the synthetic root scope created at construction.
type SymbolId uint32

// Index returns the zero-based arena index backing id.
func (id SymbolId) Index() int { return int(id - 1) }

// Valid reports whether id was ever assigned by a graph.
func (id SymbolId) Valid() bool { return id != 0 }

type ScopeId uint32

// RootScopeID is the synthetic module/file-level scope every graph starts
// with; it has no parent and survives Clear.
const RootScopeID ScopeId = 1

// Index returns the zero-based arena index backing id.
func (id ScopeId) Index() int { return int(id - 1) }

func (id ScopeId) Valid() bool { return id != 0 }
