package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/graph/memstore"
)

func seededBackend(t *testing.T) *memstore.Store {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	b, err := store.BeginBatch(ctx, "seed.js")
	require.NoError(t, err)
	b.AddNodes(
		graph.Node{Id: "fn:main", Type: "FUNCTION", Name: "main", File: "seed.js"},
		graph.Node{Id: "fn:helper", Type: "FUNCTION", Name: "helper", File: "seed.js"},
		graph.Node{Id: "call:1", Type: "CALL_SITE", Name: "helper", File: "seed.js"},
	)
	b.AddEdges(
		graph.Edge{Src: "fn:main", Dst: "call:1", Type: graph.EdgeContains},
		graph.Edge{Src: "call:1", Dst: "fn:helper", Type: graph.EdgeCalls},
	)
	require.NoError(t, store.CommitBatch(ctx, b, false, nil))
	return store
}

func TestDatalogAtomQuery(t *testing.T) {
	ctx := context.Background()
	d := NewDatalog()
	require.NoError(t, d.LoadGraph(ctx, seededBackend(t)))

	rows, err := d.Query(ctx, `edge(Src, Dst, "CALLS")`)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := map[string]string{}
	for _, b := range rows[0].Bindings {
		got[b.Name] = b.Value
	}
	assert.Equal(t, "call:1", got["Src"])
	assert.Equal(t, "fn:helper", got["Dst"])
}

func TestDatalogConstantMismatchYieldsNoRows(t *testing.T) {
	ctx := context.Background()
	d := NewDatalog()
	require.NoError(t, d.LoadGraph(ctx, seededBackend(t)))

	rows, err := d.Query(ctx, `edge(Src, Dst, "ROUTES_TO")`)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDatalogRuleProgram(t *testing.T) {
	ctx := context.Background()
	d := NewDatalog()
	require.NoError(t, d.LoadGraph(ctx, seededBackend(t)))

	rows, err := d.Query(ctx, `calls_fn(Caller, Callee) :- edge(Caller, Callee, "CALLS"), node(Callee, "FUNCTION", Name, File).`)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := map[string]string{}
	for _, b := range rows[0].Bindings {
		got[b.Name] = b.Value
	}
	assert.Equal(t, "call:1", got["Caller"])
	assert.Equal(t, "fn:helper", got["Callee"])
}

func TestDatalogRepeatedVariableMustAgree(t *testing.T) {
	ctx := context.Background()
	d := NewDatalog()
	require.NoError(t, d.LoadGraph(ctx, seededBackend(t)))

	// No self-loops in the seeded graph.
	rows, err := d.Query(ctx, "edge(X, X, Type)")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDatalogParseError(t *testing.T) {
	d := NewDatalog()
	_, err := d.Query(context.Background(), "not a datalog atom ???")
	assert.Error(t, err)
}

func TestCheckGuaranteeThroughService(t *testing.T) {
	ctx := context.Background()
	svc := New(seededBackend(t))

	rows, err := svc.CheckGuarantee(ctx, `node(Id, "CALL_SITE", Name, File)`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
