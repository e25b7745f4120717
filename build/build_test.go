package build_test

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafema-go/grafema/ast"
	"github.com/grafema-go/grafema/build"
	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/graph/memstore"
)

// buildJS walks src as one file and commits it to a fresh memstore,
// returning the store and the run's diagnostics.
func buildJS(t *testing.T, file, src string) (*memstore.Store, *diag.Collector) {
	t.Helper()
	ctx := context.Background()

	coll, err := ast.Parse(ctx, file, []byte(src))
	require.NoError(t, err)

	store := memstore.New()
	collector := diag.NewCollector()
	builder := build.New(store, collector)
	require.NoError(t, builder.BuildFile(ctx, coll, false))
	require.NoError(t, builder.ResolveCrossFile(ctx))
	return store, collector
}

func nodeByTypeName(t *testing.T, store *memstore.Store, typ, name string) graph.Node {
	t.Helper()
	nodes, err := store.GetAllNodes(context.Background(), graph.Filter{Type: typ, Name: name})
	require.NoError(t, err)
	require.Len(t, nodes, 1, "expected exactly one %s named %s", typ, name)
	return nodes[0]
}

func outgoing(t *testing.T, store *memstore.Store, id string, types ...string) []graph.Edge {
	t.Helper()
	edges, err := store.GetOutgoingEdges(context.Background(), id, types)
	require.NoError(t, err)
	return edges
}

func TestSingleFunctionSingleCall(t *testing.T) {
	store, _ := buildJS(t, "a.ts", `function greet(){ console.log("hi"); }`)
	ctx := context.Background()

	module := nodeByTypeName(t, store, "MODULE", "a.ts")
	fn := nodeByTypeName(t, store, "FUNCTION", "greet")
	call := nodeByTypeName(t, store, "METHOD_CALL", "console.log")

	contains := outgoing(t, store, module.Id, graph.EdgeContains)
	var containsFn bool
	for _, e := range contains {
		if e.Dst == fn.Id {
			containsFn = true
		}
	}
	assert.True(t, containsFn, "module CONTAINS greet")

	scopes := outgoing(t, store, fn.Id, graph.EdgeHasScope)
	require.Len(t, scopes, 1, "greet owns exactly one scope")
	scopeID := scopes[0].Dst

	inScope := outgoing(t, store, scopeID, graph.EdgeContains)
	var scopeHasCall bool
	for _, e := range inScope {
		if e.Dst == call.Id {
			scopeHasCall = true
		}
	}
	assert.True(t, scopeHasCall, "function scope CONTAINS the call")

	calls := outgoing(t, store, call.Id, graph.EdgeCalls)
	require.Len(t, calls, 1)
	assert.Equal(t, "builtin", calls[0].Metadata["callType"])
	target, ok, err := store.GetNode(ctx, calls[0].Dst)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "EXTERNAL_FUNCTION", target.Type)

	args := outgoing(t, store, call.Id, graph.EdgePassesArgument)
	require.Len(t, args, 1)
	assert.Equal(t, 0, args[0].Metadata["argIndex"])
	lit, ok, err := store.GetNode(ctx, args[0].Dst)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "LITERAL", lit.Type)
}

func TestArrayHOFCallbackEdge(t *testing.T) {
	store, _ := buildJS(t, "hof.js", `function cb(item) { return item; }
items.forEach(cb);`)

	call := nodeByTypeName(t, store, "METHOD_CALL", "items.forEach")
	fn := nodeByTypeName(t, store, "FUNCTION", "cb")

	var callback, passes bool
	for _, e := range outgoing(t, store, call.Id, graph.EdgeCalls) {
		if e.Dst == fn.Id && e.Metadata["callType"] == "callback" {
			callback = true
		}
	}
	for _, e := range outgoing(t, store, call.Id, graph.EdgePassesArgument) {
		if e.Dst == fn.Id {
			passes = true
		}
	}
	assert.True(t, callback, "forEach is whitelisted, so the function argument is invoked")
	assert.True(t, passes)
}

func TestRegisterPatternGetsNoCallbackEdge(t *testing.T) {
	store, _ := buildJS(t, "reg.js", `function handler() {}
registry.set("k", handler);`)

	call := nodeByTypeName(t, store, "METHOD_CALL", "registry.set")
	fn := nodeByTypeName(t, store, "FUNCTION", "handler")

	var passes bool
	for _, e := range outgoing(t, store, call.Id, graph.EdgePassesArgument) {
		if e.Dst == fn.Id {
			passes = true
		}
	}
	assert.True(t, passes, "handler still flows as an argument")

	for _, e := range outgoing(t, store, call.Id, graph.EdgeCalls) {
		assert.NotEqual(t, "callback", e.Metadata["callType"],
			"set is not a whitelisted invoker; no callback edge")
	}
}

func TestArrayPushMutationFlow(t *testing.T) {
	store, _ := buildJS(t, "mut.js", `const arr = [];
const x = 1;
arr.push(x);`)

	arr := nodeByTypeName(t, store, "VARIABLE", "arr")
	x := nodeByTypeName(t, store, "VARIABLE", "x")
	mutation := nodeByTypeName(t, store, "ARRAY_MUTATION", "arr.push")

	var modifies bool
	for _, e := range outgoing(t, store, mutation.Id, graph.EdgeModifies) {
		if e.Dst == arr.Id {
			modifies = true
		}
	}
	assert.True(t, modifies)

	var selfRead bool
	for _, e := range outgoing(t, store, arr.Id, graph.EdgeReadsFrom) {
		if e.Dst == arr.Id {
			selfRead = true
		}
	}
	assert.True(t, selfRead, "mutation reads the array before writing")

	var flows bool
	for _, e := range outgoing(t, store, x.Id, graph.EdgeFlowsInto) {
		if e.Dst == arr.Id && e.Metadata["argIndex"] == 0 {
			flows = true
		}
	}
	assert.True(t, flows, "pushed value flows into the array")
}

func TestUnresolvedCallWarning(t *testing.T) {
	store, collector := buildJS(t, "u.js", `unknownGlobal();`)

	call := nodeByTypeName(t, store, "CALL_SITE", "unknownGlobal")
	assert.Empty(t, outgoing(t, store, call.Id, graph.EdgeCalls))

	var warned bool
	for _, d := range collector.All() {
		if d.Code == diag.CodeWarnUnresolved && d.File == "u.js" && d.Line == 1 {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestIgnorePragmaSuppressesWarning(t *testing.T) {
	_, collector := buildJS(t, "sup.js", `// grafema-ignore WARN_UNRESOLVED_CALL - registry resolved at runtime
unknownGlobal();`)

	for _, d := range collector.All() {
		assert.NotEqual(t, diag.CodeWarnUnresolved, d.Code)
	}
}

func TestObjectAssignMutation(t *testing.T) {
	store, _ := buildJS(t, "oa.js", `const target = {};
const extra = { a: 1 };
Object.assign(target, extra);`)

	target := nodeByTypeName(t, store, "VARIABLE", "target")
	extra := nodeByTypeName(t, store, "VARIABLE", "extra")

	var flows bool
	for _, e := range outgoing(t, store, extra.Id, graph.EdgeFlowsInto) {
		if e.Dst == target.Id {
			flows = true
		}
	}
	assert.True(t, flows, "Object.assign source flows into target")
}

func TestDeterministicRebuild(t *testing.T) {
	src := `function pick(items) {
  return items.filter(i => i.ok).map(i => i.name);
}
const chosen = pick(list);`

	snapshot := func() ([]string, []graph.Edge) {
		store, _ := buildJS(t, "det.js", src)
		snap, err := store.Export(context.Background())
		require.NoError(t, err)
		ids := make([]string, len(snap.Nodes))
		for i, n := range snap.Nodes {
			ids[i] = n.Id
		}
		sort.Strings(ids)
		sort.Slice(snap.Edges, func(i, j int) bool { return snap.Edges[i].Key() < snap.Edges[j].Key() })
		return ids, snap.Edges
	}

	ids1, edges1 := snapshot()
	ids2, edges2 := snapshot()
	assert.Equal(t, ids1, ids2, "two runs mint byte-identical node ids")
	assert.Equal(t, edges1, edges2)
}
