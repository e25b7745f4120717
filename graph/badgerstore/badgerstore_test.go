package badgerstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/graph/badgerstore"
)

func TestCommitBatchAndGetNode(t *testing.T) {
	ctx := context.Background()
	s, err := badgerstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	batch, err := s.BeginBatch(ctx, "src/foo.js")
	require.NoError(t, err)
	batch.AddNodes(graph.Node{Id: "A", Type: "FUNCTION", Name: "foo", File: "src/foo.js"})
	require.NoError(t, s.CommitBatch(ctx, batch, false, nil))

	n, ok, err := s.GetNode(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "foo", n.Name)
}

func TestClearOnNewRunAndStats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	run1, err := badgerstore.Open(dir)
	require.NoError(t, err)

	b1, _ := run1.BeginBatch(ctx, "src/foo.js")
	b1.AddNodes(graph.Node{Id: "A", Type: "FUNCTION", File: "src/foo.js"})
	require.NoError(t, run1.CommitBatch(ctx, b1, false, nil))

	// Same run: a second commit for the file accumulates.
	b2, _ := run1.BeginBatch(ctx, "src/foo.js")
	b2.AddNodes(graph.Node{Id: "B", Type: "FUNCTION", File: "src/foo.js"})
	require.NoError(t, run1.CommitBatch(ctx, b2, false, nil))

	_, ok, _ := run1.GetNode(ctx, "A")
	assert.True(t, ok)
	require.NoError(t, run1.Close())

	// New run (reopened store): first touch of the file clears its
	// stale nodes exactly once.
	run2, err := badgerstore.Open(dir)
	require.NoError(t, err)
	defer run2.Close()

	b3, _ := run2.BeginBatch(ctx, "src/foo.js")
	b3.AddNodes(graph.Node{Id: "C", Type: "FUNCTION", File: "src/foo.js"})
	require.NoError(t, run2.CommitBatch(ctx, b3, false, nil))

	_, ok, _ = run2.GetNode(ctx, "A")
	assert.False(t, ok)

	stats, err := run2.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NodeCount)
}

func TestBFSAcrossEdges(t *testing.T) {
	ctx := context.Background()
	s, err := badgerstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	b, _ := s.BeginBatch(ctx, "src/foo.js")
	b.AddNodes(
		graph.Node{Id: "A", Type: "FUNCTION", File: "src/foo.js"},
		graph.Node{Id: "B", Type: "FUNCTION", File: "src/foo.js"},
	)
	b.AddEdges(graph.Edge{Src: "A", Dst: "B", Type: graph.EdgeCalls})
	require.NoError(t, s.CommitBatch(ctx, b, false, nil))

	nodes, err := s.BFS(ctx, []string{"A"}, -1, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
}
