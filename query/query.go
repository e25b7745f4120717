// Package query is the backend-facing operation surface the GraphQL and
// MCP collaborators call: node/edge lookup, attribute queries, traversal,
// Datalog evaluation, stats, and batch lifecycle passthrough.
package query

import (
	"context"

	"github.com/grafema-go/grafema/graph"
)

// Service dispatches query operations onto a graph.Backend and owns the
// Datalog evaluator fed from it.
type Service struct {
	backend graph.Backend
	datalog *Datalog
}

// New creates a Service over backend.
func New(backend graph.Backend) *Service {
	return &Service{backend: backend, datalog: NewDatalog()}
}

// GetNode returns the node with the given id, or ok=false.
func (s *Service) GetNode(ctx context.Context, id string) (graph.Node, bool, error) {
	return s.backend.GetNode(ctx, id)
}

// QueryNodes streams nodes matching filter lazily; the stream is finite
// and non-restartable.
func (s *Service) QueryNodes(ctx context.Context, filter graph.Filter) (graph.NodeStream, error) {
	return s.backend.QueryNodes(ctx, filter)
}

// GetAllNodes materializes a filtered query; documented O(n), intended
// for small results.
func (s *Service) GetAllNodes(ctx context.Context, filter graph.Filter) ([]graph.Node, error) {
	return s.backend.GetAllNodes(ctx, filter)
}

// GetOutgoingEdges lists edges leaving id, optionally restricted to types.
func (s *Service) GetOutgoingEdges(ctx context.Context, id string, types []string) ([]graph.Edge, error) {
	return s.backend.GetOutgoingEdges(ctx, id, types)
}

// GetIncomingEdges lists edges entering id, optionally restricted to types.
func (s *Service) GetIncomingEdges(ctx context.Context, id string, types []string) ([]graph.Edge, error) {
	return s.backend.GetIncomingEdges(ctx, id, types)
}

// BFS traverses breadth-first from startIDs along edgeTypes up to
// maxDepth (-1 for unbounded).
func (s *Service) BFS(ctx context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	return s.backend.BFS(ctx, startIDs, maxDepth, edgeTypes)
}

// DFS traverses depth-first from startIDs along edgeTypes up to maxDepth.
func (s *Service) DFS(ctx context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	return s.backend.DFS(ctx, startIDs, maxDepth, edgeTypes)
}

// GetStats returns node and edge counts.
func (s *Service) GetStats(ctx context.Context) (graph.Stats, error) {
	return s.backend.GetStats(ctx)
}

// CheckGuarantee evaluates a Datalog query against the current graph and
// returns its binding sets. The graph is loaded into the evaluator on
// every call so results always reflect the latest committed state.
func (s *Service) CheckGuarantee(ctx context.Context, datalogQuery string) ([]BindingSet, error) {
	if err := s.datalog.LoadGraph(ctx, s.backend); err != nil {
		return nil, err
	}
	return s.datalog.Query(ctx, datalogQuery)
}

// BeginBatch opens a buffered batch for source.
func (s *Service) BeginBatch(ctx context.Context, source string) (*graph.Batch, error) {
	return s.backend.BeginBatch(ctx, source)
}

// CommitBatch commits a batch atomically.
func (s *Service) CommitBatch(ctx context.Context, batch *graph.Batch, deferIndex bool, typesToAlsoClear []string) error {
	return s.backend.CommitBatch(ctx, batch, deferIndex, typesToAlsoClear)
}

// AbortBatch discards a batch.
func (s *Service) AbortBatch(ctx context.Context, batch *graph.Batch) error {
	return s.backend.AbortBatch(ctx, batch)
}

// RebuildIndexes forces index maintenance after deferred commits.
func (s *Service) RebuildIndexes(ctx context.Context) error {
	return s.backend.RebuildIndexes(ctx)
}

// Flush persists any buffered state.
func (s *Service) Flush(ctx context.Context) error {
	return s.backend.Flush(ctx)
}

// Clear empties the graph.
func (s *Service) Clear(ctx context.Context) error {
	return s.backend.Clear(ctx)
}

// Export snapshots the graph; tests only.
func (s *Service) Export(ctx context.Context) (graph.Snapshot, error) {
	return s.backend.Export(ctx)
}

// Import loads a snapshot; tests only.
func (s *Service) Import(ctx context.Context, snapshot graph.Snapshot) error {
	return s.backend.Import(ctx, snapshot)
}
