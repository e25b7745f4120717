// Package memstore is an in-memory reference implementation of
// graph.Backend, used by the test suite and as the default backend when no
// persistent store is configured.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/grafema-go/grafema/graph"
)

// Store is a concurrency-safe, in-memory graph.Backend.
type Store struct {
	mu      sync.RWMutex
	nodes   map[string]graph.Node
	out     map[string][]graph.Edge // by src
	in      map[string][]graph.Edge // by dst
	touched map[string]bool         // sources cleared this run
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		nodes:   make(map[string]graph.Node),
		out:     make(map[string][]graph.Edge),
		in:      make(map[string][]graph.Edge),
		touched: make(map[string]bool),
	}
}

var _ graph.Backend = (*Store)(nil)

func (s *Store) GetNode(_ context.Context, id string) (graph.Node, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok, nil
}

func matches(n graph.Node, f graph.Filter) bool {
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Name != "" && n.Name != f.Name {
		return false
	}
	if f.File != "" && n.File != f.File {
		return false
	}
	if f.Exported != nil && n.Exported != *f.Exported {
		return false
	}
	return true
}

func (s *Store) GetAllNodes(_ context.Context, filter graph.Filter) ([]graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []graph.Node
	for _, n := range s.nodes {
		if matches(n, filter) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

// sliceStream adapts a materialized []graph.Node to graph.NodeStream; the
// in-memory backend has no reason to stream lazily, but callers depend on
// the NodeStream contract regardless of backend.
type sliceStream struct {
	nodes []graph.Node
	pos   int
}

func (s *sliceStream) Next(context.Context) bool {
	if s.pos >= len(s.nodes) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Node() graph.Node { return s.nodes[s.pos-1] }
func (s *sliceStream) Err() error       { return nil }
func (s *sliceStream) Close() error     { return nil }

func (s *Store) QueryNodes(ctx context.Context, filter graph.Filter) (graph.NodeStream, error) {
	nodes, err := s.GetAllNodes(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &sliceStream{nodes: nodes}, nil
}

func filterEdges(edges []graph.Edge, types []string) []graph.Edge {
	if len(types) == 0 {
		return edges
	}
	allow := make(map[string]bool, len(types))
	for _, t := range types {
		allow[t] = true
	}
	var out []graph.Edge
	for _, e := range edges {
		if allow[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) GetOutgoingEdges(_ context.Context, id string, types []string) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterEdges(s.out[id], types), nil
}

func (s *Store) GetIncomingEdges(_ context.Context, id string, types []string) ([]graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterEdges(s.in[id], types), nil
}

func (s *Store) traverse(startIDs []string, maxDepth int, edgeTypes []string, frontier func([]graph.Edge) []string) []graph.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[string]bool)
	var order []string
	queue := append([]string(nil), startIDs...)
	for _, id := range startIDs {
		visited[id] = true
	}
	depth := 0
	for len(queue) > 0 && (maxDepth < 0 || depth <= maxDepth) {
		var next []string
		for _, id := range queue {
			order = append(order, id)
			for _, nid := range frontier(filterEdges(s.out[id], edgeTypes)) {
				if !visited[nid] {
					visited[nid] = true
					next = append(next, nid)
				}
			}
		}
		queue = next
		depth++
	}

	out := make([]graph.Node, 0, len(order))
	for _, id := range order {
		if n, ok := s.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

func dsts(edges []graph.Edge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Dst
	}
	return out
}

// BFS performs a breadth-first traversal along edges of the given types,
// starting from startIDs, bounded by maxDepth (negative means unbounded).
func (s *Store) BFS(_ context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	return s.traverse(startIDs, maxDepth, edgeTypes, dsts), nil
}

// DFS performs a depth-first traversal: a recursive pre-order walk that
// visits each node's subtree, in outgoing-edge order, before its siblings.
func (s *Store) DFS(ctx context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[string]bool)
	var order []graph.Node
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		if visited[id] {
			return
		}
		visited[id] = true
		if n, ok := s.nodes[id]; ok {
			order = append(order, n)
		}
		if maxDepth >= 0 && depth >= maxDepth {
			return
		}
		for _, e := range filterEdges(s.out[id], edgeTypes) {
			visit(e.Dst, depth+1)
		}
	}
	for _, id := range startIDs {
		visit(id, 0)
	}
	return order, nil
}

func (s *Store) GetStats(context.Context) (graph.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	edgeCount := 0
	for _, edges := range s.out {
		edgeCount += len(edges)
	}
	return graph.Stats{NodeCount: len(s.nodes), EdgeCount: edgeCount}, nil
}

func (s *Store) BeginBatch(_ context.Context, source string) (*graph.Batch, error) {
	return &graph.Batch{Source: source}, nil
}

func (s *Store) CommitBatch(_ context.Context, batch *graph.Batch, _ bool, nodeTypesToAlsoClear []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// First touch of a source this run clears its stale nodes; the add
	// happens before the clear so a concurrent duplicate touch is a no-op.
	if !s.touched[batch.Source] {
		s.touched[batch.Source] = true
		s.clearLocked(batch.Source, nodeTypesToAlsoClear)
	} else if len(nodeTypesToAlsoClear) > 0 {
		s.clearLocked("", nodeTypesToAlsoClear)
	}

	for _, n := range batch.Nodes {
		if err := graph.ValidateNode(n); err != nil {
			return err
		}
		s.nodes[n.Id] = n
	}
	for _, e := range batch.Edges {
		if err := graph.ValidateEdge(e); err != nil {
			return err
		}
		if _, ok := s.nodes[e.Src]; !ok {
			continue
		}
		if _, ok := s.nodes[e.Dst]; !ok {
			continue
		}
		if hasEdge(s.out[e.Src], e) {
			continue
		}
		s.out[e.Src] = append(s.out[e.Src], e)
		s.in[e.Dst] = append(s.in[e.Dst], e)
	}
	return nil
}

// hasEdge reports whether an edge with the same (Src, Dst, Type) primary
// key is already present.
func hasEdge(edges []graph.Edge, e graph.Edge) bool {
	for _, have := range edges {
		if have.Dst == e.Dst && have.Type == e.Type {
			return true
		}
	}
	return false
}

// clearLocked drops all nodes whose File equals source (the
// FileNodeManager "clear on first touch per run" lifecycle rule), plus
// any node whose type is in nodeTypesToAlsoClear regardless of file, and
// the edges touching them. Callers must hold s.mu.
func (s *Store) clearLocked(source string, nodeTypesToAlsoClear []string) {
	extra := make(map[string]bool, len(nodeTypesToAlsoClear))
	for _, t := range nodeTypesToAlsoClear {
		extra[t] = true
	}
	toDelete := make(map[string]bool)
	for id, n := range s.nodes {
		if (source != "" && n.File == source) || extra[n.Type] {
			toDelete[id] = true
		}
	}
	for id := range toDelete {
		delete(s.nodes, id)
		delete(s.out, id)
		delete(s.in, id)
	}
	for id, edges := range s.out {
		s.out[id] = pruneEdges(edges, toDelete)
	}
	for id, edges := range s.in {
		s.in[id] = pruneEdges(edges, toDelete)
	}
}

func pruneEdges(edges []graph.Edge, dead map[string]bool) []graph.Edge {
	var kept []graph.Edge
	for _, e := range edges {
		if dead[e.Src] || dead[e.Dst] {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (s *Store) AbortBatch(context.Context, *graph.Batch) error {
	return nil
}

func (s *Store) RebuildIndexes(context.Context) error {
	return nil
}

func (s *Store) Flush(context.Context) error {
	return nil
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]graph.Node)
	s.out = make(map[string][]graph.Edge)
	s.in = make(map[string][]graph.Edge)
	return nil
}

func (s *Store) Export(context.Context) (graph.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := graph.Snapshot{}
	for _, n := range s.nodes {
		snap.Nodes = append(snap.Nodes, n)
	}
	for _, edges := range s.out {
		snap.Edges = append(snap.Edges, edges...)
	}
	sort.Slice(snap.Nodes, func(i, j int) bool { return snap.Nodes[i].Id < snap.Nodes[j].Id })
	return snap, nil
}

func (s *Store) Import(_ context.Context, snap graph.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range snap.Nodes {
		s.nodes[n.Id] = n
	}
	for _, e := range snap.Edges {
		s.out[e.Src] = append(s.out[e.Src], e)
		s.in[e.Dst] = append(s.in[e.Dst], e)
	}
	return nil
}
