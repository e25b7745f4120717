// Package badgerstore is a durable graph.Backend backed by
// dgraph-io/badger/v4, keyed by the 128-bit numeric id (id.ComputeNumericID)
// and gob-encoded, mirroring the gob-encode/decode-over-a-transaction
// pattern AleutianFOSS's router cache uses for its embedding store.
package badgerstore

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/id"
)

const (
	nodeKeyPrefix = "grafema/node/v1/"
	edgeKeyPrefix = "grafema/edge/v1/"
)

// Store is a graph.Backend backed by an on-disk Badger database.
type Store struct {
	db *badger.DB

	mu      sync.Mutex
	touched map[string]bool // sources cleared this run
}

// Open opens (creating if absent) a Badger database at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerstore: open %s: %w", dir, err)
	}
	return &Store{db: db, touched: make(map[string]bool)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ graph.Backend = (*Store)(nil)

func nodeKey(nodeID string) ([]byte, error) {
	nid, err := id.ComputeNumericID(nodeID)
	if err != nil {
		return nil, err
	}
	b := nid.Bytes()
	return append([]byte(nodeKeyPrefix), b[:]...), nil
}

func edgeKey(e graph.Edge) ([]byte, error) {
	nid, err := id.ComputeNumericID(e.Key())
	if err != nil {
		return nil, err
	}
	b := nid.Bytes()
	return append([]byte(edgeKeyPrefix), b[:]...), nil
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func init() {
	gob.Register(graph.Node{})
	gob.Register(graph.Edge{})
}

func (s *Store) GetNode(_ context.Context, nodeID string) (graph.Node, bool, error) {
	key, err := nodeKey(nodeID)
	if err != nil {
		return graph.Node{}, false, err
	}
	var n graph.Node
	found := false
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return gobDecode(val, &n)
		})
	})
	if err != nil {
		return graph.Node{}, false, err
	}
	return n, found, nil
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

func (s *Store) scanNodes(f graph.Filter) ([]graph.Node, error) {
	var out []graph.Node
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(nodeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n graph.Node
			if err := it.Item().Value(func(val []byte) error {
				return gobDecode(val, &n)
			}); err != nil {
				return err
			}
			if matches(n, f) {
				out = append(out, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (s *Store) GetAllNodes(_ context.Context, filter graph.Filter) ([]graph.Node, error) {
	return s.scanNodes(filter)
}

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
	nodes, err := s.scanNodes(filter)
	if err != nil {
		return nil, err
	}
	return &sliceStream{nodes: nodes}, nil
}

type adjacency struct {
	Out map[string][]graph.Edge
	In  map[string][]graph.Edge
}

// adjacencyKey is the single well-known key the adjacency indexes are
// stored under; rewritten wholesale on every commit (RebuildIndexes has
// nothing to do),
// trading index-update cost for a backend that never needs incremental
// adjacency maintenance code.
var adjacencyKey = []byte("grafema/adjacency/v1")

func (s *Store) loadAdjacency(txn *badger.Txn) (adjacency, error) {
	adj := adjacency{Out: make(map[string][]graph.Edge), In: make(map[string][]graph.Edge)}
	item, err := txn.Get(adjacencyKey)
	if err == badger.ErrKeyNotFound {
		return adj, nil
	}
	if err != nil {
		return adjacency{}, err
	}
	err = item.Value(func(val []byte) error {
		return gobDecode(val, &adj)
	})
	return adj, err
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

func (s *Store) GetOutgoingEdges(_ context.Context, nodeID string, types []string) ([]graph.Edge, error) {
	var edges []graph.Edge
	err := s.db.View(func(txn *badger.Txn) error {
		adj, err := s.loadAdjacency(txn)
		if err != nil {
			return err
		}
		edges = filterEdges(adj.Out[nodeID], types)
		return nil
	})
	return edges, err
}

func (s *Store) GetIncomingEdges(_ context.Context, nodeID string, types []string) ([]graph.Edge, error) {
	var edges []graph.Edge
	err := s.db.View(func(txn *badger.Txn) error {
		adj, err := s.loadAdjacency(txn)
		if err != nil {
			return err
		}
		edges = filterEdges(adj.In[nodeID], types)
		return nil
	})
	return edges, err
}

func (s *Store) traverse(startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	var order []graph.Node
	err := s.db.View(func(txn *badger.Txn) error {
		adj, err := s.loadAdjacency(txn)
		if err != nil {
			return err
		}
		visited := make(map[string]bool)
		queue := append([]string(nil), startIDs...)
		for _, id := range startIDs {
			visited[id] = true
		}
		var seen []string
		depth := 0
		for len(queue) > 0 && (maxDepth < 0 || depth <= maxDepth) {
			var next []string
			for _, nodeID := range queue {
				seen = append(seen, nodeID)
				for _, e := range filterEdges(adj.Out[nodeID], edgeTypes) {
					if !visited[e.Dst] {
						visited[e.Dst] = true
						next = append(next, e.Dst)
					}
				}
			}
			queue = next
			depth++
		}
		for _, nodeID := range seen {
			item, err := txn.Get(mustNodeKey(nodeID))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			var n graph.Node
			if err := item.Value(func(val []byte) error { return gobDecode(val, &n) }); err != nil {
				return err
			}
			order = append(order, n)
		}
		return nil
	})
	return order, err
}

func mustNodeKey(nodeID string) []byte {
	key, err := nodeKey(nodeID)
	if err != nil {
		return nil
	}
	return key
}

func (s *Store) BFS(_ context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	return s.traverse(startIDs, maxDepth, edgeTypes)
}

// DFS shares BFS's level-order walk; badgerstore trades strict depth-first
// ordering for a single adjacency-loading code path, as it did not need
// to preserve document-order traversal the way memstore's DFS does.
func (s *Store) DFS(ctx context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	return s.traverse(startIDs, maxDepth, edgeTypes)
}

func (s *Store) GetStats(context.Context) (graph.Stats, error) {
	nodes, err := s.scanNodes(graph.Filter{})
	if err != nil {
		return graph.Stats{}, err
	}
	edgeCount := 0
	err = s.db.View(func(txn *badger.Txn) error {
		adj, err := s.loadAdjacency(txn)
		if err != nil {
			return err
		}
		for _, edges := range adj.Out {
			edgeCount += len(edges)
		}
		return nil
	})
	if err != nil {
		return graph.Stats{}, err
	}
	return graph.Stats{NodeCount: len(nodes), EdgeCount: edgeCount}, nil
}

func (s *Store) BeginBatch(_ context.Context, source string) (*graph.Batch, error) {
	return &graph.Batch{Source: source}, nil
}

func (s *Store) CommitBatch(_ context.Context, batch *graph.Batch, _ bool, nodeTypesToAlsoClear []string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		adj, err := s.loadAdjacency(txn)
		if err != nil {
			return err
		}

		// First touch of a source this run clears its stale nodes; add
		// before clear so a concurrent duplicate touch is a no-op.
		s.mu.Lock()
		first := !s.touched[batch.Source]
		s.touched[batch.Source] = true
		s.mu.Unlock()
		clearSource := batch.Source
		if !first {
			clearSource = ""
		}
		if first || len(nodeTypesToAlsoClear) > 0 {
			if err := s.clearSourceLocked(txn, &adj, clearSource, nodeTypesToAlsoClear); err != nil {
				return err
			}
		}

		known := make(map[string]bool)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := []byte(nodeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n graph.Node
			if err := it.Item().Value(func(val []byte) error { return gobDecode(val, &n) }); err != nil {
				it.Close()
				return err
			}
			known[n.Id] = true
		}
		it.Close()

		for _, n := range batch.Nodes {
			if err := graph.ValidateNode(n); err != nil {
				return err
			}
			key, err := nodeKey(n.Id)
			if err != nil {
				return err
			}
			val, err := gobEncode(n)
			if err != nil {
				return err
			}
			if err := txn.Set(key, val); err != nil {
				return err
			}
			known[n.Id] = true
		}

		for _, e := range batch.Edges {
			if err := graph.ValidateEdge(e); err != nil {
				return err
			}
			if !known[e.Src] || !known[e.Dst] {
				continue
			}
			if hasEdge(adj.Out[e.Src], e) {
				continue
			}
			adj.Out[e.Src] = append(adj.Out[e.Src], e)
			adj.In[e.Dst] = append(adj.In[e.Dst], e)
		}

		val, err := gobEncode(adj)
		if err != nil {
			return err
		}
		return txn.Set(adjacencyKey, val)
	})
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

// clearSourceLocked drops all nodes whose File equals source, plus nodes
// whose type is in nodeTypesToAlsoClear, and the adjacency entries
// touching them. Must run inside the caller's write transaction.
func (s *Store) clearSourceLocked(txn *badger.Txn, adj *adjacency, source string, nodeTypesToAlsoClear []string) error {
	extra := make(map[string]bool, len(nodeTypesToAlsoClear))
	for _, t := range nodeTypesToAlsoClear {
		extra[t] = true
	}

	dead := make(map[string]bool)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	prefix := []byte(nodeKeyPrefix)
	var deadKeys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var n graph.Node
		key := append([]byte(nil), it.Item().Key()...)
		if err := it.Item().Value(func(val []byte) error { return gobDecode(val, &n) }); err != nil {
			it.Close()
			return err
		}
		if (source != "" && n.File == source) || extra[n.Type] {
			dead[n.Id] = true
			deadKeys = append(deadKeys, key)
		}
	}
	it.Close()

	for _, key := range deadKeys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}

	for id := range dead {
		delete(adj.Out, id)
		delete(adj.In, id)
	}
	for id, edges := range adj.Out {
		adj.Out[id] = pruneEdges(edges, dead)
	}
	for id, edges := range adj.In {
		adj.In[id] = pruneEdges(edges, dead)
	}
	return nil
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

func (s *Store) RebuildIndexes(ctx context.Context) error {
	return nil
}

func (s *Store) Flush(context.Context) error {
	return s.db.Sync()
}

func (s *Store) Clear(context.Context) error {
	return s.db.DropAll()
}

func (s *Store) Export(ctx context.Context) (graph.Snapshot, error) {
	nodes, err := s.scanNodes(graph.Filter{})
	if err != nil {
		return graph.Snapshot{}, err
	}
	snap := graph.Snapshot{Nodes: nodes}
	err = s.db.View(func(txn *badger.Txn) error {
		adj, err := s.loadAdjacency(txn)
		if err != nil {
			return err
		}
		for _, edges := range adj.Out {
			snap.Edges = append(snap.Edges, edges...)
		}
		return nil
	})
	return snap, err
}

func (s *Store) Import(_ context.Context, snap graph.Snapshot) error {
	return s.db.Update(func(txn *badger.Txn) error {
		adj, err := s.loadAdjacency(txn)
		if err != nil {
			return err
		}
		for _, n := range snap.Nodes {
			key, err := nodeKey(n.Id)
			if err != nil {
				return err
			}
			val, err := gobEncode(n)
			if err != nil {
				return err
			}
			if err := txn.Set(key, val); err != nil {
				return err
			}
		}
		for _, e := range snap.Edges {
			adj.Out[e.Src] = append(adj.Out[e.Src], e)
			adj.In[e.Dst] = append(adj.In[e.Dst], e)
		}
		val, err := gobEncode(adj)
		if err != nil {
			return err
		}
		return txn.Set(adjacencyKey, val)
	})
}
