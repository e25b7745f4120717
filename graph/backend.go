package graph

import "context"

// Filter selects nodes by attribute for QueryNodes/GetAllNodes. A zero-value
// field is not applied as a predicate.
type Filter struct {
	Type     string
	Name     string
	File     string
	Exported *bool
}

// Stats summarizes a graph's size.
type Stats struct {
	NodeCount int
	EdgeCount int
}

// Batch is a buffered set of nodes and edges for one file (or service)
// commit, opened by Backend.BeginBatch and closed by CommitBatch or
// AbortBatch.
type Batch struct {
	Source string
	Nodes  []Node
	Edges  []Edge
}

// AddNodes appends nodes to the batch.
func (b *Batch) AddNodes(nodes ...Node) {
	b.Nodes = append(b.Nodes, nodes...)
}

// AddEdges appends edges to the batch.
func (b *Batch) AddEdges(edges ...Edge) {
	b.Edges = append(b.Edges, edges...)
}

// NodeStream is the async iterator QueryNodes returns; callers must call
// Close when done, even after an error from Next.
type NodeStream interface {
	// Next advances the stream, returning false when exhausted or on error;
	// callers must check Err after Next returns false.
	Next(ctx context.Context) bool
	Node() Node
	Err() error
	Close() error
}

// Snapshot is the export/import payload, used for tests only.
type Snapshot struct {
	Nodes []Node
	Edges []Edge
}

// Backend is the property-graph storage contract: by-id lookup, attribute
// index, bidirectional edge adjacency, traversal, and batched mutation.
// graph/memstore, graph/badgerstore, and graph/remote each implement it.
type Backend interface {
	GetNode(ctx context.Context, id string) (Node, bool, error)
	QueryNodes(ctx context.Context, filter Filter) (NodeStream, error)
	GetAllNodes(ctx context.Context, filter Filter) ([]Node, error)

	GetOutgoingEdges(ctx context.Context, id string, types []string) ([]Edge, error)
	GetIncomingEdges(ctx context.Context, id string, types []string) ([]Edge, error)

	BFS(ctx context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]Node, error)
	DFS(ctx context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]Node, error)

	GetStats(ctx context.Context) (Stats, error)

	BeginBatch(ctx context.Context, source string) (*Batch, error)
	CommitBatch(ctx context.Context, batch *Batch, deferIndex bool, nodeTypesToAlsoClear []string) error
	AbortBatch(ctx context.Context, batch *Batch) error
	RebuildIndexes(ctx context.Context) error
	Flush(ctx context.Context) error
	Clear(ctx context.Context) error

	Export(ctx context.Context) (Snapshot, error)
	Import(ctx context.Context, snapshot Snapshot) error
}
