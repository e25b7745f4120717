package remote

import (
	"context"

	"github.com/grafema-go/grafema/graph"
)

func (c *Client) GetNode(_ context.Context, id string) (graph.Node, bool, error) {
	var out struct {
		Node  graph.Node `json:"node"`
		Found bool       `json:"found"`
	}
	if err := c.call("getNode", map[string]string{"id": id}, &out); err != nil {
		return graph.Node{}, false, err
	}
	return out.Node, out.Found, nil
}

func (c *Client) GetAllNodes(_ context.Context, filter graph.Filter) ([]graph.Node, error) {
	var out struct {
		Nodes []graph.Node `json:"nodes"`
	}
	if err := c.call("getAllNodes", filter, &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}

// materializedStream adapts a whole-response node list to graph.NodeStream;
// the remote backend pages internally but exposes the same streaming
// contract as every other Backend.
type materializedStream struct {
	nodes []graph.Node
	pos   int
}

func (s *materializedStream) Next(context.Context) bool {
	if s.pos >= len(s.nodes) {
		return false
	}
	s.pos++
	return true
}

func (s *materializedStream) Node() graph.Node { return s.nodes[s.pos-1] }
func (s *materializedStream) Err() error        { return nil }
func (s *materializedStream) Close() error      { return nil }

func (c *Client) QueryNodes(ctx context.Context, filter graph.Filter) (graph.NodeStream, error) {
	nodes, err := c.GetAllNodes(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &materializedStream{nodes: nodes}, nil
}

func (c *Client) GetOutgoingEdges(_ context.Context, id string, types []string) ([]graph.Edge, error) {
	var out struct {
		Edges []graph.Edge `json:"edges"`
	}
	args := map[string]any{"id": id, "types": types}
	if err := c.call("getOutgoingEdges", args, &out); err != nil {
		return nil, err
	}
	return out.Edges, nil
}

func (c *Client) GetIncomingEdges(_ context.Context, id string, types []string) ([]graph.Edge, error) {
	var out struct {
		Edges []graph.Edge `json:"edges"`
	}
	args := map[string]any{"id": id, "types": types}
	if err := c.call("getIncomingEdges", args, &out); err != nil {
		return nil, err
	}
	return out.Edges, nil
}

func (c *Client) traverse(op string, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	var out struct {
		Nodes []graph.Node `json:"nodes"`
	}
	args := map[string]any{"startIds": startIDs, "maxDepth": maxDepth, "edgeTypes": edgeTypes}
	if err := c.call(op, args, &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}

func (c *Client) BFS(_ context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	return c.traverse("bfs", startIDs, maxDepth, edgeTypes)
}

func (c *Client) DFS(_ context.Context, startIDs []string, maxDepth int, edgeTypes []string) ([]graph.Node, error) {
	return c.traverse("dfs", startIDs, maxDepth, edgeTypes)
}

func (c *Client) GetStats(context.Context) (graph.Stats, error) {
	var out graph.Stats
	if err := c.call("getStats", struct{}{}, &out); err != nil {
		return graph.Stats{}, err
	}
	return out, nil
}

func (c *Client) BeginBatch(_ context.Context, source string) (*graph.Batch, error) {
	if err := c.call("beginBatch", map[string]string{"source": source}, nil); err != nil {
		return nil, err
	}
	return &graph.Batch{Source: source}, nil
}

func (c *Client) CommitBatch(_ context.Context, batch *graph.Batch, deferIndex bool, nodeTypesToAlsoClear []string) error {
	args := map[string]any{
		"source":               batch.Source,
		"nodes":                batch.Nodes,
		"edges":                batch.Edges,
		"deferIndex":           deferIndex,
		"nodeTypesToAlsoClear": nodeTypesToAlsoClear,
	}
	return c.call("commitBatch", args, nil)
}

func (c *Client) AbortBatch(_ context.Context, batch *graph.Batch) error {
	return c.call("abortBatch", map[string]string{"source": batch.Source}, nil)
}

func (c *Client) RebuildIndexes(context.Context) error {
	return c.call("rebuildIndexes", struct{}{}, nil)
}

func (c *Client) Flush(context.Context) error {
	return c.call("flush", struct{}{}, nil)
}

func (c *Client) Clear(context.Context) error {
	return c.call("clear", struct{}{}, nil)
}

func (c *Client) Export(context.Context) (graph.Snapshot, error) {
	var out graph.Snapshot
	if err := c.call("export", struct{}{}, &out); err != nil {
		return graph.Snapshot{}, err
	}
	return out, nil
}

func (c *Client) Import(_ context.Context, snapshot graph.Snapshot) error {
	return c.call("import", snapshot, nil)
}
