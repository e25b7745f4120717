// Package enrichment implements the ENRICHMENT-phase plugin: it revisits
// call nodes once the whole project is committed and adds the
// CALLS{callType:callback} edges that per-file building could not prove,
// e.g. a whitelisted HOF receiving a function declared in another file.
package enrichment

import (
	"context"

	"go.uber.org/zap"

	"github.com/grafema-go/grafema/ast"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/plugin"
)

func init() {
	plugin.Default().MustRegister("callback-enrichment", func() plugin.Plugin { return New() })
}

// Plugin rewires callback edges project-wide. It both consumes and
// produces CALLS; the self-reference is intentional and excluded from
// dependency inference.
type Plugin struct{}

// New creates the enrichment plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "callback-enrichment",
		Phase:        plugin.PhaseEnrichment,
		Produces:     []string{graph.EdgeCalls},
		Consumes:     []string{graph.EdgeCalls, graph.EdgePassesArgument},
		ManagesBatch: true,
	}
}

func (p *Plugin) Execute(ctx context.Context, pc *plugin.Context) (plugin.Result, error) {
	batch, err := pc.Backend.BeginBatch(ctx, "callback-enrichment")
	if err != nil {
		return plugin.Fail(err), nil
	}

	added := 0
	for _, typ := range []string{"CALL_SITE", "METHOD_CALL"} {
		n, err := p.enrichCalls(ctx, pc, batch, typ)
		if err != nil {
			_ = pc.Backend.AbortBatch(ctx, batch)
			return plugin.Fail(err), nil
		}
		added += n
	}

	if err := pc.Backend.CommitBatch(ctx, batch, false, nil); err != nil {
		_ = pc.Backend.AbortBatch(ctx, batch)
		return plugin.Fail(err), nil
	}
	pc.Logger.Info("callback edges added", zap.Int("count", added))
	return plugin.Result{Success: true, Counts: map[string]int{"callbackEdges": added}}, nil
}

// enrichCalls scans every call node of one type and adds the missing
// callback edge for whitelisted invokers whose PASSES_ARGUMENT targets
// are functions or methods.
func (p *Plugin) enrichCalls(ctx context.Context, pc *plugin.Context, batch *graph.Batch, callType string) (int, error) {
	stream, err := pc.Backend.QueryNodes(ctx, graph.Filter{Type: callType})
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	added := 0
	for stream.Next(ctx) {
		call := stream.Node()
		if !isWhitelistedInvoker(call) {
			continue
		}
		args, err := pc.Backend.GetOutgoingEdges(ctx, call.Id, []string{graph.EdgePassesArgument})
		if err != nil {
			return added, err
		}
		existing, err := pc.Backend.GetOutgoingEdges(ctx, call.Id, []string{graph.EdgeCalls})
		if err != nil {
			return added, err
		}
		linked := make(map[string]bool, len(existing))
		for _, e := range existing {
			if e.Metadata["callType"] == "callback" {
				linked[e.Dst] = true
			}
		}
		for _, e := range args {
			if linked[e.Dst] {
				continue
			}
			target, ok, err := pc.Backend.GetNode(ctx, e.Dst)
			if err != nil {
				return added, err
			}
			if !ok || (target.Type != "FUNCTION" && target.Type != "METHOD") {
				continue
			}
			batch.AddEdges(graph.Edge{
				Src: call.Id, Dst: target.Id, Type: graph.EdgeCalls,
				Metadata: map[string]any{"callType": "callback", "enriched": true},
			})
			linked[target.Id] = true
			added++
		}
	}
	return added, stream.Err()
}

// isWhitelistedInvoker checks the call node's callee/method attribute
// against the fixed callback-invoker set.
func isWhitelistedInvoker(call graph.Node) bool {
	if method, ok := call.Attributes["method"].(string); ok {
		return ast.IsCallbackInvoker(method)
	}
	if callee, ok := call.Attributes["callee"].(string); ok {
		return ast.IsCallbackInvoker(callee)
	}
	return false
}
