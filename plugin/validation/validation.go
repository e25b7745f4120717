// Package validation implements the VALIDATION-phase plugin: graph-level
// consistency checks reported through the diagnostics collector and,
// when requested, materialized as issue:* nodes.
package validation

import (
	"context"

	"go.uber.org/zap"

	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/plugin"
)

func init() {
	plugin.Default().MustRegister("graph-validation", func() plugin.Plugin { return New() })
}

// Plugin runs the connectivity, calls, and imports validators.
type Plugin struct{}

// New creates the validation plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "graph-validation",
		Phase:        plugin.PhaseValidation,
		Produces:     []string{"issue"},
		Consumes:     []string{graph.EdgeCalls, graph.EdgeContains},
		ManagesBatch: true,
	}
}

// selfContainedTypes never need incident edges to be considered healthy:
// singletons, services, and externally-rooted nodes.
var selfContainedTypes = map[string]bool{
	"SERVICE":           true,
	"EXTERNAL_MODULE":   true,
	"EXTERNAL_FUNCTION": true,
}

func (p *Plugin) Execute(ctx context.Context, pc *plugin.Context) (plugin.Result, error) {
	before := len(pc.Diagnostics.All())

	if err := p.checkDisconnected(ctx, pc); err != nil {
		return plugin.Fail(err), nil
	}
	if err := p.checkUnresolvedCalls(ctx, pc); err != nil {
		return plugin.Fail(err), nil
	}
	if err := p.checkUnusedImports(ctx, pc); err != nil {
		return plugin.Fail(err), nil
	}

	found := pc.Diagnostics.All()[before:]
	if pc.EmitIssueNodes && len(found) > 0 {
		if err := p.emitIssueNodes(ctx, pc, found); err != nil {
			return plugin.Fail(err), nil
		}
	}
	pc.Logger.Info("validation complete", zap.Int("findings", len(found)))
	return plugin.Result{Success: true, Counts: map[string]int{"findings": len(found)}}, nil
}

// checkDisconnected flags nodes with no incident edges at all.
func (p *Plugin) checkDisconnected(ctx context.Context, pc *plugin.Context) error {
	stream, err := pc.Backend.QueryNodes(ctx, graph.Filter{})
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next(ctx) {
		n := stream.Node()
		if selfContainedTypes[n.Type] || graph.IsNamespaced(n.Type) {
			continue
		}
		out, err := pc.Backend.GetOutgoingEdges(ctx, n.Id, nil)
		if err != nil {
			return err
		}
		if len(out) > 0 {
			continue
		}
		in, err := pc.Backend.GetIncomingEdges(ctx, n.Id, nil)
		if err != nil {
			return err
		}
		if len(in) > 0 {
			continue
		}
		pc.ReportIssue(diag.KindError, diag.CodeDisconnectedNode,
			"node "+n.Id+" has no edges", n.File, n.Line, n.Column, n.Id, nil)
	}
	return stream.Err()
}

// checkUnresolvedCalls flags call nodes with no outgoing CALLS edge,
// honoring per-node pragma suppression recorded by the walker.
func (p *Plugin) checkUnresolvedCalls(ctx context.Context, pc *plugin.Context) error {
	for _, typ := range []string{"CALL_SITE", "METHOD_CALL", "CONSTRUCTOR_CALL"} {
		stream, err := pc.Backend.QueryNodes(ctx, graph.Filter{Type: typ})
		if err != nil {
			return err
		}
		err = func() error {
			defer stream.Close()
			for stream.Next(ctx) {
				n := stream.Node()
				if suppressed, _ := n.Attributes["suppressed:"+diag.CodeWarnUnresolved].(bool); suppressed {
					continue
				}
				calls, err := pc.Backend.GetOutgoingEdges(ctx, n.Id, []string{graph.EdgeCalls})
				if err != nil {
					return err
				}
				if len(calls) == 0 {
					pc.ReportIssue(diag.KindWarning, diag.CodeWarnUnresolved,
						"call to "+n.Name+" has no resolution", n.File, n.Line, n.Column, n.Id, nil)
				}
			}
			return stream.Err()
		}()
		if err != nil {
			return err
		}
	}
	return nil
}

// checkUnusedImports flags IMPORT nodes nothing references.
func (p *Plugin) checkUnusedImports(ctx context.Context, pc *plugin.Context) error {
	stream, err := pc.Backend.QueryNodes(ctx, graph.Filter{Type: "IMPORT"})
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next(ctx) {
		n := stream.Node()
		in, err := pc.Backend.GetIncomingEdges(ctx, n.Id, []string{graph.EdgePassesArgument, graph.EdgeReadsFrom, graph.EdgeAssignedFrom, graph.EdgeFlowsInto})
		if err != nil {
			return err
		}
		if len(in) > 0 {
			continue
		}
		out, err := pc.Backend.GetOutgoingEdges(ctx, n.Id, []string{graph.EdgeCalls})
		if err != nil {
			return err
		}
		if len(out) > 0 {
			continue
		}
		pc.ReportIssue(diag.KindWarning, diag.CodeUnusedImport,
			"import "+n.Name+" is never used", n.File, n.Line, n.Column, n.Id, nil)
	}
	return stream.Err()
}

// emitIssueNodes materializes this run's findings as issue:* nodes, each
// AFFECTS-linked to its target when one is known.
func (p *Plugin) emitIssueNodes(ctx context.Context, pc *plugin.Context, findings []diag.Diagnostic) error {
	batch, err := pc.Backend.BeginBatch(ctx, "validation-issues")
	if err != nil {
		return err
	}
	for _, d := range findings {
		node := diag.IssueNode(d)
		batch.AddNodes(node)
		if d.TargetNodeID != "" {
			batch.AddEdges(graph.Edge{Src: node.Id, Dst: d.TargetNodeID, Type: graph.EdgeAffects})
		}
	}
	if err := pc.Backend.CommitBatch(ctx, batch, false, nil); err != nil {
		_ = pc.Backend.AbortBatch(ctx, batch)
		return err
	}
	return nil
}
