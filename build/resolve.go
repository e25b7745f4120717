package build

import (
	"context"
	"fmt"

	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
)

// ResolveCrossFile links calls left unresolved within their own file
// against FUNCTION nodes declared in other files, and `this.method` calls
// against METHOD nodes of a same-named class declared elsewhere. It must
// run after every file's BuildFile call has committed.
func (b *GraphBuilder) ResolveCrossFile(ctx context.Context) error {
	batch, err := b.Backend.BeginBatch(ctx, "cross-file-resolution")
	if err != nil {
		return fmt.Errorf("build: begin cross-file batch: %w", err)
	}

	for _, uc := range b.UnresolvedCalls {
		matches, err := b.Backend.GetAllNodes(ctx, graph.Filter{Type: TypeFunction, Name: uc.Callee})
		if err != nil {
			_ = b.Backend.AbortBatch(ctx, batch)
			return fmt.Errorf("build: query function %s: %w", uc.Callee, err)
		}
		matches = excludeFile(matches, uc.File)
		if len(matches) == 0 {
			b.Diagnostics.Report(diag.Diagnostic{
				Kind: diag.KindError, Code: diag.CodeUnresolvedCall,
				Message:      "call to " + uc.Callee + " never resolves to a declared function",
				File:         uc.File,
				TargetNodeID: uc.CallID,
			})
			continue
		}
		batch.AddEdges(graph.Edge{
			Src: uc.CallID, Dst: matches[0].Id, Type: graph.EdgeCalls,
			Metadata: map[string]any{"callType": "internal", "crossFile": true},
		})
	}

	for _, ref := range b.UnresolvedThisMethods {
		target, ok, err := b.resolveClassMethod(ctx, ref.ClassName, ref.Method)
		if err != nil {
			_ = b.Backend.AbortBatch(ctx, batch)
			return fmt.Errorf("build: resolve %s#%s: %w", ref.ClassName, ref.Method, err)
		}
		if !ok {
			b.Diagnostics.Report(diag.Diagnostic{
				Kind: diag.KindWarning, Code: diag.CodeWarnUnresolved,
				Message:      "this." + ref.Method + " never resolves on class " + ref.ClassName,
				File:         ref.File,
				TargetNodeID: ref.CallID,
			})
			continue
		}
		batch.AddEdges(graph.Edge{
			Src: ref.CallID, Dst: target, Type: graph.EdgeCalls,
			Metadata: map[string]any{"callType": "internal", "crossFile": true},
		})
	}

	if err := b.Backend.CommitBatch(ctx, batch, false, nil); err != nil {
		_ = b.Backend.AbortBatch(ctx, batch)
		return fmt.Errorf("build: commit cross-file batch: %w", err)
	}
	return nil
}

// resolveClassMethod finds the METHOD node a class's CONTAINS edges reach
// whose Name matches method, across every CLASS node sharing className —
// a class can be declared (or, loosely, reopened by a mixin helper) in more
// than one file.
func (b *GraphBuilder) resolveClassMethod(ctx context.Context, className, method string) (string, bool, error) {
	classes, err := b.Backend.GetAllNodes(ctx, graph.Filter{Type: TypeClass, Name: className})
	if err != nil {
		return "", false, err
	}
	for _, c := range classes {
		members, err := b.Backend.GetOutgoingEdges(ctx, c.Id, []string{graph.EdgeContains})
		if err != nil {
			return "", false, err
		}
		for _, e := range members {
			node, ok, err := b.Backend.GetNode(ctx, e.Dst)
			if err != nil {
				return "", false, err
			}
			if ok && node.Type == TypeMethod && node.Name == method {
				return node.Id, true, nil
			}
		}
	}
	return "", false, nil
}

func excludeFile(nodes []graph.Node, file string) []graph.Node {
	out := make([]graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.File != file {
			out = append(out, n)
		}
	}
	return out
}
