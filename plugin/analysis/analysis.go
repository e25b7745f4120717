// Package analysis implements the ANALYSIS-phase plugin: it parses each
// source file, walks the tree into Collections, and drives the graph
// builder. Parsing runs with bounded concurrency; builds commit in file
// order so ids and batches stay deterministic.
package analysis

import (
	"context"
	"errors"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/grafema-go/grafema/ast"
	"github.com/grafema-go/grafema/build"
	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/plugin"
	"github.com/grafema-go/grafema/workspace"
)

func init() {
	plugin.Default().MustRegister("js-analysis", func() plugin.Plugin { return New() })
}

// Plugin walks every file of every manifest service.
type Plugin struct {
	detector    *workspace.Detector
	concurrency int
}

// New creates the analysis plugin with GOMAXPROCS parse concurrency.
func New() *Plugin {
	return &Plugin{detector: workspace.New(), concurrency: runtime.GOMAXPROCS(0)}
}

// WithConcurrency bounds the parallel parse workers.
func (p *Plugin) WithConcurrency(n int) *Plugin {
	if n > 0 {
		p.concurrency = n
	}
	return p
}

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:  "js-analysis",
		Phase: plugin.PhaseAnalysis,
		Produces: []string{
			graph.EdgeContains, graph.EdgeCalls, graph.EdgePassesArgument,
			graph.EdgeReadsFrom, graph.EdgeWritesTo, graph.EdgeModifies,
			graph.EdgeAssignedFrom, graph.EdgeFlowsInto, graph.EdgeHasScope,
			graph.EdgeCaptures, graph.EdgeImports, graph.EdgeExports,
			graph.EdgeHasProperty,
		},
		Consumes:     []string{"MODULE"},
		ManagesBatch: true,
		Required:     true,
	}
}

func (p *Plugin) Execute(ctx context.Context, pc *plugin.Context) (plugin.Result, error) {
	builder := build.New(pc.Backend, pc.Diagnostics)
	filesBuilt := 0

	for _, svc := range pc.Manifest {
		if pc.ServiceFilter != "" && svc.Name != pc.ServiceFilter {
			continue
		}
		if svc.Type == "rust" {
			// Rust services are indexed but not walked.
			continue
		}
		files, err := p.detector.SourceFiles(svc, pc.Include, pc.Exclude)
		if err != nil {
			return plugin.Fail(err), nil
		}

		collections := p.parseAll(ctx, pc, files)

		linkBatch, err := pc.Backend.BeginBatch(ctx, "link:"+svc.ID)
		if err != nil {
			return plugin.Fail(err), nil
		}
		for i, coll := range collections {
			if coll == nil {
				continue
			}
			deferIndex := pc.DeferIndexing && i < len(collections)-1
			if err := builder.BuildFile(ctx, coll, deferIndex); err != nil {
				return plugin.Fail(err), nil
			}
			linkBatch.AddEdges(graph.Edge{Src: svc.ID, Dst: build.ModuleID(coll.File), Type: graph.EdgeContains})
			filesBuilt++
		}
		if err := pc.Backend.CommitBatch(ctx, linkBatch, false, nil); err != nil {
			_ = pc.Backend.AbortBatch(ctx, linkBatch)
			return plugin.Fail(err), nil
		}
		pc.Logger.Info("analyzed service", zap.String("service", svc.Name), zap.Int("files", len(files)))
	}

	if err := builder.ResolveCrossFile(ctx); err != nil {
		return plugin.Fail(err), nil
	}
	return plugin.Result{Success: true, Counts: map[string]int{"files": filesBuilt}}, nil
}

// parseAll reads and walks files concurrently, preserving input order in
// the result. A file that fails to parse yields a nil slot and an
// AnalysisError diagnostic; the rest of the batch continues.
func (p *Plugin) parseAll(ctx context.Context, pc *plugin.Context, files []string) []*ast.Collections {
	out := make([]*ast.Collections, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, file := range files {
		g.Go(func() error {
			src, err := os.ReadFile(file)
			if err != nil {
				pc.ReportIssue(diag.KindError, diag.CodeAnalysisFailed, err.Error(), file, 0, 0, "", nil)
				return nil
			}
			coll, err := ast.Parse(gctx, file, src)
			if err != nil {
				var aerr *ast.AnalysisError
				if errors.As(err, &aerr) {
					pc.ReportIssue(diag.KindError, diag.CodeAnalysisFailed, aerr.Message, aerr.File, 0, 0, "", nil)
					return nil
				}
				pc.ReportIssue(diag.KindError, diag.CodeAnalysisFailed, err.Error(), file, 0, 0, "", nil)
				return nil
			}
			out[i] = coll
			return nil
		})
	}
	_ = g.Wait()
	return out
}
