// Package indexing implements the INDEXING-phase plugin: one MODULE node
// per analyzable source file, contained by its service.
package indexing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/grafema-go/grafema/build"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/plugin"
	"github.com/grafema-go/grafema/workspace"
)

func init() {
	plugin.Default().MustRegister("module-indexer", func() plugin.Plugin { return New() })
}

// Plugin creates the MODULE skeleton the ANALYSIS phase hangs everything
// else off. A file with no analyzable constructs still gets its MODULE
// node here.
type Plugin struct {
	detector *workspace.Detector
}

// New creates the indexing plugin.
func New() *Plugin {
	return &Plugin{detector: workspace.New()}
}

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "module-indexer",
		Phase:        plugin.PhaseIndexing,
		Produces:     []string{"MODULE", graph.EdgeContains},
		ManagesBatch: true,
	}
}

func (p *Plugin) Execute(ctx context.Context, pc *plugin.Context) (plugin.Result, error) {
	total := 0
	for _, svc := range pc.Manifest {
		if pc.ServiceFilter != "" && svc.Name != pc.ServiceFilter {
			continue
		}
		files, err := p.detector.SourceFiles(svc, pc.Include, pc.Exclude)
		if err != nil {
			return plugin.Fail(err), nil
		}

		// The batch source must not equal svc.Path: service nodes carry
		// the directory as their File and are cleared explicitly by id,
		// never by file touch.
		batch, err := pc.Backend.BeginBatch(ctx, "index:"+svc.ID)
		if err != nil {
			return plugin.Fail(err), nil
		}
		for _, file := range files {
			moduleType := "MODULE"
			if strings.HasSuffix(file, ".rs") {
				moduleType = "RUST_MODULE"
			}
			moduleID := build.ModuleID(file)
			batch.AddNodes(graph.Node{
				Id:   moduleID,
				Type: moduleType,
				Name: file,
				File: file,
				Attributes: map[string]any{
					"service": svc.ID,
				},
			})
			batch.AddEdges(graph.Edge{Src: svc.ID, Dst: moduleID, Type: graph.EdgeContains})
		}
		if err := pc.Backend.CommitBatch(ctx, batch, true, nil); err != nil {
			_ = pc.Backend.AbortBatch(ctx, batch)
			return plugin.Fail(err), nil
		}
		pc.Logger.Info("indexed service", zap.String("service", svc.Name), zap.Int("files", len(files)))
		total += len(files)
	}
	return plugin.Result{Success: true, Counts: map[string]int{"modules": total}}, nil
}
