// Package discovery implements the DISCOVERY-phase plugin that scans the
// project for services (workspace packages or the root itself) and emits
// the manifest every later phase consumes.
package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/plugin"
	"github.com/grafema-go/grafema/workspace"
)

func init() {
	plugin.Default().MustRegister("workspace-discovery", func() plugin.Plugin { return New() })
}

// Plugin discovers services via workspace detection, optionally seeded
// with explicitly configured services that bypass detection.
type Plugin struct {
	detector *workspace.Detector
	pinned   []workspace.Service
}

// New creates the discovery plugin.
func New() *Plugin {
	return &Plugin{detector: workspace.New()}
}

// WithServices pins explicitly configured services; detection still runs
// and detected services merge in after the pinned ones.
func (p *Plugin) WithServices(services []workspace.Service) *Plugin {
	p.pinned = services
	return p
}

func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "workspace-discovery",
		Phase:        plugin.PhaseDiscovery,
		Priority:     100,
		Produces:     []string{"SERVICE"},
		ManagesBatch: true,
		Required:     true,
	}
}

func (p *Plugin) Execute(ctx context.Context, pc *plugin.Context) (plugin.Result, error) {
	detected, err := p.detector.Discover(pc.ProjectPath)
	if err != nil {
		return plugin.Fail(err), nil
	}

	services := append(append([]workspace.Service(nil), p.pinned...), detected...)
	services = dedupeByID(services)
	if pc.ServiceFilter != "" {
		services = filterByName(services, pc.ServiceFilter)
	}

	batch, err := pc.Backend.BeginBatch(ctx, "discovery")
	if err != nil {
		return plugin.Fail(err), nil
	}
	for _, svc := range services {
		batch.AddNodes(graph.Node{
			Id:   svc.ID,
			Type: "SERVICE",
			Name: svc.Name,
			File: svc.Path,
			Attributes: map[string]any{
				"serviceType":   svc.Type,
				"entrypoint":    svc.Metadata.Entrypoint,
				"relativePath":  svc.Metadata.RelativePath,
				"workspaceType": svc.Metadata.WorkspaceType,
			},
		})
	}
	if err := pc.Backend.CommitBatch(ctx, batch, false, nil); err != nil {
		_ = pc.Backend.AbortBatch(ctx, batch)
		return plugin.Fail(err), nil
	}

	pc.Logger.Info("services discovered", zap.Int("count", len(services)))
	return plugin.Result{
		Success:  true,
		Counts:   map[string]int{"services": len(services)},
		Services: services,
	}, nil
}

func dedupeByID(services []workspace.Service) []workspace.Service {
	seen := make(map[string]bool, len(services))
	out := services[:0]
	for _, svc := range services {
		if seen[svc.ID] {
			continue
		}
		seen[svc.ID] = true
		out = append(out, svc)
	}
	return out
}

func filterByName(services []workspace.Service, name string) []workspace.Service {
	var out []workspace.Service
	for _, svc := range services {
		if svc.Name == name {
			out = append(out, svc)
		}
	}
	return out
}
