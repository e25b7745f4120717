package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grafema-go/grafema/config"
	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/graph/badgerstore"
	"github.com/grafema-go/grafema/graph/memstore"
	"github.com/grafema-go/grafema/plugin"
	"github.com/grafema-go/grafema/plugin/discovery"
	"github.com/grafema-go/grafema/workspace"
)

var (
	flagForce      bool
	flagIndexOnly  bool
	flagService    string
	flagInMemory   bool
	flagEmitIssues bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagForce, "force", false, "clear the graph before analyzing")
	analyzeCmd.Flags().BoolVar(&flagIndexOnly, "index-only", false, "stop after the INDEXING phase")
	analyzeCmd.Flags().StringVar(&flagService, "service", "", "restrict analysis to one service")
	analyzeCmd.Flags().BoolVar(&flagInMemory, "in-memory", false, "use the in-memory backend instead of the on-disk store")
	analyzeCmd.Flags().BoolVar(&flagEmitIssues, "emit-issues", false, "materialize validation findings as issue nodes")
}

// openBackend picks the graph store for this invocation.
func openBackend(projectPath string) (graph.Backend, func() error, error) {
	if flagInMemory {
		return memstore.New(), func() error { return nil }, nil
	}
	store, err := badgerstore.Open(filepath.Join(projectPath, ".grafema", "graph"))
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// pinnedServices converts explicitly configured service entries into
// manifest services that bypass workspace detection.
func pinnedServices(projectPath string, entries []config.ServiceEntry) []workspace.Service {
	services := make([]workspace.Service, 0, len(entries))
	for _, e := range entries {
		p := e.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(projectPath, p)
		}
		services = append(services, workspace.Service{
			ID:   "SERVICE:" + e.Name,
			Name: e.Name,
			Path: p,
			Type: "javascript",
			Metadata: workspace.ServiceMetadata{
				Entrypoint:   e.EntryPoint,
				RelativePath: e.Path,
			},
		})
	}
	return services
}

// buildPipeline resolves configured plugin names against the registry
// and hands them to a fresh orchestrator. Explicitly configured services
// are pinned onto the standard discovery plugin.
func buildPipeline(backend graph.Backend, projectPath string, cfg *config.Config) (*plugin.Orchestrator, error) {
	orch := plugin.NewOrchestrator(backend, logger)
	pinned := pinnedServices(projectPath, cfg.Services)
	for _, phase := range []string{"discovery", "indexing", "analysis", "enrichment", "validation"} {
		for _, name := range cfg.PhasePlugins(phase) {
			if name == "workspace-discovery" && len(pinned) > 0 {
				orch.Add(discovery.New().WithServices(pinned))
				continue
			}
			p, err := plugin.Default().New(name)
			if err != nil {
				return nil, err
			}
			orch.Add(p)
		}
	}
	return orch, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	projectPath, err := filepath.Abs(flagProject)
	if err != nil {
		return err
	}

	cfg, warnings := config.Load(projectPath)
	for _, w := range warnings {
		logger.Warn("config", zap.String("detail", w.String()))
	}

	backend, closeBackend, err := openBackend(projectPath)
	if err != nil {
		return err
	}
	defer closeBackend()

	if flagForce {
		if err := backend.Clear(ctx); err != nil {
			return err
		}
	}

	orch, err := buildPipeline(backend, projectPath, cfg)
	if err != nil {
		return err
	}

	report, runErr := orch.Run(ctx, projectPath, plugin.RunOptions{
		Force:          flagForce,
		IndexOnly:      flagIndexOnly,
		ServiceFilter:  flagService,
		Include:        cfg.Include,
		Exclude:        cfg.Exclude,
		EmitIssueNodes: flagEmitIssues,
	})

	writeDiagnostics(projectPath, report.Diagnostics)
	printSummary(report)

	if runErr != nil {
		return runErr
	}

	stats, err := backend.GetStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("graph: %d nodes, %d edges\n", stats.NodeCount, stats.EdgeCount)
	return nil
}

// writeDiagnostics persists diagnostics.log under .grafema.
func writeDiagnostics(projectPath string, diagnostics []diag.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}
	logPath := filepath.Join(projectPath, ".grafema", "diagnostics.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		logger.Warn("diagnostics log", zap.Error(err))
		return
	}
	if err := diag.WriteLog(logPath, diagnostics); err != nil {
		logger.Warn("diagnostics log", zap.Error(err))
	}
}

// printSummary emits per-category diagnostic counts.
func printSummary(report *plugin.RunReport) {
	byCategory := make(map[diag.Category]int)
	for _, d := range report.Diagnostics {
		byCategory[d.Category()]++
	}
	for _, cat := range []diag.Category{diag.CategoryConnectivity, diag.CategoryCalls, diag.CategoryDataflow, diag.CategoryImports} {
		if n := byCategory[cat]; n > 0 {
			fmt.Printf("%s: %d finding(s)\n", cat, n)
		}
	}
	if n := byCategory[""]; n > 0 {
		fmt.Printf("other: %d finding(s)\n", n)
	}
}
