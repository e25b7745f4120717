package plugin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/graph/memstore"
	"github.com/grafema-go/grafema/plugin"
	"github.com/grafema-go/grafema/plugin/analysis"
	"github.com/grafema-go/grafema/plugin/discovery"
	"github.com/grafema-go/grafema/plugin/enrichment"
	"github.com/grafema-go/grafema/plugin/indexing"
	"github.com/grafema-go/grafema/plugin/validation"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func fullPipeline(backend graph.Backend) *plugin.Orchestrator {
	orch := plugin.NewOrchestrator(backend, nil)
	orch.Add(discovery.New())
	orch.Add(indexing.New())
	orch.Add(analysis.New().WithConcurrency(1))
	orch.Add(enrichment.New())
	orch.Add(validation.New())
	return orch
}

func TestPipelineAnalyzesProject(t *testing.T) {
	root := writeProject(t, map[string]string{
		"package.json": `{"name": "demo", "main": "index.js"}`,
		"index.js": `function greet(name) { console.log(name); }
items.forEach(greet);
`,
		"util.js": `export function helper() { return 1; }
`,
	})

	store := memstore.New()
	report, err := fullPipeline(store).Run(context.Background(), root, plugin.RunOptions{})
	require.NoError(t, err)

	require.Len(t, report.Manifest, 1)
	assert.Equal(t, "demo", report.Manifest[0].Name)

	ctx := context.Background()
	modules, err := store.GetAllNodes(ctx, graph.Filter{Type: "MODULE"})
	require.NoError(t, err)
	assert.Len(t, modules, 2, "one MODULE per source file")

	fns, err := store.GetAllNodes(ctx, graph.Filter{Type: "FUNCTION", Name: "greet"})
	require.NoError(t, err)
	require.Len(t, fns, 1)

	// The forEach call invokes greet through the HOF whitelist.
	calls, err := store.GetAllNodes(ctx, graph.Filter{Type: "METHOD_CALL", Name: "items.forEach"})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	edges, err := store.GetOutgoingEdges(ctx, calls[0].Id, []string{graph.EdgeCalls})
	require.NoError(t, err)
	var callback bool
	for _, e := range edges {
		if e.Dst == fns[0].Id && e.Metadata["callType"] == "callback" {
			callback = true
		}
	}
	assert.True(t, callback)
}

func TestPipelineEmptyFileStillGetsModuleNode(t *testing.T) {
	root := writeProject(t, map[string]string{
		"package.json": `{"name": "sparse"}`,
		"empty.js":     "\n",
	})

	store := memstore.New()
	_, err := fullPipeline(store).Run(context.Background(), root, plugin.RunOptions{IndexOnly: true})
	require.NoError(t, err)

	modules, err := store.GetAllNodes(context.Background(), graph.Filter{Type: "MODULE"})
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, filepath.Join(root, "empty.js"), modules[0].File)
}

func TestPipelineValidationReportsUnresolvedCall(t *testing.T) {
	root := writeProject(t, map[string]string{
		"package.json": `{"name": "warny"}`,
		"main.js":      "mysteryFunction();\n",
	})

	store := memstore.New()
	report, err := fullPipeline(store).Run(context.Background(), root, plugin.RunOptions{EmitIssueNodes: true})
	require.NoError(t, err)

	var warned bool
	for _, d := range report.Diagnostics {
		if d.Code == diag.CodeWarnUnresolved {
			warned = true
		}
	}
	assert.True(t, warned)

	issues, err := store.GetAllNodes(context.Background(), graph.Filter{Type: "issue:calls"})
	require.NoError(t, err)
	assert.NotEmpty(t, issues, "validation materializes issue nodes when asked")
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	root := writeProject(t, map[string]string{
		"package.json": `{"name": "stable"}`,
		"app.js": `function tick(n) { return n + 1; }
const next = tick(1);
`,
	})

	run := func() graph.Stats {
		store := memstore.New()
		_, err := fullPipeline(store).Run(context.Background(), root, plugin.RunOptions{})
		require.NoError(t, err)
		stats, err := store.GetStats(context.Background())
		require.NoError(t, err)
		return stats
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}
