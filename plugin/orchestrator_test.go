package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafema-go/grafema/graph/memstore"
	"github.com/grafema-go/grafema/workspace"
)

type scriptedPlugin struct {
	md      Metadata
	execute func(ctx context.Context, pc *Context) (Result, error)
}

func (s *scriptedPlugin) Metadata() Metadata { return s.md }

func (s *scriptedPlugin) Execute(ctx context.Context, pc *Context) (Result, error) {
	return s.execute(ctx, pc)
}

func TestRunFeedsManifestToLaterPhases(t *testing.T) {
	svc := workspace.Service{ID: "SERVICE:app", Name: "app", Path: "/tmp/app"}

	var seen []workspace.Service
	orch := NewOrchestrator(memstore.New(), nil)
	orch.Add(&scriptedPlugin{
		md: Metadata{Name: "disco", Phase: PhaseDiscovery},
		execute: func(context.Context, *Context) (Result, error) {
			return Result{Success: true, Services: []workspace.Service{svc}}, nil
		},
	})
	orch.Add(&scriptedPlugin{
		md: Metadata{Name: "indexer", Phase: PhaseIndexing},
		execute: func(_ context.Context, pc *Context) (Result, error) {
			seen = pc.Manifest
			return Ok(), nil
		},
	})

	report, err := orch.Run(context.Background(), "/tmp/app", RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.Manifest, 1)
	assert.Equal(t, []workspace.Service{svc}, seen)
}

func TestRunContinuesPastOptionalFailure(t *testing.T) {
	ran := false
	orch := NewOrchestrator(memstore.New(), nil)
	orch.Add(&scriptedPlugin{
		md: Metadata{Name: "flaky", Phase: PhaseValidation},
		execute: func(context.Context, *Context) (Result, error) {
			return Fail(errors.New("boom")), nil
		},
	})
	orch.Add(&scriptedPlugin{
		md: Metadata{Name: "steady", Phase: PhaseValidation},
		execute: func(context.Context, *Context) (Result, error) {
			ran = true
			return Ok(), nil
		},
	})

	report, err := orch.Run(context.Background(), ".", RunOptions{})
	require.NoError(t, err)
	assert.True(t, ran, "phase continues after an optional plugin fails")

	last := report.Phases[len(report.Phases)-1]
	require.Len(t, last.Errors, 1)
	var perr *PluginError
	require.ErrorAs(t, last.Errors[0], &perr)
	assert.Equal(t, "flaky", perr.Plugin)
}

func TestRunAbortsPhaseOnRequiredFailure(t *testing.T) {
	ran := false
	orch := NewOrchestrator(memstore.New(), nil)
	orch.Add(&scriptedPlugin{
		md: Metadata{Name: "critical", Phase: PhaseAnalysis, Required: true},
		execute: func(context.Context, *Context) (Result, error) {
			return Fail(errors.New("cannot continue")), nil
		},
	})
	orch.Add(&scriptedPlugin{
		md: Metadata{Name: "after", Phase: PhaseAnalysis, Dependencies: []string{"critical"}},
		execute: func(context.Context, *Context) (Result, error) {
			ran = true
			return Ok(), nil
		},
	})

	_, err := orch.Run(context.Background(), ".", RunOptions{})
	var perr *PluginError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "critical", perr.Plugin)
	assert.False(t, ran)
}

func TestRunIndexOnlySkipsLaterPhases(t *testing.T) {
	var phases []Phase
	orch := NewOrchestrator(memstore.New(), nil)
	for _, phase := range Phases() {
		orch.Add(&scriptedPlugin{
			md: Metadata{Name: "p-" + string(phase), Phase: phase},
			execute: func(_ context.Context, pc *Context) (Result, error) {
				phases = append(phases, pc.phase)
				return Ok(), nil
			},
		})
	}

	_, err := orch.Run(context.Background(), ".", RunOptions{IndexOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseDiscovery, PhaseIndexing}, phases)
}

func TestDiscoveryPriorityOrdersExecution(t *testing.T) {
	var order []string
	mk := func(name string, priority int) *scriptedPlugin {
		return &scriptedPlugin{
			md: Metadata{Name: name, Phase: PhaseDiscovery, Priority: priority},
			execute: func(context.Context, *Context) (Result, error) {
				order = append(order, name)
				return Ok(), nil
			},
		}
	}

	orch := NewOrchestrator(memstore.New(), nil)
	orch.Add(mk("low", 1))
	orch.Add(mk("high", 10))

	_, err := orch.Run(context.Background(), ".", RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestReportIssueAttributesPluginAndPhase(t *testing.T) {
	orch := NewOrchestrator(memstore.New(), nil)
	orch.Add(&scriptedPlugin{
		md: Metadata{Name: "checker", Phase: PhaseValidation},
		execute: func(_ context.Context, pc *Context) (Result, error) {
			pc.ReportIssue("warning", "WARN_UNRESOLVED_CALL", "x", "a.js", 3, 0, "", nil)
			return Ok(), nil
		},
	})

	report, err := orch.Run(context.Background(), ".", RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.Diagnostics, 1)
	d := report.Diagnostics[0]
	assert.Equal(t, "checker", d.Plugin)
	assert.Equal(t, "VALIDATION", d.Phase)
}

func TestRegistryResolvesByName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("x", func() Plugin { return fake("x", nil, nil) }))
	require.Error(t, reg.Register("x", func() Plugin { return fake("x", nil, nil) }))

	p, err := reg.New("x")
	require.NoError(t, err)
	assert.Equal(t, "x", p.Metadata().Name)

	_, err = reg.New("missing")
	assert.Error(t, err)
}
