package plugin

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/workspace"
)

// PluginError wraps a plugin failure: the plugin either returned an error,
// or a Result with Success=false.
type PluginError struct {
	Plugin string
	Phase  Phase
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin: %s (%s): %v", e.Plugin, e.Phase, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }

// RunOptions carry the per-run flags the CLI forwards.
type RunOptions struct {
	Force          bool
	IndexOnly      bool
	ServiceFilter  string
	Include        []string
	Exclude        []string
	EmitIssueNodes bool
}

// PhaseReport summarizes one executed phase.
type PhaseReport struct {
	Phase   Phase
	Order   []string
	Results map[string]Result
	Errors  []error
}

// RunReport is the orchestrator's overall outcome.
type RunReport struct {
	Phases      []PhaseReport
	Manifest    []workspace.Service
	Diagnostics []diag.Diagnostic
}

// Orchestrator executes registered plugins phase by phase. Within a phase
// plugins run sequentially in toposorted order; across phases there is a
// strict happens-before.
type Orchestrator struct {
	backend     graph.Backend
	logger      *zap.Logger
	diagnostics *diag.Collector
	plugins     map[Phase][]Plugin
}

// NewOrchestrator creates an Orchestrator over a backend. A nil logger
// defaults to zap.NewNop().
func NewOrchestrator(backend graph.Backend, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		backend:     backend,
		logger:      logger,
		diagnostics: diag.NewCollector(),
		plugins:     make(map[Phase][]Plugin),
	}
}

// Add registers a plugin instance for its declared phase, preserving
// registration order within the phase.
func (o *Orchestrator) Add(p Plugin) {
	phase := p.Metadata().Phase
	o.plugins[phase] = append(o.plugins[phase], p)
}

// AddFromRegistry instantiates each named plugin and registers it.
func (o *Orchestrator) AddFromRegistry(reg *Registry, names []string) error {
	for _, name := range names {
		p, err := reg.New(name)
		if err != nil {
			return err
		}
		o.Add(p)
	}
	return nil
}

// Diagnostics exposes the run's collector.
func (o *Orchestrator) Diagnostics() *diag.Collector { return o.diagnostics }

// Run drives every phase in order against projectPath. DISCOVERY results
// seed the manifest consumed by all later phases. A CycleError in any
// phase is fatal to that phase; a failed plugin aborts the phase only
// when marked Required.
func (o *Orchestrator) Run(ctx context.Context, projectPath string, opts RunOptions) (*RunReport, error) {
	report := &RunReport{}

	for _, phase := range Phases() {
		if opts.IndexOnly && (phase == PhaseAnalysis || phase == PhaseEnrichment || phase == PhaseValidation) {
			continue
		}
		pr, err := o.runPhase(ctx, phase, projectPath, report.Manifest, opts)
		report.Phases = append(report.Phases, pr)
		if err != nil {
			report.Diagnostics = o.diagnostics.All()
			return report, err
		}
		if phase == PhaseDiscovery {
			for _, res := range pr.Results {
				report.Manifest = append(report.Manifest, res.Services...)
			}
			o.logger.Info("discovery complete", zap.Int("services", len(report.Manifest)))
		}
	}

	report.Diagnostics = o.diagnostics.All()
	return report, nil
}

func (o *Orchestrator) runPhase(ctx context.Context, phase Phase, projectPath string, manifest []workspace.Service, opts RunOptions) (PhaseReport, error) {
	pr := PhaseReport{Phase: phase, Results: make(map[string]Result)}

	phasePlugins := append([]Plugin(nil), o.plugins[phase]...)
	if phase == PhaseDiscovery {
		sortDiscovery(phasePlugins)
	}

	ordered, err := Order(phase, phasePlugins)
	if err != nil {
		pr.Errors = append(pr.Errors, err)
		return pr, err
	}

	for _, p := range ordered {
		md := p.Metadata()
		pr.Order = append(pr.Order, md.Name)
		pc := &Context{
			ProjectPath:    projectPath,
			Backend:        o.backend,
			Logger:         o.logger.With(zap.String("plugin", md.Name), zap.String("phase", string(phase))),
			Manifest:       manifest,
			Diagnostics:    o.diagnostics,
			DeferIndexing:  md.ManagesBatch,
			Force:          opts.Force,
			IndexOnly:      opts.IndexOnly,
			ServiceFilter:  opts.ServiceFilter,
			Include:        opts.Include,
			Exclude:        opts.Exclude,
			EmitIssueNodes: opts.EmitIssueNodes,
			phase:          phase,
			plugin:         md.Name,
		}

		res, execErr := p.Execute(ctx, pc)
		if execErr == nil && !res.Success {
			execErr = errors.Join(res.Errors...)
			if execErr == nil {
				execErr = errors.New("plugin reported failure")
			}
		}
		pr.Results[md.Name] = res

		if execErr != nil {
			perr := &PluginError{Plugin: md.Name, Phase: phase, Err: execErr}
			pr.Errors = append(pr.Errors, perr)
			o.logger.Warn("plugin failed", zap.String("plugin", md.Name), zap.Error(execErr))
			if md.Required {
				return pr, perr
			}
			continue
		}

		if md.ManagesBatch {
			if err := o.backend.RebuildIndexes(ctx); err != nil {
				o.logger.Warn("rebuild indexes", zap.Error(err))
			}
		}
	}
	return pr, nil
}
