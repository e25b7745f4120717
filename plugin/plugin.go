// Package plugin defines the phased plugin contract and the orchestrator
// that drives plugins through DISCOVERY, INDEXING, ANALYSIS, ENRICHMENT,
// and VALIDATION in dependency order.
package plugin

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/workspace"
)

// Phase is one of the five pipeline phases, executed strictly in order.
type Phase string

const (
	PhaseDiscovery  Phase = "DISCOVERY"
	PhaseIndexing   Phase = "INDEXING"
	PhaseAnalysis   Phase = "ANALYSIS"
	PhaseEnrichment Phase = "ENRICHMENT"
	PhaseValidation Phase = "VALIDATION"
)

// Phases lists the phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseDiscovery, PhaseIndexing, PhaseAnalysis, PhaseEnrichment, PhaseValidation}
}

// Metadata declares a plugin's identity, phase, and dependency surface.
// Produces/Consumes drive automatic dependency inference: any plugin
// producing an edge type another consumes runs before it.
type Metadata struct {
	Name         string
	Phase        Phase
	Priority     int // DISCOVERY tie-break only; higher runs first
	Produces     []string
	Consumes     []string
	Dependencies []string // explicit plugin names to run before this one
	ManagesBatch bool
	Required     bool // a failure aborts the phase instead of continuing
}

// Context is the per-run state handed to each plugin execution.
type Context struct {
	ProjectPath    string
	Backend        graph.Backend
	Logger         *zap.Logger
	Manifest       []workspace.Service
	Diagnostics    *diag.Collector
	DeferIndexing  bool
	Force          bool
	IndexOnly      bool
	ServiceFilter  string // restrict work to the named service, "" for all
	Include        []string
	Exclude        []string
	EmitIssueNodes bool

	phase  Phase
	plugin string
}

// ReportIssue records a diagnostic attributed to the running plugin and
// phase. Severity is one of diag.KindError/KindWarning/KindInfo.
func (c *Context) ReportIssue(severity diag.Kind, code, message, file string, line, column int, targetNodeID string, extra map[string]any) {
	c.Diagnostics.Report(diag.Diagnostic{
		Kind:         severity,
		Code:         code,
		Message:      message,
		File:         file,
		Line:         line,
		Column:       column,
		Plugin:       c.plugin,
		Phase:        string(c.phase),
		TargetNodeID: targetNodeID,
		Context:      extra,
	})
}

// Result is the structured envelope a plugin returns instead of throwing.
type Result struct {
	Success  bool
	Counts   map[string]int
	Metadata map[string]any
	Services []workspace.Service // DISCOVERY plugins attach their manifest here
	Errors   []error
}

// Ok is the empty success result.
func Ok() Result { return Result{Success: true} }

// Fail wraps errs into a failed result.
func Fail(errs ...error) Result { return Result{Success: false, Errors: errs} }

// Plugin is the unit the orchestrator schedules.
type Plugin interface {
	Metadata() Metadata
	Execute(ctx context.Context, pc *Context) (Result, error)
}

// Constructor builds a fresh plugin instance per run.
type Constructor func() Plugin

// Registry maps plugin names to constructors; config lists names, the
// registry resolves them.
type Registry struct {
	ctors map[string]Constructor
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor under name; re-registering a name is a
// programming error.
func (r *Registry) Register(name string, ctor Constructor) error {
	if _, dup := r.ctors[name]; dup {
		return fmt.Errorf("plugin: %q already registered", name)
	}
	r.ctors[name] = ctor
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for init-time wiring.
func (r *Registry) MustRegister(name string, ctor Constructor) {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
}

// New instantiates the named plugin, or fails if unknown.
func (r *Registry) New(name string) (Plugin, error) {
	ctor, ok := r.ctors[name]
	if !ok {
		return nil, fmt.Errorf("plugin: unknown plugin %q", name)
	}
	return ctor(), nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// defaultRegistry is the process-wide registry concrete plugins register
// into from init; the CLI resolves configured names against it.
var defaultRegistry = NewRegistry()

// Default returns the process-wide Registry.
func Default() *Registry { return defaultRegistry }

// sortDiscovery orders DISCOVERY plugins by descending priority, with
// registration order breaking priority ties.
func sortDiscovery(plugins []Plugin) {
	sort.SliceStable(plugins, func(i, j int) bool {
		return plugins[i].Metadata().Priority > plugins[j].Metadata().Priority
	})
}
