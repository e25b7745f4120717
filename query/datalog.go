package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	mast "github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"github.com/grafema-go/grafema/graph"
)

// Binding is one variable assignment in a query result row; Value is a
// node id or a literal rendered as text.
type Binding struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BindingSet is one result row.
type BindingSet struct {
	Bindings []Binding `json:"bindings"`
}

// TimeoutError is the structured form of a Datalog evaluation timeout.
type TimeoutError struct {
	Query   string
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("query: datalog timed out after %v: %s", e.Elapsed, e.Query)
}

// graphDecls declares the two extensional predicates every graph load
// asserts: node(Id, Type, Name, File) and edge(Src, Dst, Type).
const graphDecls = "Decl node(Id, Type, Name, File).\nDecl edge(Src, Dst, Type).\n"

var (
	nodePred = mast.PredicateSym{Symbol: "node", Arity: 4}
	edgePred = mast.PredicateSym{Symbol: "edge", Arity: 3}
)

// Datalog evaluates Mangle queries over node/edge facts asserted from a
// graph.Backend.
type Datalog struct {
	store   factstore.FactStore
	timeout time.Duration
}

// NewDatalog creates an empty evaluator with a 30s default timeout.
func NewDatalog() *Datalog {
	return &Datalog{
		store:   factstore.NewSimpleInMemoryStore(),
		timeout: 30 * time.Second,
	}
}

// WithTimeout overrides the evaluation deadline.
func (d *Datalog) WithTimeout(timeout time.Duration) *Datalog {
	d.timeout = timeout
	return d
}

// LoadGraph replaces the fact store with the backend's current nodes and
// edges.
func (d *Datalog) LoadGraph(ctx context.Context, backend graph.Backend) error {
	store := factstore.NewSimpleInMemoryStore()

	stream, err := backend.QueryNodes(ctx, graph.Filter{})
	if err != nil {
		return err
	}
	defer stream.Close()
	var ids []string
	for stream.Next(ctx) {
		n := stream.Node()
		store.Add(mast.Atom{
			Predicate: nodePred,
			Args:      []mast.BaseTerm{mast.String(n.Id), mast.String(n.Type), mast.String(n.Name), mast.String(n.File)},
		})
		ids = append(ids, n.Id)
	}
	if err := stream.Err(); err != nil {
		return err
	}

	for _, id := range ids {
		edges, err := backend.GetOutgoingEdges(ctx, id, nil)
		if err != nil {
			return err
		}
		for _, e := range edges {
			store.Add(mast.Atom{
				Predicate: edgePred,
				Args:      []mast.BaseTerm{mast.String(e.Src), mast.String(e.Dst), mast.String(e.Type)},
			})
		}
	}

	d.store = store
	return nil
}

// Query evaluates one query string. A bare atom (`edge(X, Y, "CALLS")`)
// is matched against the asserted facts; a program containing rules is
// evaluated first and the last rule's head predicate becomes the goal.
func (d *Datalog) Query(ctx context.Context, raw string) ([]BindingSet, error) {
	if d.timeout > 0 {
		if _, has := ctx.Deadline(); !has {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
	}
	start := time.Now()

	resultCh := make(chan []BindingSet, 1)
	errCh := make(chan error, 1)
	go func() {
		rows, err := d.evaluate(raw)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- rows
	}()

	select {
	case rows := <-resultCh:
		return rows, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, &TimeoutError{Query: raw, Elapsed: time.Since(start)}
	}
}

func (d *Datalog) evaluate(raw string) ([]BindingSet, error) {
	if strings.Contains(raw, ":-") {
		return d.evaluateProgram(raw)
	}
	goal, err := parseGoal(raw)
	if err != nil {
		return nil, err
	}
	return d.match(goal)
}

// evaluateProgram runs a rule program against the fact store and queries
// the head predicate of its final rule.
func (d *Datalog) evaluateProgram(raw string) ([]BindingSet, error) {
	unit, err := parse.Unit(strings.NewReader(graphDecls + raw))
	if err != nil {
		return nil, fmt.Errorf("query: parse datalog program: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("query: analyze datalog program: %w", err)
	}
	if err := mengine.EvalProgram(info, d.store); err != nil {
		return nil, fmt.Errorf("query: evaluate datalog program: %w", err)
	}

	var goal *mast.Atom
	for _, clause := range unit.Clauses {
		if clause.Premises != nil {
			head := clause.Head
			goal = &head
		}
	}
	if goal == nil {
		return nil, fmt.Errorf("query: program has no rule to query")
	}
	return d.match(freshGoal(*goal))
}

// parseGoal accepts `atom`, `?atom`, and `atom.` shapes.
func parseGoal(raw string) (mast.Atom, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "?")
	clean = strings.TrimSuffix(strings.TrimSpace(clean), ".")
	atom, err := parse.Atom(clean)
	if err != nil {
		return mast.Atom{}, fmt.Errorf("query: parse goal %q: %w", raw, err)
	}
	return atom, nil
}

// freshGoal rewrites a rule head into an all-variables query atom so the
// caller sees every column of the derived relation.
func freshGoal(head mast.Atom) mast.Atom {
	args := make([]mast.BaseTerm, len(head.Args))
	for i, arg := range head.Args {
		if v, ok := arg.(mast.Variable); ok {
			args[i] = v
			continue
		}
		args[i] = mast.Variable{Symbol: fmt.Sprintf("X%d", i)}
	}
	return mast.Atom{Predicate: head.Predicate, Args: args}
}

// match unifies the goal atom against every stored fact of its predicate.
func (d *Datalog) match(goal mast.Atom) ([]BindingSet, error) {
	var rows []BindingSet
	err := d.store.GetFacts(mast.NewQuery(goal.Predicate), func(fact mast.Atom) error {
		row, ok := unify(goal, fact)
		if !ok {
			return nil
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// unify matches a goal's args against one ground fact, producing the
// variable bindings; constants must match exactly, and a variable bound
// twice must bind to the same value.
func unify(goal, fact mast.Atom) (BindingSet, bool) {
	if len(goal.Args) != len(fact.Args) {
		return BindingSet{}, false
	}
	bound := make(map[string]string)
	var row BindingSet
	for i, arg := range goal.Args {
		value := termText(fact.Args[i])
		switch t := arg.(type) {
		case mast.Variable:
			if t.Symbol == "_" {
				continue
			}
			if prev, seen := bound[t.Symbol]; seen {
				if prev != value {
					return BindingSet{}, false
				}
				continue
			}
			bound[t.Symbol] = value
			row.Bindings = append(row.Bindings, Binding{Name: t.Symbol, Value: value})
		case mast.Constant:
			if termText(t) != value {
				return BindingSet{}, false
			}
		default:
			return BindingSet{}, false
		}
	}
	return row, true
}

// termText renders a base term as the string form bindings carry.
func termText(term mast.BaseTerm) string {
	if c, ok := term.(mast.Constant); ok {
		switch c.Type {
		case mast.StringType, mast.NameType, mast.BytesType:
			return c.Symbol
		case mast.NumberType:
			return fmt.Sprintf("%d", c.NumValue)
		}
	}
	return term.String()
}
