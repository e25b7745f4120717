package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	md    Metadata
	calls *[]string
}

func (f *fakePlugin) Metadata() Metadata { return f.md }

func (f *fakePlugin) Execute(context.Context, *Context) (Result, error) {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.md.Name)
	}
	return Ok(), nil
}

func fake(name string, produces, consumes []string, deps ...string) *fakePlugin {
	return &fakePlugin{md: Metadata{
		Name:         name,
		Phase:        PhaseEnrichment,
		Produces:     produces,
		Consumes:     consumes,
		Dependencies: deps,
	}}
}

func names(plugins []Plugin) []string {
	out := make([]string, len(plugins))
	for i, p := range plugins {
		out[i] = p.Metadata().Name
	}
	return out
}

func TestOrderEmpty(t *testing.T) {
	ordered, err := Order(PhaseAnalysis, nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

func TestOrderInfersFromProducesConsumes(t *testing.T) {
	producer := fake("producer", []string{"CALLS"}, nil)
	consumer := fake("consumer", nil, []string{"CALLS"})

	ordered, err := Order(PhaseEnrichment, []Plugin{consumer, producer})
	require.NoError(t, err)
	assert.Equal(t, []string{"producer", "consumer"}, names(ordered))
}

func TestOrderRegistrationOrderTieBreak(t *testing.T) {
	a := fake("a", nil, nil)
	b := fake("b", nil, nil)
	c := fake("c", nil, nil)

	ordered, err := Order(PhaseEnrichment, []Plugin{b, a, c})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, names(ordered))
}

func TestOrderExplicitDependenciesMerge(t *testing.T) {
	first := fake("first", nil, nil)
	second := fake("second", nil, nil, "first")

	ordered, err := Order(PhaseEnrichment, []Plugin{second, first})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, names(ordered))
}

func TestOrderSelfReferenceIgnored(t *testing.T) {
	rewirer := fake("rewirer", []string{"CALLS"}, []string{"CALLS"})

	ordered, err := Order(PhaseEnrichment, []Plugin{rewirer})
	require.NoError(t, err)
	assert.Equal(t, []string{"rewirer"}, names(ordered))
}

func TestOrderCrossPhaseDependencyIgnored(t *testing.T) {
	p := fake("p", nil, nil, "not-in-this-phase")

	ordered, err := Order(PhaseEnrichment, []Plugin{p})
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, names(ordered))
}

func TestOrderCycleRejectedBeforeExecution(t *testing.T) {
	a := fake("A", []string{"E"}, []string{"F"})
	b := fake("B", []string{"F"}, []string{"E"})

	_, err := Order(PhaseEnrichment, []Plugin{a, b})
	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	require.GreaterOrEqual(t, len(cerr.Cycle), 3)
	assert.Equal(t, cerr.Cycle[0], cerr.Cycle[len(cerr.Cycle)-1], "cycle report closes on its start")
	assert.Subset(t, []string{"A", "B"}, cerr.Cycle[:len(cerr.Cycle)-1])
}

func TestOrderDiamond(t *testing.T) {
	base := fake("base", []string{"X"}, nil)
	left := fake("left", []string{"Y"}, []string{"X"})
	right := fake("right", []string{"Z"}, []string{"X"})
	top := fake("top", nil, []string{"Y", "Z"})

	ordered, err := Order(PhaseEnrichment, []Plugin{top, right, left, base})
	require.NoError(t, err)

	pos := map[string]int{}
	for i, n := range names(ordered) {
		pos[n] = i
	}
	assert.Less(t, pos["base"], pos["left"])
	assert.Less(t, pos["base"], pos["right"])
	assert.Less(t, pos["left"], pos["top"])
	assert.Less(t, pos["right"], pos["top"])
}
