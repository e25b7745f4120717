package id_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafema-go/grafema/id"
	"github.com/grafema-go/grafema/scope"
)

func TestComputeAndParseRoundTrip(t *testing.T) {
	raw := id.Compute("FUNCTION", "module.foo", "src/foo.js", "foo", 12, 3)
	assert.Equal(t, "FUNCTION|module.foo|src/foo.js|foo|12:3", raw)

	parsed, err := id.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "FUNCTION", parsed.Type)
	assert.Equal(t, "module.foo", parsed.Scope)
	assert.Equal(t, "src/foo.js", parsed.File)
	assert.Equal(t, "foo", parsed.Identifier)
	assert.Equal(t, 12, parsed.Line)
	assert.Equal(t, 3, parsed.Column)
}

func TestParseBadFormat(t *testing.T) {
	_, err := id.Parse("not-an-id")
	assert.ErrorIs(t, err, id.ErrBadFormat)

	_, err = id.Parse("FUNCTION|module.foo|src/foo.js|foo|notanumber")
	assert.ErrorIs(t, err, id.ErrBadFormat)
}

func TestComputeSemantic(t *testing.T) {
	tr := scope.New("src/foo.js", "module")
	tr.EnterScope("foo", scope.KindFunction)
	ctx := tr.GetContext()

	got := id.ComputeSemantic("FUNCTION", "bar", ctx, id.SemanticOptions{})
	assert.Equal(t, "src/foo.js->module.foo->FUNCTION->bar", got)

	withDiscrim := id.ComputeSemantic("CALL", "baz", ctx, id.SemanticOptions{Discriminator: 2, HasDiscrim: true})
	assert.Equal(t, "src/foo.js->module.foo->CALL->baz#2", withDiscrim)
}

func TestComputeNumericIDStableAndDistinct(t *testing.T) {
	a, err := id.ComputeNumericID("FUNCTION|module|src/foo.js|foo|1:1")
	require.NoError(t, err)
	b, err := id.ComputeNumericID("FUNCTION|module|src/foo.js|foo|1:1")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := id.ComputeNumericID("FUNCTION|module|src/foo.js|bar|1:1")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestExternalIDHelpers(t *testing.T) {
	assert.Equal(t, "EXTERNAL#example.com", id.ExternalDomainID("example.com"))
	assert.Equal(t, "EXTERNAL_MODULE:fs", id.ExternalModuleID("node:fs"))
	assert.Equal(t, "EXTERNAL_MODULE:lodash", id.ExternalModuleID("lodash"))
}
