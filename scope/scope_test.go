package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafema-go/grafema/scope"
)

func TestEnterExitScope(t *testing.T) {
	tr := scope.New("src/foo.js", "module")
	assert.Equal(t, 1, tr.Depth())

	tr.EnterScope("foo", scope.KindFunction)
	assert.Equal(t, 2, tr.Depth())
	assert.Equal(t, "module.foo", tr.GetContext().ScopePath)

	require.NoError(t, tr.ExitScope("foo", scope.KindFunction))
	assert.Equal(t, 1, tr.Depth())
}

func TestExitScopeMismatch(t *testing.T) {
	tr := scope.New("src/foo.js", "module")
	tr.EnterScope("foo", scope.KindFunction)

	err := tr.ExitScope("bar", scope.KindFunction)
	require.Error(t, err)
	var mismatch *scope.MismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestGetItemCounterIsPerScopeMonotonic(t *testing.T) {
	tr := scope.New("src/foo.js", "module")
	tr.EnterScope("foo", scope.KindFunction)

	assert.Equal(t, 0, tr.GetItemCounter("call", "bar"))
	assert.Equal(t, 1, tr.GetItemCounter("call", "bar"))
	assert.Equal(t, 0, tr.GetItemCounter("call", "baz"))

	require.NoError(t, tr.ExitScope("foo", scope.KindFunction))
	tr.EnterScope("foo2", scope.KindFunction)
	assert.Equal(t, 0, tr.GetItemCounter("call", "bar"))
}

func TestGetSiblingIndexAndAnonymousName(t *testing.T) {
	tr := scope.New("src/foo.js", "module")

	a := tr.GetSiblingIndex(scope.KindArrow)
	b := tr.GetSiblingIndex(scope.KindArrow)
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, "anonymous[1]", scope.AnonymousName(b))
}
