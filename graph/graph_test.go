package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespaceHelpers(t *testing.T) {
	assert.Equal(t, "issue", Namespace("issue:security"))
	assert.Equal(t, "", Namespace("FUNCTION"))
	assert.True(t, IsNamespaced("http:route"))
	assert.False(t, IsNamespaced("FUNCTION"))

	assert.True(t, IsIssue("issue:security"))
	assert.False(t, IsIssue("guarantee:queue"))
	assert.True(t, IsGuarantee("guarantee:api"))
	assert.Equal(t, "queue", GuaranteeCategory("guarantee:queue"))
}

func TestValidateNode(t *testing.T) {
	assert.NoError(t, ValidateNode(Node{Id: "x", Type: "FUNCTION"}))

	err := ValidateNode(Node{Type: "FUNCTION"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)

	assert.Error(t, ValidateNode(Node{Id: "x"}))
}

func TestValidateEdge(t *testing.T) {
	assert.NoError(t, ValidateEdge(Edge{Src: "a", Dst: "b", Type: EdgeCalls}))
	assert.NoError(t, ValidateEdge(Edge{Src: "a", Dst: "a", Type: EdgeReadsFrom}), "self-loops are legitimate")
	assert.Error(t, ValidateEdge(Edge{Dst: "b", Type: EdgeCalls}))
	assert.Error(t, ValidateEdge(Edge{Src: "a", Type: EdgeCalls}))
	assert.Error(t, ValidateEdge(Edge{Src: "a", Dst: "b"}))
}

func TestEdgeKeyIsPrimaryKey(t *testing.T) {
	a := Edge{Src: "x", Dst: "y", Type: EdgeCalls}
	b := Edge{Src: "x", Dst: "y", Type: EdgeCalls, Metadata: map[string]any{"callType": "callback"}}
	c := Edge{Src: "x", Dst: "y", Type: EdgeContains}
	assert.Equal(t, a.Key(), b.Key(), "metadata is not part of the key")
	assert.NotEqual(t, a.Key(), c.Key())
}
