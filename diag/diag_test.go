package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDeduplicates(t *testing.T) {
	c := NewCollector()
	d := Diagnostic{Kind: KindWarning, Code: CodeWarnUnresolved, Message: "m", File: "a.ts", Line: 3}
	c.Report(d)
	c.Report(d)
	c.Report(d)
	assert.Len(t, c.All(), 1)
}

func TestCollectorDistinguishesByLocation(t *testing.T) {
	c := NewCollector()
	c.Report(Diagnostic{Kind: KindWarning, Code: CodeWarnUnresolved, Message: "m", File: "a.ts", Line: 3})
	c.Report(Diagnostic{Kind: KindWarning, Code: CodeWarnUnresolved, Message: "m", File: "a.ts", Line: 4})
	assert.Len(t, c.All(), 2)
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryCalls, CategoryOf(CodeWarnUnresolved))
	assert.Equal(t, CategoryConnectivity, CategoryOf(CodeDisconnectedNode))
	assert.Equal(t, Category(""), CategoryOf("NOT_A_REAL_CODE"))
}

func TestReporterText(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(FormatText)
	err := r.Write(&buf, []Diagnostic{{Kind: KindError, Code: CodeUnresolvedCall, Message: "boom", File: "a.ts", Line: 1}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "boom"))
}

func TestReporterJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(FormatJSON)
	require.NoError(t, r.Write(&buf, []Diagnostic{{Kind: KindInfo, Code: CodeUnusedImport, Message: "unused", File: "b.ts"}}))
	assert.Contains(t, buf.String(), `"code": "WARN_UNUSED_IMPORT"`)
}

func TestReporterCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(FormatCSV)
	require.NoError(t, r.Write(&buf, nil))
	assert.Contains(t, buf.String(), "kind,code,category")
}

func TestIssueNodeIDDeterministic(t *testing.T) {
	d := Diagnostic{Plugin: "p", File: "a.ts", Line: 1, Column: 2, Message: "m", Code: CodeUnresolvedCall}
	assert.Equal(t, IssueNodeID(d), IssueNodeID(d))
}
