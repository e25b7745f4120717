package ast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseJS(t *testing.T, src string) *Collections {
	t.Helper()
	coll, err := Parse(context.Background(), "mod.js", []byte(src))
	require.NoError(t, err)
	return coll
}

func TestWalkFunctionDeclaration(t *testing.T) {
	coll := parseJS(t, `function add(a, b) {
  return a + b;
}`)
	require.Len(t, coll.Functions, 1)
	fn := coll.Functions[0]
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, "declaration", fn.Kind)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
	require.Len(t, coll.Returns, 1)
}

func TestWalkArrowAnonymousNaming(t *testing.T) {
	coll := parseJS(t, `const handlers = [() => 1, () => 2];`)
	require.Len(t, coll.Functions, 2)
	assert.Equal(t, "anonymous[0]", coll.Functions[0].Name)
	assert.Equal(t, "anonymous[1]", coll.Functions[1].Name)
}

func TestWalkDestructuring(t *testing.T) {
	coll := parseJS(t, `const { a, b: renamed, ...rest } = obj;`)
	names := map[string]VariableDeclaration{}
	for _, v := range coll.VariableDeclarations {
		names[v.Name] = v
	}
	require.Contains(t, names, "a")
	require.Contains(t, names, "renamed")
	require.Contains(t, names, "rest")
	assert.True(t, names["rest"].IsRest)
	assert.Equal(t, []string{"b"}, names["renamed"].PropertyPath)
}

func TestWalkArrayDestructuring(t *testing.T) {
	coll := parseJS(t, `const [first, , third] = arr;`)
	var names []string
	for _, v := range coll.VariableDeclarations {
		names = append(names, v.Name)
	}
	assert.Contains(t, names, "first")
	assert.Contains(t, names, "third")
}

func TestWalkMethodCallAndPromiseChain(t *testing.T) {
	coll := parseJS(t, `fetchData().then(handleOk).catch(handleErr);`)
	require.Len(t, coll.CallSites, 1)
	assert.Equal(t, "fetchData", coll.CallSites[0].Callee)
	require.Len(t, coll.MethodCalls, 2)
	var methods []string
	for _, mc := range coll.MethodCalls {
		methods = append(methods, mc.Method)
	}
	assert.ElementsMatch(t, []string{"then", "catch"}, methods)
	require.Len(t, coll.PromiseResolutions, 1)
	require.Len(t, coll.PromiseRejections, 1)
}

func TestWalkObjectAssignMutation(t *testing.T) {
	coll := parseJS(t, `Object.assign(target, source1, source2);`)
	require.Len(t, coll.ObjectMutations, 1)
	m := coll.ObjectMutations[0]
	assert.True(t, m.IsAssign)
	assert.Equal(t, "target", m.BaseObjectName)
	assert.Len(t, m.Sources, 2)
}

func TestWalkArrayMutationSkipsSpliceControlArgs(t *testing.T) {
	coll := parseJS(t, `items.splice(1, 2, "x", "y");`)
	require.Len(t, coll.ArrayMutations, 1)
	m := coll.ArrayMutations[0]
	assert.Equal(t, "splice", m.Method)
	assert.Equal(t, "items", m.BaseObjectName)
	assert.Len(t, m.Args, 2)
}

func TestWalkObjectPropertyMutation(t *testing.T) {
	coll := parseJS(t, `obj.count = 1;`)
	require.Len(t, coll.ObjectMutations, 1)
	require.Len(t, coll.PropertyAssignments, 1)
	assert.Equal(t, "obj", coll.ObjectMutations[0].BaseObjectName)
	assert.Equal(t, "count", coll.ObjectMutations[0].PropertyName)
}

func TestWalkClassWithThisMethodCall(t *testing.T) {
	coll := parseJS(t, `class Widget {
  render() {
    this.update();
  }
}`)
	require.Len(t, coll.Classes, 1)
	assert.Equal(t, "Widget", coll.Classes[0].Name)
	require.Len(t, coll.MethodCalls, 1)
	assert.True(t, coll.MethodCalls[0].IsThis)
	assert.Equal(t, "Widget", coll.MethodCalls[0].ClassName)
}

func TestWalkControlFlow(t *testing.T) {
	coll := parseJS(t, `if (x) {
  doThing();
} else {
  doOther();
}`)
	require.Len(t, coll.Branches, 1)
	assert.True(t, coll.Branches[0].HasElse)
}

func TestWalkSwitchCases(t *testing.T) {
	coll := parseJS(t, `switch (x) {
  case 1:
    break;
  default:
    break;
}`)
	require.Len(t, coll.Cases, 2)
	assert.False(t, coll.Cases[0].IsDefault)
	assert.True(t, coll.Cases[1].IsDefault)
}

func TestWalkTryCatch(t *testing.T) {
	coll := parseJS(t, `try {
  risky();
} catch (err) {
  handle(err);
}`)
	require.Len(t, coll.Catches, 1)
	assert.Equal(t, "err", coll.Catches[0].ParamName)
}

func TestWalkImportsAndExports(t *testing.T) {
	coll := parseJS(t, `import Default, { named as alias } from "./mod";
export default Default;
export { alias };`)
	require.Len(t, coll.Imports, 2)
	byLocal := map[string]Import{}
	for _, imp := range coll.Imports {
		byLocal[imp.LocalName] = imp
	}
	require.Contains(t, byLocal, "Default")
	assert.True(t, byLocal["Default"].IsDefault)
	require.Contains(t, byLocal, "alias")
	assert.Equal(t, "named", byLocal["alias"].ImportedName)

	require.Len(t, coll.Exports, 2)
}

func TestWalkObjectAndArrayLiterals(t *testing.T) {
	coll := parseJS(t, `const point = { x: 1, y: 2 };
const list = [1, 2, 3];`)
	require.Len(t, coll.ObjectLiterals, 1)
	require.Len(t, coll.ObjectProperties, 2)
	require.Len(t, coll.ArrayLiterals, 1)
	require.Len(t, coll.ArrayElements, 3)
}

func TestWalkUpdateExpression(t *testing.T) {
	coll := parseJS(t, `counter++;`)
	require.Len(t, coll.UpdateExpressions, 1)
	assert.Equal(t, "counter", coll.UpdateExpressions[0].TargetName)
	assert.Equal(t, "++", coll.UpdateExpressions[0].Operator)
	assert.False(t, coll.UpdateExpressions[0].IsPrefix)
}

func TestWalkIgnorePragmaSuppression(t *testing.T) {
	coll := parseJS(t, `// grafema-ignore NO_UNUSED_VAR
const unused = 1;`)
	assert.True(t, coll.IsSuppressed("NO_UNUSED_VAR", 2))
	assert.False(t, coll.IsSuppressed("NO_UNUSED_VAR", 99))
}
