package build

import (
	"github.com/grafema-go/grafema/ast"
	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
)

func (fb *fileBuilder) buildCalls() {
	for _, cs := range fb.coll.CallSites {
		attrs := map[string]any{"callee": cs.Callee, "argCount": cs.ArgCount}
		if fb.coll.IsSuppressed(diag.CodeWarnUnresolved, cs.Pos.Line) {
			attrs["suppressed:"+diag.CodeWarnUnresolved] = true
		}
		fb.addNode(graph.Node{
			Id: cs.ID, Type: TypeCallSite, Name: cs.Callee, File: fb.coll.File, Line: cs.Pos.Line, Column: cs.Pos.Column,
			Attributes: attrs,
		})
		fb.callByPos[cs.Pos] = cs.ID
		fb.addEdge(fb.scopeOwner(cs.ScopeID), cs.ID, graph.EdgeContains, nil)
		fb.ownerIsCallbackInvoker[cs.ID] = ast.IsCallbackInvoker(cs.Callee)
		fb.classifyBareCall(cs)
	}

	for _, mc := range fb.coll.MethodCalls {
		attrs := map[string]any{"object": mc.Object, "method": mc.Method, "isThis": mc.IsThis, "argCount": mc.ArgCount}
		if fb.coll.IsSuppressed(diag.CodeWarnUnresolved, mc.Pos.Line) {
			attrs["suppressed:"+diag.CodeWarnUnresolved] = true
		}
		switch mc.Method {
		case "then":
			attrs["promiseRole"] = "resolution"
		case "catch":
			attrs["promiseRole"] = "rejection"
		}
		fb.addNode(graph.Node{
			Id: mc.ID, Type: TypeMethodCall, Name: mc.Object + "." + mc.Method, File: fb.coll.File, Line: mc.Pos.Line, Column: mc.Pos.Column,
			Attributes: attrs,
		})
		fb.callByPos[mc.Pos] = mc.ID
		fb.addEdge(fb.scopeOwner(mc.ScopeID), mc.ID, graph.EdgeContains, nil)
		fb.ownerIsCallbackInvoker[mc.ID] = ast.IsCallbackInvoker(mc.Method)
		if mc.ClassName != "" {
			fb.ownerClassOfCall[mc.ID] = mc.ClassName
		}
		fb.classifyMethodCall(mc)
	}

	for _, cc := range fb.coll.ConstructorCalls {
		fb.addNode(graph.Node{
			Id: cc.ID, Type: TypeConstructorCall, Name: cc.Callee, File: fb.coll.File, Line: cc.Pos.Line, Column: cc.Pos.Column,
			Attributes: map[string]any{"callee": cc.Callee},
		})
		fb.addEdge(fb.scopeOwner(cc.ScopeID), cc.ID, graph.EdgeContains, nil)
		fb.classifyConstructorCall(cc)
	}

	byOwner := make(map[string][]ast.CallArgument)
	for _, arg := range fb.coll.CallArguments {
		byOwner[arg.OwnerID] = append(byOwner[arg.OwnerID], arg)
	}
	for owner, args := range byOwner {
		fb.linkArguments(owner, args, fb.ownerIsCallbackInvoker[owner])
	}
}

// resolveArgument resolves a CallArgument to the node id a
// PASSES_ARGUMENT/FLOWS_INTO edge should target, reusing the typing
// scheme shared by call arguments, return/yield values, and mutation
// values.
func (fb *fileBuilder) resolveArgument(arg ast.CallArgument) (string, bool) {
	switch arg.Kind {
	case ast.ArgFunction:
		if id, ok := fb.funcByPos[arg.Pos]; ok {
			return id, true
		}
	case ast.ArgLiteral:
		if id, ok := fb.litByPos[arg.Pos]; ok {
			return id, true
		}
	case ast.ArgObjectLiteral:
		if id, ok := fb.objLitByPos[arg.Pos]; ok {
			return id, true
		}
	case ast.ArgArrayLiteral:
		if id, ok := fb.arrLitByPos[arg.Pos]; ok {
			return id, true
		}
	case ast.ArgCall:
		if id, ok := fb.callByPos[arg.Pos]; ok {
			return id, true
		}
	case ast.ArgVariable:
		if id, ok := fb.resolveIdentTarget(arg.Name); ok {
			return id, true
		}
		if imp, ok := fb.importByLocal[arg.Name]; ok {
			return importNodeID(fb.coll.File, imp.Source, imp.LocalName), true
		}
	case ast.ArgExpression:
		if arg.IsThisMember {
			if className, ok := fb.ownerClassOfCall[arg.OwnerID]; ok {
				if id, ok := fb.methodByClassName[className+"#"+arg.MemberProp]; ok {
					return id, true
				}
			}
		}
	}
	return "", false
}

// linkArguments emits PASSES_ARGUMENT for every resolvable argument, plus a
// CALLS{callType:callback} edge when callbackInvoker is set and the
// argument resolves to a FUNCTION/METHOD node — the callback-invoker
// whitelist gate that keeps register-style calls (`registry.set('x', cb)`)
// from being indistinguishable from calls that invoke cb outright.
func (fb *fileBuilder) linkArguments(owner string, args []ast.CallArgument, callbackInvoker bool) {
	for _, arg := range args {
		target, ok := fb.resolveArgument(arg)
		if !ok {
			continue
		}
		fb.addEdge(owner, target, graph.EdgePassesArgument, map[string]any{"argIndex": arg.Index})
		if callbackInvoker && fb.callableIDs[target] {
			fb.addEdge(owner, target, graph.EdgeCalls, map[string]any{"callType": "callback"})
		}
	}
}

// classifyBareCall resolves a CallSite's callee into the
// internal/builtin/external/unresolved taxonomy.
func (fb *fileBuilder) classifyBareCall(cs ast.CallSite) {
	if ast.IsWebAPIGlobal(cs.Callee) {
		target := fb.ensureBuiltin("", cs.Callee)
		fb.addEdge(cs.ID, target, graph.EdgeCalls, map[string]any{"callType": "builtin"})
		return
	}
	if target, ok := fb.funcByName[cs.Callee]; ok {
		fb.addEdge(cs.ID, target, graph.EdgeCalls, map[string]any{"callType": "internal"})
		return
	}
	if target, ok := fb.classByName[cs.Callee]; ok {
		fb.addEdge(cs.ID, target, graph.EdgeCalls, map[string]any{"callType": "internal"})
		return
	}
	if imp, ok := fb.importByLocal[cs.Callee]; ok {
		target := fb.ensureExternalModule(imp.Source)
		fb.addEdge(cs.ID, target, graph.EdgeCalls, map[string]any{"callType": "external", "symbol": cs.Callee})
		return
	}
	fb.unresolvedCalleeIDs[cs.ID] = cs.Callee
	if fb.coll.IsSuppressed(diag.CodeWarnUnresolved, cs.Pos.Line) {
		return
	}
	fb.diagnostics.Report(diag.Diagnostic{
		Kind: diag.KindWarning, Code: diag.CodeWarnUnresolved,
		Message: "unresolved call to " + cs.Callee, File: fb.coll.File,
		Line: cs.Pos.Line, Column: cs.Pos.Column, TargetNodeID: cs.ID,
	})
}

func (fb *fileBuilder) classifyMethodCall(mc ast.MethodCall) {
	if mc.IsThis && mc.ClassName != "" {
		if target, ok := fb.methodByClassName[mc.ClassName+"#"+mc.Method]; ok {
			fb.addEdge(mc.ID, target, graph.EdgeCalls, map[string]any{"callType": "internal"})
			return
		}
		fb.unresolvedThisMethods = append(fb.unresolvedThisMethods, thisMethodRef{callID: mc.ID, className: mc.ClassName, method: mc.Method})
		return
	}
	if ast.IsWebAPIGlobal(mc.Object) {
		target := fb.ensureBuiltin(mc.Object, mc.Method)
		fb.addEdge(mc.ID, target, graph.EdgeCalls, map[string]any{"callType": "builtin"})
		return
	}
	if imp, ok := fb.importByLocal[mc.Object]; ok {
		target := fb.ensureExternalModule(imp.Source)
		fb.addEdge(mc.ID, target, graph.EdgeCalls, map[string]any{"callType": "external", "symbol": mc.Object + "." + mc.Method})
		return
	}
	// Plain `obj.method()` on a locally scoped, non-"this" object stays a
	// "method" call with no CALLS edge; without points-to analysis a
	// target would be a guess.
}

func (fb *fileBuilder) classifyConstructorCall(cc ast.ConstructorCall) {
	if target, ok := fb.classByName[cc.Callee]; ok {
		fb.addEdge(cc.ID, target, graph.EdgeCalls, map[string]any{"callType": "internal"})
		return
	}
	if target, ok := fb.funcByName[cc.Callee]; ok {
		fb.addEdge(cc.ID, target, graph.EdgeCalls, map[string]any{"callType": "internal"})
		return
	}
	if ast.IsWebAPIGlobal(cc.Callee) {
		target := fb.ensureBuiltin("", cc.Callee)
		fb.addEdge(cc.ID, target, graph.EdgeCalls, map[string]any{"callType": "builtin"})
		return
	}
	if imp, ok := fb.importByLocal[cc.Callee]; ok {
		target := fb.ensureExternalModule(imp.Source)
		fb.addEdge(cc.ID, target, graph.EdgeCalls, map[string]any{"callType": "external", "symbol": cc.Callee})
	}
}
