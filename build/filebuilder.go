package build

import (
	"strings"

	"github.com/grafema-go/grafema/ast"
	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
	"github.com/grafema-go/grafema/id"
)

// thisMethodRef is a `this.method(...)` call whose target method could not
// be found on the enclosing class within this file — kept for the
// cross-file resolution plugin/enrichment performs against the full graph.
type thisMethodRef struct {
	callID    string
	className string
	method    string
}

// fileBuilder accumulates the nodes and edges for one file's Collections,
// resolving everything that can be resolved without seeing other files.
// Scope ownership is resolved through scopeByPath, a map from a scope's
// full dot-joined path to the node id that owns it — populated two ways,
// because the ast package's Scope.EnclosingScope means different things for
// function-owned scopes (the *parent's* path, captured before entering the
// function) versus control-flow/class scopes (the scope's *own* full path,
// captured after entering it). Function scopes are registered under a
// reconstructed key (parent path + "." + name); control-flow scopes are
// registered under their own EnclosingScope directly.
type fileBuilder struct {
	coll        *ast.Collections
	diagnostics *diag.Collector

	nodes []graph.Node
	edges []graph.Edge
	known map[string]bool

	moduleID string

	scopeRecByID map[string]ast.Scope
	scopeByPath  map[string]string

	funcByName        map[string]string
	classByName       map[string]string
	methodByClassName map[string]string // "ClassName#method" -> METHOD node id
	varByName         map[string]string
	importByLocal     map[string]ast.Import
	callableIDs       map[string]bool // FUNCTION/METHOD node ids, for callback-edge gating

	ownerClassOfCall        map[string]string // MethodCall id -> enclosing class, for this.x callback args
	ownerIsCallbackInvoker  map[string]bool

	funcByPos   map[ast.Position]string
	litByPos    map[ast.Position]string
	callByPos   map[ast.Position]string
	objLitByPos map[ast.Position]string
	arrLitByPos map[ast.Position]string

	unresolvedCalleeIDs   map[string]string // CallSite id -> callee, for the cross-file pass
	unresolvedThisMethods []thisMethodRef
}

func newFileBuilder(coll *ast.Collections, diagnostics *diag.Collector) *fileBuilder {
	return &fileBuilder{
		coll:                   coll,
		diagnostics:            diagnostics,
		known:                  make(map[string]bool),
		scopeRecByID:           make(map[string]ast.Scope, len(coll.Scopes)),
		scopeByPath:            make(map[string]string),
		funcByName:             make(map[string]string),
		classByName:            make(map[string]string),
		methodByClassName:      make(map[string]string),
		varByName:              make(map[string]string),
		importByLocal:          make(map[string]ast.Import),
		callableIDs:            make(map[string]bool),
		ownerClassOfCall:       make(map[string]string),
		ownerIsCallbackInvoker: make(map[string]bool),
		funcByPos:              make(map[ast.Position]string),
		litByPos:               make(map[ast.Position]string),
		callByPos:              make(map[ast.Position]string),
		objLitByPos:            make(map[ast.Position]string),
		arrLitByPos:            make(map[ast.Position]string),
		unresolvedCalleeIDs:    make(map[string]string),
	}
}

func (fb *fileBuilder) addNode(n graph.Node) {
	fb.nodes = append(fb.nodes, n)
	fb.known[n.Id] = true
}

// addEdge records an edge when both endpoints are already known to this
// file's batch (an earlier addNode call, in this file or an
// ensureExternalModule/ensureBuiltin anchor); otherwise it reports a
// dangling-edge diagnostic and drops the edge.
func (fb *fileBuilder) addEdge(src, dst, typ string, meta map[string]any) {
	if src == "" || dst == "" {
		return
	}
	if !fb.known[src] || !fb.known[dst] {
		fb.diagnostics.Report(diag.Diagnostic{
			Kind:    diag.KindWarning,
			Code:    diag.CodeDanglingEdge,
			Message: "dangling " + typ + " edge " + src + " -> " + dst,
			File:    fb.coll.File,
		})
		return
	}
	fb.edges = append(fb.edges, graph.Edge{Src: src, Dst: dst, Type: typ, Metadata: meta})
}

func (fb *fileBuilder) ensureExternalModule(source string) string {
	nid := id.ExternalModuleID(source)
	if !fb.known[nid] {
		fb.addNode(graph.Node{
			Id:         nid,
			Type:       TypeExternalModule,
			Name:       source,
			Attributes: map[string]any{"source": source},
		})
	}
	return nid
}

func (fb *fileBuilder) ensureBuiltin(object, method string) string {
	name := method
	if object != "" {
		name = object + "." + method
	}
	nid := "WEB_API:" + name
	if !fb.known[nid] {
		fb.addNode(graph.Node{
			Id:         nid,
			Type:       TypeExternalFunction,
			Name:       name,
			Attributes: map[string]any{"isBuiltin": true},
		})
		if sink, ok := builtinSink(object, method); ok {
			fb.ensureSink(sink)
			fb.addEdge(nid, sink, graph.EdgeInteractsWith, nil)
		}
	}
	return nid
}

// builtinSink maps a builtin to the side-effect singleton it reaches:
// console writes to the stdio sink, fetch/XMLHttpRequest to the network
// sink.
func builtinSink(object, method string) (string, bool) {
	switch {
	case object == "console":
		return id.StdioSingletonID, true
	case method == "fetch" || method == "XMLHttpRequest":
		return id.NetworkSingletonID, true
	}
	return "", false
}

// ensureSink mints a side-effect singleton node once per file batch;
// creation is idempotent across files via UPSERT on the fixed id.
func (fb *fileBuilder) ensureSink(sinkID string) {
	if fb.known[sinkID] {
		return
	}
	name := "stdio"
	typ := "net:stdio"
	if sinkID == id.NetworkSingletonID {
		name = "network"
		typ = "net:request"
	}
	fb.addNode(graph.Node{Id: sinkID, Type: typ, Name: name})
}

func importNodeID(file, source, local string) string {
	return file + ":IMPORT:" + source + ":" + local
}

// scopeOwner resolves a scope path to the node id that owns it, falling
// back to the file's MODULE node for the root path and for any path this
// file never registered (a benign approximation, not a dangling edge, since
// the owner always exists).
func (fb *fileBuilder) scopeOwner(path string) string {
	if path == "" || path == "module" {
		return fb.moduleID
	}
	if id, ok := fb.scopeByPath[path]; ok {
		return id
	}
	return fb.moduleID
}

func parentPath(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// resolveIdentTarget resolves a bare identifier to whichever kind of node
// this file has already seen declared under that name: a variable, then a
// function, then a class. Ambiguity (shadowing, redeclaration) resolves to
// whichever declaration was recorded last, a deliberate file-scope
// approximation — precise block-level shadowing needs points-to analysis
// this builder doesn't attempt.
func (fb *fileBuilder) resolveIdentTarget(name string) (string, bool) {
	if id, ok := fb.varByName[name]; ok {
		return id, true
	}
	if id, ok := fb.funcByName[name]; ok {
		return id, true
	}
	if id, ok := fb.classByName[name]; ok {
		return id, true
	}
	return "", false
}

func (fb *fileBuilder) run() {
	fb.moduleID = ModuleID(fb.coll.File)
	fb.addNode(graph.Node{Id: fb.moduleID, Type: TypeModule, Name: fb.coll.File, File: fb.coll.File})

	for _, s := range fb.coll.Scopes {
		fb.scopeRecByID[s.ID] = s
	}
	owned := make(map[string]bool, len(fb.coll.Classes)+len(fb.coll.Functions))

	fb.buildClasses(owned)
	fb.buildFunctions(owned)
	fb.buildControlScopes(owned)

	fb.buildImports()
	fb.buildVariables()
	fb.buildLiterals()
	fb.buildObjectLiterals()
	fb.buildArrayLiterals()
	fb.buildInterfacesEnumsTypeAliases()
	fb.buildDecorators()
	fb.buildExports()

	fb.buildCalls()
	fb.buildMutations()
	fb.buildUpdateExpressions()
	fb.buildReturnsYields()
	fb.buildHTTPRequests()
	fb.buildVariableAssignments()
}

func (fb *fileBuilder) buildClasses(owned map[string]bool) {
	for _, c := range fb.coll.Classes {
		fb.classByName[c.Name] = c.ID
		fb.addNode(graph.Node{
			Id:         c.ID,
			Type:       TypeClass,
			Name:       c.Name,
			File:       fb.coll.File,
			Line:       c.Pos.Line,
			Column:     c.Pos.Column,
			Attributes: map[string]any{"extends": c.Extends, "decorators": c.Decorators},
		})
		fb.addEdge(fb.moduleID, c.ID, graph.EdgeContains, nil)

		if s, ok := fb.scopeRecByID[c.ScopeID]; ok {
			owned[s.ID] = true
			fb.addNode(graph.Node{
				Id:         s.ID,
				Type:       TypeScope,
				Name:       c.Name,
				File:       fb.coll.File,
				Line:       s.Pos.Line,
				Column:     s.Pos.Column,
				Attributes: map[string]any{"kind": string(s.Kind)},
			})
			fb.addEdge(c.ID, s.ID, graph.EdgeHasScope, nil)
			fb.scopeByPath[s.EnclosingScope] = s.ID
		}
	}
}

func (fb *fileBuilder) buildFunctions(owned map[string]bool) {
	for _, f := range fb.coll.Functions {
		typ := TypeFunction
		if f.ClassName != "" {
			typ = TypeMethod
		}
		fb.addNode(graph.Node{
			Id:     f.ID,
			Type:   typ,
			Name:   f.Name,
			File:   fb.coll.File,
			Line:   f.Pos.Line,
			Column: f.Pos.Column,
			Attributes: map[string]any{
				"kind":        f.Kind,
				"isAsync":     f.IsAsync,
				"isGenerator": f.IsGenerator,
				"params":      f.Params,
				"className":   f.ClassName,
			},
		})
		fb.funcByPos[f.Pos] = f.ID
		fb.callableIDs[f.ID] = true

		var owner string
		if f.ClassName != "" {
			fb.methodByClassName[f.ClassName+"#"+f.Name] = f.ID
			if cid, ok := fb.classByName[f.ClassName]; ok {
				owner = cid
			} else {
				owner = fb.moduleID
			}
		} else {
			fb.funcByName[f.Name] = f.ID
			owner = fb.scopeOwner(f.EnclosingScope)
		}
		fb.addEdge(owner, f.ID, graph.EdgeContains, nil)

		s, ok := fb.scopeRecByID[f.ScopeID]
		if !ok {
			continue
		}
		owned[s.ID] = true
		fb.addNode(graph.Node{
			Id:         s.ID,
			Type:       TypeScope,
			Name:       f.Name,
			File:       fb.coll.File,
			Line:       s.Pos.Line,
			Column:     s.Pos.Column,
			Attributes: map[string]any{"kind": string(s.Kind)},
		})
		fb.addEdge(f.ID, s.ID, graph.EdgeHasScope, nil)

		ownKey := f.Name
		if f.EnclosingScope != "" {
			ownKey = f.EnclosingScope + "." + f.Name
		}
		fb.scopeByPath[ownKey] = s.ID

		if s.CapturesFrom != "" {
			fb.addEdge(s.ID, fb.scopeOwner(s.CapturesFrom), graph.EdgeCaptures, nil)
		}
	}
}

func (fb *fileBuilder) buildControlScopes(owned map[string]bool) {
	branchByScope := make(map[string]ast.Branch, len(fb.coll.Branches))
	for _, b := range fb.coll.Branches {
		branchByScope[b.ScopeID] = b
	}
	loopByScope := make(map[string]ast.Loop, len(fb.coll.Loops))
	for _, l := range fb.coll.Loops {
		loopByScope[l.ScopeID] = l
	}
	caseByScope := make(map[string]ast.Case, len(fb.coll.Cases))
	for _, c := range fb.coll.Cases {
		caseByScope[c.ScopeID] = c
	}
	catchByScope := make(map[string]ast.Catch, len(fb.coll.Catches))
	for _, c := range fb.coll.Catches {
		catchByScope[c.ScopeID] = c
	}

	for _, s := range fb.coll.Scopes {
		if owned[s.ID] {
			continue
		}
		name := string(s.Kind)
		attrs := map[string]any{"kind": string(s.Kind)}
		if b, ok := branchByScope[s.ID]; ok {
			attrs["hasElse"] = b.HasElse
		}
		if l, ok := loopByScope[s.ID]; ok {
			attrs["loopKind"] = l.Kind
			name = l.Kind
		}
		if c, ok := caseByScope[s.ID]; ok {
			attrs["isDefault"] = c.IsDefault
		}
		if c, ok := catchByScope[s.ID]; ok {
			attrs["paramName"] = c.ParamName
		}
		fb.addNode(graph.Node{
			Id:         s.ID,
			Type:       TypeScope,
			Name:       name,
			File:       fb.coll.File,
			Line:       s.Pos.Line,
			Column:     s.Pos.Column,
			Attributes: attrs,
		})
		owner := fb.scopeOwner(parentPath(s.EnclosingScope))
		fb.addEdge(owner, s.ID, graph.EdgeContains, nil)
		fb.scopeByPath[s.EnclosingScope] = s.ID
	}
}

func (fb *fileBuilder) buildImports() {
	for _, imp := range fb.coll.Imports {
		fb.importByLocal[imp.LocalName] = imp
		nid := importNodeID(fb.coll.File, imp.Source, imp.LocalName)
		if fb.known[nid] {
			continue
		}
		fb.addNode(graph.Node{
			Id:     nid,
			Type:   TypeImport,
			Name:   imp.LocalName,
			File:   fb.coll.File,
			Line:   imp.Pos.Line,
			Column: imp.Pos.Column,
			Attributes: map[string]any{
				"source":       imp.Source,
				"importedName": imp.ImportedName,
				"isDefault":    imp.IsDefault,
				"isNamespace":  imp.IsNamespace,
			},
		})
		fb.addEdge(fb.moduleID, nid, graph.EdgeContains, nil)
		if !strings.HasPrefix(imp.Source, ".") && !strings.HasPrefix(imp.Source, "/") {
			ext := fb.ensureExternalModule(imp.Source)
			fb.addEdge(nid, ext, graph.EdgeImports, nil)
		}
	}
}

func (fb *fileBuilder) buildVariables() {
	for _, v := range fb.coll.VariableDeclarations {
		fb.addNode(graph.Node{
			Id:     v.ID,
			Type:   TypeVariable,
			Name:   v.Name,
			File:   fb.coll.File,
			Line:   v.Pos.Line,
			Column: v.Pos.Column,
			Attributes: map[string]any{
				"kind":          v.Kind,
				"propertyPath":  v.PropertyPath,
				"arrayIndex":    v.ArrayIndex,
				"hasArrayIndex": v.HasArrayIndex,
				"isRest":        v.IsRest,
				"hasDefault":    v.HasDefault,
			},
		})
		fb.varByName[v.Name] = v.ID
		fb.addEdge(fb.scopeOwner(v.ScopeID), v.ID, graph.EdgeContains, nil)
	}
}

// buildVariableAssignments emits ASSIGNED_FROM for a non-destructured
// binding's initializer. It runs last, once every literal/function/call/
// object/array node this file can produce already exists for resolveArgument
// to find.
func (fb *fileBuilder) buildVariableAssignments() {
	for _, v := range fb.coll.VariableDeclarations {
		if !v.HasValue {
			continue
		}
		if target, ok := fb.resolveArgument(v.Value); ok {
			fb.addEdge(v.ID, target, graph.EdgeAssignedFrom, nil)
		}
	}
}

func (fb *fileBuilder) buildLiterals() {
	for _, l := range fb.coll.Literals {
		fb.addNode(graph.Node{
			Id:         l.ID,
			Type:       TypeLiteral,
			Name:       l.Raw,
			File:       fb.coll.File,
			Line:       l.Pos.Line,
			Column:     l.Pos.Column,
			Attributes: map[string]any{"kind": l.Kind, "raw": l.Raw},
		})
		fb.litByPos[l.Pos] = l.ID
		fb.addEdge(fb.moduleID, l.ID, graph.EdgeContains, nil)
	}
}

func (fb *fileBuilder) buildObjectLiterals() {
	for _, o := range fb.coll.ObjectLiterals {
		fb.addNode(graph.Node{Id: o.ID, Type: TypeObjectLiteral, File: fb.coll.File, Line: o.Pos.Line, Column: o.Pos.Column})
		fb.objLitByPos[o.Pos] = o.ID
		fb.addEdge(fb.scopeOwner(o.ScopeID), o.ID, graph.EdgeContains, nil)
	}
	for _, p := range fb.coll.ObjectProperties {
		if !fb.known[p.OwnerID] {
			continue
		}
		if !p.ValueIsIdent {
			continue
		}
		if target, ok := fb.resolveIdentTarget(p.ValueName); ok {
			fb.addEdge(p.OwnerID, target, graph.EdgeHasProperty, map[string]any{"key": p.Key})
		}
	}
}

func (fb *fileBuilder) buildArrayLiterals() {
	for _, a := range fb.coll.ArrayLiterals {
		fb.addNode(graph.Node{Id: a.ID, Type: TypeArrayLiteral, File: fb.coll.File, Line: a.Pos.Line, Column: a.Pos.Column})
		fb.arrLitByPos[a.Pos] = a.ID
		fb.addEdge(fb.scopeOwner(a.ScopeID), a.ID, graph.EdgeContains, nil)
	}
}

func (fb *fileBuilder) buildInterfacesEnumsTypeAliases() {
	for _, i := range fb.coll.Interfaces {
		fb.addNode(graph.Node{Id: i.ID, Type: TypeInterface, Name: i.Name, File: fb.coll.File, Line: i.Pos.Line, Column: i.Pos.Column, Attributes: map[string]any{"extends": i.Extends}})
		fb.addEdge(fb.moduleID, i.ID, graph.EdgeContains, nil)
	}
	for _, t := range fb.coll.TypeAliases {
		fb.addNode(graph.Node{Id: t.ID, Type: TypeTypeAlias, Name: t.Name, File: fb.coll.File, Line: t.Pos.Line, Column: t.Pos.Column})
		fb.addEdge(fb.moduleID, t.ID, graph.EdgeContains, nil)
	}
	for _, e := range fb.coll.Enums {
		fb.addNode(graph.Node{Id: e.ID, Type: TypeEnum, Name: e.Name, File: fb.coll.File, Line: e.Pos.Line, Column: e.Pos.Column, Attributes: map[string]any{"members": e.Members}})
		fb.addEdge(fb.moduleID, e.ID, graph.EdgeContains, nil)
	}
}

func (fb *fileBuilder) buildDecorators() {
	for _, d := range fb.coll.Decorators {
		fb.addNode(graph.Node{Id: d.ID, Type: TypeDecorator, Name: d.Name, File: fb.coll.File, Line: d.Pos.Line, Column: d.Pos.Column})
		owner := fb.moduleID
		if d.TargetID != "" && fb.known[d.TargetID] {
			owner = d.TargetID
		}
		fb.addEdge(owner, d.ID, graph.EdgeContains, nil)
	}
}

func (fb *fileBuilder) buildExports() {
	for _, e := range fb.coll.Exports {
		fb.addNode(graph.Node{
			Id: e.ID, Type: TypeExport, Name: e.ExportedAs, File: fb.coll.File, Line: e.Pos.Line, Column: e.Pos.Column,
			Exported:   true,
			Attributes: map[string]any{"localName": e.LocalName, "isDefault": e.IsDefault},
		})
		fb.addEdge(fb.moduleID, e.ID, graph.EdgeContains, nil)
		if target, ok := fb.resolveIdentTarget(e.LocalName); ok {
			fb.addEdge(e.ID, target, graph.EdgeExports, nil)
		}
	}
}

func (fb *fileBuilder) buildHTTPRequests() {
	for _, h := range fb.coll.HTTPRequests {
		fb.addNode(graph.Node{
			Id: h.ID, Type: TypeHTTPRequest, Name: h.Callee, File: fb.coll.File, Line: h.Pos.Line, Column: h.Pos.Column,
			Attributes: map[string]any{"method": h.Method, "callee": h.Callee},
		})
		fb.addEdge(fb.scopeOwner(h.ScopeID), h.ID, graph.EdgeContains, nil)
	}
}

func (fb *fileBuilder) buildReturnsYields() {
	for _, r := range fb.coll.Returns {
		fb.addNode(graph.Node{Id: r.ID, Type: TypeReturn, File: fb.coll.File, Line: r.Pos.Line, Column: r.Pos.Column})
		fb.addEdge(fb.scopeOwner(r.ScopeID), r.ID, graph.EdgeContains, nil)
		fb.linkArguments(r.ID, r.Args, false)
	}
	for _, y := range fb.coll.Yields {
		fb.addNode(graph.Node{Id: y.ID, Type: TypeYield, File: fb.coll.File, Line: y.Pos.Line, Column: y.Pos.Column, Attributes: map[string]any{"delegates": y.Delegates}})
		fb.addEdge(fb.scopeOwner(y.ScopeID), y.ID, graph.EdgeContains, nil)
		fb.linkArguments(y.ID, y.Args, false)
	}
}
