package build

import "github.com/grafema-go/grafema/graph"

// buildMutations emits ObjectMutation/ArrayMutation nodes plus their
// MODIFIES/READS_FROM/FLOWS_INTO edge triples: a
// mutation MODIFIES the base object, READS_FROM is a self-loop on the base
// object (a mutation reads before it writes), and FLOWS_INTO carries each
// value argument into the base object.
func (fb *fileBuilder) buildMutations() {
	for _, m := range fb.coll.ObjectMutations {
		fb.addNode(graph.Node{
			Id: m.ID, Type: TypeObjectMutation, Name: m.BaseObjectName + "." + m.PropertyName,
			File: fb.coll.File, Line: m.Pos.Line, Column: m.Pos.Column,
			Attributes: map[string]any{
				"baseObject": m.BaseObjectName,
				"property":   m.PropertyName,
				"isComputed": m.IsComputed,
				"isAssign":   m.IsAssign,
			},
		})
		fb.addEdge(fb.scopeOwner(m.ScopeID), m.ID, graph.EdgeContains, nil)

		baseID, baseOK := fb.resolveIdentTarget(m.BaseObjectName)
		if baseOK {
			fb.addEdge(m.ID, baseID, graph.EdgeModifies, nil)
			fb.addEdge(baseID, baseID, graph.EdgeReadsFrom, nil)
		}
		if !baseOK {
			continue
		}
		if m.IsAssign {
			for _, src := range m.Sources {
				if target, ok := fb.resolveArgument(src); ok {
					fb.addEdge(target, baseID, graph.EdgeFlowsInto, map[string]any{"via": "Object.assign"})
				}
			}
			continue
		}
		if m.HasValue {
			if target, ok := fb.resolveArgument(m.Value); ok {
				fb.addEdge(target, baseID, graph.EdgeFlowsInto, map[string]any{"property": m.PropertyName})
			}
		}
	}

	for _, m := range fb.coll.ArrayMutations {
		fb.addNode(graph.Node{
			Id: m.ID, Type: TypeArrayMutation, Name: m.BaseObjectName + "." + m.Method,
			File: fb.coll.File, Line: m.Pos.Line, Column: m.Pos.Column,
			Attributes: map[string]any{"baseObject": m.BaseObjectName, "method": m.Method},
		})
		fb.addEdge(fb.scopeOwner(m.ScopeID), m.ID, graph.EdgeContains, nil)

		baseID, baseOK := fb.resolveIdentTarget(m.BaseObjectName)
		if !baseOK {
			continue
		}
		fb.addEdge(m.ID, baseID, graph.EdgeModifies, nil)
		fb.addEdge(baseID, baseID, graph.EdgeReadsFrom, nil)
		for i, arg := range m.Args {
			if target, ok := fb.resolveArgument(arg); ok {
				fb.addEdge(target, baseID, graph.EdgeFlowsInto, map[string]any{"via": m.Method, "argIndex": i})
			}
		}
	}
}

// buildUpdateExpressions emits UPDATE_EXPRESSION nodes and the
// MODIFIES/READS_FROM pair for `++`/`--`. `this.prop++`
// resolves its target to the enclosing class, since individual class
// fields aren't tracked as their own VARIABLE nodes.
func (fb *fileBuilder) buildUpdateExpressions() {
	for _, u := range fb.coll.UpdateExpressions {
		fb.addNode(graph.Node{
			Id: u.ID, Type: TypeUpdateExpression, Name: u.TargetName, File: fb.coll.File, Line: u.Pos.Line, Column: u.Pos.Column,
			Attributes: map[string]any{"operator": u.Operator, "isPrefix": u.IsPrefix, "isThisProp": u.IsThisProp},
		})
		fb.addEdge(fb.scopeOwner(u.ScopeID), u.ID, graph.EdgeContains, nil)

		var target string
		var ok bool
		if u.IsThisProp && u.ClassName != "" {
			target, ok = fb.classByName[u.ClassName]
		} else {
			target, ok = fb.varByName[u.TargetName]
		}
		if !ok {
			continue
		}
		fb.addEdge(u.ID, target, graph.EdgeModifies, nil)
		fb.addEdge(target, target, graph.EdgeReadsFrom, nil)
	}
}
