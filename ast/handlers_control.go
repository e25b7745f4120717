package ast

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/grafema-go/grafema/scope"
)

func (w *Walker) handleIf(n *sitter.Node) {
	w.scope.EnterScope("if", scope.KindIf)
	ifScopeID := w.semanticID("SCOPE", "if")
	w.coll.Scopes = append(w.coll.Scopes, Scope{ID: ifScopeID, Kind: scope.KindIf, EnclosingScope: w.ctx().ScopePath, Pos: w.pos(n)})
	alt := n.ChildByFieldName("alternative")
	w.coll.Branches = append(w.coll.Branches, Branch{ScopeID: ifScopeID, Pos: w.pos(n), HasElse: alt != nil})

	if cond := n.ChildByFieldName("condition"); cond != nil {
		w.walk(cond)
	}
	if cons := n.ChildByFieldName("consequence"); cons != nil {
		w.walk(cons)
	}
	_ = w.scope.ExitScope("if", scope.KindIf)

	if alt != nil {
		w.scope.EnterScope("else", scope.KindElse)
		elseScopeID := w.semanticID("SCOPE", "else")
		w.coll.Scopes = append(w.coll.Scopes, Scope{ID: elseScopeID, Kind: scope.KindElse, EnclosingScope: w.ctx().ScopePath, Pos: w.pos(alt)})
		w.walk(alt)
		_ = w.scope.ExitScope("else", scope.KindElse)
	}
}

func (w *Walker) handleLoop(n *sitter.Node, kind string) {
	k := scope.KindFor
	if kind == "while" {
		k = scope.KindWhile
	}
	w.scope.EnterScope(kind, k)
	scopeID := w.semanticID("SCOPE", kind)
	w.coll.Scopes = append(w.coll.Scopes, Scope{ID: scopeID, Kind: k, EnclosingScope: w.ctx().ScopePath, Pos: w.pos(n)})
	w.coll.Loops = append(w.coll.Loops, Loop{ScopeID: scopeID, Kind: kind, Pos: w.pos(n)})

	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
	_ = w.scope.ExitScope(kind, k)
}

func (w *Walker) handleSwitch(n *sitter.Node) {
	w.scope.EnterScope("switch", scope.KindSwitch)
	switchScopeID := w.semanticID("SCOPE", "switch")
	w.coll.Scopes = append(w.coll.Scopes, Scope{ID: switchScopeID, Kind: scope.KindSwitch, EnclosingScope: w.ctx().ScopePath, Pos: w.pos(n)})

	if value := n.ChildByFieldName("value"); value != nil {
		w.walk(value)
	}
	body := n.ChildByFieldName("body")
	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			c := body.NamedChild(i)
			if c.Type() != "switch_case" && c.Type() != "switch_default" {
				continue
			}
			isDefault := c.Type() == "switch_default"
			w.scope.EnterScope("case", scope.KindCase)
			caseScopeID := w.semanticID("SCOPE", "case")
			w.coll.Scopes = append(w.coll.Scopes, Scope{ID: caseScopeID, Kind: scope.KindCase, EnclosingScope: w.ctx().ScopePath, Pos: w.pos(c)})
			w.coll.Cases = append(w.coll.Cases, Case{ScopeID: caseScopeID, Pos: w.pos(c), IsDefault: isDefault})
			for j := 0; j < int(c.NamedChildCount()); j++ {
				w.walk(c.NamedChild(j))
			}
			_ = w.scope.ExitScope("case", scope.KindCase)
		}
	}
	_ = w.scope.ExitScope("switch", scope.KindSwitch)
}

func (w *Walker) handleTry(n *sitter.Node) {
	w.scope.EnterScope("try", scope.KindTry)
	tryScopeID := w.semanticID("SCOPE", "try")
	w.coll.Scopes = append(w.coll.Scopes, Scope{ID: tryScopeID, Kind: scope.KindTry, EnclosingScope: w.ctx().ScopePath, Pos: w.pos(n)})
	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	}
	_ = w.scope.ExitScope("try", scope.KindTry)

	var handler, finalizer *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		switch c := n.NamedChild(i); c.Type() {
		case "catch_clause":
			handler = c
		case "finally_clause":
			finalizer = c
		}
	}

	if handler != nil {
		w.scope.EnterScope("catch", scope.KindCatch)
		catchScopeID := w.semanticID("SCOPE", "catch")
		w.coll.Scopes = append(w.coll.Scopes, Scope{ID: catchScopeID, Kind: scope.KindCatch, EnclosingScope: w.ctx().ScopePath, Pos: w.pos(handler)})
		paramName := ""
		if param := handler.ChildByFieldName("parameter"); param != nil {
			paramName = w.text(param)
		}
		w.coll.Catches = append(w.coll.Catches, Catch{ScopeID: catchScopeID, ParamName: paramName, Pos: w.pos(handler)})
		if body := handler.ChildByFieldName("body"); body != nil {
			w.walk(body)
		}
		_ = w.scope.ExitScope("catch", scope.KindCatch)
	}
	if finalizer != nil {
		if body := finalizer.ChildByFieldName("body"); body != nil {
			w.walk(body)
		} else {
			w.walk(finalizer)
		}
	}
}

func (w *Walker) handleReturn(n *sitter.Node) {
	id := w.legacyID("RETURN", "return", n)
	var args []CallArgument
	idx := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		arg := w.classifyArgument(id, idx, n.NamedChild(i))
		args = append(args, arg)
		w.coll.CallArguments = append(w.coll.CallArguments, arg)
		idx++
	}
	w.coll.Returns = append(w.coll.Returns, Return{ID: id, ScopeID: w.ctx().ScopePath, Pos: w.pos(n), Args: args})
}

func (w *Walker) handleYield(n *sitter.Node) {
	delegates := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "*" {
			delegates = true
		}
	}
	id := w.legacyID("YIELD", "yield", n)
	var args []CallArgument
	idx := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		arg := w.classifyArgument(id, idx, n.NamedChild(i))
		args = append(args, arg)
		w.coll.CallArguments = append(w.coll.CallArguments, arg)
		idx++
	}
	w.coll.Yields = append(w.coll.Yields, Yield{ID: id, Delegates: delegates, ScopeID: w.ctx().ScopePath, Pos: w.pos(n), Args: args})
}
