package ast

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/grafema-go/grafema/scope"
)

// anonymousName resolves a function/arrow's display name, falling back to
// the scope tracker's per-scope sibling counter for unnamed function
// expressions and arrows (the anonymous[N] naming rule).
func (w *Walker) anonymousName(n *sitter.Node, kind scope.Kind) string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	return scope.AnonymousName(w.scope.GetSiblingIndex(kind))
}

// handleFunction covers function declarations, function expressions, and
// arrow functions. Every function creates one Function record plus
// exactly one Scope record of kind closure (regular functions) or
// arrow_body (arrows), with CapturesFrom pointing at the enclosing scope
//.
func (w *Walker) handleFunction(n *sitter.Node, kind, className string) {
	scopeKind := scope.KindClosure
	if kind == "arrow" {
		scopeKind = scope.KindArrowBody
	}
	name := w.anonymousName(n, scope.KindFunction)

	enclosing := w.ctx().ScopePath
	fnID := w.legacyID("FUNCTION", name, n)
	if className != "" {
		fnID = w.legacyID("METHOD", name, n)
	}

	fn := Function{
		ID:             fnID,
		Name:           name,
		Kind:           kind,
		Pos:            w.pos(n),
		EnclosingScope: enclosing,
		ClassName:      className,
		IsAsync:        w.hasAsyncModifier(n),
		IsGenerator:    n.Type() == "generator_function_declaration" || n.Type() == "generator_function",
		Params:         w.paramNames(n),
	}

	w.scope.EnterScope(name, scope.KindFunction)
	bodyScopeID := w.semanticID("SCOPE", name)
	fn.ScopeID = bodyScopeID
	w.coll.Scopes = append(w.coll.Scopes, Scope{
		ID:             bodyScopeID,
		Kind:           scopeKind,
		EnclosingScope: enclosing,
		CapturesFrom:   enclosing,
		Pos:            w.pos(n),
	})
	w.coll.Functions = append(w.coll.Functions, fn)

	if body := n.ChildByFieldName("body"); body != nil {
		w.walk(body)
	} else {
		// arrow with a bare expression body (no block): `x => x + 1`
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() != "formal_parameters" && child.Type() != "identifier" && child.Type() != "=>" {
				w.walk(child)
			}
		}
	}
	_ = w.scope.ExitScope(name, scope.KindFunction)
}

func (w *Walker) hasAsyncModifier(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "async" {
			return true
		}
	}
	return false
}

func (w *Walker) paramNames(n *sitter.Node) []string {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			out = append(out, w.text(p))
		case "assignment_pattern":
			if left := p.ChildByFieldName("left"); left != nil {
				out = append(out, w.text(left))
			}
		case "rest_pattern":
			out = append(out, "..."+w.text(p))
		default:
			out = append(out, w.text(p))
		}
	}
	return out
}

// handleMethod covers class method definitions, including static blocks
// and constructors; the owning class name is carried on the resulting
// Function record for later this.method callback resolution.
func (w *Walker) handleMethod(n *sitter.Node) {
	className := w.currentClassName
	w.handleFunction(n, "method", className)
}
