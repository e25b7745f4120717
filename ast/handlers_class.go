package ast

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/grafema-go/grafema/scope"
)

func (w *Walker) handleClass(n *sitter.Node) {
	name := w.anonymousName(n, scope.KindClass)
	var extends string
	if heritage := n.ChildByFieldName("heritage"); heritage != nil {
		extends = w.text(heritage)
	} else {
		for i := 0; i < int(n.ChildCount()); i++ {
			if c := n.Child(i); c.Type() == "class_heritage" {
				extends = w.text(c)
			}
		}
	}

	w.scope.EnterScope(name, scope.KindClass)
	scopeID := w.semanticID("SCOPE", name)
	w.coll.Scopes = append(w.coll.Scopes, Scope{
		ID:             scopeID,
		Kind:           scope.KindClass,
		EnclosingScope: w.ctx().ScopePath,
		Pos:            w.pos(n),
	})

	class := Class{
		ID:      w.legacyID("CLASS", name, n),
		Name:    name,
		Extends: extends,
		ScopeID: scopeID,
		Pos:     w.pos(n),
	}
	w.coll.Classes = append(w.coll.Classes, class)

	prevClass := w.currentClassName
	w.currentClassName = name
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			w.walk(body.Child(i))
		}
	}
	w.currentClassName = prevClass

	_ = w.scope.ExitScope(name, scope.KindClass)
}

func (w *Walker) handleDecorator(n *sitter.Node) {
	var name string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		switch ch.Type() {
		case "identifier", "member_expression":
			name = w.text(ch)
		case "call_expression":
			if fn := ch.ChildByFieldName("function"); fn != nil {
				name = w.text(fn)
			}
		}
		if name != "" {
			break
		}
	}
	w.coll.Decorators = append(w.coll.Decorators, Decorator{
		ID:   w.legacyID("DECORATOR", name, n),
		Name: name,
		Pos:  w.pos(n),
	})
	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

func (w *Walker) handleInterface(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	w.coll.Interfaces = append(w.coll.Interfaces, Interface{
		ID:   w.legacyID("INTERFACE", name, n),
		Name: name,
		Pos:  w.pos(n),
	})
}

func (w *Walker) handleTypeAlias(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	w.coll.TypeAliases = append(w.coll.TypeAliases, TypeAlias{
		ID:   w.legacyID("TYPE_ALIAS", name, n),
		Name: name,
		Pos:  w.pos(n),
	})
}

func (w *Walker) handleEnum(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	name := w.text(nameNode)
	var members []string
	if body := n.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if nameN := member.ChildByFieldName("name"); nameN != nil {
				members = append(members, w.text(nameN))
			}
		}
	}
	w.coll.Enums = append(w.coll.Enums, Enum{
		ID:      w.legacyID("ENUM", name, n),
		Name:    name,
		Members: members,
		Pos:     w.pos(n),
	})
}
