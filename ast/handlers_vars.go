package ast

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func declarationKeyword(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		switch n.Child(i).Type() {
		case "var", "let", "const":
			return n.Child(i).Type()
		}
	}
	return "let"
}

// handleVariableDeclaration covers `var`/`let`/`const` declarations,
// expanding destructuring patterns recursively into one
// VariableDeclaration per leaf binding.
func (w *Walker) handleVariableDeclaration(n *sitter.Node) {
	kw := declarationKeyword(n)
	scopeID := w.ctx().ScopePath
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		valueNode := decl.ChildByFieldName("value")
		w.expandBinding(nameNode, kw, scopeID, nil, 0, false, false)
		if nameNode != nil && nameNode.Type() == "identifier" && valueNode != nil {
			last := &w.coll.VariableDeclarations[len(w.coll.VariableDeclarations)-1]
			last.Value = w.classifyArgument(last.ID, 0, valueNode)
			last.HasValue = true
			continue
		}
		if valueNode != nil {
			w.walk(valueNode)
		}
	}
}

// expandBinding recurses through a destructuring pattern, emitting one
// VariableDeclaration per leaf identifier with propertyPath/arrayIndex/
// isRest/hasDefault populated as appropriate.
func (w *Walker) expandBinding(n *sitter.Node, kind, scopeID string, propertyPath []string, arrayIndex int, hasArrayIndex, isRest bool) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		w.coll.VariableDeclarations = append(w.coll.VariableDeclarations, VariableDeclaration{
			ID:            w.legacyID("VARIABLE", w.text(n), n),
			Name:          w.text(n),
			Kind:          kind,
			ScopeID:       scopeID,
			Pos:           w.pos(n),
			PropertyPath:  propertyPath,
			ArrayIndex:    arrayIndex,
			HasArrayIndex: hasArrayIndex,
			IsRest:        isRest,
		})
	case "assignment_pattern":
		left := n.ChildByFieldName("left")
		w.expandBindingWithDefault(left, kind, scopeID, propertyPath, arrayIndex, hasArrayIndex, isRest)
	case "rest_pattern":
		if n.NamedChildCount() > 0 {
			w.expandBinding(n.NamedChild(0), kind, scopeID, propertyPath, arrayIndex, hasArrayIndex, true)
		}
	case "object_pattern":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			prop := n.NamedChild(i)
			switch prop.Type() {
			case "shorthand_property_identifier_pattern":
				w.expandBinding(prop, kind, scopeID, append(append([]string{}, propertyPath...), w.text(prop)), 0, false, false)
			case "pair_pattern":
				key := prop.ChildByFieldName("key")
				value := prop.ChildByFieldName("value")
				path := append(append([]string{}, propertyPath...), w.text(key))
				w.expandBinding(value, kind, scopeID, path, 0, false, false)
			case "rest_pattern":
				w.expandBinding(prop, kind, scopeID, propertyPath, 0, false, true)
			}
		}
	case "array_pattern":
		idx := 0
		for i := 0; i < int(n.NamedChildCount()); i++ {
			elem := n.NamedChild(i)
			if elem.Type() == "rest_pattern" {
				w.expandBinding(elem, kind, scopeID, propertyPath, idx, true, true)
			} else {
				w.expandBinding(elem, kind, scopeID, propertyPath, idx, true, false)
			}
			idx++
		}
	default:
		// e.g. member_expression target in a for-of/for-in left-hand side
		w.coll.VariableDeclarations = append(w.coll.VariableDeclarations, VariableDeclaration{
			ID:      w.legacyID("VARIABLE", w.text(n), n),
			Name:    w.text(n),
			Kind:    kind,
			ScopeID: scopeID,
			Pos:     w.pos(n),
		})
	}
}

func (w *Walker) expandBindingWithDefault(n *sitter.Node, kind, scopeID string, propertyPath []string, arrayIndex int, hasArrayIndex, isRest bool) {
	if n == nil {
		return
	}
	if n.Type() == "identifier" {
		w.coll.VariableDeclarations = append(w.coll.VariableDeclarations, VariableDeclaration{
			ID:            w.legacyID("VARIABLE", w.text(n), n),
			Name:          w.text(n),
			Kind:          kind,
			ScopeID:       scopeID,
			Pos:           w.pos(n),
			PropertyPath:  propertyPath,
			ArrayIndex:    arrayIndex,
			HasArrayIndex: hasArrayIndex,
			IsRest:        isRest,
			HasDefault:    true,
		})
		return
	}
	w.expandBinding(n, kind, scopeID, propertyPath, arrayIndex, hasArrayIndex, isRest)
}

// handleAssignment covers plain reassignment (`x = v`, `x += v`) and
// object/array mutation forms (`obj.prop = v`, `obj[x] = v`,
// `Object.assign(target, …sources)` is handled in handlers_calls.go since
// it is syntactically a call).
func (w *Walker) handleAssignment(n *sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	operator := "="
	for i := 0; i < int(n.ChildCount()); i++ {
		t := n.Child(i).Type()
		if strings.HasSuffix(t, "=") && t != "==" && t != "===" {
			operator = t
		}
	}
	if left == nil {
		if right != nil {
			w.walk(right)
		}
		return
	}

	switch left.Type() {
	case "member_expression", "subscript_expression":
		w.handleObjectMutation(n, left, right, operator)
		return
	default:
		w.coll.Reassignments = append(w.coll.Reassignments, Reassignment{
			TargetID: w.legacyID("VARIABLE", w.text(left), left),
			ScopeID:  w.ctx().ScopePath,
			Pos:      w.pos(n),
			Operator: operator,
		})
	}

	if right != nil {
		w.walk(right)
	}
}

// handleObjectMutation covers `obj.prop = v` and `obj[x] = v`. It records
// MODIFIES (mutation -> object), READS_FROM self-loop (read-before-write),
// and FLOWS_INTO (value -> property slot) at the build stage; here it
// just emits the ObjectMutation/PropertyAssignment IR records those edges
// are built from.
func (w *Walker) handleObjectMutation(n, left, right *sitter.Node, operator string) {
	object := left.ChildByFieldName("object")
	baseName := w.text(object)
	isComputed := left.Type() == "subscript_expression"
	propertyName := ""
	if isComputed {
		if idx := left.ChildByFieldName("index"); idx != nil {
			propertyName = w.text(idx)
		}
	} else if prop := left.ChildByFieldName("property"); prop != nil {
		propertyName = w.text(prop)
	}

	mutID := w.legacyID("OBJECT_MUTATION", baseName+"."+propertyName, n)
	mut := ObjectMutation{
		ID:             mutID,
		BaseObjectName: baseName,
		PropertyName:   propertyName,
		IsComputed:     isComputed,
		ScopeID:        w.ctx().ScopePath,
		Pos:            w.pos(n),
	}
	if right != nil {
		mut.Value = w.classifyArgument(mutID, 0, right)
		mut.HasValue = true
	}
	w.coll.ObjectMutations = append(w.coll.ObjectMutations, mut)
	w.coll.PropertyAssignments = append(w.coll.PropertyAssignments, PropertyAssignment{
		ID:       mutID,
		Object:   baseName,
		Property: propertyName,
		ScopeID:  w.ctx().ScopePath,
		Pos:      w.pos(n),
	})
}
