package ast

import sitter "github.com/smacker/go-tree-sitter"

// handleObjectLiteral records an object literal and one ObjectProperty per
// key/value pair, then walks each value so nested calls/literals are still
// visited.
func (w *Walker) handleObjectLiteral(n *sitter.Node) {
	id := w.legacyID("OBJECT_LITERAL", "object", n)
	w.coll.ObjectLiterals = append(w.coll.ObjectLiterals, ObjectLiteral{
		ID:      id,
		ScopeID: w.ctx().ScopePath,
		Pos:     w.pos(n),
	})

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "pair":
			key := c.ChildByFieldName("key")
			value := c.ChildByFieldName("value")
			prop := ObjectProperty{OwnerID: id, Key: w.text(key), Pos: w.pos(c)}
			if value != nil && value.Type() == "identifier" {
				prop.ValueIsIdent = true
				prop.ValueName = w.text(value)
			}
			w.coll.ObjectProperties = append(w.coll.ObjectProperties, prop)
			w.walk(value)
		case "shorthand_property_identifier":
			name := w.text(c)
			w.coll.ObjectProperties = append(w.coll.ObjectProperties, ObjectProperty{
				OwnerID:      id,
				Key:          name,
				ValueIsIdent: true,
				ValueName:    name,
				Pos:          w.pos(c),
			})
		case "spread_element":
			w.walk(c)
		case "method_definition":
			w.walk(c)
		}
	}
}

// handleArrayLiteral records an array literal and one ArrayElement per
// positional element, then walks each element.
func (w *Walker) handleArrayLiteral(n *sitter.Node) {
	id := w.legacyID("ARRAY_LITERAL", "array", n)
	w.coll.ArrayLiterals = append(w.coll.ArrayLiterals, ArrayLiteral{
		ID:      id,
		ScopeID: w.ctx().ScopePath,
		Pos:     w.pos(n),
	})
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		w.coll.ArrayElements = append(w.coll.ArrayElements, ArrayElement{OwnerID: id, Index: i, Pos: w.pos(c)})
		w.walk(c)
	}
}

// handlePropertyAccess covers a member_expression read when it is not the
// callee of a call_expression or the target of an assignment (those are
// special-cased by handleCall/handleAssignment and never reach here, since
// those handlers walk only the child nodes they need).
func (w *Walker) handlePropertyAccess(n *sitter.Node) {
	object := n.ChildByFieldName("object")
	property := n.ChildByFieldName("property")
	isThis := object != nil && object.Type() == "this"
	w.coll.PropertyAccesses = append(w.coll.PropertyAccesses, PropertyAccess{
		ID:       w.legacyID("PROPERTY_ACCESS", w.text(object)+"."+w.text(property), n),
		Object:   w.text(object),
		Property: w.text(property),
		IsThis:   isThis,
		ScopeID:  w.ctx().ScopePath,
		Pos:      w.pos(n),
	})
	w.walk(object)
}
