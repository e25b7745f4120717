package ast

import sitter "github.com/smacker/go-tree-sitter"

func literalKind(nodeType string) string {
	switch nodeType {
	case "string", "template_string":
		return "string"
	case "number":
		return "number"
	case "true", "false":
		return "bool"
	case "null", "undefined":
		return "null"
	case "regex":
		return "regex"
	default:
		return nodeType
	}
}

// seenAt reports whether a literal at this exact position was already
// recorded within the last literalWindowSize positions, and records the
// position if not.
func (w *Walker) seenAt(p Position) bool {
	key := litKey{line: p.Line, column: p.Column}
	for _, k := range w.litSeen {
		if k == key {
			return true
		}
	}
	w.litSeen = append(w.litSeen, key)
	if len(w.litSeen) > literalWindowSize {
		w.litSeen = w.litSeen[len(w.litSeen)-literalWindowSize:]
	}
	return false
}

// recordLiteral unconditionally appends a Literal record and marks its
// position seen; used by extractors (arguments, defaults, return/yield)
// that must create the record themselves before the universal handler
// would otherwise see the same node.
func (w *Walker) recordLiteral(n *sitter.Node) Literal {
	p := w.pos(n)
	w.seenAt(p)
	lit := Literal{
		ID:   w.legacyID("LITERAL", w.text(n), n),
		Kind: literalKind(n.Type()),
		Raw:  w.text(n),
		Pos:  p,
	}
	w.coll.Literals = append(w.coll.Literals, lit)
	return lit
}

// recordLiteralIfNew is the universal handler's entry point: it skips
// creation if a specific extractor already recorded this exact position.
func (w *Walker) recordLiteralIfNew(n *sitter.Node) {
	p := w.pos(n)
	if w.seenAt(p) {
		return
	}
	w.coll.Literals = append(w.coll.Literals, Literal{
		ID:   w.legacyID("LITERAL", w.text(n), n),
		Kind: literalKind(n.Type()),
		Raw:  w.text(n),
		Pos:  p,
	})
}
