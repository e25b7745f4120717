package graph

import "fmt"

// ValidationError reports a malformed Node or Edge rejected before it
// reaches a Backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph: invalid %s: %s", e.Field, e.Reason)
}

// ValidateNode rejects nodes missing the fields every record needs
// regardless of type.
func ValidateNode(n Node) error {
	if n.Id == "" {
		return &ValidationError{Field: "id", Reason: "empty"}
	}
	if n.Type == "" {
		return &ValidationError{Field: "type", Reason: "empty"}
	}
	return nil
}

// ValidateEdge rejects edges with a missing endpoint, type, or a self-loop
// on a type that forbids it (currently none are forbidden outright; self
// loops are legitimate for READS_FROM).
func ValidateEdge(e Edge) error {
	if e.Src == "" {
		return &ValidationError{Field: "src", Reason: "empty"}
	}
	if e.Dst == "" {
		return &ValidationError{Field: "dst", Reason: "empty"}
	}
	if e.Type == "" {
		return &ValidationError{Field: "type", Reason: "empty"}
	}
	return nil
}
