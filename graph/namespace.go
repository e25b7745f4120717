package graph

import "strings"

// Namespace returns the portion of a node/edge type before the first ':',
// or "" if the type carries no namespace.
func Namespace(typ string) string {
	if i := strings.IndexByte(typ, ':'); i >= 0 {
		return typ[:i]
	}
	return ""
}

// IsNamespaced reports whether typ contains a ':' namespace separator.
func IsNamespaced(typ string) bool {
	return strings.IndexByte(typ, ':') >= 0
}

// Known namespace prefixes.
const (
	NamespaceIssue    = "issue"
	NamespaceGuarantee = "guarantee"
	NamespaceHTTP     = "http"
	NamespaceExpress  = "express"
	NamespaceDB       = "db"
	NamespaceRedis    = "redis"
	NamespaceSocketIO = "socketio"
	NamespaceFS       = "fs"
	NamespaceNet      = "net"
	NamespaceGrafema  = "grafema"
)

// IsIssue reports whether typ is an issue:* node type.
func IsIssue(typ string) bool { return Namespace(typ) == NamespaceIssue }

// IsGuarantee reports whether typ is a guarantee:* node type.
func IsGuarantee(typ string) bool { return Namespace(typ) == NamespaceGuarantee }

// IsSideEffect classifies types in the namespaces that represent an
// observable side effect rather than a pure structural/control construct.
func IsSideEffect(typ string) bool {
	switch Namespace(typ) {
	case NamespaceHTTP, NamespaceExpress, NamespaceDB, NamespaceRedis, NamespaceSocketIO, NamespaceFS, NamespaceNet:
		return true
	default:
		return false
	}
}

// IsEndpoint classifies the route/handler-shaped namespaces.
func IsEndpoint(typ string) bool {
	switch Namespace(typ) {
	case NamespaceHTTP, NamespaceExpress, NamespaceSocketIO:
		return true
	default:
		return false
	}
}

// GuaranteeCategory extracts the category suffix of a guarantee:* type,
// e.g. "queue" from "guarantee:queue". Returns "" if typ is not a
// guarantee type.
func GuaranteeCategory(typ string) string {
	if !IsGuarantee(typ) {
		return ""
	}
	return strings.TrimPrefix(typ, NamespaceGuarantee+":")
}
