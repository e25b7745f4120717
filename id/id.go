// Package id computes and parses the two identity schemes used across the
// graph: the legacy line-based id and the scope-semantic id.
package id

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/grafema-go/grafema/scope"
)

// ErrBadFormat is returned by Parse when an id does not split into the
// expected number of pipe-delimited parts.
var ErrBadFormat = errors.New("id: bad format")

// Parsed holds the components of a legacy line-based id.
type Parsed struct {
	Type       string
	Scope      string
	File       string
	Identifier string
	Line       int
	Column     int
}

// Compute joins its components into the legacy line-based id:
// TYPE|scope|file|identifier|line:column
func Compute(typ, scopePath, file, identifier string, line, column int) string {
	var b strings.Builder
	b.WriteString(typ)
	b.WriteByte('|')
	b.WriteString(scopePath)
	b.WriteByte('|')
	b.WriteString(file)
	b.WriteByte('|')
	b.WriteString(identifier)
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(line))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(column))
	return b.String()
}

// Parse reverses Compute, failing with ErrBadFormat when the part count
// does not match.
func Parse(raw string) (Parsed, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 5 {
		return Parsed{}, fmt.Errorf("%w: %q has %d parts, want 5", ErrBadFormat, raw, len(parts))
	}
	lc := strings.SplitN(parts[4], ":", 2)
	if len(lc) != 2 {
		return Parsed{}, fmt.Errorf("%w: %q missing line:column", ErrBadFormat, raw)
	}
	line, err := strconv.Atoi(lc[0])
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %q bad line %q", ErrBadFormat, raw, lc[0])
	}
	column, err := strconv.Atoi(lc[1])
	if err != nil {
		return Parsed{}, fmt.Errorf("%w: %q bad column %q", ErrBadFormat, raw, lc[1])
	}
	return Parsed{
		Type:       parts[0],
		Scope:      parts[1],
		File:       parts[2],
		Identifier: parts[3],
		Line:       line,
		Column:     column,
	}, nil
}

// SemanticOptions carries the optional discriminator suffix for
// ComputeSemantic.
type SemanticOptions struct {
	Discriminator int
	HasDiscrim    bool
}

// ComputeSemantic returns file->scopePath->TYPE->name[#discriminator] using
// the current ScopeTracker context. It is stable across benign edits that
// do not change scope nesting or sibling ordering.
func ComputeSemantic(typ, name string, ctx scope.Context, opts SemanticOptions) string {
	var b strings.Builder
	b.WriteString(ctx.File)
	b.WriteString("->")
	b.WriteString(ctx.ScopePath)
	b.WriteString("->")
	b.WriteString(typ)
	b.WriteString("->")
	b.WriteString(name)
	if opts.HasDiscrim {
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(opts.Discriminator))
	}
	return b.String()
}
