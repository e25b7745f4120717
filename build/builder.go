// Package build translates the ast package's per-file Collections into
// graph nodes and edges, buffers them per file, resolves what can be
// resolved at file scope (plus a cross-file pass in resolve.go), and
// commits the result to a graph.Backend as one atomic batch per file.
package build

import (
	"context"
	"fmt"

	"github.com/grafema-go/grafema/ast"
	"github.com/grafema-go/grafema/diag"
	"github.com/grafema-go/grafema/graph"
)

// Node type tags this package mints, alongside the CONTAINS/CALLS/etc.
// edge vocabulary already declared in package graph.
const (
	TypeModule           = "MODULE"
	TypeFunction         = "FUNCTION"
	TypeMethod           = "METHOD"
	TypeScope            = "SCOPE"
	TypeClass            = "CLASS"
	TypeInterface        = "INTERFACE"
	TypeTypeAlias        = "TYPE_ALIAS"
	TypeEnum             = "ENUM"
	TypeDecorator        = "DECORATOR"
	TypeVariable         = "VARIABLE"
	TypeLiteral          = "LITERAL"
	TypeCallSite         = "CALL_SITE"
	TypeMethodCall       = "METHOD_CALL"
	TypeConstructorCall  = "CONSTRUCTOR_CALL"
	TypeObjectLiteral    = "OBJECT_LITERAL"
	TypeArrayLiteral     = "ARRAY_LITERAL"
	TypeObjectMutation   = "OBJECT_MUTATION"
	TypeArrayMutation    = "ARRAY_MUTATION"
	TypeUpdateExpression = "UPDATE_EXPRESSION"
	TypeReturn           = "RETURN"
	TypeYield            = "YIELD"
	TypeImport           = "IMPORT"
	TypeExport           = "EXPORT"
	TypeExternalModule   = "EXTERNAL_MODULE"
	TypeExternalFunction = "EXTERNAL_FUNCTION"
	TypeHTTPRequest      = "http:request"
)

// ModuleID is the shared id scheme for a file's MODULE node, used both by
// the indexing plugin (which creates the node) and this package (which
// needs it as the root CONTAINS anchor for a file's top-level records).
func ModuleID(file string) string {
	return "MODULE|module|" + file
}

// UnresolvedCall is a bare call this file's build pass could not classify,
// kept for the cross-file resolution pass in resolve.go.
type UnresolvedCall struct {
	CallID string
	Callee string
	File   string
}

// UnresolvedThisMethod is a `this.method(...)` call whose target wasn't
// found on the enclosing class within its own file — the class may be
// declared (or reopened via a mixin) elsewhere.
type UnresolvedThisMethod struct {
	CallID    string
	ClassName string
	Method    string
	File      string
}

// GraphBuilder drives the Collections -> Backend translation for a
// project's files.
type GraphBuilder struct {
	Backend     graph.Backend
	Diagnostics *diag.Collector

	UnresolvedCalls       []UnresolvedCall
	UnresolvedThisMethods []UnresolvedThisMethod
}

// New creates a GraphBuilder writing to backend and reporting dropped
// edges/unresolved calls to diagnostics.
func New(backend graph.Backend, diagnostics *diag.Collector) *GraphBuilder {
	if diagnostics == nil {
		diagnostics = diag.NewCollector()
	}
	return &GraphBuilder{Backend: backend, Diagnostics: diagnostics}
}

// BuildFile buffers one file's Collections into nodes and edges and
// commits them as a single batch. deferIndex is forwarded to
// Backend.CommitBatch so a caller driving many files can defer index
// maintenance until the last one.
func (b *GraphBuilder) BuildFile(ctx context.Context, coll *ast.Collections, deferIndex bool) error {
	batch, err := b.Backend.BeginBatch(ctx, coll.File)
	if err != nil {
		return fmt.Errorf("build: begin batch %s: %w", coll.File, err)
	}

	fb := newFileBuilder(coll, b.Diagnostics)
	fb.run()

	batch.AddNodes(fb.nodes...)
	batch.AddEdges(fb.edges...)

	if err := b.Backend.CommitBatch(ctx, batch, deferIndex, nil); err != nil {
		_ = b.Backend.AbortBatch(ctx, batch)
		return fmt.Errorf("build: commit batch %s: %w", coll.File, err)
	}

	for callID, callee := range fb.unresolvedCalleeIDs {
		b.UnresolvedCalls = append(b.UnresolvedCalls, UnresolvedCall{CallID: callID, Callee: callee, File: coll.File})
	}
	for _, ref := range fb.unresolvedThisMethods {
		b.UnresolvedThisMethods = append(b.UnresolvedThisMethods, UnresolvedThisMethod{
			CallID: ref.callID, ClassName: ref.className, Method: ref.method, File: coll.File,
		})
	}
	return nil
}
