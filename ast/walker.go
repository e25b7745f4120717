package ast

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/grafema-go/grafema/id"
	"github.com/grafema-go/grafema/scope"
)

// AnalysisError reports a fatal parse failure for one file; other
// Collections gathered so far for that file are discarded and the caller
// moves on to the next file.
type AnalysisError struct {
	File    string
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("ast: %s: %s", e.File, e.Message)
}

// literalWindowSize bounds the lookback window used to suppress duplicate
// LITERAL records when a specific extractor (arguments, default params,
// return/yield) has already created the record for a literal the
// universal handler also visits.
const literalWindowSize = 50

// Walker performs a single-pass traversal of one file's parsed tree,
// threading a scope.Tracker through every node visited.
type Walker struct {
	file             string
	src              []byte
	scope            *scope.Tracker
	coll             *Collections
	litSeen          []litKey // ring buffer, most recent literalWindowSize entries
	currentClassName string   // set while walking a class body, for this.method resolution
	importAliases    map[string]string
}

type litKey struct {
	line, column int
}

// NewWalker creates a Walker for one file's source.
func NewWalker(file string, src []byte) *Walker {
	return &Walker{
		file:          file,
		src:           src,
		scope:         scope.New(file, "module"),
		coll:          newCollections(file),
		importAliases: make(map[string]string),
	}
}

// Walk traverses tree (the root `program` node) and returns the
// Collections bundle. A panic recovered from malformed-tree traversal is
// converted into an AnalysisError rather than crashing the whole run.
func (w *Walker) Walk(tree *sitter.Node) (coll *Collections, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &AnalysisError{File: w.file, Message: fmt.Sprintf("%v", r)}
		}
	}()
	w.coll.SuppressedCodes = scanIgnorePragmas(w.src)
	w.walk(tree)
	return w.coll, nil
}

func (w *Walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.src[n.StartByte():n.EndByte()])
}

func (w *Walker) pos(n *sitter.Node) Position {
	p := n.StartPoint()
	return Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}

func (w *Walker) ctx() scope.Context {
	return w.scope.GetContext()
}

func (w *Walker) semanticID(typ, name string) string {
	ctx := w.ctx()
	discrim := w.scope.GetItemCounter(typ, name)
	opts := id.SemanticOptions{}
	if discrim > 0 {
		opts = id.SemanticOptions{Discriminator: discrim, HasDiscrim: true}
	}
	return id.ComputeSemantic(typ, name, ctx, opts)
}

func (w *Walker) legacyID(typ, identifier string, n *sitter.Node) string {
	p := w.pos(n)
	return id.Compute(typ, w.ctx().ScopePath, w.file, identifier, p.Line, p.Column)
}

// walk is the recursive descent switch: one case per JS/TS node kind,
// each delegating to its handler before descending.
func (w *Walker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		w.handleFunction(n, "declaration", "")
		return
	case "function_expression", "generator_function":
		w.handleFunction(n, "expression", "")
		return
	case "arrow_function":
		w.handleFunction(n, "arrow", "")
		return
	case "method_definition":
		w.handleMethod(n)
		return
	case "class_declaration", "class":
		w.handleClass(n)
		return
	case "variable_declaration", "lexical_declaration":
		w.handleVariableDeclaration(n)
		return
	case "assignment_expression", "augmented_assignment_expression":
		w.handleAssignment(n)
		return
	case "call_expression":
		w.handleCall(n)
		return
	case "new_expression":
		w.handleNewExpression(n)
		return
	case "update_expression":
		w.handleUpdateExpression(n)
		return
	case "return_statement":
		w.handleReturn(n)
		return
	case "yield_expression":
		w.handleYield(n)
		return
	case "if_statement":
		w.handleIf(n)
		return
	case "for_statement", "for_in_statement":
		w.handleLoop(n, "for")
		return
	case "while_statement":
		w.handleLoop(n, "while")
		return
	case "do_statement":
		w.handleLoop(n, "do_while")
		return
	case "switch_statement":
		w.handleSwitch(n)
		return
	case "try_statement":
		w.handleTry(n)
		return
	case "import_statement":
		w.handleImport(n)
		return
	case "export_statement":
		w.handleExport(n)
		return
	case "string", "template_string", "number", "true", "false", "null", "undefined", "regex":
		w.recordLiteralIfNew(n)
		return
	case "decorator":
		w.handleDecorator(n)
		return
	case "interface_declaration":
		w.handleInterface(n)
		return
	case "type_alias_declaration":
		w.handleTypeAlias(n)
		return
	case "enum_declaration":
		w.handleEnum(n)
		return
	case "object":
		w.handleObjectLiteral(n)
		return
	case "array":
		w.handleArrayLiteral(n)
		return
	case "member_expression":
		w.handlePropertyAccess(n)
		return
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		w.walk(n.Child(i))
	}
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
