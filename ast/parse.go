package ast

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageFor picks the tree-sitter grammar by file extension, mirroring
// the extension dispatch in the pack's ingestion engine.
func languageFor(file string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// Parse parses src as file's language and walks it, returning the
// Collections bundle for that file.
func Parse(ctx context.Context, file string, src []byte) (*Collections, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(file))
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	w := NewWalker(file, src)
	return w.Walk(tree.RootNode())
}
