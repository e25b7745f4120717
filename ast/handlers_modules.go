package ast

import sitter "github.com/smacker/go-tree-sitter"

// handleImport records one Import record per named/default/namespace
// specifier in an import declaration, and tracks the local-name -> source
// alias table the builder's import-fallback resolution rule needs
//. import_clause is not exposed as a named field in the
// grammar, so it is located by scanning children like handleClass does
// for class_heritage.
func (w *Walker) handleImport(n *sitter.Node) {
	source := ""
	var clause *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "string":
			source = trimQuotes(w.text(c))
		case "import_clause":
			clause = c
		}
	}

	if clause == nil {
		// side-effect only import: `import "./foo.css"`
		return
	}
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		spec := clause.NamedChild(i)
		switch spec.Type() {
		case "identifier":
			local := w.text(spec)
			w.recordImport(n, source, local, local, true, false)
		case "namespace_import":
			if spec.NamedChildCount() > 0 {
				local := w.text(spec.NamedChild(0))
				w.recordImport(n, source, local, "*", false, true)
			}
		case "named_imports":
			for j := 0; j < int(spec.NamedChildCount()); j++ {
				pair := spec.NamedChild(j)
				if pair.Type() != "import_specifier" {
					continue
				}
				name := pair.ChildByFieldName("name")
				alias := pair.ChildByFieldName("alias")
				imported := w.text(name)
				local := imported
				if alias != nil {
					local = w.text(alias)
				}
				w.recordImport(n, source, local, imported, false, false)
			}
		}
	}
}

func (w *Walker) recordImport(n *sitter.Node, source, local, imported string, isDefault, isNamespace bool) {
	w.importAliases[local] = source
	w.coll.Imports = append(w.coll.Imports, Import{
		ID:           w.legacyID("IMPORT", local, n),
		Source:       source,
		LocalName:    local,
		ImportedName: imported,
		IsDefault:    isDefault,
		IsNamespace:  isNamespace,
		Pos:          w.pos(n),
	})
}

// handleExport records named/default export declarations, including
// re-exports of an already-declared local binding.
func (w *Walker) handleExport(n *sitter.Node) {
	isDefault := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "default" {
			isDefault = true
		}
	}

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		name := exportedDeclName(w, decl)
		w.coll.Exports = append(w.coll.Exports, Export{
			ID:         w.legacyID("EXPORT", name, n),
			LocalName:  name,
			ExportedAs: name,
			IsDefault:  isDefault,
			Pos:        w.pos(n),
		})
		w.walk(decl)
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch c.Type() {
		case "export_clause":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				spec := c.NamedChild(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				name := spec.ChildByFieldName("name")
				alias := spec.ChildByFieldName("alias")
				local := w.text(name)
				exportedAs := local
				if alias != nil {
					exportedAs = w.text(alias)
				}
				w.coll.Exports = append(w.coll.Exports, Export{
					ID:         w.legacyID("EXPORT", local, n),
					LocalName:  local,
					ExportedAs: exportedAs,
					IsDefault:  isDefault,
					Pos:        w.pos(n),
				})
			}
		case "identifier":
			// `export default Identifier;` — the default expression form.
			name := w.text(c)
			w.coll.Exports = append(w.coll.Exports, Export{
				ID:         w.legacyID("EXPORT", name, n),
				LocalName:  name,
				ExportedAs: name,
				IsDefault:  isDefault,
				Pos:        w.pos(n),
			})
		}
	}
}

func exportedDeclName(w *Walker, decl *sitter.Node) string {
	if nameNode := decl.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	return ""
}
