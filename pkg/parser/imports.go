// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// extractImports walks the whole tree for import_statement nodes and
// decomposes each into the full contract: default/namespace
// bindings, named imports with aliases, relative/type-only/side-effect
// flags.
func extractImports(root *sitter.Node, content []byte, lang Language) []Import {
	var imports []Import
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "import_statement" {
			if imp := parseImportStatement(n, content); imp != nil {
				imports = append(imports, *imp)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return imports
}

func parseImportStatement(n *sitter.Node, content []byte) *Import {
	sourceNode := n.ChildByFieldName("source")
	if sourceNode == nil {
		return nil
	}
	source := unquote(text(content, sourceNode))
	line := int(n.StartPoint().Row) + 1

	imp := &Import{
		Source:     source,
		IsRelative: strings.HasPrefix(source, "."),
		LineStart:  line,
		Aliases:    map[string]string{},
	}

	clause := n.ChildByFieldName("import") // not a real field in the grammar; fall through to scan
	_ = clause

	hasBinding := false
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "import_clause":
			hasBinding = true
			parseImportClause(c, content, imp)
		case "type":
			imp.IsTypeOnly = true
		}
	}
	if !hasBinding {
		imp.IsSideEffect = true
	}
	if len(imp.Aliases) == 0 {
		imp.Aliases = nil
	}
	return imp
}

func parseImportClause(n *sitter.Node, content []byte, imp *Import) {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "identifier":
			imp.DefaultImport = text(content, c)
		case "namespace_import":
			for j := 0; j < int(c.ChildCount()); j++ {
				if c.Child(j).Type() == "identifier" {
					imp.NamespaceImport = text(content, c.Child(j))
				}
			}
		case "named_imports":
			for j := 0; j < int(c.ChildCount()); j++ {
				spec := c.Child(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("name")
				aliasNode := spec.ChildByFieldName("alias")
				if nameNode == nil {
					continue
				}
				name := text(content, nameNode)
				imp.ImportedNames = append(imp.ImportedNames, name)
				if aliasNode != nil {
					if imp.Aliases == nil {
						imp.Aliases = map[string]string{}
					}
					imp.Aliases[name] = text(content, aliasNode)
				}
			}
		}
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			if u, err := strconv.Unquote(`"` + strings.Trim(s[1:len(s)-1], `"`) + `"`); err == nil {
				return u
			}
			return s[1 : len(s)-1]
		}
	}
	return s
}

// extractExports collects the names introduced by top-level `export`
// statements: exported declarations and named re-exports.
func extractExports(root *sitter.Node, content []byte) []string {
	var exports []string
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() != "export_statement" {
			continue
		}
		if decl := c.ChildByFieldName("declaration"); decl != nil {
			if name := declarationName(decl, content); name != "" {
				exports = append(exports, name)
			}
			continue
		}
		// export { a, b as c }
		for j := 0; j < int(c.ChildCount()); j++ {
			if c.Child(j).Type() == "export_clause" {
				clause := c.Child(j)
				for k := 0; k < int(clause.ChildCount()); k++ {
					spec := clause.Child(k)
					if spec.Type() != "export_specifier" {
						continue
					}
					if nameNode := spec.ChildByFieldName("name"); nameNode != nil {
						exports = append(exports, text(content, nameNode))
					}
				}
			}
		}
	}
	return exports
}

func declarationName(n *sitter.Node, content []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return text(content, name)
	}
	// variable declarations: export const x = ...
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "variable_declarator" {
			if name := c.ChildByFieldName("name"); name != nil {
				return text(content, name)
			}
		}
	}
	return ""
}
