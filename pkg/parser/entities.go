// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// walkEntities recursively walks the AST collecting functions, classes,
// interfaces, type aliases, and enums, generalizing the teacher's
// per-language walkTSFunctions/walkTSTypesAST pair into one pass over the
// shared grammar node types TS/TSX/JS/JSX all emit.
func walkEntities(node *sitter.Node, content []byte, lang Language, cfg Config, out *[]Entity, seenAnon map[string]bool) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if e := extractFunctionDeclaration(node, content, cfg); e != nil {
			*out = append(*out, *e)
		}
	case "variable_declarator":
		nameNode := node.ChildByFieldName("name")
		valueNode := node.ChildByFieldName("value")
		if nameNode != nil && valueNode != nil {
			switch valueNode.Type() {
			case "arrow_function", "function_expression", "function":
				if e := extractNamedFunctionExpr(nameNode, valueNode, content, cfg); e != nil {
					*out = append(*out, *e)
				}
			}
		}
	case "method_definition":
		if e := extractMethod(node, content, cfg); e != nil {
			*out = append(*out, *e)
		}
	case "method_signature", "function_signature":
		if e := extractSignature(node, content, cfg); e != nil {
			*out = append(*out, *e)
		}
	case "arrow_function", "function_expression":
		parent := node.Parent()
		if cfg.IncludeAnonymous && (parent == nil || parent.Type() != "variable_declarator") {
			if e := extractAnonymousFunction(node, content, cfg); e != nil {
				*out = append(*out, *e)
			}
		}
	case "interface_declaration":
		if e := extractInterface(node, content, cfg); e != nil {
			*out = append(*out, *e)
		}
	case "class_declaration", "abstract_class_declaration":
		if e := extractClass(node, content, cfg); e != nil {
			*out = append(*out, *e)
		}
	case "type_alias_declaration":
		if e := extractTypeAlias(node, content, cfg); e != nil {
			*out = append(*out, *e)
		}
	case "enum_declaration":
		if e := extractEnum(node, content, cfg); e != nil {
			*out = append(*out, *e)
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkEntities(node.Child(i), content, lang, cfg, out, seenAnon)
	}
}

func text(content []byte, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

func lineCol(n *sitter.Node) (startLine, endLine, startCol, endCol int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1,
		int(n.StartPoint().Column) + 1, int(n.EndPoint().Column) + 1
}

// leadingComment walks backward through n's older siblings collecting a
// contiguous run of comment nodes immediately preceding it.
func leadingComment(n *sitter.Node, content []byte) string {
	parent := n.Parent()
	if parent == nil {
		return ""
	}
	idx := -1
	for i := 0; i < int(parent.ChildCount()); i++ {
		if parent.Child(i) == n {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return ""
	}
	var lines []string
	for i := idx - 1; i >= 0; i-- {
		sib := parent.Child(i)
		if sib.Type() != "comment" {
			break
		}
		lines = append([]string{text(content, sib)}, lines...)
	}
	return strings.Join(lines, "\n")
}

func isExported(n *sitter.Node) bool {
	parent := n.Parent()
	for parent != nil {
		switch parent.Type() {
		case "export_statement":
			return true
		case "program", "statement_block", "class_body":
			return false
		}
		parent = parent.Parent()
	}
	return false
}

func hasModifier(n *sitter.Node, content []byte, keyword string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if text(content, c) == keyword {
			return true
		}
	}
	return false
}

func extractParameters(paramsNode *sitter.Node, content []byte) []Parameter {
	if paramsNode == nil {
		return nil
	}
	var params []Parameter
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		c := paramsNode.Child(i)
		switch c.Type() {
		case "required_parameter", "optional_parameter":
			params = append(params, parseOneParameter(c, content, c.Type() == "optional_parameter"))
		case "identifier", "rest_pattern", "assignment_pattern", "object_pattern", "array_pattern":
			params = append(params, parseOneParameter(c, content, false))
		}
	}
	return params
}

func parseOneParameter(n *sitter.Node, content []byte, optional bool) Parameter {
	p := Parameter{HasDefault: optional}
	switch n.Type() {
	case "rest_pattern":
		p.IsRest = true
		if pat := n.Child(int(n.ChildCount()) - 1); pat != nil {
			p.Name = text(content, pat)
		}
	case "assignment_pattern":
		p.HasDefault = true
		if left := n.ChildByFieldName("left"); left != nil {
			p.Name = text(content, left)
		}
	default:
		pattern := n.ChildByFieldName("pattern")
		if pattern == nil {
			pattern = n
		}
		p.Name = text(content, pattern)
	}
	if typeAnn := n.ChildByFieldName("type"); typeAnn != nil {
		p.Type = strings.TrimPrefix(text(content, typeAnn), ":")
		p.Type = strings.TrimSpace(p.Type)
	}
	p.Name = strings.TrimSpace(p.Name)
	return p
}

func extractFunctionDeclaration(n *sitter.Node, content []byte, cfg Config) *Entity {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	startLine, endLine, startCol, endCol := lineCol(n)
	e := &Entity{
		Name:        text(content, nameNode),
		Kind:        EntityFunction,
		LineStart:   startLine,
		LineEnd:     endLine,
		ColStart:    startCol,
		ColEnd:      endCol,
		IsExported:  isExported(n),
		IsAsync:     hasModifier(n, content, "async"),
		IsGenerator: n.Type() == "generator_function_declaration" || strings.Contains(text(content, n), "*"),
		Parameters:  extractParameters(n.ChildByFieldName("parameters"), content),
		CodeText:    text(content, n),
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		e.ReturnType = strings.TrimSpace(strings.TrimPrefix(text(content, ret), ":"))
	}
	if cfg.ExtractDocumentation {
		e.Documentation = leadingComment(n, content)
	}
	return e
}

func extractNamedFunctionExpr(nameNode, valueNode *sitter.Node, content []byte, cfg Config) *Entity {
	startLine, endLine, startCol, endCol := lineCol(valueNode)
	e := &Entity{
		Name:        text(content, nameNode),
		Kind:        EntityFunction,
		LineStart:   startLine,
		LineEnd:     endLine,
		ColStart:    startCol,
		ColEnd:      endCol,
		IsExported:  isExported(nameNode.Parent()),
		IsAsync:     hasModifier(valueNode, content, "async"),
		Parameters:  extractParameters(valueNode.ChildByFieldName("parameters"), content),
		CodeText:    text(content, valueNode),
	}
	if ret := valueNode.ChildByFieldName("return_type"); ret != nil {
		e.ReturnType = strings.TrimSpace(strings.TrimPrefix(text(content, ret), ":"))
	}
	if cfg.ExtractDocumentation {
		if decl := nameNode.Parent(); decl != nil {
			e.Documentation = leadingComment(decl.Parent(), content)
		}
	}
	return e
}

func extractMethod(n *sitter.Node, content []byte, cfg Config) *Entity {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	startLine, endLine, startCol, endCol := lineCol(n)
	e := &Entity{
		Name:        text(content, nameNode),
		Kind:        EntityFunction,
		LineStart:   startLine,
		LineEnd:     endLine,
		ColStart:    startCol,
		ColEnd:      endCol,
		IsAsync:     hasModifier(n, content, "async"),
		IsStatic:    hasModifier(n, content, "static"),
		Parameters:  extractParameters(n.ChildByFieldName("parameters"), content),
		CodeText:    text(content, n),
		IsExported:  true, // always true for methods; the enclosing class's export status is not consulted
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		e.ReturnType = strings.TrimSpace(strings.TrimPrefix(text(content, ret), ":"))
	}
	if cfg.ExtractDocumentation {
		e.Documentation = leadingComment(n, content)
	}
	return e
}

func extractSignature(n *sitter.Node, content []byte, cfg Config) *Entity {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	startLine, endLine, startCol, endCol := lineCol(n)
	e := &Entity{
		Name:       text(content, nameNode),
		Kind:       EntityFunction,
		LineStart:  startLine,
		LineEnd:    endLine,
		ColStart:   startCol,
		ColEnd:     endCol,
		IsExported: isExported(n),
		Parameters: extractParameters(n.ChildByFieldName("parameters"), content),
		CodeText:   text(content, n),
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		e.ReturnType = strings.TrimSpace(strings.TrimPrefix(text(content, ret), ":"))
	}
	if cfg.ExtractDocumentation {
		e.Documentation = leadingComment(n, content)
	}
	return e
}

func extractAnonymousFunction(n *sitter.Node, content []byte, cfg Config) *Entity {
	startLine, endLine, startCol, endCol := lineCol(n)
	return &Entity{
		Name:       "<anonymous>",
		Kind:       EntityFunction,
		LineStart:  startLine,
		LineEnd:    endLine,
		ColStart:   startCol,
		ColEnd:     endCol,
		IsAsync:    hasModifier(n, content, "async"),
		Parameters: extractParameters(n.ChildByFieldName("parameters"), content),
		CodeText:   text(content, n),
	}
}

func extractInterface(n *sitter.Node, content []byte, cfg Config) *Entity {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	startLine, endLine, startCol, endCol := lineCol(n)
	e := &Entity{
		Name:       text(content, nameNode),
		Kind:       EntityInterface,
		LineStart:  startLine,
		LineEnd:    endLine,
		ColStart:   startCol,
		ColEnd:     endCol,
		IsExported: isExported(n),
		CodeText:   text(content, n),
		Implements: extendsListFor(n, content, "extends_type_clause"),
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		e.TypeParameters = typeParamNames(tp, content)
	}
	if cfg.ExtractDocumentation {
		e.Documentation = leadingComment(n, content)
	}
	return e
}

func extractClass(n *sitter.Node, content []byte, cfg Config) *Entity {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	startLine, endLine, startCol, endCol := lineCol(n)
	e := &Entity{
		Name:       text(content, nameNode),
		Kind:       EntityClass,
		LineStart:  startLine,
		LineEnd:    endLine,
		ColStart:   startCol,
		ColEnd:     endCol,
		IsExported: isExported(n),
		IsAbstract: n.Type() == "abstract_class_declaration" || hasModifier(n, content, "abstract"),
		CodeText:   text(content, n),
	}
	var heritage *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "class_heritage" {
			heritage = n.Child(i)
			break
		}
	}
	if heritage != nil {
		for i := 0; i < int(heritage.ChildCount()); i++ {
			clause := heritage.Child(i)
			switch clause.Type() {
			case "class_heritage", "extends_clause":
				for j := 0; j < int(clause.ChildCount()); j++ {
					if clause.Child(j).Type() == "identifier" || clause.Child(j).Type() == "type_identifier" {
						e.Extends = text(content, clause.Child(j))
					}
				}
			case "implements_clause":
				e.Implements = append(e.Implements, namesIn(clause, content)...)
			}
		}
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		e.TypeParameters = typeParamNames(tp, content)
	}
	if cfg.ExtractDocumentation {
		e.Documentation = leadingComment(n, content)
	}
	return e
}

func extractTypeAlias(n *sitter.Node, content []byte, cfg Config) *Entity {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	startLine, endLine, startCol, endCol := lineCol(n)
	e := &Entity{
		Name:       text(content, nameNode),
		Kind:       EntityTypeAlias,
		LineStart:  startLine,
		LineEnd:    endLine,
		ColStart:   startCol,
		ColEnd:     endCol,
		IsExported: isExported(n),
		CodeText:   text(content, n),
	}
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		e.TypeParameters = typeParamNames(tp, content)
	}
	if cfg.ExtractDocumentation {
		e.Documentation = leadingComment(n, content)
	}
	return e
}

func extractEnum(n *sitter.Node, content []byte, cfg Config) *Entity {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	startLine, endLine, startCol, endCol := lineCol(n)
	e := &Entity{
		Name:       text(content, nameNode),
		Kind:       EntityEnum,
		LineStart:  startLine,
		LineEnd:    endLine,
		ColStart:   startCol,
		ColEnd:     endCol,
		IsExported: isExported(n),
		CodeText:   text(content, n),
	}
	if cfg.ExtractDocumentation {
		e.Documentation = leadingComment(n, content)
	}
	return e
}

func extendsListFor(n *sitter.Node, content []byte, clauseType string) []string {
	var names []string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == clauseType {
			names = append(names, namesIn(c, content)...)
		}
	}
	return names
}

func namesIn(n *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "type_identifier" || c.Type() == "identifier" {
			names = append(names, text(content, c))
		}
	}
	return names
}

func typeParamNames(n *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "type_parameter" {
			if id := c.ChildByFieldName("name"); id != nil {
				names = append(names, text(content, id))
			} else {
				names = append(names, text(content, c))
			}
		}
	}
	return names
}
