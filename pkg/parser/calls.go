// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// extractCalls walks the tree for call_expression nodes, attributing each
// to its innermost enclosing named function (caller) and recording the
// called name/expression, generalizing the teacher's same-file
// call-graph extraction (extractJSCalls) beyond Go's single-function-body
// walk to arbitrary nesting.
func extractCalls(root *sitter.Node, content []byte, entities []Entity) []Call {
	var calls []Call
	var walk func(n *sitter.Node, caller string)
	walk = func(n *sitter.Node, caller string) {
		if n == nil {
			return
		}

		nextCaller := caller
		switch n.Type() {
		case "function_declaration", "generator_function_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				nextCaller = text(content, name)
			}
		case "method_definition":
			if name := n.ChildByFieldName("name"); name != nil {
				nextCaller = text(content, name)
			}
		case "arrow_function", "function_expression":
			if parent := n.Parent(); parent != nil && parent.Type() == "variable_declarator" {
				if name := parent.ChildByFieldName("name"); name != nil {
					nextCaller = text(content, name)
				}
			}
		case "call_expression":
			calledExpr := ""
			calledName := ""
			if fn := n.ChildByFieldName("function"); fn != nil {
				calledExpr = text(content, fn)
				calledName = lastIdentifierSegment(fn, content)
			}
			line := int(n.StartPoint().Row) + 1
			calls = append(calls, Call{
				CallerName:       caller,
				CalledName:       calledName,
				CalledExpression: calledExpr,
				LineStart:        line,
				IsAsync:          isAwaited(n),
			})
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), nextCaller)
		}
	}
	walk(root, "")
	return calls
}

// lastIdentifierSegment returns the right-most identifier of a (possibly
// member-access) callee expression: `a.b.c()` -> "c".
func lastIdentifierSegment(fn *sitter.Node, content []byte) string {
	switch fn.Type() {
	case "identifier":
		return text(content, fn)
	case "member_expression":
		if prop := fn.ChildByFieldName("property"); prop != nil {
			return text(content, prop)
		}
	}
	return text(content, fn)
}

func isAwaited(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Type() == "await_expression"
}
