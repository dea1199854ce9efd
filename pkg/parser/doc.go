// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package parser extracts entities, imports, and calls from source files.
//
// TypeScript, TSX, JavaScript and JSX are parsed with an incremental
// Tree-sitter grammar producing a concrete syntax tree; parsing is
// error-tolerant, so a file with syntax errors still returns a
// ParseResult with Success=true, a populated Errors list, and whatever
// entities could be recovered around the damaged region. C# files are
// recognized but not parsed: they yield a successful ParseResult with no
// entities, whether or not a dotnet/csc toolchain is detected on PATH.
//
// # Quick Start
//
//	p := parser.NewTreeSitterParser(nil)
//	result, err := p.Parse(ctx, content, "service.ts", parser.DefaultConfig())
//	if err != nil {
//	    // hard failure: parser init, unsupported language, file too large
//	}
//	for _, e := range result.Entities {
//	    fmt.Println(e.Kind, e.Name)
//	}
package parser
