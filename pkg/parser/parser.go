// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TreeSitterParser is the incremental, AST-based parser for
// TypeScript/TSX/JavaScript/JSX, with an out-of-process dispatch path for
// C#. Per-language sitter.Parser instances are pooled since they are not
// safe for concurrent use.
type TreeSitterParser struct {
	logger *slog.Logger

	tsPool  sync.Pool
	tsxPool sync.Pool
	jsPool  sync.Pool

	initOnce sync.Once
}

// NewTreeSitterParser constructs a parser. A nil logger falls back to
// slog.Default().
func NewTreeSitterParser(logger *slog.Logger) *TreeSitterParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreeSitterParser{logger: logger}
}

func (p *TreeSitterParser) initPools() {
	p.initOnce.Do(func() {
		p.tsPool.New = func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(typescript.GetLanguage())
			return sp
		}
		p.tsxPool.New = func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(tsx.GetLanguage())
			return sp
		}
		p.jsPool.New = func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(javascript.GetLanguage())
			return sp
		}
	})
}

func (p *TreeSitterParser) poolFor(lang Language) (*sync.Pool, error) {
	switch lang {
	case LanguageTypeScript:
		return &p.tsPool, nil
	case LanguageTSX:
		return &p.tsxPool, nil
	case LanguageJavaScript, LanguageJSX:
		return &p.jsPool, nil
	default:
		return nil, ckgerrors.New(ckgerrors.CodeLanguageNotSupported,
			fmt.Sprintf("language %q is not supported", lang),
			"ckg's parser supports typescript, tsx, javascript, jsx, and csharp",
			"", nil)
	}
}

// Parse parses content, whose filename determines the language, per cfg.
// Hard failures (unsupported language, parser init failure, oversized
// file, timeout) return a non-nil error carrying an *errors.EngineError.
// Syntax errors within an otherwise-parseable file do not fail the call:
// ParseResult.Success is true and ParseResult.Errors is populated instead.
func (p *TreeSitterParser) Parse(ctx context.Context, content []byte, filename string, cfg Config) (*ParseResult, error) {
	lang, ok := LanguageForExtension(filename)
	if !ok {
		return nil, ckgerrors.New(ckgerrors.CodeLanguageNotSupported,
			fmt.Sprintf("no parser registered for %q", filename),
			"the file extension does not map to a supported language",
			"supported extensions: .ts .mts .cts .tsx .js .mjs .cjs .jsx .cs",
			nil)
	}

	if cfg.MaxFileSizeBytes > 0 && int64(len(content)) > cfg.MaxFileSizeBytes {
		return nil, ckgerrors.New(ckgerrors.CodeFileTooLarge,
			fmt.Sprintf("%s exceeds the configured size limit", filename),
			fmt.Sprintf("file is %d bytes, limit is %d bytes", len(content), cfg.MaxFileSizeBytes),
			"raise Config.MaxFileSizeBytes or exclude this file from ingestion",
			nil)
	}

	if lang == LanguageCSharp {
		return parseCSharp(ctx, content, filename, cfg)
	}

	p.initPools()
	pool, err := p.poolFor(lang)
	if err != nil {
		return nil, err
	}

	sp, ok := pool.Get().(*sitter.Parser)
	if !ok || sp == nil {
		return nil, ckgerrors.New(ckgerrors.CodeParserInitialization,
			"failed to acquire a tree-sitter parser instance",
			"the language parser pool returned an unexpected type",
			"", nil)
	}
	defer pool.Put(sp)

	parseCtx := ctx
	var cancel context.CancelFunc
	if cfg.TimeoutMs > 0 {
		parseCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	start := time.Now()
	tree, err := sp.ParseCtx(parseCtx, nil, content)
	elapsed := time.Since(start)
	if err != nil {
		if parseCtx.Err() != nil {
			return nil, ckgerrors.New(ckgerrors.CodeParseTimeout,
				fmt.Sprintf("parsing %s timed out", filename),
				fmt.Sprintf("exceeded %dms", cfg.TimeoutMs),
				"raise Config.TimeoutMs or split the file",
				err)
		}
		return nil, ckgerrors.New(ckgerrors.CodeExtractionError,
			fmt.Sprintf("tree-sitter failed to parse %s", filename),
			err.Error(), "", err)
	}
	defer tree.Close()

	root := tree.RootNode()

	result := &ParseResult{
		Language:    lang,
		ParseTimeMs: elapsed.Milliseconds(),
		Success:     true,
	}

	result.Errors = collectSyntaxErrors(root)

	nameToEntity := make(map[string]bool)
	walkEntities(root, content, lang, cfg, &result.Entities, nameToEntity)
	result.Calls = extractCalls(root, content, result.Entities)
	result.Imports = extractImports(root, content, lang)
	result.Exports = extractExports(root, content)

	return result, nil
}

// collectSyntaxErrors walks the tree collecting ERROR and MISSING nodes as
// recoverable ParseErrors, matching the teacher's error-tolerant contract.
func collectSyntaxErrors(node *sitter.Node) []ParseError {
	var errs []ParseError
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.IsError() || n.IsMissing() {
			pt := n.StartPoint()
			msg := "unexpected syntax"
			if n.IsMissing() {
				msg = fmt.Sprintf("missing %s", n.Type())
			}
			errs = append(errs, ParseError{
				Line:        int(pt.Row) + 1,
				Column:      int(pt.Column) + 1,
				Message:     msg,
				Recoverable: true,
			})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return errs
}
