// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides the structured error type shared across every
// component of ckg.
//
// Every error that crosses a component boundary (retry harness, parser,
// vector store, graph store, ingestion pipeline, metadata store,
// coordinator, query service) is wrapped exactly once, at that boundary,
// into an *EngineError carrying one of the stable codes enumerated below.
// Codes form a closed set: callers branch on Code, never on Message text.
// EngineError also carries CLI-facing Message/Cause/Fix fields and maps to
// a process exit code, so the same type serves both library callers
// (switch on Code) and the cmd/ckg CLI (Format/ToJSON/FatalError).
//
// # Usage
//
//	err := errors.New(errors.CodeCollectionNotFound,
//	    `Collection "repo_demo" does not exist`,
//	    "no prior ingestion has created this collection",
//	    "run 'ckg index' for this repository first",
//	    nil,
//	)
//	if err != nil {
//	    errors.FatalError(err, false)
//	}
//
// # Formatted Output
//
//	fmt.Fprint(os.Stderr, err.Format(false))
//	// Error: Collection "repo_demo" does not exist [COLLECTION_NOT_FOUND]
//	// Cause: no prior ingestion has created this collection
//	// Fix:   run 'ckg index' for this repository first
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Code is one of the stable, enumerated error codes surfaced at ckg's
// external boundary. Callers branch on Code, never on Message.
type Code string

// The closed set of error codes.
const (
	CodeConnectionError       Code = "CONNECTION_ERROR"
	CodeHealthCheckFailed     Code = "HEALTH_CHECK_FAILED"
	CodeCollectionNotFound    Code = "COLLECTION_NOT_FOUND"
	CodeCollectionOperation   Code = "COLLECTION_OPERATION_ERROR"
	CodeCollectionDelete      Code = "COLLECTION_DELETE_ERROR"
	CodeCollectionList        Code = "COLLECTION_LIST_ERROR"
	CodeCollectionStats       Code = "COLLECTION_STATS_ERROR"
	CodeInvalidParameters     Code = "INVALID_PARAMETERS"
	CodeDocumentOperation     Code = "DOCUMENT_OPERATION_ERROR"
	CodeSearchOperation       Code = "SEARCH_OPERATION_ERROR"
	CodeTimeout               Code = "TIMEOUT_ERROR"
	CodeGraphError            Code = "GRAPH_ERROR"
	CodeNodeNotFound          Code = "NODE_NOT_FOUND"
	CodeRepositoryExists      Code = "REPOSITORY_EXISTS"
	CodeRepositoryMetadata    Code = "REPOSITORY_METADATA_ERROR"
	CodeFileOperation         Code = "FILE_OPERATION_ERROR"
	CodeInvalidMetadataFormat Code = "INVALID_METADATA_FORMAT"
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeLanguageNotSupported  Code = "LANGUAGE_NOT_SUPPORTED"
	CodeParserInitialization  Code = "PARSER_INITIALIZATION_ERROR"
	CodeParseTimeout          Code = "PARSE_TIMEOUT_ERROR"
	CodeFileTooLarge          Code = "FILE_TOO_LARGE_ERROR"
	CodeExtractionError       Code = "EXTRACTION_ERROR"
	CodeConfigError           Code = "CONFIG_ERROR"
)

// Exit codes for cmd/ckg, following the CLI's semantic-exit-code convention.
const (
	ExitSuccess    = 0
	ExitInput      = 1
	ExitDatabase   = 2
	ExitNetwork    = 3
	ExitValidation = 4
	ExitPermission = 5
	ExitNotFound   = 6
	ExitInternal   = 10
)

// exitCodeFor maps each Code to the CLI exit code cmd/ckg should use. This
// is the only place that translation lives.
var exitCodeFor = map[Code]int{
	CodeConnectionError:       ExitNetwork,
	CodeHealthCheckFailed:     ExitNetwork,
	CodeCollectionNotFound:    ExitNotFound,
	CodeCollectionOperation:   ExitDatabase,
	CodeCollectionDelete:      ExitDatabase,
	CodeCollectionList:        ExitDatabase,
	CodeCollectionStats:       ExitDatabase,
	CodeInvalidParameters:     ExitValidation,
	CodeDocumentOperation:     ExitDatabase,
	CodeSearchOperation:       ExitDatabase,
	CodeTimeout:               ExitNetwork,
	CodeGraphError:            ExitDatabase,
	CodeNodeNotFound:          ExitNotFound,
	CodeRepositoryExists:      ExitValidation,
	CodeRepositoryMetadata:    ExitDatabase,
	CodeFileOperation:         ExitPermission,
	CodeInvalidMetadataFormat: ExitValidation,
	CodeValidation:            ExitValidation,
	CodeLanguageNotSupported:  ExitValidation,
	CodeParserInitialization:  ExitInternal,
	CodeParseTimeout:          ExitNetwork,
	CodeFileTooLarge:          ExitValidation,
	CodeExtractionError:       ExitInternal,
	CodeConfigError:           ExitInput,
}

// transientCodes are retryable: connection errors, timeouts, and
// health-check failures. Everything else is either user-induced
// (permanent) or needs operator attention.
var transientCodes = map[Code]bool{
	CodeConnectionError:   true,
	CodeHealthCheckFailed: true,
	CodeTimeout:           true,
}

// Retryable reports whether errors carrying this code are transient and
// worth handing to pkg/retry.
func (c Code) Retryable() bool {
	return transientCodes[c]
}

// EngineError is ckg's structured error type. It carries a stable Code for
// programmatic branching plus Message/Cause/Fix for human display.
type EngineError struct {
	// Code is the stable, enumerated error code.
	Code Code

	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred (diagnostic information).
	Cause string

	// Fix suggests how to resolve the error. May be empty.
	Fix string

	// Err is the underlying error, if any, enabling errors.Is/As chains.
	Err error
}

// New constructs an EngineError. fix may be empty when there is no
// actionable remediation to suggest.
func New(code Code, message, cause, fix string, err error) *EngineError {
	return &EngineError{Code: code, Message: message, Cause: cause, Fix: fix, Err: err}
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap enables errors.Is/errors.As across the wrapped cause.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code cmd/ckg should use for this error.
func (e *EngineError) ExitCode() int {
	if code, ok := exitCodeFor[e.Code]; ok {
		return code
	}
	return ExitInternal
}

// Retryable reports whether pkg/retry should retry the operation that
// produced this error.
func (e *EngineError) Retryable() bool {
	return e.Code.Retryable()
}

// CodeOf extracts the Code from err if it (or something in its chain) is an
// *EngineError, returning "" otherwise.
func CodeOf(err error) Code {
	var ee *EngineError
	if As(err, &ee) {
		return ee.Code
	}
	return ""
}

// As walks err's Unwrap chain looking for an *EngineError, matching the
// stdlib errors.As contract without requiring callers to import both
// packages under different names.
func As(err error, target **EngineError) bool {
	for err != nil {
		if ee, ok := err.(*EngineError); ok {
			*target = ee
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display. Color
// output respects the NO_COLOR environment variable and can be explicitly
// disabled with the noColor parameter.
func (e *EngineError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString(fmt.Sprintf(" [%s]", e.Code))
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// JSON is the machine-readable form of an EngineError, suitable for CLI
// commands that support --json output mode.
type JSON struct {
	Code     Code   `json:"code"`
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the EngineError to its JSON-serializable form.
func (e *EngineError) ToJSON() JSON {
	return JSON{
		Code:     e.Code,
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode(),
	}
}

// FatalError prints err and exits the process with the appropriate code.
// Non-EngineError values print a plain message and exit with ExitInternal.
// This function never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ee, ok := err.(*EngineError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ee.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ee.Format(false))
		}
		os.Exit(ee.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
