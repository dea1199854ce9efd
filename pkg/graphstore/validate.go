// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graphstore

import (
	"fmt"
	"regexp"

	ckgerrors "github.com/kraklabs/ckg/internal/errors"
)

// identifierPattern is the shape every kind or relationship-type string
// must match before it is bound into a query as a `$name` parameter.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func validateKind(kind NodeKind) error {
	if !identifierPattern.MatchString(string(kind)) {
		return ckgerrors.New(ckgerrors.CodeValidation,
			fmt.Sprintf("node kind %q is invalid", kind),
			"kinds must match ^[A-Za-z][A-Za-z0-9_]*$",
			"use one of the predefined NodeKind constants",
			nil,
		)
	}
	return nil
}

func validateRelType(rel RelType) error {
	if !identifierPattern.MatchString(string(rel)) {
		return ckgerrors.New(ckgerrors.CodeValidation,
			fmt.Sprintf("relationship type %q is invalid", rel),
			"relationship types must match ^[A-Za-z][A-Za-z0-9_]*$",
			"use one of the predefined RelType constants",
			nil,
		)
	}
	return nil
}

func validateNode(n Node) error {
	if n.ID == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "node id must not be empty", "", "", nil)
	}
	return validateKind(n.Kind)
}

func validateEdge(e Edge) error {
	if e.From == "" || e.To == "" {
		return ckgerrors.New(ckgerrors.CodeValidation, "edge from/to ids must not be empty", "", "", nil)
	}
	return validateRelType(e.Type)
}
