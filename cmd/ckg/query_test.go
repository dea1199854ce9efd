// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCell_TruncatesLongStrings(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	got := formatCell(long)
	assert.Len(t, got, 60)
	assert.Contains(t, got, "...")
}

func TestFormatCell_IntegralFloatRendersWithoutDecimal(t *testing.T) {
	assert.Equal(t, "42", formatCell(float64(42)))
}

func TestFormatCell_FractionalFloatRendersTwoDecimals(t *testing.T) {
	assert.Equal(t, "3.14", formatCell(3.14159))
}

func TestFormatCell_NilRendersNullMarker(t *testing.T) {
	assert.Equal(t, "<null>", formatCell(nil))
}

func TestFormatCell_ShortStringPassesThrough(t *testing.T) {
	assert.Equal(t, "hello", formatCell("hello"))
}
