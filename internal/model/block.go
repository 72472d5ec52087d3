// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the units produced by the directive extractor.
package model

// CodeBlock is one fenced region of a document. StartLine and EndLine are
// 0-based and point at the marker lines; Code excludes both markers.
type CodeBlock struct {
	Language          string `json:"language"`
	Code              string `json:"code"`
	StartLine         int    `json:"start_line"`
	EndLine           int    `json:"end_line"`
	StartDirectiveRaw string `json:"start_directive"`
}

// UnterminatedBlock records an opening marker that never found its end marker.
type UnterminatedBlock struct {
	Language          string `json:"language"`
	StartLine         int    `json:"start_line"`
	StartDirectiveRaw string `json:"start_directive"`
}
