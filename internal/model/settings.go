// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import "time"

// Default settings values.
const (
	DefaultTimeoutMs      = 30000
	DefaultMaxOutputLines = 1000
	DefaultTempDirectory  = "polyglot"
	DefaultExportPrefix   = "HOST:"
)

// Settings holds process-wide execution settings.
type Settings struct {
	TimeoutMs      int    `json:"timeout_ms"`
	MaxOutputLines int    `json:"max_output_lines"`
	TempDirectory  string `json:"temp_directory"`
	ShareVariables bool   `json:"share_variables"`
	ExportPrefix   string `json:"export_prefix"`
}

// DefaultSettings returns the settings used when the registry omits them.
func DefaultSettings() Settings {
	return Settings{
		TimeoutMs:      DefaultTimeoutMs,
		MaxOutputLines: DefaultMaxOutputLines,
		TempDirectory:  DefaultTempDirectory,
		ShareVariables: true,
		ExportPrefix:   DefaultExportPrefix,
	}
}

// Timeout returns TimeoutMs as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}
