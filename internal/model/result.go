// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the typed outcome of one orchestration call.
package model

import "strings"

// FailureKind classifies why an execution did not succeed.
type FailureKind string

const (
	FailureNone                  FailureKind = ""
	FailureLanguageNotConfigured FailureKind = "LanguageNotConfigured"
	FailureLanguageUnavailable   FailureKind = "LanguageUnavailable"
	FailureCompileError          FailureKind = "CompileError"
	FailureMissingArtifact       FailureKind = "MissingArtifact"
	FailureRunError              FailureKind = "RunError"
	FailureTimeout               FailureKind = "Timeout"
	FailureStartFailure          FailureKind = "StartFailure"
	FailureCancelled             FailureKind = "Cancelled"
	FailureInternal              FailureKind = "Internal"
)

// ExecutionResult is the outcome of one orchestration call.
type ExecutionResult struct {
	Success  bool        `json:"success"`
	Output   string      `json:"output"`
	Error    string      `json:"error,omitempty"`
	ExitCode int         `json:"exit_code"`
	Kind     FailureKind `json:"kind,omitempty"`
}

// Failed builds an unsuccessful result of the given kind.
func Failed(kind FailureKind, msg string) ExecutionResult {
	return ExecutionResult{Success: false, Error: msg, ExitCode: -1, Kind: kind}
}

// Err returns the result as an *ExecutionError, or nil on success.
func (r ExecutionResult) Err() error {
	if r.Success {
		return nil
	}
	return &ExecutionError{Kind: r.Kind, Message: r.Error}
}

// DisplayOutput is the text a host should render for the result.
func (r ExecutionResult) DisplayOutput() string {
	if r.Success {
		return r.Output
	}
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(r.Error)
	if strings.TrimSpace(r.Output) != "" {
		b.WriteString("\n")
		b.WriteString(r.Output)
	}
	return b.String()
}

// IsHTMLOutput reports whether the output looks like HTML markup.
func (r ExecutionResult) IsHTMLOutput() bool {
	out := strings.TrimSpace(r.Output)
	return strings.HasPrefix(out, "<") && strings.Contains(out, ">")
}
