// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per FailureKind.
var (
	ErrLanguageNotConfigured = errors.New("language not configured")
	ErrLanguageUnavailable   = errors.New("language unavailable")
	ErrCompile               = errors.New("compile error")
	ErrMissingArtifact       = errors.New("missing compiled artifact")
	ErrRun                   = errors.New("run error")
	ErrTimeout               = errors.New("execution timed out")
	ErrStartFailure          = errors.New("process start failure")
	ErrCancelled             = errors.New("execution cancelled")
	ErrInternal              = errors.New("internal error")
)

var kindSentinels = map[FailureKind]error{
	FailureLanguageNotConfigured: ErrLanguageNotConfigured,
	FailureLanguageUnavailable:   ErrLanguageUnavailable,
	FailureCompileError:          ErrCompile,
	FailureMissingArtifact:       ErrMissingArtifact,
	FailureRunError:              ErrRun,
	FailureTimeout:               ErrTimeout,
	FailureStartFailure:          ErrStartFailure,
	FailureCancelled:             ErrCancelled,
	FailureInternal:              ErrInternal,
}

// ExecutionError wraps a failed ExecutionResult for callers that prefer
// error values. It matches the sentinel of its kind under errors.Is.
type ExecutionError struct {
	Kind    FailureKind
	Message string
}

func (e *ExecutionError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is the sentinel for e.Kind.
func (e *ExecutionError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}
