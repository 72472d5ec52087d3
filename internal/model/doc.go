// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model holds the plain data types shared by every stage of the
// polyglot pipeline: language definitions and global settings read from the
// registry, code blocks produced by the extractor, and the execution results
// produced by the orchestrator.
//
// # Core Concepts
//
//   - LanguageDefinition: how to run one language. Command, file extension,
//     directive markers, argument templates and a Pipeline tag that selects
//     the execution path.
//
//   - Settings: process-wide values (timeout, output cap, temp directory,
//     variable sharing). A snapshot is taken per orchestration call.
//
//   - CodeBlock: one fenced `@{lang}...@{end lang}` region of a document.
//
//   - ExecutionResult: the typed outcome of one orchestration call. Failures
//     carry a FailureKind instead of surfacing as Go errors.
//
// Types in this package carry no behavior beyond small helpers; they are
// immutable by convention once handed to another package.
package model
