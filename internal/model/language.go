// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the language definition and the pipeline tag that
// decides how a block of that language is executed.
package model

import "strings"

// Pipeline selects the execution path for a language.
type Pipeline string

const (
	// PipelineAuto derives the path from RequiresCompilation.
	PipelineAuto Pipeline = ""
	// PipelineInterpreted runs the source file through the interpreter command.
	PipelineInterpreted Pipeline = "interpreted"
	// PipelineCompiled compiles the source file, then runs the produced binary.
	PipelineCompiled Pipeline = "compiled"
	// PipelinePassthrough never spawns a process; the block's code is its output.
	PipelinePassthrough Pipeline = "passthrough"
)

// Valid reports whether p is a known pipeline tag.
func (p Pipeline) Valid() bool {
	switch p {
	case PipelineAuto, PipelineInterpreted, PipelineCompiled, PipelinePassthrough:
		return true
	}
	return false
}

// LanguageDefinition describes how one language is detected and executed.
type LanguageDefinition struct {
	Name                string   `json:"name"`
	Command             string   `json:"command,omitempty"`
	Extension           string   `json:"extension"`
	StartDirective      string   `json:"start_directive"`
	EndDirective        string   `json:"end_directive"`
	CommentPrefix       string   `json:"comment_prefix,omitempty"`
	RequiresCompilation bool     `json:"requires_compilation,omitempty"`
	CompileArgsTemplate string   `json:"compile_args,omitempty"`
	RunArgsTemplate     string   `json:"run_args,omitempty"`
	Pipeline            Pipeline `json:"pipeline,omitempty"`

	// Container languages keep nested directives as literal text.
	Container bool `json:"container,omitempty"`

	// VariableFormat overrides the extension-based declaration format,
	// e.g. "let {name} = {value};".
	VariableFormat string `json:"variable_format,omitempty"`
}

// EffectivePipeline resolves PipelineAuto against RequiresCompilation.
func (d *LanguageDefinition) EffectivePipeline() Pipeline {
	if d.Pipeline != PipelineAuto {
		return d.Pipeline
	}
	if d.RequiresCompilation {
		return PipelineCompiled
	}
	if d.Command == "" {
		return PipelinePassthrough
	}
	return PipelineInterpreted
}

// StartMarker returns the opening directive, derived from the name when unset.
func (d *LanguageDefinition) StartMarker() string {
	if d.StartDirective != "" {
		return d.StartDirective
	}
	return "@{" + d.Name + "}"
}

// EndMarker returns the closing directive, derived from the name when unset.
func (d *LanguageDefinition) EndMarker() string {
	if d.EndDirective != "" {
		return d.EndDirective
	}
	return "@{end " + d.Name + "}"
}

// BaseLanguage strips a module qualifier (and any marker parameters) from a
// block language key: "ts:utils" becomes "ts".
func BaseLanguage(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		key = key[:i]
	}
	return strings.TrimSpace(key)
}

// ModuleName returns the module qualifier of a block language key, or "".
func ModuleName(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return ""
}
