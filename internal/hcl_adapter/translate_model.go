package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/polyglot/internal/model"
)

// Settings is the HCL shape of the `settings` block. Attributes are kept as
// expressions so omitted ones leave the defaults untouched.
type Settings struct {
	TimeoutMs      hcl.Expression `hcl:"timeout_ms,optional"`
	MaxOutputLines hcl.Expression `hcl:"max_output_lines,optional"`
	TempDirectory  hcl.Expression `hcl:"temp_directory,optional"`
	ShareVariables hcl.Expression `hcl:"share_variables,optional"`
	ExportPrefix   hcl.Expression `hcl:"export_prefix,optional"`
}

// Language is the HCL shape of a `language "name" {}` block.
type Language struct {
	Name                string `hcl:"name,label"`
	Command             string `hcl:"command,optional"`
	Extension           string `hcl:"extension,optional"`
	Directive           string `hcl:"directive,optional"`
	EndDirective        string `hcl:"end_directive,optional"`
	CommentPrefix       string `hcl:"comment_prefix,optional"`
	RequiresCompilation bool   `hcl:"requires_compilation,optional"`
	CompileArgs         string `hcl:"compile_args,optional"`
	RunArgs             string `hcl:"run_args,optional"`
	Pipeline            string `hcl:"pipeline,optional"`
	Container           bool   `hcl:"container,optional"`
	VariableFormat      string `hcl:"variable_format,optional"`
}

func (l *Loader) translateLanguage(in *Language) *model.LanguageDefinition {
	def := &model.LanguageDefinition{
		Name:                in.Name,
		Command:             in.Command,
		Extension:           in.Extension,
		StartDirective:      in.Directive,
		EndDirective:        in.EndDirective,
		CommentPrefix:       in.CommentPrefix,
		RequiresCompilation: in.RequiresCompilation,
		CompileArgsTemplate: in.CompileArgs,
		RunArgsTemplate:     in.RunArgs,
		Pipeline:            model.Pipeline(in.Pipeline),
		Container:           in.Container,
		VariableFormat:      in.VariableFormat,
	}
	def.StartDirective = def.StartMarker()
	def.EndDirective = def.EndMarker()
	return def
}

// translateSettings overlays the explicitly written attributes of s onto dst.
func (l *Loader) translateSettings(ctx context.Context, s *Settings, dst *model.Settings) error {
	fields := []struct {
		name   string
		expr   hcl.Expression
		target any
	}{
		{"timeout_ms", s.TimeoutMs, &dst.TimeoutMs},
		{"max_output_lines", s.MaxOutputLines, &dst.MaxOutputLines},
		{"temp_directory", s.TempDirectory, &dst.TempDirectory},
		{"share_variables", s.ShareVariables, &dst.ShareVariables},
		{"export_prefix", s.ExportPrefix, &dst.ExportPrefix},
	}

	for _, f := range fields {
		if !isExprDefined(ctx, f.expr, f.name) {
			continue
		}
		if diags := gohcl.DecodeExpression(f.expr, nil, f.target); diags.HasErrors() {
			return fmt.Errorf("invalid settings attribute '%s': %w", f.name, diags)
		}
	}
	return nil
}
