package config

import "github.com/specialistvlad/polyglot/internal/model"

// Default returns the built-in language table used when no registry file is
// configured.
func Default() *Model {
	m := NewModel()
	add := func(def model.LanguageDefinition) {
		d := def
		d.StartDirective = d.StartMarker()
		d.EndDirective = d.EndMarker()
		m.Languages[d.Name] = &d
	}

	add(model.LanguageDefinition{Name: "python", Command: "python3", Extension: ".py", CommentPrefix: "#"})
	add(model.LanguageDefinition{Name: "powershell", Command: "pwsh", Extension: ".ps1", CommentPrefix: "#", RunArgsTemplate: `-NoProfile -File "{file}"`})
	add(model.LanguageDefinition{Name: "octave", Command: "octave", Extension: ".m", CommentPrefix: "%", RunArgsTemplate: `--no-gui --quiet "{file}"`})
	add(model.LanguageDefinition{Name: "julia", Command: "julia", Extension: ".jl", CommentPrefix: "#"})
	add(model.LanguageDefinition{Name: "bash", Command: "bash", Extension: ".sh", CommentPrefix: "#"})
	add(model.LanguageDefinition{Name: "r", Command: "Rscript", Extension: ".R", CommentPrefix: "#"})
	add(model.LanguageDefinition{
		Name: "cpp", Command: "g++", Extension: ".cpp", CommentPrefix: "//",
		RequiresCompilation: true, CompileArgsTemplate: `"{input}" -o "{output}"`,
	})
	add(model.LanguageDefinition{
		Name: "c", Command: "gcc", Extension: ".c", CommentPrefix: "//",
		RequiresCompilation: true, CompileArgsTemplate: `"{input}" -o "{output}"`,
	})
	add(model.LanguageDefinition{
		Name: "fortran", Command: "gfortran", Extension: ".f90", CommentPrefix: "!",
		RequiresCompilation: true, CompileArgsTemplate: `"{input}" -o "{output}"`,
	})
	add(model.LanguageDefinition{
		Name: "rust", Command: "rustc", Extension: ".rs", CommentPrefix: "//",
		RequiresCompilation: true, CompileArgsTemplate: `"{input}" -o "{output}"`,
	})
	add(model.LanguageDefinition{Name: "markdown", Extension: ".md", Pipeline: model.PipelinePassthrough})
	add(model.LanguageDefinition{Name: "columns", Pipeline: model.PipelinePassthrough, Container: true})
	add(model.LanguageDefinition{Name: "code", Pipeline: model.PipelinePassthrough, Container: true})

	return m
}
