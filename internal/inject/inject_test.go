package inject

import (
	"testing"

	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestInject_PerExtension(t *testing.T) {
	t.Parallel()

	vars := model.Variables{"b": cty.NumberFloatVal(2.5), "a": cty.NumberIntVal(3)}

	testCases := []struct {
		name string
		def  model.LanguageDefinition
		want string
	}{
		{
			name: "python",
			def:  model.LanguageDefinition{Extension: ".py", CommentPrefix: "#"},
			want: "# Variables from Host:\na = 3\nb = 2.5\n\nprint(a)",
		},
		{
			name: "octave",
			def:  model.LanguageDefinition{Extension: ".m", CommentPrefix: "%"},
			want: "% Variables from Host:\na = 3;\nb = 2.5;\n\nprint(a)",
		},
		{
			name: "cpp",
			def:  model.LanguageDefinition{Extension: ".cpp", CommentPrefix: "//"},
			want: "// Variables from Host:\nauto a = 3;\nauto b = 2.5;\n\nprint(a)",
		},
		{
			name: "r upper-case extension",
			def:  model.LanguageDefinition{Extension: ".R", CommentPrefix: "#"},
			want: "# Variables from Host:\na <- 3\nb <- 2.5\n\nprint(a)",
		},
		{
			name: "fallback",
			def:  model.LanguageDefinition{Extension: ".lua", CommentPrefix: "--"},
			want: "-- Variables from Host:\na = 3\nb = 2.5\n\nprint(a)",
		},
		{
			name: "override template",
			def:  model.LanguageDefinition{Extension: ".js", CommentPrefix: "//", VariableFormat: "let {name} = {value};"},
			want: "// Variables from Host:\nlet a = 3;\nlet b = 2.5;\n\nprint(a)",
		},
		{
			name: "no comment prefix omits header",
			def:  model.LanguageDefinition{Extension: ".py"},
			want: "a = 3\nb = 2.5\n\nprint(a)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Inject("print(a)", vars, &tc.def))
		})
	}
}

func TestInject_NoVariables(t *testing.T) {
	t.Parallel()

	def := &model.LanguageDefinition{Extension: ".py", CommentPrefix: "#"}

	require.Equal(t, "print(1)", Inject("print(1)", nil, def))
	require.Equal(t, "print(1)", Inject("print(1)", model.Variables{}, def))
}

func TestInject_Deterministic(t *testing.T) {
	t.Parallel()

	def := &model.LanguageDefinition{Extension: ".py", CommentPrefix: "#"}
	vars := model.Variables{}
	for _, n := range []string{"z", "y", "x", "w", "v"} {
		vars[n] = cty.StringVal(n)
	}

	first := Inject("", vars, def)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Inject("", vars, def))
	}
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   cty.Value
		want string
	}{
		{"integer", cty.NumberIntVal(42), "42"},
		{"negative float", cty.NumberFloatVal(-0.125), "-0.125"},
		{"bool true", cty.True, "true"},
		{"bool false", cty.False, "false"},
		{"string unescaped", cty.StringVal(`say "hi"`), `"say "hi""`},
		{"null", cty.NullVal(cty.String), "null"},
		{"list", cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)}), "[1,2]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, FormatValue(tc.in))
		})
	}
}
