// Package inject prepends host variable declarations to a code block.
//
// The declaration syntax is picked from the language's file extension, or
// from LanguageDefinition.VariableFormat when set. Formats use the `{name}`
// and `{value}` placeholders.
package inject

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Header is appended to the comment prefix on the first injected line.
const Header = "Variables from Host:"

const defaultFormat = "{name} = {value}"

// formats maps a lower-cased file extension to its declaration format.
var formats = map[string]string{
	".py":  "{name} = {value}",
	".m":   "{name} = {value};",
	".cpp": "auto {name} = {value};",
	".jl":  "{name} = {value}",
	".r":   "{name} <- {value}",
}

// Inject returns code with one declaration per variable prepended, in name
// order, under a comment header and followed by a blank line. With no
// variables the code is returned unchanged.
func Inject(code string, vars model.Variables, def *model.LanguageDefinition) string {
	if len(vars) == 0 {
		return code
	}

	format := Format(def)
	var b strings.Builder
	if def.CommentPrefix != "" {
		b.WriteString(def.CommentPrefix)
		b.WriteString(" ")
		b.WriteString(Header)
		b.WriteString("\n")
	}
	for _, name := range vars.Names() {
		b.WriteString(Declaration(format, name, vars[name]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(code)
	return b.String()
}

// Format returns the declaration format used for def.
func Format(def *model.LanguageDefinition) string {
	if def.VariableFormat != "" {
		return def.VariableFormat
	}
	if f, ok := formats[strings.ToLower(def.Extension)]; ok {
		return f
	}
	return defaultFormat
}

// Declaration renders one variable with the given format.
func Declaration(format, name string, v cty.Value) string {
	return strings.NewReplacer("{name}", name, "{value}", FormatValue(v)).Replace(format)
}

// FormatValue renders a host value as a source literal. Numbers use a
// locale-independent decimal form, booleans are lower case, and strings are
// double quoted without escaping.
func FormatValue(v cty.Value) string {
	if v.IsNull() || !v.IsKnown() {
		return "null"
	}

	switch ty := v.Type(); {
	case ty == cty.Number:
		return formatNumber(v.AsBigFloat())
	case ty == cty.Bool:
		return strconv.FormatBool(v.True())
	case ty == cty.String:
		return `"` + v.AsString() + `"`
	}

	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(raw)
}

func formatNumber(f *big.Float) string {
	if f.IsInt() {
		return f.Text('f', 0)
	}
	f64, _ := f.Float64()
	return strconv.FormatFloat(f64, 'g', -1, 64)
}
