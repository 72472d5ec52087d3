package hcl_adapter

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
// Untyped trees such as decoded JSON ([]any, map[string]any) go through the
// cty JSON codec.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return t, nil
	case string:
		return cty.StringVal(t), nil
	case bool:
		return cty.BoolVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return cty.NilVal, fmt.Errorf("number %v is not finite", t)
		}
		return cty.NumberFloatVal(t), nil
	case []any, map[string]any:
		return jsonToCty(t)
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

func jsonToCty(v any) (cty.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to encode value: %w", err)
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return ctyjson.Unmarshal(raw, ty)
}

// VariablesFromMap converts named Go values into host variables.
func (c *Converter) VariablesFromMap(in map[string]any) (model.Variables, error) {
	if len(in) == 0 {
		return nil, nil
	}
	vars := make(model.Variables, len(in))
	for name, v := range in {
		val, err := c.ToCtyValue(v)
		if err != nil {
			return nil, fmt.Errorf("variable '%s': %w", name, err)
		}
		vars[name] = val
	}
	return vars, nil
}

// VariablesFromJSON decodes a JSON object into host variables. An empty
// payload yields no variables.
func (c *Converter) VariablesFromJSON(raw []byte) (model.Variables, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid variables payload: %w", err)
	}
	if !ty.IsObjectType() {
		return nil, fmt.Errorf("variables must be a JSON object, got %s", ty.FriendlyName())
	}

	val, err := ctyjson.Unmarshal(raw, ty)
	if err != nil {
		return nil, fmt.Errorf("invalid variables payload: %w", err)
	}

	vars := make(model.Variables)
	for name, v := range val.AsValueMap() {
		vars[name] = v
	}
	return vars, nil
}
