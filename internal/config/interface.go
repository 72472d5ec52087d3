package config

import (
	"context"

	"github.com/specialistvlad/polyglot/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the registry definition from the given paths and translates
	// it into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)

	// LoadVariables reads a host variables file.
	LoadVariables(ctx context.Context, path string) (model.Variables, error)
}

// Converter turns values arriving from outside the config files (JSON
// payloads, Go natives) into the cty values used for host variables.
type Converter interface {
	ToCtyValue(v any) (cty.Value, error)
	VariablesFromMap(in map[string]any) (model.Variables, error)
	VariablesFromJSON(raw []byte) (model.Variables, error)
}
