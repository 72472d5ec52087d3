// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Variables are host values shared with code blocks, keyed by name.
type Variables map[string]cty.Value

// Names returns the variable names in sorted order.
func (v Variables) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a new set containing v overlaid with other.
func (v Variables) Merge(other Variables) Variables {
	out := make(Variables, len(v)+len(other))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range other {
		out[k] = val
	}
	return out
}
