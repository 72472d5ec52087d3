// Package config defines the format-agnostic configuration model for the
// language registry, along with the Loader interface for reading it from a
// concrete source and the built-in default language table.
//
// The `config.Model` is the single source of truth for the `registry`
// package. Concrete loaders, such as the HCL one, live in separate packages.
package config
