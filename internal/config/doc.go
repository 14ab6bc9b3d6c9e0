// Package config defines the format-agnostic model of the analysis rule
// registries, along with the core interfaces (Loader, Converter) for loading
// and interpreting them from various sources.
//
// The `config.Model` is the single source of truth for the `registry`
// package. Concrete implementations of the interfaces, such as for HCL, are
// provided in separate packages.
package config
