package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific rule loader.
type Loader interface {
	// Load reads the built-in rules followed by every rule file found under
	// paths, merges them into the format-agnostic model, and returns a
	// matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the interface for a format-specific data binding and type
// conversion implementation. It acts as the bridge between raw rule
// parameters and the Go types used by predicates.
type Converter interface {
	// DecodeParams decodes a rule's parameter values into a target Go struct
	// whose fields carry `cty:"name"` tags.
	DecodeParams(ctx context.Context, params map[string]cty.Value, target any) error

	// ToCtyValue converts a native Go value into its cty.Value equivalent.
	ToCtyValue(v any) (cty.Value, error)

	// ToNative converts a cty.Value into its most natural Go counterpart.
	ToNative(v cty.Value) (any, error)
}
