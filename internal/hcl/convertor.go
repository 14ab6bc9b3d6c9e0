package hcl

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeParams iterates through the fields of a Go struct, finds the
// parameters named by their `cty` tags, and decodes each one. Fields without
// a matching parameter keep their current value, so callers pass a struct
// pre-populated with defaults. A parameter with no matching field is an error.
func (c *Converter) DecodeParams(ctx context.Context, params map[string]cty.Value, target any) error {
	logger := ctxlog.FromContext(ctx)

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() || structVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a non-nil pointer to a struct, got %T", target)
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	known := make(map[string]struct{}, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		fieldDef := structType.Field(i)
		fieldVal := structVal.Field(i)
		if !fieldDef.IsExported() || !fieldVal.CanSet() {
			continue
		}
		tagName := strings.Split(fieldDef.Tag.Get("cty"), ",")[0]
		if tagName == "" || tagName == "-" {
			continue
		}
		known[tagName] = struct{}{}

		val, ok := params[tagName]
		if !ok || val.IsNull() {
			continue
		}
		if err := c.decode(ctx, val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode parameter '%s': %w", tagName, err)
		}
	}

	var unknown []string
	for name := range params {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown parameter(s): %s", strings.Join(unknown, ", "))
	}
	logger.Debug("Decoded rule parameters.", "count", len(params), "target", structType.String())
	return nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}
	return gocty.FromCtyValue(convertedVal, goVal)
}

// ToCtyValue converts a native Go value into its corresponding cty.Value.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}

// ToNative converts a cty.Value into its most natural Go counterpart.
func (c *Converter) ToNative(v cty.Value) (any, error) {
	return ctyToNative(v)
}
