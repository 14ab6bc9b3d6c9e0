package registry

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Attributes every construct value carries, so templates can reference them
// on any kind.
var (
	stringAttrs = []string{
		construct.AttrName, construct.AttrKeyword, construct.AttrProc, construct.AttrCondition,
		construct.AttrTarget, construct.AttrLoop, construct.AttrRoutine, construct.AttrSQLKeyword,
	}
	listAttrs = []string{
		construct.AttrInputs, construct.AttrOutputs, construct.AttrExternal, construct.AttrBy,
		construct.AttrFunctions, construct.AttrInlineMacros, construct.AttrArgs, construct.AttrParams,
		construct.AttrOptions,
	}
)

func templateFunctions() map[string]function.Function {
	return map[string]function.Function{
		"coalesce":  stdlib.CoalesceFunc,
		"concat":    stdlib.ConcatFunc,
		"contains":  stdlib.ContainsFunc,
		"distinct":  stdlib.DistinctFunc,
		"format":    stdlib.FormatFunc,
		"join":      stdlib.JoinFunc,
		"length":    stdlib.LengthFunc,
		"lower":     stdlib.LowerFunc,
		"max":       stdlib.MaxFunc,
		"min":       stdlib.MinFunc,
		"sort":      stdlib.SortFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"upper":     stdlib.UpperFunc,
	}
}

// ConstructValue renders n as the `construct` template object: its id,
// kind, source text, first input and output, child count, and every
// attribute.
func ConstructValue(n *construct.Node) cty.Value {
	attrs := make(map[string]cty.Value, len(n.Attrs)+len(stringAttrs)+len(listAttrs)+6)
	for _, key := range stringAttrs {
		attrs[key] = cty.StringVal("")
	}
	for _, key := range listAttrs {
		attrs[key] = cty.ListValEmpty(cty.String)
	}
	for key, v := range n.Attrs {
		attrs[key] = attrValue(v)
	}

	first := func(key string) cty.Value {
		if list := n.Attrs.Strings(key); len(list) > 0 {
			return cty.StringVal(list[0])
		}
		return cty.StringVal("")
	}
	attrs["id"] = cty.StringVal(n.ID)
	attrs["kind"] = cty.StringVal(n.Kind.String())
	attrs["text"] = cty.StringVal(n.Text())
	attrs["input"] = first(construct.AttrInputs)
	attrs["output"] = first(construct.AttrOutputs)
	attrs["children"] = cty.NumberIntVal(int64(len(n.Children)))
	return cty.ObjectVal(attrs)
}

func attrValue(v any) cty.Value {
	switch v := v.(type) {
	case string:
		return cty.StringVal(v)
	case []string:
		if len(v) == 0 {
			return cty.ListValEmpty(cty.String)
		}
		vals := make([]cty.Value, len(v))
		for i, s := range v {
			vals[i] = cty.StringVal(s)
		}
		return cty.ListVal(vals)
	case bool:
		return cty.BoolVal(v)
	case int:
		return cty.NumberIntVal(int64(v))
	default:
		return cty.StringVal(fmt.Sprint(v))
	}
}

// EvalContext returns an evaluation context exposing vars and the template
// function library.
func (r *Registry) EvalContext(vars map[string]cty.Value) *hcl.EvalContext {
	return &hcl.EvalContext{Variables: vars, Functions: r.functions}
}

// EvalString evaluates expr to a string. A nil expression or a null result
// yields "".
func (r *Registry) EvalString(expr hcl.Expression, vars map[string]cty.Value) (string, error) {
	if expr == nil {
		return "", nil
	}
	val, diags := expr.Value(r.EvalContext(vars))
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("expression result is not known")
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("expression result is not a string: %w", err)
	}
	return str.AsString(), nil
}

// EvalNative evaluates expr into a plain Go value through the converter.
func (r *Registry) EvalNative(expr hcl.Expression, vars map[string]cty.Value) (any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(r.EvalContext(vars))
	if diags.HasErrors() {
		return nil, diags
	}
	return r.converter.ToNative(val)
}
