package risk

import (
	"fmt"
	"slices"
	"strings"

	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/registry"
)

// Module registers the built-in predicate kinds.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.RegisterPredicate("kind_is", &registry.RegisteredPredicate{
		NewParams: func() any { return &KindParams{Kinds: []string{}} },
		Fn:        kindIs,
	})
	r.RegisterPredicate("attribute_present", &registry.RegisteredPredicate{
		NewParams: func() any { return &AttributeParams{Kinds: []string{}, Values: []string{}} },
		Fn:        attributePresent,
	})
	r.RegisterPredicate("function_call", &registry.RegisteredPredicate{
		NewParams: func() any { return &FunctionParams{Functions: []string{}} },
		Fn:        functionCall,
	})
	r.RegisterPredicate("recursive_macro", &registry.RegisteredPredicate{
		Fn: recursiveMacro,
	})
	r.RegisterPredicate("macro_nesting", &registry.RegisteredPredicate{
		NewParams: func() any { return &NestingParams{Depth: 3} },
		Fn:        macroNesting,
	})
	r.RegisterPredicate("unsorted_merge", &registry.RegisteredPredicate{
		NewParams: func() any { return &MergeParams{RequireSort: true, MinInputs: 2} },
		Fn:        unsortedMerge,
	})
	r.RegisterPredicate("sql_complexity", &registry.RegisteredPredicate{
		NewParams: func() any { return &SQLParams{Joins: 2, Subqueries: 1, Tables: 3, Tokens: 150} },
		Fn:        sqlComplexity,
	})
	r.RegisterPredicate("line_hold", &registry.RegisteredPredicate{
		NewParams: func() any { return &LineHoldParams{} },
		Fn:        lineHold,
	})
	r.RegisterPredicate("pointer_control", &registry.RegisteredPredicate{
		NewParams: func() any { return &PointerParams{Min: 1} },
		Fn:        pointerControl,
	})
	r.RegisterPredicate("platform_command", &registry.RegisteredPredicate{
		NewParams: func() any {
			return &PlatformParams{Keywords: []string{}, Routines: []string{}}
		},
		Fn: platformCommand,
	})
	r.RegisterPredicate("proc_name", &registry.RegisteredPredicate{
		NewParams: func() any { return &ProcParams{Procs: []string{}} },
		Fn:        procName,
	})
}

// KindParams selects constructs by kind name.
type KindParams struct {
	Kinds []string `cty:"kinds"`
}

// AttributeParams selects constructs carrying an attribute, optionally with
// one of the listed values.
type AttributeParams struct {
	Kinds     []string `cty:"kinds"`
	Attribute string   `cty:"attribute"`
	Values    []string `cty:"values"`
}

// FunctionParams lists function names. LAG also matches LAG2, LAG3, ...
type FunctionParams struct {
	Functions []string `cty:"functions"`
}

type NestingParams struct {
	Depth int `cty:"depth"`
}

type MergeParams struct {
	RequireSort bool `cty:"require_sort"`
	MinInputs   int  `cty:"min_inputs"`
}

// SQLParams are thresholds; meeting any one fires the rule. Zero disables a
// threshold.
type SQLParams struct {
	Joins      int `cty:"joins"`
	Subqueries int `cty:"subqueries"`
	Tables     int `cty:"tables"`
	Tokens     int `cty:"tokens"`
}

// LineHoldParams selects "single" (@) or "double" (@@) holds; empty matches
// both.
type LineHoldParams struct {
	Mode string `cty:"mode"`
}

type PointerParams struct {
	Min int `cty:"min"`
}

type PlatformParams struct {
	Keywords []string `cty:"keywords"`
	Routines []string `cty:"routines"`
	Pipes    bool     `cty:"pipes"`
}

type ProcParams struct {
	Procs []string `cty:"procs"`
}

func paramsAs[T any](params any) (*T, error) {
	p, ok := params.(*T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("unexpected parameter type %T, want *%T", params, zero)
	}
	return p, nil
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool { return strings.EqualFold(v, s) })
}

func kindIs(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[KindParams](params)
	if err != nil {
		return false, err
	}
	return slices.Contains(p.Kinds, s.Node.Kind.String()), nil
}

func attributePresent(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[AttributeParams](params)
	if err != nil {
		return false, err
	}
	if p.Attribute == "" {
		return false, fmt.Errorf("parameter 'attribute' is required")
	}
	if len(p.Kinds) > 0 && !slices.Contains(p.Kinds, s.Node.Kind.String()) {
		return false, nil
	}
	attrs := s.Node.Attrs
	if !attrs.Has(p.Attribute) {
		return false, nil
	}
	if len(p.Values) == 0 {
		return true, nil
	}
	if v := attrs.String(p.Attribute); v != "" {
		return containsFold(p.Values, v), nil
	}
	for _, v := range attrs.Strings(p.Attribute) {
		if containsFold(p.Values, v) {
			return true, nil
		}
	}
	return false, nil
}

func functionCall(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[FunctionParams](params)
	if err != nil {
		return false, err
	}
	for _, fn := range s.Node.Attrs.Strings(construct.AttrFunctions) {
		for _, want := range p.Functions {
			if matchesFunction(fn, strings.ToUpper(want)) {
				return true, nil
			}
		}
	}
	return false, nil
}

// matchesFunction reports whether fn is want or want followed by digits.
func matchesFunction(fn, want string) bool {
	rest, ok := strings.CutPrefix(fn, want)
	if !ok {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// recursiveMacro fires on invocations of an enclosing macro, not on the
// definition.
func recursiveMacro(s registry.Subject, _ any) (bool, error) {
	return s.Node.Kind != construct.MacroDef && s.Node.Attrs.Bool(construct.AttrRecursive), nil
}

func macroNesting(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[NestingParams](params)
	if err != nil {
		return false, err
	}
	if p.Depth <= 0 {
		return false, fmt.Errorf("parameter 'depth' must be positive, got %d", p.Depth)
	}
	if s.Node.Kind != construct.MacroCall {
		return false, nil
	}
	levels := 0
	for _, a := range s.Ancestors {
		switch a.Kind {
		case construct.MacroDef, construct.MacroIf, construct.MacroDo:
			levels++
		}
	}
	return levels >= p.Depth, nil
}

// unsortedMerge fires on a MERGE with no BY statement in its step, or, with
// require_sort, on one whose inputs were not all sorted by an earlier
// PROC SORT.
func unsortedMerge(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[MergeParams](params)
	if err != nil {
		return false, err
	}
	if s.Node.Kind != construct.Merge {
		return false, nil
	}
	inputs := s.Node.Attrs.Strings(construct.AttrInputs)
	if len(inputs) < p.MinInputs {
		return false, nil
	}
	if parent := s.Parent(); parent == nil || !hasChild(parent, construct.By) {
		return true, nil
	}
	if !p.RequireSort {
		return false, nil
	}
	sorted := sortedBefore(s.Tree, s.Node)
	for _, in := range inputs {
		if !sorted[in] {
			return true, nil
		}
	}
	return false, nil
}

func hasChild(n *construct.Node, kind construct.Kind) bool {
	for _, c := range n.Children {
		if c.Kind == kind {
			return true
		}
	}
	return false
}

// sortedBefore collects datasets produced by PROC SORT steps with a BY
// statement that precede stop in pre-order. Without OUT= the sort is in
// place.
func sortedBefore(tree *construct.Tree, stop *construct.Node) map[string]bool {
	sorted := map[string]bool{}
	done := false
	tree.Walk(func(n *construct.Node, _ []*construct.Node) bool {
		if done || n == stop {
			done = true
			return false
		}
		if n.Kind != construct.ProcStep || n.Attrs.String(construct.AttrProc) != "SORT" || !hasChild(n, construct.By) {
			return true
		}
		targets := n.Attrs.Strings(construct.AttrOutputs)
		if len(targets) == 0 {
			targets = n.Attrs.Strings(construct.AttrInputs)
		}
		for _, t := range targets {
			sorted[t] = true
		}
		return false
	})
	return sorted
}

func sqlComplexity(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[SQLParams](params)
	if err != nil {
		return false, err
	}
	if s.Node.Kind != construct.SQLStatement {
		return false, nil
	}
	attrs := s.Node.Attrs
	over := func(key string, limit int) bool {
		return limit > 0 && attrs.Int(key) >= limit
	}
	return over(construct.AttrSQLJoins, p.Joins) ||
		over(construct.AttrSQLSubqueries, p.Subqueries) ||
		over(construct.AttrSQLTables, p.Tables) ||
		over(construct.AttrSQLTokens, p.Tokens), nil
}

func lineHold(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[LineHoldParams](params)
	if err != nil {
		return false, err
	}
	if s.Node.Kind != construct.Input {
		return false, nil
	}
	switch p.Mode {
	case "":
		return s.Node.Attrs.Has(construct.AttrLineHold), nil
	case "single", "double":
		return s.Node.Attrs.String(construct.AttrLineHold) == p.Mode, nil
	}
	return false, fmt.Errorf("parameter 'mode' must be 'single' or 'double', got '%s'", p.Mode)
}

func pointerControl(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[PointerParams](params)
	if err != nil {
		return false, err
	}
	if s.Node.Kind != construct.Input {
		return false, nil
	}
	return s.Node.Attrs.Int(construct.AttrPointerControls) >= max(p.Min, 1), nil
}

// platformCommand fires on host commands: listed statement keywords, CALL
// of a listed routine, and FILENAME ... PIPE.
func platformCommand(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[PlatformParams](params)
	if err != nil {
		return false, err
	}
	n := s.Node
	if n.Kind != construct.Global && n.Kind != construct.Statement {
		return false, nil
	}
	kw := n.Attrs.String(construct.AttrKeyword)
	switch {
	case containsFold(p.Keywords, kw):
		return true, nil
	case kw == "CALL":
		return containsFold(p.Routines, n.Attrs.String(construct.AttrRoutine)), nil
	case kw == "FILENAME" && p.Pipes:
		return slices.Contains(n.Attrs.Strings(construct.AttrOptions), "PIPE"), nil
	}
	return false, nil
}

func procName(s registry.Subject, params any) (bool, error) {
	p, err := paramsAs[ProcParams](params)
	if err != nil {
		return false, err
	}
	if s.Node.Kind != construct.ProcStep && s.Node.Kind != construct.ProcSQL {
		return false, nil
	}
	return containsFold(p.Procs, s.Node.Attrs.String(construct.AttrProc)), nil
}
