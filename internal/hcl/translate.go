// This file contains the logic for translating HCL schema structs (from
// schema.go) into the format-agnostic configuration model defined in the
// config package.

package hcl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/regger-zz/sas-translator/internal/config"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// translateRiskRule converts the HCL-specific risk rule schema into the agnostic model.
func translateRiskRule(ctx context.Context, r *RiskRule, source string) (*config.RiskRule, error) {
	params, err := evalParams(r.Params)
	if err != nil {
		return nil, fmt.Errorf("risk_rule %q: %w", r.ID, err)
	}
	rule := &config.RiskRule{
		ID:        r.ID,
		Predicate: r.Predicate,
		Severity:  strings.ToLower(r.Severity),
		Rationale: r.Rationale,
		Params:    params,
		Source:    source,
	}
	if isExprDefined(ctx, r.Recommendation, "recommendation") {
		rule.Recommendation = r.Recommendation
	}
	return rule, nil
}

// translateMappingRule converts the HCL-specific mapping rule schema into the agnostic model.
func translateMappingRule(ctx context.Context, m *MappingRule, source string) *config.MappingRule {
	rule := &config.MappingRule{
		ID:          m.ID,
		Kind:        strings.ToLower(m.Kind),
		Requires:    m.Requires,
		Unless:      m.Unless,
		ContextFree: m.ContextFree,
		Confidence:  strings.ToLower(m.Confidence),
		Note:        m.Note,
		Source:      source,
	}
	for _, name := range m.Names {
		rule.Names = append(rule.Names, strings.ToUpper(name))
	}
	for _, op := range m.Operations {
		translated := &config.Operation{
			Op:     op.Op,
			Params: extractBodyAttributes(op.Params),
		}
		if isExprDefined(ctx, op.Target, "target") {
			translated.Target = op.Target
		}
		rule.Operations = append(rule.Operations, translated)
	}
	return rule
}

func translateWeights(w *Weights) *config.Weights {
	if w == nil {
		return nil
	}
	return &config.Weights{
		Branch:      w.Branch,
		Nesting:     w.Nesting,
		Statement:   w.Statement,
		Dataset:     w.Dataset,
		Ceiling:     w.Ceiling,
		HighAbove:   w.HighAbove,
		MediumAbove: w.MediumAbove,
		Critical:    w.Critical,
		Warning:     w.Warning,
	}
}

// evalParams evaluates a params block. Parameters are literals; no variables
// or functions are in scope.
func evalParams(p *Params) (map[string]cty.Value, error) {
	exprs := extractBodyAttributes(p)
	out := make(map[string]cty.Value, len(exprs))
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		val, diags := exprs[name].Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid value for parameter '%s': %w", name, diags)
		}
		out[name] = val
	}
	return out, nil
}

// extractBodyAttributes converts a params body into a map of expressions.
func extractBodyAttributes(p *Params) map[string]hcl.Expression {
	if p == nil || p.Body == nil {
		return nil
	}
	attrs, _ := p.Body.JustAttributes()
	if attrs == nil {
		return nil
	}
	exprMap := make(map[string]hcl.Expression)
	for name, attr := range attrs {
		exprMap[name] = attr.Expr
	}
	return exprMap
}

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with zero-width
// expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}
