package risk

import (
	"context"
	"fmt"
	"slices"

	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Recommendations renders the recommendation of every rule that fired, once
// per rule, in registry order. Duplicate sentences are dropped. The
// intrinsic unsupported-construct flag contributes a fixed sentence.
func Recommendations(ctx context.Context, tree *construct.Tree, reg *registry.Registry, flags []Flag) ([]string, []*RuleEvaluationError) {
	logger := ctxlog.FromContext(ctx)

	byRule := map[string][]string{}
	for _, f := range flags {
		byRule[f.RuleID] = append(byRule[f.RuleID], f.ConstructID)
	}
	out := []string{}
	add := func(s string) {
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}

	var errs []*RuleEvaluationError
	for _, rule := range reg.RiskRules() {
		ids := byRule[rule.ID]
		if len(ids) == 0 || rule.Recommendation == nil {
			continue
		}
		values := make([]cty.Value, 0, len(ids))
		for _, id := range ids {
			if n := tree.Find(id); n != nil {
				values = append(values, registry.ConstructValue(n))
			}
		}
		text, err := reg.EvalString(rule.Recommendation, map[string]cty.Value{
			"count":      cty.NumberIntVal(int64(len(ids))),
			"constructs": cty.TupleVal(values),
			"params":     rule.ParamsValue,
		})
		if err != nil {
			logger.Warn("Recommendation template failed.", "rule", rule.ID, "error", err)
			errs = append(errs, &RuleEvaluationError{RuleID: rule.ID, Err: fmt.Errorf("recommendation: %w", err)})
			continue
		}
		add(text)
	}

	if n := len(byRule[registry.UnsupportedConstructID]); n > 0 {
		add(fmt.Sprintf("%d unrecognized statement(s) need manual translation.", n))
	}
	return out, errs
}
