package risk

import (
	"context"
	"fmt"

	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

const maxQuotedText = 60

// Classify evaluates every risk rule against every construct exactly once.
// Constructs are visited in pre-order and rules in registry order, so equal
// inputs yield equal flag sequences. A failing rule is skipped for that
// construct and reported; classification always runs to the end.
func Classify(ctx context.Context, tree *construct.Tree, reg *registry.Registry) ([]Flag, []*RuleEvaluationError) {
	logger := ctxlog.FromContext(ctx)
	rules := reg.RiskRules()

	flags := []Flag{}
	var errs []*RuleEvaluationError
	tree.Walk(func(n *construct.Node, ancestors []*construct.Node) bool {
		if n.Kind == construct.Unknown {
			flags = append(flags, unsupported(n))
		}

		var nodeValue cty.Value
		haveValue := false
		subject := registry.Subject{Node: n, Ancestors: ancestors, Tree: tree}
		for _, rule := range rules {
			fired, err := evaluate(rule, subject)
			if err == nil && fired {
				if !haveValue {
					nodeValue, haveValue = registry.ConstructValue(n), true
				}
				var rationale string
				rationale, err = reg.EvalString(rule.Rationale, map[string]cty.Value{
					"construct": nodeValue,
					"params":    rule.ParamsValue,
				})
				if err != nil {
					err = fmt.Errorf("rationale: %w", err)
				} else {
					flags = append(flags, Flag{
						RuleID:      rule.ID,
						Severity:    Severity(rule.Severity),
						Rationale:   rationale,
						ConstructID: n.ID,
					})
				}
			}
			if err != nil {
				evalErr := &RuleEvaluationError{RuleID: rule.ID, ConstructID: n.ID, Err: err}
				logger.Warn("Risk rule evaluation failed, flag skipped.", "rule", rule.ID, "construct", n.ID, "error", err)
				errs = append(errs, evalErr)
			}
		}
		return true
	})

	logger.Debug("Risk classification finished.", "flags", len(flags), "errors", len(errs))
	return flags, errs
}

// evaluate runs one predicate, turning a panic into an error.
func evaluate(rule *registry.RiskRule, s registry.Subject) (fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			fired, err = false, fmt.Errorf("predicate '%s' panicked: %v", rule.Predicate, r)
		}
	}()
	return rule.Eval(s, rule.Decoded)
}

func unsupported(n *construct.Node) Flag {
	text := n.Text()
	if len(text) > maxQuotedText {
		text = text[:maxQuotedText] + "..."
	}
	return Flag{
		RuleID:      registry.UnsupportedConstructID,
		Severity:    SeverityInfo,
		Rationale:   fmt.Sprintf("Unrecognized statement %q has no construct mapping.", text),
		ConstructID: n.ID,
	}
}
