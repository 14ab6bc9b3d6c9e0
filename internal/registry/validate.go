package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/regger-zz/sas-translator/internal/complexity"
	"github.com/regger-zz/sas-translator/internal/config"
	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

var (
	severities  = []string{"info", "warning", "critical"}
	confidences = []string{"high", "medium", "low"}
)

// ValidateRegistry performs a strict parity check between the rule model and
// the registered Go predicates, and compiles the rules. Every problem found
// is reported, not only the first.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	r.mustNotBeFrozen("validate")
	if r.model == nil {
		return fmt.Errorf("registry validation failed: no rule model populated")
	}

	var errs []string
	logger := ctxlog.FromContext(ctx)

	var riskRules []*RiskRule
	for _, rule := range r.model.RiskRules {
		compiled, problems := r.compileRisk(ctx, rule)
		errs = append(errs, problems...)
		if compiled != nil {
			riskRules = append(riskRules, compiled)
		}
	}

	var mappingRules []*MappingRule
	for _, rule := range r.model.MappingRules {
		compiled, problems := compileMapping(rule)
		errs = append(errs, problems...)
		if compiled != nil {
			mappingRules = append(mappingRules, compiled)
		}
	}

	weights, problems := resolveWeights(r.model.Weights)
	errs = append(errs, problems...)

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	r.riskRules = riskRules
	r.mappingRules = mappingRules
	r.weights = weights
	logger.Debug("Registry validated.", "risk_rules", len(riskRules), "mapping_rules", len(mappingRules))
	return nil
}

func (r *Registry) compileRisk(ctx context.Context, rule *config.RiskRule) (*RiskRule, []string) {
	var errs []string
	where := fmt.Sprintf("risk_rule '%s' (%s)", rule.ID, rule.Source)

	if rule.ID == UnsupportedConstructID {
		errs = append(errs, fmt.Sprintf("%s: the id is reserved for the intrinsic unsupported-construct flag", where))
	}
	if !slices.Contains(severities, rule.Severity) {
		errs = append(errs, fmt.Sprintf("%s: severity '%s' is not one of %s", where, rule.Severity, strings.Join(severities, ", ")))
	}
	if rule.Rationale == nil {
		errs = append(errs, fmt.Sprintf("%s: rationale is required", where))
	}

	pred, ok := r.predicates[rule.Predicate]
	if !ok {
		errs = append(errs, fmt.Sprintf("%s: predicate '%s' is not registered", where, rule.Predicate))
		return nil, errs
	}

	compiled := &RiskRule{RiskRule: rule, Eval: pred.Fn, ParamsValue: cty.EmptyObjectVal}
	if pred.NewParams == nil {
		if len(rule.Params) > 0 {
			errs = append(errs, fmt.Sprintf("%s: predicate '%s' takes no parameters", where, rule.Predicate))
		}
		return compiled, errs
	}

	compiled.Decoded = pred.NewParams()
	if err := r.converter.DecodeParams(ctx, rule.Params, compiled.Decoded); err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", where, err))
		return compiled, errs
	}
	val, err := r.converter.ToCtyValue(compiled.Decoded)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: parameters cannot be exposed to templates: %v", where, err))
		return compiled, errs
	}
	if val.Type().IsObjectType() {
		compiled.ParamsValue = val
	}
	return compiled, errs
}

func compileMapping(rule *config.MappingRule) (*MappingRule, []string) {
	var errs []string
	where := fmt.Sprintf("mapping_rule '%s' (%s)", rule.ID, rule.Source)

	kind, err := construct.ParseKind(rule.Kind)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: %v", where, err))
	}
	switch {
	case rule.ContextFree && rule.Confidence != "" && rule.Confidence != "high":
		errs = append(errs, fmt.Sprintf("%s: context-free rules claim high confidence, got '%s'", where, rule.Confidence))
	case !rule.ContextFree && rule.Confidence == "high":
		errs = append(errs, fmt.Sprintf("%s: only context-free rules may claim high confidence", where))
	case !rule.ContextFree && !slices.Contains(confidences, rule.Confidence):
		errs = append(errs, fmt.Sprintf("%s: confidence '%s' is not one of medium, low", where, rule.Confidence))
	}
	if len(rule.Operations) == 0 {
		errs = append(errs, fmt.Sprintf("%s: at least one operation is required", where))
	}
	for _, op := range rule.Operations {
		if op.Op == "" {
			errs = append(errs, fmt.Sprintf("%s: operation label must not be empty", where))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &MappingRule{MappingRule: rule, ConstructKind: kind}, nil
}

func resolveWeights(w *config.Weights) (Weights, []string) {
	if w == nil {
		w = &config.Weights{}
	}
	var errs []string
	get := func(name string, v *float64) float64 {
		if v == nil {
			errs = append(errs, fmt.Sprintf("weights: '%s' is not set", name))
			return 0
		}
		if *v < 0 {
			errs = append(errs, fmt.Sprintf("weights: '%s' must not be negative", name))
		}
		return *v
	}

	out := Weights{
		Complexity: complexity.Weights{
			Branch:      get("branch", w.Branch),
			Nesting:     get("nesting", w.Nesting),
			Statement:   get("statement", w.Statement),
			Dataset:     get("dataset", w.Dataset),
			Ceiling:     get("ceiling", w.Ceiling),
			HighAbove:   get("high_above", w.HighAbove),
			MediumAbove: get("medium_above", w.MediumAbove),
		},
		Critical: get("critical", w.Critical),
		Warning:  get("warning", w.Warning),
	}
	if w.Ceiling != nil && *w.Ceiling == 0 {
		errs = append(errs, "weights: 'ceiling' must be positive")
	}
	if out.Complexity.MediumAbove > out.Complexity.HighAbove {
		errs = append(errs, "weights: 'medium_above' must not exceed 'high_above'")
	}
	return out, errs
}
