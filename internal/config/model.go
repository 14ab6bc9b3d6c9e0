package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of all rule
// registries. Rule slices keep declaration order; later sources override
// earlier rules with the same ID in place.
type Model struct {
	RiskRules    []*RiskRule
	MappingRules []*MappingRule
	Weights      *Weights
}

// RiskRule is the format-agnostic representation of a `risk_rule` block.
type RiskRule struct {
	ID        string
	Predicate string
	Severity  string
	// Rationale is a template evaluated per flag with `construct` and
	// `params` in scope.
	Rationale hcl.Expression
	// Recommendation is evaluated once per report with `count` in scope.
	// Nil when the rule carries none.
	Recommendation hcl.Expression
	Params         map[string]cty.Value
	Source         string
}

// MappingRule is the format-agnostic representation of a `mapping_rule` block.
type MappingRule struct {
	ID   string
	Kind string
	// Names restricts the rule to constructs whose proc, keyword or macro
	// name is listed. Empty matches every name.
	Names []string
	// Requires lists attributes that must all be truthy on the construct.
	Requires []string
	// Unless lists attributes that, when truthy on the construct, make the
	// rule not apply.
	Unless      []string
	ContextFree bool
	Confidence  string
	Note        string
	Operations  []*Operation
	Source      string
}

// Operation is one target-platform operation template of a mapping rule.
type Operation struct {
	Op     string
	Target hcl.Expression
	Params map[string]hcl.Expression
}

// Weights holds the complexity and readiness weights. A nil field keeps the
// built-in value when sources are merged.
type Weights struct {
	Branch      *float64
	Nesting     *float64
	Statement   *float64
	Dataset     *float64
	Ceiling     *float64
	HighAbove   *float64
	MediumAbove *float64
	Critical    *float64
	Warning     *float64
}

// Merge overlays every non-nil field of o onto w.
func (w *Weights) Merge(o *Weights) {
	if o == nil {
		return
	}
	overlay := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	overlay(&w.Branch, o.Branch)
	overlay(&w.Nesting, o.Nesting)
	overlay(&w.Statement, o.Statement)
	overlay(&w.Dataset, o.Dataset)
	overlay(&w.Ceiling, o.Ceiling)
	overlay(&w.HighAbove, o.HighAbove)
	overlay(&w.MediumAbove, o.MediumAbove)
	overlay(&w.Critical, o.Critical)
	overlay(&w.Warning, o.Warning)
}

// UpsertRisk replaces the rule with the same ID in place, or appends it.
func (m *Model) UpsertRisk(rule *RiskRule) {
	for i, existing := range m.RiskRules {
		if existing.ID == rule.ID {
			m.RiskRules[i] = rule
			return
		}
	}
	m.RiskRules = append(m.RiskRules, rule)
}

// UpsertMapping replaces the rule with the same ID in place, or appends it.
func (m *Model) UpsertMapping(rule *MappingRule) {
	for i, existing := range m.MappingRules {
		if existing.ID == rule.ID {
			m.MappingRules[i] = rule
			return
		}
	}
	m.MappingRules = append(m.MappingRules, rule)
}
