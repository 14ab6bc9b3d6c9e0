package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	RiskRules    []*RiskRule    `hcl:"risk_rule,block"`
	MappingRules []*MappingRule `hcl:"mapping_rule,block"`
	Weights      *Weights       `hcl:"weights,block"`
	Remain       hcl.Body       `hcl:",remain"`
}

// Params holds a free-form `params` block.
type Params struct {
	Body hcl.Body `hcl:",remain"`
}

// RiskRule represents a `risk_rule` block.
type RiskRule struct {
	ID             string         `hcl:"id,label"`
	Predicate      string         `hcl:"predicate"`
	Severity       string         `hcl:"severity"`
	Rationale      hcl.Expression `hcl:"rationale"`
	Recommendation hcl.Expression `hcl:"recommendation,optional"`
	Params         *Params        `hcl:"params,block"`
}

// MappingRule represents a `mapping_rule` block.
type MappingRule struct {
	ID          string       `hcl:"id,label"`
	Kind        string       `hcl:"kind"`
	Names       []string     `hcl:"names,optional"`
	Requires    []string     `hcl:"requires,optional"`
	Unless      []string     `hcl:"unless,optional"`
	ContextFree bool         `hcl:"context_free,optional"`
	Confidence  string       `hcl:"confidence,optional"`
	Note        string       `hcl:"note,optional"`
	Operations  []*Operation `hcl:"operation,block"`
}

// Operation represents an `operation` block inside a mapping rule.
type Operation struct {
	Op     string         `hcl:"op,label"`
	Target hcl.Expression `hcl:"target,optional"`
	Params *Params        `hcl:"params,block"`
}

// Weights represents the `weights` block. At most one per file.
type Weights struct {
	Branch      *float64 `hcl:"branch,optional"`
	Nesting     *float64 `hcl:"nesting,optional"`
	Statement   *float64 `hcl:"statement,optional"`
	Dataset     *float64 `hcl:"dataset,optional"`
	Ceiling     *float64 `hcl:"ceiling,optional"`
	HighAbove   *float64 `hcl:"high_above,optional"`
	MediumAbove *float64 `hcl:"medium_above,optional"`
	Critical    *float64 `hcl:"critical,optional"`
	Warning     *float64 `hcl:"warning,optional"`
}
