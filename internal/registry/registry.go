package registry

import (
	"fmt"
	"slices"

	"github.com/regger-zz/sas-translator/internal/complexity"
	"github.com/regger-zz/sas-translator/internal/config"
	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// UnsupportedConstructID is the intrinsic rule emitted for every Unknown
// construct. Rule files may not redefine it.
const UnsupportedConstructID = "unsupported-construct"

// Module is the interface that every predicate provider implements to be
// registered.
type Module interface {
	Register(r *Registry)
}

// RiskRule is a validated risk rule bound to its predicate.
type RiskRule struct {
	*config.RiskRule
	// Decoded is the predicate's parameter struct, defaults applied.
	Decoded any
	// ParamsValue exposes Decoded to templates as `params`.
	ParamsValue cty.Value
	Eval        PredicateFunc
}

// MappingRule is a validated mapping rule.
type MappingRule struct {
	*config.MappingRule
	ConstructKind construct.Kind
}

// Weights are the resolved complexity and readiness weights.
type Weights struct {
	Complexity complexity.Weights
	// Critical and Warning weigh flags in the readiness risk term.
	Critical float64
	Warning  float64
}

// Registry holds all the registered predicates and rule definitions for a
// single application instance.
type Registry struct {
	predicates   map[string]*RegisteredPredicate
	model        *config.Model
	converter    config.Converter
	functions    map[string]function.Function
	riskRules    []*RiskRule
	mappingRules []*MappingRule
	weights      Weights
	frozen       bool
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		predicates: make(map[string]*RegisteredPredicate),
		functions:  templateFunctions(),
	}
}

// Populate hands the loaded model and its converter to the registry.
// ValidateRegistry compiles them.
func (r *Registry) Populate(model *config.Model, converter config.Converter) {
	r.mustNotBeFrozen("populate")
	r.model = model
	r.converter = converter
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// RiskRules returns the compiled risk rules in registry order.
func (r *Registry) RiskRules() []*RiskRule {
	return slices.Clone(r.riskRules)
}

// MappingRules returns the compiled mapping rules in registry order.
func (r *Registry) MappingRules() []*MappingRule {
	return slices.Clone(r.mappingRules)
}

// Weights returns the resolved weights.
func (r *Registry) Weights() Weights {
	return r.weights
}

// Converter returns the converter that came with the rule model.
func (r *Registry) Converter() config.Converter {
	return r.converter
}

func (r *Registry) mustNotBeFrozen(op string) {
	if r.frozen {
		panic(fmt.Sprintf("registry: cannot %s a frozen registry", op))
	}
}
