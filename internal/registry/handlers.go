package registry

import (
	"fmt"
	"log/slog"

	"github.com/regger-zz/sas-translator/internal/construct"
)

// Subject is what a predicate inspects: one construct, its ancestor chain
// (root first, parent last) and the whole tree for lookbehind.
type Subject struct {
	Node      *construct.Node
	Ancestors []*construct.Node
	Tree      *construct.Tree
}

// Parent returns the immediate parent, or nil for the root.
func (s Subject) Parent() *construct.Node {
	if len(s.Ancestors) == 0 {
		return nil
	}
	return s.Ancestors[len(s.Ancestors)-1]
}

// PredicateFunc decides whether a rule fires for the subject. params is the
// value returned by the predicate's NewParams, decoded from the rule.
type PredicateFunc func(s Subject, params any) (bool, error)

// RegisteredPredicate holds the compiled Go parts of a predicate kind.
type RegisteredPredicate struct {
	// NewParams returns a pointer to a parameter struct pre-populated with
	// defaults. Nil means the predicate takes no parameters.
	NewParams func() any
	Fn        PredicateFunc
}

// RegisterPredicate registers a Go function for a predicate kind.
func (r *Registry) RegisterPredicate(name string, p *RegisteredPredicate) {
	r.mustNotBeFrozen("register predicate on")
	if _, exists := r.predicates[name]; exists {
		panic(fmt.Sprintf("predicate with name '%s' already registered", name))
	}
	slog.Debug("Registering predicate.", "name", name)
	r.predicates[name] = p
}

// Predicate returns the registered predicate, if any.
func (r *Registry) Predicate(name string) (*RegisteredPredicate, bool) {
	p, ok := r.predicates[name]
	return p, ok
}
