package blueprint

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// NoMappingNote is the note of entries no mapping rule matched.
const NoMappingNote = "no automated mapping known"

// Operation is one target-platform operation.
type Operation struct {
	Op     string         `json:"op" yaml:"op"`
	Target string         `json:"target,omitempty" yaml:"target,omitempty"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Entry is the blueprint of one construct.
type Entry struct {
	ConstructID string      `json:"construct_id" yaml:"construct_id"`
	RuleID      string      `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Operations  []Operation `json:"operations" yaml:"operations"`
	// Confidence is the rule's own confidence capped by the weakest
	// construct beneath it.
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Note       string     `json:"note,omitempty" yaml:"note,omitempty"`
}

// Generate emits one entry per construct, in pre-order. The first mapping
// rule in registry order that matches a construct decides its entry.
func Generate(ctx context.Context, tree *construct.Tree, reg *registry.Registry) []Entry {
	logger := ctxlog.FromContext(ctx)
	rules := reg.MappingRules()

	own := map[*construct.Node]*Entry{}
	tree.PostOrder(func(n *construct.Node) {
		own[n] = entryFor(ctx, n, rules, reg)
	})

	composite := map[*construct.Node]Confidence{}
	tree.PostOrder(func(n *construct.Node) {
		c := own[n].Confidence
		if c == Unsupported {
			composite[n] = c
			return
		}
		for _, child := range n.Children {
			worst := composite[child]
			if worst == Unsupported {
				worst = Low
			}
			c = Min(c, worst)
		}
		composite[n] = c
	})

	entries := make([]Entry, 0, len(own))
	tree.Walk(func(n *construct.Node, _ []*construct.Node) bool {
		e := *own[n]
		e.Confidence = composite[n]
		entries = append(entries, e)
		return true
	})

	logger.Debug("Blueprint generated.", "entries", len(entries), "mapped", Mapped(entries))
	return entries
}

// Mapped counts entries whose confidence is not unsupported.
func Mapped(entries []Entry) int {
	count := 0
	for _, e := range entries {
		if e.Confidence.Mapped() {
			count++
		}
	}
	return count
}

func entryFor(ctx context.Context, n *construct.Node, rules []*registry.MappingRule, reg *registry.Registry) *Entry {
	e := &Entry{ConstructID: n.ID, Operations: []Operation{}, Confidence: Unsupported, Note: NoMappingNote}
	rule := match(n, rules)
	if rule == nil {
		return e
	}

	ops, err := operations(n, rule, reg)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Mapping rule evaluation failed, construct left unmapped.",
			"rule", rule.ID, "construct", n.ID, "error", err)
		e.RuleID = rule.ID
		e.Note = fmt.Sprintf("mapping rule '%s' failed: %v", rule.ID, err)
		return e
	}

	e.RuleID = rule.ID
	e.Operations = ops
	e.Note = rule.Note
	e.Confidence = Confidence(rule.Confidence)
	if rule.ContextFree {
		e.Confidence = High
	}
	return e
}

func match(n *construct.Node, rules []*registry.MappingRule) *registry.MappingRule {
	selector := selectorOf(n)
	for _, rule := range rules {
		if rule.ConstructKind != n.Kind {
			continue
		}
		if len(rule.Names) > 0 && !slices.ContainsFunc(rule.Names, func(s string) bool { return strings.EqualFold(s, selector) }) {
			continue
		}
		if slices.ContainsFunc(rule.Requires, func(a string) bool { return !n.Attrs.Has(a) }) {
			continue
		}
		if slices.ContainsFunc(rule.Unless, n.Attrs.Has) {
			continue
		}
		return rule
	}
	return nil
}

// selectorOf is the name `names` is matched against.
func selectorOf(n *construct.Node) string {
	for _, key := range []string{construct.AttrProc, construct.AttrSQLKeyword, construct.AttrKeyword, construct.AttrName} {
		if v := n.Attrs.String(key); v != "" {
			return v
		}
	}
	return ""
}

func operations(n *construct.Node, rule *registry.MappingRule, reg *registry.Registry) ([]Operation, error) {
	vars := map[string]cty.Value{"construct": registry.ConstructValue(n)}
	ops := make([]Operation, 0, len(rule.Operations))
	for _, tmpl := range rule.Operations {
		op := Operation{Op: tmpl.Op}
		target, err := reg.EvalString(tmpl.Target, vars)
		if err != nil {
			return nil, fmt.Errorf("operation '%s' target: %w", tmpl.Op, err)
		}
		op.Target = target

		for _, name := range slices.Sorted(maps.Keys(tmpl.Params)) {
			v, err := reg.EvalNative(tmpl.Params[name], vars)
			if err != nil {
				return nil, fmt.Errorf("operation '%s' parameter '%s': %w", tmpl.Op, name, err)
			}
			if op.Params == nil {
				op.Params = make(map[string]any, len(tmpl.Params))
			}
			op.Params[name] = v
		}
		ops = append(ops, op)
	}
	return ops, nil
}
