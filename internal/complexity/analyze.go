package complexity

import (
	"context"
	"math"
	"strings"

	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
)

// Score holds the metrics of one construct's subtree, itself included.
type Score struct {
	ConstructID string `json:"construct_id" yaml:"construct_id"`
	Branches    int    `json:"branches" yaml:"branches"`
	Depth       int    `json:"depth" yaml:"depth"`
	Statements  int    `json:"statements" yaml:"statements"`
	Datasets    int    `json:"datasets" yaml:"datasets"`
}

// Aggregate is the whole-program score.
type Aggregate struct {
	Branches   int      `json:"branches" yaml:"branches"`
	Depth      int      `json:"depth" yaml:"depth"`
	Statements int      `json:"statements" yaml:"statements"`
	Datasets   int      `json:"datasets" yaml:"datasets"`
	Raw        float64  `json:"raw" yaml:"raw"`
	Score      float64  `json:"score" yaml:"score"`
	Priority   Priority `json:"priority" yaml:"priority"`
	Assessment string   `json:"assessment" yaml:"assessment"`
}

// Result is the output of Analyze.
type Result struct {
	// Scores are in construct pre-order.
	Scores    []Score          `json:"scores" yaml:"scores"`
	ByID      map[string]Score `json:"-" yaml:"-"`
	Aggregate Aggregate        `json:"aggregate" yaml:"aggregate"`
}

type metrics struct {
	branches, depth, statements int
	datasets                    map[string]struct{}
}

// Analyze computes per-construct scores bottom-up and the aggregate over
// the root's metrics. It is a pure function of the tree and the weights.
func Analyze(ctx context.Context, tree *construct.Tree, w Weights) *Result {
	res := &Result{ByID: make(map[string]Score)}
	if tree == nil || tree.Root == nil {
		res.Aggregate = aggregate(metrics{}, w)
		return res
	}

	computed := make(map[*construct.Node]metrics)
	tree.PostOrder(func(n *construct.Node) {
		m := metrics{datasets: make(map[string]struct{})}
		if isBranch(n) {
			m.branches = 1
		}
		for _, name := range n.Attrs.Strings(construct.AttrInputs) {
			m.datasets[strings.ToUpper(name)] = struct{}{}
		}
		for _, name := range n.Attrs.Strings(construct.AttrOutputs) {
			m.datasets[strings.ToUpper(name)] = struct{}{}
		}

		maxChild := 0
		for _, child := range n.Children {
			cm := computed[child]
			m.branches += cm.branches
			m.statements += cm.statements
			maxChild = max(maxChild, cm.depth)
			for ds := range cm.datasets {
				m.datasets[ds] = struct{}{}
			}
			// Children are only needed by their parent.
			delete(computed, child)
		}

		switch {
		case n.IsLeaf():
			m.statements = 1
		case n.Kind == construct.Program:
			// The synthetic root is not a nesting level.
			m.depth = maxChild
		default:
			m.depth = 1 + maxChild
		}
		computed[n] = m

		res.ByID[n.ID] = Score{
			ConstructID: n.ID,
			Branches:    m.branches,
			Depth:       m.depth,
			Statements:  m.statements,
			Datasets:    len(m.datasets),
		}
	})

	tree.Walk(func(n *construct.Node, _ []*construct.Node) bool {
		res.Scores = append(res.Scores, res.ByID[n.ID])
		return true
	})
	res.Aggregate = aggregate(computed[tree.Root], w)

	ctxlog.FromContext(ctx).Debug("Complexity analyzed.",
		"constructs", len(res.Scores),
		"score", res.Aggregate.Score,
		"priority", res.Aggregate.Priority,
	)
	return res
}

func aggregate(m metrics, w Weights) Aggregate {
	raw := w.Branch*float64(m.branches) +
		w.Nesting*float64(m.depth) +
		w.Statement*float64(m.statements) +
		w.Dataset*float64(len(m.datasets))

	score := 0.0
	if w.Ceiling > 0 {
		score = math.Min(100, 100*raw/w.Ceiling)
	}
	score = math.Round(score*100) / 100
	priority := w.PriorityFor(score)

	return Aggregate{
		Branches:   m.branches,
		Depth:      m.depth,
		Statements: m.statements,
		Datasets:   len(m.datasets),
		Raw:        raw,
		Score:      score,
		Priority:   priority,
		Assessment: priority.Assessment(),
	}
}

// isBranch reports whether n is a decision point: a conditional with a
// condition of its own, a non-default WHEN, or an iterative loop.
func isBranch(n *construct.Node) bool {
	switch n.Kind {
	case construct.If:
		return n.Attrs.Has(construct.AttrCondition) && !n.Attrs.Bool(construct.AttrSubsetting)
	case construct.MacroIf:
		return n.Attrs.Has(construct.AttrCondition)
	case construct.When:
		return !n.Attrs.Bool(construct.AttrOtherwise)
	case construct.DoBlock, construct.MacroDo:
		return n.Attrs.Bool(construct.AttrIterative)
	case construct.Unknown, construct.Program, construct.DataStep, construct.ProcStep,
		construct.ProcSQL, construct.MacroDef, construct.MacroCall, construct.SelectBlock,
		construct.Set, construct.Merge, construct.By, construct.Retain, construct.Array,
		construct.Hash, construct.Input, construct.Output, construct.Assignment,
		construct.SQLStatement, construct.MacroLet, construct.Global, construct.Statement:
		return false
	}
	return false
}
