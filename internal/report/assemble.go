package report

import (
	"context"
	"errors"
	"math"
	"slices"

	"github.com/regger-zz/sas-translator/internal/blueprint"
	"github.com/regger-zz/sas-translator/internal/complexity"
	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/lineage"
	"github.com/regger-zz/sas-translator/internal/risk"
	"github.com/regger-zz/sas-translator/internal/token"
)

// Options carry the inputs of Assemble that are not stage outputs.
type Options struct {
	// CriticalWeight and WarningWeight weigh flags in the risk term.
	CriticalWeight float64
	WarningWeight  float64
	// Recommendations are the rendered rule recommendations.
	Recommendations []string
	// Errors are the non-fatal errors met along the way.
	Errors []error
	// OmitTree leaves the construct tree out of the report.
	OmitTree bool
}

// Assemble builds the report of a file that went through every stage.
//
//	coverage  = mapped constructs / total constructs
//	risk      = clamp((critical weight * critical + warning weight * warning) / total, 0, 1)
//	readiness = coverage * (1 - risk)
func Assemble(ctx context.Context, file FileInfo, tree *construct.Tree, scores *complexity.Result, flags []risk.Flag, entries []blueprint.Entry, opts Options) *AnalysisReport {
	logger := ctxlog.FromContext(ctx)

	total := len(entries)
	mapped := blueprint.Mapped(entries)
	counts := risk.Count(flags)

	coverage, riskTerm := 0.0, 0.0
	if total > 0 {
		coverage = float64(mapped) / float64(total)
		riskTerm = clamp((opts.CriticalWeight*float64(counts.Critical) + opts.WarningWeight*float64(counts.Warning)) / float64(total))
	}

	flow, _ := lineage.Build(ctx, tree)
	r := &AnalysisReport{
		File:            file,
		Status:          StatusComplete,
		Coverage:        round(coverage),
		Readiness:       round(coverage * (1 - riskTerm)),
		Summary:         summarize(tree, counts, mapped),
		Recommendations: recommendations(opts.Recommendations),
		Flags:           nonNil(flags),
		Blueprint:       nonNil(entries),
		DataFlow:        flow,
		Recovery:        tree.Recovery,
		Errors:          entriesFor(opts.Errors),
	}
	if scores != nil {
		r.Aggregate = scores.Aggregate
		r.Scores = nonNil(scores.Scores)
	} else {
		r.Scores = []complexity.Score{}
	}
	if !opts.OmitTree {
		r.Tree = tree.Root
	}
	if len(r.Errors) > 0 {
		r.Status = StatusPartial
	}

	logger.Debug("Report assembled.", "status", r.Status, "readiness", r.Readiness, "coverage", r.Coverage)
	return r
}

// Failed builds the minimal report of a file that could not be analyzed.
func Failed(file FileInfo, errs ...error) *AnalysisReport {
	return &AnalysisReport{
		File:            file,
		Status:          StatusFailed,
		Summary:         Summary{ProcTypes: []string{}},
		Recommendations: []string{},
		Flags:           []risk.Flag{},
		Blueprint:       []blueprint.Entry{},
		Scores:          []complexity.Score{},
		Errors:          entriesFor(errs),
	}
}

func summarize(tree *construct.Tree, counts risk.Counts, mapped int) Summary {
	s := Summary{ProcTypes: []string{}, Mapped: mapped, Flags: counts}
	tree.Walk(func(n *construct.Node, _ []*construct.Node) bool {
		s.Constructs++
		switch n.Kind {
		case construct.DataStep:
			s.DataSteps++
		case construct.ProcStep, construct.ProcSQL:
			s.ProcBlocks++
			if n.Kind == construct.ProcSQL {
				s.ProcSQL++
			}
			if p := n.Attrs.String(construct.AttrProc); p != "" && !slices.Contains(s.ProcTypes, p) {
				s.ProcTypes = append(s.ProcTypes, p)
			}
		case construct.MacroDef:
			s.MacroDefinitions++
		case construct.MacroCall:
			s.MacroCalls++
		}
		return true
	})
	slices.Sort(s.ProcTypes)
	return s
}

func recommendations(recs []string) []string {
	if len(recs) == 0 {
		return []string{DefaultRecommendation}
	}
	return slices.Clone(recs)
}

func entriesFor(errs []error) []ErrorEntry {
	out := []ErrorEntry{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		out = append(out, ErrorEntry{Kind: kindOf(err), Message: err.Error()})
	}
	return out
}

func kindOf(err error) string {
	var lexErr *token.ExternalLexError
	var structural *construct.StructuralError
	var ruleErr *risk.RuleEvaluationError
	switch {
	case errors.As(err, &lexErr):
		return KindExternalLex
	case errors.As(err, &structural):
		return KindStructural
	case errors.As(err, &ruleErr):
		return KindRuleEvaluation
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	return KindOther
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
