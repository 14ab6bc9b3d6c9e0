package report

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/regger-zz/sas-translator/internal/blueprint"
	"github.com/regger-zz/sas-translator/internal/complexity"
	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/risk"
	"github.com/regger-zz/sas-translator/internal/testutil"
	"github.com/regger-zz/sas-translator/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesWith(confidences ...blueprint.Confidence) []blueprint.Entry {
	out := make([]blueprint.Entry, len(confidences))
	for i, c := range confidences {
		out[i] = blueprint.Entry{ConstructID: fmt.Sprintf("c%d", i), Confidence: c, Operations: []blueprint.Operation{}}
	}
	return out
}

func flagsWith(severities ...risk.Severity) []risk.Flag {
	out := make([]risk.Flag, len(severities))
	for i, s := range severities {
		out[i] = risk.Flag{RuleID: "r", Severity: s, ConstructID: "c0"}
	}
	return out
}

func TestAssemble_Readiness(t *testing.T) {
	tree := testutil.Tree(t, "x = 1;")
	opts := Options{CriticalWeight: 1, WarningWeight: 0.5}

	testCases := []struct {
		name          string
		entries       []blueprint.Entry
		flags         []risk.Flag
		wantCoverage  float64
		wantReadiness float64
	}{
		{
			name:          "fully mapped and clean",
			entries:       entriesWith(blueprint.High, blueprint.High),
			wantCoverage:  1,
			wantReadiness: 1,
		},
		{
			name:          "half mapped",
			entries:       entriesWith(blueprint.High, blueprint.Unsupported),
			wantCoverage:  0.5,
			wantReadiness: 0.5,
		},
		{
			name:          "low confidence still counts as mapped",
			entries:       entriesWith(blueprint.Low, blueprint.Medium),
			wantCoverage:  1,
			wantReadiness: 1,
		},
		{
			name:          "warnings weigh half",
			entries:       entriesWith(blueprint.High, blueprint.High, blueprint.High, blueprint.High),
			flags:         flagsWith(risk.SeverityWarning, risk.SeverityWarning, risk.SeverityInfo),
			wantCoverage:  1,
			wantReadiness: 0.75,
		},
		{
			name:          "risk is clamped",
			entries:       entriesWith(blueprint.High),
			flags:         flagsWith(risk.SeverityCritical, risk.SeverityCritical),
			wantCoverage:  1,
			wantReadiness: 0,
		},
		{
			name:          "no entries",
			wantCoverage:  0,
			wantReadiness: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := Assemble(context.Background(), FileInfo{Path: "a.sas"}, tree, nil, tc.flags, tc.entries, opts)
			assert.InDelta(t, tc.wantCoverage, r.Coverage, 1e-9)
			assert.InDelta(t, tc.wantReadiness, r.Readiness, 1e-9)
			assert.GreaterOrEqual(t, r.Readiness, 0.0)
			assert.LessOrEqual(t, r.Readiness, 1.0)
		})
	}
}

func TestAssemble_FullProgram(t *testing.T) {
	reg := testutil.Registry(t, nil)
	src := `
%macro load(ds);
  proc import datafile="&ds..csv" out=&ds dbms=csv; run;
%mend;
%load(sales);
data clean;
  merge sales regions;
  by region;
run;
proc sql;
  create table totals as select region, sum(amount) from clean group by region;
quit;
proc print data=totals; run;`
	tree := testutil.Tree(t, src)
	ctx := context.Background()

	scores := complexity.Analyze(ctx, tree, reg.Weights().Complexity)
	flags, errs := risk.Classify(ctx, tree, reg)
	require.Empty(t, errs)
	entries := blueprint.Generate(ctx, tree, reg)
	recs, errs := risk.Recommendations(ctx, tree, reg, flags)
	require.Empty(t, errs)

	w := reg.Weights()
	r := Assemble(ctx, FileInfo{Path: "prog.sas"}, tree, scores, flags, entries, Options{
		CriticalWeight:  w.Critical,
		WarningWeight:   w.Warning,
		Recommendations: recs,
	})

	assert.Equal(t, StatusComplete, r.Status)
	assert.Equal(t, Summary{
		Constructs:       tree.Len(),
		DataSteps:        1,
		ProcBlocks:       3,
		ProcSQL:          1,
		MacroDefinitions: 1,
		MacroCalls:       1,
		ProcTypes:        []string{"IMPORT", "PRINT", "SQL"},
		Mapped:           blueprint.Mapped(entries),
		Flags:            risk.Count(flags),
	}, r.Summary)
	assert.Len(t, r.Blueprint, tree.Len())
	assert.Len(t, r.Scores, tree.Len())
	assert.Equal(t, scores.Aggregate, r.Aggregate)
	assert.Contains(t, r.Recommendations, "Verify logic of 1 PROC SQL block(s).")
	assert.NotContains(t, r.Recommendations, DefaultRecommendation)
	assert.Equal(t, []string{"CLEAN", "REGIONS", "SALES", "TOTALS"}, r.DataFlow.Used)
	var datasets []string
	for _, ds := range r.DataFlow.Datasets {
		datasets = append(datasets, ds.Name)
	}
	assert.Subset(t, datasets, r.DataFlow.Used)
	assert.Same(t, tree.Root, r.Tree)
	assert.Empty(t, r.Errors)
}

func TestAssemble_DefaultRecommendation(t *testing.T) {
	r := Assemble(context.Background(), FileInfo{}, testutil.Tree(t, "x = 1;"), nil, nil, entriesWith(blueprint.High), Options{OmitTree: true})
	assert.Equal(t, []string{DefaultRecommendation}, r.Recommendations)
	assert.Nil(t, r.Tree)
	assert.Equal(t, []risk.Flag{}, r.Flags)
	assert.Equal(t, []complexity.Score{}, r.Scores)
}

func TestAssemble_StatusAndErrors(t *testing.T) {
	tree := testutil.Tree(t, "data a; do; x = 1; run;")
	require.NotEmpty(t, tree.Recovery)

	structural := &construct.StructuralError{Points: tree.Recovery}
	ruleErr := &risk.RuleEvaluationError{RuleID: "r", ConstructID: "c", Err: errors.New("boom")}
	r := Assemble(context.Background(), FileInfo{}, tree, nil, nil, nil, Options{Errors: []error{structural, ruleErr, nil}})

	assert.Equal(t, StatusPartial, r.Status)
	require.Len(t, r.Errors, 2)
	assert.Equal(t, KindStructural, r.Errors[0].Kind)
	assert.Equal(t, KindRuleEvaluation, r.Errors[1].Kind)
	assert.Equal(t, tree.Recovery, r.Recovery)
}

func TestFailed(t *testing.T) {
	lexErr := &token.ExternalLexError{Index: -1, Offset: 3, Reason: "bad input"}
	r := Failed(FileInfo{Path: "bad.sas"}, fmt.Errorf("tokenize: %w", lexErr), context.DeadlineExceeded)

	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "bad.sas", r.File.Path)
	assert.Zero(t, r.Readiness)
	assert.Equal(t, []ErrorEntry{
		{Kind: KindExternalLex, Message: "tokenize: external lex error at offset 3: bad input"},
		{Kind: KindTimeout, Message: "context deadline exceeded"},
	}, r.Errors)
	assert.Empty(t, r.Blueprint)
	assert.Nil(t, r.Tree)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindCanceled, kindOf(fmt.Errorf("stage: %w", context.Canceled)))
	assert.Equal(t, KindOther, kindOf(errors.New("plain")))
}
