package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/regger-zz/sas-translator/internal/blueprint"
	"github.com/regger-zz/sas-translator/internal/complexity"
	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/registry"
	"github.com/regger-zz/sas-translator/internal/report"
	"github.com/regger-zz/sas-translator/internal/risk"
	"github.com/regger-zz/sas-translator/internal/token"
)

// Analyzer turns source files into reports. It holds no per-file state and
// is safe for concurrent use.
type Analyzer struct {
	tokenizer token.Tokenizer
	adapter   *token.Adapter
	registry  *registry.Registry
	omitTree  bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithAdapter replaces the default token adapter.
func WithAdapter(a *token.Adapter) Option {
	return func(an *Analyzer) { an.adapter = a }
}

// WithoutTree leaves construct trees out of the reports.
func WithoutTree() Option {
	return func(an *Analyzer) { an.omitTree = true }
}

// New creates an Analyzer. reg must be frozen.
func New(tokenizer token.Tokenizer, reg *registry.Registry, opts ...Option) *Analyzer {
	if !reg.Frozen() {
		panic("pipeline: registry must be frozen before analysis")
	}
	a := &Analyzer{tokenizer: tokenizer, adapter: token.NewAdapter(), registry: reg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs src through every stage. It always returns a report: an
// unrecoverable tokenizer failure or a done context yields a failed report,
// recoverable problems a partial one.
func (a *Analyzer) Analyze(ctx context.Context, path string, src []byte) *report.AnalysisReport {
	ctx = ctxlog.With(ctx, "file", path)
	logger := ctxlog.FromContext(ctx)

	file, err := report.NewFileInfo(path, src)
	if err != nil {
		return a.failed(ctx, file, err)
	}

	toks, err := a.tokenize(ctx, src)
	if err != nil {
		return a.failed(ctx, file, err)
	}
	file.Tokens = len(toks)

	tree, err := construct.Build(ctx, toks)
	var nonFatal []error
	var structural *construct.StructuralError
	switch {
	case errors.As(err, &structural):
		logger.Debug("Structural recovery applied.", "points", len(structural.Points))
		nonFatal = append(nonFatal, err)
	case err != nil:
		return a.failed(ctx, file, fmt.Errorf("construct stage: %w", err))
	}

	weights := a.registry.Weights()
	scores := complexity.Analyze(ctx, tree, weights.Complexity)
	if err := ctx.Err(); err != nil {
		return a.failed(ctx, file, err)
	}

	flags, ruleErrs := risk.Classify(ctx, tree, a.registry)
	for _, e := range ruleErrs {
		nonFatal = append(nonFatal, e)
	}
	if err := ctx.Err(); err != nil {
		return a.failed(ctx, file, err)
	}

	entries := blueprint.Generate(ctx, tree, a.registry)
	recs, recErrs := risk.Recommendations(ctx, tree, a.registry, flags)
	for _, e := range recErrs {
		nonFatal = append(nonFatal, e)
	}
	if err := ctx.Err(); err != nil {
		return a.failed(ctx, file, err)
	}

	r := report.Assemble(ctx, file, tree, scores, flags, entries, report.Options{
		CriticalWeight:  weights.Critical,
		WarningWeight:   weights.Warning,
		Recommendations: recs,
		Errors:          nonFatal,
		OmitTree:        a.omitTree,
	})
	logger.Info("File analyzed.", "status", r.Status, "readiness", r.Readiness, "constructs", r.Summary.Constructs, "flags", len(r.Flags))
	return r
}

// tokenize runs the external tokenizer and the adapter. Every failure that
// is not a context error is an *token.ExternalLexError.
func (a *Analyzer) tokenize(ctx context.Context, src []byte) ([]token.Token, error) {
	stream, err := a.tokenizer.Tokenize(ctx, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var lexErr *token.ExternalLexError
		if errors.As(err, &lexErr) {
			return nil, err
		}
		return nil, &token.ExternalLexError{Index: -1, Reason: err.Error()}
	}
	seq := a.adapter.Adapt(stream)
	toks, err := seq.Collect()
	if err != nil {
		return nil, err
	}
	for _, w := range seq.Warnings() {
		ctxlog.FromContext(ctx).Debug("Tokenizer warning.", "offset", w.Offset, "message", w.Message)
	}
	return toks, ctx.Err()
}

func (a *Analyzer) failed(ctx context.Context, file report.FileInfo, err error) *report.AnalysisReport {
	ctxlog.FromContext(ctx).Warn("File analysis failed.", "error", err)
	return report.Failed(file, err)
}
