package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/executor"
	"github.com/regger-zz/sas-translator/internal/lexer"
	"github.com/regger-zz/sas-translator/internal/pipeline"
	"github.com/regger-zz/sas-translator/internal/report"
	"github.com/regger-zz/sas-translator/internal/token"
)

// ErrNoSources is returned when no source file matches the configured paths.
var ErrNoSources = errors.New("no source files found")

// Run discovers the sources, analyzes them as one batch and writes the
// reports. Files that fail analysis do not make Run fail; they are reported
// with status failed.
func (a *App) Run(ctx context.Context) (*executor.Batch, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	encoder, err := report.NewEncoder(a.config.Format)
	if err != nil {
		return nil, err
	}

	files, err := a.reader.Discover(ctx, a.config.Sources, a.config.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoSources
	}
	a.logger.Debug("Sources discovered.", "count", len(files))

	var opts []pipeline.Option
	if len(a.config.Keywords) > 0 {
		opts = append(opts, pipeline.WithAdapter(token.NewAdapter(token.WithKeywords(a.config.Keywords...))))
	}
	if a.config.NoTree {
		opts = append(opts, pipeline.WithoutTree())
	}
	analyzer := pipeline.New(a.tokenizer(), a.registry, opts...)
	exec := executor.New(analyzer, a.reader, a.config.Workers, a.config.Timeout)

	batch, runErr := exec.Run(ctx, files)
	if batch == nil {
		return nil, fmt.Errorf("execution failed: %w", runErr)
	}

	if err := a.write(ctx, encoder, batch); err != nil {
		return batch, err
	}
	if runErr != nil {
		return batch, fmt.Errorf("execution interrupted: %w", runErr)
	}

	a.logger.Info("Analysis finished.",
		"files", batch.Summary.Files,
		"failed", batch.Summary.Failed,
		"mean_readiness", batch.Summary.MeanReadiness,
	)
	return batch, nil
}

func (a *App) tokenizer() token.Tokenizer {
	if a.config.Tokenizer == "dump" {
		return lexer.Dump{}
	}
	return lexer.NewSAS()
}
