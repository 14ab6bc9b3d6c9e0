// Package executor analyzes batches of source files in parallel. Every file
// runs under its own deadline, and a failing or slow file never affects its
// siblings.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/inmemorystore"
	"github.com/regger-zz/sas-translator/internal/report"
	"golang.org/x/sync/errgroup"
)

// Analyzer turns one source into a report. A nil report or a panic fails
// only that file.
type Analyzer interface {
	Analyze(ctx context.Context, path string, src []byte) *report.AnalysisReport
}

// Reader loads the content of a source location.
type Reader interface {
	Read(ctx context.Context, location string) ([]byte, error)
}

// Executor runs an Analyzer over many files with bounded parallelism.
type Executor struct {
	analyzer Analyzer
	reader   Reader
	workers  int
	timeout  time.Duration
}

// New creates an Executor. workers below one means one worker; a timeout of
// zero or less leaves files without a deadline of their own.
func New(analyzer Analyzer, reader Reader, workers int, timeout time.Duration) *Executor {
	return &Executor{
		analyzer: analyzer,
		reader:   reader,
		workers:  max(workers, 1),
		timeout:  timeout,
	}
}

// Run analyzes files and returns their reports in input order. Duplicate
// paths are analyzed once. The batch is returned even when ctx is done, in
// which case the unfinished files carry failed reports and the context
// error is returned alongside.
func (e *Executor) Run(ctx context.Context, files []string) (*Batch, error) {
	batch := &Batch{RunID: uuid.New().String(), Started: time.Now().UTC()}
	ctx = ctxlog.With(ctx, "run_id", batch.RunID)
	logger := ctxlog.FromContext(ctx)

	files = unique(files)
	logger.Info("Batch started.", "files", len(files), "workers", e.workers, "timeout", e.timeout)

	store := inmemorystore.New()
	for _, path := range files {
		if err := store.SetPhase(ctx, path, inmemorystore.Pending); err != nil {
			return nil, err
		}
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, path := range files {
		g.Go(func() error {
			return e.worker(ctx, store, path)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, path := range files {
		r, err := collect(ctx, store, path)
		if err != nil {
			return nil, err
		}
		batch.add(r)
	}
	batch.Finished = time.Now().UTC()
	batch.Summary.finish()

	logger.Info("Batch finished.",
		"complete", batch.Summary.Complete,
		"partial", batch.Summary.Partial,
		"failed", batch.Summary.Failed,
		"duration", batch.Finished.Sub(batch.Started),
	)
	return batch, ctx.Err()
}

// worker analyzes one file and records its report. Analysis failures are
// reports, not errors: only a store failure stops the batch.
func (e *Executor) worker(ctx context.Context, store *inmemorystore.Store, path string) error {
	logger := ctxlog.FromContext(ctx).With("file", path)

	if err := ctx.Err(); err != nil {
		logger.Debug("Batch done before file started.")
		return store.SetReport(ctx, path, report.Failed(report.FileInfo{Path: path}, err))
	}
	if err := store.SetPhase(ctx, path, inmemorystore.Running); err != nil {
		return err
	}

	fileCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	r := e.analyze(fileCtx, path)
	if r == nil {
		// The file stays Running and is reported as unfinished.
		logger.Error("Analyzer returned no report.")
		return nil
	}
	logger.Debug("File done.", "status", r.Status, "duration", time.Since(start))
	return store.SetReport(ctx, path, r)
}

func (e *Executor) analyze(ctx context.Context, path string) (r *report.AnalysisReport) {
	defer func() {
		if p := recover(); p != nil {
			ctxlog.FromContext(ctx).Error("Analysis panicked.", "file", path, "panic", p)
			r = report.Failed(report.FileInfo{Path: path}, fmt.Errorf("analysis panicked: %v", p))
		}
	}()

	src, err := e.reader.Read(ctx, path)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Source could not be read.", "file", path, "error", err)
		return report.Failed(report.FileInfo{Path: path}, fmt.Errorf("read source: %w", err))
	}
	return e.analyzer.Analyze(ctx, path, src)
}

// collect returns the report of a file, or a failed one when the file never
// reached Done.
func collect(ctx context.Context, store *inmemorystore.Store, path string) (*report.AnalysisReport, error) {
	phase, err := store.GetPhase(ctx, path)
	if err != nil {
		return nil, err
	}
	if phase != inmemorystore.Done {
		return report.Failed(report.FileInfo{Path: path}, fmt.Errorf("analysis did not finish: file is %s", phase)), nil
	}
	return store.GetReport(ctx, path)
}

func unique(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
