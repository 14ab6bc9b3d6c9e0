package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/executor"
	"github.com/regger-zz/sas-translator/internal/report"
)

// write emits the batch either as files under OutDir, one per source plus
// a batch summary, or as a stream of reports on the output writer.
func (a *App) write(ctx context.Context, enc report.Encoder, batch *executor.Batch) error {
	if a.config.OutDir == "" {
		return a.stream(enc, batch)
	}

	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(a.config.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	names := reportNames(batch.Reports, enc.Extension())
	for i, r := range batch.Reports {
		target := filepath.Join(a.config.OutDir, names[i])
		if err := writeFile(target, enc, r); err != nil {
			return err
		}
		logger.Debug("Report written.", "file", r.File.Path, "target", target)
	}

	target := filepath.Join(a.config.OutDir, "batch"+enc.Extension())
	if err := writeFile(target, enc, batch); err != nil {
		return err
	}
	logger.Info("Reports written.", "dir", a.config.OutDir, "count", len(batch.Reports))
	return nil
}

func (a *App) stream(enc report.Encoder, batch *executor.Batch) error {
	_, isYAML := enc.(report.YAMLEncoder)
	for i, r := range batch.Reports {
		if isYAML && i > 0 {
			if _, err := io.WriteString(a.outW, "---\n"); err != nil {
				return err
			}
		}
		if err := enc.Encode(a.outW, r); err != nil {
			return fmt.Errorf("failed to encode report for %s: %w", r.File.Path, err)
		}
	}
	return nil
}

func writeFile(target string, enc report.Encoder, v any) (err error) {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := enc.Encode(f, v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", target, err)
	}
	return nil
}

// reportNames derives one output file name per report from the source base
// name. Clashing names get a numeric suffix; "batch" is reserved.
func reportNames(reports []*report.AnalysisReport, ext string) []string {
	used := map[string]bool{"batch": true}
	names := make([]string, len(reports))
	for i, r := range reports {
		base := path.Base(filepath.ToSlash(r.File.Path))
		base = strings.TrimSuffix(base, path.Ext(base))
		if base == "" || base == "." || base == "/" {
			base = "report"
		}
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s-%d", base, n)
		}
		used[name] = true
		names[i] = name + ext
	}
	return names
}
