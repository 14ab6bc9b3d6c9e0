package executor

import (
	"math"
	"time"

	"github.com/regger-zz/sas-translator/internal/report"
)

// Batch is the outcome of one Run.
type Batch struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
	Summary  Summary   `json:"summary" yaml:"summary"`
	Results  []Result  `json:"results" yaml:"results"`

	// Reports holds the full report of every file, in Results order.
	Reports []*report.AnalysisReport `json:"-" yaml:"-"`
}

// Result is the one-line outcome of a file.
type Result struct {
	Path        string        `json:"path" yaml:"path"`
	Fingerprint string        `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Status      report.Status `json:"status" yaml:"status"`
	Readiness   float64       `json:"readiness" yaml:"readiness"`
	Priority    string        `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// Summary counts files per status. MeanReadiness averages the files that
// were not failed, and is zero when there are none.
type Summary struct {
	Files         int     `json:"files" yaml:"files"`
	Complete      int     `json:"complete" yaml:"complete"`
	Partial       int     `json:"partial" yaml:"partial"`
	Failed        int     `json:"failed" yaml:"failed"`
	MeanReadiness float64 `json:"mean_readiness" yaml:"mean_readiness"`

	readinessSum float64
}

func (b *Batch) add(r *report.AnalysisReport) {
	b.Reports = append(b.Reports, r)
	b.Results = append(b.Results, Result{
		Path:        r.File.Path,
		Fingerprint: r.File.Fingerprint,
		Status:      r.Status,
		Readiness:   r.Readiness,
		Priority:    string(r.Aggregate.Priority),
	})

	b.Summary.Files++
	switch r.Status {
	case report.StatusComplete:
		b.Summary.Complete++
	case report.StatusPartial:
		b.Summary.Partial++
	default:
		b.Summary.Failed++
		return
	}
	b.Summary.readinessSum += r.Readiness
}

func (s *Summary) finish() {
	analyzed := s.Complete + s.Partial
	if analyzed == 0 {
		return
	}
	s.MeanReadiness = math.Round(s.readinessSum/float64(analyzed)*10000) / 10000
}
