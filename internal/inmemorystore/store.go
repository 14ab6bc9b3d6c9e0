package inmemorystore

import (
	"context"
	"fmt"
	"sync"

	"github.com/regger-zz/sas-translator/internal/report"
)

// Phase is where a file is in the batch.
type Phase string

const (
	Pending Phase = "pending"
	Running Phase = "running"
	Done    Phase = "done"
)

// Store maintains two independent sync.Maps keyed by file path:
//   - phases: Phase of every file the executor has seen
//   - reports: the finished report of every done file
type Store struct {
	phases  sync.Map
	reports sync.Map
}

// New creates a new, empty store.
func New() *Store {
	return &Store{}
}

// SetPhase records the phase of a file.
func (s *Store) SetPhase(ctx context.Context, path string, phase Phase) error {
	s.phases.Store(path, phase)
	return nil
}

// GetPhase returns the phase of a file. Unknown files are Pending.
func (s *Store) GetPhase(ctx context.Context, path string) (Phase, error) {
	phase, ok := s.phases.Load(path)
	if !ok {
		return Pending, nil
	}
	return phase.(Phase), nil
}

// SetReport records the finished report of a file and marks it Done.
func (s *Store) SetReport(ctx context.Context, path string, r *report.AnalysisReport) error {
	if r == nil {
		return fmt.Errorf("nil report for %s", path)
	}
	s.reports.Store(path, r)
	s.phases.Store(path, Done)
	return nil
}

// GetReport returns the report of a file, or nil if it has none yet.
func (s *Store) GetReport(ctx context.Context, path string) (*report.AnalysisReport, error) {
	r, ok := s.reports.Load(path)
	if !ok {
		return nil, nil
	}
	return r.(*report.AnalysisReport), nil
}
