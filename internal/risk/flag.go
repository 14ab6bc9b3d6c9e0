package risk

import (
	"fmt"
)

// Severity of a flag.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Flag is one rule firing on one construct.
type Flag struct {
	RuleID      string   `json:"rule_id" yaml:"rule_id"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Rationale   string   `json:"rationale" yaml:"rationale"`
	ConstructID string   `json:"construct_id" yaml:"construct_id"`
}

// RuleEvaluationError reports a rule whose predicate or template failed for
// one construct. The flag is skipped; every other rule still runs.
type RuleEvaluationError struct {
	RuleID      string
	ConstructID string
	Err         error
}

func (e *RuleEvaluationError) Error() string {
	if e.ConstructID == "" {
		return fmt.Sprintf("rule '%s': %v", e.RuleID, e.Err)
	}
	return fmt.Sprintf("rule '%s' on %s: %v", e.RuleID, e.ConstructID, e.Err)
}

func (e *RuleEvaluationError) Unwrap() error {
	return e.Err
}

// Counts tallies flags by severity.
type Counts struct {
	Info     int `json:"info" yaml:"info"`
	Warning  int `json:"warning" yaml:"warning"`
	Critical int `json:"critical" yaml:"critical"`
}

// Count tallies flags by severity.
func Count(flags []Flag) Counts {
	var c Counts
	for _, f := range flags {
		switch f.Severity {
		case SeverityInfo:
			c.Info++
		case SeverityWarning:
			c.Warning++
		case SeverityCritical:
			c.Critical++
		}
	}
	return c
}
