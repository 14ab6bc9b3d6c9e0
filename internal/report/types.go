package report

import (
	"github.com/regger-zz/sas-translator/internal/blueprint"
	"github.com/regger-zz/sas-translator/internal/complexity"
	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/lineage"
	"github.com/regger-zz/sas-translator/internal/risk"
)

// Status of a file's analysis.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// DefaultRecommendation is reported when no rule recommends anything.
const DefaultRecommendation = "Code structure appears straightforward for automated translation."

// FileInfo identifies the analyzed source.
type FileInfo struct {
	Path string `json:"path" yaml:"path"`
	// Fingerprint is the HighwayHash-64 of the source bytes, hex encoded.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Bytes       int    `json:"bytes" yaml:"bytes"`
	Lines       int    `json:"lines" yaml:"lines"`
	Tokens      int    `json:"tokens" yaml:"tokens"`
}

// Summary counts the main construct families.
type Summary struct {
	Constructs       int         `json:"constructs" yaml:"constructs"`
	DataSteps        int         `json:"data_steps" yaml:"data_steps"`
	ProcBlocks       int         `json:"proc_blocks" yaml:"proc_blocks"`
	ProcSQL          int         `json:"proc_sql" yaml:"proc_sql"`
	MacroDefinitions int         `json:"macro_definitions" yaml:"macro_definitions"`
	MacroCalls       int         `json:"macro_calls" yaml:"macro_calls"`
	ProcTypes        []string    `json:"proc_types" yaml:"proc_types"`
	Mapped           int         `json:"mapped" yaml:"mapped"`
	Flags            risk.Counts `json:"flags" yaml:"flags"`
}

// ErrorEntry is one error encountered while analyzing the file.
type ErrorEntry struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// Error kinds.
const (
	KindExternalLex    = "external_lex"
	KindStructural     = "structural"
	KindRuleEvaluation = "rule_evaluation"
	KindTimeout        = "timeout"
	KindCanceled       = "canceled"
	KindOther          = "error"
)

// AnalysisReport is the root artifact of one file's analysis. It is built
// once by Assemble or Failed and not modified afterwards.
type AnalysisReport struct {
	File            FileInfo                  `json:"file" yaml:"file"`
	Status          Status                    `json:"status" yaml:"status"`
	Readiness       float64                   `json:"readiness" yaml:"readiness"`
	Coverage        float64                   `json:"coverage" yaml:"coverage"`
	Aggregate       complexity.Aggregate      `json:"complexity" yaml:"complexity"`
	Summary         Summary                   `json:"summary" yaml:"summary"`
	Recommendations []string                  `json:"recommendations" yaml:"recommendations"`
	Flags           []risk.Flag               `json:"flags" yaml:"flags"`
	Blueprint       []blueprint.Entry         `json:"blueprint" yaml:"blueprint"`
	Scores          []complexity.Score        `json:"scores" yaml:"scores"`
	DataFlow        *lineage.Flow             `json:"data_flow,omitempty" yaml:"data_flow,omitempty"`
	Recovery        []construct.RecoveryPoint `json:"recovery,omitempty" yaml:"recovery,omitempty"`
	Errors          []ErrorEntry              `json:"errors" yaml:"errors"`
	Tree            *construct.Node           `json:"tree,omitempty" yaml:"tree,omitempty"`
}
