// Package report assembles the per-file AnalysisReport from the stage
// outputs and encodes it. Migration readiness is computed here and nowhere
// else.
package report
