// Package registry provides the central "glue" between rule files and code.
//
// The Registry stores the Go predicate implementations keyed by the names
// used in `risk_rule` blocks, alongside the parsed, format-agnostic rule
// definitions themselves (risk rules, mapping rules and weights).
//
// During application startup, the registry is populated, validated to
// ensure that the Go code and the rule files are perfectly in sync, and then
// frozen. A frozen registry is read-only and shared by every analysis
// without synchronization.
package registry
