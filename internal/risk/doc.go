// Package risk evaluates risk rules against a construct tree and emits
// flags for patterns likely to complicate migration.
//
// Predicate kinds are Go functions registered through Module; the rules that
// bind them to severities, parameters and rationale templates come from the
// rule registry. Unknown constructs always receive the intrinsic
// unsupported-construct flag, whatever the registry holds.
package risk
