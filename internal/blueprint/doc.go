// Package blueprint maps each construct to target-platform operations using
// the mapping rules of the registry. It never looks at risk flags.
package blueprint
