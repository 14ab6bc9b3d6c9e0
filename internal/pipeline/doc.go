// Package pipeline runs one source file through every analysis stage and
// applies the error taxonomy to the outcome.
package pipeline
