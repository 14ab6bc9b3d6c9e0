// Package token normalizes the output of an external SAS tokenizer into the
// internal token representation consumed by the construct builder.
//
// The upstream tokenizer is untrusted: the Adapter validates span
// monotonicity and aborts with an ExternalLexError on unrecoverable input,
// while recoverable anomalies degrade to Unknown tokens so every later stage
// still receives a total token sequence for the file.
package token
