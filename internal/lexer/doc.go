// Package lexer holds the upstream tokenizers that satisfy token.Tokenizer.
//
// SAS is a reference tokenizer for SAS source text. Dump replays a JSON token
// dump written by an external lexer, so its output can be analyzed without
// linking the lexer itself.
package lexer
