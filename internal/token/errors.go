package token

import "fmt"

// ExternalLexError reports an unrecoverable failure of the upstream
// tokenizer or a token stream that violates the span contract. Analysis of
// the file is aborted.
type ExternalLexError struct {
	Index  int // token index, -1 when the failure is not tied to a token
	Offset int
	Reason string
}

func (e *ExternalLexError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("external lex error at offset %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("external lex error at token %d (offset %d): %s", e.Index, e.Offset, e.Reason)
}
