package token

import "context"

// Raw token types understood by the Adapter. Upstream tokenizers may emit
// finer-grained names (KW_DATA, STRING_LITERAL, ...); see classify.
const (
	RawWhitespace = "WS"
	RawComment    = "COMMENT"
	RawKeyword    = "KW"
	RawIdentifier = "IDENTIFIER"
	RawMacroName  = "MACRO_IDENTIFIER"
	RawMacroVar   = "MACRO_VAR"
	RawString     = "STRING_LITERAL"
	RawNumber     = "NUMBER_LITERAL"
	RawSemicolon  = "SEMI"
	RawLParen     = "LPAREN"
	RawRParen     = "RPAREN"
	RawComma      = "COMMA"
	RawOperator   = "OPERATOR"
	RawError      = "ERROR"
)

// RawToken is one token as reported by the external tokenizer. Start and
// Stop are byte offsets into the source; Stop is exclusive.
type RawToken struct {
	Type   string `json:"token_type"`
	Text   string `json:"text,omitempty"`
	Start  int    `json:"start"`
	Stop   int    `json:"stop"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Diagnostic is an upstream lexer message. Fatal diagnostics (unterminated
// string or comment) abort analysis of the file.
type Diagnostic struct {
	Message string `json:"message"`
	Offset  int    `json:"offset,omitempty"`
	Fatal   bool   `json:"fatal,omitempty"`
}

// RawStream is the complete result of one upstream tokenizer call.
type RawStream struct {
	Source      []byte
	Tokens      []RawToken
	Diagnostics []Diagnostic
}

// Tokenizer is the contract of the external lexical tokenizer: a single
// synchronous call per file.
type Tokenizer interface {
	Tokenize(ctx context.Context, src []byte) (*RawStream, error)
}
