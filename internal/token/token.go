package token

import (
	"fmt"
	"strings"
)

// Kind classifies a token by its structural role.
type Kind int

const (
	Unknown Kind = iota
	Keyword
	Identifier
	Operator
	Literal
	Comment
	Delimiter
	// MacroCall is a sigil-prefixed name (`%name`) that is not part of the
	// macro language itself, i.e. an invocation of a user macro.
	MacroCall
)

var kindNames = [...]string{
	Unknown:    "unknown",
	Keyword:    "keyword",
	Identifier: "identifier",
	Operator:   "operator",
	Literal:    "literal",
	Comment:    "comment",
	Delimiter:  "delimiter",
	MacroCall:  "macro_call",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText keeps the serialized form stable and readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token kind %q", string(text))
}

// Span locates a token or construct in the source. Offsets are byte offsets,
// End is exclusive; Line and Column are 1-based.
type Span struct {
	Start  int `json:"start" yaml:"start"`
	End    int `json:"end" yaml:"end"`
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if other == (Span{}) {
		return s
	}
	if s == (Span{}) {
		return other
	}
	out := s
	if other.Start < out.Start {
		out.Start, out.Line, out.Column = other.Start, other.Line, other.Column
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Token is a single normalized lexical unit. Tokens are produced once by the
// Adapter and never mutated.
type Token struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Lexeme string `json:"lexeme" yaml:"lexeme"`
	Span   Span   `json:"span" yaml:"span"`
}

// Upper returns the lexeme in upper case; SAS keywords and names are case-insensitive.
func (t Token) Upper() string {
	return strings.ToUpper(t.Lexeme)
}

// Is reports whether the token has the given kind and, case-insensitively, lexeme.
func (t Token) Is(kind Kind, lexeme string) bool {
	return t.Kind == kind && strings.EqualFold(t.Lexeme, lexeme)
}

// IsDelimiter reports whether the token is the given delimiter.
func (t Token) IsDelimiter(lexeme string) bool {
	return t.Is(Delimiter, lexeme)
}
