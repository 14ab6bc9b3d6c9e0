package token

import (
	"iter"
	"sort"
	"strings"
)

// structuralWords are bare words promoted from identifier to keyword. The
// construct builder only ever looks at keyword tokens when deciding
// structure, so anything it must recognize has to be listed here.
var structuralWords = []string{
	"DATA", "RUN", "PROC", "QUIT", "END", "DO", "IF", "THEN", "ELSE",
	"SELECT", "WHEN", "OTHERWISE", "SET", "MERGE", "UPDATE", "MODIFY", "BY",
	"RETAIN", "ARRAY", "INPUT", "INFILE", "OUTPUT", "FILE", "PUT", "DECLARE",
	"DCL", "KEEP", "DROP", "LENGTH", "FORMAT", "INFORMAT", "LABEL", "RENAME",
	"WHERE", "OPTIONS", "LIBNAME", "FILENAME", "X", "CALL", "DATALINES",
	"CARDS", "LINES", "DATALINES4", "CARDS4", "LINES4", "WHILE", "UNTIL", "TO", "DELETE", "STOP", "RETURN", "LEAVE",
	"CONTINUE", "GOTO", "LINK", "SYSTASK", "ODS", "TITLE", "FOOTNOTE",
	"ATTRIB", "ABORT", "MISSING", "LOSTCARD", "LIST",
}

// macroWords are the macro-language keywords. Any other `%name` is a call.
var macroWords = []string{
	"%MACRO", "%MEND", "%IF", "%THEN", "%ELSE", "%DO", "%END", "%TO", "%BY",
	"%WHILE", "%UNTIL", "%LET", "%GLOBAL", "%LOCAL", "%PUT", "%INCLUDE",
	"%RETURN", "%GOTO", "%ABORT", "%SYSEXEC", "%SYSCALL", "%EVAL", "%SYSEVALF",
	"%STR", "%NRSTR", "%QUOTE", "%NRQUOTE", "%BQUOTE", "%NRBQUOTE", "%SUPERQ",
	"%UNQUOTE", "%SCAN", "%QSCAN", "%SUBSTR", "%QSUBSTR", "%UPCASE", "%QUPCASE",
	"%LENGTH", "%INDEX", "%SYSFUNC", "%QSYSFUNC", "%SYMEXIST", "%SYMGLOBL",
	"%SYMLOCAL", "%CMPRES", "%LEFT", "%TRIM", "%WINDOW", "%DISPLAY", "%INPUT",
	"%COPY", "%SYSRPUT", "%SYSLPUT",
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKeywords promotes additional bare words to keywords, for dialect
// extensions the default table does not know.
func WithKeywords(words ...string) Option {
	return func(a *Adapter) {
		for _, w := range words {
			a.keywords[strings.ToUpper(w)] = struct{}{}
		}
	}
}

// Adapter converts upstream raw tokens into Tokens. An Adapter holds only
// read-only tables after construction and may be shared between goroutines.
type Adapter struct {
	keywords map[string]struct{}
	macro    map[string]struct{}
}

// NewAdapter creates an Adapter with the default keyword tables.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		keywords: make(map[string]struct{}, len(structuralWords)),
		macro:    make(map[string]struct{}, len(macroWords)),
	}
	for _, w := range structuralWords {
		a.keywords[w] = struct{}{}
	}
	for _, w := range macroWords {
		a.macro[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Keywords returns the promoted bare words, sorted.
func (a *Adapter) Keywords() []string {
	out := make([]string, 0, len(a.keywords))
	for w := range a.keywords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Adapt wraps a raw stream in a lazy Sequence. Nothing is validated until
// the sequence is iterated.
func (a *Adapter) Adapt(stream *RawStream) *Sequence {
	return &Sequence{adapter: a, stream: stream}
}

// Sequence is a lazy, restartable view of an adapted token stream. Every
// call to All starts from the first token; no cursor state is shared.
type Sequence struct {
	adapter *Adapter
	stream  *RawStream
}

// All yields adapted tokens in source order. Iteration stops after the first
// error, which is always an *ExternalLexError.
func (s *Sequence) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		if s.stream == nil {
			return
		}
		for _, d := range s.stream.Diagnostics {
			if d.Fatal {
				yield(Token{}, &ExternalLexError{Index: -1, Offset: d.Offset, Reason: d.Message})
				return
			}
		}

		src := s.stream.Source
		srcLen := -1
		if src != nil {
			srcLen = len(src)
		}
		lines := newLineIndex(src)
		prevStart := -1
		for i, raw := range s.stream.Tokens {
			if err := checkSpan(i, raw, prevStart, srcLen); err != nil {
				yield(Token{}, err)
				return
			}
			prevStart = raw.Start

			lexeme := raw.Text
			if lexeme == "" && src != nil {
				lexeme = string(src[raw.Start:raw.Stop])
			}
			kind, keep := s.adapter.classify(raw.Type, lexeme)
			if !keep {
				continue
			}

			span := Span{Start: raw.Start, End: raw.Stop, Line: raw.Line, Column: raw.Column}
			if span.Line == 0 {
				span.Line, span.Column = lines.position(raw.Start)
			}
			if !yield(Token{Kind: kind, Lexeme: lexeme, Span: span}, nil) {
				return
			}
		}
	}
}

// Collect materializes the sequence.
func (s *Sequence) Collect() ([]Token, error) {
	var out []Token
	if s.stream != nil {
		out = make([]Token, 0, len(s.stream.Tokens))
	}
	for tok, err := range s.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

// Warnings returns the non-fatal upstream diagnostics.
func (s *Sequence) Warnings() []Diagnostic {
	if s.stream == nil {
		return nil
	}
	var out []Diagnostic
	for _, d := range s.stream.Diagnostics {
		if !d.Fatal {
			out = append(out, d)
		}
	}
	return out
}

// checkSpan validates one raw token against the span contract. srcLen is -1
// when the upstream did not hand over the source text.
func checkSpan(i int, raw RawToken, prevStart, srcLen int) error {
	switch {
	case raw.Start < 0:
		return &ExternalLexError{Index: i, Offset: raw.Start, Reason: "negative start offset"}
	case raw.Stop < raw.Start:
		return &ExternalLexError{Index: i, Offset: raw.Start, Reason: "token ends before it starts"}
	case raw.Start < prevStart:
		return &ExternalLexError{Index: i, Offset: raw.Start, Reason: "token starts before the previous token"}
	case srcLen >= 0 && raw.Stop > srcLen:
		return &ExternalLexError{Index: i, Offset: raw.Start, Reason: "token extends past end of source"}
	}
	return nil
}

// classify maps an upstream type name to a Kind. keep is false for tokens
// that carry no information for analysis (whitespace).
func (a *Adapter) classify(rawType, lexeme string) (kind Kind, keep bool) {
	t := strings.ToUpper(rawType)
	upper := strings.ToUpper(lexeme)

	switch {
	case t == RawWhitespace || t == "WHITESPACE" || t == "NEWLINE":
		return Unknown, false
	case t == RawComment || strings.HasPrefix(t, "COMMENT") || strings.HasSuffix(t, "_COMMENT"):
		return Comment, true
	case t == RawKeyword || strings.HasPrefix(t, "KW_"):
		return Keyword, true
	case t == RawSemicolon || t == "SEMICOLON" || t == RawLParen || t == RawRParen || t == RawComma ||
		t == "LPAR" || t == "RPAR" || t == "DELIMITER":
		return Delimiter, true
	case strings.Contains(t, "STRING") || strings.Contains(t, "LITERAL") ||
		t == "NUMBER" || t == "INTEGER" || t == "FLOAT":
		return Literal, true
	case t == RawMacroName || (strings.HasPrefix(upper, "%") && len(upper) > 1 && isNameType(t)):
		if _, ok := a.macro[upper]; ok {
			return Keyword, true
		}
		return MacroCall, true
	case isNameType(t):
		if _, ok := a.keywords[upper]; ok {
			return Keyword, true
		}
		return Identifier, true
	case t == RawOperator || strings.HasPrefix(t, "OP_"):
		if lexeme == ";" || lexeme == "(" || lexeme == ")" || lexeme == "," {
			return Delimiter, true
		}
		return Operator, true
	}
	return Unknown, true
}

func isNameType(t string) bool {
	switch t {
	case RawIdentifier, "IDENT", "NAME", RawMacroVar, "MACRO_VARIABLE", RawMacroName:
		return true
	}
	return false
}

// lineIndex converts byte offsets to 1-based line/column pairs.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range src {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) position(offset int) (line, column int) {
	i := sort.Search(len(l), func(i int) bool { return l[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - l[i] + 1
}
