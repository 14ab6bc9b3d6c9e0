package lexer

import (
	"context"
	"strings"

	"github.com/regger-zz/sas-translator/internal/token"
)

// multiOps are the operators longer than one byte, longest first.
var multiOps = []string{"**", "||", "!!", "<=", ">=", "^=", "~=", "=:", "<>", "><", "@@", "=*"}

// SAS is a reference tokenizer for SAS source. It knows enough of the
// language to keep comments, quoted strings and in-stream data out of the
// structural token stream; it does not evaluate macros.
type SAS struct{}

// NewSAS returns the reference SAS tokenizer.
func NewSAS() *SAS {
	return &SAS{}
}

// Tokenize implements token.Tokenizer.
func (SAS) Tokenize(ctx context.Context, src []byte) (*token.RawStream, error) {
	s := &scanner{src: src, line: 1, col: 1, stmtStart: true}
	for s.pos < len(s.src) {
		if len(s.out.Tokens)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if !s.next() {
			break
		}
	}
	s.out.Source = src
	return &s.out, nil
}

type scanner struct {
	src       []byte
	pos       int
	line, col int
	out       token.RawStream
	// stmtStart is true when the next significant token begins a statement.
	stmtStart bool
	// datalines is set after DATALINES/CARDS until the statement's semicolon.
	datalines string
}

func (s *scanner) emit(typ string, start, line, col int) {
	s.out.Tokens = append(s.out.Tokens, token.RawToken{
		Type:   typ,
		Text:   string(s.src[start:s.pos]),
		Start:  start,
		Stop:   s.pos,
		Line:   line,
		Column: col,
	})
	switch typ {
	case token.RawWhitespace, token.RawComment:
	case token.RawSemicolon:
		s.stmtStart = true
	default:
		s.stmtStart = false
	}
}

func (s *scanner) fatal(msg string, offset int) {
	s.out.Diagnostics = append(s.out.Diagnostics, token.Diagnostic{Message: msg, Offset: offset, Fatal: true})
}

func (s *scanner) advance(n int) {
	for i := 0; i < n && s.pos < len(s.src); i++ {
		if s.src[s.pos] == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
		s.pos++
	}
}

func (s *scanner) peek(off int) byte {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *scanner) hasPrefix(p string) bool {
	return strings.HasPrefix(string(s.src[s.pos:min(len(s.src), s.pos+len(p))]), p)
}

// next scans one token. It returns false when scanning must stop.
func (s *scanner) next() bool {
	start, line, col := s.pos, s.line, s.col
	c := s.src[s.pos]

	switch {
	case isSpace(c):
		for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
			s.advance(1)
		}
		s.emit(token.RawWhitespace, start, line, col)

	case c == '/' && s.peek(1) == '*':
		end := strings.Index(string(s.src[s.pos+2:]), "*/")
		if end < 0 {
			s.fatal("unterminated block comment", start)
			return false
		}
		s.advance(end + 4)
		s.emit(token.RawComment, start, line, col)

	case s.stmtStart && (c == '*' || (c == '%' && s.peek(1) == '*')):
		end := strings.IndexByte(string(s.src[s.pos:]), ';')
		if end < 0 {
			s.fatal("unterminated comment statement", start)
			return false
		}
		s.advance(end + 1)
		s.emit(token.RawComment, start, line, col)
		s.stmtStart = true

	case c == '\'' || c == '"':
		if !s.quoted(c) {
			s.fatal("unterminated string literal", start)
			return false
		}
		s.emit(token.RawString, start, line, col)

	case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
		s.number()
		s.emit(token.RawNumber, start, line, col)

	case c == '%' && isNameStart(s.peek(1)):
		s.advance(1)
		s.name()
		s.emit(token.RawMacroName, start, line, col)

	case c == '&' && (isNameStart(s.peek(1)) || s.peek(1) == '&'):
		for s.peek(0) == '&' {
			s.advance(1)
		}
		s.name()
		if s.peek(0) == '.' {
			s.advance(1)
		}
		s.emit(token.RawMacroVar, start, line, col)

	case isNameStart(c):
		atStmt := s.stmtStart
		s.name()
		s.emit(token.RawIdentifier, start, line, col)
		word := strings.ToUpper(string(s.src[start:s.pos]))
		if atStmt && (word == "DATALINES" || word == "CARDS" || word == "LINES" ||
			word == "DATALINES4" || word == "CARDS4" || word == "LINES4") {
			s.datalines = word
		}

	case c == ';':
		s.advance(1)
		s.emit(token.RawSemicolon, start, line, col)
		if s.datalines != "" {
			s.inStreamData()
		}

	case c == '(':
		s.advance(1)
		s.emit(token.RawLParen, start, line, col)
	case c == ')':
		s.advance(1)
		s.emit(token.RawRParen, start, line, col)
	case c == ',':
		s.advance(1)
		s.emit(token.RawComma, start, line, col)

	case strings.IndexByte("=+-*/<>^~!|&@.:$#?[]{}%", c) >= 0:
		n := 1
		for _, op := range multiOps {
			if s.hasPrefix(op) {
				n = len(op)
				break
			}
		}
		s.advance(n)
		s.emit(token.RawOperator, start, line, col)

	default:
		s.advance(1)
		s.emit(token.RawError, start, line, col)
		s.out.Diagnostics = append(s.out.Diagnostics, token.Diagnostic{
			Message: "unexpected character",
			Offset:  start,
		})
	}
	return true
}

// quoted consumes a quoted string including doubled-quote escapes and a
// literal suffix ('01jan2020'd, 'my var'n, '0A'x).
func (s *scanner) quoted(q byte) bool {
	s.advance(1)
	for s.pos < len(s.src) {
		if s.src[s.pos] == q {
			if s.peek(1) == q {
				s.advance(2)
				continue
			}
			s.advance(1)
			for _, suffix := range []string{"dt", "DT", "Dt", "dT", "d", "D", "t", "T", "n", "N", "x", "X", "b", "B"} {
				if s.hasPrefix(suffix) && !isNameChar(s.peek(len(suffix))) {
					s.advance(len(suffix))
					break
				}
			}
			return true
		}
		s.advance(1)
	}
	return false
}

func (s *scanner) number() {
	for isDigit(s.peek(0)) {
		s.advance(1)
	}
	if s.peek(0) == '.' && !isNameStart(s.peek(1)) {
		s.advance(1)
		for isDigit(s.peek(0)) {
			s.advance(1)
		}
	}
	if (s.peek(0) == 'e' || s.peek(0) == 'E') && (isDigit(s.peek(1)) || (s.peek(1) == '-' || s.peek(1) == '+') && isDigit(s.peek(2))) {
		s.advance(2)
		for isDigit(s.peek(0)) {
			s.advance(1)
		}
	}
}

func (s *scanner) name() {
	for s.pos < len(s.src) && isNameChar(s.src[s.pos]) {
		s.advance(1)
	}
}

// inStreamData consumes card images following DATALINES; up to the
// terminating line, which is a lone ';' (or ';;;;' for the 4-variants).
func (s *scanner) inStreamData() {
	term := ";"
	if strings.HasSuffix(s.datalines, "4") {
		term = ";;;;"
	}
	s.datalines = ""

	// Data starts on the line after the statement.
	if nl := strings.IndexByte(string(s.src[s.pos:]), '\n'); nl >= 0 {
		wsStart, wsLine, wsCol := s.pos, s.line, s.col
		s.advance(nl + 1)
		s.emit(token.RawWhitespace, wsStart, wsLine, wsCol)
	} else {
		return
	}

	start, line, col := s.pos, s.line, s.col
	for s.pos < len(s.src) {
		eol := strings.IndexByte(string(s.src[s.pos:]), '\n')
		lineEnd := len(s.src)
		if eol >= 0 {
			lineEnd = s.pos + eol
		}
		if strings.TrimSpace(string(s.src[s.pos:lineEnd])) == term {
			break
		}
		s.advance(lineEnd - s.pos + 1)
	}
	if s.pos > start {
		s.emit("DATALINES_LITERAL", start, line, col)
	}
	// The terminator line itself is scanned normally.
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool { return isNameStart(c) || isDigit(c) }
