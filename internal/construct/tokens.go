package construct

import (
	"strings"

	"github.com/regger-zz/sas-translator/internal/token"
)

// significant drops comment tokens.
func significant(toks []token.Token) []token.Token {
	out := make([]token.Token, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind != token.Comment {
			out = append(out, tok)
		}
	}
	return out
}

// nextSignificant returns the index of the first non-comment token at or
// after from, or -1.
func nextSignificant(toks []token.Token, from int) int {
	for i := from; i < len(toks); i++ {
		if toks[i].Kind != token.Comment {
			return i
		}
	}
	return -1
}

func indexOf(toks []token.Token, tok token.Token) int {
	for i := range toks {
		if toks[i] == tok {
			return i
		}
	}
	return -1
}

// findKeyword returns the index of keyword kw at paren depth 0, or -1.
func findKeyword(toks []token.Token, from int, kw string) int {
	depth := 0
	for i := from; i < len(toks); i++ {
		switch {
		case toks[i].IsDelimiter("("):
			depth++
		case toks[i].IsDelimiter(")"):
			depth--
		case depth == 0 && toks[i].Is(token.Keyword, kw):
			return i
		}
	}
	return -1
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1 when it is never closed.
func matchParen(toks []token.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch {
		case toks[i].IsDelimiter("("):
			depth++
		case toks[i].IsDelimiter(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchBracket is matchParen for (), {} and [] subscripts.
func matchBracket(toks []token.Token, open int) int {
	if toks[open].IsDelimiter("(") {
		return matchParen(toks, open)
	}
	closing := "}"
	if toks[open].Lexeme == "[" {
		closing = "]"
	}
	for i := open + 1; i < len(toks); i++ {
		if toks[i].Is(token.Operator, closing) {
			return i
		}
	}
	return -1
}

// group returns the tokens strictly inside the parenthesis at open.
func group(toks []token.Token, open int) []token.Token {
	end := matchParen(toks, open)
	if end < 0 {
		return toks[open+1:]
	}
	return toks[open+1 : end]
}

func trimSemi(toks []token.Token) []token.Token {
	for len(toks) > 0 && (toks[len(toks)-1].IsDelimiter(";") || toks[len(toks)-1].Kind == token.Comment) {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// splitArgs splits an argument list on top-level commas.
func splitArgs(toks []token.Token) []string {
	args := []string{}
	depth, start := 0, 0
	for i, tok := range toks {
		switch {
		case tok.IsDelimiter("("):
			depth++
		case tok.IsDelimiter(")"):
			depth--
		case depth == 0 && tok.IsDelimiter(","):
			args = append(args, joinTokens(toks[start:i]))
			start = i + 1
		}
	}
	if start < len(toks) || len(args) > 0 {
		args = append(args, joinTokens(toks[start:]))
	}
	return args
}

// joinTokens renders tokens as compact source text, comments dropped.
func joinTokens(toks []token.Token) string {
	var sb strings.Builder
	prev := token.Token{}
	for i, tok := range toks {
		if tok.Kind == token.Comment {
			continue
		}
		if i > 0 && sb.Len() > 0 && needsSpace(prev, tok) {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Lexeme)
		prev = tok
	}
	return sb.String()
}

func needsSpace(prev, next token.Token) bool {
	switch {
	case next.IsDelimiter(";"), next.IsDelimiter(","), next.IsDelimiter(")"), prev.IsDelimiter("("):
		return false
	case next.Is(token.Operator, "."), prev.Is(token.Operator, "."):
		return false
	case next.IsDelimiter("(") && (prev.Kind == token.Identifier || prev.Kind == token.Keyword || prev.Kind == token.MacroCall):
		return false
	}
	return true
}
