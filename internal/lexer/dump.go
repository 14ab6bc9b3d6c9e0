package lexer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/regger-zz/sas-translator/internal/token"
)

// Dump reads a JSON token dump produced by an external tokenizer:
//
//	{"tokens": [{"token_type": "KW_DATA", "text": "data", "start": 0, "stop": 4}, ...],
//	 "errors": [{"message": "..."} | "..."]}
//
// Entries whose start/stop are not integers (the upstream writes "N/A" for
// tokens it could not serialize) become ERROR tokens without a span and are
// reported as warnings.
type Dump struct {
	// Source is the program text the dump was produced from. Optional; when
	// present lexemes may be sliced from it and spans are bounds-checked.
	Source []byte
}

type dumpFile struct {
	Tokens []dumpToken       `json:"tokens"`
	Errors []json.RawMessage `json:"errors"`
	Code   string            `json:"code,omitempty"`
}

type dumpToken struct {
	TokenType json.RawMessage `json:"token_type"`
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Message   string          `json:"message"`
	Start     json.RawMessage `json:"start"`
	Stop      json.RawMessage `json:"stop"`
	Line      int             `json:"line"`
	Column    int             `json:"column"`
}

type dumpError struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
	Offset  int    `json:"offset"`
}

// Tokenize implements token.Tokenizer. src is the JSON document.
func (d Dump) Tokenize(ctx context.Context, src []byte) (*token.RawStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var f dumpFile
	if err := json.Unmarshal(src, &f); err != nil {
		return nil, fmt.Errorf("failed to decode token dump: %w", err)
	}

	out := &token.RawStream{Source: d.Source}
	if out.Source == nil && f.Code != "" {
		out.Source = []byte(f.Code)
	}

	prevStop := 0
	for i, dt := range f.Tokens {
		if dt.Type == "error" && dt.Message != "" {
			out.Diagnostics = append(out.Diagnostics, diagnosticFor(dt.Message, false, prevStop))
			continue
		}
		start, okStart := intField(dt.Start)
		stop, okStop := intField(dt.Stop)
		raw := token.RawToken{
			Type:   typeName(dt.TokenType),
			Text:   dt.Text,
			Start:  start,
			Stop:   stop,
			Line:   dt.Line,
			Column: dt.Column,
		}
		if !okStart || !okStop {
			raw.Type = token.RawError
			raw.Start, raw.Stop = prevStop, prevStop
			if raw.Text == "N/A" {
				raw.Text = "?"
			}
			out.Diagnostics = append(out.Diagnostics, token.Diagnostic{
				Message: fmt.Sprintf("token %d has no usable span", i),
				Offset:  prevStop,
			})
		}
		prevStop = raw.Stop
		out.Tokens = append(out.Tokens, raw)
	}

	for _, rawErr := range f.Errors {
		var msg string
		if err := json.Unmarshal(rawErr, &msg); err == nil {
			out.Diagnostics = append(out.Diagnostics, diagnosticFor(msg, false, 0))
			continue
		}
		var de dumpError
		if err := json.Unmarshal(rawErr, &de); err != nil {
			return nil, fmt.Errorf("failed to decode token dump error entry: %w", err)
		}
		out.Diagnostics = append(out.Diagnostics, diagnosticFor(de.Message, de.Fatal, de.Offset))
	}
	return out, nil
}

// diagnosticFor marks unterminated strings and comments as fatal even when
// the upstream did not, since no later stage can recover from them.
func diagnosticFor(msg string, fatal bool, offset int) token.Diagnostic {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "unterminated") || strings.Contains(lower, "unclosed") {
		fatal = true
	}
	return token.Diagnostic{Message: msg, Offset: offset, Fatal: fatal}
}

func intField(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// typeName accepts either a bare string or an enum object ({"name": "WS"}).
func typeName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if i := strings.LastIndexByte(s, '.'); i >= 0 {
			// "TokenType.KW_DATA"
			s = s[i+1:]
		}
		return s
	}
	var named struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &named); err == nil {
		return named.Name
	}
	return ""
}
