package construct

import (
	"strings"

	"github.com/regger-zz/sas-translator/internal/token"
)

// globalStatements are valid anywhere and take effect outside any step.
var globalStatements = map[string]bool{
	"OPTIONS": true, "LIBNAME": true, "FILENAME": true, "X": true, "TITLE": true,
	"FOOTNOTE": true, "ODS": true, "%INCLUDE": true, "%SYSEXEC": true,
}

// procStatements are the statements recognized inside PROC steps, across
// the procedures commonly found in migration candidates.
var procStatements = map[string]bool{
	// shared
	"VAR": true, "CLASS": true, "ID": true, "WHERE": true, "FORMAT": true, "INFORMAT": true,
	"LABEL": true, "ATTRIB": true, "WEIGHT": true, "FREQ": true, "KEEP": true, "DROP": true,
	"RENAME": true, "OUTPUT": true, "SELECT": true, "EXCLUDE": true, "WITH": true,
	// PRINT, REPORT, TABULATE
	"SUM": true, "SUMBY": true, "PAGEBY": true, "COLUMN": true, "COLUMNS": true, "DEFINE": true,
	"COMPUTE": true, "ENDCOMP": true, "BREAK": true, "RBREAK": true, "LINE": true,
	"TABLE": true, "TABLES": true, "KEYLABEL": true, "CLASSLEV": true,
	// MEANS, SUMMARY, FREQ, UNIVARIATE, CORR, RANK, TRANSPOSE
	"TYPES": true, "WAYS": true, "EXACT": true, "TEST": true, "RANKS": true, "PARTIAL": true,
	"COPY": true, "IDLABEL": true, "HISTOGRAM": true, "INSET": true, "PROBPLOT": true, "QQPLOT": true,
	// statistical models
	"MODEL": true, "STRATA": true, "UNITS": true, "SCORE": true, "CONTRAST": true,
	"ESTIMATE": true, "LSMEANS": true, "MEANS": true, "RANDOM": true, "REPEATED": true,
	"PAIRED": true, "EFFECT": true, "PLOT": true,
	// FORMAT
	"VALUE": true, "INVALUE": true, "PICTURE": true,
	// DATASETS, APPEND, COPY
	"MODIFY": true, "DELETE": true, "CHANGE": true, "APPEND": true, "SAVE": true, "AGE": true,
	"REPAIR": true, "EXCHANGE": true, "INDEX": true, "CONTENTS": true,
	// IMPORT, EXPORT
	"DATAROW": true, "GETNAMES": true, "PUTNAMES": true, "GUESSINGROWS": true, "DELIMITER": true,
	"SHEET": true, "RANGE": true, "MIXED": true,
	// SGPLOT
	"SCATTER": true, "SERIES": true, "VBAR": true, "HBAR": true, "VBOX": true, "HBOX": true,
	"REG": true, "LOESS": true, "DENSITY": true, "XAXIS": true, "YAXIS": true, "KEYLEGEND": true,
	"PANELBY": true,
	// FCMP
	"FUNCTION": true, "SUBROUTINE": true, "ENDSUB": true, "RETURN": true, "OUTARGS": true,
	"LENGTH": true, "ARRAY": true, "PUT": true,
}

// functionKeywords are keywords that double as function names.
var functionKeywords = map[string]bool{"INPUT": true, "PUT": true, "LENGTH": true}

// leaf classifies a statement that neither opens nor closes a block.
func (b *builder) leaf(stmt []token.Token) *Node {
	sig := significant(stmt)
	first := sig[0]
	step := b.stepKind()

	var n *Node
	switch {
	case first.Kind == token.Unknown:
		n = newNode(Unknown)
	case step == ProcSQL && !strings.HasPrefix(first.Lexeme, "%") && !globalStatements[first.Upper()]:
		n = sqlStatement(sig)
	case isAssignment(sig):
		n = newNode(Assignment)
		n.Attrs[AttrTarget] = strings.ToUpper(joinTokens(sig[:assignmentOp(sig)]))
	case first.Kind == token.Identifier && len(sig) > 1 && sig[1].Is(token.Operator, "+"):
		n = newNode(Assignment)
		n.Attrs[AttrTarget] = first.Upper()
		n.Attrs[AttrSum] = true
	case first.Kind == token.Keyword:
		n = b.keywordStatement(sig, step)
	case first.Kind == token.Identifier && step == ProcStep:
		// Procedure statements (VAR, TABLES, CLASS, ...) are open-ended.
		n = procStatement(sig)
	default:
		n = newNode(Unknown)
	}

	n.own(stmt...)
	b.commonAttrs(n, sig)
	return n
}

func (b *builder) keywordStatement(sig []token.Token, step Kind) *Node {
	kw := sig[0].Upper()
	if globalStatements[kw] {
		return globalStatement(sig)
	}
	if kw == "BY" {
		n := newNode(By)
		var vars []string
		for _, w := range words(sig[1:]) {
			if w != "DESCENDING" && w != "NOTSORTED" && w != "GROUPFORMAT" {
				vars = append(vars, w)
			}
		}
		n.Attrs[AttrBy] = nonNil(vars)
		return n
	}
	if step == ProcStep && !strings.HasPrefix(kw, "%") {
		return procStatement(sig)
	}

	switch kw {
	case "SET", "UPDATE", "MODIFY":
		n := newNode(Set)
		n.Attrs[AttrKeyword] = kw
		n.Attrs[AttrInputs] = datasetList(sig[1:])
		return n
	case "MERGE":
		n := newNode(Merge)
		n.Attrs[AttrInputs] = datasetList(sig[1:])
		return n
	case "RETAIN":
		n := newNode(Retain)
		n.Attrs[AttrName] = nonNil(words(sig[1:]))
		return n
	case "ARRAY":
		n := newNode(Array)
		if len(sig) > 1 {
			name := sig[1].Upper()
			n.Attrs[AttrName] = name
			b.arrays[name] = true
		}
		return n
	case "DECLARE", "DCL":
		if len(sig) > 2 && (sig[1].Upper() == "HASH" || sig[1].Upper() == "HITER") {
			n := newNode(Hash)
			n.Attrs[AttrKeyword] = sig[1].Upper()
			n.Attrs[AttrName] = sig[2].Upper()
			return n
		}
	case "INPUT":
		return inputStatement(sig)
	case "OUTPUT":
		n := newNode(Output)
		n.Attrs[AttrOutputs] = datasetList(sig[1:])
		return n
	case "%LET":
		n := newNode(MacroLet)
		if len(sig) > 1 {
			n.Attrs[AttrName] = sig[1].Upper()
		}
		return n
	case "CALL":
		n := newNode(Statement)
		n.Attrs[AttrKeyword] = kw
		if len(sig) > 1 {
			n.Attrs[AttrRoutine] = sig[1].Upper()
		}
		return n
	}

	n := newNode(Statement)
	n.Attrs[AttrKeyword] = kw
	return n
}

func globalStatement(sig []token.Token) *Node {
	n := newNode(Global)
	kw := sig[0].Upper()
	n.Attrs[AttrKeyword] = kw
	switch kw {
	case "LIBNAME", "FILENAME":
		if len(sig) > 1 {
			n.Attrs[AttrName] = sig[1].Upper()
		}
		if len(sig) > 2 {
			n.Attrs[AttrOptions] = nonNil(words(sig[2:]))
		}
		if ext := literals(sig); len(ext) > 0 {
			n.Attrs[AttrExternal] = ext
		}
	case "X", "%SYSEXEC":
		n.Attrs[AttrCondition] = joinTokens(sig[1:])
	}
	return n
}

// procStatement covers statements inside a PROC step, where OUT= and DATA=
// options declare data flow. A statement no procedure defines is Unknown.
func procStatement(sig []token.Token) *Node {
	kw := sig[0].Upper()
	n := newNode(Statement)
	if !procStatements[kw] {
		n.Kind = Unknown
	}
	n.Attrs[AttrKeyword] = kw
	opts := options(sig[1:])
	if out := optionValues(opts, "OUT"); len(out) > 0 {
		n.Attrs[AttrOutputs] = out
	}
	if in := optionValues(opts, "DATA"); len(in) > 0 {
		n.Attrs[AttrInputs] = in
	}
	return n
}

func inputStatement(sig []token.Token) *Node {
	n := newNode(Input)
	body := sig[1:]
	if len(body) > 0 && body[len(body)-1].IsDelimiter(";") {
		body = body[:len(body)-1]
	}
	pointers := 0
	for i, tok := range body {
		if tok.Kind != token.Operator || (tok.Lexeme != "@" && tok.Lexeme != "@@") {
			continue
		}
		if i == len(body)-1 {
			if tok.Lexeme == "@@" {
				n.Attrs[AttrLineHold] = "double"
			} else {
				n.Attrs[AttrLineHold] = "single"
			}
			continue
		}
		pointers++
	}
	n.Attrs[AttrPointerControls] = pointers
	return n
}

func dataStep(stmt []token.Token) *Node {
	n := newNode(DataStep)
	n.own(stmt...)
	sig := significant(stmt)
	var outs []string
	for _, ds := range datasetList(sig[1:]) {
		if ds != "_NULL_" {
			outs = append(outs, ds)
		}
	}
	n.Attrs[AttrOutputs] = nonNil(outs)
	if len(outs) > 0 {
		n.Attrs[AttrName] = outs[0]
	}
	return n
}

func procStep(stmt []token.Token) *Node {
	sig := significant(stmt)
	name := ""
	if len(sig) > 1 {
		name = sig[1].Upper()
	}
	kind := ProcStep
	if name == "SQL" {
		kind = ProcSQL
	}
	n := newNode(kind)
	n.own(stmt...)
	n.Attrs[AttrProc] = name
	n.Attrs[AttrName] = name
	if len(sig) < 3 {
		n.Attrs[AttrOptions] = []string{}
		return n
	}

	opts := options(sig[2:])
	n.Attrs[AttrOptions] = opts
	if in := optionValues(opts, "DATA"); len(in) > 0 {
		n.Attrs[AttrInputs] = in
	}
	if out := optionValues(opts, "OUT"); len(out) > 0 {
		n.Attrs[AttrOutputs] = out
	}
	var external []string
	for _, key := range []string{"DATAFILE", "INFILE", "FILE", "OUTFILE"} {
		external = append(external, optionValues(opts, key)...)
	}
	if len(external) > 0 {
		n.Attrs[AttrExternal] = external
	}
	return n
}

func macroDef(stmt []token.Token) *Node {
	n := newNode(MacroDef)
	n.own(stmt...)
	sig := significant(stmt)
	if len(sig) > 1 {
		n.Attrs[AttrName] = sig[1].Upper()
	}
	params := []string{}
	if len(sig) > 2 && sig[2].IsDelimiter("(") {
		for _, arg := range splitArgs(group(sig, 2)) {
			name, _, _ := strings.Cut(arg, "=")
			params = append(params, strings.ToUpper(strings.TrimSpace(name)))
		}
	}
	n.Attrs[AttrParams] = params
	n.Attrs[AttrRecursive] = false
	return n
}

func doBlock(stmt []token.Token) *Node {
	sig := significant(stmt)
	kind := DoBlock
	if sig[0].Upper() == "%DO" {
		kind = MacroDo
	}
	n := newNode(kind)
	n.own(stmt...)
	loop := sig[1:]
	if len(loop) > 0 && loop[len(loop)-1].IsDelimiter(";") {
		loop = loop[:len(loop)-1]
	}
	n.Attrs[AttrIterative] = len(loop) > 0
	if len(loop) > 0 {
		n.Attrs[AttrLoop] = joinTokens(loop)
	}
	return n
}

// conditionalHead splits a conditional statement into its wrapper construct
// and the action that follows THEN (or the WHEN value list). ok is false
// when stmt does not begin with a conditional keyword.
func conditionalHead(stmt []token.Token) (w *Node, action []token.Token, ok bool) {
	sig := significant(stmt)
	if len(sig) == 0 || sig[0].Kind != token.Keyword {
		return nil, nil, false
	}
	first := indexOf(stmt, sig[0])

	switch kw := sig[0].Upper(); kw {
	case "IF", "%IF", "ELSE", "%ELSE":
		macro := strings.HasPrefix(kw, "%")
		w = newNode(If)
		then := "THEN"
		if macro {
			w.Kind = MacroIf
			then = "%THEN"
		}
		condStart := first + 1
		if kw == "ELSE" || kw == "%ELSE" {
			w.Attrs[AttrElse] = true
			next := nextSignificant(stmt, first+1)
			if next < 0 || stmt[next].Kind != token.Keyword || strings.TrimPrefix(stmt[next].Upper(), "%") != "IF" {
				w.own(stmt[:first+1]...)
				return w, stmt[first+1:], true
			}
			condStart = next + 1
		}
		thenAt := findKeyword(stmt, condStart, then)
		if thenAt < 0 {
			w.Attrs[AttrCondition] = joinTokens(trimSemi(stmt[condStart:]))
			if !macro {
				w.Attrs[AttrSubsetting] = true
			}
			w.own(stmt...)
			return w, nil, true
		}
		w.Attrs[AttrCondition] = joinTokens(stmt[condStart:thenAt])
		w.own(stmt[:thenAt+1]...)
		return w, stmt[thenAt+1:], true

	case "WHEN":
		w = newNode(When)
		end := first + 1
		if next := nextSignificant(stmt, first+1); next >= 0 && stmt[next].IsDelimiter("(") {
			if closeAt := matchParen(stmt, next); closeAt >= 0 {
				w.Attrs[AttrCondition] = joinTokens(stmt[next+1 : closeAt])
				end = closeAt + 1
			}
		}
		w.own(stmt[:end]...)
		return w, stmt[end:], true

	case "OTHERWISE":
		w = newNode(When)
		w.Attrs[AttrOtherwise] = true
		w.own(stmt[:first+1]...)
		return w, stmt[first+1:], true
	}
	return nil, nil, false
}

// commonAttrs records function calls and inline macro invocations.
func (b *builder) commonAttrs(n *Node, sig []token.Token) {
	switch n.Kind {
	case Set, Merge, Array, Hash, Retain, By, Input, Unknown:
		return
	}
	var funcs, inline []string
	seenFunc := map[string]bool{}
	seenMacro := map[string]bool{}
	for i, tok := range sig {
		switch {
		case tok.Kind == token.MacroCall:
			name := strings.ToUpper(strings.TrimPrefix(tok.Lexeme, "%"))
			if !seenMacro[name] {
				seenMacro[name] = true
				inline = append(inline, name)
			}
		case i > 0 && i+1 < len(sig) && sig[i+1].IsDelimiter("("):
			name := tok.Upper()
			isFunc := tok.Kind == token.Identifier || (tok.Kind == token.Keyword && functionKeywords[name])
			if isFunc && !b.arrays[name] && !seenFunc[name] {
				seenFunc[name] = true
				funcs = append(funcs, name)
			}
		}
	}
	if len(funcs) > 0 {
		n.Attrs[AttrFunctions] = funcs
	}
	if len(inline) > 0 {
		n.Attrs[AttrInlineMacros] = inline
		b.markRecursion(n, inline...)
	}
}

// isAssignment reports whether the statement has the form `target = expr`,
// where target is a name optionally followed by a subscript.
func isAssignment(sig []token.Token) bool {
	return assignmentOp(sig) > 0
}

func assignmentOp(sig []token.Token) int {
	if len(sig) < 2 || (sig[0].Kind != token.Identifier && sig[0].Kind != token.Keyword) {
		return -1
	}
	i := 1
	if sig[i].IsDelimiter("(") || sig[i].Is(token.Operator, "{") || sig[i].Is(token.Operator, "[") {
		end := matchBracket(sig, i)
		if end < 0 {
			return -1
		}
		i = end + 1
	}
	if i < len(sig) && sig[i].Is(token.Operator, "=") {
		return i
	}
	return -1
}

// datasetList reads dataset names, skipping parenthesized dataset options
// and `key=value` statement options. WORK is the default library.
func datasetList(toks []token.Token) []string {
	var out []string
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case tok.IsDelimiter("("):
			if end := matchParen(toks, i); end >= 0 {
				i = end
			}
		case tok.IsDelimiter(";") || tok.Is(token.Operator, "/"):
			return nonNil(out)
		case isWord(tok):
			if i+1 < len(toks) && toks[i+1].Is(token.Operator, "=") {
				i += 2
				continue
			}
			name := tok.Upper()
			for i+2 < len(toks) && toks[i+1].Is(token.Operator, ".") && isWord(toks[i+2]) {
				name += "." + toks[i+2].Upper()
				i += 2
			}
			out = append(out, normalizeDataset(name))
		case tok.Kind == token.Literal && isQuoted(tok.Lexeme):
			out = append(out, tok.Lexeme)
		}
	}
	return nonNil(out)
}

func normalizeDataset(name string) string {
	return strings.TrimPrefix(name, "WORK.")
}

// options parses `KEY=value` and bare flag options into "KEY=VALUE" and
// "FLAG" strings. Parenthesized value options are skipped.
func options(toks []token.Token) []string {
	out := []string{}
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case tok.IsDelimiter("("):
			if end := matchParen(toks, i); end >= 0 {
				i = end
			}
		case tok.IsDelimiter(";"):
			return out
		case isWord(tok):
			key := tok.Upper()
			if i+2 < len(toks) && toks[i+1].Is(token.Operator, "=") {
				j := i + 2
				value := toks[j].Lexeme
				if isWord(toks[j]) {
					value = toks[j].Upper()
					for j+2 < len(toks) && toks[j+1].Is(token.Operator, ".") && isWord(toks[j+2]) {
						value += "." + toks[j+2].Upper()
						j += 2
					}
				}
				out = append(out, key+"="+value)
				i = j
				continue
			}
			out = append(out, key)
		}
	}
	return out
}

func optionValues(opts []string, key string) []string {
	var out []string
	for _, opt := range opts {
		k, v, ok := strings.Cut(opt, "=")
		if !ok || k != key {
			continue
		}
		if isQuoted(v) {
			out = append(out, v)
			continue
		}
		out = append(out, normalizeDataset(v))
	}
	return out
}

// words returns the upper-cased identifier and keyword lexemes.
func words(toks []token.Token) []string {
	var out []string
	for _, tok := range toks {
		if isWord(tok) {
			out = append(out, tok.Upper())
		}
	}
	return out
}

func literals(toks []token.Token) []string {
	var out []string
	for _, tok := range toks {
		if tok.Kind == token.Literal && isQuoted(tok.Lexeme) {
			out = append(out, tok.Lexeme)
		}
	}
	return out
}

func isWord(tok token.Token) bool {
	return tok.Kind == token.Identifier || tok.Kind == token.Keyword
}

func isQuoted(s string) bool {
	return strings.HasPrefix(s, "'") || strings.HasPrefix(s, `"`)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
