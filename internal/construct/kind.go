package construct

import "fmt"

// Kind is the closed set of construct variants. Adding a kind means adding
// it here, to kindNames, and to every exhaustive switch over Kind.
type Kind int

const (
	Unknown Kind = iota
	Program
	DataStep
	ProcStep
	ProcSQL
	MacroDef
	MacroCall
	DoBlock
	MacroDo
	SelectBlock
	If
	MacroIf
	When
	Set
	Merge
	By
	Retain
	Array
	Hash
	Input
	Output
	Assignment
	SQLStatement
	MacroLet
	Global
	Statement
)

var kindNames = [...]string{
	Unknown:      "unknown",
	Program:      "program",
	DataStep:     "data_step",
	ProcStep:     "proc_step",
	ProcSQL:      "proc_sql",
	MacroDef:     "macro_def",
	MacroCall:    "macro_call",
	DoBlock:      "do_block",
	MacroDo:      "macro_do",
	SelectBlock:  "select_block",
	If:           "if",
	MacroIf:      "macro_if",
	When:         "when",
	Set:          "set",
	Merge:        "merge",
	By:           "by",
	Retain:       "retain",
	Array:        "array",
	Hash:         "hash",
	Input:        "input",
	Output:       "output",
	Assignment:   "assignment",
	SQLStatement: "sql_statement",
	MacroLet:     "macro_let",
	Global:       "global",
	Statement:    "statement",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a kind by its serialized name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return Unknown, fmt.Errorf("unknown construct kind %q", name)
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// closer is the terminator keyword a block kind waits for.
type closer int

const (
	closeNone closer = iota
	closeRun         // RUN or, for procs, QUIT
	closeQuit
	closeEnd
	closeMacroEnd
	closeMend
)

// terminators reports which closers end a block of kind k.
func terminators(k Kind) []closer {
	switch k {
	case DataStep:
		return []closer{closeRun}
	case ProcStep:
		return []closer{closeRun, closeQuit}
	case ProcSQL:
		return []closer{closeQuit}
	case MacroDef:
		return []closer{closeMend}
	case DoBlock, SelectBlock:
		return []closer{closeEnd}
	case MacroDo:
		return []closer{closeMacroEnd}
	case Unknown, Program, MacroCall, If, MacroIf, When, Set, Merge, By, Retain, Array, Hash,
		Input, Output, Assignment, SQLStatement, MacroLet, Global, Statement:
		return nil
	}
	return nil
}

// IsStep reports whether k is a top-level step that a new DATA or PROC
// statement ends implicitly.
func (k Kind) IsStep() bool {
	return k == DataStep || k == ProcStep || k == ProcSQL
}
