package construct

import (
	"fmt"
	"strings"
)

// RecoveryAction names what the builder did to keep going.
type RecoveryAction string

const (
	// ActionDiscarded: a closer matched no open construct and was dropped.
	ActionDiscarded RecoveryAction = "discarded_closer"
	// ActionClosedEnclosing: a closer matched a construct below the top of
	// the stack; everything above it was closed with it.
	ActionClosedEnclosing RecoveryAction = "closed_enclosing"
	// ActionClosedAtStepBoundary: a new step began while a nested block in
	// the previous step was still open.
	ActionClosedAtStepBoundary RecoveryAction = "closed_at_step_boundary"
	// ActionClosedAtEOF: the input ended with the construct still open.
	ActionClosedAtEOF RecoveryAction = "closed_at_eof"
)

// RecoveryPoint records one structural recovery.
type RecoveryPoint struct {
	Action  RecoveryAction `json:"action" yaml:"action"`
	Lexeme  string         `json:"lexeme,omitempty" yaml:"lexeme,omitempty"`
	Offset  int            `json:"offset" yaml:"offset"`
	Line    int            `json:"line" yaml:"line"`
	Column  int            `json:"column" yaml:"column"`
	Closed  []string       `json:"closed,omitempty" yaml:"closed,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

func (p RecoveryPoint) String() string {
	return fmt.Sprintf("%d:%d: %s", p.Line, p.Column, p.Message)
}

// StructuralError reports that the builder had to recover from unbalanced
// block structure. The tree returned alongside it is complete and usable.
type StructuralError struct {
	Points []RecoveryPoint
}

func (e *StructuralError) Error() string {
	if len(e.Points) == 1 {
		return "structural recovery: " + e.Points[0].String()
	}
	msgs := make([]string, len(e.Points))
	for i, p := range e.Points {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("structural recovery at %d points:\n- %s", len(e.Points), strings.Join(msgs, "\n- "))
}
