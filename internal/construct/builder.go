package construct

import (
	"context"
	"strings"

	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/nodeid"
	"github.com/regger-zz/sas-translator/internal/token"
)

// RootName is the first segment of every construct ID.
const RootName = "program"

// Build groups a token sequence into a construct tree in a single
// left-to-right scan over an explicit stack of open constructs.
//
// Structural decisions are made from token kinds only: a keyword token
// opens or closes blocks, lexemes merely select which keyword it is. Tokens
// the adapter tagged as comments or literals can therefore never end a
// block, whatever their text.
//
// The returned tree is always usable. When the block structure was
// unbalanced the error is a *StructuralError listing every recovery point;
// the only other errors are context errors, returned with a nil tree.
func Build(ctx context.Context, toks []token.Token) (*Tree, error) {
	b := &builder{toks: toks, root: newNode(Program), arrays: map[string]bool{}}
	b.stack = []*Node{b.root}

	for statements := 0; b.pos < len(b.toks); statements++ {
		if statements%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		b.step()
	}
	b.closeAtEOF()

	tree := &Tree{Root: b.root}
	assignIDs(tree.Root)
	computeSpans(tree)
	tree.Recovery = b.finishRecovery()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Construct tree built.", "constructs", tree.Len(), "recovery_points", len(tree.Recovery))

	if len(tree.Recovery) > 0 {
		return tree, &StructuralError{Points: tree.Recovery}
	}
	return tree, nil
}

type builder struct {
	toks  []token.Token
	pos   int
	root  *Node
	stack []*Node

	recovery []RecoveryPoint
	closed   [][]*Node // nodes closed by recovery[i], resolved to IDs at the end

	// arrays holds the array names declared in the current step, so that
	// element references are not mistaken for function calls.
	arrays map[string]bool
}

func (b *builder) top() *Node {
	return b.stack[len(b.stack)-1]
}

func (b *builder) push(n *Node) {
	b.top().add(n)
	b.stack = append(b.stack, n)
}

// nearestStep returns the stack index of the innermost open step that is
// not separated from the top by a macro definition, or -1.
func (b *builder) nearestStep() int {
	for i := len(b.stack) - 1; i > 0; i-- {
		switch {
		case b.stack[i].Kind.IsStep():
			return i
		case b.stack[i].Kind == MacroDef:
			return -1
		}
	}
	return -1
}

func (b *builder) stepKind() Kind {
	if i := b.nearestStep(); i >= 0 {
		return b.stack[i].Kind
	}
	return Program
}

// step consumes one statement and places it in the tree.
func (b *builder) step() {
	tok := b.toks[b.pos]
	switch {
	case tok.Kind == token.Comment || tok.IsDelimiter(";"):
		// Null statements and free-standing comments belong to the
		// enclosing construct.
		b.top().own(tok)
		b.pos++
		return
	case tok.Kind == token.MacroCall:
		n, used := b.macroCall(b.toks[b.pos:], true)
		b.pos += used
		b.top().add(n)
		return
	}

	stmt := b.statement()
	b.dispatch(stmt)
}

// statement returns the tokens up to and including the next semicolon.
func (b *builder) statement() []token.Token {
	start := b.pos
	for b.pos < len(b.toks) {
		tok := b.toks[b.pos]
		b.pos++
		if tok.IsDelimiter(";") {
			break
		}
	}
	return b.toks[start:b.pos]
}

func (b *builder) dispatch(stmt []token.Token) {
	sig := significant(stmt)
	first := sig[0]
	if first.Kind != token.Keyword {
		b.attachLeaf(b.top(), stmt)
		return
	}

	// `end = 5;` and `run = 1;` assign to variables named like keywords.
	// `if (x) = 1 then` stays a conditional.
	if len(sig) > 1 && sig[1].Is(token.Operator, "=") {
		b.attachLeaf(b.top(), stmt)
		return
	}

	switch kw := first.Upper(); kw {
	case "DATA", "PROC":
		b.openStep(stmt, kw)
	case "RUN":
		if b.top().Kind == ProcSQL {
			// RUN has no effect inside PROC SQL.
			b.attachLeaf(b.top(), stmt)
			return
		}
		b.close(stmt, closeRun)
	case "QUIT":
		b.close(stmt, closeQuit)
	case "END":
		b.close(stmt, closeEnd)
	case "%END":
		b.close(stmt, closeMacroEnd)
	case "%MEND":
		b.close(stmt, closeMend)
	case "%MACRO":
		b.push(macroDef(stmt))
	case "DO", "%DO":
		b.push(doBlock(stmt))
	case "SELECT":
		// PROC COPY and PROC FORMAT have SELECT statements; only the DATA
		// step SELECT opens a block.
		if step := b.stepKind(); step == ProcSQL || step == ProcStep {
			b.attachLeaf(b.top(), stmt)
			return
		}
		n := newNode(SelectBlock)
		n.own(stmt...)
		if len(sig) > 1 && sig[1].IsDelimiter("(") {
			n.Attrs[AttrCondition] = joinTokens(group(sig, 1))
		}
		b.push(n)
	case "IF", "ELSE", "%IF", "%ELSE", "WHEN", "OTHERWISE":
		b.conditional(stmt)
	default:
		b.attachLeaf(b.top(), stmt)
		if isDatalines(kw) && b.pos < len(b.toks) && b.toks[b.pos].Kind == token.Literal {
			// In-stream data belongs to the statement that introduced it.
			last := b.top().Children[len(b.top().Children)-1]
			last.own(b.toks[b.pos])
			b.pos++
		}
	}
}

func isDatalines(kw string) bool {
	switch kw {
	case "DATALINES", "CARDS", "LINES", "DATALINES4", "CARDS4", "LINES4":
		return true
	}
	return false
}

// openStep starts a DATA or PROC step. An open step is ended implicitly;
// nested blocks still open inside it are recovered.
func (b *builder) openStep(stmt []token.Token, kw string) {
	if i := b.nearestStep(); i >= 0 {
		if i < len(b.stack)-1 {
			b.recover(ActionClosedAtStepBoundary, significant(stmt)[0], b.stack[i+1:],
				"new "+kw+" statement while a block in the previous step is still open")
		}
		b.stack[i].Attrs[AttrImplicitEnd] = true
		b.stack = b.stack[:i]
	}
	clear(b.arrays)

	if kw == "DATA" {
		b.push(dataStep(stmt))
		return
	}
	b.push(procStep(stmt))
}

// close ends the innermost construct waiting for c. Closers for open code
// blocks do not reach past an enclosing macro definition.
func (b *builder) close(stmt []token.Token, c closer) {
	macroCloser := c == closeMacroEnd || c == closeMend
	target := -1
search:
	for i := len(b.stack) - 1; i > 0; i-- {
		n := b.stack[i]
		for _, t := range terminators(n.Kind) {
			if t == c {
				target = i
				break search
			}
		}
		if n.Kind == MacroDef && !macroCloser {
			break
		}
	}

	closerTok := significant(stmt)[0]
	switch {
	case target < 0:
		b.recover(ActionDiscarded, closerTok, nil, "unmatched "+closerTok.Upper()+" discarded")
		return
	case target < len(b.stack)-1:
		b.recover(ActionClosedEnclosing, closerTok, b.stack[target+1:],
			closerTok.Upper()+" closes "+b.stack[target].Kind.String()+" with nested blocks still open")
	}
	b.stack[target].own(stmt...)
	b.stack = b.stack[:target]
}

func (b *builder) closeAtEOF() {
	for len(b.stack) > 1 {
		n := b.top()
		at := token.Token{}
		if len(n.Tokens) > 0 {
			at = n.Tokens[0]
		}
		b.recover(ActionClosedAtEOF, at, []*Node{n}, "unterminated "+n.Kind.String()+" at end of input")
		b.stack = b.stack[:len(b.stack)-1]
	}
}

func (b *builder) recover(action RecoveryAction, at token.Token, closed []*Node, msg string) {
	nodes := append([]*Node(nil), closed...)
	for _, n := range nodes {
		n.Attrs[AttrUnterminated] = true
	}
	b.recovery = append(b.recovery, RecoveryPoint{
		Action:  action,
		Lexeme:  at.Lexeme,
		Offset:  at.Span.Start,
		Line:    at.Span.Line,
		Column:  at.Span.Column,
		Message: msg,
	})
	b.closed = append(b.closed, nodes)
}

func (b *builder) finishRecovery() []RecoveryPoint {
	for i, nodes := range b.closed {
		for _, n := range nodes {
			b.recovery[i].Closed = append(b.recovery[i].Closed, n.ID)
		}
	}
	return b.recovery
}

// conditional handles IF/ELSE/WHEN/OTHERWISE and their macro forms. The
// head becomes a wrapper construct; the action after THEN becomes its child,
// and an action of DO or %DO opens a block under the wrapper.
func (b *builder) conditional(stmt []token.Token) {
	parent := b.top()
	rest := stmt
	for {
		w, action, ok := conditionalHead(rest)
		if !ok {
			break
		}
		b.commonAttrs(w, significant(w.Tokens))
		parent.add(w)
		parent = w
		rest = action
		// A bare `;` after THEN or ELSE is a null action.
		if len(trimSemi(significant(rest))) == 0 {
			w.own(rest...)
			return
		}
	}

	sig := significant(rest)
	switch {
	case sig[0].Kind == token.MacroCall:
		n, used := b.macroCall(rest, false)
		n.own(rest[used:]...)
		parent.add(n)
	case sig[0].Kind == token.Keyword && (sig[0].Upper() == "DO" || sig[0].Upper() == "%DO"):
		n := doBlock(rest)
		parent.add(n)
		b.stack = append(b.stack, n)
	default:
		b.attachLeaf(parent, rest)
	}
}

// attachLeaf classifies a non-block statement and adds it under parent.
func (b *builder) attachLeaf(parent *Node, stmt []token.Token) {
	n := b.leaf(stmt)
	parent.add(n)
}

// macroCall builds a MacroCall from a slice starting at the `%name` token.
// Parenthesized arguments are consumed; at statement level a following
// semicolon is consumed too. It returns the number of tokens used.
func (b *builder) macroCall(toks []token.Token, statementLevel bool) (*Node, int) {
	n := newNode(MacroCall)
	name := strings.ToUpper(strings.TrimPrefix(toks[0].Lexeme, "%"))
	n.Attrs[AttrName] = name
	used := 1

	if next := nextSignificant(toks, used); next >= 0 && toks[next].IsDelimiter("(") {
		if end := matchParen(toks, next); end >= 0 {
			n.Attrs[AttrArgs] = splitArgs(toks[next+1 : end])
			used = end + 1
		}
	}
	if _, ok := n.Attrs[AttrArgs]; !ok {
		n.Attrs[AttrArgs] = []string{}
	}
	if statementLevel {
		if next := nextSignificant(toks, used); next >= 0 && toks[next].IsDelimiter(";") {
			used = next + 1
		}
	}
	n.own(toks[:used]...)
	b.markRecursion(n, name)
	return n, used
}

// markRecursion flags a call to any enclosing macro definition, and the
// definition itself.
func (b *builder) markRecursion(n *Node, names ...string) {
	for _, name := range names {
		for i := len(b.stack) - 1; i > 0; i-- {
			def := b.stack[i]
			if def.Kind == MacroDef && def.Attrs.String(AttrName) == name {
				def.Attrs[AttrRecursive] = true
				n.Attrs[AttrRecursive] = true
			}
		}
	}
}

// assignIDs names every node by its path from the root.
func assignIDs(root *Node) {
	type frame struct {
		node *Node
		addr *nodeid.Address
	}
	stack := []frame{{node: root, addr: nodeid.Root(RootName)}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.node.ID = f.addr.String()
		for i, child := range f.node.Children {
			stack = append(stack, frame{node: child, addr: f.addr.Child(child.Kind.String(), i)})
		}
	}
}

// computeSpans sets each span to cover the node's own tokens and children.
func computeSpans(t *Tree) {
	t.PostOrder(func(n *Node) {
		var span token.Span
		for _, tok := range n.Tokens {
			span = span.Cover(tok.Span)
		}
		for _, child := range n.Children {
			span = span.Cover(child.Span)
		}
		n.Span = span
	})
}
