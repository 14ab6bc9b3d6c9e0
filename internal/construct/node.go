package construct

import (
	"sort"

	"github.com/regger-zz/sas-translator/internal/nodeid"
	"github.com/regger-zz/sas-translator/internal/token"
)

// Attribute keys. Values are string, []string, bool or int.
const (
	AttrName            = "name"
	AttrProc            = "proc"
	AttrOptions         = "options"
	AttrParams          = "params"
	AttrArgs            = "args"
	AttrRecursive       = "recursive"
	AttrInputs          = "inputs"
	AttrOutputs         = "outputs"
	AttrExternal        = "external"
	AttrBy              = "by"
	AttrFunctions       = "functions"
	AttrInlineMacros    = "inline_macros"
	AttrKeyword         = "keyword"
	AttrCondition       = "condition"
	AttrTarget          = "target"
	AttrRoutine         = "routine"
	AttrLoop            = "loop"
	AttrIterative       = "iterative"
	AttrElse            = "else"
	AttrOtherwise       = "otherwise"
	AttrSubsetting      = "subsetting"
	AttrSum             = "sum"
	AttrImplicitEnd     = "implicit_end"
	AttrUnterminated    = "unterminated"
	AttrPointerControls = "pointer_controls"
	AttrLineHold        = "line_hold"
	AttrSQLKeyword      = "sql_keyword"
	AttrSQLJoins        = "sql_joins"
	AttrSQLSubqueries   = "sql_subqueries"
	AttrSQLTables       = "sql_tables"
	AttrSQLTokens       = "sql_tokens"
)

// Attrs is the kind-specific attribute bag of a construct.
type Attrs map[string]any

// String returns the string attribute key, or "".
func (a Attrs) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Strings returns the list attribute key, or nil.
func (a Attrs) Strings(key string) []string {
	s, _ := a[key].([]string)
	return s
}

// Bool returns the boolean attribute key, or false.
func (a Attrs) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Int returns the integer attribute key, or 0.
func (a Attrs) Int(key string) int {
	n, _ := a[key].(int)
	return n
}

// Has reports whether key is set to a non-zero value.
func (a Attrs) Has(key string) bool {
	switch v := a[key].(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []string:
		return len(v) > 0
	case bool:
		return v
	case int:
		return v != 0
	}
	return true
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Node is one construct in the tree. A parent exclusively owns its
// children; nodes are not mutated once Build returns.
type Node struct {
	ID       string        `json:"id" yaml:"id"`
	Kind     Kind          `json:"kind" yaml:"kind"`
	Span     token.Span    `json:"span" yaml:"span"`
	Attrs    Attrs         `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Tokens   []token.Token `json:"-" yaml:"-"`
	Children []*Node       `json:"children,omitempty" yaml:"children,omitempty"`
}

func newNode(kind Kind) *Node {
	return &Node{Kind: kind, Attrs: Attrs{}}
}

// IsLeaf reports whether n has no children. A childless Program is not a
// leaf statement; it is the empty program.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0 && n.Kind != Program
}

// Text reassembles the node's own tokens, comments excluded.
func (n *Node) Text() string {
	return joinTokens(n.Tokens)
}

func (n *Node) add(child *Node) {
	n.Children = append(n.Children, child)
}

func (n *Node) own(toks ...token.Token) {
	n.Tokens = append(n.Tokens, toks...)
}

// Tree is the result of Build.
type Tree struct {
	Root     *Node           `json:"root" yaml:"root"`
	Recovery []RecoveryPoint `json:"recovery,omitempty" yaml:"recovery,omitempty"`
}

// Walk visits every node in pre-order. ancestors runs from the root to the
// node's parent and is only valid for the duration of the call. Returning
// false from fn skips the node's subtree. Iteration uses an explicit stack.
func (t *Tree) Walk(fn func(n *Node, ancestors []*Node) bool) {
	if t == nil || t.Root == nil {
		return
	}
	type frame struct {
		node  *Node
		depth int
	}
	stack := []frame{{node: t.Root}}
	var path []*Node
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		path = path[:f.depth]
		if !fn(f.node, path) {
			continue
		}
		path = append(path, f.node)
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.Children[i], depth: f.depth + 1})
		}
	}
}

// PostOrder visits every node after all of its children.
func (t *Tree) PostOrder(fn func(n *Node)) {
	if t == nil || t.Root == nil {
		return
	}
	type frame struct {
		node     *Node
		expanded bool
	}
	stack := []frame{{node: t.Root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.expanded {
			stack = stack[:len(stack)-1]
			fn(top.node)
			continue
		}
		top.expanded = true
		n := top.node
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.Children[i]})
		}
	}
}

// Nodes returns every node in pre-order.
func (t *Tree) Nodes() []*Node {
	var out []*Node
	t.Walk(func(n *Node, _ []*Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Find returns the node with the given ID, or nil. An ID is the path from
// the root, so the lookup descends one level per segment.
func (t *Tree) Find(id string) *Node {
	addr, err := nodeid.Parse(id)
	if err != nil || t.Root == nil {
		return nil
	}
	if root := addr.Path[0]; root.Name != RootName || root.HasIndex() {
		return nil
	}
	n := t.Root
	for _, seg := range addr.Path[1:] {
		if !seg.HasIndex() || seg.Index >= len(n.Children) {
			return nil
		}
		n = n.Children[seg.Index]
		if n.Kind.String() != seg.Name {
			return nil
		}
	}
	return n
}

// Len is the number of constructs, the root included.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node, []*Node) bool {
		count++
		return true
	})
	return count
}
