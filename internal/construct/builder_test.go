package construct

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/regger-zz/sas-translator/internal/lexer"
	"github.com/regger-zz/sas-translator/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	stream, err := lexer.NewSAS().Tokenize(context.Background(), []byte(src))
	require.NoError(t, err)
	toks, err := token.NewAdapter().Adapt(stream).Collect()
	require.NoError(t, err)
	return toks
}

func build(t *testing.T, src string) (*Tree, error) {
	t.Helper()
	tree, err := Build(context.Background(), tokenize(t, src))
	require.NotNil(t, tree)
	return tree, err
}

func mustBuild(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := build(t, src)
	require.NoError(t, err)
	return tree
}

// shape renders the tree as indented "kind" lines for compact assertions.
func shape(tree *Tree) string {
	var sb strings.Builder
	tree.Walk(func(n *Node, ancestors []*Node) bool {
		sb.WriteString(strings.Repeat("  ", len(ancestors)))
		sb.WriteString(n.Kind.String())
		sb.WriteByte('\n')
		return true
	})
	return sb.String()
}

func TestBuild_DataStep(t *testing.T) {
	tree := mustBuild(t, `
data out;
  set lib.in work.extra(keep=x);
  y = x * 2;
  total + y;
run;`)

	assert.Equal(t, "program\n  data_step\n    set\n    assignment\n    assignment\n", shape(tree))

	step := tree.Root.Children[0]
	assert.Equal(t, "program.data_step[0]", step.ID)
	assert.Equal(t, []string{"OUT"}, step.Attrs.Strings(AttrOutputs))
	assert.Equal(t, "OUT", step.Attrs.String(AttrName))

	set := step.Children[0]
	assert.Equal(t, "program.data_step[0].set[0]", set.ID)
	assert.Equal(t, []string{"LIB.IN", "EXTRA"}, set.Attrs.Strings(AttrInputs))

	assert.Equal(t, "Y", step.Children[1].Attrs.String(AttrTarget))
	assert.True(t, step.Children[2].Attrs.Bool(AttrSum))

	assert.Equal(t, 2, step.Span.Line)
	assert.Empty(t, tree.Recovery)
}

func TestBuild_Conditionals(t *testing.T) {
	tree := mustBuild(t, `
data a;
  set b;
  if x > 1 then y = 1;
  else if x < 0 then do;
    y = 2;
  end;
  else y = 3;
  if z;
run;`)

	assert.Equal(t, strings.Join([]string{
		"program",
		"  data_step",
		"    set",
		"    if",
		"      assignment",
		"    if",
		"      do_block",
		"        assignment",
		"    if",
		"      assignment",
		"    if",
		"",
	}, "\n"), shape(tree))

	step := tree.Root.Children[0]
	first := step.Children[1]
	assert.Equal(t, "x > 1", first.Attrs.String(AttrCondition))

	elseIf := step.Children[2]
	assert.True(t, elseIf.Attrs.Bool(AttrElse))
	assert.Equal(t, "x < 0", elseIf.Attrs.String(AttrCondition))
	assert.False(t, elseIf.Children[0].Attrs.Bool(AttrIterative))

	plainElse := step.Children[3]
	assert.True(t, plainElse.Attrs.Bool(AttrElse))
	assert.False(t, plainElse.Attrs.Has(AttrCondition))

	subsetting := step.Children[4]
	assert.True(t, subsetting.Attrs.Bool(AttrSubsetting))
	assert.Equal(t, "z", subsetting.Attrs.String(AttrCondition))
}

func TestBuild_SelectAndLoops(t *testing.T) {
	tree := mustBuild(t, `
data a;
  do i = 1 to 10;
    select (mod(i, 3));
      when (0) fizz = 1;
      when (1, 2) do; fizz = 0; end;
      otherwise;
    end;
  end;
run;`)

	assert.Equal(t, strings.Join([]string{
		"program",
		"  data_step",
		"    do_block",
		"      select_block",
		"        when",
		"          assignment",
		"        when",
		"          do_block",
		"            assignment",
		"        when",
		"",
	}, "\n"), shape(tree))

	loop := tree.Root.Children[0].Children[0]
	assert.True(t, loop.Attrs.Bool(AttrIterative))
	assert.Equal(t, "i = 1 to 10", loop.Attrs.String(AttrLoop))

	sel := loop.Children[0]
	assert.Equal(t, "mod(i, 3)", sel.Attrs.String(AttrCondition))
	assert.True(t, sel.Children[2].Attrs.Bool(AttrOtherwise))
}

func TestBuild_ProcSteps(t *testing.T) {
	tree := mustBuild(t, `
proc sort data=raw(where=(x>1)) out=sorted nodupkey;
  by id descending date;
run;
proc import datafile='/data/in.csv' out=work.imported dbms=csv replace;
run;
proc means data=sorted;
  var x;
  output out=stats mean=;
quit;`)

	require.Len(t, tree.Root.Children, 3)

	sort := tree.Root.Children[0]
	assert.Equal(t, ProcStep, sort.Kind)
	assert.Equal(t, "SORT", sort.Attrs.String(AttrProc))
	assert.Equal(t, []string{"RAW"}, sort.Attrs.Strings(AttrInputs))
	assert.Equal(t, []string{"SORTED"}, sort.Attrs.Strings(AttrOutputs))
	assert.Contains(t, sort.Attrs.Strings(AttrOptions), "NODUPKEY")
	require.Len(t, sort.Children, 1)
	assert.Equal(t, By, sort.Children[0].Kind)
	assert.Equal(t, []string{"ID", "DATE"}, sort.Children[0].Attrs.Strings(AttrBy))

	imp := tree.Root.Children[1]
	assert.Equal(t, []string{"IMPORTED"}, imp.Attrs.Strings(AttrOutputs))
	assert.Equal(t, []string{"'/data/in.csv'"}, imp.Attrs.Strings(AttrExternal))

	means := tree.Root.Children[2]
	require.Len(t, means.Children, 2)
	assert.Equal(t, "VAR", means.Children[0].Attrs.String(AttrKeyword))
	assert.Equal(t, []string{"STATS"}, means.Children[1].Attrs.Strings(AttrOutputs))
}

func TestBuild_ProcSQL(t *testing.T) {
	tree := mustBuild(t, `
proc sql;
  create table joined as
  select a.id, b.v
  from work.lhs as a
  inner join rhs b on a.id = b.id
  where a.id in (select id from keep);
  select * from one, two;
quit;`)

	sql := tree.Root.Children[0]
	assert.Equal(t, ProcSQL, sql.Kind)
	require.Len(t, sql.Children, 2)

	create := sql.Children[0]
	assert.Equal(t, SQLStatement, create.Kind)
	assert.Equal(t, "CREATE", create.Attrs.String(AttrSQLKeyword))
	assert.Equal(t, []string{"JOINED"}, create.Attrs.Strings(AttrOutputs))
	assert.Equal(t, []string{"LHS", "RHS", "KEEP"}, create.Attrs.Strings(AttrInputs))
	assert.Equal(t, 1, create.Attrs.Int(AttrSQLJoins))
	assert.Equal(t, 1, create.Attrs.Int(AttrSQLSubqueries))

	sel := sql.Children[1]
	assert.Equal(t, SQLStatement, sel.Kind, "SELECT inside PROC SQL is not a SELECT block")
	assert.Equal(t, 1, sel.Attrs.Int(AttrSQLJoins))
	assert.Equal(t, []string{"ONE", "TWO"}, sel.Attrs.Strings(AttrInputs))
}

func TestBuild_ImplicitStepEnd(t *testing.T) {
	tree, err := build(t, "data a; set b;\nproc print data=a;\nrun;")
	require.NoError(t, err, "a new step is a legal step boundary")

	require.Len(t, tree.Root.Children, 2)
	assert.True(t, tree.Root.Children[0].Attrs.Bool(AttrImplicitEnd))
	assert.False(t, tree.Root.Children[1].Attrs.Has(AttrImplicitEnd))
}

func TestBuild_Recovery(t *testing.T) {
	testCases := []struct {
		name   string
		src    string
		action RecoveryAction
		closed []string
		shape  string
	}{
		{
			name:   "stray end is discarded",
			src:    "data a; x = 1; end; y = 2; run;",
			action: ActionDiscarded,
			shape:  "program\n  data_step\n    assignment\n    assignment\n",
		},
		{
			name:   "run closes an open do block",
			src:    "data a; do i = 1 to 3; x = i; run;",
			action: ActionClosedEnclosing,
			closed: []string{"program.data_step[0].do_block[0]"},
			shape:  "program\n  data_step\n    do_block\n      assignment\n",
		},
		{
			name:   "unterminated at end of input",
			src:    "%macro m; %put hi;",
			action: ActionClosedAtEOF,
			closed: []string{"program.macro_def[0]"},
			shape:  "program\n  macro_def\n    statement\n",
		},
		{
			name:   "step boundary with open block",
			src:    "data a; do; x = 1;\ndata b; run;",
			action: ActionClosedAtStepBoundary,
			closed: []string{"program.data_step[0].do_block[0]"},
			shape:  "program\n  data_step\n    do_block\n      assignment\n  data_step\n",
		},
		{
			name:   "run does not reach out of a macro definition",
			src:    "data a; %macro m; run; %mend; run;",
			action: ActionDiscarded,
			shape:  "program\n  data_step\n    macro_def\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := build(t, tc.src)
			var structErr *StructuralError
			require.True(t, errors.As(err, &structErr))

			require.Len(t, tree.Recovery, 1)
			assert.Equal(t, tc.action, tree.Recovery[0].Action)
			assert.Equal(t, tc.closed, tree.Recovery[0].Closed)
			assert.Equal(t, tc.shape, shape(tree))
			assert.Equal(t, tree.Recovery, structErr.Points)
		})
	}
}

// A single unmatched closer yields exactly one recovery event and leaves
// everything before it exactly as the prefix alone would produce.
func TestBuild_RecoveryIdempotence(t *testing.T) {
	prefixes := []string{
		"data a; set b; if x then y = 1; run;",
		"proc sort data=a; by k; run; %macro m(p); %put &p; %mend;",
		"data c; do i = 1 to 2; output; end; run; proc sql; select * from c; quit;",
	}
	closers := []string{"run;", "end;", "%end;", "%mend;", "quit;"}

	for _, prefix := range prefixes {
		for _, closer := range closers {
			t.Run(prefix+" + "+closer, func(t *testing.T) {
				alone := mustBuild(t, prefix)

				full, err := build(t, prefix+"\n"+closer)
				require.Error(t, err)
				require.Len(t, full.Recovery, 1)
				assert.Equal(t, ActionDiscarded, full.Recovery[0].Action)

				if diff := cmp.Diff(alone.Root, full.Root); diff != "" {
					t.Errorf("tree changed by a trailing stray closer (-alone +full):\n%s", diff)
				}
			})
		}
	}
}

func TestBuild_TokenKindDecidesStructure(t *testing.T) {
	tree := mustBuild(t, `
data a;
  /* run; end; %mend; */
  * quit;
  msg = 'run; end;';
  note = "proc sql; quit;";
run;`)

	assert.Equal(t, "program\n  data_step\n    assignment\n    assignment\n", shape(tree))
}

func TestBuild_MacroCalls(t *testing.T) {
	tree := mustBuild(t, `
%macro load(ds, where=1);
  data &ds; set raw; where &where; run;
%mend load;
%load(sales, where=%str(x>1))
%load(returns);
%init
data z; x = %calc(1); run;`)

	require.Len(t, tree.Root.Children, 5)
	def := tree.Root.Children[0]
	assert.Equal(t, MacroDef, def.Kind)
	assert.Equal(t, "LOAD", def.Attrs.String(AttrName))
	assert.Equal(t, []string{"DS", "WHERE"}, def.Attrs.Strings(AttrParams))
	assert.False(t, def.Attrs.Bool(AttrRecursive))

	call := tree.Root.Children[1]
	assert.Equal(t, MacroCall, call.Kind)
	assert.Equal(t, "LOAD", call.Attrs.String(AttrName))
	assert.Equal(t, []string{"sales", "where = %str(x > 1)"}, call.Attrs.Strings(AttrArgs))

	assert.Equal(t, []string{"returns"}, tree.Root.Children[2].Attrs.Strings(AttrArgs))

	bare := tree.Root.Children[3]
	assert.Equal(t, "INIT", bare.Attrs.String(AttrName))
	assert.Empty(t, bare.Attrs.Strings(AttrArgs))

	assign := tree.Root.Children[4].Children[0]
	assert.Equal(t, []string{"CALC"}, assign.Attrs.Strings(AttrInlineMacros))
}

func TestBuild_MacroRecursion(t *testing.T) {
	tree := mustBuild(t, `
%macro walk(n);
  %if &n > 0 %then %do;
    %do i = 1 %to 2;
      %walk(%eval(&n - 1));
    %end;
  %end;
%mend;
%macro other; %put x; %mend;`)

	def := tree.Root.Children[0]
	assert.True(t, def.Attrs.Bool(AttrRecursive))
	assert.False(t, tree.Root.Children[1].Attrs.Bool(AttrRecursive))

	call := tree.Find("program.macro_def[0].macro_if[0].macro_do[0].macro_do[0].macro_call[0]")
	require.NotNil(t, call)
	assert.True(t, call.Attrs.Bool(AttrRecursive))
	assert.Equal(t, []string{"%eval(&n - 1)"}, call.Attrs.Strings(AttrArgs))
}

func TestTree_Find(t *testing.T) {
	tree := mustBuild(t, "data a; set b; if x then do; y = 1; end; run;\nproc print data=a; run;")

	testCases := []struct {
		id   string
		want Kind
	}{
		{id: "program", want: Program},
		{id: "program.data_step[0].if[1].do_block[0].assignment[0]", want: Assignment},
		{id: "program.proc_step[1]", want: ProcStep},
		{id: "program.proc_step[0]"},
		{id: "program.data_step[0].set[7]"},
		{id: "program.data_step"},
		{id: "program[0]"},
		{id: "module.data_step[0]"},
		{id: "program..set[0]"},
		{id: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			n := tree.Find(tc.id)
			if tc.want == Unknown {
				assert.Nil(t, n)
				return
			}
			require.NotNil(t, n)
			assert.Equal(t, tc.want, n.Kind)
			assert.Equal(t, tc.id, n.ID)
		})
	}

	for _, n := range tree.Nodes() {
		assert.Same(t, n, tree.Find(n.ID))
	}
}

func TestBuild_InlineRecursion(t *testing.T) {
	tree := mustBuild(t, "%macro f(n); %if &n > 1 %then %let r = %f(1); %mend;")
	def := tree.Root.Children[0]
	assert.True(t, def.Attrs.Bool(AttrRecursive))
}

func TestBuild_DataStepStatements(t *testing.T) {
	tree := mustBuild(t, `
data out;
  array vals{3} v1-v3;
  retain total 0;
  declare hash h(dataset: 'lookup');
  merge a b;
  by id;
  input @5 name $ @10 age 2. @;
  prev = lag(x) + vals(2);
  call symput('n', total);
  output out;
run;`)

	step := tree.Root.Children[0]
	kinds := make([]Kind, len(step.Children))
	for i, c := range step.Children {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []Kind{Array, Retain, Hash, Merge, By, Input, Assignment, Statement, Output}, kinds)

	assert.Equal(t, "VALS", step.Children[0].Attrs.String(AttrName))
	assert.Equal(t, "H", step.Children[2].Attrs.String(AttrName))
	assert.Equal(t, []string{"A", "B"}, step.Children[3].Attrs.Strings(AttrInputs))

	input := step.Children[5]
	assert.Equal(t, 2, input.Attrs.Int(AttrPointerControls))
	assert.Equal(t, "single", input.Attrs.String(AttrLineHold))

	assign := step.Children[6]
	assert.Equal(t, []string{"LAG"}, assign.Attrs.Strings(AttrFunctions), "array references are not function calls")

	assert.Equal(t, "SYMPUT", step.Children[7].Attrs.String(AttrRoutine))
	assert.Equal(t, []string{"OUT"}, step.Children[8].Attrs.Strings(AttrOutputs))
}

func TestBuild_UnknownStatements(t *testing.T) {
	tree := mustBuild(t, "data a; frobnicate the widgets; run;\n\x01 odd;")
	require.Len(t, tree.Root.Children, 2)
	assert.Equal(t, Unknown, tree.Root.Children[0].Children[0].Kind)
	assert.Equal(t, Unknown, tree.Root.Children[1].Kind)
}

func TestBuild_KeywordNamedAssignments(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		shape   string
		targets []string
	}{
		{
			name:    "end",
			src:     "data out; set in; end = 5; run;",
			shape:   "program\n  data_step\n    set\n    assignment\n",
			targets: []string{"END"},
		},
		{
			name:    "run and quit",
			src:     "data out; run = 5; quit = 1; run;",
			shape:   "program\n  data_step\n    assignment\n    assignment\n",
			targets: []string{"RUN", "QUIT"},
		},
		{
			name:    "end inside do group",
			src:     "data out; do; end = 5; x = 1; end; run;",
			shape:   "program\n  data_step\n    do_block\n      assignment\n      assignment\n",
			targets: []string{"END", "X"},
		},
		{
			name:    "data and if",
			src:     "data out; data = 1; if = 2; run;",
			shape:   "program\n  data_step\n    assignment\n    assignment\n",
			targets: []string{"DATA", "IF"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree := mustBuild(t, tc.src)
			assert.Equal(t, tc.shape, shape(tree))
			assert.Empty(t, tree.Recovery)

			var targets []string
			tree.Walk(func(n *Node, _ []*Node) bool {
				if n.Kind == Assignment {
					targets = append(targets, n.Attrs.String(AttrTarget))
				}
				return true
			})
			assert.Equal(t, tc.targets, targets)
			assert.False(t, tree.Root.Children[0].Attrs.Bool(AttrUnterminated))
		})
	}
}

func TestBuild_NullActions(t *testing.T) {
	tree := mustBuild(t, "data a; set b; if x then; else; y = 1; run;")
	assert.Equal(t, "program\n  data_step\n    set\n    if\n    if\n    assignment\n", shape(tree))

	step := tree.Root.Children[0]
	assert.Equal(t, "x", step.Children[1].Attrs.String(AttrCondition))
	assert.Empty(t, step.Children[1].Children)
	assert.True(t, step.Children[2].Attrs.Bool(AttrElse))
	assert.Empty(t, step.Children[2].Children)
}

func TestBuild_ProcStatements(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		kind    Kind
		keyword string
	}{
		{name: "known identifier", src: "proc print data=a; var x y; run;", kind: Statement, keyword: "VAR"},
		{name: "known keyword", src: "proc format; value yn 1='Y' 0='N'; run;", kind: Statement, keyword: "VALUE"},
		{name: "copy select", src: "proc copy in=src out=dst; select a b; run;", kind: Statement, keyword: "SELECT"},
		{name: "datasets modify", src: "proc datasets lib=work; modify a; run;", kind: Statement, keyword: "MODIFY"},
		{name: "unrecognized", src: "proc print data=a; frobnicate x; run;", kind: Unknown, keyword: "FROBNICATE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree := mustBuild(t, tc.src)
			assert.Empty(t, tree.Recovery)

			proc := tree.Root.Children[0]
			require.Equal(t, ProcStep, proc.Kind)
			require.Len(t, proc.Children, 1)
			assert.Equal(t, tc.kind, proc.Children[0].Kind)
			assert.Equal(t, tc.keyword, proc.Children[0].Attrs.String(AttrKeyword))
			assert.NotContains(t, shape(tree), "select_block")
		})
	}
}

func TestBuild_MacroStatementsInProc(t *testing.T) {
	tree := mustBuild(t, "proc print data=a; %let n = 1; var x; run;")
	proc := tree.Root.Children[0]
	require.Len(t, proc.Children, 2)
	assert.Equal(t, MacroLet, proc.Children[0].Kind)
	assert.Equal(t, Statement, proc.Children[1].Kind)
}

func TestBuild_GlobalStatements(t *testing.T) {
	tree := mustBuild(t, "options nodate;\nlibname src '/data';\nfilename cmd pipe 'ls -l';\nx 'rm tmp';\n%let n = 3;")
	kinds := []Kind{}
	for _, c := range tree.Root.Children {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []Kind{Global, Global, Global, Global, MacroLet}, kinds)
	assert.Contains(t, tree.Root.Children[2].Attrs.Strings(AttrOptions), "PIPE")
	assert.Equal(t, "N", tree.Root.Children[4].Attrs.String(AttrName))
}

func TestBuild_Datalines(t *testing.T) {
	tree := mustBuild(t, "data a;\n input x;\n datalines;\n1\nrun;\n;\nrun;")
	step := tree.Root.Children[0]
	require.Len(t, step.Children, 2)
	assert.Equal(t, "DATALINES", step.Children[1].Attrs.String(AttrKeyword))
	assert.False(t, step.Attrs.Bool(AttrUnterminated))
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tree, err := Build(ctx, tokenize(t, "data a; run;"))
	assert.Nil(t, tree)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_Empty(t *testing.T) {
	tree, err := Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "program", tree.Root.ID)
	assert.Empty(t, tree.Root.Children)
}

// randomProgram emits a balanced program of nested blocks and statements.
func randomProgram(r *rand.Rand) string {
	var sb strings.Builder
	var emit func(depth int, inMacro bool)
	emit = func(depth int, inMacro bool) {
		for i := 0; i < 1+r.Intn(3); i++ {
			switch choice := r.Intn(6); {
			case depth < 4 && choice == 0:
				sb.WriteString("do i = 1 to 2;\n")
				emit(depth+1, inMacro)
				sb.WriteString("end;\n")
			case depth < 4 && choice == 1:
				sb.WriteString("if x then do;\n")
				emit(depth+1, inMacro)
				sb.WriteString("end;\n")
			case depth < 4 && choice == 2 && inMacro:
				sb.WriteString("%do j = 1 %to 2;\n")
				emit(depth+1, inMacro)
				sb.WriteString("%end;\n")
			case choice == 3:
				sb.WriteString("set src;\n")
			default:
				fmt.Fprintf(&sb, "v%d = %d;\n", r.Intn(50), r.Intn(9))
			}
		}
	}
	for s := 0; s < 1+r.Intn(3); s++ {
		macro := r.Intn(2) == 0
		if macro {
			sb.WriteString("%macro m;\n")
		}
		sb.WriteString("data out;\n")
		emit(0, macro)
		sb.WriteString("run;\n")
		if macro {
			sb.WriteString("%mend;\n")
		}
	}
	return sb.String()
}

func TestBuild_BalancedProgramsAreAcyclic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		src := randomProgram(r)
		tree, err := build(t, src)
		require.NoError(t, err, src)

		seen := map[*Node]bool{}
		leaves := 0
		tree.Walk(func(n *Node, ancestors []*Node) bool {
			for _, a := range ancestors {
				require.NotSame(t, a, n, "construct is its own ancestor")
			}
			require.False(t, seen[n], "construct reachable twice")
			seen[n] = true
			if n.IsLeaf() {
				leaves++
			}
			return true
		})
		assert.GreaterOrEqual(t, leaves, 1)
	}
}
