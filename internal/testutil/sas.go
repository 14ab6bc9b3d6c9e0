package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/regger-zz/sas-translator/internal/construct"
	"github.com/regger-zz/sas-translator/internal/lexer"
	"github.com/regger-zz/sas-translator/internal/token"
	"github.com/stretchr/testify/require"
)

// Tokens runs src through the bundled lexer and the token adapter.
func Tokens(t *testing.T, src string) []token.Token {
	t.Helper()
	stream, err := lexer.NewSAS().Tokenize(context.Background(), []byte(src))
	require.NoError(t, err)
	toks, err := token.NewAdapter().Adapt(stream).Collect()
	require.NoError(t, err)
	return toks
}

// Tree builds the construct tree of src. Structural recovery is allowed;
// any other error fails the test.
func Tree(t *testing.T, src string) *construct.Tree {
	t.Helper()
	tree, err := construct.Build(context.Background(), Tokens(t, src))
	var structural *construct.StructuralError
	if err != nil && !errors.As(err, &structural) {
		require.NoError(t, err)
	}
	require.NotNil(t, tree)
	return tree
}

// Node returns the construct with the given ID, failing the test if absent.
func Node(t *testing.T, tree *construct.Tree, id string) *construct.Node {
	t.Helper()
	n := tree.Find(id)
	require.NotNil(t, n, "construct %s not found", id)
	return n
}
