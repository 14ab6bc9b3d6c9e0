// internal/nodeid/address_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_String(t *testing.T) {
	testCases := []struct {
		name        string
		addr        *Address
		expectedStr string
	}{
		{
			name: "simple path",
			addr: &Address{
				Path: []PathSegment{NewPathSegment("a"), NewPathSegment("b")},
			},
			expectedStr: "a.b",
		},
		{
			name: "path with indices",
			addr: &Address{
				Path: []PathSegment{NewPathSegment("program"), NewPathSegmentWithIndex("data_step", 0), NewPathSegmentWithIndex("set", 15)},
			},
			expectedStr: "program.data_step[0].set[15]",
		},
		{
			name:        "nil address",
			addr:        nil,
			expectedStr: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.addr.String())
		})
	}
}

func TestAddress_RoundTrip(t *testing.T) {
	testIDs := []string{
		"program",
		"program.macro_def[3].macro_do[0].macro_call[1]",
		"program.proc_sql[0].sql_statement[2]",
	}

	for _, id := range testIDs {
		t.Run(id, func(t *testing.T) {
			addr, err := Parse(id)
			require.NoError(t, err)

			roundTripID := addr.String()
			assert.Equal(t, id, roundTripID)

			roundTripAddr, err := Parse(roundTripID)
			require.NoError(t, err)
			assert.Equal(t, addr.Path, roundTripAddr.Path)
		})
	}
}

func TestAddress_Child(t *testing.T) {
	root := Root("program")
	step := root.Child("data_step", 0)
	stmt := step.Child("assignment", 4)

	assert.Equal(t, "program", root.String())
	assert.Equal(t, "program.data_step[0].assignment[4]", stmt.String())
	assert.False(t, root.Path[0].HasIndex())
	assert.True(t, stmt.Path[2].HasIndex())

	// Child must not alias the parent's path.
	other := step.Child("set", 1)
	assert.Equal(t, "program.data_step[0].assignment[4]", stmt.String())
	assert.Equal(t, "program.data_step[0].set[1]", other.String())
	assert.Equal(t, "program.data_step[0]", step.String())
}

func TestPathSegment_HasIndex(t *testing.T) {
	testCases := []struct {
		name    string
		segment PathSegment
		want    bool
	}{
		{name: "no index", segment: NewPathSegment("program"), want: false},
		{name: "zero index", segment: NewPathSegmentWithIndex("set", 0), want: true},
		{name: "parsed", segment: func() PathSegment {
			addr, err := Parse("program.when[3]")
			require.NoError(t, err)
			return addr.Path[1]
		}(), want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.segment.HasIndex())
		})
	}
}
