// internal/nodeid/parser_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name         string
		rawID        string
		expectErr    bool
		expectedAddr *Address
	}{
		{
			name:      "simple path",
			rawID:     "a.b.c",
			expectErr: false,
			expectedAddr: &Address{
				Path: []PathSegment{NewPathSegment("a"), NewPathSegment("b"), NewPathSegment("c")},
			},
		},
		{
			name:      "multi-level path with index",
			rawID:     "program.data_step[0].do_block[15]",
			expectErr: false,
			expectedAddr: &Address{
				Path: []PathSegment{NewPathSegment("program"), NewPathSegmentWithIndex("data_step", 0), NewPathSegmentWithIndex("do_block", 15)},
			},
		},
		{
			name:      "zero index",
			rawID:     "program.unknown[0]",
			expectErr: false,
			expectedAddr: &Address{
				Path: []PathSegment{NewPathSegment("program"), NewPathSegmentWithIndex("unknown", 0)},
			},
		},
		{
			name:      "error - empty path segment",
			rawID:     "a..b",
			expectErr: true,
		},
		{
			name:      "error - invalid segment format",
			rawID:     "a.b[x]",
			expectErr: true,
		},
		{
			name:      "error - empty string",
			rawID:     "",
			expectErr: true,
		},
		{
			name:      "error - invalid segment name hyphen",
			rawID:     "a.b.-.c",
			expectErr: true,
		},
		{
			name:      "error - invalid segment name just hyphen",
			rawID:     "-",
			expectErr: true,
		},
		{
			name:      "error - invalid segment name just dot",
			rawID:     ".",
			expectErr: true,
		},
		{
			name:      "error - invalid segment name just double dot",
			rawID:     "..",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := Parse(tc.rawID)

			if tc.expectErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, addr)
			assert.Equal(t, tc.expectedAddr.Path, addr.Path, "Parsed address does not match expected address")
		})
	}
}
