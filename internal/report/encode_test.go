package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/regger-zz/sas-translator/internal/blueprint"
	"github.com/regger-zz/sas-translator/internal/risk"
	"github.com/regger-zz/sas-translator/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport(t *testing.T) *AnalysisReport {
	t.Helper()
	tree := testutil.Tree(t, "data out; set in; run;")
	entries := []blueprint.Entry{{
		ConstructID: "program",
		Operations:  []blueprint.Operation{{Op: "module", Params: map[string]any{"b": 1, "a": []any{"X"}}}},
		Confidence:  blueprint.High,
	}}
	flags := []risk.Flag{{RuleID: "r", Severity: risk.SeverityInfo, Rationale: "why", ConstructID: "program"}}
	return Assemble(context.Background(), FileInfo{Path: "p.sas", Fingerprint: "00ff"}, tree, nil, flags, entries, Options{})
}

func TestNewEncoder(t *testing.T) {
	enc, err := NewEncoder("json")
	require.NoError(t, err)
	assert.Equal(t, ".json", enc.Extension())

	enc, err = NewEncoder("yaml")
	require.NoError(t, err)
	assert.Equal(t, ".yaml", enc.Extension())

	_, err = NewEncoder("xml")
	assert.ErrorContains(t, err, "unsupported output format 'xml'")
}

func TestJSONEncoder_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONEncoder{}.Encode(&buf, sampleReport(t)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{"file", "status", "readiness", "coverage", "complexity", "summary", "recommendations", "flags", "blueprint", "scores", "data_flow", "errors", "tree"} {
		assert.Contains(t, decoded, key)
	}

	flag := decoded["flags"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"rule_id": "r", "severity": "info", "rationale": "why", "construct_id": "program"}, flag)

	tree := decoded["tree"].(map[string]any)
	assert.Equal(t, "program", tree["kind"])
	assert.NotContains(t, tree, "tokens")
}

func TestEncoders_Stable(t *testing.T) {
	r := sampleReport(t)
	for _, enc := range []Encoder{JSONEncoder{}, YAMLEncoder{}} {
		var first, second bytes.Buffer
		require.NoError(t, enc.Encode(&first, r))
		require.NoError(t, enc.Encode(&second, r))
		assert.Equal(t, first.String(), second.String(), enc.Extension())
	}
}

func TestYAMLEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAMLEncoder{}.Encode(&buf, sampleReport(t)))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "complete", decoded["status"])
	assert.Equal(t, "p.sas", decoded["file"].(map[string]any)["path"])

	bp := decoded["blueprint"].([]any)[0].(map[string]any)
	assert.Equal(t, "high", bp["confidence"])
}

func TestFingerprint(t *testing.T) {
	a, err := Fingerprint([]byte("data a; run;"))
	require.NoError(t, err)
	assert.Len(t, a, 16)

	again, err := Fingerprint([]byte("data a; run;"))
	require.NoError(t, err)
	assert.Equal(t, a, again)

	b, err := Fingerprint([]byte("data b; run;"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewFileInfo(t *testing.T) {
	testCases := []struct {
		src   string
		lines int
	}{
		{"", 0},
		{"x;", 1},
		{"x;\n", 1},
		{"x;\ny;", 2},
	}
	for _, tc := range testCases {
		info, err := NewFileInfo("f.sas", []byte(tc.src))
		require.NoError(t, err)
		assert.Equal(t, tc.lines, info.Lines, "%q", tc.src)
		assert.Equal(t, len(tc.src), info.Bytes)
		assert.NotEmpty(t, info.Fingerprint)
	}
}
