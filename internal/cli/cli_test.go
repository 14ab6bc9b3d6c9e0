package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantExit  bool
		wantCode  int
		wantError string
		check     func(t *testing.T, out string)
	}{
		{
			name:     "help",
			args:     []string{"-h"},
			wantExit: true,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "Usage:")
			},
		},
		{
			name:     "no sources prints usage",
			args:     []string{"-workers", "2"},
			wantExit: true,
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "SOURCE")
			},
		},
		{name: "unknown flag", args: []string{"-nope", "a.sas"}, wantCode: 2, wantError: "flag provided but not defined"},
		{name: "bad log format", args: []string{"-log-format", "xml", "a.sas"}, wantCode: 2, wantError: "invalid log-format"},
		{name: "bad log level", args: []string{"-log-level", "loud", "a.sas"}, wantCode: 2, wantError: "invalid log-level"},
		{name: "bad format", args: []string{"-format", "csv", "a.sas"}, wantCode: 2, wantError: "invalid format 'csv'"},
		{name: "bad tokenizer", args: []string{"-tokenizer", "antlr", "a.sas"}, wantCode: 2, wantError: "invalid tokenizer 'antlr'"},
		{name: "zero workers", args: []string{"-workers", "0", "a.sas"}, wantCode: 2, wantError: "workers must be at least 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out)

			if tc.wantError != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			assert.Nil(t, cfg)
			if tc.check != nil {
				tc.check(t, out.String())
			}
		})
	}
}

func TestParse_FullConfig(t *testing.T) {
	cfg, exit, err := Parse([]string{
		"-rules", "base.hcl,team.hcl",
		"-rules", "local/",
		"-ext", "sas", "-ext", ".inc",
		"-keywords", "dosubl,lockdown",
		"-o", "reports",
		"-format", "YAML",
		"-no-tree",
		"-workers", "8",
		"-timeout", "5s",
		"-log-format", "JSON",
		"-log-level", "debug",
		"jobs/", "extra.sas",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, []string{"jobs/", "extra.sas"}, cfg.Sources)
	assert.Equal(t, []string{"base.hcl", "team.hcl", "local/"}, cfg.RulesPaths)
	assert.Equal(t, []string{".sas", ".inc"}, cfg.Extensions)
	assert.Equal(t, []string{"dosubl", "lockdown"}, cfg.Keywords)
	assert.Equal(t, "reports", cfg.OutDir)
	assert.Equal(t, "yaml", cfg.Format)
	assert.True(t, cfg.NoTree)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_Defaults(t *testing.T) {
	cfg, _, err := Parse([]string{"a.sas"}, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, []string{".sas"}, cfg.Extensions)
	assert.Equal(t, "sas", cfg.Tokenizer)
	assert.Empty(t, cfg.OutDir)
	assert.Empty(t, cfg.RulesPaths)
	assert.Empty(t, cfg.Keywords)
}
