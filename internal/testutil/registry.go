package testutil

import (
	"context"
	"testing"

	"github.com/regger-zz/sas-translator/internal/hcl"
	"github.com/regger-zz/sas-translator/internal/registry"
	"github.com/regger-zz/sas-translator/internal/risk"
	"github.com/stretchr/testify/require"
)

// Registry loads the built-in rules plus any rule files given as
// (relative path -> HCL content) and returns the frozen registry.
func Registry(t *testing.T, files map[string]string) *registry.Registry {
	t.Helper()
	reg, err := LoadRegistry(t, files)
	require.NoError(t, err)
	return reg
}

// LoadRegistry is Registry without the success assertion.
func LoadRegistry(t *testing.T, files map[string]string, opts ...hcl.Option) (*registry.Registry, error) {
	t.Helper()
	var paths []string
	if len(files) > 0 {
		paths = append(paths, WriteFiles(t, files))
	}
	return registry.Load(context.Background(), hcl.NewLoader(opts...), paths, risk.Module{})
}
