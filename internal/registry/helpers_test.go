package registry_test

import (
	"context"
	"errors"

	"github.com/regger-zz/sas-translator/internal/config"
	"github.com/regger-zz/sas-translator/internal/hcl"
)

type failingLoader struct{}

func (failingLoader) Load(context.Context, ...string) (*config.Model, config.Converter, error) {
	return nil, nil, errors.New("boom")
}

func hclWithoutBuiltins() []hcl.Option {
	return []hcl.Option{hcl.WithoutBuiltins()}
}
