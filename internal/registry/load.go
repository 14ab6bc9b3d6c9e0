package registry

import (
	"context"
	"fmt"

	"github.com/regger-zz/sas-translator/internal/config"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
)

// Load builds a frozen registry: it loads the rule model, registers every
// module's predicates, validates and freezes.
func Load(ctx context.Context, loader config.Loader, paths []string, modules ...Module) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading rules...", "paths", paths)

	model, converter, err := loader.Load(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	reg := New()
	for _, m := range modules {
		m.Register(reg)
	}
	reg.Populate(model, converter)
	if err := reg.ValidateRegistry(ctx); err != nil {
		return nil, err
	}
	reg.Freeze()

	logger.Info("Registry loaded successfully.",
		"risk_rules", len(reg.riskRules),
		"mapping_rules", len(reg.mappingRules),
		"predicates", len(reg.predicates),
	)
	return reg, nil
}
