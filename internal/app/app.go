package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/regger-zz/sas-translator/internal/config"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/fsutil"
	"github.com/regger-zz/sas-translator/internal/registry"
	"github.com/regger-zz/sas-translator/internal/risk"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	reader   *fsutil.Reader
}

// NewApp is the constructor for the main application. Reports go to outW,
// logs to logW. A rule registry that fails to load or validate is a fatal
// startup error and panics.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = []registry.Module{risk.Module{}}
	}
	reg, err := registry.Load(ctx, loader, cfg.RulesPaths, modules...)
	if err != nil {
		panic(fmt.Errorf("failed to load rule registry: %w", err))
	}
	logger.Debug("Rule registry ready.",
		"risk_rules", len(reg.RiskRules()),
		"mapping_rules", len(reg.MappingRules()),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		reader:   fsutil.NewReader(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
