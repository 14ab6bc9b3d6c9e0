package hcl

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/regger-zz/sas-translator/internal/config"
	"github.com/regger-zz/sas-translator/internal/ctxlog"
	"github.com/regger-zz/sas-translator/internal/fsutil"
)

//go:embed rules/*.hcl
var builtinRules embed.FS

// BuiltinPrefix names the source of rules that ship with the binary.
const BuiltinPrefix = "builtin:"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	builtins bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithoutBuiltins skips the embedded default rules.
func WithoutBuiltins() Option {
	return func(l *Loader) { l.builtins = false }
}

// NewLoader creates a new HCL rule loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{builtins: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load orchestrates the entire HCL rule loading process. Built-in rules are
// read first, then every .hcl file under paths in sorted order. A rule whose
// ID was already seen replaces the earlier one in place.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths), "builtins", l.builtins)

	model := &config.Model{Weights: &config.Weights{}}
	parser := hclparse.NewParser()

	if l.builtins {
		entries, err := fs.ReadDir(builtinRules, "rules")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read built-in rules: %w", err)
		}
		for _, entry := range entries {
			name := path.Join("rules", entry.Name())
			src, err := builtinRules.ReadFile(name)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read built-in rules: %w", err)
			}
			hclFile, diags := parser.ParseHCL(src, BuiltinPrefix+entry.Name())
			if err := l.merge(ctx, model, hclFile, diags, BuiltinPrefix+entry.Name()); err != nil {
				return nil, nil, err
			}
		}
	}

	for _, p := range paths {
		files, err := fsutil.FindFilesByExtension(p, ".hcl")
		if err != nil {
			return nil, nil, fmt.Errorf("error accessing rule path %s: %w", p, err)
		}
		logger.Debug("Discovered HCL files.", "path", p, "count", len(files))
		for _, file := range files {
			hclFile, diags := parser.ParseHCLFile(file)
			if err := l.merge(ctx, model, hclFile, diags, file); err != nil {
				return nil, nil, err
			}
		}
	}

	logger.Debug("HCL loading complete.",
		"risk_rules", len(model.RiskRules),
		"mapping_rules", len(model.MappingRules),
	)
	return model, NewConverter(), nil
}

// merge decodes one parsed file and folds its blocks into the model.
func (l *Loader) merge(ctx context.Context, model *config.Model, file *hcl.File, diags hcl.Diagnostics, source string) error {
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", source, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", source, diags)
	}

	seen := make(map[string]struct{})
	for _, r := range root.RiskRules {
		if _, dup := seen["risk/"+r.ID]; dup {
			return fmt.Errorf("duplicate risk_rule %q in %s", r.ID, source)
		}
		seen["risk/"+r.ID] = struct{}{}
		rule, err := translateRiskRule(ctx, r, source)
		if err != nil {
			return fmt.Errorf("in %s: %w", source, err)
		}
		model.UpsertRisk(rule)
	}
	for _, m := range root.MappingRules {
		if _, dup := seen["mapping/"+m.ID]; dup {
			return fmt.Errorf("duplicate mapping_rule %q in %s", m.ID, source)
		}
		seen["mapping/"+m.ID] = struct{}{}
		model.UpsertMapping(translateMappingRule(ctx, m, source))
	}
	model.Weights.Merge(translateWeights(root.Weights))

	ctxlog.FromContext(ctx).Debug("Loaded rules from HCL file.",
		"file", source,
		"risk_rules", len(root.RiskRules),
		"mapping_rules", len(root.MappingRules),
	)
	return nil
}
