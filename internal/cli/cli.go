package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/regger-zz/sas-translator/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// listFlag collects a repeatable flag. Each value may also hold a
// comma-separated list.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sas-translator", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
sas-translator - Static analysis of SAS programs for migration planning.

Usage:
  sas-translator [options] SOURCE [SOURCE...]

Arguments:
  SOURCE
    A .sas file, a directory searched recursively for .sas files, or a
    storage URL (file://, mem://, s3://, ...).

Options:
`)
		flagSet.PrintDefaults()
	}

	var rules, extensions, keywords listFlag
	flagSet.Var(&rules, "rules", "Rule registry file or directory (.hcl). Repeatable; later files override earlier rules by id.")
	flagSet.Var(&extensions, "ext", "Source file extension to pick up from directories. Repeatable. Default: .sas")
	flagSet.Var(&keywords, "keywords", "Extra bare words to treat as statement keywords. Repeatable.")
	tokenizerFlag := flagSet.String("tokenizer", "sas", "Source tokenizer. 'sas' lexes SAS text; 'dump' reads JSON token dumps (default extension .json).")
	outFlag := flagSet.String("out", "", "Directory for per-file reports and the batch summary. Empty streams reports to stdout.")
	oFlag := flagSet.String("o", "", "Output directory (shorthand).")
	formatFlag := flagSet.String("format", "json", "Report format. Options: 'json' or 'yaml'.")
	noTreeFlag := flagSet.Bool("no-tree", false, "Leave construct trees out of the reports.")
	workersFlag := flagSet.Int("workers", 4, "Number of files analyzed concurrently.")
	timeoutFlag := flagSet.Duration("timeout", 30*time.Second, "Per-file analysis timeout. 0 disables.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	sources := flagSet.Args()
	if len(sources) == 0 {
		slog.Debug("No source provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	outDir := *outFlag
	if outDir == "" {
		outDir = *oFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	for i, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			extensions[i] = "." + ext
		}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Sources:    sources,
		RulesPaths: rules,
		Extensions: extensions,
		Tokenizer:  strings.ToLower(*tokenizerFlag),
		Keywords:   keywords,
		OutDir:     outDir,
		Format:     strings.ToLower(*formatFlag),
		NoTree:     *noTreeFlag,
		Workers:    *workersFlag,
		Timeout:    *timeoutFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
