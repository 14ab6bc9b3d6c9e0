package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Encoder writes reports in one format.
type Encoder interface {
	Encode(w io.Writer, v any) error
	// Extension is the file extension, dot included.
	Extension() string
}

// NewEncoder returns the encoder for format "json" or "yaml".
func NewEncoder(format string) (Encoder, error) {
	switch format {
	case "json":
		return JSONEncoder{}, nil
	case "yaml":
		return YAMLEncoder{}, nil
	}
	return nil, fmt.Errorf("unsupported output format '%s'", format)
}

// JSONEncoder writes indented JSON with snake_case field names.
type JSONEncoder struct{}

func (JSONEncoder) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (JSONEncoder) Extension() string { return ".json" }

// YAMLEncoder writes YAML documents.
type YAMLEncoder struct{}

func (YAMLEncoder) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func (YAMLEncoder) Extension() string { return ".yaml" }
