package weir

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zoobzio/capitan"
	"gopkg.in/yaml.v3"
)

// LoadDefinition reads a pipeline definition from a file. JSON and YAML
// formats are supported based on file extension. The definition is parsed
// only; reference validation happens when an Engine is constructed, so a
// definition can be inspected even without a registry.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		capitan.Emit(context.Background(), DefinitionFileFailed,
			KeyPath.Field(path),
			KeyError.Field(err.Error()))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	capitan.Emit(context.Background(), DefinitionFileLoaded,
		KeyPath.Field(path),
		KeySizeBytes.Field(len(data)))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseDefinitionJSON(data)
	case ".yaml", ".yml":
		return ParseDefinitionYAML(data)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

// ParseDefinitionYAML parses a YAML pipeline definition.
func ParseDefinitionYAML(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		capitan.Emit(context.Background(), DefinitionParseFailed,
			KeyError.Field(err.Error()))
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	emitParsed(&def)
	return &def, nil
}

// ParseDefinitionJSON parses a JSON pipeline definition.
func ParseDefinitionJSON(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		capitan.Emit(context.Background(), DefinitionParseFailed,
			KeyError.Field(err.Error()))
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	emitParsed(&def)
	return &def, nil
}

func emitParsed(def *Definition) {
	if def.Version != "" {
		capitan.Emit(context.Background(), DefinitionParsed,
			KeyCount.Field(len(def.Pipelines)),
			KeyVersion.Field(def.Version))
		return
	}
	capitan.Emit(context.Background(), DefinitionParsed,
		KeyCount.Field(len(def.Pipelines)))
}
