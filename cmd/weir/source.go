package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cobbet/weir"
)

// fileSource reads content records from a local YAML or JSON file holding a
// list of loosely-typed records. It is the one acquisition backend simple
// enough to ship with the CLI; anything else implements weir.Source
// elsewhere.
type fileSource struct {
	path string
}

func (s *fileSource) Fetch(_ context.Context) ([]weir.Content, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var raw []map[string]any
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON records: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML records: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported records format: %s", filepath.Ext(s.path))
	}

	records := make([]weir.Content, 0, len(raw))
	for i, m := range raw {
		c, err := weir.ContentFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, c)
	}
	return records, nil
}

// defaultRegistry builds the registry the CLI runs with: the built-in
// analysis tasks over the default scorer.
func defaultRegistry() (*weir.Registry, error) {
	scorer, err := weir.NewScorer(weir.DefaultScorerConfig())
	if err != nil {
		return nil, err
	}
	registry := weir.NewRegistry()
	registry.AddWithMeta(weir.BuiltinTasks(scorer)...)
	return registry, nil
}
