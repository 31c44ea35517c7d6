package weir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cobbet/weir"
)

const definitionYAML = `
version: "1"
pipelines:
  content:
    - AnalyzeContent
    - ExtractKeywords
rules:
  ExtractKeywords:
    input: analysis
    output: keywords
    required: true
sub_pipelines:
  deep-analysis:
    - DetectType
    - ExtractMetadata
    - ValidateStructure
branches:
  AnalyzeContent:
    article: deep-analysis
    other: deep-analysis
`

func TestParseDefinitionYAML(t *testing.T) {
	def, err := weir.ParseDefinitionYAML([]byte(definitionYAML))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	if len(def.Pipelines["content"]) != 2 {
		t.Errorf("expected 2 steps, got %v", def.Pipelines["content"])
	}
	rule := def.Rules["ExtractKeywords"]
	if rule.Input != "analysis" || rule.Output != "keywords" || !rule.Required {
		t.Errorf("unexpected rule: %+v", rule)
	}
	if def.Branches["AnalyzeContent"][weir.KindArticle] != "deep-analysis" {
		t.Errorf("unexpected branches: %+v", def.Branches)
	}
	if def.Branches["AnalyzeContent"][weir.KindOther] != "deep-analysis" {
		t.Error("expected reserved other fallback entry")
	}
}

func TestParseDefinitionJSON(t *testing.T) {
	def, err := weir.ParseDefinitionJSON([]byte(`{
		"pipelines": {"content": ["A", "B"]},
		"rules": {"B": {"input": "A", "required": true}}
	}`))
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(def.Pipelines["content"]) != 2 {
		t.Errorf("expected 2 steps, got %v", def.Pipelines["content"])
	}
}

func TestLoadDefinitionIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "def.yaml")
	if err := os.WriteFile(path, []byte(definitionYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := weir.LoadDefinition(path)
	if err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	second, err := weir.LoadDefinition(path)
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("loading twice is not idempotent (-first +second):\n%s", diff)
	}
}

func TestLoadDefinitionUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "def.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := weir.LoadDefinition(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadDefinitionMissingFile(t *testing.T) {
	if _, err := weir.LoadDefinition(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
