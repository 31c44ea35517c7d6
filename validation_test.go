package weir_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cobbet/weir"
)

func noopTask(name string) weir.Task {
	return weir.NewTask(name, func(_ context.Context, _ weir.Content, _ weir.Input) (map[string]any, error) {
		return map[string]any{"done": name}, nil
	})
}

func registryWith(names ...string) *weir.Registry {
	reg := weir.NewRegistry()
	for _, name := range names {
		reg.Add(noopTask(name))
	}
	return reg
}

func TestNewRejectsUnresolvableStep(t *testing.T) {
	def := &weir.Definition{
		Pipelines: map[string][]string{"content": {"A", "Missing"}},
	}
	_, err := weir.New(def, registryWith("A"))
	if err == nil {
		t.Fatal("expected configuration error")
	}

	var cfgErrs weir.ConfigErrors
	if !errors.As(err, &cfgErrs) {
		t.Fatalf("expected ConfigErrors, got %T", err)
	}
	if !strings.Contains(err.Error(), "Missing") {
		t.Errorf("expected error naming the unresolvable step, got %q", err)
	}
}

func TestNewAcceptsBranchingResolvedStep(t *testing.T) {
	def := &weir.Definition{
		Pipelines:    map[string][]string{"content": {"AnalyzeContent"}},
		SubPipelines: map[string][]string{"deep": {"A", "B"}},
		Branches: map[string]map[weir.Kind]string{
			"AnalyzeContent": {weir.KindOther: "deep"},
		},
	}
	if _, err := weir.New(def, registryWith("A", "B")); err != nil {
		t.Fatalf("expected branching to resolve the step, got %v", err)
	}
}

func TestNewRejectsSubPipelineStepsNeedingExpansion(t *testing.T) {
	// Expansion is one level only: sub-pipeline steps must be leaf tasks
	// even when a branching entry exists for them.
	def := &weir.Definition{
		Pipelines:    map[string][]string{"content": {"Outer"}},
		SubPipelines: map[string][]string{"deep": {"Inner"}},
		Branches: map[string]map[weir.Kind]string{
			"Outer": {weir.KindOther: "deep"},
			"Inner": {weir.KindOther: "deep"},
		},
	}
	_, err := weir.New(def, registryWith())
	if err == nil {
		t.Fatal("expected configuration error for unregistered sub-pipeline step")
	}
}

func TestNewRejectsUnknownSubPipelineReference(t *testing.T) {
	def := &weir.Definition{
		Pipelines: map[string][]string{"content": {"A"}},
		Branches: map[string]map[weir.Kind]string{
			"A": {weir.KindArticle: "ghost"},
		},
	}
	_, err := weir.New(def, registryWith("A"))
	if err == nil {
		t.Fatal("expected configuration error for unknown sub-pipeline")
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("expected error naming the sub-pipeline, got %q", err)
	}
}

func TestNewRejectsDuplicateOutputKeys(t *testing.T) {
	def := &weir.Definition{
		Pipelines: map[string][]string{"content": {"A", "B"}},
		Rules: map[string]weir.DataRule{
			"A": {Output: "shared"},
			"B": {Output: "shared"},
		},
	}
	_, err := weir.New(def, registryWith("A", "B"))
	if err == nil {
		t.Fatal("expected configuration error for output key collision")
	}
	if !strings.Contains(err.Error(), "shared") {
		t.Errorf("expected error naming the colliding key, got %q", err)
	}
}

func TestNewRejectsRequiredRuleWithoutInput(t *testing.T) {
	def := &weir.Definition{
		Pipelines: map[string][]string{"content": {"A"}},
		Rules:     map[string]weir.DataRule{"A": {Required: true}},
	}
	if _, err := weir.New(def, registryWith("A")); err == nil {
		t.Fatal("expected configuration error for required rule without input key")
	}
}

func TestNewCollectsAllErrors(t *testing.T) {
	def := &weir.Definition{
		Pipelines: map[string][]string{
			"content": {"Missing1", "Missing2"},
			"empty":   {},
		},
	}
	_, err := weir.New(def, registryWith())
	if err == nil {
		t.Fatal("expected configuration errors")
	}
	var cfgErrs weir.ConfigErrors
	if !errors.As(err, &cfgErrs) {
		t.Fatalf("expected ConfigErrors, got %T", err)
	}
	if len(cfgErrs) < 3 {
		t.Errorf("expected all errors collected, got %d: %v", len(cfgErrs), err)
	}
}

func TestNewRejectsEmptyDefinition(t *testing.T) {
	if _, err := weir.New(&weir.Definition{}, registryWith()); err == nil {
		t.Fatal("expected error for definition with no pipelines")
	}
	if _, err := weir.New(nil, registryWith()); err == nil {
		t.Fatal("expected error for nil definition")
	}
}
