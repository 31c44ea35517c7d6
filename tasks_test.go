package weir_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cobbet/weir"
)

func builtinRegistry(t *testing.T) *weir.Registry {
	t.Helper()
	scorer, err := weir.NewScorer(weir.DefaultScorerConfig())
	if err != nil {
		t.Fatalf("failed to build scorer: %v", err)
	}
	reg := weir.NewRegistry()
	reg.AddWithMeta(weir.BuiltinTasks(scorer)...)
	return reg
}

func executeBuiltin(t *testing.T, step string, c weir.Content, in weir.Input) weir.Result {
	t.Helper()
	task, ok := builtinRegistry(t).Get(step)
	if !ok {
		t.Fatalf("built-in task %q not registered", step)
	}
	return task.Execute(context.Background(), c, in)
}

func TestBuiltinTasksRegistered(t *testing.T) {
	reg := builtinRegistry(t)
	for _, step := range []string{
		weir.StepDetectType,
		weir.StepExtractMetadata,
		weir.StepValidateStructure,
		weir.StepExtractKeywords,
		weir.StepScoreReadability,
	} {
		if _, ok := reg.Get(step); !ok {
			t.Errorf("missing built-in task %q", step)
		}
	}
}

func TestDetectType(t *testing.T) {
	res := executeBuiltin(t, weir.StepDetectType, testRecord(), weir.Input{})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.Data["kind"] != string(weir.KindArticle) {
		t.Errorf("expected article kind, got %v", res.Data["kind"])
	}
	if wc, ok := res.Data["word_count"].(int); !ok || wc == 0 {
		t.Errorf("expected positive word count, got %v", res.Data["word_count"])
	}
}

func TestExtractMetadataByKind(t *testing.T) {
	article := testRecord()
	res := executeBuiltin(t, weir.StepExtractMetadata, article, weir.Input{})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.Data["author"] != "Kim" {
		t.Errorf("expected article author, got %v", res.Data["author"])
	}

	transcript := weir.Content{
		ID:    "t-1",
		Title: "Roundtable",
		Body:  "Host: welcome. Guest: thanks for having me.",
		Kind:  weir.KindTranscript,
		Transcript: &weir.Transcript{
			Speakers: []string{"Host", "Guest"},
			Duration: "42m",
			Medium:   "podcast",
		},
	}
	res = executeBuiltin(t, weir.StepExtractMetadata, transcript, weir.Input{})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.Data["medium"] != "podcast" {
		t.Errorf("expected transcript medium, got %v", res.Data["medium"])
	}
	if _, ok := res.Data["author"]; ok {
		t.Error("transcript metadata must not carry article fields")
	}

	notes := weir.Content{
		ID:    "r-1",
		Title: "v2.0",
		Body:  "Highlights of this release.",
		Kind:  weir.KindReleaseNotes,
		ReleaseNotes: &weir.ReleaseNotes{
			Version:  "2.0.0",
			Changes:  []string{"a", "b"},
			Features: []string{"c"},
		},
	}
	res = executeBuiltin(t, weir.StepExtractMetadata, notes, weir.Input{})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.Data["version"] != "2.0.0" {
		t.Errorf("expected release version, got %v", res.Data["version"])
	}
	if res.Data["changes_count"] != 2 {
		t.Errorf("expected 2 changes, got %v", res.Data["changes_count"])
	}
}

func TestValidateStructureCompleteness(t *testing.T) {
	res := executeBuiltin(t, weir.StepValidateStructure, testRecord(), weir.Input{})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if res.Data["valid"] != true {
		t.Error("structurally sound record reported invalid")
	}
	// Title (20) + body (30) + snippet (15); no meta, short body, no
	// introduction or conclusion sections.
	if res.Data["completeness"] != 65 {
		t.Errorf("expected completeness 65, got %v", res.Data["completeness"])
	}
	warnings, ok := res.Data["warnings"].([]string)
	if !ok || len(warnings) == 0 {
		t.Errorf("expected short-body warning, got %v", res.Data["warnings"])
	}
}

func TestExtractKeywordsTask(t *testing.T) {
	record := testRecord()
	record.Body = scoringText

	res := executeBuiltin(t, weir.StepExtractKeywords, record, weir.Input{
		Params: map[string]any{"max_keywords": 3},
	})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}

	keywords, ok := res.Data["keywords"].([]weir.ScoredKeyword)
	if !ok {
		t.Fatalf("expected scored keywords, got %T", res.Data["keywords"])
	}
	if len(keywords) == 0 || len(keywords) > 3 {
		t.Fatalf("expected 1..3 keywords, got %d", len(keywords))
	}
	for i, kw := range keywords {
		if kw.Rank != i+1 {
			t.Errorf("ranks not contiguous: position %d has rank %d", i, kw.Rank)
		}
		if kw.Frequency == 0 {
			t.Errorf("keyword %q scored with zero occurrences", kw.Keyword)
		}
	}
	if total, ok := res.Data["total_candidates"].(int); !ok || total == 0 {
		t.Errorf("expected candidate count, got %v", res.Data["total_candidates"])
	}
}

func TestScoreReadabilityTask(t *testing.T) {
	record := testRecord()
	record.Body = "The cat sat on the mat. The dog ran to the park. We like short words."

	res := executeBuiltin(t, weir.StepScoreReadability, record, weir.Input{})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	score, ok := res.Data["readability"].(float64)
	if !ok {
		t.Fatalf("expected float score, got %T", res.Data["readability"])
	}
	if score <= 0 || score > 100 {
		t.Errorf("score out of range: %v", score)
	}
	// Short simple sentences read easily.
	if score < 80 {
		t.Errorf("expected high readability for simple prose, got %v", score)
	}
}

func TestNewTaskRejectsInvalidContent(t *testing.T) {
	res := executeBuiltin(t, weir.StepDetectType, weir.Content{}, weir.Input{})
	if res.Success {
		t.Fatal("expected validation failure for empty record")
	}
	if res.Code != weir.CodeValidation {
		t.Errorf("expected code %q, got %q", weir.CodeValidation, res.Code)
	}
	if res.Meta.ContentID != "" {
		t.Errorf("unexpected meta for empty record: %+v", res.Meta)
	}
}

func TestNewTaskRecoversPanics(t *testing.T) {
	task := weir.NewTask("Panics", func(_ context.Context, _ weir.Content, _ weir.Input) (map[string]any, error) {
		panic("unexpected nil")
	})
	res := task.Execute(context.Background(), testRecord(), weir.Input{})
	if res.Success {
		t.Fatal("expected failed result from panicking task")
	}
	if res.Code != weir.CodeExecution {
		t.Errorf("expected code %q, got %q", weir.CodeExecution, res.Code)
	}
	if !strings.Contains(res.Error, "unexpected nil") {
		t.Errorf("expected panic message in error, got %q", res.Error)
	}
}

func TestNewTaskClassifiesContextErrors(t *testing.T) {
	task := weir.NewTask("Slow", func(ctx context.Context, _ weir.Content, _ weir.Input) (map[string]any, error) {
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := task.Execute(ctx, testRecord(), weir.Input{})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Code != weir.CodeTimeout || !res.Retryable {
		t.Errorf("expected retryable timeout, got code=%q retryable=%v", res.Code, res.Retryable)
	}
}

func TestNewTaskWrapsPlainErrors(t *testing.T) {
	task := weir.NewTask("Broken", func(_ context.Context, _ weir.Content, _ weir.Input) (map[string]any, error) {
		return nil, errors.New("disk full")
	})
	res := task.Execute(context.Background(), testRecord(), weir.Input{})
	if res.Code != weir.CodeExecution || res.Retryable {
		t.Errorf("expected non-retryable execution failure, got code=%q retryable=%v", res.Code, res.Retryable)
	}
}
