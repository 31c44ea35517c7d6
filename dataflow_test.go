package weir_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cobbet/weir"
)

func TestSnapshotRoundTrip(t *testing.T) {
	log := &callLog{}
	reg := weir.NewRegistry()
	reg.Add(loggingTask(log, "A"), failingTask(log, "B"))

	def := &weir.Definition{
		Pipelines: map[string][]string{"content": {"A", "B"}},
		Rules: map[string]weir.DataRule{
			"A": {Output: "a_out"},
		},
	}
	engine, err := weir.New(def, reg)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	run, err := engine.Run(context.Background(), "content", testRecord())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	data, err := run.Snapshot()
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty snapshot")
	}

	restored, err := weir.RestoreSnapshot(data)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if restored.ID != run.ID {
		t.Errorf("run id changed: %s != %s", restored.ID, run.ID)
	}
	if restored.Pipeline != run.Pipeline {
		t.Errorf("pipeline changed: %q != %q", restored.Pipeline, run.Pipeline)
	}
	if restored.Content.ID != run.Content.ID {
		t.Errorf("content identity changed: %q != %q", restored.Content.ID, run.Content.ID)
	}
	if restored.Success != run.Success || restored.HaltedAt != run.HaltedAt {
		t.Errorf("outcome changed: success=%v halted=%q", restored.Success, restored.HaltedAt)
	}
	if diff := cmp.Diff(run.Steps, restored.Steps); diff != "" {
		t.Errorf("step order changed (-run +restored):\n%s", diff)
	}
	if len(restored.Results) != len(run.Results) {
		t.Fatalf("expected %d results, got %d", len(run.Results), len(restored.Results))
	}
	for step, want := range run.Results {
		got, ok := restored.Results[step]
		if !ok {
			t.Errorf("result for %q lost in round trip", step)
			continue
		}
		if got.Success != want.Success || got.Code != want.Code || got.Error != want.Error {
			t.Errorf("result for %q changed: %+v != %+v", step, got, want)
		}
	}
}

func TestRestoreSnapshotRejectsGarbage(t *testing.T) {
	if _, err := weir.RestoreSnapshot([]byte("not msgpack")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRunContentIsCloned(t *testing.T) {
	reg := weir.NewRegistry()
	reg.Add(weir.NewTask("Mutate", func(_ context.Context, c weir.Content, _ weir.Input) (map[string]any, error) {
		c.Meta["touched"] = "yes"
		return map[string]any{}, nil
	}))

	def := &weir.Definition{
		Pipelines: map[string][]string{"content": {"Mutate"}},
	}
	engine, err := weir.New(def, reg)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	record := testRecord()
	record.Meta = map[string]string{"origin": "feed"}

	if _, err := engine.Run(context.Background(), "content", record); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := record.Meta["touched"]; ok {
		t.Error("caller's record mutated by run")
	}
}
