package weir

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Run is the mutable context scoped to one pipeline execution. It maps each
// step's declared output key to the payload that step produced, and keeps
// the full per-step results as an audit trail. Keys are never overwritten
// silently: each step writes a key owned only by that step, and a missing
// required key is an input-resolution failure, not a crash.
//
// A Run is owned by a single execution; concurrent runs never share one.
type Run struct { //nolint:govet
	ID       uuid.UUID
	Pipeline string
	Content  Content

	// Outputs maps declared output keys to the producing step's data.
	Outputs map[string]map[string]any

	// Results holds the full result of every executed step by step name.
	Results map[string]Result

	// Steps is the resolved step order actually scheduled, after
	// sub-pipeline expansion.
	Steps []string

	// Success is true when every executed step succeeded and the run was
	// not cancelled.
	Success bool

	// HaltedAt names the step whose failure first stopped forward
	// progress, empty when none did.
	HaltedAt string

	// Cancelled is true when the run stopped because its context was
	// cancelled between steps.
	Cancelled bool

	StartedAt  time.Time
	FinishedAt time.Time
}

func newRun(pipeline string, c Content) *Run {
	return &Run{
		ID:        uuid.New(),
		Pipeline:  pipeline,
		Content:   c.Clone(),
		Outputs:   make(map[string]map[string]any),
		Results:   make(map[string]Result),
		StartedAt: time.Now().UTC(),
	}
}

// resolveInput constructs a step's input from the context per its data
// rule. A required key that is absent yields a failed result naming the
// missing key; an optional absent key yields a nil input.
func (r *Run) resolveInput(step string, rule DataRule) (map[string]any, *Result) {
	if rule.Input == "" {
		return nil, nil
	}
	data, ok := r.Outputs[rule.Input]
	if !ok {
		if rule.Required {
			res := Fail(step, r.Content, CodeInput,
				fmt.Sprintf("required input key %q not present in run context", rule.Input))
			return nil, &res
		}
		return nil, nil
	}
	return data, nil
}

// recordOutput stores a step's result: the payload under the step's
// declared output key, and the full result under the step name for audit.
// Writing an already-populated output key is an error; keys are never
// silently overwritten.
func (r *Run) recordOutput(step string, rule DataRule, res Result) error {
	if _, exists := r.Results[step]; exists {
		return fmt.Errorf("step %q already recorded a result", step)
	}
	r.Results[step] = res

	if !res.Success {
		return nil
	}
	if _, exists := r.Outputs[rule.Output]; exists {
		return fmt.Errorf("output key %q already populated", rule.Output)
	}
	r.Outputs[rule.Output] = res.Data
	return nil
}

// runSnapshot is the serialized form of a run's audit trail.
type runSnapshot struct { //nolint:govet
	ID         string            `msgpack:"id"`
	Pipeline   string            `msgpack:"pipeline"`
	ContentID  string            `msgpack:"content_id"`
	Kind       Kind              `msgpack:"kind"`
	Steps      []string          `msgpack:"steps"`
	Results    map[string]Result `msgpack:"results"`
	Success    bool              `msgpack:"success"`
	HaltedAt   string            `msgpack:"halted_at,omitempty"`
	Cancelled  bool              `msgpack:"cancelled,omitempty"`
	StartedAt  time.Time         `msgpack:"started_at"`
	FinishedAt time.Time         `msgpack:"finished_at"`
}

// Snapshot serializes the run's audit trail with msgpack, suitable for
// persistence or transport by callers that archive run history.
func (r *Run) Snapshot() ([]byte, error) {
	return msgpack.Marshal(runSnapshot{
		ID:         r.ID.String(),
		Pipeline:   r.Pipeline,
		ContentID:  r.Content.ID,
		Kind:       r.Content.Kind,
		Steps:      r.Steps,
		Results:    r.Results,
		Success:    r.Success,
		HaltedAt:   r.HaltedAt,
		Cancelled:  r.Cancelled,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	})
}

// RestoreSnapshot decodes a snapshot produced by Snapshot. The content
// payload is not part of the snapshot; only its identity survives.
func RestoreSnapshot(data []byte) (*Run, error) {
	var snap runSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	id, err := uuid.Parse(snap.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id in snapshot: %w", err)
	}
	return &Run{
		ID:         id,
		Pipeline:   snap.Pipeline,
		Content:    Content{ID: snap.ContentID, Kind: snap.Kind},
		Outputs:    make(map[string]map[string]any),
		Results:    snap.Results,
		Steps:      snap.Steps,
		Success:    snap.Success,
		HaltedAt:   snap.HaltedAt,
		Cancelled:  snap.Cancelled,
		StartedAt:  snap.StartedAt,
		FinishedAt: snap.FinishedAt,
	}, nil
}
