package weir

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResultMeta is the bookkeeping attached to every result regardless of
// success, so failures stay traceable to a specific content record.
type ResultMeta struct { //nolint:govet
	ContentID  string    `json:"content_id" msgpack:"content_id"`
	Title      string    `json:"title,omitempty" msgpack:"title"`
	Kind       Kind      `json:"kind" msgpack:"kind"`
	CreatedAt  time.Time `json:"created_at,omitempty" msgpack:"created_at"`
	WordCount  int       `json:"word_count" msgpack:"word_count"`
	HasSnippet bool      `json:"has_snippet" msgpack:"has_snippet"`
	HasMeta    bool      `json:"has_meta" msgpack:"has_meta"`
}

// Result is the standardized envelope every task returns.
//
// Invariants: a failed result has a non-empty Error and no Data; a
// successful result has an empty Error. Meta is always populated.
type Result struct { //nolint:govet
	ID        uuid.UUID      `json:"id" msgpack:"id"`
	Task      string         `json:"task" msgpack:"task"`
	Success   bool           `json:"success" msgpack:"success"`
	Data      map[string]any `json:"data,omitempty" msgpack:"data"`
	Error     string         `json:"error,omitempty" msgpack:"error"`
	Code      string         `json:"code,omitempty" msgpack:"code"`
	Retryable bool           `json:"retryable,omitempty" msgpack:"retryable"`
	Meta      ResultMeta     `json:"meta" msgpack:"meta"`
	CreatedAt time.Time      `json:"created_at" msgpack:"created_at"`
}

func metaFor(c Content) ResultMeta {
	return ResultMeta{
		ContentID:  c.ID,
		Title:      c.Title,
		Kind:       c.Kind,
		CreatedAt:  c.CreatedAt,
		WordCount:  wordCount(c.Body),
		HasSnippet: c.Snippet != "",
		HasMeta:    len(c.Meta) > 0,
	}
}

// Succeed builds a successful result for a task.
func Succeed(task string, c Content, data map[string]any) Result {
	return Result{
		ID:        uuid.New(),
		Task:      task,
		Success:   true,
		Data:      data,
		Meta:      metaFor(c),
		CreatedAt: time.Now().UTC(),
	}
}

// Fail builds a failed result for a task. The code is one of the Code*
// constants; msg must be non-empty.
func Fail(task string, c Content, code, msg string) Result {
	if msg == "" {
		msg = "unknown failure"
	}
	return Result{
		ID:        uuid.New(),
		Task:      task,
		Success:   false,
		Error:     msg,
		Code:      code,
		Meta:      metaFor(c),
		CreatedAt: time.Now().UTC(),
	}
}

// AsRetryable marks a failed result eligible for the engine's retry policy.
func (r Result) AsRetryable() Result {
	r.Retryable = true
	return r
}

// Merge folds multiple results into a single envelope: success only if all
// succeeded, data keyed by task name, errors joined.
func Merge(c Content, results []Result) Result {
	if len(results) == 0 {
		return Fail("merged", c, CodeExecution, "no results to merge")
	}

	data := make(map[string]any)
	var errs []string
	for _, r := range results {
		if r.Success && r.Data != nil {
			data[r.Task] = r.Data
		}
		if !r.Success && r.Error != "" {
			errs = append(errs, r.Error)
		}
	}

	if len(errs) > 0 {
		return Fail("merged", c, CodeExecution, strings.Join(errs, "; "))
	}
	out := Succeed("merged", c, data)
	return out
}
