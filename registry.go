package weir

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zoobzio/capitan"
)

// Input is what a task receives alongside the content record: the payload
// resolved from the run context per the step's data rule, and any static
// parameters configured for the step.
type Input struct {
	Data   map[string]any
	Params map[string]any
}

// Task is a named unit of work: a pure function of (content record, input)
// to a standardized Result. Tasks must never panic past the engine and must
// never return a result violating the Result invariants; tasks built with
// NewTask get both guarantees for free.
type Task interface {
	Name() string
	Execute(ctx context.Context, c Content, in Input) Result
}

// TaskFunc is the body of a task built with NewTask.
type TaskFunc func(ctx context.Context, c Content, in Input) (map[string]any, error)

// TaskMeta wraps a task with metadata for introspection.
type TaskMeta struct { //nolint:govet
	Task        Task
	Description string   // Human-readable description of what this task does
	Tags        []string // Categorization tags for discovery
}

type taskMeta struct {
	task        Task
	description string
	tags        []string
}

// Registry holds the step-name to task table. It is an explicit object
// constructed at startup and passed by reference into the engine, never
// ambient process-wide state, so independent engines can hold independent
// registries.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]taskMeta
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]taskMeta)}
}

// Add registers one or more tasks under their intrinsic names.
// For tasks with metadata, use AddWithMeta instead.
func (r *Registry) Add(tasks ...Task) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tasks {
		r.tasks[t.Name()] = taskMeta{task: t}
		capitan.Emit(context.Background(), TaskRegistered,
			KeyName.Field(t.Name()))
	}
}

// AddWithMeta registers one or more tasks with metadata for introspection.
func (r *Registry) AddWithMeta(tasks ...TaskMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tm := range tasks {
		r.tasks[tm.Task.Name()] = taskMeta{
			task:        tm.Task,
			description: tm.Description,
			tags:        tm.Tags,
		}
		capitan.Emit(context.Background(), TaskRegistered,
			KeyName.Field(tm.Task.Name()))
	}
}

// Get returns the task registered under a name.
func (r *Registry) Get(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tm, ok := r.tasks[name]
	if !ok {
		return nil, false
	}
	return tm.task, true
}

// Names returns all registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// funcTask adapts a TaskFunc into the full task contract: structural
// validation before work, panic recovery into a failed result, and metadata
// stamped on every outcome.
type funcTask struct {
	name string
	fn   TaskFunc
}

// NewTask builds a task from a function. The returned task validates the
// content record before calling fn (a failed result with the joined issues
// when validation fails), converts any panic or returned error into a
// failed result, and populates result metadata on every path.
func NewTask(name string, fn TaskFunc) Task {
	return &funcTask{name: name, fn: fn}
}

func (t *funcTask) Name() string { return t.name }

func (t *funcTask) Execute(ctx context.Context, c Content, in Input) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Fail(t.name, c, CodeExecution, fmt.Sprintf("task panicked: %v", r))
		}
	}()

	if issues, _ := c.Validate(); len(issues) > 0 {
		return Fail(t.name, c, CodeValidation, "content validation failed: "+strings.Join(issues, ", "))
	}

	data, err := t.fn(ctx, c, in)
	if err != nil {
		if ctx.Err() != nil {
			return Fail(t.name, c, CodeTimeout, err.Error()).AsRetryable()
		}
		return Fail(t.name, c, CodeExecution, err.Error())
	}
	return Succeed(t.name, c, data)
}
