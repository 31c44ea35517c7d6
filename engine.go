// Package weir is a content-processing pipeline engine. It loads a
// declarative pipeline definition (ordered step names, kind-specific
// sub-pipelines, branching rules, context-passing rules), validates every
// reference against an explicit task registry at load time, and drives
// execution: one content record per run, each step receiving explicit data
// handed forward from prior steps through the run context, with failures
// captured as standardized results instead of crashes.
//
// Basic usage:
//
//	registry := weir.NewRegistry()
//	registry.Add(weir.NewTask("ExtractKeywords", extractFunc))
//
//	def, err := weir.LoadDefinition("pipelines.yaml")
//	engine, err := weir.New(def, registry)
//
//	run, err := engine.Run(ctx, "content", record)
//	if run.Success {
//	    keywords := run.Outputs["keywords"]
//	}
package weir

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
	"golang.org/x/sync/errgroup"
)

// Default execution policy.
const (
	DefaultStepTimeout   = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 100 * time.Millisecond
)

// Engine sequences pipeline runs against an immutable definition. After New
// returns, the definition is never mutated, so a single engine is safe for
// unsynchronized concurrent runs.
type Engine struct { //nolint:govet
	def    *Definition
	reg    *Registry
	router *Router

	stepTimeout   time.Duration
	retryAttempts int
	retryBackoff  time.Duration
	params        map[string]map[string]any
}

// Option configures an Engine.
type Option func(*Engine)

// WithStepTimeout sets the per-step deadline applied at the task boundary.
// Zero disables the deadline.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) { e.stepTimeout = d }
}

// WithRetry sets the attempt count and exponential-backoff base delay for
// retryable failures. Attempts of 1 disables retries.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(e *Engine) {
		e.retryAttempts = attempts
		e.retryBackoff = backoff
	}
}

// WithTaskParams sets static parameters handed to a step on every run.
func WithTaskParams(step string, params map[string]any) Option {
	return func(e *Engine) { e.params[step] = params }
}

// New validates the definition against the registry and constructs an
// engine. Validation failures return ConfigErrors naming every
// unresolvable step and malformed rule with its path; the engine is never
// partially constructed.
func New(def *Definition, reg *Registry, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, ConfigErrors{{Message: "nil definition"}}
	}
	if reg == nil {
		return nil, ConfigErrors{{Message: "nil registry"}}
	}
	if err := validateDefinition(def, reg); err != nil {
		return nil, err
	}

	e := &Engine{
		def:           def,
		reg:           reg,
		router:        newRouter(def),
		stepTimeout:   DefaultStepTimeout,
		retryAttempts: DefaultRetryAttempts,
		retryBackoff:  DefaultRetryBackoff,
		params:        make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(e)
	}

	capitan.Emit(context.Background(), EngineCreated,
		KeyCount.Field(len(def.Pipelines)))
	return e, nil
}

// Router exposes the engine's branching router.
func (e *Engine) Router() *Router { return e.router }

// frame is one scheduled step after expansion. Parent is the sub-pipeline
// name for spliced steps, empty for top-level leaves.
type frame struct {
	step   string
	parent string
}

// resolveSteps splices sub-pipeline expansions into the top-level step
// list. Expansion is one level deep: spliced steps are leaves and are
// never re-expanded.
func (e *Engine) resolveSteps(runID string, steps []string, kind Kind) []frame {
	frames := make([]frame, 0, len(steps))
	for _, step := range steps {
		subSteps, sub := e.router.Expand(step, kind)
		if sub == "" {
			frames = append(frames, frame{step: step})
			continue
		}
		capitan.Emit(context.Background(), StepExpanded,
			KeyRun.Field(runID),
			KeyStep.Field(step),
			KeySub.Field(sub),
			KeyStepCount.Field(len(subSteps)))
		for _, ss := range subSteps {
			frames = append(frames, frame{step: ss, parent: sub})
		}
	}
	return frames
}

// Run executes the named pipeline against one content record. The returned
// run context reports per-step results, overall success, and the step (if
// any) that halted forward progress. Step failures never surface as
// errors; only an unknown pipeline name does.
func (e *Engine) Run(ctx context.Context, pipeline string, content Content) (*Run, error) {
	steps, ok := e.def.Pipelines[pipeline]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}

	run := newRun(pipeline, content)
	frames := e.resolveSteps(run.ID.String(), steps, content.Kind)
	run.Steps = make([]string, len(frames))
	for i, f := range frames {
		run.Steps[i] = f.step
	}

	capitan.Emit(ctx, RunStarted,
		KeyRun.Field(run.ID.String()),
		KeyPipeline.Field(pipeline),
		KeyContent.Field(content.ID),
		KeyKind.Field(string(content.Kind)),
		KeyStepCount.Field(len(frames)))

	run.Success = true
	skipParent := ""

	for i, f := range frames {
		// Cancellation is checked between steps, never mid-task.
		if err := ctx.Err(); err != nil {
			run.Cancelled = true
			run.Success = false
			if run.HaltedAt == "" {
				run.HaltedAt = f.step
			}
			capitan.Emit(context.Background(), RunCancelled,
				KeyRun.Field(run.ID.String()),
				KeyStep.Field(f.step))
			break
		}

		if skipParent != "" && f.parent == skipParent {
			e.recordSkip(run, f.step)
			continue
		}
		skipParent = ""

		rule := e.def.ruleFor(f.step)
		res := e.executeStep(ctx, run, f.step, rule)

		if err := run.recordOutput(f.step, rule, res); err != nil {
			// Overwrite guards trip only on definitions that slipped
			// past validation via branching; treat as step failure.
			res = Fail(f.step, run.Content, CodeExecution, err.Error())
			run.Results[f.step] = res
		}

		if res.Success {
			capitan.Emit(ctx, StepCompleted,
				KeyRun.Field(run.ID.String()),
				KeyStep.Field(f.step))
			continue
		}

		run.Success = false
		if run.HaltedAt == "" {
			run.HaltedAt = f.step
		}
		capitan.Emit(ctx, StepFailed,
			KeyRun.Field(run.ID.String()),
			KeyStep.Field(f.step),
			KeyCode.Field(res.Code),
			KeyError.Field(res.Error))

		// Failure is step-local: stop the remainder of the current
		// sub-pipeline branch, but let independent siblings run.
		if f.parent != "" {
			skipParent = f.parent
		}

		// Unless every remaining step requires this step's output, in
		// which case nothing downstream can make progress.
		if e.failureIsFatal(rule.Output, frames[i+1:]) {
			capitan.Emit(ctx, RunHalted,
				KeyRun.Field(run.ID.String()),
				KeyStep.Field(f.step))
			for _, rest := range frames[i+1:] {
				e.recordSkip(run, rest.step)
			}
			break
		}
	}

	run.FinishedAt = time.Now().UTC()
	capitan.Emit(ctx, RunCompleted,
		KeyRun.Field(run.ID.String()),
		KeyPipeline.Field(pipeline),
		KeySuccess.Field(run.Success),
		KeyDuration.Field(run.FinishedAt.Sub(run.StartedAt)))
	return run, nil
}

// failureIsFatal reports whether every remaining step declares the failed
// output key as its required input, leaving the run no way forward.
func (e *Engine) failureIsFatal(failedOutput string, remaining []frame) bool {
	if len(remaining) == 0 {
		return false
	}
	for _, f := range remaining {
		rule := e.def.ruleFor(f.step)
		if !rule.Required || rule.Input != failedOutput {
			return false
		}
	}
	return true
}

func (e *Engine) recordSkip(run *Run, step string) {
	if _, exists := run.Results[step]; exists {
		return
	}
	code := CodeInput
	msg := "skipped: upstream step failed"
	if run.Cancelled {
		code = CodeCancelled
		msg = "skipped: run cancelled"
	}
	run.Results[step] = Fail(step, run.Content, code, msg)
	capitan.Emit(context.Background(), StepSkipped,
		KeyRun.Field(run.ID.String()),
		KeyStep.Field(step))
}

// stepState is the payload threaded through the pipz connectors for one
// step invocation.
type stepState struct {
	content Content
	input   Input
	result  Result
}

func (s stepState) Clone() stepState {
	out := s
	out.content = s.content.Clone()
	return out
}

// retryableFailure surfaces a retryable failed result as an error so the
// pipz retry layer re-runs the step. Non-retryable failures stay plain
// results and pass through untouched.
type retryableFailure struct {
	result Result
}

func (e *retryableFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.result.Code, e.result.Error)
}

// executeStep resolves the step's input and invokes its task through the
// pipz execution chain: the task body wrapped in a per-attempt timeout,
// wrapped in exponential backoff for retryable failures. Whatever happens
// inside, the step produces a Result.
func (e *Engine) executeStep(ctx context.Context, run *Run, step string, rule DataRule) Result {
	input, failure := run.resolveInput(step, rule)
	if failure != nil {
		return *failure
	}

	task, ok := e.reg.Get(step)
	if !ok {
		// Unreachable for validated definitions.
		return Fail(step, run.Content, CodeExecution,
			fmt.Sprintf("no task registered for step %q", step))
	}

	runner := pipz.Apply(pipz.Name(step), func(ctx context.Context, s stepState) (stepState, error) {
		res := task.Execute(ctx, s.content, s.input)
		if !res.Success && res.Retryable {
			return s, &retryableFailure{result: res}
		}
		s.result = res
		return s, nil
	})

	var chain pipz.Chainable[stepState] = runner
	if e.stepTimeout > 0 {
		chain = pipz.NewTimeout(pipz.Name(step+".timeout"), chain, e.stepTimeout)
	}
	if e.retryAttempts > 1 {
		chain = pipz.NewBackoff(pipz.Name(step+".backoff"), chain, e.retryAttempts, e.retryBackoff)
	}

	state := stepState{
		content: run.Content,
		input:   Input{Data: input, Params: e.params[step]},
	}

	out, err := chain.Process(ctx, state)
	if err != nil {
		return e.classifyError(step, run.Content, err)
	}
	return out.result
}

// classifyError converts an error escaping the pipz chain into a failed
// result: timeouts keep a distinguishable code so retry policy can tell
// them apart from validation failures; exhausted retryable failures return
// the task's own final result.
func (e *Engine) classifyError(step string, c Content, err error) Result {
	timeout := errors.Is(err, context.DeadlineExceeded)
	var pe *pipz.Error[stepState]
	if errors.As(err, &pe) && pe.Timeout {
		timeout = true
	}
	if timeout {
		return Fail(step, c, CodeTimeout,
			fmt.Sprintf("step exceeded deadline of %s", e.stepTimeout)).AsRetryable()
	}

	var rf *retryableFailure
	if errors.As(err, &rf) {
		return rf.result
	}
	return Fail(step, c, CodeExecution, err.Error())
}

// RunBatch executes the named pipeline over independent records
// concurrently, one run per record. Runs share only the immutable
// definition; each owns its context. The returned slice is ordered like
// the input. An unknown pipeline name fails the batch.
func (e *Engine) RunBatch(ctx context.Context, pipeline string, records []Content) ([]*Run, error) {
	if _, ok := e.def.Pipelines[pipeline]; !ok {
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}

	runs := make([]*Run, len(records))
	g, gctx := errgroup.WithContext(ctx)
	for i, record := range records {
		g.Go(func() error {
			run, err := e.Run(gctx, pipeline, record)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
