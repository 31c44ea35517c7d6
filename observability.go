package weir

import (
	"github.com/zoobzio/capitan"
)

// Engine signals for observability.
var (
	// Engine lifecycle.
	EngineCreated  = capitan.NewSignal("weir.engine.created", "Engine created")
	TaskRegistered = capitan.NewSignal("weir.task.registered", "Task registered")

	// Definition operations.
	DefinitionFileLoaded  = capitan.NewSignal("weir.definition.file.loaded", "Definition file loaded")
	DefinitionFileFailed  = capitan.NewSignal("weir.definition.file.failed", "Definition file failed")
	DefinitionParsed      = capitan.NewSignal("weir.definition.parsed", "Definition parsed")
	DefinitionParseFailed = capitan.NewSignal("weir.definition.parse.failed", "Definition parse failed")
	DefinitionValidated   = capitan.NewSignal("weir.definition.validated", "Definition validated")
	DefinitionInvalid     = capitan.NewSignal("weir.definition.invalid", "Definition invalid")

	// Run lifecycle.
	RunStarted   = capitan.NewSignal("weir.run.started", "Pipeline run started")
	RunCompleted = capitan.NewSignal("weir.run.completed", "Pipeline run completed")
	RunCancelled = capitan.NewSignal("weir.run.cancelled", "Pipeline run cancelled")
	RunHalted    = capitan.NewSignal("weir.run.halted", "Pipeline run halted by step failure")

	// Step execution.
	StepExpanded  = capitan.NewSignal("weir.step.expanded", "Step expanded into sub-pipeline")
	StepCompleted = capitan.NewSignal("weir.step.completed", "Step completed")
	StepFailed    = capitan.NewSignal("weir.step.failed", "Step failed")
	StepSkipped   = capitan.NewSignal("weir.step.skipped", "Step skipped")

	// Scoring.
	KeywordsScored = capitan.NewSignal("weir.keywords.scored", "Keywords scored")
)

// Field keys for event data.
var (
	KeyPipeline   = capitan.NewStringKey("pipeline")
	KeyStep       = capitan.NewStringKey("step")
	KeySub        = capitan.NewStringKey("sub_pipeline")
	KeyRun        = capitan.NewStringKey("run")
	KeyContent    = capitan.NewStringKey("content")
	KeyKind       = capitan.NewStringKey("kind")
	KeyName       = capitan.NewStringKey("name")
	KeyPath       = capitan.NewStringKey("path")
	KeyVersion    = capitan.NewStringKey("version")
	KeyError      = capitan.NewStringKey("error")
	KeyCode       = capitan.NewStringKey("code")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyErrorCount = capitan.NewIntKey("error_count")
	KeyStepCount  = capitan.NewIntKey("step_count")
	KeySizeBytes  = capitan.NewIntKey("size_bytes")
	KeyCount      = capitan.NewIntKey("count")
	KeySuccess    = capitan.NewBoolKey("success")
)
