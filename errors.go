package weir

import (
	"fmt"
	"strings"
)

// Failure codes carried on failed task results. Codes let callers and the
// retry layer distinguish failure classes without parsing error text.
const (
	// CodeValidation marks structural validation failures. Never retried.
	CodeValidation = "validation"

	// CodeExecution marks internal task faults that were caught and
	// converted into a failed result. Retried only when the task tags
	// the result retryable.
	CodeExecution = "execution"

	// CodeTimeout marks a step that exceeded its deadline. Always
	// eligible for retry.
	CodeTimeout = "timeout"

	// CodeInput marks an input-resolution failure: a required context
	// key was absent when the step was scheduled.
	CodeInput = "input"

	// CodeCancelled marks a step skipped because the run was cancelled.
	CodeCancelled = "cancelled"
)

// ConfigError represents a definition error with the path to the offending
// entry. Configuration errors are fatal at load time; a run never starts.
type ConfigError struct { //nolint:govet
	Path    []string // Path to the error in the definition
	Message string   // Error message
}

func (e ConfigError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", strings.Join(e.Path, "."), e.Message)
}

// ConfigErrors collects every definition error found during load.
type ConfigErrors []ConfigError

func (e ConfigErrors) Error() string {
	if len(e) == 0 {
		return "no configuration errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d configuration errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
