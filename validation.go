package weir

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
)

// validateDefinition checks every reference in a definition against the
// registry. It collects all errors rather than stopping at the first, so a
// bad definition is reported in one pass. A non-nil return means the
// definition must not be used: loading never partially succeeds.
func validateDefinition(def *Definition, reg *Registry) error {
	start := time.Now()

	var errs ConfigErrors

	if len(def.Pipelines) == 0 {
		errs = append(errs, ConfigError{
			Path:    []string{"pipelines"},
			Message: "definition declares no pipelines",
		})
	}

	for name, steps := range def.Pipelines {
		path := []string{"pipelines", name}
		if len(steps) == 0 {
			errs = append(errs, ConfigError{Path: path, Message: "pipeline has no steps"})
			continue
		}
		validateStepList(def, reg, steps, path, true, &errs)
	}

	for name, steps := range def.SubPipelines {
		path := []string{"sub_pipelines", name}
		if len(steps) == 0 {
			errs = append(errs, ConfigError{Path: path, Message: "sub-pipeline has no steps"})
			continue
		}
		// Sub-pipeline steps are leaves: expansion is one level only, so
		// each must resolve to a registered task directly.
		validateStepList(def, reg, steps, path, false, &errs)
	}

	for step, routes := range def.Branches {
		path := []string{"branches", step}
		if len(routes) == 0 {
			errs = append(errs, ConfigError{Path: path, Message: "branching entry has no routes"})
			continue
		}
		for kind, sub := range routes {
			if _, ok := def.SubPipelines[sub]; !ok {
				errs = append(errs, ConfigError{
					Path:    append(append([]string{}, path...), string(kind)),
					Message: fmt.Sprintf("sub-pipeline %q not defined", sub),
				})
			}
		}
	}

	for step, rule := range def.Rules {
		if rule.Required && rule.Input == "" {
			errs = append(errs, ConfigError{
				Path:    []string{"rules", step},
				Message: "rule marked required but declares no input key",
			})
		}
	}

	if len(errs) == 0 {
		capitan.Emit(context.Background(), DefinitionValidated,
			KeyDuration.Field(time.Since(start)))
		return nil
	}

	capitan.Emit(context.Background(), DefinitionInvalid,
		KeyErrorCount.Field(len(errs)),
		KeyDuration.Field(time.Since(start)))
	return errs
}

// validateStepList checks each step in an ordered list: names must be
// non-empty and unique within the list, output keys must not collide, and
// each step must resolve to a registered task or, when expandable is set,
// to a branching entry.
func validateStepList(def *Definition, reg *Registry, steps []string, path []string, expandable bool, errs *ConfigErrors) {
	seenSteps := make(map[string]bool, len(steps))
	seenOutputs := make(map[string]string, len(steps))

	for i, step := range steps {
		at := append(append([]string{}, path...), fmt.Sprintf("[%d]", i))

		if step == "" {
			*errs = append(*errs, ConfigError{Path: at, Message: "empty step name"})
			continue
		}
		if seenSteps[step] {
			*errs = append(*errs, ConfigError{
				Path:    at,
				Message: fmt.Sprintf("duplicate step %q", step),
			})
			continue
		}
		seenSteps[step] = true

		_, registered := reg.Get(step)
		if !registered && !(expandable && def.branchesFor(step)) {
			*errs = append(*errs, ConfigError{
				Path:    at,
				Message: fmt.Sprintf("step %q resolves to no registered task and no branching entry", step),
			})
			continue
		}

		// Expanded steps do not write their own output key; their
		// sub-steps are checked in the sub-pipeline lists.
		if expandable && def.branchesFor(step) {
			continue
		}

		out := def.ruleFor(step).Output
		if owner, clash := seenOutputs[out]; clash {
			*errs = append(*errs, ConfigError{
				Path:    at,
				Message: fmt.Sprintf("output key %q already written by step %q", out, owner),
			})
			continue
		}
		seenOutputs[out] = step
	}
}
