package weir

// DataRule declares how a step exchanges data with the run context: the
// context key it reads, the key its output is stored under, and whether the
// input must already be present. Steps know keys, never the identity of the
// step that produced them, so pipelines can be reordered or trimmed without
// touching task code.
type DataRule struct { //nolint:govet
	Input    string `json:"input,omitempty" yaml:"input,omitempty"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// Definition is the declarative pipeline specification. It is loaded once,
// validated as a whole, and treated as immutable for the duration of every
// run; concurrent reads need no synchronization after load.
type Definition struct { //nolint:govet
	// Version tracks the definition version for change management.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Pipelines maps a pipeline name to its ordered top-level step names.
	Pipelines map[string][]string `json:"pipelines" yaml:"pipelines"`

	// Rules maps a step name to its context-passing rule. A step with no
	// rule reads nothing and writes under its own name.
	Rules map[string]DataRule `json:"rules,omitempty" yaml:"rules,omitempty"`

	// SubPipelines maps a sub-pipeline name to its ordered step names.
	// Sub-pipeline steps always execute as leaf tasks: expansion is one
	// level deep and never recursive.
	SubPipelines map[string][]string `json:"sub_pipelines,omitempty" yaml:"sub_pipelines,omitempty"`

	// Branches maps a step name to a kind-keyed table of sub-pipeline
	// names. The reserved kind "other" is the fallback entry consulted
	// when no exact kind matches.
	Branches map[string]map[Kind]string `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// ruleFor returns the data rule for a step, defaulting the output key to
// the step's own name.
func (d *Definition) ruleFor(step string) DataRule {
	rule := d.Rules[step]
	if rule.Output == "" {
		rule.Output = step
	}
	return rule
}

// branchesFor reports whether a step has any branching entry, meaning it
// may resolve through expansion instead of a registered task.
func (d *Definition) branchesFor(step string) bool {
	return len(d.Branches[step]) > 0
}
