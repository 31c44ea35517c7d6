package weir

import (
	"sort"
)

// EngineSpec provides a complete description of an engine's loaded
// pipelines and registered tasks for introspection and documentation.
type EngineSpec struct {
	Pipelines    []PipelineSpec `json:"pipelines"`
	SubPipelines []PipelineSpec `json:"sub_pipelines,omitempty"`
	Tasks        []TaskSpec     `json:"tasks"`
}

// PipelineSpec describes one named step list.
type PipelineSpec struct {
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}

// TaskSpec describes a registered task.
type TaskSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Spec returns the engine's introspection spec, sorted for stable output.
func (e *Engine) Spec() EngineSpec {
	spec := EngineSpec{
		Pipelines:    pipelineSpecs(e.def.Pipelines),
		SubPipelines: pipelineSpecs(e.def.SubPipelines),
		Tasks:        e.reg.Spec(),
	}
	return spec
}

func pipelineSpecs(table map[string][]string) []PipelineSpec {
	if len(table) == 0 {
		return nil
	}
	out := make([]PipelineSpec, 0, len(table))
	for name, steps := range table {
		out = append(out, PipelineSpec{
			Name:  name,
			Steps: append([]string(nil), steps...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Spec returns the registry's tasks sorted by name.
func (r *Registry) Spec() []TaskSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]TaskSpec, 0, len(r.tasks))
	for name, tm := range r.tasks {
		out = append(out, TaskSpec{
			Name:        name,
			Description: tm.description,
			Tags:        append([]string(nil), tm.tags...),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
