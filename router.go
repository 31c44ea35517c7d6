package weir

// Router decides whether a step expands into a sub-pipeline for a given
// content kind. Selection is a two-level lookup: first by step name, then
// by kind, falling back to the reserved KindOther entry. Expansion is
// purely structural: the router never inspects field values, only the
// declared kind.
type Router struct {
	branches map[string]map[Kind]string
	subs     map[string][]string
}

func newRouter(def *Definition) *Router {
	return &Router{
		branches: def.Branches,
		subs:     def.SubPipelines,
	}
}

// Expand returns the ordered sub-step names the step expands into for the
// kind, or nil when the step executes directly as a leaf task. The second
// return is the matched sub-pipeline name, empty when there is no
// expansion.
func (r *Router) Expand(step string, kind Kind) ([]string, string) {
	routes, ok := r.branches[step]
	if !ok {
		return nil, ""
	}

	sub, ok := routes[kind]
	if !ok {
		sub, ok = routes[KindOther]
	}
	if !ok {
		return nil, ""
	}

	steps, ok := r.subs[sub]
	if !ok {
		// Unresolvable sub-pipelines are rejected at load time; an
		// unknown name here means the step runs as a leaf.
		return nil, ""
	}
	return steps, sub
}
