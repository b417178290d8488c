package config

import (
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"

	"github.com/dcshock/sewer/future"
	"github.com/dcshock/sewer/pipeline"
)

// ErrCycle is returned when nested systems refer to each other in a loop.
var ErrCycle = errors.New("config: nested systems form a cycle")

// BuildOptions configures how a system is built from config.
type BuildOptions struct {
	// Observer is attached to every built system, after the observers the
	// config names.
	Observer pipeline.Observer

	// Executor dispatches stage continuations (SystemBuilder.Executor).
	Executor future.Executor

	// Systems are already-built systems a stage may nest by name. BuildAllSystems
	// adds each system it builds.
	Systems map[string]*pipeline.System[any, any]
}

// BuildSystem builds a pipeline.System from config and registry. Module,
// filter, handler and observer names in config must be registered; nested
// system names must be in opts.Systems.
func BuildSystem(reg *Registry, cfg *SystemConfig, opts *BuildOptions) (*pipeline.System[any, any], error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &BuildOptions{}
	}
	name := cfg.Name
	if name == "" {
		name = pipeline.DefaultSystemName
	}

	stages := make([]pipeline.Stage[any, any], 0, len(cfg.Stages))
	for i := range cfg.Stages {
		st, err := buildStage(reg, &cfg.Stages[i], opts)
		if err != nil {
			return nil, errors.Wrapf(err, "system %q stage %d", name, i)
		}
		stages = append(stages, st)
	}

	b := pipeline.NewSystem(stages[0])
	for _, st := range stages[1:] {
		b.Append(st)
	}
	b.Name(name).Executor(opts.Executor)

	if cfg.OnFailure != "" {
		h, ok := reg.Handler(cfg.OnFailure)
		if !ok {
			return nil, errors.Errorf("system %q: handler %q not in registry", name, cfg.OnFailure)
		}
		b.OnFailure(h)
	}
	obs, err := BuildObserver(reg, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "system %q", name)
	}
	switch {
	case obs != nil && opts.Observer != nil:
		b.Observe(pipeline.MultiObserver(obs, opts.Observer))
	case obs != nil:
		b.Observe(obs)
	case opts.Observer != nil:
		b.Observe(opts.Observer)
	}
	return b.Build()
}

func buildStage(reg *Registry, st *StageConfig, opts *BuildOptions) (pipeline.Stage[any, any], error) {
	pre, post, err := stageFilters(reg, st)
	if err != nil {
		return nil, err
	}
	if st.System != "" {
		sys, ok := opts.Systems[st.System]
		if !ok {
			return nil, errors.Errorf("system %q not built", st.System)
		}
		return pipeline.NewNest(st.Name, sys).PreFilter(pre).PostFilter(post).Build()
	}

	modules := make([]pipeline.Module[any, any], 0, len(st.Modules))
	for _, name := range st.Modules {
		m, ok := reg.Get(name)
		if !ok {
			return nil, errors.Errorf("module %q not in registry", name)
		}
		modules = append(modules, m)
	}
	b := pipeline.NewPipe(st.Name, modules[0])
	for _, m := range modules[1:] {
		b.Then(m)
	}
	pipe, err := b.PreFilter(pre).PostFilter(post).Build()
	if err != nil {
		return nil, err
	}
	return pipe, nil
}

// stageFilters resolves a stage's filters; an absent one is nil and allows
// everything.
func stageFilters(reg *Registry, st *StageConfig) (pre, post pipeline.Filter[any], err error) {
	if st.PreFilter != nil {
		if pre, err = resolveFilter(reg, st.PreFilter); err != nil {
			return nil, nil, errors.Wrap(err, "pre_filter")
		}
	}
	if st.PostFilter != nil {
		if post, err = resolveFilter(reg, st.PostFilter); err != nil {
			return nil, nil, errors.Wrap(err, "post_filter")
		}
	}
	return pre, post, nil
}

func resolveFilter(reg *Registry, ref *FilterRef) (pipeline.Filter[any], error) {
	switch {
	case ref.Name != "":
		f, ok := reg.Filter(ref.Name)
		if !ok {
			return nil, errors.Errorf("filter %q not in registry", ref.Name)
		}
		return f, nil
	case ref.Not != nil:
		f, err := resolveFilter(reg, ref.Not)
		if err != nil {
			return nil, err
		}
		return f.Not(), nil
	case len(ref.And) > 0:
		return fold(reg, ref.And, pipeline.Filter[any].And)
	case len(ref.Or) > 0:
		return fold(reg, ref.Or, pipeline.Filter[any].Or)
	case len(ref.Xor) > 0:
		return fold(reg, ref.Xor, pipeline.Filter[any].Xor)
	default:
		return nil, errors.New("empty filter")
	}
}

func fold(reg *Registry, refs []FilterRef, op func(pipeline.Filter[any], pipeline.Filter[any]) pipeline.Filter[any]) (pipeline.Filter[any], error) {
	acc, err := resolveFilter(reg, &refs[0])
	if err != nil {
		return nil, err
	}
	for i := range refs[1:] {
		next, err := resolveFilter(reg, &refs[i+1])
		if err != nil {
			return nil, err
		}
		acc = op(acc, next)
	}
	return acc, nil
}

// BuildObserver returns a pipeline.Observer for the config's Observers list by looking up each name
// in the registry and combining them with pipeline.MultiObserver.
// If cfg.Observers is empty, returns (nil, nil). If any observer name is not registered, returns an error.
func BuildObserver(reg *Registry, cfg *SystemConfig) (pipeline.Observer, error) {
	if cfg == nil || len(cfg.Observers) == 0 {
		return nil, nil
	}
	list := make([]pipeline.Observer, 0, len(cfg.Observers))
	for i, name := range cfg.Observers {
		obs, ok := reg.Observer(name)
		if !ok {
			return nil, errors.Errorf("observer %d: %q not in registry", i, name)
		}
		list = append(list, obs)
	}
	return pipeline.MultiObserver(list...), nil
}

// Graph returns the nesting graph of multi: one vertex per system and an
// edge from each nested system to every system nesting it. Nested names not
// defined in multi must be in external; they get no vertex.
func Graph(multi *MultiSystemConfig, external map[string]*pipeline.System[any, any]) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	names := sortedKeys(multi.Systems)
	for _, name := range names {
		if err := g.AddVertex(name); err != nil {
			return nil, errors.Wrapf(err, "unable to add vertex %s", name)
		}
	}
	for _, name := range names {
		for i, st := range multi.Systems[name].Stages {
			if st.System == "" {
				continue
			}
			if _, ok := multi.Systems[st.System]; !ok {
				if _, ok := external[st.System]; ok {
					continue
				}
				return nil, errors.Errorf("system %q stage %d: system %q not defined", name, i, st.System)
			}
			err := g.AddEdge(st.System, name)
			switch {
			case errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return nil, errors.Wrapf(ErrCycle, "system %q nests %q", name, st.System)
			case err != nil:
				return nil, errors.Wrapf(err, "unable to add edge from %s to %s", st.System, name)
			}
		}
	}
	return g, nil
}

// Order returns the system names of multi so that every nested system comes
// before the systems nesting it. Ties are broken by name.
func Order(multi *MultiSystemConfig, external map[string]*pipeline.System[any, any]) ([]string, error) {
	g, err := Graph(multi, external)
	if err != nil {
		return nil, err
	}
	order, err := graph.StableTopologicalSort(g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort systems")
	}
	return order, nil
}

// BuildAllSystems builds a pipeline.System for each entry in multi, nested
// systems first. Keys are system names; a config without a Name takes its key.
func BuildAllSystems(reg *Registry, multi *MultiSystemConfig, opts *BuildOptions) (map[string]*pipeline.System[any, any], error) {
	if multi == nil {
		return nil, errors.New("MultiSystemConfig is nil")
	}
	if err := multi.Validate(); err != nil {
		return nil, err
	}
	base := BuildOptions{}
	if opts != nil {
		base = *opts
	}
	order, err := Order(multi, base.Systems)
	if err != nil {
		return nil, err
	}

	available := make(map[string]*pipeline.System[any, any], len(base.Systems)+len(order))
	for name, sys := range base.Systems {
		available[name] = sys
	}
	base.Systems = available

	out := make(map[string]*pipeline.System[any, any], len(order))
	for _, name := range order {
		cfg := multi.Systems[name]
		if cfg.Name == "" {
			cfg.Name = name
		}
		sys, err := BuildSystem(reg, &cfg, &base)
		if err != nil {
			return nil, err
		}
		out[name] = sys
		available[name] = sys
	}
	return out, nil
}

// WriteDOT writes the nesting graph of multi in Graphviz DOT format.
func WriteDOT(w io.Writer, multi *MultiSystemConfig) error {
	g, err := Graph(multi, nil)
	if err != nil {
		return err
	}
	return errors.Wrap(draw.DOT(g, w), "unable to render dot")
}
