package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dcshock/sewer/pipeline"
)

// Registry maps names to the parts a system config refers to: modules,
// filters, failure handlers and observers. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	modules   map[string]pipeline.Module[any, any]
	filters   map[string]pipeline.Filter[any]
	handlers  map[string]pipeline.FailureHandler
	observers map[string]pipeline.Observer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules:   make(map[string]pipeline.Module[any, any]),
		filters:   make(map[string]pipeline.Filter[any]),
		handlers:  make(map[string]pipeline.FailureHandler),
		observers: make(map[string]pipeline.Observer),
	}
}

// Register adds a module under the given name. Overwrites any existing registration.
func (r *Registry) Register(name string, m pipeline.Module[any, any]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[name] = m
}

// RegisterFunc registers fn as a Transform module.
func (r *Registry) RegisterFunc(name string, fn pipeline.ConvertFunc[any, any]) {
	r.Register(name, pipeline.Transform(fn))
}

// Get returns the module for name, or nil and false if not found.
func (r *Registry) Get(name string) (pipeline.Module[any, any], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// MustGet returns the module for name, or panics if not found.
func (r *Registry) MustGet(name string) pipeline.Module[any, any] {
	m, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("config: module %q not registered", name))
	}
	return m
}

// Names returns all registered module names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.modules)
}

// RegisterFilter adds a filter under the given name.
func (r *Registry) RegisterFilter(name string, f pipeline.Filter[any]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = f
}

// Filter returns the filter for name.
func (r *Registry) Filter(name string) (pipeline.Filter[any], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// FilterNames returns all registered filter names, sorted.
func (r *Registry) FilterNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.filters)
}

// RegisterHandler adds a failure handler under the given name.
func (r *Registry) RegisterHandler(name string, h pipeline.FailureHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Handler returns the failure handler for name.
func (r *Registry) Handler(name string) (pipeline.FailureHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// RegisterObserver adds an observer under the given name.
func (r *Registry) RegisterObserver(name string, o pipeline.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[name] = o
}

// Observer returns the observer for name.
func (r *Registry) Observer(name string) (pipeline.Observer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.observers[name]
	return o, ok
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
