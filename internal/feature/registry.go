package feature

import (
	"fmt"
	"sync"
)

// Registry binds names discovered in the features tree to Go functions.
// A step file "100-validate-input.md" resolves to the StepFunc registered
// under "validate-input"; override files name initializers and error hooks
// the same way.
//
// Registration normally happens once at startup, before the scan, but the
// registry is safe for concurrent use so watch-mode rescans can run while
// requests are in flight.
type Registry struct {
	mu           sync.RWMutex
	steps        map[string]StepFunc
	tasks        map[string]AsyncTaskFunc
	initializers map[string]Initializer
	hooks        map[string]ErrorHook
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		steps:        make(map[string]StepFunc),
		tasks:        make(map[string]AsyncTaskFunc),
		initializers: make(map[string]Initializer),
		hooks:        make(map[string]ErrorHook),
	}
}

// RegisterStep binds a step function to name, replacing any previous
// binding. It panics on a nil function: a nil step is a programming error
// that would otherwise surface only at request time.
func (reg *Registry) RegisterStep(name string, fn StepFunc) {
	if fn == nil {
		panic(fmt.Sprintf("feature: step %q has nil function", name))
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.steps[name] = fn
}

// RegisterTask binds an async task function to name.
func (reg *Registry) RegisterTask(name string, fn AsyncTaskFunc) {
	if fn == nil {
		panic(fmt.Sprintf("feature: async task %q has nil function", name))
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.tasks[name] = fn
}

// RegisterInitializer binds a context initializer to name.
func (reg *Registry) RegisterInitializer(name string, fn Initializer) {
	if fn == nil {
		panic(fmt.Sprintf("feature: initializer %q has nil function", name))
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.initializers[name] = fn
}

// RegisterErrorHook binds an error hook to name.
func (reg *Registry) RegisterErrorHook(name string, fn ErrorHook) {
	if fn == nil {
		panic(fmt.Sprintf("feature: error hook %q has nil function", name))
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.hooks[name] = fn
}

// Step resolves a registered step function by name.
func (reg *Registry) Step(name string) (StepFunc, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	fn, ok := reg.steps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStepNotRegistered, name)
	}
	return fn, nil
}

// Task resolves a registered async task function by name.
func (reg *Registry) Task(name string) (AsyncTaskFunc, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	fn, ok := reg.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotRegistered, name)
	}
	return fn, nil
}

// Initializer resolves a registered context initializer by name.
func (reg *Registry) Initializer(name string) (Initializer, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	fn, ok := reg.initializers[name]
	if !ok {
		return nil, fmt.Errorf("%w: initializer %q", ErrHookNotRegistered, name)
	}
	return fn, nil
}

// ErrorHook resolves a registered error hook by name.
func (reg *Registry) ErrorHook(name string) (ErrorHook, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	fn, ok := reg.hooks[name]
	if !ok {
		return nil, fmt.Errorf("%w: error hook %q", ErrHookNotRegistered, name)
	}
	return fn, nil
}
