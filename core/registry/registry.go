package registry

import (
	"context"
	"fmt"
	"sync"

	"tcbench/core/model"
)

// Constructor builds a fresh model instance.
type Constructor func() any

type entry struct {
	name string
	ctor Constructor
}

// Registry maps (kind, name) pairs to model constructors. Registration order
// is kept per kind because compiler probing picks the first match.
type Registry struct {
	mu     sync.RWMutex
	models map[model.Kind][]entry
}

func New() *Registry {
	return &Registry{models: map[model.Kind][]entry{}}
}

// Register adds or replaces a constructor under a given name. Replacing keeps
// its first position.
func (r *Registry) Register(kind model.Kind, name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.models[kind]
	for i := range entries {
		if entries[i].name == name {
			entries[i].ctor = ctor
			return
		}
	}
	r.models[kind] = append(entries, entry{name: name, ctor: ctor})
}

// PluginPath is the location a model of this kind and name is reported
// under in errors and manifests.
func PluginPath(kind model.Kind, name string) string {
	return fmt.Sprintf("models/%ss/%s_model", kind, name)
}

// Resolve returns a fresh instance of the named model.
func (r *Registry) Resolve(kind model.Kind, name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.models[kind] {
		if e.name == name {
			return e.ctor(), nil
		}
	}
	return nil, &model.PluginError{Kind: kind, Name: name, Path: PluginPath(kind, name), Err: model.ErrPluginNotFound}
}

// Names returns the registered names of a kind in registration order.
func (r *Registry) Names(kind model.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.models[kind]))
	for _, e := range r.models[kind] {
		out = append(out, e.name)
	}
	return out
}

func (r *Registry) ResolveBenchmark(name string) (model.Benchmark, error) {
	return resolveAs[model.Benchmark](r, model.KindBenchmark, name)
}

func (r *Registry) ResolveCompiler(name string) (model.Compiler, error) {
	return resolveAs[model.Compiler](r, model.KindCompiler, name)
}

func (r *Registry) ResolveMachine(name string) (model.Machine, error) {
	return resolveAs[model.Machine](r, model.KindMachine, name)
}

func resolveAs[T any](r *Registry, kind model.Kind, name string) (T, error) {
	var zero T
	v, err := r.Resolve(kind, name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &model.PluginError{Kind: kind, Name: name, Path: PluginPath(kind, name), Err: model.ErrPluginInvalid}
	}
	return typed, nil
}

// ProbeCompiler asks each registered compiler, in registration order,
// whether path belongs to it. The first match wins. A probe error stops the
// scan and is returned as is.
func (r *Registry) ProbeCompiler(ctx context.Context, p model.Prober, path string) (model.Compiler, model.Toolchain, error) {
	for _, name := range r.Names(model.KindCompiler) {
		c, err := r.ResolveCompiler(name)
		if err != nil {
			return nil, model.Toolchain{}, err
		}
		tc, ok, err := c.Check(ctx, p, path)
		if err != nil {
			return nil, model.Toolchain{}, err
		}
		if ok {
			return c, tc, nil
		}
	}
	return nil, model.Toolchain{}, &model.PluginError{Kind: model.KindCompiler, Path: path, Err: model.ErrPluginNotFound}
}
