package media

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrNoSuchFactory = errors.New("media: no such element factory")
	ErrFactoryExists = errors.New("media: element factory already registered")
)

// Factory builds a new element instance called name.
type Factory func(name string) (Element, error)

// Registry maps factory names to constructors so elements can be created by
// name inside a pipeline.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrFactoryExists, name)
	}
	r.factories[name] = f
	return nil
}

// Has reports whether a factory called name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Names lists registered factories in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Make creates an element from the factory called factory.
func (r *Registry) Make(factory, name string) (Element, error) {
	r.mu.RLock()
	f, ok := r.factories[factory]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchFactory, factory)
	}
	if name == "" {
		name = factory
	}
	elem, err := f(name)
	if err != nil {
		return nil, fmt.Errorf("media: factory %s: %w", factory, err)
	}
	return elem, nil
}
