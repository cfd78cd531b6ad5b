package fairvalue

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the known model versions and the default one.
type Registry struct {
	mu       sync.RWMutex
	models   map[string]Model
	fallback string
}

// NewRegistry registers models; the first becomes the default.
func NewRegistry(models ...Model) (*Registry, error) {
	r := &Registry{models: make(map[string]Model)}
	for _, m := range models {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry contains the built-in tunings with v1 as default.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(V1(), V2())
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds or replaces a model version.
func (r *Registry) Register(m Model) error {
	if err := m.Check(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.Version] = m
	if r.fallback == "" {
		r.fallback = m.Version
	}
	return nil
}

// SetDefault selects the version used when none is requested.
func (r *Registry) SetDefault(version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[version]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModel, version)
	}
	r.fallback = version
	return nil
}

// Get returns a model by version; "" returns the default.
func (r *Registry) Get(version string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if version == "" {
		version = r.fallback
	}
	m, ok := r.models[version]
	if !ok {
		return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, version)
	}
	return m, nil
}

// Default returns the default version name.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Versions lists registered versions in lexical order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.models))
	for v := range r.models {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
