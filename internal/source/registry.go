package source

import (
	"fmt"
	"sync"
)

// Registry is the thread-safe catalog of registered sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
	order   []*Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]*Source),
	}
}

// Register adds a source. Registering a duplicate ID is a programming
// error and fails.
func (r *Registry) Register(s *Source) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("source must have an ID")
	}
	if s.Fetcher == nil {
		return fmt.Errorf("source %s must have a fetcher", s.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[s.ID]; exists {
		return fmt.Errorf("source %s already registered", s.ID)
	}

	r.sources[s.ID] = s
	r.order = append(r.order, s)
	return nil
}

// Get returns the source with the given ID.
func (r *Registry) Get(id string) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	return s, ok
}

// List returns all sources in registration order.
func (r *Registry) List() []*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Source, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered sources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
