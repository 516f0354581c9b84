/*
Package registry keeps track of the display surfaces notifications are emitted to.

Key Concepts:
  - Stable Keys: a surface is addressed by a fixed identifier ("notifications", "primary").
  - Idempotent Creation: EnsureSurface returns the live surface for a key or builds
    it through the factory; callers never learn which of the two happened.
  - Bounded Footprint: surfaces live in an LRU; an evicted or removed surface is closed.
*/
package registry

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnknownSurface is returned by Close-style operations on ids that are not open.
var ErrUnknownSurface = errors.New("registry: unknown surface")

// Registrar defines the gateway for surface management.
type Registrar interface {
	EnsureSurface(id string) (Surface, error)
	Lookup(id string) (Surface, bool)
	Remove(id string) error
	Shutdown()
}

var _ Registrar = (*Registry)(nil)

// Registry keeps surfaces in a bounded LRU. Pinned ids live outside it and
// are never evicted, only removed or shut down.
type Registry struct {
	config   registryConfig
	factory  Factory
	surfaces *lru.Cache[string, Surface]
	pinned   map[string]Surface

	// mu serialises the lookup-or-create sequence so a key is never built twice.
	mu sync.Mutex
}

type registryConfig struct {
	capacity int
	pinned   map[string]struct{}
}

const defaultCapacity = 16

// NewRegistry builds a registry whose surfaces are produced by factory.
func NewRegistry(factory Factory, opts ...Option) (*Registry, error) {
	if factory == nil {
		return nil, errors.New("registry: nil surface factory")
	}

	r := &Registry{
		config:  registryConfig{capacity: defaultCapacity, pinned: map[string]struct{}{}},
		factory: factory,
		pinned:  map[string]Surface{},
	}
	for _, opt := range opts {
		opt(r)
	}

	cache, err := lru.NewWithEvict[string, Surface](r.config.capacity, func(_ string, s Surface) {
		_ = s.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	r.surfaces = cache

	return r, nil
}

// EnsureSurface returns the open surface for id, creating it on first use.
func (r *Registry) EnsureSurface(id string) (Surface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.lookup(id); ok {
		return s, nil
	}

	s, err := r.factory(id)
	if err != nil {
		return nil, fmt.Errorf("registry: create surface %q: %w", id, err)
	}
	if _, ok := r.config.pinned[id]; ok {
		r.pinned[id] = s
	} else {
		r.surfaces.Add(id, s)
	}
	return s, nil
}

// Lookup reports the surface for id without creating it.
func (r *Registry) Lookup(id string) (Surface, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(id)
}

func (r *Registry) lookup(id string) (Surface, bool) {
	if s, ok := r.pinned[id]; ok {
		return s, true
	}
	return r.surfaces.Get(id)
}

// Remove closes and forgets the surface for id.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.pinned[id]; ok {
		delete(r.pinned, id)
		_ = s.Close()
		return nil
	}
	if !r.surfaces.Remove(id) {
		return fmt.Errorf("%w: %s", ErrUnknownSurface, id)
	}
	return nil
}

// Len returns the number of open surfaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pinned) + r.surfaces.Len()
}

// Shutdown closes every open surface.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.pinned {
		delete(r.pinned, id)
		_ = s.Close()
	}
	r.surfaces.Purge()
}
