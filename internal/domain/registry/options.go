package registry

// Option defines a functional configuration type for the Registry.
type Option func(*Registry)

// WithCapacity bounds how many surfaces stay open at once.
// The least recently used surface is closed when the bound is exceeded.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.config.capacity = n
		}
	}
}

// WithPinned keeps the given ids out of the LRU so capacity pressure never closes them.
func WithPinned(ids ...string) Option {
	return func(r *Registry) {
		for _, id := range ids {
			r.config.pinned[id] = struct{}{}
		}
	}
}
