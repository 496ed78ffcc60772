package directory

import "sync"

// Registry is the append-only set of user DNs whose credential check has
// been installed. A DN enters the registry the first time a refresh sees its
// record and is never removed.
type Registry struct {
	mu  sync.Mutex
	dns map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{dns: make(map[string]struct{})}
}

// Register adds dn if it is absent and reports whether it was added.
func (r *Registry) Register(dn string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.dns[dn]; ok {
		return false
	}
	r.dns[dn] = struct{}{}
	return true
}

// Contains reports whether dn has been registered.
func (r *Registry) Contains(dn string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.dns[dn]
	return ok
}

// Len returns the number of registered DNs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.dns)
}
