package provider

import "sync"

// Registry holds all registered platform adapters keyed by platform.
type Registry struct {
	mu        sync.RWMutex
	providers map[Platform]SearchProvider
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[Platform]SearchProvider),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(p SearchProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns an adapter by platform, or nil if not registered.
func (r *Registry) Get(platform Platform) SearchProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[platform]
}

// All returns all registered adapters in a stable order.
func (r *Registry) All() []SearchProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []SearchProvider
	for _, platform := range AllPlatforms() {
		if p, ok := r.providers[platform]; ok {
			result = append(result, p)
		}
	}
	return result
}
