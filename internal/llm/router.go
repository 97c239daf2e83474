package llm

import "fmt"

// Router maps engine names to providers with O(1) lookup and a configurable
// fallback used when the requested engine is not registered.
type Router struct {
	backends map[string]Provider
	fallback string
}

// NewRouter creates a router over the given backends.
func NewRouter(backends map[string]Provider, fallback string) *Router {
	return &Router{backends: backends, fallback: fallback}
}

// Route returns the provider for the engine name, falling back to the default.
func (r *Router) Route(engine string) (Provider, error) {
	if backend, ok := r.backends[engine]; ok {
		return backend, nil
	}
	if backend, ok := r.backends[r.fallback]; ok {
		return backend, nil
	}
	return nil, fmt.Errorf("no backend for engine %q", engine)
}

// Has reports whether a backend is registered for the engine name.
func (r *Router) Has(engine string) bool {
	_, ok := r.backends[engine]
	return ok
}

// Engines returns the names of all registered backends.
func (r *Router) Engines() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}
