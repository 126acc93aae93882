package parser

import (
	"fmt"
	"sort"

	"docextract/internal/domain"
)

// Registry maps each provider kind to its adapter. It is built once at startup
// and read concurrently afterwards.
type Registry struct {
	adapters map[domain.ProviderKind]Adapter
}

// NewRegistry builds a registry from adapters. A later adapter replaces an
// earlier one of the same kind.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[domain.ProviderKind]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Kind()] = a
	}
	return r
}

// Resolve maps a stored provider tag to its adapter. Unknown or unregistered
// tags yield a *ConfigurationError wrapping domain.ErrUnknownProvider.
func (r *Registry) Resolve(tag string) (Adapter, error) {
	kind, ok := domain.ParseProviderKind(tag)
	if !ok {
		return nil, &ConfigurationError{Provider: tag, Reason: "unrecognized provider", Err: domain.ErrUnknownProvider}
	}
	a, ok := r.adapters[kind]
	if !ok {
		return nil, &ConfigurationError{Provider: tag, Reason: "no adapter registered", Err: domain.ErrUnknownProvider}
	}
	return a, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []domain.ProviderKind {
	kinds := make([]domain.ProviderKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Validate checks that every known provider kind has an adapter.
func (r *Registry) Validate() error {
	for _, k := range domain.AllProviderKinds {
		if _, ok := r.adapters[k]; !ok {
			return fmt.Errorf("no adapter registered for provider %q", k)
		}
	}
	return nil
}
