package vcs

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/sandplan/internal/planerr"
)

// Factory opens a Provider for a repository.
type Factory func(repo Repository) (Provider, error)

// Module is implemented by provider packages to register themselves.
type Module interface {
	Register(r *Registry)
}

// Registry maps provider identifiers, such as "git", to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry with the given modules registered.
func NewRegistry(modules ...Module) *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterProvider registers the factory for a provider identifier.
func (r *Registry) RegisterProvider(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		panic(fmt.Sprintf("vcs provider with id '%s' already registered", id))
	}
	slog.Debug("Registering vcs provider.", "id", id)
	r.factories[id] = f
}

// Providers returns the registered identifiers in sorted order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Open returns a Provider for repo. An unknown provider identifier is a
// configuration error.
func (r *Registry) Open(repo Repository) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[repo.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, planerr.Configf(planerr.CodeUndefined,
			"The vcs provider '%s' of %s is not supported.", repo.Provider, repo.Source)
	}
	p, err := f(repo)
	if err != nil {
		return nil, planerr.WrapVcs(err, "open", repo.Path, repo.Source, repo.Revision)
	}
	return p, nil
}
