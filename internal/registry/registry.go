package registry

import (
	"sort"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered hook handlers for a single application
// instance.
type Registry struct {
	HookRegistry map[string]*RegisteredHook
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		HookRegistry: make(map[string]*RegisteredHook),
	}
}

// Lookup returns the handler registered for a hook type.
func (r *Registry) Lookup(hookType string) (*RegisteredHook, bool) {
	h, ok := r.HookRegistry[hookType]
	return h, ok
}

// Types returns the registered hook type names in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.HookRegistry))
	for t := range r.HookRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
