package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/piohooks/internal/buildenv"
)

// HandlerFunc runs a hook. input is the value returned by NewInput after
// the hook's arguments have been decoded into it.
type HandlerFunc func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error)

// RegisteredHook holds the compiled Go parts of a hook type.
type RegisteredHook struct {
	// NewInput returns a pointer to a fresh argument struct with `hcl` tags.
	NewInput func() any
	Fn       HandlerFunc
}

// RegisterHook registers the Go implementation of a hook type.
func (r *Registry) RegisterHook(hookType string, handler *RegisteredHook) {
	if _, exists := r.HookRegistry[hookType]; exists {
		panic(fmt.Sprintf("hook handler with type '%s' already registered", hookType))
	}
	if handler.NewInput == nil {
		handler.NewInput = func() any { return new(struct{}) }
	}
	slog.Debug("Registering hook handler.", "type", hookType)
	r.HookRegistry[hookType] = handler
}
