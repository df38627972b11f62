package config

import (
	"context"
)

// Loader is the interface for a format-specific pipeline loader.
type Loader interface {
	// Load reads the pipeline from the given paths, or a built-in default
	// when no path is given, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Pipeline, Converter, error)
}

// Converter binds hook configuration to Go values.
type Converter interface {
	// DecodeArguments decodes the hook's `arguments` block into target,
	// evaluating expressions against vars.
	DecodeArguments(ctx context.Context, hook *Hook, target any, vars *Variables) error

	// Enabled evaluates the hook's `enabled` expression.
	Enabled(ctx context.Context, hook *Hook, vars *Variables) (bool, error)
}
