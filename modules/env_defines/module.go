// Package env_defines turns every .env entry into a compiler define, so
// firmware can read secrets and endpoints without committing them.
package env_defines

import (
	"context"
	"slices"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "env_defines"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'env_defines' hook.
type Input struct {
	// SkipKeys are .env keys that stay out of the compiler command line.
	SkipKeys []string `hcl:"skip_keys,optional"`
}

// OnRunEnvDefines is the handler for the 'env_defines' hook. For every entry
// it emits -DKEY=value plus -DKEY on the unset list, so the framework drops
// any stale definition before the new one is applied.
func OnRunEnvDefines(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	if env.DotEnv == nil {
		return nil, buildenv.Skip("File .env not accessible, create one at the root of the project with the variables to define")
	}

	effects := &buildenv.Effects{}
	var keys []string
	for _, e := range env.DotEnv.Entries() {
		if slices.Contains(input.SkipKeys, e.Key) {
			logger.Debug("Skipping .env key", "key", e.Key, "line", e.Line)
			continue
		}
		effects.UnsetFlags = append(effects.UnsetFlags, e.Undefine())
		effects.BuildFlags = append(effects.BuildFlags, e.Define())
		keys = append(keys, e.Key)
	}

	// Values often carry credentials, so only keys are logged above debug.
	logger.Info("Defines from .env", "count", len(keys), "keys", keys)
	logger.Debug("Build flags from .env", "flags", effects.BuildFlags)
	return effects, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunEnvDefines(ctx, env, input.(*Input))
		},
	})
}
