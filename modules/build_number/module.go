// Package build_number stamps every build with a timestamp-based number.
package build_number

import (
	"context"
	"fmt"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "build_number"

const (
	defaultDefine = "BUILD_NUM"
	// Debug builds share one number per day so incremental rebuilds keep
	// their object files.
	debugLayout   = "20060102-debug"
	releaseLayout = "20060102150405"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'build_number' hook.
type Input struct {
	Define string `hcl:"define,optional"`
}

// Number returns the build number for the environment at the env's clock.
func Number(env *buildenv.Env) string {
	if env.IsDebug() {
		return env.Clock().Format(debugLayout)
	}
	return env.Clock().Format(releaseLayout)
}

// OnRunBuildNumber is the handler for the 'build_number' hook.
func OnRunBuildNumber(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	define := input.Define
	if define == "" {
		define = defaultDefine
	}
	num := Number(env)
	ctxlog.FromContext(ctx).Info("Build number", "define", define, "build_num", num)
	return &buildenv.Effects{
		BuildFlags: []string{fmt.Sprintf("-D%s=%s", define, num)},
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunBuildNumber(ctx, env, input.(*Input))
		},
	})
}
