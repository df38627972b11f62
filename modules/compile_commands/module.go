// Package compile_commands removes the bootloader's compilation database,
// which otherwise shadows the application's entries in editor tooling.
package compile_commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/fsutil"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "compile_commands"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'compile_commands' hook.
type Input struct {
	// Path is relative to the environment build dir.
	Path string `hcl:"path,optional"`
}

// OnRunCompileCommands is the handler for the 'compile_commands' hook. A
// missing file is not an error.
func OnRunCompileCommands(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	rel := input.Path
	if rel == "" {
		rel = filepath.Join("bootloader", "compile_commands.json")
	}
	path := filepath.Join(env.EnvBuildDir(), rel)

	removed, err := fsutil.RemoveIfExists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	if removed {
		logger.Info("Deleted compilation database", "path", path)
	} else {
		logger.Debug("Compilation database not present", "path", path)
	}
	return &buildenv.Effects{}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunCompileCommands(ctx, env, input.(*Input))
		},
	})
}
