// Package debug_cmds extends the debugger start-up commands with the
// project's .gdbinit when the host debugger can load pretty printers.
package debug_cmds

import (
	"context"
	"strings"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "debug_cmds"

const defaultSourceCmd = "source .gdbinit"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'debug_cmds' hook.
type Input struct {
	Command string `hcl:"command,optional"`
}

// OnRunDebugCmds is the handler for the 'debug_cmds' hook. The result is only
// reported as an effect; platformio.ini is never rewritten.
func OnRunDebugCmds(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	if !env.SupportsPrettyPrinters {
		return nil, buildenv.Skip("debugger on this host does not support pretty printers, leaving debug_extra_cmds unchanged")
	}

	cmd := input.Command
	if cmd == "" {
		cmd = defaultSourceCmd
	}
	cmds := append(env.Project.DebugExtraCmds(), cmd)
	joined := strings.Join(cmds, "\n")

	ctxlog.FromContext(ctx).Info("Updating debug_extra_cmds to include project .gdbinit with pretty printers", "debug_extra_cmds", cmds)
	return &buildenv.Effects{DebugExtraCmds: joined}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunDebugCmds(ctx, env, input.(*Input))
		},
	})
}
