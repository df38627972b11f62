// Package upload_params supplies network (espota) upload parameters from
// .env, keeping device addresses and OTA passwords out of platformio.ini.
package upload_params

import (
	"context"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "upload_params"

// Default .env keys.
const (
	DefaultHostKey = "DEV_OTA_REMOTE_DEVICE_IP"
	DefaultPortKey = "DEV_OTA_HOST_PORT"
	DefaultAuthKey = "DEV_OTA_UPDATE_PASSWORD"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'upload_params' hook.
type Input struct {
	HostKey string `hcl:"host_key,optional"`
	PortKey string `hcl:"port_key,optional"`
	AuthKey string `hcl:"auth_key,optional"`
}

func (in *Input) withDefaults() Input {
	out := *in
	if out.HostKey == "" {
		out.HostKey = DefaultHostKey
	}
	if out.PortKey == "" {
		out.PortKey = DefaultPortKey
	}
	if out.AuthKey == "" {
		out.AuthKey = DefaultAuthKey
	}
	return out
}

// OnRunUploadParams is the handler for the 'upload_params' hook. It only acts
// when the upload protocol is espota. Every line of .env is considered; keys
// that are absent simply produce no parameter.
func OnRunUploadParams(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	if !env.IsNetworkUpload() {
		return nil, buildenv.Skip("upload protocol %q is not espota, keeping serial upload settings", env.UploadProtocol)
	}
	if env.DotEnv == nil {
		return nil, buildenv.Skip("File .env not accessible, create one at the root of the project with %s, %s and %s",
			DefaultHostKey, DefaultPortKey, DefaultAuthKey)
	}

	keys := input.withDefaults()
	effects := &buildenv.Effects{}
	if e, ok := env.DotEnv.Get(keys.HostKey); ok {
		effects.UploadPort = e.Unquoted()
		logger.Info("Upload port from .env", "key", keys.HostKey, "port", effects.UploadPort)
	} else {
		logger.Warn("Upload port not set in .env", "key", keys.HostKey)
	}
	if e, ok := env.DotEnv.Get(keys.PortKey); ok {
		effects.UploadFlags = append(effects.UploadFlags, "--host_port="+e.Unquoted())
		logger.Info("Host port from .env", "key", keys.PortKey, "port", e.Unquoted())
	}
	if e, ok := env.DotEnv.Get(keys.AuthKey); ok {
		effects.UploadFlags = append(effects.UploadFlags, "--auth="+e.Unquoted())
		logger.Info("OTA password from .env", "key", keys.AuthKey)
	}
	return effects, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunUploadParams(ctx, env, input.(*Input))
		},
	})
}
