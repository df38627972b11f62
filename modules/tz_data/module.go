// Package tz_data caches the POSIX timezone table the firmware embeds. The
// file is downloaded once per build tree.
package tz_data

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "tz_data"

// DefaultURL is the upstream POSIX timezone database.
const DefaultURL = "https://raw.githubusercontent.com/nayarsystems/posix_tz_db/master/zones.csv"

const defaultFileName = "zones.csv"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'tz_data' hook.
type Input struct {
	URL string `hcl:"url,optional"`
	// Dir defaults to <build>/timezone_data.
	Dir string `hcl:"dir,optional"`
}

// OnRunTzData is the handler for the 'tz_data' hook.
func OnRunTzData(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	if env.Downloader == nil {
		return nil, errors.New("no downloader configured")
	}
	url := input.URL
	if url == "" {
		url = DefaultURL
	}
	dir := input.Dir
	if dir == "" {
		dir = filepath.Join(env.BuildRoot, "timezone_data")
	}
	dest := filepath.Join(dir, defaultFileName)

	fetched, err := env.Downloader.Fetch(ctx, url, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to get timezone data: %w", err)
	}
	if fetched {
		logger.Info("Downloaded timezone data", "url", url, "path", dest)
	} else {
		logger.Info("Timezone data already present", "path", dest)
	}
	return &buildenv.Effects{Artifacts: []string{dest}}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunTzData(ctx, env, input.(*Input))
		},
	})
}
