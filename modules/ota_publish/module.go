// Package ota_publish uploads the staged OTA release (versioned binaries and
// manifest) to the update server with plain HTTP PUTs, e.g. to pre-signed
// object storage URLs.
package ota_publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/fsutil"
	"github.com/vk/piohooks/internal/registry"
	"github.com/vk/piohooks/modules/ota_manifest"
)

// HookType is the name used in pipeline files.
const HookType = "ota_publish"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'ota_publish' hook.
type Input struct {
	BaseURL string            `hcl:"base_url"`
	Headers map[string]string `hcl:"headers,optional"`
	// Dir defaults to the ota_manifest staging directory.
	Dir string `hcl:"dir,optional"`
}

// OnRunOtaPublish is the handler for the 'ota_publish' hook. Binaries are
// uploaded before the manifest, so clients polling the server never see a
// manifest that points at a missing file.
func OnRunOtaPublish(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	if input.BaseURL == "" {
		return nil, buildenv.Skip("no publish URL configured")
	}
	if env.Uploader == nil {
		return nil, errors.New("no uploader configured")
	}

	rel, updateURL, _, err := ota_manifest.ResolveRelease(env)
	if err != nil {
		return nil, err
	}
	dir := input.Dir
	if dir == "" {
		dir = ota_manifest.StagingDir(env, rel)
	}

	manifest := filepath.Join(dir, updateURL.Base())
	if !fsutil.Exists(manifest) {
		return nil, buildenv.Skip("manifest %s not staged, nothing to publish", manifest)
	}
	var files []string
	for _, name := range []string{rel.FirmwareName(), rel.FilesystemName()} {
		if path := filepath.Join(dir, name); fsutil.Exists(path) {
			files = append(files, path)
		}
	}
	files = append(files, manifest)

	base := strings.TrimRight(input.BaseURL, "/")
	var total int64
	for _, path := range files {
		n, err := env.Uploader.Upload(ctx, base+"/"+filepath.Base(path), path, input.Headers)
		if err != nil {
			return nil, fmt.Errorf("failed to publish release %s: %w", rel.Version, err)
		}
		total += n
	}

	logger.Info("Published OTA release", "type", rel.Basename(), "version", rel.Version, "files", len(files), "size", humanize.Bytes(uint64(total)))
	return &buildenv.Effects{}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunOtaPublish(ctx, env, input.(*Input))
		},
	})
}
