// Package ota_manifest builds the OTA update manifest after a build and
// stages the versioned artifacts next to it, ready for publishing.
package ota_manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-version"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/fsutil"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "ota_manifest"

// UpdateURLKey is the .env key holding the manifest's public URL.
const UpdateURLKey = "SERVER_OTA_UPDATE_URL"

const (
	defaultFirmwareName   = "firmware.bin"
	defaultFilesystemName = "spiffs.bin"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'ota_manifest' hook.
type Input struct {
	FirmwareName   string `hcl:"firmware_name,optional"`
	FilesystemName string `hcl:"filesystem_name,optional"`
	// OutputDir defaults to <build>/ota/<build_type>.
	OutputDir string `hcl:"output_dir,optional"`
}

// artifact is a build output that may be staged for publishing.
type artifact struct {
	kind   string
	source string
	name   string
}

// OnRunOtaManifest is the handler for the 'ota_manifest' hook. It recomputes
// the whole manifest on every call, so it is safe to run for either the
// firmware or the filesystem trigger.
func OnRunOtaManifest(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	rel, updateURL, filesystem, err := ResolveRelease(env)
	if err != nil {
		return nil, err
	}
	if _, err := version.NewVersion(rel.Version); err != nil {
		logger.Warn("Release version is not a valid version string", "version", rel.Version, "error", err)
	}

	firmwareName := input.FirmwareName
	if firmwareName == "" {
		firmwareName = defaultFirmwareName
	}
	filesystemName := input.FilesystemName
	if filesystemName == "" {
		filesystemName = defaultFilesystemName
	}

	firmware := artifact{kind: "firmware", source: filepath.Join(env.EnvBuildDir(), firmwareName), name: rel.FirmwareName()}
	image := artifact{kind: "filesystem", source: filepath.Join(env.EnvBuildDir(), filesystemName), name: rel.FilesystemName()}

	hasFirmware := fsutil.Exists(firmware.source)
	if !hasFirmware {
		logger.Warn("Firmware binary not found, manifest will not reference it", "path", firmware.source)
	}
	hasFilesystem := filesystem != "" && fsutil.Exists(image.source)
	if filesystem != "" && !hasFilesystem {
		logger.Info("Filesystem image not found, manifest will not reference it", "filesystem", filesystem, "path", image.source)
	}

	manifest := NewManifest(rel, updateURL, hasFirmware, hasFilesystem)

	outDir := input.OutputDir
	if outDir == "" {
		outDir = StagingDir(env, rel)
	}
	manifestPath := filepath.Join(outDir, updateURL.Base())

	effects := &buildenv.Effects{}
	var staged []artifact
	if hasFirmware {
		staged = append(staged, firmware)
	}
	if hasFilesystem {
		staged = append(staged, image)
	}
	// Binaries are staged before the manifest is replaced, so a published
	// manifest never points at a file missing from the directory.
	for _, a := range staged {
		dst := filepath.Join(outDir, a.name)
		n, err := fsutil.CopyFile(a.source, dst)
		if err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", a.kind, err)
		}
		logger.Info("Copied artifact", "kind", a.kind, "from", a.source, "to", dst, "size", humanize.Bytes(uint64(n)))
		effects.Artifacts = append(effects.Artifacts, dst)
	}

	warnOnDowngrade(ctx, manifestPath, manifest.Version)

	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := fsutil.WriteFileAtomic(manifestPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	logger.Info("Created JSON file", "path", manifestPath, "manifest", string(data))
	effects.Artifacts = append(effects.Artifacts, manifestPath)

	return effects, nil
}

// ResolveRelease reads the manifest URL from .env and the release identity
// and filesystem type from the project configuration. Anything missing ends
// the calling hook with a soft stop.
func ResolveRelease(env *buildenv.Env) (Release, UpdateURL, string, error) {
	if env.DotEnv == nil {
		return Release{}, "", "", buildenv.Skip("File .env not accessible, create one with %s and other variables set", UpdateURLKey)
	}
	entry, ok := env.DotEnv.Get(UpdateURLKey)
	if !ok || entry.Unquoted() == "" {
		return Release{}, "", "", buildenv.Skip("%s not found in .env file, can't build json manifest for the server", UpdateURLKey)
	}
	updateURL := UpdateURL(entry.Unquoted())
	if updateURL.Base() == "" {
		return Release{}, "", "", buildenv.Skip("%s %q has no manifest file name", UpdateURLKey, string(updateURL))
	}

	rel, filesystem, err := readRelease(env)
	if err != nil {
		return Release{}, "", "", err
	}
	return rel, updateURL, filesystem, nil
}

// StagingDir is the default directory the manifest and versioned artifacts
// are written to.
func StagingDir(env *buildenv.Env, rel Release) string {
	return filepath.Join(env.BuildRoot, "ota", rel.BuildType)
}

func readRelease(env *buildenv.Env) (Release, string, error) {
	if env.Project == nil {
		return Release{}, "", buildenv.Skip("project config not available, can't build json manifest")
	}
	product, err := env.Project.ProductName()
	if err != nil {
		return Release{}, "", buildenv.Skip("%v", err)
	}
	ver, err := env.Project.ReleaseVersion()
	if err != nil {
		return Release{}, "", buildenv.Skip("%v", err)
	}
	buildType, err := env.Project.BuildType(env.PIOEnv)
	if err != nil {
		return Release{}, "", buildenv.Skip("%v", err)
	}
	return Release{ProductName: product, Version: ver, BuildType: buildType}, env.Project.Filesystem(), nil
}

// warnOnDowngrade logs when the manifest about to be replaced advertises a
// newer version than the one being written.
func warnOnDowngrade(ctx context.Context, manifestPath, next string) {
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Debug("Could not read previous manifest", "path", manifestPath, "error", err)
		}
		return
	}
	var prev Manifest
	if err := json.Unmarshal(data, &prev); err != nil {
		logger.Debug("Previous manifest is not valid JSON", "path", manifestPath, "error", err)
		return
	}
	prevVer, err := version.NewVersion(prev.Version)
	if err != nil {
		return
	}
	nextVer, err := version.NewVersion(next)
	if err != nil {
		return
	}
	if prevVer.GreaterThan(nextVer) {
		logger.Warn("Replacing manifest with an older release version", "path", manifestPath, "previous", prev.Version, "next", next)
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunOtaManifest(ctx, env, input.(*Input))
		},
	})
}
