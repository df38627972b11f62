// Package files_exclude resolves the project's custom exclusion patterns to
// the concrete files the build must skip.
package files_exclude

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vk/piohooks/internal/buildenv"
	"github.com/vk/piohooks/internal/ctxlog"
	"github.com/vk/piohooks/internal/projectconf"
	"github.com/vk/piohooks/internal/registry"
)

// HookType is the name used in pipeline files.
const HookType = "files_exclude"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'files_exclude' hook.
type Input struct {
	// Patterns replace custom_build_files_exclude when set.
	Patterns []string `hcl:"patterns,optional"`
	// BaseDir is the directory patterns are relative to. Defaults to the
	// project dir.
	BaseDir string `hcl:"base_dir,optional"`
}

// OnRunFilesExclude is the handler for the 'files_exclude' hook. Invalid
// patterns are logged and ignored.
func OnRunFilesExclude(ctx context.Context, env *buildenv.Env, input *Input) (*buildenv.Effects, error) {
	logger := ctxlog.FromContext(ctx)

	patterns := input.Patterns
	if len(patterns) == 0 {
		patterns = env.Project.BuildFilesExclude()
	}
	if len(patterns) == 0 {
		return nil, buildenv.Skip("%s not set, nothing to exclude", projectconf.KeyBuildFilesExclude)
	}
	logger.Info("Custom skip build targets", "patterns", patterns)

	base := input.BaseDir
	if base == "" {
		base = env.ProjectDir
	}
	fsys := os.DirFS(base)

	var excluded []string
	for _, pattern := range patterns {
		rel, ok := relativePattern(base, pattern)
		if !ok || !doublestar.ValidatePattern(rel) {
			logger.Warn("Ignoring invalid exclusion pattern", "pattern", pattern)
			continue
		}
		matches, err := doublestar.Glob(fsys, rel, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to resolve pattern '%s': %w", pattern, err)
		}
		if len(matches) == 0 {
			logger.Info("Exclusion pattern matched no files", "pattern", pattern)
			continue
		}
		for _, m := range matches {
			excluded = append(excluded, filepath.Join(base, filepath.FromSlash(m)))
		}
	}
	slices.Sort(excluded)
	excluded = slices.Compact(excluded)

	logger.Debug("Excluded files", "count", len(excluded), "files", excluded)
	return &buildenv.Effects{ExcludedFiles: excluded}, nil
}

// relativePattern turns an absolute pattern under base into a slash-separated
// pattern relative to it.
func relativePattern(base, pattern string) (string, bool) {
	if !filepath.IsAbs(pattern) {
		return filepath.ToSlash(pattern), true
	}
	rel, err := filepath.Rel(base, pattern)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHook(HookType, &registry.RegisteredHook{
		NewInput: func() any { return new(Input) },
		Fn: func(ctx context.Context, env *buildenv.Env, input any) (*buildenv.Effects, error) {
			return OnRunFilesExclude(ctx, env, input.(*Input))
		},
	})
}
